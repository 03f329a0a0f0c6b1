package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"stockwatch/internal/alert"
)

// CreateOptions describe a new alert. Quota admission (max alerts per user)
// belongs to the account layer; this path only validates the record itself.
type CreateOptions struct {
	UserID          string
	Symbol          string
	Kind            string
	Target          decimal.Decimal
	Channels        []string
	Priority        string
	MaxSends        int
	CooldownMinutes int
	EndDate         *time.Time
}

// CreateAlert validates and persists a new alert in the armed state.
func (a *App) CreateAlert(ctx context.Context, opts CreateOptions) error {
	userID, err := uuid.Parse(opts.UserID)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", opts.UserID, err)
	}

	symbol := strings.ToUpper(strings.TrimSpace(opts.Symbol))
	if symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if opts.MaxSends < 1 {
		return fmt.Errorf("--max-sends must be at least 1")
	}
	if opts.CooldownMinutes < 0 {
		return fmt.Errorf("--cooldown-minutes must not be negative")
	}

	condition := alert.Condition{
		Kind:   alert.ConditionKind(opts.Kind),
		Target: opts.Target,
	}
	if err := condition.Validate(); err != nil {
		return err
	}

	channels, err := parseChannels(opts.Channels)
	if err != nil {
		return err
	}

	priority, err := parsePriority(opts.Priority)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	record := alert.Alert{
		ID:              uuid.New(),
		UserID:          userID,
		Symbol:          symbol,
		Condition:       condition,
		Status:          alert.StatusActive,
		IsActive:        true,
		Channels:        channels,
		MaxSends:        opts.MaxSends,
		CooldownMinutes: opts.CooldownMinutes,
		StartDate:       now,
		EndDate:         opts.EndDate,
		Priority:        priority,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	store, closeStore, err := a.requireStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := store.InsertAlert(ctx, record); err != nil {
		return err
	}

	a.Logger.Info().
		Stringer("alert_id", record.ID).
		Str("symbol", record.Symbol).
		Str("condition", condition.Describe()).
		Msg("alert created")
	return nil
}

func parseChannels(raw []string) ([]alert.Channel, error) {
	if len(raw) == 0 {
		return []alert.Channel{alert.ChannelInApp}, nil
	}
	channels := make([]alert.Channel, 0, len(raw))
	for _, value := range raw {
		switch channel := alert.Channel(strings.ToLower(strings.TrimSpace(value))); channel {
		case alert.ChannelEmail, alert.ChannelPush, alert.ChannelSMS, alert.ChannelInApp:
			channels = append(channels, channel)
		default:
			return nil, fmt.Errorf("unknown channel %q", value)
		}
	}
	return channels, nil
}

func parsePriority(raw string) (alert.Priority, error) {
	if raw == "" {
		return alert.PriorityMedium, nil
	}
	switch priority := alert.Priority(strings.ToLower(strings.TrimSpace(raw))); priority {
	case alert.PriorityLow, alert.PriorityMedium, alert.PriorityHigh, alert.PriorityCritical:
		return priority, nil
	default:
		return "", fmt.Errorf("unknown priority %q", raw)
	}
}
