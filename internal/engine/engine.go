package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"stockwatch/internal/alert"
	"stockwatch/internal/market"
	"stockwatch/internal/storage"
)

// DefaultPageSize caps how many candidate alerts one scan evaluates per symbol.
const DefaultPageSize = 100

// Options tune engine behaviour.
type Options struct {
	// PageSize bounds the candidate batch per scan; zero means DefaultPageSize.
	PageSize int
	// Now overrides the time source, for deterministic tests.
	Now func() time.Time
}

// Engine evaluates candidate alerts against market snapshots and commits
// triggers. Evaluation and gating are pure; the only mutation is the
// version-guarded commit, so overlapping scans of the same symbol settle to
// exactly one successful trigger per eligible window.
type Engine struct {
	candidates storage.CandidateStore
	committer  storage.AlertCommitter
	triggers   storage.TriggerStore
	logger     zerolog.Logger
	pageSize   int
	now        func() time.Time
}

// New constructs an Engine. The trigger store may be nil, in which case no
// audit rows are written.
func New(candidates storage.CandidateStore, committer storage.AlertCommitter, triggers storage.TriggerStore, opts Options, logger zerolog.Logger) *Engine {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	return &Engine{
		candidates: candidates,
		committer:  committer,
		triggers:   triggers,
		logger:     logger.With().Str("component", "engine").Logger(),
		pageSize:   pageSize,
		now:        now,
	}
}

// Scan evaluates every scannable alert on the symbol against the snapshot,
// gates the ones whose condition is met, and commits the eligible triggers.
// Returned events are ordered by descending priority, then alert creation
// order, ready for fan-out.
//
// A lost commit race means another scan already handled that alert; it is
// skipped, not retried, and picked up next cycle if still eligible. A storage
// failure aborts the whole scan and is surfaced to the caller.
func (e *Engine) Scan(ctx context.Context, symbol string, snap market.Snapshot) ([]alert.TriggerEvent, error) {
	now := e.now()

	candidates, err := e.candidates.ListCandidates(ctx, symbol, now, e.pageSize)
	if err != nil {
		return nil, fmt.Errorf("list candidates for %s: %w", symbol, err)
	}

	events := make([]alert.TriggerEvent, 0)
	for _, candidate := range candidates {
		if !alert.Evaluate(candidate.Condition, snap) {
			continue
		}
		if !alert.CanFire(&candidate, now) {
			continue
		}

		expected := candidate.Version
		updated := candidate
		if applyErr := updated.ApplyTrigger(snap, now); applyErr != nil {
			e.logger.Warn().Err(applyErr).Stringer("alert_id", candidate.ID).Msg("trigger precondition violated")
			continue
		}

		committed, commitErr := e.committer.CommitAlert(ctx, updated, expected)
		if errors.Is(commitErr, alert.ErrConcurrentModification) {
			e.logger.Debug().Stringer("alert_id", candidate.ID).Msg("lost trigger race, skipping")
			continue
		}
		if commitErr != nil {
			return nil, fmt.Errorf("commit trigger for %s: %w", candidate.ID, commitErr)
		}

		event := alert.TriggerEvent{
			AlertID:              committed.ID,
			UserID:               committed.UserID,
			Symbol:               committed.Symbol,
			ConditionDescription: committed.Condition.Describe(),
			PriceAtTrigger:       snap.Price,
			VolumeAtTrigger:      snap.Volume,
			ChangeAtTrigger:      snap.ChangeValue(),
			Channels:             committed.Channels,
			Priority:             committed.Priority,
			TriggeredAt:          now,
		}
		events = append(events, event)

		e.audit(ctx, event)

		e.logger.Info().
			Stringer("alert_id", committed.ID).
			Str("symbol", committed.Symbol).
			Str("condition", event.ConditionDescription).
			Str("price", snap.Price.String()).
			Int("send_count", committed.SendCount).
			Msg("alert triggered")
	}

	// candidates arrive in creation order; the stable sort preserves it
	// within each priority band
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Priority.Rank() > events[j].Priority.Rank()
	})

	return events, nil
}

// audit writes a trigger record. Audit failures never unwind a committed
// trigger; they are logged and the scan continues.
func (e *Engine) audit(ctx context.Context, event alert.TriggerEvent) {
	if e.triggers == nil {
		return
	}
	rec := storage.TriggerRecord{
		AlertID:         event.AlertID,
		UserID:          event.UserID,
		Symbol:          event.Symbol,
		Description:     event.ConditionDescription,
		PriceAtTrigger:  event.PriceAtTrigger,
		VolumeAtTrigger: event.VolumeAtTrigger,
		ChangeAtTrigger: event.ChangeAtTrigger,
		Priority:        string(event.Priority),
		TriggeredAt:     event.TriggeredAt,
	}
	if _, err := e.triggers.InsertTrigger(ctx, rec); err != nil {
		e.logger.Error().Err(err).Stringer("alert_id", event.AlertID).Msg("failed to persist trigger record")
	}
}
