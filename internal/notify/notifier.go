package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"stockwatch/internal/alert"
)

// Notifier delivers one trigger event over a single channel kind.
type Notifier interface {
	Channel() alert.Channel
	Notify(ctx context.Context, event alert.TriggerEvent) error
}

// DispatchResult reports the outcome of one channel delivery attempt.
type DispatchResult struct {
	Channel alert.Channel
	Err     error
}

// Dispatcher fans a trigger event out to its configured channels. Channels
// are attempted independently: one failing delivery never blocks the others,
// and no failure unwinds the already-committed trigger.
type Dispatcher struct {
	notifiers map[alert.Channel]Notifier
	logger    zerolog.Logger
}

// NewDispatcher registers the given channel notifiers.
func NewDispatcher(logger zerolog.Logger, notifiers ...Notifier) *Dispatcher {
	byChannel := make(map[alert.Channel]Notifier, len(notifiers))
	for _, n := range notifiers {
		byChannel[n.Channel()] = n
	}
	return &Dispatcher{
		notifiers: byChannel,
		logger:    logger.With().Str("component", "dispatcher").Logger(),
	}
}

// Dispatch attempts delivery on every channel of the event, in the order the
// alert configured them. It returns one result per channel.
func (d *Dispatcher) Dispatch(ctx context.Context, event alert.TriggerEvent) []DispatchResult {
	results := make([]DispatchResult, 0, len(event.Channels))
	for _, channel := range event.Channels {
		notifier, ok := d.notifiers[channel]
		if !ok {
			err := fmt.Errorf("no notifier registered for channel %s", channel)
			d.logger.Warn().Stringer("alert_id", event.AlertID).Str("channel", string(channel)).Msg("channel not configured, skipping")
			results = append(results, DispatchResult{Channel: channel, Err: err})
			continue
		}

		err := notifier.Notify(ctx, event)
		if err != nil {
			d.logger.Error().Err(err).
				Stringer("alert_id", event.AlertID).
				Str("channel", string(channel)).
				Msg("failed to dispatch notification")
		}
		results = append(results, DispatchResult{Channel: channel, Err: err})
	}
	return results
}

// RenderMessage builds the shared notification text for an event.
func RenderMessage(event alert.TriggerEvent) string {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("[Stock Alert] %s\n", event.Symbol))
	builder.WriteString(fmt.Sprintf("Condition: %s\n", event.ConditionDescription))
	builder.WriteString(fmt.Sprintf("Price: %s\n", event.PriceAtTrigger.StringFixed(2)))
	if event.VolumeAtTrigger != nil {
		builder.WriteString(fmt.Sprintf("Volume: %s\n", event.VolumeAtTrigger.StringFixed(0)))
	}
	if event.ChangeAtTrigger != nil {
		builder.WriteString(fmt.Sprintf("Change: %s\n", event.ChangeAtTrigger.StringFixed(2)))
	}
	builder.WriteString(fmt.Sprintf("Priority: %s\n", event.Priority))
	builder.WriteString(fmt.Sprintf("Triggered: %s UTC\n", event.TriggeredAt.UTC().Format(time.RFC3339)))
	return builder.String()
}
