package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"stockwatch/internal/alert"
	"stockwatch/internal/storage"
)

// InAppNotifier delivers trigger events by persisting a notification row the
// user's client picks up on its next fetch.
type InAppNotifier struct {
	store  storage.NotificationStore
	logger zerolog.Logger
}

// NewInAppNotifier constructs an in-app notifier over a notification store.
func NewInAppNotifier(store storage.NotificationStore, logger zerolog.Logger) *InAppNotifier {
	return &InAppNotifier{
		store:  store,
		logger: logger.With().Str("component", "notify_in_app").Logger(),
	}
}

// Channel reports the in-app channel kind.
func (n *InAppNotifier) Channel() alert.Channel {
	return alert.ChannelInApp
}

// Notify inserts the notification row.
func (n *InAppNotifier) Notify(ctx context.Context, event alert.TriggerEvent) error {
	if n.store == nil {
		return fmt.Errorf("notification store not configured")
	}

	rec := storage.NotificationRecord{
		UserID:   event.UserID,
		AlertID:  event.AlertID,
		Symbol:   event.Symbol,
		Message:  RenderMessage(event),
		Priority: string(event.Priority),
	}
	if err := n.store.InsertNotification(ctx, rec); err != nil {
		return fmt.Errorf("store in-app notification: %w", err)
	}

	n.logger.Info().
		Stringer("alert_id", event.AlertID).
		Str("symbol", event.Symbol).
		Msg("notification stored")
	return nil
}

var _ Notifier = (*InAppNotifier)(nil)
