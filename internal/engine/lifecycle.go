package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"stockwatch/internal/alert"
)

// Lifecycle applies user-initiated state transitions through the same
// version-guarded commit path the scan uses, so a UI action overlapping a
// scan can never double-write the commit fields. A lost race surfaces as
// alert.ErrConcurrentModification; the caller may simply retry.
type Lifecycle struct {
	engine *Engine
}

// NewLifecycle wraps an engine's commit plumbing for lifecycle operations.
func NewLifecycle(e *Engine) *Lifecycle {
	return &Lifecycle{engine: e}
}

func (l *Lifecycle) apply(ctx context.Context, id uuid.UUID, op string, mutate func(*alert.Alert) error) (alert.Alert, error) {
	a, err := l.engine.committer.GetAlert(ctx, id)
	if err != nil {
		return alert.Alert{}, fmt.Errorf("%s alert %s: %w", op, id, err)
	}

	expected := a.Version
	if err := mutate(&a); err != nil {
		return alert.Alert{}, err
	}
	a.UpdatedAt = l.engine.now()

	committed, err := l.engine.committer.CommitAlert(ctx, a, expected)
	if err != nil {
		return alert.Alert{}, fmt.Errorf("%s alert %s: %w", op, id, err)
	}

	l.engine.logger.Info().Stringer("alert_id", id).Str("op", op).Str("status", string(committed.Status)).Msg("lifecycle transition applied")
	return committed, nil
}

// Reset re-arms a triggered alert.
func (l *Lifecycle) Reset(ctx context.Context, id uuid.UUID) (alert.Alert, error) {
	return l.apply(ctx, id, "reset", func(a *alert.Alert) error { return a.Reset() })
}

// Snooze suppresses an alert for the given duration.
func (l *Lifecycle) Snooze(ctx context.Context, id uuid.UUID, d time.Duration) (alert.Alert, error) {
	now := l.engine.now()
	return l.apply(ctx, id, "snooze", func(a *alert.Alert) error { return a.Snooze(d, now) })
}

// Cancel terminates an alert. Cancelling an already-cancelled alert succeeds
// without touching the row.
func (l *Lifecycle) Cancel(ctx context.Context, id uuid.UUID) (alert.Alert, error) {
	a, err := l.engine.committer.GetAlert(ctx, id)
	if err != nil {
		return alert.Alert{}, fmt.Errorf("cancel alert %s: %w", id, err)
	}
	if a.Status == alert.StatusCancelled {
		return a, nil
	}
	return l.apply(ctx, id, "cancel", func(a *alert.Alert) error {
		a.Cancel()
		return nil
	})
}

// Enable re-activates an alert for scanning.
func (l *Lifecycle) Enable(ctx context.Context, id uuid.UUID) (alert.Alert, error) {
	return l.apply(ctx, id, "enable", func(a *alert.Alert) error { return a.Enable() })
}

// Disable pauses an alert without losing its history.
func (l *Lifecycle) Disable(ctx context.Context, id uuid.UUID) (alert.Alert, error) {
	return l.apply(ctx, id, "disable", func(a *alert.Alert) error { return a.Disable() })
}
