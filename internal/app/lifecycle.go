package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"stockwatch/internal/alert"
	"stockwatch/internal/engine"
)

// LifecycleOp names a user-initiated alert transition.
type LifecycleOp string

const (
	OpReset   LifecycleOp = "reset"
	OpSnooze  LifecycleOp = "snooze"
	OpCancel  LifecycleOp = "cancel"
	OpEnable  LifecycleOp = "enable"
	OpDisable LifecycleOp = "disable"
)

// ApplyLifecycle parses the alert id and runs the named transition through
// the version-guarded commit path.
func (a *App) ApplyLifecycle(ctx context.Context, op LifecycleOp, rawID string, snoozeFor time.Duration) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid alert id %q: %w", rawID, err)
	}

	store, closeStore, err := a.requireStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	lifecycle := engine.NewLifecycle(a.newEngine(store))

	var updated alert.Alert
	switch op {
	case OpReset:
		updated, err = lifecycle.Reset(ctx, id)
	case OpSnooze:
		if snoozeFor <= 0 {
			return fmt.Errorf("--for must be a positive duration")
		}
		updated, err = lifecycle.Snooze(ctx, id, snoozeFor)
	case OpCancel:
		updated, err = lifecycle.Cancel(ctx, id)
	case OpEnable:
		updated, err = lifecycle.Enable(ctx, id)
	case OpDisable:
		updated, err = lifecycle.Disable(ctx, id)
	default:
		return fmt.Errorf("unknown lifecycle op %q", op)
	}
	if err != nil {
		return err
	}

	a.Logger.Info().
		Stringer("alert_id", updated.ID).
		Str("symbol", updated.Symbol).
		Str("status", string(updated.Status)).
		Bool("is_active", updated.IsActive).
		Msg(string(op) + " applied")
	return nil
}
