package app

import (
	"context"
	"errors"
	"time"
)

// Sweep deletes trigger history older than the cutoff. With DryRun it only
// reports how many rows would go.
func (a *App) Sweep(ctx context.Context, opts SweepOptions) error {
	if opts.OlderThan <= 0 {
		return errors.New("--older-than must be a positive duration")
	}

	store, closeStore, err := a.requireStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	cutoff := time.Now().UTC().Add(-opts.OlderThan)

	stale, err := store.ListTriggersBetween(ctx, time.Time{}, cutoff)
	if err != nil {
		return err
	}

	if opts.DryRun {
		a.Logger.Info().Int("rows", len(stale)).Time("cutoff", cutoff).Msg("sweep dry-run: no rows deleted")
		return nil
	}

	if err := store.DeleteTriggersBefore(ctx, cutoff); err != nil {
		return err
	}

	a.Logger.Info().Int("rows", len(stale)).Time("cutoff", cutoff).Msg("swept old trigger history")
	return nil
}
