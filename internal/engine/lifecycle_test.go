package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"stockwatch/internal/alert"
	"stockwatch/internal/storage"
)

func TestLifecycleResetRearmsTriggeredAlert(t *testing.T) {
	store := storage.NewMemoryStore()
	eng := newEngine(store)
	a := newAlert("AAPL", alert.Condition{Kind: alert.PriceAbove, Target: dec("150")}, func(a *alert.Alert) {
		a.MaxSends = 1
	})
	store.PutAlert(a)

	events, err := eng.Scan(context.Background(), "AAPL", aaplSnapshot())
	require.NoError(t, err)
	require.Len(t, events, 1)

	reset, err := NewLifecycle(eng).Reset(context.Background(), a.ID)
	require.NoError(t, err)
	require.Equal(t, alert.StatusActive, reset.Status)
	require.True(t, reset.IsActive)
	require.Zero(t, reset.SendCount)
	require.Nil(t, reset.LastSent)
	require.Nil(t, reset.TriggeredAt)

	// re-armed alert fires again on the next scan
	events, err = eng.Scan(context.Background(), "AAPL", aaplSnapshot())
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestLifecycleSnoozeSuppressesScan(t *testing.T) {
	store := storage.NewMemoryStore()
	eng := newEngine(store)
	a := newAlert("AAPL", alert.Condition{Kind: alert.PriceAbove, Target: dec("150")})
	store.PutAlert(a)

	snoozed, err := NewLifecycle(eng).Snooze(context.Background(), a.ID, 30*time.Minute)
	require.NoError(t, err)
	require.Equal(t, alert.StatusActive, snoozed.Status)
	require.Equal(t, baseTime.Add(30*time.Minute), *snoozed.SnoozeUntil)

	events, err := eng.Scan(context.Background(), "AAPL", aaplSnapshot())
	require.NoError(t, err)
	require.Empty(t, events)
}

func TestLifecycleCancelIsTerminalAndIdempotent(t *testing.T) {
	store := storage.NewMemoryStore()
	eng := newEngine(store)
	lc := NewLifecycle(eng)
	a := newAlert("AAPL", alert.Condition{Kind: alert.PriceAbove, Target: dec("150")})
	store.PutAlert(a)

	cancelled, err := lc.Cancel(context.Background(), a.ID)
	require.NoError(t, err)
	require.Equal(t, alert.StatusCancelled, cancelled.Status)
	require.False(t, cancelled.IsActive)
	versionAfterCancel := cancelled.Version

	again, err := lc.Cancel(context.Background(), a.ID)
	require.NoError(t, err)
	require.Equal(t, versionAfterCancel, again.Version, "repeat cancel must not rewrite the row")

	_, err = lc.Enable(context.Background(), a.ID)
	require.ErrorIs(t, err, alert.ErrInvalidState)
	_, err = lc.Reset(context.Background(), a.ID)
	require.ErrorIs(t, err, alert.ErrInvalidState)
	_, err = lc.Snooze(context.Background(), a.ID, time.Minute)
	require.ErrorIs(t, err, alert.ErrInvalidState)
}

func TestLifecycleDisableEnable(t *testing.T) {
	store := storage.NewMemoryStore()
	eng := newEngine(store)
	lc := NewLifecycle(eng)
	a := newAlert("AAPL", alert.Condition{Kind: alert.PriceAbove, Target: dec("150")})
	store.PutAlert(a)

	disabled, err := lc.Disable(context.Background(), a.ID)
	require.NoError(t, err)
	require.Equal(t, alert.StatusDisabled, disabled.Status)

	events, err := eng.Scan(context.Background(), "AAPL", aaplSnapshot())
	require.NoError(t, err)
	require.Empty(t, events)

	enabled, err := lc.Enable(context.Background(), a.ID)
	require.NoError(t, err)
	require.Equal(t, alert.StatusActive, enabled.Status)

	events, err = eng.Scan(context.Background(), "AAPL", aaplSnapshot())
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestLifecycleStaleVersionLosesRace(t *testing.T) {
	store := storage.NewMemoryStore()
	eng := newEngine(store)
	a := newAlert("AAPL", alert.Condition{Kind: alert.PriceAbove, Target: dec("150")})
	store.PutAlert(a)

	// a scan commits first, bumping the version
	_, err := eng.Scan(context.Background(), "AAPL", aaplSnapshot())
	require.NoError(t, err)

	// a write conditioned on the pre-scan version must lose
	stale := a
	stale.IsMuted = true
	_, err = store.CommitAlert(context.Background(), stale, a.Version)
	require.ErrorIs(t, err, alert.ErrConcurrentModification)
}
