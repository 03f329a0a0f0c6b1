package alert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestApplyTriggerCommitsAllFields(t *testing.T) {
	now := time.Now().UTC()
	a := eligibleAlert(now)
	a.MaxSends = 3

	s := snap("151.25", withVolume("2000000"), withPrevClose("148"))
	require.NoError(t, a.ApplyTrigger(s, now))

	require.Equal(t, StatusTriggered, a.Status)
	require.NotNil(t, a.TriggeredAt)
	require.Equal(t, now, *a.TriggeredAt)
	require.Equal(t, 1, a.TriggerCount)
	require.Equal(t, 1, a.SendCount)
	require.NotNil(t, a.LastSent)
	require.Equal(t, now, *a.LastSent)
	require.True(t, a.IsActive, "quota not yet reached")

	require.True(t, a.PriceAtTrigger.Equal(dec("151.25")))
	require.True(t, a.VolumeAtTrigger.Equal(dec("2000000")))
	require.True(t, a.ChangeAtTrigger.Equal(dec("3.25")))
}

func TestApplyTriggerExhaustsQuota(t *testing.T) {
	now := time.Now().UTC()
	a := eligibleAlert(now)
	a.MaxSends = 1

	require.NoError(t, a.ApplyTrigger(snap("151"), now))
	require.Equal(t, 1, a.SendCount)
	require.False(t, a.IsActive, "reaching max sends must deactivate in the same commit")
}

func TestApplyTriggerIncrementsCountByOne(t *testing.T) {
	now := time.Now().UTC()
	a := eligibleAlert(now)
	a.MaxSends = 5

	for i := 1; i <= 3; i++ {
		require.NoError(t, a.ApplyTrigger(snap("151"), now))
		require.Equal(t, i, a.TriggerCount, "trigger count survives reset and only climbs")
		require.Equal(t, 1, a.SendCount, "reset zeroed the quota before this trigger")
		require.LessOrEqual(t, a.SendCount, a.MaxSends)
		require.NoError(t, a.Reset())
	}
}

func TestApplyTriggerCountsClimbTogether(t *testing.T) {
	now := time.Now().UTC()
	a := eligibleAlert(now)
	a.MaxSends = 5

	for i := 1; i <= 3; i++ {
		a.Status = StatusActive
		require.NoError(t, a.ApplyTrigger(snap("151"), now))
		require.Equal(t, i, a.TriggerCount)
		require.Equal(t, i, a.SendCount)
		require.LessOrEqual(t, a.SendCount, a.MaxSends)
	}
}

func TestApplyTriggerRejectsNonActive(t *testing.T) {
	now := time.Now().UTC()
	a := eligibleAlert(now)
	a.Status = StatusTriggered
	require.ErrorIs(t, a.ApplyTrigger(snap("151"), now), ErrInvalidState)
}

func TestResetRearms(t *testing.T) {
	now := time.Now().UTC()
	a := eligibleAlert(now)
	a.MaxSends = 1
	require.NoError(t, a.ApplyTrigger(snap("151", withPrevClose("149")), now))
	require.False(t, a.IsActive)

	require.NoError(t, a.Reset())
	require.Equal(t, StatusActive, a.Status)
	require.Nil(t, a.TriggeredAt)
	require.Nil(t, a.PriceAtTrigger)
	require.Nil(t, a.VolumeAtTrigger)
	require.Nil(t, a.ChangeAtTrigger)
	require.Equal(t, 0, a.SendCount)
	require.Nil(t, a.LastSent)
	require.True(t, a.IsActive)
}

func TestResetFromCancelledFails(t *testing.T) {
	now := time.Now().UTC()
	a := eligibleAlert(now)
	a.Cancel()
	require.ErrorIs(t, a.Reset(), ErrInvalidState)
}

func TestSnooze(t *testing.T) {
	now := time.Now().UTC()
	a := eligibleAlert(now)
	require.NoError(t, a.Snooze(30*time.Minute, now))
	require.Equal(t, StatusActive, a.Status, "snooze must not change status")
	require.Equal(t, now.Add(30*time.Minute), *a.SnoozeUntil)

	a.Cancel()
	require.ErrorIs(t, a.Snooze(time.Minute, now), ErrInvalidState)
}

func TestCancelIsIdempotent(t *testing.T) {
	now := time.Now().UTC()
	a := eligibleAlert(now)
	a.Cancel()
	require.Equal(t, StatusCancelled, a.Status)
	require.False(t, a.IsActive)

	a.Cancel()
	require.Equal(t, StatusCancelled, a.Status)
}

func TestEnableDisable(t *testing.T) {
	now := time.Now().UTC()
	a := eligibleAlert(now)

	require.NoError(t, a.Disable())
	require.Equal(t, StatusDisabled, a.Status)
	require.False(t, a.IsActive)

	require.NoError(t, a.Enable())
	require.Equal(t, StatusActive, a.Status)
	require.True(t, a.IsActive)

	a.Cancel()
	require.ErrorIs(t, a.Enable(), ErrInvalidState)
	require.ErrorIs(t, a.Disable(), ErrInvalidState)
}
