package alert

import (
	"fmt"
	"time"

	"stockwatch/internal/market"
)

// ApplyTrigger records a successful trigger on the alert as one atomic unit
// of field changes. The caller must have confirmed CanFire first; the only
// guard kept here is the active-status check, since committing a trigger on
// anything else is a programming error. When the send quota is reached the
// alert is taken out of scanning in the same mutation.
//
// The mutation is in-memory only: durability and the lost-race check happen
// at the storage commit, keyed on the pre-mutation Version.
func (a *Alert) ApplyTrigger(snap market.Snapshot, now time.Time) error {
	if a.Status != StatusActive {
		return fmt.Errorf("%w: trigger from %s", ErrInvalidState, a.Status)
	}

	a.Status = StatusTriggered
	a.TriggeredAt = &now
	a.TriggerCount++

	price := snap.Price
	a.PriceAtTrigger = &price
	a.VolumeAtTrigger = snap.Volume
	a.ChangeAtTrigger = snap.ChangeValue()

	a.LastSent = &now
	a.SendCount++
	if a.SendCount >= a.MaxSends {
		a.IsActive = false
	}
	a.UpdatedAt = now
	return nil
}

// Reset re-arms the alert: status back to active, trigger history cleared,
// send quota restored. Legal from any non-terminal state regardless of prior
// trigger history.
func (a *Alert) Reset() error {
	if a.Status == StatusCancelled {
		return fmt.Errorf("%w: reset from %s", ErrInvalidState, a.Status)
	}

	a.Status = StatusActive
	a.TriggeredAt = nil
	a.PriceAtTrigger = nil
	a.VolumeAtTrigger = nil
	a.ChangeAtTrigger = nil
	a.SendCount = 0
	a.LastSent = nil
	a.IsActive = true
	return nil
}

// Snooze suppresses firing until now plus the given duration. It does not
// change status and is legal from any non-terminal state.
func (a *Alert) Snooze(d time.Duration, now time.Time) error {
	if a.Status == StatusCancelled {
		return fmt.Errorf("%w: snooze from %s", ErrInvalidState, a.Status)
	}
	until := now.Add(d)
	a.SnoozeUntil = &until
	return nil
}

// Cancel moves the alert to its terminal state. Calling it again is a no-op.
func (a *Alert) Cancel() {
	a.Status = StatusCancelled
	a.IsActive = false
}

// Enable re-activates the alert for scanning. Fails once cancelled.
func (a *Alert) Enable() error {
	if a.Status == StatusCancelled {
		return fmt.Errorf("%w: enable from %s", ErrInvalidState, a.Status)
	}
	a.Status = StatusActive
	a.IsActive = true
	return nil
}

// Disable takes the alert out of scanning without losing its history. Fails
// once cancelled.
func (a *Alert) Disable() error {
	if a.Status == StatusCancelled {
		return fmt.Errorf("%w: disable from %s", ErrInvalidState, a.Status)
	}
	a.Status = StatusDisabled
	a.IsActive = false
	return nil
}
