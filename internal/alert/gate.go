package alert

import "time"

// CanFire decides whether an alert whose condition already evaluated true is
// allowed to trigger at the given instant. Rules are checked in order and any
// failure short-circuits:
//
//  1. status must be active; triggered, cancelled and disabled alerts are
//     only re-armed through explicit transitions, never by the gate
//  2. the scheduling window must not have closed
//  3. the send quota must not be exhausted
//  4. no snooze in effect and not muted
//  5. the cooldown since the last send must have fully elapsed (strict:
//     exactly at the boundary is still ineligible)
func CanFire(a *Alert, now time.Time) bool {
	if a.Status != StatusActive {
		return false
	}
	if a.Expired(now) {
		return false
	}
	if a.SendCount >= a.MaxSends {
		return false
	}
	if a.Snoozed(now) || a.IsMuted {
		return false
	}
	if a.LastSent != nil && a.CooldownMinutes > 0 {
		cooldown := time.Duration(a.CooldownMinutes) * time.Minute
		if now.Sub(*a.LastSent) <= cooldown {
			return false
		}
	}
	return true
}
