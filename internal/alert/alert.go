package alert

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an alert.
type Status string

const (
	StatusActive    Status = "active"
	StatusTriggered Status = "triggered"
	StatusCancelled Status = "cancelled"
	StatusDisabled  Status = "disabled"
)

// Channel identifies a notification delivery channel.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelPush  Channel = "push"
	ChannelSMS   Channel = "sms"
	ChannelInApp Channel = "in_app"
)

// Priority orders notification fan-out; it never changes evaluation.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Rank maps a priority to a sortable weight, higher firing first.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 3
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}

// Alert is a user-defined price/volume watch on a single symbol. The commit
// fields (Status, SendCount, LastSent, TriggerCount, TriggeredAt, IsActive)
// are guarded by Version for optimistic concurrency; every conditional write
// bumps Version by one.
type Alert struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Symbol    string
	Condition Condition

	Status   Status
	IsActive bool

	Channels        []Channel
	Frequency       string
	MaxSends        int
	CooldownMinutes int
	LastSent        *time.Time
	SendCount       int

	StartDate time.Time
	EndDate   *time.Time

	SnoozeUntil *time.Time
	IsMuted     bool

	TriggeredAt     *time.Time
	TriggerCount    int
	PriceAtTrigger  *decimal.Decimal
	VolumeAtTrigger *decimal.Decimal
	ChangeAtTrigger *decimal.Decimal

	Priority Priority

	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ExpiresAt derives the expiry instant from the scheduling window. Expiry is
// never materialised as a stored status; it is recomputed on every read.
func (a *Alert) ExpiresAt() *time.Time {
	return a.EndDate
}

// Expired reports whether the alert's scheduling window has closed.
func (a *Alert) Expired(now time.Time) bool {
	exp := a.ExpiresAt()
	return exp != nil && !exp.After(now)
}

// Snoozed reports whether a user snooze is still in effect.
func (a *Alert) Snoozed(now time.Time) bool {
	return a.SnoozeUntil != nil && a.SnoozeUntil.After(now)
}

// TriggerEvent is the artifact handed to notification fan-out after a trigger
// commits. It carries everything delivery needs so channels never re-read the
// alert record.
type TriggerEvent struct {
	AlertID              uuid.UUID
	UserID               uuid.UUID
	Symbol               string
	ConditionDescription string
	PriceAtTrigger       decimal.Decimal
	VolumeAtTrigger      *decimal.Decimal
	ChangeAtTrigger      *decimal.Decimal
	Channels             []Channel
	Priority             Priority
	TriggeredAt          time.Time
}
