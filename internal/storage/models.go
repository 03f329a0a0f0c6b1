package storage

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TriggerRecord captures a committed trigger for auditing and display.
type TriggerRecord struct {
	ID              int64
	AlertID         uuid.UUID
	UserID          uuid.UUID
	Symbol          string
	Description     string
	PriceAtTrigger  decimal.Decimal
	VolumeAtTrigger *decimal.Decimal
	ChangeAtTrigger *decimal.Decimal
	Priority        string
	TriggeredAt     time.Time
	CreatedAt       time.Time
}

// NotificationRecord is a persisted in-app notification, the delivery target
// of the in_app channel.
type NotificationRecord struct {
	ID        int64
	UserID    uuid.UUID
	AlertID   uuid.UUID
	Symbol    string
	Message   string
	Priority  string
	CreatedAt time.Time
}
