package alert

import (
	"fmt"

	"github.com/shopspring/decimal"

	"stockwatch/internal/market"
)

// ConditionKind enumerates the closed set of supported condition types.
type ConditionKind string

const (
	PriceAbove       ConditionKind = "price_above"
	PriceBelow       ConditionKind = "price_below"
	PricePercentUp   ConditionKind = "price_percent_up"
	PricePercentDown ConditionKind = "price_percent_down"
	VolumeAbove      ConditionKind = "volume_above"
	VolumeBelow      ConditionKind = "volume_below"
	PriceChangeUp    ConditionKind = "price_change_up"
	PriceChangeDown  ConditionKind = "price_change_down"
)

// Condition is a tagged variant: the kind selects the comparison, Target is
// the threshold. Timeframe and Absolute are carried for display only; the
// evaluator does not consume them.
type Condition struct {
	Kind      ConditionKind
	Target    decimal.Decimal
	Timeframe string
	Absolute  bool
}

// Validate rejects unknown kinds and negative targets.
func (c Condition) Validate() error {
	switch c.Kind {
	case PriceAbove, PriceBelow, PricePercentUp, PricePercentDown,
		VolumeAbove, VolumeBelow, PriceChangeUp, PriceChangeDown:
	default:
		return fmt.Errorf("unknown condition kind %q", c.Kind)
	}
	if c.Target.IsNegative() {
		return fmt.Errorf("condition target must not be negative, got %s", c.Target)
	}
	return nil
}

// Describe renders a human-readable form of the condition for notifications.
func (c Condition) Describe() string {
	switch c.Kind {
	case PriceAbove:
		return fmt.Sprintf("price at or above %s", c.Target)
	case PriceBelow:
		return fmt.Sprintf("price at or below %s", c.Target)
	case PricePercentUp:
		return fmt.Sprintf("price up %s%% or more from previous close", c.Target)
	case PricePercentDown:
		return fmt.Sprintf("price down %s%% or more from previous close", c.Target)
	case VolumeAbove:
		return fmt.Sprintf("volume at or above %s", c.Target)
	case VolumeBelow:
		return fmt.Sprintf("volume at or below %s", c.Target)
	case PriceChangeUp:
		return fmt.Sprintf("price up %s or more from previous close", c.Target)
	case PriceChangeDown:
		return fmt.Sprintf("price down %s or more from previous close", c.Target)
	default:
		return string(c.Kind)
	}
}

var hundred = decimal.NewFromInt(100)

// Evaluate reports whether a snapshot satisfies the condition. All thresholds
// are inclusive so a limit-style alert fires the instant the target prints.
// Missing optional snapshot fields evaluate to false rather than erroring,
// as does a zero previous close for the percentage kinds.
func Evaluate(c Condition, snap market.Snapshot) bool {
	switch c.Kind {
	case PriceAbove:
		return snap.Price.GreaterThanOrEqual(c.Target)
	case PriceBelow:
		return snap.Price.LessThanOrEqual(c.Target)
	case PricePercentUp:
		if snap.PreviousClose == nil || snap.PreviousClose.IsZero() {
			return false
		}
		pct := snap.Price.Sub(*snap.PreviousClose).Div(*snap.PreviousClose).Mul(hundred)
		return pct.GreaterThanOrEqual(c.Target)
	case PricePercentDown:
		if snap.PreviousClose == nil || snap.PreviousClose.IsZero() {
			return false
		}
		pct := snap.PreviousClose.Sub(snap.Price).Div(*snap.PreviousClose).Mul(hundred)
		return pct.GreaterThanOrEqual(c.Target)
	case VolumeAbove:
		return snap.Volume != nil && snap.Volume.GreaterThanOrEqual(c.Target)
	case VolumeBelow:
		return snap.Volume != nil && snap.Volume.LessThanOrEqual(c.Target)
	case PriceChangeUp:
		if snap.PreviousClose == nil {
			return false
		}
		return snap.Price.Sub(*snap.PreviousClose).GreaterThanOrEqual(c.Target)
	case PriceChangeDown:
		if snap.PreviousClose == nil {
			return false
		}
		return snap.PreviousClose.Sub(snap.Price).GreaterThanOrEqual(c.Target)
	default:
		return false
	}
}
