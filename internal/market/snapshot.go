package market

import (
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot is a single observation of a symbol supplied by a quote provider.
// Optional fields are nil when the upstream source did not report them; the
// alert engine treats absence as "condition not met", never as an error.
type Snapshot struct {
	Symbol        string
	Price         decimal.Decimal
	Volume        *decimal.Decimal
	PreviousClose *decimal.Decimal
	Change        *decimal.Decimal
	AsOf          time.Time
}

// ChangeValue returns the absolute price change for the snapshot, preferring
// the provider-reported change and falling back to price minus previous close.
// Returns nil when neither is available.
func (s Snapshot) ChangeValue() *decimal.Decimal {
	if s.Change != nil {
		return s.Change
	}
	if s.PreviousClose != nil {
		change := s.Price.Sub(*s.PreviousClose)
		return &change
	}
	return nil
}

// PercentChange returns the percent move versus previous close, or nil when
// previous close is absent or zero.
func (s Snapshot) PercentChange() *decimal.Decimal {
	if s.PreviousClose == nil || s.PreviousClose.IsZero() {
		return nil
	}
	pct := s.Price.Sub(*s.PreviousClose).Div(*s.PreviousClose).Mul(decimal.NewFromInt(100))
	return &pct
}
