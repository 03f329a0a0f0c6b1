package alert

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"stockwatch/internal/market"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func snap(price string, opts ...func(*market.Snapshot)) market.Snapshot {
	s := market.Snapshot{Symbol: "AAPL", Price: dec(price), AsOf: time.Now().UTC()}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func withVolume(v string) func(*market.Snapshot) {
	return func(s *market.Snapshot) { s.Volume = decPtr(v) }
}

func withPrevClose(v string) func(*market.Snapshot) {
	return func(s *market.Snapshot) { s.PreviousClose = decPtr(v) }
}

func TestEvaluate(t *testing.T) {
	cases := []struct {
		name string
		cond Condition
		snap market.Snapshot
		want bool
	}{
		{"price above met", Condition{Kind: PriceAbove, Target: dec("100")}, snap("101"), true},
		{"price above at target is inclusive", Condition{Kind: PriceAbove, Target: dec("150.00")}, snap("150.00"), true},
		{"price above not met", Condition{Kind: PriceAbove, Target: dec("100")}, snap("99.99"), false},
		{"price below met", Condition{Kind: PriceBelow, Target: dec("50")}, snap("49"), true},
		{"price below at target is inclusive", Condition{Kind: PriceBelow, Target: dec("50")}, snap("50"), true},
		{"price below not met", Condition{Kind: PriceBelow, Target: dec("50")}, snap("50.01"), false},

		{"percent up met", Condition{Kind: PricePercentUp, Target: dec("5")}, snap("106", withPrevClose("100")), true},
		{"percent up exact boundary", Condition{Kind: PricePercentUp, Target: dec("5")}, snap("105", withPrevClose("100")), true},
		{"percent up not met", Condition{Kind: PricePercentUp, Target: dec("5")}, snap("104", withPrevClose("100")), false},
		{"percent up missing previous close", Condition{Kind: PricePercentUp, Target: dec("5")}, snap("200"), false},
		{"percent down six versus five", Condition{Kind: PricePercentDown, Target: dec("5")}, snap("94", withPrevClose("100")), true},
		{"percent down not met", Condition{Kind: PricePercentDown, Target: dec("5")}, snap("96", withPrevClose("100")), false},
		{"percent down zero previous close", Condition{Kind: PricePercentDown, Target: dec("5")}, snap("1", withPrevClose("0")), false},

		{"volume above met", Condition{Kind: VolumeAbove, Target: dec("1000000")}, snap("10", withVolume("1000000")), true},
		{"volume above missing volume", Condition{Kind: VolumeAbove, Target: dec("1000000")}, snap("10"), false},
		{"volume below met", Condition{Kind: VolumeBelow, Target: dec("5000")}, snap("10", withVolume("4000")), true},
		{"volume below missing volume", Condition{Kind: VolumeBelow, Target: dec("5000")}, snap("10"), false},

		{"change up met", Condition{Kind: PriceChangeUp, Target: dec("2")}, snap("103", withPrevClose("100.5")), true},
		{"change up at target", Condition{Kind: PriceChangeUp, Target: dec("2.5")}, snap("103", withPrevClose("100.5")), true},
		{"change up missing previous close", Condition{Kind: PriceChangeUp, Target: dec("2")}, snap("103"), false},
		{"change down met", Condition{Kind: PriceChangeDown, Target: dec("3")}, snap("97", withPrevClose("100")), true},
		{"change down not met", Condition{Kind: PriceChangeDown, Target: dec("3")}, snap("98", withPrevClose("100")), false},

		{"unknown kind", Condition{Kind: ConditionKind("rsi_oversold"), Target: dec("30")}, snap("10"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Evaluate(tc.cond, tc.snap))
		})
	}
}

func TestEvaluateDoesNotMutateSnapshot(t *testing.T) {
	s := snap("94", withPrevClose("100"), withVolume("123"))
	before := s
	Evaluate(Condition{Kind: PricePercentDown, Target: dec("5")}, s)
	require.Equal(t, before, s)
}

func TestConditionValidate(t *testing.T) {
	require.NoError(t, Condition{Kind: PriceAbove, Target: dec("10")}.Validate())
	require.NoError(t, Condition{Kind: VolumeBelow, Target: decimal.Zero}.Validate())
	require.Error(t, Condition{Kind: PriceAbove, Target: dec("-1")}.Validate())
	require.Error(t, Condition{Kind: ConditionKind("bogus"), Target: dec("1")}.Validate())
}

func TestConditionDescribe(t *testing.T) {
	c := Condition{Kind: PriceAbove, Target: dec("150")}
	require.Equal(t, "price at or above 150", c.Describe())

	c = Condition{Kind: PricePercentDown, Target: dec("5")}
	require.Contains(t, c.Describe(), "5%")
}
