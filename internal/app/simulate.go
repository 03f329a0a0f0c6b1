package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stockwatch/internal/market"
)

// SimulateOptions describe the synthetic quote fed into a simulated scan.
type SimulateOptions struct {
	Symbol        string
	Price         decimal.Decimal
	Volume        *decimal.Decimal
	PreviousClose *decimal.Decimal
}

// SimulateScan runs one scan cycle for a single symbol against a synthetic
// snapshot instead of a live quote. Triggers commit and notifications go out
// exactly as they would during a scheduled tick.
func (a *App) SimulateScan(ctx context.Context, opts SimulateOptions) error {
	symbol := strings.ToUpper(strings.TrimSpace(opts.Symbol))
	if symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if opts.Price.IsZero() {
		return fmt.Errorf("price must be a positive value")
	}

	store, closeStore, err := a.requireStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	snap := market.Snapshot{
		Symbol:        symbol,
		Price:         opts.Price,
		Volume:        opts.Volume,
		PreviousClose: opts.PreviousClose,
		AsOf:          time.Now().UTC(),
	}

	eng := a.newEngine(store)
	dispatcher := a.newDispatcher(store)

	events, err := eng.Scan(ctx, symbol, snap)
	if err != nil {
		return err
	}

	if len(events) == 0 {
		a.Logger.Info().Str("symbol", symbol).Msg("no alerts triggered by simulated snapshot")
		return nil
	}

	for _, event := range events {
		for _, res := range dispatcher.Dispatch(ctx, event) {
			if res.Err != nil {
				a.Logger.Warn().Err(res.Err).
					Stringer("alert_id", event.AlertID).
					Str("channel", string(res.Channel)).
					Msg("simulated dispatch failed")
				continue
			}
			a.Logger.Info().
				Stringer("alert_id", event.AlertID).
				Str("channel", string(res.Channel)).
				Msg("simulated dispatch delivered")
		}
	}

	a.Logger.Info().Str("symbol", symbol).Int("triggered", len(events)).Msg("simulated scan complete")
	return nil
}
