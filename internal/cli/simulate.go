package cli

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"stockwatch/internal/app"
)

var (
	simulateSymbol    string
	simulatePrice     float64
	simulateVolume    float64
	simulatePrevClose float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate-scan",
	Short: "Run one scan for a symbol against a synthetic quote",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulateSymbol == "" {
			return errors.New("--symbol must be provided")
		}
		if simulatePrice <= 0 {
			return errors.New("--price must be greater than 0")
		}

		opts := app.SimulateOptions{
			Symbol: simulateSymbol,
			Price:  decimal.NewFromFloat(simulatePrice),
		}
		if simulateVolume > 0 {
			volume := decimal.NewFromFloat(simulateVolume)
			opts.Volume = &volume
		}
		if simulatePrevClose > 0 {
			prev := decimal.NewFromFloat(simulatePrevClose)
			opts.PreviousClose = &prev
		}

		return getApp().SimulateScan(cmd.Context(), opts)
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulateSymbol, "symbol", "", "Ticker symbol to scan")
	simulateCmd.Flags().Float64Var(&simulatePrice, "price", 0, "Synthetic last price")
	simulateCmd.Flags().Float64Var(&simulateVolume, "volume", 0, "Synthetic volume (optional)")
	simulateCmd.Flags().Float64Var(&simulatePrevClose, "prev-close", 0, "Synthetic previous close (optional)")
}
