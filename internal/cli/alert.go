package cli

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"stockwatch/internal/app"
)

var snoozeFor time.Duration

var (
	addUserID   string
	addSymbol   string
	addKind     string
	addTarget   float64
	addChannels []string
	addPriority string
	addMaxSends int
	addCooldown int
	addEndDate  string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a new alert",
	RunE: func(cmd *cobra.Command, args []string) error {
		if addTarget < 0 {
			return errors.New("--target must not be negative")
		}

		opts := app.CreateOptions{
			UserID:          addUserID,
			Symbol:          addSymbol,
			Kind:            addKind,
			Target:          decimal.NewFromFloat(addTarget),
			Channels:        addChannels,
			Priority:        addPriority,
			MaxSends:        addMaxSends,
			CooldownMinutes: addCooldown,
		}

		if addEndDate != "" {
			endDate, err := time.Parse(time.RFC3339, addEndDate)
			if err != nil {
				return errors.New("invalid --end value, expected RFC3339")
			}
			opts.EndDate = &endDate
		}

		return getApp().CreateAlert(cmd.Context(), opts)
	},
}

var alertCmd = &cobra.Command{
	Use:   "alert",
	Short: "Manage the lifecycle of a single alert",
}

func lifecycleCmd(op app.LifecycleOp, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(op) + " <alert-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getApp().ApplyLifecycle(cmd.Context(), op, args[0], snoozeFor)
		},
	}
}

func init() {
	addCmd.Flags().StringVar(&addUserID, "user", "", "Owning user id (UUID)")
	addCmd.Flags().StringVar(&addSymbol, "symbol", "", "Ticker symbol to watch")
	addCmd.Flags().StringVar(&addKind, "kind", "", "Condition kind (price_above, price_below, ...)")
	addCmd.Flags().Float64Var(&addTarget, "target", 0, "Condition target value")
	addCmd.Flags().StringSliceVar(&addChannels, "channels", nil, "Notification channels (default in_app)")
	addCmd.Flags().StringVar(&addPriority, "priority", "", "Fan-out priority (default medium)")
	addCmd.Flags().IntVar(&addMaxSends, "max-sends", 1, "Maximum sends before the alert deactivates")
	addCmd.Flags().IntVar(&addCooldown, "cooldown-minutes", 0, "Minutes between sends")
	addCmd.Flags().StringVar(&addEndDate, "end", "", "Expiry timestamp (RFC3339, optional)")

	snoozeCmd := lifecycleCmd(app.OpSnooze, "Suppress an alert for a duration")
	snoozeCmd.Flags().DurationVar(&snoozeFor, "for", time.Hour, "How long to snooze the alert")

	alertCmd.AddCommand(addCmd)
	alertCmd.AddCommand(lifecycleCmd(app.OpReset, "Re-arm a triggered alert"))
	alertCmd.AddCommand(snoozeCmd)
	alertCmd.AddCommand(lifecycleCmd(app.OpCancel, "Terminate an alert"))
	alertCmd.AddCommand(lifecycleCmd(app.OpEnable, "Re-activate an alert for scanning"))
	alertCmd.AddCommand(lifecycleCmd(app.OpDisable, "Pause an alert without losing history"))
}
