package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
)

// Show prints recent trigger history.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.requireStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	triggers, err := store.ListRecentTriggers(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(triggers) == 0 {
		fmt.Fprintln(os.Stdout, "no triggers found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tSymbol\tCondition\tPrice\tVolume\tChange\tPriority")

	for _, trig := range triggers {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			trig.TriggeredAt.UTC().Format(time.RFC3339),
			trig.Symbol,
			sanitizeInline(trig.Description),
			trig.PriceAtTrigger.StringFixed(2),
			formatOptionalDecimal(trig.VolumeAtTrigger, 0),
			formatOptionalDecimal(trig.ChangeAtTrigger, 2),
			trig.Priority,
		)
	}

	writer.Flush()
	return nil
}

func formatOptionalDecimal(d *decimal.Decimal, places int32) string {
	if d == nil {
		return "-"
	}
	return d.StringFixed(places)
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}
