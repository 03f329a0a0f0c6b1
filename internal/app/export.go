package app

import (
	"context"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"stockwatch/internal/storage"
)

// Export renders trigger history as CSV and/or PNG.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	store, closeStore, err := a.requireStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	to := time.Now().UTC()
	if opts.To != nil {
		to = opts.To.UTC()
	}

	from := to.Add(-30 * 24 * time.Hour)
	if opts.From != nil {
		from = opts.From.UTC()
	}

	if !from.Before(to) {
		return errors.New("from must be before to")
	}

	triggers, err := store.ListTriggersBetween(ctx, from, to)
	if err != nil {
		return err
	}
	if len(triggers) == 0 {
		a.Logger.Info().Msg("no triggers found for export window")
		return nil
	}

	downsampled := downsampleTriggers(triggers, opts.MaxPoints)
	a.Logger.Info().Int("total", len(triggers)).Int("exported", len(downsampled)).Msg("exporting triggers")

	if opts.CSVPath != "" {
		if err := writeTriggersCSV(opts.CSVPath, downsampled); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeTriggersPNG(opts.PNGPath, downsampled); err != nil {
			return err
		}
	}

	return nil
}

func downsampleTriggers(triggers []storage.TriggerRecord, max int) []storage.TriggerRecord {
	if max <= 0 || len(triggers) <= max {
		return triggers
	}

	result := make([]storage.TriggerRecord, 0, max)
	step := float64(len(triggers)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(triggers) {
			idx = len(triggers) - 1
		}
		result = append(result, triggers[idx])
	}
	return result
}

func writeTriggersCSV(path string, triggers []storage.TriggerRecord) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"triggered_at", "symbol", "condition", "price_at_trigger", "volume_at_trigger", "change_at_trigger", "priority"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, trig := range triggers {
		volume := ""
		if trig.VolumeAtTrigger != nil {
			volume = trig.VolumeAtTrigger.String()
		}
		change := ""
		if trig.ChangeAtTrigger != nil {
			change = trig.ChangeAtTrigger.String()
		}
		record := []string{
			trig.TriggeredAt.Format(time.RFC3339),
			trig.Symbol,
			trig.Description,
			trig.PriceAtTrigger.String(),
			volume,
			change,
			trig.Priority,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeTriggersPNG(path string, triggers []storage.TriggerRecord) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(triggers))
	price := make([]float64, len(triggers))
	change := make([]float64, len(triggers))

	for i, trig := range triggers {
		x[i] = trig.TriggeredAt
		price[i] = trig.PriceAtTrigger.InexactFloat64()
		if trig.ChangeAtTrigger != nil {
			change[i] = trig.ChangeAtTrigger.InexactFloat64()
		}
	}

	valueFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.2f")
	}
	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Price at trigger",
			ValueFormatter: valueFormatter,
		},
		YAxisSecondary: chart.YAxis{
			Name:           "Change at trigger",
			ValueFormatter: valueFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Price",
				XValues: x,
				YValues: price,
			},
			chart.TimeSeries{
				Name:    "Change",
				XValues: x,
				YValues: change,
				YAxis:   chart.YAxisSecondary,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
