package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"stockwatch/internal/alert"
	"stockwatch/internal/engine"
	"stockwatch/internal/market"
	"stockwatch/internal/notify"
	"stockwatch/internal/storage"
)

var tickTime = time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC)

type staticFetcher struct {
	quotes map[string]market.Snapshot
	errs   map[string]error
}

func (f *staticFetcher) FetchQuote(_ context.Context, symbol string) (market.Snapshot, error) {
	if err, ok := f.errs[symbol]; ok {
		return market.Snapshot{}, err
	}
	snap, ok := f.quotes[symbol]
	if !ok {
		return market.Snapshot{}, errors.New("unknown symbol")
	}
	return snap, nil
}

type captureNotifier struct {
	mu     sync.Mutex
	events []alert.TriggerEvent
}

func (c *captureNotifier) Channel() alert.Channel { return alert.ChannelInApp }

func (c *captureNotifier) Notify(_ context.Context, event alert.TriggerEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *captureNotifier) delivered() []alert.TriggerEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]alert.TriggerEvent, len(c.events))
	copy(out, c.events)
	return out
}

func watchAlert(symbol string, kind alert.ConditionKind, target string) alert.Alert {
	return alert.Alert{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Symbol: symbol,
		Condition: alert.Condition{
			Kind:   kind,
			Target: decimal.RequireFromString(target),
		},
		Status:    alert.StatusActive,
		IsActive:  true,
		Channels:  []alert.Channel{alert.ChannelInApp},
		MaxSends:  3,
		Priority:  alert.PriorityMedium,
		StartDate: tickTime.Add(-24 * time.Hour),
		CreatedAt: tickTime.Add(-24 * time.Hour),
		Version:   1,
	}
}

func newService(store *storage.MemoryStore, fetcher market.QuoteFetcher, sink *captureNotifier) *Service {
	logger := zerolog.Nop()
	eng := engine.New(store, store, store, engine.Options{
		Now: func() time.Time { return tickTime },
	}, logger)
	dispatcher := notify.NewDispatcher(logger, sink)
	return New(nil, fetcher, eng, store, dispatcher, nil, 0, logger)
}

func TestProcessTickTriggersAndDispatches(t *testing.T) {
	store := storage.NewMemoryStore()
	store.PutAlert(watchAlert("AAPL", alert.PriceAbove, "190"))
	store.PutAlert(watchAlert("MSFT", alert.PriceBelow, "300"))

	fetcher := &staticFetcher{quotes: map[string]market.Snapshot{
		"AAPL": {Symbol: "AAPL", Price: decimal.RequireFromString("195.10"), AsOf: tickTime},
		"MSFT": {Symbol: "MSFT", Price: decimal.RequireFromString("410.00"), AsOf: tickTime},
	}}
	sink := &captureNotifier{}

	svc := newService(store, fetcher, sink)
	require.NoError(t, svc.ProcessTick(context.Background(), tickTime))

	delivered := sink.delivered()
	require.Len(t, delivered, 1)
	require.Equal(t, "AAPL", delivered[0].Symbol)

	triggers, err := store.ListRecentTriggers(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, triggers, 1)
	require.Equal(t, "AAPL", triggers[0].Symbol)
}

func TestProcessTickSkipsSymbolOnFetchFailure(t *testing.T) {
	store := storage.NewMemoryStore()
	store.PutAlert(watchAlert("AAPL", alert.PriceAbove, "190"))
	store.PutAlert(watchAlert("TSLA", alert.PriceAbove, "100"))

	fetcher := &staticFetcher{
		quotes: map[string]market.Snapshot{
			"TSLA": {Symbol: "TSLA", Price: decimal.RequireFromString("250.00"), AsOf: tickTime},
		},
		errs: map[string]error{
			"AAPL": errors.New("provider unavailable"),
		},
	}
	sink := &captureNotifier{}

	svc := newService(store, fetcher, sink)
	require.NoError(t, svc.ProcessTick(context.Background(), tickTime))

	delivered := sink.delivered()
	require.Len(t, delivered, 1)
	require.Equal(t, "TSLA", delivered[0].Symbol)
}

func TestProcessTickNoScannableAlerts(t *testing.T) {
	store := storage.NewMemoryStore()
	fetcher := &staticFetcher{}
	sink := &captureNotifier{}

	svc := newService(store, fetcher, sink)
	require.NoError(t, svc.ProcessTick(context.Background(), tickTime))
	require.Empty(t, sink.delivered())
}
