package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"stockwatch/internal/engine"
	"stockwatch/internal/market"
	"stockwatch/internal/notify"
	"stockwatch/internal/scheduler"
	"stockwatch/internal/storage"
)

// Service orchestrates quote fetching, alert scanning, and fan-out.
type Service struct {
	scheduler  *scheduler.Scheduler
	fetcher    market.QuoteFetcher
	engine     *engine.Engine
	symbols    storage.CandidateStore
	dispatcher *notify.Dispatcher
	logger     zerolog.Logger

	locker  storage.AdvisoryLocker
	lockKey int64
}

// New constructs the scanning service. The locker may be nil when running
// without a database-backed store.
func New(sched *scheduler.Scheduler, fetcher market.QuoteFetcher, eng *engine.Engine, symbols storage.CandidateStore, dispatcher *notify.Dispatcher, locker storage.AdvisoryLocker, lockKey int64, logger zerolog.Logger) *Service {
	return &Service{
		scheduler:  sched,
		fetcher:    fetcher,
		engine:     eng,
		symbols:    symbols,
		dispatcher: dispatcher,
		logger:     logger.With().Str("component", "service").Logger(),
		locker:     locker,
		lockKey:    lockKey,
	}
}

// Run begins the periodic scan loop.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return s.scheduler.Run(ctx, s.ProcessTick)
}

// ProcessTick runs one full scan cycle: every symbol with a scannable alert
// gets one snapshot fetch and one engine scan. A provider failure on one
// symbol skips that symbol only; a storage failure aborts the tick so the
// scheduler can retry it whole.
func (s *Service) ProcessTick(ctx context.Context, tick time.Time) error {
	unlock, proceed, err := s.acquireLock(ctx)
	if err != nil {
		return err
	}
	if !proceed {
		s.logger.Debug().Time("tick", tick).Msg("skip tick because advisory lock held elsewhere")
		return nil
	}
	if unlock != nil {
		defer unlock()
	}

	return s.executeTick(ctx, tick)
}

func (s *Service) executeTick(ctx context.Context, tick time.Time) error {
	symbols, err := s.symbols.ListActiveSymbols(ctx, tick)
	if err != nil {
		return fmt.Errorf("list active symbols: %w", err)
	}
	if len(symbols) == 0 {
		s.logger.Debug().Time("tick", tick).Msg("no scannable alerts")
		return nil
	}

	triggered := 0
	for _, symbol := range symbols {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		snapshot, fetchErr := s.fetcher.FetchQuote(ctx, symbol)
		if fetchErr != nil {
			s.logger.Error().Err(fetchErr).Str("symbol", symbol).Msg("failed to fetch quote, skipping symbol")
			continue
		}

		events, scanErr := s.engine.Scan(ctx, symbol, snapshot)
		if scanErr != nil {
			return fmt.Errorf("scan %s: %w", symbol, scanErr)
		}
		triggered += len(events)

		for _, event := range events {
			s.dispatcher.Dispatch(ctx, event)
		}
	}

	s.logger.Info().
		Time("tick", tick).
		Int("symbols", len(symbols)).
		Int("triggered", triggered).
		Msg("scan cycle complete")
	return nil
}

func (s *Service) acquireLock(ctx context.Context) (func(), bool, error) {
	if s.lockKey == 0 || s.locker == nil {
		return nil, true, nil
	}
	unlock, acquired, err := s.locker.TryAdvisoryLock(ctx, s.lockKey)
	if err != nil {
		return nil, false, fmt.Errorf("acquire advisory lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}
	return unlock, true, nil
}
