package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"stockwatch/internal/alert"
	"stockwatch/internal/config"
	"stockwatch/internal/engine"
	"stockwatch/internal/market"
	"stockwatch/internal/notify"
	"stockwatch/internal/scheduler"
	"stockwatch/internal/service"
	"stockwatch/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newFetcher() market.QuoteFetcher {
	return market.NewQuote(market.QuoteOptions{
		BaseURL:   a.Config.Provider.BaseURL,
		APIKey:    a.Config.Provider.APIKey,
		Timeout:   a.Config.Provider.RequestTimeout,
		UserAgent: a.Config.Provider.UserAgent,
	}, a.Logger)
}

func (a *App) newDispatcher(notifications storage.NotificationStore) *notify.Dispatcher {
	notifiers := make([]notify.Notifier, 0, 4)

	if cfg := a.Config.Notify.Email; cfg.Enabled {
		notifiers = append(notifiers, notify.NewEmailNotifier(notify.EmailOptions{
			Host:     cfg.Host,
			Port:     cfg.Port,
			Username: cfg.Username,
			Password: cfg.Password,
			From:     cfg.From,
			To:       cfg.To,
		}, a.Logger))
	}
	if cfg := a.Config.Notify.Push; cfg.Enabled {
		notifiers = append(notifiers, notify.NewWebhookNotifier(alert.ChannelPush, notify.WebhookOptions{
			URL:       cfg.URL,
			AuthToken: cfg.AuthToken,
			Timeout:   cfg.Timeout,
		}, a.Logger))
	}
	if cfg := a.Config.Notify.SMS; cfg.Enabled {
		notifiers = append(notifiers, notify.NewWebhookNotifier(alert.ChannelSMS, notify.WebhookOptions{
			URL:       cfg.URL,
			AuthToken: cfg.AuthToken,
			Timeout:   cfg.Timeout,
		}, a.Logger))
	}
	if a.Config.Notify.InApp.Enabled && notifications != nil {
		notifiers = append(notifiers, notify.NewInAppNotifier(notifications, a.Logger))
	}

	return notify.NewDispatcher(a.Logger, notifiers...)
}

func (a *App) newEngine(store *storage.Store) *engine.Engine {
	return engine.New(store, store, store, engine.Options{
		PageSize: a.Config.Engine.PageSize,
	}, a.Logger)
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// requireStore opens the store and errors out when persistence is not
// configured; the scan pipeline cannot run without it.
func (a *App) requireStore(ctx context.Context) (*storage.Store, func(), error) {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	if store == nil {
		return nil, nil, errors.New("database.dsn not configured")
	}
	return store, closeStore, nil
}

// Run executes the long-running scan service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.requireStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		AlignToStart: a.Config.Scheduler.AlignToTick,
		StartupDelay: a.Config.Scheduler.StartupDelay,
	}, a.Logger)

	svc := service.New(
		sched,
		a.newFetcher(),
		a.newEngine(store),
		store,
		a.newDispatcher(store),
		store,
		a.Config.Scheduler.AdvisoryLockKey,
		a.Logger,
	)

	a.Logger.Info().Msg("starting alert scan service")
	err = svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("alert scan service stopped")
	return nil
}

// ExportOptions hold parameters for exporting trigger history.
type ExportOptions struct {
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}

// SweepOptions configure the trigger-history sweep.
type SweepOptions struct {
	OlderThan time.Duration
	DryRun    bool
}
