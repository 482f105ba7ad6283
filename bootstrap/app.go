// Package bootstrap wires all dependencies and starts the application.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/artpar/socketgate/adapters/metrics"
	"github.com/artpar/socketgate/channel/ws"
	"github.com/artpar/socketgate/config"
	"github.com/artpar/socketgate/core/events"
	"github.com/artpar/socketgate/core/items"
	"github.com/artpar/socketgate/core/realtime"
	"github.com/artpar/socketgate/core/registry"
	"github.com/artpar/socketgate/core/schema"
	"github.com/artpar/socketgate/core/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// App represents the running application.
type App struct {
	Logger   zerolog.Logger
	Config   *config.Config
	Store    *storage.SQLiteStore
	Registry *registry.Registry
	Bus      *events.Bus
	Router   *realtime.Router
	Channel  *ws.Channel
	Metrics  *metrics.Collector

	holder       *config.Holder
	httpServer   *http.Server
	subscription events.Subscription
}

// New creates and initializes the application from a loaded configuration.
func New(cfg *config.Config) (*App, error) {
	return build(cfg, nil)
}

// NewWithHotReload creates the application with config file watching enabled.
func NewWithHotReload(path string) (*App, error) {
	logger := setupLogger(nil)

	holder, err := config.NewHolder(path, logger)
	if err != nil {
		return nil, err
	}

	app, err := build(holder.Get(), holder)
	if err != nil {
		holder.Stop()
		return nil, err
	}

	if err := holder.WatchFile(); err != nil {
		app.Logger.Warn().Err(err).Msg("config watch unavailable, reload via SIGHUP only")
	}
	holder.WatchSignals()
	holder.OnChange(func(cfg *config.Config) {
		if app.Metrics != nil {
			app.Metrics.ConfigReloads.Inc()
		}
		// Server/database changes need a restart; only log levels apply live.
		level, err := zerolog.ParseLevel(cfg.Logging.Level)
		if err == nil {
			zerolog.SetGlobalLevel(level)
		}
	})

	return app, nil
}

// build wires the application components.
func build(cfg *config.Config, holder *config.Holder) (*App, error) {
	logger := setupLogger(cfg)

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.New()
	}

	store, err := storage.NewSQLiteStore(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	reg := registry.New()
	collections, err := schema.ParseDir(cfg.Collections.Dir)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("load collections: %w", err)
	}
	for _, col := range collections {
		if err := reg.Register(col); err != nil {
			store.Close()
			return nil, fmt.Errorf("register collection: %w", err)
		}
		if err := store.CreateTable(context.Background(), col); err != nil {
			store.Close()
			return nil, fmt.Errorf("create table: %w", err)
		}
		logger.Info().Str("collection", col.Name).Msg("collection loaded")
	}

	bus := events.NewBus(logger)

	factory := func(col schema.Collection, acct schema.Accountability) realtime.ItemsService {
		return items.NewService(col, store, acct, logger)
	}

	router := realtime.NewRouter(reg, factory, logger, collector)
	subscription := router.Attach(bus)

	channel := ws.New(bus, ws.Config{
		Path:           cfg.Realtime.Path,
		PingInterval:   cfg.Realtime.PingInterval,
		WriteTimeout:   cfg.Realtime.WriteTimeout,
		MaxMessageSize: cfg.Realtime.MaxMessageSize,
		JWTSecret:      cfg.Auth.JWTSecret,
		RequireAuth:    cfg.Auth.Required,
	}, logger, collector)

	app := &App{
		Logger:       logger,
		Config:       cfg,
		Store:        store,
		Registry:     reg,
		Bus:          bus,
		Router:       router,
		Channel:      channel,
		Metrics:      collector,
		holder:       holder,
		subscription: subscription,
	}
	app.initHTTPServer()

	return app, nil
}

// initHTTPServer builds the HTTP server hosting the channel endpoints.
func (a *App) initHTTPServer() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	if a.Config.Metrics.Enabled {
		r.Handle(a.Config.Metrics.Path, promhttp.Handler())
	}

	r.Get(a.Channel.Path(), a.Channel.ServeHTTP)

	a.httpServer = &http.Server{
		Addr:        fmt.Sprintf("%s:%d", a.Config.Server.Host, a.Config.Server.Port),
		Handler:     r,
		ReadTimeout: a.Config.Server.ReadTimeout,
		// No WriteTimeout: it would sever long-lived websocket connections.
	}
}

// Run starts the server and blocks until shutdown.
func (a *App) Run() error {
	if err := a.Channel.Start(context.Background()); err != nil {
		return fmt.Errorf("start channel: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().Str("addr", a.httpServer.Addr).Msg("server listening")
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
		return a.Shutdown()
	}
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Stop accepting new work before closing connections.
	a.Bus.Unsubscribe(a.subscription)

	if err := a.Channel.Stop(ctx); err != nil {
		a.Logger.Warn().Err(err).Msg("channel stop failed")
	}

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.Logger.Warn().Err(err).Msg("server shutdown failed")
	}

	if a.holder != nil {
		a.holder.Stop()
	}

	return a.Store.Close()
}

// setupLogger builds the application logger from config (or env defaults
// when config is not loaded yet).
func setupLogger(cfg *config.Config) zerolog.Logger {
	level := zerolog.InfoLevel
	format := "json"

	if cfg != nil {
		if parsed, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
			level = parsed
		}
		format = cfg.Logging.Format
	} else if v := os.Getenv("SOCKETGATE_LOG_LEVEL"); v != "" {
		if parsed, err := zerolog.ParseLevel(v); err == nil {
			level = parsed
		}
	}

	zerolog.SetGlobalLevel(level)

	if format == "console" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
