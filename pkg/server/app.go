package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"FolioPull/pkg/config"
	xhttp "FolioPull/pkg/http"
	xlogger "FolioPull/pkg/logger"
)

// Session is the long-lived portfolio session the app serves.
type Session interface {
	ID() string
	Close(ctx context.Context) error
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *xlogger.Logger
	httpServer *xhttp.Server
	session    Session
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	logger *xlogger.Logger,
	httpServer *xhttp.Server,
	session Session,
) *App {
	return &App{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		session:    session,
	}
}

// Run starts the HTTP server and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", xlogger.Error(err))
		return err
	}
	a.logger.Info("portfolio session ready",
		xlogger.String("session", a.session.ID()),
		xlogger.String("display_currency", a.cfg.Portfolio.DisplayCurrency),
		xlogger.String("sink", a.cfg.Sink.Backend),
		xlogger.String("cache", a.cfg.Cache.Backend),
	)

	<-ctx.Done()
	a.logger.Info("shutdown signal received")
	return a.Shutdown(context.Background())
}

// Shutdown stops accepting requests, then releases the session. The log
// collector is flushed before the session closes the sink it publishes through.
func (a *App) Shutdown(ctx context.Context) error {
	if err := a.httpServer.Stop(ctx); err != nil {
		a.logger.Error("http shutdown error", xlogger.Error(err))
	}

	a.logger.RemoveCollector()

	closeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := a.session.Close(closeCtx); err != nil {
		a.logger.Warn("session close error", xlogger.Error(err))
	}

	a.logger.Info("shutdown complete")
	return nil
}
