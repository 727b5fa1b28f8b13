package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"RiskPulse/internal/usecase"
	"RiskPulse/pkg/cache"
	"RiskPulse/pkg/config"
	xhttp "RiskPulse/pkg/http"
	applogger "RiskPulse/pkg/logger"
)

// App encapsulates the application lifecycle: warm-up, the HTTP server, and
// graceful shutdown on signal.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	engine     *usecase.Engine
	handler    xhttp.Handler
	cache      cache.Service
	httpServer *xhttp.Server
}

// New creates the application with all dependencies injected.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	engine *usecase.Engine,
	handler xhttp.Handler,
	cacheSvc cache.Service,
) *App {
	return &App{
		cfg:     cfg,
		logger:  l,
		engine:  engine,
		handler: handler,
		cache:   cacheSvc,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.engine.WarmUp(ctx); err != nil {
		return err
	}
	a.logger.Info("engine warmed up", applogger.Int("assets", len(a.cfg.Assets)))

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithServerLogger(a.logger),
	)
	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown(ctx)
}

func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Warn("cache close error", applogger.Error(err))
	}

	a.logger.Info("shutdown complete")
	return nil
}
