package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	mid "TickPulse/internal/middleware"
	"TickPulse/internal/usecase"
	"TickPulse/pkg/config"
	xhttp "TickPulse/pkg/http"
	applogger "TickPulse/pkg/logger"
)

// agentStopTimeout bounds how long shutdown waits for sessions and in-flight orders.
const agentStopTimeout = 15 * time.Second

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	agent      *usecase.Agent
	pipeline   *mid.JournalPipeline
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	agent *usecase.Agent,
	pipeline *mid.JournalPipeline,
	httpServer *xhttp.Server,
) *App {
	return &App{
		cfg:        cfg,
		log:        log,
		agent:      agent,
		pipeline:   pipeline,
		httpServer: httpServer,
	}
}

// Run starts the application and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext runs until ctx is cancelled or the HTTP server fails to listen.
// The agent returning on its own (every session closed) does not stop the process.
func (a *App) RunContext(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The pipeline outlives ctx so events from stopping sessions still reach it; Close drains it.
	a.pipeline.Start(context.WithoutCancel(ctx))

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	agentDone := make(chan struct{})
	go func() {
		defer close(agentDone)
		a.agent.Run(ctx)
		a.log.Warn("all stream sessions and the relay have stopped")
	}()
	a.log.Info("agent started",
		applogger.Strings("symbols", a.cfg.Symbols()),
		applogger.String("journal", a.cfg.Journal.Backend),
		applogger.Int("http_port", a.cfg.Server.Port),
	)

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
	case err := <-a.httpServer.Errors():
		runErr = fmt.Errorf("http server: %w", err)
	}

	cancel()
	a.shutdown(agentDone)
	return runErr
}

// shutdown gracefully stops all services. The agent goes first so its last journal
// events still reach the pipeline before it drains.
func (a *App) shutdown(agentDone <-chan struct{}) {
	a.log.Info("shutting down")

	select {
	case <-agentDone:
	case <-time.After(agentStopTimeout):
		a.log.Warn("agent did not stop in time", applogger.Duration("timeout", agentStopTimeout))
	}

	if err := a.httpServer.Stop(context.Background()); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	// Flush log digests while the kafka producer is still open.
	a.log.DetachDigest()

	if err := a.pipeline.Close(); err != nil {
		a.log.Warn("journal close error", applogger.Error(err))
	}

	a.log.Info("shutdown complete")
}
