// Package app wires configuration, logging, the user registry and the HTTP
// router together, and runs the server with graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/patric-chuzhbe/greeter/internal/config"
	"github.com/patric-chuzhbe/greeter/internal/logger"
	"github.com/patric-chuzhbe/greeter/internal/registry"
	"github.com/patric-chuzhbe/greeter/internal/router"
)

// App owns the single registry instance of the process and the HTTP handler
// built around it.
type App struct {
	cfg         *config.Config
	db          *registry.Registry
	httpHandler http.Handler
}

// New loads the configuration, initializes the logger, creates an empty
// registry and sets up the router.
func New(configOptions ...config.InitOption) (*App, error) {
	var err error
	app := &App{}

	app.cfg, err = config.New(configOptions...)
	if err != nil {
		return nil, err
	}

	err = logger.Init(app.cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	app.db = registry.New()

	app.httpHandler = router.New(
		app.db,
		router.WithWorkers(app.cfg.Workers, app.cfg.Backlog, app.cfg.BacklogTimeout),
	)

	return app, nil
}

// Run serves HTTP until SIGINT or SIGTERM is received.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return a.Serve(ctx)
}

// Serve binds the configured address and serves HTTP until ctx is done,
// then shuts the server down within the configured timeout.
func (a *App) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", a.cfg.RunAddr)
	if err != nil {
		return fmt.Errorf("in internal/app/app.go/Serve(): error while `net.Listen()` calling: %w", err)
	}

	logger.Log.Infow("Starting server",
		"address", listener.Addr().String(),
		"workers", a.cfg.Workers,
	)

	server := &http.Server{
		Handler: a.httpHandler,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		amountOfUsers, _ := a.db.Len(context.Background())
		logger.Log.Infow("Received shutdown signal, stopping server",
			"users_discarded", amountOfUsers,
		)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		return nil

	case err := <-serverErrCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Log.Errorw("server stopped unexpectedly", zap.Error(err))
		return fmt.Errorf("server error: %w", err)
	}
}

// Close flushes the logger.
func (a *App) Close() {
	if err := logger.Sync(); err != nil {
		fmt.Println("Logger sync error:", err)
	}
}
