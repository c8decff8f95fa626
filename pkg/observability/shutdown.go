package observability

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// ShutdownFunc is a function to call during shutdown. Sink drain/flush hooks
// (log writers, notification dispatchers) register here so queued events are
// flushed or explicitly dropped before the process exits.
type ShutdownFunc func(context.Context) error

// ShutdownManager handles graceful shutdown of the server and its sinks
type ShutdownManager struct {
	logger          *Logger
	server          *http.Server
	shutdownFuncs   []ShutdownFunc
	shutdownTimeout time.Duration
	mu              sync.Mutex
}

// NewShutdownManager creates a new shutdown manager
func NewShutdownManager(logger *Logger, server *http.Server, timeout time.Duration) *ShutdownManager {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &ShutdownManager{
		logger:          logger,
		server:          server,
		shutdownTimeout: timeout,
	}
}

// Register adds a function to call during shutdown. Functions run after the
// HTTP server stops accepting requests, so sinks see no new events while
// draining.
func (sm *ShutdownManager) Register(fn ShutdownFunc) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.shutdownFuncs = append(sm.shutdownFuncs, fn)
}

// WaitForShutdown blocks until SIGINT/SIGTERM, then shuts the server down and
// runs every registered shutdown function within the configured timeout.
func (sm *ShutdownManager) WaitForShutdown() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	sm.logger.Infof("Received signal %s, starting graceful shutdown", sig)

	ctx, cancel := context.WithTimeout(context.Background(), sm.shutdownTimeout)
	defer cancel()

	return sm.Shutdown(ctx)
}

// Shutdown performs the shutdown sequence immediately
func (sm *ShutdownManager) Shutdown(ctx context.Context) error {
	if sm.server != nil {
		sm.logger.Info("Shutting down HTTP server")
		if err := sm.server.Shutdown(ctx); err != nil {
			sm.logger.WithError(err).Error("HTTP server shutdown error")
			return fmt.Errorf("HTTP server shutdown failed: %w", err)
		}
	}

	sm.mu.Lock()
	funcs := sm.shutdownFuncs
	sm.mu.Unlock()

	var firstErr error
	for i, fn := range funcs {
		if err := fn(ctx); err != nil {
			sm.logger.WithError(err).Errorf("Shutdown function %d failed", i)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	sm.logger.Info("Graceful shutdown complete")
	return firstErr
}
