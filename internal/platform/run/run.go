// Package run owns process lifecycle for the tracker binary: signal
// handling, exit codes and the shutdown grace window shared by the HTTP
// server and the job worker.
package run

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

type Runner struct {
	Logger *zap.Logger
}

func New(log *zap.Logger) *Runner {
	return &Runner{Logger: log}
}

// WithSignals runs start until it returns or SIGINT/SIGTERM arrives, and
// maps the outcome to a process exit code. A server closed by shutdown is
// a clean exit.
func (r *Runner) WithSignals(start func(ctx context.Context) error) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- start(ctx)
	}()

	select {
	case <-ctx.Done():
		r.Logger.Info("shutdown signal received")
		return 0
	case err := <-errCh:
		if err == nil {
			return 0
		}
		if errors.Is(err, http.ErrServerClosed) {
			return 0
		}
		r.Logger.Error("service exited with error", zap.Error(err))
		return 1
	}
}

// Graceful gives shutdown a bounded window so in-flight progress writes
// can finish before the process exits.
func (r *Runner) Graceful(_ context.Context, shutdown func(context.Context) error) {
	c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = shutdown(c)
}

func Exit(code int) {
	os.Exit(code)
}
