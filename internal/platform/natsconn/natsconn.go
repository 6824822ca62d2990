// Package natsconn is the single NATS connection factory for the tracker.
// The job queue and the notification publisher both ride on the connection
// it hands out, so the policy here is fail-fast: a broker that cannot be
// reached at boot stops the process instead of limping along.
package natsconn

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

// Options configures the connection. Zero values fall back to env vars,
// then to built-in defaults.
type Options struct {
	URL           string
	MaxReconnects int           // NATS_MAX_RECONNECTS, default 5
	ReconnectWait time.Duration // NATS_RECONNECT_WAIT, default 2s
}

// Connect dials the broker with the configured reconnect policy. The
// initial dial is not retried; callers treat an error as fatal.
func Connect(opts Options) (*nats.Conn, error) {
	if opts.URL == "" {
		opts.URL = strings.TrimSpace(os.Getenv("NATS_URL"))
		if opts.URL == "" {
			opts.URL = "nats://nats:4222"
		}
	}
	if opts.MaxReconnects == 0 {
		opts.MaxReconnects = envInt("NATS_MAX_RECONNECTS", 5)
	}
	if opts.ReconnectWait == 0 {
		opts.ReconnectWait = envDuration("NATS_RECONNECT_WAIT", 2*time.Second)
	}

	nc, err := nats.Connect(opts.URL,
		nats.MaxReconnects(opts.MaxReconnects),
		nats.ReconnectWait(opts.ReconnectWait),
		nats.RetryOnFailedConnect(false),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s (max_reconnects=%d, wait=%s): %w",
			opts.URL, opts.MaxReconnects, opts.ReconnectWait, err)
	}
	return nc, nil
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
