package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Enqueuer publishes typed jobs to JetStream.
type Enqueuer struct {
	js  nats.JetStreamContext
	log *zap.Logger
}

// NewEnqueuer wraps an existing NATS connection and ensures the jobs stream
// exists.
func NewEnqueuer(nc *nats.Conn, log *zap.Logger) (*Enqueuer, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, err
	}
	if err := ensureStream(js); err != nil {
		return nil, err
	}
	return &Enqueuer{js: js, log: log}, nil
}

func ensureStream(js nats.JetStreamContext) error {
	_, err := js.StreamInfo(StreamName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return err
	}
	_, err = js.AddStream(&nats.StreamConfig{
		Name:     StreamName,
		Subjects: []string{"tracker.>"},
		Storage:  nats.FileStorage,
		MaxAge:   7 * 24 * time.Hour,
	})
	return err
}

func (e *Enqueuer) publish(subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	ack, err := e.js.Publish(subject, data)
	if err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	e.log.Debug("job enqueued", zap.String("subject", subject), zap.Uint64("seq", ack.Sequence))
	return nil
}

func (e *Enqueuer) RefreshMetadata(_ context.Context, job RefreshMetadataJob) error {
	return e.publish(SubjectRefreshMetadata, job)
}

func (e *Enqueuer) AssociateGroup(_ context.Context, job AssociateGroupJob) error {
	return e.publish(SubjectAssociateGroup, job)
}

func (e *Enqueuer) RecalculateUserStats(_ context.Context, job RecalculateUserStatsJob) error {
	return e.publish(SubjectRecalculateUserStats, job)
}

func (e *Enqueuer) DeliverNotification(_ context.Context, job DeliverNotificationJob) error {
	return e.publish(SubjectDeliverNotification, job)
}
