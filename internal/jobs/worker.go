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

// Handlers are the job executors the worker dispatches to.
type Handlers struct {
	RefreshMetadata      func(ctx context.Context, job RefreshMetadataJob) error
	AssociateGroup       func(ctx context.Context, job AssociateGroupJob) error
	RecalculateUserStats func(ctx context.Context, job RecalculateUserStatsJob) error
	DeliverNotification  func(ctx context.Context, job DeliverNotificationJob) error
}

// Worker pull-consumes the jobs stream with durable consumers. Failures are
// Nak'd with exponential backoff; messages past MaxDeliver land on the DLQ
// subject.
type Worker struct {
	Log      *zap.Logger
	JS       nats.JetStreamContext
	Handlers Handlers

	MaxDeliver int
}

func NewWorker(log *zap.Logger, nc *nats.Conn, handlers Handlers) (*Worker, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, err
	}
	return &Worker{Log: log, JS: js, Handlers: handlers, MaxDeliver: 5}, nil
}

func (w *Worker) Run(ctx context.Context) error {
	if err := ensureStream(w.JS); err != nil {
		return err
	}

	subjects := []struct {
		subject string
		durable string
	}{
		{SubjectRefreshMetadata, "tracker_metadata_refresh"},
		{SubjectAssociateGroup, "tracker_group_associate"},
		{SubjectRecalculateUserStats, "tracker_stats_recalculate"},
		{SubjectDeliverNotification, "tracker_notification_deliver"},
	}

	errCh := make(chan error, len(subjects))
	for _, s := range subjects {
		sub, err := w.JS.PullSubscribe(s.subject, s.durable)
		if err != nil {
			return err
		}
		go func(sub *nats.Subscription, subj string) {
			errCh <- w.consumeLoop(ctx, sub, subj)
		}(sub, s.subject)
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

func (w *Worker) consumeLoop(ctx context.Context, sub *nats.Subscription, subj string) error {
	w.Log.Info("consumer started", zap.String("subject", subj))
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		msgs, err := sub.Fetch(1, nats.MaxWait(2*time.Second))
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) {
				continue
			}
			return err
		}
		for _, m := range msgs {
			_ = w.handleMsg(ctx, m, subj)
		}
	}
}

func (w *Worker) handleMsg(ctx context.Context, m *nats.Msg, subj string) error {
	md, _ := m.Metadata()
	numDelivered := uint64(1)
	if md != nil {
		numDelivered = md.NumDelivered
	}

	if w.MaxDeliver > 0 && int(numDelivered) > w.MaxDeliver {
		_ = w.publishDLQ(subj, m.Data, fmt.Sprintf("max deliveries exceeded: %d", numDelivered))
		_ = m.Ack()
		return nil
	}

	err := w.dispatch(ctx, m.Data, subj)
	if err != nil {
		var bad badPayloadError
		if errors.As(err, &bad) {
			w.Log.Warn("bad payload", zap.String("subject", subj), zap.Error(bad.err))
			_ = m.Ack()
			return nil
		}
		w.Log.Warn("job failed",
			zap.String("subject", subj),
			zap.Uint64("attempt", numDelivered),
			zap.Error(err),
		)
		_ = m.NakWithDelay(backoffDelay(numDelivered))
		return err
	}
	_ = m.Ack()
	return nil
}

type badPayloadError struct{ err error }

func (e badPayloadError) Error() string { return "bad payload: " + e.err.Error() }

func (w *Worker) dispatch(ctx context.Context, data []byte, subj string) error {
	switch subj {
	case SubjectRefreshMetadata:
		var j RefreshMetadataJob
		if err := json.Unmarshal(data, &j); err != nil {
			return badPayloadError{err}
		}
		return w.Handlers.RefreshMetadata(ctx, j)
	case SubjectAssociateGroup:
		var j AssociateGroupJob
		if err := json.Unmarshal(data, &j); err != nil {
			return badPayloadError{err}
		}
		return w.Handlers.AssociateGroup(ctx, j)
	case SubjectRecalculateUserStats:
		var j RecalculateUserStatsJob
		if err := json.Unmarshal(data, &j); err != nil {
			return badPayloadError{err}
		}
		return w.Handlers.RecalculateUserStats(ctx, j)
	case SubjectDeliverNotification:
		var j DeliverNotificationJob
		if err := json.Unmarshal(data, &j); err != nil {
			return badPayloadError{err}
		}
		return w.Handlers.DeliverNotification(ctx, j)
	default:
		return nil
	}
}

func (w *Worker) publishDLQ(subject string, data []byte, reason string) error {
	msg := map[string]any{"subject": subject, "reason": reason, "payload": json.RawMessage(data)}
	b, _ := json.Marshal(msg)
	_, err := w.JS.Publish(SubjectDLQ, b)
	return err
}
