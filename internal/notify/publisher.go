// Package notify publishes committed notification events for external
// delivery transports (push, email and so on) to consume. Delivery itself
// happens outside this core.
package notify

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/IgnisDa/trackona/internal/media"
)

const SubjectNotificationReady = "tracker.events.notification_ready"

// Event is the envelope a delivery transport receives.
type Event struct {
	EventID    string           `json:"event_id"`
	UserID     string           `json:"user_id"`
	Message    string           `json:"message"`
	Kind       media.ChangeKind `json:"kind"`
	OccurredAt time.Time        `json:"occurred_at"`
}

// Publisher publishes notification events to NATS JetStream.
// The zero value and a nil pointer are both safe no-op stubs.
type Publisher struct {
	js  nats.JetStreamContext
	log *zap.Logger
}

// New creates a Publisher using an existing JetStream context.
// Pass js=nil to get a no-op stub.
func New(js nats.JetStreamContext, log *zap.Logger) *Publisher {
	return &Publisher{js: js, log: log}
}

// Publish sends a notification event asynchronously (fire-and-forget).
// Failures are logged as warnings and never surface to the caller.
func (p *Publisher) Publish(userID, message string, kind media.ChangeKind) {
	if p == nil || p.js == nil {
		return
	}
	ev := Event{
		EventID:    uuid.NewString(),
		UserID:     userID,
		Message:    message,
		Kind:       kind,
		OccurredAt: time.Now().UTC(),
	}
	data, err := json.Marshal(ev)
	if err != nil {
		p.log.Warn("notify: marshal failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	if _, err := p.js.PublishAsync(SubjectNotificationReady, data); err != nil {
		p.log.Warn("notify: publish failed", zap.String("user_id", userID), zap.Error(err))
	}
}
