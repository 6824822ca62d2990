// Package jobs defines the typed background jobs the engines enqueue and
// the NATS JetStream plumbing that carries them.
package jobs

import (
	"context"

	"github.com/IgnisDa/trackona/internal/media"
)

// Subjects under the tracker stream, one per job type.
const (
	StreamName = "TRACKER_JOBS"

	SubjectRefreshMetadata      = "tracker.metadata.refresh"
	SubjectAssociateGroup       = "tracker.group.associate"
	SubjectRecalculateUserStats = "tracker.stats.recalculate"
	SubjectDeliverNotification  = "tracker.notification.deliver"
	SubjectDLQ                  = "tracker.dlq"
)

type RefreshMetadataJob struct {
	MetadataID string `json:"metadata_id"`
	Force      bool   `json:"force"`
}

type AssociateGroupJob struct {
	Lot        media.Lot    `json:"lot"`
	Source     media.Source `json:"source"`
	Identifier string       `json:"identifier"`
}

type RecalculateUserStatsJob struct {
	UserID        string `json:"user_id"`
	FromBeginning bool   `json:"from_beginning"`
}

type DeliverNotificationJob struct {
	UserID  string           `json:"user_id"`
	Message string           `json:"message"`
	Kind    media.ChangeKind `json:"kind"`
}

// Queue is the enqueue side consumed by the engines. Execution and retry
// live in the worker.
type Queue interface {
	RefreshMetadata(ctx context.Context, job RefreshMetadataJob) error
	AssociateGroup(ctx context.Context, job AssociateGroupJob) error
	RecalculateUserStats(ctx context.Context, job RecalculateUserStatsJob) error
	DeliverNotification(ctx context.Context, job DeliverNotificationJob) error
}
