package store

import (
	"context"
	"time"

	"github.com/IgnisDa/trackona/internal/media"
)

// SummaryRepository persists the per-user checkpointed summary.
type SummaryRepository interface {
	// Latest returns the user's summary, or a zero-valued one with
	// ErrNotFound when none has been calculated yet.
	Latest(ctx context.Context, userID string) (media.UserSummary, error)
	// Upsert inserts or replaces the summary keyed by user.
	Upsert(ctx context.Context, s media.UserSummary) error
}

// InteractionRepository tracks the per-(user, entity) interaction rows,
// including the units-consumed running total fed by the summary fold.
type InteractionRepository interface {
	CountMetadata(ctx context.Context, userID string, since *time.Time) (int64, error)
	CountPeople(ctx context.Context, userID string, since *time.Time) (int64, error)
	CountExercises(ctx context.Context, userID string, since *time.Time) (int64, error)
	// AddUnitsConsumed adds units to the running total of the (user,
	// metadata) interaction row.
	AddUnitsConsumed(ctx context.Context, userID, metadataID string, units int) error
	// ResetUnitsConsumed zeroes every running total of the user before a
	// full recompute.
	ResetUnitsConsumed(ctx context.Context, userID string) error
}

// ActivityRepository persists the daily activity rows.
type ActivityRepository interface {
	// LatestDate returns the most recent date already computed for the
	// user, or ErrNotFound when no rows exist.
	LatestDate(ctx context.Context, userID string) (time.Time, error)
	DeleteAll(ctx context.Context, userID string) error
	Insert(ctx context.Context, a media.DailyUserActivity) error
}
