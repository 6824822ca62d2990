package store

import (
	"context"
	"time"

	"github.com/IgnisDa/trackona/internal/media"
	"github.com/shopspring/decimal"
)

// ReviewIterator, WorkoutIterator and MeasurementIterator are forward-only
// cursors mirroring SeenIterator for the other event sources.
type ReviewIterator interface {
	Next(ctx context.Context) (*media.Review, error)
	Close()
}

type WorkoutIterator interface {
	Next(ctx context.Context) (*media.Workout, error)
	Close()
}

type MeasurementIterator interface {
	Next(ctx context.Context) (*media.Measurement, error)
	Close()
}

// ReviewRepository persists reviews and exposes the aggregate reads the
// statistics folds need.
type ReviewRepository interface {
	Insert(ctx context.Context, r media.Review) (media.Review, error)
	CountForMetadata(ctx context.Context, userID string, since *time.Time) (int64, error)
	CountForPeople(ctx context.Context, userID string, since *time.Time) (int64, error)
	Stream(ctx context.Context, userID string, since *time.Time) (ReviewIterator, error)
}

// WorkoutRepository persists workouts for the statistics folds.
type WorkoutRepository interface {
	Insert(ctx context.Context, w media.Workout) (media.Workout, error)
	Count(ctx context.Context, userID string, since *time.Time) (int64, error)
	// Totals returns the summed duration in minutes and the summed lifted
	// weight for workouts after since.
	Totals(ctx context.Context, userID string, since *time.Time) (decimal.Decimal, decimal.Decimal, error)
	Stream(ctx context.Context, userID string, since *time.Time) (WorkoutIterator, error)
}

// MeasurementRepository persists body measurements.
type MeasurementRepository interface {
	Insert(ctx context.Context, m media.Measurement) (media.Measurement, error)
	Count(ctx context.Context, userID string, since *time.Time) (int64, error)
	Stream(ctx context.Context, userID string, since *time.Time) (MeasurementIterator, error)
}
