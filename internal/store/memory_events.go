package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/IgnisDa/trackona/internal/media"
)

// InMemoryReviewRepository is a development-only in-memory implementation.
type InMemoryReviewRepository struct {
	mu   sync.RWMutex
	rows []media.Review
}

func NewInMemoryReviewRepository() *InMemoryReviewRepository {
	return &InMemoryReviewRepository{}
}

func (s *InMemoryReviewRepository) Insert(_ context.Context, r media.Review) (media.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.PostedOn.IsZero() {
		r.PostedOn = time.Now().UTC()
	}
	if r.Visibility == "" {
		r.Visibility = media.VisibilityPrivate
	}
	s.rows = append(s.rows, r)
	return r, nil
}

func (s *InMemoryReviewRepository) countLot(userID string, lot media.EntityLot, since *time.Time) int64 {
	var n int64
	for _, r := range s.rows {
		if r.UserID != userID || r.EntityLot != lot {
			continue
		}
		if since != nil && !r.PostedOn.After(*since) {
			continue
		}
		n++
	}
	return n
}

func (s *InMemoryReviewRepository) CountForMetadata(_ context.Context, userID string, since *time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countLot(userID, media.EntityLotMetadata, since), nil
}

func (s *InMemoryReviewRepository) CountForPeople(_ context.Context, userID string, since *time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countLot(userID, media.EntityLotPerson, since), nil
}

type sliceReviewIterator struct {
	rows []media.Review
	idx  int
}

func (it *sliceReviewIterator) Next(_ context.Context) (*media.Review, error) {
	if it.idx >= len(it.rows) {
		return nil, nil
	}
	r := it.rows[it.idx]
	it.idx++
	return &r, nil
}

func (it *sliceReviewIterator) Close() {}

func (s *InMemoryReviewRepository) Stream(_ context.Context, userID string, since *time.Time) (ReviewIterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []media.Review
	for _, r := range s.rows {
		if r.UserID != userID {
			continue
		}
		if since != nil && !r.PostedOn.After(*since) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PostedOn.Before(out[j].PostedOn) })
	return &sliceReviewIterator{rows: out}, nil
}

// InMemoryWorkoutRepository is a development-only in-memory implementation.
type InMemoryWorkoutRepository struct {
	mu   sync.RWMutex
	rows []media.Workout
}

func NewInMemoryWorkoutRepository() *InMemoryWorkoutRepository {
	return &InMemoryWorkoutRepository{}
}

func (s *InMemoryWorkoutRepository) Insert(_ context.Context, w media.Workout) (media.Workout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	s.rows = append(s.rows, w)
	return w, nil
}

func (s *InMemoryWorkoutRepository) filter(userID string, since *time.Time) []media.Workout {
	var out []media.Workout
	for _, w := range s.rows {
		if w.UserID != userID {
			continue
		}
		if since != nil && !w.EndTime.After(*since) {
			continue
		}
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndTime.Before(out[j].EndTime) })
	return out
}

func (s *InMemoryWorkoutRepository) Count(_ context.Context, userID string, since *time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.filter(userID, since))), nil
}

func (s *InMemoryWorkoutRepository) Totals(_ context.Context, userID string, since *time.Time) (decimal.Decimal, decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	minutes, weight := decimal.Zero, decimal.Zero
	for _, w := range s.filter(userID, since) {
		minutes = minutes.Add(decimal.NewFromInt(int64(w.DurationSeconds)).Div(decimal.NewFromInt(60)))
		weight = weight.Add(w.TotalWeight)
	}
	return minutes, weight, nil
}

type sliceWorkoutIterator struct {
	rows []media.Workout
	idx  int
}

func (it *sliceWorkoutIterator) Next(_ context.Context) (*media.Workout, error) {
	if it.idx >= len(it.rows) {
		return nil, nil
	}
	w := it.rows[it.idx]
	it.idx++
	return &w, nil
}

func (it *sliceWorkoutIterator) Close() {}

func (s *InMemoryWorkoutRepository) Stream(_ context.Context, userID string, since *time.Time) (WorkoutIterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &sliceWorkoutIterator{rows: s.filter(userID, since)}, nil
}

// InMemoryMeasurementRepository is a development-only in-memory implementation.
type InMemoryMeasurementRepository struct {
	mu   sync.RWMutex
	rows []media.Measurement
}

func NewInMemoryMeasurementRepository() *InMemoryMeasurementRepository {
	return &InMemoryMeasurementRepository{}
}

func (s *InMemoryMeasurementRepository) Insert(_ context.Context, m media.Measurement) (media.Measurement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	s.rows = append(s.rows, m)
	return m, nil
}

func (s *InMemoryMeasurementRepository) filter(userID string, since *time.Time) []media.Measurement {
	var out []media.Measurement
	for _, m := range s.rows {
		if m.UserID != userID {
			continue
		}
		if since != nil && !m.Timestamp.After(*since) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

func (s *InMemoryMeasurementRepository) Count(_ context.Context, userID string, since *time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.filter(userID, since))), nil
}

type sliceMeasurementIterator struct {
	rows []media.Measurement
	idx  int
}

func (it *sliceMeasurementIterator) Next(_ context.Context) (*media.Measurement, error) {
	if it.idx >= len(it.rows) {
		return nil, nil
	}
	m := it.rows[it.idx]
	it.idx++
	return &m, nil
}

func (it *sliceMeasurementIterator) Close() {}

func (s *InMemoryMeasurementRepository) Stream(_ context.Context, userID string, since *time.Time) (MeasurementIterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &sliceMeasurementIterator{rows: s.filter(userID, since)}, nil
}
