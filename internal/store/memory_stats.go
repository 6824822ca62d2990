package store

import (
	"context"
	"sync"
	"time"

	"github.com/IgnisDa/trackona/internal/media"
)

// InMemorySummaryRepository is a development-only in-memory implementation.
type InMemorySummaryRepository struct {
	mu   sync.RWMutex
	rows map[string]media.UserSummary
}

func NewInMemorySummaryRepository() *InMemorySummaryRepository {
	return &InMemorySummaryRepository{rows: make(map[string]media.UserSummary)}
}

func (s *InMemorySummaryRepository) Latest(_ context.Context, userID string) (media.UserSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum, ok := s.rows[userID]
	if !ok {
		return media.UserSummary{}, ErrNotFound
	}
	return sum, nil
}

func (s *InMemorySummaryRepository) Upsert(_ context.Context, sum media.UserSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[sum.UserID] = sum
	return nil
}

// InMemoryInteractionRepository is a development-only in-memory implementation.
type InMemoryInteractionRepository struct {
	mu    sync.RWMutex
	units map[string]map[string]int // userID -> metadataID -> units consumed

	MetadataCount int64
	PeopleCount   int64
	ExerciseCount int64
}

func NewInMemoryInteractionRepository() *InMemoryInteractionRepository {
	return &InMemoryInteractionRepository{units: make(map[string]map[string]int)}
}

func (s *InMemoryInteractionRepository) CountMetadata(_ context.Context, _ string, _ *time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.MetadataCount, nil
}

func (s *InMemoryInteractionRepository) CountPeople(_ context.Context, _ string, _ *time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.PeopleCount, nil
}

func (s *InMemoryInteractionRepository) CountExercises(_ context.Context, _ string, _ *time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ExerciseCount, nil
}

func (s *InMemoryInteractionRepository) AddUnitsConsumed(_ context.Context, userID, metadataID string, units int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.units[userID] == nil {
		s.units[userID] = make(map[string]int)
	}
	s.units[userID][metadataID] += units
	return nil
}

func (s *InMemoryInteractionRepository) ResetUnitsConsumed(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.units, userID)
	return nil
}

// UnitsConsumed reads the running total, for assertions in tests.
func (s *InMemoryInteractionRepository) UnitsConsumed(userID, metadataID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.units[userID][metadataID]
}

// InMemoryActivityRepository is a development-only in-memory implementation.
type InMemoryActivityRepository struct {
	mu   sync.RWMutex
	rows map[string][]media.DailyUserActivity
}

func NewInMemoryActivityRepository() *InMemoryActivityRepository {
	return &InMemoryActivityRepository{rows: make(map[string][]media.DailyUserActivity)}
}

func (s *InMemoryActivityRepository) LatestDate(_ context.Context, userID string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.rows[userID]
	if len(rows) == 0 {
		return time.Time{}, ErrNotFound
	}
	latest := rows[0].Date
	for _, a := range rows[1:] {
		if a.Date.After(latest) {
			latest = a.Date
		}
	}
	return latest, nil
}

func (s *InMemoryActivityRepository) DeleteAll(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, userID)
	return nil
}

func (s *InMemoryActivityRepository) Insert(_ context.Context, a media.DailyUserActivity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[a.UserID] = append(s.rows[a.UserID], a)
	return nil
}

// Rows returns a copy of the user's activity rows, for assertions in tests.
func (s *InMemoryActivityRepository) Rows(userID string) []media.DailyUserActivity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]media.DailyUserActivity, len(s.rows[userID]))
	copy(out, s.rows[userID])
	return out
}
