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

var hundred = decimal.NewFromInt(100)

// InMemorySeenRepository is a development-only in-memory implementation.
type InMemorySeenRepository struct {
	mu   sync.RWMutex
	rows map[string]media.Seen // id -> session
	lots map[string]struct {
		lot       media.Lot
		specifics media.Specifics
	} // metadataID -> snapshot slice for StreamCompleted
}

func NewInMemorySeenRepository() *InMemorySeenRepository {
	return &InMemorySeenRepository{
		rows: make(map[string]media.Seen),
		lots: make(map[string]struct {
			lot       media.Lot
			specifics media.Specifics
		}),
	}
}

// SetMetadata registers the lot and specifics joined onto streamed events.
func (s *InMemorySeenRepository) SetMetadata(metadataID string, lot media.Lot, specifics media.Specifics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lots[metadataID] = struct {
		lot       media.Lot
		specifics media.Specifics
	}{lot, specifics}
}

func (s *InMemorySeenRepository) Insert(_ context.Context, seen media.Seen) (media.Seen, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seen.ID == "" {
		seen.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	seen.LastUpdatedOn = now
	if len(seen.UpdatedAt) == 0 {
		seen.UpdatedAt = []time.Time{now}
	}
	s.rows[seen.ID] = seen
	return seen, nil
}

func (s *InMemorySeenRepository) Update(_ context.Context, seen media.Seen) (media.Seen, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[seen.ID]; !ok {
		return media.Seen{}, ErrNotFound
	}
	seen.LastUpdatedOn = time.Now().UTC()
	s.rows[seen.ID] = seen
	return seen, nil
}

func (s *InMemorySeenRepository) forUser(userID, metadataID string) []media.Seen {
	var out []media.Seen
	for _, row := range s.rows {
		if row.UserID == userID && row.MetadataID == metadataID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastUpdatedOn.Equal(out[j].LastUpdatedOn) {
			return out[i].LastUpdatedOn.After(out[j].LastUpdatedOn)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *InMemorySeenRepository) History(_ context.Context, userID, metadataID string) ([]media.Seen, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.forUser(userID, metadataID), nil
}

func (s *InMemorySeenRepository) OpenSessions(_ context.Context, userID, metadataID string) ([]media.Seen, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []media.Seen
	for _, row := range s.forUser(userID, metadataID) {
		if row.Progress.LessThan(hundred) && row.State != media.SeenStateDropped {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *InMemorySeenRepository) MostRecent(_ context.Context, userID, metadataID string) (media.Seen, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.forUser(userID, metadataID)
	if len(rows) == 0 {
		return media.Seen{}, ErrNotFound
	}
	return rows[0], nil
}

type sliceSeenIterator struct {
	events []SeenEvent
	idx    int
}

func (it *sliceSeenIterator) Next(_ context.Context) (*SeenEvent, error) {
	if it.idx >= len(it.events) {
		return nil, nil
	}
	ev := it.events[it.idx]
	it.idx++
	return &ev, nil
}

func (it *sliceSeenIterator) Close() {}

func (s *InMemorySeenRepository) StreamCompleted(_ context.Context, userID string, since *time.Time, finishedOnly bool) (SeenIterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var events []SeenEvent
	for _, row := range s.rows {
		if row.UserID != userID || row.State != media.SeenStateCompleted {
			continue
		}
		if since != nil && !row.LastUpdatedOn.After(*since) {
			continue
		}
		if finishedOnly && row.FinishedOn == nil {
			continue
		}
		meta := s.lots[row.MetadataID]
		events = append(events, SeenEvent{Seen: row, Lot: meta.lot, Specifics: meta.specifics})
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].Seen.LastUpdatedOn.Before(events[j].Seen.LastUpdatedOn)
	})
	return &sliceSeenIterator{events: events}, nil
}

type metadataKey struct {
	lot        media.Lot
	source     media.Source
	identifier string
}

// InMemoryMetadataRepository is a development-only in-memory implementation.
type InMemoryMetadataRepository struct {
	mu   sync.RWMutex
	rows map[string]media.Metadata // id -> row
	keys map[metadataKey]string    // natural key -> id
}

func NewInMemoryMetadataRepository() *InMemoryMetadataRepository {
	return &InMemoryMetadataRepository{
		rows: make(map[string]media.Metadata),
		keys: make(map[metadataKey]string),
	}
}

func (s *InMemoryMetadataRepository) GetByID(_ context.Context, id string) (media.Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.rows[id]
	if !ok {
		return media.Metadata{}, ErrNotFound
	}
	return m, nil
}

func (s *InMemoryMetadataRepository) FindByIdentity(_ context.Context, lot media.Lot, source media.Source, identifier string) (media.Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.keys[metadataKey{lot, source, identifier}]
	if !ok {
		return media.Metadata{}, ErrNotFound
	}
	return s.rows[id], nil
}

func (s *InMemoryMetadataRepository) Insert(_ context.Context, details media.Details, isPartial bool) (media.Metadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := metadataFromDetails(details)
	m.ID = uuid.New().String()
	m.IsPartial = isPartial
	m.LastUpdatedOn = time.Now().UTC()
	s.rows[m.ID] = m
	s.keys[metadataKey{m.Lot, m.Source, m.Identifier}] = m.ID
	return m, nil
}

func (s *InMemoryMetadataRepository) ReplaceSnapshot(_ context.Context, id string, details media.Details) (media.Metadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.rows[id]
	if !ok {
		return media.Metadata{}, ErrNotFound
	}
	m := metadataFromDetails(details)
	m.ID = id
	m.Lot = old.Lot
	m.Source = old.Source
	m.Identifier = old.Identifier
	m.IsPartial = false
	m.LastUpdatedOn = time.Now().UTC()
	s.rows[id] = m
	return m, nil
}

func (s *InMemoryMetadataRepository) MarkNotPartial(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.rows[id]
	if !ok {
		return ErrNotFound
	}
	m.IsPartial = false
	s.rows[id] = m
	return nil
}

func (s *InMemoryMetadataRepository) GetOrCreatePartial(_ context.Context, partial media.PartialMetadata) (media.Metadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := metadataKey{partial.Lot, partial.Source, partial.Identifier}
	if id, ok := s.keys[key]; ok {
		return s.rows[id], nil
	}
	m := media.Metadata{
		ID:            uuid.New().String(),
		Lot:           partial.Lot,
		Source:        partial.Source,
		Identifier:    partial.Identifier,
		Title:         partial.Title,
		IsPartial:     true,
		LastUpdatedOn: time.Now().UTC(),
	}
	if partial.Image != nil {
		m.Images = []string{*partial.Image}
	}
	s.rows[m.ID] = m
	s.keys[key] = m.ID
	return m, nil
}

// InMemoryCollectionRepository is a development-only in-memory implementation.
type InMemoryCollectionRepository struct {
	mu      sync.RWMutex
	ids     map[string]string // userID+"\x00"+name -> collection id
	members map[string]map[string]struct{}
}

func NewInMemoryCollectionRepository() *InMemoryCollectionRepository {
	return &InMemoryCollectionRepository{
		ids:     make(map[string]string),
		members: make(map[string]map[string]struct{}),
	}
}

func collectionKey(userID, name string) string {
	return userID + "\x00" + name
}

func memberKey(entityID string, entityLot media.EntityLot) string {
	return string(entityLot) + "\x00" + entityID
}

func (s *InMemoryCollectionRepository) GetOrCreate(_ context.Context, userID, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreateLocked(userID, name), nil
}

func (s *InMemoryCollectionRepository) getOrCreateLocked(userID, name string) string {
	key := collectionKey(userID, name)
	if id, ok := s.ids[key]; ok {
		return id
	}
	id := uuid.New().String()
	s.ids[key] = id
	s.members[id] = make(map[string]struct{})
	return id
}

func (s *InMemoryCollectionRepository) AddEntity(_ context.Context, userID, collectionName, entityID string, entityLot media.EntityLot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.getOrCreateLocked(userID, collectionName)
	s.members[id][memberKey(entityID, entityLot)] = struct{}{}
	return nil
}

func (s *InMemoryCollectionRepository) RemoveEntity(_ context.Context, userID, collectionName, entityID string, entityLot media.EntityLot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.ids[collectionKey(userID, collectionName)]
	if !ok {
		return nil
	}
	delete(s.members[id], memberKey(entityID, entityLot))
	return nil
}

// Contains reports membership, for assertions in tests.
func (s *InMemoryCollectionRepository) Contains(userID, collectionName, entityID string, entityLot media.EntityLot) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.ids[collectionKey(userID, collectionName)]
	if !ok {
		return false
	}
	_, ok = s.members[id][memberKey(entityID, entityLot)]
	return ok
}

// InMemoryMonitoredRepository is a development-only in-memory implementation.
type InMemoryMonitoredRepository struct {
	mu      sync.RWMutex
	entries []media.MonitoredEntity
}

func NewInMemoryMonitoredRepository() *InMemoryMonitoredRepository {
	return &InMemoryMonitoredRepository{}
}

func (s *InMemoryMonitoredRepository) Add(e media.MonitoredEntity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
}

func (s *InMemoryMonitoredRepository) UsersMonitoring(_ context.Context, entityID string, entityLot media.EntityLot) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []string
	for _, e := range s.entries {
		if e.EntityID == entityID && e.EntityLot == entityLot {
			out = append(out, e.UserID)
		}
	}
	return out, nil
}

// InMemoryPreferencesRepository is a development-only in-memory implementation.
type InMemoryPreferencesRepository struct {
	mu            sync.RWMutex
	notifications map[string]media.NotificationPreferences
	scales        map[string]media.ReviewScale
}

func NewInMemoryPreferencesRepository() *InMemoryPreferencesRepository {
	return &InMemoryPreferencesRepository{
		notifications: make(map[string]media.NotificationPreferences),
		scales:        make(map[string]media.ReviewScale),
	}
}

func (s *InMemoryPreferencesRepository) SetNotificationPreferences(userID string, p media.NotificationPreferences) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications[userID] = p
}

func (s *InMemoryPreferencesRepository) SetReviewScale(userID string, scale media.ReviewScale) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scales[userID] = scale
}

func (s *InMemoryPreferencesRepository) NotificationPreferences(_ context.Context, userID string) (media.NotificationPreferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.notifications[userID], nil
}

func (s *InMemoryPreferencesRepository) ReviewScale(_ context.Context, userID string) (media.ReviewScale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if scale, ok := s.scales[userID]; ok {
		return scale, nil
	}
	return media.ReviewScaleOutOfHundred, nil
}
