package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/IgnisDa/trackona/internal/media"
)

type personKey struct {
	source     media.Source
	identifier string
	specifics  string
}

// InMemoryPersonRepository is a development-only in-memory implementation.
type InMemoryPersonRepository struct {
	mu   sync.RWMutex
	rows map[personKey]media.Person
}

func NewInMemoryPersonRepository() *InMemoryPersonRepository {
	return &InMemoryPersonRepository{rows: make(map[personKey]media.Person)}
}

func (s *InMemoryPersonRepository) GetOrCreate(_ context.Context, p media.PartialPerson) (media.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var specifics string
	if p.SourceSpecifics != nil {
		specifics = *p.SourceSpecifics
	}
	key := personKey{p.Source, p.Identifier, specifics}
	if existing, ok := s.rows[key]; ok {
		return existing, nil
	}
	person := media.Person{
		ID:              uuid.New().String(),
		Identifier:      p.Identifier,
		Source:          p.Source,
		SourceSpecifics: p.SourceSpecifics,
		Name:            p.Name,
		IsPartial:       true,
	}
	s.rows[key] = person
	return person, nil
}

// InMemoryAssociationRepository records edge rewrites for inspection.
type InMemoryAssociationRepository struct {
	mu    sync.RWMutex
	edges map[string]media.Details // metadataID -> last committed snapshot
}

func NewInMemoryAssociationRepository() *InMemoryAssociationRepository {
	return &InMemoryAssociationRepository{edges: make(map[string]media.Details)}
}

func (s *InMemoryAssociationRepository) Replace(_ context.Context, metadataID string, details media.Details) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edges[metadataID] = details
	return nil
}

// Edges returns the last snapshot committed for the metadata row.
func (s *InMemoryAssociationRepository) Edges(metadataID string) (media.Details, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.edges[metadataID]
	return d, ok
}

type groupKey struct {
	lot        media.Lot
	source     media.Source
	identifier string
}

// InMemoryGroupRepository is a development-only in-memory implementation.
type InMemoryGroupRepository struct {
	mu    sync.RWMutex
	ids   map[groupKey]string
	parts map[string]map[string]int // groupID -> metadataID -> part
}

func NewInMemoryGroupRepository() *InMemoryGroupRepository {
	return &InMemoryGroupRepository{
		ids:   make(map[groupKey]string),
		parts: make(map[string]map[string]int),
	}
}

func (s *InMemoryGroupRepository) GetOrCreate(_ context.Context, details media.GroupDetails) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := groupKey{details.Lot, details.Source, details.Identifier}
	if id, ok := s.ids[key]; ok {
		return id, nil
	}
	id := uuid.New().String()
	s.ids[key] = id
	s.parts[id] = make(map[string]int)
	return id, nil
}

func (s *InMemoryGroupRepository) LinkPart(_ context.Context, groupID, metadataID string, part int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.parts[groupID] == nil {
		s.parts[groupID] = make(map[string]int)
	}
	if _, ok := s.parts[groupID][metadataID]; !ok {
		s.parts[groupID][metadataID] = part
	}
	return nil
}

// Parts returns the linked part indexes of a group, for assertions in tests.
func (s *InMemoryGroupRepository) Parts(groupID string) map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]int, len(s.parts[groupID]))
	for k, v := range s.parts[groupID] {
		out[k] = v
	}
	return out
}
