// Package provider declares the capability contract every upstream media
// source implements and the registry the engines resolve concrete clients
// from. Concrete HTTP clients live outside this core.
package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/IgnisDa/trackona/internal/media"
)

// SearchItem is one result of a provider search.
type SearchItem struct {
	Identifier  string
	Title       string
	Image       *string
	PublishYear *int
}

// SearchResults is a single page of provider search results.
type SearchResults struct {
	Total    int
	Items    []SearchItem
	NextPage *int
}

// Client is the uniform capability set of an upstream source. The engines
// are polymorphic over this interface, never over concrete providers.
type Client interface {
	// MetadataDetails fetches the full snapshot of one entity.
	MetadataDetails(ctx context.Context, identifier string) (media.Details, error)
	// MetadataUpdatedSince reports whether the entity changed upstream after
	// the given instant. Sources that cannot answer cheaply return true.
	MetadataUpdatedSince(ctx context.Context, identifier string, since time.Time) (bool, error)
	// MetadataGroupDetails fetches a group snapshot and the stub references
	// of its parts.
	MetadataGroupDetails(ctx context.Context, identifier string) (media.GroupDetails, []media.PartialMetadata, error)
	// PersonDetails fetches the full record of a person.
	PersonDetails(ctx context.Context, identifier string) (media.Person, error)
	// Search queries the source.
	Search(ctx context.Context, query string, page int) (SearchResults, error)
}

// Registry resolves the client registered for a (lot, source) pair.
type Registry struct {
	clients map[registryKey]Client
}

type registryKey struct {
	lot    media.Lot
	source media.Source
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[registryKey]Client)}
}

// Register binds a client to a (lot, source) pair, replacing any previous
// binding.
func (r *Registry) Register(lot media.Lot, source media.Source, c Client) {
	r.clients[registryKey{lot, source}] = c
}

// Get returns the client for the pair or an error naming the missing
// binding.
func (r *Registry) Get(lot media.Lot, source media.Source) (Client, error) {
	c, ok := r.clients[registryKey{lot, source}]
	if !ok {
		return nil, fmt.Errorf("provider: no client registered for %s/%s", lot, source)
	}
	return c, nil
}
