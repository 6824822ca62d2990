// Package store defines the persistence contracts consumed by the engines
// and their Postgres-backed production implementations. Each concern gets a
// small interface next to the domain types it persists; in-memory variants
// exist for development and tests.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/IgnisDa/trackona/internal/media"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("store: not found")

// SeenEvent is one completed consumption event joined with the metadata
// snapshot it refers to, as consumed by the statistics folds.
type SeenEvent struct {
	Seen      media.Seen
	Lot       media.Lot
	Specifics media.Specifics
}

// SeenIterator is a forward-only cursor over seen events. Next returns nil
// once the stream is exhausted; Close releases the underlying cursor.
type SeenIterator interface {
	Next(ctx context.Context) (*SeenEvent, error)
	Close()
}

// SeenRepository persists consumption sessions.
type SeenRepository interface {
	Insert(ctx context.Context, s media.Seen) (media.Seen, error)
	Update(ctx context.Context, s media.Seen) (media.Seen, error)
	// History returns every session for (user, metadata) ordered by
	// last_updated_on descending.
	History(ctx context.Context, userID, metadataID string) ([]media.Seen, error)
	// OpenSessions returns the non-terminal sessions (progress < 100 and
	// state != dropped) ordered by last_updated_on descending.
	OpenSessions(ctx context.Context, userID, metadataID string) ([]media.Seen, error)
	// MostRecent returns the latest session regardless of state, or
	// ErrNotFound.
	MostRecent(ctx context.Context, userID, metadataID string) (media.Seen, error)
	// StreamCompleted opens a forward-only cursor over the user's completed
	// sessions newer than since (all of them when since is nil), joined
	// with metadata. When finishedOnly is set, sessions without a finished
	// date are skipped.
	StreamCompleted(ctx context.Context, userID string, since *time.Time, finishedOnly bool) (SeenIterator, error)
}
