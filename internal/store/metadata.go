package store

import (
	"context"

	"github.com/IgnisDa/trackona/internal/media"
)

// MetadataRepository persists canonical entity snapshots.
type MetadataRepository interface {
	GetByID(ctx context.Context, id string) (media.Metadata, error)
	// FindByIdentity looks up a row by its natural key, returning
	// ErrNotFound when absent.
	FindByIdentity(ctx context.Context, lot media.Lot, source media.Source, identifier string) (media.Metadata, error)
	// Insert creates a full row from a provider snapshot.
	Insert(ctx context.Context, details media.Details, isPartial bool) (media.Metadata, error)
	// ReplaceSnapshot overwrites every snapshot field of an existing row
	// with the new provider details, bumping last_updated_on. Fields absent
	// from the details are cleared, not kept.
	ReplaceSnapshot(ctx context.Context, id string, details media.Details) (media.Metadata, error)
	MarkNotPartial(ctx context.Context, id string) error
	// GetOrCreatePartial resolves a stub reference, inserting a partial row
	// when the target does not exist yet.
	GetOrCreatePartial(ctx context.Context, partial media.PartialMetadata) (media.Metadata, error)
}

// PersonRepository persists people referenced by metadata.
type PersonRepository interface {
	// GetOrCreate looks a person up by (source, identifier,
	// source_specifics) and inserts a partial row when missing.
	GetOrCreate(ctx context.Context, p media.PartialPerson) (media.Person, error)
}

// AssociationRepository rewrites the association edges of a metadata row.
type AssociationRepository interface {
	// Replace atomically deletes every person/genre/suggestion edge of the
	// metadata row and re-inserts the set implied by the new snapshot.
	// Genre and person targets are looked up or created; suggestion targets
	// become partial metadata rows. A failure leaves the previous edge set
	// intact.
	Replace(ctx context.Context, metadataID string, details media.Details) error
}

// GroupRepository persists metadata groups and their part links.
type GroupRepository interface {
	// GetOrCreate returns the id of the group row matching the details'
	// natural key, inserting it first when absent.
	GetOrCreate(ctx context.Context, details media.GroupDetails) (string, error)
	// LinkPart connects a metadata row to a group at the given part index;
	// relinking an existing pair is a no-op.
	LinkPart(ctx context.Context, groupID, metadataID string, part int) error
}
