package store

import (
	"context"

	"github.com/IgnisDa/trackona/internal/media"
)

// CollectionRepository maintains user collections and their membership.
// Membership writes are idempotent: adding an existing member or removing a
// missing one is a no-op, never an error.
type CollectionRepository interface {
	// GetOrCreate returns the id of the user's collection with the given
	// name, creating it when missing.
	GetOrCreate(ctx context.Context, userID, name string) (string, error)
	AddEntity(ctx context.Context, userID, collectionName, entityID string, entityLot media.EntityLot) error
	RemoveEntity(ctx context.Context, userID, collectionName, entityID string, entityLot media.EntityLot) error
}

// MonitoredRepository reads the notification fan-out targets. The set is
// mutated by user actions outside this core.
type MonitoredRepository interface {
	// UsersMonitoring returns the ids of every user monitoring the entity.
	UsersMonitoring(ctx context.Context, entityID string, entityLot media.EntityLot) ([]string, error)
}

// PreferencesRepository reads per-user settings owned by the user profile.
type PreferencesRepository interface {
	NotificationPreferences(ctx context.Context, userID string) (media.NotificationPreferences, error)
	ReviewScale(ctx context.Context, userID string) (media.ReviewScale, error)
}
