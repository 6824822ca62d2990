// Package sync implements the metadata synchronization engine: provider
// refresh, field-by-field diffing, atomic association rewrite and the
// change-notification fan-out.
package sync

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/IgnisDa/trackona/internal/jobs"
	"github.com/IgnisDa/trackona/internal/media"
	"github.com/IgnisDa/trackona/internal/provider"
	"github.com/IgnisDa/trackona/internal/store"
)

// Service orchestrates refreshes and commits. It owns the Metadata rows;
// everything else only reads them.
type Service struct {
	log          *zap.Logger
	metadata     store.MetadataRepository
	associations store.AssociationRepository
	groups       store.GroupRepository
	monitored    store.MonitoredRepository
	preferences  store.PreferencesRepository
	providers    *provider.Registry
	queue        jobs.Queue

	specialSeasons []string
}

type Options struct {
	// SpecialSeasons are show season names skipped during diffing when both
	// snapshots carry one. Defaults to Specials and Extras.
	SpecialSeasons []string
}

func NewService(
	log *zap.Logger,
	metadata store.MetadataRepository,
	associations store.AssociationRepository,
	groups store.GroupRepository,
	monitored store.MonitoredRepository,
	preferences store.PreferencesRepository,
	providers *provider.Registry,
	queue jobs.Queue,
	opts Options,
) *Service {
	seasons := opts.SpecialSeasons
	if seasons == nil {
		seasons = []string{"Specials", "Extras"}
	}
	return &Service{
		log:            log,
		metadata:       metadata,
		associations:   associations,
		groups:         groups,
		monitored:      monitored,
		preferences:    preferences,
		providers:      providers,
		queue:          queue,
		specialSeasons: seasons,
	}
}

// Refresh re-fetches the entity from its provider, diffs it against the
// stored snapshot, overwrites the snapshot and rewrites the association
// edges. A provider failure aborts before any write to the snapshot.
func (s *Service) Refresh(ctx context.Context, metadataID string, force bool) ([]media.Notification, error) {
	stored, err := s.metadata.GetByID(ctx, metadataID)
	if err != nil {
		return nil, fmt.Errorf("load metadata: %w", err)
	}

	client, err := s.providers.Get(stored.Lot, stored.Source)
	if err != nil {
		return nil, err
	}

	if !force {
		changed, err := client.MetadataUpdatedSince(ctx, stored.Identifier, stored.LastUpdatedOn)
		if err == nil && !changed {
			s.log.Debug("metadata does not need to be updated", zap.String("metadata_id", metadataID))
			return nil, nil
		}
	}
	s.log.Debug("updating metadata", zap.String("metadata_id", metadataID))

	if err := s.metadata.MarkNotPartial(ctx, metadataID); err != nil {
		return nil, fmt.Errorf("mark not partial: %w", err)
	}

	details, err := client.MetadataDetails(ctx, stored.Identifier)
	if err != nil {
		s.log.Error("provider fetch failed",
			zap.String("metadata_id", metadataID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("fetch details for %s: %w", metadataID, err)
	}

	notifications := s.diffSnapshots(stored, details)

	if _, err := s.metadata.ReplaceSnapshot(ctx, metadataID, details); err != nil {
		return nil, fmt.Errorf("persist snapshot: %w", err)
	}
	if err := s.commitAssociations(ctx, metadataID, stored.Lot, stored.Source, details); err != nil {
		return nil, err
	}

	s.log.Debug("updated metadata", zap.String("metadata_id", metadataID))
	return notifications, nil
}

// RefreshAndNotify runs a refresh and fans the resulting notices out to
// every monitoring user, filtered by their per-kind preferences. A failure
// for one recipient never aborts delivery to the others.
func (s *Service) RefreshAndNotify(ctx context.Context, metadataID string, force bool) error {
	notifications, err := s.Refresh(ctx, metadataID, force)
	if err != nil {
		return err
	}
	if len(notifications) == 0 {
		return nil
	}

	userIDs, err := s.monitored.UsersMonitoring(ctx, metadataID, media.EntityLotMetadata)
	if err != nil {
		return fmt.Errorf("load monitoring users: %w", err)
	}
	for _, n := range notifications {
		for _, userID := range userIDs {
			if err := s.notifyUser(ctx, userID, n); err != nil {
				s.log.Warn("notification fan-out failed for user",
					zap.String("user_id", userID),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}

func (s *Service) notifyUser(ctx context.Context, userID string, n media.Notification) error {
	prefs, err := s.preferences.NotificationPreferences(ctx, userID)
	if err != nil {
		return err
	}
	if !prefs.Wants(n.Kind) {
		s.log.Debug("user has notifications disabled for change kind",
			zap.String("user_id", userID),
			zap.String("kind", string(n.Kind)),
		)
		return nil
	}
	return s.queue.DeliverNotification(ctx, jobs.DeliverNotificationJob{
		UserID:  userID,
		Message: n.Message,
		Kind:    n.Kind,
	})
}

// Commit is the idempotent get-or-create of a metadata row. An existing row
// is returned as-is; refreshing it is the caller's explicit choice.
func (s *Service) Commit(ctx context.Context, lot media.Lot, source media.Source, identifier string, forceUpdate bool) (media.Metadata, error) {
	existing, err := s.metadata.FindByIdentity(ctx, lot, source, identifier)
	if err == nil {
		if forceUpdate {
			s.log.Debug("forcing update of metadata", zap.String("metadata_id", existing.ID))
			if err := s.RefreshAndNotify(ctx, existing.ID, true); err != nil {
				return media.Metadata{}, err
			}
			return s.metadata.GetByID(ctx, existing.ID)
		}
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return media.Metadata{}, err
	}

	client, err := s.providers.Get(lot, source)
	if err != nil {
		return media.Metadata{}, err
	}
	details, err := client.MetadataDetails(ctx, identifier)
	if err != nil {
		return media.Metadata{}, fmt.Errorf("fetch details for %s/%s/%s: %w", lot, source, identifier, err)
	}

	inserted, err := s.metadata.Insert(ctx, details, false)
	if err != nil {
		return media.Metadata{}, err
	}
	if err := s.commitAssociations(ctx, inserted.ID, lot, source, details); err != nil {
		return media.Metadata{}, err
	}
	return inserted, nil
}

// commitAssociations rewrites the person/genre/suggestion edges and
// enqueues a fire-and-forget group association per group identifier.
func (s *Service) commitAssociations(ctx context.Context, metadataID string, lot media.Lot, source media.Source, details media.Details) error {
	if err := s.associations.Replace(ctx, metadataID, details); err != nil {
		return fmt.Errorf("rewrite associations: %w", err)
	}
	for _, groupID := range details.GroupIdentifiers {
		job := jobs.AssociateGroupJob{Lot: lot, Source: source, Identifier: groupID}
		if err := s.queue.AssociateGroup(ctx, job); err != nil {
			s.log.Warn("group association enqueue failed",
				zap.String("metadata_id", metadataID),
				zap.String("group_identifier", groupID),
				zap.Error(err),
			)
		}
	}
	return nil
}

// CommitGroup commits a metadata group, links its parts as partial rows
// and returns the group id.
func (s *Service) CommitGroup(ctx context.Context, lot media.Lot, source media.Source, identifier string) (string, error) {
	client, err := s.providers.Get(lot, source)
	if err != nil {
		return "", err
	}
	group, parts, err := client.MetadataGroupDetails(ctx, identifier)
	if err != nil {
		return "", fmt.Errorf("fetch group details for %s: %w", identifier, err)
	}

	groupID, err := s.groups.GetOrCreate(ctx, group)
	if err != nil {
		return "", err
	}
	for i, part := range parts {
		m, err := s.metadata.GetOrCreatePartial(ctx, part)
		if err != nil {
			return "", err
		}
		if err := s.groups.LinkPart(ctx, groupID, m.ID, i+1); err != nil {
			return "", err
		}
	}
	return groupID, nil
}

// AssociateGroup runs as the handler of the fire-and-forget group job.
func (s *Service) AssociateGroup(ctx context.Context, lot media.Lot, source media.Source, identifier string) error {
	_, err := s.CommitGroup(ctx, lot, source, identifier)
	return err
}
