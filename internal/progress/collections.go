package progress

import (
	"context"
	"fmt"

	"github.com/IgnisDa/trackona/internal/media"
)

// afterSeen applies the collection side effects of a session transition.
// Membership writes are idempotent so repeated transitions are harmless.
func (e *Engine) afterSeen(ctx context.Context, s media.Seen, meta media.Metadata) error {
	userID := s.UserID
	entityID := s.MetadataID
	lot := media.EntityLotMetadata

	if err := e.collections.RemoveEntity(ctx, userID, media.CollectionWatchlist, entityID, lot); err != nil {
		return fmt.Errorf("leave watchlist: %w", err)
	}

	switch s.State {
	case media.SeenStateInProgress:
		if err := e.collections.AddEntity(ctx, userID, media.CollectionInProgress, entityID, lot); err != nil {
			return err
		}
		return e.collections.AddEntity(ctx, userID, media.CollectionMonitoring, entityID, lot)

	case media.SeenStateDropped, media.SeenStateOnAHold:
		return e.collections.RemoveEntity(ctx, userID, media.CollectionInProgress, entityID, lot)

	case media.SeenStateCompleted:
		if meta.Lot.IsEpisodic() {
			finished, err := e.IsFinished(ctx, userID, meta)
			if err != nil {
				return err
			}
			if !finished {
				if err := e.collections.AddEntity(ctx, userID, media.CollectionInProgress, entityID, lot); err != nil {
					return err
				}
				return e.collections.AddEntity(ctx, userID, media.CollectionMonitoring, entityID, lot)
			}
			if err := e.collections.RemoveEntity(ctx, userID, media.CollectionInProgress, entityID, lot); err != nil {
				return err
			}
			return e.collections.AddEntity(ctx, userID, media.CollectionCompleted, entityID, lot)
		}

		if err := e.collections.AddEntity(ctx, userID, media.CollectionCompleted, entityID, lot); err != nil {
			return err
		}
		if err := e.collections.RemoveEntity(ctx, userID, media.CollectionInProgress, entityID, lot); err != nil {
			return err
		}
		return e.collections.RemoveEntity(ctx, userID, media.CollectionMonitoring, entityID, lot)
	}
	return nil
}
