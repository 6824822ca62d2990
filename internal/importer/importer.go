// Package importer replays canonical import batches through the progress
// and sync engines. Failures are always per-item; a batch never aborts.
package importer

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/IgnisDa/trackona/internal/media"
	"github.com/IgnisDa/trackona/internal/progress"
	"github.com/IgnisDa/trackona/internal/reviews"
	"github.com/IgnisDa/trackona/internal/store"
	mediasync "github.com/IgnisDa/trackona/internal/sync"
)

var (
	hundred = decimal.NewFromInt(100)
	twenty  = decimal.NewFromInt(20)
)

type Importer struct {
	log          *zap.Logger
	sync         *mediasync.Service
	progress     *progress.Engine
	reviews      *reviews.Service
	persons      store.PersonRepository
	collections  store.CollectionRepository
	workouts     store.WorkoutRepository
	measurements store.MeasurementRepository
	preferences  store.PreferencesRepository
}

func New(
	log *zap.Logger,
	sync *mediasync.Service,
	progress *progress.Engine,
	reviews *reviews.Service,
	persons store.PersonRepository,
	collections store.CollectionRepository,
	workouts store.WorkoutRepository,
	measurements store.MeasurementRepository,
	preferences store.PreferencesRepository,
) *Importer {
	return &Importer{
		log:          log,
		sync:         sync,
		progress:     progress,
		reviews:      reviews,
		persons:      persons,
		collections:  collections,
		workouts:     workouts,
		measurements: measurements,
		preferences:  preferences,
	}
}

// Process replays the batch for the user. Media items are committed with a
// forced refresh, their seen history is replayed oldest-first through the
// progress engine and their reviews and collection memberships follow.
func (im *Importer) Process(ctx context.Context, userID string, result Result) (Outcome, error) {
	out := Outcome{
		Total: len(result.Collections) + len(result.Media) + len(result.MediaGroups) +
			len(result.People) + len(result.Workouts) + len(result.Measurements),
	}

	scale, err := im.preferences.ReviewScale(ctx, userID)
	if err != nil {
		return out, err
	}

	for i := range result.Media {
		item := &result.Media[i]
		sort.SliceStable(item.SeenHistory, func(a, b int) bool {
			return endedOn(item.SeenHistory[a]) < endedOn(item.SeenHistory[b])
		})
	}

	for _, name := range result.Collections {
		if _, err := im.collections.GetOrCreate(ctx, userID, name); err != nil {
			out.fail(nil, StepInputTransformation, name, err)
			continue
		}
		out.complete(CompletedCollection, name)
	}

	for idx, item := range result.Media {
		im.log.Debug("importing media item",
			zap.String("identifier", item.SourceID),
			zap.Int("index", idx+1),
			zap.Int("total", len(result.Media)),
		)
		meta, err := im.sync.Commit(ctx, item.Lot, item.Source, item.Identifier, true)
		if err != nil {
			im.log.Error("media commit failed", zap.String("identifier", item.SourceID), zap.Error(err))
			out.fail(&item.Lot, StepMediaDetailsFromProvider, item.SourceID, err)
			continue
		}

		for _, seen := range item.SeenHistory {
			prog := seen.Progress
			if prog == nil {
				p := hundred
				prog = &p
			}
			_, err := im.progress.UpdateProgress(ctx, userID, progress.UpdateInput{
				MetadataID:           meta.ID,
				Progress:             prog,
				Date:                 seen.EndedOn,
				ShowSeasonNumber:     seen.ShowSeasonNumber,
				ShowEpisodeNumber:    seen.ShowEpisodeNumber,
				PodcastEpisodeNumber: seen.PodcastEpisodeNumber,
				AnimeEpisodeNumber:   seen.AnimeEpisodeNumber,
				MangaChapterNumber:   seen.MangaChapterNumber,
				MangaVolumeNumber:    seen.MangaVolumeNumber,
				ProviderWatchedOn:    seen.ProviderWatchedOn,
			}, false)
			if err != nil {
				out.fail(&item.Lot, StepSeenHistoryConversion, item.SourceID, err)
			}
		}

		im.postReviews(ctx, userID, scale, item.Reviews, meta.ID, media.EntityLotMetadata, &item.Lot, item.SourceID, &out)
		im.addToCollections(ctx, userID, item.Collections, meta.ID, media.EntityLotMetadata)
		out.complete(CompletedMetadata, item.SourceID)
	}

	for _, item := range result.MediaGroups {
		groupID, err := im.sync.CommitGroup(ctx, item.Lot, item.Source, item.Identifier)
		if err != nil {
			im.log.Error("group commit failed", zap.String("title", item.Title), zap.Error(err))
			out.fail(&item.Lot, StepMediaDetailsFromProvider, item.Title, err)
			continue
		}
		im.postReviews(ctx, userID, scale, item.Reviews, groupID, media.EntityLotMetadataGroup, &item.Lot, item.Title, &out)
		im.addToCollections(ctx, userID, item.Collections, groupID, media.EntityLotMetadataGroup)
		out.complete(CompletedGroup, item.Title)
	}

	for _, item := range result.People {
		person, err := im.persons.GetOrCreate(ctx, media.PartialPerson{
			Identifier:      item.Identifier,
			Source:          item.Source,
			SourceSpecifics: item.SourceSpecifics,
			Name:            item.Name,
		})
		if err != nil {
			out.fail(nil, StepItemDetailsFromSource, item.Name, err)
			continue
		}
		im.postReviews(ctx, userID, scale, item.Reviews, person.ID, media.EntityLotPerson, nil, item.Name, &out)
		im.addToCollections(ctx, userID, item.Collections, person.ID, media.EntityLotPerson)
		out.complete(CompletedPerson, item.Name)
	}

	for _, workout := range result.Workouts {
		workout.UserID = userID
		if _, err := im.workouts.Insert(ctx, workout); err != nil {
			out.fail(nil, StepInputTransformation, workout.Name, err)
			continue
		}
		out.complete(CompletedWorkout, workout.Name)
	}

	for _, measurement := range result.Measurements {
		measurement.UserID = userID
		if _, err := im.measurements.Insert(ctx, measurement); err != nil {
			out.fail(nil, StepInputTransformation, "Measurement", err)
			continue
		}
		out.complete(CompletedMeasurement, measurement.Timestamp.Format(time.RFC3339))
	}

	im.log.Info("import finished",
		zap.String("user_id", userID),
		zap.Int("total", out.Total),
		zap.Int("completed", len(out.Completed)),
		zap.Int("failed", len(out.Failed)),
	)
	return out, nil
}

// postReviews converts and posts each review. Reviews with no content are
// skipped silently; posting failures are recorded and never abort the item.
func (im *Importer) postReviews(
	ctx context.Context,
	userID string,
	scale media.ReviewScale,
	ratings []ItemRating,
	entityID string,
	entityLot media.EntityLot,
	lot *media.Lot,
	identifier string,
	out *Outcome,
) {
	for _, r := range ratings {
		input, ok := convertReview(r, scale, entityID, entityLot)
		if !ok {
			im.log.Debug("skipping review with no content", zap.String("identifier", identifier))
			continue
		}
		if _, err := im.reviews.Post(ctx, userID, input); err != nil {
			out.fail(lot, StepReviewConversion, identifier, err)
		}
	}
}

// addToCollections is best effort, like the rest of the collection side
// effects around progress updates.
func (im *Importer) addToCollections(ctx context.Context, userID string, names []string, entityID string, entityLot media.EntityLot) {
	for _, name := range names {
		if err := im.collections.AddEntity(ctx, userID, name, entityID, entityLot); err != nil {
			im.log.Warn("collection add failed",
				zap.String("collection", name),
				zap.String("entity_id", entityID),
				zap.Error(err),
			)
		}
	}
}

// convertReview maps a canonical rating (out of a hundred) into the user's
// configured scale, which is what the posting path expects.
func convertReview(r ItemRating, scale media.ReviewScale, entityID string, entityLot media.EntityLot) (reviews.Input, bool) {
	if r.Rating == nil && r.Text == nil {
		return reviews.Input{}, false
	}
	rating := r.Rating
	if rating != nil && scale == media.ReviewScaleOutOfFive {
		scaled := rating.Div(twenty)
		rating = &scaled
	}
	return reviews.Input{
		EntityID:             entityID,
		EntityLot:            entityLot,
		Rating:               rating,
		Text:                 r.Text,
		IsSpoiler:            r.IsSpoiler,
		Visibility:           r.Visibility,
		Date:                 r.Date,
		ShowSeasonNumber:     r.ShowSeasonNumber,
		ShowEpisodeNumber:    r.ShowEpisodeNumber,
		PodcastEpisodeNumber: r.PodcastEpisodeNumber,
		MangaChapterNumber:   r.MangaChapterNumber,
	}, true
}

func endedOn(s SeenEntry) int64 {
	if s.EndedOn == nil {
		return 0
	}
	return s.EndedOn.Unix()
}

func (o *Outcome) complete(kind CompletedKind, identifier string) {
	o.Completed = append(o.Completed, CompletedItem{Kind: kind, Identifier: identifier})
}

func (o *Outcome) fail(lot *media.Lot, step FailStep, identifier string, err error) {
	f := FailedItem{Step: step, Identifier: identifier}
	if lot != nil {
		l := *lot
		f.Lot = &l
	}
	if err != nil {
		f.Error = err.Error()
	}
	o.Failed = append(o.Failed, f)
}
