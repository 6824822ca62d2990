// Package statistics implements the incremental aggregator: two
// checkpointed folds over the user's event streams producing the summary
// row and the daily activity rows. Event sources are consumed through
// forward-only iterators so an arbitrarily long history never has to fit
// in memory.
package statistics

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/IgnisDa/trackona/internal/media"
	"github.com/IgnisDa/trackona/internal/store"
)

type Service struct {
	log          *zap.Logger
	seen         store.SeenRepository
	reviews      store.ReviewRepository
	workouts     store.WorkoutRepository
	measurements store.MeasurementRepository
	summaries    store.SummaryRepository
	interactions store.InteractionRepository
	activities   store.ActivityRepository

	tz *time.Location

	// now is swapped in tests to control the clock.
	now func() time.Time
}

func NewService(
	log *zap.Logger,
	seen store.SeenRepository,
	reviews store.ReviewRepository,
	workouts store.WorkoutRepository,
	measurements store.MeasurementRepository,
	summaries store.SummaryRepository,
	interactions store.InteractionRepository,
	activities store.ActivityRepository,
	tz *time.Location,
) *Service {
	if tz == nil {
		tz = time.UTC
	}
	return &Service{
		log:          log,
		seen:         seen,
		reviews:      reviews,
		workouts:     workouts,
		measurements: measurements,
		summaries:    summaries,
		interactions: interactions,
		activities:   activities,
		tz:           tz,
		now:          time.Now,
	}
}

// CalculateUserActivitiesAndSummary runs the daily activity fold and then
// the summary fold. fromBeginning resets all derived state first and scans
// the full history.
func (s *Service) CalculateUserActivitiesAndSummary(ctx context.Context, userID string, fromBeginning bool) error {
	if err := s.calculateActivities(ctx, userID, fromBeginning); err != nil {
		return fmt.Errorf("daily activity fold: %w", err)
	}
	if err := s.calculateSummary(ctx, userID, fromBeginning); err != nil {
		return fmt.Errorf("summary fold: %w", err)
	}
	return nil
}

func (s *Service) calculateSummary(ctx context.Context, userID string, fromBeginning bool) error {
	var (
		since *time.Time
		data  media.SummaryData
	)
	if fromBeginning {
		if err := s.interactions.ResetUnitsConsumed(ctx, userID); err != nil {
			return err
		}
		data = media.NewSummaryData()
	} else {
		previous, err := s.summaries.Latest(ctx, userID)
		switch err {
		case nil:
			checkpoint := previous.CalculatedOn
			since = &checkpoint
			data = previous.Data
		case store.ErrNotFound:
			data = media.NewSummaryData()
		default:
			return err
		}
	}

	metadataReviews, err := s.reviews.CountForMetadata(ctx, userID, since)
	if err != nil {
		return err
	}
	peopleReviews, err := s.reviews.CountForPeople(ctx, userID, since)
	if err != nil {
		return err
	}
	metadataInteractions, err := s.interactions.CountMetadata(ctx, userID, since)
	if err != nil {
		return err
	}
	peopleInteractions, err := s.interactions.CountPeople(ctx, userID, since)
	if err != nil {
		return err
	}
	exerciseInteractions, err := s.interactions.CountExercises(ctx, userID, since)
	if err != nil {
		return err
	}
	measurementCount, err := s.measurements.Count(ctx, userID, since)
	if err != nil {
		return err
	}
	workoutCount, err := s.workouts.Count(ctx, userID, since)
	if err != nil {
		return err
	}
	workoutMinutes, workoutWeight, err := s.workouts.Totals(ctx, userID, since)
	if err != nil {
		return err
	}

	data.Media.MetadataOverall.Reviewed += metadataReviews
	data.Media.MetadataOverall.InteractedWith += metadataInteractions
	data.Media.PeopleOverall.Reviewed += peopleReviews
	data.Media.PeopleOverall.InteractedWith += peopleInteractions
	data.Fitness.MeasurementsRecorded += measurementCount
	data.Fitness.ExercisesInteractedWith += exerciseInteractions
	data.Fitness.Workouts.Recorded += workoutCount
	data.Fitness.Workouts.Duration = data.Fitness.Workouts.Duration.Add(workoutMinutes)
	data.Fitness.Workouts.Weight = data.Fitness.Workouts.Weight.Add(workoutWeight)

	it, err := s.seen.StreamCompleted(ctx, userID, since, false)
	if err != nil {
		return err
	}
	defer it.Close()
	for {
		ev, err := it.Next(ctx)
		if err != nil {
			return err
		}
		if ev == nil {
			break
		}
		s.foldSeenIntoSummary(ctx, &data, ev)
	}

	deriveUniqueCounts(&data)

	return s.summaries.Upsert(ctx, media.UserSummary{
		UserID:       userID,
		CalculatedOn: s.now().UTC(),
		IsFresh:      fromBeginning,
		Data:         data,
	})
}

// foldSeenIntoSummary applies one completed session to the additive
// counters, the identity sets and the per-(user, metadata) units-consumed
// running total.
func (s *Service) foldSeenIntoSummary(ctx context.Context, data *media.SummaryData, ev *store.SeenEvent) {
	id := ev.Seen.MetadataID
	units := 0

	switch ev.Lot {
	case media.LotBook:
		data.UniqueItems.Books.Add(id)
		if b := ev.Specifics.Book; b != nil && b.Pages != nil {
			data.Media.Books.Pages += *b.Pages
			units = *b.Pages
		}
	case media.LotMovie:
		data.UniqueItems.Movies.Add(id)
		if m := ev.Specifics.Movie; m != nil && m.Runtime != nil {
			data.Media.Movies.Runtime += *m.Runtime
			units = *m.Runtime
		}
	case media.LotAudioBook:
		data.UniqueItems.AudioBooks.Add(id)
		if a := ev.Specifics.AudioBook; a != nil && a.Runtime != nil {
			data.Media.AudioBooks.Runtime += *a.Runtime
			units = *a.Runtime
		}
	case media.LotMusic:
		data.UniqueItems.Music.Add(id)
		if m := ev.Specifics.Music; m != nil && m.Duration != nil {
			data.Media.Music.Duration += *m.Duration / 60
			units = *m.Duration / 60
		}
	case media.LotVideoGame:
		data.UniqueItems.VideoGames.Add(id)
		units = 1
	case media.LotVisualNovel:
		data.UniqueItems.VisualNovels.Add(id)
		if v := ev.Specifics.VisualNovel; v != nil && v.Length != nil {
			data.Media.VisualNovels.Runtime += *v.Length
			units = *v.Length
		}
	case media.LotShow:
		if extra := ev.Seen.ShowExtra; extra != nil {
			data.UniqueItems.Shows.Add(id)
			data.UniqueItems.ShowSeasons.Add(fmt.Sprintf("%s-%d", id, extra.Season))
			data.UniqueItems.ShowEpisodes.Add(fmt.Sprintf("%s-%d-%d", id, extra.Season, extra.Episode))
			if sp := ev.Specifics.Show; sp != nil {
				if _, episode := sp.Episode(extra.Season, extra.Episode); episode != nil && episode.Runtime != nil {
					data.Media.Shows.Runtime += *episode.Runtime
				}
			}
			units = 1
		}
	case media.LotPodcast:
		if extra := ev.Seen.PodcastExtra; extra != nil {
			data.UniqueItems.Podcasts.Add(id)
			data.UniqueItems.PodcastEpisodes.Add(fmt.Sprintf("%s-%d", id, extra.Episode))
			if sp := ev.Specifics.Podcast; sp != nil {
				if episode := sp.EpisodeByNumber(extra.Episode); episode != nil && episode.Runtime != nil {
					data.Media.Podcasts.Runtime += *episode.Runtime
				}
			}
			units = 1
		}
	case media.LotAnime:
		data.UniqueItems.Anime.Add(id)
		if extra := ev.Seen.AnimeExtra; extra != nil && extra.Episode != nil {
			data.UniqueItems.AnimeEpisodes.Add(fmt.Sprintf("%s-%d", id, *extra.Episode))
			units = 1
		}
	case media.LotManga:
		data.UniqueItems.Manga.Add(id)
		if extra := ev.Seen.MangaExtra; extra != nil {
			if extra.Chapter != nil {
				data.UniqueItems.MangaChapters.Add(fmt.Sprintf("%s-%s", id, extra.Chapter))
				units = 1
			}
			if extra.Volume != nil {
				data.UniqueItems.MangaVolumes.Add(fmt.Sprintf("%s-%d", id, *extra.Volume))
			}
		}
	}

	if units > 0 {
		if err := s.interactions.AddUnitsConsumed(ctx, ev.Seen.UserID, id, units); err != nil {
			s.log.Warn("units consumed update failed",
				zap.String("metadata_id", id),
				zap.Error(err),
			)
		}
	}
}

// deriveUniqueCounts recomputes the distinct counters from the identity
// sets after a fold pass.
func deriveUniqueCounts(data *media.SummaryData) {
	u := data.UniqueItems
	data.Media.Books.Read = len(u.Books)
	data.Media.Movies.Watched = len(u.Movies)
	data.Media.Shows.Watched = len(u.Shows)
	data.Media.Shows.WatchedSeasons = len(u.ShowSeasons)
	data.Media.Shows.WatchedEpisodes = len(u.ShowEpisodes)
	data.Media.Podcasts.Played = len(u.Podcasts)
	data.Media.Podcasts.PlayedEpisodes = len(u.PodcastEpisodes)
	data.Media.Anime.Watched = len(u.Anime)
	data.Media.Anime.Episodes = len(u.AnimeEpisodes)
	data.Media.Manga.Read = len(u.Manga)
	data.Media.Manga.Chapters = len(u.MangaChapters)
	data.Media.AudioBooks.Played = len(u.AudioBooks)
	data.Media.VideoGames.Played = len(u.VideoGames)
	data.Media.VisualNovels.Played = len(u.VisualNovels)
	data.Media.Music.Played = len(u.Music)
}
