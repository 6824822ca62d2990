package statistics

import (
	"context"
	"sort"
	"time"

	"github.com/IgnisDa/trackona/internal/media"
	"github.com/IgnisDa/trackona/internal/store"
)

// calculateActivities runs the daily activity fold. The checkpoint is the
// latest date already computed; rows after it are always freshly inserted,
// never merged. A forced run deletes every prior row first.
func (s *Service) calculateActivities(ctx context.Context, userID string, fromBeginning bool) error {
	var checkpoint *time.Time
	if fromBeginning {
		if err := s.activities.DeleteAll(ctx, userID); err != nil {
			return err
		}
	} else {
		latest, err := s.activities.LatestDate(ctx, userID)
		switch err {
		case nil:
			checkpoint = &latest
		case store.ErrNotFound:
		default:
			return err
		}
	}

	buckets := make(map[string]*media.DailyUserActivity)
	bucket := func(ts time.Time) *media.DailyUserActivity {
		local := ts.In(s.tz)
		date := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.tz)
		key := date.Format("2006-01-02")
		a, ok := buckets[key]
		if !ok {
			a = &media.DailyUserActivity{
				UserID:     userID,
				Date:       date,
				HourCounts: make(map[int]int),
			}
			buckets[key] = a
		}
		a.HourCounts[local.Hour()]++
		return a
	}
	afterCheckpoint := func(ts time.Time) bool {
		if checkpoint == nil {
			return true
		}
		local := ts.In(s.tz)
		date := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.tz)
		return date.After(*checkpoint)
	}

	if err := s.foldSeenIntoActivities(ctx, userID, checkpoint, bucket, afterCheckpoint); err != nil {
		return err
	}
	if err := s.foldEventsIntoActivities(ctx, userID, checkpoint, bucket, afterCheckpoint); err != nil {
		return err
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		a := buckets[k]
		a.Finalize()
		if err := s.activities.Insert(ctx, *a); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) foldSeenIntoActivities(
	ctx context.Context,
	userID string,
	checkpoint *time.Time,
	bucket func(time.Time) *media.DailyUserActivity,
	afterCheckpoint func(time.Time) bool,
) error {
	it, err := s.seen.StreamCompleted(ctx, userID, checkpoint, true)
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
			return nil
		}
		if ev.Seen.FinishedOn == nil || !afterCheckpoint(*ev.Seen.FinishedOn) {
			continue
		}
		a := bucket(*ev.Seen.FinishedOn)

		switch ev.Lot {
		case media.LotBook:
			a.BookCount++
		case media.LotMovie:
			a.MovieCount++
			if m := ev.Specifics.Movie; m != nil && m.Runtime != nil {
				a.MovieDuration += *m.Runtime
			}
		case media.LotAudioBook:
			a.AudioBookCount++
			if ab := ev.Specifics.AudioBook; ab != nil && ab.Runtime != nil {
				a.AudioBookDuration += *ab.Runtime
			}
		case media.LotMusic:
			a.MusicCount++
			if m := ev.Specifics.Music; m != nil && m.Duration != nil {
				a.MusicDuration += *m.Duration / 60
			}
		case media.LotVideoGame:
			a.VideoGameCount++
		case media.LotVisualNovel:
			a.VisualNovelCount++
		case media.LotShow:
			a.ShowCount++
			if extra := ev.Seen.ShowExtra; extra != nil && ev.Specifics.Show != nil {
				if _, episode := ev.Specifics.Show.Episode(extra.Season, extra.Episode); episode != nil && episode.Runtime != nil {
					a.ShowDuration += *episode.Runtime
				}
			}
		case media.LotPodcast:
			a.PodcastCount++
			if extra := ev.Seen.PodcastExtra; extra != nil && ev.Specifics.Podcast != nil {
				if episode := ev.Specifics.Podcast.EpisodeByNumber(extra.Episode); episode != nil && episode.Runtime != nil {
					a.PodcastDuration += *episode.Runtime
				}
			}
		case media.LotAnime:
			a.AnimeCount++
		case media.LotManga:
			a.MangaCount++
		}
	}
}

func (s *Service) foldEventsIntoActivities(
	ctx context.Context,
	userID string,
	checkpoint *time.Time,
	bucket func(time.Time) *media.DailyUserActivity,
	afterCheckpoint func(time.Time) bool,
) error {
	reviews, err := s.reviews.Stream(ctx, userID, checkpoint)
	if err != nil {
		return err
	}
	defer reviews.Close()
	for {
		r, err := reviews.Next(ctx)
		if err != nil {
			return err
		}
		if r == nil {
			break
		}
		if !afterCheckpoint(r.PostedOn) {
			continue
		}
		bucket(r.PostedOn).ReviewCount++
	}

	workouts, err := s.workouts.Stream(ctx, userID, checkpoint)
	if err != nil {
		return err
	}
	defer workouts.Close()
	for {
		w, err := workouts.Next(ctx)
		if err != nil {
			return err
		}
		if w == nil {
			break
		}
		if !afterCheckpoint(w.EndTime) {
			continue
		}
		a := bucket(w.EndTime)
		a.WorkoutCount++
		a.WorkoutDuration += w.DurationSeconds / 60
	}

	measurements, err := s.measurements.Stream(ctx, userID, checkpoint)
	if err != nil {
		return err
	}
	defer measurements.Close()
	for {
		m, err := measurements.Next(ctx)
		if err != nil {
			return err
		}
		if m == nil {
			break
		}
		if !afterCheckpoint(m.Timestamp) {
			continue
		}
		bucket(m.Timestamp).MeasurementCount++
	}
	return nil
}
