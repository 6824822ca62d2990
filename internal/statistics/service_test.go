package statistics

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/IgnisDa/trackona/internal/media"
	"github.com/IgnisDa/trackona/internal/store"
)

type statsEnv struct {
	service      *Service
	seen         *store.InMemorySeenRepository
	reviews      *store.InMemoryReviewRepository
	workouts     *store.InMemoryWorkoutRepository
	measurements *store.InMemoryMeasurementRepository
	summaries    *store.InMemorySummaryRepository
	interactions *store.InMemoryInteractionRepository
	activities   *store.InMemoryActivityRepository
}

func newStatsEnv(t *testing.T) *statsEnv {
	t.Helper()
	env := &statsEnv{
		seen:         store.NewInMemorySeenRepository(),
		reviews:      store.NewInMemoryReviewRepository(),
		workouts:     store.NewInMemoryWorkoutRepository(),
		measurements: store.NewInMemoryMeasurementRepository(),
		summaries:    store.NewInMemorySummaryRepository(),
		interactions: store.NewInMemoryInteractionRepository(),
		activities:   store.NewInMemoryActivityRepository(),
	}
	env.service = NewService(
		zap.NewNop(), env.seen, env.reviews, env.workouts, env.measurements,
		env.summaries, env.interactions, env.activities, time.UTC,
	)
	return env
}

func intp(n int) *int { return &n }

func (env *statsEnv) completeBook(t *testing.T, metadataID string, pages int, finished time.Time) {
	t.Helper()
	env.seen.SetMetadata(metadataID, media.LotBook, media.Specifics{
		Book: &media.BookSpecifics{Pages: intp(pages)},
	})
	_, err := env.seen.Insert(context.Background(), media.Seen{
		UserID:     "u1",
		MetadataID: metadataID,
		State:      media.SeenStateCompleted,
		Progress:   decimal.NewFromInt(100),
		FinishedOn: &finished,
	})
	if err != nil {
		t.Fatalf("insert seen: %v", err)
	}
}

func (env *statsEnv) completeShowEpisode(t *testing.T, metadataID string, season, episode int, finished time.Time) {
	t.Helper()
	env.seen.SetMetadata(metadataID, media.LotShow, media.Specifics{
		Show: &media.ShowSpecifics{Seasons: []media.ShowSeason{{
			SeasonNumber: 1,
			Name:         "Season 1",
			Episodes: []media.ShowEpisode{
				{EpisodeNumber: 1, Runtime: intp(40)},
				{EpisodeNumber: 2, Runtime: intp(45)},
			},
		}}},
	})
	_, err := env.seen.Insert(context.Background(), media.Seen{
		UserID:     "u1",
		MetadataID: metadataID,
		State:      media.SeenStateCompleted,
		Progress:   decimal.NewFromInt(100),
		FinishedOn: &finished,
		ShowExtra:  &media.SeenShowExtra{Season: season, Episode: episode},
	})
	if err != nil {
		t.Fatalf("insert seen: %v", err)
	}
}

func TestSummary_ForcedRecomputeBooks(t *testing.T) {
	env := newStatsEnv(t)
	ctx := context.Background()
	finished := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)

	env.completeBook(t, "book-1", 100, finished)
	env.completeBook(t, "book-2", 150, finished)
	env.completeBook(t, "book-3", 50, finished)

	if err := env.service.CalculateUserActivitiesAndSummary(ctx, "u1", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	summary, err := env.summaries.Latest(ctx, "u1")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if summary.Data.Media.Books.Read != 3 {
		t.Fatalf("books.read = %d, want 3", summary.Data.Media.Books.Read)
	}
	if summary.Data.Media.Books.Pages != 300 {
		t.Fatalf("books.pages = %d, want 300", summary.Data.Media.Books.Pages)
	}
	if !summary.IsFresh {
		t.Fatal("forced run should mark the summary fresh")
	}
}

func TestSummary_SecondRunWithoutEventsIsNoOp(t *testing.T) {
	env := newStatsEnv(t)
	ctx := context.Background()
	env.completeBook(t, "book-1", 100, time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC))

	if err := env.service.CalculateUserActivitiesAndSummary(ctx, "u1", false); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first, _ := env.summaries.Latest(ctx, "u1")

	if err := env.service.CalculateUserActivitiesAndSummary(ctx, "u1", false); err != nil {
		t.Fatalf("second run: %v", err)
	}
	second, _ := env.summaries.Latest(ctx, "u1")

	if second.Data.Media.Books.Read != first.Data.Media.Books.Read ||
		second.Data.Media.Books.Pages != first.Data.Media.Books.Pages {
		t.Fatalf("counters changed on an empty incremental run: %+v -> %+v",
			first.Data.Media.Books, second.Data.Media.Books)
	}
	if !second.CalculatedOn.After(first.CalculatedOn) {
		t.Fatal("calculated_on should advance on every run")
	}
	if second.IsFresh {
		t.Fatal("incremental run must not be marked fresh")
	}
}

func TestSummary_RewatchDoesNotDoubleCountUniques(t *testing.T) {
	env := newStatsEnv(t)
	ctx := context.Background()
	finished := time.Date(2024, 3, 1, 21, 0, 0, 0, time.UTC)

	env.completeShowEpisode(t, "show-1", 1, 1, finished)
	env.completeShowEpisode(t, "show-1", 1, 1, finished.Add(time.Hour))

	if err := env.service.CalculateUserActivitiesAndSummary(ctx, "u1", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	summary, _ := env.summaries.Latest(ctx, "u1")
	shows := summary.Data.Media.Shows
	if shows.WatchedEpisodes != 1 {
		t.Fatalf("watched_episodes = %d, a rewatch must not double count", shows.WatchedEpisodes)
	}
	if shows.Watched != 1 || shows.WatchedSeasons != 1 {
		t.Fatalf("shows = %+v, want one show and one season", shows)
	}
	if shows.Runtime != 80 {
		t.Fatalf("runtime = %d, want both watches summed (80)", shows.Runtime)
	}
}

func TestSummary_UnitsConsumedRunningTotal(t *testing.T) {
	env := newStatsEnv(t)
	ctx := context.Background()
	env.completeBook(t, "book-1", 120, time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC))

	if err := env.service.CalculateUserActivitiesAndSummary(ctx, "u1", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := env.interactions.UnitsConsumed("u1", "book-1"); got != 120 {
		t.Fatalf("units consumed = %d, want 120", got)
	}
}

func TestSummary_FitnessCounters(t *testing.T) {
	env := newStatsEnv(t)
	ctx := context.Background()
	start := time.Date(2024, 3, 2, 7, 0, 0, 0, time.UTC)

	if _, err := env.workouts.Insert(ctx, media.Workout{
		UserID:          "u1",
		Name:            "Push day",
		StartTime:       start,
		EndTime:         start.Add(time.Hour),
		DurationSeconds: 3600,
		TotalWeight:     decimal.NewFromInt(2500),
	}); err != nil {
		t.Fatalf("insert workout: %v", err)
	}
	if _, err := env.measurements.Insert(ctx, media.Measurement{
		UserID:    "u1",
		Timestamp: start,
	}); err != nil {
		t.Fatalf("insert measurement: %v", err)
	}

	if err := env.service.CalculateUserActivitiesAndSummary(ctx, "u1", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	summary, _ := env.summaries.Latest(ctx, "u1")
	fitness := summary.Data.Fitness
	if fitness.Workouts.Recorded != 1 {
		t.Fatalf("workouts.recorded = %d, want 1", fitness.Workouts.Recorded)
	}
	if !fitness.Workouts.Duration.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("workouts.duration = %s, want 60 minutes", fitness.Workouts.Duration)
	}
	if fitness.MeasurementsRecorded != 1 {
		t.Fatalf("measurements = %d, want 1", fitness.MeasurementsRecorded)
	}
}

func TestActivities_BucketsByDateAndHour(t *testing.T) {
	env := newStatsEnv(t)
	ctx := context.Background()

	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	env.completeBook(t, "book-1", 100, day.Add(10*time.Hour))
	env.completeBook(t, "book-2", 100, day.Add(10*time.Hour+30*time.Minute))
	env.completeBook(t, "book-3", 100, day.Add(8*time.Hour))

	if err := env.service.CalculateUserActivitiesAndSummary(ctx, "u1", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rows := env.activities.Rows("u1")
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want a single date bucket", len(rows))
	}
	a := rows[0]
	if a.BookCount != 3 || a.TotalCount != 3 {
		t.Fatalf("counts = %+v, want three book events", a)
	}
	if a.MostActiveHour == nil || *a.MostActiveHour != 10 {
		t.Fatalf("most_active_hour = %v, want 10", a.MostActiveHour)
	}
	if a.LeastActiveHour == nil || *a.LeastActiveHour != 8 {
		t.Fatalf("least_active_hour = %v, want 8", a.LeastActiveHour)
	}
}

func TestActivities_FlatHistogramLeavesHoursUnset(t *testing.T) {
	env := newStatsEnv(t)
	ctx := context.Background()
	env.completeBook(t, "book-1", 100, time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC))

	if err := env.service.CalculateUserActivitiesAndSummary(ctx, "u1", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rows := env.activities.Rows("u1")
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0].MostActiveHour != nil || rows[0].LeastActiveHour != nil {
		t.Fatal("a flat histogram must leave both hour markers unset")
	}
}

func TestActivities_CheckpointSkipsExistingDates(t *testing.T) {
	env := newStatsEnv(t)
	ctx := context.Background()
	env.completeBook(t, "book-1", 100, time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC))

	if err := env.service.CalculateUserActivitiesAndSummary(ctx, "u1", false); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := env.service.CalculateUserActivitiesAndSummary(ctx, "u1", false); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if rows := env.activities.Rows("u1"); len(rows) != 1 {
		t.Fatalf("rows = %d, re-running must not duplicate date rows", len(rows))
	}
}

func TestActivities_MixedEventSources(t *testing.T) {
	env := newStatsEnv(t)
	ctx := context.Background()
	day := time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)

	env.completeShowEpisode(t, "show-1", 1, 2, day.Add(20*time.Hour))
	if _, err := env.reviews.Insert(ctx, media.Review{
		UserID:    "u1",
		EntityID:  "show-1",
		EntityLot: media.EntityLotMetadata,
		PostedOn:  day.Add(21 * time.Hour),
	}); err != nil {
		t.Fatalf("insert review: %v", err)
	}
	if _, err := env.workouts.Insert(ctx, media.Workout{
		UserID:          "u1",
		StartTime:       day.Add(6 * time.Hour),
		EndTime:         day.Add(7 * time.Hour),
		DurationSeconds: 3600,
		TotalWeight:     decimal.Zero,
	}); err != nil {
		t.Fatalf("insert workout: %v", err)
	}

	if err := env.service.CalculateUserActivitiesAndSummary(ctx, "u1", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rows := env.activities.Rows("u1")
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	a := rows[0]
	if a.ShowCount != 1 || a.ReviewCount != 1 || a.WorkoutCount != 1 {
		t.Fatalf("counts = %+v, want one of each source", a)
	}
	if a.ShowDuration != 45 {
		t.Fatalf("show_duration = %d, want episode runtime 45", a.ShowDuration)
	}
	if a.WorkoutDuration != 60 {
		t.Fatalf("workout_duration = %d, want 60", a.WorkoutDuration)
	}
	if a.TotalDuration != 105 {
		t.Fatalf("total_duration = %d, want 105", a.TotalDuration)
	}
}
