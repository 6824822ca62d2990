package progress

import (
	"context"
	"testing"
	"time"

	"github.com/IgnisDa/trackona/internal/media"
)

func showWithSeasons(t *testing.T, env *testEnv) media.Metadata {
	t.Helper()
	return env.addMetadata(t, media.LotShow, media.Specifics{Show: &media.ShowSpecifics{
		Seasons: []media.ShowSeason{
			{SeasonNumber: 1, Name: "Season 1", Episodes: []media.ShowEpisode{
				{EpisodeNumber: 1}, {EpisodeNumber: 2}, {EpisodeNumber: 3},
			}},
			{SeasonNumber: 2, Name: "Season 2", Episodes: []media.ShowEpisode{
				{EpisodeNumber: 1}, {EpisodeNumber: 2},
			}},
		},
	}})
}

func (env *testEnv) watchEpisode(t *testing.T, meta media.Metadata, season, episode int) {
	t.Helper()
	today := time.Now()
	_, err := env.engine.UpdateProgress(context.Background(), "u1", UpdateInput{
		MetadataID:        meta.ID,
		Progress:          dec(100),
		Date:              &today,
		ShowSeasonNumber:  intp(season),
		ShowEpisodeNumber: intp(episode),
	}, false)
	if err != nil {
		t.Fatalf("watch s%de%d: %v", season, episode, err)
	}
}

func TestIsFinished_AllEpisodesOnce(t *testing.T) {
	env := newTestEnv(t)
	meta := showWithSeasons(t, env)

	for _, c := range []struct{ s, e int }{{1, 1}, {1, 2}, {1, 3}, {2, 1}, {2, 2}} {
		env.watchEpisode(t, meta, c.s, c.e)
	}
	finished, err := env.engine.IsFinished(context.Background(), "u1", meta)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !finished {
		t.Fatal("all five episodes seen once should be finished")
	}
}

func TestIsFinished_MissingEpisode(t *testing.T) {
	env := newTestEnv(t)
	meta := showWithSeasons(t, env)

	for _, c := range []struct{ s, e int }{{1, 1}, {1, 2}, {1, 3}, {2, 1}} {
		env.watchEpisode(t, meta, c.s, c.e)
	}
	finished, err := env.engine.IsFinished(context.Background(), "u1", meta)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if finished {
		t.Fatal("four of five episodes must not count as finished")
	}
}

func TestIsFinished_PartialRewatch(t *testing.T) {
	env := newTestEnv(t)
	meta := showWithSeasons(t, env)

	for _, c := range []struct{ s, e int }{{1, 1}, {1, 2}, {1, 3}, {2, 1}, {2, 2}, {1, 1}} {
		env.watchEpisode(t, meta, c.s, c.e)
	}
	finished, err := env.engine.IsFinished(context.Background(), "u1", meta)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if finished {
		t.Fatal("uneven rewatch counts (min != max) must not count as finished")
	}
}

func TestIsFinished_FullRewatch(t *testing.T) {
	env := newTestEnv(t)
	meta := showWithSeasons(t, env)

	for range [2]struct{}{} {
		for _, c := range []struct{ s, e int }{{1, 1}, {1, 2}, {1, 3}, {2, 1}, {2, 2}} {
			env.watchEpisode(t, meta, c.s, c.e)
		}
	}
	finished, err := env.engine.IsFinished(context.Background(), "u1", meta)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !finished {
		t.Fatal("every episode seen exactly twice should be finished")
	}
}

func TestIsFinished_SpecialSeasonsExcluded(t *testing.T) {
	env := newTestEnv(t)
	meta := env.addMetadata(t, media.LotShow, media.Specifics{Show: &media.ShowSpecifics{
		Seasons: []media.ShowSeason{
			{SeasonNumber: 0, Name: "Specials", Episodes: []media.ShowEpisode{{EpisodeNumber: 1}}},
			{SeasonNumber: 1, Name: "Season 1", Episodes: []media.ShowEpisode{{EpisodeNumber: 1}}},
		},
	}})

	env.watchEpisode(t, meta, 1, 1)
	finished, err := env.engine.IsFinished(context.Background(), "u1", meta)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !finished {
		t.Fatal("unseen special-season episodes must not block completion")
	}
}

func TestIsFinished_EmptySpecificsIsFinished(t *testing.T) {
	env := newTestEnv(t)
	meta := env.addMetadata(t, media.LotShow, media.Specifics{Show: &media.ShowSpecifics{}})

	// No inventory known yet: nothing to track.
	finished, err := env.engine.IsFinished(context.Background(), "u1", meta)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !finished {
		t.Fatal("empty expected-key set should be treated as finished")
	}
}

func TestIsFinished_ContinuousMedia(t *testing.T) {
	env := newTestEnv(t)
	meta := env.addMetadata(t, media.LotBook, media.Specifics{})
	ctx := context.Background()

	finished, err := env.engine.IsFinished(ctx, "u1", meta)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if finished {
		t.Fatal("no completed session should mean not finished")
	}

	if _, err := env.engine.UpdateProgress(ctx, "u1", UpdateInput{MetadataID: meta.ID, Progress: dec(100)}, false); err != nil {
		t.Fatalf("complete: %v", err)
	}
	finished, err = env.engine.IsFinished(ctx, "u1", meta)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !finished {
		t.Fatal("a completed session should mean finished")
	}
}

func TestIsFinished_Anime(t *testing.T) {
	env := newTestEnv(t)
	meta := env.addMetadata(t, media.LotAnime, media.Specifics{Anime: &media.AnimeSpecifics{Episodes: intp(3)}})
	ctx := context.Background()
	today := time.Now()

	for i := 1; i <= 3; i++ {
		ep := i
		if _, err := env.engine.UpdateProgress(ctx, "u1", UpdateInput{
			MetadataID:         meta.ID,
			Progress:           dec(100),
			Date:               &today,
			AnimeEpisodeNumber: &ep,
		}, false); err != nil {
			t.Fatalf("episode %d: %v", i, err)
		}
	}
	finished, err := env.engine.IsFinished(ctx, "u1", meta)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !finished {
		t.Fatal("all anime episodes seen should be finished")
	}
}
