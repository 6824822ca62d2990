package progress

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/IgnisDa/trackona/internal/media"
)

// IsFinished reports whether the user has fully consumed the entity.
// Continuous media are finished once any session completed. Episodic media
// are finished iff every expected episode-coordinate was seen the same
// non-zero number of times, so a partial rewatch never flags completion.
func (e *Engine) IsFinished(ctx context.Context, userID string, meta media.Metadata) (bool, error) {
	history, err := e.seen.History(ctx, userID, meta.ID)
	if err != nil {
		return false, fmt.Errorf("load seen history: %w", err)
	}

	if !meta.Lot.IsEpisodic() {
		for _, s := range history {
			if s.State == media.SeenStateCompleted {
				return true, nil
			}
		}
		return false, nil
	}

	expected := e.expectedKeys(meta)
	// Nothing to track yet: the snapshot carries no episode inventory.
	if len(expected) == 0 {
		return true, nil
	}

	counts := make(map[string]int, len(expected))
	for i := range history {
		if history[i].State != media.SeenStateCompleted {
			continue
		}
		if key := history[i].CoordinateKey(); key != "" {
			counts[key]++
		}
	}

	min, max := -1, 0
	for _, key := range expected {
		n := counts[key]
		if min == -1 || n < min {
			min = n
		}
		if n > max {
			max = n
		}
	}
	return min == max && min != 0, nil
}

// expectedKeys enumerates every episode-coordinate key the snapshot implies,
// excluding show seasons on the special-name allow-list.
func (e *Engine) expectedKeys(meta media.Metadata) []string {
	var keys []string
	switch {
	case meta.Specifics.Show != nil:
		for _, season := range meta.Specifics.Show.Seasons {
			if e.isSpecialSeason(season.Name) {
				continue
			}
			for _, ep := range season.Episodes {
				keys = append(keys, fmt.Sprintf("%d-%d", season.SeasonNumber, ep.EpisodeNumber))
			}
		}
	case meta.Specifics.Podcast != nil:
		for _, ep := range meta.Specifics.Podcast.Episodes {
			keys = append(keys, fmt.Sprintf("%d", ep.Number))
		}
	case meta.Specifics.Anime != nil && meta.Specifics.Anime.Episodes != nil:
		for i := 1; i <= *meta.Specifics.Anime.Episodes; i++ {
			keys = append(keys, fmt.Sprintf("%d", i))
		}
	case meta.Specifics.Manga != nil && meta.Specifics.Manga.Chapters != nil:
		total := int(meta.Specifics.Manga.Chapters.IntPart())
		for i := 1; i <= total; i++ {
			keys = append(keys, decimal.NewFromInt(int64(i)).String())
		}
	}
	return keys
}

func (e *Engine) isSpecialSeason(name string) bool {
	for _, special := range e.specialSeasons {
		if name == special {
			return true
		}
	}
	return false
}
