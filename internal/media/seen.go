package media

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SeenShowExtra is the episode-coordinate of a show consumption session.
type SeenShowExtra struct {
	Season  int `json:"season"`
	Episode int `json:"episode"`
}

type SeenPodcastExtra struct {
	Episode int `json:"episode"`
}

type SeenAnimeExtra struct {
	Episode *int `json:"episode,omitempty"`
}

type SeenMangaExtra struct {
	Chapter *decimal.Decimal `json:"chapter,omitempty"`
	Volume  *int             `json:"volume,omitempty"`
}

// Seen is one consumption session of a metadata entity by a user. Historical
// records are never deleted; only the most recent non-terminal one is ever
// mutated.
type Seen struct {
	ID                string
	UserID            string
	MetadataID        string
	State             SeenState
	Progress          decimal.Decimal
	StartedOn         *time.Time
	FinishedOn        *time.Time
	UpdatedAt         []time.Time
	LastUpdatedOn     time.Time
	ProviderWatchedOn *string

	ShowExtra    *SeenShowExtra    `json:"show_extra,omitempty"`
	PodcastExtra *SeenPodcastExtra `json:"podcast_extra,omitempty"`
	AnimeExtra   *SeenAnimeExtra   `json:"anime_extra,omitempty"`
	MangaExtra   *SeenMangaExtra   `json:"manga_extra,omitempty"`
}

// CoordinateKey renders the episode-coordinate of this session as the string
// key used by the completeness check and the unique-item sets. Continuous
// media yield the empty key.
func (s *Seen) CoordinateKey() string {
	switch {
	case s.ShowExtra != nil:
		return fmt.Sprintf("%d-%d", s.ShowExtra.Season, s.ShowExtra.Episode)
	case s.PodcastExtra != nil:
		return fmt.Sprintf("%d", s.PodcastExtra.Episode)
	case s.AnimeExtra != nil && s.AnimeExtra.Episode != nil:
		return fmt.Sprintf("%d", *s.AnimeExtra.Episode)
	case s.MangaExtra != nil && s.MangaExtra.Chapter != nil:
		return s.MangaExtra.Chapter.String()
	}
	return ""
}

// Normalize enforces the progress invariant on progress-mutating writes:
// full progress lands the session in the completed state. State-only
// updates skip it so an explicit drop or hold on a finished session
// sticks.
func (s *Seen) Normalize() {
	if s.Progress.Equal(decimal.NewFromInt(100)) {
		s.State = SeenStateCompleted
	}
}
