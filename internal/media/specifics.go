package media

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShowEpisode is a single episode inside a season of a show snapshot.
type ShowEpisode struct {
	EpisodeNumber int        `json:"episode_number"`
	Name          string     `json:"name"`
	PosterImages  []string   `json:"poster_images,omitempty"`
	PublishDate   *time.Time `json:"publish_date,omitempty"`
	Runtime       *int       `json:"runtime,omitempty"` // minutes
}

// ShowSeason groups the episodes of one season.
type ShowSeason struct {
	SeasonNumber int           `json:"season_number"`
	Name         string        `json:"name"`
	Episodes     []ShowEpisode `json:"episodes"`
}

type ShowSpecifics struct {
	Seasons []ShowSeason `json:"seasons"`
}

// Episode returns the season/episode pair addressed by the coordinate, or
// nil when the snapshot does not know about it.
func (s *ShowSpecifics) Episode(season, episode int) (*ShowSeason, *ShowEpisode) {
	for i := range s.Seasons {
		if s.Seasons[i].SeasonNumber != season {
			continue
		}
		for j := range s.Seasons[i].Episodes {
			if s.Seasons[i].Episodes[j].EpisodeNumber == episode {
				return &s.Seasons[i], &s.Seasons[i].Episodes[j]
			}
		}
	}
	return nil, nil
}

type PodcastEpisode struct {
	Number    int     `json:"number"`
	Title     string  `json:"title"`
	Thumbnail *string `json:"thumbnail,omitempty"`
	Runtime   *int    `json:"runtime,omitempty"` // minutes
}

type PodcastSpecifics struct {
	Episodes      []PodcastEpisode `json:"episodes"`
	TotalEpisodes int              `json:"total_episodes"`
}

func (p *PodcastSpecifics) EpisodeByNumber(number int) *PodcastEpisode {
	for i := range p.Episodes {
		if p.Episodes[i].Number == number {
			return &p.Episodes[i]
		}
	}
	return nil
}

type AnimeSpecifics struct {
	Episodes *int `json:"episodes,omitempty"`
}

type MangaSpecifics struct {
	Chapters *decimal.Decimal `json:"chapters,omitempty"`
	Volumes  *int             `json:"volumes,omitempty"`
}

type BookSpecifics struct {
	Pages *int `json:"pages,omitempty"`
}

type MovieSpecifics struct {
	Runtime *int `json:"runtime,omitempty"` // minutes
}

type AudioBookSpecifics struct {
	Runtime *int `json:"runtime,omitempty"` // minutes
}

type VideoGameSpecifics struct {
	Platforms []string `json:"platforms,omitempty"`
}

type VisualNovelSpecifics struct {
	Length *int `json:"length,omitempty"` // minutes
}

type MusicSpecifics struct {
	Duration *int `json:"duration,omitempty"` // seconds
}

// Specifics bundles the per-lot detail payloads; at most one side is set,
// matching the entity's lot.
type Specifics struct {
	Show        *ShowSpecifics        `json:"show,omitempty"`
	Podcast     *PodcastSpecifics     `json:"podcast,omitempty"`
	Anime       *AnimeSpecifics       `json:"anime,omitempty"`
	Manga       *MangaSpecifics       `json:"manga,omitempty"`
	Book        *BookSpecifics        `json:"book,omitempty"`
	Movie       *MovieSpecifics       `json:"movie,omitempty"`
	AudioBook   *AudioBookSpecifics   `json:"audio_book,omitempty"`
	VideoGame   *VideoGameSpecifics   `json:"video_game,omitempty"`
	VisualNovel *VisualNovelSpecifics `json:"visual_novel,omitempty"`
	Music       *MusicSpecifics       `json:"music,omitempty"`
}
