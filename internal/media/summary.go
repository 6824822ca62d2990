package media

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// StringSet is an identity set persisted as a sorted JSON array so that
// incremental summary runs keep exact distinct counts across checkpoints.
type StringSet map[string]struct{}

func (s StringSet) Add(key string) {
	s[key] = struct{}{}
}

func (s StringSet) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return json.Marshal(keys)
}

func (s *StringSet) UnmarshalJSON(data []byte) error {
	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	*s = make(StringSet, len(keys))
	for _, k := range keys {
		(*s)[k] = struct{}{}
	}
	return nil
}

func NewStringSet() StringSet {
	return make(StringSet)
}

type InteractionSummary struct {
	Reviewed       int64 `json:"reviewed"`
	InteractedWith int64 `json:"interacted_with"`
}

type WorkoutSummary struct {
	Recorded int64           `json:"recorded"`
	Duration decimal.Decimal `json:"duration"` // minutes
	Weight   decimal.Decimal `json:"weight"`
}

type FitnessSummary struct {
	MeasurementsRecorded    int64          `json:"measurements_recorded"`
	ExercisesInteractedWith int64          `json:"exercises_interacted_with"`
	Workouts                WorkoutSummary `json:"workouts"`
}

type BooksSummary struct {
	Pages int `json:"pages"`
	Read  int `json:"read"`
}

type MoviesSummary struct {
	Runtime int `json:"runtime"`
	Watched int `json:"watched"`
}

type ShowsSummary struct {
	Runtime         int `json:"runtime"`
	Watched         int `json:"watched"`
	WatchedEpisodes int `json:"watched_episodes"`
	WatchedSeasons  int `json:"watched_seasons"`
}

type PodcastsSummary struct {
	Runtime        int `json:"runtime"`
	Played         int `json:"played"`
	PlayedEpisodes int `json:"played_episodes"`
}

type AnimeSummary struct {
	Watched  int `json:"watched"`
	Episodes int `json:"episodes"`
}

type MangaSummary struct {
	Read     int `json:"read"`
	Chapters int `json:"chapters"`
}

type AudioBooksSummary struct {
	Runtime int `json:"runtime"`
	Played  int `json:"played"`
}

type VideoGamesSummary struct {
	Played int `json:"played"`
}

type VisualNovelsSummary struct {
	Runtime int `json:"runtime"`
	Played  int `json:"played"`
}

type MusicSummary struct {
	Duration int `json:"duration"`
	Played   int `json:"played"`
}

type MediaSummary struct {
	MetadataOverall InteractionSummary  `json:"metadata_overall"`
	PeopleOverall   InteractionSummary  `json:"people_overall"`
	Books           BooksSummary        `json:"books"`
	Movies          MoviesSummary       `json:"movies"`
	Shows           ShowsSummary        `json:"shows"`
	Podcasts        PodcastsSummary     `json:"podcasts"`
	Anime           AnimeSummary        `json:"anime"`
	Manga           MangaSummary        `json:"manga"`
	AudioBooks      AudioBooksSummary   `json:"audio_books"`
	VideoGames      VideoGamesSummary   `json:"video_games"`
	VisualNovels    VisualNovelsSummary `json:"visual_novels"`
	Music           MusicSummary        `json:"music"`
}

// UniqueItems carries the identity sets behind the distinct counts. The
// sets live inside the persisted summary so incremental runs never double
// count a re-consumed unit.
type UniqueItems struct {
	AudioBooks      StringSet `json:"audio_books"`
	Books           StringSet `json:"books"`
	Movies          StringSet `json:"movies"`
	Music           StringSet `json:"music"`
	Shows           StringSet `json:"shows"`
	ShowSeasons     StringSet `json:"show_seasons"`
	ShowEpisodes    StringSet `json:"show_episodes"`
	Podcasts        StringSet `json:"podcasts"`
	PodcastEpisodes StringSet `json:"podcast_episodes"`
	Anime           StringSet `json:"anime"`
	AnimeEpisodes   StringSet `json:"anime_episodes"`
	Manga           StringSet `json:"manga"`
	MangaChapters   StringSet `json:"manga_chapters"`
	MangaVolumes    StringSet `json:"manga_volumes"`
	VideoGames      StringSet `json:"video_games"`
	VisualNovels    StringSet `json:"visual_novels"`
}

func NewUniqueItems() UniqueItems {
	return UniqueItems{
		AudioBooks:      NewStringSet(),
		Books:           NewStringSet(),
		Movies:          NewStringSet(),
		Music:           NewStringSet(),
		Shows:           NewStringSet(),
		ShowSeasons:     NewStringSet(),
		ShowEpisodes:    NewStringSet(),
		Podcasts:        NewStringSet(),
		PodcastEpisodes: NewStringSet(),
		Anime:           NewStringSet(),
		AnimeEpisodes:   NewStringSet(),
		Manga:           NewStringSet(),
		MangaChapters:   NewStringSet(),
		MangaVolumes:    NewStringSet(),
		VideoGames:      NewStringSet(),
		VisualNovels:    NewStringSet(),
	}
}

// SummaryData is the additive payload of a user summary row.
type SummaryData struct {
	Fitness     FitnessSummary `json:"fitness"`
	Media       MediaSummary   `json:"media"`
	UniqueItems UniqueItems    `json:"unique_items"`
}

func NewSummaryData() SummaryData {
	return SummaryData{UniqueItems: NewUniqueItems()}
}

// UserSummary is the per-user checkpointed aggregate.
type UserSummary struct {
	UserID       string
	CalculatedOn time.Time
	IsFresh      bool
	Data         SummaryData
}
