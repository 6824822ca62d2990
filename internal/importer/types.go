package importer

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/IgnisDa/trackona/internal/media"
)

// FailStep tags the pipeline stage an item failed at.
type FailStep string

const (
	StepInputTransformation      FailStep = "input_transformation"
	StepItemDetailsFromSource    FailStep = "item_details_from_source"
	StepMediaDetailsFromProvider FailStep = "media_details_from_provider"
	StepSeenHistoryConversion    FailStep = "seen_history_conversion"
	StepReviewConversion         FailStep = "review_conversion"
)

// FailedItem is one recorded per-item failure. The batch always continues
// past it.
type FailedItem struct {
	Lot        *media.Lot
	Step       FailStep
	Identifier string
	Error      string
}

// CompletedKind tags a successfully replayed item.
type CompletedKind string

const (
	CompletedMetadata    CompletedKind = "metadata"
	CompletedGroup       CompletedKind = "group"
	CompletedPerson      CompletedKind = "person"
	CompletedWorkout     CompletedKind = "workout"
	CompletedMeasurement CompletedKind = "measurement"
	CompletedCollection  CompletedKind = "collection"
)

type CompletedItem struct {
	Kind       CompletedKind
	Identifier string
}

// SeenEntry is one consumption session from the source, in canonical form.
type SeenEntry struct {
	Progress *decimal.Decimal // nil means fully consumed
	EndedOn  *time.Time

	ShowSeasonNumber     *int
	ShowEpisodeNumber    *int
	PodcastEpisodeNumber *int
	AnimeEpisodeNumber   *int
	MangaChapterNumber   *decimal.Decimal
	MangaVolumeNumber    *int

	ProviderWatchedOn *string
}

// ItemRating is one review from the source. Rating is canonical, out of a
// hundred.
type ItemRating struct {
	Rating     *decimal.Decimal
	Text       *string
	IsSpoiler  *bool
	Visibility *media.Visibility
	Date       *time.Time

	ShowSeasonNumber     *int
	ShowEpisodeNumber    *int
	PodcastEpisodeNumber *int
	MangaChapterNumber   *decimal.Decimal
}

// MediaItem is one media entity with its history, reviews and collection
// memberships.
type MediaItem struct {
	// SourceID is the item's identifier in the source system, used in
	// failure reports.
	SourceID   string
	Lot        media.Lot
	Source     media.Source
	Identifier string

	SeenHistory []SeenEntry
	Reviews     []ItemRating
	Collections []string
}

type GroupItem struct {
	Title      string
	Lot        media.Lot
	Source     media.Source
	Identifier string

	Reviews     []ItemRating
	Collections []string
}

type PersonItem struct {
	Name            string
	Identifier      string
	Source          media.Source
	SourceSpecifics *string

	Reviews     []ItemRating
	Collections []string
}

// Result is the canonical batch a source parser produces. It is consumed
// once by Process.
type Result struct {
	Collections  []string
	Media        []MediaItem
	MediaGroups  []GroupItem
	People       []PersonItem
	Workouts     []media.Workout
	Measurements []media.Measurement
}

// Outcome reports what a replay did.
type Outcome struct {
	Total     int
	Completed []CompletedItem
	Failed    []FailedItem
}
