package media

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReviewScale is the scale a user writes ratings in. Ratings are stored
// normalized out of a hundred.
type ReviewScale string

const (
	ReviewScaleOutOfFive    ReviewScale = "out_of_five"
	ReviewScaleOutOfHundred ReviewScale = "out_of_hundred"
)

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Review is a user's rating and/or text about an entity.
type Review struct {
	ID         string
	UserID     string
	EntityID   string
	EntityLot  EntityLot
	Rating     *decimal.Decimal // out of a hundred
	Text       *string
	IsSpoiler  bool
	Visibility Visibility
	PostedOn   time.Time

	ShowExtra    *SeenShowExtra
	PodcastExtra *SeenPodcastExtra
	AnimeExtra   *SeenAnimeExtra
	MangaExtra   *SeenMangaExtra
}

// Workout is the slice of a fitness workout the statistics aggregator needs.
type Workout struct {
	ID              string
	UserID          string
	Name            string
	StartTime       time.Time
	EndTime         time.Time
	DurationSeconds int
	TotalWeight     decimal.Decimal
}

// Measurement is one body-measurement entry.
type Measurement struct {
	UserID    string
	Timestamp time.Time
	Name      *string
	Stats     map[string]decimal.Decimal
}
