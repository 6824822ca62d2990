// Package reviews implements review posting. Ratings are accepted in the
// user's configured scale and stored out of a hundred.
package reviews

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/IgnisDa/trackona/internal/media"
	"github.com/IgnisDa/trackona/internal/store"
)

// ErrEmptyReview rejects a review carrying neither a rating nor text.
var ErrEmptyReview = errors.New("at least one of rating or text is required")

var twenty = decimal.NewFromInt(20)

type Service struct {
	log         *zap.Logger
	reviews     store.ReviewRepository
	preferences store.PreferencesRepository
}

func NewService(log *zap.Logger, reviews store.ReviewRepository, preferences store.PreferencesRepository) *Service {
	return &Service{log: log, reviews: reviews, preferences: preferences}
}

// Input is one review to post. Rating is in the user's configured scale.
type Input struct {
	EntityID  string
	EntityLot media.EntityLot

	Rating     *decimal.Decimal
	Text       *string
	IsSpoiler  *bool
	Visibility *media.Visibility
	Date       *time.Time

	ShowSeasonNumber     *int
	ShowEpisodeNumber    *int
	PodcastEpisodeNumber *int
	AnimeEpisodeNumber   *int
	MangaChapterNumber   *decimal.Decimal
	MangaVolumeNumber    *int
}

// Post validates and persists a review. The episode-coordinate fields
// become the same extras a consumption session carries, so reviews can
// target a single episode or chapter.
func (s *Service) Post(ctx context.Context, userID string, in Input) (media.Review, error) {
	if in.Rating == nil && in.Text == nil {
		return media.Review{}, ErrEmptyReview
	}

	scale, err := s.preferences.ReviewScale(ctx, userID)
	if err != nil {
		return media.Review{}, err
	}
	var rating *decimal.Decimal
	if in.Rating != nil {
		r := *in.Rating
		if scale == media.ReviewScaleOutOfFive {
			r = r.Mul(twenty)
		}
		rating = &r
	}

	r := media.Review{
		UserID:    userID,
		EntityID:  in.EntityID,
		EntityLot: in.EntityLot,
		Rating:    rating,
		Text:      in.Text,
	}
	if in.IsSpoiler != nil {
		r.IsSpoiler = *in.IsSpoiler
	}
	if in.Visibility != nil {
		r.Visibility = *in.Visibility
	}
	if in.Date != nil {
		r.PostedOn = *in.Date
	}
	if in.ShowSeasonNumber != nil && in.ShowEpisodeNumber != nil {
		r.ShowExtra = &media.SeenShowExtra{Season: *in.ShowSeasonNumber, Episode: *in.ShowEpisodeNumber}
	}
	if in.PodcastEpisodeNumber != nil {
		r.PodcastExtra = &media.SeenPodcastExtra{Episode: *in.PodcastEpisodeNumber}
	}
	if in.AnimeEpisodeNumber != nil {
		r.AnimeExtra = &media.SeenAnimeExtra{Episode: in.AnimeEpisodeNumber}
	}
	if in.MangaChapterNumber != nil || in.MangaVolumeNumber != nil {
		r.MangaExtra = &media.SeenMangaExtra{Chapter: in.MangaChapterNumber, Volume: in.MangaVolumeNumber}
	}

	posted, err := s.reviews.Insert(ctx, r)
	if err != nil {
		return media.Review{}, err
	}
	s.log.Debug("review posted",
		zap.String("user_id", userID),
		zap.String("entity_id", in.EntityID),
		zap.String("entity_lot", string(in.EntityLot)),
	)
	return posted, nil
}
