package reviews

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/IgnisDa/trackona/internal/media"
	"github.com/IgnisDa/trackona/internal/store"
)

func newTestService() (*Service, *store.InMemoryReviewRepository, *store.InMemoryPreferencesRepository) {
	repo := store.NewInMemoryReviewRepository()
	prefs := store.NewInMemoryPreferencesRepository()
	return NewService(zap.NewNop(), repo, prefs), repo, prefs
}

func dec(n int64) *decimal.Decimal {
	d := decimal.NewFromInt(n)
	return &d
}

func strp(s string) *string { return &s }
func intp(n int) *int       { return &n }

func TestPost_RequiresRatingOrText(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Post(context.Background(), "u1", Input{
		EntityID:  "m1",
		EntityLot: media.EntityLotMetadata,
	})
	if !errors.Is(err, ErrEmptyReview) {
		t.Fatalf("err = %v, want ErrEmptyReview", err)
	}
}

func TestPost_ConvertsOutOfFiveRatings(t *testing.T) {
	svc, _, prefs := newTestService()
	prefs.SetReviewScale("u1", media.ReviewScaleOutOfFive)

	posted, err := svc.Post(context.Background(), "u1", Input{
		EntityID:  "m1",
		EntityLot: media.EntityLotMetadata,
		Rating:    dec(4),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if posted.Rating == nil || !posted.Rating.Equal(decimal.NewFromInt(80)) {
		t.Fatalf("rating = %v, want 80 stored out of a hundred", posted.Rating)
	}
}

func TestPost_KeepsOutOfHundredRatings(t *testing.T) {
	svc, _, _ := newTestService()

	posted, err := svc.Post(context.Background(), "u1", Input{
		EntityID:  "m1",
		EntityLot: media.EntityLotMetadata,
		Rating:    dec(73),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if posted.Rating == nil || !posted.Rating.Equal(decimal.NewFromInt(73)) {
		t.Fatalf("rating = %v, want 73", posted.Rating)
	}
}

func TestPost_DefaultsToPrivateVisibility(t *testing.T) {
	svc, _, _ := newTestService()

	posted, err := svc.Post(context.Background(), "u1", Input{
		EntityID:  "m1",
		EntityLot: media.EntityLotMetadata,
		Text:      strp("A slow start but it sticks the landing."),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if posted.Visibility != media.VisibilityPrivate {
		t.Fatalf("visibility = %q, want private by default", posted.Visibility)
	}
	if posted.PostedOn.IsZero() {
		t.Fatal("posted_on should be stamped when no date is given")
	}
}

func TestPost_EpisodeCoordinates(t *testing.T) {
	svc, _, _ := newTestService()

	posted, err := svc.Post(context.Background(), "u1", Input{
		EntityID:          "m1",
		EntityLot:         media.EntityLotMetadata,
		Text:              strp("Best episode of the season."),
		ShowSeasonNumber:  intp(2),
		ShowEpisodeNumber: intp(5),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if posted.ShowExtra == nil || posted.ShowExtra.Season != 2 || posted.ShowExtra.Episode != 5 {
		t.Fatalf("show extra = %+v, want season 2 episode 5", posted.ShowExtra)
	}
}

func TestPost_SeasonAloneIsNotACoordinate(t *testing.T) {
	svc, _, _ := newTestService()

	posted, err := svc.Post(context.Background(), "u1", Input{
		EntityID:         "m1",
		EntityLot:        media.EntityLotMetadata,
		Text:             strp("Season review."),
		ShowSeasonNumber: intp(2),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if posted.ShowExtra != nil {
		t.Fatalf("show extra = %+v, a season without an episode must not attach", posted.ShowExtra)
	}
}
