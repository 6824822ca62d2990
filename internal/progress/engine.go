// Package progress implements the consumption state machine: it decides,
// from partial input, whether a progress report starts, continues or closes
// a tracking session, and keeps the derived collection membership current.
package progress

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/IgnisDa/trackona/internal/dedupe"
	"github.com/IgnisDa/trackona/internal/jobs"
	"github.com/IgnisDa/trackona/internal/media"
	"github.com/IgnisDa/trackona/internal/store"
)

// Conflict and no-op outcomes, surfaced as typed errors so callers can
// branch with errors.Is.
var (
	ErrAlreadySeen            = errors.New("progress: already seen inside the dedupe window")
	ErrNoProgressChange       = errors.New("progress: no progress change")
	ErrNoSeenInProgress       = errors.New("progress: no session exists for this entity")
	ErrMissingProgressOrState = errors.New("progress: neither progress nor state supplied")

	ErrMissingShowCoordinate    = errors.New("progress: show season and episode numbers are required")
	ErrMissingPodcastCoordinate = errors.New("progress: podcast episode number is required")
)

// UpdateInput is one progress report. All fields beyond MetadataID are
// optional; which ones are present drives the action selection.
type UpdateInput struct {
	MetadataID string

	Progress    *decimal.Decimal
	ChangeState *media.SeenState
	// Date is the completion date claimed by the caller, interpreted in the
	// engine's configured timezone.
	Date *time.Time

	ShowSeasonNumber     *int
	ShowEpisodeNumber    *int
	PodcastEpisodeNumber *int
	AnimeEpisodeNumber   *int
	MangaChapterNumber   *decimal.Decimal
	MangaVolumeNumber    *int

	ProviderWatchedOn *string
}

type action int

const (
	actionChangeState action = iota
	actionRecordPast
	actionRecordNow
	actionContinueSession
	actionStartSession
)

// Engine is the progress state machine. Safe for concurrent use; races on
// the same (user, metadata) pair degrade to ErrNoProgressChange retries.
type Engine struct {
	log         *zap.Logger
	seen        store.SeenRepository
	metadata    store.MetadataRepository
	collections store.CollectionRepository
	cache       dedupe.Cache
	queue       jobs.Queue

	tz             *time.Location
	specialSeasons []string

	// now is swapped in tests to control the clock.
	now func() time.Time
}

type Options struct {
	Timezone *time.Location
	// SpecialSeasons are show season names excluded from the completeness
	// check. Defaults to Specials and Extras.
	SpecialSeasons []string
}

func NewEngine(
	log *zap.Logger,
	seen store.SeenRepository,
	metadata store.MetadataRepository,
	collections store.CollectionRepository,
	cache dedupe.Cache,
	queue jobs.Queue,
	opts Options,
) *Engine {
	tz := opts.Timezone
	if tz == nil {
		tz = time.UTC
	}
	seasons := opts.SpecialSeasons
	if seasons == nil {
		seasons = []string{"Specials", "Extras"}
	}
	return &Engine{
		log:            log,
		seen:           seen,
		metadata:       metadata,
		collections:    collections,
		cache:          cache,
		queue:          queue,
		tz:             tz,
		specialSeasons: seasons,
		now:            time.Now,
	}
}

// UpdateProgress applies one progress report and returns the resulting
// session. respectCache suppresses duplicates of a recently completed
// identical report with ErrAlreadySeen.
func (e *Engine) UpdateProgress(ctx context.Context, userID string, input UpdateInput, respectCache bool) (media.Seen, error) {
	meta, err := e.metadata.GetByID(ctx, input.MetadataID)
	if err != nil {
		return media.Seen{}, fmt.Errorf("load metadata: %w", err)
	}
	cacheKey := e.cacheKey(userID, input)
	if respectCache {
		hit, err := e.cache.Exists(ctx, cacheKey)
		if err != nil {
			e.log.Warn("dedupe cache probe failed", zap.Error(err))
		} else if hit {
			return media.Seen{}, ErrAlreadySeen
		}
	}

	act, open, err := e.selectAction(ctx, userID, input)
	if err != nil {
		return media.Seen{}, err
	}
	e.log.Debug("progress action selected",
		zap.String("user_id", userID),
		zap.String("metadata_id", input.MetadataID),
		zap.Int("action", int(act)),
	)

	var result media.Seen
	switch act {
	case actionChangeState:
		result, err = e.changeState(ctx, userID, input)
	case actionContinueSession:
		result, err = e.continueSession(ctx, *open, input)
	case actionStartSession, actionRecordNow, actionRecordPast:
		result, err = e.createSession(ctx, userID, meta.Lot, act, input)
	default:
		err = fmt.Errorf("progress: unhandled action %d", act)
	}
	if err != nil {
		return media.Seen{}, err
	}

	if result.State == media.SeenStateCompleted {
		// Best effort: the cache is a dedupe aid, not a ledger.
		if err := e.cache.Mark(ctx, cacheKey); err != nil {
			e.log.Warn("dedupe cache mark failed", zap.Error(err))
		}
	}

	if err := e.afterSeen(ctx, result, meta); err != nil {
		return media.Seen{}, err
	}

	if err := e.queue.RecalculateUserStats(ctx, jobs.RecalculateUserStatsJob{UserID: userID}); err != nil {
		e.log.Warn("stats recalculation enqueue failed", zap.String("user_id", userID), zap.Error(err))
	}
	return result, nil
}

// validateCoordinate guards session creation only. State changes and
// continuations address an existing session, which already carries its
// coordinate.
func validateCoordinate(lot media.Lot, input UpdateInput) error {
	switch lot {
	case media.LotShow:
		if input.ShowSeasonNumber == nil || input.ShowEpisodeNumber == nil {
			return ErrMissingShowCoordinate
		}
	case media.LotPodcast:
		if input.PodcastEpisodeNumber == nil {
			return ErrMissingPodcastCoordinate
		}
	}
	return nil
}

func (e *Engine) cacheKey(userID string, input UpdateInput) string {
	parts := []string{userID, input.MetadataID}
	switch {
	case input.ShowSeasonNumber != nil && input.ShowEpisodeNumber != nil:
		parts = append(parts, fmt.Sprintf("%d-%d", *input.ShowSeasonNumber, *input.ShowEpisodeNumber))
	case input.PodcastEpisodeNumber != nil:
		parts = append(parts, fmt.Sprintf("%d", *input.PodcastEpisodeNumber))
	case input.AnimeEpisodeNumber != nil:
		parts = append(parts, fmt.Sprintf("%d", *input.AnimeEpisodeNumber))
	case input.MangaChapterNumber != nil:
		parts = append(parts, input.MangaChapterNumber.String())
	}
	return strings.Join(parts, ":")
}

// selectAction applies the precedence rules over the report's fields. The
// returned session is the open one, only set when the action continues it.
func (e *Engine) selectAction(ctx context.Context, userID string, input UpdateInput) (action, *media.Seen, error) {
	if input.ChangeState != nil {
		return actionChangeState, nil, nil
	}
	if input.Progress == nil {
		return 0, nil, ErrMissingProgressOrState
	}

	open, err := e.openSession(ctx, userID, input.MetadataID)
	if err != nil {
		return 0, nil, err
	}

	if input.Progress.Equal(hundred) {
		switch {
		case input.Date == nil:
			return actionRecordPast, nil, nil
		case e.isToday(*input.Date):
			if open == nil {
				return actionRecordNow, nil, nil
			}
			return actionContinueSession, open, nil
		default:
			return actionRecordPast, nil, nil
		}
	}

	if open == nil {
		return actionStartSession, nil, nil
	}
	return actionContinueSession, open, nil
}

func (e *Engine) openSession(ctx context.Context, userID, metadataID string) (*media.Seen, error) {
	sessions, err := e.seen.OpenSessions(ctx, userID, metadataID)
	if err != nil {
		return nil, fmt.Errorf("load open sessions: %w", err)
	}
	if len(sessions) == 0 {
		return nil, nil
	}
	return &sessions[0], nil
}

func (e *Engine) isToday(t time.Time) bool {
	now := e.now().In(e.tz)
	local := t.In(e.tz)
	return now.Year() == local.Year() && now.YearDay() == local.YearDay()
}

func (e *Engine) createSession(ctx context.Context, userID string, lot media.Lot, act action, input UpdateInput) (media.Seen, error) {
	if err := validateCoordinate(lot, input); err != nil {
		return media.Seen{}, err
	}
	s := media.Seen{
		UserID:            userID,
		MetadataID:        input.MetadataID,
		State:             media.SeenStateInProgress,
		Progress:          *input.Progress,
		ProviderWatchedOn: input.ProviderWatchedOn,
	}
	applyCoordinate(&s, input)

	switch act {
	case actionStartSession:
		today := e.today()
		s.StartedOn = &today
	case actionRecordNow, actionRecordPast:
		// RecordPast without a date leaves finished_on unset even at full
		// progress.
		s.FinishedOn = input.Date
	}
	s.Normalize()

	inserted, err := e.seen.Insert(ctx, s)
	if err != nil {
		return media.Seen{}, err
	}
	return inserted, nil
}

func (e *Engine) continueSession(ctx context.Context, open media.Seen, input UpdateInput) (media.Seen, error) {
	progressChanged := !open.Progress.Equal(*input.Progress)
	provenanceChanged := provenanceDiffers(open.ProviderWatchedOn, input.ProviderWatchedOn)
	if !progressChanged && !provenanceChanged {
		return media.Seen{}, ErrNoProgressChange
	}

	open.State = media.SeenStateInProgress
	open.Progress = *input.Progress
	if progressChanged {
		open.UpdatedAt = append(open.UpdatedAt, e.now().UTC())
	}
	if input.ProviderWatchedOn != nil {
		open.ProviderWatchedOn = input.ProviderWatchedOn
	}
	// Out-of-order reader clients may report a different chapter mid-session.
	if input.MangaChapterNumber != nil {
		if open.MangaExtra == nil {
			open.MangaExtra = &media.SeenMangaExtra{}
		}
		open.MangaExtra.Chapter = input.MangaChapterNumber
		if input.MangaVolumeNumber != nil {
			open.MangaExtra.Volume = input.MangaVolumeNumber
		}
	}
	if input.Progress.Equal(hundred) {
		finished := input.Date
		if finished == nil {
			today := e.today()
			finished = &today
		}
		open.FinishedOn = finished
	}
	open.Normalize()
	return e.seen.Update(ctx, open)
}

func (e *Engine) changeState(ctx context.Context, userID string, input UpdateInput) (media.Seen, error) {
	latest, err := e.seen.MostRecent(ctx, userID, input.MetadataID)
	if errors.Is(err, store.ErrNotFound) {
		return media.Seen{}, ErrNoSeenInProgress
	}
	if err != nil {
		return media.Seen{}, fmt.Errorf("load latest session: %w", err)
	}

	// The requested state is persisted as-is, even on a finished session:
	// a completed watch can still be re-marked dropped or on hold.
	latest.State = *input.ChangeState
	latest.UpdatedAt = append(latest.UpdatedAt, e.now().UTC())
	if input.ProviderWatchedOn != nil {
		latest.ProviderWatchedOn = input.ProviderWatchedOn
	}
	return e.seen.Update(ctx, latest)
}

func applyCoordinate(s *media.Seen, input UpdateInput) {
	switch {
	case input.ShowSeasonNumber != nil && input.ShowEpisodeNumber != nil:
		s.ShowExtra = &media.SeenShowExtra{
			Season:  *input.ShowSeasonNumber,
			Episode: *input.ShowEpisodeNumber,
		}
	case input.PodcastEpisodeNumber != nil:
		s.PodcastExtra = &media.SeenPodcastExtra{Episode: *input.PodcastEpisodeNumber}
	case input.AnimeEpisodeNumber != nil:
		s.AnimeExtra = &media.SeenAnimeExtra{Episode: input.AnimeEpisodeNumber}
	case input.MangaChapterNumber != nil || input.MangaVolumeNumber != nil:
		s.MangaExtra = &media.SeenMangaExtra{
			Chapter: input.MangaChapterNumber,
			Volume:  input.MangaVolumeNumber,
		}
	}
}

func provenanceDiffers(stored, incoming *string) bool {
	if incoming == nil {
		return false
	}
	if stored == nil {
		return true
	}
	return *stored != *incoming
}

func (e *Engine) today() time.Time {
	now := e.now().In(e.tz)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, e.tz)
}

var hundred = decimal.NewFromInt(100)
