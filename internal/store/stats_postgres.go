package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/IgnisDa/trackona/internal/media"
)

type PostgresSummaryRepository struct {
	db *pgxpool.Pool
}

func NewPostgresSummaryRepository(db *pgxpool.Pool) *PostgresSummaryRepository {
	return &PostgresSummaryRepository{db: db}
}

func (r *PostgresSummaryRepository) Latest(ctx context.Context, userID string) (media.UserSummary, error) {
	var (
		s   media.UserSummary
		raw []byte
	)
	err := r.db.QueryRow(ctx,
		`SELECT user_id, calculated_on, is_fresh, data FROM user_summary WHERE user_id=$1`,
		userID,
	).Scan(&s.UserID, &s.CalculatedOn, &s.IsFresh, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return media.UserSummary{}, ErrNotFound
	}
	if err != nil {
		return media.UserSummary{}, fmt.Errorf("query user summary: %w", err)
	}
	s.Data = media.NewSummaryData()
	if raw != nil {
		if err := json.Unmarshal(raw, &s.Data); err != nil {
			return media.UserSummary{}, fmt.Errorf("decode user summary: %w", err)
		}
	}
	return s, nil
}

func (r *PostgresSummaryRepository) Upsert(ctx context.Context, s media.UserSummary) error {
	raw, err := json.Marshal(s.Data)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO user_summary (user_id, calculated_on, is_fresh, data)
VALUES ($1,$2,$3,$4)
ON CONFLICT (user_id) DO UPDATE
SET calculated_on=excluded.calculated_on, is_fresh=excluded.is_fresh, data=excluded.data`,
		s.UserID, s.CalculatedOn, s.IsFresh, raw,
	)
	if err != nil {
		return fmt.Errorf("upsert user summary: %w", err)
	}
	return nil
}

type PostgresInteractionRepository struct {
	db *pgxpool.Pool
}

func NewPostgresInteractionRepository(db *pgxpool.Pool) *PostgresInteractionRepository {
	return &PostgresInteractionRepository{db: db}
}

func (r *PostgresInteractionRepository) count(ctx context.Context, table, userID string, since *time.Time) (int64, error) {
	q := fmt.Sprintf(`SELECT count(*) FROM %s WHERE user_id=$1`, table)
	args := []any{userID}
	if since != nil {
		args = append(args, *since)
		q += fmt.Sprintf(" AND last_updated_on > $%d", len(args))
	}
	var n int64
	if err := r.db.QueryRow(ctx, q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s interactions: %w", table, err)
	}
	return n, nil
}

func (r *PostgresInteractionRepository) CountMetadata(ctx context.Context, userID string, since *time.Time) (int64, error) {
	return r.count(ctx, "user_to_metadata", userID, since)
}

func (r *PostgresInteractionRepository) CountPeople(ctx context.Context, userID string, since *time.Time) (int64, error) {
	return r.count(ctx, "user_to_person", userID, since)
}

func (r *PostgresInteractionRepository) CountExercises(ctx context.Context, userID string, since *time.Time) (int64, error) {
	return r.count(ctx, "user_to_exercise", userID, since)
}

func (r *PostgresInteractionRepository) AddUnitsConsumed(ctx context.Context, userID, metadataID string, units int) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO user_to_metadata (user_id, metadata_id, units_consumed, last_updated_on)
VALUES ($1,$2,$3,$4)
ON CONFLICT (user_id, metadata_id) DO UPDATE
SET units_consumed = coalesce(user_to_metadata.units_consumed, 0) + excluded.units_consumed,
    last_updated_on = excluded.last_updated_on`,
		userID, metadataID, units, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("add units consumed: %w", err)
	}
	return nil
}

func (r *PostgresInteractionRepository) ResetUnitsConsumed(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE user_to_metadata SET units_consumed=0 WHERE user_id=$1`, userID,
	)
	if err != nil {
		return fmt.Errorf("reset units consumed: %w", err)
	}
	return nil
}

type PostgresActivityRepository struct {
	db *pgxpool.Pool
}

func NewPostgresActivityRepository(db *pgxpool.Pool) *PostgresActivityRepository {
	return &PostgresActivityRepository{db: db}
}

func (r *PostgresActivityRepository) LatestDate(ctx context.Context, userID string) (time.Time, error) {
	var d *time.Time
	err := r.db.QueryRow(ctx,
		`SELECT max(date) FROM daily_user_activity WHERE user_id=$1`, userID,
	).Scan(&d)
	if err != nil {
		return time.Time{}, fmt.Errorf("query latest activity date: %w", err)
	}
	if d == nil {
		return time.Time{}, ErrNotFound
	}
	return *d, nil
}

func (r *PostgresActivityRepository) DeleteAll(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM daily_user_activity WHERE user_id=$1`, userID)
	if err != nil {
		return fmt.Errorf("delete daily activity: %w", err)
	}
	return nil
}

func (r *PostgresActivityRepository) Insert(ctx context.Context, a media.DailyUserActivity) error {
	hourRaw, err := json.Marshal(a.HourCounts)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO daily_user_activity (user_id, date, hour_counts,
most_active_hour, least_active_hour, review_count, workout_count,
measurement_count, workout_duration, show_duration, podcast_duration,
movie_duration, audio_book_duration, music_duration, anime_count,
audio_book_count, book_count, manga_count, movie_count, music_count,
podcast_count, show_count, video_game_count, visual_novel_count,
total_count, total_duration)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,
$19,$20,$21,$22,$23,$24,$25,$26)`,
		a.UserID, a.Date, hourRaw, a.MostActiveHour, a.LeastActiveHour,
		a.ReviewCount, a.WorkoutCount, a.MeasurementCount,
		a.WorkoutDuration, a.ShowDuration, a.PodcastDuration,
		a.MovieDuration, a.AudioBookDuration, a.MusicDuration,
		a.AnimeCount, a.AudioBookCount, a.BookCount, a.MangaCount,
		a.MovieCount, a.MusicCount, a.PodcastCount, a.ShowCount,
		a.VideoGameCount, a.VisualNovelCount, a.TotalCount, a.TotalDuration,
	)
	if err != nil {
		return fmt.Errorf("insert daily activity: %w", err)
	}
	return nil
}
