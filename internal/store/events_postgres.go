package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/IgnisDa/trackona/internal/media"
)

type PostgresReviewRepository struct {
	db *pgxpool.Pool
}

func NewPostgresReviewRepository(db *pgxpool.Pool) *PostgresReviewRepository {
	return &PostgresReviewRepository{db: db}
}

func (r *PostgresReviewRepository) Insert(ctx context.Context, rev media.Review) (media.Review, error) {
	if rev.ID == "" {
		rev.ID = uuid.New().String()
	}
	if rev.PostedOn.IsZero() {
		rev.PostedOn = time.Now().UTC()
	}
	if rev.Visibility == "" {
		rev.Visibility = media.VisibilityPrivate
	}
	seen := media.Seen{
		ShowExtra:    rev.ShowExtra,
		PodcastExtra: rev.PodcastExtra,
		AnimeExtra:   rev.AnimeExtra,
		MangaExtra:   rev.MangaExtra,
	}
	showRaw, podcastRaw, animeRaw, mangaRaw, err := marshalExtras(seen)
	if err != nil {
		return media.Review{}, err
	}
	q := `INSERT INTO review (id, user_id, entity_id, entity_lot, rating, text, is_spoiler,
visibility, posted_on, show_extra, podcast_extra, anime_extra, manga_extra)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`
	_, err = r.db.Exec(ctx, q,
		rev.ID, rev.UserID, rev.EntityID, rev.EntityLot, nullDecimal(rev.Rating),
		rev.Text, rev.IsSpoiler, rev.Visibility, rev.PostedOn,
		showRaw, podcastRaw, animeRaw, mangaRaw,
	)
	if err != nil {
		return media.Review{}, fmt.Errorf("insert review: %w", err)
	}
	return rev, nil
}

func countQuery(ctx context.Context, db *pgxpool.Pool, q string, args []any, since *time.Time) (int64, error) {
	if since != nil {
		args = append(args, *since)
		q += fmt.Sprintf(" AND %s > $%d", "posted_on", len(args))
	}
	var n int64
	if err := db.QueryRow(ctx, q, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *PostgresReviewRepository) CountForMetadata(ctx context.Context, userID string, since *time.Time) (int64, error) {
	q := `SELECT count(*) FROM review WHERE user_id=$1 AND entity_lot=$2`
	return countQuery(ctx, r.db, q, []any{userID, media.EntityLotMetadata}, since)
}

func (r *PostgresReviewRepository) CountForPeople(ctx context.Context, userID string, since *time.Time) (int64, error) {
	q := `SELECT count(*) FROM review WHERE user_id=$1 AND entity_lot=$2`
	return countQuery(ctx, r.db, q, []any{userID, media.EntityLotPerson}, since)
}

type postgresReviewIterator struct {
	rows pgx.Rows
}

func (it *postgresReviewIterator) Next(_ context.Context) (*media.Review, error) {
	if !it.rows.Next() {
		if err := it.rows.Err(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	var (
		rev    media.Review
		rating decimal.NullDecimal
	)
	if err := it.rows.Scan(&rev.ID, &rev.UserID, &rev.EntityID, &rev.EntityLot, &rating, &rev.PostedOn); err != nil {
		return nil, err
	}
	if rating.Valid {
		rev.Rating = &rating.Decimal
	}
	return &rev, nil
}

func (it *postgresReviewIterator) Close() { it.rows.Close() }

func (r *PostgresReviewRepository) Stream(ctx context.Context, userID string, since *time.Time) (ReviewIterator, error) {
	q := `SELECT id, user_id, entity_id, entity_lot, rating, posted_on
FROM review WHERE user_id=$1`
	args := []any{userID}
	if since != nil {
		args = append(args, *since)
		q += fmt.Sprintf(" AND posted_on > $%d", len(args))
	}
	q += " ORDER BY posted_on"
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("stream reviews: %w", err)
	}
	return &postgresReviewIterator{rows: rows}, nil
}

type PostgresWorkoutRepository struct {
	db *pgxpool.Pool
}

func NewPostgresWorkoutRepository(db *pgxpool.Pool) *PostgresWorkoutRepository {
	return &PostgresWorkoutRepository{db: db}
}

func (r *PostgresWorkoutRepository) Insert(ctx context.Context, w media.Workout) (media.Workout, error) {
	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO workout (id, user_id, name, start_time, end_time, duration, total_weight)
VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		w.ID, w.UserID, w.Name, w.StartTime, w.EndTime, w.DurationSeconds, w.TotalWeight,
	)
	if err != nil {
		return media.Workout{}, fmt.Errorf("insert workout: %w", err)
	}
	return w, nil
}

func (r *PostgresWorkoutRepository) Count(ctx context.Context, userID string, since *time.Time) (int64, error) {
	q := `SELECT count(*) FROM workout WHERE user_id=$1`
	args := []any{userID}
	if since != nil {
		args = append(args, *since)
		q += fmt.Sprintf(" AND end_time > $%d", len(args))
	}
	var n int64
	if err := r.db.QueryRow(ctx, q, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *PostgresWorkoutRepository) Totals(ctx context.Context, userID string, since *time.Time) (decimal.Decimal, decimal.Decimal, error) {
	q := `SELECT coalesce((sum(duration) / 60)::numeric, 0), coalesce(sum(total_weight), 0)
FROM workout WHERE user_id=$1`
	args := []any{userID}
	if since != nil {
		args = append(args, *since)
		q += fmt.Sprintf(" AND end_time > $%d", len(args))
	}
	var minutes, weight decimal.Decimal
	if err := r.db.QueryRow(ctx, q, args...).Scan(&minutes, &weight); err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("workout totals: %w", err)
	}
	return minutes, weight, nil
}

type postgresWorkoutIterator struct {
	rows pgx.Rows
}

func (it *postgresWorkoutIterator) Next(_ context.Context) (*media.Workout, error) {
	if !it.rows.Next() {
		if err := it.rows.Err(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	var w media.Workout
	if err := it.rows.Scan(&w.ID, &w.UserID, &w.Name, &w.StartTime, &w.EndTime, &w.DurationSeconds, &w.TotalWeight); err != nil {
		return nil, err
	}
	return &w, nil
}

func (it *postgresWorkoutIterator) Close() { it.rows.Close() }

func (r *PostgresWorkoutRepository) Stream(ctx context.Context, userID string, since *time.Time) (WorkoutIterator, error) {
	q := `SELECT id, user_id, name, start_time, end_time, duration, total_weight
FROM workout WHERE user_id=$1`
	args := []any{userID}
	if since != nil {
		args = append(args, *since)
		q += fmt.Sprintf(" AND end_time > $%d", len(args))
	}
	q += " ORDER BY end_time"
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("stream workouts: %w", err)
	}
	return &postgresWorkoutIterator{rows: rows}, nil
}

type PostgresMeasurementRepository struct {
	db *pgxpool.Pool
}

func NewPostgresMeasurementRepository(db *pgxpool.Pool) *PostgresMeasurementRepository {
	return &PostgresMeasurementRepository{db: db}
}

func (r *PostgresMeasurementRepository) Insert(ctx context.Context, m media.Measurement) (media.Measurement, error) {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	statsRaw, err := json.Marshal(m.Stats)
	if err != nil {
		return media.Measurement{}, err
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO user_measurement (user_id, timestamp, name, stats) VALUES ($1,$2,$3,$4)`,
		m.UserID, m.Timestamp, m.Name, statsRaw,
	)
	if err != nil {
		return media.Measurement{}, fmt.Errorf("insert measurement: %w", err)
	}
	return m, nil
}

func (r *PostgresMeasurementRepository) Count(ctx context.Context, userID string, since *time.Time) (int64, error) {
	q := `SELECT count(*) FROM user_measurement WHERE user_id=$1`
	args := []any{userID}
	if since != nil {
		args = append(args, *since)
		q += fmt.Sprintf(" AND timestamp > $%d", len(args))
	}
	var n int64
	if err := r.db.QueryRow(ctx, q, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

type postgresMeasurementIterator struct {
	rows pgx.Rows
}

func (it *postgresMeasurementIterator) Next(_ context.Context) (*media.Measurement, error) {
	if !it.rows.Next() {
		if err := it.rows.Err(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	var m media.Measurement
	if err := it.rows.Scan(&m.UserID, &m.Timestamp, &m.Name); err != nil {
		return nil, err
	}
	return &m, nil
}

func (it *postgresMeasurementIterator) Close() { it.rows.Close() }

func (r *PostgresMeasurementRepository) Stream(ctx context.Context, userID string, since *time.Time) (MeasurementIterator, error) {
	q := `SELECT user_id, timestamp, name FROM user_measurement WHERE user_id=$1`
	args := []any{userID}
	if since != nil {
		args = append(args, *since)
		q += fmt.Sprintf(" AND timestamp > $%d", len(args))
	}
	q += " ORDER BY timestamp"
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("stream measurements: %w", err)
	}
	return &postgresMeasurementIterator{rows: rows}, nil
}
