package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/IgnisDa/trackona/internal/media"
)

// PostgresSeenRepository is the production Postgres-backed implementation.
type PostgresSeenRepository struct {
	db *pgxpool.Pool
}

func NewPostgresSeenRepository(db *pgxpool.Pool) *PostgresSeenRepository {
	return &PostgresSeenRepository{db: db}
}

const seenColumns = `id, user_id, metadata_id, state, progress, started_on, finished_on,
updated_at, last_updated_on, provider_watched_on,
show_extra, podcast_extra, anime_extra, manga_extra`

func scanSeen(row pgx.Row) (media.Seen, error) {
	var (
		s                                       media.Seen
		showRaw, podcastRaw, animeRaw, mangaRaw []byte
	)
	err := row.Scan(
		&s.ID, &s.UserID, &s.MetadataID, &s.State, &s.Progress,
		&s.StartedOn, &s.FinishedOn, &s.UpdatedAt, &s.LastUpdatedOn,
		&s.ProviderWatchedOn, &showRaw, &podcastRaw, &animeRaw, &mangaRaw,
	)
	if err != nil {
		return media.Seen{}, err
	}
	if err := unmarshalExtras(&s, showRaw, podcastRaw, animeRaw, mangaRaw); err != nil {
		return media.Seen{}, err
	}
	return s, nil
}

func unmarshalExtras(s *media.Seen, showRaw, podcastRaw, animeRaw, mangaRaw []byte) error {
	if showRaw != nil {
		s.ShowExtra = &media.SeenShowExtra{}
		if err := json.Unmarshal(showRaw, s.ShowExtra); err != nil {
			return fmt.Errorf("seen show extra: %w", err)
		}
	}
	if podcastRaw != nil {
		s.PodcastExtra = &media.SeenPodcastExtra{}
		if err := json.Unmarshal(podcastRaw, s.PodcastExtra); err != nil {
			return fmt.Errorf("seen podcast extra: %w", err)
		}
	}
	if animeRaw != nil {
		s.AnimeExtra = &media.SeenAnimeExtra{}
		if err := json.Unmarshal(animeRaw, s.AnimeExtra); err != nil {
			return fmt.Errorf("seen anime extra: %w", err)
		}
	}
	if mangaRaw != nil {
		s.MangaExtra = &media.SeenMangaExtra{}
		if err := json.Unmarshal(mangaRaw, s.MangaExtra); err != nil {
			return fmt.Errorf("seen manga extra: %w", err)
		}
	}
	return nil
}

func marshalExtras(s media.Seen) (showRaw, podcastRaw, animeRaw, mangaRaw []byte, err error) {
	if s.ShowExtra != nil {
		if showRaw, err = json.Marshal(s.ShowExtra); err != nil {
			return
		}
	}
	if s.PodcastExtra != nil {
		if podcastRaw, err = json.Marshal(s.PodcastExtra); err != nil {
			return
		}
	}
	if s.AnimeExtra != nil {
		if animeRaw, err = json.Marshal(s.AnimeExtra); err != nil {
			return
		}
	}
	if s.MangaExtra != nil {
		if mangaRaw, err = json.Marshal(s.MangaExtra); err != nil {
			return
		}
	}
	return
}

func (r *PostgresSeenRepository) Insert(ctx context.Context, s media.Seen) (media.Seen, error) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	s.LastUpdatedOn = now
	if len(s.UpdatedAt) == 0 {
		s.UpdatedAt = []time.Time{now}
	}
	showRaw, podcastRaw, animeRaw, mangaRaw, err := marshalExtras(s)
	if err != nil {
		return media.Seen{}, err
	}
	q := `INSERT INTO seen (` + seenColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`
	_, err = r.db.Exec(ctx, q,
		s.ID, s.UserID, s.MetadataID, s.State, s.Progress, s.StartedOn,
		s.FinishedOn, s.UpdatedAt, s.LastUpdatedOn, s.ProviderWatchedOn,
		showRaw, podcastRaw, animeRaw, mangaRaw,
	)
	if err != nil {
		return media.Seen{}, fmt.Errorf("insert seen: %w", err)
	}
	return s, nil
}

func (r *PostgresSeenRepository) Update(ctx context.Context, s media.Seen) (media.Seen, error) {
	s.LastUpdatedOn = time.Now().UTC()
	showRaw, podcastRaw, animeRaw, mangaRaw, err := marshalExtras(s)
	if err != nil {
		return media.Seen{}, err
	}
	q := `UPDATE seen SET state=$2, progress=$3, started_on=$4, finished_on=$5,
updated_at=$6, last_updated_on=$7, provider_watched_on=$8,
show_extra=$9, podcast_extra=$10, anime_extra=$11, manga_extra=$12
WHERE id=$1`
	ct, err := r.db.Exec(ctx, q,
		s.ID, s.State, s.Progress, s.StartedOn, s.FinishedOn, s.UpdatedAt,
		s.LastUpdatedOn, s.ProviderWatchedOn, showRaw, podcastRaw, animeRaw, mangaRaw,
	)
	if err != nil {
		return media.Seen{}, fmt.Errorf("update seen: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return media.Seen{}, ErrNotFound
	}
	return s, nil
}

func (r *PostgresSeenRepository) list(ctx context.Context, q string, args ...any) ([]media.Seen, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query seen: %w", err)
	}
	defer rows.Close()

	var out []media.Seen
	for rows.Next() {
		s, err := scanSeen(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PostgresSeenRepository) History(ctx context.Context, userID, metadataID string) ([]media.Seen, error) {
	q := `SELECT ` + seenColumns + ` FROM seen
WHERE user_id=$1 AND metadata_id=$2
ORDER BY last_updated_on DESC`
	return r.list(ctx, q, userID, metadataID)
}

func (r *PostgresSeenRepository) OpenSessions(ctx context.Context, userID, metadataID string) ([]media.Seen, error) {
	q := `SELECT ` + seenColumns + ` FROM seen
WHERE user_id=$1 AND metadata_id=$2 AND progress < 100 AND state <> $3
ORDER BY last_updated_on DESC`
	return r.list(ctx, q, userID, metadataID, media.SeenStateDropped)
}

func (r *PostgresSeenRepository) MostRecent(ctx context.Context, userID, metadataID string) (media.Seen, error) {
	q := `SELECT ` + seenColumns + ` FROM seen
WHERE user_id=$1 AND metadata_id=$2
ORDER BY last_updated_on DESC
LIMIT 1`
	s, err := scanSeen(r.db.QueryRow(ctx, q, userID, metadataID))
	if errors.Is(err, pgx.ErrNoRows) {
		return media.Seen{}, ErrNotFound
	}
	return s, err
}

// postgresSeenIterator wraps pgx.Rows so the statistics folds never hold
// more than one joined row in memory.
type postgresSeenIterator struct {
	rows pgx.Rows
}

func (it *postgresSeenIterator) Next(_ context.Context) (*SeenEvent, error) {
	if !it.rows.Next() {
		if err := it.rows.Err(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	var (
		ev                                      SeenEvent
		showRaw, podcastRaw, animeRaw, mangaRaw []byte
		specificsRaw                            []byte
	)
	err := it.rows.Scan(
		&ev.Seen.ID, &ev.Seen.UserID, &ev.Seen.MetadataID, &ev.Seen.State,
		&ev.Seen.Progress, &ev.Seen.StartedOn, &ev.Seen.FinishedOn,
		&ev.Seen.UpdatedAt, &ev.Seen.LastUpdatedOn, &ev.Seen.ProviderWatchedOn,
		&showRaw, &podcastRaw, &animeRaw, &mangaRaw,
		&ev.Lot, &specificsRaw,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalExtras(&ev.Seen, showRaw, podcastRaw, animeRaw, mangaRaw); err != nil {
		return nil, err
	}
	if specificsRaw != nil {
		if err := json.Unmarshal(specificsRaw, &ev.Specifics); err != nil {
			return nil, fmt.Errorf("seen metadata specifics: %w", err)
		}
	}
	return &ev, nil
}

func (it *postgresSeenIterator) Close() {
	it.rows.Close()
}

func (r *PostgresSeenRepository) StreamCompleted(ctx context.Context, userID string, since *time.Time, finishedOnly bool) (SeenIterator, error) {
	q := `SELECT s.id, s.user_id, s.metadata_id, s.state, s.progress, s.started_on,
s.finished_on, s.updated_at, s.last_updated_on, s.provider_watched_on,
s.show_extra, s.podcast_extra, s.anime_extra, s.manga_extra,
m.lot, m.specifics
FROM seen s
JOIN metadata m ON m.id = s.metadata_id
WHERE s.user_id=$1 AND s.state=$2`
	args := []any{userID, media.SeenStateCompleted}
	if since != nil {
		args = append(args, *since)
		q += fmt.Sprintf(" AND s.last_updated_on > $%d", len(args))
	}
	if finishedOnly {
		q += " AND s.finished_on IS NOT NULL"
	}
	q += " ORDER BY s.last_updated_on"

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("stream seen: %w", err)
	}
	return &postgresSeenIterator{rows: rows}, nil
}
