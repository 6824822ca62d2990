package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/IgnisDa/trackona/internal/media"
)

type PostgresCollectionRepository struct {
	db *pgxpool.Pool
}

func NewPostgresCollectionRepository(db *pgxpool.Pool) *PostgresCollectionRepository {
	return &PostgresCollectionRepository{db: db}
}

func (r *PostgresCollectionRepository) GetOrCreate(ctx context.Context, userID, name string) (string, error) {
	sql := `WITH ins AS (
	INSERT INTO collection (id, user_id, name)
	VALUES ($1,$2,$3)
	ON CONFLICT (user_id, name) DO NOTHING
	RETURNING id
)
SELECT id FROM ins
UNION ALL
SELECT id FROM collection WHERE user_id=$2 AND name=$3
LIMIT 1`
	var id string
	if err := r.db.QueryRow(ctx, sql, uuid.New().String(), userID, name).Scan(&id); err != nil {
		return "", fmt.Errorf("get or create collection %q: %w", name, err)
	}
	return id, nil
}

func (r *PostgresCollectionRepository) AddEntity(ctx context.Context, userID, collectionName, entityID string, entityLot media.EntityLot) error {
	collectionID, err := r.GetOrCreate(ctx, userID, collectionName)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO collection_to_entity (collection_id, entity_id, entity_lot)
VALUES ($1,$2,$3)
ON CONFLICT (collection_id, entity_id, entity_lot) DO NOTHING`,
		collectionID, entityID, entityLot,
	)
	if err != nil {
		return fmt.Errorf("add entity to collection %q: %w", collectionName, err)
	}
	return nil
}

func (r *PostgresCollectionRepository) RemoveEntity(ctx context.Context, userID, collectionName, entityID string, entityLot media.EntityLot) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM collection_to_entity
WHERE entity_id=$1 AND entity_lot=$2
AND collection_id IN (SELECT id FROM collection WHERE user_id=$3 AND name=$4)`,
		entityID, entityLot, userID, collectionName,
	)
	if err != nil {
		return fmt.Errorf("remove entity from collection %q: %w", collectionName, err)
	}
	return nil
}

type PostgresMonitoredRepository struct {
	db *pgxpool.Pool
}

func NewPostgresMonitoredRepository(db *pgxpool.Pool) *PostgresMonitoredRepository {
	return &PostgresMonitoredRepository{db: db}
}

func (r *PostgresMonitoredRepository) UsersMonitoring(ctx context.Context, entityID string, entityLot media.EntityLot) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT user_id FROM monitored_entity WHERE entity_id=$1 AND entity_lot=$2`,
		entityID, entityLot,
	)
	if err != nil {
		return nil, fmt.Errorf("query monitored entities: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, err
		}
		out = append(out, userID)
	}
	return out, rows.Err()
}

type PostgresPreferencesRepository struct {
	db *pgxpool.Pool
}

func NewPostgresPreferencesRepository(db *pgxpool.Pool) *PostgresPreferencesRepository {
	return &PostgresPreferencesRepository{db: db}
}

func (r *PostgresPreferencesRepository) NotificationPreferences(ctx context.Context, userID string) (media.NotificationPreferences, error) {
	var raw []byte
	err := r.db.QueryRow(ctx,
		`SELECT preferences -> 'notifications' FROM app_user WHERE id=$1`, userID,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return media.NotificationPreferences{}, ErrNotFound
	}
	if err != nil {
		return media.NotificationPreferences{}, fmt.Errorf("query notification preferences: %w", err)
	}
	var prefs struct {
		Enabled bool               `json:"enabled"`
		ToSend  []media.ChangeKind `json:"to_send"`
	}
	if raw != nil {
		if err := json.Unmarshal(raw, &prefs); err != nil {
			return media.NotificationPreferences{}, fmt.Errorf("decode notification preferences: %w", err)
		}
	}
	return media.NotificationPreferences{Enabled: prefs.Enabled, ToSend: prefs.ToSend}, nil
}

func (r *PostgresPreferencesRepository) ReviewScale(ctx context.Context, userID string) (media.ReviewScale, error) {
	var scale *string
	err := r.db.QueryRow(ctx,
		`SELECT preferences -> 'general' ->> 'review_scale' FROM app_user WHERE id=$1`, userID,
	).Scan(&scale)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query review scale: %w", err)
	}
	if scale == nil || *scale == "" {
		return media.ReviewScaleOutOfHundred, nil
	}
	return media.ReviewScale(*scale), nil
}
