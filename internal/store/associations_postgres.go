package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/IgnisDa/trackona/internal/media"
)

const suggestionRelation = "suggestion"

// PostgresAssociationRepository rewrites association edges inside a single
// transaction so a refresh can never leave a half-updated edge set behind.
type PostgresAssociationRepository struct {
	db *pgxpool.Pool
}

func NewPostgresAssociationRepository(db *pgxpool.Pool) *PostgresAssociationRepository {
	return &PostgresAssociationRepository{db: db}
}

func (r *PostgresAssociationRepository) Replace(ctx context.Context, metadataID string, details media.Details) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin association rewrite: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM metadata_to_person WHERE metadata_id=$1`, metadataID); err != nil {
		return fmt.Errorf("delete person edges: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM metadata_to_genre WHERE metadata_id=$1`, metadataID); err != nil {
		return fmt.Errorf("delete genre edges: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM metadata_to_metadata WHERE from_metadata_id=$1 AND relation=$2`,
		metadataID, suggestionRelation,
	); err != nil {
		return fmt.Errorf("delete suggestion edges: %w", err)
	}

	for index, p := range details.People {
		person, err := getOrCreatePerson(ctx, tx, p)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO metadata_to_person (metadata_id, person_id, role, character, index)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT DO NOTHING`,
			metadataID, person.ID, p.Role, p.Character, index,
		); err != nil {
			return fmt.Errorf("insert person edge: %w", err)
		}
	}

	for _, name := range details.Genres {
		var genreID string
		err := tx.QueryRow(ctx, `WITH ins AS (
	INSERT INTO genre (id, name) VALUES ($1,$2)
	ON CONFLICT (name) DO NOTHING
	RETURNING id
)
SELECT id FROM ins
UNION ALL
SELECT id FROM genre WHERE name=$2
LIMIT 1`, uuid.New().String(), name).Scan(&genreID)
		if err != nil {
			return fmt.Errorf("get or create genre %q: %w", name, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO metadata_to_genre (metadata_id, genre_id) VALUES ($1,$2)
ON CONFLICT DO NOTHING`,
			metadataID, genreID,
		); err != nil {
			return fmt.Errorf("insert genre edge: %w", err)
		}
	}

	for _, suggestion := range details.Suggestions {
		targetID, err := getOrCreatePartialMetadata(ctx, tx, suggestion)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO metadata_to_metadata (from_metadata_id, to_metadata_id, relation)
VALUES ($1,$2,$3)
ON CONFLICT DO NOTHING`,
			metadataID, targetID, suggestionRelation,
		); err != nil {
			return fmt.Errorf("insert suggestion edge: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func getOrCreatePartialMetadata(ctx context.Context, q rowQuerier, partial media.PartialMetadata) (string, error) {
	var images []string
	if partial.Image != nil {
		images = []string{*partial.Image}
	}
	sql := `WITH ins AS (
	INSERT INTO metadata (id, lot, source, identifier, title, images, is_partial, last_updated_on)
	VALUES ($1,$2,$3,$4,$5,$6,true,$7)
	ON CONFLICT (lot, source, identifier) DO NOTHING
	RETURNING id
)
SELECT id FROM ins
UNION ALL
SELECT id FROM metadata WHERE lot=$2 AND source=$3 AND identifier=$4
LIMIT 1`
	var id string
	err := q.QueryRow(ctx, sql,
		uuid.New().String(), partial.Lot, partial.Source, partial.Identifier,
		partial.Title, images, time.Now().UTC(),
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("get or create partial metadata: %w", err)
	}
	return id, nil
}

type PostgresGroupRepository struct {
	db *pgxpool.Pool
}

func NewPostgresGroupRepository(db *pgxpool.Pool) *PostgresGroupRepository {
	return &PostgresGroupRepository{db: db}
}

func (r *PostgresGroupRepository) GetOrCreate(ctx context.Context, details media.GroupDetails) (string, error) {
	sql := `WITH ins AS (
	INSERT INTO metadata_group (id, identifier, lot, source, title, parts, image)
	VALUES ($1,$2,$3,$4,$5,$6,$7)
	ON CONFLICT (lot, source, identifier) DO NOTHING
	RETURNING id
)
SELECT id FROM ins
UNION ALL
SELECT id FROM metadata_group WHERE lot=$3 AND source=$4 AND identifier=$2
LIMIT 1`
	var id string
	err := r.db.QueryRow(ctx, sql,
		uuid.New().String(), details.Identifier, details.Lot, details.Source,
		details.Title, details.Parts, details.Image,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("get or create metadata group: %w", err)
	}
	return id, nil
}

func (r *PostgresGroupRepository) LinkPart(ctx context.Context, groupID, metadataID string, part int) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO metadata_to_metadata_group (metadata_group_id, metadata_id, part)
VALUES ($1,$2,$3)
ON CONFLICT (metadata_group_id, metadata_id) DO NOTHING`,
		groupID, metadataID, part,
	)
	if err != nil {
		return fmt.Errorf("link group part: %w", err)
	}
	return nil
}
