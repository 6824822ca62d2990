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
	"github.com/shopspring/decimal"

	"github.com/IgnisDa/trackona/internal/media"
)

type PostgresMetadataRepository struct {
	db *pgxpool.Pool
}

func NewPostgresMetadataRepository(db *pgxpool.Pool) *PostgresMetadataRepository {
	return &PostgresMetadataRepository{db: db}
}

const metadataColumns = `id, lot, source, identifier, title, description, publish_year,
publish_date, production_status, original_language, provider_rating, images,
is_nsfw, is_partial, last_updated_on, specifics`

func scanMetadata(row pgx.Row) (media.Metadata, error) {
	var (
		m            media.Metadata
		rating       decimal.NullDecimal
		specificsRaw []byte
	)
	err := row.Scan(
		&m.ID, &m.Lot, &m.Source, &m.Identifier, &m.Title, &m.Description,
		&m.PublishYear, &m.PublishDate, &m.ProductionStatus, &m.OriginalLanguage,
		&rating, &m.Images, &m.IsNSFW, &m.IsPartial, &m.LastUpdatedOn, &specificsRaw,
	)
	if err != nil {
		return media.Metadata{}, err
	}
	if rating.Valid {
		m.ProviderRating = &rating.Decimal
	}
	if specificsRaw != nil {
		if err := json.Unmarshal(specificsRaw, &m.Specifics); err != nil {
			return media.Metadata{}, fmt.Errorf("metadata specifics: %w", err)
		}
	}
	return m, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func (r *PostgresMetadataRepository) GetByID(ctx context.Context, id string) (media.Metadata, error) {
	q := `SELECT ` + metadataColumns + ` FROM metadata WHERE id=$1`
	m, err := scanMetadata(r.db.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return media.Metadata{}, ErrNotFound
	}
	return m, err
}

func (r *PostgresMetadataRepository) FindByIdentity(ctx context.Context, lot media.Lot, source media.Source, identifier string) (media.Metadata, error) {
	q := `SELECT ` + metadataColumns + ` FROM metadata
WHERE lot=$1 AND source=$2 AND identifier=$3`
	m, err := scanMetadata(r.db.QueryRow(ctx, q, lot, source, identifier))
	if errors.Is(err, pgx.ErrNoRows) {
		return media.Metadata{}, ErrNotFound
	}
	return m, err
}

func (r *PostgresMetadataRepository) Insert(ctx context.Context, details media.Details, isPartial bool) (media.Metadata, error) {
	specificsRaw, err := json.Marshal(details.Specifics)
	if err != nil {
		return media.Metadata{}, err
	}
	m := metadataFromDetails(details)
	m.ID = uuid.New().String()
	m.IsPartial = isPartial
	m.LastUpdatedOn = time.Now().UTC()

	q := `INSERT INTO metadata (` + metadataColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`
	_, err = r.db.Exec(ctx, q,
		m.ID, m.Lot, m.Source, m.Identifier, m.Title, m.Description,
		m.PublishYear, m.PublishDate, m.ProductionStatus, m.OriginalLanguage,
		nullDecimal(m.ProviderRating), m.Images, m.IsNSFW, m.IsPartial,
		m.LastUpdatedOn, specificsRaw,
	)
	if err != nil {
		return media.Metadata{}, fmt.Errorf("insert metadata: %w", err)
	}
	return m, nil
}

func (r *PostgresMetadataRepository) ReplaceSnapshot(ctx context.Context, id string, details media.Details) (media.Metadata, error) {
	specificsRaw, err := json.Marshal(details.Specifics)
	if err != nil {
		return media.Metadata{}, err
	}
	m := metadataFromDetails(details)
	m.ID = id
	m.IsPartial = false
	m.LastUpdatedOn = time.Now().UTC()

	q := `UPDATE metadata SET title=$2, description=$3, publish_year=$4,
publish_date=$5, production_status=$6, original_language=$7,
provider_rating=$8, images=$9, is_nsfw=$10, is_partial=false,
last_updated_on=$11, specifics=$12
WHERE id=$1`
	ct, err := r.db.Exec(ctx, q,
		id, m.Title, m.Description, m.PublishYear, m.PublishDate,
		m.ProductionStatus, m.OriginalLanguage, nullDecimal(m.ProviderRating),
		m.Images, m.IsNSFW, m.LastUpdatedOn, specificsRaw,
	)
	if err != nil {
		return media.Metadata{}, fmt.Errorf("replace metadata snapshot: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return media.Metadata{}, ErrNotFound
	}
	return m, nil
}

func (r *PostgresMetadataRepository) MarkNotPartial(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `UPDATE metadata SET is_partial=false WHERE id=$1`, id)
	return err
}

func (r *PostgresMetadataRepository) GetOrCreatePartial(ctx context.Context, partial media.PartialMetadata) (media.Metadata, error) {
	existing, err := r.FindByIdentity(ctx, partial.Lot, partial.Source, partial.Identifier)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return media.Metadata{}, err
	}

	m := media.Metadata{
		ID:            uuid.New().String(),
		Lot:           partial.Lot,
		Source:        partial.Source,
		Identifier:    partial.Identifier,
		Title:         partial.Title,
		IsPartial:     true,
		LastUpdatedOn: time.Now().UTC(),
	}
	if partial.Image != nil {
		m.Images = []string{*partial.Image}
	}
	q := `INSERT INTO metadata (id, lot, source, identifier, title, images, is_partial, last_updated_on)
VALUES ($1,$2,$3,$4,$5,$6,true,$7)
ON CONFLICT (lot, source, identifier) DO NOTHING`
	if _, err := r.db.Exec(ctx, q, m.ID, m.Lot, m.Source, m.Identifier, m.Title, m.Images, m.LastUpdatedOn); err != nil {
		return media.Metadata{}, fmt.Errorf("insert partial metadata: %w", err)
	}
	// Another writer may have won the conflict; read back the canonical row.
	return r.FindByIdentity(ctx, partial.Lot, partial.Source, partial.Identifier)
}

func metadataFromDetails(details media.Details) media.Metadata {
	return media.Metadata{
		Lot:              details.Lot,
		Source:           details.Source,
		Identifier:       details.Identifier,
		Title:            details.Title,
		Description:      details.Description,
		PublishYear:      details.PublishYear,
		PublishDate:      details.PublishDate,
		ProductionStatus: details.ProductionStatus,
		OriginalLanguage: details.OriginalLanguage,
		ProviderRating:   details.ProviderRating,
		Images:           details.Images,
		IsNSFW:           details.IsNSFW,
		Specifics:        details.Specifics,
	}
}

type PostgresPersonRepository struct {
	db *pgxpool.Pool
}

func NewPostgresPersonRepository(db *pgxpool.Pool) *PostgresPersonRepository {
	return &PostgresPersonRepository{db: db}
}

func (r *PostgresPersonRepository) GetOrCreate(ctx context.Context, p media.PartialPerson) (media.Person, error) {
	return getOrCreatePerson(ctx, r.db, p)
}

// rowQuerier is satisfied by both pgxpool.Pool and pgx.Tx so the
// association rewrite can reuse the lookup-or-create paths inside its
// transaction.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getOrCreatePerson(ctx context.Context, q rowQuerier, p media.PartialPerson) (media.Person, error) {
	person := media.Person{
		ID:              uuid.New().String(),
		Identifier:      p.Identifier,
		Source:          p.Source,
		SourceSpecifics: p.SourceSpecifics,
		Name:            p.Name,
		IsPartial:       true,
	}
	// Single round trip: insert-if-absent then read the surviving row.
	sql := `WITH ins AS (
	INSERT INTO person (id, identifier, source, source_specifics, name, is_partial)
	VALUES ($1,$2,$3,$4,$5,true)
	ON CONFLICT (source, identifier, coalesce(source_specifics, '')) DO NOTHING
	RETURNING id, identifier, source, source_specifics, name, is_partial
)
SELECT id, identifier, source, source_specifics, name, is_partial FROM ins
UNION ALL
SELECT id, identifier, source, source_specifics, name, is_partial FROM person
WHERE source=$3 AND identifier=$2 AND coalesce(source_specifics,'')=coalesce($4,'')
LIMIT 1`
	row := q.QueryRow(ctx, sql, person.ID, p.Identifier, p.Source, p.SourceSpecifics, p.Name)
	var out media.Person
	if err := row.Scan(&out.ID, &out.Identifier, &out.Source, &out.SourceSpecifics, &out.Name, &out.IsPartial); err != nil {
		return media.Person{}, fmt.Errorf("get or create person: %w", err)
	}
	return out, nil
}
