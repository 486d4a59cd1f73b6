package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

// PostgresStore is the production Store backed by Postgres via lib/pq.
//
// Lifecycle hooks are dispatched synchronously after the row write commits
// (or, for BeforeDelete, just before the delete executes). Hook panics are
// not recovered here — hooks are expected to be the sync bridge, which never
// panics and swallows its own provider errors.
type PostgresStore struct {
	pool  *sql.DB
	hooks Hooks
}

// NewPostgresStore wraps an open, pinged connection pool.
func NewPostgresStore(pool *sql.DB) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Subscribe registers the lifecycle hooks. Not safe to call concurrently with
// writes; call once during startup wiring.
func (s *PostgresStore) Subscribe(h Hooks) {
	s.hooks = h
}

// ─── ROW MAPPING ─────────────────────────────────────────────────────────────

const entityColumns = `row_id, document_id, kind, name, description, price,
	image_url, slug, published, stripe_product_id, stripe_price_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntity(r rowScanner) (Entity, error) {
	var (
		e        Entity
		kind     string
		desc     pqtype.NullRawMessage
		imageURL sql.NullString
		slug     sql.NullString
		prodID   sql.NullString
		priceID  sql.NullString
	)
	err := r.Scan(
		&e.RowID, &e.DocumentID, &kind, &e.Name, &desc, &e.Price,
		&imageURL, &slug, &e.Published, &prodID, &priceID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Entity{}, ErrNotFound
	}
	if err != nil {
		return Entity{}, fmt.Errorf("catalog: scan entity: %w", err)
	}

	e.Kind = Kind(kind)
	if desc.Valid {
		e.Description = desc.RawMessage
	}
	e.ImageURL = imageURL.String
	e.Slug = slug.String
	e.StripeProductID = prodID.String
	e.StripePriceID = priceID.String
	return e, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullRaw(raw []byte) pqtype.NullRawMessage {
	return pqtype.NullRawMessage{RawMessage: raw, Valid: len(raw) > 0}
}

// ─── READS ───────────────────────────────────────────────────────────────────

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (Entity, error) {
	row := s.pool.QueryRowContext(ctx,
		`SELECT `+entityColumns+` FROM catalog_entities WHERE document_id = $1`, id)
	return scanEntity(row)
}

func (s *PostgresStore) FindByRowID(ctx context.Context, rowID int64) (Entity, error) {
	row := s.pool.QueryRowContext(ctx,
		`SELECT `+entityColumns+` FROM catalog_entities WHERE row_id = $1`, rowID)
	return scanEntity(row)
}

func (s *PostgresStore) FindMany(ctx context.Context, f Filter) ([]Entity, error) {
	query := `SELECT ` + entityColumns + ` FROM catalog_entities`
	var (
		clauses []string
		args    []any
	)
	if f.Kind != "" {
		args = append(args, string(f.Kind))
		clauses = append(clauses, fmt.Sprintf("kind = $%d", len(args)))
	}
	if f.PublishedOnly {
		clauses = append(clauses, "published = true")
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY row_id"

	rows, err := s.pool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog: find many: %w", err)
	}
	defer rows.Close()

	var entities []Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: find many: %w", err)
	}
	return entities, nil
}

// ─── WRITES ──────────────────────────────────────────────────────────────────

// Create inserts the entity and dispatches AfterCreate once the row is
// committed. The hook runs synchronously but can never fail the insert.
func (s *PostgresStore) Create(ctx context.Context, e Entity) (Entity, error) {
	if e.DocumentID == uuid.Nil {
		e.DocumentID = uuid.New()
	}
	row := s.pool.QueryRowContext(ctx, `
		INSERT INTO catalog_entities
			(document_id, kind, name, description, price, image_url, slug, published)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+entityColumns,
		e.DocumentID, string(e.Kind), e.Name, nullRaw(e.Description), e.Price,
		nullString(e.ImageURL), nullString(e.Slug), e.Published,
	)
	created, err := scanEntity(row)
	if err != nil {
		return Entity{}, fmt.Errorf("catalog: create: %w", err)
	}

	if s.hooks.AfterCreate != nil {
		s.hooks.AfterCreate(ctx, created)
	}
	return created, nil
}

// Update applies the patch inside a transaction (read current row, write the
// touched columns) and dispatches AfterUpdate with the changed-field diff.
func (s *PostgresStore) Update(ctx context.Context, id uuid.UUID, p Patch) (Entity, error) {
	changed := p.Fields()
	if len(changed) == 0 {
		return s.FindByID(ctx, id)
	}

	var updated Entity
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := scanEntity(tx.QueryRowContext(ctx,
			`SELECT `+entityColumns+` FROM catalog_entities WHERE document_id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}

		if p.Name != nil {
			current.Name = *p.Name
		}
		if p.Description != nil {
			current.Description = *p.Description
		}
		if p.Price != nil {
			current.Price = *p.Price
		}
		if p.ImageURL != nil {
			current.ImageURL = *p.ImageURL
		}
		if p.Slug != nil {
			current.Slug = *p.Slug
		}
		if p.Published != nil {
			current.Published = *p.Published
		}

		row := tx.QueryRowContext(ctx, `
			UPDATE catalog_entities
			SET name = $2, description = $3, price = $4, image_url = $5,
				slug = $6, published = $7, updated_at = now()
			WHERE document_id = $1
			RETURNING `+entityColumns,
			id, current.Name, nullRaw(current.Description), current.Price,
			nullString(current.ImageURL), nullString(current.Slug), current.Published,
		)
		updated, err = scanEntity(row)
		return err
	})
	if err != nil {
		return Entity{}, fmt.Errorf("catalog: update: %w", err)
	}

	if s.hooks.AfterUpdate != nil {
		s.hooks.AfterUpdate(ctx, updated, changed)
	}
	return updated, nil
}

// UpdateLinkage persists both Stripe ids in a single statement. No hook is
// dispatched: this is the system-write path the sync bridge uses, so a
// linkage write can never re-trigger the bridge.
func (s *PostgresStore) UpdateLinkage(ctx context.Context, id uuid.UUID, l Linkage) error {
	res, err := s.pool.ExecContext(ctx, `
		UPDATE catalog_entities
		SET stripe_product_id = $2, stripe_price_id = $3, updated_at = now()
		WHERE document_id = $1`,
		id, nullString(l.StripeProductID), nullString(l.StripePriceID),
	)
	if err != nil {
		return fmt.Errorf("catalog: update linkage: %w", err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete dispatches BeforeDelete with the serial row id, then removes the
// row. The hook fires even if the delete subsequently fails — mirroring the
// storage layer's before-hook semantics, where archival in Stripe is
// best-effort.
func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	var rowID int64
	err := s.pool.QueryRowContext(ctx,
		`SELECT row_id FROM catalog_entities WHERE document_id = $1`, id).Scan(&rowID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("catalog: delete lookup: %w", err)
	}

	if s.hooks.BeforeDelete != nil {
		s.hooks.BeforeDelete(ctx, rowID)
	}

	if _, err := s.pool.ExecContext(ctx,
		`DELETE FROM catalog_entities WHERE row_id = $1`, rowID); err != nil {
		return fmt.Errorf("catalog: delete: %w", err)
	}
	return nil
}

// ─── TRANSACTIONS ────────────────────────────────────────────────────────────

// withTx begins a transaction, passes it to fn, and commits on success or
// rolls back on any error (including panics).
func (s *PostgresStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("catalog: begin transaction: %w", err)
	}

	// Roll back on panic so the connection is never left in a broken state.
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p) // re-panic after rollback
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("catalog: fn error: %w; rollback error: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("catalog: commit transaction: %w", err)
	}
	return nil
}
