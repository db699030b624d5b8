package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cezarfreitas/backendbarber/internal/domain/barbershop"
)

const (
	barbershopColumns = `id, name, description, address, city, phone, active, created_at, updated_at`

	insertBarbershopSQL = `INSERT INTO barbershops (id, name, description, address, city, phone, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	updateBarbershopSQL = `UPDATE barbershops
		SET name = $2, description = $3, address = $4, city = $5, phone = $6, active = $7, updated_at = $8
		WHERE id = $1`

	getBarbershopByIDSQL = `SELECT ` + barbershopColumns + ` FROM barbershops WHERE id = $1`

	deactivateBarbershopSQL = `UPDATE barbershops SET active = FALSE, updated_at = now() WHERE id = $1`

	upsertDirectorySQL = `INSERT INTO barbershops (id, name, description, address, city, phone, active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		ON CONFLICT (lower(name), city) DO UPDATE SET
			description = EXCLUDED.description, address = EXCLUDED.address,
			phone = EXCLUDED.phone, active = TRUE, updated_at = now()`
)

var _ barbershop.Repository = (*BarbershopRepository)(nil)

// BarbershopRepository implements barbershop.Repository backed by PostgreSQL.
type BarbershopRepository struct {
	pool *pgxpool.Pool
}

// NewBarbershopRepository returns a BarbershopRepository that uses the given pool.
func NewBarbershopRepository(pool *pgxpool.Pool) *BarbershopRepository {
	return &BarbershopRepository{pool: pool}
}

// Create persists a new barbershop.
func (r *BarbershopRepository) Create(ctx context.Context, b *barbershop.Barbershop) error {
	_, err := r.pool.Exec(ctx, insertBarbershopSQL,
		b.ID, b.Name, b.Description, b.Address, b.City, b.Phone, b.Active, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating barbershop %q: %w", b.ID, err)
	}
	return nil
}

// Update rewrites the mutable columns of a barbershop.
func (r *BarbershopRepository) Update(ctx context.Context, b *barbershop.Barbershop) error {
	tag, err := r.pool.Exec(ctx, updateBarbershopSQL,
		b.ID, b.Name, b.Description, b.Address, b.City, b.Phone, b.Active, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("updating barbershop %q: %w", b.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return barbershop.ErrNotFound
	}
	return nil
}

// GetByID returns a single barbershop by its identifier.
func (r *BarbershopRepository) GetByID(ctx context.Context, id string) (*barbershop.Barbershop, error) {
	rows, err := r.pool.Query(ctx, getBarbershopByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting barbershop %q: %w", id, err)
	}

	b, err := pgx.CollectExactlyOneRow(rows, scanBarbershop)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, barbershop.ErrNotFound
		}
		return nil, fmt.Errorf("getting barbershop %q: %w", id, err)
	}
	return &b, nil
}

// Search returns a page of active barbershops matching the directory filter,
// ordered by name, plus the total matching count.
func (r *BarbershopRepository) Search(ctx context.Context, f barbershop.SearchFilter) ([]barbershop.Barbershop, int, error) {
	where := `WHERE active = TRUE`
	var args []any
	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		where += fmt.Sprintf(` AND name ILIKE $%d`, len(args))
	}
	if f.City != "" {
		args = append(args, f.City)
		where += fmt.Sprintf(` AND city = $%d`, len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM barbershops `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting barbershops: %w", err)
	}

	offset := (f.Page - 1) * f.PageSize
	query := fmt.Sprintf(`SELECT %s FROM barbershops %s ORDER BY name LIMIT $%d OFFSET $%d`,
		barbershopColumns, where, len(args)+1, len(args)+2)
	args = append(args, f.PageSize, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("searching barbershops: %w", err)
	}
	items, err := pgx.CollectRows(rows, scanBarbershop)
	if err != nil {
		return nil, 0, fmt.Errorf("scanning barbershops: %w", err)
	}
	return items, total, nil
}

// Delete soft-deletes a barbershop by clearing its active flag.
func (r *BarbershopRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deactivateBarbershopSQL, id)
	if err != nil {
		return fmt.Errorf("deleting barbershop %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return barbershop.ErrNotFound
	}
	return nil
}

// UpsertDirectory inserts an imported directory record, or refreshes the
// address and phone of an existing shop with the same name and city. Used by
// the directory-ingest command.
func (r *BarbershopRepository) UpsertDirectory(ctx context.Context, b *barbershop.Barbershop) error {
	_, err := r.pool.Exec(ctx, upsertDirectorySQL, b.ID, b.Name, b.Description, b.Address, b.City, b.Phone)
	if err != nil {
		return fmt.Errorf("upserting barbershop %q: %w", b.Name, err)
	}
	return nil
}

func scanBarbershop(row pgx.CollectableRow) (barbershop.Barbershop, error) {
	var b barbershop.Barbershop
	err := row.Scan(
		&b.ID, &b.Name, &b.Description, &b.Address, &b.City, &b.Phone,
		&b.Active, &b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}
