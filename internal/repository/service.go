package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cezarfreitas/backendbarber/internal/domain/service"
)

const (
	serviceColumns = `id, barbershop_id, name, description, price, duration_minutes, active, created_at, updated_at`

	insertServiceSQL = `INSERT INTO services (id, barbershop_id, name, description, price, duration_minutes, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	updateServiceSQL = `UPDATE services
		SET name = $2, description = $3, price = $4, duration_minutes = $5, active = $6, updated_at = $7
		WHERE id = $1`

	upsertServiceSQL = `INSERT INTO services (id, barbershop_id, name, description, price, duration_minutes, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, description = EXCLUDED.description,
			price = EXCLUDED.price, duration_minutes = EXCLUDED.duration_minutes,
			active = EXCLUDED.active, updated_at = EXCLUDED.updated_at`

	getServiceByIDSQL = `SELECT ` + serviceColumns + ` FROM services WHERE id = $1`

	getServicesByIDsSQL = `SELECT ` + serviceColumns + ` FROM services WHERE id = ANY($1)`

	resolveActiveServicesSQL = `SELECT ` + serviceColumns + ` FROM services WHERE id = ANY($1) AND active = TRUE`
)

var _ service.Repository = (*ServiceRepository)(nil)

// ServiceRepository implements service.Repository backed by PostgreSQL.
type ServiceRepository struct {
	pool *pgxpool.Pool
}

// NewServiceRepository returns a ServiceRepository that uses the given pool.
func NewServiceRepository(pool *pgxpool.Pool) *ServiceRepository {
	return &ServiceRepository{pool: pool}
}

// Create persists a new service.
func (r *ServiceRepository) Create(ctx context.Context, s *service.Service) error {
	_, err := r.pool.Exec(ctx, insertServiceSQL,
		s.ID, s.BarbershopID, s.Name, s.Description, s.Price, s.DurationMinutes,
		s.Active, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating service %q: %w", s.ID, err)
	}
	return nil
}

// Update rewrites the mutable columns of a service.
func (r *ServiceRepository) Update(ctx context.Context, s *service.Service) error {
	tag, err := r.pool.Exec(ctx, updateServiceSQL,
		s.ID, s.Name, s.Description, s.Price, s.DurationMinutes, s.Active, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("updating service %q: %w", s.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrNotFound
	}
	return nil
}

// Upsert inserts or refreshes a service row. Used by seeding.
func (r *ServiceRepository) Upsert(ctx context.Context, s *service.Service) error {
	_, err := r.pool.Exec(ctx, upsertServiceSQL,
		s.ID, s.BarbershopID, s.Name, s.Description, s.Price, s.DurationMinutes,
		s.Active, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting service %q: %w", s.ID, err)
	}
	return nil
}

// GetByID returns a single service by its identifier.
func (r *ServiceRepository) GetByID(ctx context.Context, id string) (*service.Service, error) {
	rows, err := r.pool.Query(ctx, getServiceByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting service %q: %w", id, err)
	}

	s, err := pgx.CollectExactlyOneRow(rows, scanService)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrNotFound
		}
		return nil, fmt.Errorf("getting service %q: %w", id, err)
	}
	return &s, nil
}

// GetByIDs returns services matching any of the given ids, regardless of
// the active flag.
func (r *ServiceRepository) GetByIDs(ctx context.Context, ids []string) ([]service.Service, error) {
	rows, err := r.pool.Query(ctx, getServicesByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting services by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanService)
}

// ResolveActive returns only existing, active services among the given ids.
// Missing or inactive ids are absent from the result; the caller detects
// the count mismatch.
func (r *ServiceRepository) ResolveActive(ctx context.Context, ids []string) ([]service.Service, error) {
	rows, err := r.pool.Query(ctx, resolveActiveServicesSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("resolving services: %w", err)
	}
	return pgx.CollectRows(rows, scanService)
}

// List returns a page of services ordered by name, with the total count.
func (r *ServiceRepository) List(ctx context.Context, f service.Filter) ([]service.Service, int, error) {
	where := `WHERE barbershop_id = $1`
	args := []any{f.BarbershopID}
	if f.ActiveOnly {
		where += ` AND active = TRUE`
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM services `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting services: %w", err)
	}

	offset := (f.Page - 1) * f.PageSize
	query := fmt.Sprintf(`SELECT %s FROM services %s ORDER BY name LIMIT $%d OFFSET $%d`,
		serviceColumns, where, len(args)+1, len(args)+2)
	args = append(args, f.PageSize, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing services: %w", err)
	}
	items, err := pgx.CollectRows(rows, scanService)
	if err != nil {
		return nil, 0, fmt.Errorf("scanning services: %w", err)
	}
	return items, total, nil
}

func scanService(row pgx.CollectableRow) (service.Service, error) {
	var s service.Service
	err := row.Scan(
		&s.ID, &s.BarbershopID, &s.Name, &s.Description, &s.Price,
		&s.DurationMinutes, &s.Active, &s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}
