package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cezarfreitas/backendbarber/internal/domain/combo"
)

const (
	comboColumns = `id, barbershop_id, name, description, discount_type, discount_value,
		original_total, final_total, total_duration_minutes, active, created_at, updated_at`

	insertComboSQL = `INSERT INTO combos (id, barbershop_id, name, description, discount_type, discount_value,
		original_total, final_total, total_duration_minutes, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	updateComboSQL = `UPDATE combos
		SET name = $2, description = $3, discount_type = $4, discount_value = $5,
			original_total = $6, final_total = $7, total_duration_minutes = $8,
			active = $9, updated_at = $10
		WHERE id = $1`

	getComboByIDSQL = `SELECT ` + comboColumns + ` FROM combos WHERE id = $1`

	deleteComboSQL = `DELETE FROM combos WHERE id = $1`

	insertMemberSQL = `INSERT INTO combo_services (combo_id, service_id, ordinal) VALUES ($1, $2, $3)`

	deleteMembersSQL = `DELETE FROM combo_services WHERE combo_id = $1`

	getMembersSQL = `SELECT service_id FROM combo_services WHERE combo_id = $1 ORDER BY ordinal`

	nameTakenSQL = `SELECT EXISTS (
		SELECT 1 FROM combos WHERE barbershop_id = $1 AND lower(name) = lower($2) AND id <> $3
	)`

	uniqueViolationCode = "23505"
)

var _ combo.Repository = (*ComboRepository)(nil)

// ComboRepository implements combo.Repository backed by PostgreSQL. The
// combo row and its membership rows are always written inside a single
// transaction so readers never observe totals computed from a partially
// written membership list.
type ComboRepository struct {
	pool *pgxpool.Pool
}

// NewComboRepository returns a ComboRepository that uses the given pool.
func NewComboRepository(pool *pgxpool.Pool) *ComboRepository {
	return &ComboRepository{pool: pool}
}

// Create inserts the combo row and its ordered membership rows atomically.
func (r *ComboRepository) Create(ctx context.Context, c *combo.Combo) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, insertComboSQL,
			c.ID, c.BarbershopID, c.Name, c.Description, string(c.DiscountType), c.DiscountValue,
			c.OriginalTotal, c.FinalTotal, c.TotalDurationMinutes, c.Active, c.CreatedAt, c.UpdatedAt,
		)
		if err != nil {
			return err
		}
		return insertMembers(ctx, tx, c.ID, c.ServiceIDs)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return combo.ErrDuplicateName
		}
		return fmt.Errorf("creating combo %q: %w", c.ID, err)
	}
	return nil
}

// Update rewrites the combo row and, when replaceMembers is true, replaces
// the whole membership set with fresh ordinals in the same transaction.
func (r *ComboRepository) Update(ctx context.Context, c *combo.Combo, replaceMembers bool) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, updateComboSQL,
			c.ID, c.Name, c.Description, string(c.DiscountType), c.DiscountValue,
			c.OriginalTotal, c.FinalTotal, c.TotalDurationMinutes, c.Active, c.UpdatedAt,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return combo.ErrNotFound
		}
		if !replaceMembers {
			return nil
		}
		if _, err := tx.Exec(ctx, deleteMembersSQL, c.ID); err != nil {
			return err
		}
		return insertMembers(ctx, tx, c.ID, c.ServiceIDs)
	})
	if err != nil {
		if errors.Is(err, combo.ErrNotFound) {
			return combo.ErrNotFound
		}
		if isUniqueViolation(err) {
			return combo.ErrDuplicateName
		}
		return fmt.Errorf("updating combo %q: %w", c.ID, err)
	}
	return nil
}

// GetByID returns a combo with its membership ids ordered by ordinal.
func (r *ComboRepository) GetByID(ctx context.Context, id string) (*combo.Combo, error) {
	rows, err := r.pool.Query(ctx, getComboByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting combo %q: %w", id, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCombo)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, combo.ErrNotFound
		}
		return nil, fmt.Errorf("getting combo %q: %w", id, err)
	}

	c.ServiceIDs, err = r.members(ctx, id)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns a page of combos ordered by name, each with its ordered
// membership ids, plus the total matching count.
func (r *ComboRepository) List(ctx context.Context, f combo.Filter) ([]combo.Combo, int, error) {
	where := `WHERE TRUE`
	var args []any
	if f.BarbershopID != "" {
		args = append(args, f.BarbershopID)
		where += fmt.Sprintf(` AND barbershop_id = $%d`, len(args))
	}
	if f.Active != nil {
		args = append(args, *f.Active)
		where += fmt.Sprintf(` AND active = $%d`, len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM combos `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting combos: %w", err)
	}

	offset := (f.Page - 1) * f.PageSize
	query := fmt.Sprintf(`SELECT %s FROM combos %s ORDER BY name LIMIT $%d OFFSET $%d`,
		comboColumns, where, len(args)+1, len(args)+2)
	args = append(args, f.PageSize, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing combos: %w", err)
	}
	items, err := pgx.CollectRows(rows, scanCombo)
	if err != nil {
		return nil, 0, fmt.Errorf("scanning combos: %w", err)
	}

	for i := range items {
		items[i].ServiceIDs, err = r.members(ctx, items[i].ID)
		if err != nil {
			return nil, 0, err
		}
	}
	return items, total, nil
}

// Delete hard-deletes a combo; membership rows go with it via ON DELETE
// CASCADE.
func (r *ComboRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteComboSQL, id)
	if err != nil {
		return fmt.Errorf("deleting combo %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return combo.ErrNotFound
	}
	return nil
}

// NameTaken reports whether another combo of the same barbershop already
// uses the given name (case-insensitive).
func (r *ComboRepository) NameTaken(ctx context.Context, barbershopID, name, excludeID string) (bool, error) {
	var taken bool
	if err := r.pool.QueryRow(ctx, nameTakenSQL, barbershopID, name, excludeID).Scan(&taken); err != nil {
		return false, fmt.Errorf("checking combo name: %w", err)
	}
	return taken, nil
}

func (r *ComboRepository) members(ctx context.Context, comboID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, getMembersSQL, comboID)
	if err != nil {
		return nil, fmt.Errorf("getting members of combo %q: %w", comboID, err)
	}
	ids, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (string, error) {
		var id string
		err := row.Scan(&id)
		return id, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning members of combo %q: %w", comboID, err)
	}
	return ids, nil
}

// insertMembers writes the ordered membership rows. Ordinal is 1-based and
// follows the slice order exactly.
func insertMembers(ctx context.Context, tx pgx.Tx, comboID string, serviceIDs []string) error {
	batch := &pgx.Batch{}
	for i, serviceID := range serviceIDs {
		batch.Queue(insertMemberSQL, comboID, serviceID, i+1)
	}
	return tx.SendBatch(ctx, batch).Close()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

func scanCombo(row pgx.CollectableRow) (combo.Combo, error) {
	var (
		c            combo.Combo
		discountType string
	)
	err := row.Scan(
		&c.ID, &c.BarbershopID, &c.Name, &c.Description, &discountType, &c.DiscountValue,
		&c.OriginalTotal, &c.FinalTotal, &c.TotalDurationMinutes, &c.Active, &c.CreatedAt, &c.UpdatedAt,
	)
	c.DiscountType = combo.DiscountType(discountType)
	return c, err
}
