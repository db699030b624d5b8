package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cezarfreitas/backendbarber/internal/domain/auth"
)

const (
	getAPIKeyByHashSQL = `SELECT id, key_hash, name, scopes
		FROM api_keys WHERE key_hash = $1 AND active = TRUE`

	upsertAPIKeySQL = `INSERT INTO api_keys (id, key_hash, name, scopes, active)
		VALUES ($1, $2, $3, $4, TRUE)
		ON CONFLICT (id) DO UPDATE SET key_hash = EXCLUDED.key_hash, name = EXCLUDED.name,
			scopes = EXCLUDED.scopes, active = TRUE`

	getOwnerByEmailSQL = `SELECT id, barbershop_id, email, password_hash, name, created_at
		FROM owners WHERE lower(email) = lower($1)`

	upsertOwnerSQL = `INSERT INTO owners (id, barbershop_id, email, password_hash, name)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO UPDATE SET password_hash = EXCLUDED.password_hash, name = EXCLUDED.name`
)

var (
	_ auth.APIKeyRepository = (*AuthRepository)(nil)
	_ auth.OwnerRepository  = (*AuthRepository)(nil)
)

// AuthRepository provides API key and owner account lookups backed by
// PostgreSQL.
type AuthRepository struct {
	pool *pgxpool.Pool
}

// NewAuthRepository returns an AuthRepository that uses the given pool.
func NewAuthRepository(pool *pgxpool.Pool) *AuthRepository {
	return &AuthRepository{pool: pool}
}

// FindByHash looks up an active API key by its HMAC-SHA256 hash.
func (r *AuthRepository) FindByHash(ctx context.Context, hash string) (*auth.APIKeyInfo, error) {
	var info auth.APIKeyInfo
	err := r.pool.QueryRow(ctx, getAPIKeyByHashSQL, hash).Scan(
		&info.ID, &info.KeyHash, &info.Name, &info.Scopes,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("api key not found: %w", err)
		}
		return nil, fmt.Errorf("finding api key by hash: %w", err)
	}
	return &info, nil
}

// UpsertAPIKey inserts or refreshes an API key row. Used by seeding.
func (r *AuthRepository) UpsertAPIKey(ctx context.Context, info *auth.APIKeyInfo) error {
	_, err := r.pool.Exec(ctx, upsertAPIKeySQL, info.ID, info.KeyHash, info.Name, info.Scopes)
	if err != nil {
		return fmt.Errorf("upserting api key %q: %w", info.ID, err)
	}
	return nil
}

// FindByEmail looks up an owner account by email (case-insensitive).
func (r *AuthRepository) FindByEmail(ctx context.Context, email string) (*auth.Owner, error) {
	var o auth.Owner
	err := r.pool.QueryRow(ctx, getOwnerByEmailSQL, email).Scan(
		&o.ID, &o.BarbershopID, &o.Email, &o.PasswordHash, &o.Name, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrOwnerNotFound
		}
		return nil, fmt.Errorf("finding owner by email: %w", err)
	}
	return &o, nil
}

// UpsertOwner inserts or refreshes an owner account. Used by seeding.
func (r *AuthRepository) UpsertOwner(ctx context.Context, o *auth.Owner) error {
	_, err := r.pool.Exec(ctx, upsertOwnerSQL, o.ID, o.BarbershopID, o.Email, o.PasswordHash, o.Name)
	if err != nil {
		return fmt.Errorf("upserting owner %q: %w", o.Email, err)
	}
	return nil
}
