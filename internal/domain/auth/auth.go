package auth

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrOwnerNotFound is returned when no owner account matches the given email.
var ErrOwnerNotFound = errors.New("owner not found")

// APIKeyInfo holds the identity and permission data for a validated API key.
type APIKeyInfo struct {
	ID      string
	KeyHash string
	Name    string
	Scopes  []string
}

// APIKeyRepository provides lookup of API keys by their HMAC hash.
type APIKeyRepository interface {
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
}

// Owner is a barbershop owner account used for JWT login. Each owner belongs
// to exactly one barbershop and may only mutate that shop's catalog.
type Owner struct {
	ID           string
	BarbershopID string
	Email        string
	PasswordHash string
	Name         string
	CreatedAt    time.Time
}

// OwnerRepository provides owner account lookup for login.
type OwnerRepository interface {
	FindByEmail(ctx context.Context, email string) (*Owner, error)
}
