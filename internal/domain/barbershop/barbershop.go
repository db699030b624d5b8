package barbershop

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested barbershop does not exist.
var ErrNotFound = errors.New("barbershop not found")

// Barbershop is a tenant of the platform and the owner scope for services
// and combos.
type Barbershop struct {
	ID          string
	Name        string
	Description string
	Address     string
	City        string
	Phone       string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SearchFilter drives the public directory listing. Query matches the shop
// name case-insensitively, City is an exact match. Only active shops are
// returned.
type SearchFilter struct {
	Query    string
	City     string
	Page     int
	PageSize int
}

// Repository defines persistence operations for barbershops. Delete is a
// soft delete: the row is kept, active is set to false.
type Repository interface {
	Create(ctx context.Context, b *Barbershop) error
	Update(ctx context.Context, b *Barbershop) error
	GetByID(ctx context.Context, id string) (*Barbershop, error)
	Search(ctx context.Context, f SearchFilter) ([]Barbershop, int, error)
	Delete(ctx context.Context, id string) error
}
