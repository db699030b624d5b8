package service

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested service does not exist.
var ErrNotFound = errors.New("service not found")

// Service is a single bookable service offered by a barbershop, e.g. a
// haircut or a beard trim.
type Service struct {
	ID              string
	BarbershopID    string
	Name            string
	Description     string
	Price           decimal.Decimal
	DurationMinutes int
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Filter narrows a service listing.
type Filter struct {
	BarbershopID string
	// ActiveOnly limits the listing to active services when true.
	ActiveOnly bool
	Page       int
	PageSize   int
}

// Repository defines persistence operations for the service catalog.
//
// ResolveActive is the batch lookup consumed by combo pricing: it returns
// only services that exist AND are active; missing or deactivated ids are
// simply absent from the result. GetByIDs returns every match regardless of
// the active flag and is used for display composition.
type Repository interface {
	Create(ctx context.Context, s *Service) error
	Update(ctx context.Context, s *Service) error
	GetByID(ctx context.Context, id string) (*Service, error)
	GetByIDs(ctx context.Context, ids []string) ([]Service, error)
	ResolveActive(ctx context.Context, ids []string) ([]Service, error)
	List(ctx context.Context, f Filter) ([]Service, int, error)
}
