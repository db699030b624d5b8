package combo

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/cezarfreitas/backendbarber/internal/domain/service"
)

// DiscountType enumerates the supported combo discount strategies. Values
// outside the two constants are rejected at the boundary by
// ParseDiscountType and by the pricing switch.
type DiscountType string

const (
	// DiscountAbsolute subtracts a fixed amount from the combined price.
	DiscountAbsolute DiscountType = "absolute"
	// DiscountPercentage subtracts a percentage of the combined price.
	DiscountPercentage DiscountType = "percentage"
)

// ParseDiscountType converts a wire value into a DiscountType.
func ParseDiscountType(s string) (DiscountType, error) {
	switch DiscountType(s) {
	case DiscountAbsolute:
		return DiscountAbsolute, nil
	case DiscountPercentage:
		return DiscountPercentage, nil
	default:
		return "", errors.Wrapf(ErrInvalidDiscount, "unsupported discount type %q", s)
	}
}

// Sentinel errors for combo validation and lookup.
var (
	// ErrEmptyName is returned when a combo name is missing or blank.
	ErrEmptyName = errors.New("combo name is required")
	// ErrInvalidMembership is returned when a combo would end up with fewer
	// than 2 distinct services.
	ErrInvalidMembership = errors.New("a combo must have at least 2 services")
	// ErrInvalidDiscount is returned for a negative discount value, a
	// percentage above 100, or an unknown discount type.
	ErrInvalidDiscount = errors.New("invalid discount")
	// ErrServiceNotFound is returned when a member service id does not
	// resolve to an active service.
	ErrServiceNotFound = errors.New("one or more services were not found or are inactive")
	// ErrDuplicateName is returned when a combo name collides within the
	// same barbershop.
	ErrDuplicateName = errors.New("a combo with this name already exists for this barbershop")
	// ErrNotFound is returned when a combo id does not exist.
	ErrNotFound = errors.New("combo not found")
)

// Combo is a named bundle of two or more services sold at an aggregate
// discounted price. OriginalTotal, FinalTotal and TotalDurationMinutes are
// derived values, recomputed whenever membership or discount inputs change,
// never patched independently.
type Combo struct {
	ID            string
	BarbershopID  string
	Name          string
	Description   string
	ServiceIDs    []string // membership in display order, no duplicates
	DiscountType  DiscountType
	DiscountValue decimal.Decimal

	OriginalTotal        decimal.Decimal
	FinalTotal           decimal.Decimal
	TotalDurationMinutes int

	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time

	// Services carries the resolved member services in membership order when
	// the caller asked for them; nil otherwise.
	Services []service.Service
}

// Totals holds the derived pricing values for a combo.
type Totals struct {
	OriginalTotal        decimal.Decimal
	FinalTotal           decimal.Decimal
	TotalDurationMinutes int
}

// Filter narrows a combo listing. An empty BarbershopID matches all shops;
// a nil Active matches both active and inactive combos.
type Filter struct {
	BarbershopID string
	Active       *bool
	Page         int
	PageSize     int
}

// Page is one page of a combo listing.
type Page struct {
	Items      []Combo
	Total      int
	TotalPages int
	PageNum    int
	PageSize   int
}

// Repository defines persistence operations for combos and their membership
// rows. Create and Update are transactional: the combo row and the ordered
// membership rows become visible together or not at all. Implementations
// must translate an owner-scoped name collision into ErrDuplicateName and a
// missing combo into ErrNotFound.
type Repository interface {
	Create(ctx context.Context, c *Combo) error
	// Update rewrites the combo row. When replaceMembers is true the whole
	// membership set is replaced (delete-all, reinsert with fresh ordinals)
	// in the same transaction.
	Update(ctx context.Context, c *Combo, replaceMembers bool) error
	GetByID(ctx context.Context, id string) (*Combo, error)
	List(ctx context.Context, f Filter) ([]Combo, int, error)
	Delete(ctx context.Context, id string) error
	// NameTaken reports whether another combo of the same barbershop already
	// uses the given name. excludeID skips the combo being updated.
	NameTaken(ctx context.Context, barbershopID, name, excludeID string) (bool, error)
}

// ServiceCatalog is the read-only collaborator resolving member service ids.
// It is satisfied by service.Repository.
type ServiceCatalog interface {
	// ResolveActive returns only services that exist and are active.
	ResolveActive(ctx context.Context, ids []string) ([]service.Service, error)
	// GetByIDs returns all matches regardless of the active flag.
	GetByIDs(ctx context.Context, ids []string) ([]service.Service, error)
}
