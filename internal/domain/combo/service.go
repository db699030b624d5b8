package combo

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cezarfreitas/backendbarber/internal/domain/service"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// CreateRequest holds the input for creating a combo.
type CreateRequest struct {
	BarbershopID  string
	Name          string
	Description   string
	ServiceIDs    []string
	DiscountType  DiscountType
	DiscountValue decimal.Decimal
	// IncludeServices attaches the resolved member services to the result.
	IncludeServices bool
}

// UpdateRequest is a partial patch for an existing combo. Nil fields are
// left unchanged. Supplying any of ServiceIDs, DiscountType or DiscountValue
// triggers a full recomputation of the derived totals using the new value
// where supplied and the stored value otherwise.
type UpdateRequest struct {
	Name            *string
	Description     *string
	ServiceIDs      *[]string
	DiscountType    *DiscountType
	DiscountValue   *decimal.Decimal
	Active          *bool
	IncludeServices bool
}

// Service encapsulates combo pricing and lifecycle business logic.
type Service struct {
	combos  Repository
	catalog ServiceCatalog
	now     func() time.Time
}

// NewService creates a combo Service with the required dependencies.
func NewService(combos Repository, catalog ServiceCatalog) *Service {
	return &Service{
		combos:  combos,
		catalog: catalog,
		now:     time.Now,
	}
}

// ComputeTotals validates the proposed membership and discount parameters,
// resolves the member services through the catalog, and returns the derived
// totals. Validation order: membership size, discount value, discount
// bounds, service resolution.
func (s *Service) ComputeTotals(
	ctx context.Context,
	serviceIDs []string,
	dt DiscountType,
	value decimal.Decimal,
) (Totals, error) {
	totals, _, err := s.resolveAndCompute(ctx, serviceIDs, dt, value)
	return totals, err
}

// resolveAndCompute is the shared validation + pricing path for create,
// update and ComputeTotals. It returns the deduplicated membership list in
// the order it was given.
func (s *Service) resolveAndCompute(
	ctx context.Context,
	serviceIDs []string,
	dt DiscountType,
	value decimal.Decimal,
) (Totals, []string, error) {
	ids := dedupe(serviceIDs)
	if len(ids) < 2 {
		return Totals{}, nil, ErrInvalidMembership
	}
	if err := validateDiscount(dt, value); err != nil {
		return Totals{}, nil, err
	}

	resolved, err := s.catalog.ResolveActive(ctx, ids)
	if err != nil {
		return Totals{}, nil, errors.Wrap(err, "resolve services")
	}
	// The catalog only returns existing active services, so a count mismatch
	// means at least one id is missing or inactive.
	if len(resolved) != len(ids) {
		return Totals{}, nil, ErrServiceNotFound
	}

	totals, err := computeTotals(resolved, dt, value)
	if err != nil {
		return Totals{}, nil, err
	}
	return totals, ids, nil
}

// Create validates and persists a new combo. The combo row and its ordered
// membership rows are written in a single transaction by the repository.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Combo, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrEmptyName
	}

	taken, err := s.combos.NameTaken(ctx, req.BarbershopID, name, "")
	if err != nil {
		return nil, errors.Wrap(err, "check combo name")
	}
	if taken {
		return nil, ErrDuplicateName
	}

	totals, ids, err := s.resolveAndCompute(ctx, req.ServiceIDs, req.DiscountType, req.DiscountValue)
	if err != nil {
		return nil, err
	}

	now := s.now()
	c := &Combo{
		ID:                   uuid.New().String(),
		BarbershopID:         req.BarbershopID,
		Name:                 name,
		Description:          req.Description,
		ServiceIDs:           ids,
		DiscountType:         req.DiscountType,
		DiscountValue:        req.DiscountValue,
		OriginalTotal:        totals.OriginalTotal,
		FinalTotal:           totals.FinalTotal,
		TotalDurationMinutes: totals.TotalDurationMinutes,
		Active:               true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.combos.Create(ctx, c); err != nil {
		return nil, errors.Wrap(err, "create combo")
	}

	if req.IncludeServices {
		if err := s.attachServices(ctx, c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Update applies a partial patch to an existing combo. Totals are rewritten
// from a fresh computation whenever a pricing input is part of the patch;
// updates touching only name, description or active leave them untouched.
func (s *Service) Update(ctx context.Context, id string, patch UpdateRequest) (*Combo, error) {
	c, err := s.combos.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, ErrEmptyName
		}
		if name != c.Name {
			taken, err := s.combos.NameTaken(ctx, c.BarbershopID, name, c.ID)
			if err != nil {
				return nil, errors.Wrap(err, "check combo name")
			}
			if taken {
				return nil, ErrDuplicateName
			}
		}
		c.Name = name
	}
	if patch.Description != nil {
		c.Description = *patch.Description
	}
	if patch.Active != nil {
		c.Active = *patch.Active
	}

	replaceMembers := false
	if patch.ServiceIDs != nil || patch.DiscountType != nil || patch.DiscountValue != nil {
		ids := c.ServiceIDs
		if patch.ServiceIDs != nil {
			ids = *patch.ServiceIDs
			replaceMembers = true
		}
		dt := c.DiscountType
		if patch.DiscountType != nil {
			dt = *patch.DiscountType
		}
		value := c.DiscountValue
		if patch.DiscountValue != nil {
			value = *patch.DiscountValue
		}

		totals, deduped, err := s.resolveAndCompute(ctx, ids, dt, value)
		if err != nil {
			return nil, err
		}

		c.ServiceIDs = deduped
		c.DiscountType = dt
		c.DiscountValue = value
		c.OriginalTotal = totals.OriginalTotal
		c.FinalTotal = totals.FinalTotal
		c.TotalDurationMinutes = totals.TotalDurationMinutes
	}

	c.UpdatedAt = s.now()

	if err := s.combos.Update(ctx, c, replaceMembers); err != nil {
		return nil, errors.Wrap(err, "update combo")
	}

	if patch.IncludeServices {
		if err := s.attachServices(ctx, c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Get returns a combo by id, with its resolved member services attached in
// membership order when includeServices is true.
func (s *Service) Get(ctx context.Context, id string, includeServices bool) (*Combo, error) {
	c, err := s.combos.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if includeServices {
		if err := s.attachServices(ctx, c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// List returns a page of combos ordered by name. Page numbers are 1-indexed
// and the page size is clamped to [1, 100].
func (s *Service) List(ctx context.Context, f Filter, includeServices bool) (*Page, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = defaultPageSize
	}
	if f.PageSize > maxPageSize {
		f.PageSize = maxPageSize
	}

	items, total, err := s.combos.List(ctx, f)
	if err != nil {
		return nil, errors.Wrap(err, "list combos")
	}

	if includeServices {
		if err := s.attachServicesBatch(ctx, items); err != nil {
			return nil, err
		}
	}

	totalPages := (total + f.PageSize - 1) / f.PageSize
	return &Page{
		Items:      items,
		Total:      total,
		TotalPages: totalPages,
		PageNum:    f.Page,
		PageSize:   f.PageSize,
	}, nil
}

// Delete removes a combo and its membership rows.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.combos.Delete(ctx, id)
}

// attachServices resolves the combo's member services and attaches them in
// membership order. Services deactivated after the combo was priced are
// still returned: display follows the stored membership, not the current
// active flag.
func (s *Service) attachServices(ctx context.Context, c *Combo) error {
	fetched, err := s.catalog.GetByIDs(ctx, c.ServiceIDs)
	if err != nil {
		return errors.Wrap(err, "fetch member services")
	}
	c.Services = orderByIDs(fetched, c.ServiceIDs)
	return nil
}

// attachServicesBatch resolves member services for a whole page of combos
// with a single catalog call.
func (s *Service) attachServicesBatch(ctx context.Context, combos []Combo) error {
	if len(combos) == 0 {
		return nil
	}

	var ids []string
	seen := make(map[string]struct{})
	for _, c := range combos {
		for _, id := range c.ServiceIDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	fetched, err := s.catalog.GetByIDs(ctx, ids)
	if err != nil {
		return errors.Wrap(err, "fetch member services")
	}

	byID := make(map[string]service.Service, len(fetched))
	for _, svc := range fetched {
		byID[svc.ID] = svc
	}
	for i := range combos {
		combos[i].Services = pickByIDs(byID, combos[i].ServiceIDs)
	}
	return nil
}

func orderByIDs(services []service.Service, ids []string) []service.Service {
	byID := make(map[string]service.Service, len(services))
	for _, svc := range services {
		byID[svc.ID] = svc
	}
	return pickByIDs(byID, ids)
}

func pickByIDs(byID map[string]service.Service, ids []string) []service.Service {
	out := make([]service.Service, 0, len(ids))
	for _, id := range ids {
		if svc, ok := byID[id]; ok {
			out = append(out, svc)
		}
	}
	return out
}
