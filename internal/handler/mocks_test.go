package handler

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/cezarfreitas/backendbarber/internal/domain/auth"
	"github.com/cezarfreitas/backendbarber/internal/domain/barbershop"
	"github.com/cezarfreitas/backendbarber/internal/domain/combo"
	"github.com/cezarfreitas/backendbarber/internal/domain/service"
)

type memServiceRepo struct {
	byID map[string]service.Service
}

func (m *memServiceRepo) Create(_ context.Context, s *service.Service) error {
	m.byID[s.ID] = *s
	return nil
}

func (m *memServiceRepo) Update(_ context.Context, s *service.Service) error {
	if _, ok := m.byID[s.ID]; !ok {
		return service.ErrNotFound
	}
	m.byID[s.ID] = *s
	return nil
}

func (m *memServiceRepo) GetByID(_ context.Context, id string) (*service.Service, error) {
	s, ok := m.byID[id]
	if !ok {
		return nil, service.ErrNotFound
	}
	return &s, nil
}

func (m *memServiceRepo) GetByIDs(_ context.Context, ids []string) ([]service.Service, error) {
	var out []service.Service
	for _, id := range ids {
		if s, ok := m.byID[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memServiceRepo) ResolveActive(_ context.Context, ids []string) ([]service.Service, error) {
	var out []service.Service
	for _, id := range ids {
		if s, ok := m.byID[id]; ok && s.Active {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memServiceRepo) List(_ context.Context, f service.Filter) ([]service.Service, int, error) {
	var out []service.Service
	for _, s := range m.byID {
		if s.BarbershopID != f.BarbershopID {
			continue
		}
		if f.ActiveOnly && !s.Active {
			continue
		}
		out = append(out, s)
	}
	return out, len(out), nil
}

type memComboRepo struct {
	byID map[string]combo.Combo
}

func (m *memComboRepo) Create(_ context.Context, c *combo.Combo) error {
	for _, existing := range m.byID {
		if existing.BarbershopID == c.BarbershopID && strings.EqualFold(existing.Name, c.Name) {
			return combo.ErrDuplicateName
		}
	}
	m.byID[c.ID] = *c
	return nil
}

func (m *memComboRepo) Update(_ context.Context, c *combo.Combo, _ bool) error {
	if _, ok := m.byID[c.ID]; !ok {
		return combo.ErrNotFound
	}
	m.byID[c.ID] = *c
	return nil
}

func (m *memComboRepo) GetByID(_ context.Context, id string) (*combo.Combo, error) {
	c, ok := m.byID[id]
	if !ok {
		return nil, combo.ErrNotFound
	}
	c.Services = nil
	return &c, nil
}

func (m *memComboRepo) List(_ context.Context, f combo.Filter) ([]combo.Combo, int, error) {
	var out []combo.Combo
	for _, c := range m.byID {
		if f.BarbershopID != "" && c.BarbershopID != f.BarbershopID {
			continue
		}
		if f.Active != nil && c.Active != *f.Active {
			continue
		}
		c.Services = nil
		out = append(out, c)
	}
	return out, len(out), nil
}

func (m *memComboRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.byID[id]; !ok {
		return combo.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memComboRepo) NameTaken(_ context.Context, barbershopID, name, excludeID string) (bool, error) {
	for _, c := range m.byID {
		if c.ID != excludeID && c.BarbershopID == barbershopID && strings.EqualFold(c.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

type memShopRepo struct {
	byID map[string]barbershop.Barbershop
}

func (m *memShopRepo) Create(_ context.Context, b *barbershop.Barbershop) error {
	m.byID[b.ID] = *b
	return nil
}

func (m *memShopRepo) Update(_ context.Context, b *barbershop.Barbershop) error {
	if _, ok := m.byID[b.ID]; !ok {
		return barbershop.ErrNotFound
	}
	m.byID[b.ID] = *b
	return nil
}

func (m *memShopRepo) GetByID(_ context.Context, id string) (*barbershop.Barbershop, error) {
	b, ok := m.byID[id]
	if !ok {
		return nil, barbershop.ErrNotFound
	}
	return &b, nil
}

func (m *memShopRepo) Search(_ context.Context, f barbershop.SearchFilter) ([]barbershop.Barbershop, int, error) {
	var out []barbershop.Barbershop
	for _, b := range m.byID {
		if !b.Active {
			continue
		}
		if f.Query != "" && !strings.Contains(strings.ToLower(b.Name), strings.ToLower(f.Query)) {
			continue
		}
		if f.City != "" && b.City != f.City {
			continue
		}
		out = append(out, b)
	}
	return out, len(out), nil
}

func (m *memShopRepo) Delete(_ context.Context, id string) error {
	b, ok := m.byID[id]
	if !ok {
		return barbershop.ErrNotFound
	}
	b.Active = false
	m.byID[id] = b
	return nil
}

type memAuthRepo struct {
	owners map[string]auth.Owner
	keys   map[string]auth.APIKeyInfo
}

func (m *memAuthRepo) FindByEmail(_ context.Context, email string) (*auth.Owner, error) {
	o, ok := m.owners[strings.ToLower(email)]
	if !ok {
		return nil, auth.ErrOwnerNotFound
	}
	return &o, nil
}

func (m *memAuthRepo) FindByHash(_ context.Context, hash string) (*auth.APIKeyInfo, error) {
	k, ok := m.keys[hash]
	if !ok {
		return nil, errors.New("api key not found")
	}
	return &k, nil
}

func mustHash(password string) string {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return string(h)
}

var (
	_ service.Repository    = (*memServiceRepo)(nil)
	_ combo.Repository      = (*memComboRepo)(nil)
	_ barbershop.Repository = (*memShopRepo)(nil)
	_ auth.OwnerRepository  = (*memAuthRepo)(nil)
	_ auth.APIKeyRepository = (*memAuthRepo)(nil)
)
