package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cezarfreitas/backendbarber/internal/domain/service"
)

type serviceCreateRequest struct {
	Name            string          `json:"nome" binding:"required"`
	Description     string          `json:"descricao"`
	Price           decimal.Decimal `json:"preco"`
	DurationMinutes int             `json:"duracaoMinutos" binding:"required"`
}

type serviceUpdateRequest struct {
	Name            *string          `json:"nome"`
	Description     *string          `json:"descricao"`
	Price           *decimal.Decimal `json:"preco"`
	DurationMinutes *int             `json:"duracaoMinutos"`
	Active          *bool            `json:"ativo"`
}

type serviceResponse struct {
	ID              string  `json:"id"`
	BarbershopID    string  `json:"barbeariaId"`
	Name            string  `json:"nome"`
	Description     string  `json:"descricao,omitempty"`
	Price           float64 `json:"preco"`
	DurationMinutes int     `json:"duracaoMinutos"`
	Active          bool    `json:"ativo"`
}

type servicePageResponse struct {
	Items    []serviceResponse `json:"items"`
	Total    int               `json:"total"`
	Page     int               `json:"pagina"`
	PageSize int               `json:"limite"`
}

func toServiceResponse(s *service.Service) serviceResponse {
	return serviceResponse{
		ID:              s.ID,
		BarbershopID:    s.BarbershopID,
		Name:            s.Name,
		Description:     s.Description,
		Price:           s.Price.InexactFloat64(),
		DurationMinutes: s.DurationMinutes,
		Active:          s.Active,
	}
}

// CreateService handles POST /api/servicos under the authenticated
// barbershop.
func (h *Handler) CreateService(c *gin.Context) {
	var req serviceCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		respondError(c, http.StatusBadRequest, "nome must not be empty")
		return
	}
	if req.Price.IsNegative() {
		respondError(c, http.StatusUnprocessableEntity, "preco cannot be negative")
		return
	}
	if req.DurationMinutes <= 0 {
		respondError(c, http.StatusUnprocessableEntity, "duracaoMinutos must be positive")
		return
	}

	now := time.Now()
	s := &service.Service{
		ID:              uuid.New().String(),
		BarbershopID:    tenantID(c),
		Name:            name,
		Description:     req.Description,
		Price:           req.Price.Round(2),
		DurationMinutes: req.DurationMinutes,
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := h.services.Create(c.Request.Context(), s); err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toServiceResponse(s))
}

// UpdateService handles PUT /api/servicos/:id. Only the owning barbershop
// may modify a service; price and duration changes do not retroactively
// touch combos already priced against the old values.
func (h *Handler) UpdateService(c *gin.Context) {
	var req serviceUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	s, err := h.services.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	if s.BarbershopID != tenantID(c) {
		respondError(c, http.StatusForbidden, "service belongs to another barbershop")
		return
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			respondError(c, http.StatusBadRequest, "nome must not be empty")
			return
		}
		s.Name = name
	}
	if req.Description != nil {
		s.Description = *req.Description
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			respondError(c, http.StatusUnprocessableEntity, "preco cannot be negative")
			return
		}
		s.Price = req.Price.Round(2)
	}
	if req.DurationMinutes != nil {
		if *req.DurationMinutes <= 0 {
			respondError(c, http.StatusUnprocessableEntity, "duracaoMinutos must be positive")
			return
		}
		s.DurationMinutes = *req.DurationMinutes
	}
	if req.Active != nil {
		s.Active = *req.Active
	}
	s.UpdatedAt = time.Now()

	if err := h.services.Update(c.Request.Context(), s); err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toServiceResponse(s))
}

// GetService handles GET /api/servicos/:id.
func (h *Handler) GetService(c *gin.Context) {
	s, err := h.services.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toServiceResponse(s))
}

// ListServices handles GET /api/servicos filtered by barbeariaId, with
// ativo, pagina and limite query parameters.
func (h *Handler) ListServices(c *gin.Context) {
	shopID := c.Query("barbeariaId")
	if shopID == "" {
		respondError(c, http.StatusBadRequest, "barbeariaId is required")
		return
	}

	page, pageSize := pagination(c)
	filter := service.Filter{
		BarbershopID: shopID,
		ActiveOnly:   boolFlag(c, "ativo"),
		Page:         page,
		PageSize:     pageSize,
	}

	items, total, err := h.services.List(c.Request.Context(), filter)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	resp := servicePageResponse{
		Items:    make([]serviceResponse, 0, len(items)),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
	for i := range items {
		resp.Items = append(resp.Items, toServiceResponse(&items[i]))
	}
	c.JSON(http.StatusOK, resp)
}
