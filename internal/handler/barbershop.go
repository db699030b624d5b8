package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cezarfreitas/backendbarber/internal/domain/barbershop"
)

type barbershopCreateRequest struct {
	Name        string `json:"nome" binding:"required"`
	Description string `json:"descricao"`
	Address     string `json:"endereco"`
	City        string `json:"cidade"`
	Phone       string `json:"telefone"`
}

type barbershopUpdateRequest struct {
	Name        *string `json:"nome"`
	Description *string `json:"descricao"`
	Address     *string `json:"endereco"`
	City        *string `json:"cidade"`
	Phone       *string `json:"telefone"`
	Active      *bool   `json:"ativo"`
}

type barbershopResponse struct {
	ID          string `json:"id"`
	Name        string `json:"nome"`
	Description string `json:"descricao,omitempty"`
	Address     string `json:"endereco,omitempty"`
	City        string `json:"cidade,omitempty"`
	Phone       string `json:"telefone,omitempty"`
	Active      bool   `json:"ativo"`
}

type barbershopPageResponse struct {
	Items    []barbershopResponse `json:"items"`
	Total    int                  `json:"total"`
	Page     int                  `json:"pagina"`
	PageSize int                  `json:"limite"`
}

func toBarbershopResponse(b *barbershop.Barbershop) barbershopResponse {
	return barbershopResponse{
		ID:          b.ID,
		Name:        b.Name,
		Description: b.Description,
		Address:     b.Address,
		City:        b.City,
		Phone:       b.Phone,
		Active:      b.Active,
	}
}

// CreateBarbershop handles POST /api/barbearias. Platform admin only.
func (h *Handler) CreateBarbershop(c *gin.Context) {
	var req barbershopCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		respondError(c, http.StatusBadRequest, "nome must not be empty")
		return
	}

	now := time.Now()
	b := &barbershop.Barbershop{
		ID:          uuid.New().String(),
		Name:        name,
		Description: req.Description,
		Address:     req.Address,
		City:        req.City,
		Phone:       req.Phone,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.shops.Create(c.Request.Context(), b); err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toBarbershopResponse(b))
}

// UpdateBarbershop handles PUT /api/barbearias/:id. Platform admin only.
func (h *Handler) UpdateBarbershop(c *gin.Context) {
	var req barbershopUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	b, err := h.shops.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			respondError(c, http.StatusBadRequest, "nome must not be empty")
			return
		}
		b.Name = name
	}
	if req.Description != nil {
		b.Description = *req.Description
	}
	if req.Address != nil {
		b.Address = *req.Address
	}
	if req.City != nil {
		b.City = *req.City
	}
	if req.Phone != nil {
		b.Phone = *req.Phone
	}
	if req.Active != nil {
		b.Active = *req.Active
	}
	b.UpdatedAt = time.Now()

	if err := h.shops.Update(c.Request.Context(), b); err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBarbershopResponse(b))
}

// GetBarbershop handles GET /api/barbearias/:id.
func (h *Handler) GetBarbershop(c *gin.Context) {
	b, err := h.shops.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBarbershopResponse(b))
}

// SearchBarbershops handles GET /api/barbearias with busca, cidade, pagina
// and limite query parameters. Only active shops are listed.
func (h *Handler) SearchBarbershops(c *gin.Context) {
	page, pageSize := pagination(c)
	filter := barbershop.SearchFilter{
		Query:    c.Query("busca"),
		City:     c.Query("cidade"),
		Page:     page,
		PageSize: pageSize,
	}

	items, total, err := h.shops.Search(c.Request.Context(), filter)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	resp := barbershopPageResponse{
		Items:    make([]barbershopResponse, 0, len(items)),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
	for i := range items {
		resp.Items = append(resp.Items, toBarbershopResponse(&items[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// DeleteBarbershop handles DELETE /api/barbearias/:id. Soft delete, the
// shop disappears from the directory but its catalog rows survive.
func (h *Handler) DeleteBarbershop(c *gin.Context) {
	if err := h.shops.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
