package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/cezarfreitas/backendbarber/internal/domain/combo"
)

type comboCreateRequest struct {
	Name          string          `json:"nome" binding:"required"`
	Description   string          `json:"descricao"`
	ServiceIDs    []string        `json:"servicoIds" binding:"required"`
	DiscountType  string          `json:"tipoDesconto" binding:"required"`
	DiscountValue decimal.Decimal `json:"valorDesconto"`
}

type comboUpdateRequest struct {
	Name          *string          `json:"nome"`
	Description   *string          `json:"descricao"`
	ServiceIDs    *[]string        `json:"servicoIds"`
	DiscountType  *string          `json:"tipoDesconto"`
	DiscountValue *decimal.Decimal `json:"valorDesconto"`
	Active        *bool            `json:"ativo"`
}

type comboResponse struct {
	ID                   string            `json:"id"`
	BarbershopID         string            `json:"barbeariaId"`
	Name                 string            `json:"nome"`
	Description          string            `json:"descricao,omitempty"`
	ServiceIDs           []string          `json:"servicoIds"`
	DiscountType         string            `json:"tipoDesconto"`
	DiscountValue        float64           `json:"valorDesconto"`
	OriginalTotal        float64           `json:"precoOriginal"`
	FinalTotal           float64           `json:"precoFinal"`
	TotalDurationMinutes int               `json:"duracaoTotalMinutos"`
	Active               bool              `json:"ativo"`
	Services             []serviceResponse `json:"servicos,omitempty"`
}

type comboPageResponse struct {
	Items      []comboResponse `json:"items"`
	Total      int             `json:"total"`
	TotalPages int             `json:"totalPaginas"`
	Page       int             `json:"pagina"`
	PageSize   int             `json:"limite"`
}

func toComboResponse(c *combo.Combo) comboResponse {
	resp := comboResponse{
		ID:                   c.ID,
		BarbershopID:         c.BarbershopID,
		Name:                 c.Name,
		Description:          c.Description,
		ServiceIDs:           c.ServiceIDs,
		DiscountType:         string(c.DiscountType),
		DiscountValue:        c.DiscountValue.InexactFloat64(),
		OriginalTotal:        c.OriginalTotal.InexactFloat64(),
		FinalTotal:           c.FinalTotal.InexactFloat64(),
		TotalDurationMinutes: c.TotalDurationMinutes,
		Active:               c.Active,
	}
	for i := range c.Services {
		resp.Services = append(resp.Services, toServiceResponse(&c.Services[i]))
	}
	return resp
}

// CreateCombo handles POST /api/combos. The combo is created under the
// authenticated owner's barbershop.
func (h *Handler) CreateCombo(c *gin.Context) {
	var req comboCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	dt, err := combo.ParseDiscountType(req.DiscountType)
	if err != nil {
		respondError(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := h.combos.Create(c.Request.Context(), combo.CreateRequest{
		BarbershopID:    tenantID(c),
		Name:            req.Name,
		Description:     req.Description,
		ServiceIDs:      req.ServiceIDs,
		DiscountType:    dt,
		DiscountValue:   req.DiscountValue,
		IncludeServices: boolFlag(c, "incluirServicos"),
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toComboResponse(created))
}

// UpdateCombo handles PUT /api/combos/:id. Only the owning barbershop may
// modify a combo.
func (h *Handler) UpdateCombo(c *gin.Context) {
	id := c.Param("id")
	if !h.ownsCombo(c, id) {
		return
	}

	var req comboUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	patch := combo.UpdateRequest{
		Name:            req.Name,
		Description:     req.Description,
		ServiceIDs:      req.ServiceIDs,
		DiscountValue:   req.DiscountValue,
		Active:          req.Active,
		IncludeServices: boolFlag(c, "incluirServicos"),
	}
	if req.DiscountType != nil {
		dt, err := combo.ParseDiscountType(*req.DiscountType)
		if err != nil {
			respondError(c, http.StatusUnprocessableEntity, err.Error())
			return
		}
		patch.DiscountType = &dt
	}

	updated, err := h.combos.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toComboResponse(updated))
}

// GetCombo handles GET /api/combos/:id.
func (h *Handler) GetCombo(c *gin.Context) {
	found, err := h.combos.Get(c.Request.Context(), c.Param("id"), boolFlag(c, "incluirServicos"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toComboResponse(found))
}

// ListCombos handles GET /api/combos with barbeariaId, ativo, pagina,
// limite and incluirServicos query parameters.
func (h *Handler) ListCombos(c *gin.Context) {
	page, pageSize := pagination(c)
	filter := combo.Filter{
		BarbershopID: c.Query("barbeariaId"),
		Active:       boolQuery(c, "ativo"),
		Page:         page,
		PageSize:     pageSize,
	}

	result, err := h.combos.List(c.Request.Context(), filter, boolFlag(c, "incluirServicos"))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	resp := comboPageResponse{
		Items:      make([]comboResponse, 0, len(result.Items)),
		Total:      result.Total,
		TotalPages: result.TotalPages,
		Page:       result.PageNum,
		PageSize:   result.PageSize,
	}
	for i := range result.Items {
		resp.Items = append(resp.Items, toComboResponse(&result.Items[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// DeleteCombo handles DELETE /api/combos/:id.
func (h *Handler) DeleteCombo(c *gin.Context) {
	id := c.Param("id")
	if !h.ownsCombo(c, id) {
		return
	}
	if err := h.combos.Delete(c.Request.Context(), id); err != nil {
		respondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ownsCombo verifies the combo belongs to the authenticated barbershop.
// It writes the error response itself and reports whether to proceed.
func (h *Handler) ownsCombo(c *gin.Context, id string) bool {
	found, err := h.combos.Get(c.Request.Context(), id, false)
	if err != nil {
		respondDomainError(c, err)
		return false
	}
	if found.BarbershopID != tenantID(c) {
		respondError(c, http.StatusForbidden, "combo belongs to another barbershop")
		return false
	}
	return true
}

func boolFlag(c *gin.Context, name string) bool {
	v := boolQuery(c, name)
	return v != nil && *v
}
