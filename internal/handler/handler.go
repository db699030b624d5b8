// Package handler exposes the REST API: public directory browsing, owner
// authentication, and tenant-scoped catalog management.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/cezarfreitas/backendbarber/internal/domain/auth"
	"github.com/cezarfreitas/backendbarber/internal/domain/barbershop"
	"github.com/cezarfreitas/backendbarber/internal/domain/combo"
	"github.com/cezarfreitas/backendbarber/internal/domain/service"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Handler holds the dependencies shared by all route handlers.
type Handler struct {
	combos   *combo.Service
	services service.Repository
	shops    barbershop.Repository
	owners   auth.OwnerRepository
	apikeys  auth.APIKeyRepository
	tokens   *TokenManager
	pepper   []byte
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	combos *combo.Service,
	services service.Repository,
	shops barbershop.Repository,
	owners auth.OwnerRepository,
	apikeys auth.APIKeyRepository,
	tokens *TokenManager,
	pepper []byte,
) *Handler {
	return &Handler{
		combos:   combos,
		services: services,
		shops:    shops,
		owners:   owners,
		apikeys:  apikeys,
		tokens:   tokens,
		pepper:   pepper,
	}
}

// Router builds the gin engine with all API routes. Recovery, CORS, rate
// limiting and logging are applied by the outer middleware chain, not here.
func (h *Handler) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	api := r.Group("/api")
	{
		api.POST("/auth/login", h.Login)

		api.GET("/barbearias", h.SearchBarbershops)
		api.GET("/barbearias/:id", h.GetBarbershop)
		admin := api.Group("", h.RequireAPIKey())
		{
			admin.POST("/barbearias", h.CreateBarbershop)
			admin.PUT("/barbearias/:id", h.UpdateBarbershop)
			admin.DELETE("/barbearias/:id", h.DeleteBarbershop)
		}

		api.GET("/servicos", h.ListServices)
		api.GET("/servicos/:id", h.GetService)
		api.GET("/combos", h.ListCombos)
		api.GET("/combos/:id", h.GetCombo)

		owner := api.Group("", h.RequireOwner())
		{
			owner.POST("/servicos", h.CreateService)
			owner.PUT("/servicos/:id", h.UpdateService)
			owner.POST("/combos", h.CreateCombo)
			owner.PUT("/combos/:id", h.UpdateCombo)
			owner.DELETE("/combos/:id", h.DeleteCombo)
		}
	}

	return r
}

// errorBody is the JSON error envelope used by every endpoint.
type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, errorBody{Code: status, Message: message})
}

// respondDomainError maps domain errors onto HTTP statuses: 400 for bad
// input shape, 422 for failed combo validation, 409 for name collisions,
// 404 for missing records, 500 otherwise.
func respondDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, combo.ErrEmptyName):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, combo.ErrInvalidMembership),
		errors.Is(err, combo.ErrInvalidDiscount),
		errors.Is(err, combo.ErrServiceNotFound):
		respondError(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, combo.ErrDuplicateName):
		respondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, combo.ErrNotFound),
		errors.Is(err, service.ErrNotFound),
		errors.Is(err, barbershop.ErrNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	default:
		zctx.From(c.Request.Context()).Error("request failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "internal error")
	}
}

// pagination reads the shared pagina/limite query parameters, clamping the
// page to >= 1 and the page size to [1, 100].
func pagination(c *gin.Context) (page, pageSize int) {
	page = intQuery(c, "pagina", 1)
	if page < 1 {
		page = 1
	}
	pageSize = intQuery(c, "limite", defaultPageSize)
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func intQuery(c *gin.Context, name string, fallback int) int {
	v := c.Query(name)
	if v == "" {
		return fallback
	}
	n := 0
	for _, r := range v {
		if r < '0' || r > '9' {
			return fallback
		}
		n = n*10 + int(r-'0')
	}
	return n
}

func boolQuery(c *gin.Context, name string) *bool {
	switch c.Query(name) {
	case "true", "1":
		v := true
		return &v
	case "false", "0":
		v := false
		return &v
	default:
		return nil
	}
}
