package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cezarfreitas/backendbarber/internal/domain/auth"
	"github.com/cezarfreitas/backendbarber/internal/domain/barbershop"
	"github.com/cezarfreitas/backendbarber/internal/domain/combo"
	"github.com/cezarfreitas/backendbarber/internal/domain/service"
)

const (
	testShopID  = "shop-1"
	otherShopID = "shop-2"
	testPepper  = "pepper"
	adminKey    = "admin-key"
)

type fixture struct {
	router   *gin.Engine
	tokens   *TokenManager
	services *memServiceRepo
	combos   *memComboRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	services := &memServiceRepo{byID: map[string]service.Service{
		"svc-corte": {
			ID: "svc-corte", BarbershopID: testShopID, Name: "Corte",
			Price: decimal.RequireFromString("35.00"), DurationMinutes: 45, Active: true,
		},
		"svc-barba": {
			ID: "svc-barba", BarbershopID: testShopID, Name: "Barba",
			Price: decimal.RequireFromString("25.00"), DurationMinutes: 30, Active: true,
		},
		"svc-quimica": {
			ID: "svc-quimica", BarbershopID: testShopID, Name: "Quimica",
			Price: decimal.RequireFromString("80.00"), DurationMinutes: 90, Active: false,
		},
	}}
	combos := &memComboRepo{byID: map[string]combo.Combo{}}

	tokens := NewTokenManager([]byte("test-secret"), time.Hour)
	authRepo := &memAuthRepo{
		owners: map[string]auth.Owner{
			"dono@example.com": {
				ID: "owner-1", BarbershopID: testShopID,
				Email: "dono@example.com", PasswordHash: mustHash("s3cret"), Name: "Dono",
			},
		},
		keys: map[string]auth.APIKeyInfo{},
	}
	hash := HashAPIKey([]byte(testPepper), adminKey)
	authRepo.keys[hash] = auth.APIKeyInfo{ID: "key-1", KeyHash: hash, Name: "admin", Scopes: []string{"admin"}}

	h := NewHandler(
		combo.NewService(combos, services),
		services,
		&memShopRepo{byID: map[string]barbershop.Barbershop{}},
		authRepo,
		authRepo,
		tokens,
		[]byte(testPepper),
	)
	return &fixture{router: h.Router(), tokens: tokens, services: services, combos: combos}
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(raw))
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) doWithKey(t *testing.T, method, path, key string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(raw))
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-API-Key", key)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) ownerToken(t *testing.T, shopID string) string {
	t.Helper()
	token, err := f.tokens.Issue(&auth.Owner{ID: "owner-x", BarbershopID: shopID, Email: "x@example.com"}, time.Now())
	require.NoError(t, err)
	return token
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestCreateCombo(t *testing.T) {
	f := newFixture(t)
	token := f.ownerToken(t, testShopID)

	rec := f.do(t, http.MethodPost, "/api/combos", token, gin.H{
		"nome":          "Corte + Barba",
		"servicoIds":    []string{"svc-corte", "svc-barba"},
		"tipoDesconto":  "absolute",
		"valorDesconto": 10,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decodeJSON[comboResponse](t, rec)
	assert.Equal(t, testShopID, resp.BarbershopID)
	assert.Equal(t, []string{"svc-corte", "svc-barba"}, resp.ServiceIDs)
	assert.InDelta(t, 60.0, resp.OriginalTotal, 1e-9)
	assert.InDelta(t, 50.0, resp.FinalTotal, 1e-9)
	assert.Equal(t, 75, resp.TotalDurationMinutes)
	assert.True(t, resp.Active)
}

func TestCreateComboRequiresAuth(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/combos", "", gin.H{
		"nome":          "Corte + Barba",
		"servicoIds":    []string{"svc-corte", "svc-barba"},
		"tipoDesconto":  "absolute",
		"valorDesconto": 10,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateComboValidation(t *testing.T) {
	f := newFixture(t)
	token := f.ownerToken(t, testShopID)

	tests := []struct {
		name string
		body gin.H
		code int
	}{
		{
			name: "empty name",
			body: gin.H{"nome": "  ", "servicoIds": []string{"svc-corte", "svc-barba"}, "tipoDesconto": "absolute", "valorDesconto": 5},
			code: http.StatusBadRequest,
		},
		{
			name: "too few services",
			body: gin.H{"nome": "Solo", "servicoIds": []string{"svc-corte"}, "tipoDesconto": "absolute", "valorDesconto": 5},
			code: http.StatusUnprocessableEntity,
		},
		{
			name: "unknown discount type",
			body: gin.H{"nome": "Combo", "servicoIds": []string{"svc-corte", "svc-barba"}, "tipoDesconto": "bogus", "valorDesconto": 5},
			code: http.StatusUnprocessableEntity,
		},
		{
			name: "percentage above 100",
			body: gin.H{"nome": "Combo", "servicoIds": []string{"svc-corte", "svc-barba"}, "tipoDesconto": "percentage", "valorDesconto": 150},
			code: http.StatusUnprocessableEntity,
		},
		{
			name: "inactive service",
			body: gin.H{"nome": "Combo", "servicoIds": []string{"svc-corte", "svc-quimica"}, "tipoDesconto": "absolute", "valorDesconto": 5},
			code: http.StatusUnprocessableEntity,
		},
		{
			name: "missing service",
			body: gin.H{"nome": "Combo", "servicoIds": []string{"svc-corte", "svc-nope"}, "tipoDesconto": "absolute", "valorDesconto": 5},
			code: http.StatusUnprocessableEntity,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/api/combos", token, tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())

			body := decodeJSON[errorBody](t, rec)
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestCreateComboDuplicateName(t *testing.T) {
	f := newFixture(t)
	token := f.ownerToken(t, testShopID)

	body := gin.H{
		"nome":          "Pacote",
		"servicoIds":    []string{"svc-corte", "svc-barba"},
		"tipoDesconto":  "percentage",
		"valorDesconto": 15,
	}
	rec := f.do(t, http.MethodPost, "/api/combos", token, body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/combos", token, body)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestUpdateComboTenantIsolation(t *testing.T) {
	f := newFixture(t)
	owner := f.ownerToken(t, testShopID)

	rec := f.do(t, http.MethodPost, "/api/combos", owner, gin.H{
		"nome":          "Pacote",
		"servicoIds":    []string{"svc-corte", "svc-barba"},
		"tipoDesconto":  "absolute",
		"valorDesconto": 10,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeJSON[comboResponse](t, rec)

	intruder := f.ownerToken(t, otherShopID)
	rec = f.do(t, http.MethodPut, "/api/combos/"+created.ID, intruder, gin.H{"nome": "Roubado"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/combos/"+created.ID, intruder, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUpdateComboRecomputesTotals(t *testing.T) {
	f := newFixture(t)
	token := f.ownerToken(t, testShopID)

	rec := f.do(t, http.MethodPost, "/api/combos", token, gin.H{
		"nome":          "Pacote",
		"servicoIds":    []string{"svc-corte", "svc-barba"},
		"tipoDesconto":  "absolute",
		"valorDesconto": 10,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeJSON[comboResponse](t, rec)

	rec = f.do(t, http.MethodPut, "/api/combos/"+created.ID, token, gin.H{
		"tipoDesconto":  "percentage",
		"valorDesconto": 15,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	updated := decodeJSON[comboResponse](t, rec)
	assert.InDelta(t, 60.0, updated.OriginalTotal, 1e-9)
	assert.InDelta(t, 51.0, updated.FinalTotal, 1e-9)
}

func TestGetComboIncludesServices(t *testing.T) {
	f := newFixture(t)
	token := f.ownerToken(t, testShopID)

	rec := f.do(t, http.MethodPost, "/api/combos", token, gin.H{
		"nome":          "Pacote",
		"servicoIds":    []string{"svc-barba", "svc-corte"},
		"tipoDesconto":  "absolute",
		"valorDesconto": 10,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeJSON[comboResponse](t, rec)

	rec = f.do(t, http.MethodGet, "/api/combos/"+created.ID+"?incluirServicos=true", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	got := decodeJSON[comboResponse](t, rec)
	require.Len(t, got.Services, 2)
	assert.Equal(t, "Barba", got.Services[0].Name)
	assert.Equal(t, "Corte", got.Services[1].Name)
}

func TestGetComboNotFound(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/combos/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteCombo(t *testing.T) {
	f := newFixture(t)
	token := f.ownerToken(t, testShopID)

	rec := f.do(t, http.MethodPost, "/api/combos", token, gin.H{
		"nome":          "Pacote",
		"servicoIds":    []string{"svc-corte", "svc-barba"},
		"tipoDesconto":  "absolute",
		"valorDesconto": 10,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeJSON[comboResponse](t, rec)

	rec = f.do(t, http.MethodDelete, "/api/combos/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/combos/"+created.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListCombosFilters(t *testing.T) {
	f := newFixture(t)
	token := f.ownerToken(t, testShopID)

	for i, name := range []string{"Pacote A", "Pacote B"} {
		rec := f.do(t, http.MethodPost, "/api/combos", token, gin.H{
			"nome":          name,
			"servicoIds":    []string{"svc-corte", "svc-barba"},
			"tipoDesconto":  "absolute",
			"valorDesconto": 5 + i,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := f.do(t, http.MethodGet, fmt.Sprintf("/api/combos?barbeariaId=%s", testShopID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	page := decodeJSON[comboPageResponse](t, rec)
	assert.Equal(t, 2, page.Total)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, defaultPageSize, page.PageSize)

	rec = f.do(t, http.MethodGet, "/api/combos?barbeariaId=other", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page = decodeJSON[comboPageResponse](t, rec)
	assert.Zero(t, page.Total)
}
