package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateService(t *testing.T) {
	f := newFixture(t)
	token := f.ownerToken(t, testShopID)

	rec := f.do(t, http.MethodPost, "/api/servicos", token, gin.H{
		"nome":           "Luzes",
		"preco":          120.505,
		"duracaoMinutos": 60,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decodeJSON[serviceResponse](t, rec)
	assert.Equal(t, testShopID, resp.BarbershopID)
	assert.InDelta(t, 120.50, resp.Price, 1e-9)
	assert.True(t, resp.Active)
}

func TestCreateServiceValidation(t *testing.T) {
	f := newFixture(t)
	token := f.ownerToken(t, testShopID)

	tests := []struct {
		name string
		body gin.H
		code int
	}{
		{name: "empty name", body: gin.H{"nome": " ", "preco": 10, "duracaoMinutos": 30}, code: http.StatusBadRequest},
		{name: "negative price", body: gin.H{"nome": "Luzes", "preco": -1, "duracaoMinutos": 30}, code: http.StatusUnprocessableEntity},
		{name: "zero duration", body: gin.H{"nome": "Luzes", "preco": 10, "duracaoMinutos": 0}, code: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/api/servicos", token, tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
		})
	}
}

func TestUpdateServiceTenantIsolation(t *testing.T) {
	f := newFixture(t)
	intruder := f.ownerToken(t, otherShopID)

	rec := f.do(t, http.MethodPut, "/api/servicos/svc-corte", intruder, gin.H{"preco": 1})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUpdateServiceDoesNotTouchCombos(t *testing.T) {
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

	rec = f.do(t, http.MethodPut, "/api/servicos/svc-corte", token, gin.H{"preco": 99})
	require.Equal(t, http.StatusOK, rec.Code)

	// Stored combo totals reflect the price at combo creation time.
	rec = f.do(t, http.MethodGet, "/api/combos/"+created.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeJSON[comboResponse](t, rec)
	assert.InDelta(t, 60.0, got.OriginalTotal, 1e-9)
	assert.InDelta(t, 50.0, got.FinalTotal, 1e-9)
}

func TestListServicesRequiresShop(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/servicos", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/servicos?barbeariaId="+testShopID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decodeJSON[servicePageResponse](t, rec)
	assert.Equal(t, 3, page.Total)

	rec = f.do(t, http.MethodGet, "/api/servicos?barbeariaId="+testShopID+"&ativo=true", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page = decodeJSON[servicePageResponse](t, rec)
	assert.Equal(t, 2, page.Total)
}
