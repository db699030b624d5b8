//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestSearchBarbershops(t *testing.T) {
	resp := doGet(t, "/api/barbearias?busca=navalha")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	page := decodeJSON[barbershopPage](t, resp)
	if page.Total < 1 {
		t.Fatalf("expected at least one shop, got %d", page.Total)
	}
}

func TestCreateBarbershop_NoKey(t *testing.T) {
	resp := doPost(t, "/api/barbearias", map[string]any{"nome": uniqueName("Sem Chave")})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestCreateBarbershop_InvalidKey(t *testing.T) {
	resp := doJSON(t, http.MethodPost, "/api/barbearias",
		map[string]any{"nome": uniqueName("Chave Errada")},
		map[string]string{"X-API-Key": "wrong-key"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestBarbershopAdminLifecycle(t *testing.T) {
	headers := map[string]string{"X-API-Key": testAPIKey}
	name := uniqueName("Tesoura de Prata")

	resp := doJSON(t, http.MethodPost, "/api/barbearias",
		map[string]any{"nome": name, "cidade": "Curitiba"}, headers)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", resp.StatusCode)
	}
	created := decodeJSON[barbershopResponse](t, resp)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPut, "/api/barbearias/"+created.ID,
		map[string]any{"cidade": "Londrina"}, headers)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", resp.StatusCode)
	}
	updated := decodeJSON[barbershopResponse](t, resp)
	resp.Body.Close()
	if updated.City != "Londrina" {
		t.Errorf("city: got %q, want Londrina", updated.City)
	}

	resp = doJSON(t, http.MethodDelete, "/api/barbearias/"+created.ID, nil, headers)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", resp.StatusCode)
	}

	// Soft delete: the shop stays readable by id but leaves the directory.
	resp = doGet(t, "/api/barbearias/" + created.ID)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get after delete: expected 200, got %d", resp.StatusCode)
	}
	got := decodeJSON[barbershopResponse](t, resp)
	if got.Active {
		t.Error("shop still active after delete")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	resp := doPost(t, "/api/auth/login", map[string]string{
		"email": ownerEmail,
		"senha": "wrong",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}
