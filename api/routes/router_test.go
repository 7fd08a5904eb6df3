package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pantryline/pantryline-backend/internal/auth"
	"github.com/pantryline/pantryline-backend/internal/docstore"
	"github.com/pantryline/pantryline-backend/internal/items"
	pkgAuth "github.com/pantryline/pantryline-backend/pkg/auth"
	"github.com/pantryline/pantryline-backend/pkg/config"
)

var routerJWTConfig = config.JWTConfig{
	Secret:            "router-test-secret",
	Issuer:            "pantryline-test",
	ExpirationMinutes: 15,
}

type allowAllSessions struct{}

func (allowAllSessions) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type stubAuthService struct{}

func (stubAuthService) Register(ctx context.Context, req auth.RegisterRequest) (*auth.RegisterResponse, error) {
	return &auth.RegisterResponse{}, nil
}

func (stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return &auth.LoginResponse{AccessToken: "a", RefreshToken: "r"}, nil
}

func (stubAuthService) Refresh(ctx context.Context, req auth.RefreshRequest) (*auth.RefreshResponse, error) {
	return &auth.RefreshResponse{AccessToken: "a", RefreshToken: "r"}, nil
}

func (stubAuthService) Logout(ctx context.Context, userID uuid.UUID, accessID string) error {
	return nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	reg, err := items.NewRegistry(items.RegistryParams{Adapter: docstore.NewMemoryAdapter()})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	t.Cleanup(func() { _ = reg.CloseAll() })

	cfg := &config.Config{JWT: routerJWTConfig}
	cfg.App.Env = "dev"

	return NewRouter(RouterParams{
		Config:       cfg,
		Sessions:     allowAllSessions{},
		AuthService:  stubAuthService{},
		ItemRegistry: reg,
	})
}

func mintToken(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(routerJWTConfig, time.Now().UTC(), pkgAuth.AccessTokenPayload{
		UserID: userID,
		Email:  "dana@example.com",
		JTI:    uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func doJSON(t *testing.T, handler http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
	}
	if err := json.Unmarshal(envelope.Data, dest); err != nil {
		t.Fatalf("decode data: %v (%s)", err, rec.Body.String())
	}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v (%s)", err, rec.Body.String())
	}
	return envelope.Error.Code
}

// pollItems retries the list endpoint until the predicate holds; mirror
// visibility trails the write by one push.
func pollItems(t *testing.T, handler http.Handler, token, path string, pred func([]items.Item) bool) []items.Item {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		rec := doJSON(t, handler, http.MethodGet, path, token, nil)
		if rec.Code == http.StatusOK {
			var data struct {
				State string       `json:"state"`
				Items []items.Item `json:"items"`
			}
			decodeData(t, rec, &data)
			if pred(data.Items) {
				return data.Items
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("mirror never reached the expected state")
	return nil
}

func TestRouterRejectsMissingToken(t *testing.T) {
	handler := newTestRouter(t)
	rec := doJSON(t, handler, http.MethodGet, "/api/v1/lists/pantry/items/", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if code := errorCode(t, rec); code != "NOT_AUTHENTICATED" {
		t.Fatalf("error code = %s", code)
	}
}

func TestRouterRejectsUnknownList(t *testing.T) {
	handler := newTestRouter(t)
	token := mintToken(t, uuid.New())
	rec := doJSON(t, handler, http.MethodGet, "/api/v1/lists/freezer/items/", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRouterAddItemRoundTrip(t *testing.T) {
	handler := newTestRouter(t)
	token := mintToken(t, uuid.New())

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/lists/pantry/items/", token, map[string]string{
		"name": "Milk", "amount": "2", "unit": "L", "category": "dairy",
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202 (%s)", rec.Code, rec.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	decodeData(t, rec, &created)
	if created.ID == "" {
		t.Fatal("create must return the assigned id")
	}

	listed := pollItems(t, handler, token, "/api/v1/lists/pantry/items/", func(got []items.Item) bool {
		return len(got) == 1
	})
	if listed[0].ID != created.ID || listed[0].Name != "Milk" || listed[0].Amount != 2 {
		t.Fatalf("mirrored item = %+v", listed[0])
	}
}

func TestRouterDecrementToZeroNeedsDecision(t *testing.T) {
	handler := newTestRouter(t)
	token := mintToken(t, uuid.New())

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/lists/pantry/items/", token, map[string]string{
		"name": "Rice", "amount": "1",
	})
	var created struct {
		ID string `json:"id"`
	}
	decodeData(t, rec, &created)
	pollItems(t, handler, token, "/api/v1/lists/pantry/items/", func(got []items.Item) bool {
		return len(got) == 1
	})

	rec = doJSON(t, handler, http.MethodPost, fmt.Sprintf("/api/v1/lists/pantry/items/%s/decrement", created.ID), token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	var result items.DecrementResult
	decodeData(t, rec, &result)
	if result.Amount != 0 || !result.NeedsDecision {
		t.Fatalf("result = %+v", result)
	}

	// nothing persisted: the mirrored amount is still 1
	listed := pollItems(t, handler, token, "/api/v1/lists/pantry/items/", func(got []items.Item) bool {
		return len(got) == 1
	})
	if listed[0].Amount != 1 {
		t.Fatalf("persisted amount = %d, want 1", listed[0].Amount)
	}
}

func TestRouterMoveItemAcrossLists(t *testing.T) {
	handler := newTestRouter(t)
	token := mintToken(t, uuid.New())

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/lists/pantry/items/", token, map[string]string{
		"name": "Oats", "amount": "2", "unit": "kg", "category": "grains",
	})
	var created struct {
		ID string `json:"id"`
	}
	decodeData(t, rec, &created)
	pollItems(t, handler, token, "/api/v1/lists/pantry/items/", func(got []items.Item) bool {
		return len(got) == 1
	})

	storeID := uuid.NewString()
	rec = doJSON(t, handler, http.MethodPost, fmt.Sprintf("/api/v1/lists/pantry/items/%s/move", created.ID), token, map[string]string{
		"to": "grocery", "store_id": storeID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	var result items.MoveResult
	decodeData(t, rec, &result)
	if result.Outcome != items.MoveFullySucceeded || result.NewID == created.ID || result.NewID == "" {
		t.Fatalf("move result = %+v", result)
	}

	pollItems(t, handler, token, "/api/v1/lists/pantry/items/", func(got []items.Item) bool {
		return len(got) == 0
	})
	grocery := pollItems(t, handler, token, "/api/v1/lists/grocery/items/", func(got []items.Item) bool {
		return len(got) == 1
	})
	if grocery[0].Name != "Oats" || grocery[0].StoreID != storeID || string(grocery[0].Unit) != "count" {
		t.Fatalf("moved item = %+v", grocery[0])
	}
}

func TestRouterListSearchFilter(t *testing.T) {
	handler := newTestRouter(t)
	token := mintToken(t, uuid.New())

	for _, name := range []string{"Whole Milk", "Oat Milk", "Eggs"} {
		doJSON(t, handler, http.MethodPost, "/api/v1/lists/grocery/items/", token, map[string]string{"name": name})
	}
	pollItems(t, handler, token, "/api/v1/lists/grocery/items/", func(got []items.Item) bool {
		return len(got) == 3
	})

	filtered := pollItems(t, handler, token, "/api/v1/lists/grocery/items/?search=milk", func(got []items.Item) bool {
		return len(got) == 2
	})
	for _, item := range filtered {
		if item.Name == "Eggs" {
			t.Fatal("search filter leaked a non-matching item")
		}
	}
}

func TestRouterStoreTags(t *testing.T) {
	handler := newTestRouter(t)
	token := mintToken(t, uuid.New())

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/stores/", token, map[string]string{"name": "corner shop"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	decodeData(t, rec, &created)

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/stores/", token, nil)
	var data struct {
		Stores []items.Store `json:"stores"`
	}
	decodeData(t, rec, &data)
	if len(data.Stores) != 1 || data.Stores[0].ID != created.ID {
		t.Fatalf("stores = %+v", data.Stores)
	}

	rec = doJSON(t, handler, http.MethodDelete, "/api/v1/stores/"+created.ID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestRouterUsersAreIsolated(t *testing.T) {
	handler := newTestRouter(t)
	alice := mintToken(t, uuid.New())
	bob := mintToken(t, uuid.New())

	doJSON(t, handler, http.MethodPost, "/api/v1/lists/pantry/items/", alice, map[string]string{"name": "Salt"})
	pollItems(t, handler, alice, "/api/v1/lists/pantry/items/", func(got []items.Item) bool {
		return len(got) == 1
	})

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/lists/pantry/items/", bob, nil)
	var data struct {
		Items []items.Item `json:"items"`
	}
	decodeData(t, rec, &data)
	if len(data.Items) != 0 {
		t.Fatalf("bob sees alice's items: %+v", data.Items)
	}
}

func TestRouterHealthLive(t *testing.T) {
	handler := newTestRouter(t)
	rec := doJSON(t, handler, http.MethodGet, "/health/live", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
