package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fintrack/internal/analysis"
	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/storage/memory"
)

// staticVerifier maps fixed tokens to user ids.
type staticVerifier map[string]string

func (v staticVerifier) VerifyToken(_ context.Context, token string) (string, error) {
	if userID, ok := v[token]; ok {
		return userID, nil
	}
	return "", core.NewPermission("invalid or expired token")
}

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()

	store := memory.New()
	store.Seed([]core.Category{
		{Name: "Food & Dining", Type: core.Expense, Icon: "🍕"},
		{Name: "Investments", Type: core.Income, Icon: "📈"},
	})

	categories := services.NewCategoryService(store, store)
	transactions := services.NewTransactionService(store, nil)
	engine := analysis.NewEngine(store)
	verifier := staticVerifier{
		"token-anna": "anna",
		"token-bob":  "bob",
	}

	s := NewServer(Config{Addr: ":0", CacheSize: 16, CacheTTL: time.Minute}, categories, transactions, engine, verifier)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})

	return s, store
}

func doJSON(t *testing.T, s *Server, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, decoded
}

func TestServer_Auth(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic abc"},
		{"unknown token", "Bearer nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			s.Server.Handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestServer_HealthEndpointsUnauthenticated(t *testing.T) {
	s, _ := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		s.Server.Handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, rec.Code)
		}
	}
}

func TestServer_CategoryLifecycle(t *testing.T) {
	s, _ := newTestServer(t)

	rec, body := doJSON(t, s, http.MethodPost, "/api/categories", "token-anna", map[string]any{
		"name": "Travel", "type": "expense", "icon": "✈️",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %v", rec.Code, body)
	}
	created := body["category"].(map[string]any)
	id := int64(created["id"].(float64))
	if created["user_id"] != "anna" {
		t.Errorf("user_id = %v, want anna", created["user_id"])
	}

	// Duplicate name+type for the same owner conflicts.
	rec, _ = doJSON(t, s, http.MethodPost, "/api/categories", "token-anna", map[string]any{
		"name": "Travel", "type": "expense",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate create status = %d, want 409", rec.Code)
	}

	// Listing shows shared defaults plus owned categories.
	rec, body = doJSON(t, s, http.MethodGet, "/api/categories", "token-anna", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	if got := len(body["categories"].([]any)); got != 3 {
		t.Errorf("category count = %d, want 3", got)
	}

	// Another user cannot rename it.
	rec, _ = doJSON(t, s, http.MethodPut, fmt.Sprintf("/api/categories/%d", id), "token-bob", map[string]any{
		"name": "Stolen",
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("cross-user update status = %d, want 403", rec.Code)
	}

	rec, body = doJSON(t, s, http.MethodPut, fmt.Sprintf("/api/categories/%d", id), "token-anna", map[string]any{
		"name": "Trips",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %v", rec.Code, body)
	}
	if name := body["category"].(map[string]any)["name"]; name != "Trips" {
		t.Errorf("updated name = %v, want Trips", name)
	}

	rec, _ = doJSON(t, s, http.MethodDelete, fmt.Sprintf("/api/categories/%d", id), "token-anna", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("delete status = %d, want 200", rec.Code)
	}
}

func TestServer_SharedCategoryImmutable(t *testing.T) {
	s, store := newTestServer(t)

	cats, err := store.ListVisibleCategories(context.Background(), "anna")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	shared := cats[0]
	if !shared.Shared() {
		t.Fatalf("expected a shared default, got %+v", shared)
	}

	rec, _ := doJSON(t, s, http.MethodPut, fmt.Sprintf("/api/categories/%d", shared.ID), "token-anna", map[string]any{
		"name": "Mine now",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("shared update status = %d, want 400", rec.Code)
	}

	rec, _ = doJSON(t, s, http.MethodDelete, fmt.Sprintf("/api/categories/%d", shared.ID), "token-anna", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("shared delete status = %d, want 400", rec.Code)
	}
}

func TestServer_CategoryDeleteWithReferences(t *testing.T) {
	s, _ := newTestServer(t)

	_, body := doJSON(t, s, http.MethodPost, "/api/categories", "token-anna", map[string]any{
		"name": "Groceries", "type": "expense",
	})
	catID := int64(body["category"].(map[string]any)["id"].(float64))

	rec, _ := doJSON(t, s, http.MethodPost, "/api/transactions", "token-anna", map[string]any{
		"title": "Milk", "amount": "3.50", "payment_method": "card", "category_id": catID,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create transaction status = %d", rec.Code)
	}

	rec, _ = doJSON(t, s, http.MethodDelete, fmt.Sprintf("/api/categories/%d", catID), "token-anna", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("referenced delete status = %d, want 409", rec.Code)
	}
}

func TestServer_TransactionLifecycle(t *testing.T) {
	s, _ := newTestServer(t)

	_, body := doJSON(t, s, http.MethodPost, "/api/categories", "token-anna", map[string]any{
		"name": "Groceries", "type": "expense",
	})
	catID := int64(body["category"].(map[string]any)["id"].(float64))

	rec, body := doJSON(t, s, http.MethodPost, "/api/transactions", "token-anna", map[string]any{
		"title":          "Milk",
		"amount":         "3.50",
		"payment_method": "card",
		"category_id":    catID,
		"date":           "2024-03-10",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %v", rec.Code, body)
	}
	tx := body["transaction"].(map[string]any)
	txID := int64(tx["id"].(float64))
	if tx["type"] != "expense" {
		t.Errorf("derived type = %v, want expense", tx["type"])
	}
	if tx["date"] != "2024-03-10" {
		t.Errorf("date = %v, want 2024-03-10", tx["date"])
	}

	// Invalid payloads are rejected up front.
	rec, _ = doJSON(t, s, http.MethodPost, "/api/transactions", "token-anna", map[string]any{
		"title": "", "amount": "1.00", "payment_method": "card", "category_id": catID,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("blank title status = %d, want 400", rec.Code)
	}
	rec, _ = doJSON(t, s, http.MethodPost, "/api/transactions", "token-anna", map[string]any{
		"title": "Bad", "amount": "-5", "payment_method": "card", "category_id": catID,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative amount status = %d, want 400", rec.Code)
	}

	// Other users cannot see or touch it.
	rec, _ = doJSON(t, s, http.MethodGet, fmt.Sprintf("/api/transactions/%d", txID), "token-bob", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("cross-user get status = %d, want 404", rec.Code)
	}
	rec, _ = doJSON(t, s, http.MethodDelete, fmt.Sprintf("/api/transactions/%d", txID), "token-bob", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("cross-user delete status = %d, want 404", rec.Code)
	}

	rec, body = doJSON(t, s, http.MethodPut, fmt.Sprintf("/api/transactions/%d", txID), "token-anna", map[string]any{
		"title": "Whole milk", "amount": "4.00",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %v", rec.Code, body)
	}
	if title := body["transaction"].(map[string]any)["title"]; title != "Whole milk" {
		t.Errorf("updated title = %v, want Whole milk", title)
	}

	rec, body = doJSON(t, s, http.MethodGet, "/api/transactions?type=expense", "token-anna", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	if got := len(body["transactions"].([]any)); got != 1 {
		t.Errorf("filtered count = %d, want 1", got)
	}

	rec, body = doJSON(t, s, http.MethodDelete, "/api/transactions/all", "token-anna", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete all status = %d", rec.Code)
	}
	if count := body["deleted_count"].(float64); count != 1 {
		t.Errorf("deleted_count = %v, want 1", count)
	}
}

func TestServer_Totals(t *testing.T) {
	s, _ := newTestServer(t)

	_, body := doJSON(t, s, http.MethodPost, "/api/categories", "token-anna", map[string]any{
		"name": "Groceries", "type": "expense",
	})
	catID := int64(body["category"].(map[string]any)["id"].(float64))

	for _, amount := range []string{"3.50", "10.00"} {
		rec, _ := doJSON(t, s, http.MethodPost, "/api/transactions", "token-anna", map[string]any{
			"title": "Item", "amount": amount, "payment_method": "card",
			"category_id": catID, "date": "2024-03-10",
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("create status = %d", rec.Code)
		}
	}

	rec, body := doJSON(t, s, http.MethodGet, "/api/transactions/totals", "token-anna", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("totals status = %d, body %v", rec.Code, body)
	}
	summary := body["summary"].(map[string]any)
	if expense := summary["total_expense"]; expense != "13.5" {
		t.Errorf("total_expense = %v, want 13.5", expense)
	}
	if count := summary["transaction_count"].(float64); count != 2 {
		t.Errorf("transaction_count = %v, want 2", count)
	}

	// A start-only range still filters.
	rec, body = doJSON(t, s, http.MethodGet, "/api/transactions/totals?start_date=2024-04-01", "token-anna", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("totals status = %d", rec.Code)
	}
	if count := body["summary"].(map[string]any)["transaction_count"].(float64); count != 0 {
		t.Errorf("start-only transaction_count = %v, want 0", count)
	}

	// Another user's ledger is empty.
	rec, body = doJSON(t, s, http.MethodGet, "/api/transactions/totals", "token-bob", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("totals status = %d", rec.Code)
	}
	if count := body["summary"].(map[string]any)["transaction_count"].(float64); count != 0 {
		t.Errorf("bob transaction_count = %v, want 0", count)
	}
}

func TestServer_MonthlySummary(t *testing.T) {
	s, _ := newTestServer(t)

	_, body := doJSON(t, s, http.MethodPost, "/api/categories", "token-anna", map[string]any{
		"name": "Groceries", "type": "expense",
	})
	catID := int64(body["category"].(map[string]any)["id"].(float64))

	for _, date := range []string{"2024-02-29", "2024-03-01"} {
		rec, _ := doJSON(t, s, http.MethodPost, "/api/transactions", "token-anna", map[string]any{
			"title": "Item", "amount": "5.00", "payment_method": "card",
			"category_id": catID, "date": date,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("create status = %d", rec.Code)
		}
	}

	rec, body := doJSON(t, s, http.MethodGet, "/api/transactions/summary/monthly?year=2024&month=2", "token-anna", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary status = %d, body %v", rec.Code, body)
	}
	if count := body["summary"].(map[string]any)["transaction_count"].(float64); count != 1 {
		t.Errorf("february count = %v, want 1", count)
	}

	rec, _ = doJSON(t, s, http.MethodGet, "/api/transactions/summary/monthly?year=2024&month=13", "token-anna", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("month 13 status = %d, want 400", rec.Code)
	}
}

func TestServer_SummaryCacheInvalidation(t *testing.T) {
	s, _ := newTestServer(t)

	_, body := doJSON(t, s, http.MethodPost, "/api/categories", "token-anna", map[string]any{
		"name": "Groceries", "type": "expense",
	})
	catID := int64(body["category"].(map[string]any)["id"].(float64))

	post := func(amount string) {
		rec, _ := doJSON(t, s, http.MethodPost, "/api/transactions", "token-anna", map[string]any{
			"title": "Item", "amount": amount, "payment_method": "card",
			"category_id": catID, "date": "2024-03-10",
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("create status = %d", rec.Code)
		}
	}

	post("3.00")

	// Prime the cache, then mutate the ledger and re-read.
	_, body = doJSON(t, s, http.MethodGet, "/api/transactions/totals", "token-anna", nil)
	if expense := body["summary"].(map[string]any)["total_expense"]; expense != "3" {
		t.Fatalf("total_expense = %v, want 3", expense)
	}

	post("7.00")

	_, body = doJSON(t, s, http.MethodGet, "/api/transactions/totals", "token-anna", nil)
	if expense := body["summary"].(map[string]any)["total_expense"]; expense != "10" {
		t.Errorf("total_expense after mutation = %v, want 10", expense)
	}
}
