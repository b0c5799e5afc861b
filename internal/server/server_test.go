package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sirsalvo/easyreceipts/internal/artifacts"
	"github.com/sirsalvo/easyreceipts/internal/categories"
	"github.com/sirsalvo/easyreceipts/internal/export"
	"github.com/sirsalvo/easyreceipts/internal/receipts"
	"github.com/sirsalvo/easyreceipts/internal/repository"
)

const (
	testJWTSecret     = "test-jwt-secret"
	testSigningSecret = "test-signing-secret"
)

type testEnv struct {
	handler http.Handler
	signer  *artifacts.Signer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := repository.Open(context.Background(), repository.Config{DSN: ":memory:"}, logger)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close(logger) })
	if err := repository.Migrate(context.Background(), db, logger); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	signer := artifacts.NewSigner(testSigningSecret, "http://localhost")
	store, err := artifacts.NewLocalStore(t.TempDir(), signer, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	receiptRepo := repository.NewReceiptRepository(db, logger)
	categoryRepo := repository.NewCategoryRepository(db, logger)

	srv := New(
		receipts.NewService(receiptRepo, store, 15*time.Minute, logger),
		categories.NewService(categoryRepo, logger),
		export.NewService(receiptRepo, logger),
		store,
		signer,
		db,
		testJWTSecret,
		logger,
	)
	return &testEnv{handler: srv.Handler(), signer: signer}
}

func bearerToken(t *testing.T, ownerID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   ownerID,
		"email": ownerID + "@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + signed
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/receipts", "/categories"} {
		rec := env.do(t, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s without token: status = %d, want 401", path, rec.Code)
		}
		body := decodeMap(t, rec)
		if body["error"] != "unauthorized" {
			t.Errorf("GET %s error = %v", path, body["error"])
		}
	}

	rec := env.do(t, http.MethodGet, "/receipts", "Bearer not-a-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("garbage token: status = %d, want 401", rec.Code)
	}
}

func TestReceiptLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	token := bearerToken(t, "owner-1")

	// create
	rec := env.do(t, http.MethodPost, "/receipts", token, map[string]any{"contentType": "image/png"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d body = %s", rec.Code, rec.Body.String())
	}
	created := decodeMap(t, rec)
	receiptID, _ := created["receiptId"].(string)
	uploadURL, _ := created["uploadUrl"].(string)
	if receiptID == "" || uploadURL == "" {
		t.Fatalf("create response incomplete: %v", created)
	}

	// upload the original through the signed URL
	u := strings.TrimPrefix(uploadURL, "http://localhost")
	uploadReq := httptest.NewRequest(http.MethodPut, u, bytes.NewReader([]byte("image-bytes")))
	uploadRec := httptest.NewRecorder()
	env.handler.ServeHTTP(uploadRec, uploadReq)
	if uploadRec.Code != http.StatusOK {
		t.Fatalf("upload: status = %d body = %s", uploadRec.Code, uploadRec.Body.String())
	}

	// read it back
	rec = env.do(t, http.MethodGet, "/receipts/"+receiptID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status = %d body = %s", rec.Code, rec.Body.String())
	}
	view := decodeMap(t, rec)
	if view["status"] != "NEW" {
		t.Errorf("status = %v, want NEW", view["status"])
	}

	// list shows it
	rec = env.do(t, http.MethodGet, "/receipts", token, nil)
	list := decodeMap(t, rec)
	if list["count"] != float64(1) {
		t.Errorf("count = %v, want 1", list["count"])
	}

	// confirm without required fields fails with the missing list
	rec = env.do(t, http.MethodPut, "/receipts/"+receiptID, token, map[string]any{"status": "CONFIRMED"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("confirm: status = %d, want 400", rec.Code)
	}
	failure := decodeMap(t, rec)
	if failure["error"] != "validation_error" {
		t.Errorf("error = %v", failure["error"])
	}
	if missing, _ := failure["missing"].([]any); len(missing) != 3 {
		t.Errorf("missing = %v, want payee date total", failure["missing"])
	}

	// fill in the fields and confirm
	rec = env.do(t, http.MethodPut, "/receipts/"+receiptID, token, map[string]any{
		"status": "CONFIRMED",
		"payee":  "Coop",
		"date":   "05-03-2024",
		"amount": "€ 12,50",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("confirm: status = %d body = %s", rec.Code, rec.Body.String())
	}
	confirmed := decodeMap(t, rec)
	if confirmed["status"] != "CONFIRMED" || confirmed["total"] != "12.5" || confirmed["date"] != "2024-03-05" {
		t.Errorf("confirmed view = %v", confirmed)
	}

	// a confirmed receipt cannot be edited or deleted
	rec = env.do(t, http.MethodPut, "/receipts/"+receiptID, token, map[string]any{"payee": "Else"})
	if rec.Code != http.StatusConflict {
		t.Errorf("edit confirmed: status = %d, want 409", rec.Code)
	}
	rec = env.do(t, http.MethodDelete, "/receipts/"+receiptID, token, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("delete confirmed: status = %d, want 409", rec.Code)
	}
}

func TestYNABMarkerOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	token := bearerToken(t, "owner-1")

	rec := env.do(t, http.MethodPost, "/receipts", token, nil)
	receiptID := decodeMap(t, rec)["receiptId"].(string)

	rec = env.do(t, http.MethodPut, "/receipts/"+receiptID, token, map[string]any{"ynabExportedAt": "2024-03-10T12:00:00Z"})
	if rec.Code != http.StatusOK {
		t.Fatalf("set marker: status = %d body = %s", rec.Code, rec.Body.String())
	}
	if got := decodeMap(t, rec)["ynabExportedAt"]; got != "2024-03-10T12:00:00Z" {
		t.Fatalf("marker = %v", got)
	}

	// an empty string clears the marker just like an explicit null
	rec = env.do(t, http.MethodPut, "/receipts/"+receiptID, token, map[string]any{"ynabExportedAt": ""})
	if rec.Code != http.StatusOK {
		t.Fatalf("clear with empty string: status = %d body = %s", rec.Code, rec.Body.String())
	}
	if got := decodeMap(t, rec)["ynabExportedAt"]; got != nil {
		t.Errorf("marker after empty-string clear = %v, want null", got)
	}
}

func TestDeleteReceiptOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	token := bearerToken(t, "owner-1")

	rec := env.do(t, http.MethodPost, "/receipts", token, nil)
	created := decodeMap(t, rec)
	receiptID := created["receiptId"].(string)

	rec = env.do(t, http.MethodDelete, "/receipts/"+receiptID, token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status = %d", rec.Code)
	}
	rec = env.do(t, http.MethodDelete, "/receipts/"+receiptID, token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete: status = %d, want 404", rec.Code)
	}
}

func TestOwnersAreIsolated(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/receipts", bearerToken(t, "owner-1"), nil)
	receiptID := decodeMap(t, rec)["receiptId"].(string)

	rec = env.do(t, http.MethodGet, "/receipts/"+receiptID, bearerToken(t, "owner-2"), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("cross-owner get: status = %d, want 404", rec.Code)
	}
}

func TestCategoriesOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	token := bearerToken(t, "owner-1")

	rec := env.do(t, http.MethodGet, "/categories", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status = %d", rec.Code)
	}
	defaults := decodeMap(t, rec)["categories"].([]any)
	if len(defaults) != len(categories.DefaultCategories) {
		t.Errorf("got %d default categories", len(defaults))
	}

	rec = env.do(t, http.MethodPost, "/categories", token, map[string]any{"name": "Pets"})
	if rec.Code != http.StatusOK {
		t.Fatalf("add: status = %d body = %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPut, "/categories", token, map[string]any{"categories": []string{" Food ", "food", "Travel"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("replace: status = %d", rec.Code)
	}
	stored := decodeMap(t, rec)["categories"].([]any)
	if len(stored) != 2 || stored[0] != "Food" {
		t.Errorf("stored = %v", stored)
	}

	// "items" is accepted as an alias for the list key
	rec = env.do(t, http.MethodPut, "/categories", token, map[string]any{"items": []string{"Garden", "Tools"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("replace via items: status = %d body = %s", rec.Code, rec.Body.String())
	}
	stored = decodeMap(t, rec)["categories"].([]any)
	if len(stored) != 2 || stored[0] != "Garden" || stored[1] != "Tools" {
		t.Errorf("stored via items = %v", stored)
	}
}

func TestExportOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	token := bearerToken(t, "owner-1")

	rec := env.do(t, http.MethodGet, "/receipts/export", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export: status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("content type = %q", ct)
	}
	if rec.Body.Len() == 0 {
		t.Error("empty workbook body")
	}
}

func TestArtifactSignatureIsEnforced(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/artifacts/original/owner-1/r-1?exp=9999999999&sig=bogus", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bogus signature: status = %d, want 401", rec.Code)
	}
}
