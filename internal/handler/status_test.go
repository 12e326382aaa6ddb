package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/designdesk/internal/middleware"
	"github.com/openclaw/designdesk/internal/model"
	"github.com/openclaw/designdesk/internal/quota"
	"github.com/openclaw/designdesk/internal/repository"
	"github.com/openclaw/designdesk/internal/service"
)

func newStatusRouter(repo repository.ClientRepository, token string) http.Handler {
	h := NewStatusHandler(service.NewUsageService(repo, quota.DefaultPolicy(testCutoff)))

	r := chi.NewRouter()
	r.Get("/health", h.Health)
	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.NewTokenAuthMiddleware(token).Handler)
		r.Mount("/", h.Routes())
	})
	return r
}

func TestStatusHandler_Health(t *testing.T) {
	router := newStatusRouter(newTestClientRepo(t, map[string]*model.ClientRecord{}), "s3cret")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestStatusHandler_ListClients(t *testing.T) {
	repo := newTestClientRepo(t, map[string]*model.ClientRecord{
		"10": {Name: "Acme", MonthlyQuota: 5, Used: 4},
		"20": {Name: "MCBets", MonthlyQuota: -1},
	})
	router := newStatusRouter(repo, "s3cret")

	t.Run("requires token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/clients", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("lists usage", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/clients", nil)
		req.Header.Set("Authorization", "Bearer s3cret")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var report service.UsageReport
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		require.Len(t, report.Clients, 2)
		assert.Equal(t, "Acme", report.Clients[0].Name)
		assert.Equal(t, "1", report.Clients[0].Remaining)
		assert.Equal(t, "999+", report.Clients[1].Remaining)
	})

	t.Run("listing does not consume quota", func(t *testing.T) {
		assert.Equal(t, 4, loadUsed(t, repo, "10"))
	})
}

func TestStatusHandler_ConfigIntegrityFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clients.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"clients":{"10":{"name":"Acme","monthlyQuota":"five"}}}`), 0o644))
	router := newStatusRouter(repository.NewFileClientRepository(path, -1), "s3cret")

	req := httptest.NewRequest(http.MethodGet, "/v1/clients", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "CONFIG_INTEGRITY", body["code"])

	_, err := repository.NewFileClientRepository(path, -1).Load(context.Background())
	assert.Error(t, err)
}
