package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/skincare-catalog/backend/internal/config"
	"github.com/skincare-catalog/backend/internal/etl"
	"github.com/skincare-catalog/backend/internal/metrics"
	"github.com/skincare-catalog/backend/internal/services"
	"github.com/skincare-catalog/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jobSecret = "route-test-secret"

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	db := testutil.DB(t)
	rdb, _ := testutil.Redis(t)

	cfg := &config.Config{
		Server: config.ServerConfig{Env: "test", CacheTTL: time.Minute},
		ETL:    config.ETLConfig{Workers: 2, MaxReportedFailures: 10, RunLockTTL: time.Minute},
		Auth:   config.AuthConfig{JobSecret: jobSecret},
	}

	app := fiber.New()
	auth, err := SetupRoutes(app, db, rdb, cfg, metrics.NewRegistry())
	require.NoError(t, err)
	t.Cleanup(auth.Close)
	return app
}

func adminToken(t *testing.T) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "crawler",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(jobSecret))
	require.NoError(t, err)
	return "Bearer " + s
}

func do(t *testing.T, app *fiber.App, method, path, body, auth string) (*http.Response, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)
	resp, body := do(t, app, "GET", "/api/v1/health", "", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestIngestRunRecommend(t *testing.T) {
	app := newTestApp(t)
	token := adminToken(t)

	ingest := `{"observations":[
		{"offer_id":"sephora-123","last_seen_at":"2024-05-01T10:00:00Z",
		 "payload":{"brand":{"displayName":"Acme"},"displayName":"Hydra Gel","currentSku":{"variantValue":"50ml","listPrice":"$25.00"},"rating":4.5,"quickLook":{"heading":"for dry, dehydrated skin"}}},
		{"offer_id":"ulta-9","last_seen_at":"2024-05-01T10:00:00Z",
		 "payload":{"name":"Clear Serum","brand":{"name":"Zen"},"pricing":{"listPrice":"$12.00 - $30.00"},"rating":"4.9","description":"x"}},
		{"offer_id":"sephora-bad","payload":"not json at all {"}
	]}`
	resp, body := do(t, app, "POST", "/api/v1/observations", ingest, token)
	require.Equal(t, fiber.StatusAccepted, resp.StatusCode, string(body))
	assert.JSONEq(t, `{"accepted":3}`, string(body))

	resp, body = do(t, app, "GET", "/api/v1/etl/queue", "", token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"unsynced":3}`, string(body))

	resp, body = do(t, app, "POST", "/api/v1/etl/runs", `{"limit":0}`, token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
	var report etl.RunReport
	require.NoError(t, json.Unmarshal(body, &report))
	assert.Equal(t, 3, report.Pulled)
	assert.Equal(t, 2, report.Loaded)
	assert.Equal(t, 1, report.Dropped)
	assert.Equal(t, "sephora-bad", report.Failures[0].OfferID)

	resp, body = do(t, app, "POST", "/api/v1/recommend", `{"conditions":["dryness"]}`, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
	var recs []services.Recommendation
	require.NoError(t, json.Unmarshal(body, &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "acme__hydra-gel__50ml", recs[0].ProductID)
	require.NotNil(t, recs[0].MinPrice)
	assert.InDelta(t, 25.0, *recs[0].MinPrice, 1e-9)

	resp, _ = do(t, app, "GET", "/metrics", "", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app := newTestApp(t)

	resp, _ := do(t, app, "POST", "/api/v1/etl/runs", `{}`, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, _ = do(t, app, "POST", "/api/v1/observations", `{"observations":[]}`, "Bearer nope")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestBadRequests(t *testing.T) {
	app := newTestApp(t)
	token := adminToken(t)

	resp, _ := do(t, app, "POST", "/api/v1/recommend", `{"conditions":[]}`, "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, app, "POST", "/api/v1/recommend", `{"conditions":`, "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, app, "POST", "/api/v1/observations", `{"observations":[]}`, token)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, app, "POST", "/api/v1/observations", `{"observations":[{"offer_id":"nodash","payload":{}}]}`, token)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, app, "POST", "/api/v1/etl/runs", `{"limit":-1}`, token)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
