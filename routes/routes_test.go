package routes

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"civicsetu-be/config"
	"civicsetu-be/events"
	"civicsetu-be/logger"
	"civicsetu-be/metrics"
	"civicsetu-be/middlewares"
	"civicsetu-be/models"
	"civicsetu-be/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "routes-test-secret"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logger.Init("error", "json", io.Discard)
	os.Exit(m.Run())
}

// newTestRouter wires the router without stores; only routes that fail
// before reaching a store may be exercised.
func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	enforcer, err := middlewares.NewEnforcer()
	require.NoError(t, err)
	hub := events.NewHub(1)
	return SetupRouter(Dependencies{
		Config: &config.Config{
			Env:         "test",
			JWTSecret:   testSecret,
			JWTTTL:      time.Hour,
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Policy:     models.StrictTransitions{},
		Publisher:  hub,
		Subscriber: hub,
		Metrics:    metrics.New(),
		Authz:      middlewares.NewAuthorizer(enforcer),
	})
}

func serve(r *gin.Engine, method, path, role string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		tok, _ := utils.GenerateToken(testSecret, primitive.NewObjectID().Hex(), role, time.Hour)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)

	w := serve(r, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "strict", body["transitions"])
	assert.NotEmpty(t, w.Header().Get(middlewares.RequestIDHeader))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func TestStatusesAndMetrics(t *testing.T) {
	r := newTestRouter(t)

	w := serve(r, http.MethodGet, "/api/statuses", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"reopenTo":"acknowledged"`)

	w = serve(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `civicsetu_http_requests_total{method="GET",route="/api/statuses",status="200"} 1`)
}

func TestProtectedRoutes(t *testing.T) {
	r := newTestRouter(t)
	id := primitive.NewObjectID().Hex()

	tests := []struct {
		method, path, role string
		want               int
	}{
		{http.MethodPost, "/api/reports", "", http.StatusUnauthorized},
		{http.MethodGet, "/api/reports/my-reports", "", http.StatusUnauthorized},
		{http.MethodGet, "/api/reports/events", "", http.StatusUnauthorized},
		{http.MethodPatch, "/api/reports/" + id + "/status", "", http.StatusUnauthorized},
		{http.MethodPatch, "/api/reports/" + id + "/status", "citizen", http.StatusForbidden},
		{http.MethodPost, "/api/reports/" + id + "/assign", "staff", http.StatusForbidden},
		{http.MethodPost, "/api/reports/" + id + "/reopen", "staff", http.StatusForbidden},
		{http.MethodDelete, "/api/reports/" + id, "supervisor", http.StatusForbidden},
		{http.MethodGet, "/api/admin/dashboard", "staff", http.StatusForbidden},
		{http.MethodPost, "/api/admin/staff", "supervisor", http.StatusForbidden},
		{http.MethodGet, "/api/users", "citizen", http.StatusForbidden},
		{http.MethodGet, "/api/auth/me", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path+" as "+tt.role, func(t *testing.T) {
			w := serve(r, tt.method, tt.path, tt.role)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/reports", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestNoRoute(t *testing.T) {
	r := newTestRouter(t)

	w := serve(r, http.MethodGet, "/api/nothing-here", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Route not found")
}
