package api

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"

	"github.com/event-registry/event-registry/internal/config"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Setenv("EVR_JWT_SECRET", "test-secret-for-router-tests-0123456789ab")
	os.Exit(m.Run())
}

// testRouterConfig returns a config that uses local storage in a temp dir.
func testRouterConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{
			Host:    "127.0.0.1",
			Port:    8080,
			BaseURL: "http://localhost:8080",
		},
		Storage: config.StorageConfig{
			DefaultBackend: "local",
			Local: config.LocalStorageConfig{
				BasePath:      t.TempDir(),
				ServeDirectly: true,
			},
		},
		Auth: config.AuthConfig{
			AdminUsername:     "admin",
			AdminPasswordHash: "$2a$10$abcdefghijklmnopqrstuvwxyz012345678901234567890123456",
			TokenExpiry:       time.Hour,
		},
		Event: config.EventConfig{
			TotalSeats:          100,
			MaxScreenshotSizeMB: 5,
		},
		Security: config.SecurityConfig{
			CORS: config.CORSConfig{AllowedOrigins: []string{"*"}},
		},
		Logging: config.LoggingConfig{Level: "info", Format: "json"},
	}
}

func newTestRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatal("sqlmock.New:", err)
	}
	t.Cleanup(func() { db.Close() })

	router, services, err := NewRouter(testRouterConfig(t), db)
	if err != nil {
		t.Fatal("NewRouter:", err)
	}
	t.Cleanup(services.Stop)

	return router, mock
}

func doRequest(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	r.ServeHTTP(w, req)
	return w
}

// ---------------------------------------------------------------------------
// Operational endpoints
// ---------------------------------------------------------------------------

func TestHealthEndpoint(t *testing.T) {
	r, mock := newTestRouter(t)
	mock.ExpectPing()

	w := doRequest(r, http.MethodGet, "/health")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}
}

func TestHealthEndpoint_DBDown(t *testing.T) {
	r, mock := newTestRouter(t)
	mock.ExpectPing().WillReturnError(os.ErrDeadlineExceeded)

	w := doRequest(r, http.MethodGet, "/health")

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}

func TestReadyEndpoint(t *testing.T) {
	r, mock := newTestRouter(t)
	mock.ExpectPing()

	w := doRequest(r, http.MethodGet, "/ready")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}
}

func TestVersionEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doRequest(r, http.MethodGet, "/version")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if body := w.Body.String(); body == "" {
		t.Error("version body is empty")
	}
}

// ---------------------------------------------------------------------------
// Route wiring
// ---------------------------------------------------------------------------

func TestAdminRoutesRequireToken(t *testing.T) {
	r, _ := newTestRouter(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/admin/registrations"},
		{http.MethodGet, "/api/admin/registrations/some-id/screenshot"},
		{http.MethodDelete, "/api/admin/registrations/some-id"},
		{http.MethodPost, "/api/admin/leaderboard"},
		{http.MethodGet, "/api/admin/export/registrations"},
		{http.MethodGet, "/api/admin/export/leaderboard"},
	}

	for _, p := range paths {
		w := doRequest(r, p.method, p.path)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without token: status = %d, want 401", p.method, p.path, w.Code)
		}
	}
}

func TestPublicRoutesDoNotRequireToken(t *testing.T) {
	r, mock := newTestRouter(t)

	// /api/stats hits the database; a count row keeps it on the happy path.
	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	w := doRequest(r, http.MethodGet, "/api/stats")
	if w.Code != http.StatusOK {
		t.Errorf("GET /api/stats: status = %d, want 200", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/register", nil)
	req.Header.Set("Origin", "http://event-frontend.example.com")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doRequest(r, http.MethodGet, "/version")

	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
}

func TestRequestIDHeaderSet(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doRequest(r, http.MethodGet, "/version")

	if w.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}
}

func TestUnknownRoute404(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doRequest(r, http.MethodGet, "/api/no-such-route")

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}
