package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/clinicdesk/internal/config"
	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/internal/platform/blobstore"
	"github.com/clinicdesk/clinicdesk/internal/platform/db"
	"github.com/clinicdesk/clinicdesk/internal/platform/metrics"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:            "test",
		JWTSecret:      "0123456789abcdef0123456789abcdef",
		JWTIssuer:      "clinicdesk",
		AccessTokenTTL: time.Hour,
		CORSOrigins:    []string{"http://app.test"},
		RateLimitRPS:   100,
		RateLimitBurst: 100,
		RequestTimeout: 5 * time.Second,
		BlobBackend:    "memory",
	}
}

type testRouter struct {
	e        *echo.Echo
	tokens   *auth.TokenManager
	denylist *auth.Denylist
}

func newTestRouter(t *testing.T) *testRouter {
	t.Helper()
	cfg := testConfig()
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTokenTTL)
	denylist := auth.NewDenylist(time.Minute)
	t.Cleanup(denylist.Close)

	e, api, authGroup := newRouter(cfg, tokens, denylist, metrics.NewCollector("test"), zerolog.Nop())
	api.GET("/whoami", func(c echo.Context) error {
		owner, err := auth.OwnerID(c)
		if err != nil {
			return err
		}
		return c.String(http.StatusOK, owner.String())
	})
	authGroup.POST("/login", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})
	return &testRouter{e: e, tokens: tokens, denylist: denylist}
}

func (r *testRouter) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.e.ServeHTTP(rec, req)
	return rec
}

func TestRouter_PublicEndpoints(t *testing.T) {
	r := newTestRouter(t)

	rec := r.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = r.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = r.do(httptest.NewRequest(http.MethodPost, "/auth/login", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRouter_APIRequiresToken(t *testing.T) {
	r := newTestRouter(t)

	rec := r.do(httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	owner := uuid.New()
	tok, err := r.tokens.Issue(owner, "dr@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok.AccessToken)
	rec = r.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, owner.String(), rec.Body.String())
}

func TestRouter_RevokedTokenRejected(t *testing.T) {
	r := newTestRouter(t)

	tok, err := r.tokens.Issue(uuid.New(), "dr@example.com")
	require.NoError(t, err)
	claims, err := r.tokens.Verify(tok.AccessToken)
	require.NoError(t, err)
	r.denylist.Revoke(claims.ID, claims.ExpiresAt.Time)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, r.do(req).Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/whoami", nil)
	req.Header.Set(echo.HeaderOrigin, "http://app.test")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodGet)
	rec := r.do(req)
	assert.Equal(t, "http://app.test", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}

func TestOpenBlobStore(t *testing.T) {
	cfg := testConfig()

	s, closeFn, err := openBlobStore(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &blobstore.MemoryStore{}, s)
	assert.NoError(t, closeFn())

	cfg.BlobBackend = "bolt"
	cfg.BlobBoltPath = filepath.Join(t.TempDir(), "blobs.db")
	s, closeFn, err = openBlobStore(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &blobstore.BoltStore{}, s)
	assert.NoError(t, closeFn())

	cfg.BlobBackend = "s3"
	_, _, err = openBlobStore(cfg, nil)
	assert.Error(t, err)
}

func TestMigrationSource(t *testing.T) {
	m := db.NewMigrator(nil, migrationSource(""))
	embedded, err := m.LoadMigrations()
	require.NoError(t, err)
	assert.NotEmpty(t, embedded)

	dir := t.TempDir()
	m = db.NewMigrator(nil, migrationSource(dir))
	none, err := m.LoadMigrations()
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPrintStatuses(t *testing.T) {
	applied := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	var buf bytes.Buffer
	printStatuses(&buf, []db.MigrationStatus{
		{Version: 1, Name: "accounts", Applied: true, AppliedAt: &applied},
		{Version: 2, Name: "profiles"},
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "VERSION")
	assert.Contains(t, lines[2], "applied")
	assert.Contains(t, lines[2], "2024-05-01 09:30:00")
	assert.Contains(t, lines[3], "pending")
}
