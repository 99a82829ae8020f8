package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kreciklabs/krecik/internal/certcheck"
	"github.com/kreciklabs/krecik/internal/config"
	"github.com/kreciklabs/krecik/internal/history"
	"github.com/kreciklabs/krecik/internal/logging"
	"github.com/kreciklabs/krecik/internal/notifier"
	"github.com/kreciklabs/krecik/internal/orchestrator"
	"github.com/kreciklabs/krecik/internal/prober"
	"github.com/kreciklabs/krecik/internal/warden"
)

func newTestServer(t *testing.T, checksDir string) *server {
	t.Helper()
	cfg := config.New()
	cfg.Checks.Dir = checksDir
	cfg.History.Dir = t.TempDir()
	cfg.Notifier.StatePath = filepath.Join(t.TempDir(), "state")

	store, err := history.New(cfg.History.Dir)
	require.NoError(t, err)

	gateway := notifier.New(cfg.Notifier.StatePath, notifier.StdoutSink{Writer: os.Stdout})
	w := warden.New(store, gateway)

	return &server{
		cfg:    cfg,
		logger: logging.New("krecikd-test", "error", "json"),
		store:  store,
		warden: w,
		buildOrchestrator: func() *orchestrator.Orchestrator {
			certs := &certcheck.Inspector{}
			pool := prober.NewPool(2, 5_000_000_000)
			return orchestrator.New(certs, pool, store)
		},
	}
}

func TestHandleCheckAllRunsEveryFileInDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "site.json"), []byte(`{"pages":[]}`), 0o644))

	srv := newTestServer(t, filepath.Dir(dir))
	router := newRouter(srv, srv.logger)

	req := httptest.NewRequest(http.MethodGet, "/check/"+filepath.Base(dir), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleCheckOneMissingReturns404(t *testing.T) {
	dir := t.TempDir()
	srv := newTestServer(t, dir)
	router := newRouter(srv, srv.logger)

	req := httptest.NewRequest(http.MethodGet, "/check/x/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleCheckRemoteUnknownSourceReturns404(t *testing.T) {
	srv := newTestServer(t, t.TempDir())
	router := newRouter(srv, srv.logger)

	req := httptest.NewRequest(http.MethodGet, "/check/remote/nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthzReportsAlive(t *testing.T) {
	srv := newTestServer(t, t.TempDir())
	router := newRouter(srv, srv.logger)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "alive", body["status"])
}
