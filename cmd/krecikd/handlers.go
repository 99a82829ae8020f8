package main

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"

	"github.com/kreciklabs/krecik/internal/check"
	"github.com/kreciklabs/krecik/internal/checkfile"
	"github.com/kreciklabs/krecik/internal/config"
	"github.com/kreciklabs/krecik/internal/history"
	"github.com/kreciklabs/krecik/internal/logging"
	"github.com/kreciklabs/krecik/internal/notifier"
	"github.com/kreciklabs/krecik/internal/orchestrator"
	"github.com/kreciklabs/krecik/internal/remoteinventory"
	"github.com/kreciklabs/krecik/internal/story"
	"github.com/kreciklabs/krecik/internal/warden"
)

// server holds the front end's wiring. buildOrchestrator returns a fresh
// Orchestrator per request since the Prober's worker pool is cheap to
// construct and this keeps the server free of shared mutable client state.
type server struct {
	cfg               *config.Config
	logger            *logging.Logger
	store             *history.Store
	warden            *warden.Warden
	buildOrchestrator func() *orchestrator.Orchestrator
}

func (s *server) handleCheckAll(w http.ResponseWriter, r *http.Request) {
	path := mux.Vars(r)["path"]
	dir := filepath.Join(s.cfg.Checks.Dir, path)

	loaded, problems := checkfile.LoadDir(dir)
	checks := make([]check.Check, len(loaded))
	for i, l := range loaded {
		checks[i] = l.Check
	}

	s.runAndRespond(w, r, checks, problems)
}

func (s *server) handleCheckOne(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	dir := filepath.Join(s.cfg.Checks.Dir, vars["path"])

	c, err := checkfile.LoadOne(dir, vars["name"])
	if err != nil {
		writeJSONError(w, http.StatusNotFound, err)
		return
	}

	s.runAndRespond(w, r, []check.Check{c}, nil)
}

func (s *server) handleCheckRemote(w http.ResponseWriter, r *http.Request) {
	path := mux.Vars(r)["path"]

	var source *config.RemoteSource
	for i := range s.cfg.Checks.Remotes {
		if s.cfg.Checks.Remotes[i].Name == path {
			source = &s.cfg.Checks.Remotes[i]
			break
		}
	}
	if source == nil {
		http.Error(w, "unknown remote source", http.StatusNotFound)
		return
	}

	entries, err := remoteinventory.Fetch(r.Context(), http.DefaultClient, source.URL)
	if err != nil {
		writeJSONError(w, http.StatusBadGateway, err)
		return
	}

	c := remoteinventory.ToCheck(path, source.Notifier, entries)
	s.runAndRespond(w, r, []check.Check{c}, nil)
}

func (s *server) runAndRespond(w http.ResponseWriter, r *http.Request, checks []check.Check, preStories story.Stories) {
	orch := s.buildOrchestrator()
	stories, err := orch.Run(r.Context(), checks)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err)
		return
	}

	combined := append(story.Stories{}, preStories...)
	combined = append(combined, stories...)

	errCount := 0
	for _, st := range combined {
		if st.IsError() {
			errCount++
		}
	}
	s.logger.LogRun(r.Context(), "", len(combined), errCount, 0)

	if err := s.warden.Run(r.Context()); err != nil {
		s.logger.WithError(err).Warn("warden reconciliation failed")
	}

	writeJSON(w, http.StatusOK, combined)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func sinkFromConfig(cfg *config.Config) notifier.Sink {
	if cfg.Notifier.WebhookURL != "" {
		return notifier.NewWebhookSink(cfg.Notifier.WebhookURL)
	}
	return notifier.StdoutSink{Writer: os.Stdout}
}

func redisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: cfg.Lock.RedisAddr})
}
