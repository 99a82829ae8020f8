// Command krecikd runs the HTTP front end that triggers krecik check runs:
// GET /check/{path}, GET /check/{path}/{name}, and GET /check/remote/{path}.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/kreciklabs/krecik/internal/certcheck"
	"github.com/kreciklabs/krecik/internal/config"
	"github.com/kreciklabs/krecik/internal/history"
	"github.com/kreciklabs/krecik/internal/logging"
	"github.com/kreciklabs/krecik/internal/middleware"
	"github.com/kreciklabs/krecik/internal/notifier"
	"github.com/kreciklabs/krecik/internal/orchestrator"
	"github.com/kreciklabs/krecik/internal/prober"
	"github.com/kreciklabs/krecik/internal/warden"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal: load config:", err)
		os.Exit(1)
	}

	logLevel := cfg.Logging.Level
	if truthy(os.Getenv("DEBUG")) {
		logLevel = "debug"
	}
	logger := logging.New("krecikd", logLevel, cfg.Logging.Format)

	store, err := history.New(cfg.History.Dir)
	if err != nil {
		logger.Fatal(ctx, "fatal: init history store", err)
	}

	sink := sinkFromConfig(cfg)
	gateway := notifier.New(cfg.Notifier.StatePath, sink)

	w := warden.New(store, gateway)
	w.ValidateCount = cfg.History.ValidateCount
	w.KeepCount = cfg.History.KeepCount
	if cfg.Lock.RedisAddr != "" {
		w.Lock = warden.NewRedisLock(redisClient(cfg), cfg.Lock.RedisKey, cfg.Lock.TTL)
	}

	srv := &server{
		cfg:    cfg,
		logger: logger,
		store:  store,
		warden: w,
		buildOrchestrator: func() *orchestrator.Orchestrator {
			certs := certcheck.New(cfg.Prober.CertTimeout)
			pool := prober.NewPool(cfg.Prober.PoolSize, cfg.Prober.CheckTimeout)
			return orchestrator.New(certs, pool, store)
		},
	}

	router := newRouter(srv, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		logger.WithFields(map[string]interface{}{"addr": addr}).Info("krecikd listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "fatal: serve http", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	httpServer.Shutdown(shutdownCtx)
}

func newRouter(srv *server, logger *logging.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.Logging(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS(middleware.CORSConfig{AllowedOrigins: []string{"*"}}))
	router.Use(middleware.Timeout(45 * time.Second))

	router.HandleFunc("/check/remote/{path}", srv.handleCheckRemote).Methods(http.MethodGet)
	router.HandleFunc("/check/{path}/{name}", srv.handleCheckOne).Methods(http.MethodGet)
	router.HandleFunc("/check/{path}", srv.handleCheckAll).Methods(http.MethodGet)

	health := middleware.NewHealthChecker(checkProductVersion())
	router.HandleFunc("/healthz", health.LivenessHandler()).Methods(http.MethodGet)
	router.HandleFunc("/status", middleware.StatusHandler()).Methods(http.MethodGet)

	return router
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y":
		return true
	default:
		return false
	}
}

func checkProductVersion() string {
	return "2.0"
}
