package main

import (
	"bufio"
	"context"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"warelay/internal/api"
	"warelay/internal/buildinfo"
	"warelay/internal/config"
	"warelay/internal/hooks"
	"warelay/internal/metrics"
	"warelay/internal/source"
	"warelay/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()
	st, err := openStore(cfg)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()
	if err := st.Init(ctx); err != nil {
		log.Fatalf("failed to init store: %v", err)
	}

	metrics.RegisterDefault()

	dispatcher := hooks.NewDispatcher(st)
	dispatcher.Timeout = cfg.DeliveryTimeout
	if cfg.RateRPS > 0 {
		dispatcher.Limiter = rate.NewLimiter(rate.Limit(cfg.RateRPS), cfg.RateBurst)
	}
	feed := api.NewFeed()
	dispatcher.OnResult = feed.Publish

	srv := &api.Server{
		Store:     st,
		Feed:      feed,
		APIKey:    cfg.APIKey,
		Events:    cfg.Events,
		BreakChar: cfg.BreakChar,
	}

	if cfg.BridgeURL != "" {
		bridge, err := source.NewBridge(cfg.BridgeURL, cfg.APIKey, cfg.RedisURL, cfg.EventChannel)
		if err != nil {
			log.Fatalf("failed to connect bridge: %v", err)
		}
		srv.Source = bridge
		srv.Status = bridge.Session().Status
		go func() {
			if err := bridge.Listen(ctx, dispatcher.Dispatch); err != nil {
				log.Fatalf("bridge listener stopped: %v", err)
			}
		}()
	} else {
		log.Printf("BRIDGE_URL not set; running registry-only (no event intake)")
	}

	mux := srv.Routes()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           logMiddleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("relay %s listening on %s", buildinfo.Version, cfg.Addr)
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

// openStore picks the backend: Postgres when DATABASE_URL is set, SQLite
// when SQLITE_PATH is set, otherwise in-memory with a warning.
func openStore(cfg config.Config) (store.Store, error) {
	switch {
	case cfg.DatabaseURL != "":
		return store.NewPostgres(cfg.DatabaseURL)
	case cfg.SQLitePath != "":
		return store.NewSQLite(cfg.SQLitePath)
	default:
		log.Printf("no DATABASE_URL or SQLITE_PATH; webhooks will not survive restarts")
		return store.NewMemory(), nil
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack keeps websocket upgrades working through the middleware.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	return h.Hijack()
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		dur := time.Since(start)
		status := strconv.Itoa(rec.status)
		metrics.HTTPRequests.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		metrics.HTTPDuration.WithLabelValues(r.Method, r.URL.Path, status).Observe(dur.Seconds())
		log.Printf("%s %s %s %d %v", r.RemoteAddr, r.Method, r.URL.Path, rec.status, dur)
	})
}
