// findmygig scan-service
//
// Scans job boards on behalf of each user, reconciles postings into scored
// tickets and delivers email alerts and daily digests. Exposes a REST API
// used by the Gateway to implement:
//   - /cron/scan-jobs                     full scan-and-digest cycle
//   - /tickets, /tickets/{id}             ticket workflow
//   - /tickets/{id}/generate-artifacts    tailored CV + cover letter
//   - /artifacts/{id}/download            document delivery
//   - /preferences, /settings/scan-config scan targeting
//   - /cv, /insights                      resume upload, dashboard stats
//
// Publishes EVENT_TICKET_UPDATED to Redis for Gateway SSE forward.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"findmygig/scan-service/internal/artifact"
	"findmygig/scan-service/internal/config"
	"findmygig/scan-service/internal/cronjob"
	"findmygig/scan-service/internal/cvparse"
	"findmygig/scan-service/internal/db"
	"findmygig/scan-service/internal/insights"
	"findmygig/scan-service/internal/llm"
	"findmygig/scan-service/internal/metrics"
	"findmygig/scan-service/internal/notify"
	"findmygig/scan-service/internal/prefs"
	"findmygig/scan-service/internal/scanner"
	"findmygig/scan-service/internal/scheduler"
	"findmygig/scan-service/internal/store"
	"findmygig/scan-service/internal/ticket"
)

const version = "1.0.0"

const defaultTimezone = "Asia/Jerusalem"

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[scan-service] Config error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── PostgreSQL ───────────────────────────────────────────────────────────
	log.Println("[scan-service] Connecting to PostgreSQL…")
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[scan-service] PostgreSQL: %v", err)
	}
	defer pool.Close()
	log.Println("[scan-service] PostgreSQL connected ✓")

	// ── Redis ────────────────────────────────────────────────────────────────
	log.Println("[scan-service] Connecting to Redis…")
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("[scan-service] Redis: %v", err)
	}
	defer rdb.Close()
	log.Println("[scan-service] Redis connected ✓")

	metrics.MustRegister(prometheus.DefaultRegisterer)

	// ── Pipeline wiring ──────────────────────────────────────────────────────
	pg := store.New(pool)
	ai := llm.New(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
	mailer := notify.NewMailer(cfg.ResendAPIKey, cfg.FromEmail, cfg.AppURL)

	var source scanner.Source = scanner.StubSource{}
	if cfg.AdzunaAppID != "" && cfg.AdzunaAppKey != "" {
		source = scanner.NewAdzunaSource(cfg.AdzunaAppID, cfg.AdzunaAppKey, cfg.AdzunaCountry)
	} else {
		log.Println("[scan-service] Adzuna credentials not set, using stub job source")
	}

	scanSvc := scanner.NewService(pg, source, ai, ai, mailer)
	digester := notify.NewDigester(pg, mailer)
	runner := cronjob.NewRunner(scanSvc, digester, cfg.CronSecret)

	// ── HTTP server ──────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.Handle("/metrics", metrics.Handler())

	runner.RegisterRoutes(mux)

	artifactSvc := artifact.NewService(pool, ai)
	artifactHandler := artifact.NewHandler(artifactSvc)
	artifactHandler.RegisterRoutes(mux)

	ticket.NewHandler(ticket.NewService(pool, rdb), artifactHandler).RegisterRoutes(mux)
	prefs.NewHandler(prefs.NewService(pool, defaultTimezone)).RegisterRoutes(mux)
	cvparse.NewHandler(pool).RegisterRoutes(mux)
	insights.NewHandler(insights.NewService(pool)).RegisterRoutes(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 120 * time.Second, // scan cycles run inside the request
	}

	// ── Scheduler ────────────────────────────────────────────────────────────
	sched := scheduler.New(runner, cfg.ScanIntervalHours)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("[scan-service] Scheduler: %v", err)
	}
	defer sched.Stop()

	go func() {
		log.Printf("[scan-service] v%s listening on :%s", version, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[scan-service] HTTP server error: %v", err)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[scan-service] Shutting down…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[scan-service] Shutdown error: %v", err)
	}
	log.Println("[scan-service] Stopped.")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "scan-service",
		"version": version,
	})
}
