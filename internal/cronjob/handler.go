// Package cronjob exposes the scan-and-digest cycle over HTTP.
//
// Routes:
//
//	GET|POST /cron/scan-jobs → run the full scan, then fan out daily digests
//
// The endpoint is meant to be hit by an external scheduler (and by the
// embedded cron loop); when CRON_SECRET is set, callers must present it as a
// Bearer token.
package cronjob

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"findmygig/scan-service/internal/notify"
	"findmygig/scan-service/internal/scanner"
)

// Runner executes one complete scan-and-digest cycle.
type Runner struct {
	scan     *scanner.Service
	digester *notify.Digester
	secret   string
}

// NewRunner wires the cycle dependencies. secret may be empty, which leaves
// the endpoint open.
func NewRunner(scan *scanner.Service, digester *notify.Digester, secret string) *Runner {
	return &Runner{scan: scan, digester: digester, secret: secret}
}

// Run executes the cycle outside HTTP, for the embedded scheduler.
func (r *Runner) Run(ctx context.Context) {
	summary := r.scan.ScanAllUsers(ctx)
	digests := r.digester.SendDailyDigests(ctx)
	slog.Info("cron cycle complete",
		"usersScanned", summary.UsersScanned,
		"ticketsCreated", summary.TotalTicketsCreated,
		"digestsSent", len(digests))
}

// RegisterRoutes mounts the cron endpoint on mux.
func (r *Runner) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/cron/scan-jobs", r.handleScanJobs)
}

type cycleResponse struct {
	Success   bool                  `json:"success"`
	Scan      scanner.Summary       `json:"scan"`
	Digests   []notify.DigestResult `json:"digests"`
	Timestamp string                `json:"timestamp"`
}

// handleScanJobs handles GET|POST /cron/scan-jobs. Partial failures are
// reported inside the body, not via the status code.
func (r *Runner) handleScanJobs(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet && req.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if r.secret != "" && req.Header.Get("Authorization") != "Bearer "+r.secret {
		jsonError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	summary := r.scan.ScanAllUsers(req.Context())
	digests := r.digester.SendDailyDigests(req.Context())

	jsonOK(w, cycleResponse{
		Success:   true,
		Scan:      summary,
		Digests:   digests,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func jsonOK(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
