// Package insights computes per-user dashboard aggregates over tickets.
package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CompanyCount is one row of the top-companies ranking.
type CompanyCount struct {
	Company string `json:"company"`
	Count   int    `json:"count"`
}

// TitleScore is one row of the top-titles ranking.
type TitleScore struct {
	Title    string  `json:"title"`
	AvgScore float64 `json:"avgScore"`
	Count    int     `json:"count"`
}

// StatusCount is one slice of the status distribution.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// DailyCount is one day of ticket-creation activity.
type DailyCount struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}

// Report is the full insights payload.
type Report struct {
	NewRolesToday      int            `json:"newRolesToday"`
	AvgFit7Days        float64        `json:"avgFit7Days"`
	TopCompanies       []CompanyCount `json:"topCompanies"`
	TopTitles          []TitleScore   `json:"topTitles"`
	StatusDistribution []StatusCount  `json:"statusDistribution"`
	DailyTickets       []DailyCount   `json:"dailyTickets"`
}

// Service computes insight reports.
type Service struct {
	pool *pgxpool.Pool
}

// NewService returns a configured Service.
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// Report aggregates the user's ticket activity: today's new roles, the 7-day
// average fit, top companies and titles, the status split and a daily series.
func (s *Service) Report(ctx context.Context, userID string) (*Report, error) {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	sevenDaysAgo := now.Add(-7 * 24 * time.Hour)

	report := Report{
		TopCompanies:       []CompanyCount{},
		TopTitles:          []TitleScore{},
		StatusDistribution: []StatusCount{},
	}

	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM tickets WHERE user_id = $1 AND created_at >= $2`,
		userID, today,
	).Scan(&report.NewRolesToday)
	if err != nil {
		return nil, fmt.Errorf("newRolesToday: %w", err)
	}

	var avg *float64
	err = s.pool.QueryRow(ctx,
		`SELECT AVG(overall_score) FROM tickets WHERE user_id = $1 AND created_at >= $2`,
		userID, sevenDaysAgo,
	).Scan(&avg)
	if err != nil {
		return nil, fmt.Errorf("avgFit7Days: %w", err)
	}
	if avg != nil {
		report.AvgFit7Days = math.Round(*avg*10) / 10
	}

	rows, err := s.pool.Query(ctx,
		`SELECT j.company, COUNT(*) AS n
		 FROM tickets t JOIN jobs j ON j.id = t.job_id
		 WHERE t.user_id = $1 AND t.created_at >= $2
		 GROUP BY j.company ORDER BY n DESC LIMIT 5`,
		userID, sevenDaysAgo)
	if err != nil {
		return nil, fmt.Errorf("topCompanies query: %w", err)
	}
	for rows.Next() {
		var c CompanyCount
		if err := rows.Scan(&c.Company, &c.Count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("topCompanies scan: %w", err)
		}
		report.TopCompanies = append(report.TopCompanies, c)
	}
	rows.Close()

	rows, err = s.pool.Query(ctx,
		`SELECT j.title, AVG(t.overall_score) AS avg_score, COUNT(*) AS n
		 FROM tickets t JOIN jobs j ON j.id = t.job_id
		 WHERE t.user_id = $1 AND t.overall_score >= 80
		 GROUP BY j.title ORDER BY avg_score DESC LIMIT 5`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("topTitles query: %w", err)
	}
	for rows.Next() {
		var t TitleScore
		if err := rows.Scan(&t.Title, &t.AvgScore, &t.Count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("topTitles scan: %w", err)
		}
		report.TopTitles = append(report.TopTitles, t)
	}
	rows.Close()

	rows, err = s.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM tickets
		 WHERE user_id = $1 AND archived_at IS NULL
		 GROUP BY status`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("statusDistribution query: %w", err)
	}
	for rows.Next() {
		var sc StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("statusDistribution scan: %w", err)
		}
		report.StatusDistribution = append(report.StatusDistribution, sc)
	}
	rows.Close()

	report.DailyTickets, err = s.dailySeries(ctx, userID, today)
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// dailySeries returns one entry per day for the trailing week, oldest first,
// with zero-filled gaps.
func (s *Service) dailySeries(ctx context.Context, userID string, today time.Time) ([]DailyCount, error) {
	counts := make(map[string]int)
	rows, err := s.pool.Query(ctx,
		`SELECT to_char(created_at, 'YYYY-MM-DD'), COUNT(*)
		 FROM tickets
		 WHERE user_id = $1 AND created_at >= $2
		 GROUP BY 1`,
		userID, today.AddDate(0, 0, -6))
	if err != nil {
		return nil, fmt.Errorf("dailyTickets query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			day string
			n   int
		)
		if err := rows.Scan(&day, &n); err != nil {
			return nil, fmt.Errorf("dailyTickets scan: %w", err)
		}
		counts[day] = n
	}

	series := make([]DailyCount, 0, 7)
	for i := 6; i >= 0; i-- {
		day := today.AddDate(0, 0, -i).Format("2006-01-02")
		series = append(series, DailyCount{Date: day, Count: counts[day]})
	}
	return series, rows.Err()
}

// ─── HTTP ────────────────────────────────────────────────────────────────────

// Handler serves GET /insights.
type Handler struct {
	svc *Service
}

// NewHandler returns a configured Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the insights route on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/insights", h.handleInsights)
}

func (h *Handler) handleInsights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := r.Header.Get("x-user-id")
	if userID == "" {
		jsonError(w, "missing x-user-id header", http.StatusUnauthorized)
		return
	}

	report, err := h.svc.Report(r.Context(), userID)
	if err != nil {
		log.Printf("[insights] report error: %v", err)
		jsonError(w, "Failed to fetch insights", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(report)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
