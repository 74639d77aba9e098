package ticket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"findmygig/scan-service/internal/model"
)

// ErrNotFound is returned when the ticket does not exist or does not belong
// to the requesting user.
var ErrNotFound = errors.New("ticket not found")

// ValidationError marks a client-side input problem (HTTP 400).
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

// ─── View types ──────────────────────────────────────────────────────────────

// JobView is the job payload embedded in ticket responses.
type JobView struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Company     string     `json:"company"`
	Description string     `json:"description"`
	URL         string     `json:"url"`
	Locations   []string   `json:"locations"`
	RoleTags    []string   `json:"roleTags"`
	WorkMode    *string    `json:"workMode"`
	PostingDate *time.Time `json:"postingDate"`
	Source      string     `json:"source"`
	Active      bool       `json:"active"`
}

// ArtifactMeta is artifact metadata without the file bytes.
type ArtifactMeta struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	FileName  string    `json:"fileName"`
	MimeType  string    `json:"mimeType"`
	CreatedAt time.Time `json:"createdAt"`
}

// View is the JSON shape returned to clients.
type View struct {
	ID                 string         `json:"id"`
	Status             string         `json:"status"`
	UserToJobScore     float64        `json:"userToJobScore"`
	JobToUserScore     float64        `json:"jobToUserScore"`
	OverallScore       float64        `json:"overallScore"`
	ScoringExplanation string         `json:"scoringExplanation"`
	Tags               []string       `json:"tags"`
	ApplicationMethod  *string        `json:"applicationMethod"`
	SubmittedAt        *time.Time     `json:"submittedAt"`
	SnoozedUntil       *time.Time     `json:"snoozedUntil"`
	Job                JobView        `json:"job"`
	Artifacts          []ArtifactMeta `json:"artifacts"`
	CreatedAt          time.Time      `json:"createdAt"`
	UpdatedAt          time.Time      `json:"updatedAt"`
}

// UpdateRequest carries the PATCH body. All fields optional.
type UpdateRequest struct {
	Status            *string `json:"status"`
	ApplicationMethod *string `json:"applicationMethod"`
	SnoozedUntil      *string `json:"snoozedUntil"` // RFC 3339
}

// ─── Service ─────────────────────────────────────────────────────────────────

// Service encapsulates ticket business logic, transport-agnostic.
type Service struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
}

// NewService returns a configured Service.
func NewService(pool *pgxpool.Pool, rdb *redis.Client) *Service {
	return &Service{pool: pool, rdb: rdb}
}

const ticketColumns = `
	t.id, t.status, t.user_to_job_score, t.job_to_user_score, t.overall_score,
	t.scoring_explanation, t.tags, t.application_method, t.submitted_at,
	t.snoozed_until, t.created_at, t.updated_at,
	j.id, j.title, j.company, j.description, j.url, j.locations, j.role_tags,
	j.work_mode, j.posting_date, j.source, j.active`

func scanView(row pgx.Row) (View, error) {
	var v View
	err := row.Scan(
		&v.ID, &v.Status, &v.UserToJobScore, &v.JobToUserScore, &v.OverallScore,
		&v.ScoringExplanation, &v.Tags, &v.ApplicationMethod, &v.SubmittedAt,
		&v.SnoozedUntil, &v.CreatedAt, &v.UpdatedAt,
		&v.Job.ID, &v.Job.Title, &v.Job.Company, &v.Job.Description, &v.Job.URL,
		&v.Job.Locations, &v.Job.RoleTags, &v.Job.WorkMode, &v.Job.PostingDate,
		&v.Job.Source, &v.Job.Active,
	)
	return v, err
}

// ListTickets returns the user's non-archived tickets, newest first.
// If statusFilter is non-empty, only tickets with that status are returned.
func (s *Service) ListTickets(ctx context.Context, userID, statusFilter string) ([]View, error) {
	base := `
		SELECT` + ticketColumns + `
		FROM tickets t
		JOIN jobs j ON j.id = t.job_id
		WHERE t.user_id = $1 AND t.archived_at IS NULL`

	var (
		rows pgx.Rows
		err  error
	)
	if statusFilter != "" {
		if _, perr := ParseStatus(statusFilter); perr != nil {
			return nil, &ValidationError{Msg: perr.Error()}
		}
		rows, err = s.pool.Query(ctx, base+` AND t.status = $2::ticket_status ORDER BY t.created_at DESC`, userID, statusFilter)
	} else {
		rows, err = s.pool.Query(ctx, base+` ORDER BY t.created_at DESC`, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("listTickets query: %w", err)
	}
	defer rows.Close()

	views := make([]View, 0)
	for rows.Next() {
		v, err := scanView(rows)
		if err != nil {
			return nil, fmt.Errorf("listTickets scan: %w", err)
		}
		v.Artifacts = []ArtifactMeta{}
		views = append(views, v)
	}
	return views, rows.Err()
}

// GetTicket returns one ticket with job and artifact metadata, validating
// ownership.
func (s *Service) GetTicket(ctx context.Context, userID, ticketID string) (*View, error) {
	if uuid.Validate(ticketID) != nil {
		return nil, ErrNotFound
	}
	v, err := scanView(s.pool.QueryRow(ctx,
		`SELECT`+ticketColumns+`
		 FROM tickets t
		 JOIN jobs j ON j.id = t.job_id
		 WHERE t.id = $1 AND t.user_id = $2`,
		ticketID, userID))
	if err != nil {
		return nil, ErrNotFound
	}

	v.Artifacts, err = s.listArtifactMeta(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *Service) listArtifactMeta(ctx context.Context, ticketID string) ([]ArtifactMeta, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, type, file_name, mime_type, created_at
		 FROM artifacts WHERE ticket_id = $1 ORDER BY created_at`,
		ticketID)
	if err != nil {
		return nil, fmt.Errorf("artifact meta query: %w", err)
	}
	defer rows.Close()

	metas := make([]ArtifactMeta, 0)
	for rows.Next() {
		var m ArtifactMeta
		if err := rows.Scan(&m.ID, &m.Type, &m.FileName, &m.MimeType, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("artifact meta scan: %w", err)
		}
		metas = append(metas, m)
	}
	return metas, rows.Err()
}

// UpdateTicket applies a partial update. submittedAt is written only on the
// first transition into SUBMITTED and never changes afterwards.
// Returns ErrNotFound if the ticket does not exist or belong to userID.
func (s *Service) UpdateTicket(ctx context.Context, userID, ticketID string, req UpdateRequest) (*View, error) {
	if uuid.Validate(ticketID) != nil {
		return nil, ErrNotFound
	}

	var newStatus *string
	if req.Status != nil {
		parsed, err := ParseStatus(*req.Status)
		if err != nil {
			return nil, &ValidationError{Msg: err.Error()}
		}
		str := string(parsed)
		newStatus = &str
	}

	var snoozedUntil *time.Time
	if req.SnoozedUntil != nil {
		t, err := time.Parse(time.RFC3339, *req.SnoozedUntil)
		if err != nil {
			return nil, &ValidationError{Msg: fmt.Sprintf("invalid snoozedUntil: %v", err)}
		}
		snoozedUntil = &t
	}

	// Fetch current state (also validates ownership).
	var (
		currentStatus string
		submittedAt   *time.Time
	)
	err := s.pool.QueryRow(ctx,
		`SELECT status, submitted_at FROM tickets WHERE id = $1 AND user_id = $2`,
		ticketID, userID,
	).Scan(&currentStatus, &submittedAt)
	if err != nil {
		return nil, ErrNotFound
	}

	recordSubmission := newStatus != nil &&
		ShouldRecordSubmission(model.Ticket{Status: currentStatus, SubmittedAt: submittedAt}, *newStatus)

	_, err = s.pool.Exec(ctx,
		`UPDATE tickets
		 SET status             = COALESCE($1::ticket_status, status),
		     application_method = COALESCE($2, application_method),
		     snoozed_until      = COALESCE($3, snoozed_until),
		     submitted_at       = CASE WHEN $4 THEN NOW() ELSE submitted_at END,
		     updated_at         = NOW()
		 WHERE id = $5 AND user_id = $6`,
		newStatus, req.ApplicationMethod, snoozedUntil, recordSubmission,
		ticketID, userID)
	if err != nil {
		return nil, fmt.Errorf("updateTicket: %w", err)
	}

	// Publish SSE event (non-fatal)
	if newStatus != nil && *newStatus != currentStatus {
		event, _ := json.Marshal(map[string]string{
			"type":     "EVENT_TICKET_UPDATED",
			"ticketId": ticketID,
			"userId":   userID,
			"from":     currentStatus,
			"to":       *newStatus,
		})
		if err := s.rdb.Publish(ctx, "EVENT_TICKET_UPDATED", event).Err(); err != nil {
			slog.Warn("publish EVENT_TICKET_UPDATED failed", "err", err)
		}
	}

	return s.GetTicket(ctx, userID, ticketID)
}

// ShouldRecordSubmission reports whether moving current to newStatus records
// the submission timestamp: only on the first transition into SUBMITTED.
func ShouldRecordSubmission(current model.Ticket, newStatus string) bool {
	return newStatus == string(StatusSubmitted) &&
		current.Status != string(StatusSubmitted) &&
		current.SubmittedAt == nil
}
