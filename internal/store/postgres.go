// Package store implements the PostgreSQL persistence layer used by the scan
// pipeline and the digest sender.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"findmygig/scan-service/internal/model"
	"findmygig/scan-service/internal/notify"
	"findmygig/scan-service/internal/scanner"
)

const uniqueViolation = "23505"

// PGStore satisfies scanner.Store and the digest queries in notify.
type PGStore struct {
	pool *pgxpool.Pool
}

// New returns a store backed by the given pool.
func New(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// ─── scanner.Store ───────────────────────────────────────────────────────────

// ListEnabledUserIDs returns every user whose scan config is enabled.
func (s *PGStore) ListEnabledUserIDs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id FROM scan_configs WHERE enabled = true`)
	if err != nil {
		return nil, fmt.Errorf("listEnabledUserIDs query: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("listEnabledUserIDs scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetScanUser loads one user with scan config and preference sets.
// Returns (nil, nil) when the user does not exist; Config stays nil when the
// user never created a scan configuration.
func (s *PGStore) GetScanUser(ctx context.Context, userID string) (*scanner.ScanUser, error) {
	u := scanner.ScanUser{ID: userID}
	var baseCV *string
	err := s.pool.QueryRow(ctx,
		`SELECT email, COALESCE(name, ''), base_cv FROM users WHERE id = $1`,
		userID,
	).Scan(&u.Email, &u.Name, &baseCV)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("getScanUser user: %w", err)
	}
	if baseCV != nil {
		u.BaseCV = *baseCV
	}

	var cfg model.ScanConfig
	err = s.pool.QueryRow(ctx,
		`SELECT id, user_id, enabled, threshold, snooze_until, last_scan_at,
		        next_scan_at, COALESCE(timezone, 'UTC')
		 FROM scan_configs WHERE user_id = $1`,
		userID,
	).Scan(&cfg.ID, &cfg.UserID, &cfg.Enabled, &cfg.Threshold,
		&cfg.SnoozeUntil, &cfg.LastScanAt, &cfg.NextScanAt, &cfg.Timezone)
	if err == nil {
		u.Config = &cfg
	} else if !isNoRows(err) {
		return nil, fmt.Errorf("getScanUser config: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, name, active, roles, locations, companies,
		        red_flags, created_at, updated_at
		 FROM preference_sets WHERE user_id = $1 ORDER BY created_at`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("getScanUser prefs query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p model.PreferenceSet
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Active,
			&p.Roles, &p.Locations, &p.Companies, &p.RedFlags,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("getScanUser prefs scan: %w", err)
		}
		u.Preferences = append(u.Preferences, p)
	}
	return &u, rows.Err()
}

// UpsertJob inserts the job or, when the (title, company, description_hash)
// triple already exists, reactivates the stored row.
func (s *PGStore) UpsertJob(ctx context.Context, job model.Job) (model.Job, error) {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO jobs
		   (title, company, description, description_hash, url, locations,
		    role_tags, work_mode, posting_date, expiry_date, source, raw_data, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, true)
		 ON CONFLICT (title, company, description_hash) DO UPDATE
		   SET active = true, updated_at = now()
		 RETURNING id, active, created_at, updated_at`,
		job.Title, job.Company, job.Description, job.DescriptionHash,
		job.URL, job.Locations, job.RoleTags, job.WorkMode,
		job.PostingDate, job.ExpiryDate, job.Source, job.RawData,
	).Scan(&job.ID, &job.Active, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return model.Job{}, fmt.Errorf("upsertJob: %w", err)
	}
	return job, nil
}

// TicketExists reports whether a ticket exists for the (user, job) pair.
func (s *PGStore) TicketExists(ctx context.Context, userID, jobID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM tickets WHERE user_id = $1 AND job_id = $2)`,
		userID, jobID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ticketExists: %w", err)
	}
	return exists, nil
}

// CreateTicket inserts the ticket and its NEW_TICKET notification in one
// transaction. A uniqueness violation on (user_id, job_id) maps to
// scanner.ErrTicketExists so the caller can treat the race as benign.
func (s *PGStore) CreateTicket(ctx context.Context, t model.Ticket, n model.Notification) (model.Ticket, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return model.Ticket{}, fmt.Errorf("createTicket begin: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO tickets
		   (user_id, job_id, status, user_to_job_score, job_to_user_score,
		    overall_score, scoring_explanation, tags)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		t.UserID, t.JobID, t.Status, t.UserToJobScore, t.JobToUserScore,
		t.OverallScore, t.ScoringExplanation, t.Tags,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return model.Ticket{}, scanner.ErrTicketExists
		}
		return model.Ticket{}, fmt.Errorf("createTicket insert: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO notifications (user_id, type, title, message, data)
		 VALUES ($1, $2, $3, $4,
		         COALESCE($5::jsonb, '{}'::jsonb) || jsonb_build_object('ticketId', $6::text))`,
		n.UserID, n.Type, n.Title, n.Message, n.Data, t.ID)
	if err != nil {
		return model.Ticket{}, fmt.Errorf("createTicket notification: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Ticket{}, fmt.Errorf("createTicket commit: %w", err)
	}
	return t, nil
}

// GetUserContact returns the email and display name for alert delivery.
func (s *PGStore) GetUserContact(ctx context.Context, userID string) (string, string, error) {
	var email, name string
	err := s.pool.QueryRow(ctx,
		`SELECT email, COALESCE(name, '') FROM users WHERE id = $1`,
		userID,
	).Scan(&email, &name)
	if err != nil {
		return "", "", fmt.Errorf("getUserContact: %w", err)
	}
	return email, name, nil
}

// TouchScanConfig records a completed scan on the user's config.
func (s *PGStore) TouchScanConfig(ctx context.Context, configID string, lastScanAt, nextScanAt time.Time) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE scan_configs
		 SET last_scan_at = $2, next_scan_at = $3, updated_at = now()
		 WHERE id = $1`,
		configID, lastScanAt, nextScanAt)
	if err != nil {
		return fmt.Errorf("touchScanConfig: %w", err)
	}
	return nil
}

// DeactivateExpiredJobs flips active=false on every job whose expiry_date has
// passed. Returns the number of rows deactivated.
func (s *PGStore) DeactivateExpiredJobs(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs SET active = false, updated_at = now()
		 WHERE active = true AND expiry_date IS NOT NULL AND expiry_date < $1`,
		now)
	if err != nil {
		return 0, fmt.Errorf("deactivateExpiredJobs: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ─── Digest support (notify.Store) ───────────────────────────────────────────

// ListDigestRecipients returns every user with scanning enabled, for the
// daily fan-out.
func (s *PGStore) ListDigestRecipients(ctx context.Context) ([]notify.DigestRecipient, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT u.id, u.email, COALESCE(u.name, '')
		 FROM users u
		 JOIN scan_configs sc ON sc.user_id = u.id
		 WHERE sc.enabled = true`)
	if err != nil {
		return nil, fmt.Errorf("listDigestRecipients query: %w", err)
	}
	defer rows.Close()

	recipients := make([]notify.DigestRecipient, 0)
	for rows.Next() {
		var r notify.DigestRecipient
		if err := rows.Scan(&r.ID, &r.Email, &r.Name); err != nil {
			return nil, fmt.Errorf("listDigestRecipients scan: %w", err)
		}
		recipients = append(recipients, r)
	}
	return recipients, rows.Err()
}

// RecentTickets returns the user's tickets created after the cutoff, highest
// score first.
func (s *PGStore) RecentTickets(ctx context.Context, userID string, since time.Time) ([]notify.DigestTicket, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT t.id, j.title, j.company, t.overall_score, t.tags, t.created_at
		 FROM tickets t
		 JOIN jobs j ON j.id = t.job_id
		 WHERE t.user_id = $1 AND t.created_at >= $2
		 ORDER BY t.overall_score DESC`,
		userID, since)
	if err != nil {
		return nil, fmt.Errorf("recentTickets query: %w", err)
	}
	defer rows.Close()

	tickets := make([]notify.DigestTicket, 0)
	for rows.Next() {
		var t notify.DigestTicket
		if err := rows.Scan(&t.ID, &t.JobTitle, &t.Company,
			&t.OverallScore, &t.Tags, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("recentTickets scan: %w", err)
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// InsertNotification appends a notification row.
func (s *PGStore) InsertNotification(ctx context.Context, n model.Notification) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO notifications (user_id, type, title, message, data)
		 VALUES ($1, $2, $3, $4, COALESCE($5::jsonb, '{}'::jsonb))`,
		n.UserID, n.Type, n.Title, n.Message, n.Data)
	if err != nil {
		return fmt.Errorf("insertNotification: %w", err)
	}
	return nil
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
