package scanner

import (
	"context"
	"errors"
	"time"

	"findmygig/scan-service/internal/model"
)

// ErrTicketExists signals that the (user, job) uniqueness constraint rejected
// a ticket insert. Two concurrent scans can both pass the existence check;
// the loser of the race gets this and treats the pair as already processed.
var ErrTicketExists = errors.New("ticket already exists for this user and job")

// ScanUser is everything the pipeline needs to know about one user.
// Config is nil when the user never created a scan configuration.
type ScanUser struct {
	ID          string
	Email       string
	Name        string
	BaseCV      string
	Config      *model.ScanConfig
	Preferences []model.PreferenceSet
}

// Store is the persistence surface of the scan pipeline.
type Store interface {
	// ListEnabledUserIDs returns ids of users whose scan config is enabled.
	ListEnabledUserIDs(ctx context.Context) ([]string, error)

	// GetScanUser loads one user with config and preference sets.
	// Returns (nil, nil) when the user does not exist.
	GetScanUser(ctx context.Context, userID string) (*ScanUser, error)

	// UpsertJob inserts the job or, when the (title, company, hash) triple
	// already exists, reactivates the stored row and bumps updated_at.
	UpsertJob(ctx context.Context, job model.Job) (model.Job, error)

	// TicketExists reports whether a ticket exists for the (user, job) pair.
	TicketExists(ctx context.Context, userID, jobID string) (bool, error)

	// CreateTicket inserts the ticket and its NEW_TICKET notification in one
	// transaction. Returns ErrTicketExists on a uniqueness violation.
	CreateTicket(ctx context.Context, t model.Ticket, n model.Notification) (model.Ticket, error)

	// GetUserContact returns the email/name used for alert delivery.
	GetUserContact(ctx context.Context, userID string) (email, name string, err error)

	// TouchScanConfig records a completed scan on the user's config.
	TouchScanConfig(ctx context.Context, configID string, lastScanAt, nextScanAt time.Time) error

	// DeactivateExpiredJobs flips active=false on every job whose expiry date
	// has passed. Global sweep, independent of any user.
	DeactivateExpiredJobs(ctx context.Context, now time.Time) (int64, error)
}

// Extractor is the external extraction collaborator.
type Extractor interface {
	ExtractJobData(ctx context.Context, description string) (model.JobExtraction, error)
}

// FitScorer is the external scoring collaborator.
type FitScorer interface {
	ScoreJobFit(ctx context.Context, cv, jobDescription string, prefs model.Preferences, meta model.JobMeta) (model.Scoring, error)
}

// AlertSender delivers the immediate high-fit email.
type AlertSender interface {
	SendHighFitAlert(ctx context.Context, email, name string, ticket HighFitTicket) error
}

// HighFitTicket is the payload of an immediate alert.
type HighFitTicket struct {
	ID           string
	JobTitle     string
	Company      string
	OverallScore float64
	Tags         []string
}
