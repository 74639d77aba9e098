// Package model defines shared data structures for the scan service.
package model

import (
	"encoding/json"
	"time"
)

// RawPosting is a job offer as produced by a Source, before extraction.
// It is converted to JSON and stored in jobs.raw_data (JSONB).
type RawPosting struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Source      string `json:"source"`
}

// JobExtraction is the structured data the extraction collaborator returns
// for one posting. Absent fields stay nil; the extractor never fabricates.
type JobExtraction struct {
	Title       string   `json:"title"`
	Company     string   `json:"company"`
	Description string   `json:"description"`
	Locations   []string `json:"locations"`
	RoleTags    []string `json:"roleTags"`
	PostingDate *string  `json:"postingDate"` // "YYYY-MM-DD"
	WorkMode    *string  `json:"workMode"`    // Remote|Hybrid|Onsite
}

// Preferences is the union of a user's active preference sets.
type Preferences struct {
	Roles     []string `json:"roles"`
	Locations []string `json:"locations"`
	Companies []string `json:"companies"`
}

// PreferenceSet is one named filter set owned by a user. At most 3 per user;
// only active sets participate in aggregation.
type PreferenceSet struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	Roles     []string  `json:"roles"`
	Locations []string  `json:"locations"`
	Companies []string  `json:"companies"`
	RedFlags  []string  `json:"redFlags"` // exclusion terms; any match discards the offer at fetch time
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ScanConfig is the one-to-one scan configuration for a user.
// Threshold is always within [0,100]; a scan is skipped while SnoozeUntil is
// in the future.
type ScanConfig struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Enabled     bool       `json:"enabled"`
	Threshold   float64    `json:"threshold"`
	SnoozeUntil *time.Time `json:"snoozeUntil"`
	LastScanAt  *time.Time `json:"lastScanAt"`
	NextScanAt  *time.Time `json:"nextScanAt"`
	Timezone    string     `json:"timezone"`
}

// Job is a deduplicated posting. At most one row exists per distinct
// (title, company, description-hash) triple; the catalog is shared across
// users.
type Job struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Company         string          `json:"company"`
	Description     string          `json:"description"`
	DescriptionHash string          `json:"descriptionHash"`
	URL             string          `json:"url"`
	Locations       []string        `json:"locations"`
	RoleTags        []string        `json:"roleTags"`
	WorkMode        *string         `json:"workMode"`
	PostingDate     *time.Time      `json:"postingDate"`
	ExpiryDate      *time.Time      `json:"expiryDate"`
	Source          string          `json:"source"`
	RawData         json.RawMessage `json:"rawData"`
	Active          bool            `json:"active"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Ticket is the unique join of (user, job): one evaluated opportunity.
type Ticket struct {
	ID                 string     `json:"id"`
	UserID             string     `json:"userId"`
	JobID              string     `json:"jobId"`
	Status             string     `json:"status"`
	UserToJobScore     float64    `json:"userToJobScore"`
	JobToUserScore     float64    `json:"jobToUserScore"`
	OverallScore       float64    `json:"overallScore"`
	ScoringExplanation string     `json:"scoringExplanation"`
	Tags               []string   `json:"tags"`
	ApplicationMethod  *string    `json:"applicationMethod"`
	SubmittedAt        *time.Time `json:"submittedAt"`
	SnoozedUntil       *time.Time `json:"snoozedUntil"`
	ArchivedAt         *time.Time `json:"archivedAt"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// Notification types. The notifications table is append-only.
const (
	NotificationNewTicket   = "NEW_TICKET"
	NotificationDailyDigest = "DAILY_DIGEST"
)

// Notification is an append-only event record tied to a user.
type Notification struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Artifact types mirror the artifact_type enum in PostgreSQL.
const (
	ArtifactCVDocx         = "CV_DOCX"
	ArtifactCVPdf          = "CV_PDF"
	ArtifactCoverLetterTxt = "COVER_LETTER_TXT"
)

// Artifact is a generated document attached to a ticket. Regeneration
// replaces all prior artifacts for the ticket.
type Artifact struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticketId"`
	Type      string    `json:"type"`
	FileName  string    `json:"fileName"`
	MimeType  string    `json:"mimeType"`
	FileData  []byte    `json:"-"`
	Content   string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// JobMeta is the job context handed to the fit scorer alongside the full
// description text.
type JobMeta struct {
	Title     string
	Company   string
	Locations []string
	RoleTags  []string
}

// Scoring is the fit-scorer result for one (CV, job) pair.
// OverallScore is always min(0.6·UserToJob + 0.4·JobToUser, 100) and Tags are
// derived from the two sub-scores by the threshold rules in the scoring
// package.
type Scoring struct {
	UserToJobScore float64  `json:"userToJobScore"`
	JobToUserScore float64  `json:"jobToUserScore"`
	OverallScore   float64  `json:"overallScore"`
	Explanation    string   `json:"explanation"`
	Tags           []string `json:"tags"`
}

// CVSections is the structured output of tailored-CV generation.
type CVSections struct {
	Summary    string   `json:"summary,omitempty"`
	Experience []string `json:"experience"`
	Education  []string `json:"education"`
	Skills     []string `json:"skills"`
}
