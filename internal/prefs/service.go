// Package prefs manages preference sets and the per-user scan configuration.
package prefs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"findmygig/scan-service/internal/model"
)

// maxPreferenceSets caps how many sets one user may hold. Enforced at
// creation only; existing sets are never dropped.
const maxPreferenceSets = 3

const defaultThreshold = 65

// ErrNotFound is returned when the set does not exist or does not belong to
// the requesting user.
var ErrNotFound = errors.New("preference set not found")

// ValidationError marks a client-side input problem (HTTP 400).
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

// CreateRequest is the POST /preferences body.
type CreateRequest struct {
	Name      string   `json:"name"`
	Active    *bool    `json:"active"`
	Roles     []string `json:"roles"`
	Locations []string `json:"locations"`
	Companies []string `json:"companies"`
	RedFlags  []string `json:"redFlags"`
}

// Validate checks required fields.
func (r *CreateRequest) Validate() error {
	if r.Name == "" {
		return &ValidationError{Msg: "Name is required"}
	}
	if len(r.Roles) == 0 {
		return &ValidationError{Msg: "At least one role is required"}
	}
	if len(r.Locations) == 0 {
		return &ValidationError{Msg: "At least one location is required"}
	}
	return nil
}

// UpdateRequest is the PATCH /preferences/{id} body. All fields optional.
type UpdateRequest struct {
	Name      *string  `json:"name"`
	Active    *bool    `json:"active"`
	Roles     []string `json:"roles"`
	Locations []string `json:"locations"`
	Companies []string `json:"companies"`
	RedFlags  []string `json:"redFlags"`
}

// ConfigUpdateRequest is the PATCH /settings/scan-config body.
// SnoozeUntil takes an RFC 3339 timestamp, or the empty string to clear an
// active snooze.
type ConfigUpdateRequest struct {
	Enabled     *bool    `json:"enabled"`
	Threshold   *float64 `json:"threshold"`
	SnoozeUntil *string  `json:"snoozeUntil"`
}

// ValidateThreshold rejects values outside [0,100].
func ValidateThreshold(threshold float64) error {
	if threshold < 0 || threshold > 100 {
		return &ValidationError{Msg: "threshold must be between 0 and 100"}
	}
	return nil
}

// Service encapsulates preference and scan-config logic.
type Service struct {
	pool     *pgxpool.Pool
	timezone string
}

// NewService returns a configured Service. timezone seeds newly created scan
// configs.
func NewService(pool *pgxpool.Pool, timezone string) *Service {
	return &Service{pool: pool, timezone: timezone}
}

const prefColumns = `id, user_id, name, active, roles, locations, companies, red_flags, created_at, updated_at`

// ListPreferences returns the user's sets, newest first.
func (s *Service) ListPreferences(ctx context.Context, userID string) ([]model.PreferenceSet, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+prefColumns+` FROM preference_sets
		 WHERE user_id = $1 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("listPreferences query: %w", err)
	}
	defer rows.Close()

	sets := make([]model.PreferenceSet, 0)
	for rows.Next() {
		var p model.PreferenceSet
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Active,
			&p.Roles, &p.Locations, &p.Companies, &p.RedFlags,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("listPreferences scan: %w", err)
		}
		sets = append(sets, p)
	}
	return sets, rows.Err()
}

// CreatePreference inserts a new set after enforcing the per-user cap.
func (s *Service) CreatePreference(ctx context.Context, userID string, req CreateRequest) (*model.PreferenceSet, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var count int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM preference_sets WHERE user_id = $1`, userID,
	).Scan(&count); err != nil {
		return nil, fmt.Errorf("createPreference count: %w", err)
	}
	if count >= maxPreferenceSets {
		return nil, &ValidationError{Msg: "Maximum 3 preference sets allowed"}
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	var p model.PreferenceSet
	err := s.pool.QueryRow(ctx,
		`INSERT INTO preference_sets (user_id, name, active, roles, locations, companies, red_flags)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+prefColumns,
		userID, req.Name, active, req.Roles, req.Locations,
		orEmpty(req.Companies), orEmpty(req.RedFlags),
	).Scan(&p.ID, &p.UserID, &p.Name, &p.Active,
		&p.Roles, &p.Locations, &p.Companies, &p.RedFlags,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("createPreference insert: %w", err)
	}
	return &p, nil
}

// UpdatePreference applies a partial update, validating ownership.
func (s *Service) UpdatePreference(ctx context.Context, userID, setID string, req UpdateRequest) (*model.PreferenceSet, error) {
	if uuid.Validate(setID) != nil {
		return nil, ErrNotFound
	}
	var p model.PreferenceSet
	err := s.pool.QueryRow(ctx,
		`UPDATE preference_sets
		 SET name       = COALESCE($1, name),
		     active     = COALESCE($2, active),
		     roles      = COALESCE($3, roles),
		     locations  = COALESCE($4, locations),
		     companies  = COALESCE($5, companies),
		     red_flags  = COALESCE($6, red_flags),
		     updated_at = NOW()
		 WHERE id = $7 AND user_id = $8
		 RETURNING `+prefColumns,
		req.Name, req.Active, req.Roles, req.Locations, req.Companies, req.RedFlags,
		setID, userID,
	).Scan(&p.ID, &p.UserID, &p.Name, &p.Active,
		&p.Roles, &p.Locations, &p.Companies, &p.RedFlags,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, ErrNotFound
	}
	return &p, nil
}

// DeletePreference removes a set, validating ownership.
func (s *Service) DeletePreference(ctx context.Context, userID, setID string) error {
	if uuid.Validate(setID) != nil {
		return ErrNotFound
	}
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM preference_sets WHERE id = $1 AND user_id = $2`,
		setID, userID)
	if err != nil {
		return fmt.Errorf("deletePreference: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const configColumns = `id, user_id, enabled, threshold, snooze_until, last_scan_at, next_scan_at, COALESCE(timezone, 'UTC')`

func scanConfig(row interface{ Scan(...any) error }) (model.ScanConfig, error) {
	var c model.ScanConfig
	err := row.Scan(&c.ID, &c.UserID, &c.Enabled, &c.Threshold,
		&c.SnoozeUntil, &c.LastScanAt, &c.NextScanAt, &c.Timezone)
	return c, err
}

// GetScanConfig returns the user's scan configuration, creating the enabled
// default when none exists yet.
func (s *Service) GetScanConfig(ctx context.Context, userID string) (*model.ScanConfig, error) {
	c, err := scanConfig(s.pool.QueryRow(ctx,
		`SELECT `+configColumns+` FROM scan_configs WHERE user_id = $1`, userID))
	if err == nil {
		return &c, nil
	}

	c, err = scanConfig(s.pool.QueryRow(ctx,
		`INSERT INTO scan_configs (user_id, enabled, threshold, timezone)
		 VALUES ($1, true, $2, $3)
		 ON CONFLICT (user_id) DO UPDATE SET updated_at = NOW()
		 RETURNING `+configColumns,
		userID, defaultThreshold, s.timezone))
	if err != nil {
		return nil, fmt.Errorf("getScanConfig create: %w", err)
	}
	return &c, nil
}

// UpdateScanConfig applies a partial update to the user's configuration.
func (s *Service) UpdateScanConfig(ctx context.Context, userID string, req ConfigUpdateRequest) (*model.ScanConfig, error) {
	if req.Threshold != nil {
		if err := ValidateThreshold(*req.Threshold); err != nil {
			return nil, err
		}
	}

	var (
		snooze      *time.Time
		clearSnooze bool
	)
	if req.SnoozeUntil != nil {
		if *req.SnoozeUntil == "" {
			clearSnooze = true
		} else {
			t, err := time.Parse(time.RFC3339, *req.SnoozeUntil)
			if err != nil {
				return nil, &ValidationError{Msg: fmt.Sprintf("invalid snoozeUntil: %v", err)}
			}
			snooze = &t
		}
	}

	c, err := scanConfig(s.pool.QueryRow(ctx,
		`UPDATE scan_configs
		 SET enabled      = COALESCE($1, enabled),
		     threshold    = COALESCE($2, threshold),
		     snooze_until = CASE WHEN $3 THEN NULL ELSE COALESCE($4, snooze_until) END,
		     updated_at   = NOW()
		 WHERE user_id = $5
		 RETURNING `+configColumns,
		req.Enabled, req.Threshold, clearSnooze, snooze, userID))
	if err != nil {
		return nil, ErrNotFound
	}
	return &c, nil
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
