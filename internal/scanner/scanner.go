package scanner

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"findmygig/scan-service/internal/metrics"
	"findmygig/scan-service/internal/model"
)

// Result summarizes one user's scan.
type Result struct {
	JobsScanned    int      `json:"jobsScanned"`
	TicketsCreated int      `json:"ticketsCreated"`
	Errors         []string `json:"errors"`
}

// Summary aggregates the all-users sweep.
type Summary struct {
	UsersScanned        int      `json:"usersScanned"`
	TotalTicketsCreated int      `json:"totalTicketsCreated"`
	Errors              []string `json:"errors"`
}

// highFitThreshold gates the immediate alert email.
const highFitThreshold = 85

// Service drives the scan pipeline: source → extract → dedup → score →
// reconcile, strictly sequential per user and per posting.
type Service struct {
	store     Store
	source    Source
	extractor Extractor
	scorer    FitScorer
	alerts    AlertSender
}

// NewService wires the pipeline collaborators.
func NewService(store Store, source Source, extractor Extractor, scorer FitScorer, alerts AlertSender) *Service {
	return &Service{
		store:     store,
		source:    source,
		extractor: extractor,
		scorer:    scorer,
		alerts:    alerts,
	}
}

// ScanUser runs one user's scan. Missing config, disabled scanning, missing
// CV and an active snooze are silent skips, not errors; per-job failures are
// captured in the result and never abort the remaining postings.
func (s *Service) ScanUser(ctx context.Context, userID string) (Result, error) {
	result := Result{Errors: []string{}}

	user, err := s.store.GetScanUser(ctx, userID)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Scan failed: %v", err))
		return result, nil
	}
	if user == nil || user.Config == nil || !user.Config.Enabled || user.BaseCV == "" {
		slog.Info("skipping scan: not configured or CV missing", "userId", userID)
		return result, nil
	}
	if user.Config.SnoozeUntil != nil && user.Config.SnoozeUntil.After(time.Now()) {
		slog.Info("skipping scan: snoozed", "userId", userID, "until", user.Config.SnoozeUntil)
		return result, nil
	}

	prefs := AggregatePreferences(user.Preferences)
	redFlags := AggregateRedFlags(user.Preferences)

	rawJobs, err := s.source.FetchJobs(ctx, prefs, redFlags)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Scan failed: %v", err))
		return result, nil
	}
	result.JobsScanned = len(rawJobs)

	for _, raw := range rawJobs {
		created, err := s.processJob(ctx, raw, user, prefs)
		if err != nil {
			msg := fmt.Sprintf("Error processing job %s at %s: %v", raw.Title, raw.Company, err)
			slog.Error("job processing failed", "userId", userID, "title", raw.Title, "company", raw.Company, "err", err)
			result.Errors = append(result.Errors, msg)
			metrics.ScanJobErrors.Inc()
			continue
		}
		if created {
			result.TicketsCreated++
		}
	}

	// Bookkeeping happens even when zero postings were found.
	now := time.Now()
	if err := s.store.TouchScanConfig(ctx, user.Config.ID, now, now.Add(24*time.Hour)); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Scan failed: %v", err))
	}

	metrics.UsersScanned.Inc()
	return result, nil
}

// ScanAllUsers sweeps every user with scanning enabled, then deactivates
// expired postings globally. One user's failure never stops the loop.
func (s *Service) ScanAllUsers(ctx context.Context) Summary {
	start := time.Now()
	metrics.ScansTotal.Inc()
	summary := Summary{Errors: []string{}}

	userIDs, err := s.store.ListEnabledUserIDs(ctx)
	if err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("Global scan error: %v", err))
		return summary
	}

	for _, id := range userIDs {
		result, _ := s.ScanUser(ctx, id)
		summary.UsersScanned++
		summary.TotalTicketsCreated += result.TicketsCreated
		summary.Errors = append(summary.Errors, result.Errors...)
	}
	metrics.TicketsCreated.Add(float64(summary.TotalTicketsCreated))

	if n, err := s.store.DeactivateExpiredJobs(ctx, time.Now()); err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("Global scan error: %v", err))
	} else if n > 0 {
		slog.Info("deactivated expired jobs", "count", n)
	}

	metrics.ScanDuration.Observe(time.Since(start).Seconds())
	slog.Info("job scan complete",
		"usersScanned", summary.UsersScanned,
		"ticketsCreated", summary.TotalTicketsCreated,
		"errors", len(summary.Errors))
	return summary
}

// processJob runs one posting through extract → dedup → reconcile. Returns
// true only when a new ticket was created.
func (s *Service) processJob(ctx context.Context, raw model.RawPosting, user *ScanUser, prefs model.Preferences) (bool, error) {
	extracted, err := s.extractor.ExtractJobData(ctx, raw.Description)
	if err != nil {
		return false, err
	}

	job, err := s.dedupJob(ctx, raw, extracted)
	if err != nil {
		return false, err
	}

	exists, err := s.store.TicketExists(ctx, user.ID, job.ID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil // already evaluated, never re-score
	}

	scoring, err := s.scorer.ScoreJobFit(ctx, user.BaseCV, job.Description, prefs, model.JobMeta{
		Title:     job.Title,
		Company:   job.Company,
		Locations: job.Locations,
		RoleTags:  job.RoleTags,
	})
	if err != nil {
		return false, err
	}

	// Threshold gate. Nothing is persisted for a below-threshold pair, so a
	// later scan with a lower threshold will re-attempt it.
	if scoring.OverallScore < user.Config.Threshold {
		return false, nil
	}

	ticket, err := s.createTicket(ctx, user.ID, job, scoring)
	if err == ErrTicketExists {
		// Lost a race with a concurrent scan; same outcome as the existence
		// check firing.
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if scoring.OverallScore >= highFitThreshold {
		if err := s.sendHighFitAlert(ctx, user.ID, ticket, job); err != nil {
			return false, err
		}
	}

	return true, nil
}

// dedupJob computes the content fingerprint and upserts the job catalog row.
func (s *Service) dedupJob(ctx context.Context, raw model.RawPosting, extracted model.JobExtraction) (model.Job, error) {
	rawJSON, err := json.Marshal(raw)
	if err != nil {
		return model.Job{}, fmt.Errorf("marshal raw posting: %w", err)
	}

	job := model.Job{
		Title:           extracted.Title,
		Company:         extracted.Company,
		Description:     extracted.Description,
		DescriptionHash: DescriptionHash(extracted.Description),
		URL:             raw.URL,
		Locations:       extracted.Locations,
		RoleTags:        extracted.RoleTags,
		WorkMode:        extracted.WorkMode,
		Source:          raw.Source,
		RawData:         rawJSON,
		Active:          true,
	}
	if extracted.PostingDate != nil {
		if d, err := time.Parse("2006-01-02", *extracted.PostingDate); err == nil {
			job.PostingDate = &d
		}
	}

	return s.store.UpsertJob(ctx, job)
}

func (s *Service) createTicket(ctx context.Context, userID string, job model.Job, scoring model.Scoring) (model.Ticket, error) {
	ticket := model.Ticket{
		UserID:             userID,
		JobID:              job.ID,
		Status:             "IDENTIFIED",
		UserToJobScore:     scoring.UserToJobScore,
		JobToUserScore:     scoring.JobToUserScore,
		OverallScore:       scoring.OverallScore,
		ScoringExplanation: scoring.Explanation,
		Tags:               scoring.Tags,
	}

	payload, _ := json.Marshal(map[string]string{"jobId": job.ID})
	notification := model.Notification{
		UserID:  userID,
		Type:    model.NotificationNewTicket,
		Title:   fmt.Sprintf("New Job Match: %s", job.Title),
		Message: fmt.Sprintf("%s - Score: %d", job.Company, int(math.Round(scoring.OverallScore))),
		Data:    payload,
	}

	return s.store.CreateTicket(ctx, ticket, notification)
}

func (s *Service) sendHighFitAlert(ctx context.Context, userID string, ticket model.Ticket, job model.Job) error {
	email, name, err := s.store.GetUserContact(ctx, userID)
	if err != nil {
		return fmt.Errorf("load contact: %w", err)
	}
	if email == "" {
		return nil
	}
	if name == "" {
		name = "User"
	}
	return s.alerts.SendHighFitAlert(ctx, email, name, HighFitTicket{
		ID:           ticket.ID,
		JobTitle:     job.Title,
		Company:      job.Company,
		OverallScore: ticket.OverallScore,
		Tags:         ticket.Tags,
	})
}

// DescriptionHash returns the hex MD5 of the normalized description text,
// the third component of the job dedup key.
func DescriptionHash(description string) string {
	sum := md5.Sum([]byte(description))
	return hex.EncodeToString(sum[:])
}
