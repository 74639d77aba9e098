package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"findmygig/scan-service/internal/model"
)

// digestWindow is how far back the daily summary reaches.
const digestWindow = 24 * time.Hour

// digestHighFit is the sub-count cutoff shown in the summary header.
// Distinct from the immediate-alert threshold on purpose.
const digestHighFit = 80

// DigestRecipient is a user eligible for the daily digest.
type DigestRecipient struct {
	ID    string
	Email string
	Name  string
}

// Store is what the digest sender needs from persistence.
type Store interface {
	ListDigestRecipients(ctx context.Context) ([]DigestRecipient, error)
	RecentTickets(ctx context.Context, userID string, since time.Time) ([]DigestTicket, error)
	InsertNotification(ctx context.Context, n model.Notification) error
}

// DigestMailer is the delivery side of the digest sender.
type DigestMailer interface {
	SendDailyDigest(ctx context.Context, email, name string, tickets []DigestTicket, summary DigestSummary) error
}

// DigestResult records the outcome of one user's digest.
type DigestResult struct {
	UserID      string `json:"userId"`
	Email       string `json:"email"`
	TicketsSent int    `json:"ticketsSent,omitempty"`
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
}

// Digester fans the daily summary out to every eligible user.
type Digester struct {
	store  Store
	mailer DigestMailer
}

// NewDigester wires the digest sender.
func NewDigester(store Store, mailer DigestMailer) *Digester {
	return &Digester{store: store, mailer: mailer}
}

// SendDailyDigests emails each eligible user their tickets from the trailing
// window. Users with no new tickets or no email address are skipped without a
// result entry. The notification row is written only after the email went
// out; one user's failure never stops the fan-out.
func (d *Digester) SendDailyDigests(ctx context.Context) []DigestResult {
	results := []DigestResult{}

	recipients, err := d.store.ListDigestRecipients(ctx)
	if err != nil {
		slog.Error("digest recipient query failed", "err", err)
		return results
	}
	since := time.Now().Add(-digestWindow)

	for _, user := range recipients {
		result, sent, err := d.sendOne(ctx, user, since)
		if err != nil {
			slog.Error("digest failed", "userId", user.ID, "err", err)
			results = append(results, DigestResult{
				UserID:  user.ID,
				Email:   user.Email,
				Success: false,
				Error:   err.Error(),
			})
			continue
		}
		if sent {
			results = append(results, result)
		}
	}
	return results
}

func (d *Digester) sendOne(ctx context.Context, user DigestRecipient, since time.Time) (DigestResult, bool, error) {
	tickets, err := d.store.RecentTickets(ctx, user.ID, since)
	if err != nil {
		return DigestResult{}, false, err
	}
	if len(tickets) == 0 || user.Email == "" {
		return DigestResult{}, false, nil
	}

	name := user.Name
	if name == "" {
		name = "User"
	}

	summary := DigestSummary{TotalNew: len(tickets)}
	var total float64
	for _, t := range tickets {
		total += t.OverallScore
		if t.OverallScore >= digestHighFit {
			summary.HighFitCount++
		}
	}
	summary.AvgScore = total / float64(len(tickets))

	if err := d.mailer.SendDailyDigest(ctx, user.Email, name, tickets, summary); err != nil {
		return DigestResult{}, false, err
	}

	payload, _ := json.Marshal(map[string]int{"ticketCount": len(tickets)})
	err = d.store.InsertNotification(ctx, model.Notification{
		UserID:  user.ID,
		Type:    model.NotificationDailyDigest,
		Title:   "Daily Digest Sent",
		Message: fmt.Sprintf("%d new job%s in your digest", len(tickets), plural(len(tickets))),
		Data:    payload,
	})
	if err != nil {
		return DigestResult{}, false, err
	}

	return DigestResult{
		UserID:      user.ID,
		Email:       user.Email,
		TicketsSent: len(tickets),
		Success:     true,
	}, true, nil
}
