package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"findmygig/scan-service/internal/model"
)

type stubDigestStore struct {
	recipients    []DigestRecipient
	tickets       map[string][]DigestTicket
	notifications []model.Notification
}

func (s *stubDigestStore) ListDigestRecipients(context.Context) ([]DigestRecipient, error) {
	return s.recipients, nil
}

func (s *stubDigestStore) RecentTickets(_ context.Context, userID string, _ time.Time) ([]DigestTicket, error) {
	return s.tickets[userID], nil
}

func (s *stubDigestStore) InsertNotification(_ context.Context, n model.Notification) error {
	s.notifications = append(s.notifications, n)
	return nil
}

type stubMailer struct {
	sent      []DigestSummary
	failEmail string
}

func (m *stubMailer) SendDailyDigest(_ context.Context, email, _ string, _ []DigestTicket, summary DigestSummary) error {
	if email == m.failEmail {
		return errors.New("smtp refused")
	}
	m.sent = append(m.sent, summary)
	return nil
}

func TestSendDailyDigests_SummaryMath(t *testing.T) {
	store := &stubDigestStore{
		recipients: []DigestRecipient{{ID: "u1", Email: "u1@example.com", Name: "Dana"}},
		tickets: map[string][]DigestTicket{
			"u1": {
				{ID: "t1", JobTitle: "RevOps Lead", Company: "Acme", OverallScore: 91},
				{ID: "t2", JobTitle: "BizOps Manager", Company: "Initech", OverallScore: 80},
				{ID: "t3", JobTitle: "GTM Ops", Company: "Umbrella", OverallScore: 67},
			},
		},
	}
	mailer := &stubMailer{}
	results := NewDigester(store, mailer).SendDailyDigests(context.Background())

	if len(results) != 1 || !results[0].Success || results[0].TicketsSent != 3 {
		t.Fatalf("results = %+v", results)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("emails sent = %d, want 1", len(mailer.sent))
	}
	summary := mailer.sent[0]
	if summary.TotalNew != 3 {
		t.Errorf("TotalNew = %d, want 3", summary.TotalNew)
	}
	if summary.HighFitCount != 2 {
		t.Errorf("HighFitCount = %d, want 2 (scores 91 and 80 clear the cutoff)", summary.HighFitCount)
	}
	wantAvg := (91.0 + 80.0 + 67.0) / 3.0
	if summary.AvgScore < wantAvg-0.01 || summary.AvgScore > wantAvg+0.01 {
		t.Errorf("AvgScore = %v, want %v", summary.AvgScore, wantAvg)
	}
}

func TestSendDailyDigests_RecordsNotificationAfterEmail(t *testing.T) {
	store := &stubDigestStore{
		recipients: []DigestRecipient{{ID: "u1", Email: "u1@example.com"}},
		tickets: map[string][]DigestTicket{
			"u1": {{ID: "t1", JobTitle: "RevOps Lead", Company: "Acme", OverallScore: 91}},
		},
	}
	NewDigester(store, &stubMailer{}).SendDailyDigests(context.Background())

	if len(store.notifications) != 1 {
		t.Fatalf("notifications = %d, want 1", len(store.notifications))
	}
	n := store.notifications[0]
	if n.Type != model.NotificationDailyDigest {
		t.Errorf("Type = %q", n.Type)
	}
	if n.Message != "1 new job in your digest" {
		t.Errorf("Message = %q, want singular form", n.Message)
	}
}

func TestSendDailyDigests_QuietUsersAreSkipped(t *testing.T) {
	store := &stubDigestStore{
		recipients: []DigestRecipient{
			{ID: "quiet", Email: "quiet@example.com"},
			{ID: "no-email", Email: ""},
		},
		tickets: map[string][]DigestTicket{
			"no-email": {{ID: "t1", OverallScore: 90}},
		},
	}
	mailer := &stubMailer{}
	results := NewDigester(store, mailer).SendDailyDigests(context.Background())

	if len(results) != 0 {
		t.Errorf("results = %+v, want none (no tickets / no address)", results)
	}
	if len(mailer.sent) != 0 {
		t.Error("no email should go out")
	}
	if len(store.notifications) != 0 {
		t.Error("no notification should be recorded")
	}
}

func TestSendDailyDigests_FailureIsIsolated(t *testing.T) {
	ticket := []DigestTicket{{ID: "t1", JobTitle: "RevOps Lead", Company: "Acme", OverallScore: 91}}
	store := &stubDigestStore{
		recipients: []DigestRecipient{
			{ID: "u1", Email: "broken@example.com"},
			{ID: "u2", Email: "fine@example.com"},
		},
		tickets: map[string][]DigestTicket{"u1": ticket, "u2": ticket},
	}
	mailer := &stubMailer{failEmail: "broken@example.com"}
	results := NewDigester(store, mailer).SendDailyDigests(context.Background())

	if len(results) != 2 {
		t.Fatalf("results = %+v, want 2", results)
	}
	if results[0].Success || !strings.Contains(results[0].Error, "smtp refused") {
		t.Errorf("first result = %+v, want recorded failure", results[0])
	}
	if !results[1].Success {
		t.Errorf("second result = %+v, want success despite earlier failure", results[1])
	}
	// Only the successful user gets a notification row.
	if len(store.notifications) != 1 || store.notifications[0].UserID != "u2" {
		t.Errorf("notifications = %+v", store.notifications)
	}
}

func TestRenderDigest_EscapesUserContent(t *testing.T) {
	html, err := renderDigest("Dana", "https://app.example.com", []DigestTicket{
		{ID: "t1", JobTitle: "<script>alert(1)</script>", Company: "Acme", OverallScore: 90},
	}, DigestSummary{TotalNew: 1, HighFitCount: 1, AvgScore: 90})
	if err != nil {
		t.Fatalf("renderDigest error: %v", err)
	}
	if strings.Contains(html, "<script>") {
		t.Error("job titles must be HTML-escaped")
	}
	if !strings.Contains(html, "/dashboard/tickets/t1") {
		t.Error("ticket link missing")
	}
}
