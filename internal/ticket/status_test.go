package ticket_test

import (
	"testing"
	"time"

	"findmygig/scan-service/internal/model"
	"findmygig/scan-service/internal/ticket"
)

// ── ParseStatus ────────────────────────────────────────────────────────────

func TestParseStatus_ValidValues(t *testing.T) {
	valid := []string{"IDENTIFIED", "SUBMITTED", "REJECTED", "WONT_GO_AFTER"}
	for _, s := range valid {
		got, err := ticket.ParseStatus(s)
		if err != nil {
			t.Errorf("ParseStatus(%q) returned unexpected error: %v", s, err)
		}
		if string(got) != s {
			t.Errorf("ParseStatus(%q) = %q, want %q", s, got, s)
		}
	}
}

func TestParseStatus_InvalidValue(t *testing.T) {
	_, err := ticket.ParseStatus("HIRED")
	if err == nil {
		t.Error("ParseStatus(\"HIRED\") expected error, got nil")
	}
}

func TestParseStatus_EmptyString(t *testing.T) {
	_, err := ticket.ParseStatus("")
	if err == nil {
		t.Error("ParseStatus(\"\") expected error, got nil")
	}
}

// ── ShouldRecordSubmission ─────────────────────────────────────────────────

func TestShouldRecordSubmission_FirstSubmission(t *testing.T) {
	current := model.Ticket{Status: "IDENTIFIED"}
	if !ticket.ShouldRecordSubmission(current, "SUBMITTED") {
		t.Error("first move into SUBMITTED must record the timestamp")
	}
}

func TestShouldRecordSubmission_AlreadySubmitted(t *testing.T) {
	current := model.Ticket{Status: "SUBMITTED"}
	if ticket.ShouldRecordSubmission(current, "SUBMITTED") {
		t.Error("re-sending SUBMITTED must not touch the timestamp")
	}
}

func TestShouldRecordSubmission_ResubmissionKeepsOriginal(t *testing.T) {
	then := time.Now().Add(-72 * time.Hour)
	current := model.Ticket{Status: "REJECTED", SubmittedAt: &then}
	if ticket.ShouldRecordSubmission(current, "SUBMITTED") {
		t.Error("a second pass through SUBMITTED must keep the original timestamp")
	}
}

func TestShouldRecordSubmission_NonSubmittedTarget(t *testing.T) {
	current := model.Ticket{Status: "IDENTIFIED"}
	for _, target := range []string{"IDENTIFIED", "REJECTED", "WONT_GO_AFTER"} {
		if ticket.ShouldRecordSubmission(current, target) {
			t.Errorf("move to %s must not record a submission", target)
		}
	}
}
