// Package ticket implements the evaluated-opportunity workflow: listing,
// detail and field updates for a user's tickets.
//
// There is no transition graph: a ticket may move between any two statuses.
// The only stateful rule is submittedAt, which is recorded exactly once, the
// first time status enters SUBMITTED.
package ticket

import "fmt"

// Status values mirror the ticket_status enum in PostgreSQL.
type Status string

const (
	StatusIdentified Status = "IDENTIFIED"
	StatusSubmitted  Status = "SUBMITTED"
	StatusRejected   Status = "REJECTED"
	StatusWontGo     Status = "WONT_GO_AFTER"
)

// ParseStatus converts a raw string to a Status, returning an error for
// unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusIdentified, StatusSubmitted, StatusRejected, StatusWontGo:
		return st, nil
	}
	return "", fmt.Errorf("unknown ticket status %q", s)
}
