package scanner

import (
	"context"

	"findmygig/scan-service/internal/model"
)

// Source produces raw postings for one user's aggregated preferences.
// Implementations apply red-flag screening before returning.
type Source interface {
	FetchJobs(ctx context.Context, prefs model.Preferences, redFlags []string) ([]model.RawPosting, error)
}

// StubSource is the source used when no job-board credentials are configured.
// It yields no postings; the integration point stays explicit and pluggable.
type StubSource struct{}

// FetchJobs always returns an empty set.
func (StubSource) FetchJobs(context.Context, model.Preferences, []string) ([]model.RawPosting, error) {
	return nil, nil
}
