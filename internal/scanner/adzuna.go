package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"findmygig/scan-service/internal/model"
)

const (
	adzunaBaseURL  = "https://api.adzuna.com/v1/api/jobs"
	adzunaPageSize = 50
	adzunaMaxPages = 3 // max 150 results per (role × location) pair
	httpTimeout    = 15 * time.Second
)

// AdzunaSource fetches job offers from the Adzuna public API, one search per
// (preferred role × preferred location) pair, and screens out red-flagged
// offers before returning.
type AdzunaSource struct {
	AppID   string
	AppKey  string
	Country string // "fr", "gb", "us", …
	client  *http.Client
}

// NewAdzunaSource constructs a source with a shared HTTP client.
func NewAdzunaSource(appID, appKey, country string) *AdzunaSource {
	return &AdzunaSource{
		AppID:   appID,
		AppKey:  appKey,
		Country: country,
		client:  &http.Client{Timeout: httpTimeout},
	}
}

// adzunaResponse mirrors the top-level Adzuna JSON response.
type adzunaResponse struct {
	Results []adzunaResult `json:"results"`
	Count   int            `json:"count"`
}

// adzunaResult mirrors a single Adzuna job listing.
type adzunaResult struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Company     adzunaCompany  `json:"company"`
	Location    adzunaLocation `json:"location"`
	RedirectURL string         `json:"redirect_url"`
	Created     string         `json:"created"`
}

type adzunaCompany struct {
	DisplayName string `json:"display_name"`
}

type adzunaLocation struct {
	DisplayName string `json:"display_name"`
}

// FetchJobs retrieves offers for each (role, location) pair in the aggregated
// preferences, paging until no more results or adzunaMaxPages. A failing pair
// is logged and skipped; the remaining pairs still run.
func (s *AdzunaSource) FetchJobs(ctx context.Context, prefs model.Preferences, redFlags []string) ([]model.RawPosting, error) {
	if s.AppID == "" || s.AppKey == "" {
		slog.Warn("adzuna credentials not set, skipping fetch")
		return nil, nil
	}

	locations := prefs.Locations
	if len(locations) == 0 {
		locations = []string{""} // country-wide search
	}

	var postings []model.RawPosting
	seen := make(map[string]struct{}) // redirect URLs already collected this fetch

	for _, role := range prefs.Roles {
		for _, location := range locations {
			results, err := s.fetchPair(ctx, role, location)
			if err != nil {
				slog.Warn("adzuna fetch failed", "role", role, "location", location, "err", err)
				continue
			}
			for _, r := range results {
				if _, dup := seen[r.URL]; dup {
					continue
				}
				if ContainsRedFlag(r.Title, r.Company, r.Description, redFlags) {
					continue
				}
				seen[r.URL] = struct{}{}
				postings = append(postings, r)
			}
		}
	}

	return postings, nil
}

func (s *AdzunaSource) fetchPair(ctx context.Context, role, location string) ([]model.RawPosting, error) {
	var results []model.RawPosting
	for page := 1; page <= adzunaMaxPages; page++ {
		batch, err := s.fetchPage(ctx, role, location, page)
		if err != nil {
			return results, fmt.Errorf("page %d: %w", page, err)
		}
		if len(batch) == 0 {
			break // No more results
		}
		results = append(results, batch...)
		if len(batch) < adzunaPageSize {
			break // Last page
		}
	}
	return results, nil
}

func (s *AdzunaSource) fetchPage(ctx context.Context, role, location string, page int) ([]model.RawPosting, error) {
	endpoint := fmt.Sprintf("%s/%s/search/%d", adzunaBaseURL, s.Country, page)

	params := url.Values{}
	params.Set("app_id", s.AppID)
	params.Set("app_key", s.AppKey)
	params.Set("results_per_page", strconv.Itoa(adzunaPageSize))
	params.Set("what", role)
	if location != "" {
		params.Set("where", location)
	}
	params.Set("content-type", "application/json")
	params.Set("sort_by", "date")

	reqURL := endpoint + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http GET: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("adzuna returned %d: %s", resp.StatusCode, string(body))
	}

	var apiResp adzunaResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}

	postings := make([]model.RawPosting, 0, len(apiResp.Results))
	for _, r := range apiResp.Results {
		u := r.RedirectURL
		if u == "" {
			u = fmt.Sprintf("adzuna:%s", r.ID)
		}
		postings = append(postings, model.RawPosting{
			Title:       r.Title,
			Company:     r.Company.DisplayName,
			Description: r.Description,
			URL:         u,
			Source:      "adzuna",
		})
	}

	return postings, nil
}
