package scanner_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"findmygig/scan-service/internal/model"
	"findmygig/scan-service/internal/scanner"
	"findmygig/scan-service/internal/scoring"
)

// ── Stub collaborators ─────────────────────────────────────────────────────

type stubStore struct {
	user *scanner.ScanUser

	jobs        map[string]model.Job // key: title|company|hash
	tickets     map[string]model.Ticket
	nextJobID   int
	jobUpserts  int
	touched     int
	createErr   error
	expirySweep int
}

func newStubStore(user *scanner.ScanUser) *stubStore {
	return &stubStore{
		user:    user,
		jobs:    make(map[string]model.Job),
		tickets: make(map[string]model.Ticket),
	}
}

func (s *stubStore) ListEnabledUserIDs(context.Context) ([]string, error) {
	if s.user == nil {
		return nil, nil
	}
	return []string{s.user.ID}, nil
}

func (s *stubStore) GetScanUser(_ context.Context, userID string) (*scanner.ScanUser, error) {
	if s.user == nil || s.user.ID != userID {
		return nil, nil
	}
	return s.user, nil
}

func (s *stubStore) UpsertJob(_ context.Context, job model.Job) (model.Job, error) {
	s.jobUpserts++
	key := job.Title + "|" + job.Company + "|" + job.DescriptionHash
	if existing, ok := s.jobs[key]; ok {
		existing.Active = true
		s.jobs[key] = existing
		return existing, nil
	}
	s.nextJobID++
	job.ID = fmt.Sprintf("job-%d", s.nextJobID)
	s.jobs[key] = job
	return job, nil
}

func (s *stubStore) TicketExists(_ context.Context, userID, jobID string) (bool, error) {
	_, ok := s.tickets[userID+"|"+jobID]
	return ok, nil
}

func (s *stubStore) CreateTicket(_ context.Context, t model.Ticket, _ model.Notification) (model.Ticket, error) {
	if s.createErr != nil {
		return model.Ticket{}, s.createErr
	}
	key := t.UserID + "|" + t.JobID
	if _, ok := s.tickets[key]; ok {
		return model.Ticket{}, scanner.ErrTicketExists
	}
	t.ID = "ticket-" + t.JobID
	s.tickets[key] = t
	return t, nil
}

func (s *stubStore) GetUserContact(context.Context, string) (string, string, error) {
	return s.user.Email, s.user.Name, nil
}

func (s *stubStore) TouchScanConfig(context.Context, string, time.Time, time.Time) error {
	s.touched++
	return nil
}

func (s *stubStore) DeactivateExpiredJobs(context.Context, time.Time) (int64, error) {
	s.expirySweep++
	return 0, nil
}

type stubSource struct {
	postings []model.RawPosting
	calls    int
	err      error
}

func (s *stubSource) FetchJobs(context.Context, model.Preferences, []string) ([]model.RawPosting, error) {
	s.calls++
	return s.postings, s.err
}

// stubExtractor echoes the posting fields back as structured data.
type stubExtractor struct {
	err error
}

func (e *stubExtractor) ExtractJobData(_ context.Context, description string) (model.JobExtraction, error) {
	if e.err != nil {
		return model.JobExtraction{}, e.err
	}
	// title/company encoded in the description for test postings: "title@company: text"
	at := strings.Index(description, "@")
	colon := strings.Index(description, ":")
	return model.JobExtraction{
		Title:       description[:at],
		Company:     description[at+1 : colon],
		Description: description,
		Locations:   []string{"Tel Aviv"},
		RoleTags:    []string{"BizOps"},
	}, nil
}

// stubScorer returns fixed sub-scores per job title.
type stubScorer struct {
	scores map[string][2]float64 // title → {userToJob, jobToUser}
	calls  int
}

func (s *stubScorer) ScoreJobFit(_ context.Context, _, _ string, _ model.Preferences, meta model.JobMeta) (model.Scoring, error) {
	s.calls++
	sub, ok := s.scores[meta.Title]
	if !ok {
		return model.Scoring{}, errors.New("no score configured for " + meta.Title)
	}
	return model.Scoring{
		UserToJobScore: sub[0],
		JobToUserScore: sub[1],
		OverallScore:   scoring.Overall(sub[0], sub[1]),
		Explanation:    "stub",
		Tags:           scoring.DeriveTags(sub[0], sub[1]),
	}, nil
}

type stubAlerts struct {
	sent []scanner.HighFitTicket
	err  error
}

func (a *stubAlerts) SendHighFitAlert(_ context.Context, _, _ string, t scanner.HighFitTicket) error {
	if a.err != nil {
		return a.err
	}
	a.sent = append(a.sent, t)
	return nil
}

// ── Fixtures ───────────────────────────────────────────────────────────────

func testUser(threshold float64) *scanner.ScanUser {
	return &scanner.ScanUser{
		ID:     "user-1",
		Email:  "guy@example.com",
		Name:   "Guy",
		BaseCV: "Built business operations from zero.",
		Config: &model.ScanConfig{ID: "cfg-1", UserID: "user-1", Enabled: true, Threshold: threshold},
		Preferences: []model.PreferenceSet{
			{Active: true, Roles: []string{"BizOps"}, Locations: []string{"Tel Aviv"}},
		},
	}
}

func posting(title, company string) model.RawPosting {
	return model.RawPosting{
		Title:       title,
		Company:     company,
		Description: title + "@" + company + ": the role",
		URL:         "https://example.com/" + title,
		Source:      "test",
	}
}

// ── ScanUser ───────────────────────────────────────────────────────────────

func TestScanUser_HighScoreCreatesTicketWithMatchTag(t *testing.T) {
	user := testUser(65)
	store := newStubStore(user)
	source := &stubSource{postings: []model.RawPosting{posting("BizOps Lead", "Impala")}}
	scorer := &stubScorer{scores: map[string][2]float64{"BizOps Lead": {92, 95}}}
	alerts := &stubAlerts{}
	svc := scanner.NewService(store, source, &stubExtractor{}, scorer, alerts)

	result, err := svc.ScanUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ScanUser error: %v", err)
	}
	if result.TicketsCreated != 1 {
		t.Fatalf("TicketsCreated = %d, want 1", result.TicketsCreated)
	}

	ticket := store.tickets["user-1|job-1"]
	if got := ticket.OverallScore; got < 93.19 || got > 93.21 {
		t.Errorf("OverallScore = %v, want 93.2", got)
	}
	if !containsTag(ticket.Tags, scoring.TagMatch) {
		t.Errorf("Tags = %v, want %q included", ticket.Tags, scoring.TagMatch)
	}
}

func TestScanUser_HighFitAlertPayload(t *testing.T) {
	user := testUser(65)
	store := newStubStore(user)
	source := &stubSource{postings: []model.RawPosting{posting("BizOps Lead", "Impala")}}
	scorer := &stubScorer{scores: map[string][2]float64{"BizOps Lead": {92, 95}}}
	alerts := &stubAlerts{}
	svc := scanner.NewService(store, source, &stubExtractor{}, scorer, alerts)

	if _, err := svc.ScanUser(context.Background(), "user-1"); err != nil {
		t.Fatalf("ScanUser error: %v", err)
	}
	if len(alerts.sent) != 1 {
		t.Fatalf("alerts sent = %d, want 1 (overall 93.2 ≥ 85)", len(alerts.sent))
	}
	alert := alerts.sent[0]
	if alert.ID == "" || alert.JobTitle != "BizOps Lead" || alert.Company != "Impala" {
		t.Errorf("alert payload = %+v", alert)
	}
	if len(alert.Tags) == 0 {
		t.Error("alert must carry the derived tags")
	}
}

func TestScanUser_BelowThresholdCreatesNothing(t *testing.T) {
	user := testUser(65)
	store := newStubStore(user)
	source := &stubSource{postings: []model.RawPosting{posting("BizOps Lead", "Impala")}}
	// overall = 0.6·60 + 0.4·55 = 58 < 65
	scorer := &stubScorer{scores: map[string][2]float64{"BizOps Lead": {60, 55}}}
	svc := scanner.NewService(store, source, &stubExtractor{}, scorer, &stubAlerts{})

	result, err := svc.ScanUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ScanUser error: %v", err)
	}
	if result.TicketsCreated != 0 || len(result.Errors) != 0 {
		t.Errorf("result = %+v, want zero tickets and no errors", result)
	}
	if len(store.tickets) != 0 {
		t.Error("below-threshold pair must not persist a ticket")
	}
	// The job itself is still catalogued, only the ticket is gated.
	if len(store.jobs) != 1 {
		t.Errorf("jobs stored = %d, want 1", len(store.jobs))
	}
}

func TestScanUser_SecondRunIsIdempotent(t *testing.T) {
	user := testUser(65)
	store := newStubStore(user)
	source := &stubSource{postings: []model.RawPosting{posting("BizOps Lead", "Impala")}}
	scorer := &stubScorer{scores: map[string][2]float64{"BizOps Lead": {92, 95}}}
	svc := scanner.NewService(store, source, &stubExtractor{}, scorer, &stubAlerts{})

	if _, err := svc.ScanUser(context.Background(), "user-1"); err != nil {
		t.Fatalf("first ScanUser error: %v", err)
	}
	second, err := svc.ScanUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("second ScanUser error: %v", err)
	}

	if second.TicketsCreated != 0 {
		t.Errorf("second run TicketsCreated = %d, want 0", second.TicketsCreated)
	}
	if len(store.jobs) != 1 {
		t.Errorf("jobs stored = %d, want 1 (dedup by fingerprint)", len(store.jobs))
	}
	if scorer.calls != 1 {
		t.Errorf("scorer calls = %d, want 1 (existing pair is never re-scored)", scorer.calls)
	}
}

func TestScanUser_SnoozedSkipsWithoutFetching(t *testing.T) {
	user := testUser(65)
	until := time.Now().Add(48 * time.Hour)
	user.Config.SnoozeUntil = &until
	store := newStubStore(user)
	source := &stubSource{postings: []model.RawPosting{posting("BizOps Lead", "Impala")}}
	svc := scanner.NewService(store, source, &stubExtractor{}, &stubScorer{}, &stubAlerts{})

	result, err := svc.ScanUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ScanUser error: %v", err)
	}
	if result.JobsScanned != 0 || result.TicketsCreated != 0 || len(result.Errors) != 0 {
		t.Errorf("result = %+v, want all-zero", result)
	}
	if source.calls != 0 {
		t.Error("snoozed scan must not call the job source")
	}
	if store.touched != 0 {
		t.Error("snoozed scan must not touch scan bookkeeping")
	}
}

func TestScanUser_ExpiredSnoozeScans(t *testing.T) {
	user := testUser(65)
	past := time.Now().Add(-time.Hour)
	user.Config.SnoozeUntil = &past
	store := newStubStore(user)
	source := &stubSource{}
	svc := scanner.NewService(store, source, &stubExtractor{}, &stubScorer{}, &stubAlerts{})

	if _, err := svc.ScanUser(context.Background(), "user-1"); err != nil {
		t.Fatalf("ScanUser error: %v", err)
	}
	if source.calls != 1 {
		t.Error("an elapsed snooze must not suppress the scan")
	}
}

func TestScanUser_MissingCVSkipsSilently(t *testing.T) {
	user := testUser(65)
	user.BaseCV = ""
	store := newStubStore(user)
	source := &stubSource{}
	svc := scanner.NewService(store, source, &stubExtractor{}, &stubScorer{}, &stubAlerts{})

	result, err := svc.ScanUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ScanUser error: %v", err)
	}
	if len(result.Errors) != 0 {
		t.Errorf("missing CV is a skip, not an error: %v", result.Errors)
	}
	if source.calls != 0 {
		t.Error("skipped scan must not call the job source")
	}
}

func TestScanUser_TouchesBookkeepingWithZeroPostings(t *testing.T) {
	user := testUser(65)
	store := newStubStore(user)
	svc := scanner.NewService(store, &stubSource{}, &stubExtractor{}, &stubScorer{}, &stubAlerts{})

	if _, err := svc.ScanUser(context.Background(), "user-1"); err != nil {
		t.Fatalf("ScanUser error: %v", err)
	}
	if store.touched != 1 {
		t.Errorf("TouchScanConfig calls = %d, want 1 even with an empty feed", store.touched)
	}
}

func TestScanUser_PerJobErrorDoesNotAbortScan(t *testing.T) {
	user := testUser(65)
	store := newStubStore(user)
	source := &stubSource{postings: []model.RawPosting{
		posting("Broken Role", "Acme"), // no score configured → scorer error
		posting("BizOps Lead", "Impala"),
	}}
	scorer := &stubScorer{scores: map[string][2]float64{"BizOps Lead": {92, 95}}}
	svc := scanner.NewService(store, source, &stubExtractor{}, scorer, &stubAlerts{})

	result, err := svc.ScanUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ScanUser error: %v", err)
	}
	if result.TicketsCreated != 1 {
		t.Errorf("TicketsCreated = %d, want 1 (second posting still processed)", result.TicketsCreated)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "Broken Role") {
		t.Errorf("Errors = %v, want one entry naming the broken posting", result.Errors)
	}
}

func TestScanUser_UniqueViolationIsBenign(t *testing.T) {
	user := testUser(65)
	store := newStubStore(user)
	store.createErr = scanner.ErrTicketExists
	source := &stubSource{postings: []model.RawPosting{posting("BizOps Lead", "Impala")}}
	scorer := &stubScorer{scores: map[string][2]float64{"BizOps Lead": {92, 95}}}
	svc := scanner.NewService(store, source, &stubExtractor{}, scorer, &stubAlerts{})

	result, err := svc.ScanUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ScanUser error: %v", err)
	}
	if result.TicketsCreated != 0 {
		t.Errorf("TicketsCreated = %d, want 0", result.TicketsCreated)
	}
	if len(result.Errors) != 0 {
		t.Errorf("a lost insert race must not surface as an error: %v", result.Errors)
	}
}

// ── ScanAllUsers ───────────────────────────────────────────────────────────

func TestScanAllUsers_SummaryAndExpirySweep(t *testing.T) {
	user := testUser(65)
	store := newStubStore(user)
	source := &stubSource{postings: []model.RawPosting{posting("BizOps Lead", "Impala")}}
	scorer := &stubScorer{scores: map[string][2]float64{"BizOps Lead": {92, 95}}}
	svc := scanner.NewService(store, source, &stubExtractor{}, scorer, &stubAlerts{})

	summary := svc.ScanAllUsers(context.Background())
	if summary.UsersScanned != 1 {
		t.Errorf("UsersScanned = %d, want 1", summary.UsersScanned)
	}
	if summary.TotalTicketsCreated != 1 {
		t.Errorf("TotalTicketsCreated = %d, want 1", summary.TotalTicketsCreated)
	}
	if store.expirySweep != 1 {
		t.Errorf("expiry sweep calls = %d, want exactly 1 after all users", store.expirySweep)
	}
}

func TestScanAllUsers_UserErrorsAreCollected(t *testing.T) {
	user := testUser(65)
	store := newStubStore(user)
	source := &stubSource{err: errors.New("board unavailable")}
	svc := scanner.NewService(store, source, &stubExtractor{}, &stubScorer{}, &stubAlerts{})

	summary := svc.ScanAllUsers(context.Background())
	if summary.UsersScanned != 1 {
		t.Errorf("UsersScanned = %d, want 1 (failed user still counted)", summary.UsersScanned)
	}
	if len(summary.Errors) != 1 || !strings.Contains(summary.Errors[0], "board unavailable") {
		t.Errorf("Errors = %v", summary.Errors)
	}
	if store.expirySweep != 1 {
		t.Error("expiry sweep must run even when user scans fail")
	}
}

// ── DescriptionHash ────────────────────────────────────────────────────────

func TestDescriptionHash_Stable(t *testing.T) {
	a := scanner.DescriptionHash("the same text")
	b := scanner.DescriptionHash("the same text")
	if a != b {
		t.Error("hash must be deterministic")
	}
	if a == scanner.DescriptionHash("different text") {
		t.Error("different descriptions must hash differently")
	}
	if len(a) != 32 {
		t.Errorf("hex MD5 length = %d, want 32", len(a))
	}
}

func containsTag(tags []string, want string) bool {
	for _, tag := range tags {
		if tag == want {
			return true
		}
	}
	return false
}
