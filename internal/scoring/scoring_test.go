package scoring_test

import (
	"math"
	"testing"

	"findmygig/scan-service/internal/scoring"
)

// ── Overall ────────────────────────────────────────────────────────────────

func TestOverall_WeightedAverage(t *testing.T) {
	cases := []struct {
		userToJob float64
		jobToUser float64
		want      float64
	}{
		{0, 0, 0},
		{100, 100, 100},
		{92, 95, 93.2}, // 0.6·92 + 0.4·95
		{50, 50, 50},
		{80, 20, 56},
		{70, 85, 76},
	}
	for _, c := range cases {
		got := scoring.Overall(c.userToJob, c.jobToUser)
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("Overall(%v, %v) = %v, want %v", c.userToJob, c.jobToUser, got, c.want)
		}
	}
}

func TestOverall_CappedAt100(t *testing.T) {
	// Out-of-range sub-scores must never push the overall above the cap.
	if got := scoring.Overall(150, 150); got != 100 {
		t.Errorf("Overall(150, 150) = %v, want 100", got)
	}
}

// ── Clamp ──────────────────────────────────────────────────────────────────

func TestClamp(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{-5, 0},
		{0, 0},
		{42.5, 42.5},
		{100, 100},
		{103, 100},
	}
	for _, c := range cases {
		if got := scoring.Clamp(c.in); got != c.want {
			t.Errorf("Clamp(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

// ── DeriveTags ─────────────────────────────────────────────────────────────

func TestDeriveTags_Match(t *testing.T) {
	tags := scoring.DeriveTags(92, 95)
	want := []string{scoring.TagUserHighFit, scoring.TagJobHighFit, scoring.TagMatch}
	if len(tags) != len(want) {
		t.Fatalf("DeriveTags(92, 95) = %v, want %v", tags, want)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Errorf("DeriveTags(92, 95)[%d] = %q, want %q", i, tags[i], want[i])
		}
	}
}

func TestDeriveTags_StretchRole(t *testing.T) {
	for _, u2j := range []float64{70, 77, 84.9} {
		tags := scoring.DeriveTags(u2j, 65)
		if !contains(tags, scoring.TagStretch) {
			t.Errorf("DeriveTags(%v, 65) = %v, expected %q", u2j, tags, scoring.TagStretch)
		}
	}
	// 85 is outside the stretch band.
	if tags := scoring.DeriveTags(85, 65); contains(tags, scoring.TagStretch) {
		t.Errorf("DeriveTags(85, 65) = %v, should not include %q", tags, scoring.TagStretch)
	}
}

func TestDeriveTags_LeftField(t *testing.T) {
	tags := scoring.DeriveTags(80, 40)
	if !contains(tags, scoring.TagLeftField) {
		t.Errorf("DeriveTags(80, 40) = %v, expected %q", tags, scoring.TagLeftField)
	}
	// jobToUser at 60 is not "left field".
	if tags := scoring.DeriveTags(80, 60); contains(tags, scoring.TagLeftField) {
		t.Errorf("DeriveTags(80, 60) = %v, should not include %q", tags, scoring.TagLeftField)
	}
	// Low userToJob disqualifies the tag too.
	if tags := scoring.DeriveTags(74, 40); contains(tags, scoring.TagLeftField) {
		t.Errorf("DeriveTags(74, 40) = %v, should not include %q", tags, scoring.TagLeftField)
	}
}

func TestDeriveTags_MidScoresYieldNothing(t *testing.T) {
	if tags := scoring.DeriveTags(60, 65); len(tags) != 0 {
		t.Errorf("DeriveTags(60, 65) = %v, want empty", tags)
	}
}

func TestDeriveTags_OneSidedHighFit(t *testing.T) {
	tags := scoring.DeriveTags(95, 50)
	if !contains(tags, scoring.TagUserHighFit) {
		t.Errorf("DeriveTags(95, 50) = %v, expected %q", tags, scoring.TagUserHighFit)
	}
	if contains(tags, scoring.TagMatch) {
		t.Errorf("DeriveTags(95, 50) = %v, %q requires both sub-scores ≥ 90", tags, scoring.TagMatch)
	}
	// 95/50 also satisfies the left-field rule.
	if !contains(tags, scoring.TagLeftField) {
		t.Errorf("DeriveTags(95, 50) = %v, expected %q", tags, scoring.TagLeftField)
	}
}

func contains(tags []string, want string) bool {
	for _, tag := range tags {
		if tag == want {
			return true
		}
	}
	return false
}
