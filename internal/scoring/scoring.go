// Package scoring holds the pure fit-score arithmetic: the weighted overall
// score and the tag-derivation rules applied to the two sub-scores.
//
// The scoring collaborator returns the same numbers, but this package is the
// single authoritative implementation; the LLM wrapper and the reconciler
// both recompute from the sub-scores here rather than trusting prose output.
package scoring

// Sub-score weights: the candidate→job direction dominates.
const (
	userToJobWeight = 0.6
	jobToUserWeight = 0.4
)

// Tag values surfaced on tickets and in notification emails.
const (
	TagUserHighFit = "You're a High Fit!"
	TagJobHighFit  = "They're a High Fit for you!"
	TagMatch       = "That's a Match!"
	TagStretch     = "Stretch Role"
	TagLeftField   = "Left Field"
)

// Overall returns min(0.6·userToJob + 0.4·jobToUser, 100).
func Overall(userToJob, jobToUser float64) float64 {
	overall := userToJobWeight*userToJob + jobToUserWeight*jobToUser
	if overall > 100 {
		return 100
	}
	return overall
}

// Clamp bounds a sub-score to [0,100]. Model output occasionally drifts out
// of range; everything downstream assumes the closed interval.
func Clamp(score float64) float64 {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	}
	return score
}

// DeriveTags applies the threshold rules to the two sub-scores:
//
//	userToJob ≥ 90                  → "You're a High Fit!"
//	jobToUser ≥ 90                  → "They're a High Fit for you!"
//	both ≥ 90                       → "That's a Match!"
//	70 ≤ userToJob < 85             → "Stretch Role"
//	jobToUser < 60 ∧ userToJob ≥ 75 → "Left Field"
func DeriveTags(userToJob, jobToUser float64) []string {
	tags := make([]string, 0, 3)
	if userToJob >= 90 {
		tags = append(tags, TagUserHighFit)
	}
	if jobToUser >= 90 {
		tags = append(tags, TagJobHighFit)
	}
	if userToJob >= 90 && jobToUser >= 90 {
		tags = append(tags, TagMatch)
	}
	if userToJob >= 70 && userToJob < 85 {
		tags = append(tags, TagStretch)
	}
	if jobToUser < 60 && userToJob >= 75 {
		tags = append(tags, TagLeftField)
	}
	return tags
}
