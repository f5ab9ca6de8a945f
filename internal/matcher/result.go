package matcher

import (
	"fmt"
	"strings"
)

// CriterionResult records how a single eligibility tag scored against the
// profile.
type CriterionResult struct {
	Tag       string `json:"tag"`
	Kind      Kind   `json:"kind"`
	Required  bool   `json:"required,omitempty"`
	Satisfied bool   `json:"satisfied"`
	// Unscored marks tags outside the recognized grammar. They never block
	// eligibility and stay out of the score.
	Unscored  bool   `json:"unscored,omitempty"`
	Rationale string `json:"rationale,omitempty"`
}

// MatchResult is the outcome of matching one grant against the profile.
type MatchResult struct {
	GrantID  string            `json:"grant_id,omitempty"`
	Score    float64           `json:"score"`
	Eligible bool              `json:"eligible"`
	Criteria []CriterionResult `json:"criteria,omitempty"`
	// Error is set when the grant itself was malformed and could not be
	// matched at all. Eligible is always false in that case.
	Error string `json:"error,omitempty"`
}

// Failed reports whether the grant could not be matched at all.
func (r *MatchResult) Failed() bool {
	return r.Error != ""
}

// Unmet returns the required criteria the profile does not satisfy.
func (r *MatchResult) Unmet() []CriterionResult {
	var unmet []CriterionResult
	for _, c := range r.Criteria {
		if c.Required && !c.Unscored && !c.Satisfied {
			unmet = append(unmet, c)
		}
	}
	return unmet
}

// UnscoredTags returns the tags that were skipped as unrecognized.
func (r *MatchResult) UnscoredTags() []string {
	var tags []string
	for _, c := range r.Criteria {
		if c.Unscored {
			tags = append(tags, c.Tag)
		}
	}
	return tags
}

// Summary renders a one-line human explanation of the result.
func (r *MatchResult) Summary() string {
	if r.Failed() {
		return fmt.Sprintf("not matched: %s", r.Error)
	}

	if r.Eligible {
		scored, satisfied := 0, 0
		for _, c := range r.Criteria {
			if c.Unscored {
				continue
			}
			scored++
			if c.Satisfied {
				satisfied++
			}
		}
		if scored == 0 {
			return fmt.Sprintf("eligible, score %.2f (no scorable criteria)", r.Score)
		}
		return fmt.Sprintf("eligible, score %.2f (%d/%d criteria met)", r.Score, satisfied, scored)
	}

	unmet := r.Unmet()
	if len(unmet) == 0 {
		return fmt.Sprintf("not eligible, score %.2f below threshold", r.Score)
	}
	reasons := make([]string, 0, len(unmet))
	for _, c := range unmet {
		reasons = append(reasons, c.Rationale)
	}
	return "not eligible: " + strings.Join(reasons, "; ")
}
