package matcher

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/marvmedia/grantfinder/internal/grants"
	"github.com/marvmedia/grantfinder/internal/profile"
)

const (
	requiredWeight  = 1.0
	preferredWeight = 0.5
)

// Matcher scores grants against a company profile. Matching is deterministic,
// uses no clock and touches no I/O, so identical inputs always produce
// identical results. Deadline handling lives in the filter pipeline instead.
type Matcher struct {
	threshold float64
	logger    *zap.Logger
}

// New returns a matcher with the given score threshold. Required tags always
// gate eligibility, the threshold only adds a floor on top of that. A zero
// threshold keeps the default rule of "every required tag satisfied".
func New(threshold float64, logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{threshold: threshold, logger: logger}
}

// Match evaluates a single grant. A malformed grant or missing profile yields
// a result with Error set instead of a Go error, so batch callers can keep
// going and still report what happened.
func (m *Matcher) Match(grant *grants.Grant, p *profile.Profile) *MatchResult {
	switch {
	case grant == nil:
		return &MatchResult{Error: "no grant provided"}
	case strings.TrimSpace(grant.ID) == "":
		return &MatchResult{Error: "grant has no ID"}
	case p == nil:
		return &MatchResult{GrantID: grant.ID, Error: "no company profile provided"}
	}

	result := &MatchResult{GrantID: grant.ID}

	var weightTotal, weightSatisfied float64
	requiredUnmet := 0

	evaluateTags := func(tags []string, required bool, weight float64) {
		for _, tag := range tags {
			criterion := ParseCriterion(tag)
			satisfied, unscored, rationale := evaluate(criterion, p)

			result.Criteria = append(result.Criteria, CriterionResult{
				Tag:       tag,
				Kind:      criterion.Kind,
				Required:  required,
				Satisfied: satisfied,
				Unscored:  unscored,
				Rationale: rationale,
			})

			if unscored {
				continue
			}
			weightTotal += weight
			if satisfied {
				weightSatisfied += weight
			} else if required {
				requiredUnmet++
			}
		}
	}

	evaluateTags(grant.Criteria.Required, true, requiredWeight)
	evaluateTags(grant.Criteria.Preferred, false, preferredWeight)

	if weightTotal == 0 {
		// Nothing scorable means the grant is open to everyone.
		result.Score = 1.0
	} else {
		result.Score = weightSatisfied / weightTotal
	}
	result.Eligible = requiredUnmet == 0 && result.Score >= m.threshold

	m.logger.Debug("matched grant",
		zap.String("grant_id", grant.ID),
		zap.Float64("score", result.Score),
		zap.Bool("eligible", result.Eligible),
	)

	return result
}

// MatchAll matches every grant in the collection, keyed by grant ID.
func (m *Matcher) MatchAll(items *grants.Grants, p *profile.Profile) map[string]*MatchResult {
	results := make(map[string]*MatchResult, items.Len())
	for _, grant := range items.Items {
		result := m.Match(grant, p)
		results[result.GrantID] = result
	}
	return results
}

// Rank orders grants for review: nearest deadline first with rolling
// deadlines last, then by descending score, then by ID so the order is stable
// across runs.
func Rank(items *grants.Grants, results map[string]*MatchResult) {
	score := func(id string) float64 {
		if r, ok := results[id]; ok && !r.Failed() {
			return r.Score
		}
		return 0
	}

	sort.Slice(items.Items, func(i, j int) bool {
		a, b := items.Items[i], items.Items[j]
		switch {
		case a.HasDeadline() != b.HasDeadline():
			return a.HasDeadline()
		case a.HasDeadline() && !a.Deadline.Equal(b.Deadline):
			return a.Deadline.Before(b.Deadline)
		}
		if sa, sb := score(a.ID), score(b.ID); sa != sb {
			return sa > sb
		}
		return a.ID < b.ID
	})
}

func evaluate(c Criterion, p *profile.Profile) (satisfied, unscored bool, rationale string) {
	switch c.Kind {
	case KindOwnership:
		satisfied, rationale = evaluateOwnership(c, p)
	case KindLocation:
		satisfied, rationale = evaluateLocation(c, p)
	case KindIndustry:
		satisfied, rationale = evaluateIndustry(c, p)
	case KindNAICS:
		satisfied, rationale = evaluateNAICS(c, p)
	case KindCertification:
		satisfied, rationale = evaluateCertification(c, p)
	case KindRevenue:
		satisfied, rationale = evaluateRevenue(c, p)
	case KindEmployees:
		satisfied, rationale = evaluateEmployees(c, p)
	case KindYears:
		satisfied, rationale = evaluateYears(c, p)
	default:
		return evaluateUnknown(c, p)
	}
	return satisfied, false, rationale
}

func evaluateOwnership(c Criterion, p *profile.Profile) (bool, string) {
	if c.Key == profile.AttrSmallBusiness {
		if p.SmallBusiness() {
			return true, "company qualifies as a small business"
		}
		return false, "company does not qualify as a small business"
	}

	var have bool
	switch c.Key {
	case profile.AttrWomanOwned:
		have = p.WomanOwned()
	case profile.AttrMinorityOwned:
		have = p.MinorityOwned()
	case profile.AttrVeteranOwned:
		have = p.VeteranOwned()
	case profile.AttrDisabledVeteranOwned:
		have = p.DisabledVeteranOwned()
	}

	if have {
		return true, fmt.Sprintf("profile has %s ownership", c.Key)
	}
	return false, fmt.Sprintf("profile lacks %s ownership", c.Key)
}

func evaluateLocation(c Criterion, p *profile.Profile) (bool, string) {
	switch c.Key {
	case "nationwide", "us", "usa", "united states":
		return true, "open nationwide"
	}

	if len(c.Key) == 2 {
		if p.InState(c.Key) {
			return true, fmt.Sprintf("company is located in %s", strings.ToUpper(c.Key))
		}
		return false, fmt.Sprintf("grant is limited to %s, company is in %s",
			strings.ToUpper(c.Key), p.Company.Location.State)
	}

	if p.InCity(c.Key) {
		return true, fmt.Sprintf("company is located in %s", c.Key)
	}
	return false, fmt.Sprintf("grant is limited to %s", c.Key)
}

func evaluateIndustry(c Criterion, p *profile.Profile) (bool, string) {
	if p.HasIndustry(c.Key) {
		return true, fmt.Sprintf("industry tags include %s", c.Key)
	}
	return false, fmt.Sprintf("industry tags do not include %s", c.Key)
}

func evaluateNAICS(c Criterion, p *profile.Profile) (bool, string) {
	if p.HasNAICSPrefix(c.Key) {
		return true, fmt.Sprintf("a NAICS code matches %s", c.Key)
	}
	return false, fmt.Sprintf("no NAICS code matches %s", c.Key)
}

func evaluateCertification(c Criterion, p *profile.Profile) (bool, string) {
	if p.Certified(c.Key) {
		return true, fmt.Sprintf("holds certification %s", c.Key)
	}
	return false, fmt.Sprintf("missing certification %s", c.Key)
}

func evaluateRevenue(c Criterion, p *profile.Profile) (bool, string) {
	revenue := p.Company.AnnualRevenue
	if revenue == 0 {
		return false, "annual revenue is not recorded in the profile"
	}

	if compare(revenue, c.Op, c.Value) {
		return true, fmt.Sprintf("annual revenue %s is %s %s",
			grants.FormatDollars(revenue), opPhrase(c.Op), grants.FormatDollars(c.Value))
	}
	return false, fmt.Sprintf("annual revenue %s is not %s %s",
		grants.FormatDollars(revenue), opPhrase(c.Op), grants.FormatDollars(c.Value))
}

func evaluateEmployees(c Criterion, p *profile.Profile) (bool, string) {
	count := p.Company.EmployeeCount
	if count == 0 {
		return false, "employee count is not recorded in the profile"
	}

	if compare(int64(count), c.Op, c.Value) {
		return true, fmt.Sprintf("employee count %d is %s %d", count, opPhrase(c.Op), c.Value)
	}
	return false, fmt.Sprintf("employee count %d is not %s %d", count, opPhrase(c.Op), c.Value)
}

func evaluateYears(c Criterion, p *profile.Profile) (bool, string) {
	years := p.Company.YearsInBusiness
	if years == 0 {
		return false, "years in business is not recorded in the profile"
	}

	if compare(int64(years), c.Op, c.Value) {
		return true, fmt.Sprintf("%d years in business is %s %d", years, opPhrase(c.Op), c.Value)
	}
	return false, fmt.Sprintf("%d years in business is not %s %d", years, opPhrase(c.Op), c.Value)
}

// evaluateUnknown gives profile attributes a chance to satisfy tags outside
// the grammar. A tag nobody declared stays unscored and never blocks.
func evaluateUnknown(c Criterion, p *profile.Profile) (bool, bool, string) {
	key := strings.ToLower(strings.TrimSpace(c.Tag))
	if value, ok := p.Attribute(key); ok {
		if value {
			return true, false, fmt.Sprintf("profile declares %s", key)
		}
		return false, false, fmt.Sprintf("profile declares %s as false", key)
	}
	return false, true, "not a recognized criterion, skipped"
}

func opPhrase(op Op) string {
	switch op {
	case OpLess:
		return "under"
	case OpLessEqual:
		return "at most"
	case OpGreater:
		return "over"
	case OpGreaterEqual:
		return "at least"
	default:
		return string(op)
	}
}
