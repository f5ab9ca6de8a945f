package filtering

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/marvmedia/grantfinder/internal/grants"
	"github.com/marvmedia/grantfinder/internal/matcher"
)

type expiredFilter struct{}

// NewExpired creates a filter that removes grants whose deadline passed.
func NewExpired() Filter {
	return &expiredFilter{}
}

func (f *expiredFilter) Name() string { return "expired" }

func (f *expiredFilter) Disable(string) {}

func (f *expiredFilter) IsEnabled() bool { return true }

func (f *expiredFilter) Validate(*Config) error { return nil }

func (f *expiredFilter) Apply(_ context.Context, deps Deps, g *grants.Grants) (*grants.Grants, Step, error) {
	initial := g.Len()
	now := deps.now()

	expired := make([]string, 0)
	for _, grant := range g.Items {
		if grant.Expired(now) {
			expired = append(expired, grant.ID)
		}
	}

	removed := g.Exclude(grants.GrantIDField, expired)
	if deps.Logger != nil && len(removed) > 0 {
		deps.Logger.Info("excluding grants with passed deadlines",
			zap.Strings("excluded_grants", removed),
			zap.Int("grants_left", g.Len()),
		)
	}

	return g, Step{Initial: initial, Dropped: len(removed), Left: g.Len()}, nil
}

func (f *expiredFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: true}
}

type knownGrantsFilter struct {
	rescan bool
}

// NewKnownGrants creates a filter that removes grants already present in the
// local store, so every scan surfaces only new opportunities.
func NewKnownGrants() Filter {
	return &knownGrantsFilter{}
}

func (f *knownGrantsFilter) Name() string { return "known_grants" }

func (f *knownGrantsFilter) Disable(string) {}

func (f *knownGrantsFilter) IsEnabled() bool { return true }

func (f *knownGrantsFilter) Validate(cfg *Config) error {
	f.rescan = cfg != nil && cfg.Rescan
	return nil
}

func (f *knownGrantsFilter) Apply(_ context.Context, deps Deps, g *grants.Grants) (*grants.Grants, Step, error) {
	initial := g.Len()
	if f.rescan {
		if deps.Logger != nil {
			deps.Logger.Info("keeping already known grants", zap.String("reason", "rescan requested"))
		}
		return g, Step{Initial: initial, Dropped: 0, Left: g.Len()}, nil
	}

	if deps.Store == nil {
		return g, Step{}, fmt.Errorf("grant store is required")
	}

	known, err := deps.Store.KnownIDs()
	if err != nil {
		return g, Step{}, fmt.Errorf("listing known grants: %w", err)
	}

	ids := make([]string, 0, len(known))
	for _, grant := range g.Items {
		if _, ok := known[grant.ID]; ok {
			ids = append(ids, grant.ID)
		}
	}

	removed := g.Exclude(grants.GrantIDField, ids)
	if deps.Logger != nil && len(removed) > 0 {
		deps.Logger.Info("excluding grants already tracked in the store",
			zap.Strings("excluded_grants", removed),
			zap.Int("grants_left", g.Len()),
		)
	}

	return g, Step{Initial: initial, Dropped: len(removed), Left: g.Len()}, nil
}

func (f *knownGrantsFilter) Status() Status {
	details := map[string]string{
		"exclude_known": strconv.FormatBool(!f.rescan),
	}
	reason := ""
	if f.rescan {
		reason = "rescan requested via flag"
	}
	return Status{Name: f.Name(), Enabled: true, Reason: reason, Details: details}
}

type fundersFilter struct {
	funders []string
}

// NewFunders creates a filter that removes grants from funders configured in
// matching.exclude-funders.
func NewFunders() Filter {
	return &fundersFilter{}
}

func (f *fundersFilter) Name() string { return "funders" }

func (f *fundersFilter) Disable(string) {}

func (f *fundersFilter) IsEnabled() bool { return true }

func (f *fundersFilter) Validate(cfg *Config) error {
	f.funders = nil
	if cfg != nil {
		f.funders = append(f.funders, cfg.ExcludeFunders...)
	}
	return nil
}

func (f *fundersFilter) Apply(_ context.Context, deps Deps, g *grants.Grants) (*grants.Grants, Step, error) {
	initial := g.Len()
	if len(f.funders) == 0 {
		return g, Step{Initial: initial, Dropped: 0, Left: g.Len()}, nil
	}

	// One funder can show up on many grants, so collect IDs instead of
	// excluding by funder field directly.
	ids := make([]string, 0)
	for _, grant := range g.Items {
		for _, funder := range f.funders {
			if strings.EqualFold(grant.Funder, funder) {
				ids = append(ids, grant.ID)
				break
			}
		}
	}

	removed := g.Exclude(grants.GrantIDField, ids)
	if deps.Logger != nil && len(removed) > 0 {
		deps.Logger.Info("excluding grants by funders",
			zap.Strings("excluded_funders", f.funders),
			zap.Strings("excluded_grants", removed),
			zap.Int("grants_left", g.Len()),
		)
	}

	return g, Step{Initial: initial, Dropped: len(removed), Left: g.Len()}, nil
}

func (f *fundersFilter) Status() Status {
	details := map[string]string{}
	if len(f.funders) > 0 {
		details["funders"] = strings.Join(f.funders, ",")
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}

type excludeFileFilter struct {
	path string
}

// NewExcludeFile creates a filter that removes grants recorded in the
// operator's exclude file.
func NewExcludeFile() Filter {
	return &excludeFileFilter{}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Disable(string) {}

func (f *excludeFileFilter) IsEnabled() bool { return true }

func (f *excludeFileFilter) Validate(cfg *Config) error {
	f.path = ""
	if cfg != nil {
		f.path = strings.TrimSpace(cfg.ExcludeFile)
	}
	return nil
}

func (f *excludeFileFilter) Apply(_ context.Context, deps Deps, g *grants.Grants) (*grants.Grants, Step, error) {
	initial := g.Len()
	if f.path == "" {
		return g, Step{Initial: initial, Dropped: 0, Left: g.Len()}, nil
	}

	excluded, err := grants.GetExcludedGrantsFromFile(f.path)
	if err != nil {
		return g, Step{}, fmt.Errorf("getting excluded grants from file: %w", err)
	}

	removed := g.Exclude(grants.GrantIDField, excluded.GrantIDs())
	if deps.Logger != nil && len(removed) > 0 {
		deps.Logger.Info("excluding grants based on exclude file",
			zap.String("path", f.path),
			zap.Strings("excluded_grants", removed),
			zap.Int("grants_left", g.Len()),
		)
	}

	return g, Step{Initial: initial, Dropped: len(removed), Left: g.Len()}, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}

type eligibilityFilter struct {
	disabled bool
	reason   string
	minScore float64
	results  map[string]*matcher.MatchResult
}

// NewEligibility creates the matching step. It evaluates every remaining grant
// against the company profile and keeps the ones worth pursuing.
func NewEligibility() Filter {
	return &eligibilityFilter{}
}

func (f *eligibilityFilter) Name() string { return "eligibility" }

func (f *eligibilityFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *eligibilityFilter) IsEnabled() bool { return !f.disabled }

func (f *eligibilityFilter) Validate(cfg *Config) error {
	f.minScore = 0
	if cfg != nil {
		f.minScore = cfg.MinimumScore
	}
	return nil
}

func (f *eligibilityFilter) Apply(_ context.Context, deps Deps, g *grants.Grants) (*grants.Grants, Step, error) {
	initial := g.Len()
	if deps.Matcher == nil {
		return g, Step{}, fmt.Errorf("matcher is required")
	}
	if deps.Profile == nil {
		return g, Step{}, fmt.Errorf("company profile is required")
	}

	f.results = make(map[string]*matcher.MatchResult, initial)
	kept := make([]*grants.Grant, 0, initial)

	for _, grant := range g.Items {
		result := deps.Matcher.Match(grant, deps.Profile)
		if result.GrantID != "" {
			f.results[result.GrantID] = result
		}

		if result.Failed() {
			if deps.Logger != nil {
				deps.Logger.Warn("grant could not be matched",
					zap.String("grant_id", grant.ID),
					zap.String("error", result.Error),
				)
			}
			continue
		}

		if !result.Eligible || result.Score < f.minScore {
			if deps.Logger != nil {
				deps.Logger.Info("grant rejected by eligibility matching",
					zap.String("grant_id", grant.ID),
					zap.Float64("score", result.Score),
					zap.Bool("eligible", result.Eligible),
					zap.String("summary", result.Summary()),
				)
			}
			continue
		}

		if deps.Logger != nil {
			deps.Logger.Info("grant matched",
				zap.String("grant_id", grant.ID),
				zap.Float64("score", result.Score),
			)
		}

		kept = append(kept, grant)
	}

	g.Items = kept

	return g, Step{Initial: initial, Dropped: initial - g.Len(), Left: g.Len()}, nil
}

func (f *eligibilityFilter) Results() map[string]*matcher.MatchResult {
	if f.results == nil {
		return map[string]*matcher.MatchResult{}
	}
	return f.results
}

func (f *eligibilityFilter) Status() Status {
	details := map[string]string{
		"minimum_score": fmt.Sprintf("%.2f", f.minScore),
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
