package filtering

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/marvmedia/grantfinder/internal/grants"
	"github.com/marvmedia/grantfinder/internal/matcher"
	"github.com/marvmedia/grantfinder/internal/profile"
)

// Filter represents a single filtering step applied to discovered grants.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate(cfg *Config) error
	Apply(ctx context.Context, deps Deps, g *grants.Grants) (*grants.Grants, Step, error)
}

// GrantStore is the slice of the local store the filters need.
type GrantStore interface {
	KnownIDs() (map[string]struct{}, error)
}

// Deps aggregates dependencies shared across all filtering steps.
type Deps struct {
	Store   GrantStore
	Matcher *matcher.Matcher
	Profile *profile.Profile
	Logger  *zap.Logger
	// Now supplies the clock for deadline checks so matching itself stays
	// time-independent. Defaults to time.Now when nil.
	Now func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Config contains configuration settings consumed by the filters.
type Config struct {
	// MinimumScore is the promotion cutoff applied by the eligibility step.
	// Eligible grants scoring under it stay behind as discovered.
	MinimumScore   float64
	ExcludeFunders []string
	ExcludeFile    string
	// Rescan re-evaluates grants the store already knows.
	Rescan bool
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

// statusProvider is implemented by filters that can supply detailed status information.
type statusProvider interface {
	Status() Status
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Filter, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Run executes the supplied filters sequentially, returning the surviving
// grants and the match results collected along the way.
func Run(ctx context.Context, cfg *Config, deps Deps, steps []Filter, g *grants.Grants) (*grants.Grants, map[string]*matcher.MatchResult, error) {
	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(cfg); err != nil {
			return nil, nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	results := make(map[string]*matcher.MatchResult)
	for _, step := range steps {
		if !step.IsEnabled() {
			if deps.Logger != nil {
				deps.Logger.Info("filter disabled", zap.String("name", step.Name()))
			}
			continue
		}

		next, info, err := step.Apply(ctx, deps, g)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		if deps.Logger != nil {
			deps.Logger.Info("filter step",
				zap.String("name", step.Name()),
				zap.Int("initial", info.Initial),
				zap.Int("dropped", info.Dropped),
				zap.Int("left", info.Left),
			)
		}

		g = next

		if collector, ok := step.(interface {
			Results() map[string]*matcher.MatchResult
		}); ok {
			for id, result := range collector.Results() {
				results[id] = result
			}
		}
	}

	return g, results, nil
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}

// Default returns the standard scan filter chain in execution order.
func Default() []Filter {
	return []Filter{
		NewExpired(),
		NewKnownGrants(),
		NewFunders(),
		NewExcludeFile(),
		NewEligibility(),
	}
}
