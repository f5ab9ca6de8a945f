package filtering

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/marvmedia/grantfinder/internal/grants"
	"github.com/marvmedia/grantfinder/internal/matcher"
	"github.com/marvmedia/grantfinder/internal/profile"
)

type fakeStore struct {
	known map[string]struct{}
	err   error
}

func (s *fakeStore) KnownIDs() (map[string]struct{}, error) {
	return s.known, s.err
}

func testProfile() *profile.Profile {
	p := &profile.Profile{
		Company: profile.Company{
			Name:          "Example Media LLC",
			Location:      profile.Location{City: "Sacramento", State: "CA"},
			AnnualRevenue: 85000,
			EmployeeCount: 3,
		},
		Owners: []profile.Owner{
			{Name: "A", Percent: 50, Woman: true},
			{Name: "B", Percent: 50},
		},
	}
	p.Normalize()
	return p
}

func testGrants() *grants.Grants {
	deadline := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	return &grants.Grants{Items: []*grants.Grant{
		{ID: "g-1", Funder: "Acme Foundation", Deadline: deadline,
			Criteria: grants.Criteria{Required: []string{"woman-owned"}}},
		{ID: "g-2", Funder: "Other Org", Deadline: deadline,
			Criteria: grants.Criteria{Required: []string{"veteran-owned"}}},
		{ID: "g-3", Funder: "Acme Foundation"},
	}}
}

func TestExpiredFilterDropsPassedDeadlines(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	g := testGrants()

	filter := NewExpired()
	left, step, err := filter.Apply(context.Background(), Deps{Now: func() time.Time { return now }}, g)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// g-1 and g-2 expired, g-3 has a rolling deadline.
	if step.Dropped != 2 || left.Len() != 1 {
		t.Fatalf("expected 2 dropped and 1 left, got %+v", step)
	}
	if left.FindByID("g-3") == nil {
		t.Fatalf("rolling-deadline grant should survive, got %v", left.IDs())
	}
}

func TestKnownGrantsFilter(t *testing.T) {
	t.Parallel()

	store := &fakeStore{known: map[string]struct{}{"g-1": {}, "g-3": {}}}

	filter := NewKnownGrants()
	if err := filter.Validate(&Config{}); err != nil {
		t.Fatalf("validate: %v", err)
	}

	left, step, err := filter.Apply(context.Background(), Deps{Store: store}, testGrants())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if step.Dropped != 2 || left.FindByID("g-2") == nil {
		t.Fatalf("expected only g-2 to survive, got %v", left.IDs())
	}
}

func TestKnownGrantsFilterRescanKeepsEverything(t *testing.T) {
	t.Parallel()

	filter := NewKnownGrants()
	if err := filter.Validate(&Config{Rescan: true}); err != nil {
		t.Fatalf("validate: %v", err)
	}

	// No store needed when rescanning.
	left, step, err := filter.Apply(context.Background(), Deps{}, testGrants())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if step.Dropped != 0 || left.Len() != 3 {
		t.Fatalf("rescan should keep all grants, got %+v", step)
	}
}

func TestFundersFilterDropsEveryGrantOfFunder(t *testing.T) {
	t.Parallel()

	filter := NewFunders()
	if err := filter.Validate(&Config{ExcludeFunders: []string{"acme foundation"}}); err != nil {
		t.Fatalf("validate: %v", err)
	}

	left, step, err := filter.Apply(context.Background(), Deps{}, testGrants())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if step.Dropped != 2 || left.FindByID("g-2") == nil {
		t.Fatalf("expected both Acme grants dropped, got %v", left.IDs())
	}
}

func TestExcludeFileFilter(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "excluded.json")
	excluded := &grants.ExcludedGrants{Items: []*grants.ExcludedGrant{{ID: "g-2"}}}
	if err := excluded.ToFile(path); err != nil {
		t.Fatalf("writing exclude file: %v", err)
	}

	filter := NewExcludeFile()
	if err := filter.Validate(&Config{ExcludeFile: path}); err != nil {
		t.Fatalf("validate: %v", err)
	}

	left, step, err := filter.Apply(context.Background(), Deps{}, testGrants())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if step.Dropped != 1 || left.FindByID("g-2") != nil {
		t.Fatalf("expected g-2 dropped, got %v", left.IDs())
	}
}

func TestExcludeFileFilterWithoutPathIsNoop(t *testing.T) {
	t.Parallel()

	filter := NewExcludeFile()
	if err := filter.Validate(&Config{}); err != nil {
		t.Fatalf("validate: %v", err)
	}

	left, step, err := filter.Apply(context.Background(), Deps{}, testGrants())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if step.Dropped != 0 || left.Len() != 3 {
		t.Fatalf("expected no drops, got %+v", step)
	}
}

func TestEligibilityFilterKeepsEligibleAndCollectsResults(t *testing.T) {
	t.Parallel()

	filter := NewEligibility()
	if err := filter.Validate(&Config{MinimumScore: 0.5}); err != nil {
		t.Fatalf("validate: %v", err)
	}

	deps := Deps{
		Matcher: matcher.New(0, nil),
		Profile: testProfile(),
	}

	left, step, err := filter.Apply(context.Background(), deps, testGrants())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// g-1 requires woman-owned (satisfied), g-2 requires veteran-owned
	// (unsatisfied), g-3 has no criteria (vacuous match).
	if left.FindByID("g-1") == nil || left.FindByID("g-3") == nil || left.FindByID("g-2") != nil {
		t.Fatalf("unexpected survivors: %v", left.IDs())
	}
	if step.Dropped != 1 {
		t.Fatalf("expected 1 dropped, got %+v", step)
	}

	collector, ok := filter.(interface {
		Results() map[string]*matcher.MatchResult
	})
	if !ok {
		t.Fatalf("eligibility filter should expose results")
	}
	results := collector.Results()
	if len(results) != 3 {
		t.Fatalf("expected results for every evaluated grant, got %d", len(results))
	}
	if results["g-2"].Eligible {
		t.Fatalf("g-2 should be ineligible: %s", results["g-2"].Summary())
	}
}

func TestRunExecutesChainAndMergesResults(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	deps := Deps{
		Store:   &fakeStore{known: map[string]struct{}{}},
		Matcher: matcher.New(0, nil),
		Profile: testProfile(),
		Now:     func() time.Time { return now },
	}

	left, results, err := Run(context.Background(), &Config{}, deps, Default(), testGrants())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if left.FindByID("g-2") != nil {
		t.Fatalf("ineligible grant survived the chain: %v", left.IDs())
	}
	if len(results) != 3 {
		t.Fatalf("expected match results for all evaluated grants, got %d", len(results))
	}
}

func TestDisableByName(t *testing.T) {
	t.Parallel()

	steps := Default()
	DisableByName(steps, "eligibility", "no profile configured")

	for _, status := range Describe(steps) {
		if status.Name != "eligibility" {
			continue
		}
		if status.Enabled {
			t.Fatalf("eligibility should be disabled")
		}
		if status.Reason != "no profile configured" {
			t.Fatalf("unexpected reason: %q", status.Reason)
		}
		return
	}
	t.Fatalf("eligibility step not found in describe output")
}
