// Package pipeline wires sources, filtering, the store, the tracker and the
// drafter into the scan/process runs the CLI and the scheduler execute.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/marvmedia/grantfinder/internal/drafter"
	"github.com/marvmedia/grantfinder/internal/filtering"
	"github.com/marvmedia/grantfinder/internal/grants"
	"github.com/marvmedia/grantfinder/internal/matcher"
	"github.com/marvmedia/grantfinder/internal/profile"
	"github.com/marvmedia/grantfinder/internal/sources"
	"github.com/marvmedia/grantfinder/internal/store"
	"github.com/marvmedia/grantfinder/internal/tracker"
)

// ErrScanRunning is returned when a scan is triggered while one is in flight.
var ErrScanRunning = errors.New("scan already running")

// Config carries the pipeline settings resolved from the CLI configuration.
type Config struct {
	Concurrency    int
	MinimumScore   float64
	ExcludeFunders []string
	ExcludeFile    string
	Rescan         bool
	AutoDraft      bool
	DraftsDir      string
}

// ScanStats summarizes one discovery run.
type ScanStats struct {
	Fetched  int
	Dropped  int
	Eligible int
	Errors   int
	Duration time.Duration
}

// ScanOutcome is what a scan leaves behind: the grants that survived the
// filter chain, ranked for review, plus every match result along the way.
type ScanOutcome struct {
	Grants  *grants.Grants
	Results map[string]*matcher.MatchResult
	Stats   ScanStats
}

// Service runs the discovery pipeline. One scan at a time; a concurrent
// trigger is turned away with ErrScanRunning.
type Service struct {
	cfg     Config
	sources []sources.Source
	store   *store.Store
	tracker tracker.Tracker
	drafter drafter.Drafter
	matcher *matcher.Matcher
	profile *profile.Profile
	logger  *zap.Logger
	now     func() time.Time

	mu      sync.Mutex
	running bool
}

// New builds a pipeline service. The tracker may be nil, in which case the
// noop tracker is used; the drafter may be nil when AI drafting is off.
func New(cfg Config, srcs []sources.Source, st *store.Store, tr tracker.Tracker, dr drafter.Drafter, m *matcher.Matcher, p *profile.Profile, logger *zap.Logger) *Service {
	if tr == nil {
		tr = tracker.NewNoop()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		cfg:     cfg,
		sources: srcs,
		store:   st,
		tracker: tr,
		drafter: dr,
		matcher: m,
		profile: p,
		logger:  logger,
		now:     time.Now,
	}
}

// Scan fetches every source, runs the filter chain and ranks the survivors.
// Nothing is persisted; Process does that with whatever subset the operator
// approves.
func (s *Service) Scan(ctx context.Context) (*ScanOutcome, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrScanRunning
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	started := s.now()

	fetched, err := sources.FetchAll(ctx, s.sources, s.cfg.Concurrency, s.logger)
	if err != nil {
		return nil, fmt.Errorf("fetching sources: %w", err)
	}

	deps := filtering.Deps{
		Store:   s.store,
		Matcher: s.matcher,
		Profile: s.profile,
		Logger:  s.logger,
		Now:     s.now,
	}
	cfg := &filtering.Config{
		MinimumScore:   s.cfg.MinimumScore,
		ExcludeFunders: s.cfg.ExcludeFunders,
		ExcludeFile:    s.cfg.ExcludeFile,
		Rescan:         s.cfg.Rescan,
	}

	initial := fetched.Len()
	left, results, err := filtering.Run(ctx, cfg, deps, filtering.Default(), fetched)
	if err != nil {
		return nil, fmt.Errorf("filtering grants: %w", err)
	}

	matcher.Rank(left, results)

	failed := 0
	for _, result := range results {
		if result.Failed() {
			failed++
		}
	}

	stats := ScanStats{
		Fetched:  initial,
		Dropped:  initial - left.Len(),
		Eligible: left.Len(),
		Errors:   failed,
		Duration: s.now().Sub(started),
	}

	s.logger.Info("scan finished",
		zap.Int("fetched", stats.Fetched),
		zap.Int("dropped", stats.Dropped),
		zap.Int("eligible", stats.Eligible),
		zap.Int("errors", stats.Errors),
		zap.Duration("duration", stats.Duration),
	)

	return &ScanOutcome{Grants: left, Results: results, Stats: stats}, nil
}

// Process persists every grant of the outcome. Store failures count as
// errors, tracker failures only warn.
func (s *Service) Process(ctx context.Context, outcome *ScanOutcome) error {
	if outcome == nil || outcome.Grants.Len() == 0 {
		return nil
	}

	var errs []error
	for _, grant := range outcome.Grants.Items {
		if err := s.ProcessGrant(ctx, grant, outcome.Results[grant.ID]); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", grant.ID, err))
		}
	}

	return errors.Join(errs...)
}

// ProcessGrant records one matched grant in the store and the tracker, then
// drafts the application when auto-drafting is enabled.
func (s *Service) ProcessGrant(ctx context.Context, grant *grants.Grant, result *matcher.MatchResult) error {
	if grant == nil {
		return errors.New("grant is required")
	}

	grant.Status = grants.StatusMatched

	inserted, err := s.store.PutGrant(grant)
	if err != nil {
		return fmt.Errorf("storing grant: %w", err)
	}
	if !inserted {
		if err := s.store.SaveGrant(grant); err != nil {
			return fmt.Errorf("updating grant: %w", err)
		}
	}

	if err := s.store.AppendActivity(&store.ActivityEntry{
		Kind:    "matched",
		GrantID: grant.ID,
		Message: fmt.Sprintf("matched %q from %s", grant.Title, grant.Source),
	}); err != nil {
		return fmt.Errorf("recording activity: %w", err)
	}

	s.trackGrant(ctx, grant, result)

	if s.cfg.AutoDraft && s.drafter != nil {
		s.draftGrant(ctx, grant)
	}

	return nil
}

// Run is the scheduler entry point: a full scan followed by processing. A
// scan already in flight is not an error.
func (s *Service) Run(ctx context.Context) error {
	outcome, err := s.Scan(ctx)
	if errors.Is(err, ErrScanRunning) {
		s.logger.Info("scan already running, skipping trigger")
		return nil
	}
	if err != nil {
		return err
	}

	return s.Process(ctx, outcome)
}

func (s *Service) trackGrant(ctx context.Context, grant *grants.Grant, result *matcher.MatchResult) {
	exists, err := s.tracker.GrantExists(ctx, grant.ID)
	if err != nil {
		s.logger.Warn("tracker lookup failed", zap.String("grant_id", grant.ID), zap.Error(err))
		return
	}

	note := ""
	if result != nil {
		note = result.Summary()
	}

	if exists {
		err = s.tracker.UpdateStatus(ctx, grant.ID, grant.Status, note)
	} else {
		err = s.tracker.AddGrant(ctx, grant, result)
	}
	if err != nil {
		s.logger.Warn("tracker update failed", zap.String("grant_id", grant.ID), zap.Error(err))
	}
}

// draftGrant generates and saves the application draft. Drafting failures are
// logged, the grant simply stays matched.
func (s *Service) draftGrant(ctx context.Context, grant *grants.Grant) {
	draft, err := s.drafter.Draft(ctx, grant, s.profile)
	if err != nil {
		s.logger.Warn("drafting failed", zap.String("grant_id", grant.ID), zap.Error(err))
		return
	}

	path, err := draft.Save(s.cfg.DraftsDir)
	if err != nil {
		s.logger.Warn("saving draft failed", zap.String("grant_id", grant.ID), zap.Error(err))
		return
	}

	if err := s.store.PutDraft(&store.DraftRecord{
		GrantID:  grant.ID,
		Path:     path,
		Model:    draft.Model,
		Sections: len(draft.Sections),
	}); err != nil {
		s.logger.Warn("recording draft failed", zap.String("grant_id", grant.ID), zap.Error(err))
		return
	}

	if err := s.store.UpdateStatus(grant.ID, grants.StatusDrafted); err != nil {
		s.logger.Warn("updating grant status failed", zap.String("grant_id", grant.ID), zap.Error(err))
		return
	}
	grant.Status = grants.StatusDrafted

	if err := s.tracker.UpdateStatus(ctx, grant.ID, grants.StatusDrafted, "draft saved to "+path); err != nil {
		s.logger.Warn("tracker update failed", zap.String("grant_id", grant.ID), zap.Error(err))
	}

	s.logger.Info("draft saved",
		zap.String("grant_id", grant.ID),
		zap.String("path", path),
	)
}
