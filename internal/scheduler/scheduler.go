// Package scheduler runs the pipeline on a cron table and exposes a small
// HTTP surface for health checks and manual triggers.
package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/marvmedia/grantfinder/internal/pipeline"
	"github.com/marvmedia/grantfinder/internal/store"
)

// Defaults for the cron table and the listener.
const (
	DefaultListen       = ":8080"
	DefaultScanSpec     = "0 9 * * *"
	DefaultDeadlineSpec = "0 8 * * *"
	DefaultSummarySpec  = "0 17 * * 5"
	shutdownGracePeriod = 10 * time.Second
)

// Config carries the scheduler settings.
type Config struct {
	Listen       string
	ScanSpec     string
	DeadlineSpec string
	SummarySpec  string
	Pprof        bool
}

func (c *Config) withDefaults() Config {
	cfg := Config{}
	if c != nil {
		cfg = *c
	}
	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}
	if cfg.ScanSpec == "" {
		cfg.ScanSpec = DefaultScanSpec
	}
	if cfg.DeadlineSpec == "" {
		cfg.DeadlineSpec = DefaultDeadlineSpec
	}
	if cfg.SummarySpec == "" {
		cfg.SummarySpec = DefaultSummarySpec
	}
	return cfg
}

type job struct {
	name string
	id   cron.EntryID
}

// Scheduler owns the cron table and the trigger/health listener.
type Scheduler struct {
	cfg      Config
	cron     *cron.Cron
	pipeline *pipeline.Service
	notifier *Notifier
	store    *store.Store
	logger   *zap.Logger
	server   *http.Server
	jobs     []job
}

func New(cfg *Config, svc *pipeline.Service, notifier *Notifier, st *store.Store, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Scheduler{
		cfg:      cfg.withDefaults(),
		cron:     cron.New(),
		pipeline: svc,
		notifier: notifier,
		store:    st,
		logger:   logger,
	}
	s.server = &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

// Start registers the cron jobs and brings up the listener. It returns
// immediately; Stop shuts everything down.
func (s *Scheduler) Start() error {
	entries := []struct {
		name string
		spec string
		run  func()
	}{
		{"scan", s.cfg.ScanSpec, s.runScan},
		{"deadline-check", s.cfg.DeadlineSpec, s.runDeadlineCheck},
		{"weekly-summary", s.cfg.SummarySpec, s.runSummary},
	}

	for _, entry := range entries {
		id, err := s.cron.AddFunc(entry.spec, entry.run)
		if err != nil {
			return fmt.Errorf("scheduling %s (%q): %w", entry.name, entry.spec, err)
		}
		s.jobs = append(s.jobs, job{name: entry.name, id: id})
		s.logger.Info("job scheduled",
			zap.String("job", entry.name),
			zap.String("spec", entry.spec),
		)
	}

	s.cron.Start()

	go func() {
		s.logger.Info("listener started", zap.String("addr", s.cfg.Listen))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("listener failed", zap.Error(err))
		}
	}()

	return nil
}

// Stop drains running cron jobs and shuts the listener down.
func (s *Scheduler) Stop(ctx context.Context) error {
	drained := s.cron.Stop()
	select {
	case <-drained.Done():
	case <-ctx.Done():
		s.logger.Warn("cron drain cut short", zap.Error(ctx.Err()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// Router exposes health, the job table and a manual scan trigger.
func (s *Scheduler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/jobs", s.handleJobs)
	r.Post("/jobs/scan", s.handleTriggerScan)

	if s.cfg.Pprof {
		r.Route("/debug/pprof", func(r chi.Router) {
			r.Get("/", pprof.Index)
			r.Get("/cmdline", pprof.Cmdline)
			r.Get("/profile", pprof.Profile)
			r.Get("/symbol", pprof.Symbol)
			r.Get("/trace", pprof.Trace)
			r.Get("/heap", pprof.Handler("heap").ServeHTTP)
			r.Get("/goroutine", pprof.Handler("goroutine").ServeHTTP)
		})
	}

	return r
}

func (s *Scheduler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Scheduler) handleJobs(w http.ResponseWriter, _ *http.Request) {
	type jobStatus struct {
		Name string    `json:"name"`
		Next time.Time `json:"next,omitempty"`
		Prev time.Time `json:"prev,omitempty"`
	}

	statuses := make([]jobStatus, 0, len(s.jobs))
	for _, j := range s.jobs {
		entry := s.cron.Entry(j.id)
		statuses = append(statuses, jobStatus{Name: j.name, Next: entry.Next, Prev: entry.Prev})
	}

	writeJSON(w, http.StatusOK, statuses)
}

func (s *Scheduler) handleTriggerScan(w http.ResponseWriter, _ *http.Request) {
	go s.runScan()

	writeJSON(w, http.StatusAccepted, map[string]string{"message": "scan started"})
}

func (s *Scheduler) runScan() {
	s.logger.Info("job started", zap.String("job", "scan"))
	if err := s.pipeline.Run(context.Background()); err != nil {
		s.logger.Error("scan job failed", zap.Error(err))
		return
	}
	s.logger.Info("job finished", zap.String("job", "scan"))
}

func (s *Scheduler) runDeadlineCheck() {
	s.logger.Info("job started", zap.String("job", "deadline-check"))
	sent, err := s.notifier.Check(context.Background(), time.Now())
	if err != nil {
		s.logger.Error("deadline check failed", zap.Error(err))
		return
	}
	s.logger.Info("job finished",
		zap.String("job", "deadline-check"),
		zap.Int("reminders", sent),
	)
}

func (s *Scheduler) runSummary() {
	s.logger.Info("job started", zap.String("job", "weekly-summary"))
	counts, err := s.store.CountByStatus()
	if err != nil {
		s.logger.Error("weekly summary failed", zap.Error(err))
		return
	}

	fields := make([]zap.Field, 0, len(counts))
	for status, count := range counts {
		fields = append(fields, zap.Int(status, count))
	}
	s.logger.Info("weekly pipeline summary", fields...)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
