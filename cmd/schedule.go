package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/marvmedia/grantfinder/internal/matcher"
	"github.com/marvmedia/grantfinder/internal/pipeline"
	"github.com/marvmedia/grantfinder/internal/scheduler"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the scan, deadline and summary jobs on a cron table until interrupted",
	Run: func(_ *cobra.Command, _ []string) {
		schedule()
	},
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

func schedule() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := newLogger()

	config, err := getConfig()
	if err != nil {
		log.Fatal("getting a config", zap.Error(err))
	}

	companyProfile, err := loadProfile(config)
	if err != nil {
		log.Fatal("loading profile", zap.Error(err))
	}

	st, err := openStore(config)
	if err != nil {
		log.Fatal("opening store", zap.Error(err))
	}
	defer st.Close()

	tr, err := buildTracker(ctx, config, log)
	if err != nil {
		log.Fatal("building tracker", zap.Error(err))
	}

	dr, err := buildDrafter(ctx, config, log)
	if err != nil {
		log.Warn("skipping AI drafting", zap.Error(err))
	}

	svc := pipeline.New(pipeline.Config{
		Concurrency:    config.Sources.Concurrency,
		MinimumScore:   config.Matching.MinimumScore,
		ExcludeFunders: config.Matching.ExcludeFunders,
		ExcludeFile:    config.ExcludeFile,
		AutoDraft:      config.AI.AutoDraft,
		DraftsDir:      config.DraftsDir,
	}, buildSources(config, log), st, tr, dr, matcher.New(0, log), companyProfile, log)

	notifier := scheduler.NewNotifier(st, tr, log, config.Schedule.ReminderDays)

	sched := scheduler.New(&scheduler.Config{
		Listen:       config.Schedule.Listen,
		ScanSpec:     config.Schedule.Scan,
		DeadlineSpec: config.Schedule.DeadlineCheck,
		SummarySpec:  config.Schedule.WeeklySummary,
		Pprof:        config.Schedule.Pprof,
	}, svc, notifier, st, log)

	if err := sched.Start(); err != nil {
		log.Fatal("starting scheduler", zap.Error(err))
	}

	<-ctx.Done()
	log.Info("shutting down", zap.String("reason", "signal received"))

	if err := sched.Stop(context.Background()); err != nil {
		log.Error("shutdown failed", zap.Error(err))
	}
}
