package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/marvmedia/grantfinder/internal/drafter"
	"github.com/marvmedia/grantfinder/internal/drafter/gemini"
	"github.com/marvmedia/grantfinder/internal/logger"
	"github.com/marvmedia/grantfinder/internal/profile"
	"github.com/marvmedia/grantfinder/internal/secrets"
	"github.com/marvmedia/grantfinder/internal/sources"
	"github.com/marvmedia/grantfinder/internal/sources/grantsgov"
	"github.com/marvmedia/grantfinder/internal/sources/helloalice"
	"github.com/marvmedia/grantfinder/internal/sources/ifundwomen"
	"github.com/marvmedia/grantfinder/internal/sources/mbda"
	"github.com/marvmedia/grantfinder/internal/sources/womensnet"
	"github.com/marvmedia/grantfinder/internal/store"
	"github.com/marvmedia/grantfinder/internal/tracker"
	"github.com/marvmedia/grantfinder/internal/tracker/sheets"

	"github.com/spf13/viper"
)

// newLogger builds the process logger from the persistent flags.
func newLogger() *zap.Logger {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return l
}

// loadProfile reads the company profile named in the config.
func loadProfile(config *Config) (*profile.Profile, error) {
	p, err := profile.Load(config.ProfileFile)
	if err != nil {
		return nil, fmt.Errorf("loading company profile: %w", err)
	}
	return p, nil
}

// openStore opens the local grant database named in the config.
func openStore(config *Config) (*store.Store, error) {
	st, err := store.Open(config.StoreFile)
	if err != nil {
		return nil, fmt.Errorf("opening store %q: %w", config.StoreFile, err)
	}
	return st, nil
}

// buildSources assembles the enabled source adapters.
func buildSources(config *Config, log *zap.Logger) []sources.Source {
	client := sources.NewClient(log)
	if config.UserAgent != "" {
		client.UserAgent = config.UserAgent
	}

	var srcs []sources.Source

	if config.Sources.GrantsGov.Enabled {
		srcs = append(srcs, grantsgov.New(client, grantsgov.Config{
			Keywords:   config.Sources.GrantsGov.Keywords,
			Rows:       config.Sources.GrantsGov.Rows,
			MaxResults: config.Sources.GrantsGov.MaxResults,
			Throttle:   time.Duration(config.Sources.GrantsGov.ThrottleMS) * time.Millisecond,
		}, log))
	}
	if config.Sources.WomensNet.Enabled {
		srcs = append(srcs, womensnet.New(log))
	}
	if config.Sources.MBDA.Enabled {
		srcs = append(srcs, mbda.New(client, log))
	}
	if config.Sources.HelloAlice.Enabled {
		srcs = append(srcs, helloalice.New(client, log))
	}
	if config.Sources.IFundWomen.Enabled {
		srcs = append(srcs, ifundwomen.New(client, log))
	}

	return srcs
}

// buildTracker returns the sheets tracker when a spreadsheet is configured,
// the noop tracker otherwise.
func buildTracker(ctx context.Context, config *Config, log *zap.Logger) (tracker.Tracker, error) {
	if strings.TrimSpace(config.Tracker.SpreadsheetID) == "" {
		log.Debug("no spreadsheet configured, tracking locally only")
		return tracker.NewNoop(), nil
	}

	t, err := sheets.New(ctx, config.Tracker.SpreadsheetID, config.Tracker.CredentialsFile, log)
	if err != nil {
		return nil, fmt.Errorf("building sheets tracker: %w", err)
	}

	return t, nil
}

// buildDrafter returns the configured AI drafter, or nil when AI is disabled.
func buildDrafter(ctx context.Context, config *Config, log *zap.Logger) (drafter.Drafter, error) {
	if !config.AI.Enabled {
		return nil, nil
	}

	provider := strings.TrimSpace(strings.ToLower(config.AI.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", config.AI.Provider)
	}

	apiKey, err := resolveGeminiKey(config.AI.Gemini)
	if err != nil {
		return nil, err
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, config.AI.Gemini.Model)
	if err != nil {
		return nil, err
	}

	return gemini.NewDrafter(generator, log, config.AI.Gemini.MaxLogLength), nil
}

func resolveGeminiKey(cfg *GeminiConfig) (string, error) {
	key, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.APIKey,
		File:  cfg.APIKeyFile,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return "", fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	return key, nil
}
