package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/marvmedia/grantfinder/internal/certifications"
	"github.com/marvmedia/grantfinder/internal/profile"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Initialize the local store, a starter profile and the tracking spreadsheet",
	Run: func(cmd *cobra.Command, _ []string) {
		setup(cmd)
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)

	setupCmd.Flags().Bool("force", false, "overwrite an existing profile file")
}

func setup(cmd *cobra.Command) {
	ctx := context.Background()

	log := newLogger()

	config, err := getConfig()
	if err != nil {
		log.Fatal("getting a config", zap.Error(err))
	}

	// Opening the store creates the database file and its buckets.
	st, err := openStore(config)
	if err != nil {
		log.Fatal("opening store", zap.Error(err))
	}
	defer st.Close()
	log.Info("store ready", zap.String("path", config.StoreFile))

	force, _ := cmd.Flags().GetBool("force")
	if err := writeStarterProfile(config.ProfileFile, force); err != nil {
		log.Fatal("writing starter profile", zap.Error(err))
	}

	companyProfile, err := loadProfile(config)
	if err != nil {
		log.Fatal("loading profile", zap.Error(err))
	}
	log.Info("profile ready", zap.String("path", config.ProfileFile), zap.String("company", companyProfile.Company.Name))

	if config.Tracker.SpreadsheetID == "" {
		log.Info("no spreadsheet configured, skipping tracker setup",
			zap.String("hint", "set tracker.spreadsheet-id or GRANTFINDER_SPREADSHEET_ID"))
		return
	}

	tr, err := buildTracker(ctx, config, log)
	if err != nil {
		log.Fatal("building tracker", zap.Error(err))
	}

	if err := tr.EnsureWorksheets(ctx); err != nil {
		log.Fatal("preparing worksheets", zap.Error(err))
	}

	if err := tr.SyncCertifications(ctx, certifications.Merge(companyProfile.Certifications)); err != nil {
		log.Fatal("syncing certifications", zap.Error(err))
	}

	log.Info("spreadsheet ready", zap.String("spreadsheet_id", config.Tracker.SpreadsheetID))
}

// writeStarterProfile leaves an existing profile alone unless force is set.
func writeStarterProfile(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return nil
	} else if err != nil && !os.IsNotExist(err) {
		return err
	}

	data, err := profile.Example().Export()
	if err != nil {
		return fmt.Errorf("rendering starter profile: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}
