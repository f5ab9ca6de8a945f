package cmd

import (
	"context"

	"github.com/marvmedia/grantfinder/internal/grants"
	"github.com/marvmedia/grantfinder/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var draftCmd = &cobra.Command{
	Use:   "draft <grant-id>",
	Short: "Generate an application draft for a tracked grant",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		draft(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(draftCmd)

	draftCmd.Flags().StringP("output", "o", "", "directory for the draft file (default is drafts-dir from config)")
}

func draft(cmd *cobra.Command, grantID string) {
	ctx := context.Background()

	log := newLogger()

	config, err := getConfig()
	if err != nil {
		log.Fatal("getting a config", zap.Error(err))
	}

	if !config.AI.Enabled {
		log.Fatal("AI drafting is disabled", zap.String("hint", "set ai.enabled: true in the configuration file"))
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

	grant, err := st.GetGrant(grantID)
	if err != nil {
		log.Fatal("loading grant", zap.String("grant_id", grantID), zap.Error(err))
	}

	dr, err := buildDrafter(ctx, config, log)
	if err != nil {
		log.Fatal("building drafter", zap.Error(err))
	}

	generated, err := dr.Draft(ctx, grant, companyProfile)
	if err != nil {
		log.Fatal("drafting application", zap.String("grant_id", grantID), zap.Error(err))
	}

	dir := config.DraftsDir
	if output, _ := cmd.Flags().GetString("output"); output != "" {
		dir = output
	}

	path, err := generated.Save(dir)
	if err != nil {
		log.Fatal("saving draft", zap.Error(err))
	}

	if err := st.PutDraft(&store.DraftRecord{
		GrantID:  grant.ID,
		Path:     path,
		Model:    generated.Model,
		Sections: len(generated.Sections),
	}); err != nil {
		log.Fatal("recording draft", zap.Error(err))
	}

	if err := st.UpdateStatus(grant.ID, grants.StatusDrafted); err != nil {
		log.Fatal("updating grant status", zap.Error(err))
	}

	tr, err := buildTracker(ctx, config, log)
	if err != nil {
		log.Warn("skipping tracker update", zap.Error(err))
	} else if err := tr.UpdateStatus(ctx, grant.ID, grants.StatusDrafted, "draft saved to "+path); err != nil {
		log.Warn("tracker update failed", zap.Error(err))
	}

	log.Info("draft saved",
		zap.String("grant_id", grant.ID),
		zap.String("path", path),
		zap.Int("sections", len(generated.Sections)),
	)
}
