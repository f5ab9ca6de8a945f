package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/marvmedia/grantfinder/internal/grants"
	"github.com/marvmedia/grantfinder/internal/matcher"
	"github.com/marvmedia/grantfinder/internal/pipeline"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptYes                 = "Yes"
	PromptNo                  = "No"
	PromptBack                = "back"
	PromptReportByFunders     = "Report by funders"
	PromptManualTrack         = "Track grants manually"
	PromptAppendToExcludeFile = "Append all grants to exclude file"
	PromptGrantsToFile        = "Dump grants to file"
)

var errExit = errors.New("exit requested")

var scanPrompt = promptui.Select{
	Label: "Track all found grants?",
	Items: []string{PromptYes, PromptNo, PromptReportByFunders, PromptManualTrack, PromptGrantsToFile},
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Discover new grants, match them against the company profile and track the keepers",
	Run: func(cmd *cobra.Command, _ []string) {
		scan(cmd)
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().BoolP("rescan", "f", false, "re-evaluate grants the store already knows")
	scanCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation, track everything found")
	scanCmd.Flags().StringP("exclude-file", "e", "", "special file with grants to exclude. Default is unset.")

	viper.BindPFlag("exclude-file", scanCmd.Flags().Lookup("exclude-file"))
}

// scan is the main interactive command of the cli.
func scan(cmd *cobra.Command) {
	ctx := context.Background()

	log := newLogger()

	config, err := getConfig()
	if err != nil {
		log.Fatal("getting a config", zap.Error(err))
	}

	log.Info("starting the grantfinder", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	log.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

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
		ExcludeFile:    viper.GetString("exclude-file"),
		Rescan:         cmd.Flag("rescan").Value.String() == "true",
		AutoDraft:      config.AI.AutoDraft,
		DraftsDir:      config.DraftsDir,
	}, buildSources(config, log), st, tr, dr, matcher.New(0, log), companyProfile, log)

	outcome, err := svc.Scan(ctx)
	if err != nil {
		log.Fatal("scanning sources", zap.Error(err))
	}

	if outcome.Grants.Len() == 0 {
		log.Info("exiting", zap.String("reason", "no eligible grants found"))
		return
	}

	action := PromptYes
	for {
		var err error
		if cmd.Flag("auto-approve").Value.String() == "false" {
			_, action, err = scanPrompt.Run()
			if err != nil {
				log.Fatal("exiting", zap.Error(err))
			}
		}

		log.Info("current list of grants", zap.Int("count", outcome.Grants.Len()))

		if err := handleScanAction(ctx, action, svc, log, outcome); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			log.Fatal("exiting", zap.Error(err))
		}

		if cmd.Flag("auto-approve").Value.String() == "true" {
			return
		}
	}
}

func handleScanAction(ctx context.Context, action string, svc *pipeline.Service, log *zap.Logger, outcome *pipeline.ScanOutcome) error {
	switch action {
	case PromptYes:
		if err := svc.Process(ctx, outcome); err != nil {
			return fmt.Errorf("tracking grants: %w", err)
		}
		log.Info("tracked all grants", zap.Int("count", outcome.Grants.Len()))
		return errExit
	case PromptNo:
		log.Info("exiting", zap.String("reason", "got no from prompt"))
		return errExit
	case PromptManualTrack:
		return manualTrack(ctx, svc, log, outcome)
	case PromptReportByFunders:
		pretty, _ := json.MarshalIndent(outcome.Grants.ReportByFunder(), "", "  ")
		log.Info(string(pretty), zap.Int("grants count", outcome.Grants.Len()))
		return nil
	case PromptGrantsToFile:
		filename, err := outcome.Grants.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		log.Info("dumping result to file", zap.String("filename", filename))
		return nil
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func manualTrack(ctx context.Context, svc *pipeline.Service, log *zap.Logger, outcome *pipeline.ScanOutcome) error {
	for {
		items := make([]string, 0)

		for _, grant := range outcome.Grants.Items {
			label := fmt.Sprintf("%s %s / %s / %s",
				grant.ID, grant.Title, grant.Funder, grant.URL,
			)

			items = append(items, label)
		}

		excludeFile := viper.GetString("exclude-file")
		if excludeFile != "" && outcome.Grants.Len() != 0 {
			items = append(items, PromptAppendToExcludeFile)
		}

		grantPrompt := promptui.Select{
			Label: "Choose a grant and press ENTER",
			Items: append(items, PromptBack),
		}

		_, grantSelected, err := grantPrompt.Run()
		if err != nil {
			return err
		}

		switch grantSelected {
		case PromptBack:
			return nil
		case PromptAppendToExcludeFile:
			excluded, err := grants.GetExcludedGrantsFromFile(excludeFile)
			if err != nil {
				return err
			}

			excluded.Append(outcome.Grants.ToExcluded())

			if err = excluded.ToFile(excludeFile); err != nil {
				return err
			}

			log.Info("appended to exclude file", zap.String("filename", excludeFile))

			outcome.Grants.Exclude(grants.GrantIDField, excluded.GrantIDs())
		default:
			grantID := strings.Split(grantSelected, " ")[0]

			selected := outcome.Grants.FindByID(grantID)
			if selected == nil {
				return fmt.Errorf("there is no such grant id %s", grantID)
			}

			if err = svc.ProcessGrant(ctx, selected, outcome.Results[grantID]); err != nil {
				return err
			}

			log.Info("tracked grant", zap.String("grant_id", grantID))

			outcome.Grants.Exclude(grants.GrantIDField, []string{grantID})
		}
	}
}
