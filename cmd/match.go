package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/marvmedia/grantfinder/internal/grants"
	"github.com/marvmedia/grantfinder/internal/matcher"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Re-evaluate stored grants against the company profile and print a ranked report",
	Run: func(cmd *cobra.Command, _ []string) {
		match(cmd)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().String("status", "", "only evaluate grants with this status")
	matchCmd.Flags().Float64("min-score", -1, "override matching.minimum-score for the report")
}

func match(cmd *cobra.Command) {
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

	status, _ := cmd.Flags().GetString("status")

	var stored *grants.Grants
	if status != "" {
		if !grants.ValidStatus(status) {
			log.Fatal("unknown status", zap.String("status", status))
		}
		stored, err = st.ListByStatus(status)
	} else {
		stored, err = st.ListGrants()
	}
	if err != nil {
		log.Fatal("listing grants", zap.Error(err))
	}

	if stored.Len() == 0 {
		log.Info("exiting", zap.String("reason", "no stored grants to evaluate"))
		return
	}

	minScore := config.Matching.MinimumScore
	if override, _ := cmd.Flags().GetFloat64("min-score"); override >= 0 {
		minScore = override
	}

	m := matcher.New(0, log)
	results := m.MatchAll(stored, companyProfile)
	matcher.Rank(stored, results)

	if viper.GetBool("json") {
		report := make([]*matcher.MatchResult, 0, stored.Len())
		for _, grant := range stored.Items {
			report = append(report, results[grant.ID])
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			log.Fatal("encoding report", zap.Error(err))
		}
		return
	}

	eligible := 0
	for _, grant := range stored.Items {
		result := results[grant.ID]
		if result.Eligible && result.Score >= minScore {
			eligible++
		}

		deadline := "rolling"
		if grant.HasDeadline() {
			deadline = grant.Deadline.Format("2006-01-02")
		}

		fmt.Printf("%s  %s\n", grant.ID, grant.Title)
		fmt.Printf("    funder: %s  deadline: %s  amount: %s\n", grant.Funder, deadline, orDash(grant.Amount.String()))
		fmt.Printf("    %s\n", result.Summary())
		for _, criterion := range result.Criteria {
			marker := "-"
			switch {
			case criterion.Unscored:
				marker = "?"
			case criterion.Satisfied:
				marker = "+"
			}
			fmt.Printf("      [%s] %s: %s\n", marker, criterion.Tag, criterion.Rationale)
		}
		fmt.Println()
	}

	fmt.Printf("%d of %d grants eligible at minimum score %.2f\n", eligible, stored.Len(), minScore)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
