package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show the loaded company profile and its derived eligibility attributes",
	Run: func(cmd *cobra.Command, _ []string) {
		showProfile(cmd)
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)

	profileCmd.Flags().String("export", "", "write the normalized profile YAML to this path")
}

func showProfile(cmd *cobra.Command) {
	log := newLogger()

	config, err := getConfig()
	if err != nil {
		log.Fatal("getting a config", zap.Error(err))
	}

	companyProfile, err := loadProfile(config)
	if err != nil {
		log.Fatal("loading profile", zap.Error(err))
	}

	data, err := companyProfile.Export()
	if err != nil {
		log.Fatal("rendering profile", zap.Error(err))
	}

	if path, _ := cmd.Flags().GetString("export"); path != "" {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			log.Fatal("writing profile", zap.String("path", path), zap.Error(err))
		}
		log.Info("profile exported", zap.String("path", path))
		return
	}

	fmt.Printf("%s\n", data)

	attrs := companyProfile.EligibilityAttributes()
	keys := make([]string, 0, len(attrs))
	for key := range attrs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fmt.Println("Derived eligibility attributes:")
	for _, key := range keys {
		fmt.Printf("  %-24s %t\n", key, attrs[key])
	}
}
