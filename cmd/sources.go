package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the configured grant sources and their settings",
	Run: func(_ *cobra.Command, _ []string) {
		listSources()
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func listSources() {
	log := newLogger()

	config, err := getConfig()
	if err != nil {
		log.Fatal("getting a config", zap.Error(err))
	}

	onOff := func(enabled bool) string {
		if enabled {
			return "enabled"
		}
		return "disabled"
	}

	gg := config.Sources.GrantsGov
	fmt.Printf("%-12s %-9s keywords=[%s] rows=%d max-results=%d throttle=%dms\n",
		"grants-gov", onOff(gg.Enabled), strings.Join(gg.Keywords, ", "), gg.Rows, gg.MaxResults, gg.ThrottleMS)
	fmt.Printf("%-12s %-9s monthly Amber Grant cycle\n", "womensnet", onOff(config.Sources.WomensNet.Enabled))
	fmt.Printf("%-12s %-9s minority business development programs\n", "mbda", onOff(config.Sources.MBDA.Enabled))
	fmt.Printf("%-12s %-9s small business grant listings\n", "helloalice", onOff(config.Sources.HelloAlice.Enabled))
	fmt.Printf("%-12s %-9s grants for women entrepreneurs\n", "ifundwomen", onOff(config.Sources.IFundWomen.Enabled))

	fmt.Printf("\nfetch concurrency: %d\n", config.Sources.Concurrency)
	if config.UserAgent != "" {
		fmt.Printf("user agent: %s\n", config.UserAgent)
	}
}
