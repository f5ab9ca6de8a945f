package cmd

import (
	"fmt"
	"time"

	"github.com/marvmedia/grantfinder/internal/certifications"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var certificationsCmd = &cobra.Command{
	Use:     "certifications",
	Aliases: []string{"certs"},
	Short:   "List the business certifications and flag upcoming renewals",
	Run: func(cmd *cobra.Command, _ []string) {
		listCertifications(cmd)
	},
}

func init() {
	rootCmd.AddCommand(certificationsCmd)

	certificationsCmd.Flags().Int("expiring-within", 90, "renewal warning window in days")
}

func listCertifications(cmd *cobra.Command) {
	log := newLogger()

	config, err := getConfig()
	if err != nil {
		log.Fatal("getting a config", zap.Error(err))
	}

	companyProfile, err := loadProfile(config)
	if err != nil {
		log.Fatal("loading profile", zap.Error(err))
	}

	fmt.Printf("%-8s %-40s %-16s %-12s %s\n", "CODE", "NAME", "ISSUER", "STATUS", "RENEWAL")
	for _, cert := range certifications.Merge(companyProfile.Certifications) {
		renewal := "-"
		if !cert.RenewalDate.IsZero() {
			renewal = cert.RenewalDate.Format("2006-01-02")
		}
		fmt.Printf("%-8s %-40s %-16s %-12s %s\n", cert.Code, cert.Name, orDash(cert.Issuer), cert.Status, renewal)
		if cert.Notes != "" {
			fmt.Printf("         %s\n", cert.Notes)
		}
	}

	days, _ := cmd.Flags().GetInt("expiring-within")
	window := time.Duration(days) * 24 * time.Hour

	expiring := certifications.ExpiringWithin(time.Now().UTC(), window)
	if len(expiring) == 0 {
		return
	}

	fmt.Printf("\nRenewals due within %d days:\n", days)
	for _, cert := range expiring {
		fmt.Printf("  %s (%s) renews on %s\n", cert.Name, cert.Code, cert.RenewalDate.Format("2006-01-02"))
	}
}
