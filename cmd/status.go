package cmd

import (
	"fmt"
	"time"

	"github.com/marvmedia/grantfinder/internal/grants"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show pipeline counts, upcoming deadlines and recent activity",
	Run: func(_ *cobra.Command, _ []string) {
		status()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func status() {
	log := newLogger()

	config, err := getConfig()
	if err != nil {
		log.Fatal("getting a config", zap.Error(err))
	}

	st, err := openStore(config)
	if err != nil {
		log.Fatal("opening store", zap.Error(err))
	}
	defer st.Close()

	counts, err := st.CountByStatus()
	if err != nil {
		log.Fatal("counting grants", zap.Error(err))
	}

	fmt.Println("Pipeline:")
	total := 0
	for _, known := range grants.Statuses() {
		fmt.Printf("  %-11s %d\n", known, counts[known])
		total += counts[known]
	}
	fmt.Printf("  %-11s %d\n", "total", total)

	actionable := &grants.Grants{}
	for _, known := range []string{grants.StatusMatched, grants.StatusDrafted} {
		listed, err := st.ListByStatus(known)
		if err != nil {
			log.Fatal("listing grants", zap.Error(err))
		}
		actionable.Append(listed)
	}
	actionable.SortByDeadline()

	now := time.Now().UTC()
	fmt.Println("\nNext deadlines:")
	printed := 0
	for _, grant := range actionable.Items {
		if !grant.HasDeadline() || grant.Expired(now) {
			continue
		}
		days := grant.DaysUntilDeadline(now)
		urgency := ""
		switch {
		case days <= 1:
			urgency = "  !! critical"
		case days <= 3:
			urgency = "  ! urgent"
		case days <= 7:
			urgency = "  upcoming"
		}
		fmt.Printf("  %s  %s (%s, %d day(s) left)%s\n",
			grant.Deadline.Format("2006-01-02"), grant.Title, grant.ID, days, urgency)
		printed++
	}
	if printed == 0 {
		fmt.Println("  none")
	}

	activity, err := st.RecentActivity(10)
	if err != nil {
		log.Fatal("reading activity", zap.Error(err))
	}

	fmt.Println("\nRecent activity:")
	if len(activity) == 0 {
		fmt.Println("  none")
		return
	}
	for _, entry := range activity {
		fmt.Printf("  %s  [%s] %s\n", entry.At.Format("2006-01-02 15:04"), entry.Kind, entry.Message)
	}
}
