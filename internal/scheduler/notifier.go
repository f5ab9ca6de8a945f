package scheduler

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/marvmedia/grantfinder/internal/grants"
	"github.com/marvmedia/grantfinder/internal/store"
	"github.com/marvmedia/grantfinder/internal/tracker"
)

// Urgency tiers for deadline reminders.
const (
	UrgencyCritical = "critical" // one day or less
	UrgencyUrgent   = "urgent"   // three days or less
	UrgencyUpcoming = "upcoming" // a week or less
)

var defaultReminderDays = []int{7, 3, 1}

// Notifier reminds about approaching deadlines of actionable grants. It runs
// once a day from the cron table, so each grant gets at most one reminder per
// day.
type Notifier struct {
	store        *store.Store
	tracker      tracker.Tracker
	logger       *zap.Logger
	reminderDays []int
}

func NewNotifier(st *store.Store, tr tracker.Tracker, logger *zap.Logger, reminderDays []int) *Notifier {
	if tr == nil {
		tr = tracker.NewNoop()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(reminderDays) == 0 {
		reminderDays = defaultReminderDays
	}

	days := append([]int(nil), reminderDays...)
	sort.Sort(sort.Reverse(sort.IntSlice(days)))

	return &Notifier{
		store:        st,
		tracker:      tr,
		logger:       logger,
		reminderDays: days,
	}
}

// Check walks the actionable grants and emits a reminder for every deadline
// inside the widest reminder window. It returns the number of reminders sent.
func (n *Notifier) Check(ctx context.Context, now time.Time) (int, error) {
	actionable := &grants.Grants{}
	for _, status := range []string{grants.StatusMatched, grants.StatusDrafted} {
		listed, err := n.store.ListByStatus(status)
		if err != nil {
			return 0, fmt.Errorf("listing %s grants: %w", status, err)
		}
		actionable.Append(listed)
	}

	window := n.reminderDays[0]
	reminders := 0

	for _, grant := range actionable.Items {
		if !grant.HasDeadline() || grant.Expired(now) {
			continue
		}

		days := grant.DaysUntilDeadline(now)
		if days > window {
			continue
		}

		urgency := urgencyFor(days)
		message := fmt.Sprintf("deadline for %q in %d day(s)", grant.Title, days)

		n.logger.Info("deadline reminder",
			zap.String("grant_id", grant.ID),
			zap.String("urgency", urgency),
			zap.Int("days_left", days),
			zap.Time("deadline", grant.Deadline),
		)

		if err := n.store.AppendActivity(&store.ActivityEntry{
			Kind:    "reminder",
			GrantID: grant.ID,
			Message: fmt.Sprintf("[%s] %s", urgency, message),
		}); err != nil {
			return reminders, fmt.Errorf("recording reminder: %w", err)
		}

		if err := n.tracker.LogActivity(ctx, "deadline-"+urgency, grant.ID+": "+message); err != nil {
			n.logger.Warn("tracker reminder failed", zap.String("grant_id", grant.ID), zap.Error(err))
		}

		reminders++
	}

	return reminders, nil
}

func urgencyFor(days int) string {
	switch {
	case days <= 1:
		return UrgencyCritical
	case days <= 3:
		return UrgencyUrgent
	default:
		return UrgencyUpcoming
	}
}
