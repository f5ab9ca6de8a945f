package womensnet

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/marvmedia/grantfinder/internal/grants"
	"github.com/marvmedia/grantfinder/internal/profile"
)

const (
	sourceName = "womensnet"
	grantURL   = "https://ambergrantsforwomen.com/get-an-amber-grant/"
)

// Source emits the Amber Grant. WomensNet awards it every month with an
// end-of-month deadline, so the entry is synthesized instead of scraped and
// gets a fresh ID each month.
type Source struct {
	logger *zap.Logger
	now    func() time.Time
}

func New(logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{
		logger: logger,
		now:    time.Now,
	}
}

func (s *Source) Name() string { return sourceName }

func (s *Source) Fetch(ctx context.Context) (*grants.Grants, error) {
	now := s.now().UTC()

	grant := &grants.Grant{
		ID:     fmt.Sprintf("%s-amber-%s", sourceName, now.Format("2006-01")),
		Source: sourceName,
		Title:  fmt.Sprintf("Amber Grant for Women (%s %d)", now.Month(), now.Year()),
		Funder: "WomensNet",
		URL:    grantURL,
		Description: "Monthly $10,000 grant for women-owned businesses. " +
			"Monthly winners qualify for the year-end $25,000 award.",
		Amount:   grants.AmountRange{Min: 10000, Max: 10000},
		Deadline: endOfMonth(now),
		Criteria: grants.Criteria{
			Required:  []string{profile.AttrWomanOwned},
			Preferred: []string{profile.AttrSmallBusiness},
		},
	}

	s.logger.Debug("synthesized monthly grant", zap.String("grant_id", grant.ID))

	return &grants.Grants{Items: []*grants.Grant{grant}}, nil
}

func endOfMonth(now time.Time) time.Time {
	firstOfNext := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return firstOfNext.Add(-time.Second)
}
