package mbda

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/marvmedia/grantfinder/internal/grants"
	"github.com/marvmedia/grantfinder/internal/profile"
	"github.com/marvmedia/grantfinder/internal/sources"
	"github.com/marvmedia/grantfinder/internal/util"
)

const (
	sourceName = "mbda"
	siteURL    = "https://www.mbda.gov"
	pagePath   = "/funding-opportunities"
)

// Source scrapes announcements from the Minority Business Development Agency.
// The agency's standing Business Center program is always included, the page
// scrape adds whatever announcements are currently posted.
type Source struct {
	// PageURL is exposed so tests can point the source at a stub server.
	PageURL string

	client *sources.Client
	logger *zap.Logger
}

func New(client *sources.Client, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{
		PageURL: siteURL + pagePath,
		client:  client,
		logger:  logger,
	}
}

func (s *Source) Name() string { return sourceName }

// Fetch returns the standing program plus scraped announcements. A failing
// scrape degrades to the standing entry alone with a warning, the agency site
// is flaky enough that this must not kill the scan.
func (s *Source) Fetch(ctx context.Context) (*grants.Grants, error) {
	collected := &grants.Grants{Items: []*grants.Grant{businessCenterGrant()}}

	doc, err := s.client.GetDocument(ctx, s.PageURL)
	if err != nil {
		s.logger.Warn("page scrape failed, keeping standing programs only",
			zap.String("source", sourceName),
			zap.Error(err),
		)
		return collected, nil
	}

	collected.Append(s.parseAnnouncements(doc))

	return collected, nil
}

func businessCenterGrant() *grants.Grant {
	return &grants.Grant{
		ID:     sourceName + "-business-center",
		Source: sourceName,
		Title:  "MBDA Business Center Program",
		Funder: "MBDA",
		URL:    siteURL + "/business-centers",
		Description: "Operational support, consulting and capital access for " +
			"minority business enterprises through regional centers.",
		Criteria: grants.Criteria{
			Required:  []string{profile.AttrMinorityOwned},
			Preferred: []string{profile.AttrSmallBusiness},
		},
	}
}

func (s *Source) parseAnnouncements(doc *goquery.Document) *grants.Grants {
	found := &grants.Grants{}

	selection := doc.Find("article")
	if selection.Length() == 0 {
		selection = doc.Find(".views-row")
	}

	selection.Each(func(i int, item *goquery.Selection) {
		title := strings.TrimSpace(item.Find("h2").First().Text())
		if title == "" {
			title = strings.TrimSpace(item.Find("h3").First().Text())
		}
		if title == "" {
			return
		}

		grant := &grants.Grant{
			ID:     sourceName + "-" + util.Slugify(title),
			Source: sourceName,
			Title:  title,
			Funder: "MBDA",
			Criteria: grants.Criteria{
				Required:  []string{profile.AttrMinorityOwned},
				Preferred: []string{profile.AttrSmallBusiness},
			},
		}

		if href, ok := item.Find("a").First().Attr("href"); ok {
			grant.URL = absoluteURL(href)
		}

		found.Items = append(found.Items, grant)
	})

	s.logger.Debug("scraped announcements",
		zap.String("source", sourceName),
		zap.Int("found", found.Len()),
	)

	return found
}

func absoluteURL(href string) string {
	parsed, err := url.Parse(strings.TrimSpace(href))
	if err != nil || parsed.String() == "" {
		return ""
	}
	if parsed.IsAbs() {
		return parsed.String()
	}
	return siteURL + parsed.String()
}
