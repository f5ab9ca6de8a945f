package helloalice

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
	sourceName = "helloalice"
	siteURL    = "https://helloalice.com"
	pagePath   = "/grants"
)

// Source scrapes grant cards from the Hello Alice funding page. The page is a
// moving target, so an empty result is normal and only logged.
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

func (s *Source) Fetch(ctx context.Context) (*grants.Grants, error) {
	doc, err := s.client.GetDocument(ctx, s.PageURL)
	if err != nil {
		return nil, err
	}

	found := s.parseCards(doc)
	if found.Len() == 0 {
		s.logger.Debug("no grant cards found, page layout may have shifted",
			zap.String("source", sourceName),
		)
	}

	return found, nil
}

func (s *Source) parseCards(doc *goquery.Document) *grants.Grants {
	found := &grants.Grants{}

	selection := doc.Find(".grant-card")
	if selection.Length() == 0 {
		selection = doc.Find("article")
	}

	selection.Each(func(i int, card *goquery.Selection) {
		title := strings.TrimSpace(card.Find("h3").First().Text())
		if title == "" {
			title = strings.TrimSpace(card.Find("h2").First().Text())
		}
		if title == "" {
			return
		}

		grant := &grants.Grant{
			ID:          sourceName + "-" + util.Slugify(title),
			Source:      sourceName,
			Title:       title,
			Funder:      "Hello Alice",
			Description: strings.TrimSpace(card.Find("p").First().Text()),
			Criteria: grants.Criteria{
				Preferred: []string{profile.AttrSmallBusiness},
			},
		}

		if href, ok := card.Find("a").First().Attr("href"); ok {
			grant.URL = absoluteURL(href)
		}

		found.Items = append(found.Items, grant)
	})

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
