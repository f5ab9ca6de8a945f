package grantsgov

import (
	"context"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/marvmedia/grantfinder/internal/grants"
	"github.com/marvmedia/grantfinder/internal/profile"
	"github.com/marvmedia/grantfinder/internal/sources"
	"github.com/marvmedia/grantfinder/internal/util"
)

const (
	apiURL    = "https://api.grants.gov/v1/api/search2"
	detailURL = "https://www.grants.gov/search-results-detail/"

	sourceName = "grantsgov"

	defaultRows       = 25
	defaultMaxResults = 100
	closeDateLayout   = "01/02/2006"
)

var defaultKeywords = []string{
	"women-owned small business",
	"minority-owned business",
	"media production",
	"digital marketing",
	"small business california",
}

type Config struct {
	Keywords   []string
	Rows       int
	MaxResults int
	// Throttle is the pause between result pages of one keyword search.
	Throttle time.Duration
}

// Source queries the grants.gov search2 API, one search per configured
// keyword, and folds the hits into grants.
type Source struct {
	// APIURL is exposed so tests can point the source at a stub server.
	APIURL string

	client *sources.Client
	cfg    Config
	logger *zap.Logger
}

func New(client *sources.Client, cfg Config, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(cfg.Keywords) == 0 {
		cfg.Keywords = defaultKeywords
	}
	if cfg.Rows <= 0 {
		cfg.Rows = defaultRows
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = defaultMaxResults
	}

	return &Source{
		APIURL: apiURL,
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

func (s *Source) Name() string { return sourceName }

type searchRequest struct {
	Keyword        string `json:"keyword"`
	Rows           int    `json:"rows"`
	StartRecordNum int    `json:"startRecordNum"`
	OppStatuses    string `json:"oppStatuses"`
}

type searchResponse struct {
	Data struct {
		HitCount int              `json:"hitCount"`
		OppHits  []map[string]any `json:"oppHits"`
	} `json:"data"`
}

// oppHit is the subset of a search hit the scan needs. Hits arrive as loose
// JSON maps with numeric IDs, so decoding is weakly typed.
type oppHit struct {
	ID         string `mapstructure:"id"`
	Number     string `mapstructure:"number"`
	Title      string `mapstructure:"title"`
	Agency     string `mapstructure:"agency"`
	AgencyName string `mapstructure:"agencyName"`
	CloseDate  string `mapstructure:"closeDate"`
}

// Fetch searches every configured keyword. A failing keyword only logs a
// warning, the error surfaces when no keyword produced anything at all.
func (s *Source) Fetch(ctx context.Context) (*grants.Grants, error) {
	collected := &grants.Grants{}

	var firstErr error
	for _, keyword := range s.cfg.Keywords {
		found, err := s.search(ctx, keyword)
		if err != nil {
			s.logger.Warn("keyword search failed",
				zap.String("keyword", keyword),
				zap.Error(err),
			)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		s.logger.Debug("keyword search done",
			zap.String("keyword", keyword),
			zap.Int("found", found.Len()),
		)
		collected.Append(found)
	}

	if collected.Len() == 0 && firstErr != nil {
		return nil, firstErr
	}

	return collected, nil
}

func (s *Source) search(ctx context.Context, keyword string) (*grants.Grants, error) {
	found := &grants.Grants{}

	start := 0
	for {
		var response searchResponse
		request := searchRequest{
			Keyword:        keyword,
			Rows:           s.cfg.Rows,
			StartRecordNum: start,
			OppStatuses:    "posted",
		}
		if err := s.client.PostJSON(ctx, s.APIURL, request, &response); err != nil {
			return nil, err
		}

		hits := response.Data.OppHits
		if len(hits) == 0 {
			break
		}

		for _, hit := range hits {
			if grant := s.parseHit(hit); grant != nil {
				found.Items = append(found.Items, grant)
			}
		}

		start += len(hits)
		if start >= response.Data.HitCount || start >= s.cfg.MaxResults || len(hits) < s.cfg.Rows {
			break
		}

		if err := util.WaitFor(ctx, s.cfg.Throttle); err != nil {
			return nil, err
		}
	}

	return found, nil
}

func (s *Source) parseHit(hit map[string]any) *grants.Grant {
	var parsed oppHit
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Metadata:         nil,
		Result:           &parsed,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil
	}
	if err := decoder.Decode(hit); err != nil {
		s.logger.Debug("skipping malformed hit", zap.Error(err))
		return nil
	}

	number := strings.TrimSpace(parsed.Number)
	if number == "" {
		number = strings.TrimSpace(parsed.ID)
	}
	if number == "" {
		s.logger.Debug("skipping hit without an identifier")
		return nil
	}

	funder := strings.TrimSpace(parsed.AgencyName)
	if funder == "" {
		funder = strings.TrimSpace(parsed.Agency)
	}

	grant := &grants.Grant{
		ID:       sourceName + "-" + number,
		Source:   sourceName,
		Title:    strings.TrimSpace(parsed.Title),
		Funder:   funder,
		Criteria: inferCriteria(parsed.Title, funder),
	}

	if id := strings.TrimSpace(parsed.ID); id != "" {
		grant.URL = detailURL + id
	}

	if deadline, err := time.Parse(closeDateLayout, strings.TrimSpace(parsed.CloseDate)); err == nil {
		grant.Deadline = deadline.UTC()
	}

	return grant
}

// inferCriteria derives eligibility tags from the opportunity title and
// agency. Federal listings do not expose structured eligibility, so this stays
// heuristic; an ownership mention is a scoring hint, never a hard gate.
func inferCriteria(title, agency string) grants.Criteria {
	text := strings.ToLower(title + " " + agency)

	criteria := grants.Criteria{
		Preferred: []string{profile.AttrSmallBusiness},
	}
	if strings.Contains(text, "women") || strings.Contains(text, "woman") {
		criteria.Preferred = append(criteria.Preferred, profile.AttrWomanOwned)
	}
	if strings.Contains(text, "minorit") {
		criteria.Preferred = append(criteria.Preferred, profile.AttrMinorityOwned)
	}
	if strings.Contains(text, "veteran") {
		criteria.Preferred = append(criteria.Preferred, profile.AttrVeteranOwned)
	}

	return criteria
}
