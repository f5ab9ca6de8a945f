package grantsgov

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/marvmedia/grantfinder/internal/sources"
)

func TestFetchPaginates(t *testing.T) {
	var requests []searchRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req searchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		requests = append(requests, req)

		hits := []map[string]any{}
		switch req.StartRecordNum {
		case 0:
			hits = append(hits,
				map[string]any{
					"id":        float64(359045),
					"number":    "USDA-RD-1",
					"title":     "Rural Business Development",
					"agency":    "USDA",
					"closeDate": "04/30/2026",
				},
				map[string]any{
					"id":     float64(359046),
					"number": "SBA-W-2",
					"title":  "Women Owned Small Business Support",
					"agency": "SBA",
				},
			)
		case 2:
			hits = append(hits, map[string]any{
				"id":     float64(359047),
				"number": "MBDA-3",
				"title":  "Minority Enterprise Growth",
				"agency": "MBDA",
			})
		}

		response := map[string]any{
			"data": map[string]any{"hitCount": 3, "oppHits": hits},
		}
		_ = json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	source := New(sources.NewClient(nil), Config{
		Keywords: []string{"small business"},
		Rows:     2,
	}, nil)
	source.APIURL = server.URL

	found, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if found.Len() != 3 {
		t.Fatalf("expected 3 grants, got %d (%v)", found.Len(), found.IDs())
	}
	if len(requests) != 2 {
		t.Fatalf("expected 2 paginated requests, got %d", len(requests))
	}
	if requests[0].OppStatuses != "posted" || requests[1].StartRecordNum != 2 {
		t.Fatalf("unexpected pagination requests: %+v", requests)
	}

	first := found.FindByID("grantsgov-USDA-RD-1")
	if first == nil {
		t.Fatalf("expected grant keyed by opportunity number, got %v", found.IDs())
	}
	if first.Funder != "USDA" {
		t.Fatalf("unexpected funder: %q", first.Funder)
	}
	if first.URL != detailURL+"359045" {
		t.Fatalf("unexpected URL: %q", first.URL)
	}
	want := time.Date(2026, time.April, 30, 0, 0, 0, 0, time.UTC)
	if !first.Deadline.Equal(want) {
		t.Fatalf("unexpected deadline: %v", first.Deadline)
	}
}

func TestFetchInfersCriteria(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response := map[string]any{
			"data": map[string]any{
				"hitCount": 1,
				"oppHits": []map[string]any{
					{
						"id":     float64(1),
						"number": "SBA-W-1",
						"title":  "Women and Minority Business Accelerator",
						"agency": "SBA",
					},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	source := New(sources.NewClient(nil), Config{Keywords: []string{"x"}}, nil)
	source.APIURL = server.URL

	found, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	grant := found.FindByID("grantsgov-SBA-W-1")
	if grant == nil {
		t.Fatalf("expected grant, got %v", found.IDs())
	}

	if len(grant.Criteria.Required) != 0 {
		t.Fatalf("title hints must never become hard gates, got %v", grant.Criteria.Required)
	}
	preferred := grant.Criteria.Preferred
	if len(preferred) != 3 || preferred[0] != "small-business" || preferred[1] != "woman-owned" || preferred[2] != "minority-owned" {
		t.Fatalf("unexpected preferred criteria: %v", preferred)
	}
}

func TestInferCriteriaKeepsOwnershipPreferred(t *testing.T) {
	// A listing that merely mentions veterans must stay scorable for a
	// profile with no veteran owner instead of being gated out.
	criteria := inferCriteria("Veteran Business Outreach Program", "SBA")

	if len(criteria.Required) != 0 {
		t.Fatalf("unexpected required criteria: %v", criteria.Required)
	}
	if len(criteria.Preferred) != 2 || criteria.Preferred[1] != "veteran-owned" {
		t.Fatalf("unexpected preferred criteria: %v", criteria.Preferred)
	}
}

func TestInferCriteriaReadsAgencyText(t *testing.T) {
	criteria := inferCriteria("Business Center Program", "Minority Business Development Agency")

	if len(criteria.Preferred) != 2 || criteria.Preferred[1] != "minority-owned" {
		t.Fatalf("expected agency text to contribute, got %v", criteria.Preferred)
	}
}

func TestNewFillsDefaultKeywords(t *testing.T) {
	source := New(sources.NewClient(nil), Config{}, nil)

	want := []string{
		"women-owned small business",
		"minority-owned business",
		"media production",
		"digital marketing",
		"small business california",
	}
	if len(source.cfg.Keywords) != len(want) {
		t.Fatalf("expected %d default keywords, got %v", len(want), source.cfg.Keywords)
	}
	for i, keyword := range want {
		if source.cfg.Keywords[i] != keyword {
			t.Fatalf("keyword %d = %q, want %q", i, source.cfg.Keywords[i], keyword)
		}
	}
}

func TestParseHitPrefersAgencyName(t *testing.T) {
	source := New(sources.NewClient(nil), Config{Keywords: []string{"x"}}, nil)

	grant := source.parseHit(map[string]any{
		"number":     "DOC-1",
		"title":      "Business Center Program",
		"agency":     "DOC",
		"agencyName": "Minority Business Development Agency",
	})
	if grant == nil {
		t.Fatalf("expected a grant")
	}
	if grant.Funder != "Minority Business Development Agency" {
		t.Fatalf("unexpected funder: %q", grant.Funder)
	}
}

func TestFetchSkipsBadHitsAndKeywords(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}
		response := map[string]any{
			"data": map[string]any{
				"hitCount": 2,
				"oppHits": []map[string]any{
					{"title": "No identifier at all"},
					{"id": float64(2), "number": "OK-1", "title": "Usable", "agency": "DOE"},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	source := New(sources.NewClient(nil), Config{Keywords: []string{"bad", "good"}}, nil)
	source.APIURL = server.URL

	found, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("one good keyword should succeed: %v", err)
	}
	if found.Len() != 1 || found.Items[0].ID != "grantsgov-OK-1" {
		t.Fatalf("expected only the usable hit, got %v", found.IDs())
	}
}

func TestFetchFailsWhenNothingWorks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer server.Close()

	source := New(sources.NewClient(nil), Config{Keywords: []string{"a", "b"}}, nil)
	source.APIURL = server.URL

	if _, err := source.Fetch(context.Background()); err == nil {
		t.Fatalf("expected error when every keyword fails")
	}
}
