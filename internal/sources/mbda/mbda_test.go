package mbda

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/marvmedia/grantfinder/internal/sources"
)

func TestFetchScrapesAnnouncements(t *testing.T) {
	page := `
<html><body>
  <article>
    <h2>Capital Readiness Program</h2>
    <a href="/programs/capital-readiness">Read more</a>
  </article>
  <article>
    <h3>Enterprising Women of Color</h3>
    <a href="https://www.mbda.gov/ewoc">Details</a>
  </article>
  <article><p>no heading here</p></article>
</body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, page)
	}))
	defer server.Close()

	source := New(sources.NewClient(nil), nil)
	source.PageURL = server.URL

	found, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Standing program plus the two scraped announcements.
	if found.Len() != 3 {
		t.Fatalf("expected 3 grants, got %d (%v)", found.Len(), found.IDs())
	}

	if found.FindByID("mbda-business-center") == nil {
		t.Fatalf("expected standing business center entry")
	}

	scraped := found.FindByID("mbda-capital-readiness-program")
	if scraped == nil {
		t.Fatalf("expected scraped announcement, got %v", found.IDs())
	}
	if scraped.URL != "https://www.mbda.gov/programs/capital-readiness" {
		t.Fatalf("expected absolutized URL, got %q", scraped.URL)
	}
	if len(scraped.Criteria.Required) != 1 || scraped.Criteria.Required[0] != "minority-owned" {
		t.Fatalf("unexpected criteria: %v", scraped.Criteria.Required)
	}

	ewoc := found.FindByID("mbda-enterprising-women-of-color")
	if ewoc == nil || ewoc.URL != "https://www.mbda.gov/ewoc" {
		t.Fatalf("expected absolute URL kept as is, got %+v", ewoc)
	}
}

func TestFetchDegradesToStandingEntry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	source := New(sources.NewClient(nil), nil)
	source.PageURL = server.URL

	found, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("scrape failure must not error: %v", err)
	}
	if found.Len() != 1 || found.Items[0].ID != "mbda-business-center" {
		t.Fatalf("expected only the standing entry, got %v", found.IDs())
	}
}

func TestFetchFallsBackToViewsRows(t *testing.T) {
	page := `
<html><body>
  <div class="views-row">
    <h3>Minority Tech Initiative</h3>
    <a href="/programs/tech">More</a>
  </div>
</body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, page)
	}))
	defer server.Close()

	source := New(sources.NewClient(nil), nil)
	source.PageURL = server.URL

	found, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found.FindByID("mbda-minority-tech-initiative") == nil {
		t.Fatalf("expected views-row fallback to find the announcement, got %v", found.IDs())
	}
}
