package ifundwomen

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/marvmedia/grantfinder/internal/sources"
)

func TestFetchParsesGrantCards(t *testing.T) {
	page := `
<html><body>
  <div class="grant-card">
    <h2>Monthly Momentum Grant</h2>
    <p>Recurring cash grant for women entrepreneurs.</p>
    <span class="grant-amount">Up to $25,000 in funding</span>
    <a href="/grants/momentum">Apply</a>
  </div>
  <div class="grant-card">
    <h3>Pitch Competition Fund</h3>
    <a href="https://ifundwomen.com/pitch">Apply</a>
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
	if found.Len() != 2 {
		t.Fatalf("expected 2 grants, got %d (%v)", found.Len(), found.IDs())
	}

	momentum := found.FindByID("ifundwomen-monthly-momentum-grant")
	if momentum == nil {
		t.Fatalf("expected momentum card, got %v", found.IDs())
	}
	if momentum.URL != "https://ifundwomen.com/grants/momentum" {
		t.Fatalf("expected absolutized URL, got %q", momentum.URL)
	}
	if momentum.Amount.Max != 25000 {
		t.Fatalf("expected amount parsed from card text, got %+v", momentum.Amount)
	}
	if len(momentum.Criteria.Required) != 1 || momentum.Criteria.Required[0] != "woman-owned" {
		t.Fatalf("unexpected required criteria: %v", momentum.Criteria.Required)
	}
	if len(momentum.Criteria.Preferred) != 1 || momentum.Criteria.Preferred[0] != "small-business" {
		t.Fatalf("unexpected preferred criteria: %v", momentum.Criteria.Preferred)
	}

	pitch := found.FindByID("ifundwomen-pitch-competition-fund")
	if pitch == nil {
		t.Fatalf("expected pitch card, got %v", found.IDs())
	}
	if !pitch.Amount.Empty() {
		t.Fatalf("card without amount text should keep a zero range, got %+v", pitch.Amount)
	}
}

func TestFetchListingFallback(t *testing.T) {
	page := `
<html><body>
  <div class="grant-listing">
    <span class="grant-title">Founder Fellowship</span>
    <span class="amount">$5,000</span>
    <a href="/grants/fellowship">Apply</a>
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

	fellowship := found.FindByID("ifundwomen-founder-fellowship")
	if fellowship == nil {
		t.Fatalf("expected listing fallback to work, got %v", found.IDs())
	}
	if fellowship.Amount.Max != 5000 {
		t.Fatalf("expected amount from .amount element, got %+v", fellowship.Amount)
	}
}

func TestFetchEmptyPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html><body><p>Nothing here.</p></body></html>")
	}))
	defer server.Close()

	source := New(sources.NewClient(nil), nil)
	source.PageURL = server.URL

	found, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found.Len() != 0 {
		t.Fatalf("expected empty result for shifted layout, got %v", found.IDs())
	}
}

func TestFetchPropagatesHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer server.Close()

	source := New(sources.NewClient(nil), nil)
	source.PageURL = server.URL

	if _, err := source.Fetch(context.Background()); err == nil {
		t.Fatalf("expected error for bad status")
	}
}

func TestExtractAmount(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect int64
		ok     bool
	}{
		{name: "currency with grouping", input: "Up to $25,000 in funding", expect: 25000, ok: true},
		{name: "bare figure", input: "5000 award", expect: 5000, ok: true},
		{name: "trailing comma stops cleanly", input: "$10,000, paid monthly", expect: 10000, ok: true},
		{name: "no digits", input: "varies by cycle", expect: 0, ok: false},
		{name: "empty", input: "", expect: 0, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractAmount(tt.input)
			if ok != tt.ok || got != tt.expect {
				t.Fatalf("expected (%d, %v), got (%d, %v)", tt.expect, tt.ok, got, ok)
			}
		})
	}
}
