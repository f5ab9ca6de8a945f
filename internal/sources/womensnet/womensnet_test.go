package womensnet

import (
	"context"
	"testing"
	"time"
)

func TestFetchSynthesizesMonthlyGrant(t *testing.T) {
	source := New(nil)
	source.now = func() time.Time {
		return time.Date(2026, time.March, 12, 15, 30, 0, 0, time.UTC)
	}

	found, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found.Len() != 1 {
		t.Fatalf("expected exactly one grant, got %d", found.Len())
	}

	grant := found.Items[0]
	if grant.ID != "womensnet-amber-2026-03" {
		t.Fatalf("unexpected ID: %q", grant.ID)
	}

	wantDeadline := time.Date(2026, time.March, 31, 23, 59, 59, 0, time.UTC)
	if !grant.Deadline.Equal(wantDeadline) {
		t.Fatalf("expected end-of-month deadline, got %v", grant.Deadline)
	}

	if len(grant.Criteria.Required) != 1 || grant.Criteria.Required[0] != "woman-owned" {
		t.Fatalf("unexpected required criteria: %v", grant.Criteria.Required)
	}
	if grant.Amount.Min != 10000 || grant.Amount.Max != 10000 {
		t.Fatalf("unexpected amount: %+v", grant.Amount)
	}
}

func TestFetchDecemberRollsIntoNewYear(t *testing.T) {
	source := New(nil)
	source.now = func() time.Time {
		return time.Date(2026, time.December, 1, 0, 0, 0, 0, time.UTC)
	}

	found, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	grant := found.Items[0]
	if grant.ID != "womensnet-amber-2026-12" {
		t.Fatalf("unexpected ID: %q", grant.ID)
	}

	wantDeadline := time.Date(2026, time.December, 31, 23, 59, 59, 0, time.UTC)
	if !grant.Deadline.Equal(wantDeadline) {
		t.Fatalf("expected December 31 deadline, got %v", grant.Deadline)
	}
}

func TestFetchIDChangesWithMonth(t *testing.T) {
	source := New(nil)

	months := []time.Month{time.January, time.February}
	ids := make(map[string]bool)
	for _, month := range months {
		source.now = func() time.Time {
			return time.Date(2026, month, 5, 0, 0, 0, 0, time.UTC)
		}
		found, err := source.Fetch(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ids[found.Items[0].ID] = true
	}

	if len(ids) != 2 {
		t.Fatalf("expected distinct IDs per month, got %v", ids)
	}
}
