package certifications

import (
	"testing"
	"time"
)

func TestFind(t *testing.T) {
	t.Parallel()

	cert, ok := Find("  WOSB ")
	if !ok {
		t.Fatalf("expected to find wosb")
	}
	if cert.Name != "Women-Owned Small Business" {
		t.Fatalf("unexpected name: %q", cert.Name)
	}

	if _, ok := Find("unknown"); ok {
		t.Fatalf("did not expect to find unknown code")
	}
}

func TestActiveCodes(t *testing.T) {
	t.Parallel()

	codes := ActiveCodes()
	if len(codes) != 2 {
		t.Fatalf("expected 2 active certifications, got %v", codes)
	}
	if codes[0] != "wosb" || codes[1] != "ca-sbe" {
		t.Fatalf("unexpected active codes: %v", codes)
	}
}

func TestExpiringWithin(t *testing.T) {
	t.Parallel()

	now := time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC)

	expiring := ExpiringWithin(now, 90*24*time.Hour)
	if len(expiring) != 1 || expiring[0].Code != "wosb" {
		t.Fatalf("expected only wosb within 90 days, got %v", expiring)
	}

	expiring = ExpiringWithin(now, 365*24*time.Hour)
	if len(expiring) != 2 {
		t.Fatalf("expected both active certifications within a year, got %v", expiring)
	}
	if expiring[0].Code != "wosb" || expiring[1].Code != "ca-sbe" {
		t.Fatalf("expected soonest renewal first, got %v", expiring)
	}

	if got := ExpiringWithin(now, 24*time.Hour); len(got) != 0 {
		t.Fatalf("expected nothing within a day, got %v", got)
	}
}

func TestMerge(t *testing.T) {
	t.Parallel()

	merged := Merge([]string{"wosb", "  DBE ", ""})

	if len(merged) != len(Catalog())+1 {
		t.Fatalf("expected one extra entry, got %d", len(merged))
	}

	extra := merged[len(merged)-1]
	if extra.Code != "dbe" || extra.Status != StatusActive || extra.Name != "DBE" {
		t.Fatalf("unexpected merged entry: %+v", extra)
	}
}
