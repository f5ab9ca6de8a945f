package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/marvmedia/grantfinder/internal/grants"
)

func openTest(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "grantfinder.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestPutGrantInsertsOnce(t *testing.T) {
	s := openTest(t)

	grant := &grants.Grant{ID: "grantsgov-1", Title: "Rural Innovation"}

	inserted, err := s.PutGrant(grant)
	if err != nil {
		t.Fatalf("put grant: %v", err)
	}
	if !inserted {
		t.Fatalf("expected first put to insert")
	}
	if grant.Status != grants.StatusDiscovered {
		t.Fatalf("expected default status discovered, got %q", grant.Status)
	}

	inserted, err = s.PutGrant(&grants.Grant{ID: "grantsgov-1", Title: "Changed"})
	if err != nil {
		t.Fatalf("second put: %v", err)
	}
	if inserted {
		t.Fatalf("expected second put to be a no-op")
	}

	stored, err := s.GetGrant("grantsgov-1")
	if err != nil {
		t.Fatalf("get grant: %v", err)
	}
	if stored.Title != "Rural Innovation" {
		t.Fatalf("duplicate put must not overwrite, got title %q", stored.Title)
	}

	if _, err := s.PutGrant(&grants.Grant{}); err == nil {
		t.Fatalf("expected error for grant without ID")
	}
	if _, err := s.PutGrant(nil); err == nil {
		t.Fatalf("expected error for nil grant")
	}
}

func TestGetGrantNotFound(t *testing.T) {
	s := openTest(t)

	if _, err := s.GetGrant("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListAndCount(t *testing.T) {
	s := openTest(t)

	seed := []*grants.Grant{
		{ID: "b", Status: grants.StatusMatched},
		{ID: "a", Status: grants.StatusDiscovered},
		{ID: "c", Status: grants.StatusMatched},
	}
	for _, g := range seed {
		if _, err := s.PutGrant(g); err != nil {
			t.Fatalf("seeding %s: %v", g.ID, err)
		}
	}

	all, err := s.ListGrants()
	if err != nil {
		t.Fatalf("list grants: %v", err)
	}
	if got := all.IDs(); got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("expected ID order, got %v", got)
	}

	matched, err := s.ListByStatus(grants.StatusMatched)
	if err != nil {
		t.Fatalf("list by status: %v", err)
	}
	if matched.Len() != 2 {
		t.Fatalf("expected 2 matched grants, got %d", matched.Len())
	}

	counts, err := s.CountByStatus()
	if err != nil {
		t.Fatalf("count by status: %v", err)
	}
	if counts[grants.StatusMatched] != 2 || counts[grants.StatusDiscovered] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}

	known, err := s.KnownIDs()
	if err != nil {
		t.Fatalf("known ids: %v", err)
	}
	if len(known) != 3 {
		t.Fatalf("expected 3 known ids, got %d", len(known))
	}
	if _, ok := known["b"]; !ok {
		t.Fatalf("expected b to be known")
	}
}

func TestUpdateStatus(t *testing.T) {
	s := openTest(t)

	if _, err := s.PutGrant(&grants.Grant{ID: "g1"}); err != nil {
		t.Fatalf("seeding: %v", err)
	}

	if err := s.UpdateStatus("g1", grants.StatusSubmitted); err != nil {
		t.Fatalf("update status: %v", err)
	}

	stored, err := s.GetGrant("g1")
	if err != nil {
		t.Fatalf("get grant: %v", err)
	}
	if stored.Status != grants.StatusSubmitted {
		t.Fatalf("expected submitted, got %q", stored.Status)
	}

	if err := s.UpdateStatus("g1", "bogus"); err == nil {
		t.Fatalf("expected error for unknown status")
	}

	if err := s.UpdateStatus("missing", grants.StatusMatched); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDraftRecords(t *testing.T) {
	s := openTest(t)

	if err := s.PutDraft(&DraftRecord{GrantID: "g1", Path: "/tmp/g1.md", Sections: 6}); err != nil {
		t.Fatalf("put draft: %v", err)
	}

	record, err := s.GetDraft("g1")
	if err != nil {
		t.Fatalf("get draft: %v", err)
	}
	if record.Path != "/tmp/g1.md" || record.Sections != 6 {
		t.Fatalf("unexpected record: %+v", record)
	}
	if record.CreatedAt.IsZero() {
		t.Fatalf("expected CreatedAt to be filled in")
	}

	if _, err := s.GetDraft("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := s.PutDraft(&DraftRecord{}); err == nil {
		t.Fatalf("expected error for draft without grant ID")
	}
}

func TestActivityLog(t *testing.T) {
	s := openTest(t)

	base := time.Date(2026, time.April, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		entry := &ActivityEntry{
			At:      base.Add(time.Duration(i) * time.Minute),
			Kind:    "scan",
			Message: "entry",
			GrantID: "g1",
		}
		if err := s.AppendActivity(entry); err != nil {
			t.Fatalf("append activity: %v", err)
		}
	}

	recent, err := s.RecentActivity(3)
	if err != nil {
		t.Fatalf("recent activity: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(recent))
	}
	if !recent[0].At.After(recent[1].At) || !recent[1].At.After(recent[2].At) {
		t.Fatalf("expected newest first, got %v", recent)
	}
	if !recent[0].At.Equal(base.Add(4 * time.Minute)) {
		t.Fatalf("expected newest entry first, got %v", recent[0].At)
	}

	if entries, err := s.RecentActivity(0); err != nil || entries != nil {
		t.Fatalf("expected empty result for zero limit, got %v, %v", entries, err)
	}

	all, err := s.RecentActivity(100)
	if err != nil {
		t.Fatalf("recent activity: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("expected all 5 entries, got %d", len(all))
	}
}
