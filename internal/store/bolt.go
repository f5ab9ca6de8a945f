package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/marvmedia/grantfinder/internal/grants"
)

const (
	bucketGrants   = "grants"   // key: grant ID -> Grant JSON
	bucketDrafts   = "drafts"   // key: grant ID -> DraftRecord JSON
	bucketActivity = "activity" // key: zero-padded unix nanos -> ActivityEntry JSON
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Store persists grants, draft records and the activity log in a local bolt
// database, one writer at a time.
type Store struct {
	storage *bbolt.DB
}

// Open opens or creates the database at path and ensures all buckets exist.
func Open(path string) (*Store, error) {
	instance, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}

	if err := instance.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketGrants)); err != nil {
			return err
		}

		if _, err := tx.CreateBucketIfNotExists([]byte(bucketDrafts)); err != nil {
			return err
		}

		if _, err := tx.CreateBucketIfNotExists([]byte(bucketActivity)); err != nil {
			return err
		}

		return nil
	}); err != nil {
		_ = instance.Close()

		return nil, err
	}

	return &Store{storage: instance}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.storage.Close()
}

// PutGrant stores a grant unless its ID is already present and reports whether
// it was inserted. New grants start in the discovered status when none is set.
func (s *Store) PutGrant(grant *grants.Grant) (bool, error) {
	if grant == nil {
		return false, errors.New("grant is required")
	}

	if grant.ID == "" {
		return false, errors.New("grant ID is required")
	}

	if grant.Status == "" {
		grant.Status = grants.StatusDiscovered
	}

	data, err := json.Marshal(grant)
	if err != nil {
		return false, err
	}

	inserted := false
	err = s.storage.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketGrants))

		if bucket.Get([]byte(grant.ID)) != nil {
			return nil
		}

		inserted = true

		return bucket.Put([]byte(grant.ID), data)
	})

	return inserted, err
}

// SaveGrant stores a grant unconditionally, replacing any previous version.
func (s *Store) SaveGrant(grant *grants.Grant) error {
	if grant == nil {
		return errors.New("grant is required")
	}

	if grant.ID == "" {
		return errors.New("grant ID is required")
	}

	data, err := json.Marshal(grant)
	if err != nil {
		return err
	}

	return s.storage.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketGrants))

		return bucket.Put([]byte(grant.ID), data)
	})
}

// GetGrant retrieves a grant by ID, ErrNotFound when absent.
func (s *Store) GetGrant(id string) (*grants.Grant, error) {
	var grant *grants.Grant

	err := s.storage.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketGrants))
		v := bucket.Get([]byte(id))

		if v == nil {
			return fmt.Errorf("grant %q: %w", id, ErrNotFound)
		}

		var g grants.Grant
		if err := json.Unmarshal(v, &g); err != nil {
			return err
		}

		grant = &g

		return nil
	})

	return grant, err
}

// ListGrants returns every stored grant in ID order.
func (s *Store) ListGrants() (*grants.Grants, error) {
	collected := &grants.Grants{}

	err := s.storage.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketGrants))

		return bucket.ForEach(func(k, v []byte) error {
			var g grants.Grant

			if err := json.Unmarshal(v, &g); err != nil {
				return err
			}

			collected.Items = append(collected.Items, &g)

			return nil
		})
	})

	return collected, err
}

// ListByStatus returns stored grants with the given status, in ID order.
func (s *Store) ListByStatus(status string) (*grants.Grants, error) {
	collected := &grants.Grants{}

	err := s.storage.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketGrants))

		return bucket.ForEach(func(k, v []byte) error {
			var g grants.Grant

			if err := json.Unmarshal(v, &g); err != nil {
				return err
			}

			if g.Status != status {
				return nil
			}

			collected.Items = append(collected.Items, &g)

			return nil
		})
	})

	return collected, err
}

// CountByStatus tallies stored grants per lifecycle status.
func (s *Store) CountByStatus() (map[string]int, error) {
	counts := make(map[string]int)

	err := s.storage.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketGrants))

		return bucket.ForEach(func(k, v []byte) error {
			var g grants.Grant

			if err := json.Unmarshal(v, &g); err != nil {
				return err
			}

			counts[g.Status]++

			return nil
		})
	})

	return counts, err
}

// UpdateStatus moves a grant to a new lifecycle status.
func (s *Store) UpdateStatus(id, status string) error {
	if !grants.ValidStatus(status) {
		return fmt.Errorf("unknown status %q", status)
	}

	return s.storage.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketGrants))

		v := bucket.Get([]byte(id))
		if v == nil {
			return fmt.Errorf("grant %q: %w", id, ErrNotFound)
		}

		var g grants.Grant
		if err := json.Unmarshal(v, &g); err != nil {
			return err
		}

		g.Status = status

		data, err := json.Marshal(&g)
		if err != nil {
			return err
		}

		return bucket.Put([]byte(id), data)
	})
}

// KnownIDs returns the set of stored grant IDs.
func (s *Store) KnownIDs() (map[string]struct{}, error) {
	ids := make(map[string]struct{})

	err := s.storage.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketGrants))

		return bucket.ForEach(func(k, v []byte) error {
			ids[string(k)] = struct{}{}

			return nil
		})
	})

	return ids, err
}

// DraftRecord tracks a generated application draft for a grant.
type DraftRecord struct {
	GrantID   string    `json:"grant_id"`
	Path      string    `json:"path,omitempty"`
	Model     string    `json:"model,omitempty"`
	Sections  int       `json:"sections"`
	CreatedAt time.Time `json:"created_at"`
}

// PutDraft saves or replaces the draft record for a grant.
func (s *Store) PutDraft(record *DraftRecord) error {
	if record == nil {
		return errors.New("draft record is required")
	}

	if record.GrantID == "" {
		return errors.New("draft grant ID is required")
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	return s.storage.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketDrafts))

		return bucket.Put([]byte(record.GrantID), data)
	})
}

// GetDraft retrieves the draft record for a grant, ErrNotFound when absent.
func (s *Store) GetDraft(grantID string) (*DraftRecord, error) {
	var record *DraftRecord

	err := s.storage.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketDrafts))
		v := bucket.Get([]byte(grantID))

		if v == nil {
			return fmt.Errorf("draft for %q: %w", grantID, ErrNotFound)
		}

		var r DraftRecord
		if err := json.Unmarshal(v, &r); err != nil {
			return err
		}

		record = &r

		return nil
	})

	return record, err
}

// ActivityEntry is one line in the append-only activity log.
type ActivityEntry struct {
	At      time.Time `json:"at"`
	Kind    string    `json:"kind"`
	GrantID string    `json:"grant_id,omitempty"`
	Message string    `json:"message"`
}

// AppendActivity appends an entry to the activity log. Keys are zero-padded
// timestamps so the bucket iterates in chronological order.
func (s *Store) AppendActivity(entry *ActivityEntry) error {
	if entry == nil {
		return errors.New("activity entry is required")
	}

	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("%020d", entry.At.UnixNano())

	return s.storage.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketActivity))

		return bucket.Put([]byte(key), data)
	})
}

// RecentActivity returns up to limit entries, newest first.
func (s *Store) RecentActivity(limit int) ([]ActivityEntry, error) {
	if limit <= 0 {
		return nil, nil
	}

	var entries []ActivityEntry

	err := s.storage.View(func(tx *bbolt.Tx) error {
		cursor := tx.Bucket([]byte(bucketActivity)).Cursor()

		for k, v := cursor.Last(); k != nil && len(entries) < limit; k, v = cursor.Prev() {
			var e ActivityEntry
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}

			entries = append(entries, e)
		}

		return nil
	})

	return entries, err
}
