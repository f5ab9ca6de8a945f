package grants

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"
)

type Grants struct {
	Items []*Grant
}

type ExcludedGrants struct {
	Items []*ExcludedGrant
}

type ExcludedGrant struct {
	ID         string
	Title      string
	URL        string
	Funder     string
	ExcludedAt time.Time
}

func (g *Grants) Len() int {
	return len(g.Items)
}

func (g *Grants) FindByID(id string) *Grant {
	for _, grant := range g.Items {
		if grant.ID == id {
			return grant
		}
	}
	return nil
}

func (g *Grants) IDs() []string {
	ids := make([]string, 0)
	for _, grant := range g.Items {
		ids = append(ids, grant.ID)
	}
	return ids
}

// Append merges another collection into this one, skipping grants whose ID is
// already present so overlapping sources do not duplicate entries.
func (g *Grants) Append(other *Grants) {
	if other == nil {
		return
	}
	for _, grant := range other.Items {
		if grant.ID != "" && g.FindByID(grant.ID) != nil {
			continue
		}
		g.Items = append(g.Items, grant)
	}
}

// Exclude removes grants whose named field matches any of the targets and
// returns the removed IDs. Only the first match per target is removed.
func (g *Grants) Exclude(name string, targets []string) []string {
	var excluded []string
	for _, target := range targets {
		for idx, grant := range g.Items {
			if grant.GetStringField(name) == target {
				g.RemoveByIndex(idx)
				excluded = append(excluded, grant.ID)
				break
			}
		}
	}
	return excluded
}

// RemoveByIndex remove grant from list by index. Do not preserve order.
func (g *Grants) RemoveByIndex(idx int) {
	g.Items[idx] = g.Items[len(g.Items)-1]
	g.Items = g.Items[:len(g.Items)-1]
}

// SortByDeadline orders grants by nearest deadline first. Rolling deadlines
// sort last, ties break on ID so the order is stable across runs.
func (g *Grants) SortByDeadline() {
	sort.Slice(g.Items, func(i, j int) bool {
		a, b := g.Items[i], g.Items[j]
		switch {
		case a.HasDeadline() != b.HasDeadline():
			return a.HasDeadline()
		case a.HasDeadline() && !a.Deadline.Equal(b.Deadline):
			return a.Deadline.Before(b.Deadline)
		default:
			return a.ID < b.ID
		}
	})
}

// Report by funder.
func (g *Grants) ReportByFunder() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, grant := range g.Items {
		key := fmt.Sprintf("%s (%s)", grant.Funder, grant.Source)
		deadline := "rolling"
		if grant.HasDeadline() {
			deadline = grant.Deadline.Format("2006-01-02")
		}
		report[key] = append(report[key], map[string]string{
			"title":    grant.Title,
			"url":      grant.URL,
			"deadline": deadline,
			"amount":   grant.Amount.String(),
		})
	}
	return report
}

func (g *Grants) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "grants_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g); err != nil {
		return "", err
	}
	return file.Name(), nil
}

func (g *Grants) ToExcluded() *ExcludedGrants {
	excluded := &ExcludedGrants{}
	for _, grant := range g.Items {
		excluded.Items = append(excluded.Items, &ExcludedGrant{
			ID:         grant.ID,
			Title:      grant.Title,
			URL:        grant.URL,
			Funder:     grant.Funder,
			ExcludedAt: time.Now().UTC(),
		})
	}
	return excluded
}

func GetExcludedGrantsFromFile(path string) (*ExcludedGrants, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &ExcludedGrants{}, nil
	}

	var excluded ExcludedGrants
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, err
	}
	return &excluded, nil
}

func (e *ExcludedGrants) Append(other *ExcludedGrants) {
	e.Items = append(e.Items, other.Items...)
}

func (e *ExcludedGrants) GrantIDs() []string {
	ids := make([]string, 0)
	for _, grant := range e.Items {
		ids = append(ids, grant.ID)
	}
	return ids
}

func (e *ExcludedGrants) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(e); err != nil {
		return err
	}
	return nil
}
