package grants

import (
	"strconv"
	"strings"
	"time"
)

const (
	GrantIDField     = "ID"
	GrantFunderField = "Funder"
)

// Lifecycle statuses a grant moves through from discovery to submission.
const (
	StatusDiscovered = "discovered"
	StatusMatched    = "matched"
	StatusDrafted    = "drafted"
	StatusSubmitted  = "submitted"
	StatusRejected   = "rejected"
)

// Statuses returns every known lifecycle status in pipeline order.
func Statuses() []string {
	return []string{StatusDiscovered, StatusMatched, StatusDrafted, StatusSubmitted, StatusRejected}
}

// ValidStatus reports whether s is a known lifecycle status.
func ValidStatus(s string) bool {
	for _, known := range Statuses() {
		if s == known {
			return true
		}
	}
	return false
}

// AmountRange describes the award size in whole dollars. A zero Min means the
// floor is unknown, a zero Max means the ceiling is unknown.
type AmountRange struct {
	Min int64 `json:"min,omitempty"`
	Max int64 `json:"max,omitempty"`
}

func (a AmountRange) Empty() bool {
	return a.Min == 0 && a.Max == 0
}

func (a AmountRange) String() string {
	switch {
	case a.Empty():
		return ""
	case a.Min == 0:
		return "up to " + FormatDollars(a.Max)
	case a.Max == 0:
		return FormatDollars(a.Min) + "+"
	case a.Min == a.Max:
		return FormatDollars(a.Min)
	default:
		return FormatDollars(a.Min) + "-" + FormatDollars(a.Max)
	}
}

// FormatDollars renders n with digit grouping and a dollar sign.
func FormatDollars(n int64) string {
	if n < 0 {
		return "-" + FormatDollars(-n)
	}
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return "$" + s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteString(",")
		}
		b.WriteString(s[i : i+3])
	}
	return "$" + b.String()
}

// Criteria holds the eligibility tags attached to a grant. Required tags are
// hard gates, preferred tags only influence the score.
type Criteria struct {
	Required  []string `json:"required,omitempty"`
	Preferred []string `json:"preferred,omitempty"`
}

func (c Criteria) Empty() bool {
	return len(c.Required) == 0 && len(c.Preferred) == 0
}

type Grant struct {
	ID          string      `json:"id,omitempty"`
	Source      string      `json:"source,omitempty"`
	Title       string      `json:"title,omitempty"`
	Funder      string      `json:"funder,omitempty"`
	URL         string      `json:"url,omitempty"`
	Description string      `json:"description,omitempty"`
	Amount      AmountRange `json:"amount,omitempty"`
	// Deadline is the submission cutoff. The zero value means the grant has a
	// rolling deadline.
	Deadline time.Time `json:"deadline,omitempty"`
	Criteria Criteria  `json:"criteria,omitempty"`
	Status   string    `json:"status,omitempty"`
}

func (g *Grant) GetStringField(name string) string {
	switch name {
	case GrantIDField:
		return g.ID
	case GrantFunderField:
		return g.Funder

	default:
		return ""
	}
}

func (g *Grant) HasDeadline() bool {
	return !g.Deadline.IsZero()
}

// Expired reports whether the submission deadline already passed. Rolling
// deadlines never expire.
func (g *Grant) Expired(now time.Time) bool {
	return g.HasDeadline() && g.Deadline.Before(now)
}

// DaysUntilDeadline returns the number of whole days left before the deadline,
// negative once it passed. Only meaningful when HasDeadline reports true.
func (g *Grant) DaysUntilDeadline(now time.Time) int {
	return int(g.Deadline.Sub(now).Hours() / 24)
}
