package drafter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/marvmedia/grantfinder/internal/grants"
	"github.com/marvmedia/grantfinder/internal/profile"
)

// Section keys in generation order.
const (
	SectionCompanyOverview     = "company_overview"
	SectionBusinessDescription = "business_description"
	SectionUseOfFunds          = "use_of_funds"
	SectionImpactStatement     = "impact_statement"
	SectionOwnerBios           = "owner_bios"
	SectionWhyWeDeserveThis    = "why_we_deserve_this"
)

// Outline describes one section every draft contains and how to prompt for it.
type Outline struct {
	Key         string
	Title       string
	Instruction string
}

// SectionOrder returns the sections of a complete application draft, in the
// order they are generated and rendered.
func SectionOrder() []Outline {
	return []Outline{
		{
			Key:   SectionCompanyOverview,
			Title: "Company Overview",
			Instruction: "Introduce the company in two or three paragraphs: what it does, " +
				"where it operates, who runs it and what stage it is at.",
		},
		{
			Key:   SectionBusinessDescription,
			Title: "Business Description",
			Instruction: "Describe the products and services in detail, the customers served " +
				"and what sets the business apart from competitors.",
		},
		{
			Key:   SectionUseOfFunds,
			Title: "Use of Funds",
			Instruction: "Lay out concretely how the award would be spent, with rough dollar " +
				"allocations tied to the grant amount.",
		},
		{
			Key:   SectionImpactStatement,
			Title: "Impact Statement",
			Instruction: "Explain the impact the award would have on the business, its customers " +
				"and its community, with measurable outcomes where possible.",
		},
		{
			Key:   SectionOwnerBios,
			Title: "Owner Bios",
			Instruction: "Write a short professional biography for each owner, grounded in the " +
				"ownership details provided.",
		},
		{
			Key:   SectionWhyWeDeserveThis,
			Title: "Why We Deserve This Grant",
			Instruction: "Make the case for this specific business against the grant's stated " +
				"criteria, referencing the eligibility facts honestly.",
		},
	}
}

// Section is one finished block of a draft.
type Section struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Draft is a complete generated application for one grant.
type Draft struct {
	GrantID    string    `json:"grant_id"`
	GrantTitle string    `json:"grant_title,omitempty"`
	Model      string    `json:"model,omitempty"`
	Sections   []Section `json:"sections"`
	CreatedAt  time.Time `json:"created_at"`
}

// Drafter generates application drafts for grants.
type Drafter interface {
	Draft(ctx context.Context, grant *grants.Grant, p *profile.Profile) (*Draft, error)
}

// Markdown renders the draft as a reviewable document.
func (d *Draft) Markdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Grant Application Draft: %s\n\n", d.GrantTitle)
	fmt.Fprintf(&b, "Grant: %s  \nGenerated: %s\n\n", d.GrantID, d.CreatedAt.Format("2006-01-02"))

	for _, section := range d.Sections {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", section.Title, section.Body)
	}

	return strings.TrimSpace(b.String()) + "\n"
}

// Save writes the rendered draft into dir, named after the grant ID, and
// returns the file path.
func (d *Draft) Save(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating drafts dir %q: %w", dir, err)
	}

	path := filepath.Join(dir, d.GrantID+".md")
	if err := os.WriteFile(path, []byte(d.Markdown()), 0o644); err != nil {
		return "", fmt.Errorf("writing draft %q: %w", path, err)
	}

	return path, nil
}
