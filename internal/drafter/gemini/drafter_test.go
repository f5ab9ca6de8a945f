package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/marvmedia/grantfinder/internal/drafter"
	"github.com/marvmedia/grantfinder/internal/grants"
	"github.com/marvmedia/grantfinder/internal/profile"
)

type stubGenerator struct {
	model   string
	prompts []string
	reply   func(prompt string) (string, error)
}

func (s *stubGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.reply != nil {
		return s.reply(prompt)
	}
	return "generated text", nil
}

func (s *stubGenerator) Model() string { return s.model }

func testGrant() *grants.Grant {
	return &grants.Grant{
		ID:     "womensnet-amber-2026-08",
		Source: "womensnet",
		Title:  "Amber Grant for Women",
		Funder: "WomensNet",
		Criteria: grants.Criteria{
			Required: []string{"woman-owned"},
		},
	}
}

func testProfile() *profile.Profile {
	p := &profile.Profile{
		Company: profile.Company{
			Name:     "Example Media LLC",
			Location: profile.Location{City: "Sacramento", State: "CA"},
		},
		Owners: []profile.Owner{{Name: "A", Percent: 100, Woman: true}},
	}
	p.Normalize()
	return p
}

func TestDraftGeneratesEverySectionInOrder(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{model: "gemini-2.5-flash"}
	d := NewDrafter(gen, nil, 0)

	draft, err := d.Draft(context.Background(), testGrant(), testProfile())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	order := drafter.SectionOrder()
	if len(draft.Sections) != len(order) {
		t.Fatalf("expected %d sections, got %d", len(order), len(draft.Sections))
	}
	for i, outline := range order {
		if draft.Sections[i].Key != outline.Key {
			t.Fatalf("section %d: expected %s, got %s", i, outline.Key, draft.Sections[i].Key)
		}
		if draft.Sections[i].Body != "generated text" {
			t.Fatalf("section %d has unexpected body %q", i, draft.Sections[i].Body)
		}
	}

	if draft.Model != "gemini-2.5-flash" {
		t.Fatalf("expected model recorded on draft, got %q", draft.Model)
	}
	if draft.GrantID != "womensnet-amber-2026-08" {
		t.Fatalf("unexpected grant ID %q", draft.GrantID)
	}
}

func TestDraftPromptsCarryGrantAndProfileFacts(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{}
	d := NewDrafter(gen, nil, 0)

	if _, err := d.Draft(context.Background(), testGrant(), testProfile()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(gen.prompts) != len(drafter.SectionOrder()) {
		t.Fatalf("expected one prompt per section, got %d", len(gen.prompts))
	}
	first := gen.prompts[0]
	for _, want := range []string{"Amber Grant for Women", "Example Media LLC", "Company Overview"} {
		if !strings.Contains(first, want) {
			t.Fatalf("prompt is missing %q:\n%s", want, first)
		}
	}
}

func TestDraftSectionErrorNamesTheSection(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{reply: func(string) (string, error) {
		return "", errors.New("quota exceeded")
	}}
	d := NewDrafter(gen, nil, 0)

	_, err := d.Draft(context.Background(), testGrant(), testProfile())
	if err == nil {
		t.Fatalf("expected an error")
	}
	if !strings.Contains(err.Error(), "company_overview") {
		t.Fatalf("error should name the failed section, got %v", err)
	}
}

func TestDraftRequiresGrantAndProfile(t *testing.T) {
	t.Parallel()

	d := NewDrafter(&stubGenerator{}, nil, 0)

	if _, err := d.Draft(context.Background(), nil, testProfile()); err == nil {
		t.Fatalf("expected error for nil grant")
	}
	if _, err := d.Draft(context.Background(), testGrant(), nil); err == nil {
		t.Fatalf("expected error for nil profile")
	}
}

func TestStripFences(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "just text", "just text"},
		{"fenced", "```markdown\nsome text\n```", "some text"},
		{"bare fence", "```\nsome text\n```", "some text"},
		{"whitespace", "  padded  ", "padded"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := stripFences(tc.in); got != tc.want {
				t.Fatalf("stripFences(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNewGeneratorRequiresAPIKey(t *testing.T) {
	t.Parallel()

	if _, err := NewGenerator(context.Background(), "  ", ""); err == nil {
		t.Fatalf("expected error for empty api key")
	}
}
