package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/marvmedia/grantfinder/internal/drafter"
	"github.com/marvmedia/grantfinder/internal/grants"
	"github.com/marvmedia/grantfinder/internal/logger"
	"github.com/marvmedia/grantfinder/internal/profile"
	"github.com/marvmedia/grantfinder/internal/util"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Drafter generates grant application drafts section by section with Gemini.
type Drafter struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

func NewDrafter(generator contentGenerator, log *zap.Logger, maxLogLength int) *Drafter {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if log == nil {
		log = zap.NewNop()
	}

	model := ""
	if named, ok := generator.(interface{ Model() string }); ok {
		model = named.Model()
	}

	return &Drafter{
		generator: generator,
		logger:    logger.WithCommonFields(log, "gemini", model),
		maxLogLen: maxLogLength,
	}
}

// Draft produces a complete application draft for the grant, one generation
// call per section, in the fixed section order.
func (d *Drafter) Draft(ctx context.Context, grant *grants.Grant, p *profile.Profile) (*drafter.Draft, error) {
	if grant == nil {
		return nil, fmt.Errorf("grant is required")
	}
	if p == nil {
		return nil, fmt.Errorf("company profile is required")
	}

	grantJSON, err := json.MarshalIndent(grant, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal grant payload: %w", err)
	}

	profileJSON, err := json.MarshalIndent(draftProfilePayload(p), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal profile payload: %w", err)
	}

	draft := &drafter.Draft{
		GrantID:    grant.ID,
		GrantTitle: grant.Title,
		CreatedAt:  time.Now().UTC(),
	}
	if named, ok := d.generator.(interface{ Model() string }); ok {
		draft.Model = named.Model()
	}

	for _, outline := range drafter.SectionOrder() {
		prompt := buildPrompt(outline, string(grantJSON), string(profileJSON))

		d.logger.Debug("gemini generate content request",
			zap.String("grant_id", grant.ID),
			zap.String("section", outline.Key),
			zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
			zap.String("prompt_preview", util.TruncateForLog(prompt, d.maxLogLen)),
		)

		raw, err := d.generator.GenerateContent(ctx, prompt)
		if err != nil {
			return nil, fmt.Errorf("drafting section %s: %w", outline.Key, err)
		}

		d.logger.Debug("gemini generate content response",
			zap.String("grant_id", grant.ID),
			zap.String("section", outline.Key),
			zap.Int("response_length", utf8.RuneCountInString(raw)),
			zap.String("response_preview", util.TruncateForLog(raw, d.maxLogLen)),
		)

		draft.Sections = append(draft.Sections, drafter.Section{
			Key:   outline.Key,
			Title: outline.Title,
			Body:  stripFences(raw),
		})
	}

	return draft, nil
}

// draftProfilePayload shapes the profile for prompting: the company facts plus
// the effective eligibility attributes, without internal override plumbing.
func draftProfilePayload(p *profile.Profile) map[string]any {
	return map[string]any{
		"company":        p.Company,
		"owners":         p.Owners,
		"certifications": p.Certifications,
		"eligibility":    p.EligibilityAttributes(),
	}
}

func buildPrompt(outline drafter.Outline, grantJSON, profileJSON string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Write the {{SECTION_TITLE}} section.\n{{SECTION_INSTRUCTION}}\n\nGrant:\n{{GRANT_JSON}}\n\nCompany:\n{{PROFILE_JSON}}\n\nSection text:"
	}
	prompt := strings.ReplaceAll(template, "{{SECTION_TITLE}}", outline.Title)
	prompt = strings.ReplaceAll(prompt, "{{SECTION_INSTRUCTION}}", outline.Instruction)
	prompt = strings.ReplaceAll(prompt, "{{GRANT_JSON}}", grantJSON)
	prompt = strings.ReplaceAll(prompt, "{{PROFILE_JSON}}", profileJSON)
	return prompt
}

// stripFences removes a wrapping markdown code fence Gemini sometimes adds.
func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```markdown")
		raw = strings.TrimPrefix(raw, "```md")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	return strings.TrimSpace(raw)
}
