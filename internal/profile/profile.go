package profile

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Attribute keys recognized in the attributes override block. Any other key is
// treated as a custom eligibility fact and matched verbatim against grant tags.
const (
	AttrWomanOwned           = "woman-owned"
	AttrMinorityOwned        = "minority-owned"
	AttrVeteranOwned         = "veteran-owned"
	AttrDisabledVeteranOwned = "disabled-veteran-owned"
	AttrSmallBusiness        = "small-business"
)

// Profile describes the applicant business. It is loaded from a YAML file the
// operator maintains by hand, so Load normalizes and validates on the way in.
type Profile struct {
	Company Company `yaml:"company"`
	Owners  []Owner `yaml:"owners,omitempty"`
	// Attributes overrides computed eligibility facts and declares custom
	// ones. An explicit value always wins over what the owners table implies.
	Attributes     map[string]bool `yaml:"attributes,omitempty"`
	Certifications []string        `yaml:"certifications,omitempty"`
}

type Company struct {
	Name            string   `yaml:"name"`
	Location        Location `yaml:"location,omitempty"`
	IndustryTags    []string `yaml:"industry-tags,omitempty"`
	NAICSCodes      []string `yaml:"naics-codes,omitempty"`
	AnnualRevenue   int64    `yaml:"annual-revenue,omitempty"`
	EmployeeCount   int      `yaml:"employee-count,omitempty"`
	YearsInBusiness int      `yaml:"years-in-business,omitempty"`
}

type Location struct {
	City    string `yaml:"city,omitempty"`
	State   string `yaml:"state,omitempty"`
	Country string `yaml:"country,omitempty"`
}

type Owner struct {
	Name            string  `yaml:"name"`
	Percent         float64 `yaml:"percent"`
	Woman           bool    `yaml:"woman,omitempty"`
	Minority        bool    `yaml:"minority,omitempty"`
	Veteran         bool    `yaml:"veteran,omitempty"`
	ServiceDisabled bool    `yaml:"service-disabled,omitempty"`
}

// Load reads, normalizes and validates a profile from the given YAML file.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile %q: %w", path, err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing profile %q: %w", path, err)
	}

	p.Normalize()
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("profile %q: %w", path, err)
	}

	return &p, nil
}

// Normalize trims free-form fields and canonicalizes cases so comparisons in
// the matcher stay simple. The country defaults to US when omitted.
func (p *Profile) Normalize() {
	p.Company.Name = strings.TrimSpace(p.Company.Name)
	p.Company.Location.City = strings.TrimSpace(p.Company.Location.City)
	p.Company.Location.State = strings.ToUpper(strings.TrimSpace(p.Company.Location.State))
	p.Company.Location.Country = strings.ToUpper(strings.TrimSpace(p.Company.Location.Country))
	if p.Company.Location.Country == "" {
		p.Company.Location.Country = "US"
	}

	for i, tag := range p.Company.IndustryTags {
		p.Company.IndustryTags[i] = strings.ToLower(strings.TrimSpace(tag))
	}
	for i, code := range p.Company.NAICSCodes {
		p.Company.NAICSCodes[i] = strings.TrimSpace(code)
	}
	for i, cert := range p.Certifications {
		p.Certifications[i] = strings.ToLower(strings.TrimSpace(cert))
	}
	for i := range p.Owners {
		p.Owners[i].Name = strings.TrimSpace(p.Owners[i].Name)
	}
}

// Validate rejects profiles the matcher cannot reason about.
func (p *Profile) Validate() error {
	if p.Company.Name == "" {
		return fmt.Errorf("company name is required")
	}

	total := 0.0
	for _, owner := range p.Owners {
		if owner.Percent < 0 {
			return fmt.Errorf("owner %q has negative ownership share", owner.Name)
		}
		total += owner.Percent
	}
	if total > 100.5 {
		return fmt.Errorf("ownership shares add up to %.2f%%, expected at most 100%%", total)
	}

	if p.Company.AnnualRevenue < 0 {
		return fmt.Errorf("annual revenue cannot be negative")
	}
	if p.Company.EmployeeCount < 0 {
		return fmt.Errorf("employee count cannot be negative")
	}

	return nil
}

// Attribute reports an explicit override for the given key, and whether one
// was declared at all.
func (p *Profile) Attribute(key string) (bool, bool) {
	if p.Attributes == nil {
		return false, false
	}
	value, ok := p.Attributes[key]
	return value, ok
}

func (p *Profile) ownershipShare(match func(Owner) bool) float64 {
	share := 0.0
	for _, owner := range p.Owners {
		if match(owner) {
			share += owner.Percent
		}
	}
	return share
}

// WomanOwned reports whether any ownership stake is held by a woman, unless an
// explicit attribute override says otherwise.
func (p *Profile) WomanOwned() bool {
	if value, ok := p.Attribute(AttrWomanOwned); ok {
		return value
	}
	return p.ownershipShare(func(o Owner) bool { return o.Woman }) > 0
}

func (p *Profile) MinorityOwned() bool {
	if value, ok := p.Attribute(AttrMinorityOwned); ok {
		return value
	}
	return p.ownershipShare(func(o Owner) bool { return o.Minority }) > 0
}

func (p *Profile) VeteranOwned() bool {
	if value, ok := p.Attribute(AttrVeteranOwned); ok {
		return value
	}
	return p.ownershipShare(func(o Owner) bool { return o.Veteran }) > 0
}

func (p *Profile) DisabledVeteranOwned() bool {
	if value, ok := p.Attribute(AttrDisabledVeteranOwned); ok {
		return value
	}
	return p.ownershipShare(func(o Owner) bool { return o.Veteran && o.ServiceDisabled }) > 0
}

// SmallBusiness reports whether the company falls under the common 500
// employee threshold. An unknown head count is treated as small.
func (p *Profile) SmallBusiness() bool {
	if value, ok := p.Attribute(AttrSmallBusiness); ok {
		return value
	}
	return p.Company.EmployeeCount < 500
}

func (p *Profile) HasIndustry(tag string) bool {
	tag = strings.ToLower(strings.TrimSpace(tag))
	for _, have := range p.Company.IndustryTags {
		if have == tag {
			return true
		}
	}
	return false
}

// HasNAICSPrefix matches NAICS codes by prefix, so a grant asking for sector
// 51 accepts the full 512110 code.
func (p *Profile) HasNAICSPrefix(code string) bool {
	code = strings.TrimSpace(code)
	if code == "" {
		return false
	}
	for _, have := range p.Company.NAICSCodes {
		if strings.HasPrefix(have, code) {
			return true
		}
	}
	return false
}

func (p *Profile) Certified(code string) bool {
	code = strings.ToLower(strings.TrimSpace(code))
	for _, have := range p.Certifications {
		if have == code {
			return true
		}
	}
	return false
}

func (p *Profile) InState(state string) bool {
	return strings.EqualFold(strings.TrimSpace(state), p.Company.Location.State)
}

func (p *Profile) InCity(city string) bool {
	return strings.EqualFold(strings.TrimSpace(city), p.Company.Location.City)
}

// EligibilityAttributes returns the effective eligibility facts after applying
// overrides, for status output and draft context.
func (p *Profile) EligibilityAttributes() map[string]bool {
	attrs := map[string]bool{
		AttrWomanOwned:           p.WomanOwned(),
		AttrMinorityOwned:        p.MinorityOwned(),
		AttrVeteranOwned:         p.VeteranOwned(),
		AttrDisabledVeteranOwned: p.DisabledVeteranOwned(),
		AttrSmallBusiness:        p.SmallBusiness(),
	}
	for key, value := range p.Attributes {
		attrs[key] = value
	}
	return attrs
}

// Export renders the profile back to YAML.
func (p *Profile) Export() ([]byte, error) {
	return yaml.Marshal(p)
}
