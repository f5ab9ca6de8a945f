package certifications

import (
	"sort"
	"strings"
	"time"
)

// Certification status values.
const (
	StatusActive     = "active"
	StatusInProgress = "in_progress"
	StatusPlanned    = "planned"
)

// Certification describes one small business certification the company holds
// or is pursuing. Codes double as matcher tags via the certified: prefix.
type Certification struct {
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Issuer      string    `json:"issuer"`
	Status      string    `json:"status"`
	RenewalDate time.Time `json:"renewal_date,omitempty"`
	Notes       string    `json:"notes,omitempty"`
}

// Catalog returns the certifications the business tracks, in display order.
func Catalog() []Certification {
	return []Certification{
		{
			Code:        "wosb",
			Name:        "Women-Owned Small Business",
			Issuer:      "SBA",
			Status:      StatusActive,
			RenewalDate: time.Date(2027, time.March, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			Code:        "ca-sbe",
			Name:        "California Small Business Enterprise",
			Issuer:      "California DGS",
			Status:      StatusActive,
			RenewalDate: time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC),
		},
		{
			Code:   "mbe",
			Name:   "Minority Business Enterprise",
			Issuer: "NMSDC",
			Status: StatusInProgress,
			Notes:  "application submitted, awaiting site visit",
		},
		{
			Code:   "edwosb",
			Name:   "Economically Disadvantaged WOSB",
			Issuer: "SBA",
			Status: StatusPlanned,
		},
		{
			Code:   "8a",
			Name:   "8(a) Business Development",
			Issuer: "SBA",
			Status: StatusPlanned,
			Notes:  "requires two years of revenue history first",
		},
	}
}

// Find looks a certification up by code, case-insensitively.
func Find(code string) (Certification, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	for _, cert := range Catalog() {
		if cert.Code == code {
			return cert, true
		}
	}
	return Certification{}, false
}

// ActiveCodes returns the codes of every active certification.
func ActiveCodes() []string {
	var codes []string
	for _, cert := range Catalog() {
		if cert.Status == StatusActive {
			codes = append(codes, cert.Code)
		}
	}
	return codes
}

// ExpiringWithin returns active certifications whose renewal falls inside the
// window, soonest first.
func ExpiringWithin(now time.Time, window time.Duration) []Certification {
	var expiring []Certification
	cutoff := now.Add(window)
	for _, cert := range Catalog() {
		if cert.Status != StatusActive || cert.RenewalDate.IsZero() {
			continue
		}
		if cert.RenewalDate.Before(cutoff) {
			expiring = append(expiring, cert)
		}
	}
	sort.Slice(expiring, func(i, j int) bool {
		return expiring[i].RenewalDate.Before(expiring[j].RenewalDate)
	})
	return expiring
}

// Merge combines the catalog with codes declared in the profile. Profile codes
// the catalog does not know come back as bare active entries so they still
// show up in tracking.
func Merge(profileCodes []string) []Certification {
	merged := Catalog()
	for _, code := range profileCodes {
		code = strings.ToLower(strings.TrimSpace(code))
		if code == "" {
			continue
		}
		if _, ok := Find(code); ok {
			continue
		}
		merged = append(merged, Certification{
			Code:   code,
			Name:   strings.ToUpper(code),
			Status: StatusActive,
		})
	}
	return merged
}
