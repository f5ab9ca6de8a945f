package profile

import "github.com/marvmedia/grantfinder/internal/certifications"

// Example returns a filled-in profile used by the setup command as a starting
// point for a new installation. Its certification list follows the active
// entries of the built-in catalog.
func Example() *Profile {
	return &Profile{
		Company: Company{
			Name: "MARV Media LLC",
			Location: Location{
				City:    "Sacramento",
				State:   "CA",
				Country: "US",
			},
			IndustryTags:    []string{"media", "marketing", "video-production"},
			NAICSCodes:      []string{"512110", "541810"},
			AnnualRevenue:   85000,
			EmployeeCount:   3,
			YearsInBusiness: 4,
		},
		Owners: []Owner{
			{Name: "Morgan Alvarez", Percent: 33.34, Woman: true},
			{Name: "Riley Vaughn", Percent: 33.33, Minority: true},
			{Name: "Casey Marsh", Percent: 33.33},
		},
		Certifications: certifications.ActiveCodes(),
	}
}
