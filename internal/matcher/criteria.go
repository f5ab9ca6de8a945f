package matcher

import (
	"strconv"
	"strings"

	"github.com/marvmedia/grantfinder/internal/profile"
)

// Kind classifies a parsed eligibility tag.
type Kind string

const (
	KindOwnership     Kind = "ownership"
	KindLocation      Kind = "location"
	KindIndustry      Kind = "industry"
	KindNAICS         Kind = "naics"
	KindCertification Kind = "certification"
	KindRevenue       Kind = "revenue"
	KindEmployees     Kind = "employees"
	KindYears         Kind = "years"
	KindUnknown       Kind = "unknown"
)

// Op is the comparison operator of a numeric criterion.
type Op string

const (
	OpLess         Op = "<"
	OpLessEqual    Op = "<="
	OpGreater      Op = ">"
	OpGreaterEqual Op = ">="
)

// Criterion is one parsed eligibility tag. Key carries the ownership
// attribute, location, industry tag, NAICS code or certification code, Op and
// Value carry the numeric comparison for revenue, employee and age tags.
type Criterion struct {
	Tag   string
	Kind  Kind
	Key   string
	Op    Op
	Value int64
}

// ParseCriterion interprets a single tag. It never fails: anything outside the
// recognized grammar comes back with KindUnknown so the caller can decide how
// to treat it.
func ParseCriterion(tag string) Criterion {
	c := Criterion{Tag: tag, Kind: KindUnknown}

	trimmed := strings.ToLower(strings.TrimSpace(tag))
	if trimmed == "" {
		return c
	}

	switch trimmed {
	case profile.AttrWomanOwned,
		profile.AttrMinorityOwned,
		profile.AttrVeteranOwned,
		profile.AttrDisabledVeteranOwned,
		profile.AttrSmallBusiness:
		c.Kind = KindOwnership
		c.Key = trimmed
		return c
	}

	prefixes := []struct {
		prefix string
		kind   Kind
	}{
		{"location:", KindLocation},
		{"industry:", KindIndustry},
		{"naics:", KindNAICS},
		{"certified:", KindCertification},
	}
	for _, p := range prefixes {
		if strings.HasPrefix(trimmed, p.prefix) {
			key := strings.TrimSpace(strings.TrimPrefix(trimmed, p.prefix))
			if key == "" {
				return c
			}
			c.Kind = p.kind
			c.Key = key
			return c
		}
	}

	if strings.HasPrefix(trimmed, "revenue-under-") {
		if amount, ok := parseAmount(strings.TrimPrefix(trimmed, "revenue-under-")); ok {
			c.Kind, c.Op, c.Value = KindRevenue, OpLess, amount
		}
		return c
	}
	if strings.HasPrefix(trimmed, "revenue-over-") {
		if amount, ok := parseAmount(strings.TrimPrefix(trimmed, "revenue-over-")); ok {
			c.Kind, c.Op, c.Value = KindRevenue, OpGreater, amount
		}
		return c
	}

	comparisons := []struct {
		prefix string
		kind   Kind
	}{
		{"employee-count", KindEmployees},
		{"years-in-business", KindYears},
	}
	for _, cmp := range comparisons {
		if strings.HasPrefix(trimmed, cmp.prefix) {
			if op, value, ok := parseComparison(strings.TrimPrefix(trimmed, cmp.prefix)); ok {
				c.Kind, c.Op, c.Value = cmp.kind, op, value
			}
			return c
		}
	}

	return c
}

// parseAmount understands plain dollar figures plus k and m suffixes, so 100k
// and 1.5m become 100000 and 1500000.
func parseAmount(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	multiplier := int64(1)
	switch {
	case strings.HasSuffix(s, "k"):
		multiplier = 1_000
		s = strings.TrimSuffix(s, "k")
	case strings.HasSuffix(s, "m"):
		multiplier = 1_000_000
		s = strings.TrimSuffix(s, "m")
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil || value < 0 {
		return 0, false
	}
	return int64(value * float64(multiplier)), true
}

func parseComparison(s string) (Op, int64, bool) {
	s = strings.TrimSpace(s)

	var op Op
	switch {
	case strings.HasPrefix(s, string(OpLessEqual)):
		op = OpLessEqual
	case strings.HasPrefix(s, string(OpGreaterEqual)):
		op = OpGreaterEqual
	case strings.HasPrefix(s, string(OpLess)):
		op = OpLess
	case strings.HasPrefix(s, string(OpGreater)):
		op = OpGreater
	default:
		return "", 0, false
	}

	value, err := strconv.ParseInt(strings.TrimSpace(strings.TrimPrefix(s, string(op))), 10, 64)
	if err != nil {
		return "", 0, false
	}
	return op, value, true
}

func compare(have int64, op Op, want int64) bool {
	switch op {
	case OpLess:
		return have < want
	case OpLessEqual:
		return have <= want
	case OpGreater:
		return have > want
	case OpGreaterEqual:
		return have >= want
	default:
		return false
	}
}
