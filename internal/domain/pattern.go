package domain

import "strings"

// Pattern is the qualitative drainage layout suggested for a catchment.
type Pattern string

const (
	PatternDendritic  Pattern = "dendritic"
	PatternMeandering Pattern = "meandering"
	PatternReticular  Pattern = "reticular"
	PatternPinnate    Pattern = "pinnate"
)

const (
	steepSlopePct = 12.0
	flatSlopePct  = 2.0
)

type patternRule struct {
	pattern Pattern
	matches func(slopePct float64, landClass int) bool
}

// patternRules is evaluated top to bottom; the first match wins. The
// predicates overlap, so the order is the contract.
var patternRules = []patternRule{
	{PatternMeandering, func(slopePct float64, _ int) bool { return slopePct > steepSlopePct }},
	{PatternReticular, func(_ float64, landClass int) bool { return landClass == UrbanLandClass }},
	{PatternPinnate, func(slopePct float64, _ int) bool { return slopePct < flatSlopePct }},
}

// ClassifyPattern picks the drainage pattern for a slope and land-cover class.
func ClassifyPattern(slopePct float64, landClass int) Pattern {
	for _, r := range patternRules {
		if r.matches(slopePct, landClass) {
			return r.pattern
		}
	}
	return PatternDendritic
}

// Title returns the pattern name with its first letter upper-cased.
func (p Pattern) Title() string {
	if p == "" {
		return ""
	}
	s := string(p)
	return strings.ToUpper(s[:1]) + s[1:]
}
