package decision

import (
	"regexp"
	"strings"
)

// The legacy fallback is the second, looser scoring strategy. It runs only
// when none of the primary tiers resolved, scanning the merged text for
// phrase co-occurrences that survive heavy OCR degradation.

var fallbackIDPattern = regexp.MustCompile(`\b\d{4}[- ]?\d{4}\b`)

var titleFragments = []string{"permanent", "permanen", "resident", "sident", "residence"}

var supportiveKeywords = []string{"government", "gouvernement", "card", "carte", "immigration"}

type fallbackRule struct{ th Thresholds }

func (fallbackRule) Name() string { return "legacy-fallback" }

func (r fallbackRule) Apply(in Input) (Result, bool) {
	merged := in.MergedText

	countryToken := strings.Contains(merged, "canada") || in.CountryPresent
	titleFragment := containsAnyOf(merged, titleFragments)
	supportive := containsAnyOf(merged, supportiveKeywords)
	idShaped := fallbackIDPattern.MatchString(merged)

	accepted := (titleFragment && countryToken) || (idShaped && supportive && countryToken)
	if accepted {
		conf := in.Breakdown.Confidence()
		if conf > r.th.FallbackMaxConfidence {
			conf = r.th.FallbackMaxConfidence
		}
		if conf == 0 {
			conf = 0.5
		}
		return Result{
			Label:      Accepted,
			Confidence: conf,
			Trace:      append(baseTrace(in), "accepted (legacy-fallback): phrase co-occurrence in merged text"),
		}, true
	}

	return Result{
		Label:      Rejected,
		Confidence: in.Breakdown.Confidence(),
		Trace:      append(baseTrace(in), "rejected: insufficient evidence"),
	}, true
}

func containsAnyOf(text string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(text, tok) {
			return true
		}
	}
	return false
}
