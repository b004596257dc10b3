package evidence

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// driverTokens is the fixed vocabulary of driver's-licence / provincial-ID
// cues, including bilingual forms and common OCR misspellings.
var driverTokens = []string{
	"driver's licence",
	"driver's license",
	"drivers licence",
	"drivers license",
	"driver licence",
	"driver license",
	"driving licence",
	"driving license",
	"permis de conduire",
	"permis de condulre",
	"photo card",
	"ministry of transportation",
	"class g",
	"class 5",
	"ontario",
	"british columbia",
	"alberta",
	"saskatchewan",
	"manitoba",
	"nova scotia",
	"new brunswick",
	"newfoundland",
	"prince edward island",
	"yukon",
	"nunavut",
	"northwest territories",
}

// driverNumberPattern matches the provincial licence-number shape
// (letter + 4-5-5 digit groups).
var driverNumberPattern = regexp.MustCompile(`\b[a-z]\d{4}[- ]?\d{5}[- ]?\d{5}\b`)

// DriverVeto scans the merged text for driver's-licence cues. Any hit forces
// rejection regardless of accumulated points.
func DriverVeto(merged string) (Signal, bool) {
	for _, token := range driverTokens {
		if strings.Contains(merged, token) {
			return Signal{
				Kind:   KindDriverVeto,
				Detail: fmt.Sprintf("driver's licence cue %q", token),
				Veto:   true,
			}, true
		}
	}
	if match := driverNumberPattern.FindString(merged); match != "" {
		return Signal{
			Kind:   KindDriverVeto,
			Detail: fmt.Sprintf("licence-number-shaped token %q", match),
			Veto:   true,
		}, true
	}
	return Signal{}, false
}

// HandwritingThresholds are the conservative cutoffs for the hand-written
// note heuristic; breaching any single one marks the sample.
type HandwritingThresholds struct {
	MinAlphaRatio     float64 `json:"min_alpha_ratio"`
	MinAvgTokenLen    float64 `json:"min_avg_token_len"`
	MaxShortTokenFrac float64 `json:"max_short_token_frac"`
	MaxSymbolFrac     float64 `json:"max_symbol_frac"`
	MinTokens         int     `json:"min_tokens"`
}

// DefaultHandwritingThresholds returns the tuned cutoffs.
func DefaultHandwritingThresholds() HandwritingThresholds {
	return HandwritingThresholds{
		MinAlphaRatio:     0.50,
		MinAvgTokenLen:    2.4,
		MaxShortTokenFrac: 0.65,
		MaxSymbolFrac:     0.30,
		MinTokens:         4,
	}
}

// HandwritingVeto applies four independent heuristics over the merged lines:
// alphabetic-character ratio, average token length, the fraction of very
// short tokens, and the fraction of non-alphanumeric characters. Too little
// text to judge never triggers the veto; total OCR silence is handled by the
// weaker-fallback paths instead.
func HandwritingVeto(lines []string, th HandwritingThresholds) (Signal, bool) {
	var tokens []string
	for _, line := range lines {
		tokens = append(tokens, strings.Fields(line)...)
	}
	if len(tokens) < th.MinTokens {
		return Signal{}, false
	}

	var alpha, alnum, symbols, chars, short int
	var tokenLenSum int
	for _, tok := range tokens {
		tokenLenSum += len([]rune(tok))
		if len([]rune(tok)) <= 2 {
			short++
		}
		for _, r := range tok {
			chars++
			switch {
			case unicode.IsLetter(r):
				alpha++
				alnum++
			case unicode.IsDigit(r):
				alnum++
			default:
				symbols++
			}
		}
	}
	if chars == 0 {
		return Signal{}, false
	}

	alphaRatio := float64(alpha) / float64(chars)
	avgTokenLen := float64(tokenLenSum) / float64(len(tokens))
	shortFrac := float64(short) / float64(len(tokens))
	symbolFrac := float64(symbols) / float64(chars)

	var reason string
	switch {
	case alphaRatio < th.MinAlphaRatio:
		reason = fmt.Sprintf("alphabetic ratio %.2f below %.2f", alphaRatio, th.MinAlphaRatio)
	case avgTokenLen < th.MinAvgTokenLen:
		reason = fmt.Sprintf("average token length %.2f below %.2f", avgTokenLen, th.MinAvgTokenLen)
	case shortFrac > th.MaxShortTokenFrac:
		reason = fmt.Sprintf("short-token fraction %.2f above %.2f", shortFrac, th.MaxShortTokenFrac)
	case symbolFrac > th.MaxSymbolFrac:
		reason = fmt.Sprintf("symbol fraction %.2f above %.2f", symbolFrac, th.MaxSymbolFrac)
	default:
		return Signal{}, false
	}

	return Signal{
		Kind:   KindHandwritingVeto,
		Detail: "likely hand-written note: " + reason,
		Veto:   true,
	}, true
}
