package textextract

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var whitespaceCollapser = regexp.MustCompile(`\s+`)

// canonicalTokens corrects systematic OCR truncations produced by
// zone-boundary clipping. Keys are complete tokens, not substrings, so
// legitimate words are never rewritten.
var canonicalTokens = map[string]string{
	"sident":      "resident",
	"esident":     "resident",
	"permanen":    "permanent",
	"ermanent":    "permanent",
	"overnment":   "government",
	"govemment":   "government",
	"goverment":   "government",
	"gouvemement": "gouvernement",
	"anada":       "canada",
	"canad":       "canada",
	"arte":        "carte",
}

// strongTitles are whitelist phrases surfaced first in the merged line list.
var strongTitles = []string{
	"permanent resident card",
	"carte de resident permanent",
	"confirmation of permanent residence",
	"government of canada",
	"gouvernement du canada",
}

var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeLine collapses whitespace, lowercases, strips diacritics, and
// applies the truncation canonicalization table to every token.
func NormalizeLine(line string) string {
	line = whitespaceCollapser.ReplaceAllString(line, " ")
	line = strings.ToLower(strings.TrimSpace(line))
	if line == "" {
		return ""
	}
	if stripped, _, err := transform.String(diacriticStripper, line); err == nil {
		line = stripped
	}
	tokens := strings.Split(line, " ")
	for i, tok := range tokens {
		if fixed, ok := canonicalTokens[tok]; ok {
			tokens[i] = fixed
		}
	}
	return strings.Join(tokens, " ")
}

// MergeLines deduplicates normalized lines preserving first-seen order, then
// reorders so strong title phrases come first, followed by reasonable-length
// multi-word alphabetic lines, followed by the remainder. The ordering aids
// trace readability only; scoring re-scans the merged text independently.
func MergeLines(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	var unique []string
	for _, line := range lines {
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		unique = append(unique, line)
	}

	var titles, wordy, rest []string
	for _, line := range unique {
		switch {
		case isStrongTitle(line):
			titles = append(titles, line)
		case isWordyLine(line):
			wordy = append(wordy, line)
		default:
			rest = append(rest, line)
		}
	}
	out := make([]string, 0, len(unique))
	out = append(out, titles...)
	out = append(out, wordy...)
	out = append(out, rest...)
	return out
}

func isStrongTitle(line string) bool {
	for _, title := range strongTitles {
		if strings.Contains(line, title) {
			return true
		}
	}
	return false
}

// isWordyLine accepts multi-word, mostly-alphabetic lines of plausible label
// length.
func isWordyLine(line string) bool {
	if len(line) < 8 || len(line) > 60 {
		return false
	}
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return false
	}
	var alpha, total int
	for _, r := range line {
		if r == ' ' {
			continue
		}
		total++
		if unicode.IsLetter(r) {
			alpha++
		}
	}
	if total == 0 {
		return false
	}
	return float64(alpha)/float64(total) >= 0.7
}
