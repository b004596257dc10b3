package evidence

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Extracted holds structured values recovered from the merged text: the UCI /
// client id, a document-number-shaped token, printed dates, and whether the
// bilingual name-field labels are present. The values carry no points; they
// enrich the evidence trace and the audit record.
type Extracted map[string]string

var (
	uciPattern       = regexp.MustCompile(`\b(?:uci|client\s*id)\s*[:#]?\s*([0-9]{8,10})\b`)
	docNumberPattern = regexp.MustCompile(`\b(?:document|id)\s*(?:no|number)?\s*[:#]?\s*([a-z0-9-]{6,})\b`)
	datePattern      = regexp.MustCompile(`\b(\d{4}[-/]\d{2}[-/]\d{2}|\d{2}\s*[a-z]{3}\s*\d{4})\b`)

	nameFieldPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(?:surname|nom)\b`),
		regexp.MustCompile(`\bgiven\s*names?\b|\bprenoms?\b`),
	}
)

// maxExtractedDates bounds the dates kept in the audit record.
const maxExtractedDates = 3

// ExtractFields scans the merged normalized text for the structured values.
func ExtractFields(merged string) Extracted {
	out := Extracted{}
	if m := uciPattern.FindStringSubmatch(merged); m != nil {
		out["uci"] = m[1]
	}
	if m := docNumberPattern.FindStringSubmatch(merged); m != nil {
		out["doc_number"] = m[1]
	}
	if dates := datePattern.FindAllString(merged, maxExtractedDates); len(dates) > 0 {
		out["dates_found"] = strings.Join(dates, ", ")
	}
	for _, pat := range nameFieldPatterns {
		if pat.MatchString(merged) {
			out["name_fields_present"] = "true"
			break
		}
	}
	return out
}

// Detail renders the extracted values for the trace, keys sorted for a
// stable line.
func (e Extracted) Detail() string {
	if len(e) == 0 {
		return ""
	}
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, e[k]))
	}
	return strings.Join(parts, ", ")
}
