package evidence

import (
	"fmt"
	"regexp"
	"strings"

	"iddoc-verify/internal/textextract"
	"iddoc-verify/internal/vision"
)

var govWords = []string{"government", "gouvernement"}

const countryWord = "canada"

// expectedField is one of the five labeled fields printed in the card's
// middle band.
type expectedField struct {
	name    string
	match   func(text string) bool
	pattern *regexp.Regexp
}

var idNumberPattern = regexp.MustCompile(`\b\d{4}[- ]?\d{4}\b`)

var expectedFields = []expectedField{
	{name: "id-number", pattern: idNumberPattern},
	{name: "sex", match: containsAny("sex", "sexe")},
	{name: "nationality", match: containsAny("nationality", "nationalite")},
	{name: "date-of-birth", match: containsAny("date of birth", "naissance")},
	{name: "expiry", match: containsAny("expiry", "expiration")},
}

func containsAny(words ...string) func(string) bool {
	return func(text string) bool {
		for _, w := range words {
			if strings.Contains(text, w) {
				return true
			}
		}
		return false
	}
}

func (f expectedField) present(text string) bool {
	if f.pattern != nil {
		return f.pattern.MatchString(text)
	}
	return f.match(text)
}

// Findings is the extractor output consumed by the decision engine.
type Findings struct {
	Breakdown      Breakdown
	Extracted      Extracted
	CountryPresent bool
	FlagPresent    bool
	LogoPresent    bool
}

// Extractor turns raw detections into named, weighted signals and veto flags.
type Extractor struct {
	weights     Weights
	handwriting HandwritingThresholds
}

// NewExtractor builds an extractor around the given point table.
func NewExtractor(weights Weights) *Extractor {
	return &Extractor{weights: weights, handwriting: DefaultHandwritingThresholds()}
}

// Extract computes every evidence signal from the merged text, the
// zone-scoped text, and the visual detector findings. Zone-scoped matches
// win over whole-text fallbacks; a signal kind is never awarded twice.
func (e *Extractor) Extract(tx textextract.Extraction, vis vision.Findings) Findings {
	if e == nil {
		return Findings{}
	}
	out := Findings{FlagPresent: vis.FlagPresent, LogoPresent: vis.LogoPresent}
	b := &out.Breakdown

	// Vetoes first so they head the trace.
	if sig, ok := DriverVeto(tx.Merged); ok {
		b.Add(sig)
	}
	if sig, ok := HandwritingVeto(tx.Lines, e.handwriting); ok {
		b.Add(sig)
	}

	if vis.FlagPresent {
		b.Add(Signal{Kind: KindVisualFlag, Points: e.weights.Flag, Detail: vis.FlagDetail()})
	}
	if vis.LogoPresent {
		b.Add(Signal{Kind: KindVisualLogoPair, Points: e.weights.LogoPair, Detail: vis.LogoDetail()})
	}

	e.extractGov(b, tx)
	e.extractTitle(b, tx)
	out.CountryPresent = e.extractCountry(b, tx)
	e.extractFields(b, tx)

	out.Extracted = ExtractFields(tx.Merged)
	if detail := out.Extracted.Detail(); detail != "" {
		b.Add(Signal{Kind: KindExtractedFields, Points: 0, Detail: detail})
	}

	return out
}

func (e *Extractor) extractGov(b *Breakdown, tx textextract.Extraction) {
	zone := tx.Zone(textextract.ZoneTopLeft)
	for _, word := range govWords {
		if strings.Contains(zone, word) {
			b.Add(Signal{Kind: KindGovText, Points: e.weights.GovZone, Detail: fmt.Sprintf("%q in top-left zone", word)})
			return
		}
	}
	for _, word := range govWords {
		if strings.Contains(tx.Merged, word) {
			b.Add(Signal{Kind: KindGovText, Points: e.weights.GovFallback, Detail: fmt.Sprintf("%q in whole text", word)})
			return
		}
	}
}

func (e *Extractor) extractTitle(b *Breakdown, tx textextract.Extraction) {
	zone := tx.Zone(textextract.ZoneTopRight)
	hasPermanent := strings.Contains(zone, "permanent")
	hasResident := strings.Contains(zone, "resident") || strings.Contains(zone, "carte")

	switch {
	case hasPermanent && hasResident:
		b.Add(Signal{Kind: KindTitleText, Points: e.weights.TitleBoth, Detail: "permanent and resident/carte in top-right zone"})
	case hasPermanent || hasResident:
		b.Add(Signal{Kind: KindTitleText, Points: e.weights.TitleOne, Detail: "one title word in top-right zone"})
	case strings.Contains(tx.Merged, "permanent") || strings.Contains(tx.Merged, "resident") || strings.Contains(tx.Merged, "carte"):
		b.Add(Signal{Kind: KindTitleText, Points: e.weights.TitleFallback, Detail: "title word in whole text"})
	}
}

// extractCountry awards zone-scoped points and reports the country boolean,
// which the decision tiers use as an acceptance gate regardless of where the
// country name was seen.
func (e *Extractor) extractCountry(b *Breakdown, tx textextract.Extraction) bool {
	if strings.Contains(tx.Zone(textextract.ZoneBottomRight), countryWord) {
		b.Add(Signal{Kind: KindCountryText, Points: e.weights.Country, Detail: "country name in bottom-right zone"})
		return true
	}
	if strings.Contains(tx.Merged, countryWord) {
		// Seen outside its zone: gate satisfied, no zone points.
		b.Add(Signal{Kind: KindCountryText, Points: 0, Detail: "country name in whole text only"})
		return true
	}
	return false
}

func (e *Extractor) extractFields(b *Breakdown, tx textextract.Extraction) {
	zone := tx.Zone(textextract.ZoneMiddleBand)
	perField := e.weights.FieldZone
	source := "middle-band zone"
	text := zone
	if strings.TrimSpace(zone) == "" {
		perField = e.weights.FieldFallback
		source = "whole text"
		text = tx.Merged
	}

	var found []string
	for _, field := range expectedFields {
		if field.present(text) {
			found = append(found, field.name)
		}
	}
	if len(found) == 0 {
		return
	}
	count := len(found)
	if count > e.weights.FieldCap {
		count = e.weights.FieldCap
	}
	b.Add(Signal{
		Kind:   KindFieldCount,
		Points: count * perField,
		Detail: fmt.Sprintf("%d labeled field(s) in %s: %s", count, source, strings.Join(found, ", ")),
	})
}
