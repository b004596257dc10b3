package evidence

import "fmt"

// Kind names an evidence signal. Each kind contributes at most once per
// classification call.
type Kind string

const (
	KindVisualFlag      Kind = "visual-flag"
	KindVisualLogoPair  Kind = "visual-logo-pair"
	KindGovText         Kind = "gov-text"
	KindTitleText       Kind = "title-text"
	KindCountryText     Kind = "country-text"
	KindFieldCount      Kind = "field-count"
	KindDriverVeto      Kind = "driver-veto"
	KindHandwritingVeto Kind = "handwriting-veto"
	KindLearnedModel    Kind = "learned-model"
	KindExtractedFields Kind = "extracted-fields"
)

// Signal is one named, independently-scored observation. Veto signals carry
// no points; their presence forces rejection irrespective of the total.
type Signal struct {
	Kind   Kind
	Points int
	Detail string
	Veto   bool
}

// TraceLine renders the signal for the decision trace.
func (s Signal) TraceLine() string {
	if s.Veto {
		return fmt.Sprintf("%s: veto (%s)", s.Kind, s.Detail)
	}
	return fmt.Sprintf("%s: +%d (%s)", s.Kind, s.Points, s.Detail)
}

// Breakdown is the ordered list of signals awarded during one call plus the
// running non-veto point total.
type Breakdown struct {
	Signals     []Signal
	TotalPoints int
}

// Add appends a signal unless its kind is already present. Veto signals never
// contribute points.
func (b *Breakdown) Add(sig Signal) bool {
	if b == nil || b.Has(sig.Kind) {
		return false
	}
	if sig.Veto {
		sig.Points = 0
	}
	b.Signals = append(b.Signals, sig)
	b.TotalPoints += sig.Points
	return true
}

// Has reports whether a signal of the given kind was already awarded.
func (b *Breakdown) Has(kind Kind) bool {
	if b == nil {
		return false
	}
	for _, sig := range b.Signals {
		if sig.Kind == kind {
			return true
		}
	}
	return false
}

// Points returns the points awarded for the given kind, zero when absent.
func (b *Breakdown) Points(kind Kind) int {
	if b == nil {
		return 0
	}
	for _, sig := range b.Signals {
		if sig.Kind == kind {
			return sig.Points
		}
	}
	return 0
}

// Veto returns the first veto signal, if any.
func (b *Breakdown) Veto() (Signal, bool) {
	if b == nil {
		return Signal{}, false
	}
	for _, sig := range b.Signals {
		if sig.Veto {
			return sig, true
		}
	}
	return Signal{}, false
}

// Confidence derives the normalized score from the point total. It is a
// normalized [0,1] value, not a calibrated probability.
func (b *Breakdown) Confidence() float64 {
	if b == nil || b.TotalPoints <= 0 {
		return 0
	}
	conf := float64(b.TotalPoints) / 100
	if conf > 1 {
		return 1
	}
	return conf
}

// TextSupport is the point total minus the two purely-visual signals.
func (b *Breakdown) TextSupport() int {
	if b == nil {
		return 0
	}
	return b.TotalPoints - b.Points(KindVisualFlag) - b.Points(KindVisualLogoPair)
}

// TraceLines renders every awarded signal in order.
func (b *Breakdown) TraceLines() []string {
	if b == nil {
		return nil
	}
	lines := make([]string, 0, len(b.Signals))
	for _, sig := range b.Signals {
		lines = append(lines, sig.TraceLine())
	}
	return lines
}
