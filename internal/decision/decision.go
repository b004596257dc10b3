// Package decision applies the weighted-score policy. The tier logic is an
// ordered list of named rules evaluated in fixed priority; the first rule
// that resolves produces the classification.
package decision

import (
	"fmt"

	"iddoc-verify/internal/evidence"
)

// Label is the tri-state classification outcome.
type Label string

const (
	Accepted     Label = "accepted"
	ManualReview Label = "manual_review"
	Rejected     Label = "rejected"
)

// Result is the final classification record. It is immutable once produced;
// the trace enumerates every contributing signal and the deciding reason so a
// reviewer can audit the outcome without re-running the pipeline.
type Result struct {
	Label      Label
	Confidence float64
	Trace      []string
}

// Input bundles everything the rules inspect.
type Input struct {
	Breakdown      evidence.Breakdown
	CountryPresent bool
	FlagPresent    bool
	LogoPresent    bool
	MergedText     string
}

// Thresholds carries the tier boundaries. Defaults match the tuned policy;
// they are configuration, not proven constants.
type Thresholds struct {
	AcceptPoints          int     `json:"accept_points"`
	ReviewFloor           int     `json:"review_floor"`
	PaperFloor            int     `json:"paper_floor"`
	TextSupportMin        int     `json:"text_support_min"`
	FallbackMaxConfidence float64 `json:"fallback_max_confidence"`
}

// DefaultThresholds returns the standard tier boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{
		AcceptPoints:          100,
		ReviewFloor:           75,
		PaperFloor:            60,
		TextSupportMin:        10,
		FallbackMaxConfidence: 0.85,
	}
}

// Rule resolves an input to a result, or passes to the next rule.
type Rule interface {
	Name() string
	Apply(in Input) (Result, bool)
}

// Decider evaluates the rule chain in order.
type Decider struct {
	rules []Rule
}

// NewDecider builds the standard rule chain for the given thresholds.
func NewDecider(th Thresholds) *Decider {
	return &Decider{rules: []Rule{
		vetoRule{},
		strongTierRule{th: th},
		midTierRule{th: th},
		paperTierRule{th: th},
		fallbackRule{th: th},
	}}
}

// Decide runs the chain. The fallback rule always resolves, so every input
// yields exactly one result.
func (d *Decider) Decide(in Input) Result {
	for _, rule := range d.rules {
		if res, ok := rule.Apply(in); ok {
			return res
		}
	}
	// Unreachable with the standard chain.
	return Result{
		Label:      Rejected,
		Confidence: 0,
		Trace:      append(in.Breakdown.TraceLines(), "no rule resolved; rejected"),
	}
}

func baseTrace(in Input) []string {
	lines := in.Breakdown.TraceLines()
	out := make([]string, 0, len(lines)+2)
	out = append(out, lines...)
	out = append(out, fmt.Sprintf("total: %d points, text support: %d", in.Breakdown.TotalPoints, in.Breakdown.TextSupport()))
	return out
}

// vetoRule rejects whenever any veto signal is present, irrespective of the
// point total.
type vetoRule struct{}

func (vetoRule) Name() string { return "veto" }

func (vetoRule) Apply(in Input) (Result, bool) {
	veto, ok := in.Breakdown.Veto()
	if !ok {
		return Result{}, false
	}
	return Result{
		Label:      Rejected,
		Confidence: 0,
		Trace:      append(in.Breakdown.TraceLines(), "rejected: "+veto.Detail),
	}, true
}

// strongTierRule handles totals at or above the acceptance boundary.
type strongTierRule struct{ th Thresholds }

func (strongTierRule) Name() string { return "strong-tier" }

func (r strongTierRule) Apply(in Input) (Result, bool) {
	b := in.Breakdown
	if b.TotalPoints < r.th.AcceptPoints {
		return Result{}, false
	}
	if b.TextSupport() < r.th.TextSupportMin {
		return Result{
			Label:      ManualReview,
			Confidence: b.Confidence(),
			Trace:      append(baseTrace(in), "manual review: visual evidence only; textual corroboration missing"),
		}, true
	}
	if !in.CountryPresent {
		return Result{
			Label:      ManualReview,
			Confidence: b.Confidence(),
			Trace:      append(baseTrace(in), "manual review: no country text; possible foreign document"),
		}, true
	}
	return Result{
		Label:      Accepted,
		Confidence: b.Confidence(),
		Trace:      append(baseTrace(in), "accepted: strong evidence with textual and country corroboration"),
	}, true
}

// midTierRule handles the 75-99 band: country presence decides between accept
// and review.
type midTierRule struct{ th Thresholds }

func (midTierRule) Name() string { return "mid-tier" }

func (r midTierRule) Apply(in Input) (Result, bool) {
	b := in.Breakdown
	if b.TotalPoints < r.th.ReviewFloor || b.TotalPoints >= r.th.AcceptPoints {
		return Result{}, false
	}
	if in.CountryPresent {
		return Result{
			Label:      Accepted,
			Confidence: b.Confidence(),
			Trace:      append(baseTrace(in), "accepted: mid-tier evidence with country corroboration"),
		}, true
	}
	return Result{
		Label:      ManualReview,
		Confidence: b.Confidence(),
		Trace:      append(baseTrace(in), "manual review: foreign document suspected"),
	}, true
}

// paperTierRule accepts the paper confirmation variant: a non-laminated
// document shows the flag and country text but not the holographic logo pair.
type paperTierRule struct{ th Thresholds }

func (paperTierRule) Name() string { return "paper-tier" }

func (r paperTierRule) Apply(in Input) (Result, bool) {
	b := in.Breakdown
	if b.TotalPoints < r.th.PaperFloor || b.TotalPoints >= r.th.ReviewFloor {
		return Result{}, false
	}
	if in.FlagPresent && in.CountryPresent && !in.LogoPresent {
		return Result{
			Label:      Accepted,
			Confidence: b.Confidence(),
			Trace:      append(baseTrace(in), "accepted: paper confirmation variant"),
		}, true
	}
	return Result{}, false
}
