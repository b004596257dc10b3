// Package engine orchestrates the classification pipeline: normalize the
// raster, run the visual detectors and the OCR fan-out, extract weighted
// evidence, consult the optional learned model, and apply the decision rules.
package engine

import (
	"context"
	"fmt"
	"image"

	"github.com/sirupsen/logrus"

	"iddoc-verify/internal/decision"
	"iddoc-verify/internal/evidence"
	"iddoc-verify/internal/imaging"
	"iddoc-verify/internal/learned"
	"iddoc-verify/internal/textextract"
	"iddoc-verify/internal/util"
	"iddoc-verify/internal/vision"
)

// Outcome is one completed classification with its processing cost and the
// structured values recovered from the document text.
type Outcome struct {
	Result       decision.Result
	TotalPoints  int
	Extracted    evidence.Extracted
	ProcessingMs int64
}

// Config bundles the per-stage settings.
type Config struct {
	Imaging    imaging.Config
	Vision     vision.Config
	Weights    evidence.Weights
	Thresholds decision.Thresholds
}

// DefaultConfig returns the standard pipeline settings.
func DefaultConfig() Config {
	return Config{
		Imaging:    imaging.DefaultConfig(),
		Vision:     vision.DefaultConfig(),
		Weights:    evidence.DefaultWeights(),
		Thresholds: decision.DefaultThresholds(),
	}
}

// Engine runs the full pipeline. The learned detector is optional; a nil or
// disabled detector leaves the rule-based path as the sole authority.
type Engine struct {
	cfg        Config
	normalizer *imaging.Normalizer
	text       *textextract.Engine
	extractor  *evidence.Extractor
	decider    *decision.Decider
	detector   learned.Detector
	threshold  float64
}

// New assembles an engine. text must be non-nil; detector may be nil.
func New(cfg Config, text *textextract.Engine, detector learned.Detector, learnedThreshold float64) (*Engine, error) {
	if text == nil {
		return nil, fmt.Errorf("text extraction engine is required")
	}
	if learnedThreshold <= 0 {
		learnedThreshold = 0.85
	}
	eng := &Engine{
		cfg:       cfg,
		text:      text,
		extractor: evidence.NewExtractor(cfg.Weights),
		decider:   decision.NewDecider(cfg.Thresholds),
		detector:  detector,
		threshold: learnedThreshold,
	}
	eng.normalizer = imaging.NewNormalizer(cfg.Imaging, eng.orientationProbe)
	return eng, nil
}

// Classify runs the pipeline over raw image bytes. The only error is a
// decode failure; every downstream degradation is absorbed into the result.
func (e *Engine) Classify(ctx context.Context, data []byte) (Outcome, error) {
	timer := util.StartTimer()

	normalized, err := e.normalizer.Normalize(ctx, data)
	if err != nil {
		return Outcome{}, fmt.Errorf("normalize image: %w", err)
	}

	visual := vision.Detect(normalized.Color, e.cfg.Vision)
	extraction := e.text.Run(ctx, normalized.Variants)
	findings := e.extractor.Extract(extraction, visual)

	if res, ok := e.learnedFastPath(ctx, normalized, findings); ok {
		logrus.WithFields(logrus.Fields{
			"label":         res.Label,
			"confidence":    res.Confidence,
			"processing_ms": timer.ElapsedMs(),
		}).Info("classification resolved by learned model")
		return Outcome{
			Result:       res,
			TotalPoints:  findings.Breakdown.TotalPoints,
			Extracted:    findings.Extracted,
			ProcessingMs: timer.ElapsedMs(),
		}, nil
	}

	res := e.decider.Decide(decision.Input{
		Breakdown:      findings.Breakdown,
		CountryPresent: findings.CountryPresent,
		FlagPresent:    findings.FlagPresent,
		LogoPresent:    findings.LogoPresent,
		MergedText:     extraction.Merged,
	})

	logrus.WithFields(logrus.Fields{
		"label":         res.Label,
		"confidence":    res.Confidence,
		"total_points":  findings.Breakdown.TotalPoints,
		"processing_ms": timer.ElapsedMs(),
	}).Info("classification complete")

	return Outcome{
		Result:       res,
		TotalPoints:  findings.Breakdown.TotalPoints,
		Extracted:    findings.Extracted,
		ProcessingMs: timer.ElapsedMs(),
	}, nil
}

// learnedFastPath consults the trained classifier. A positive prediction
// accepts only when no veto fired and the frame geometry or the textual
// support corroborates a real photographed document.
func (e *Engine) learnedFastPath(ctx context.Context, normalized imaging.Normalized, findings evidence.Findings) (decision.Result, bool) {
	if e.detector == nil || !e.detector.Enabled() {
		return decision.Result{}, false
	}
	if _, vetoed := findings.Breakdown.Veto(); vetoed {
		return decision.Result{}, false
	}

	pred, err := e.detector.Predict(ctx, normalized.Color)
	if err != nil {
		logrus.WithError(err).Debug("learned detector unavailable; using rule-based path")
		return decision.Result{}, false
	}
	if !pred.Positive(e.threshold) {
		return decision.Result{}, false
	}

	corroborated := normalized.Geometry.Plausible(e.cfg.Imaging) ||
		findings.Breakdown.TextSupport() >= e.cfg.Thresholds.TextSupportMin
	if !corroborated {
		logrus.WithField("score", pred.Score).Debug("learned prediction lacks corroboration; using rule-based path")
		return decision.Result{}, false
	}

	breakdown := findings.Breakdown
	breakdown.Add(evidence.Signal{
		Kind:   evidence.KindLearnedModel,
		Points: 0,
		Detail: fmt.Sprintf("model predicted %s at %.2f", pred.Label, pred.Score),
	})
	trace := append(breakdown.TraceLines(), "accepted: learned model prediction with corroborating evidence")
	return decision.Result{
		Label:      decision.Accepted,
		Confidence: pred.Score,
		Trace:      trace,
	}, true
}

// orientationProbe runs a single fast OCR pass for the orientation self-test.
func (e *Engine) orientationProbe(ctx context.Context, img image.Image) ([]string, error) {
	return e.text.Probe(ctx, img)
}
