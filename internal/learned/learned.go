// Package learned wraps the optional trained classifier service. The engine
// treats it as advisory: a positive prediction can fast-path acceptance only
// when the rule-based evidence does not contradict it, and any failure here
// degrades silently to the rule-based outcome.
package learned

import (
	"context"
	"errors"
	"image"
)

// Detector exposes model-backed predictions for document rasters.
type Detector interface {
	Enabled() bool
	Predict(ctx context.Context, img image.Image) (Prediction, error)
}

// Prediction is one model verdict. Score is the model's probability for the
// predicted label.
type Prediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// PositiveLabel is the label the model emits for a genuine document.
const PositiveLabel = "pr_document"

// Positive reports whether the prediction supports acceptance at the given
// threshold.
func (p Prediction) Positive(threshold float64) bool {
	return p.Label == PositiveLabel && p.Score >= threshold
}

var ErrDisabled = errors.New("learned detector disabled")
