// Package imaging decodes, orients, geometry-corrects, and prepares OCR-ready
// raster variants. Decode failure is the only fatal error; every later step
// degrades to a weaker strategy instead of failing the pipeline.
package imaging

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
)

// ErrDecode marks bytes that cannot be decoded as a raster.
var ErrDecode = errors.New("image bytes cannot be decoded")

// TextProbe recognizes text in a raster band. The normalizer uses it for the
// orientation self-test only; a nil probe skips the test.
type TextProbe func(ctx context.Context, img image.Image) ([]string, error)

// Config carries the geometry and sizing knobs.
type Config struct {
	MinLongEdge  int           `json:"min_long_edge"`
	MaxLongEdge  int           `json:"max_long_edge"`
	MinAreaRatio float64       `json:"min_area_ratio"`
	MinAspect    float64       `json:"min_aspect"`
	MaxAspect    float64       `json:"max_aspect"`
	ProbeTimeout time.Duration `json:"-"`
}

// DefaultConfig returns the standard normalizer settings.
func DefaultConfig() Config {
	return Config{
		MinLongEdge:  1000,
		MaxLongEdge:  2000,
		MinAreaRatio: 0.05,
		MinAspect:    0.5,
		MaxAspect:    2.5,
		ProbeTimeout: 10 * time.Second,
	}
}

// Geometry reports what boundary detection found, used later by the
// learned-model plausibility gate.
type Geometry struct {
	QuadFound bool
	AreaRatio float64
	Aspect    float64
}

// Plausible reports whether the detected boundary looks like a photographed
// document: a quadrilateral of reasonable area and aspect.
func (g Geometry) Plausible(cfg Config) bool {
	if !g.QuadFound {
		return false
	}
	return g.AreaRatio >= cfg.MinAreaRatio && g.Aspect >= cfg.MinAspect && g.Aspect <= cfg.MaxAspect
}

// Normalized is the normalizer output. Color is the geometry-corrected color
// raster consumed by the visual detectors and the learned model; Variants are
// the desaturated OCR-ready rasters. At least one variant is always present.
type Normalized struct {
	Color    image.Image
	Variants []image.Image
	Geometry Geometry
}

// Normalizer owns the full image preparation sequence.
type Normalizer struct {
	cfg   Config
	probe TextProbe
}

// NewNormalizer constructs a normalizer. probe may be nil.
func NewNormalizer(cfg Config, probe TextProbe) *Normalizer {
	if cfg.MinLongEdge <= 0 {
		cfg = DefaultConfig()
	}
	return &Normalizer{cfg: cfg, probe: probe}
}

// orientationKeywords is the small expected-word set checked in the top band
// during the orientation self-test.
var orientationKeywords = []string{"government", "gouvernement", "permanent", "resident", "canada", "carte"}

// Normalize runs decode, orientation, geometry correction, and variant
// production. Only decode can fail.
func (n *Normalizer) Normalize(ctx context.Context, data []byte) (Normalized, error) {
	decoded, err := decodeOriented(data)
	if err != nil {
		return Normalized{}, err
	}

	oriented := forceLandscape(decoded)
	oriented = n.selfTestOrientation(ctx, oriented)

	corrected, geom := n.correctGeometry(oriented)

	out := Normalized{Color: corrected, Geometry: geom}
	out.Variants = append(out.Variants, n.prepareVariant(corrected))
	if corrected != oriented {
		out.Variants = append(out.Variants, n.prepareVariant(oriented))
	} else {
		// No boundary was found, so the corrected raster is the full frame.
		// The 180-degree variant gives the recognizer a second chance on
		// frames the orientation self-test could not resolve.
		out.Variants = append(out.Variants, n.prepareVariant(imaging.Rotate180(oriented)))
	}
	return out, nil
}

// decodeOriented decodes the bytes and applies EXIF orientation metadata.
func decodeOriented(data []byte) (image.Image, error) {
	img, format, err := image.Decode(newByteReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if format == "jpeg" {
		img = applyExifOrientation(data, img)
	}
	return img, nil
}

// forceLandscape rotates portrait rasters 90 degrees.
func forceLandscape(img image.Image) image.Image {
	bounds := img.Bounds()
	if bounds.Dy() > bounds.Dx() {
		return imaging.Rotate90(img)
	}
	return img
}

// selfTestOrientation OCRs the top ~20% band for expected keywords; when none
// are found it tests the 180-degree rotation the same way and keeps whichever
// variant scores more. Ties keep the original.
func (n *Normalizer) selfTestOrientation(ctx context.Context, img image.Image) image.Image {
	if n.probe == nil {
		return img
	}

	score := n.probeTopBand(ctx, img)
	if score > 0 {
		return img
	}
	flipped := imaging.Rotate180(img)
	if n.probeTopBand(ctx, flipped) > score {
		logrus.Debug("orientation self-test preferred 180-degree rotation")
		return flipped
	}
	return img
}

func (n *Normalizer) probeTopBand(ctx context.Context, img image.Image) int {
	bounds := img.Bounds()
	band := imaging.Crop(img, image.Rect(bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Min.Y+bounds.Dy()*20/100))

	probeCtx, cancel := context.WithTimeout(ctx, n.cfg.ProbeTimeout)
	defer cancel()
	lines, err := n.probe(probeCtx, band)
	if err != nil {
		logrus.WithError(err).Debug("orientation probe failed; keeping current orientation")
		return 0
	}
	text := strings.ToLower(strings.Join(lines, " "))
	score := 0
	for _, word := range orientationKeywords {
		if strings.Contains(text, word) {
			score++
		}
	}
	return score
}

// correctGeometry detects the document boundary and perspective-corrects or
// crops accordingly. Failure of every strategy keeps the full frame.
func (n *Normalizer) correctGeometry(img image.Image) (image.Image, Geometry) {
	cand, ok := detectBoundary(img, n.cfg)
	if !ok {
		return img, Geometry{}
	}

	frameArea := float64(img.Bounds().Dx() * img.Bounds().Dy())
	geom := Geometry{
		AreaRatio: cand.area / frameArea,
		Aspect:    cand.aspect(),
	}

	if cand.isQuad {
		warped, err := warpQuad(img, cand.quad)
		if err == nil {
			geom.QuadFound = true
			return forceLandscape(warped), geom
		}
		logrus.WithError(err).Debug("perspective warp failed; falling back to crop")
	}

	return forceLandscape(imaging.Crop(img, cand.rect)), geom
}
