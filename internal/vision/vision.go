// Package vision holds the zone-restricted color-signature detectors. Both
// detectors are stateless, pure functions over a color raster; they never see
// the desaturated OCR variants.
package vision

import (
	"fmt"
	"image"

	"github.com/lucasb-eyer/go-colorful"
)

// Config carries the empirically tuned color-ratio cutoffs. They were
// calibrated against a small sample set; treat them as recalibratable rather
// than proven constants.
type Config struct {
	FlagMinRedRatio   float64 `json:"flag_min_red_ratio"`
	LogoMinRedRatio   float64 `json:"logo_min_red_ratio"`
	LogoMinGreenRatio float64 `json:"logo_min_green_ratio"`
	MinSaturation     float64 `json:"min_saturation"`
	MinValue          float64 `json:"min_value"`
}

// DefaultConfig returns the tuned detector cutoffs.
func DefaultConfig() Config {
	return Config{
		FlagMinRedRatio:   0.04,
		LogoMinRedRatio:   0.02,
		LogoMinGreenRatio: 0.02,
		MinSaturation:     0.35,
		MinValue:          0.30,
	}
}

// Findings reports both detector outcomes with the measured pixel ratios.
type Findings struct {
	FlagPresent    bool
	FlagRedRatio   float64
	LogoPresent    bool
	LogoRedRatio   float64
	LogoGreenRatio float64
}

// FlagDetail renders the flag measurement for the evidence trace.
func (f Findings) FlagDetail() string {
	return fmt.Sprintf("red ratio %.3f in top-left flag region", f.FlagRedRatio)
}

// LogoDetail renders the logo-pair measurement for the evidence trace.
func (f Findings) LogoDetail() string {
	return fmt.Sprintf("red ratio %.3f, green ratio %.3f in bottom-right logo region", f.LogoRedRatio, f.LogoGreenRatio)
}

// Detect runs both detectors over the color raster.
func Detect(img image.Image, cfg Config) Findings {
	var out Findings

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return out
	}

	// Flag region: top-left ~40% width x 25% height.
	flagRect := image.Rect(bounds.Min.X, bounds.Min.Y, bounds.Min.X+w*40/100, bounds.Min.Y+h*25/100)
	red, _ := bandRatios(img, flagRect, cfg)
	out.FlagRedRatio = red
	out.FlagPresent = red >= cfg.FlagMinRedRatio

	// Logo region: bottom-right ~40% width x 40% height. Requiring both the
	// red and the green band distinguishes the dual-color security mark from
	// incidental single-color backgrounds.
	logoRect := image.Rect(bounds.Max.X-w*40/100, bounds.Max.Y-h*40/100, bounds.Max.X, bounds.Max.Y)
	logoRed, logoGreen := bandRatios(img, logoRect, cfg)
	out.LogoRedRatio = logoRed
	out.LogoGreenRatio = logoGreen
	out.LogoPresent = logoRed >= cfg.LogoMinRedRatio && logoGreen >= cfg.LogoMinGreenRatio

	return out
}

// bandRatios counts the fraction of pixels inside rect falling in the red
// wrap-around hue bands and the green band, subject to the saturation and
// value floors.
func bandRatios(img image.Image, rect image.Rectangle, cfg Config) (redRatio, greenRatio float64) {
	rect = rect.Intersect(img.Bounds())
	if rect.Empty() {
		return 0, 0
	}

	var total, red, green int
	// Stride 2 keeps the scan cheap on large rasters without moving the
	// measured ratios.
	for y := rect.Min.Y; y < rect.Max.Y; y += 2 {
		for x := rect.Min.X; x < rect.Max.X; x += 2 {
			c, ok := colorful.MakeColor(img.At(x, y))
			if !ok {
				continue
			}
			total++
			hue, sat, val := c.Hsv()
			if sat < cfg.MinSaturation || val < cfg.MinValue {
				continue
			}
			if hue <= 15 || hue >= 345 {
				red++
			} else if hue >= 90 && hue <= 150 {
				green++
			}
		}
	}
	if total == 0 {
		return 0, 0
	}
	return float64(red) / float64(total), float64(green) / float64(total)
}
