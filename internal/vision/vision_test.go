package vision

import (
	"image"
	"image/color"
	"image/draw"
	"testing"
)

var (
	cardWhite = color.RGBA{R: 245, G: 245, B: 240, A: 255}
	flagRed   = color.RGBA{R: 220, G: 20, B: 30, A: 255}
	leafGreen = color.RGBA{R: 30, G: 180, B: 60, A: 255}
)

// cardCanvas builds a white 1000x600 raster.
func cardCanvas() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 1000, 600))
	draw.Draw(img, img.Bounds(), image.NewUniform(cardWhite), image.Point{}, draw.Src)
	return img
}

func fill(img *image.RGBA, rect image.Rectangle, c color.RGBA) {
	draw.Draw(img, rect, image.NewUniform(c), image.Point{}, draw.Src)
}

func TestDetectFlag(t *testing.T) {
	img := cardCanvas()
	// A saturated red patch well above the 4% cutoff inside the flag region.
	fill(img, image.Rect(20, 20, 200, 120), flagRed)

	got := Detect(img, DefaultConfig())
	if !got.FlagPresent {
		t.Fatalf("expected flag detection, red ratio %.3f", got.FlagRedRatio)
	}
	if got.LogoPresent {
		t.Fatalf("logo should not fire on a flag-only raster, red %.3f green %.3f",
			got.LogoRedRatio, got.LogoGreenRatio)
	}
}

func TestDetectLogoNeedsBothBands(t *testing.T) {
	cfg := DefaultConfig()

	redOnly := cardCanvas()
	fill(redOnly, image.Rect(700, 400, 950, 550), flagRed)
	if got := Detect(redOnly, cfg); got.LogoPresent {
		t.Fatalf("red-only region must not count as the logo pair, got %+v", got)
	}

	both := cardCanvas()
	fill(both, image.Rect(700, 400, 820, 550), flagRed)
	fill(both, image.Rect(830, 400, 950, 550), leafGreen)
	got := Detect(both, cfg)
	if !got.LogoPresent {
		t.Fatalf("expected logo pair, red %.3f green %.3f", got.LogoRedRatio, got.LogoGreenRatio)
	}
}

func TestDetectIgnoresWashedOutColor(t *testing.T) {
	img := cardCanvas()
	// Low-saturation pinkish wash across the flag region stays below the
	// saturation floor.
	fill(img, image.Rect(0, 0, 400, 150), color.RGBA{R: 230, G: 200, B: 200, A: 255})

	got := Detect(img, DefaultConfig())
	if got.FlagPresent {
		t.Fatalf("washed-out color must not trigger the flag, ratio %.3f", got.FlagRedRatio)
	}
}

func TestDetectColorOutsideRegionsIgnored(t *testing.T) {
	img := cardCanvas()
	// Red in the bottom-left, outside both measured regions.
	fill(img, image.Rect(0, 450, 300, 600), flagRed)

	got := Detect(img, DefaultConfig())
	if got.FlagPresent || got.LogoPresent {
		t.Fatalf("color outside the measured regions must not fire, got %+v", got)
	}
}

func TestDetectEmptyImage(t *testing.T) {
	got := Detect(image.NewRGBA(image.Rect(0, 0, 0, 0)), DefaultConfig())
	if got.FlagPresent || got.LogoPresent {
		t.Fatalf("empty raster should produce no findings, got %+v", got)
	}
}
