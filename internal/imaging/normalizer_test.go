package imaging

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func TestNormalizeRejectsUndecodableBytes(t *testing.T) {
	n := NewNormalizer(DefaultConfig(), nil)

	_, err := n.Normalize(context.Background(), []byte("definitely not an image"))
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}

func TestNormalizeProducesVariants(t *testing.T) {
	n := NewNormalizer(DefaultConfig(), nil)
	data := encodePNG(t, solidImage(1200, 760, color.RGBA{R: 240, G: 240, B: 235, A: 255}))

	got, err := n.Normalize(context.Background(), data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Color == nil {
		t.Fatal("color raster must be present")
	}
	if len(got.Variants) < 2 {
		t.Fatalf("expected the primary and a second-chance variant, got %d", len(got.Variants))
	}
}

func TestNormalizeForcesLandscape(t *testing.T) {
	n := NewNormalizer(DefaultConfig(), nil)
	data := encodePNG(t, solidImage(600, 1100, color.RGBA{R: 240, G: 240, B: 235, A: 255}))

	got, err := n.Normalize(context.Background(), data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bounds := got.Color.Bounds()
	if bounds.Dy() > bounds.Dx() {
		t.Fatalf("expected landscape output, got %v", bounds)
	}
}

func TestNormalizeVariantSizeBand(t *testing.T) {
	n := NewNormalizer(DefaultConfig(), nil)

	for _, dims := range [][2]int{{500, 320}, {1400, 900}, {4000, 2600}} {
		data := encodePNG(t, solidImage(dims[0], dims[1], color.RGBA{R: 240, G: 240, B: 235, A: 255}))
		got, err := n.Normalize(context.Background(), data)
		if err != nil {
			t.Fatalf("unexpected error for %v: %v", dims, err)
		}
		for _, variant := range got.Variants {
			bounds := variant.Bounds()
			long := bounds.Dx()
			if bounds.Dy() > long {
				long = bounds.Dy()
			}
			if long < 1000 || long > 2000 {
				t.Fatalf("variant long edge %d outside [1000,2000] for input %v", long, dims)
			}
		}
	}
}

func TestNormalizeUsesOrientationProbe(t *testing.T) {
	calls := 0
	probe := func(ctx context.Context, img image.Image) ([]string, error) {
		calls++
		return []string{"government of canada"}, nil
	}
	n := NewNormalizer(DefaultConfig(), probe)
	data := encodePNG(t, solidImage(1200, 760, color.RGBA{R: 240, G: 240, B: 235, A: 255}))

	if _, err := n.Normalize(context.Background(), data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls == 0 {
		t.Fatal("orientation probe should have been consulted")
	}
}

func TestNormalizeProbeFailureIsNonFatal(t *testing.T) {
	probe := func(ctx context.Context, img image.Image) ([]string, error) {
		return nil, errors.New("ocr backend down")
	}
	n := NewNormalizer(DefaultConfig(), probe)
	data := encodePNG(t, solidImage(1200, 760, color.RGBA{R: 240, G: 240, B: 235, A: 255}))

	if _, err := n.Normalize(context.Background(), data); err != nil {
		t.Fatalf("probe failure must not fail normalization: %v", err)
	}
}

func TestGeometryPlausible(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name     string
		geom     Geometry
		expected bool
	}{
		{"quad with card shape", Geometry{QuadFound: true, AreaRatio: 0.4, Aspect: 1.6}, true},
		{"no quad", Geometry{AreaRatio: 0.4, Aspect: 1.6}, false},
		{"too small", Geometry{QuadFound: true, AreaRatio: 0.01, Aspect: 1.6}, false},
		{"extreme aspect", Geometry{QuadFound: true, AreaRatio: 0.4, Aspect: 4.0}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.geom.Plausible(cfg); got != tc.expected {
				t.Fatalf("expected %v got %v", tc.expected, got)
			}
		})
	}
}
