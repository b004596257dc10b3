package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Recognizer runs a local Tesseract process via gosseract, configured for a
// single uniform block of text per submitted raster.
type Recognizer struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

// New constructs a Tesseract-backed recognizer. Languages default to English
// and French when none are supplied, matching the bilingual card face.
func New(languages ...string) *Recognizer {
	if len(languages) == 0 {
		languages = []string{"eng", "fra"}
	}
	return &Recognizer{languages: languages, clientFactory: gosseract.NewClient}
}

func (r *Recognizer) Name() string { return "tesseract" }

// Extract recognizes text in the raster and returns the raw lines.
func (r *Recognizer) Extract(ctx context.Context, img image.Image) ([]string, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode raster: %w", err)
	}

	c := r.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	if err := c.SetLanguage(r.languages...); err != nil {
		return nil, fmt.Errorf("set languages: %w", err)
	}
	// PSM 6: assume a single uniform block of text.
	if err := c.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return nil, fmt.Errorf("set page segmentation: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return nil, fmt.Errorf("recognize text: %w", err)
	}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines, nil
}
