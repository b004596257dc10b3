package textextract

import (
	"context"
	"image"
	"strings"
)

// Zone identifies a fixed sub-rectangle of the document where a specific
// printed feature is expected.
type Zone string

const (
	ZoneFull        Zone = "full"
	ZoneTopLeft     Zone = "top-left"
	ZoneTopRight    Zone = "top-right"
	ZoneBottomRight Zone = "bottom-right"
	ZoneMiddleBand  Zone = "middle-band"
)

// Zones lists the four crop zones submitted to the recognizer in addition to
// the full raster.
var Zones = []Zone{ZoneTopLeft, ZoneTopRight, ZoneBottomRight, ZoneMiddleBand}

// Recognizer is the pluggable text-recognition backend contract. Implementations
// are expected to be safe for concurrent use.
type Recognizer interface {
	Name() string
	Extract(ctx context.Context, img image.Image) ([]string, error)
}

// Extraction is the merged output of all recognizer calls for one
// classification. ZoneText holds the normalized concatenated text seen inside
// each zone across every raster variant; Lines is the deduplicated,
// priority-ordered merged line list; Merged is the full normalized text.
type Extraction struct {
	Lines    []string
	ZoneText map[Zone]string
	Merged   string
	Sources  int
}

// Empty reports whether no recognizer call produced any text.
func (e Extraction) Empty() bool {
	return strings.TrimSpace(e.Merged) == "" && len(e.Lines) == 0
}

// Zone returns the normalized text collected for the given zone.
func (e Extraction) Zone(z Zone) string {
	if e.ZoneText == nil {
		return ""
	}
	return e.ZoneText[z]
}
