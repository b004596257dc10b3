package textextract

import (
	"context"
	"image"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const defaultCallTimeout = 20 * time.Second

// Engine fans recognizer calls out over raster variants and zone crops, then
// merges the results into one Extraction. A failure or timeout on one
// variant/zone contributes nothing and never cancels sibling calls.
type Engine struct {
	rec         Recognizer
	callTimeout time.Duration
	parallelism int
}

// NewEngine constructs an extraction engine around the provided recognizer.
// A non-positive timeout falls back to the default per-call bound.
func NewEngine(rec Recognizer, callTimeout time.Duration) *Engine {
	if callTimeout <= 0 {
		callTimeout = defaultCallTimeout
	}
	return &Engine{rec: rec, callTimeout: callTimeout, parallelism: 4}
}

type sourceResult struct {
	order int
	zone  Zone
	lines []string
}

// Run invokes the recognizer for every variant at full size and for the four
// fixed zone crops, normalizes and merges all returned lines, and reports the
// per-zone text used by zone-scoped evidence rules.
func (e *Engine) Run(ctx context.Context, variants []image.Image) Extraction {
	if e == nil || e.rec == nil || len(variants) == 0 {
		return Extraction{ZoneText: map[Zone]string{}}
	}

	zones := append([]Zone{ZoneFull}, Zones...)
	var (
		mu      sync.Mutex
		results []sourceResult
	)

	g := &errgroup.Group{}
	g.SetLimit(e.parallelism)
	order := 0
	for vi, variant := range variants {
		for _, zone := range zones {
			vi, zone, variant, ord := vi, zone, variant, order
			order++
			g.Go(func() error {
				lines, err := e.extractOne(ctx, variant, zone)
				if err != nil {
					logrus.WithError(err).WithFields(logrus.Fields{
						"backend": e.rec.Name(),
						"variant": vi,
						"zone":    zone,
					}).Debug("ocr source failed; contributing nothing")
					return nil
				}
				if len(lines) == 0 {
					return nil
				}
				mu.Lock()
				results = append(results, sourceResult{order: ord, zone: zone, lines: lines})
				mu.Unlock()
				return nil
			})
		}
	}
	_ = g.Wait()

	return e.merge(results)
}

// Probe runs one recognizer call on the raster as-is, bypassing variants and
// zones. It backs the orientation self-test.
func (e *Engine) Probe(ctx context.Context, img image.Image) ([]string, error) {
	if e == nil || e.rec == nil {
		return nil, nil
	}
	return e.extractOne(ctx, img, ZoneFull)
}

func (e *Engine) extractOne(ctx context.Context, variant image.Image, zone Zone) ([]string, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()
	raw, err := e.rec.Extract(callCtx, CropZone(variant, zone))
	if err != nil {
		return nil, err
	}
	var lines []string
	for _, line := range raw {
		if normalized := NormalizeLine(line); normalized != "" {
			lines = append(lines, normalized)
		}
	}
	return lines, nil
}

func (e *Engine) merge(results []sourceResult) Extraction {
	// Stable source ordering keeps byte-identical inputs producing
	// byte-identical extractions regardless of goroutine scheduling.
	sortSources(results)

	zoneParts := make(map[Zone][]string)
	var all []string
	for _, res := range results {
		all = append(all, res.lines...)
		if res.zone != ZoneFull {
			zoneParts[res.zone] = append(zoneParts[res.zone], res.lines...)
		}
	}

	zoneText := make(map[Zone]string, len(zoneParts))
	for zone, parts := range zoneParts {
		zoneText[zone] = strings.Join(parts, " ")
	}

	lines := MergeLines(all)
	return Extraction{
		Lines:    lines,
		ZoneText: zoneText,
		Merged:   strings.Join(lines, "\n"),
		Sources:  len(results),
	}
}

func sortSources(results []sourceResult) {
	for i := 1; i < len(results); i++ {
		for j := i; j > 0 && results[j].order < results[j-1].order; j-- {
			results[j], results[j-1] = results[j-1], results[j]
		}
	}
}
