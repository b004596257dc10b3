package textextract

import (
	"context"
	"errors"
	"image"
	"reflect"
	"sync/atomic"
	"testing"
	"time"
)

// fakeRecognizer returns canned lines keyed by the crop bounds it receives.
type fakeRecognizer struct {
	byBounds map[image.Rectangle][]string
	err      error
	calls    atomic.Int32
}

func (f *fakeRecognizer) Name() string { return "fake" }

func (f *fakeRecognizer) Extract(_ context.Context, img image.Image) ([]string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.byBounds[img.Bounds()], nil
}

func testVariant() *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, 1000, 600))
}

func TestEngineRunCollectsZoneText(t *testing.T) {
	rec := &fakeRecognizer{byBounds: map[image.Rectangle][]string{
		image.Rect(0, 0, 1000, 600):    {"Permanent Resident Card", "Canada"},
		image.Rect(0, 0, 450, 180):     {"Government of Canada"},
		image.Rect(350, 0, 1000, 210):  {"Permanent Resident Card"},
		image.Rect(550, 360, 1000, 600): {"Canada"},
		image.Rect(0, 180, 1000, 450):  {"Sex F", "Expiry 2030"},
	}}

	got := NewEngine(rec, time.Second).Run(context.Background(), []image.Image{testVariant()})

	if got.Empty() {
		t.Fatal("extraction should not be empty")
	}
	if rec.calls.Load() != 5 {
		t.Fatalf("expected 5 recognizer calls got %d", rec.calls.Load())
	}
	if got.Zone(ZoneTopLeft) != "government of canada" {
		t.Fatalf("unexpected top-left text %q", got.Zone(ZoneTopLeft))
	}
	if got.Zone(ZoneTopRight) != "permanent resident card" {
		t.Fatalf("unexpected top-right text %q", got.Zone(ZoneTopRight))
	}
	if got.Zone(ZoneBottomRight) != "canada" {
		t.Fatalf("unexpected bottom-right text %q", got.Zone(ZoneBottomRight))
	}
	if got.Zone(ZoneMiddleBand) != "sex f expiry 2030" {
		t.Fatalf("unexpected middle-band text %q", got.Zone(ZoneMiddleBand))
	}
	if got.Sources != 5 {
		t.Fatalf("expected 5 contributing sources got %d", got.Sources)
	}
}

func TestEngineRunIsDeterministic(t *testing.T) {
	rec := &fakeRecognizer{byBounds: map[image.Rectangle][]string{
		image.Rect(0, 0, 1000, 600):    {"permanent resident card", "canada", "1234-5678"},
		image.Rect(0, 0, 450, 180):     {"government of canada"},
		image.Rect(0, 180, 1000, 450):  {"sex f"},
		image.Rect(550, 360, 1000, 600): {"canada"},
	}}
	eng := NewEngine(rec, time.Second)

	first := eng.Run(context.Background(), []image.Image{testVariant()})
	for i := 0; i < 20; i++ {
		again := eng.Run(context.Background(), []image.Image{testVariant()})
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d diverged:\n%v\nvs\n%v", i, first, again)
		}
	}
}

func TestEngineRunAbsorbsBackendFailure(t *testing.T) {
	rec := &fakeRecognizer{err: errors.New("backend down")}

	got := NewEngine(rec, time.Second).Run(context.Background(), []image.Image{testVariant()})
	if !got.Empty() {
		t.Fatalf("expected empty extraction, got %v", got)
	}
	if got.ZoneText == nil {
		t.Fatal("zone map should be non-nil even when empty")
	}
}

func TestEngineRunNoVariants(t *testing.T) {
	rec := &fakeRecognizer{}
	got := NewEngine(rec, time.Second).Run(context.Background(), nil)
	if !got.Empty() || rec.calls.Load() != 0 {
		t.Fatalf("no variants should mean no calls, got %v calls=%d", got, rec.calls.Load())
	}
}

func TestEngineProbe(t *testing.T) {
	rec := &fakeRecognizer{byBounds: map[image.Rectangle][]string{
		image.Rect(0, 0, 1000, 600): {"  Government   of Canada "},
	}}

	lines, err := NewEngine(rec, time.Second).Probe(context.Background(), testVariant())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 1 || lines[0] != "government of canada" {
		t.Fatalf("unexpected lines %v", lines)
	}
}
