package remote

import (
	"context"
	"errors"
	"image"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func testRaster() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 40, 30))
}

func TestNewRequiresURL(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestExtractSingleObjectResponse(t *testing.T) {
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Api-Key")
		if _, _, err := r.FormFile("image"); err != nil {
			t.Errorf("missing image part: %v", err)
		}
		w.Write([]byte(`{"text": "Government of Canada\nPermanent Resident Card\n\n"}`))
	}))
	defer server.Close()

	rec, err := New(Config{URL: server.URL, APIKey: "secret"})
	if err != nil {
		t.Fatalf("new recognizer: %v", err)
	}

	lines, err := rec.Extract(context.Background(), testRaster())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	expected := []string{"Government of Canada", "Permanent Resident Card"}
	if !reflect.DeepEqual(lines, expected) {
		t.Fatalf("expected %v got %v", expected, lines)
	}
	if gotKey != "secret" {
		t.Fatalf("expected api key header, got %q", gotKey)
	}
}

func TestExtractBlockListResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"text": "Canada"}, {"text": "Sex F\nExpiry 2030"}]`))
	}))
	defer server.Close()

	rec, err := New(Config{URL: server.URL})
	if err != nil {
		t.Fatalf("new recognizer: %v", err)
	}

	lines, err := rec.Extract(context.Background(), testRaster())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	expected := []string{"Canada", "Sex F", "Expiry 2030"}
	if !reflect.DeepEqual(lines, expected) {
		t.Fatalf("expected %v got %v", expected, lines)
	}
}

func TestExtractErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "bad key"}`, http.StatusForbidden)
	}))
	defer server.Close()

	rec, err := New(Config{URL: server.URL})
	if err != nil {
		t.Fatalf("new recognizer: %v", err)
	}
	if _, err := rec.Extract(context.Background(), testRaster()); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestExtractUnrecognizedShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`42`))
	}))
	defer server.Close()

	rec, err := New(Config{URL: server.URL})
	if err != nil {
		t.Fatalf("new recognizer: %v", err)
	}
	if _, err := rec.Extract(context.Background(), testRaster()); err == nil {
		t.Fatal("expected error for unknown response shape")
	}
}
