package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Config holds remote OCR backend parameters.
type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// Recognizer calls an HTTP OCR service that accepts a multipart image upload
// and returns recognized text as JSON.
type Recognizer struct {
	httpClient *http.Client
	url        string
	apiKey     string
}

var ErrNotConfigured = errors.New("remote ocr url not configured")

// New constructs a remote recognizer from the supplied configuration.
func New(cfg Config) (*Recognizer, error) {
	cfg.URL = strings.TrimSpace(cfg.URL)
	if cfg.URL == "" {
		return nil, ErrNotConfigured
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Recognizer{
		httpClient: &http.Client{Timeout: timeout},
		url:        cfg.URL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
	}, nil
}

func (r *Recognizer) Name() string { return "remote" }

// Extract uploads the raster as JPEG and parses the service response. The
// service may answer either {"text": "..."} or a list of {"text": "..."}
// blocks; both shapes are handled.
func (r *Recognizer) Extract(ctx context.Context, img image.Image) ([]string, error) {
	if r == nil {
		return nil, ErrNotConfigured
	}

	var payload bytes.Buffer
	writer := multipart.NewWriter(&payload)
	part, err := writer.CreateFormFile("image", "doc.jpg")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if err := jpeg.Encode(part, img, &jpeg.Options{Quality: 92}); err != nil {
		return nil, fmt.Errorf("encode raster: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, &payload)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if r.apiKey != "" {
		req.Header.Set("X-Api-Key", r.apiKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ocr request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return nil, fmt.Errorf("ocr status %d: %v", resp.StatusCode, apiErr)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return parseResponse(raw)
}

type textBlock struct {
	Text string `json:"text"`
}

func parseResponse(raw json.RawMessage) ([]string, error) {
	var single struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &single); err == nil && single.Text != "" {
		return splitLines(single.Text), nil
	}

	var blocks []textBlock
	if err := json.Unmarshal(raw, &blocks); err == nil {
		var lines []string
		for _, block := range blocks {
			lines = append(lines, splitLines(block.Text)...)
		}
		return lines, nil
	}

	return nil, errors.New("unrecognized ocr response shape")
}

func splitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}
