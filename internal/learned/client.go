package learned

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Config holds the remote classifier parameters.
type Config struct {
	Endpoint  string
	APIKey    string
	Threshold float64
	Timeout   time.Duration
}

// Client implements Detector against the hosted classifier service.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	threshold  float64
}

// NewClient constructs a Client if the supplied configuration is valid.
func NewClient(cfg Config) (*Client, error) {
	cfg.Endpoint = strings.TrimSpace(cfg.Endpoint)
	if cfg.Endpoint == "" {
		return nil, ErrDisabled
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = 0.85
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		endpoint:   cfg.Endpoint,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		threshold:  cfg.Threshold,
	}, nil
}

func (c *Client) Enabled() bool {
	return c != nil && c.endpoint != ""
}

// Threshold returns the configured acceptance threshold.
func (c *Client) Threshold() float64 {
	if c == nil {
		return 0
	}
	return c.threshold
}

// Predict posts the raster to the classifier service and decodes its verdict.
func (c *Client) Predict(ctx context.Context, img image.Image) (Prediction, error) {
	if !c.Enabled() {
		return Prediction{}, ErrDisabled
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", "doc.jpg")
	if err != nil {
		return Prediction{}, fmt.Errorf("build classifier request: %w", err)
	}
	if err := jpeg.Encode(part, img, &jpeg.Options{Quality: 92}); err != nil {
		return Prediction{}, fmt.Errorf("encode classifier payload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return Prediction{}, fmt.Errorf("finalize classifier request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return Prediction{}, fmt.Errorf("build classifier request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Prediction{}, fmt.Errorf("call classifier service: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Prediction{}, fmt.Errorf("read classifier response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Prediction{}, fmt.Errorf("classifier service returned status %d", resp.StatusCode)
	}

	var pred Prediction
	if err := json.Unmarshal(payload, &pred); err != nil {
		return Prediction{}, fmt.Errorf("decode classifier response: %w", err)
	}
	if pred.Label == "" {
		return Prediction{}, fmt.Errorf("classifier response missing label")
	}
	return pred, nil
}
