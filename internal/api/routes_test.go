package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"iddoc-verify/internal/engine"
	"iddoc-verify/internal/textextract"
)

type cannedRecognizer struct{ lines []string }

func (c *cannedRecognizer) Name() string { return "canned" }

func (c *cannedRecognizer) Extract(_ context.Context, _ image.Image) ([]string, error) {
	return c.lines, nil
}

func testServer(t *testing.T, lines []string) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	eng, err := engine.New(engine.DefaultConfig(),
		textextract.NewEngine(&cannedRecognizer{lines: lines}, time.Second), nil, 0)
	if err != nil {
		t.Fatalf("assemble engine: %v", err)
	}
	server, err := NewServer(Config{
		DBPath:     filepath.Join(t.TempDir(), "api-test.db"),
		SilentDB:   true,
		OCRBackend: "canned",
	}, eng)
	if err != nil {
		t.Fatalf("create server: %v", err)
	}
	t.Cleanup(func() { server.Close() })
	return server
}

func testRouter(t *testing.T, lines []string) *gin.Engine {
	t.Helper()
	router, err := testServer(t, lines).Router()
	if err != nil {
		t.Fatalf("configure router: %v", err)
	}
	return router
}

func cardPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 1200, 760))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{R: 242, G: 242, B: 238, A: 255}), image.Point{}, draw.Src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

var acceptedLines = []string{
	"Government of Canada",
	"Permanent Resident Card",
	"Canada",
	"Sex F Expiry 2030 1234-5678",
}

func multipartBody(t *testing.T, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", "card.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &body, writer.FormDataContentType()
}

func TestHealthz(t *testing.T) {
	router := testRouter(t, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
}

func TestClassifyMultipart(t *testing.T) {
	router := testRouter(t, acceptedLines)

	body, contentType := multipartBody(t, cardPNG(t))
	req := httptest.NewRequest(http.MethodPost, "/api/classify", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", w.Code, w.Body.String())
	}

	var dto ClassificationDTO
	if err := json.Unmarshal(w.Body.Bytes(), &dto); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if dto.Label != "accepted" {
		t.Fatalf("expected accepted got %s (%v)", dto.Label, dto.Trace)
	}
	if dto.ID == "" || len(dto.Trace) == 0 {
		t.Fatalf("response missing id or trace: %+v", dto)
	}
}

func TestClassifyJSONBase64(t *testing.T) {
	router := testRouter(t, acceptedLines)

	payload, _ := json.Marshal(ClassifyRequest{
		ImageBase64: base64.StdEncoding.EncodeToString(cardPNG(t)),
	})
	req := httptest.NewRequest(http.MethodPost, "/api/classify", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", w.Code, w.Body.String())
	}
}

func TestClassifyRejectsGarbageImage(t *testing.T) {
	router := testRouter(t, nil)

	body, contentType := multipartBody(t, []byte("not an image"))
	req := httptest.NewRequest(http.MethodPost, "/api/classify", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d: %s", w.Code, w.Body.String())
	}
}

func TestClassifyMissingPayload(t *testing.T) {
	router := testRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/classify", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", w.Code)
	}
}

func TestListClassificationsAfterClassify(t *testing.T) {
	router := testRouter(t, acceptedLines)

	body, contentType := multipartBody(t, cardPNG(t))
	req := httptest.NewRequest(http.MethodPost, "/api/classify", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("classify failed: %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/classifications?label=accepted", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}

	var resp struct {
		Items []ClassificationDTO `json:"items"`
		Count int                 `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count != 1 || len(resp.Items) != 1 {
		t.Fatalf("expected one stored classification, got %+v", resp)
	}
}

func TestListClassificationsBadLimit(t *testing.T) {
	router := testRouter(t, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/classifications?limit=9999", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", w.Code)
	}
}

func TestConfigEndpoint(t *testing.T) {
	router := testRouter(t, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/config", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["ocr_backend"] != "canned" {
		t.Fatalf("unexpected config payload %v", resp)
	}
}
