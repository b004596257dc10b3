package main

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"iddoc-verify/internal/api"
	"iddoc-verify/internal/engine"
	"iddoc-verify/internal/evidence"
	"iddoc-verify/internal/learned"
	"iddoc-verify/internal/textextract"
	"iddoc-verify/internal/textextract/remote"
	"iddoc-verify/internal/textextract/tesseract"
)

func main() {
	baseDir, err := os.Getwd()
	if err != nil {
		logrus.Fatalf("determine working directory: %v", err)
	}

	dataDir := filepath.Join(baseDir, "data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		logrus.Fatalf("create data directory: %v", err)
	}

	engCfg := engine.DefaultConfig()
	if weightsPath := strings.TrimSpace(os.Getenv("WEIGHTS_PATH")); weightsPath != "" {
		weights, err := evidence.LoadWeights(weightsPath)
		if err != nil {
			logrus.Fatalf("load weights: %v", err)
		}
		engCfg.Weights = weights
		logrus.WithField("path", weightsPath).Info("loaded weight overrides")
	}

	ocrTimeout := 20 * time.Second
	if raw := strings.TrimSpace(os.Getenv("OCR_TIMEOUT")); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			ocrTimeout = d
		}
	}

	recognizer, backend, err := buildRecognizer(ocrTimeout)
	if err != nil {
		logrus.Fatalf("configure ocr backend: %v", err)
	}
	textEngine := textextract.NewEngine(recognizer, ocrTimeout)

	detector, threshold := buildDetector()

	eng, err := engine.New(engCfg, textEngine, detector, threshold)
	if err != nil {
		logrus.Fatalf("assemble engine: %v", err)
	}

	cfg := api.Config{
		DBPath:         filepath.Join(dataDir, "iddoc-verify.db"),
		SilentDB:       strings.EqualFold(strings.TrimSpace(os.Getenv("SILENT_DB")), "true"),
		OCRBackend:     backend,
		LearnedEnabled: detector != nil && detector.Enabled(),
	}
	if override := strings.TrimSpace(os.Getenv("IDDOC_DB_PATH")); override != "" {
		cfg.DBPath = override
	}
	if origins := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
			}
		}
	}
	if raw := strings.TrimSpace(os.Getenv("MAX_UPLOAD_BYTES")); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil && v > 0 {
			cfg.MaxUploadBytes = v
		}
	}

	server, err := api.NewServer(cfg, eng)
	if err != nil {
		logrus.Fatalf("create server: %v", err)
	}
	defer server.Close()

	router, err := server.Router()
	if err != nil {
		logrus.Fatalf("configure router: %v", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "2000"
	}

	logrus.Infof("starting iddoc-verify backend on :%s (ocr backend: %s)", port, backend)
	if err := router.Run(":" + port); err != nil {
		logrus.Fatalf("server stopped: %v", err)
	}
}

// buildRecognizer selects the OCR backend from OCR_BACKEND: "tesseract"
// (default) or "remote".
func buildRecognizer(timeout time.Duration) (textextract.Recognizer, string, error) {
	backend := strings.ToLower(strings.TrimSpace(os.Getenv("OCR_BACKEND")))
	switch backend {
	case "", "tesseract":
		var languages []string
		if raw := strings.TrimSpace(os.Getenv("OCR_LANGUAGES")); raw != "" {
			for _, lang := range strings.Split(raw, ",") {
				if lang = strings.TrimSpace(lang); lang != "" {
					languages = append(languages, lang)
				}
			}
		}
		return tesseract.New(languages...), "tesseract", nil
	case "remote":
		rec, err := remote.New(remote.Config{
			URL:     os.Getenv("REMOTE_OCR_URL"),
			APIKey:  os.Getenv("REMOTE_OCR_API_KEY"),
			Timeout: timeout,
		})
		if err != nil {
			return nil, "", err
		}
		return rec, "remote", nil
	default:
		return nil, "", errors.New("OCR_BACKEND must be tesseract or remote")
	}
}

// buildDetector configures the optional learned classifier from LEARNED_*
// variables. Absent configuration disables the fast path.
func buildDetector() (learned.Detector, float64) {
	threshold := 0.85
	if raw := strings.TrimSpace(os.Getenv("LEARNED_THRESHOLD")); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 && v <= 1 {
			threshold = v
		}
	}
	timeout := 15 * time.Second
	if raw := strings.TrimSpace(os.Getenv("LEARNED_TIMEOUT")); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			timeout = d
		}
	}

	client, err := learned.NewClient(learned.Config{
		Endpoint:  os.Getenv("LEARNED_ENDPOINT"),
		APIKey:    os.Getenv("LEARNED_API_KEY"),
		Threshold: threshold,
		Timeout:   timeout,
	})
	if err != nil {
		if !errors.Is(err, learned.ErrDisabled) {
			logrus.WithError(err).Warn("learned detector unavailable")
		}
		return nil, threshold
	}
	logrus.Info("learned detector enabled")
	return client, client.Threshold()
}
