// Package api exposes the classification pipeline over HTTP and persists an
// audit row per request.
package api

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"iddoc-verify/internal/engine"
	"iddoc-verify/internal/imaging"
	"iddoc-verify/internal/store"
)

const defaultMaxUploadBytes = 15 << 20

// Config defines server dependencies.
type Config struct {
	DBPath         string
	AllowedOrigins []string
	SilentDB       bool
	MaxUploadBytes int64
	OCRBackend     string
	LearnedEnabled bool
}

// Server wires HTTP handlers with the pipeline engine and persistence.
type Server struct {
	engine         *engine.Engine
	db             *store.Database
	allowedOrigins []string
	maxUploadBytes int64
	ocrBackend     string
	learnedEnabled bool
}

// NewServer constructs the API server around an assembled engine.
func NewServer(cfg Config, eng *engine.Engine) (*Server, error) {
	if eng == nil {
		return nil, errors.New("engine required")
	}
	if cfg.DBPath == "" {
		return nil, errors.New("db path required")
	}
	db, err := store.Open(cfg.DBPath, cfg.SilentDB)
	if err != nil {
		return nil, err
	}
	maxBytes := cfg.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	return &Server{
		engine:         eng,
		db:             db,
		allowedOrigins: cfg.AllowedOrigins,
		maxUploadBytes: maxBytes,
		ocrBackend:     cfg.OCRBackend,
		learnedEnabled: cfg.LearnedEnabled,
	}, nil
}

// Close releases the server's persistence handle.
func (s *Server) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

// Router builds the gin engine with CORS and all routes registered.
func (s *Server) Router() (*gin.Engine, error) {
	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowCredentials = true
	if len(s.allowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = s.allowedOrigins
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	corsCfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	r.Use(cors.New(corsCfg))

	r.GET("/api/healthz", s.handleHealth)
	r.GET("/api/config", s.handleConfig)

	api := r.Group("/api")
	{
		api.POST("/classify", s.handleClassify)
		api.GET("/classifications", s.handleListClassifications)
	}

	return r, nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleConfig(c *gin.Context) {
	counts, err := s.db.CountByLabel()
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ocr_backend":      s.ocrBackend,
		"learned_enabled":  s.learnedEnabled,
		"max_upload_bytes": s.maxUploadBytes,
		"label_counts":     counts,
	})
}

func (s *Server) handleClassify(c *gin.Context) {
	data, err := s.readImage(c)
	if err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}

	outcome, err := s.engine.Classify(c.Request.Context(), data)
	if err != nil {
		if errors.Is(err, imaging.ErrDecode) {
			s.renderError(c, http.StatusUnprocessableEntity, err)
			return
		}
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}

	record := &store.Classification{
		ID:               uuid.NewString(),
		Label:            string(outcome.Result.Label),
		Confidence:       outcome.Result.Confidence,
		TotalPoints:      outcome.TotalPoints,
		ProcessingTimeMs: outcome.ProcessingMs,
	}
	record.SetTrace(outcome.Result.Trace)
	record.SetExtracted(outcome.Extracted)
	if err := s.db.SaveClassification(record); err != nil {
		logrus.WithError(err).Warn("persist classification record")
	}

	c.JSON(http.StatusOK, toClassificationDTO(record))
}

// readImage accepts either a multipart upload under "image" or a JSON body
// with a base64 payload.
func (s *Server) readImage(c *gin.Context) ([]byte, error) {
	contentType := c.ContentType()
	if strings.HasPrefix(contentType, "multipart/") {
		header, err := c.FormFile("image")
		if err != nil {
			return nil, fmt.Errorf("multipart field %q required: %w", "image", err)
		}
		if header.Size > s.maxUploadBytes {
			return nil, fmt.Errorf("upload exceeds %d bytes", s.maxUploadBytes)
		}
		file, err := header.Open()
		if err != nil {
			return nil, err
		}
		defer file.Close()
		return io.ReadAll(io.LimitReader(file, s.maxUploadBytes))
	}

	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	if strings.TrimSpace(req.ImageBase64) == "" {
		return nil, errors.New("image_base64 is required")
	}
	data, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil {
		return nil, fmt.Errorf("decode base64 image: %w", err)
	}
	if int64(len(data)) > s.maxUploadBytes {
		return nil, fmt.Errorf("upload exceeds %d bytes", s.maxUploadBytes)
	}
	return data, nil
}

func (s *Server) handleListClassifications(c *gin.Context) {
	limit := 50
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 || v > 500 {
			s.renderError(c, http.StatusBadRequest, errors.New("limit must be in 1..500"))
			return
		}
		limit = v
	}

	rows, err := s.db.ListClassifications(c.Query("label"), limit)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}

	items := make([]ClassificationDTO, 0, len(rows))
	for i := range rows {
		items = append(items, toClassificationDTO(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func (s *Server) renderError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}
