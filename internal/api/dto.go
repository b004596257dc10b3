package api

import (
	"time"

	"iddoc-verify/internal/store"
)

// ClassifyRequest is the JSON body alternative to a multipart upload.
type ClassifyRequest struct {
	ImageBase64 string `json:"image_base64"`
}

// ClassificationDTO is the API representation of one classification.
type ClassificationDTO struct {
	ID               string            `json:"id"`
	Label            string            `json:"label"`
	Confidence       float64           `json:"confidence"`
	TotalPoints      int               `json:"total_points"`
	Trace            []string          `json:"trace"`
	Extracted        map[string]string `json:"extracted,omitempty"`
	ProcessingTimeMs int64             `json:"processing_time_ms"`
	CreatedAt        time.Time         `json:"created_at"`
}

func toClassificationDTO(c *store.Classification) ClassificationDTO {
	return ClassificationDTO{
		ID:               c.ID,
		Label:            c.Label,
		Confidence:       c.Confidence,
		TotalPoints:      c.TotalPoints,
		Trace:            c.Trace(),
		Extracted:        c.Extracted(),
		ProcessingTimeMs: c.ProcessingTimeMs,
		CreatedAt:        c.CreatedAt,
	}
}
