package store

import (
	"encoding/json"
	"strings"
	"time"
)

// Classification is one persisted classification outcome, kept for audit and
// recalibration review.
type Classification struct {
	ID               string  `gorm:"primaryKey;size:36"`
	Label            string  `gorm:"size:16;index"`
	Confidence       float64 `gorm:""`
	TotalPoints      int     `gorm:""`
	TraceJSON        string  `gorm:"type:text"`
	ExtractedJSON    string  `gorm:"type:text"`
	ProcessingTimeMs int64   `gorm:""`
	CreatedAt        time.Time
}

// SetTrace persists the evidence trace as JSON.
func (c *Classification) SetTrace(trace []string) {
	if trace == nil {
		c.TraceJSON = "[]"
		return
	}
	payload, _ := json.Marshal(trace)
	c.TraceJSON = string(payload)
}

// Trace returns the unmarshalled evidence trace.
func (c *Classification) Trace() []string {
	if strings.TrimSpace(c.TraceJSON) == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(c.TraceJSON), &out); err != nil {
		return nil
	}
	return out
}

// SetExtracted persists the structured field values as JSON.
func (c *Classification) SetExtracted(fields map[string]string) {
	if len(fields) == 0 {
		c.ExtractedJSON = "{}"
		return
	}
	payload, _ := json.Marshal(fields)
	c.ExtractedJSON = string(payload)
}

// Extracted returns the unmarshalled structured field values.
func (c *Classification) Extracted() map[string]string {
	if strings.TrimSpace(c.ExtractedJSON) == "" {
		return nil
	}
	var out map[string]string
	if err := json.Unmarshal([]byte(c.ExtractedJSON), &out); err != nil {
		return nil
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
