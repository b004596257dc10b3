package evidence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Weights is the fixed point-weight table. The defaults were tuned
// empirically; a JSON file may override any subset for recalibration.
type Weights struct {
	GovZone       int `json:"gov_zone"`
	GovFallback   int `json:"gov_fallback"`
	TitleBoth     int `json:"title_both"`
	TitleOne      int `json:"title_one"`
	TitleFallback int `json:"title_fallback"`
	Country       int `json:"country"`
	FieldZone     int `json:"field_zone"`
	FieldFallback int `json:"field_fallback"`
	FieldCap      int `json:"field_cap"`
	Flag          int `json:"flag"`
	LogoPair      int `json:"logo_pair"`
}

// DefaultWeights returns the standard point table.
func DefaultWeights() Weights {
	return Weights{
		GovZone:       30,
		GovFallback:   25,
		TitleBoth:     35,
		TitleOne:      20,
		TitleFallback: 15,
		Country:       20,
		FieldZone:     8,
		FieldFallback: 5,
		FieldCap:      5,
		Flag:          40,
		LogoPair:      70,
	}
}

// LoadWeights reads a JSON override file on top of the defaults. Fields
// absent from the file keep their default values.
func LoadWeights(path string) (Weights, error) {
	weights := DefaultWeights()
	if path == "" {
		return weights, nil
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return weights, fmt.Errorf("read weights: %w", err)
	}
	if err := json.Unmarshal(data, &weights); err != nil {
		return weights, fmt.Errorf("unmarshal weights: %w", err)
	}
	return weights, nil
}
