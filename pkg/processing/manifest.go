package processing

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/menta2k/image-sampler/pkg/types"
)

// Manifest records where each sample of one run came from
type Manifest struct {
	Source     string           `json:"source"`
	Image      types.Dimensions `json:"image"`
	SampleSize types.Size       `json:"sample_size"`
	Seed       int64            `json:"seed"`
	Samples    []ManifestEntry  `json:"samples"`
}

// ManifestEntry describes one saved sample
type ManifestEntry struct {
	Index       int       `json:"index"`
	Box         types.Box `json:"box"`
	File        string    `json:"file,omitempty"`
	Description string    `json:"description,omitempty"`
}

// WriteManifest writes m as indented JSON
func WriteManifest(path string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// ReadManifest loads a manifest written by WriteManifest
func ReadManifest(path string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(path)
	if err != nil {
		return m, fmt.Errorf("failed to read manifest: %w", err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return m, nil
}
