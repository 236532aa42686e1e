package plots

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// ManifestFile is written next to the figures of a run
const ManifestFile = "manifest.yaml"

// Manifest records which inputs produced which figures
type Manifest struct {
	RunID     string    `json:"run_id" yaml:"run_id"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Source    string    `json:"source" yaml:"source"`
	JobFile   string    `json:"job_file,omitempty" yaml:"job_file,omitempty"`
	Inputs    []string  `json:"inputs" yaml:"inputs"`
	Figures   []string  `json:"figures" yaml:"figures"`
}

// NewManifest starts a manifest with a fresh run id
func NewManifest(source, jobFile string) *Manifest {
	return &Manifest{
		RunID:     uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Source:    source,
		JobFile:   jobFile,
		Inputs:    []string{},
		Figures:   []string{},
	}
}

// Write stores the manifest in dir and returns its path
func (m *Manifest) Write(dir string) (string, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create plot directory: %w", err)
	}

	path := filepath.Join(dir, ManifestFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return path, nil
}

// ReadManifest loads a manifest written by Write
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &m, nil
}
