// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-advisor/pkg/types"
)

// AssessmentFile is the on-disk representation of a completed run. The
// researcher can save an assessment and revisit it later without
// re-querying the search and reasoning services.
type AssessmentFile struct {
	Profile    types.ResearchProfile   `yaml:"profile"`
	Assessment types.NoveltyAssessment `yaml:"assessment"`
	Advice     Advice                  `yaml:"advice"`
	Pivots     []types.PivotSuggestion `yaml:"pivots,omitempty"`
	SavedAt    time.Time               `yaml:"saved_at"`
}

// WriteAssessmentFile saves the run to a YAML file, stamping SavedAt.
func WriteAssessmentFile(path string, file AssessmentFile) error {
	file.SavedAt = time.Now()
	data, err := yaml.Marshal(&file)
	if err != nil {
		return fmt.Errorf("marshaling assessment file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadAssessmentFile loads a previously saved run from disk.
func ReadAssessmentFile(path string) (*AssessmentFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading assessment file: %w", err)
	}
	var file AssessmentFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing assessment file: %w", err)
	}
	return &file, nil
}
