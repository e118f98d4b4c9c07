// Package importer reads batch project files for "tranche project import".
package importer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ImportSchema is the top-level structure of an import file.
type ImportSchema struct {
	Projects []ProjectImport `json:"projects" yaml:"projects"`
}

type ProjectImport struct {
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description" yaml:"description"`
	Sponsor     string            `json:"sponsor" yaml:"sponsor"`
	Milestones  []MilestoneImport `json:"milestones" yaml:"milestones"`
}

// MilestoneImport keeps amount and due date as strings so validation can
// report the offending text.
type MilestoneImport struct {
	Description string `json:"description" yaml:"description"`
	Amount      string `json:"amount" yaml:"amount"`
	DueDate     string `json:"due_date" yaml:"due_date"`
}

// LoadImportFile reads an import file. Files ending in .yaml or .yml are
// parsed as YAML, everything else as JSON.
func LoadImportFile(path string) (*ImportSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading import file: %w", err)
	}

	var schema ImportSchema
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &schema)
	default:
		err = json.Unmarshal(data, &schema)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing import file %s: %w", path, err)
	}
	return &schema, nil
}
