// study.go
package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Category describes one labeled image group a tester works through.
type Category struct {
	Label       string `yaml:"label"`
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

// Study holds the full study definition.
type Study struct {
	Title                string     `yaml:"title"`
	Categories           []Category `yaml:"categories"`
	QuestionsPerCategory int        `yaml:"questions_per_category"`
}

// LoadStudy reads and parses the study definition file.
func LoadStudy(path string) (*Study, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read study file: %w", err)
	}

	var study Study
	if err := yaml.Unmarshal(data, &study); err != nil {
		return nil, fmt.Errorf("failed to unmarshal study YAML: %w", err)
	}

	if len(study.Categories) == 0 {
		return nil, fmt.Errorf("study file %s defines no categories", path)
	}
	if study.QuestionsPerCategory <= 0 {
		return nil, fmt.Errorf("study file %s has invalid questions_per_category", path)
	}

	return &study, nil
}

// Labels returns the category labels in definition order.
func (s *Study) Labels() []string {
	labels := make([]string, len(s.Categories))
	for i, c := range s.Categories {
		labels[i] = c.Label
	}
	return labels
}

// HasCategory reports whether label is part of the study.
func (s *Study) HasCategory(label string) bool {
	for _, c := range s.Categories {
		if c.Label == label {
			return true
		}
	}
	return false
}

// CategoryByLabel returns the category definition for label.
func (s *Study) CategoryByLabel(label string) (Category, bool) {
	for _, c := range s.Categories {
		if c.Label == label {
			return c, true
		}
	}
	return Category{}, false
}
