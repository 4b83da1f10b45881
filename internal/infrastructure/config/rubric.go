package config

import (
	"fmt"

	"github.com/felixgeelhaar/fareview/pkg/domain/rubric"
	"github.com/felixgeelhaar/fareview/pkg/storage"
)

// RubricConfig overrides the built-in rubric. Dimensions or bands left empty
// come from the locale's built-in rubric.
type RubricConfig struct {
	Locale     string             `yaml:"locale,omitempty"`
	Dimensions []rubric.Dimension `yaml:"dimensions,omitempty"`
	Bands      []rubric.GradeBand `yaml:"bands,omitempty"`
}

// Build validates the configuration into a Rubric. Every failure is a
// *rubric.ConfigurationError.
func (c *RubricConfig) Build() (*rubric.Rubric, error) {
	base, err := rubric.ForLocale(c.Locale)
	if err != nil {
		return nil, err
	}
	if len(c.Dimensions) == 0 && len(c.Bands) == 0 {
		return base, nil
	}
	dims, bands := c.Dimensions, c.Bands
	if len(dims) == 0 {
		dims = base.Dimensions()
	}
	if len(bands) == 0 {
		bands = base.Bands()
	}
	return rubric.New(base.Locale(), dims, bands)
}

// LoadRubric returns the workspace rubric, or the English default when
// rubric.yaml does not exist.
func LoadRubric(root string) (*rubric.Rubric, error) {
	var cfg RubricConfig
	found, err := readYAML(root, storage.RubricFile, &cfg)
	if err != nil {
		return nil, &rubric.ConfigurationError{Reason: err.Error()}
	}
	if !found {
		return rubric.Default(), nil
	}
	r, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", storage.RubricFile, err)
	}
	return r, nil
}

func SaveRubric(root string, cfg *RubricConfig) error {
	if cfg == nil {
		return fmt.Errorf("rubric config is nil")
	}
	if _, err := cfg.Build(); err != nil {
		return err
	}
	return writeYAML(root, storage.RubricFile, cfg)
}
