// Package config holds the thresholds and keyword sets used by every
// table validation and classification component.
//
// A Config is passed explicitly to each component; nothing in tabsift reads
// ambient state. Start from [Default] and adjust fields, or load overrides
// from a YAML file with [Load]:
//
//	cfg, err := config.Load("tabsift.yaml")
//	if err != nil {
//	    // handle error
//	}
//	cfg.ValidScore = 6.0
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds classifier, scorer and aggregation parameters.
type Config struct {
	// Cell classification
	MinNumericRatio float64 `yaml:"min_numeric_ratio"` // fraction of entries that must parse
	MaxTextRatio    float64 `yaml:"max_text_ratio"`    // fraction of entries allowed to contain letters
	MaxMagnitude    float64 `yaml:"max_magnitude"`     // absolute values above this are artifacts
	FoldWidth       bool    `yaml:"fold_width"`        // fold full-width digits and signs before parsing

	// Structural minimums
	MinRows int `yaml:"min_rows"`
	MinCols int `yaml:"min_cols"`

	// Size bonus thresholds
	SizeBonusRows int `yaml:"size_bonus_rows"`
	SizeBonusCols int `yaml:"size_bonus_cols"`

	// Sparsity: above MaxEmptyRatio the table is rejected outright
	MaxEmptyRatio float64 `yaml:"max_empty_ratio"`
	LowEmptyRatio float64 `yaml:"low_empty_ratio"`

	// Per-column type consistency bands
	ConsistencyHigh float64 `yaml:"consistency_high"`
	ConsistencyLow  float64 `yaml:"consistency_low"`

	// Minimum total score for a valid table (0-10)
	ValidScore float64 `yaml:"valid_score"`

	// Numeric-row share above which a table is a data table
	DataRowRatio float64 `yaml:"data_row_ratio"`

	// Header / first-cell prefix marking metadata columns and rows
	MetadataPrefix string `yaml:"metadata_prefix"`

	// Labels removed before numeric classification (exact, case-insensitive)
	AggregateLabels []string `yaml:"aggregate_labels"`

	// Keywords marking summary rows (substring, case-insensitive)
	AggregateKeywords []string `yaml:"aggregate_keywords"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		MinNumericRatio: 0.80,
		MaxTextRatio:    0.20,
		MaxMagnitude:    1e15,
		FoldWidth:       true,
		MinRows:         2,
		MinCols:         2,
		SizeBonusRows:   3,
		SizeBonusCols:   3,
		MaxEmptyRatio:   0.7,
		LowEmptyRatio:   0.3,
		ConsistencyHigh: 0.8,
		ConsistencyLow:  0.2,
		ValidScore:      7.0,
		DataRowRatio:    0.5,
		MetadataPrefix:  "_",
		AggregateLabels: []string{
			"合計", "小計", "総計", "計",
			"total", "sum", "subtotal",
		},
		AggregateKeywords: []string{
			"合計", "小計", "総計", "計", "平均", "平均値",
			"total", "sum", "subtotal", "average", "avg", "mean",
		},
	}
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	out := c
	out.AggregateLabels = append([]string(nil), c.AggregateLabels...)
	out.AggregateKeywords = append([]string(nil), c.AggregateKeywords...)
	return out
}

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Validate reports the first out-of-range parameter.
func (c Config) Validate() error {
	ratios := []struct {
		name string
		v    float64
	}{
		{"min_numeric_ratio", c.MinNumericRatio},
		{"max_text_ratio", c.MaxTextRatio},
		{"max_empty_ratio", c.MaxEmptyRatio},
		{"low_empty_ratio", c.LowEmptyRatio},
		{"consistency_high", c.ConsistencyHigh},
		{"consistency_low", c.ConsistencyLow},
		{"data_row_ratio", c.DataRowRatio},
	}
	for _, r := range ratios {
		if r.v < 0 || r.v > 1 {
			return fmt.Errorf("%w: %s must be in [0,1], got %v", ErrInvalid, r.name, r.v)
		}
	}
	if c.MaxMagnitude <= 0 {
		return fmt.Errorf("%w: max_magnitude must be positive, got %v", ErrInvalid, c.MaxMagnitude)
	}
	if c.MinRows < 0 || c.MinCols < 0 {
		return fmt.Errorf("%w: min_rows and min_cols must not be negative", ErrInvalid)
	}
	if c.ConsistencyLow > c.ConsistencyHigh {
		return fmt.Errorf("%w: consistency_low %v exceeds consistency_high %v", ErrInvalid, c.ConsistencyLow, c.ConsistencyHigh)
	}
	if c.LowEmptyRatio > c.MaxEmptyRatio {
		return fmt.Errorf("%w: low_empty_ratio %v exceeds max_empty_ratio %v", ErrInvalid, c.LowEmptyRatio, c.MaxEmptyRatio)
	}
	if c.ValidScore < 0 || c.ValidScore > 10 {
		return fmt.Errorf("%w: valid_score must be in [0,10], got %v", ErrInvalid, c.ValidScore)
	}
	return nil
}

// Parse decodes YAML over the defaults. Keys absent from data keep their
// default value.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads a YAML config file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}
