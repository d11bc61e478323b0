package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical analysis defaults file.
const DefaultConfigPath = "config/analysis.defaults.json"

// maxConfigSize caps config files at 1MB.
const maxConfigSize = 1 * 1024 * 1024

// AnalysisConfig holds the tunable analysis parameters. Every field is a
// pointer so a partial file only overrides what it names; the Get* methods
// supply defaults for the rest.
type AnalysisConfig struct {
	// Metrics params
	BBoxPaddingFactor          *float64 `json:"bbox_padding_factor,omitempty"`
	ExcursionSuccessThreshold  *float64 `json:"excursion_success_threshold,omitempty"`
	DirectionalExcursionMargin *float64 `json:"directional_excursion_margin,omitempty"`
	FrameRate                  *float64 `json:"frame_rate,omitempty"`

	// Alignment params
	AlignmentTolerance *string `json:"alignment_tolerance,omitempty"` // duration string like "100ms"

	// Reporting params
	PupilTrendPoints *int `json:"pupil_trend_points,omitempty"`

	// ExpectedSequences maps segment name to the direction sequence its
	// trials should follow. Validation only.
	ExpectedSequences map[string][]string `json:"expected_sequences,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyAnalysisConfig returns an AnalysisConfig with all fields unset.
func EmptyAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{}
}

// DefaultAnalysisConfig returns a config with every field set to its
// built-in default.
func DefaultAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{
		BBoxPaddingFactor:          ptrFloat64(1.20),
		ExcursionSuccessThreshold:  ptrFloat64(0.80),
		DirectionalExcursionMargin: ptrFloat64(0.05),
		FrameRate:                  ptrFloat64(30),
		AlignmentTolerance:         ptrString("100ms"),
		PupilTrendPoints:           ptrInt(101),
	}
}

// LoadAnalysisConfig loads an AnalysisConfig from a JSON file. The file
// must have a .json extension and be at most 1MB.
func LoadAnalysisConfig(path string) (*AnalysisConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxConfigSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxConfigSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseAnalysisConfig(data)
}

// ParseAnalysisConfig decodes and validates config JSON.
func ParseAnalysisConfig(data []byte) (*AnalysisConfig, error) {
	cfg := EmptyAnalysisConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents up to the repository root. Panics if the file
// cannot be loaded; intended for tests and binaries.
func MustLoadDefaultConfig() *AnalysisConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/gaze/pipeline/
		"../../../../" + DefaultConfigPath, // from internal/gaze/storage/sqlite/
	}
	for _, path := range candidates {
		if cfg, err := LoadAnalysisConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that set values are in range.
func (c *AnalysisConfig) Validate() error {
	if c.BBoxPaddingFactor != nil && *c.BBoxPaddingFactor < 1 {
		return fmt.Errorf("bbox_padding_factor must be >= 1, got %f", *c.BBoxPaddingFactor)
	}
	if c.ExcursionSuccessThreshold != nil {
		if v := *c.ExcursionSuccessThreshold; v <= 0 || v > 1 {
			return fmt.Errorf("excursion_success_threshold must be in (0, 1], got %f", v)
		}
	}
	if c.DirectionalExcursionMargin != nil {
		if v := *c.DirectionalExcursionMargin; v < 0 || v > 0.5 {
			return fmt.Errorf("directional_excursion_margin must be in [0, 0.5], got %f", v)
		}
	}
	if c.FrameRate != nil && *c.FrameRate <= 0 {
		return fmt.Errorf("frame_rate must be positive, got %f", *c.FrameRate)
	}
	if c.AlignmentTolerance != nil && *c.AlignmentTolerance != "" {
		d, err := time.ParseDuration(*c.AlignmentTolerance)
		if err != nil {
			return fmt.Errorf("invalid alignment_tolerance '%s': %w", *c.AlignmentTolerance, err)
		}
		if d <= 0 {
			return fmt.Errorf("alignment_tolerance must be positive, got %s", d)
		}
	}
	if c.PupilTrendPoints != nil && *c.PupilTrendPoints < 2 {
		return fmt.Errorf("pupil_trend_points must be at least 2, got %d", *c.PupilTrendPoints)
	}
	for seg, dirs := range c.ExpectedSequences {
		if seg == "" {
			return fmt.Errorf("expected_sequences has an empty segment name")
		}
		for i, d := range dirs {
			switch d {
			case "up", "down", "left", "right":
			default:
				return fmt.Errorf("expected_sequences[%q][%d]: unknown direction %q", seg, i, d)
			}
		}
	}
	return nil
}

// GetBBoxPaddingFactor returns the bbox_padding_factor value or the default.
func (c *AnalysisConfig) GetBBoxPaddingFactor() float64 {
	if c.BBoxPaddingFactor == nil {
		return 1.20 // default
	}
	return *c.BBoxPaddingFactor
}

// GetExcursionSuccessThreshold returns the excursion_success_threshold value or the default.
func (c *AnalysisConfig) GetExcursionSuccessThreshold() float64 {
	if c.ExcursionSuccessThreshold == nil {
		return 0.80 // default
	}
	return *c.ExcursionSuccessThreshold
}

// GetDirectionalExcursionMargin returns the directional_excursion_margin value or the default.
func (c *AnalysisConfig) GetDirectionalExcursionMargin() float64 {
	if c.DirectionalExcursionMargin == nil {
		return 0.05 // default
	}
	return *c.DirectionalExcursionMargin
}

// GetFrameRate returns the frame_rate value or the default.
func (c *AnalysisConfig) GetFrameRate() float64 {
	if c.FrameRate == nil {
		return 30 // default
	}
	return *c.FrameRate
}

// GetAlignmentTolerance parses and returns the AlignmentTolerance as a time.Duration.
func (c *AnalysisConfig) GetAlignmentTolerance() time.Duration {
	if c.AlignmentTolerance == nil || *c.AlignmentTolerance == "" {
		return 100 * time.Millisecond // default
	}
	d, err := time.ParseDuration(*c.AlignmentTolerance)
	if err != nil {
		return 100 * time.Millisecond // default on parse error
	}
	return d
}

// GetPupilTrendPoints returns the pupil_trend_points value or the default.
func (c *AnalysisConfig) GetPupilTrendPoints() int {
	if c.PupilTrendPoints == nil {
		return 101 // default
	}
	return *c.PupilTrendPoints
}

// GetExpectedSequences returns a copy of the expected sequences, or nil.
func (c *AnalysisConfig) GetExpectedSequences() map[string][]string {
	if len(c.ExpectedSequences) == 0 {
		return nil
	}
	out := make(map[string][]string, len(c.ExpectedSequences))
	for k, v := range c.ExpectedSequences {
		out[k] = append([]string(nil), v...)
	}
	return out
}
