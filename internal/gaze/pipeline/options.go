package pipeline

import (
	"fmt"
	"time"

	"github.com/banshee-data/gaze.report/internal/config"
	"github.com/banshee-data/gaze.report/internal/gaze"
	"github.com/banshee-data/gaze.report/internal/gaze/l1streams"
	"github.com/banshee-data/gaze.report/internal/gaze/l5metrics"
	"github.com/banshee-data/gaze.report/internal/gaze/l6summary"
)

// Options configures one analysis run.
type Options struct {
	Metrics            l5metrics.Options
	AlignmentTolerance time.Duration
	PupilTrendPoints   int
	// ExpectedSequences maps segment name to its expected trial directions.
	ExpectedSequences map[string][]gaze.Direction
}

// DefaultOptions returns the built-in defaults with no expected sequences.
func DefaultOptions() Options {
	return Options{
		Metrics:            l5metrics.DefaultOptions(),
		AlignmentTolerance: l1streams.DefaultTolerance,
		PupilTrendPoints:   l6summary.DefaultTrendPoints,
	}
}

// OptionsFromConfig builds Options from a loaded AnalysisConfig.
func OptionsFromConfig(cfg *config.AnalysisConfig) (Options, error) {
	opts := Options{
		Metrics: l5metrics.Options{
			PaddingFactor:     cfg.GetBBoxPaddingFactor(),
			SuccessThreshold:  cfg.GetExcursionSuccessThreshold(),
			DirectionalMargin: cfg.GetDirectionalExcursionMargin(),
			FrameRate:         cfg.GetFrameRate(),
		},
		AlignmentTolerance: cfg.GetAlignmentTolerance(),
		PupilTrendPoints:   cfg.GetPupilTrendPoints(),
	}
	for seg, names := range cfg.GetExpectedSequences() {
		dirs, err := gaze.ParseDirections(names)
		if err != nil {
			return Options{}, fmt.Errorf("expected sequence for %q: %w", seg, err)
		}
		if opts.ExpectedSequences == nil {
			opts.ExpectedSequences = map[string][]gaze.Direction{}
		}
		opts.ExpectedSequences[seg] = dirs
	}
	return opts, opts.Validate()
}

// Validate checks the options before a run.
func (o Options) Validate() error {
	if err := o.Metrics.Validate(); err != nil {
		return err
	}
	if o.AlignmentTolerance <= 0 {
		return fmt.Errorf("%w: alignment tolerance %s must be positive", gaze.ErrInvalidInput, o.AlignmentTolerance)
	}
	if o.PupilTrendPoints < 2 {
		return fmt.Errorf("%w: pupil trend points %d must be at least 2", gaze.ErrInvalidInput, o.PupilTrendPoints)
	}
	return nil
}
