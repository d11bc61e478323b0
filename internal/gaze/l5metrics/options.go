package l5metrics

import (
	"fmt"

	"github.com/banshee-data/gaze.report/internal/gaze"
)

// Default metric parameters.
const (
	DefaultPaddingFactor     = 1.20
	DefaultSuccessThreshold  = 0.80
	DefaultDirectionalMargin = 0.05
	DefaultFrameRate         = 30.0
)

// Options parameterises the metrics engine.
type Options struct {
	// PaddingFactor scales the target box symmetrically about its centre.
	PaddingFactor float64
	// SuccessThreshold is the in-box fraction at or above which an
	// excursion counts as successful.
	SuccessThreshold float64
	// DirectionalMargin moves the directional threshold line inward from
	// the target's extreme edge, in normalized surface units.
	DirectionalMargin float64
	// FrameRate converts frame counts to seconds.
	FrameRate float64
}

// DefaultOptions returns the built-in defaults.
func DefaultOptions() Options {
	return Options{
		PaddingFactor:     DefaultPaddingFactor,
		SuccessThreshold:  DefaultSuccessThreshold,
		DirectionalMargin: DefaultDirectionalMargin,
		FrameRate:         DefaultFrameRate,
	}
}

// Validate checks parameter ranges.
func (o Options) Validate() error {
	if o.PaddingFactor < 1 {
		return fmt.Errorf("%w: padding factor %g must be >= 1", gaze.ErrInvalidInput, o.PaddingFactor)
	}
	if o.SuccessThreshold <= 0 || o.SuccessThreshold > 1 {
		return fmt.Errorf("%w: success threshold %g must be in (0,1]", gaze.ErrInvalidInput, o.SuccessThreshold)
	}
	if o.DirectionalMargin < 0 || o.DirectionalMargin > 0.5 {
		return fmt.Errorf("%w: directional margin %g must be in [0,0.5]", gaze.ErrInvalidInput, o.DirectionalMargin)
	}
	if o.FrameRate <= 0 {
		return fmt.Errorf("%w: frame rate %g must be > 0", gaze.ErrInvalidInput, o.FrameRate)
	}
	return nil
}
