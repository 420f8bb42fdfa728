package analyzer

import "go-dirtycam/pkg/models"

// Thresholds holds the detector cut-offs. They are configuration, not input,
// and are not range-checked.
type Thresholds struct {
	FlatColorStdDev float64 `json:"flat_color_stddev"`
	NoiseStdDev     float64 `json:"noise_stddev"`
	TintMean        float64 `json:"tint_mean"`
	TintStdDev      float64 `json:"tint_stddev"`
	BlurVariance    float64 `json:"blur_variance"`
	ExposureSum     float64 `json:"exposure_sum"`
}

// DefaultThresholds returns the reference detector thresholds
func DefaultThresholds() Thresholds {
	return Thresholds{
		FlatColorStdDev: 20.0,
		NoiseStdDev:     44.0,
		TintMean:        50.0,
		TintStdDev:      20.0,
		BlurVariance:    100.0,
		ExposureSum:     0.5,
	}
}

// WithOverrides returns a copy with every non-nil override applied
func (t Thresholds) WithOverrides(o *models.ThresholdOverrides) Thresholds {
	if o == nil {
		return t
	}
	if o.FlatColorStdDev != nil {
		t.FlatColorStdDev = *o.FlatColorStdDev
	}
	if o.NoiseStdDev != nil {
		t.NoiseStdDev = *o.NoiseStdDev
	}
	if o.TintMean != nil {
		t.TintMean = *o.TintMean
	}
	if o.TintStdDev != nil {
		t.TintStdDev = *o.TintStdDev
	}
	if o.BlurVariance != nil {
		t.BlurVariance = *o.BlurVariance
	}
	if o.ExposureSum != nil {
		t.ExposureSum = *o.ExposureSum
	}
	return t
}

// AnalysisOptions configures one screening call
type AnalysisOptions struct {
	Thresholds Thresholds

	// Sequential runs the quadrant x detector checks on the calling
	// goroutine instead of fanning them out.
	Sequential bool
}

// DefaultOptions returns default analysis options
func DefaultOptions() AnalysisOptions {
	return AnalysisOptions{
		Thresholds: DefaultThresholds(),
	}
}

// WithThresholds returns options using the given thresholds
func (opts AnalysisOptions) WithThresholds(t Thresholds) AnalysisOptions {
	opts.Thresholds = t
	return opts
}

// WithSequential disables the per-image fan-out
func (opts AnalysisOptions) WithSequential() AnalysisOptions {
	opts.Sequential = true
	return opts
}
