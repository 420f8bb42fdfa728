package analyzer

import (
	"math"

	"go-dirtycam/pkg/models"
)

// DefaultDetectors returns the five fault detectors in report order
func DefaultDetectors(mc MetricsCalculator) []Detector {
	return []Detector{
		NewFlatColorDetector(mc),
		NewNoiseDetector(mc),
		NewTintDetector(mc),
		NewBlurDetector(mc),
		NewExposureDetector(mc),
	}
}

// flatColorDetector flags regions where every channel is nearly constant,
// which points at a covered or saturated sensor rather than scene content.
type flatColorDetector struct {
	metrics MetricsCalculator
}

// NewFlatColorDetector creates the flat-color detector
func NewFlatColorDetector(mc MetricsCalculator) Detector {
	return &flatColorDetector{metrics: mc}
}

func (d *flatColorDetector) Category() models.FaultCategory { return models.CategoryFlatColor }

func (d *flatColorDetector) Detect(q Quadrant, t Thresholds) (Verdict, error) {
	stats, err := d.metrics.CalculateChannelStatistics(q)
	if err != nil {
		return Verdict{}, err
	}

	flat := true
	maxStd := 0.0
	for c := 0; c < stats.Channels; c++ {
		maxStd = math.Max(maxStd, stats.StdDev[c])
		if stats.StdDev[c] >= t.FlatColorStdDev {
			flat = false
		}
	}

	return Verdict{
		Category:  d.Category(),
		Quadrant:  q.Index,
		Triggered: flat,
		Metrics:   map[string]float64{"max_stddev": maxStd},
	}, nil
}

// noiseDetector flags high gray-level spread. It does not tell noise apart
// from legitimate fine detail.
type noiseDetector struct {
	metrics MetricsCalculator
}

// NewNoiseDetector creates the noise detector
func NewNoiseDetector(mc MetricsCalculator) Detector {
	return &noiseDetector{metrics: mc}
}

func (d *noiseDetector) Category() models.FaultCategory { return models.CategoryNoise }

func (d *noiseDetector) Detect(q Quadrant, t Thresholds) (Verdict, error) {
	stats, err := d.metrics.CalculateChannelStatistics(q.Gray())
	if err != nil {
		return Verdict{}, err
	}

	return Verdict{
		Category:  d.Category(),
		Quadrant:  q.Index,
		Triggered: stats.StdDev[0] > t.NoiseStdDev,
		Metrics:   map[string]float64{"stddev": stats.StdDev[0]},
	}, nil
}

// tintDetector flags a channel whose mean or spread diverges from the others
type tintDetector struct {
	metrics MetricsCalculator
}

// NewTintDetector creates the color tint detector
func NewTintDetector(mc MetricsCalculator) Detector {
	return &tintDetector{metrics: mc}
}

func (d *tintDetector) Category() models.FaultCategory { return models.CategoryTint }

func (d *tintDetector) Detect(q Quadrant, t Thresholds) (Verdict, error) {
	stats, err := d.metrics.CalculateChannelStatistics(q)
	if err != nil {
		return Verdict{}, err
	}

	// Single-channel images cannot diverge between channels
	if stats.Channels < 3 {
		return Verdict{
			Category: d.Category(),
			Quadrant: q.Index,
			Metrics:  map[string]float64{"mean_diff": 0, "stddev_diff": 0},
		}, nil
	}

	meanDiff := maxPairwiseDiff(stats.Mean)
	stdDiff := maxPairwiseDiff(stats.StdDev)

	return Verdict{
		Category:  d.Category(),
		Quadrant:  q.Index,
		Triggered: meanDiff > t.TintMean || stdDiff > t.TintStdDev,
		Metrics:   map[string]float64{"mean_diff": meanDiff, "stddev_diff": stdDiff},
	}, nil
}

func maxPairwiseDiff(v [3]float64) float64 {
	return math.Max(math.Abs(v[0]-v[1]), math.Max(math.Abs(v[0]-v[2]), math.Abs(v[1]-v[2])))
}

// blurDetector flags a flat Laplacian response
type blurDetector struct {
	metrics MetricsCalculator
}

// NewBlurDetector creates the blur detector
func NewBlurDetector(mc MetricsCalculator) Detector {
	return &blurDetector{metrics: mc}
}

func (d *blurDetector) Category() models.FaultCategory { return models.CategoryBlur }

func (d *blurDetector) Detect(q Quadrant, t Thresholds) (Verdict, error) {
	variance, err := d.metrics.CalculateLaplacianVariance(q.Gray())
	if err != nil {
		return Verdict{}, err
	}

	return Verdict{
		Category:  d.Category(),
		Quadrant:  q.Index,
		Triggered: variance < t.BlurVariance,
		Metrics:   map[string]float64{"laplacian_variance": variance},
	}, nil
}

// exposureDetector classifies a quadrant from its normalized histogram
type exposureDetector struct {
	metrics MetricsCalculator
}

// NewExposureDetector creates the exposure detector
func NewExposureDetector(mc MetricsCalculator) Detector {
	return &exposureDetector{metrics: mc}
}

func (d *exposureDetector) Category() models.FaultCategory { return models.CategoryExposure }

func (d *exposureDetector) Detect(q Quadrant, t Thresholds) (Verdict, error) {
	hist, err := d.metrics.CalculateHistogram(q.Gray())
	if err != nil {
		return Verdict{}, err
	}

	// Bins are scaled against the tallest bin, not the pixel count, so the
	// sums are relative peak heights rather than probability mass.
	lower, upper := d.metrics.ExposureSums(d.metrics.NormalizeHistogram(hist))
	exposure := ClassifyExposure(lower, upper, t.ExposureSum)

	return Verdict{
		Category:  d.Category(),
		Quadrant:  q.Index,
		Triggered: exposure != models.ExposureProper,
		Exposure:  exposure,
		Metrics:   map[string]float64{"lower_sum": lower, "upper_sum": upper},
	}, nil
}

// ClassifyExposure applies the exposure rule; overexposure wins when both
// windows exceed the threshold.
func ClassifyExposure(lower, upper, threshold float64) models.Exposure {
	switch {
	case upper > threshold:
		return models.ExposureOver
	case lower > threshold:
		return models.ExposureUnder
	default:
		return models.ExposureProper
	}
}
