package analyzer

import (
	"image"

	"go-dirtycam/internal/raster"
	"go-dirtycam/pkg/models"
)

// ImageAnalyzer screens one image and produces its fault report
type ImageAnalyzer interface {
	// Analyze screens a decoded buffer
	Analyze(name string, img *raster.Image, options AnalysisOptions) (models.FaultReport, error)

	// AnalyzeImage converts a standard library image and screens it
	AnalyzeImage(name string, img image.Image, options AnalysisOptions) (models.FaultReport, error)
}

// MetricsCalculator handles per-region statistics
type MetricsCalculator interface {
	CalculateChannelStatistics(q Quadrant) (ChannelStatistics, error)
	CalculateLaplacianVariance(gray Quadrant) (float64, error)
	CalculateHistogram(gray Quadrant) ([]float64, error)
	NormalizeHistogram(hist []float64) []float64
	ExposureSums(normalized []float64) (lower, upper float64)
}

// Detector is one stateless defect predicate evaluated per quadrant
type Detector interface {
	Category() models.FaultCategory
	Detect(q Quadrant, t Thresholds) (Verdict, error)
}
