package analyzer

import (
	"fmt"
	"image"
	"sync"

	apperrors "go-dirtycam/internal/errors"
	"go-dirtycam/internal/raster"
	"go-dirtycam/pkg/models"
)

// coreAnalyzer implements ImageAnalyzer: partition, run every detector on
// every quadrant, then fold the verdicts.
type coreAnalyzer struct {
	detectors  []Detector
	categories []models.FaultCategory
}

// NewImageAnalyzer creates an analyzer with the five default detectors
func NewImageAnalyzer() ImageAnalyzer {
	return NewImageAnalyzerWithDetectors(DefaultDetectors(NewMetricsCalculator()))
}

// NewImageAnalyzerWithDetectors creates an analyzer over a custom detector set
func NewImageAnalyzerWithDetectors(detectors []Detector) ImageAnalyzer {
	categories := make([]models.FaultCategory, len(detectors))
	for i, d := range detectors {
		categories[i] = d.Category()
	}
	return &coreAnalyzer{
		detectors:  detectors,
		categories: categories,
	}
}

// AnalyzeImage converts img to a raster buffer and screens it
func (ca *coreAnalyzer) AnalyzeImage(name string, img image.Image, options AnalysisOptions) (models.FaultReport, error) {
	return ca.Analyze(name, raster.FromImage(img), options)
}

// Analyze screens one decoded image
func (ca *coreAnalyzer) Analyze(name string, img *raster.Image, options AnalysisOptions) (models.FaultReport, error) {
	quads, err := Partition(img)
	if err != nil {
		return models.FaultReport{}, err
	}

	var outcomes []Outcome
	if options.Sequential {
		outcomes = ca.runSequential(quads, options.Thresholds)
	} else {
		outcomes = ca.runParallel(quads, options.Thresholds)
	}

	return Aggregate(name, img.Width, img.Height, ca.categories, outcomes), nil
}

func (ca *coreAnalyzer) runSequential(quads [4]Quadrant, t Thresholds) []Outcome {
	outcomes := make([]Outcome, 0, len(quads)*len(ca.detectors))
	for _, q := range quads {
		for _, d := range ca.detectors {
			outcomes = append(outcomes, detect(d, q, t))
		}
	}
	return outcomes
}

// runParallel evaluates every quadrant x detector pair on its own goroutine.
// The inputs are read-only so the only synchronisation is the fan-in.
func (ca *coreAnalyzer) runParallel(quads [4]Quadrant, t Thresholds) []Outcome {
	total := len(quads) * len(ca.detectors)
	results := make(chan Outcome, total)
	var wg sync.WaitGroup

	for _, q := range quads {
		for _, d := range ca.detectors {
			wg.Add(1)
			go func(d Detector, q Quadrant) {
				defer wg.Done()
				results <- detect(d, q, t)
			}(d, q)
		}
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	outcomes := make([]Outcome, 0, total)
	for o := range results {
		outcomes = append(outcomes, o)
	}
	return outcomes
}

// detect runs one detector on one quadrant. A panic becomes an internal
// error for that quadrant only.
func detect(d Detector, q Quadrant, t Thresholds) (o Outcome) {
	o = Outcome{Category: d.Category(), Quadrant: q.Index}
	defer func() {
		if r := recover(); r != nil {
			o.Verdict = Verdict{}
			o.Err = apperrors.NewInternalError(fmt.Sprintf("%s detector panicked: %v", o.Category, r), nil)
		}
	}()
	o.Verdict, o.Err = d.Detect(q, t)
	return o
}
