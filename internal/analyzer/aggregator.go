package analyzer

import (
	"sort"

	apperrors "go-dirtycam/internal/errors"
	"go-dirtycam/internal/logger"
	"go-dirtycam/pkg/models"

	"github.com/sirupsen/logrus"
)

// Outcome is one detector run on one quadrant, successful or not
type Outcome struct {
	Category models.FaultCategory
	Quadrant int
	Verdict  Verdict
	Err      error
}

// Aggregate folds per-quadrant outcomes into a report. A category fires if
// any of its quadrants fired; failed quadrants count as no fault. Categories
// appear in the given order and quadrants in index order.
func Aggregate(name string, width, height int, categories []models.FaultCategory, outcomes []Outcome) models.FaultReport {
	byCategory := make(map[models.FaultCategory][]Outcome, len(categories))
	for _, o := range outcomes {
		byCategory[o.Category] = append(byCategory[o.Category], o)
	}

	report := models.FaultReport{
		Image:      name,
		Width:      width,
		Height:     height,
		MaxFaults:  len(categories),
		Categories: make([]models.CategoryResult, 0, len(categories)),
	}

	for _, category := range categories {
		group := byCategory[category]
		sort.Slice(group, func(i, j int) bool { return group[i].Quadrant < group[j].Quadrant })

		result := models.CategoryResult{
			Category:  category,
			Quadrants: make([]models.QuadrantFinding, 0, len(group)),
		}
		for _, o := range group {
			finding := models.QuadrantFinding{Quadrant: o.Quadrant}
			if o.Err != nil {
				finding.Skipped = true
				finding.Error = o.Err.Error()
				if !apperrors.IsType(o.Err, apperrors.ErrorTypeEmptyRegion) {
					logger.WithError(o.Err).WithFields(logrus.Fields{
						"image":    name,
						"category": category,
						"quadrant": o.Quadrant,
					}).Warn("Detector failed, quadrant skipped")
				}
			} else {
				finding.Triggered = o.Verdict.Triggered
				finding.Exposure = o.Verdict.Exposure
				finding.Metrics = o.Verdict.Metrics
			}
			result.Triggered = result.Triggered || finding.Triggered
			result.Quadrants = append(result.Quadrants, finding)
		}

		if result.Triggered {
			report.FaultCount++
		}
		report.Categories = append(report.Categories, result)
	}

	return report
}
