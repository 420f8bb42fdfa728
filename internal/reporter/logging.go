package reporter

import (
	"context"

	"github.com/sirupsen/logrus"

	"go-dirtycam/pkg/models"
)

// LoggingReporter writes every outcome as a structured log entry
type LoggingReporter struct {
	logger *logrus.Logger
}

// NewLoggingReporter creates a reporter logging through logger
func NewLoggingReporter(logger *logrus.Logger) *LoggingReporter {
	return &LoggingReporter{logger: logger}
}

// OnReport implements Reporter
func (r *LoggingReporter) OnReport(ctx context.Context, report models.FaultReport) {
	fields := logrus.Fields{
		"image":       report.Image,
		"fault_count": report.FaultCount,
		"max_faults":  report.MaxFaults,
		"width":       report.Width,
		"height":      report.Height,
	}
	for _, c := range report.Categories {
		fields[string(c.Category)] = c.Triggered
	}

	entry := r.logger.WithFields(fields)
	if report.FaultCount > 0 {
		entry.Info("Image screened with faults")
		return
	}
	entry.Debug("Image screened clean")
}

// OnFailure implements Reporter
func (r *LoggingReporter) OnFailure(ctx context.Context, image string, err error) {
	r.logger.WithError(err).WithField("image", image).Error("Image screening failed")
}

// Name implements Reporter
func (r *LoggingReporter) Name() string {
	return "logging"
}
