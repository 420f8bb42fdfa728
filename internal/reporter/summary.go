package reporter

import (
	"context"
	"sync"

	"github.com/montanaflynn/stats"

	"go-dirtycam/pkg/models"
)

// DefaultSampleSize is how many recent fault counts feed the median
const DefaultSampleSize = 10000

// SummaryReporter accumulates batch statistics. Counts, mean and max cover
// every report; the median covers the most recent reports only, so memory
// stays bounded in a long-running server.
type SummaryReporter struct {
	mu          sync.RWMutex
	screened    int
	failed      int
	totalFaults int
	maxFaults   int
	faultFree   int
	categories  map[models.FaultCategory]int

	sample     []float64
	next       int
	sampleSize int
}

// SummaryOption configures a SummaryReporter
type SummaryOption func(*SummaryReporter)

// WithSampleSize bounds the median sample. Values below 1 are ignored.
func WithSampleSize(n int) SummaryOption {
	return func(r *SummaryReporter) {
		if n > 0 {
			r.sampleSize = n
		}
	}
}

// NewSummaryReporter creates an empty summary
func NewSummaryReporter(opts ...SummaryOption) *SummaryReporter {
	r := &SummaryReporter{
		categories: make(map[models.FaultCategory]int),
		sampleSize: DefaultSampleSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnReport implements Reporter
func (r *SummaryReporter) OnReport(ctx context.Context, report models.FaultReport) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.screened++
	r.totalFaults += report.FaultCount
	if report.FaultCount > r.maxFaults {
		r.maxFaults = report.FaultCount
	}
	if report.FaultCount == 0 {
		r.faultFree++
	}
	for _, c := range report.TriggeredCategories() {
		r.categories[c]++
	}

	if len(r.sample) < r.sampleSize {
		r.sample = append(r.sample, float64(report.FaultCount))
		return
	}
	r.sample[r.next] = float64(report.FaultCount)
	r.next = (r.next + 1) % r.sampleSize
}

// OnFailure implements Reporter
func (r *SummaryReporter) OnFailure(ctx context.Context, image string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed++
}

// Name implements Reporter
func (r *SummaryReporter) Name() string {
	return "summary"
}

// Summary returns the statistics gathered so far
func (r *SummaryReporter) Summary() models.BatchSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summary := models.BatchSummary{
		Screened:        r.screened,
		Failed:          r.failed,
		MaxFaultCount:   r.maxFaults,
		FaultFreeImages: r.faultFree,
		CategoryCounts:  make(map[models.FaultCategory]int, len(r.categories)),
	}
	for c, n := range r.categories {
		summary.CategoryCounts[c] = n
	}
	if r.screened == 0 {
		return summary
	}

	summary.MeanFaults = float64(r.totalFaults) / float64(r.screened)
	// Median only errors on empty input, which is handled above
	summary.MedianFaults, _ = stats.Float64Data(r.sample).Median()
	return summary
}

// Reset clears the gathered statistics
func (r *SummaryReporter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.screened, r.failed, r.totalFaults, r.maxFaults, r.faultFree = 0, 0, 0, 0, 0
	r.categories = make(map[models.FaultCategory]int)
	r.sample = nil
	r.next = 0
}
