package analyzer

import (
	"fmt"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	apperrors "go-dirtycam/internal/errors"
)

// HistogramBins is the number of intensity bins, one per 8-bit level
const HistogramBins = 256

// Exposure histogram windows: lower covers bins [0,50), upper covers (200,255]
const (
	lowerWindowEnd   = 50
	upperWindowStart = 201
)

// metricsCalculator implements MetricsCalculator with gonum
type metricsCalculator struct {
	slicePool sync.Pool
}

// NewMetricsCalculator creates a new metrics calculator using Gonum
func NewMetricsCalculator() MetricsCalculator {
	return &metricsCalculator{
		slicePool: sync.Pool{
			New: func() interface{} {
				s := make([]float64, 0, 1024)
				return &s
			},
		},
	}
}

func (mc *metricsCalculator) getSlice(n int) *[]float64 {
	p := mc.slicePool.Get().(*[]float64)
	if cap(*p) < n {
		*p = make([]float64, 0, n)
	}
	*p = (*p)[:0]
	return p
}

func emptyRegion(q Quadrant) error {
	return apperrors.NewEmptyRegionError(
		fmt.Sprintf("quadrant %d is %dx%d", q.Index, q.Width(), q.Height()), nil)
}

// CalculateChannelStatistics computes the population mean and standard
// deviation of every channel of q independently.
func (mc *metricsCalculator) CalculateChannelStatistics(q Quadrant) (ChannelStatistics, error) {
	n := q.Pixels()
	if n == 0 {
		return ChannelStatistics{}, emptyRegion(q)
	}

	buf := mc.getSlice(n)
	defer mc.slicePool.Put(buf)

	stats := ChannelStatistics{Channels: q.Channels()}
	for c := 0; c < stats.Channels && c < len(stats.Mean); c++ {
		*buf = q.AppendChannel((*buf)[:0], c)
		stats.Mean[c], stats.StdDev[c] = stat.PopMeanStdDev(*buf, nil)
	}
	return stats, nil
}

// CalculateLaplacianVariance convolves the first channel of q with the
// kernel [0 1 0; 1 -4 1; 0 1 0] at float precision and returns the squared
// standard deviation of the response. Borders reflect without repeating the
// edge pixel (dcb|abcd|cba).
func (mc *metricsCalculator) CalculateLaplacianVariance(q Quadrant) (float64, error) {
	w, h := q.Width(), q.Height()
	if w*h == 0 {
		return 0, emptyRegion(q)
	}

	buf := mc.getSlice(w * h)
	defer mc.slicePool.Put(buf)

	data := *buf
	for y := 0; y < h; y++ {
		up, down := reflect101(y-1, h), reflect101(y+1, h)
		for x := 0; x < w; x++ {
			left, right := reflect101(x-1, w), reflect101(x+1, w)

			center := float64(q.At(x, y, 0))
			top := float64(q.At(x, up, 0))
			bottom := float64(q.At(x, down, 0))
			l := float64(q.At(left, y, 0))
			r := float64(q.At(right, y, 0))

			data = append(data, top+bottom+l+r-4*center)
		}
	}
	*buf = data

	_, std := stat.PopMeanStdDev(data, nil)
	return std * std, nil
}

// reflect101 maps an out-of-range index back into [0, n)
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	if i < 0 {
		return -i
	}
	if i >= n {
		return 2*n - 2 - i
	}
	return i
}

// CalculateHistogram counts the first channel of q into 256 bins
func (mc *metricsCalculator) CalculateHistogram(q Quadrant) ([]float64, error) {
	if q.Pixels() == 0 {
		return nil, emptyRegion(q)
	}

	hist := make([]float64, HistogramBins)
	for y := 0; y < q.Height(); y++ {
		for x := 0; x < q.Width(); x++ {
			hist[q.At(x, y, 0)]++
		}
	}
	return hist, nil
}

// NormalizeHistogram linearly rescales hist so its smallest bin maps to 0
// and its largest to 1. A flat histogram maps to all zeros.
func (mc *metricsCalculator) NormalizeHistogram(hist []float64) []float64 {
	out := make([]float64, len(hist))
	if len(hist) == 0 {
		return out
	}

	lo, hi := floats.Min(hist), floats.Max(hist)
	if hi-lo <= 0 {
		return out
	}

	copy(out, hist)
	floats.AddConst(-lo, out)
	floats.Scale(1/(hi-lo), out)
	return out
}

// ExposureSums returns the summed normalized heights of the dark window
// [0,50) and the bright window (200,255].
func (mc *metricsCalculator) ExposureSums(normalized []float64) (lower, upper float64) {
	if len(normalized) < HistogramBins {
		return 0, 0
	}
	lower = floats.Sum(normalized[:lowerWindowEnd])
	upper = floats.Sum(normalized[upperWindowStart:HistogramBins])
	return lower, upper
}
