package analyzer

import "go-dirtycam/pkg/models"

// ChannelStatistics holds per-channel mean and standard deviation. Only the
// first Channels entries are meaningful.
type ChannelStatistics struct {
	Channels int
	Mean     [3]float64
	StdDev   [3]float64
}

// Verdict is the result of one detector on one quadrant
type Verdict struct {
	Category  models.FaultCategory
	Quadrant  int
	Triggered bool
	Exposure  models.Exposure
	Metrics   map[string]float64
}
