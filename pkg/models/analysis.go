package models

// FaultCategory names one of the independent defect checks
type FaultCategory string

const (
	CategoryFlatColor FaultCategory = "flat_color"
	CategoryNoise     FaultCategory = "noise"
	CategoryTint      FaultCategory = "tint"
	CategoryBlur      FaultCategory = "blur"
	CategoryExposure  FaultCategory = "exposure"
)

// MaxFaults is the number of fault categories an image can trigger
const MaxFaults = 5

// Categories lists every fault category in report order
var Categories = []FaultCategory{
	CategoryFlatColor,
	CategoryNoise,
	CategoryTint,
	CategoryBlur,
	CategoryExposure,
}

// Exposure is the three-way verdict of the exposure check
type Exposure string

const (
	ExposureProper Exposure = "properly_exposed"
	ExposureUnder  Exposure = "underexposed"
	ExposureOver   Exposure = "overexposed"
)

// QuadrantFinding is one detector's verdict for one quadrant
type QuadrantFinding struct {
	Quadrant  int                `json:"quadrant"`
	Triggered bool               `json:"triggered"`
	Skipped   bool               `json:"skipped,omitempty"`
	Exposure  Exposure           `json:"exposure,omitempty"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// CategoryResult folds the four quadrant findings of one category
type CategoryResult struct {
	Category  FaultCategory     `json:"category"`
	Triggered bool              `json:"triggered"`
	Quadrants []QuadrantFinding `json:"quadrants"`
}

// FaultReport is the outcome of screening one image
type FaultReport struct {
	Image      string           `json:"image"`
	Width      int              `json:"width"`
	Height     int              `json:"height"`
	FaultCount int              `json:"fault_count"`
	MaxFaults  int              `json:"max_faults"`
	Categories []CategoryResult `json:"categories"`
}

// Triggered reports whether the given category fired for this image
func (r FaultReport) Triggered(category FaultCategory) bool {
	for _, c := range r.Categories {
		if c.Category == category {
			return c.Triggered
		}
	}
	return false
}

// TriggeredCategories returns the categories that fired, in report order
func (r FaultReport) TriggeredCategories() []FaultCategory {
	var out []FaultCategory
	for _, c := range r.Categories {
		if c.Triggered {
			out = append(out, c.Category)
		}
	}
	return out
}

// BatchSummary aggregates the reports of one screening run
type BatchSummary struct {
	Screened        int                   `json:"screened"`
	Failed          int                   `json:"failed"`
	MeanFaults      float64               `json:"mean_faults"`
	MedianFaults    float64               `json:"median_faults"`
	MaxFaultCount   int                   `json:"max_fault_count"`
	CategoryCounts  map[FaultCategory]int `json:"category_counts"`
	FaultFreeImages int                   `json:"fault_free_images"`
}
