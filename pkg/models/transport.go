package models

// ThresholdOverrides lets a request replace individual detector thresholds
type ThresholdOverrides struct {
	FlatColorStdDev *float64 `json:"flat_color_stddev,omitempty"`
	NoiseStdDev     *float64 `json:"noise_stddev,omitempty"`
	TintMean        *float64 `json:"tint_mean,omitempty"`
	TintStdDev      *float64 `json:"tint_stddev,omitempty"`
	BlurVariance    *float64 `json:"blur_variance,omitempty"`
	ExposureSum     *float64 `json:"exposure_sum,omitempty"`
}

// ScreenURLRequest asks the server to fetch and screen a remote image
type ScreenURLRequest struct {
	URL        string              `json:"url" binding:"required,url"`
	Thresholds *ThresholdOverrides `json:"thresholds,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// ScreenResponse wraps a report with request timing
type ScreenResponse struct {
	Report            FaultReport `json:"report"`
	Timestamp         string      `json:"timestamp"`
	ProcessingTimeSec float64     `json:"processing_time_sec"`
}
