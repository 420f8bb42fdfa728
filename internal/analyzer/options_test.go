package analyzer

import (
	"testing"

	"go-dirtycam/pkg/models"
)

func TestDefaultThresholds(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		name     string
		got      float64
		expected float64
	}{
		{"FlatColorStdDev", th.FlatColorStdDev, 20.0},
		{"NoiseStdDev", th.NoiseStdDev, 44.0},
		{"TintMean", th.TintMean, 50.0},
		{"TintStdDev", th.TintStdDev, 20.0},
		{"BlurVariance", th.BlurVariance, 100.0},
		{"ExposureSum", th.ExposureSum, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("Expected %s to be %f, got %f", tt.name, tt.expected, tt.got)
			}
		})
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if opts.Sequential {
		t.Error("Expected Sequential to be false by default")
	}
	if opts.Thresholds != DefaultThresholds() {
		t.Errorf("Expected default thresholds, got %+v", opts.Thresholds)
	}
}

func TestWithOverrides(t *testing.T) {
	blur := 250.0
	exposure := 0.8

	th := DefaultThresholds().WithOverrides(&models.ThresholdOverrides{
		BlurVariance: &blur,
		ExposureSum:  &exposure,
	})

	if th.BlurVariance != 250.0 {
		t.Errorf("Expected BlurVariance 250, got %f", th.BlurVariance)
	}
	if th.ExposureSum != 0.8 {
		t.Errorf("Expected ExposureSum 0.8, got %f", th.ExposureSum)
	}
	if th.NoiseStdDev != 44.0 {
		t.Errorf("Expected NoiseStdDev to stay 44, got %f", th.NoiseStdDev)
	}
}

func TestWithOverrides_Nil(t *testing.T) {
	if DefaultThresholds().WithOverrides(nil) != DefaultThresholds() {
		t.Error("Expected nil overrides to leave thresholds unchanged")
	}
}

func TestOptionsChaining(t *testing.T) {
	custom := DefaultThresholds()
	custom.NoiseStdDev = 10

	opts := DefaultOptions().WithThresholds(custom).WithSequential()

	if !opts.Sequential {
		t.Error("Expected Sequential to be true")
	}
	if opts.Thresholds.NoiseStdDev != 10 {
		t.Errorf("Expected NoiseStdDev 10, got %f", opts.Thresholds.NoiseStdDev)
	}
}
