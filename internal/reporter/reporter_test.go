package reporter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "go-dirtycam/internal/errors"
	"go-dirtycam/pkg/models"
)

func report(name string, triggered ...models.FaultCategory) models.FaultReport {
	r := models.FaultReport{Image: name, MaxFaults: models.MaxFaults}
	fired := make(map[models.FaultCategory]bool)
	for _, c := range triggered {
		fired[c] = true
	}
	for _, c := range models.Categories {
		r.Categories = append(r.Categories, models.CategoryResult{Category: c, Triggered: fired[c]})
		if fired[c] {
			r.FaultCount++
		}
	}
	return r
}

type panicky struct{}

func (panicky) OnReport(context.Context, models.FaultReport) { panic("boom") }
func (panicky) OnFailure(context.Context, string, error) { panic("boom") }
func (panicky) Name() string { return "panicky" }

func TestTextReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewTextReporter(&buf)
	ctx := context.Background()

	r.OnReport(ctx, report("/data/cams/front.jpg", models.CategoryBlur, models.CategoryExposure))
	r.OnFailure(ctx, "/data/cams/broken.jpg", errors.New("unexpected EOF"))
	r.OnReport(ctx, report("https://example.com/x.png"))

	assert.Equal(t,
		"Image front.jpg has 2/5 faults.\n"+
			"An error occurred while loading broken.jpg: unexpected EOF\n"+
			"Image https://example.com/x.png has 0/5 faults.\n",
		buf.String())
}

func TestJSONReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewJSONReporter(&buf)
	ctx := context.Background()

	r.OnReport(ctx, report("a.jpg", models.CategoryNoise))
	r.OnFailure(ctx, "b.jpg", apperrors.NewDecodeError("failed to decode b.jpg", nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first struct {
		Image     string             `json:"image"`
		Report    models.FaultReport `json:"report"`
		Triggered []string           `json:"triggered"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "a.jpg", first.Image)
	assert.Equal(t, 1, first.Report.FaultCount)
	assert.Equal(t, []string{"noise"}, first.Triggered)

	var second map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "b.jpg", second["image"])
	assert.Contains(t, second["error"], "failed to decode b.jpg")
	assert.NotContains(t, second, "report")
}

func TestLoggingReporter(t *testing.T) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	r := NewLoggingReporter(log)
	ctx := context.Background()

	r.OnReport(ctx, report("a.jpg", models.CategoryTint))
	require.Len(t, hook.Entries, 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "a.jpg", entry.Data["image"])
	assert.Equal(t, 1, entry.Data["fault_count"])
	assert.Equal(t, true, entry.Data["tint"])

	r.OnReport(ctx, report("clean.jpg"))
	assert.Equal(t, logrus.DebugLevel, hook.LastEntry().Level)

	r.OnFailure(ctx, "b.jpg", errors.New("boom"))
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Equal(t, "b.jpg", hook.LastEntry().Data["image"])
}

func TestSummaryReporter(t *testing.T) {
	r := NewSummaryReporter()
	ctx := context.Background()

	empty := r.Summary()
	assert.Zero(t, empty.Screened)
	assert.Zero(t, empty.MeanFaults)

	r.OnReport(ctx, report("a", models.CategoryBlur))
	r.OnReport(ctx, report("b"))
	r.OnReport(ctx, report("c", models.CategoryBlur, models.CategoryExposure, models.CategoryFlatColor))
	r.OnReport(ctx, report("d", models.CategoryExposure, models.CategoryBlur))
	r.OnFailure(ctx, "e", errors.New("boom"))

	s := r.Summary()
	assert.Equal(t, 4, s.Screened)
	assert.Equal(t, 1, s.Failed)
	assert.InDelta(t, 1.5, s.MeanFaults, 1e-9)
	assert.InDelta(t, 1.5, s.MedianFaults, 1e-9)
	assert.Equal(t, 3, s.MaxFaultCount)
	assert.Equal(t, 1, s.FaultFreeImages)
	assert.Equal(t, 3, s.CategoryCounts[models.CategoryBlur])
	assert.Equal(t, 2, s.CategoryCounts[models.CategoryExposure])
	assert.Equal(t, 1, s.CategoryCounts[models.CategoryFlatColor])

	r.Reset()
	assert.Zero(t, r.Summary().Screened)
	assert.Zero(t, r.Summary().Failed)
}

func TestSummaryReporter_BoundedSample(t *testing.T) {
	r := NewSummaryReporter(WithSampleSize(3))
	ctx := context.Background()

	r.OnReport(ctx, report("a", models.CategoryBlur, models.CategoryExposure, models.CategoryNoise))
	r.OnReport(ctx, report("b", models.CategoryBlur, models.CategoryExposure, models.CategoryNoise))
	r.OnReport(ctx, report("c"))
	r.OnReport(ctx, report("d"))
	r.OnReport(ctx, report("e", models.CategoryBlur))

	assert.Len(t, r.sample, 3)

	s := r.Summary()
	assert.Equal(t, 5, s.Screened)
	assert.InDelta(t, 7.0/5, s.MeanFaults, 1e-9)
	assert.Equal(t, 3, s.MaxFaultCount)
	assert.Equal(t, 2, s.FaultFreeImages)
	// Only c, d and e remain in the sample
	assert.InDelta(t, 0, s.MedianFaults, 1e-9)
}

func TestPublisher_FanOut(t *testing.T) {
	var text bytes.Buffer
	summary := NewSummaryReporter()
	p := NewPublisher(panicky{}, NewTextReporter(&text), summary, nil)
	ctx := context.Background()

	p.OnReport(ctx, report("a.jpg", models.CategoryNoise))
	p.OnFailure(ctx, "b.jpg", errors.New("boom"))

	assert.Equal(t, "Image a.jpg has 1/5 faults.\nAn error occurred while loading b.jpg: boom\n", text.String())
	assert.Equal(t, 1, summary.Summary().Screened)
	assert.Equal(t, 1, summary.Summary().Failed)

	p.Unsubscribe(summary)
	p.OnReport(ctx, report("c.jpg"))
	assert.Equal(t, 1, summary.Summary().Screened)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected Format
		errMsg   string
	}{
		{"text", FormatText, ""},
		{" JSON ", FormatJSON, ""},
		{"jsno", "", `did you mean "json"`},
		{"txt", "", `did you mean "text"`},
		{"yaml", "", `unknown output format "yaml"`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			f, err := ParseFormat(tt.input)
			if tt.errMsg == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, f)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestParseFormat_NoSuggestionWhenFar(t *testing.T) {
	_, err := ParseFormat("protobuf")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "did you mean")
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer

	r, err := New(FormatJSON, &buf)
	require.NoError(t, err)
	assert.Equal(t, "json", r.Name())

	_, err = New("xml", &buf)
	assert.Error(t, err)
}
