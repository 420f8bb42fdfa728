package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-dirtycam/internal/analyzer"
	apperrors "go-dirtycam/internal/errors"
	"go-dirtycam/internal/reporter"
	"go-dirtycam/pkg/models"
)

// fakeSource serves fixed images by name; unknown names fail to decode
type fakeSource struct {
	mu     sync.Mutex
	images map[string]image.Image
	delay  time.Duration
	loads  int
}

func (f *fakeSource) Load(ctx context.Context, ref string) (image.Image, error) {
	f.mu.Lock()
	f.loads++
	img, ok := f.images[ref]
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if !ok {
		return nil, apperrors.NewDecodeError(fmt.Sprintf("failed to decode %s", ref), nil)
	}
	return img, nil
}

func solid(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func stripes(w, h int) image.Image {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x%2 == 1 {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

func newTestService(src *fakeSource, opts ...Option) (ScreeningService, *bytes.Buffer, *reporter.SummaryReporter) {
	var out bytes.Buffer
	summary := reporter.NewSummaryReporter()
	pub := reporter.NewPublisher(reporter.NewTextReporter(&out), summary)
	return NewScreeningService(src, analyzer.NewImageAnalyzer(), pub, opts...), &out, summary
}

func TestScreenRef_BlackImage(t *testing.T) {
	src := &fakeSource{images: map[string]image.Image{"black.jpg": solid(4, 4, color.Black)}}
	svc, out, _ := newTestService(src)

	result := svc.ScreenRef(context.Background(), "black.jpg", analyzer.DefaultOptions())

	require.True(t, result.OK())
	assert.Equal(t, "black.jpg", result.Image)
	assert.Equal(t, 3, result.Report.FaultCount)
	assert.Equal(t, "Image black.jpg has 3/5 faults.\n", out.String())
}

func TestScreenRef_DecodeFailureIsReported(t *testing.T) {
	svc, out, summary := newTestService(&fakeSource{})

	result := svc.ScreenRef(context.Background(), "corrupt.jpg", analyzer.DefaultOptions())

	assert.False(t, result.OK())
	assert.True(t, apperrors.IsType(result.Err, apperrors.ErrorTypeDecode))
	assert.True(t, strings.HasPrefix(out.String(), "An error occurred while loading corrupt.jpg: "))
	assert.Equal(t, 1, summary.Summary().Failed)
}

func TestScreenImage_InvalidImage(t *testing.T) {
	svc, _, summary := newTestService(&fakeSource{})

	result := svc.ScreenImage(context.Background(), "empty.png",
		image.NewRGBA(image.Rect(0, 0, 0, 5)), analyzer.DefaultOptions())

	assert.True(t, apperrors.IsType(result.Err, apperrors.ErrorTypeInvalidImage))
	assert.Equal(t, 1, summary.Summary().Failed)
}

func TestScreenRef_Timeout(t *testing.T) {
	src := &fakeSource{
		images: map[string]image.Image{"slow.jpg": solid(4, 4, color.White)},
		delay:  time.Second,
	}
	svc, _, _ := newTestService(src, WithAnalysisTimeout(20*time.Millisecond))

	start := time.Now()
	result := svc.ScreenRef(context.Background(), "slow.jpg", analyzer.DefaultOptions())

	assert.True(t, apperrors.IsType(result.Err, apperrors.ErrorTypeTimeout), "unexpected error: %v", result.Err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestScreenBatch_OrderAndFold(t *testing.T) {
	src := &fakeSource{images: map[string]image.Image{
		"black.jpg":   solid(8, 8, color.Black),
		"white.jpg":   solid(8, 8, color.White),
		"stripes.png": stripes(16, 16),
	}}
	svc, out, summary := newTestService(src, WithWorkers(2))

	refs := []string{"black.jpg", "missing.jpg", "white.jpg", "stripes.png"}
	results := svc.ScreenBatch(context.Background(), refs, analyzer.DefaultOptions())

	require.Len(t, results, len(refs))
	for i, r := range results {
		assert.Equal(t, refs[i], r.Image)
	}
	assert.True(t, results[0].OK())
	assert.False(t, results[1].OK())
	assert.True(t, results[2].OK())
	assert.True(t, results[3].OK())

	assert.Equal(t, 3, results[0].Report.FaultCount)
	assert.Equal(t, 3, results[2].Report.FaultCount)
	assert.False(t, results[3].Report.Triggered(models.CategoryBlur))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, len(refs))

	s := summary.Summary()
	assert.Equal(t, 3, s.Screened)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, len(refs), src.loads)
}

func TestScreenBatch_Empty(t *testing.T) {
	svc, out, _ := newTestService(&fakeSource{})

	results := svc.ScreenBatch(context.Background(), nil, analyzer.DefaultOptions())
	assert.Empty(t, results)
	assert.Empty(t, out.String())
}

func TestScreenBatch_ThresholdOverrides(t *testing.T) {
	src := &fakeSource{images: map[string]image.Image{"black.jpg": solid(8, 8, color.Black)}}
	svc, _, _ := newTestService(src)

	th := analyzer.DefaultThresholds()
	th.BlurVariance = 0
	results := svc.ScreenBatch(context.Background(), []string{"black.jpg"},
		analyzer.DefaultOptions().WithThresholds(th))

	require.True(t, results[0].OK())
	assert.Equal(t, 2, results[0].Report.FaultCount)
}

func TestNewScreeningService_NilReporter(t *testing.T) {
	src := &fakeSource{images: map[string]image.Image{"a.png": solid(4, 4, color.Black)}}
	svc := NewScreeningService(src, analyzer.NewImageAnalyzer(), nil)

	result := svc.ScreenRef(context.Background(), "a.png", analyzer.DefaultOptions())
	assert.True(t, result.OK())
}

func TestScreenReader(t *testing.T) {
	svc, out, _ := newTestService(&fakeSource{})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(6, 6, color.White)))

	result := svc.ScreenReader(context.Background(), "upload.png", &buf, analyzer.DefaultOptions())
	require.True(t, result.OK())
	assert.True(t, result.Report.Triggered(models.CategoryExposure))

	bad := svc.ScreenReader(context.Background(), "junk.png", strings.NewReader("junk"), analyzer.DefaultOptions())
	assert.True(t, apperrors.IsType(bad.Err, apperrors.ErrorTypeDecode))
	assert.Contains(t, out.String(), "An error occurred while loading junk.png")
}

type panickingSource struct{}

func (panickingSource) Load(context.Context, string) (image.Image, error) {
	panic("driver crashed")
}

func TestScreenBatch_PanicIsPerImage(t *testing.T) {
	var out bytes.Buffer
	summary := reporter.NewSummaryReporter()
	svc := NewScreeningService(panickingSource{}, analyzer.NewImageAnalyzer(),
		reporter.NewPublisher(reporter.NewTextReporter(&out), summary), WithWorkers(2))

	results := svc.ScreenBatch(context.Background(), []string{"a.jpg", "b.jpg"}, analyzer.DefaultOptions())

	require.Len(t, results, 2)
	for _, r := range results {
		assert.True(t, apperrors.IsType(r.Err, apperrors.ErrorTypeInternal), "unexpected error: %v", r.Err)
	}
	assert.Equal(t, 2, summary.Summary().Failed)
	assert.Contains(t, out.String(), "An error occurred while loading a.jpg")
}
