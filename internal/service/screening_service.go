package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"go-dirtycam/internal/analyzer"
	apperrors "go-dirtycam/internal/errors"
	"go-dirtycam/internal/logger"
	"go-dirtycam/internal/reporter"
	"go-dirtycam/internal/storage"
	"go-dirtycam/pkg/models"
)

// Result is the outcome of screening one image. Exactly one of Report and
// Err is meaningful.
type Result struct {
	Image    string
	Report   models.FaultReport
	Err      error
	Duration time.Duration
}

// OK reports whether the image was screened
func (r Result) OK() bool {
	return r.Err == nil
}

// ScreeningService loads images, screens them and streams the outcomes to
// a reporter. No single image failure aborts a batch.
type ScreeningService interface {
	// ScreenImage screens an already decoded image
	ScreenImage(ctx context.Context, name string, img image.Image, options analyzer.AnalysisOptions) Result

	// ScreenReader decodes an image from r, then screens it
	ScreenReader(ctx context.Context, name string, r io.Reader, options analyzer.AnalysisOptions) Result

	// ScreenRef loads the image behind ref, then screens it
	ScreenRef(ctx context.Context, ref string, options analyzer.AnalysisOptions) Result

	// ScreenBatch screens refs concurrently and returns results in input order
	ScreenBatch(ctx context.Context, refs []string, options analyzer.AnalysisOptions) []Result
}

type screeningService struct {
	source   storage.ImageSource
	analyzer analyzer.ImageAnalyzer
	reporter reporter.Reporter
	workers  int
	timeout  time.Duration
}

// Option configures the screening service
type Option func(*screeningService)

// WithWorkers sets how many images are screened at once. Zero or less
// means one per CPU.
func WithWorkers(n int) Option {
	return func(s *screeningService) { s.workers = n }
}

// WithAnalysisTimeout bounds the wall-clock time spent on one image,
// loading included. Zero disables the bound.
func WithAnalysisTimeout(d time.Duration) Option {
	return func(s *screeningService) { s.timeout = d }
}

// NewScreeningService creates a screening service. A nil reporter discards
// outcomes.
func NewScreeningService(
	source storage.ImageSource,
	imageAnalyzer analyzer.ImageAnalyzer,
	rep reporter.Reporter,
	opts ...Option,
) ScreeningService {
	if rep == nil {
		rep = reporter.NewPublisher()
	}
	s := &screeningService{
		source:   source,
		analyzer: imageAnalyzer,
		reporter: rep,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScreenImage implements ScreeningService
func (s *screeningService) ScreenImage(ctx context.Context, name string, img image.Image, options analyzer.AnalysisOptions) Result {
	return s.screen(ctx, name, options, func(context.Context) (image.Image, error) {
		return img, nil
	})
}

// ScreenReader implements ScreeningService
func (s *screeningService) ScreenReader(ctx context.Context, name string, r io.Reader, options analyzer.AnalysisOptions) Result {
	return s.screen(ctx, name, options, func(context.Context) (image.Image, error) {
		return storage.Decode(r, name)
	})
}

// ScreenRef implements ScreeningService
func (s *screeningService) ScreenRef(ctx context.Context, ref string, options analyzer.AnalysisOptions) Result {
	return s.screen(ctx, ref, options, func(ctx context.Context) (image.Image, error) {
		return s.source.Load(ctx, ref)
	})
}

// ScreenBatch implements ScreeningService
func (s *screeningService) ScreenBatch(ctx context.Context, refs []string, options analyzer.AnalysisOptions) []Result {
	start := time.Now()
	results := make([]Result, len(refs))

	pool := analyzer.NewWorkerPool(s.workers)
	pool.Start()
	for i, ref := range refs {
		// Stays in place if the job dies before producing a result
		results[i] = Result{Image: ref, Err: apperrors.NewInternalError(
			fmt.Sprintf("screening %s did not complete", ref), nil)}
		pool.Submit(func() {
			results[i] = s.ScreenRef(ctx, ref, options)
		})
	}
	pool.Wait()
	pool.Close()
	poolStats := pool.GetStats()

	failed := 0
	for _, r := range results {
		if !r.OK() {
			failed++
		}
	}
	logger.WithFields(logrus.Fields{
		"images":      len(refs),
		"failed":      failed,
		"workers":     pool.Workers(),
		"jobs":        poolStats.CompletedJobs,
		"panicked":    poolStats.PanickedJobs,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Batch screening finished")

	return results
}

// screen runs load and analysis under the per-image budget and publishes
// the outcome
func (s *screeningService) screen(
	ctx context.Context,
	name string,
	options analyzer.AnalysisOptions,
	load func(context.Context) (image.Image, error),
) Result {
	start := time.Now()

	budget, cancel := s.withBudget(ctx)
	defer cancel()

	done := make(chan Result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- Result{Image: name, Err: apperrors.NewInternalError(
					fmt.Sprintf("screening %s panicked: %v", name, r), nil)}
			}
		}()
		img, err := load(budget)
		if err != nil {
			done <- Result{Image: name, Err: err}
			return
		}
		report, err := s.analyzer.AnalyzeImage(name, img, options)
		done <- Result{Image: name, Report: report, Err: err}
	}()

	var result Result
	select {
	case result = <-done:
		var appErr *apperrors.AppError
		if result.Err != nil && budget.Err() != nil && !stderrors.As(result.Err, &appErr) {
			result.Err = s.budgetError(budget, name)
		}
	case <-budget.Done():
		// The analysis goroutine finishes on its own; its result is dropped
		result = Result{Image: name, Err: s.budgetError(budget, name)}
	}
	result.Duration = time.Since(start)

	if result.OK() {
		logger.WithFields(logrus.Fields{
			"image":       name,
			"fault_count": result.Report.FaultCount,
			"duration_ms": result.Duration.Milliseconds(),
		}).Debug("Image screened")
		s.reporter.OnReport(ctx, result.Report)
	} else {
		s.reporter.OnFailure(ctx, name, result.Err)
	}
	return result
}

func (s *screeningService) withBudget(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *screeningService) budgetError(ctx context.Context, name string) error {
	err := ctx.Err()
	if stderrors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTimeoutError(fmt.Sprintf("screening %s exceeded %s", name, s.timeout), err)
	}
	return apperrors.NewInternalError(fmt.Sprintf("screening %s was cancelled", name), err)
}
