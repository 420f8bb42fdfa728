package container

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"go-dirtycam/internal/analyzer"
	"go-dirtycam/internal/config"
	"go-dirtycam/internal/factory"
	"go-dirtycam/internal/reporter"
	"go-dirtycam/internal/repository"
	"go-dirtycam/internal/service"
	"go-dirtycam/internal/transport"
	"go-dirtycam/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config      *config.Config
	options     analyzer.AnalysisOptions
	summary     *reporter.SummaryReporter
	repository  repository.ImageRepository
	service     service.ScreeningService
	validator   *validation.URLValidator
	handlerOnce sync.Once
	handler     http.Handler
}

// Option adjusts how the container is assembled
type Option func(*settings)

type settings struct {
	format    string
	output    io.Writer
	recursive bool
	exts      []string
}

// WithFormat adds a text or json reporter
func WithFormat(format string) Option {
	return func(s *settings) { s.format = format }
}

// WithOutput sets where the format reporter writes. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(s *settings) { s.output = w }
}

// WithRecursive makes directory inputs include subdirectories
func WithRecursive(recursive bool) Option {
	return func(s *settings) { s.recursive = recursive }
}

// WithExtensions restricts directory listings to the given extensions
func WithExtensions(exts ...string) Option {
	return func(s *settings) { s.exts = exts }
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config, opts ...Option) (*Container, error) {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	components := factory.NewComponentFactory(cfg)

	source, err := components.StorageFactory.CreateRouter()
	if err != nil {
		return nil, fmt.Errorf("failed to create image sources: %w", err)
	}

	summary := reporter.NewSummaryReporter()
	publisher, err := components.ReporterFactory.CreatePublisher(s.format, summary, s.output)
	if err != nil {
		return nil, fmt.Errorf("failed to create reporters: %w", err)
	}

	options := components.AnalyzerFactory.Options()
	screening := service.NewScreeningService(
		source,
		components.AnalyzerFactory.CreateAnalyzer(),
		publisher,
		service.WithWorkers(cfg.Workers),
		service.WithAnalysisTimeout(cfg.AnalysisTimeout),
	)

	repoOpts := []repository.Option{repository.WithRecursive(s.recursive)}
	if len(s.exts) > 0 {
		repoOpts = append(repoOpts, repository.WithExtensions(s.exts...))
	}

	validator := validation.NewURLValidator()
	if len(cfg.AllowedHosts) > 0 {
		validator = validation.NewURLValidatorWithOptions([]string{"http", "https"}, cfg.AllowedHosts)
	}

	c := &Container{
		config:     cfg,
		options:    options,
		summary:    summary,
		repository: repository.NewDirectoryRepository(repoOpts...),
		service:    screening,
		validator:  validator,
	}
	return c, nil
}

// Handler returns the HTTP handler, building it on first use. Gin runs in
// release mode unless the log level is debug.
func (c *Container) Handler() http.Handler {
	c.handlerOnce.Do(func() {
		if !strings.EqualFold(c.config.LogLevel, "debug") {
			gin.SetMode(gin.ReleaseMode)
		}
		c.handler = transport.NewHandler(transport.Dependencies{
			Service:   c.service,
			Summary:   c.summary,
			Validator: c.validator,
			Options:   c.options,
			Config:    c.config,
		})
	})
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Options returns the analysis options built from the configuration
func (c *Container) Options() analyzer.AnalysisOptions {
	return c.options
}

// Service returns the screening service
func (c *Container) Service() service.ScreeningService {
	return c.service
}

// Repository returns the input resolver
func (c *Container) Repository() repository.ImageRepository {
	return c.repository
}

// Summary returns the running batch summary
func (c *Container) Summary() *reporter.SummaryReporter {
	return c.summary
}
