package factory

import (
	"fmt"
	"io"
	"os"

	"go-dirtycam/internal/analyzer"
	"go-dirtycam/internal/config"
	"go-dirtycam/internal/logger"
	"go-dirtycam/internal/reporter"
	"go-dirtycam/internal/storage"
)

// StorageType represents different types of image sources
type StorageType string

const (
	// LocalStorage reads from the file system
	LocalStorage StorageType = "local"
	// HTTPStorage downloads over HTTP(S)
	HTTPStorage StorageType = "http"
	// AzureStorage reads from Azure Blob Storage
	AzureStorage StorageType = "azure"
)

// StorageFactory creates image sources
type StorageFactory interface {
	CreateStorage(storageType StorageType) (storage.ImageSource, error)
	// CreateRouter combines every source the configuration enables
	CreateRouter() (storage.ImageSource, error)
}

// storageFactory implements StorageFactory
type storageFactory struct {
	cfg *config.Config
}

// NewStorageFactory creates a storage factory bound to cfg
func NewStorageFactory(cfg *config.Config) StorageFactory {
	return &storageFactory{cfg: cfg}
}

// CreateStorage creates a source of the specified type
func (f *storageFactory) CreateStorage(storageType StorageType) (storage.ImageSource, error) {
	switch storageType {
	case LocalStorage:
		return storage.NewFileSource(), nil
	case HTTPStorage:
		return storage.NewHTTPSource(
			storage.WithTimeout(f.cfg.ImageFetchTimeout),
			storage.WithMaxBytes(f.cfg.MaxRequestBodySize),
		), nil
	case AzureStorage:
		if f.cfg.AzureAccount == "" {
			return nil, fmt.Errorf("azure storage requires AZURE_STORAGE_ACCOUNT")
		}
		return storage.NewAzureSource(f.cfg.AzureAccount, f.cfg.AzureKey)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

// CreateRouter implements StorageFactory
func (f *storageFactory) CreateRouter() (storage.ImageSource, error) {
	files, err := f.CreateStorage(LocalStorage)
	if err != nil {
		return nil, err
	}

	var web, azure storage.ImageSource
	if f.cfg.AllowRemote {
		if web, err = f.CreateStorage(HTTPStorage); err != nil {
			return nil, err
		}
		if f.cfg.AzureAccount != "" {
			if azure, err = f.CreateStorage(AzureStorage); err != nil {
				return nil, err
			}
		}
	}

	logger.WithField("local", true).
		WithField("http", web != nil).
		WithField("azure", azure != nil).
		Debug("Image sources configured")

	return storage.NewRouter(files, web, azure), nil
}

// AnalyzerFactory creates image analyzers
type AnalyzerFactory interface {
	CreateAnalyzer() analyzer.ImageAnalyzer
	Options() analyzer.AnalysisOptions
}

type analyzerFactory struct {
	cfg *config.Config
}

// NewAnalyzerFactory creates an analyzer factory bound to cfg
func NewAnalyzerFactory(cfg *config.Config) AnalyzerFactory {
	return &analyzerFactory{cfg: cfg}
}

// CreateAnalyzer returns the default five-detector analyzer
func (f *analyzerFactory) CreateAnalyzer() analyzer.ImageAnalyzer {
	return analyzer.NewImageAnalyzer()
}

// Options returns the analysis options with the configured thresholds and
// fan-out mode
func (f *analyzerFactory) Options() analyzer.AnalysisOptions {
	opts := analyzer.DefaultOptions().WithThresholds(f.cfg.Thresholds)
	if f.cfg.SequentialAnalysis {
		opts = opts.WithSequential()
	}
	return opts
}

// ReporterFactory creates the reporter chain
type ReporterFactory interface {
	// CreatePublisher returns a publisher feeding summary, plus a format
	// reporter writing to out (stdout when nil) when format is not empty
	CreatePublisher(format string, summary *reporter.SummaryReporter, out io.Writer) (*reporter.Publisher, error)
}

type reporterFactory struct{}

// NewReporterFactory creates a reporter factory
func NewReporterFactory() ReporterFactory {
	return &reporterFactory{}
}

// CreatePublisher implements ReporterFactory
func (f *reporterFactory) CreatePublisher(format string, summary *reporter.SummaryReporter, out io.Writer) (*reporter.Publisher, error) {
	pub := reporter.NewPublisher(reporter.NewLoggingReporter(logger.Logger), summary)
	if format == "" {
		return pub, nil
	}

	parsed, err := reporter.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = os.Stdout
	}
	formatted, err := reporter.New(parsed, out)
	if err != nil {
		return nil, err
	}
	pub.Subscribe(formatted)
	return pub, nil
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	AnalyzerFactory AnalyzerFactory
	StorageFactory  StorageFactory
	ReporterFactory ReporterFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(cfg *config.Config) *ComponentFactory {
	return &ComponentFactory{
		AnalyzerFactory: NewAnalyzerFactory(cfg),
		StorageFactory:  NewStorageFactory(cfg),
		ReporterFactory: NewReporterFactory(),
	}
}
