package reporter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"go-dirtycam/internal/storage"
	"go-dirtycam/pkg/models"
)

// displayName shortens local paths to their file name; URLs are kept whole
func displayName(image string) string {
	if storage.IsRemote(image) {
		return image
	}
	return filepath.Base(image)
}

// TextReporter prints one human-readable line per image
type TextReporter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTextReporter creates a text reporter writing to w
func NewTextReporter(w io.Writer) *TextReporter {
	return &TextReporter{w: w}
}

// OnReport implements Reporter
func (r *TextReporter) OnReport(ctx context.Context, report models.FaultReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, "Image %s has %d/%d faults.\n", displayName(report.Image), report.FaultCount, report.MaxFaults)
}

// OnFailure implements Reporter
func (r *TextReporter) OnFailure(ctx context.Context, image string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, "An error occurred while loading %s: %v\n", displayName(image), err)
}

// Name implements Reporter
func (r *TextReporter) Name() string {
	return "text"
}

// jsonRecord is one line of JSON output
type jsonRecord struct {
	Image     string                 `json:"image"`
	Report    *models.FaultReport    `json:"report,omitempty"`
	Triggered []models.FaultCategory `json:"triggered,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// JSONReporter writes one JSON object per image
type JSONReporter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONReporter creates a JSON lines reporter writing to w
func NewJSONReporter(w io.Writer) *JSONReporter {
	return &JSONReporter{enc: json.NewEncoder(w)}
}

// OnReport implements Reporter
func (r *JSONReporter) OnReport(ctx context.Context, report models.FaultReport) {
	r.write(jsonRecord{
		Image:     report.Image,
		Report:    &report,
		Triggered: report.TriggeredCategories(),
	})
}

// OnFailure implements Reporter
func (r *JSONReporter) OnFailure(ctx context.Context, image string, err error) {
	r.write(jsonRecord{Image: image, Error: err.Error()})
}

// Name implements Reporter
func (r *JSONReporter) Name() string {
	return "json"
}

func (r *JSONReporter) write(rec jsonRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Encoder appends the newline
	_ = r.enc.Encode(rec)
}
