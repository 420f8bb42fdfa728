package storage

import (
	"context"
	"fmt"
	"image"
	"os"

	apperrors "go-dirtycam/internal/errors"
)

// FileSource reads images from the local filesystem
type FileSource struct{}

// NewFileSource creates a local file source
func NewFileSource() *FileSource {
	return &FileSource{}
}

// Load opens and decodes the file at path. A missing or unreadable file is
// a decode failure like any other.
func (s *FileSource) Load(ctx context.Context, path string) (image.Image, error) {
	if err := contextError(ctx, path); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewDecodeError(fmt.Sprintf("failed to open %s", path), err)
	}
	defer f.Close()

	return Decode(f, path)
}
