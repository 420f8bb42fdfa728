package repository

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	apperrors "go-dirtycam/internal/errors"
	"go-dirtycam/internal/logger"
	"go-dirtycam/internal/storage"
)

// DefaultExtensions are the file extensions the decoders understand
var DefaultExtensions = []string{"jpg", "jpeg", "png", "gif", "bmp", "tif", "tiff", "webp"}

// DirectoryRepository lists image files on the local filesystem
type DirectoryRepository struct {
	recursive  bool
	extensions map[string]struct{}
}

// Option configures a DirectoryRepository
type Option func(*DirectoryRepository)

// WithRecursive descends into subdirectories
func WithRecursive(recursive bool) Option {
	return func(r *DirectoryRepository) { r.recursive = recursive }
}

// WithExtensions restricts listing to the given extensions, with or without
// a leading dot
func WithExtensions(exts ...string) Option {
	return func(r *DirectoryRepository) {
		if len(exts) == 0 {
			return
		}
		r.extensions = extensionSet(exts)
	}
}

// NewDirectoryRepository creates a repository that lists DefaultExtensions
// in a single directory level
func NewDirectoryRepository(opts ...Option) *DirectoryRepository {
	r := &DirectoryRepository{extensions: extensionSet(DefaultExtensions)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func extensionSet(exts []string) map[string]struct{} {
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e != "" {
			set[e] = struct{}{}
		}
	}
	return set
}

// IsImageFile reports whether name carries one of the accepted extensions
func (r *DirectoryRepository) IsImageFile(name string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	_, ok := r.extensions[ext]
	return ok
}

// List returns the image files under root in lexical order
func (r *DirectoryRepository) List(ctx context.Context, root string) ([]string, error) {
	if root == "" {
		return nil, apperrors.NewValidationError("no directory given", ErrEmptyInput)
	}

	info, err := os.Stat(root)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("%s does not exist", root), err)
		}
		return nil, apperrors.NewInternalError(fmt.Sprintf("cannot read %s", root), err)
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// An unreadable subdirectory is skipped, the root is not
			if path != root && d != nil && d.IsDir() {
				logger.WithError(err).WithField("path", path).Warn("Skipping unreadable directory")
				return fs.SkipDir
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if path != root && !r.recursive {
				return fs.SkipDir
			}
			return nil
		}
		if r.IsImageFile(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Sprintf("failed to list %s", root), err)
	}

	sort.Strings(files)

	logger.WithFields(logrus.Fields{
		"root":      root,
		"recursive": r.recursive,
		"images":    len(files),
	}).Debug("Listed image directory")

	return files, nil
}

// Resolve implements ImageRepository. Inputs that do not exist are passed
// through unchanged.
func (r *DirectoryRepository) Resolve(ctx context.Context, inputs []string) ([]string, error) {
	var refs []string
	for _, in := range inputs {
		in = strings.TrimSpace(in)
		if in == "" {
			continue
		}
		if storage.IsRemote(in) {
			refs = append(refs, in)
			continue
		}
		// A path that cannot be stat'ed is kept as a plain ref so loading
		// reports it as that image's failure instead of ending the batch
		if _, err := os.Stat(in); err != nil {
			logger.WithError(err).WithField("path", in).Warn("Input not readable, passing it through")
			refs = append(refs, in)
			continue
		}
		listed, err := r.List(ctx, in)
		if err != nil {
			return nil, err
		}
		refs = append(refs, listed...)
	}

	if len(refs) == 0 {
		return nil, apperrors.NewValidationError("nothing to screen", ErrNoImages)
	}
	return refs, nil
}
