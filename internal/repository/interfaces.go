package repository

import "context"

// ImageRepository turns user inputs into the list of image references to
// screen. References are local paths or HTTP(S) URLs understood by
// storage.ImageSource.
type ImageRepository interface {
	// List enumerates the images under root, which may be a directory or a
	// single file
	List(ctx context.Context, root string) ([]string, error)

	// Resolve expands every input in order. Directories are listed, files
	// and URLs pass through unchanged.
	Resolve(ctx context.Context, inputs []string) ([]string, error)
}
