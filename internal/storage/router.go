package storage

import (
	"context"
	"fmt"
	"image"
	"strings"

	apperrors "go-dirtycam/internal/errors"
)

// Router dispatches a reference to the source that understands it: Azure
// blob URLs, then other HTTP(S) URLs, then local paths.
type Router struct {
	files ImageSource
	web   ImageSource
	azure ImageSource
}

// NewRouter creates a router. web and azure may be nil, in which case the
// matching references are rejected.
func NewRouter(files, web, azure ImageSource) *Router {
	return &Router{files: files, web: web, azure: azure}
}

// Load implements ImageSource
func (r *Router) Load(ctx context.Context, ref string) (image.Image, error) {
	source, err := r.route(ref)
	if err != nil {
		return nil, err
	}
	return source.Load(ctx, ref)
}

func (r *Router) route(ref string) (ImageSource, error) {
	switch {
	case IsAzureBlobURL(ref) && r.azure != nil:
		return r.azure, nil
	case IsRemote(ref):
		if r.web == nil {
			return nil, apperrors.NewValidationError(fmt.Sprintf("remote images are disabled: %s", ref), nil)
		}
		return r.web, nil
	default:
		if r.files == nil {
			return nil, apperrors.NewValidationError(fmt.Sprintf("local images are disabled: %s", ref), nil)
		}
		return r.files, nil
	}
}

// IsRemote reports whether ref is an HTTP(S) URL
func IsRemote(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
