package storage

import (
	"context"
	stderrors "errors"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	apperrors "go-dirtycam/internal/errors"
)

// ImageSource loads and decodes one image identified by ref
type ImageSource interface {
	Load(ctx context.Context, ref string) (image.Image, error)
}

// Decode reads an image from r, applying any EXIF orientation. Registered
// formats are JPEG, PNG, GIF, BMP, TIFF and WebP.
func Decode(r io.Reader, ref string) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, apperrors.NewDecodeError(fmt.Sprintf("failed to decode %s", ref), err)
	}
	return img, nil
}

// contextError converts a finished context into an AppError
func contextError(ctx context.Context, ref string) error {
	err := ctx.Err()
	if err == nil {
		return nil
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTimeoutError(fmt.Sprintf("loading %s timed out", ref), err)
	}
	return apperrors.NewInternalError(fmt.Sprintf("loading %s was cancelled", ref), err)
}
