package storage

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "go-dirtycam/internal/errors"
)

type recordingSource struct {
	name  string
	calls []string
}

func (s *recordingSource) Load(ctx context.Context, ref string) (image.Image, error) {
	s.calls = append(s.calls, ref)
	return image.NewGray(image.Rect(0, 0, 1, 1)), nil
}

func TestFileSource_Load(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frame.png")
	require.NoError(t, os.WriteFile(path, encodePNG(t, 6, 4, color.RGBA{200, 50, 50, 255}), 0o644))

	img, err := NewFileSource().Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 6, 4), img.Bounds())
}

func TestFileSource_Failures(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "broken.jpg")
	require.NoError(t, os.WriteFile(garbage, []byte("not a jpeg"), 0o644))

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "missing.jpg")},
		{"undecodable", garbage},
		{"directory", dir},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFileSource().Load(context.Background(), tt.path)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeDecode), "unexpected error: %v", err)
		})
	}
}

func TestFileSource_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFileSource().Load(ctx, "whatever.png")
	assert.Error(t, err)
	assert.False(t, apperrors.IsType(err, apperrors.ErrorTypeDecode))
}

func TestRouter_Dispatch(t *testing.T) {
	files := &recordingSource{name: "files"}
	web := &recordingSource{name: "web"}
	azure := &recordingSource{name: "azure"}
	router := NewRouter(files, web, azure)

	refs := []string{
		"photos/a.jpg",
		"https://example.com/b.png",
		"https://acct.blob.core.windows.net/photos/c.jpg",
		"HTTP://EXAMPLE.COM/D.PNG",
	}
	for _, ref := range refs {
		_, err := router.Load(context.Background(), ref)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"photos/a.jpg"}, files.calls)
	assert.Equal(t, []string{"https://example.com/b.png", "HTTP://EXAMPLE.COM/D.PNG"}, web.calls)
	assert.Equal(t, []string{"https://acct.blob.core.windows.net/photos/c.jpg"}, azure.calls)
}

func TestRouter_AzureFallsBackToHTTP(t *testing.T) {
	web := &recordingSource{name: "web"}
	router := NewRouter(nil, web, nil)

	_, err := router.Load(context.Background(), "https://acct.blob.core.windows.net/public/c.jpg")
	require.NoError(t, err)
	assert.Len(t, web.calls, 1)

	_, err = router.Load(context.Background(), "local.jpg")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestRouter_RemoteDisabled(t *testing.T) {
	router := NewRouter(&recordingSource{}, nil, nil)

	_, err := router.Load(context.Background(), "https://example.com/a.jpg")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestIsAzureBlobURL(t *testing.T) {
	assert.True(t, IsAzureBlobURL("https://acct.blob.core.windows.net/c/b.jpg"))
	assert.True(t, IsAzureBlobURL("https://ACCT.BLOB.CORE.WINDOWS.NET/c/b.jpg"))
	assert.False(t, IsAzureBlobURL("https://example.com/c/b.jpg"))
	assert.False(t, IsAzureBlobURL("/local/acct.blob.core.windows.net/b.jpg"))
}

func TestParseBlobURL(t *testing.T) {
	container, blob, err := ParseBlobURL("https://acct.blob.core.windows.net/cameras/site-1/frame.jpg")
	require.NoError(t, err)
	assert.Equal(t, "cameras", container)
	assert.Equal(t, "site-1/frame.jpg", blob)

	_, _, err = ParseBlobURL("https://acct.blob.core.windows.net/cameras")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}
