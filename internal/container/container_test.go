package container

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-dirtycam/internal/analyzer"
	"go-dirtycam/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Host:               "127.0.0.1",
		Port:               "8080",
		RequestTimeout:     5 * time.Second,
		ImageFetchTimeout:  5 * time.Second,
		AnalysisTimeout:    5 * time.Second,
		MaxRequestBodySize: 1 << 20,
		Workers:            2,
		Thresholds:         analyzer.DefaultThresholds(),
	}
}

func TestNewContainer(t *testing.T) {
	cfg := testConfig()
	cfg.Thresholds.BlurVariance = 7
	cfg.AllowedHosts = []string{"cams.example.com"}

	c, err := NewContainer(cfg)
	require.NoError(t, err)

	assert.Same(t, cfg, c.Config())
	assert.Equal(t, 7.0, c.Options().Thresholds.BlurVariance)
	assert.NotNil(t, c.Service())
	assert.NotNil(t, c.Repository())

	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNewContainer_HandlerIsLazy(t *testing.T) {
	prevMode, prevWriter := gin.Mode(), gin.DefaultWriter
	t.Cleanup(func() {
		gin.SetMode(prevMode)
		gin.DefaultWriter = prevWriter
	})

	var ginOut bytes.Buffer
	gin.SetMode(gin.DebugMode)
	gin.DefaultWriter = &ginOut

	c, err := NewContainer(testConfig())
	require.NoError(t, err)
	assert.Empty(t, ginOut.String(), "building the container must not start gin")

	first := c.Handler()
	assert.Equal(t, gin.ReleaseMode, gin.Mode())
	assert.Empty(t, ginOut.String())
	assert.Same(t, first, c.Handler())
}

func TestNewContainer_BadFormat(t *testing.T) {
	_, err := NewContainer(testConfig(), WithFormat("xml"))
	assert.Error(t, err)
}

func TestContainer_ScreensDirectory(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(sub, 0o755))

	img := image.NewGray(image.Rect(0, 0, 8, 8))
	for _, p := range []string{filepath.Join(dir, "a.png"), filepath.Join(sub, "b.png")} {
		f, err := os.Create(p)
		require.NoError(t, err)
		require.NoError(t, png.Encode(f, img))
		require.NoError(t, f.Close())
	}

	c, err := NewContainer(testConfig(), WithRecursive(true), WithExtensions("png"))
	require.NoError(t, err)

	refs, err := c.Repository().Resolve(context.Background(), []string{dir})
	require.NoError(t, err)
	require.Len(t, refs, 2)

	results := c.Service().ScreenBatch(context.Background(), refs, c.Options())
	for _, r := range results {
		assert.True(t, r.OK(), "%s: %v", r.Image, r.Err)
	}
	assert.Equal(t, 2, c.Summary().Summary().Screened)
}
