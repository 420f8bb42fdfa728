package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "go-dirtycam/internal/errors"
	"go-dirtycam/internal/logger"
)

const (
	defaultMaxAttempts  = 3
	defaultRetryBackoff = time.Second
	defaultMaxBytes     = 32 << 20
)

// HTTPSource downloads images over HTTP(S), retrying transient failures
type HTTPSource struct {
	client      *http.Client
	maxAttempts int
	backoff     time.Duration
	maxBytes    int64
}

// HTTPOption configures an HTTPSource
type HTTPOption func(*HTTPSource)

// WithRetry sets the attempt count and the base delay between attempts.
// The n-th retry waits n*backoff.
func WithRetry(attempts int, backoff time.Duration) HTTPOption {
	return func(h *HTTPSource) {
		if attempts > 0 {
			h.maxAttempts = attempts
		}
		h.backoff = backoff
	}
}

// WithTimeout bounds a single request, body included
func WithTimeout(d time.Duration) HTTPOption {
	return func(h *HTTPSource) {
		if d > 0 {
			h.client.Timeout = d
		}
	}
}

// WithMaxBytes caps the size of a downloaded body
func WithMaxBytes(n int64) HTTPOption {
	return func(h *HTTPSource) {
		if n > 0 {
			h.maxBytes = n
		}
	}
}

// NewHTTPSource creates an HTTP image source
func NewHTTPSource(opts ...HTTPOption) *HTTPSource {
	transport := &http.Transport{
		MaxIdleConns:           10,
		MaxIdleConnsPerHost:    2,
		IdleConnTimeout:        30 * time.Second,
		TLSHandshakeTimeout:    10 * time.Second,
		ResponseHeaderTimeout:  10 * time.Second,
		ExpectContinueTimeout:  1 * time.Second,
		MaxResponseHeaderBytes: 4096,
	}

	h := &HTTPSource{
		client: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
		maxAttempts: defaultMaxAttempts,
		backoff:     defaultRetryBackoff,
		maxBytes:    defaultMaxBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Load downloads and decodes the image at imageURL. Transport errors and 5xx
// responses are retried; 4xx responses fail immediately.
func (h *HTTPSource) Load(ctx context.Context, imageURL string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid URL %q", imageURL), err)
	}
	req.Header.Set("Accept", "image/jpeg, image/png, image/webp, image/gif, */*")
	req.Header.Set("User-Agent", "go-dirtycam/1.0")

	var lastErr error
	for attempt := 1; attempt <= h.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := h.wait(ctx, attempt-1); err != nil {
				return nil, contextError(ctx, imageURL)
			}
		}

		img, retry, err := h.fetch(req, imageURL)
		if err == nil {
			return img, nil
		}
		if cerr := contextError(ctx, imageURL); cerr != nil {
			return nil, cerr
		}
		if !retry {
			return nil, err
		}

		lastErr = err
		logger.WithError(err).WithFields(logrus.Fields{
			"url":     imageURL,
			"attempt": attempt,
		}).Debug("Image download failed, retrying")
	}

	return nil, apperrors.NewNetworkError(
		fmt.Sprintf("failed to fetch image after %d attempts", h.maxAttempts), lastErr)
}

// fetch performs one attempt and reports whether a failure is retryable
func (h *HTTPSource) fetch(req *http.Request, imageURL string) (image.Image, bool, error) {
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(io.LimitReader(resp.Body, h.maxBytes+1))
		if err != nil {
			return nil, true, err
		}
		if int64(len(body)) > h.maxBytes {
			return nil, false, apperrors.NewValidationError(
				fmt.Sprintf("image at %s is too large (limit %d bytes)", imageURL, h.maxBytes), nil)
		}
		img, err := Decode(bytes.NewReader(body), imageURL)
		return img, false, err
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, apperrors.NewNotFoundError(
			fmt.Sprintf("image not found at %s", imageURL),
			fmt.Errorf("client error: status code %d", resp.StatusCode))
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, false, apperrors.NewNetworkError(
			fmt.Sprintf("request for %s rejected", imageURL),
			fmt.Errorf("client error: status code %d", resp.StatusCode))
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("server error: status code %d", resp.StatusCode)
	default:
		return nil, false, apperrors.NewNetworkError(
			fmt.Sprintf("unexpected response for %s", imageURL),
			fmt.Errorf("unexpected status code %d", resp.StatusCode))
	}
}

func (h *HTTPSource) wait(ctx context.Context, retry int) error {
	if h.backoff <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(time.Duration(retry) * h.backoff)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
