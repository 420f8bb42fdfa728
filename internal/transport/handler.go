package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"go-dirtycam/internal/analyzer"
	"go-dirtycam/internal/config"
	apperrors "go-dirtycam/internal/errors"
	"go-dirtycam/internal/logger"
	"go-dirtycam/internal/reporter"
	"go-dirtycam/internal/service"
	"go-dirtycam/pkg/models"
	"go-dirtycam/pkg/validation"
)

// Version is reported by /health
var Version = "dev"

// Dependencies are the collaborators the HTTP API needs
type Dependencies struct {
	Service   service.ScreeningService
	Summary   *reporter.SummaryReporter
	Validator *validation.URLValidator
	Options   analyzer.AnalysisOptions
	Config    *config.Config
}

func NewHandler(deps Dependencies) http.Handler {
	r := gin.New()

	r.Use(
		gin.Recovery(),
		requestLogger(),
		requestSizeLimiter(deps.Config.MaxRequestBodySize),
		errorHandler(),
	)

	r.GET("/health", healthCheck)
	r.GET("/stats", stats(deps))
	r.POST("/screen", screenUpload(deps))
	r.POST("/screen/url", screenURL(deps))

	return r
}

// screenUpload screens a multipart upload in the "image" field. An optional
// "thresholds" field carries JSON threshold overrides.
func screenUpload(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), deps.Config.RequestTimeout)
		defer cancel()

		file, err := c.FormFile("image")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				respondError(c, http.StatusRequestEntityTooLarge, "image too large", err)
				return
			}
			respondError(c, http.StatusBadRequest, "missing image upload", err)
			return
		}

		options := deps.Options
		if raw := c.PostForm("thresholds"); raw != "" {
			var overrides models.ThresholdOverrides
			if err := json.Unmarshal([]byte(raw), &overrides); err != nil {
				respondError(c, http.StatusBadRequest, "invalid thresholds", err)
				return
			}
			options = options.WithThresholds(options.Thresholds.WithOverrides(&overrides))
		}

		f, err := file.Open()
		if err != nil {
			respondError(c, http.StatusBadRequest, "unreadable upload", err)
			return
		}
		defer f.Close()

		result := deps.Service.ScreenReader(ctx, file.Filename, f, options)
		respondResult(c, result, startTime)
	}
}

// screenURL fetches and screens a remote image
func screenURL(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), deps.Config.RequestTimeout)
		defer cancel()

		var req models.ScreenURLRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		if err := deps.Validator.ValidateImageURL(req.URL); err != nil {
			respondError(c, apperrors.GetStatusCode(err), "invalid image URL", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"url":       req.URL,
			"overrides": req.Thresholds != nil,
		}).Debug("Fetching image")

		options := deps.Options.WithThresholds(deps.Options.Thresholds.WithOverrides(req.Thresholds))
		result := deps.Service.ScreenRef(ctx, req.URL, options)
		respondResult(c, result, startTime)
	}
}

func stats(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"summary":    deps.Summary.Summary(),
			"thresholds": deps.Options.Thresholds,
		})
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func respondResult(c *gin.Context, result service.Result, startTime time.Time) {
	if !result.OK() {
		respondError(c, apperrors.GetStatusCode(result.Err), "screening failed", result.Err)
		return
	}

	duration := time.Since(startTime)
	logger.WithFields(logrus.Fields{
		"image":              result.Report.Image,
		"fault_count":        result.Report.FaultCount,
		"processing_time_ms": duration.Milliseconds(),
	}).Info("Image screened")

	c.JSON(http.StatusOK, models.ScreenResponse{
		Report:            result.Report,
		Timestamp:         time.Now().UTC().Format(time.RFC3339),
		ProcessingTimeSec: duration.Seconds(),
	})
}

// Middleware and helper functions
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"ip":          c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
			"duration_ms": time.Since(start).Milliseconds(),
		}).Debug("Request handled")
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err.Err), "request processing failed", err.Err)
		}
	}
}

func determineStatusCode(err error) int {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
