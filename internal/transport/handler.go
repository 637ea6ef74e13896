package transport

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/shape-moments-mcp/internal/apperrors"
	"github.com/ironsheep/shape-moments-mcp/internal/classifier"
	"github.com/ironsheep/shape-moments-mcp/internal/config"
	"github.com/ironsheep/shape-moments-mcp/internal/dataset"
	"github.com/ironsheep/shape-moments-mcp/internal/imaging"
	"github.com/ironsheep/shape-moments-mcp/internal/logger"
)

// Multipart form fields.
const (
	imageField   = "image"
	datasetField = "dataset"
)

type ErrorResponse struct {
	Error   string         `json:"error"`
	Kind    apperrors.Kind `json:"kind"`
	Message string         `json:"message,omitempty"`
}

// ClassifyResponse is the body of a successful POST /classify.
type ClassifyResponse struct {
	*classifier.Result
	Entries     int `json:"entries"`
	SkippedRows int `json:"skipped_rows"`
}

func NewHandler(svc *classifier.Service, cfg *config.Config) http.Handler {
	r := gin.Default()

	// Add middleware
	r.Use(
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	// Configure routes
	r.GET("/health", healthCheck)
	r.POST("/classify", classifyShape(svc, cfg))
	r.POST("/features", shapeFeatures(svc))

	return r
}

func classifyShape(svc *classifier.Service, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"user_agent": c.Request.UserAgent(),
			"ip":         c.ClientIP(),
		}).Info("Processing classification request")

		img, err := formImage(c)
		if err != nil {
			respondError(c, "invalid image upload", err)
			return
		}

		src, err := formDataset(c)
		if err != nil {
			respondError(c, "invalid dataset upload", err)
			return
		}

		ds, err := svc.Dataset(ctx, src)
		if err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				err = apperrors.NewDatasetUnavailableError("dataset fetch timed out", err)
			}
			respondError(c, "reference dataset unavailable", err)
			return
		}

		res, err := svc.Classifier().Classify(imaging.Supplier(img), ds)
		if err != nil {
			respondError(c, "classification failed", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"label":              res.Label,
			"distance":           res.Distance,
			"empty_mask":         res.EmptyMask,
			"processing_time_ms": time.Since(startTime).Milliseconds(),
		}).Info("Classification completed successfully")

		c.JSON(http.StatusOK, ClassifyResponse{
			Result:      res,
			Entries:     ds.Len(),
			SkippedRows: len(ds.Skipped),
		})
	}
}

func shapeFeatures(svc *classifier.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		img, err := formImage(c)
		if err != nil {
			respondError(c, "invalid image upload", err)
			return
		}

		f, err := svc.Features(imaging.Supplier(img))
		if err != nil {
			respondError(c, "feature extraction failed", err)
			return
		}
		c.JSON(http.StatusOK, f)
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "0.1.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// formImage decodes the required image part of a multipart request.
func formImage(c *gin.Context) (image.Image, error) {
	fh, err := c.FormFile(imageField)
	if err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("multipart field %q is required", imageField), err)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, apperrors.NewImageFormatError("failed to open uploaded image", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, apperrors.NewImageFormatError("failed to decode uploaded image", err)
	}
	return img, nil
}

// formDataset returns the uploaded dataset, or nil when the request does not
// carry one so the service default applies.
func formDataset(c *gin.Context) (dataset.Supplier, error) {
	fh, err := c.FormFile(datasetField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewValidationError("failed to read dataset upload", err)
	}
	data, err := readPart(fh)
	if err != nil {
		return nil, apperrors.NewDatasetUnavailableError("failed to read dataset upload", err)
	}
	return dataset.StaticSupplier(data), nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// Middleware and helper functions
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
			respondError(c, "request processing failed", c.Errors.Last().Err)
		}
	}
}

func determineStatusCode(err error) int {
	// An oversized body surfaces as a multipart parse failure, usually
	// wrapped in a validation error.
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return http.StatusRequestEntityTooLarge
	}

	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return appErr.StatusCode()
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, message string, err error) {
	code := determineStatusCode(err)

	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, ErrorResponse{
		Error:   http.StatusText(code),
		Kind:    apperrors.KindOf(err),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
