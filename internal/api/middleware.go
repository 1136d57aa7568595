package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cleared-dev/registru/internal/accounts"
	"github.com/cleared-dev/registru/internal/journal"
	"github.com/cleared-dev/registru/internal/ledgererr"
	"github.com/cleared-dev/registru/internal/metrics"
)

// ErrorBody is the error payload of every failed request.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps ErrorBody as {"error": {...}}.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// requestError rejects a malformed request before it reaches the ledger.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func (e *requestError) Unwrap() error { return ledgererr.ErrValidation }

func badRequest(msg string) error { return &requestError{msg: msg} }

// handlerFunc is a gin handler that reports failure by returning an error.
type handlerFunc func(*gin.Context) error

// wrap records a returned error on the context for errorHandler.
func wrap(h handlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h(c); err != nil {
			_ = c.Error(err)
		}
	}
}

// errorHandler renders the last handler error as an ErrorResponse.
func errorHandler(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		status, body := classify(err)
		if status >= http.StatusInternalServerError {
			log.Error("request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
		} else {
			log.Debug("request rejected", "method", c.Request.Method, "path", c.Request.URL.Path, "status", status, "error", err)
		}
		c.JSON(status, ErrorResponse{Error: body})
	}
}

// classify maps a ledger error to an HTTP status and payload.
func classify(err error) (int, ErrorBody) {
	var (
		dup      *accounts.DuplicateCodeError
		reversed *journal.AlreadyReversedError
	)
	switch {
	case errors.As(err, &dup), errors.As(err, &reversed):
		return http.StatusConflict, ErrorBody{Code: "CONFLICT", Message: err.Error()}
	case errors.Is(err, ledgererr.ErrValidation):
		return http.StatusBadRequest, ErrorBody{Code: ledgererr.Code(err), Message: err.Error()}
	case errors.Is(err, ledgererr.ErrNotFound):
		return http.StatusNotFound, ErrorBody{Code: ledgererr.Code(err), Message: err.Error()}
	default:
		return http.StatusInternalServerError, ErrorBody{Code: ledgererr.Code(err), Message: "internal server error"}
	}
}

// metricsMiddleware records request counts and latency per route pattern.
func metricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}

// requestLogger logs each request at debug level.
func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func noRoute(c *gin.Context) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: ErrorBody{Code: "ROUTE_NOT_FOUND", Message: "no route for " + c.Request.URL.Path}})
}
