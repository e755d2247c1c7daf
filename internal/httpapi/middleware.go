package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// requestLogger logs one structured line per request, following the
// teacher's slog-over-gin convention instead of gin's own text logger.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("http_request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
	}
}

// recovery converts a panic into a 500 with the stable error body instead
// of gin's default plaintext dump, and logs the panic value.
func recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic_recovered", "error", r, "path", c.FullPath())
				c.JSON(500, ErrorBody{Error: ErrorDetail{Code: "internal_error", Message: "an internal error occurred"}})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// maxBodyBytes caps the request body size accepted by the ingest endpoint.
const maxBodyBytes = 1 << 20 // 1 MiB

func limitBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
		c.Next()
	}
}
