// Package httpx carries the small HTTP plumbing shared by the daemon
// and the gateway: hardened server construction and the per-request
// metrics middleware.
package httpx

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/roosthq/roost/internal/metrics"
)

// NewServer wraps a handler in an http.Server with conservative
// timeouts. Callers own Shutdown.
func NewServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// Observe counts every served request under the given service label.
func Observe(service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		metrics.IncHTTPRequest(service, c.Request.Method, strconv.Itoa(c.Writer.Status()))
	}
}
