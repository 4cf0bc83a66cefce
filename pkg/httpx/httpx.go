package httpx

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/metao1/online-store-go/pkg/metrics"
)

// ErrorBody is the structured error response every service returns.
type ErrorBody struct {
	Status    int       `json:"status"`
	Reason    string    `json:"reason"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func Error(c *gin.Context, status int, reason string, err error) {
	c.AbortWithStatusJSON(status, ErrorBody{
		Status:    status,
		Reason:    reason,
		Message:   err.Error(),
		Timestamp: time.Now().UTC(),
	})
}

// Metrics records request counts and latency per route.
func Metrics(m *metrics.ServerMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		handler := c.FullPath()
		if handler == "" {
			handler = "unmatched"
		}
		m.Requests.WithLabelValues(handler, strconv.Itoa(c.Writer.Status())).Inc()
		m.LatencyMS.WithLabelValues(handler).Observe(float64(time.Since(start).Milliseconds()))
	}
}

// Health registers the liveness endpoint.
func Health(r *gin.Engine, check func() error) {
	r.GET("/health", func(c *gin.Context) {
		if check != nil {
			if err := check(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_error"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
