package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"koemail/admin/internal/monitoring"
)

// HTTPMetrics 按路由模板记录请求计数和耗时
func HTTPMetrics(metrics *monitoring.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.RecordHTTPRequest(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start),
		)
	}
}
