package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/severusraj/gradverify-mono/pkg/metrics"
)

// Metrics 记录 HTTP 请求计数与耗时。
// path 使用路由模板（c.FullPath），避免 ID 造成标签基数膨胀；未匹配路由记为 "unmatched"。
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
