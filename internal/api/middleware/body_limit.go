package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ahmed-moohram/elmostqbal-sub002/pkg/response"
)

// BodyLimit 请求体大小限制，上限来自 server.body_limit_kb
// 声明了 Content-Length 的超限请求在进入 handler 前直接 413；
// 未声明长度的请求体由 MaxBytesReader 截断，handler 绑定时拿到 *http.MaxBytesError 再转 413
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			response.PayloadTooLarge(c, maxBytes)
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
