package middleware

import (
	"github.com/TIANLI0/CutoutKit/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	HeaderRequestID = "X-Request-ID"
	ctxRequestID    = "request_id"
)

// RequestID 为每个请求分配 ID，并把带 request_id 字段的 logger 放进请求 context
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = utils.NewRequestID()
		}

		c.Set(ctxRequestID, id)
		c.Header(HeaderRequestID, id)

		log := utils.Logger.With(zap.String("request_id", id))
		c.Request = c.Request.WithContext(utils.WithContext(c.Request.Context(), log))

		c.Next()
	}
}

// GetRequestID 读取当前请求的 ID
func GetRequestID(c *gin.Context) string {
	return c.GetString(ctxRequestID)
}
