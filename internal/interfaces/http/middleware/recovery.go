package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"bookgen-ai-api/pkg/errors"
	"bookgen-ai-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Recovery Panic 恢复中间件
// 记录堆栈后以统一错误结构返回 500，不让单个请求拖垮进程。
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			logger.Error(c.Request.Context(), "panic recovered",
				fmt.Errorf("%v", r),
				"stack", string(debug.Stack()),
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
			)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"code":    errors.CodeInternalError,
				"message": "internal server error",
			})
		}()

		c.Next()
	}
}
