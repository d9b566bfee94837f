package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/BerniceZTT/territory_end/utils"
)

// ErrorHandler 全局错误处理中间件，把 c.Error 记录的错误转换为统一响应
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// 已经写出响应时不重复处理
		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}
		utils.HandleError(c, c.Errors.Last().Err)
	}
}
