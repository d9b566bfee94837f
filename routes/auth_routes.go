package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/BerniceZTT/territory_end/controllers"
	"github.com/BerniceZTT/territory_end/middleware"
)

// RegisterAuthRoutes 注册认证路由
func RegisterAuthRoutes(router *gin.Engine) {
	auth := router.Group("/api/auth")

	// 公开路由 - 不需要认证
	auth.POST("/login", controllers.Login)

	// 需要认证的路由
	auth.GET("/validate", middleware.AuthMiddleware(), controllers.ValidateToken)
}
