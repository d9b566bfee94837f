package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/BerniceZTT/territory_end/controllers"
	"github.com/BerniceZTT/territory_end/middleware"
)

// RegisterTaskRoutes 注册建议动作处理路由
func RegisterTaskRoutes(router *gin.Engine) {
	tasks := router.Group("/api/tasks")
	tasks.Use(middleware.AuthMiddleware())

	tasks.GET("/decisions", middleware.PermissionMiddleware("tasks", "read"), controllers.ListDecisions)
	tasks.POST("/decisions", middleware.PermissionMiddleware("tasks", "create"), controllers.CreateDecision)
}
