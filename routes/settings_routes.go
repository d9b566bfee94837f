package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/BerniceZTT/territory_end/controllers"
	"github.com/BerniceZTT/territory_end/middleware"
)

// RegisterSettingsRoutes 注册计划上下文配置路由
func RegisterSettingsRoutes(router *gin.Engine) {
	settings := router.Group("/api/settings")
	settings.Use(middleware.AuthMiddleware())

	settings.GET("/planning", middleware.PermissionMiddleware("settings", "read"), controllers.GetPlanningContext)
	settings.PUT("/planning", middleware.PermissionMiddleware("settings", "update"), controllers.UpdatePlanningContext)
}
