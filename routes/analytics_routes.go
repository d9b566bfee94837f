package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/BerniceZTT/territory_end/controllers"
	"github.com/BerniceZTT/territory_end/middleware"
)

// RegisterAnalyticsRoutes 注册分析路由
func RegisterAnalyticsRoutes(router *gin.Engine) {
	analytics := router.Group("/api/analytics")
	analytics.Use(middleware.AuthMiddleware())

	read := middleware.PermissionMiddleware("analytics", "read")
	analytics.GET("/dashboard", read, controllers.GetDashboard)
	analytics.GET("/plan", read, controllers.GetPlan)
	analytics.GET("/anomalies", read, controllers.GetAnomalies)
	analytics.GET("/churn", read, controllers.GetChurn)
	analytics.GET("/actions", read, controllers.GetActions)
	analytics.GET("/regions", read, controllers.GetRegions)
	analytics.GET("/regions/:name/similar", read, controllers.GetSimilarRegions)

	analytics.GET("/plan/export", middleware.PermissionMiddleware("analytics", "export"), controllers.ExportPlan)
}
