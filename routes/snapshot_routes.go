package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/BerniceZTT/territory_end/controllers"
	"github.com/BerniceZTT/territory_end/middleware"
)

// RegisterSnapshotRoutes 注册快照路由
func RegisterSnapshotRoutes(router *gin.Engine) {
	snapshots := router.Group("/api/snapshots")
	snapshots.Use(middleware.AuthMiddleware())

	snapshots.GET("", middleware.PermissionMiddleware("snapshots", "read"), controllers.ListSnapshots)
	snapshots.GET("/latest", middleware.PermissionMiddleware("snapshots", "read"), controllers.GetLatestSnapshot)
	snapshots.POST("/import", middleware.PermissionMiddleware("snapshots", "import"), controllers.ImportSnapshot)
}
