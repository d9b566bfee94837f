package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BerniceZTT/territory_end/repository"
	"github.com/BerniceZTT/territory_end/utils"
)

// RegisterRoutes 注册所有路由
func RegisterRoutes(router *gin.Engine) {
	// 注册认证路由
	RegisterAuthRoutes(router)
	RegisterUserRoutes(router)

	// 注册业务路由
	RegisterSnapshotRoutes(router)
	RegisterAnalyticsRoutes(router)
	RegisterSettingsRoutes(router)
	RegisterTaskRoutes(router)

	// 健康检查路由
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 数据库状态检查路由
	router.GET("/api/db-status", func(c *gin.Context) {
		status, err := repository.GetDatabaseStatus()
		if err != nil {
			utils.ErrorResponse(c, "获取数据库状态失败: "+err.Error(), http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, status)
	})
}
