package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/BerniceZTT/territory_end/controllers"
	"github.com/BerniceZTT/territory_end/middleware"
)

// RegisterUserRoutes 注册用户管理路由（仅超级管理员）
func RegisterUserRoutes(router *gin.Engine) {
	users := router.Group("/api/users")
	users.Use(middleware.AuthMiddleware())

	users.GET("", middleware.PermissionMiddleware("users", "read"), controllers.GetAllUsers)
	users.POST("", middleware.PermissionMiddleware("users", "create"), controllers.CreateUser)
	users.PUT("/:id", middleware.PermissionMiddleware("users", "update"), controllers.UpdateUser)
	users.DELETE("/:id", middleware.PermissionMiddleware("users", "delete"), controllers.DeleteUser)
}
