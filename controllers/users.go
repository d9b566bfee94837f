package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BerniceZTT/territory_end/models"
	"github.com/BerniceZTT/territory_end/service"
	"github.com/BerniceZTT/territory_end/utils"
)

var userService *service.UserService

// SetUserService 设置账户管理服务
func SetUserService(s *service.UserService) {
	userService = s
}

// GetAllUsers 获取所有用户
// GET /api/users
func GetAllUsers(c *gin.Context) {
	users, err := userService.List(c.Request.Context())
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.Logger.Info().Int("count", len(users)).Msg("获取用户列表成功")
	utils.SuccessResponse(c, gin.H{"users": users}, "")
}

// CreateUser 创建用户
// POST /api/users
func CreateUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, "无效的请求参数: "+err.Error(), http.StatusBadRequest)
		return
	}

	user, err := userService.Create(c.Request.Context(), req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"user": user}, "创建用户成功", http.StatusCreated)
}

// UpdateUser 更新用户
// PUT /api/users/:id
func UpdateUser(c *gin.Context) {
	current, err := utils.GetUser(c)
	if err != nil {
		utils.HandleError(c, utils.CreateUnauthorizedError())
		return
	}

	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, "无效的请求参数: "+err.Error(), http.StatusBadRequest)
		return
	}

	user, err := userService.Update(c.Request.Context(), c.Param("id"), req, current)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"user": user}, "更新用户成功")
}

// DeleteUser 删除用户
// DELETE /api/users/:id
func DeleteUser(c *gin.Context) {
	current, err := utils.GetUser(c)
	if err != nil {
		utils.HandleError(c, utils.CreateUnauthorizedError())
		return
	}

	if err := userService.Delete(c.Request.Context(), c.Param("id"), current); err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, nil, "删除用户成功")
}
