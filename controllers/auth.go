package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BerniceZTT/territory_end/models"
	"github.com/BerniceZTT/territory_end/repository"
	"github.com/BerniceZTT/territory_end/utils"
)

// 用户查询，测试中替换
var (
	findUserByUsername = repository.FindUserByUsername
	findUserByID       = repository.FindUserByID
)

// Login 用户登录
func Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, "无效的请求参数: "+err.Error(), http.StatusBadRequest)
		return
	}

	utils.Logger.Info().Str("username", req.Username).Msg("登录尝试")

	user, err := findUserByUsername(c.Request.Context(), req.Username)
	if err != nil {
		var apiErr *utils.ApiError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			utils.Logger.Info().Str("username", req.Username).Msg("登录失败: 用户名不存在")
			utils.ErrorResponse(c, "用户名或密码错误", http.StatusUnauthorized)
			return
		}
		utils.Logger.Error().Err(err).Msg("查询用户出错")
		utils.ErrorResponse(c, "登录失败: 数据库错误", http.StatusInternalServerError)
		return
	}

	// 检查用户状态
	if user.Status != models.UserStatusAPPROVED {
		utils.Logger.Info().Str("username", req.Username).Str("status", string(user.Status)).Msg("登录失败: 账户不可用")
		utils.ErrorResponse(c, "账户已停用", http.StatusForbidden)
		return
	}

	// 验证密码
	if !utils.VerifyPassword(req.Password, user.Password) {
		utils.Logger.Info().Str("username", req.Username).Msg("登录失败: 密码错误")
		utils.ErrorResponse(c, "用户名或密码错误", http.StatusUnauthorized)
		return
	}

	// 生成JWT令牌
	token, err := utils.GenerateToken(*user)
	if err != nil {
		utils.ErrorResponse(c, "生成登录令牌失败，请重试", http.StatusInternalServerError)
		return
	}

	utils.Logger.Info().Str("username", user.Username).Msg("用户登录成功")
	utils.SuccessResponse(c, models.LoginResponse{Token: token, User: *user}, "")
}

// ValidateToken 验证令牌并返回当前用户
func ValidateToken(c *gin.Context) {
	current, err := utils.GetUser(c)
	if err != nil {
		utils.HandleError(c, utils.CreateUnauthorizedError())
		return
	}

	user, err := lookupUser(c.Request.Context(), current.ID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	if user.Status != models.UserStatusAPPROVED {
		utils.ErrorResponse(c, "账户已停用", http.StatusForbidden)
		return
	}

	utils.SuccessResponse(c, gin.H{"user": user}, "")
}

func lookupUser(ctx context.Context, id string) (*models.User, error) {
	user, err := findUserByID(ctx, id)
	if err != nil {
		var apiErr *utils.ApiError
		if errors.As(err, &apiErr) {
			return nil, err
		}
		return nil, utils.NewAppError("查询用户失败", http.StatusInternalServerError, err)
	}
	return user, nil
}
