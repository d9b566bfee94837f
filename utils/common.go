package utils

import (
	"fmt"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"

	"github.com/BerniceZTT/territory_end/models"
)

// LoginUser 当前登录用户
type LoginUser struct {
	ID       string `json:"id"`
	Role     string `json:"role"`
	Username string `json:"name"`
	OwnerID  string `json:"ownerId,omitempty"`
}

// IsRegionalManager 是否只能查看自己区域的数据
func (u *LoginUser) IsRegionalManager() bool {
	return models.UserRole(u.Role) == models.UserRoleREGIONAL_MANAGER
}

// GetUser 从上下文中读取认证中间件写入的用户信息
func GetUser(c *gin.Context) (*LoginUser, error) {
	currentUser, exists := c.Get("user")
	if !exists {
		return nil, fmt.Errorf("GetUser 未授权访问")
	}

	var claims map[string]interface{}
	switch v := currentUser.(type) {
	case jwt.MapClaims:
		claims = v
	case map[string]interface{}:
		claims = v
	default:
		return nil, fmt.Errorf("无法识别的用户信息类型: %T", currentUser)
	}

	id, ok := claims["id"].(string)
	if !ok || id == "" {
		return nil, fmt.Errorf("无效的用户ID")
	}
	role, ok := claims["role"].(string)
	if !ok || role == "" {
		return nil, fmt.Errorf("无效的用户角色")
	}
	username, ok := claims["username"].(string)
	if !ok {
		return nil, fmt.Errorf("无效的用户名")
	}
	ownerID, _ := claims["ownerId"].(string)

	return &LoginUser{
		ID:       id,
		Role:     role,
		Username: username,
		OwnerID:  ownerID,
	}, nil
}
