package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRole 用户角色枚举
type UserRole string

const (
	UserRoleSUPER_ADMIN      UserRole = "SUPER_ADMIN"      // 超级管理员
	UserRoleANALYST          UserRole = "ANALYST"          // 分析师
	UserRoleREGIONAL_MANAGER UserRole = "REGIONAL_MANAGER" // 区域经理，只能看自己的区域
)

// UserStatus 用户状态枚举
type UserStatus string

const (
	UserStatusAPPROVED UserStatus = "approved"
	UserStatusDISABLED UserStatus = "disabled"
)

// User 用户类型
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Username  string             `bson:"username" json:"username"`
	Password  string             `bson:"password" json:"-"` // 不返回密码
	Role      UserRole           `bson:"role" json:"role"`
	Status    UserStatus         `bson:"status" json:"status"`
	OwnerID   string             `bson:"ownerId,omitempty" json:"ownerId,omitempty"` // 区域经理在销售数据中的ID
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// 各种请求和响应结构
type (
	// LoginRequest 登录请求
	LoginRequest struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	// LoginResponse 登录响应
	LoginResponse struct {
		Token string `json:"token"`
		User  User   `json:"user"`
	}
)

// Valid 是否为已知角色
func (r UserRole) Valid() bool {
	switch r {
	case UserRoleSUPER_ADMIN, UserRoleANALYST, UserRoleREGIONAL_MANAGER:
		return true
	}
	return false
}

// 用户管理请求
type (
	// CreateUserRequest 创建用户请求
	CreateUserRequest struct {
		Username string   `json:"username" binding:"required,min=3,max=50"`
		Password string   `json:"password" binding:"required,min=6"`
		Role     UserRole `json:"role" binding:"required,oneof=SUPER_ADMIN ANALYST REGIONAL_MANAGER"`
		OwnerID  string   `json:"ownerId"`
	}

	// UpdateUserRequest 更新用户请求，空字段不修改
	UpdateUserRequest struct {
		Username string     `json:"username" binding:"omitempty,min=3,max=50"`
		Password string     `json:"password" binding:"omitempty,min=6"`
		Role     UserRole   `json:"role" binding:"omitempty,oneof=SUPER_ADMIN ANALYST REGIONAL_MANAGER"`
		Status   UserStatus `json:"status" binding:"omitempty,oneof=approved disabled"`
		OwnerID  *string    `json:"ownerId"`
	}
)
