package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/BerniceZTT/territory_end/models"
	"github.com/BerniceZTT/territory_end/repository"
	"github.com/BerniceZTT/territory_end/utils"
)

// UserStore 用户存储
type UserStore interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	CountUsersByRole(ctx context.Context, role models.UserRole) (int64, error)
	InsertUser(ctx context.Context, user *models.User) error
	ReplaceUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id string) error
}

// UserService 账户管理（仅超级管理员调用）
type UserService struct {
	Store UserStore
	Now   func() time.Time
}

// NewUserService 使用 MongoDB 存储创建账户管理服务
func NewUserService() *UserService {
	return &UserService{Store: repository.Store{}, Now: time.Now}
}

func (s *UserService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// List 获取所有用户
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.Store.ListUsers(ctx)
}

// Create 创建用户，直接生效
func (s *UserService) Create(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	if err := s.checkUsernameFree(ctx, req.Username, ""); err != nil {
		return nil, err
	}
	if err := checkOwner(req.Role, req.OwnerID); err != nil {
		return nil, err
	}
	if req.Role == models.UserRoleSUPER_ADMIN {
		if err := s.checkSingleAdmin(ctx); err != nil {
			return nil, err
		}
	}

	now := s.now()
	user := &models.User{
		Username:  req.Username,
		Password:  utils.HashPassword(req.Password),
		Role:      req.Role,
		Status:    models.UserStatusAPPROVED,
		OwnerID:   req.OwnerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.InsertUser(ctx, user); err != nil {
		return nil, err
	}

	utils.Logger.Info().
		Str("id", user.ID.Hex()).
		Str("username", user.Username).
		Str("role", string(user.Role)).
		Msg("用户创建成功")

	user.Password = ""
	return user, nil
}

// Update 更新用户，不能修改自己的角色或停用自己
func (s *UserService) Update(ctx context.Context, id string, req models.UpdateUserRequest, current *utils.LoginUser) (*models.User, error) {
	user, err := s.Store.FindUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	self := current.ID == id
	if self && req.Role != "" && req.Role != user.Role {
		return nil, utils.CreateBadRequestError("不能修改自己的角色")
	}
	if self && req.Status == models.UserStatusDISABLED {
		return nil, utils.CreateBadRequestError("不能停用当前登录账户")
	}

	if req.Username != "" && req.Username != user.Username {
		if err := s.checkUsernameFree(ctx, req.Username, id); err != nil {
			return nil, err
		}
		user.Username = req.Username
	}
	if req.Role != "" && req.Role != user.Role {
		if req.Role == models.UserRoleSUPER_ADMIN {
			if err := s.checkSingleAdmin(ctx); err != nil {
				return nil, err
			}
		}
		user.Role = req.Role
	}
	if req.Status != "" {
		user.Status = req.Status
	}
	if req.OwnerID != nil {
		user.OwnerID = *req.OwnerID
	}
	if req.Password != "" {
		user.Password = utils.HashPassword(req.Password)
	}
	if err := checkOwner(user.Role, user.OwnerID); err != nil {
		return nil, err
	}

	user.UpdatedAt = s.now()
	if err := s.Store.ReplaceUser(ctx, user); err != nil {
		return nil, err
	}

	utils.Logger.Info().Str("id", id).Str("operator", current.Username).Msg("更新用户成功")
	user.Password = ""
	return user, nil
}

// Delete 删除用户，超级管理员和当前账户不能删除
func (s *UserService) Delete(ctx context.Context, id string, current *utils.LoginUser) error {
	if current.ID == id {
		return utils.CreateBadRequestError("不能删除当前登录账户")
	}
	user, err := s.Store.FindUserByID(ctx, id)
	if err != nil {
		return err
	}
	if user.Role == models.UserRoleSUPER_ADMIN {
		return utils.CreateBadRequestError("不能删除超级管理员账户")
	}
	if err := s.Store.DeleteUser(ctx, id); err != nil {
		return err
	}

	utils.Logger.Info().Str("id", id).Str("operator", current.Username).Msg("删除用户成功")
	return nil
}

func (s *UserService) checkUsernameFree(ctx context.Context, username, exceptID string) error {
	existing, err := s.Store.FindUserByUsername(ctx, username)
	if err != nil {
		var apiErr *utils.ApiError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil
		}
		return err
	}
	if existing.ID.Hex() == exceptID {
		return nil
	}
	return utils.CreateBadRequestError("用户名已存在")
}

func (s *UserService) checkSingleAdmin(ctx context.Context) error {
	n, err := s.Store.CountUsersByRole(ctx, models.UserRoleSUPER_ADMIN)
	if err != nil {
		return err
	}
	if n > 0 {
		return utils.CreateBadRequestError("已存在超级管理员")
	}
	return nil
}

// checkOwner 区域经理必须绑定销售数据中的负责人ID
func checkOwner(role models.UserRole, ownerID string) error {
	if role == models.UserRoleREGIONAL_MANAGER && ownerID == "" {
		return utils.CreateBadRequestError("区域经理必须设置 ownerId")
	}
	return nil
}
