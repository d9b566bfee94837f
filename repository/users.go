package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/BerniceZTT/territory_end/models"
	"github.com/BerniceZTT/territory_end/utils"
)

// ListUsers 获取所有用户（不含密码）
func (Store) ListUsers(c context.Context) ([]models.User, error) {
	opts := options.Find().
		SetProjection(bson.M{"password": 0}).
		SetSort(bson.D{{Key: "createdAt", Value: 1}})

	cursor, err := Collection(UsersCollection).Find(c, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	defer cursor.Close(c)

	users := []models.User{}
	if err := cursor.All(c, &users); err != nil {
		return nil, fmt.Errorf("解析用户数据失败: %w", err)
	}
	return users, nil
}

// FindUserByID 根据ID查找用户
func (Store) FindUserByID(c context.Context, id string) (*models.User, error) {
	return FindUserByID(c, id)
}

// FindUserByUsername 根据用户名查找用户
func (Store) FindUserByUsername(c context.Context, username string) (*models.User, error) {
	return FindUserByUsername(c, username)
}

// CountUsersByRole 统计某角色的用户数
func (Store) CountUsersByRole(c context.Context, role models.UserRole) (int64, error) {
	n, err := Collection(UsersCollection).CountDocuments(c, bson.M{"role": role})
	if err != nil {
		return 0, fmt.Errorf("统计用户失败: %w", err)
	}
	return n, nil
}

// InsertUser 插入用户并回填ID
func (Store) InsertUser(c context.Context, user *models.User) error {
	result, err := Collection(UsersCollection).InsertOne(c, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return utils.CreateBadRequestError("用户名已存在")
		}
		return fmt.Errorf("插入用户失败: %w", err)
	}
	if id, ok := result.InsertedID.(primitive.ObjectID); ok {
		user.ID = id
	}
	return nil
}

// ReplaceUser 按ID整体替换用户
func (Store) ReplaceUser(c context.Context, user *models.User) error {
	result, err := Collection(UsersCollection).ReplaceOne(c, bson.M{"_id": user.ID}, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return utils.CreateBadRequestError("用户名已存在")
		}
		return fmt.Errorf("更新用户失败: %w", err)
	}
	if result.MatchedCount == 0 {
		return utils.CreateNotFoundError("用户")
	}
	return nil
}

// DeleteUser 删除用户
func (Store) DeleteUser(c context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return utils.CreateBadRequestError("无效的ID格式")
	}
	result, err := Collection(UsersCollection).DeleteOne(c, bson.M{"_id": objID})
	if err != nil {
		return fmt.Errorf("删除用户失败: %w", err)
	}
	if result.DeletedCount == 0 {
		return utils.CreateNotFoundError("用户")
	}
	return nil
}
