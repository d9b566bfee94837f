package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/BerniceZTT/territory_end/models"
	"github.com/BerniceZTT/territory_end/utils"
)

const (
	// 集合名
	UsersCollection            = "users"
	SnapshotsCollection        = "snapshots"
	SnapshotBucketsCollection  = "snapshot_buckets"
	SystemConfigsCollection    = "system_configs"
	TaskDecisionsCollection    = "task_decisions"
	ApiOperationLogsCollection = "apiOperationLogs"
)

var allCollections = []string{
	UsersCollection,
	SnapshotsCollection,
	SnapshotBucketsCollection,
	SystemConfigsCollection,
	TaskDecisionsCollection,
	ApiOperationLogsCollection,
}

var (
	client *mongo.Client
	db     *mongo.Database
	ctx    = context.Background()
)

// InitMongoDB 初始化MongoDB连接
func InitMongoDB(uri, dbName string) error {
	// 设置连接超时
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var err error
	client, err = mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return fmt.Errorf("连接MongoDB失败: %w", err)
	}

	// 检查连接
	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		return fmt.Errorf("ping MongoDB失败: %w", err)
	}

	db = client.Database(dbName)
	utils.Logger.Info().Str("database", dbName).Msg("已连接到MongoDB")

	return nil
}

// CloseMongoDB 关闭MongoDB连接
func CloseMongoDB() {
	if client != nil {
		if err := client.Disconnect(ctx); err != nil {
			utils.Logger.Error().Err(err).Msg("断开MongoDB连接失败")
			return
		}
		utils.Logger.Info().Msg("已断开MongoDB连接")
	}
}

// ExecuteDbOperation 执行数据库操作，提供错误处理和重试机制
func ExecuteDbOperation(operation func() (interface{}, error), retries int) (interface{}, error) {
	if retries <= 0 {
		retries = 3
	}

	var lastErr error
	for i := 0; i < retries; i++ {
		result, err := operation()
		if err == nil {
			return result, nil
		}

		lastErr = err
		// 如果是不可重试的错误，立即返回
		if !isRetryableError(err) {
			break
		}
		utils.Logger.Error().Err(err).Msgf("数据库操作失败，重试 (%d/%d)", i+1, retries)

		// 延迟后重试
		time.Sleep(time.Duration(500*(i+1)) * time.Millisecond)
	}

	return nil, lastErr
}

// MongoDB可重试错误代码
var retryableCodes = map[int32]bool{
	6:     true, // HostUnreachable
	7:     true, // HostNotFound
	89:    true, // NetworkTimeout
	91:    true, // ShutdownInProgress
	189:   true, // PrimarySteppedDown
	10107: true, // NotMaster
	13436: true, // NotMasterNoSlaveOk
	11600: true, // InterruptedAtShutdown
	11602: true, // InterruptedDueToReplStateChange
	10058: true, // ConnectionReset
}

// isRetryableError 判断错误是否可重试
func isRetryableError(err error) bool {
	if err == nil || errors.Is(err, mongo.ErrNoDocuments) || errors.Is(err, context.Canceled) {
		return false
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return retryableCodes[cmdErr.Code]
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return true
	}

	// 检查常见网络错误
	errMsg := strings.ToLower(err.Error())
	for _, ne := range []string{
		"connection refused",
		"connection reset",
		"connection closed",
		"no reachable servers",
		"server selection error",
	} {
		if strings.Contains(errMsg, ne) {
			return true
		}
	}
	return false
}

// InitializeCollections 初始化数据库集合和索引
func InitializeCollections() error {
	for _, collName := range allCollections {
		collExists, err := CollectionExists(collName)
		if err != nil {
			return fmt.Errorf("检查集合失败: %w", err)
		}

		if !collExists {
			if err := db.CreateCollection(ctx, collName); err != nil {
				return fmt.Errorf("创建集合失败: %w", err)
			}
			utils.Logger.Info().Str("collection", collName).Msg("创建集合成功")
		}
	}

	indexes := map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		SnapshotsCollection: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		SnapshotBucketsCollection: {
			{Keys: bson.D{{Key: "snapshotId", Value: 1}, {Key: "seq", Value: 1}}},
		},
		SystemConfigsCollection: {
			{Keys: bson.D{{Key: "configType", Value: 1}, {Key: "configKey", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		TaskDecisionsCollection: {
			{Keys: bson.D{{Key: "actionId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}
	for collName, idx := range indexes {
		if _, err := db.Collection(collName).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("创建索引失败 %s: %w", collName, err)
		}
	}

	return nil
}

// CollectionExists 检查集合是否存在
func CollectionExists(collName string) (bool, error) {
	collections, err := db.ListCollectionNames(ctx, bson.M{"name": collName})
	if err != nil {
		return false, err
	}

	for _, name := range collections {
		if name == collName {
			return true, nil
		}
	}

	return false, nil
}

// InitializeAdminAccount 初始化管理员账户
func InitializeAdminAccount() error {
	usersCollection := db.Collection(UsersCollection)

	count, err := usersCollection.CountDocuments(ctx, bson.M{"role": models.UserRoleSUPER_ADMIN})
	if err != nil {
		return fmt.Errorf("检查管理员账户失败: %w", err)
	}

	// 如果已存在，则不创建
	if count > 0 {
		utils.Logger.Info().Msg("超级管理员账户已存在，跳过创建")
		return nil
	}

	now := time.Now()
	adminUser := models.User{
		Username:  "admin",
		Password:  utils.HashPassword("admin123"),
		Role:      models.UserRoleSUPER_ADMIN,
		Status:    models.UserStatusAPPROVED,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err = usersCollection.InsertOne(ctx, adminUser); err != nil {
		return fmt.Errorf("创建管理员账户失败: %w", err)
	}

	utils.Logger.Info().Msg("已创建默认超级管理员账户")
	return nil
}

// GetDatabaseStatus 获取数据库状态
func GetDatabaseStatus() (map[string]interface{}, error) {
	if db == nil {
		return nil, fmt.Errorf("数据库未初始化")
	}

	result := make(map[string]interface{})
	for _, collName := range allCollections {
		count, err := db.Collection(collName).EstimatedDocumentCount(ctx)
		if err != nil {
			utils.Logger.Error().Err(err).Str("collection", collName).Msg("获取集合计数失败")
			result[collName] = map[string]interface{}{
				"count": 0,
				"error": err.Error(),
			}
			continue
		}
		result[collName] = map[string]interface{}{
			"count": count,
		}
	}

	return result, nil
}

// FindUserByID 根据ID查找用户
func FindUserByID(c context.Context, id string) (*models.User, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, utils.CreateBadRequestError("无效的ID格式")
	}
	return findUser(c, bson.M{"_id": objID})
}

// FindUserByUsername 根据用户名查找用户
func FindUserByUsername(c context.Context, username string) (*models.User, error) {
	return findUser(c, bson.M{"username": username})
}

func findUser(c context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := Collection(UsersCollection).FindOne(c, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, utils.CreateNotFoundError("用户")
		}
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	return &user, nil
}

// GetContext 返回MongoDB操作的上下文
func GetContext() context.Context {
	return ctx
}

// Collection 返回指定名称的集合
func Collection(name string) *mongo.Collection {
	return db.Collection(name)
}
