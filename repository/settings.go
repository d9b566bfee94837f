package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/BerniceZTT/territory_end/models"
)

// LoadPlanningContext 读取保存的计划上下文，未配置时 ok 为 false
func (Store) LoadPlanningContext(c context.Context) (pc models.PlanningContext, ok bool, err error) {
	var cfg models.SystemConfig
	err = Collection(SystemConfigsCollection).FindOne(c, bson.M{
		"configType": models.ConfigTypePlanningContext,
		"configKey":  models.PlanningConfigKey,
		"isEnabled":  true,
	}).Decode(&cfg)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return pc, false, nil
		}
		return pc, false, fmt.Errorf("查询计划上下文失败: %w", err)
	}

	pc, err = DecodePlanningContext(cfg.ConfigValue)
	if err != nil {
		return pc, false, err
	}
	return pc, true, nil
}

// DecodePlanningContext 把 configValue（bson.D / bson.M 等）转换为计划上下文
func DecodePlanningContext(value interface{}) (models.PlanningContext, error) {
	var pc models.PlanningContext
	if value == nil {
		return pc, fmt.Errorf("计划上下文为空")
	}
	data, err := bson.Marshal(value)
	if err != nil {
		return pc, fmt.Errorf("BSON 序列化失败: %w", err)
	}
	if err := bson.Unmarshal(data, &pc); err != nil {
		return pc, fmt.Errorf("无法解析计划上下文: %w", err)
	}
	return pc, nil
}

// SavePlanningContext 覆盖保存计划上下文
func (Store) SavePlanningContext(c context.Context, pc models.PlanningContext, updaterID, updaterName string) error {
	filter := bson.M{
		"configType": models.ConfigTypePlanningContext,
		"configKey":  models.PlanningConfigKey,
	}
	update := bson.M{"$set": bson.M{
		"configValue": pc,
		"description": "公司目标增长率、基准和风险偏好",
		"isEnabled":   true,
		"updaterId":   updaterID,
		"updaterName": updaterName,
		"updatedAt":   time.Now(),
	}}
	_, err := ExecuteDbOperation(func() (interface{}, error) {
		return Collection(SystemConfigsCollection).UpdateOne(c, filter, update, options.Update().SetUpsert(true))
	}, 3)
	if err != nil {
		return fmt.Errorf("保存计划上下文失败: %w", err)
	}
	return nil
}
