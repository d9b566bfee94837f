package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/BerniceZTT/territory_end/models"
)

// RecordDecision 追加一条动作处理记录
func (Store) RecordDecision(c context.Context, d *models.TaskDecision) error {
	_, err := ExecuteDbOperation(func() (interface{}, error) {
		return Collection(TaskDecisionsCollection).InsertOne(c, d)
	}, 3)
	if err != nil {
		return fmt.Errorf("保存动作处理记录失败: %w", err)
	}
	return nil
}

// ListDecisions 按时间正序返回全部处理记录
func (Store) ListDecisions(c context.Context) ([]models.TaskDecision, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := Collection(TaskDecisionsCollection).Find(c, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("查询动作处理记录失败: %w", err)
	}
	defer cursor.Close(c)

	decisions := []models.TaskDecision{}
	if err := cursor.All(c, &decisions); err != nil {
		return nil, fmt.Errorf("解析动作处理记录失败: %w", err)
	}
	return decisions, nil
}
