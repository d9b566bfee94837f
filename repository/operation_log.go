package repository

import (
	"context"
	"fmt"

	"github.com/BerniceZTT/territory_end/models"
)

// SaveOperationLog 保存审计记录
func SaveOperationLog(c context.Context, log *models.OperationLog) error {
	if _, err := Collection(ApiOperationLogsCollection).InsertOne(c, log); err != nil {
		return fmt.Errorf("保存操作日志失败: %w", err)
	}
	return nil
}
