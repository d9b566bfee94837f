package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ConfigType 配置类型枚举
type ConfigType string

const (
	// ConfigTypePlanningContext 计划上下文（公司目标、基准、风险偏好）
	ConfigTypePlanningContext ConfigType = "planning_context"
)

// PlanningConfigKey 计划上下文只有一条配置
const PlanningConfigKey = "default"

// SystemConfig 系统配置模型 (MongoDB文档结构)
type SystemConfig struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	ConfigType  ConfigType         `bson:"configType" json:"configType"`
	ConfigKey   string             `bson:"configKey" json:"configKey"`
	ConfigValue interface{}        `bson:"configValue" json:"configValue"` // 使用interface{}存储任意类型值
	Description string             `bson:"description" json:"description"`
	IsEnabled   bool               `bson:"isEnabled" json:"isEnabled"`

	// 更新信息
	UpdaterID   string    `bson:"updaterId,omitempty" json:"updaterId,omitempty"`
	UpdaterName string    `bson:"updaterName,omitempty" json:"updaterName,omitempty"`
	UpdatedAt   time.Time `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// UpdatePlanningRequest 更新计划上下文请求
type UpdatePlanningRequest struct {
	BaseRate       *float64  `json:"baseRate" binding:"required,min=0,max=150"`
	GlobalAvgSku   float64   `json:"globalAvgSku" binding:"min=0"`
	GlobalAvgSales float64   `json:"globalAvgSales" binding:"min=0"`
	RiskLevel      RiskLevel `json:"riskLevel" binding:"required,oneof=low medium high"`
}

// PlanningContext 转换为计划上下文
func (r UpdatePlanningRequest) PlanningContext() PlanningContext {
	pc := PlanningContext{
		GlobalAvgSku:   r.GlobalAvgSku,
		GlobalAvgSales: r.GlobalAvgSales,
		RiskLevel:      r.RiskLevel,
	}
	if r.BaseRate != nil {
		pc.BaseRate = *r.BaseRate
	}
	return pc
}
