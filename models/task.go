package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DecisionType 用户对建议动作的处理
type DecisionType string

const (
	DecisionDelete DecisionType = "delete" // 永久隐藏
	DecisionSnooze DecisionType = "snooze" // 延后到 SnoozeUntil
	DecisionReset  DecisionType = "reset"  // 撤销之前的处理
)

// TaskDecision 建议动作处理记录，按动作ID追加，最新一条生效
type TaskDecision struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	ActionID    string             `bson:"actionId" json:"actionId"`
	Decision    DecisionType       `bson:"decision" json:"decision"`
	Reason      string             `bson:"reason,omitempty" json:"reason,omitempty"`
	SnoozeUntil *time.Time         `bson:"snoozeUntil,omitempty" json:"snoozeUntil,omitempty"`
	UserID      string             `bson:"userId" json:"userId"`
	UserName    string             `bson:"userName" json:"userName"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

// TaskDecisionRequest 处理建议动作请求
type TaskDecisionRequest struct {
	ActionID   string       `json:"actionId" binding:"required"`
	Decision   DecisionType `json:"decision" binding:"required,oneof=delete snooze reset"`
	Reason     string       `json:"reason" binding:"max=500"`
	SnoozeDays int          `json:"snoozeDays" binding:"omitempty,min=1,max=365"`
}
