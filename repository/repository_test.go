package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/BerniceZTT/territory_end/models"
)

func TestDecodePlanningContext(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
	}{
		{name: "bson.D", value: bson.D{{Key: "baseRate", Value: 12.5}, {Key: "globalAvgSku", Value: 4.0}, {Key: "riskLevel", Value: "high"}}},
		{name: "bson.M", value: bson.M{"baseRate": 12.5, "globalAvgSku": 4.0, "riskLevel": "high"}},
		{name: "struct", value: models.PlanningContext{BaseRate: 12.5, GlobalAvgSku: 4, RiskLevel: models.RiskLevelHigh}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pc, err := DecodePlanningContext(tt.value)
			require.NoError(t, err)
			assert.Equal(t, 12.5, pc.BaseRate)
			assert.Equal(t, 4.0, pc.GlobalAvgSku)
			assert.Equal(t, models.RiskLevelHigh, pc.RiskLevel)
		})
	}

	_, err := DecodePlanningContext(nil)
	assert.Error(t, err)
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, isRetryableError(nil))
	assert.False(t, isRetryableError(mongo.ErrNoDocuments))
	assert.False(t, isRetryableError(fmt.Errorf("wrapped: %w", context.Canceled)))
	assert.False(t, isRetryableError(errors.New("duplicate key")))

	assert.True(t, isRetryableError(mongo.CommandError{Code: 189, Message: "stepped down"}))
	assert.False(t, isRetryableError(mongo.CommandError{Code: 11000, Message: "dup"}))
	assert.True(t, isRetryableError(errors.New("server selection error: Connection Refused")))
}

func TestExecuteDbOperationStopsOnPermanentError(t *testing.T) {
	calls := 0
	_, err := ExecuteDbOperation(func() (interface{}, error) {
		calls++
		return nil, mongo.ErrNoDocuments
	}, 3)

	assert.ErrorIs(t, err, mongo.ErrNoDocuments)
	assert.Equal(t, 1, calls)

	result, err := ExecuteDbOperation(func() (interface{}, error) { return 42, nil }, 0)
	require.NoError(t, err)
	assert.Equal(t, 42, result)
}
