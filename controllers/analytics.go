package controllers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BerniceZTT/territory_end/exporter"
	"github.com/BerniceZTT/territory_end/models"
	"github.com/BerniceZTT/territory_end/utils"
)

// 相似区域默认数量
const defaultSimilarTop = 3

// dashboard 计算当前请求的看板，失败时已写出响应
func dashboard(c *gin.Context) (*models.DashboardResponse, bool) {
	_, f, ok := currentFilter(c)
	if !ok {
		return nil, false
	}
	resp, err := analyzer.Dashboard(c.Request.Context(), f)
	if err != nil {
		utils.HandleError(c, err)
		return nil, false
	}
	return resp, true
}

// GetDashboard 获取完整看板
// GET /api/analytics/dashboard
func GetDashboard(c *gin.Context) {
	if resp, ok := dashboard(c); ok {
		utils.SuccessResponse(c, resp, "")
	}
}

// GetPlan 获取区域×品牌计划
// GET /api/analytics/plan
func GetPlan(c *gin.Context) {
	if resp, ok := dashboard(c); ok {
		utils.SuccessResponse(c, gin.H{
			"snapshotId": resp.SnapshotID,
			"context":    resp.Context,
			"plan":       resp.Plan,
		}, "")
	}
}

// GetAnomalies 获取统计异常
// GET /api/analytics/anomalies
func GetAnomalies(c *gin.Context) {
	if resp, ok := dashboard(c); ok {
		utils.SuccessResponse(c, gin.H{"snapshotId": resp.SnapshotID, "outliers": resp.Outliers}, "")
	}
}

// GetChurn 获取流失雷达
// GET /api/analytics/churn
func GetChurn(c *gin.Context) {
	if resp, ok := dashboard(c); ok {
		utils.SuccessResponse(c, gin.H{"snapshotId": resp.SnapshotID, "churn": resp.Churn}, "")
	}
}

// GetActions 获取建议动作（已过滤删除和延后的动作）
// GET /api/analytics/actions
func GetActions(c *gin.Context) {
	if resp, ok := dashboard(c); ok {
		utils.SuccessResponse(c, gin.H{"snapshotId": resp.SnapshotID, "actions": resp.Actions}, "")
	}
}

// GetRegions 获取区域指标
// GET /api/analytics/regions
func GetRegions(c *gin.Context) {
	if resp, ok := dashboard(c); ok {
		utils.SuccessResponse(c, gin.H{"snapshotId": resp.SnapshotID, "regions": resp.Regions}, "")
	}
}

// GetSimilarRegions 为区域挑选对照组
// GET /api/analytics/regions/:name/similar?top=N
func GetSimilarRegions(c *gin.Context) {
	_, f, ok := currentFilter(c)
	if !ok {
		return
	}
	exp, err := analyzer.SimilarRegions(c.Request.Context(), c.Param("name"), queryInt(c, "top", defaultSimilarTop), f)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, exp, "")
}

// ExportPlan 导出计划工作簿
// GET /api/analytics/plan/export
func ExportPlan(c *gin.Context) {
	user, f, ok := currentFilter(c)
	if !ok {
		return
	}

	// 先写入缓冲，出错时仍可返回 JSON
	var buf bytes.Buffer
	if err := analyzer.ExportPlan(c.Request.Context(), &buf, f); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.Logger.Info().Str("user", user.Username).Int("bytes", buf.Len()).Msg("导出计划")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, planFileName(f)))
	c.Data(http.StatusOK, exporter.ContentType, buf.Bytes())
}

func planFileName(f models.Filter) string {
	name := "plan"
	if f.Region != "" {
		name += "_" + f.Region
	}
	if f.Brand != "" {
		name += "_" + f.Brand
	}
	return name + ".xlsx"
}
