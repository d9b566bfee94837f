package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BerniceZTT/territory_end/models"
	"github.com/BerniceZTT/territory_end/utils"
)

// ListDecisions 获取建议动作处理记录，区域经理只看到自己的记录
// GET /api/tasks/decisions
func ListDecisions(c *gin.Context) {
	user, err := utils.GetUser(c)
	if err != nil {
		utils.HandleError(c, utils.CreateUnauthorizedError())
		return
	}

	decisions, err := analyzer.ListDecisions(c.Request.Context(), user)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"decisions": decisions, "total": len(decisions)}, "")
}

// CreateDecision 删除、延后或恢复一个建议动作
// POST /api/tasks/decisions
func CreateDecision(c *gin.Context) {
	user, err := utils.GetUser(c)
	if err != nil {
		utils.HandleError(c, utils.CreateUnauthorizedError())
		return
	}

	var req models.TaskDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleError(c, utils.CreateBadRequestError("invalid decision: "+err.Error()))
		return
	}

	d, err := analyzer.RecordDecision(c.Request.Context(), req, user)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, d, "", http.StatusCreated)
}
