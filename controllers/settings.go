package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/BerniceZTT/territory_end/models"
	"github.com/BerniceZTT/territory_end/utils"
)

// GetPlanningContext 获取计划上下文
// GET /api/settings/planning
func GetPlanningContext(c *gin.Context) {
	pc, err := analyzer.PlanningContext(c.Request.Context())
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, pc, "")
}

// UpdatePlanningContext 更新计划上下文
// PUT /api/settings/planning
func UpdatePlanningContext(c *gin.Context) {
	user, err := utils.GetUser(c)
	if err != nil {
		utils.HandleError(c, utils.CreateUnauthorizedError())
		return
	}

	var req models.UpdatePlanningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleError(c, utils.CreateBadRequestError("invalid planning context: "+err.Error()))
		return
	}

	pc, err := analyzer.UpdatePlanningContext(c.Request.Context(), req.PlanningContext(), user)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, pc, "planning context updated")
}
