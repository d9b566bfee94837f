package service

import (
	"context"

	"github.com/BerniceZTT/territory_end/models"
	"github.com/BerniceZTT/territory_end/utils"
)

// PlanningContext 读取保存的计划上下文，未保存时使用配置文件中的默认值
func (a *Analyzer) PlanningContext(ctx context.Context) (models.PlanningContext, error) {
	if a.Settings != nil {
		pc, ok, err := a.Settings.LoadPlanningContext(ctx)
		if err != nil {
			return models.PlanningContext{}, err
		}
		if ok {
			return pc, nil
		}
	}
	pc := a.Config.Planning
	if !pc.RiskLevel.Valid() {
		pc.RiskLevel = models.RiskLevelMedium
	}
	return pc, nil
}

// UpdatePlanningContext 保存计划上下文并清空看板缓存
func (a *Analyzer) UpdatePlanningContext(ctx context.Context, pc models.PlanningContext, user *utils.LoginUser) (models.PlanningContext, error) {
	if !pc.RiskLevel.Valid() {
		return pc, utils.CreateBadRequestError("riskLevel must be one of low, medium, high")
	}
	if pc.BaseRate < 0 || pc.GlobalAvgSku < 0 || pc.GlobalAvgSales < 0 {
		return pc, utils.CreateBadRequestError("rates and benchmarks must not be negative")
	}

	if err := a.Settings.SavePlanningContext(ctx, pc, user.ID, user.Username); err != nil {
		return pc, err
	}
	a.invalidate(ctx)

	utils.Logger.Info().
		Float64("baseRate", pc.BaseRate).
		Str("riskLevel", string(pc.RiskLevel)).
		Str("user", user.Username).
		Msg("计划上下文已更新")
	return pc, nil
}
