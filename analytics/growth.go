package analytics

import (
	"math"

	"github.com/BerniceZTT/territory_end/models"
)

const (
	shareSmoothingK    = 0.3
	shareTarget        = 0.35 // 目标覆盖率 35%
	shareAggression    = 15
	shareUpperBound    = 0.9
	widthMultiplier    = 15
	velocityMultiplier = 10
	factorFloor        = -5
	factorCeiling      = 10

	acquisitionStrong = 12
	acquisitionNormal = 7
	acquisitionWeak   = 3
	strongRMRatio     = 1.1
	weakRMRatio       = 0.8

	// 新区域目标：获取奖励的一半作为目标渗透率
	acquisitionShareFactor = 0.5

	maxGrowthPct      = 150
	minGrowthPct      = 5
	minGrowthBaseRate = 5
)

// riskCoefficients 风险偏好系数
var riskCoefficients = map[models.RiskLevel]float64{
	models.RiskLevelLow:    0.8,
	models.RiskLevelMedium: 1.0,
	models.RiskLevelHigh:   1.25,
}

// RiskCoefficient 返回风险偏好对应的系数，未知取 1.0
func RiskCoefficient(level models.RiskLevel) float64 {
	if coef, ok := riskCoefficients[level]; ok {
		return coef
	}
	return 1.0
}

// MinGrowthLimit 增长下限：公司目标高于5%时下限为5%
func MinGrowthLimit(ctx models.PlanningContext) float64 {
	if ctx.BaseRate > minGrowthBaseRate {
		return minGrowthPct
	}
	return 0
}

// MarketShare 覆盖率份额：活跃客户 / (活跃客户 + 未覆盖的潜在客户)
func MarketShare(activeCount, matchedCount, totalRegionOKB int) float64 {
	uncovered := totalRegionOKB - matchedCount
	if uncovered < 0 {
		uncovered = 0
	}
	universe := activeCount + uncovered
	if universe <= 0 || activeCount <= 0 {
		return 0
	}
	return clamp(float64(activeCount)/float64(universe), 0, 1)
}

// CalculateGrowth 计算一个区域/品牌桶的增长率和绝对计划量
func CalculateGrowth(t models.BucketTotals, ctx models.PlanningContext) models.GrowthResult {
	share := MarketShare(t.ActiveCount, t.MatchedCount, t.TotalRegionOKB)
	ratio := safeDiv(t.RMGlobalVelocity, ctx.GlobalAvgSales, 1.0)

	factors := models.GrowthFactors{Base: ctx.BaseRate}
	established := t.TotalFact > 0

	if established {
		if share > 0 && share < shareUpperBound {
			smoothed := NormalizeNonLinear(share, shareSmoothingK)
			factors.Share = CalculateBaseEffect(smoothed, shareTarget, shareAggression)
		}
		if ctx.GlobalAvgSku > 0 {
			gap := (ctx.GlobalAvgSku - t.AvgSku) / ctx.GlobalAvgSku
			factors.Width = clamp(gap*widthMultiplier, factorFloor, factorCeiling)
		}
		if ctx.GlobalAvgSales > 0 {
			gap := (ctx.GlobalAvgSales - t.AvgVelocity) / ctx.GlobalAvgSales
			factors.Velocity = clamp(gap*velocityMultiplier, factorFloor, factorCeiling)
		}
	} else {
		factors.Acquisition = acquisitionBonus(ratio)
	}

	minLimit := MinGrowthLimit(ctx)
	growthPct := clamp(factors.Sum()*RiskCoefficient(ctx.RiskLevel), minLimit, maxGrowthPct)

	var plan float64
	if established {
		plan = t.TotalFact * (1 + growthPct/100)
	} else {
		plan = greenfieldPlan(t.TotalRegionOKB, factors.Acquisition, ctx)
	}

	return models.GrowthResult{
		Plan:      plan,
		GrowthPct: growthPct,
		Factors:   factors,
		Details: models.GrowthDetails{
			MySku:             t.AvgSku,
			GlobalSku:         ctx.GlobalAvgSku,
			MyVelocity:        t.AvgVelocity,
			GlobalVelocity:    ctx.GlobalAvgSales,
			MarketShare:       share,
			RMEfficiencyRatio: ratio,
		},
	}
}

// acquisitionBonus 区域经理在其他区域的效率越高，新区域的进入目标越激进
func acquisitionBonus(ratio float64) float64 {
	switch {
	case ratio > strongRMRatio:
		return acquisitionStrong
	case ratio < weakRMRatio:
		return acquisitionWeak
	default:
		return acquisitionNormal
	}
}

func greenfieldPlan(totalRegionOKB int, acquisition float64, ctx models.PlanningContext) float64 {
	if totalRegionOKB <= 0 || ctx.GlobalAvgSales <= 0 {
		return 0
	}
	targetShare := (acquisition / 100) * acquisitionShareFactor
	targetClients := math.Ceil(float64(totalRegionOKB) * targetShare)
	avgClientVolume := ctx.GlobalAvgSales * ctx.GlobalAvgSku
	return math.Max(1, targetClients*avgClientVolume)
}
