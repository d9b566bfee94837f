// Package analytics 销售区域分析核心：增长计划、统计异常、流失评分、建议动作和区域匹配。
// 所有函数均为纯函数，不做 I/O，不持有共享状态。
package analytics

import "math"

// QuarterCoefficients 季度季节系数，合计必须为 1.0
var QuarterCoefficients = [4]float64{0.22, 0.25, 0.27, 0.26}

// MonthCoefficients 月度季节系数，由季度系数均分到各月
var MonthCoefficients = func() [12]float64 {
	var out [12]float64
	for m := 0; m < 12; m++ {
		out[m] = QuarterCoefficients[m/3] / 3
	}
	return out
}()

// NormalizeNonLinear 非线性平滑：把极端值向 0.5 压缩，0.5 为不动点
func NormalizeNonLinear(value, k float64) float64 {
	v := clamp(value, 0, 1)
	c := v - 0.5
	return clamp(0.5+c*(1-k*c*c), 0, 1)
}

// CalculateBaseEffect 基数效应：实际低于目标为正（可增长），高于目标为负
func CalculateBaseEffect(actual, target, aggression float64) float64 {
	return (target - actual) * aggression
}

// CalculateZScore 计算Z分数，标准差为0时返回0
func CalculateZScore(value, mean, std float64) float64 {
	if std == 0 {
		return 0
	}
	return (value - mean) / std
}

// DistributeYearToQuarter 年计划拆分到季度
func DistributeYearToQuarter(yearlyPlan, seasonCoef float64) float64 {
	return yearlyPlan * seasonCoef
}

// DistributeYearToMonth 年计划拆分到月份
func DistributeYearToMonth(yearlyPlan, seasonCoef float64) float64 {
	return yearlyPlan * seasonCoef
}

// SeasonalPlan 返回年计划的季度和月度拆分
func SeasonalPlan(yearlyPlan float64) (quarterly [4]float64, monthly [12]float64) {
	for i, coef := range QuarterCoefficients {
		quarterly[i] = DistributeYearToQuarter(yearlyPlan, coef)
	}
	for i, coef := range MonthCoefficients {
		monthly[i] = DistributeYearToMonth(yearlyPlan, coef)
	}
	return quarterly, monthly
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// safeDiv 分母为0时返回 fallback
func safeDiv(num, den, fallback float64) float64 {
	if den == 0 {
		return fallback
	}
	return num / den
}
