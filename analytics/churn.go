package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/BerniceZTT/territory_end/models"
)

// ChurnConfig 流失评分权重和阈值
type ChurnConfig struct {
	// 销量对比窗口（天）
	WindowDays int `json:"windowDays" yaml:"window_days"`
	// 沉默天数达到该值时近因分满分
	RecencyHorizonDays float64 `json:"recencyHorizonDays" yaml:"recency_horizon_days"`
	RecencyWeight      float64 `json:"recencyWeight" yaml:"recency_weight"`
	GapWeight          float64 `json:"gapWeight" yaml:"gap_weight"`
	DropWeight         float64 `json:"dropWeight" yaml:"drop_weight"`
	MediumThreshold    float64 `json:"mediumThreshold" yaml:"medium_threshold"`
	HighThreshold      float64 `json:"highThreshold" yaml:"high_threshold"`
	CriticalThreshold  float64 `json:"criticalThreshold" yaml:"critical_threshold"`
}

// DefaultChurnConfig 默认权重：近因50，超期25，降量25
func DefaultChurnConfig() ChurnConfig {
	return ChurnConfig{
		WindowDays:         365,
		RecencyHorizonDays: 180,
		RecencyWeight:      50,
		GapWeight:          25,
		DropWeight:         25,
		MediumThreshold:    25,
		HighThreshold:      50,
		CriticalThreshold:  75,
	}
}

const hoursPerDay = 24

// saleEvent 一次有销量的记录
type saleEvent struct {
	date   time.Time
	volume float64
}

// orderHistory 从日销量提取订单历史，无日销量时退回月销量（月初）
func orderHistory(c models.ClientPoint) []saleEvent {
	events := parseSeries(c.DailyFact, models.DayLayout)
	if len(events) == 0 {
		events = parseSeries(c.MonthlyFact, models.MonthLayout)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].date.Before(events[j].date) })
	return events
}

func parseSeries(series map[string]float64, layout string) []saleEvent {
	var events []saleEvent
	for key, v := range series {
		if v <= 0 {
			continue
		}
		d, err := time.Parse(layout, key)
		if err != nil {
			continue
		}
		events = append(events, saleEvent{date: d, volume: v})
	}
	return events
}

func daysBetween(a, b time.Time) float64 {
	return b.Sub(a).Hours() / hoursPerDay
}

// ScoreClient 计算单个客户的流失指标，无销量历史的客户返回 false
func ScoreClient(c models.ClientPoint, now time.Time, cfg ChurnConfig) (models.ChurnMetric, bool) {
	events := orderHistory(c)
	if len(events) == 0 {
		return models.ChurnMetric{}, false
	}

	last := events[len(events)-1].date
	daysSince := int(math.Floor(daysBetween(last, now)))
	if daysSince < 0 {
		daysSince = 0
	}

	avgGap := 0.0
	if len(events) > 1 {
		avgGap = daysBetween(events[0].date, last) / float64(len(events)-1)
	}

	drop := VolumeDropPct(events, now, cfg.WindowDays)
	score := RiskScore(float64(daysSince), avgGap, drop, cfg)

	return models.ChurnMetric{
		ClientID:           c.Key,
		ClientName:         c.Name,
		RiskScore:          score,
		RiskLevel:          RiskLevelFor(score, cfg),
		DaysSinceLastOrder: daysSince,
		AvgOrderGap:        avgGap,
		VolumeDropPct:      drop,
	}, true
}

// VolumeDropPct 最近窗口相对前一个等长窗口的降量百分比，范围 [0,100]
func VolumeDropPct(events []saleEvent, now time.Time, windowDays int) float64 {
	if windowDays <= 0 {
		return 0
	}
	recentStart := now.AddDate(0, 0, -windowDays)
	priorStart := now.AddDate(0, 0, -2*windowDays)

	var recent, prior float64
	for _, e := range events {
		switch {
		case e.date.After(recentStart) && !e.date.After(now):
			recent += e.volume
		case e.date.After(priorStart) && !e.date.After(recentStart):
			prior += e.volume
		}
	}
	if prior <= 0 {
		return 0
	}
	return clamp((prior-recent)/prior*100, 0, 100)
}

// RiskScore 近因、超期和降量的加权合成分
func RiskScore(daysSince, avgGap, dropPct float64, cfg ChurnConfig) float64 {
	recency := clamp(safeDiv(daysSince, cfg.RecencyHorizonDays, 0), 0, 1)

	// 沉默时间超过平均下单间隔越多，超期分越高；只下过一次单时用近因代替
	overdue := recency
	if avgGap > 0 {
		overdue = clamp((daysSince/avgGap-1)/2, 0, 1)
	}

	drop := clamp(dropPct/100, 0, 1)
	return recency*cfg.RecencyWeight + overdue*cfg.GapWeight + drop*cfg.DropWeight
}

// RiskLevelFor 分数分级
func RiskLevelFor(score float64, cfg ChurnConfig) models.ChurnRiskLevel {
	switch {
	case score >= cfg.CriticalThreshold:
		return models.ChurnRiskCritical
	case score >= cfg.HighThreshold:
		return models.ChurnRiskHigh
	case score >= cfg.MediumThreshold:
		return models.ChurnRiskMedium
	default:
		return models.ChurnRiskLow
	}
}

// ChurnRadar 对快照中所有客户评分，按风险分降序返回
func ChurnRadar(buckets []models.SalesBucket, now time.Time, cfg ChurnConfig) []models.ChurnMetric {
	out := []models.ChurnMetric{}
	for _, v := range mergeClients(buckets) {
		if m, ok := ScoreClient(v.client, now, cfg); ok {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RiskScore != out[j].RiskScore {
			return out[i].RiskScore > out[j].RiskScore
		}
		return out[i].ClientID < out[j].ClientID
	})
	return out
}
