package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/BerniceZTT/territory_end/models"
)

// ActionConfig 建议动作阈值
type ActionConfig struct {
	// 视为零销量的上限
	NearZeroFact float64 `json:"nearZeroFact" yaml:"near_zero_fact"`
	// 长时间无订单的天数；SilentHorizon 为激活优先级封顶的沉默天数
	SilentDays    int     `json:"silentDays" yaml:"silent_days"`
	SilentHorizon float64 `json:"silentHorizon" yaml:"silent_horizon"`
	// 触发增长动作的最小缺口%
	GrowthGapPct float64            `json:"growthGapPct" yaml:"growth_gap_pct"`
	TierWeights  map[string]float64 `json:"tierWeights" yaml:"tier_weights"`
	// 低于均值异常桶中零销量客户的加分
	OutlierBoost    float64 `json:"outlierBoost" yaml:"outlier_boost"`
	DataFixBase     float64 `json:"dataFixBase" yaml:"data_fix_base"`
	DataFixPerIssue float64 `json:"dataFixPerIssue" yaml:"data_fix_per_issue"`
}

// DefaultActionConfig 默认阈值
func DefaultActionConfig() ActionConfig {
	return ActionConfig{
		NearZeroFact:  1,
		SilentDays:    60,
		SilentHorizon: 180,
		GrowthGapPct:  30,
		TierWeights: map[string]float64{
			models.ABCCategoryA: 1.0,
			models.ABCCategoryB: 0.7,
		},
		OutlierBoost:    10,
		DataFixBase:     10,
		DataFixPerIssue: 5,
	}
}

const (
	activationBase  = 30
	activationRange = 20
	growthScale     = 0.6
)

// ActionInput 动作生成输入
type ActionInput struct {
	Buckets  []models.SalesBucket
	Churn    []models.ChurnMetric
	Outliers []models.OutlierRecord
}

// actionKey 去重键
type actionKey struct {
	clientID   string
	actionType models.ActionType
}

var actionNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("territory_end/actions"))

// ActionID 由 (客户, 类型) 生成稳定ID，供任务存储记录删除/延后
func ActionID(clientID string, actionType models.ActionType) string {
	return uuid.NewSHA1(actionNamespace, []byte(clientID+"\x00"+string(actionType))).String()
}

// Prioritize 生成去重、过滤并按优先级排序的建议动作列表。
// visible 为 nil 时全部可见。
func Prioritize(in ActionInput, cfg ActionConfig, visible func(id string) bool) []models.SuggestedAction {
	churnByClient := make(map[string]models.ChurnMetric, len(in.Churn))
	for _, m := range in.Churn {
		churnByClient[m.ClientID] = m
	}

	zeroSaleOutlier := make(map[string]bool)
	for _, o := range in.Outliers {
		if o.ZScore >= 0 {
			continue
		}
		for _, c := range o.Contributions {
			if c.Diagnosis == models.DiagnosisZeroSale {
				zeroSaleOutlier[c.ClientKey] = true
			}
		}
	}

	best := make(map[actionKey]models.SuggestedAction)
	add := func(a models.SuggestedAction) {
		k := actionKey{clientID: a.ClientID, actionType: a.Type}
		if cur, ok := best[k]; ok && cur.PriorityScore >= a.PriorityScore {
			return
		}
		a.ID = ActionID(a.ClientID, a.Type)
		best[k] = a
	}

	for _, v := range mergeClients(in.Buckets) {
		c := v.client
		m, hasMetric := churnByClient[c.Key]
		isChurn := hasMetric && (m.RiskLevel == models.ChurnRiskHigh || m.RiskLevel == models.ChurnRiskCritical)

		if isChurn {
			add(models.SuggestedAction{
				ClientID:      c.Key,
				ClientName:    c.Name,
				Type:          models.ActionChurn,
				PriorityScore: m.RiskScore,
				Reason: fmt.Sprintf("%s churn risk (score %.0f): %d days since last order, volume down %.0f%%",
					m.RiskLevel, m.RiskScore, m.DaysSinceLastOrder, m.VolumeDropPct),
				RecommendedStep: "Visit or call the client and agree a recovery order",
			})
		}

		if !isChurn {
			if a, ok := activationAction(c, m, hasMetric, zeroSaleOutlier[c.Key], cfg); ok {
				add(a)
			}
			if a, ok := growthAction(v, m, hasMetric, cfg); ok {
				add(a)
			}
		}

		if a, ok := dataFixAction(c, cfg); ok {
			add(a)
		}
	}

	out := make([]models.SuggestedAction, 0, len(best))
	for _, a := range best {
		if visible != nil && !visible(a.ID) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PriorityScore != out[j].PriorityScore {
			return out[i].PriorityScore > out[j].PriorityScore
		}
		if out[i].ClientID != out[j].ClientID {
			return out[i].ClientID < out[j].ClientID
		}
		return out[i].Type < out[j].Type
	})
	return out
}

func activationAction(c models.ClientPoint, m models.ChurnMetric, hasMetric, zeroSaleOutlier bool, cfg ActionConfig) (models.SuggestedAction, bool) {
	if !c.Matched {
		return models.SuggestedAction{}, false
	}
	nearZero := c.Fact <= cfg.NearZeroFact
	silent := hasMetric && m.DaysSinceLastOrder >= cfg.SilentDays
	if !nearZero && !silent {
		return models.SuggestedAction{}, false
	}

	days := cfg.SilentHorizon
	if hasMetric {
		days = float64(m.DaysSinceLastOrder)
	}
	priority := activationBase + activationRange*math.Min(safeDiv(days, cfg.SilentHorizon, 1), 1)
	if zeroSaleOutlier {
		priority += cfg.OutlierBoost
	}

	reason := "Registry-matched client with no recorded volume"
	if !nearZero {
		reason = fmt.Sprintf("No orders for %d days", m.DaysSinceLastOrder)
	}
	if zeroSaleOutlier {
		reason += "; zero sales in an under-performing bucket"
	}
	return models.SuggestedAction{
		ClientID:        c.Key,
		ClientName:      c.Name,
		Type:            models.ActionActivation,
		PriorityScore:   priority,
		Reason:          reason,
		RecommendedStep: "Schedule a visit and offer a first or re-activation order",
	}, true
}

func growthAction(v clientView, m models.ChurnMetric, hasMetric bool, cfg ActionConfig) (models.SuggestedAction, bool) {
	c := v.client
	weight, ok := cfg.TierWeights[c.ABCCategory]
	if !ok || c.Fact <= cfg.NearZeroFact {
		return models.SuggestedAction{}, false
	}

	gap, source := 0.0, ""
	if hasMetric && m.VolumeDropPct > gap {
		gap, source = m.VolumeDropPct, "its previous period"
	}
	if len(v.peerAvgs) > 0 {
		peerAvg := 0.0
		for _, p := range v.peerAvgs {
			peerAvg += p
		}
		peerAvg /= float64(len(v.peerAvgs))
		perBucket := c.Fact / float64(len(v.peerAvgs))
		if peerGap := safeDiv(peerAvg-perBucket, peerAvg, 0) * 100; peerGap > gap {
			gap, source = peerGap, "the peer average"
		}
	}
	if gap < cfg.GrowthGapPct {
		return models.SuggestedAction{}, false
	}

	return models.SuggestedAction{
		ClientID:        c.Key,
		ClientName:      c.Name,
		Type:            models.ActionGrowth,
		PriorityScore:   weight * gap * growthScale,
		Reason:          fmt.Sprintf("Tier %s client %.0f%% below %s", c.ABCCategory, gap, source),
		RecommendedStep: "Review assortment and propose missing SKUs",
	}, true
}

func dataFixAction(c models.ClientPoint, cfg ActionConfig) (models.SuggestedAction, bool) {
	var issues []string
	if strings.TrimSpace(c.Address) == "" {
		issues = append(issues, "missing address")
	}
	if !c.HasCoordinates() {
		issues = append(issues, "missing coordinates")
	}
	if strings.TrimSpace(c.Type) == "" {
		issues = append(issues, "unidentified channel")
	}
	if len(issues) == 0 {
		return models.SuggestedAction{}, false
	}
	return models.SuggestedAction{
		ClientID:        c.Key,
		ClientName:      c.Name,
		Type:            models.ActionDataFix,
		PriorityScore:   cfg.DataFixBase + cfg.DataFixPerIssue*float64(len(issues)),
		Reason:          "Data quality: " + strings.Join(issues, ", "),
		RecommendedStep: "Correct the client card in the registry",
	}, true
}
