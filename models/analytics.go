package models

// RiskLevel 计划风险偏好
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "low"
	RiskLevelMedium RiskLevel = "medium"
	RiskLevelHigh   RiskLevel = "high"
)

// Valid 是否为合法的风险偏好
func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLevelLow, RiskLevelMedium, RiskLevelHigh:
		return true
	}
	return false
}

// PlanningContext 计划上下文（公司基准）
type PlanningContext struct {
	BaseRate       float64   `json:"baseRate" bson:"baseRate" yaml:"base_rate"`                   // 公司整体目标增长%
	GlobalAvgSku   float64   `json:"globalAvgSku" bson:"globalAvgSku" yaml:"global_avg_sku"`       // 公司平均SKU宽度
	GlobalAvgSales float64   `json:"globalAvgSales" bson:"globalAvgSales" yaml:"global_avg_sales"` // 公司平均单SKU销量
	RiskLevel      RiskLevel `json:"riskLevel" bson:"riskLevel" yaml:"risk_level"`
}

// BucketTotals 区域/品牌桶的汇总输入
type BucketTotals struct {
	TotalFact        float64 `json:"totalFact"`
	TotalPotential   float64 `json:"totalPotential"`
	MatchedCount     int     `json:"matchedCount"`
	ActiveCount      int     `json:"activeCount"`
	TotalRegionOKB   int     `json:"totalRegionOkb"`
	AvgSku           float64 `json:"avgSku"`
	AvgVelocity      float64 `json:"avgVelocity"`
	RMGlobalVelocity float64 `json:"rmGlobalVelocity"`
}

// GrowthFactors 增长因子（加法分量）
type GrowthFactors struct {
	Base        float64 `json:"base"`
	Share       float64 `json:"share"`
	Width       float64 `json:"width"`
	Velocity    float64 `json:"velocity"`
	Acquisition float64 `json:"acquisition"`
}

// Sum 因子合计
func (f GrowthFactors) Sum() float64 {
	return f.Base + f.Share + f.Width + f.Velocity + f.Acquisition
}

// GrowthDetails 增长解释快照
type GrowthDetails struct {
	MySku             float64 `json:"mySku"`
	GlobalSku         float64 `json:"globalSku"`
	MyVelocity        float64 `json:"myVelocity"`
	GlobalVelocity    float64 `json:"globalVelocity"`
	MarketShare       float64 `json:"marketShare"`
	RMEfficiencyRatio float64 `json:"rmEfficiencyRatio"`
}

// GrowthResult 增长计划结果
type GrowthResult struct {
	Plan      float64       `json:"plan"`
	GrowthPct float64       `json:"growthPct"`
	Factors   GrowthFactors `json:"factors"`
	Details   GrowthDetails `json:"details"`
}

// PlanRow 区域×品牌 计划行
type PlanRow struct {
	Region    string       `json:"region"`
	Brand     string       `json:"brand"`
	Owner     string       `json:"owner"`
	Fact      float64      `json:"fact"`
	Potential float64      `json:"potential"`
	Totals    BucketTotals `json:"totals"`
	Result    GrowthResult `json:"result"`
	Quarterly [4]float64   `json:"quarterly"`
	Monthly   [12]float64  `json:"monthly"`
}

// 异常严重程度
const (
	SeverityOutlier = "outlier"
	SeverityExtreme = "extreme"
)

// 客户贡献诊断
const (
	DiagnosisDominant        = "dominant"
	DiagnosisSignificant     = "significant"
	DiagnosisZeroSale        = "zero_sale"
	DiagnosisLowContribution = "low_contribution"
)

// ClientContribution 异常桶内客户贡献
type ClientContribution struct {
	ClientKey string  `json:"clientKey"`
	Name      string  `json:"name"`
	Fact      float64 `json:"fact"`
	SharePct  float64 `json:"sharePct"`
	Diagnosis string  `json:"diagnosis,omitempty"`
}

// OutlierRecord 统计异常记录
type OutlierRecord struct {
	Bucket        BucketRef            `json:"bucket"`
	ZScore        float64              `json:"zScore"`
	Severity      string               `json:"severity"`
	Reason        string               `json:"reason"`
	Contributions []ClientContribution `json:"contributions"`
}

// ChurnRiskLevel 流失风险等级
type ChurnRiskLevel string

const (
	ChurnRiskLow      ChurnRiskLevel = "Low"
	ChurnRiskMedium   ChurnRiskLevel = "Medium"
	ChurnRiskHigh     ChurnRiskLevel = "High"
	ChurnRiskCritical ChurnRiskLevel = "Critical"
)

// ChurnMetric 客户流失指标
type ChurnMetric struct {
	ClientID           string         `json:"clientId"`
	ClientName         string         `json:"clientName"`
	RiskScore          float64        `json:"riskScore"`
	RiskLevel          ChurnRiskLevel `json:"riskLevel"`
	DaysSinceLastOrder int            `json:"daysSinceLastOrder"`
	AvgOrderGap        float64        `json:"avgOrderGap"`
	VolumeDropPct      float64        `json:"volumeDropPct"`
}

// ActionType 建议动作类型
type ActionType string

const (
	ActionChurn      ActionType = "churn"
	ActionActivation ActionType = "activation"
	ActionGrowth     ActionType = "growth"
	ActionDataFix    ActionType = "data_fix"
)

// SuggestedAction 建议动作 (NBA)
type SuggestedAction struct {
	ID              string     `json:"id"`
	ClientID        string     `json:"clientId"`
	ClientName      string     `json:"clientName"`
	Type            ActionType `json:"type"`
	PriorityScore   float64    `json:"priorityScore"`
	Reason          string     `json:"reason"`
	RecommendedStep string     `json:"recommendedStep"`
}

// RegionMetric 区域指标
type RegionMetric struct {
	Name            string   `json:"name"`
	Volume          float64  `json:"volume"`
	GrowthPct       float64  `json:"growthPct"`
	Potential       float64  `json:"potential"`
	SimilarityScore *float64 `json:"similarityScore,omitempty"`
}

// Experiment A/B实验设计
type Experiment struct {
	Target           RegionMetric   `json:"target"`
	Controls         []RegionMetric `json:"controls"`
	ProjectedLiftPct float64        `json:"projectedLiftPct"`
}

// DashboardResponse 看板响应
type DashboardResponse struct {
	SnapshotID string            `json:"snapshotId"`
	Filter     Filter            `json:"filter"`
	Context    PlanningContext   `json:"context"`
	Plan       []PlanRow         `json:"plan"`
	Outliers   []OutlierRecord   `json:"outliers"`
	Churn      []ChurnMetric     `json:"churn"`
	Actions    []SuggestedAction `json:"actions"`
	Regions    []RegionMetric    `json:"regions"`
}
