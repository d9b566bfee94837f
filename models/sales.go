package models

import (
	"time"
)

// 日期键格式
const (
	DayLayout   = "2006-01-02"
	MonthLayout = "2006-01"
)

// ABC 分层
const (
	ABCCategoryA = "A"
	ABCCategoryB = "B"
	ABCCategoryC = "C"
)

// ClientPoint 客户销售点（聚合层产出，核心只读）
type ClientPoint struct {
	Key         string             `json:"key" bson:"key"`
	Name        string             `json:"name" bson:"name"`
	Address     string             `json:"address" bson:"address"`
	Lat         *float64           `json:"lat,omitempty" bson:"lat,omitempty"`
	Lon         *float64           `json:"lon,omitempty" bson:"lon,omitempty"`
	Fact        float64            `json:"fact" bson:"fact"`
	DailyFact   map[string]float64 `json:"dailyFact,omitempty" bson:"dailyFact,omitempty"`     // 键: 2006-01-02
	MonthlyFact map[string]float64 `json:"monthlyFact,omitempty" bson:"monthlyFact,omitempty"` // 键: 2006-01
	ABCCategory string             `json:"abcCategory" bson:"abcCategory"`
	Type        string             `json:"type" bson:"type"` // 销售渠道
	Matched     bool               `json:"matched" bson:"matched"`
}

// HasCoordinates 是否有坐标
func (c ClientPoint) HasCoordinates() bool {
	return c.Lat != nil && c.Lon != nil
}

// SalesBucket 区域×品牌×包装 维度的销售汇总
type SalesBucket struct {
	Region          string        `json:"region" bson:"region"`
	Owner           string        `json:"owner" bson:"owner"` // 区域经理ID
	Brand           string        `json:"brand" bson:"brand"`
	Packaging       string        `json:"packaging" bson:"packaging"`
	Fact            float64       `json:"fact" bson:"fact"`
	Potential       float64       `json:"potential" bson:"potential"`
	GrowthPotential float64       `json:"growthPotential" bson:"growthPotential"`
	Clients         []ClientPoint `json:"clients" bson:"clients"`
}

// Ref 返回桶的标识
func (b SalesBucket) Ref() BucketRef {
	return BucketRef{
		Region:    b.Region,
		Owner:     b.Owner,
		Brand:     b.Brand,
		Packaging: b.Packaging,
		Fact:      b.Fact,
	}
}

// BucketRef 桶标识（用于异常记录）
type BucketRef struct {
	Region    string  `json:"region" bson:"region"`
	Owner     string  `json:"owner" bson:"owner"`
	Brand     string  `json:"brand" bson:"brand"`
	Packaging string  `json:"packaging" bson:"packaging"`
	Fact      float64 `json:"fact" bson:"fact"`
}

// Snapshot 一次聚合快照
type Snapshot struct {
	ID        string         `json:"id" bson:"_id"`
	Source    string         `json:"source" bson:"source"`
	AsOf      time.Time      `json:"asOf" bson:"asOf"`
	CreatedAt time.Time      `json:"createdAt" bson:"createdAt"`
	Buckets   []SalesBucket  `json:"buckets" bson:"-"` // 单独存放在 snapshot_buckets
	RegionOKB map[string]int `json:"regionOkb" bson:"regionOkb"` // 区域潜在客户总数
}

// SnapshotSummary 快照摘要（不含明细）
type SnapshotSummary struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	AsOf        time.Time `json:"asOf"`
	CreatedAt   time.Time `json:"createdAt"`
	BucketCount int       `json:"bucketCount"`
	ClientCount int       `json:"clientCount"`
	TotalFact   float64   `json:"totalFact"`
	RegionCount int       `json:"regionCount"`
}

// Summary 统计快照摘要
func (s Snapshot) Summary() SnapshotSummary {
	sum := SnapshotSummary{
		ID:          s.ID,
		Source:      s.Source,
		AsOf:        s.AsOf,
		CreatedAt:   s.CreatedAt,
		BucketCount: len(s.Buckets),
	}
	clients := make(map[string]struct{})
	regions := make(map[string]struct{})
	for _, b := range s.Buckets {
		sum.TotalFact += b.Fact
		regions[b.Region] = struct{}{}
		for _, c := range b.Clients {
			clients[c.Key] = struct{}{}
		}
	}
	sum.ClientCount = len(clients)
	sum.RegionCount = len(regions)
	return sum
}

// Filter 看板筛选条件
type Filter struct {
	Region string     `json:"region,omitempty"`
	Owner  string     `json:"owner,omitempty"`
	Brand  string     `json:"brand,omitempty"`
	From   *time.Time `json:"from,omitempty"`
	To     *time.Time `json:"to,omitempty"`
}

// HasDateRange 是否设置了日期范围
func (f Filter) HasDateRange() bool {
	return f.From != nil || f.To != nil
}
