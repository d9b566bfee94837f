package importer

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/BerniceZTT/territory_end/analytics"
	"github.com/BerniceZTT/territory_end/models"
)

// bucketKey 区域×经理×品牌×包装
type bucketKey struct {
	region    string
	owner     string
	brand     string
	packaging string
}

// clientAcc 单个桶内客户的累计值
type clientAcc struct {
	point     models.ClientPoint
	potential float64
}

// Aggregate 把明细行聚合为快照。
// 客户潜力取该客户在桶内的最大值，桶潜力为客户潜力之和。
// 工作簿未提供区域 OKB 时，用该区域匹配客户数代替。asOf 为零值时取最晚的销售日期。
func Aggregate(wb *Workbook, source string, asOf time.Time) models.Snapshot {
	groups := make(map[bucketKey]map[string]*clientAcc)
	latest := time.Time{}

	for _, r := range wb.Rows {
		key := bucketKey{region: r.Region, owner: r.Owner, brand: r.Brand, packaging: r.Packaging}
		clients, ok := groups[key]
		if !ok {
			clients = make(map[string]*clientAcc)
			groups[key] = clients
		}

		acc, ok := clients[r.ClientKey]
		if !ok {
			acc = &clientAcc{point: models.ClientPoint{
				Key:         r.ClientKey,
				Name:        r.ClientName,
				Address:     r.Address,
				Lat:         r.Lat,
				Lon:         r.Lon,
				Type:        r.Channel,
				DailyFact:   make(map[string]float64),
				MonthlyFact: make(map[string]float64),
			}}
			clients[r.ClientKey] = acc
		}
		fillClient(&acc.point, r)

		acc.point.Fact += r.Volume
		acc.point.DailyFact[r.Date.Format(models.DayLayout)] += r.Volume
		acc.point.MonthlyFact[r.Date.Format(models.MonthLayout)] += r.Volume
		if r.Potential > acc.potential {
			acc.potential = r.Potential
		}
		if r.Date.After(latest) {
			latest = r.Date
		}
	}

	buckets := make([]models.SalesBucket, 0, len(groups))
	for key, clients := range groups {
		b := models.SalesBucket{
			Region:    key.region,
			Owner:     key.owner,
			Brand:     key.brand,
			Packaging: key.packaging,
			Clients:   make([]models.ClientPoint, 0, len(clients)),
		}
		for _, acc := range clients {
			b.Fact += acc.point.Fact
			b.Potential += acc.potential
			b.Clients = append(b.Clients, acc.point)
		}
		sort.Slice(b.Clients, func(i, j int) bool { return b.Clients[i].Key < b.Clients[j].Key })
		if b.Potential > b.Fact {
			b.GrowthPotential = b.Potential - b.Fact
		}
		buckets = append(buckets, b)
	}
	sortBuckets(buckets)
	buckets = analytics.ApplyABC(buckets, analytics.AssignABC(buckets))

	regionOKB := make(map[string]int, len(wb.RegionOKB))
	for region, n := range wb.RegionOKB {
		regionOKB[region] = n
	}
	for region, n := range matchedPerRegion(buckets) {
		if _, ok := regionOKB[region]; !ok {
			regionOKB[region] = n
		}
	}

	if asOf.IsZero() {
		asOf = latest
	}
	return models.Snapshot{
		ID:        uuid.NewString(),
		Source:    source,
		AsOf:      asOf,
		CreatedAt: time.Now(),
		Buckets:   buckets,
		RegionOKB: regionOKB,
	}
}

// fillClient 用后续行补全缺失的客户属性
func fillClient(p *models.ClientPoint, r Row) {
	if p.Address == "" {
		p.Address = r.Address
	}
	if !p.HasCoordinates() && r.Lat != nil && r.Lon != nil {
		p.Lat, p.Lon = r.Lat, r.Lon
	}
	if p.Type == "" {
		p.Type = r.Channel
	}
	if r.Matched {
		p.Matched = true
	}
}

func matchedPerRegion(buckets []models.SalesBucket) map[string]int {
	seen := make(map[string]map[string]struct{})
	for _, b := range buckets {
		for _, c := range b.Clients {
			if !c.Matched {
				continue
			}
			if seen[b.Region] == nil {
				seen[b.Region] = make(map[string]struct{})
			}
			seen[b.Region][c.Key] = struct{}{}
		}
	}
	out := make(map[string]int, len(seen))
	for region, keys := range seen {
		out[region] = len(keys)
	}
	return out
}

func sortBuckets(buckets []models.SalesBucket) {
	sort.Slice(buckets, func(i, j int) bool {
		a, b := buckets[i], buckets[j]
		if a.Region != b.Region {
			return a.Region < b.Region
		}
		if a.Brand != b.Brand {
			return a.Brand < b.Brand
		}
		if a.Packaging != b.Packaging {
			return a.Packaging < b.Packaging
		}
		return a.Owner < b.Owner
	})
}
