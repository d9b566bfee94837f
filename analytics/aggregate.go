package analytics

import (
	"sort"

	"github.com/BerniceZTT/territory_end/models"
)

// planKey 区域×品牌 分组键
type planKey struct {
	region string
	brand  string
}

// skuKey 客户×包装
type skuKey struct {
	client    string
	packaging string
}

// TotalsFor 汇总一组桶（同一区域×品牌）为增长引擎的输入
func TotalsFor(buckets []models.SalesBucket, totalRegionOKB int, rmGlobalVelocity float64) models.BucketTotals {
	totals := models.BucketTotals{
		TotalRegionOKB:   totalRegionOKB,
		RMGlobalVelocity: rmGlobalVelocity,
	}

	clientFact := make(map[string]float64)
	matched := make(map[string]bool)
	pairs := make(map[skuKey]struct{})

	for _, b := range buckets {
		totals.TotalFact += b.Fact
		totals.TotalPotential += b.Potential
		for _, c := range b.Clients {
			clientFact[c.Key] += c.Fact
			if c.Matched {
				matched[c.Key] = true
			}
			if c.Fact > 0 {
				pairs[skuKey{client: c.Key, packaging: b.Packaging}] = struct{}{}
			}
		}
	}

	for _, fact := range clientFact {
		if fact > 0 {
			totals.ActiveCount++
		}
	}
	totals.MatchedCount = len(matched)
	totals.AvgSku = safeDiv(float64(len(pairs)), float64(totals.ActiveCount), 0)
	totals.AvgVelocity = safeDiv(totals.TotalFact, float64(len(pairs)), 0)
	return totals
}

// OwnerVelocities 计算每个区域经理在整个快照中的单SKU销量
func OwnerVelocities(buckets []models.SalesBucket) map[string]float64 {
	facts := make(map[string]float64)
	pairs := make(map[string]map[skuKey]struct{})
	for _, b := range buckets {
		facts[b.Owner] += b.Fact
		if pairs[b.Owner] == nil {
			pairs[b.Owner] = make(map[skuKey]struct{})
		}
		for _, c := range b.Clients {
			if c.Fact > 0 {
				pairs[b.Owner][skuKey{client: c.Key, packaging: b.Packaging}] = struct{}{}
			}
		}
	}

	out := make(map[string]float64, len(facts))
	for owner, fact := range facts {
		out[owner] = safeDiv(fact, float64(len(pairs[owner])), 0)
	}
	return out
}

// Benchmarks 计算公司基准：平均SKU宽度和平均单SKU销量
func Benchmarks(buckets []models.SalesBucket) (avgSku, avgSales float64) {
	totals := TotalsFor(buckets, 0, 0)
	return totals.AvgSku, totals.AvgVelocity
}

// ResolveContext 用快照基准补全未配置的计划上下文
func ResolveContext(ctx models.PlanningContext, buckets []models.SalesBucket) models.PlanningContext {
	if ctx.GlobalAvgSku <= 0 || ctx.GlobalAvgSales <= 0 {
		avgSku, avgSales := Benchmarks(buckets)
		if ctx.GlobalAvgSku <= 0 {
			ctx.GlobalAvgSku = avgSku
		}
		if ctx.GlobalAvgSales <= 0 {
			ctx.GlobalAvgSales = avgSales
		}
	}
	if !ctx.RiskLevel.Valid() {
		ctx.RiskLevel = models.RiskLevelMedium
	}
	return ctx
}

// BuildPlan 按 区域×品牌 生成计划行。
// ownerVelocity 应基于完整快照计算，不受筛选影响。
func BuildPlan(buckets []models.SalesBucket, regionOKB map[string]int, ctx models.PlanningContext, ownerVelocity map[string]float64) []models.PlanRow {
	groups := make(map[planKey][]models.SalesBucket)
	var keys []planKey
	for _, b := range buckets {
		k := planKey{region: b.Region, brand: b.Brand}
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], b)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].region != keys[j].region {
			return keys[i].region < keys[j].region
		}
		return keys[i].brand < keys[j].brand
	})

	rows := make([]models.PlanRow, 0, len(keys))
	for _, k := range keys {
		group := groups[k]
		owner := dominantOwner(group)
		totals := TotalsFor(group, regionOKB[k.region], ownerVelocity[owner])
		result := CalculateGrowth(totals, ctx)
		quarterly, monthly := SeasonalPlan(result.Plan)
		rows = append(rows, models.PlanRow{
			Region:    k.region,
			Brand:     k.brand,
			Owner:     owner,
			Fact:      totals.TotalFact,
			Potential: totals.TotalPotential,
			Totals:    totals,
			Result:    result,
			Quarterly: quarterly,
			Monthly:   monthly,
		})
	}
	return rows
}

// dominantOwner 取销量最大的区域经理，销量相同时按ID排序
func dominantOwner(group []models.SalesBucket) string {
	facts := make(map[string]float64)
	for _, b := range group {
		facts[b.Owner] += b.Fact
	}
	best := ""
	bestFact := -1.0
	for owner, fact := range facts {
		if fact > bestFact || (fact == bestFact && owner < best) {
			best, bestFact = owner, fact
		}
	}
	return best
}

// clientView 跨桶合并后的客户视图
type clientView struct {
	client   models.ClientPoint
	fact     float64
	buckets  []models.BucketRef
	peerAvgs []float64
}

// mergeClients 按客户Key合并所有桶中的客户，按Key排序返回
func mergeClients(buckets []models.SalesBucket) []clientView {
	index := make(map[string]int)
	var views []clientView
	for _, b := range buckets {
		peerAvg := safeDiv(b.Fact, float64(len(b.Clients)), 0)
		for _, c := range b.Clients {
			i, ok := index[c.Key]
			if !ok {
				i = len(views)
				index[c.Key] = i
				merged := c
				merged.DailyFact = nil
				merged.MonthlyFact = nil
				views = append(views, clientView{client: merged})
			}
			v := &views[i]
			v.fact += c.Fact
			v.buckets = append(v.buckets, b.Ref())
			v.peerAvgs = append(v.peerAvgs, peerAvg)
			v.client.DailyFact = addSeries(v.client.DailyFact, c.DailyFact)
			v.client.MonthlyFact = addSeries(v.client.MonthlyFact, c.MonthlyFact)
			v.client.Matched = v.client.Matched || c.Matched
			if v.client.ABCCategory == "" || (c.ABCCategory != "" && c.ABCCategory < v.client.ABCCategory) {
				v.client.ABCCategory = c.ABCCategory
			}
			if v.client.Address == "" {
				v.client.Address = c.Address
			}
			if !v.client.HasCoordinates() && c.HasCoordinates() {
				v.client.Lat, v.client.Lon = c.Lat, c.Lon
			}
			if v.client.Type == "" {
				v.client.Type = c.Type
			}
		}
	}
	for i := range views {
		views[i].client.Fact = views[i].fact
	}
	sort.Slice(views, func(i, j int) bool { return views[i].client.Key < views[j].client.Key })
	return views
}

// addSeries 把 src 累加到 dst；dst 必须由调用方持有
func addSeries(dst, src map[string]float64) map[string]float64 {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]float64, len(src))
	}
	for k, v := range src {
		dst[k] += v
	}
	return dst
}
