package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/BerniceZTT/territory_end/models"
)

// MatchWeights 区域相似度特征权重
type MatchWeights struct {
	Volume    float64 `json:"volume" yaml:"volume"`
	Potential float64 `json:"potential" yaml:"potential"`
	Growth    float64 `json:"growth" yaml:"growth"`
}

// DefaultMatchWeights 销量0.5，潜力0.3，历史增长0.2
func DefaultMatchWeights() MatchWeights {
	return MatchWeights{Volume: 0.5, Potential: 0.3, Growth: 0.2}
}

// FindSimilarRegions 按与目标区域的相似度降序返回候选区域，topN<=0 时返回全部。
// 相似度 = (1 - 归一化加权欧氏距离) * 100。
func FindSimilarRegions(target models.RegionMetric, pool []models.RegionMetric, topN int, w MatchWeights) []models.RegionMetric {
	maxVolume, maxPotential, maxGrowth := target.Volume, target.Potential, math.Abs(target.GrowthPct)
	for _, r := range pool {
		maxVolume = math.Max(maxVolume, r.Volume)
		maxPotential = math.Max(maxPotential, r.Potential)
		maxGrowth = math.Max(maxGrowth, math.Abs(r.GrowthPct))
	}
	totalWeight := w.Volume + w.Potential + w.Growth

	out := make([]models.RegionMetric, 0, len(pool))
	for _, r := range pool {
		if r.Name == target.Name {
			continue
		}
		dv := clamp(safeDiv(math.Abs(r.Volume-target.Volume), maxVolume, 0), 0, 1)
		dp := clamp(safeDiv(math.Abs(r.Potential-target.Potential), maxPotential, 0), 0, 1)
		dg := clamp(safeDiv(math.Abs(r.GrowthPct-target.GrowthPct), maxGrowth, 0), 0, 1)

		distance := 0.0
		if totalWeight > 0 {
			distance = math.Sqrt((w.Volume*dv*dv + w.Potential*dp*dp + w.Growth*dg*dg) / totalWeight)
		}
		score := clamp((1-distance)*100, 0, 100)

		candidate := r
		candidate.SimilarityScore = &score
		out = append(out, candidate)
	}

	sort.SliceStable(out, func(i, j int) bool {
		si, sj := *out[i].SimilarityScore, *out[j].SimilarityScore
		if si != sj {
			return si > sj
		}
		return out[i].Name < out[j].Name
	})
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}

// DesignExperiment 为目标区域挑选对照区域，预期提升直接取目标区域的历史增长
func DesignExperiment(target models.RegionMetric, pool []models.RegionMetric, topN int, w MatchWeights) models.Experiment {
	return models.Experiment{
		Target:           target,
		Controls:         FindSimilarRegions(target, pool, topN, w),
		ProjectedLiftPct: target.GrowthPct,
	}
}

// RegionMetrics 汇总区域指标：销量、潜力，以及最近 months 个月相对前 months 个月的增长
func RegionMetrics(buckets []models.SalesBucket, asOf time.Time, months int) []models.RegionMetric {
	type acc struct {
		volume, potential, recent, prior float64
	}
	byRegion := make(map[string]*acc)
	var names []string

	end := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, time.UTC)
	recentStart := end.AddDate(0, -months+1, 0)
	priorStart := end.AddDate(0, -2*months+1, 0)

	for _, b := range buckets {
		a, ok := byRegion[b.Region]
		if !ok {
			a = &acc{}
			byRegion[b.Region] = a
			names = append(names, b.Region)
		}
		a.volume += b.Fact
		a.potential += b.Potential
		if months <= 0 {
			continue
		}
		for _, c := range b.Clients {
			for key, v := range c.MonthlyFact {
				m, err := time.Parse(models.MonthLayout, key)
				if err != nil || m.After(end) {
					continue
				}
				switch {
				case !m.Before(recentStart):
					a.recent += v
				case !m.Before(priorStart):
					a.prior += v
				}
			}
		}
	}

	sort.Strings(names)
	out := make([]models.RegionMetric, 0, len(names))
	for _, name := range names {
		a := byRegion[name]
		growth := 0.0
		if a.prior > 0 {
			growth = (a.recent - a.prior) / a.prior * 100
		}
		out = append(out, models.RegionMetric{
			Name:      name,
			Volume:    a.volume,
			GrowthPct: growth,
			Potential: a.potential,
		})
	}
	return out
}

// FindRegion 按名称查找区域指标
func FindRegion(regions []models.RegionMetric, name string) (models.RegionMetric, bool) {
	for _, r := range regions {
		if r.Name == name {
			return r, true
		}
	}
	return models.RegionMetric{}, false
}
