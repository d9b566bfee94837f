package analytics

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/BerniceZTT/territory_end/models"
)

// AnomalyConfig 异常阈值
type AnomalyConfig struct {
	Threshold        float64 `json:"threshold" yaml:"threshold"`
	ExtremeThreshold float64 `json:"extremeThreshold" yaml:"extreme_threshold"`
}

// DefaultAnomalyConfig |z|>2 为异常，|z|>3 为极端
func DefaultAnomalyConfig() AnomalyConfig {
	return AnomalyConfig{Threshold: 2.0, ExtremeThreshold: 3.0}
}

// 贡献占比阈值
const (
	dominantShare    = 0.50
	significantShare = 0.20
	lowShare         = 0.05
)

// PopulationStats 计算正销量桶的均值和总体标准差
func PopulationStats(buckets []models.SalesBucket) (mean, std float64) {
	var data stats.Float64Data
	for _, b := range buckets {
		if b.Fact > 0 {
			data = append(data, b.Fact)
		}
	}
	if len(data) == 0 {
		return 0, 0
	}
	mean, err := stats.Mean(data)
	if err != nil {
		return 0, 0
	}
	std, err = stats.StandardDeviationPopulation(data)
	if err != nil {
		return mean, 0
	}
	return mean, std
}

// DetectOutliers 标记销量统计异常的桶，按|z|降序返回
func DetectOutliers(buckets []models.SalesBucket, cfg AnomalyConfig) []models.OutlierRecord {
	mean, std := PopulationStats(buckets)
	if std == 0 {
		return []models.OutlierRecord{}
	}

	out := []models.OutlierRecord{}
	for _, b := range buckets {
		if b.Fact <= 0 {
			continue
		}
		z := CalculateZScore(b.Fact, mean, std)
		if math.Abs(z) <= cfg.Threshold {
			continue
		}
		severity := models.SeverityOutlier
		if math.Abs(z) > cfg.ExtremeThreshold {
			severity = models.SeverityExtreme
		}
		out = append(out, models.OutlierRecord{
			Bucket:        b.Ref(),
			ZScore:        z,
			Severity:      severity,
			Reason:        outlierReason(z, severity),
			Contributions: ContributionAnalysis(b, z),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		zi, zj := math.Abs(out[i].ZScore), math.Abs(out[j].ZScore)
		if zi != zj {
			return zi > zj
		}
		a, c := out[i].Bucket, out[j].Bucket
		if a.Region != c.Region {
			return a.Region < c.Region
		}
		if a.Brand != c.Brand {
			return a.Brand < c.Brand
		}
		return a.Packaging < c.Packaging
	})
	return out
}

func outlierReason(z float64, severity string) string {
	prefix := "Statistical"
	if severity == models.SeverityExtreme {
		prefix = "Extreme"
	}
	if z > 0 {
		return fmt.Sprintf("%s over-performance (z=%.2f): check for duplicate or bulk entries", prefix, z)
	}
	return fmt.Sprintf("%s under-performance (z=%.2f): check stock availability and coverage", prefix, z)
}

// ContributionAnalysis 按销量降序列出桶内客户并给出诊断，仅用于展示
func ContributionAnalysis(b models.SalesBucket, z float64) []models.ClientContribution {
	out := make([]models.ClientContribution, 0, len(b.Clients))
	for _, c := range b.Clients {
		share := safeDiv(c.Fact, b.Fact, 0)
		item := models.ClientContribution{
			ClientKey: c.Key,
			Name:      c.Name,
			Fact:      c.Fact,
			SharePct:  share * 100,
		}
		switch {
		case z > 0 && share > dominantShare:
			item.Diagnosis = models.DiagnosisDominant
		case share > significantShare:
			item.Diagnosis = models.DiagnosisSignificant
		case z < 0 && c.Fact <= 0:
			item.Diagnosis = models.DiagnosisZeroSale
		case c.Fact > 0 && share < lowShare:
			item.Diagnosis = models.DiagnosisLowContribution
		}
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Fact != out[j].Fact {
			return out[i].Fact > out[j].Fact
		}
		return out[i].ClientKey < out[j].ClientKey
	})
	return out
}
