package analytics

import (
	"time"

	"github.com/BerniceZTT/territory_end/models"
)

// FilterBuckets 按区域/经理/品牌筛选，设置日期范围时按日销量重新计算客户和桶的销量。
// 返回新的切片，不修改入参。
func FilterBuckets(buckets []models.SalesBucket, f models.Filter) []models.SalesBucket {
	out := make([]models.SalesBucket, 0, len(buckets))
	for _, b := range buckets {
		if f.Region != "" && b.Region != f.Region {
			continue
		}
		if f.Owner != "" && b.Owner != f.Owner {
			continue
		}
		if f.Brand != "" && b.Brand != f.Brand {
			continue
		}

		nb := b
		nb.Clients = make([]models.ClientPoint, len(b.Clients))
		copy(nb.Clients, b.Clients)

		if f.HasDateRange() {
			nb.Fact = 0
			for i := range nb.Clients {
				c := &nb.Clients[i]
				// 有日销量的客户只按日销量计算，月销量由范围内的日销量重建
				if len(c.DailyFact) > 0 {
					c.DailyFact = sliceSeries(c.DailyFact, models.DayLayout, f.From, f.To)
					c.MonthlyFact = monthlyFromDaily(c.DailyFact)
					c.Fact = sumSeries(c.DailyFact)
				} else {
					c.MonthlyFact = sliceSeries(c.MonthlyFact, models.MonthLayout, monthStart(f.From), monthStart(f.To))
					c.Fact = sumSeries(c.MonthlyFact)
				}
				nb.Fact += c.Fact
			}
		}
		out = append(out, nb)
	}
	return out
}

// sliceSeries 截取 [from, to] 范围内的日期序列，解析失败的键被丢弃
func sliceSeries(series map[string]float64, layout string, from, to *time.Time) map[string]float64 {
	if len(series) == 0 {
		return nil
	}
	out := make(map[string]float64)
	for key, v := range series {
		d, err := time.Parse(layout, key)
		if err != nil {
			continue
		}
		if from != nil && d.Before(*from) {
			continue
		}
		if to != nil && d.After(*to) {
			continue
		}
		out[key] = v
	}
	return out
}

func monthlyFromDaily(daily map[string]float64) map[string]float64 {
	if len(daily) == 0 {
		return nil
	}
	out := make(map[string]float64)
	for key, v := range daily {
		out[key[:len(models.MonthLayout)]] += v
	}
	return out
}

func monthStart(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	m := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return &m
}

func sumSeries(series map[string]float64) float64 {
	total := 0.0
	for _, v := range series {
		total += v
	}
	return total
}
