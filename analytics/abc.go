package analytics

import (
	"sort"

	"github.com/BerniceZTT/territory_end/models"
)

// ABC 累计销量阈值
const (
	abcThresholdA = 0.80
	abcThresholdB = 0.95
)

// AssignABC 按客户总销量做帕累托分层：A 累计前80%，B 其后15%，C 其余。
// 返回 客户Key -> 分层。
func AssignABC(buckets []models.SalesBucket) map[string]string {
	totals := make(map[string]float64)
	for _, b := range buckets {
		for _, c := range b.Clients {
			totals[c.Key] += c.Fact
		}
	}

	keys := make([]string, 0, len(totals))
	grand := 0.0
	for k, v := range totals {
		keys = append(keys, k)
		if v > 0 {
			grand += v
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if totals[keys[i]] != totals[keys[j]] {
			return totals[keys[i]] > totals[keys[j]]
		}
		return keys[i] < keys[j]
	})

	out := make(map[string]string, len(keys))
	cumulative := 0.0
	for _, k := range keys {
		v := totals[k]
		if v <= 0 || grand == 0 {
			out[k] = models.ABCCategoryC
			continue
		}
		// 分层取决于该客户之前的累计占比，保证头部客户总在A
		share := cumulative / grand
		cumulative += v
		switch {
		case share < abcThresholdA:
			out[k] = models.ABCCategoryA
		case share < abcThresholdB:
			out[k] = models.ABCCategoryB
		default:
			out[k] = models.ABCCategoryC
		}
	}
	return out
}

// ApplyABC 返回写入分层后的桶副本
func ApplyABC(buckets []models.SalesBucket, tiers map[string]string) []models.SalesBucket {
	out := make([]models.SalesBucket, len(buckets))
	for i, b := range buckets {
		nb := b
		nb.Clients = make([]models.ClientPoint, len(b.Clients))
		for j, c := range b.Clients {
			if tier, ok := tiers[c.Key]; ok {
				c.ABCCategory = tier
			}
			nb.Clients[j] = c
		}
		out[i] = nb
	}
	return out
}
