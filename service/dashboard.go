package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/BerniceZTT/territory_end/analytics"
	"github.com/BerniceZTT/territory_end/config"
	"github.com/BerniceZTT/territory_end/models"
)

// BuildDashboard 从快照计算看板的各个视图。
// 计划、异常、流失、区域指标互相独立，并行计算；建议动作依赖流失和异常结果。
// 经理单SKU销量和公司基准始终基于完整快照，不受筛选影响。
func BuildDashboard(ctx context.Context, snap *models.Snapshot, f models.Filter, pc models.PlanningContext, cfg config.AnalyticsConfig, now time.Time) (*models.DashboardResponse, error) {
	filtered := analytics.FilterBuckets(snap.Buckets, f)
	resolved := analytics.ResolveContext(pc, snap.Buckets)
	ownerVelocity := analytics.OwnerVelocities(snap.Buckets)

	// 流失和增长以快照日期为准
	asOf := now
	if !snap.AsOf.IsZero() {
		asOf = snap.AsOf
	}

	resp := &models.DashboardResponse{
		SnapshotID: snap.ID,
		Filter:     f,
		Context:    resolved,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		resp.Plan = analytics.BuildPlan(filtered, snap.RegionOKB, resolved, ownerVelocity)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		resp.Outliers = analytics.DetectOutliers(filtered, cfg.Anomaly)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		resp.Churn = analytics.ChurnRadar(filtered, asOf, cfg.Churn)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		resp.Regions = analytics.RegionMetrics(filtered, asOf, cfg.GrowthMonths)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	resp.Actions = analytics.Prioritize(analytics.ActionInput{
		Buckets:  filtered,
		Churn:    resp.Churn,
		Outliers: resp.Outliers,
	}, cfg.Actions, nil)
	return resp, nil
}

// filterActions 过滤掉已删除或延后的动作，保持原有顺序
func filterActions(actions []models.SuggestedAction, visible func(id string) bool) []models.SuggestedAction {
	out := make([]models.SuggestedAction, 0, len(actions))
	for _, a := range actions {
		if visible == nil || visible(a.ID) {
			out = append(out, a)
		}
	}
	return out
}

func findRegion(regions []models.RegionMetric, name string) (models.RegionMetric, bool) {
	return analytics.FindRegion(regions, name)
}

func designExperiment(target models.RegionMetric, pool []models.RegionMetric, topN int, cfg config.AnalyticsConfig) models.Experiment {
	return analytics.DesignExperiment(target, pool, topN, cfg.Match)
}
