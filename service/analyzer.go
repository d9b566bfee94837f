package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/BerniceZTT/territory_end/config"
	"github.com/BerniceZTT/territory_end/exporter"
	"github.com/BerniceZTT/territory_end/importer"
	"github.com/BerniceZTT/territory_end/models"
	"github.com/BerniceZTT/territory_end/repository"
	"github.com/BerniceZTT/territory_end/utils"
)

// SnapshotStore 快照存储
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap *models.Snapshot) error
	LatestSnapshot(ctx context.Context) (*models.Snapshot, error)
	ListSnapshots(ctx context.Context, limit int64) ([]models.Snapshot, error)
}

// SettingsStore 计划上下文存储
type SettingsStore interface {
	LoadPlanningContext(ctx context.Context) (models.PlanningContext, bool, error)
	SavePlanningContext(ctx context.Context, pc models.PlanningContext, updaterID, updaterName string) error
}

// DecisionStore 建议动作处理记录存储
type DecisionStore interface {
	RecordDecision(ctx context.Context, d *models.TaskDecision) error
	ListDecisions(ctx context.Context) ([]models.TaskDecision, error)
}

// Cache 看板缓存，cache.RedisClient 满足该接口
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// dashboardCachePrefix 看板缓存键前缀
const dashboardCachePrefix = "dashboard:"

// Analyzer 把存储、缓存和分析核心串起来
type Analyzer struct {
	Snapshots SnapshotStore
	Settings  SettingsStore
	Decisions DecisionStore
	Cache     Cache // 可为空
	CacheTTL  time.Duration
	Config    config.AnalyticsConfig
	Now       func() time.Time
}

// NewAnalyzer 使用 MongoDB 存储创建分析服务
func NewAnalyzer(cfg config.AnalyticsConfig, cache Cache, ttl time.Duration) *Analyzer {
	store := repository.Store{}
	return &Analyzer{
		Snapshots: store,
		Settings:  store,
		Decisions: store,
		Cache:     cache,
		CacheTTL:  ttl,
		Config:    cfg,
		Now:       time.Now,
	}
}

func (a *Analyzer) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

// LatestSnapshot 返回最新快照，未导入时返回 404
func (a *Analyzer) LatestSnapshot(ctx context.Context) (*models.Snapshot, error) {
	snap, err := a.Snapshots.LatestSnapshot(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNoSnapshot) {
			return nil, utils.CreateNotFoundError("快照")
		}
		return nil, err
	}
	return snap, nil
}

// ListSnapshots 返回最近的快照摘要
func (a *Analyzer) ListSnapshots(ctx context.Context, limit int64) ([]models.Snapshot, error) {
	return a.Snapshots.ListSnapshots(ctx, limit)
}

// Dashboard 计算（或从缓存读取）筛选后的看板，并按任务处理记录过滤建议动作
func (a *Analyzer) Dashboard(ctx context.Context, f models.Filter) (*models.DashboardResponse, error) {
	resp, err := a.dashboard(ctx, f)
	if err != nil {
		return nil, err
	}
	visible, err := a.visibility(ctx)
	if err != nil {
		return nil, err
	}
	resp.Actions = filterActions(resp.Actions, visible)
	return resp, nil
}

// dashboard 返回未按处理记录过滤的看板
func (a *Analyzer) dashboard(ctx context.Context, f models.Filter) (*models.DashboardResponse, error) {
	snap, err := a.LatestSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	pc, err := a.PlanningContext(ctx)
	if err != nil {
		return nil, err
	}

	key := dashboardKey(snap.ID, f)
	var resp *models.DashboardResponse
	if a.Cache != nil {
		var cached models.DashboardResponse
		if err := a.Cache.Get(ctx, key, &cached); err == nil {
			resp = &cached
		}
	}

	if resp == nil {
		start := a.now()
		resp, err = BuildDashboard(ctx, snap, f, pc, a.Config, a.now())
		if err != nil {
			return nil, err
		}
		utils.Logger.Info().
			Str("snapshot", snap.ID).
			Int("planRows", len(resp.Plan)).
			Int("outliers", len(resp.Outliers)).
			Int("actions", len(resp.Actions)).
			Dur("elapsed", a.now().Sub(start)).
			Msg("看板计算完成")

		if a.Cache != nil {
			if err := a.Cache.Set(ctx, key, resp, a.CacheTTL); err != nil {
				utils.Logger.Warn().Err(err).Str("key", key).Msg("写入看板缓存失败")
			}
		}
	}
	return resp, nil
}

// SimilarRegions 为区域挑选相似的对照区域。区域池不受区域筛选影响
func (a *Analyzer) SimilarRegions(ctx context.Context, name string, topN int, f models.Filter) (*models.Experiment, error) {
	f.Region = ""
	resp, err := a.Dashboard(ctx, f)
	if err != nil {
		return nil, err
	}
	target, ok := findRegion(resp.Regions, name)
	if !ok {
		return nil, utils.CreateNotFoundError("区域 " + name)
	}
	exp := designExperiment(target, resp.Regions, topN, a.Config)
	return &exp, nil
}

// ExportPlan 把筛选后的计划写成 xlsx
func (a *Analyzer) ExportPlan(ctx context.Context, w io.Writer, f models.Filter) error {
	resp, err := a.Dashboard(ctx, f)
	if err != nil {
		return err
	}
	return exporter.WritePlan(w, resp.Plan)
}

// ImportResult 导入结果
type ImportResult struct {
	Snapshot models.SnapshotSummary `json:"snapshot"`
	Rows     int                    `json:"rows"`
	Skipped  []importer.RowError    `json:"skipped"`
}

// ImportWorkbook 解析工作簿、聚合并保存为新的快照
func (a *Analyzer) ImportWorkbook(ctx context.Context, r io.Reader, source, sheet string, asOf time.Time, progress importer.Progress) (*ImportResult, error) {
	wb, err := importer.ReadWorkbook(r, sheet, progress)
	if err != nil {
		return nil, utils.CreateBadRequestError(err.Error())
	}
	if len(wb.Rows) == 0 {
		return nil, utils.CreateBadRequestError("workbook has no valid rows")
	}

	snap := importer.Aggregate(wb, source, asOf)
	if err := a.Snapshots.SaveSnapshot(ctx, &snap); err != nil {
		return nil, err
	}
	a.invalidate(ctx)

	utils.Logger.Info().
		Str("snapshot", snap.ID).
		Str("source", source).
		Int("rows", len(wb.Rows)).
		Int("skipped", len(wb.Skipped)).
		Int("buckets", len(snap.Buckets)).
		Msg("快照导入完成")

	skipped := wb.Skipped
	if skipped == nil {
		skipped = []importer.RowError{}
	}
	return &ImportResult{
		Snapshot: snap.Summary(),
		Rows:     len(wb.Rows),
		Skipped:  skipped,
	}, nil
}

// Warm 预先计算未筛选的看板写入缓存
func (a *Analyzer) Warm(ctx context.Context) error {
	if _, err := a.Dashboard(ctx, models.Filter{}); err != nil {
		return fmt.Errorf("预热看板失败: %w", err)
	}
	return nil
}

// invalidate 清空看板缓存
func (a *Analyzer) invalidate(ctx context.Context) {
	if a.Cache == nil {
		return
	}
	if err := a.Cache.DeletePrefix(ctx, dashboardCachePrefix); err != nil {
		utils.Logger.Warn().Err(err).Msg("清理看板缓存失败")
	}
}

// dashboardKey 缓存键：快照ID + 筛选条件
func dashboardKey(snapshotID string, f models.Filter) string {
	day := func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format(models.DayLayout)
	}
	return fmt.Sprintf("%s%s:%s|%s|%s|%s|%s", dashboardCachePrefix, snapshotID, f.Region, f.Owner, f.Brand, day(f.From), day(f.To))
}
