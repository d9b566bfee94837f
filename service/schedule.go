package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/BerniceZTT/territory_end/utils"
)

// warmTimeout 单次预热的超时
const warmTimeout = 5 * time.Minute

// Scheduler 定时任务
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler 创建调度器，任务串行执行，上一次未完成时跳过
func NewScheduler() *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}
}

// ScheduleRecompute 按 cron 表达式定时重算并预热看板缓存，expr 为空时不调度
func (s *Scheduler) ScheduleRecompute(expr string, a *Analyzer) error {
	if expr == "" {
		utils.Logger.Info().Msg("未配置定时重算")
		return nil
	}
	_, err := s.cron.AddFunc(expr, func() { RecomputeDashboard(a) })
	if err != nil {
		return fmt.Errorf("无效的定时表达式 %q: %w", expr, err)
	}
	utils.LogInfo(map[string]interface{}{"cron": expr, "timeout": warmTimeout.String()}, "已调度看板重算")
	return nil
}

// Start 启动调度
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop 停止调度并等待正在执行的任务完成
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// RecomputeDashboard 重算未筛选的看板
func RecomputeDashboard(a *Analyzer) {
	start := time.Now()
	utils.Logger.Info().Time("time", start).Msg("开始执行看板重算任务")

	ctx, cancel := context.WithTimeout(context.Background(), warmTimeout)
	defer cancel()

	a.invalidate(ctx)
	if err := a.Warm(ctx); err != nil {
		utils.LogError(err, map[string]interface{}{"job": "recompute"}, "看板重算失败")
		return
	}
	utils.Logger.Info().Dur("elapsed", time.Since(start)).Msg("看板重算任务完成")
}
