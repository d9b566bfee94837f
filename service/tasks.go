package service

import (
	"context"
	"time"

	"github.com/BerniceZTT/territory_end/models"
	"github.com/BerniceZTT/territory_end/utils"
)

// defaultSnoozeDays 未指定天数时的延后天数
const defaultSnoozeDays = 7

// Visibility 根据处理记录构造可见性判断：每个动作以最新一条记录为准，
// delete 永久隐藏，snooze 隐藏到 SnoozeUntil，reset 恢复显示
func Visibility(decisions []models.TaskDecision, now time.Time) func(id string) bool {
	latest := make(map[string]models.TaskDecision, len(decisions))
	for _, d := range decisions {
		cur, ok := latest[d.ActionID]
		if !ok || !d.CreatedAt.Before(cur.CreatedAt) {
			latest[d.ActionID] = d
		}
	}

	return func(id string) bool {
		d, ok := latest[id]
		if !ok {
			return true
		}
		switch d.Decision {
		case models.DecisionDelete:
			return false
		case models.DecisionSnooze:
			return d.SnoozeUntil != nil && !now.Before(*d.SnoozeUntil)
		default:
			return true
		}
	}
}

func (a *Analyzer) visibility(ctx context.Context) (func(id string) bool, error) {
	if a.Decisions == nil {
		return nil, nil
	}
	decisions, err := a.Decisions.ListDecisions(ctx)
	if err != nil {
		return nil, err
	}
	return Visibility(decisions, a.now()), nil
}

// RecordDecision 记录用户对建议动作的处理。区域经理只能处理自己区域内的动作
func (a *Analyzer) RecordDecision(ctx context.Context, req models.TaskDecisionRequest, user *utils.LoginUser) (*models.TaskDecision, error) {
	if user.IsRegionalManager() {
		if err := a.checkActionScope(ctx, req.ActionID, user); err != nil {
			return nil, err
		}
	}

	now := a.now()
	d := &models.TaskDecision{
		ActionID:  req.ActionID,
		Decision:  req.Decision,
		Reason:    req.Reason,
		UserID:    user.ID,
		UserName:  user.Username,
		CreatedAt: now,
	}

	switch req.Decision {
	case models.DecisionSnooze:
		days := req.SnoozeDays
		if days <= 0 {
			days = defaultSnoozeDays
		}
		until := now.AddDate(0, 0, days)
		d.SnoozeUntil = &until
	case models.DecisionDelete, models.DecisionReset:
	default:
		return nil, utils.CreateBadRequestError("unknown decision: " + string(req.Decision))
	}

	if err := a.Decisions.RecordDecision(ctx, d); err != nil {
		return nil, err
	}

	utils.Logger.Info().
		Str("actionId", d.ActionID).
		Str("decision", string(d.Decision)).
		Str("user", user.Username).
		Msg("记录动作处理")
	return d, nil
}

// ListDecisions 返回处理记录，区域经理只看到自己的记录
func (a *Analyzer) ListDecisions(ctx context.Context, user *utils.LoginUser) ([]models.TaskDecision, error) {
	decisions, err := a.Decisions.ListDecisions(ctx)
	if err != nil {
		return nil, err
	}
	if !user.IsRegionalManager() {
		return decisions, nil
	}
	own := make([]models.TaskDecision, 0, len(decisions))
	for _, d := range decisions {
		if d.UserID == user.ID {
			own = append(own, d)
		}
	}
	return own, nil
}

// checkActionScope 动作必须出现在该经理的看板中（包括已隐藏的动作，便于恢复）
func (a *Analyzer) checkActionScope(ctx context.Context, actionID string, user *utils.LoginUser) error {
	if user.OwnerID == "" {
		return utils.CreateForbiddenError()
	}
	resp, err := a.dashboard(ctx, models.Filter{Owner: user.OwnerID})
	if err != nil {
		return err
	}
	for _, act := range resp.Actions {
		if act.ID == actionID {
			return nil
		}
	}
	return utils.CreateForbiddenError()
}
