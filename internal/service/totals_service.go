package service

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"crewdesk/backend/internal/model"
	"crewdesk/backend/internal/repository"
)

// EventTotals 活动聚合重算结果
type EventTotals struct {
	Hours          decimal.Decimal
	Pay            decimal.Decimal
	AssignedShifts int
	TotalShifts    int
}

// TotalsService 活动聚合重算业务接口。
// 权威来源是当前指派集合：总工时/总薪酬排除 cancelled/no_show，
// assigned_shifts_count 统计至少有一个有效指派的班次。
// 应用侧逐行累加与数据库侧聚合两条路径必须产出一致结果。
type TotalsService interface {
	// Recalculate 应用侧逐行重算并原子写回聚合列
	Recalculate(ctx context.Context, eventID string) (*EventTotals, error)
	// RecalculateIn 在指定（通常是事务绑定的）仓库上重算，供级联调用
	RecalculateIn(ctx context.Context, repo *repository.Repository, eventID string) (*EventTotals, error)
	// RecalculateDB 数据库侧聚合路径，结果须与应用侧一致（误差 ≤ 0.01）
	RecalculateDB(ctx context.Context, eventID string) (*EventTotals, error)
}

type totalsService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewTotalsService 创建 TotalsService 实例
func NewTotalsService(repo *repository.Repository, logger *zap.Logger) TotalsService {
	return &totalsService{repo: repo, logger: logger}
}

func (s *totalsService) Recalculate(ctx context.Context, eventID string) (*EventTotals, error) {
	return s.RecalculateIn(ctx, s.repo, eventID)
}

func (s *totalsService) RecalculateIn(ctx context.Context, repo *repository.Repository, eventID string) (*EventTotals, error) {
	shifts, err := repo.Shift.ListByEvent(ctx, eventID)
	if err != nil {
		s.logger.Error("查询活动班次失败", zap.String("event_id", eventID), zap.Error(err))
		return nil, err
	}
	assignments, err := repo.Assignment.ListByEvent(ctx, eventID)
	if err != nil {
		s.logger.Error("查询活动指派失败", zap.String("event_id", eventID), zap.Error(err))
		return nil, err
	}

	shiftByID := make(map[string]*model.Shift, len(shifts))
	for i := range shifts {
		shiftByID[shifts[i].ShiftID] = &shifts[i]
	}

	hours := decimal.Zero
	pay := decimal.Zero
	activeShiftIDs := make(map[string]struct{})
	for i := range assignments {
		a := &assignments[i]
		if !a.IsActive() {
			continue
		}
		shift := shiftByID[a.ShiftID]
		if shift == nil {
			shift = a.Shift
		}
		if shift == nil {
			continue
		}
		hours = hours.Add(a.EffectiveHours(shift))
		pay = pay.Add(a.EffectivePay(shift))
		activeShiftIDs[a.ShiftID] = struct{}{}
	}

	totals := &EventTotals{
		Hours:          hours.Round(2),
		Pay:            pay.Round(2),
		AssignedShifts: len(activeShiftIDs),
		TotalShifts:    len(shifts),
	}

	if err := s.persist(ctx, repo, eventID, totals); err != nil {
		return nil, err
	}
	return totals, nil
}

func (s *totalsService) RecalculateDB(ctx context.Context, eventID string) (*EventTotals, error) {
	agg, err := s.repo.Assignment.AggregateByEvent(ctx, eventID)
	if err != nil {
		s.logger.Error("数据库侧聚合失败", zap.String("event_id", eventID), zap.Error(err))
		return nil, err
	}
	assigned, err := s.repo.Assignment.CountShiftsWithActiveAssignment(ctx, eventID)
	if err != nil {
		return nil, err
	}
	shifts, err := s.repo.Shift.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	totals := &EventTotals{
		Hours:          agg.Hours.Round(2),
		Pay:            agg.Pay.Round(2),
		AssignedShifts: int(assigned),
		TotalShifts:    len(shifts),
	}

	if err := s.persist(ctx, s.repo, eventID, totals); err != nil {
		return nil, err
	}
	return totals, nil
}

// persist 原子列更新写回派生聚合，顺带维护 published ↔ assigned 状态翻转。
// 派生值刷新不走乐观锁，不触发业务校验。
func (s *totalsService) persist(ctx context.Context, repo *repository.Repository, eventID string, totals *EventTotals) error {
	event, err := repo.Event.GetByID(ctx, eventID)
	if err != nil {
		s.logger.Error("查询活动失败", zap.String("event_id", eventID), zap.Error(err))
		return err
	}

	newStatus := ""
	switch {
	case event.Status == model.EventStatusPublished &&
		totals.TotalShifts > 0 && totals.AssignedShifts == totals.TotalShifts:
		newStatus = model.EventStatusAssigned
	case event.Status == model.EventStatusAssigned &&
		totals.AssignedShifts < totals.TotalShifts:
		newStatus = model.EventStatusPublished
	}

	if err := repo.Event.UpdateTotals(ctx, eventID,
		totals.Hours, totals.Pay, totals.AssignedShifts, totals.TotalShifts, newStatus); err != nil {
		s.logger.Error("写回活动聚合失败", zap.String("event_id", eventID), zap.Error(err))
		return err
	}
	return nil
}
