package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"crewdesk/backend/config"
	"crewdesk/backend/internal/dto"
	"crewdesk/backend/internal/model"
	"crewdesk/backend/internal/repository"
)

// ── 角色差异模块业务错误 ──

var (
	ErrEventScheduleStarted = errors.New("活动已开始，无法调整角色需求")
	ErrForceRequired        = errors.New("存在已指派班次，需要 force 才能移除")
	ErrTooManyWorkers       = errors.New("单个角色的需求人数超过上限")
)

// RoleDiffService 角色差异应用业务接口。
// 将请求的 {技能, 人数} 集合与既有需求/班次对账：补建班次、
// 移除未指派班次、或在 force 下撤派后移除已指派班次。
// 整个操作在可串行化事务 + 活动行锁下原子执行。
type RoleDiffService interface {
	Apply(ctx context.Context, eventID string, req *dto.ApplyRolesRequest, actorID string) (*dto.RoleDiffSummary, error)
}

type roleDiffService struct {
	cfg    *config.Config
	repo   *repository.Repository
	totals TotalsService
	logger *zap.Logger
}

// NewRoleDiffService 创建 RoleDiffService 实例
func NewRoleDiffService(cfg *config.Config, repo *repository.Repository, totals TotalsService, logger *zap.Logger) RoleDiffService {
	return &roleDiffService{cfg: cfg, repo: repo, totals: totals, logger: logger}
}

func (s *roleDiffService) Apply(ctx context.Context, eventID string, req *dto.ApplyRolesRequest, actorID string) (*dto.RoleDiffSummary, error) {
	for _, role := range req.Roles {
		if role.NeededWorkers > s.cfg.Staffing.RoleDiffMaxWorkers {
			return nil, fmt.Errorf("%w：%s 请求 %d 人，上限 %d",
				ErrTooManyWorkers, role.SkillName, role.NeededWorkers, s.cfg.Staffing.RoleDiffMaxWorkers)
		}
	}

	summary := &dto.RoleDiffSummary{}

	err := s.repo.Serializable(ctx, func(tx *repository.Repository) error {
		// 行锁：同一活动上的并发角色差异串行执行，防止班次重复生成
		event, err := tx.Event.GetForUpdate(ctx, eventID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}
		if event.Status != model.EventStatusPublished && event.Status != model.EventStatusAssigned {
			return ErrEventNotPublished
		}

		schedule, err := tx.EventSchedule.GetByEvent(ctx, eventID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrScheduleRequired
			}
			return err
		}
		if !schedule.StartTimeUTC.After(time.Now().UTC()) {
			return ErrEventScheduleStarted
		}

		existing, err := tx.Requirement.ListByEvent(ctx, eventID)
		if err != nil {
			return err
		}
		bySkill := make(map[string]*model.EventSkillRequirement, len(existing))
		for i := range existing {
			bySkill[existing[i].SkillName] = &existing[i]
		}

		for _, role := range req.Roles {
			if err := s.applyRole(ctx, tx, event, schedule, bySkill[role.SkillName], &role, req, summary, actorID); err != nil {
				return err
			}
		}

		if err := tx.ActivityLog.Create(ctx, &model.ActivityLog{
			EntityType: EntityEvent,
			EntityID:   eventID,
			Action:     model.ActionRolesApplied,
			AfterJSON: model.Snapshot{
				"added":     summary.Added,
				"removed":   summary.Removed,
				"unchanged": summary.Unchanged,
			},
			ActorID: actorID,
		}); err != nil {
			return err
		}

		// 时间窗委托：角色处理完成后同步全部活动所属班次
		if req.Schedule != nil {
			if !req.Schedule.EndTimeUTC.After(req.Schedule.StartTimeUTC) {
				return ErrInvalidTimeRange
			}
			schedule.StartTimeUTC = req.Schedule.StartTimeUTC
			schedule.EndTimeUTC = req.Schedule.EndTimeUTC
			if req.Schedule.Version > 0 {
				schedule.Version = req.Schedule.Version
			}
			schedule.UpdatedBy = &actorID
			if err := tx.EventSchedule.Update(ctx, schedule); err != nil {
				return err
			}
			if _, err := syncShiftTimes(ctx, tx, eventID, schedule.StartTimeUTC, schedule.EndTimeUTC, actorID); err != nil {
				return err
			}
		}

		// 班次集合变了，聚合必须在同一事务内跟上
		_, err = s.totals.RecalculateIn(ctx, tx, eventID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// applyRole 处理单个角色的差异。
// requirement 为 nil 表示该技能尚无需求记录。
func (s *roleDiffService) applyRole(
	ctx context.Context,
	tx *repository.Repository,
	event *model.Event,
	schedule *model.EventSchedule,
	requirement *model.EventSkillRequirement,
	role *dto.RoleInput,
	req *dto.ApplyRolesRequest,
	summary *dto.RoleDiffSummary,
	actorID string,
) error {
	// 无既有需求：创建需求 + N 个单容量班次
	if requirement == nil {
		requirement = &model.EventSkillRequirement{
			EventID:                 event.EventID,
			SkillName:               role.SkillName,
			NeededWorkers:           role.NeededWorkers,
			PayRate:                 role.PayRate,
			RequiredCertificationID: role.RequiredCertificationID,
			Description:             role.Description,
		}
		requirement.CreatedBy = &actorID
		requirement.UpdatedBy = &actorID
		if err := tx.Requirement.Create(ctx, requirement); err != nil {
			return err
		}
		if err := s.createUnitShifts(ctx, tx, event.EventID, requirement, schedule, role.NeededWorkers, actorID); err != nil {
			return err
		}
		summary.Added += role.NeededWorkers
		return nil
	}

	delta := role.NeededWorkers - requirement.NeededWorkers
	oldRate := requirement.PayRate

	switch {
	case delta > 0:
		if err := s.createUnitShifts(ctx, tx, event.EventID, requirement, schedule, delta, actorID); err != nil {
			return err
		}
		summary.Added += delta

	case delta < 0:
		removed, err := s.removeShifts(ctx, tx, requirement, -delta, req.Force, req.Reason, actorID)
		if err != nil {
			return err
		}
		summary.Removed += removed

	default:
		// 人数不变：班次集合不动，其余需求字段照常更新
		summary.Unchanged++
	}

	before := requirementSnapshot(requirement)
	requirement.NeededWorkers = role.NeededWorkers
	requirement.PayRate = role.PayRate
	requirement.RequiredCertificationID = role.RequiredCertificationID
	requirement.Description = role.Description
	requirement.UpdatedBy = &actorID
	if err := tx.Requirement.Update(ctx, requirement); err != nil {
		return err
	}
	if err := tx.ActivityLog.Create(ctx, &model.ActivityLog{
		EntityType: EntityRequirement,
		EntityID:   requirement.RequirementID,
		Action:     model.ActionUpdated,
		BeforeJSON: before,
		AfterJSON:  requirementSnapshot(requirement),
		ActorID:    actorID,
	}); err != nil {
		return err
	}

	// 薪酬变化同样经由差异应用进入：级联口径与需求更新保持一致
	if !oldRate.Equal(role.PayRate) {
		if _, err := tx.Shift.BulkUpdatePayRate(ctx, requirement.RequirementID, oldRate, role.PayRate, actorID); err != nil {
			return err
		}
	}
	return nil
}

func (s *roleDiffService) createUnitShifts(
	ctx context.Context,
	tx *repository.Repository,
	eventID string,
	requirement *model.EventSkillRequirement,
	schedule *model.EventSchedule,
	count int,
	actorID string,
) error {
	shifts := make([]model.Shift, 0, count)
	for n := 0; n < count; n++ {
		shift := model.Shift{
			EventID:        &eventID,
			RequirementID:  &requirement.RequirementID,
			RoleNeeded:     requirement.SkillName,
			StartTimeUTC:   schedule.StartTimeUTC,
			EndTimeUTC:     schedule.EndTimeUTC,
			Capacity:       1,
			AutoGenerated:  true,
			RequiredCertID: requirement.RequiredCertificationID,
		}
		if !requirement.PayRate.IsZero() {
			shift.PayRate.Decimal = requirement.PayRate
			shift.PayRate.Valid = true
		}
		shift.CreatedBy = &actorID
		shift.UpdatedBy = &actorID
		shifts = append(shifts, shift)
	}
	return tx.Shift.BatchCreate(ctx, shifts)
}

// removeShifts 按"先未指派后已指派"的顺序移除班次。
// force=false 且未指派班次不足时不做任何变更，错误中给出需撤派人数。
func (s *roleDiffService) removeShifts(
	ctx context.Context,
	tx *repository.Repository,
	requirement *model.EventSkillRequirement,
	count int,
	force bool,
	reason string,
	actorID string,
) (int, error) {
	shifts, err := tx.Shift.ListByRequirement(ctx, requirement.RequirementID)
	if err != nil {
		return 0, err
	}

	var unfilled, filled []*model.Shift
	for i := range shifts {
		shift := &shifts[i]
		active := false
		for j := range shift.Assignments {
			if shift.Assignments[j].IsActive() {
				active = true
				break
			}
		}
		if active {
			filled = append(filled, shift)
		} else {
			unfilled = append(unfilled, shift)
		}
	}

	if len(unfilled) < count && !force {
		need := count - len(unfilled)
		return 0, fmt.Errorf("%w：%d 名员工需要强制撤派", ErrForceRequired, need)
	}

	toDelete := make([]string, 0, count)
	for _, shift := range unfilled {
		if len(toDelete) == count {
			break
		}
		toDelete = append(toDelete, shift.ShiftID)
	}

	// force 补足：撤派已指派班次上的有效指派，逐条留审计
	for _, shift := range filled {
		if len(toDelete) == count {
			break
		}
		for j := range shift.Assignments {
			a := &shift.Assignments[j]
			if !a.IsActive() {
				continue
			}
			before := assignmentSnapshot(a)
			a.Status = model.AssignmentStatusCancelled
			a.UpdatedBy = &actorID
			if err := tx.Assignment.Update(ctx, a); err != nil {
				return 0, err
			}
			after := assignmentSnapshot(a)
			if reason != "" {
				after["reason"] = reason
			}
			if err := tx.ActivityLog.Create(ctx, &model.ActivityLog{
				EntityType: EntityAssignment,
				EntityID:   a.AssignmentID,
				Action:     model.ActionCancelled,
				BeforeJSON: before,
				AfterJSON:  after,
				ActorID:    actorID,
			}); err != nil {
				return 0, err
			}
		}
		toDelete = append(toDelete, shift.ShiftID)
	}

	if err := tx.Shift.DeleteByIDs(ctx, toDelete, actorID); err != nil {
		s.logger.Error("移除班次失败", zap.Int("count", len(toDelete)), zap.Error(err))
		return 0, err
	}
	return len(toDelete), nil
}
