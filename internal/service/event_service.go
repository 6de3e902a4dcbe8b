package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"crewdesk/backend/internal/dto"
	"crewdesk/backend/internal/model"
	"crewdesk/backend/internal/repository"
)

// ── 活动模块业务错误 ──

var (
	ErrEventNotFound       = errors.New("活动不存在")
	ErrEventNotDraft       = errors.New("活动不处于草稿状态")
	ErrEventNotPublished   = errors.New("活动不处于已发布状态")
	ErrEventAlreadyDeleted = errors.New("活动已删除")
	ErrScheduleRequired    = errors.New("活动未设置时间窗，无法发布")
	ErrScheduleNotFound    = errors.New("活动未设置时间窗")
	ErrInvalidTimeRange    = errors.New("结束时间必须晚于开始时间")
)

// EventService 活动业务接口
type EventService interface {
	Create(ctx context.Context, req *dto.CreateEventRequest, actorID string) (*dto.EventResponse, error)
	GetByID(ctx context.Context, id string) (*dto.EventResponse, error)
	List(ctx context.Context, req *dto.EventListRequest) ([]dto.EventResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateEventRequest, actorID string) (*dto.EventResponse, error)
	// SetSchedule 设置/修改时间窗；已有班次时自动触发时间同步
	SetSchedule(ctx context.Context, eventID string, req *dto.SetScheduleRequest, actorID string) (*dto.ScheduleResponse, error)
	// Publish 发布草稿：要求时间窗已设置，按需求展开单容量自动班次
	Publish(ctx context.Context, eventID string, actorID string) (*dto.EventResponse, error)
	Complete(ctx context.Context, eventID string, actorID string) error
	Delete(ctx context.Context, eventID string, actorID string) error
	// AddRequirement 草稿阶段添加技能需求
	AddRequirement(ctx context.Context, eventID string, req *dto.AddRequirementRequest, actorID string) (*dto.RequirementResponse, error)
	// SyncScheduleTimes 将时间窗变更传播到全部活动所属班次
	SyncScheduleTimes(ctx context.Context, eventID string, actorID string) (int64, error)
}

type eventService struct {
	repo   *repository.Repository
	totals TotalsService
	logger *zap.Logger
}

// NewEventService 创建 EventService 实例
func NewEventService(repo *repository.Repository, totals TotalsService, logger *zap.Logger) EventService {
	return &eventService{repo: repo, totals: totals, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *eventService) Create(ctx context.Context, req *dto.CreateEventRequest, actorID string) (*dto.EventResponse, error) {
	event := &model.Event{
		Title:  req.Title,
		Status: model.EventStatusDraft,
	}
	event.CreatedBy = &actorID
	event.UpdatedBy = &actorID

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Event.Create(ctx, event); err != nil {
			s.logger.Error("创建活动失败", zap.Error(err))
			return err
		}
		return tx.ActivityLog.Create(ctx, &model.ActivityLog{
			EntityType: EntityEvent,
			EntityID:   event.EventID,
			Action:     model.ActionCreated,
			AfterJSON:  eventSnapshot(event),
			ActorID:    actorID,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.toEventResponse(ctx, event, false)
}

// ────────────────────── GetByID ──────────────────────

func (s *eventService) GetByID(ctx context.Context, id string) (*dto.EventResponse, error) {
	event, err := s.repo.Event.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		s.logger.Error("查询活动失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return s.toEventResponse(ctx, event, true)
}

// ────────────────────── List ──────────────────────

func (s *eventService) List(ctx context.Context, req *dto.EventListRequest) ([]dto.EventResponse, int64, error) {
	events, total, err := s.repo.Event.List(ctx, req.Status, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出活动失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.EventResponse, 0, len(events))
	for i := range events {
		resp, err := s.toEventResponse(ctx, &events[i], false)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *resp)
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *eventService) Update(ctx context.Context, id string, req *dto.UpdateEventRequest, actorID string) (*dto.EventResponse, error) {
	var updated *model.Event

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		event, err := tx.Event.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}
		if event.Status == model.EventStatusDeleted {
			return ErrEventAlreadyDeleted
		}

		before := eventSnapshot(event)
		event.Title = req.Title
		event.Version = req.Version
		event.UpdatedBy = &actorID
		if err := tx.Event.Update(ctx, event); err != nil {
			return err
		}

		updated = event
		return tx.ActivityLog.Create(ctx, &model.ActivityLog{
			EntityType: EntityEvent,
			EntityID:   id,
			Action:     model.ActionUpdated,
			BeforeJSON: before,
			AfterJSON:  eventSnapshot(event),
			ActorID:    actorID,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.toEventResponse(ctx, updated, false)
}

// ────────────────────── SetSchedule ──────────────────────

func (s *eventService) SetSchedule(ctx context.Context, eventID string, req *dto.SetScheduleRequest, actorID string) (*dto.ScheduleResponse, error) {
	if !req.EndTimeUTC.After(req.StartTimeUTC) {
		return nil, ErrInvalidTimeRange
	}

	var schedule *model.EventSchedule
	var synced bool

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := tx.Event.GetByID(ctx, eventID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}

		existing, err := tx.EventSchedule.GetByEvent(ctx, eventID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if existing == nil {
			schedule = &model.EventSchedule{
				EventID:      eventID,
				StartTimeUTC: req.StartTimeUTC,
				EndTimeUTC:   req.EndTimeUTC,
			}
			schedule.CreatedBy = &actorID
			schedule.UpdatedBy = &actorID
			if err := tx.EventSchedule.Create(ctx, schedule); err != nil {
				s.logger.Error("创建时间窗失败", zap.Error(err))
				return err
			}
			return tx.ActivityLog.Create(ctx, &model.ActivityLog{
				EntityType: EntityEventSchedule,
				EntityID:   schedule.EventScheduleID,
				Action:     model.ActionCreated,
				AfterJSON:  scheduleSnapshot(schedule),
				ActorID:    actorID,
			})
		}

		// 时间窗变更与班次同步在同一事务内落库，避免两者只成其一
		if _, err := syncShiftTimes(ctx, tx, eventID, req.StartTimeUTC, req.EndTimeUTC, actorID); err != nil {
			return err
		}

		before := scheduleSnapshot(existing)
		existing.StartTimeUTC = req.StartTimeUTC
		existing.EndTimeUTC = req.EndTimeUTC
		if req.Version > 0 {
			existing.Version = req.Version
		}
		existing.UpdatedBy = &actorID
		if err := tx.EventSchedule.Update(ctx, existing); err != nil {
			return err
		}
		schedule = existing
		synced = true

		return tx.ActivityLog.Create(ctx, &model.ActivityLog{
			EntityType: EntityEventSchedule,
			EntityID:   existing.EventScheduleID,
			Action:     model.ActionUpdated,
			BeforeJSON: before,
			AfterJSON:  scheduleSnapshot(existing),
			ActorID:    actorID,
		})
	})
	if err != nil {
		return nil, err
	}

	// 聚合刷新尽力而为：班次时长变了，回退口径的工时随之变化
	if synced {
		if _, err := s.totals.Recalculate(ctx, eventID); err != nil {
			s.logger.Warn("时间窗变更后的聚合重算失败，稍后可重建",
				zap.String("event_id", eventID), zap.Error(err))
		}
	}

	return toScheduleResponse(schedule), nil
}

// ────────────────────── Publish ──────────────────────

func (s *eventService) Publish(ctx context.Context, eventID string, actorID string) (*dto.EventResponse, error) {
	var published *model.Event

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		event, err := tx.Event.GetByID(ctx, eventID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}
		if event.Status != model.EventStatusDraft {
			return ErrEventNotDraft
		}

		schedule, err := tx.EventSchedule.GetByEvent(ctx, eventID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrScheduleRequired
			}
			return err
		}

		requirements, err := tx.Requirement.ListByEvent(ctx, eventID)
		if err != nil {
			return err
		}

		// 按需求展开班次："需要5个服务员"即5行单容量班次
		shifts := generateShifts(eventID, requirements, schedule, actorID)
		if len(shifts) > 0 {
			if err := tx.Shift.BatchCreate(ctx, shifts); err != nil {
				s.logger.Error("生成班次失败", zap.String("event_id", eventID), zap.Error(err))
				return err
			}
		}

		before := eventSnapshot(event)
		event.Status = model.EventStatusPublished
		event.UpdatedBy = &actorID
		if err := tx.Event.Update(ctx, event); err != nil {
			return err
		}

		if err := tx.ActivityLog.Create(ctx, &model.ActivityLog{
			EntityType: EntityEvent,
			EntityID:   eventID,
			Action:     model.ActionPublished,
			BeforeJSON: before,
			AfterJSON:  eventSnapshot(event),
			ActorID:    actorID,
		}); err != nil {
			return err
		}

		if _, err := s.totals.RecalculateIn(ctx, tx, eventID); err != nil {
			return err
		}

		published = event
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.toEventResponse(ctx, published, true)
}

// generateShifts 将技能需求展开为单容量自动班次
func generateShifts(eventID string, requirements []model.EventSkillRequirement, schedule *model.EventSchedule, actorID string) []model.Shift {
	var shifts []model.Shift
	for i := range requirements {
		req := &requirements[i]
		for n := 0; n < req.NeededWorkers; n++ {
			shift := model.Shift{
				EventID:        &eventID,
				RequirementID:  &req.RequirementID,
				RoleNeeded:     req.SkillName,
				StartTimeUTC:   schedule.StartTimeUTC,
				EndTimeUTC:     schedule.EndTimeUTC,
				Capacity:       1,
				AutoGenerated:  true,
				RequiredCertID: req.RequiredCertificationID,
			}
			if !req.PayRate.IsZero() {
				shift.PayRate.Decimal = req.PayRate
				shift.PayRate.Valid = true
			}
			shift.CreatedBy = &actorID
			shift.UpdatedBy = &actorID
			shifts = append(shifts, shift)
		}
	}
	return shifts
}

// ────────────────────── Complete ──────────────────────

func (s *eventService) Complete(ctx context.Context, eventID string, actorID string) error {
	return s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		event, err := tx.Event.GetByID(ctx, eventID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}
		if event.Status != model.EventStatusPublished && event.Status != model.EventStatusAssigned {
			return ErrEventNotPublished
		}

		before := eventSnapshot(event)
		event.Status = model.EventStatusCompleted
		event.UpdatedBy = &actorID
		if err := tx.Event.Update(ctx, event); err != nil {
			return err
		}

		return tx.ActivityLog.Create(ctx, &model.ActivityLog{
			EntityType: EntityEvent,
			EntityID:   eventID,
			Action:     model.ActionCompleted,
			BeforeJSON: before,
			AfterJSON:  eventSnapshot(event),
			ActorID:    actorID,
		})
	})
}

// ────────────────────── Delete ──────────────────────

func (s *eventService) Delete(ctx context.Context, eventID string, actorID string) error {
	return s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		event, err := tx.Event.GetByID(ctx, eventID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}
		if event.Status == model.EventStatusDeleted {
			return ErrEventAlreadyDeleted
		}

		if err := tx.Event.Delete(ctx, eventID, actorID); err != nil {
			s.logger.Error("删除活动失败", zap.String("event_id", eventID), zap.Error(err))
			return err
		}

		return tx.ActivityLog.Create(ctx, &model.ActivityLog{
			EntityType: EntityEvent,
			EntityID:   eventID,
			Action:     model.ActionDeleted,
			BeforeJSON: eventSnapshot(event),
			ActorID:    actorID,
		})
	})
}

// ────────────────────── AddRequirement ──────────────────────

func (s *eventService) AddRequirement(ctx context.Context, eventID string, req *dto.AddRequirementRequest, actorID string) (*dto.RequirementResponse, error) {
	var requirement *model.EventSkillRequirement

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		event, err := tx.Event.GetByID(ctx, eventID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}
		// 发布后的需求变更走角色差异应用
		if event.Status != model.EventStatusDraft {
			return ErrEventNotDraft
		}

		requirement = &model.EventSkillRequirement{
			EventID:                 eventID,
			SkillName:               req.SkillName,
			NeededWorkers:           req.NeededWorkers,
			PayRate:                 req.PayRate,
			RequiredCertificationID: req.RequiredCertificationID,
			Description:             req.Description,
		}
		requirement.CreatedBy = &actorID
		requirement.UpdatedBy = &actorID
		if err := tx.Requirement.Create(ctx, requirement); err != nil {
			s.logger.Error("创建技能需求失败", zap.Error(err))
			return err
		}

		return tx.ActivityLog.Create(ctx, &model.ActivityLog{
			EntityType: EntityRequirement,
			EntityID:   requirement.RequirementID,
			Action:     model.ActionCreated,
			AfterJSON:  requirementSnapshot(requirement),
			ActorID:    actorID,
		})
	})
	if err != nil {
		return nil, err
	}
	return toRequirementResponse(requirement), nil
}

// ────────────────────── SyncScheduleTimes ──────────────────────

func (s *eventService) SyncScheduleTimes(ctx context.Context, eventID string, actorID string) (int64, error) {
	var count int64

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		schedule, err := tx.EventSchedule.GetByEvent(ctx, eventID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrScheduleNotFound
			}
			return err
		}
		count, err = syncShiftTimes(ctx, tx, eventID, schedule.StartTimeUTC, schedule.EndTimeUTC, actorID)
		return err
	})
	if err != nil {
		return 0, err
	}

	// 聚合刷新尽力而为：时间同步本身是权威操作，失败只记录不回滚
	if _, err := s.totals.Recalculate(ctx, eventID); err != nil {
		s.logger.Warn("时间同步后的聚合重算失败，稍后可重建",
			zap.String("event_id", eventID), zap.Error(err))
	}
	return count, nil
}

// syncShiftTimes 批量同步活动所属班次的时间并留审计。
// 只触及 event_id 匹配的班次，独立班次不受影响。
// 供 SyncScheduleTimes 与角色差异应用的时间窗委托共用。
func syncShiftTimes(ctx context.Context, tx *repository.Repository, eventID string, start, end time.Time, actorID string) (int64, error) {
	count, err := tx.Shift.BulkUpdateTimes(ctx, eventID, start, end, actorID)
	if err != nil {
		return 0, err
	}
	err = tx.ActivityLog.Create(ctx, &model.ActivityLog{
		EntityType: EntityEvent,
		EntityID:   eventID,
		Action:     model.ActionTimesSynced,
		AfterJSON: model.Snapshot{
			"start_time_utc": start.Format("2006-01-02T15:04:05Z"),
			"end_time_utc":   end.Format("2006-01-02T15:04:05Z"),
			"updated_shifts": count,
		},
		ActorID: actorID,
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ── 响应转换 ──

func (s *eventService) toEventResponse(ctx context.Context, event *model.Event, withShifts bool) (*dto.EventResponse, error) {
	resp := &dto.EventResponse{
		ID:                  event.EventID,
		Title:               event.Title,
		Status:              event.Status,
		TotalHoursWorked:    event.TotalHoursWorked,
		TotalPayAmount:      event.TotalPayAmount,
		AssignedShiftsCount: event.AssignedShiftsCount,
		TotalShiftsCount:    event.TotalShiftsCount,
		Version:             event.Version,
		CreatedAt:           event.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt:           event.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
	if event.Schedule != nil {
		resp.Schedule = toScheduleResponse(event.Schedule)
	}
	for i := range event.Requirements {
		resp.Requirements = append(resp.Requirements, *toRequirementResponse(&event.Requirements[i]))
	}

	if withShifts {
		shifts, err := s.repo.Shift.ListByEvent(ctx, event.EventID)
		if err != nil {
			s.logger.Error("查询活动班次失败", zap.String("event_id", event.EventID), zap.Error(err))
			return nil, err
		}
		for i := range shifts {
			resp.Shifts = append(resp.Shifts, *toShiftResponse(&shifts[i]))
		}
	}
	return resp, nil
}

func toScheduleResponse(sc *model.EventSchedule) *dto.ScheduleResponse {
	return &dto.ScheduleResponse{
		ID:           sc.EventScheduleID,
		EventID:      sc.EventID,
		StartTimeUTC: sc.StartTimeUTC.Format("2006-01-02T15:04:05Z"),
		EndTimeUTC:   sc.EndTimeUTC.Format("2006-01-02T15:04:05Z"),
		Version:      sc.Version,
	}
}

func toRequirementResponse(r *model.EventSkillRequirement) *dto.RequirementResponse {
	return &dto.RequirementResponse{
		ID:                      r.RequirementID,
		EventID:                 r.EventID,
		SkillName:               r.SkillName,
		NeededWorkers:           r.NeededWorkers,
		PayRate:                 r.PayRate,
		RequiredCertificationID: r.RequiredCertificationID,
		Description:             r.Description,
		Version:                 r.Version,
	}
}
