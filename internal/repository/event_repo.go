package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"crewdesk/backend/internal/model"
	pkgerrors "crewdesk/backend/pkg/errors"
)

// EventRepository 活动数据访问接口
type EventRepository interface {
	Create(ctx context.Context, event *model.Event) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	// GetForUpdate 行锁读取（SELECT ... FOR UPDATE），必须在事务内调用
	GetForUpdate(ctx context.Context, id string) (*model.Event, error)
	List(ctx context.Context, status string, offset, limit int) ([]model.Event, int64, error)
	Update(ctx context.Context, event *model.Event) error
	// UpdateTotals 聚合字段的原子列更新：派生值刷新，不走乐观锁不触发校验
	UpdateTotals(ctx context.Context, eventID string, hours, pay decimal.Decimal, assignedCount, totalCount int, status string) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

// EventScheduleRepository 活动时间窗数据访问接口
type EventScheduleRepository interface {
	Create(ctx context.Context, schedule *model.EventSchedule) error
	GetByEvent(ctx context.Context, eventID string) (*model.EventSchedule, error)
	Update(ctx context.Context, schedule *model.EventSchedule) error
}

// EventSkillRequirementRepository 活动技能需求数据访问接口
type EventSkillRequirementRepository interface {
	Create(ctx context.Context, req *model.EventSkillRequirement) error
	GetByID(ctx context.Context, id string) (*model.EventSkillRequirement, error)
	ListByEvent(ctx context.Context, eventID string) ([]model.EventSkillRequirement, error)
	Update(ctx context.Context, req *model.EventSkillRequirement) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

// ── Event Repository 实现 ──

type eventRepo struct {
	db *gorm.DB
}

func NewEventRepo(db *gorm.DB) EventRepository {
	return &eventRepo{db: db}
}

func (r *eventRepo) Create(ctx context.Context, event *model.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *eventRepo) GetByID(ctx context.Context, id string) (*model.Event, error) {
	var event model.Event
	err := r.db.WithContext(ctx).
		Preload("Schedule").
		Preload("Requirements").
		Where("event_id = ?", id).
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepo) GetForUpdate(ctx context.Context, id string) (*model.Event, error) {
	var event model.Event
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("event_id = ?", id).
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepo) List(ctx context.Context, status string, offset, limit int) ([]model.Event, int64, error) {
	var events []model.Event
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Event{})
	if status != "" {
		db = db.Where("status = ?", status)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&events).Error
	return events, total, err
}

func (r *eventRepo) Update(ctx context.Context, event *model.Event) error {
	oldVersion := event.Version
	result := r.db.WithContext(ctx).
		Model(event).
		Where("event_id = ? AND version = ?", event.EventID, oldVersion).
		Updates(map[string]interface{}{
			"title":      event.Title,
			"status":     event.Status,
			"updated_by": event.UpdatedBy,
			"version":    oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	event.Version = oldVersion + 1
	return nil
}

func (r *eventRepo) UpdateTotals(ctx context.Context, eventID string, hours, pay decimal.Decimal, assignedCount, totalCount int, status string) error {
	updates := map[string]interface{}{
		"total_hours_worked":    hours,
		"total_pay_amount":      pay,
		"assigned_shifts_count": assignedCount,
		"total_shifts_count":    totalCount,
	}
	if status != "" {
		updates["status"] = status
	}
	return r.db.WithContext(ctx).
		Model(&model.Event{}).
		Where("event_id = ?", eventID).
		Updates(updates).Error
}

func (r *eventRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Event{}).
			Where("event_id = ?", id).
			Updates(map[string]interface{}{
				"status":     model.EventStatusDeleted,
				"deleted_by": deletedBy,
			}).Error; err != nil {
			return err
		}
		return tx.Where("event_id = ?", id).Delete(&model.Event{}).Error
	})
}

// ── EventSchedule Repository 实现 ──

type eventScheduleRepo struct {
	db *gorm.DB
}

func NewEventScheduleRepo(db *gorm.DB) EventScheduleRepository {
	return &eventScheduleRepo{db: db}
}

func (r *eventScheduleRepo) Create(ctx context.Context, schedule *model.EventSchedule) error {
	return r.db.WithContext(ctx).Create(schedule).Error
}

func (r *eventScheduleRepo) GetByEvent(ctx context.Context, eventID string) (*model.EventSchedule, error) {
	var schedule model.EventSchedule
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		First(&schedule).Error
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *eventScheduleRepo) Update(ctx context.Context, schedule *model.EventSchedule) error {
	oldVersion := schedule.Version
	result := r.db.WithContext(ctx).
		Model(schedule).
		Where("event_schedule_id = ? AND version = ?", schedule.EventScheduleID, oldVersion).
		Updates(map[string]interface{}{
			"start_time_utc": schedule.StartTimeUTC,
			"end_time_utc":   schedule.EndTimeUTC,
			"updated_by":     schedule.UpdatedBy,
			"version":        oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	schedule.Version = oldVersion + 1
	return nil
}

// ── EventSkillRequirement Repository 实现 ──

type eventSkillRequirementRepo struct {
	db *gorm.DB
}

func NewEventSkillRequirementRepo(db *gorm.DB) EventSkillRequirementRepository {
	return &eventSkillRequirementRepo{db: db}
}

func (r *eventSkillRequirementRepo) Create(ctx context.Context, req *model.EventSkillRequirement) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *eventSkillRequirementRepo) GetByID(ctx context.Context, id string) (*model.EventSkillRequirement, error) {
	var req model.EventSkillRequirement
	err := r.db.WithContext(ctx).
		Where("requirement_id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *eventSkillRequirementRepo) ListByEvent(ctx context.Context, eventID string) ([]model.EventSkillRequirement, error) {
	var reqs []model.EventSkillRequirement
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("skill_name ASC").
		Find(&reqs).Error
	return reqs, err
}

func (r *eventSkillRequirementRepo) Update(ctx context.Context, req *model.EventSkillRequirement) error {
	oldVersion := req.Version
	result := r.db.WithContext(ctx).
		Model(req).
		Where("requirement_id = ? AND version = ?", req.RequirementID, oldVersion).
		Updates(map[string]interface{}{
			"skill_name":                req.SkillName,
			"needed_workers":            req.NeededWorkers,
			"pay_rate":                  req.PayRate,
			"required_certification_id": req.RequiredCertificationID,
			"description":               req.Description,
			"updated_by":                req.UpdatedBy,
			"version":                   oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	req.Version = oldVersion + 1
	return nil
}

func (r *eventSkillRequirementRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.EventSkillRequirement{}).
			Where("requirement_id = ?", id).
			Update("deleted_by", deletedBy).Error; err != nil {
			return err
		}
		return tx.Where("requirement_id = ?", id).Delete(&model.EventSkillRequirement{}).Error
	})
}
