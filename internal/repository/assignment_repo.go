package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"crewdesk/backend/internal/model"
	pkgerrors "crewdesk/backend/pkg/errors"
)

// EventAggregates 数据库侧聚合结果（与应用侧逐行累加必须等价）
type EventAggregates struct {
	Hours decimal.Decimal
	Pay   decimal.Decimal
}

// AssignmentRepository 指派数据访问接口
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *model.Assignment) error
	GetByID(ctx context.Context, id string) (*model.Assignment, error)
	ListByShift(ctx context.Context, shiftID string) ([]model.Assignment, error)
	// ListActiveByWorker 员工当前占用时间的指派（排除 cancelled/no_show），含班次
	ListActiveByWorker(ctx context.Context, workerID string) ([]model.Assignment, error)
	// ListByEvent 活动全部指派（经由班次关联），含班次
	ListByEvent(ctx context.Context, eventID string) ([]model.Assignment, error)
	Update(ctx context.Context, assignment *model.Assignment) error
	// HardDelete 带原因撤派时的物理删除
	HardDelete(ctx context.Context, id string) error
	// BulkApprove 将未审批的指派置为已审批，返回实际翻转的指派ID（幂等）
	BulkApprove(ctx context.Context, ids []string, updatedBy string) ([]string, error)
	// AggregateByEvent 数据库侧聚合：有效工时与薪酬（排除 cancelled/no_show）
	AggregateByEvent(ctx context.Context, eventID string) (*EventAggregates, error)
	// CountShiftsWithActiveAssignment 至少有一个有效指派的班次数
	CountShiftsWithActiveAssignment(ctx context.Context, eventID string) (int64, error)
}

type assignmentRepo struct {
	db *gorm.DB
}

func NewAssignmentRepo(db *gorm.DB) AssignmentRepository {
	return &assignmentRepo{db: db}
}

func (r *assignmentRepo) Create(ctx context.Context, assignment *model.Assignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *assignmentRepo) GetByID(ctx context.Context, id string) (*model.Assignment, error) {
	var assignment model.Assignment
	err := r.db.WithContext(ctx).
		Preload("Shift").
		Preload("Worker").
		Where("assignment_id = ?", id).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *assignmentRepo) ListByShift(ctx context.Context, shiftID string) ([]model.Assignment, error) {
	var assignments []model.Assignment
	err := r.db.WithContext(ctx).
		Preload("Worker").
		Where("shift_id = ?", shiftID).
		Order("assigned_at_utc ASC").
		Find(&assignments).Error
	return assignments, err
}

func (r *assignmentRepo) ListActiveByWorker(ctx context.Context, workerID string) ([]model.Assignment, error) {
	var assignments []model.Assignment
	err := r.db.WithContext(ctx).
		Preload("Shift").
		Where("worker_id = ? AND status NOT IN ?", workerID,
			[]string{model.AssignmentStatusCancelled, model.AssignmentStatusNoShow}).
		Find(&assignments).Error
	return assignments, err
}

func (r *assignmentRepo) ListByEvent(ctx context.Context, eventID string) ([]model.Assignment, error) {
	var assignments []model.Assignment
	err := r.db.WithContext(ctx).
		Preload("Shift").
		Joins("JOIN shifts ON shifts.shift_id = assignments.shift_id").
		Where("shifts.event_id = ? AND shifts.deleted_at IS NULL", eventID).
		Find(&assignments).Error
	return assignments, err
}

func (r *assignmentRepo) Update(ctx context.Context, assignment *model.Assignment) error {
	oldVersion := assignment.Version
	result := r.db.WithContext(ctx).
		Model(assignment).
		Where("assignment_id = ? AND version = ?", assignment.AssignmentID, oldVersion).
		Updates(map[string]interface{}{
			"status":       assignment.Status,
			"hours_worked": assignment.HoursWorked,
			"hourly_rate":  assignment.HourlyRate,
			"approved":     assignment.Approved,
			"updated_by":   assignment.UpdatedBy,
			"version":      oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	assignment.Version = oldVersion + 1
	return nil
}

func (r *assignmentRepo) HardDelete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Unscoped().
		Where("assignment_id = ?", id).
		Delete(&model.Assignment{}).Error
}

func (r *assignmentRepo) BulkApprove(ctx context.Context, ids []string, updatedBy string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var flipped []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 先取未审批子集，保证重复调用报告零变更且不重复写审计
		if err := tx.Model(&model.Assignment{}).
			Where("assignment_id IN ? AND approved = ?", ids, false).
			Pluck("assignment_id", &flipped).Error; err != nil {
			return err
		}
		if len(flipped) == 0 {
			return nil
		}
		return tx.Model(&model.Assignment{}).
			Where("assignment_id IN ?", flipped).
			Updates(map[string]interface{}{
				"approved":   true,
				"updated_by": updatedBy,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return flipped, nil
}

func (r *assignmentRepo) AggregateByEvent(ctx context.Context, eventID string) (*EventAggregates, error) {
	var row struct {
		Hours decimal.Decimal
		Pay   decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&model.Assignment{}).
		Select(`
			COALESCE(SUM(COALESCE(assignments.hours_worked,
				ROUND(EXTRACT(EPOCH FROM (shifts.end_time_utc - shifts.start_time_utc))::numeric / 3600, 2))), 0) AS hours,
			COALESCE(SUM(COALESCE(assignments.hours_worked,
				ROUND(EXTRACT(EPOCH FROM (shifts.end_time_utc - shifts.start_time_utc))::numeric / 3600, 2))
				* COALESCE(assignments.hourly_rate, shifts.pay_rate, 0)), 0) AS pay`).
		Joins("JOIN shifts ON shifts.shift_id = assignments.shift_id").
		Where("shifts.event_id = ? AND shifts.deleted_at IS NULL", eventID).
		Where("assignments.status NOT IN ?",
			[]string{model.AssignmentStatusCancelled, model.AssignmentStatusNoShow}).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &EventAggregates{
		Hours: row.Hours.Round(2),
		Pay:   row.Pay.Round(2),
	}, nil
}

func (r *assignmentRepo) CountShiftsWithActiveAssignment(ctx context.Context, eventID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Assignment{}).
		Joins("JOIN shifts ON shifts.shift_id = assignments.shift_id").
		Where("shifts.event_id = ? AND shifts.deleted_at IS NULL", eventID).
		Where("assignments.status NOT IN ?",
			[]string{model.AssignmentStatusCancelled, model.AssignmentStatusNoShow}).
		Distinct("assignments.shift_id").
		Count(&count).Error
	return count, err
}
