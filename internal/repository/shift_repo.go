package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"crewdesk/backend/internal/model"
	pkgerrors "crewdesk/backend/pkg/errors"
)

// ShiftRepository 班次数据访问接口
type ShiftRepository interface {
	Create(ctx context.Context, shift *model.Shift) error
	BatchCreate(ctx context.Context, shifts []model.Shift) error
	GetByID(ctx context.Context, id string) (*model.Shift, error)
	ListByEvent(ctx context.Context, eventID string) ([]model.Shift, error)
	ListByRequirement(ctx context.Context, requirementID string) ([]model.Shift, error)
	Update(ctx context.Context, shift *model.Shift) error
	// DeleteByIDs 软删除：保留行以支撑留存的已取消指派与审计回溯
	DeleteByIDs(ctx context.Context, ids []string, deletedBy string) error
	// BulkUpdateTimes 将活动所属班次批量改为新时间窗，返回更新行数
	BulkUpdateTimes(ctx context.Context, eventID string, start, end time.Time, updatedBy string) (int64, error)
	// BulkUpdatePayRate 薪酬级联：仅触及自动生成、且当前薪酬为空或等于旧值的班次
	BulkUpdatePayRate(ctx context.Context, requirementID string, oldRate, newRate decimal.Decimal, updatedBy string) (int64, error)
}

type shiftRepo struct {
	db *gorm.DB
}

func NewShiftRepo(db *gorm.DB) ShiftRepository {
	return &shiftRepo{db: db}
}

func (r *shiftRepo) Create(ctx context.Context, shift *model.Shift) error {
	return r.db.WithContext(ctx).Create(shift).Error
}

func (r *shiftRepo) BatchCreate(ctx context.Context, shifts []model.Shift) error {
	if len(shifts) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&shifts).Error
}

func (r *shiftRepo) GetByID(ctx context.Context, id string) (*model.Shift, error) {
	var shift model.Shift
	err := r.db.WithContext(ctx).
		Preload("Assignments").
		Preload("Assignments.Worker").
		Where("shift_id = ?", id).
		First(&shift).Error
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *shiftRepo) ListByEvent(ctx context.Context, eventID string) ([]model.Shift, error) {
	var shifts []model.Shift
	err := r.db.WithContext(ctx).
		Preload("Assignments").
		Where("event_id = ?", eventID).
		Order("start_time_utc ASC, role_needed ASC").
		Find(&shifts).Error
	return shifts, err
}

func (r *shiftRepo) ListByRequirement(ctx context.Context, requirementID string) ([]model.Shift, error) {
	var shifts []model.Shift
	err := r.db.WithContext(ctx).
		Preload("Assignments").
		Where("requirement_id = ?", requirementID).
		Order("created_at ASC").
		Find(&shifts).Error
	return shifts, err
}

func (r *shiftRepo) Update(ctx context.Context, shift *model.Shift) error {
	oldVersion := shift.Version
	result := r.db.WithContext(ctx).
		Model(shift).
		Where("shift_id = ? AND version = ?", shift.ShiftID, oldVersion).
		Updates(map[string]interface{}{
			"role_needed":      shift.RoleNeeded,
			"start_time_utc":   shift.StartTimeUTC,
			"end_time_utc":     shift.EndTimeUTC,
			"capacity":         shift.Capacity,
			"pay_rate":         shift.PayRate,
			"required_cert_id": shift.RequiredCertID,
			"updated_by":       shift.UpdatedBy,
			"version":          oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	shift.Version = oldVersion + 1
	return nil
}

func (r *shiftRepo) DeleteByIDs(ctx context.Context, ids []string, deletedBy string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Shift{}).
			Where("shift_id IN ?", ids).
			Update("deleted_by", deletedBy).Error; err != nil {
			return err
		}
		return tx.Where("shift_id IN ?", ids).Delete(&model.Shift{}).Error
	})
}

func (r *shiftRepo) BulkUpdateTimes(ctx context.Context, eventID string, start, end time.Time, updatedBy string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Shift{}).
		Where("event_id = ?", eventID).
		Updates(map[string]interface{}{
			"start_time_utc": start,
			"end_time_utc":   end,
			"updated_by":     updatedBy,
		})
	return result.RowsAffected, result.Error
}

func (r *shiftRepo) BulkUpdatePayRate(ctx context.Context, requirementID string, oldRate, newRate decimal.Decimal, updatedBy string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Shift{}).
		Where("requirement_id = ? AND auto_generated = ?", requirementID, true).
		Where("pay_rate IS NULL OR pay_rate = ?", oldRate).
		Updates(map[string]interface{}{
			"pay_rate":   newRate,
			"updated_by": updatedBy,
		})
	return result.RowsAffected, result.Error
}
