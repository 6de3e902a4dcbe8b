package repository

import (
	"context"

	"gorm.io/gorm"

	"crewdesk/backend/internal/model"
)

// ActivityLogRepository 活动日志数据访问接口（仅追加）
type ActivityLogRepository interface {
	Create(ctx context.Context, entry *model.ActivityLog) error
	BatchCreate(ctx context.Context, entries []model.ActivityLog) error
	ListByEntity(ctx context.Context, entityType, entityID string, offset, limit int) ([]model.ActivityLog, int64, error)
}

type activityLogRepo struct {
	db *gorm.DB
}

func NewActivityLogRepo(db *gorm.DB) ActivityLogRepository {
	return &activityLogRepo{db: db}
}

func (r *activityLogRepo) Create(ctx context.Context, entry *model.ActivityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *activityLogRepo) BatchCreate(ctx context.Context, entries []model.ActivityLog) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&entries).Error
}

func (r *activityLogRepo) ListByEntity(ctx context.Context, entityType, entityID string, offset, limit int) ([]model.ActivityLog, int64, error) {
	var logs []model.ActivityLog
	var total int64

	db := r.db.WithContext(ctx).Model(&model.ActivityLog{}).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&logs).Error
	return logs, total, err
}
