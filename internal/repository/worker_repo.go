package repository

import (
	"context"

	"gorm.io/gorm"

	"crewdesk/backend/internal/model"
	pkgerrors "crewdesk/backend/pkg/errors"
)

// WorkerRepository 员工数据访问接口
type WorkerRepository interface {
	Create(ctx context.Context, worker *model.Worker) error
	GetByID(ctx context.Context, id string) (*model.Worker, error)
	List(ctx context.Context, activeOnly bool, offset, limit int) ([]model.Worker, int64, error)
	Update(ctx context.Context, worker *model.Worker) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

// CertificationRepository 认证证书目录数据访问接口
type CertificationRepository interface {
	Create(ctx context.Context, cert *model.Certification) error
	GetByID(ctx context.Context, id string) (*model.Certification, error)
	List(ctx context.Context) ([]model.Certification, error)
	Update(ctx context.Context, cert *model.Certification) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

// WorkerCertificationRepository 员工持证数据访问接口
type WorkerCertificationRepository interface {
	Grant(ctx context.Context, wc *model.WorkerCertification) error
	Revoke(ctx context.Context, workerID, certificationID string) error
	ListByWorker(ctx context.Context, workerID string) ([]model.WorkerCertification, error)
}

// ── Worker Repository 实现 ──

type workerRepo struct {
	db *gorm.DB
}

func NewWorkerRepo(db *gorm.DB) WorkerRepository {
	return &workerRepo{db: db}
}

func (r *workerRepo) Create(ctx context.Context, worker *model.Worker) error {
	return r.db.WithContext(ctx).Create(worker).Error
}

func (r *workerRepo) GetByID(ctx context.Context, id string) (*model.Worker, error) {
	var worker model.Worker
	err := r.db.WithContext(ctx).
		Preload("Certifications").
		Preload("Certifications.Certification").
		Where("worker_id = ?", id).
		First(&worker).Error
	if err != nil {
		return nil, err
	}
	return &worker, nil
}

func (r *workerRepo) List(ctx context.Context, activeOnly bool, offset, limit int) ([]model.Worker, int64, error) {
	var workers []model.Worker
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Worker{})
	if activeOnly {
		db = db.Where("active = ?", true)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Offset(offset).Limit(limit).
		Order("last_name ASC, first_name ASC").
		Find(&workers).Error
	return workers, total, err
}

func (r *workerRepo) Update(ctx context.Context, worker *model.Worker) error {
	oldVersion := worker.Version
	result := r.db.WithContext(ctx).
		Model(worker).
		Where("worker_id = ? AND version = ?", worker.WorkerID, oldVersion).
		Updates(map[string]interface{}{
			"first_name": worker.FirstName,
			"last_name":  worker.LastName,
			"email":      worker.Email,
			"phone":      worker.Phone,
			"active":     worker.Active,
			"skills":     worker.Skills,
			"updated_by": worker.UpdatedBy,
			"version":    oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	worker.Version = oldVersion + 1
	return nil
}

func (r *workerRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Worker{}).
			Where("worker_id = ?", id).
			Update("deleted_by", deletedBy).Error; err != nil {
			return err
		}
		return tx.Where("worker_id = ?", id).Delete(&model.Worker{}).Error
	})
}

// ── Certification Repository 实现 ──

type certificationRepo struct {
	db *gorm.DB
}

func NewCertificationRepo(db *gorm.DB) CertificationRepository {
	return &certificationRepo{db: db}
}

func (r *certificationRepo) Create(ctx context.Context, cert *model.Certification) error {
	return r.db.WithContext(ctx).Create(cert).Error
}

func (r *certificationRepo) GetByID(ctx context.Context, id string) (*model.Certification, error) {
	var cert model.Certification
	err := r.db.WithContext(ctx).
		Where("certification_id = ?", id).
		First(&cert).Error
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

func (r *certificationRepo) List(ctx context.Context) ([]model.Certification, error) {
	var certs []model.Certification
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&certs).Error
	return certs, err
}

func (r *certificationRepo) Update(ctx context.Context, cert *model.Certification) error {
	oldVersion := cert.Version
	result := r.db.WithContext(ctx).
		Model(cert).
		Where("certification_id = ? AND version = ?", cert.CertificationID, oldVersion).
		Updates(map[string]interface{}{
			"name":        cert.Name,
			"description": cert.Description,
			"updated_by":  cert.UpdatedBy,
			"version":     oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	cert.Version = oldVersion + 1
	return nil
}

func (r *certificationRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Certification{}).
			Where("certification_id = ?", id).
			Update("deleted_by", deletedBy).Error; err != nil {
			return err
		}
		return tx.Where("certification_id = ?", id).Delete(&model.Certification{}).Error
	})
}

// ── WorkerCertification Repository 实现 ──

type workerCertificationRepo struct {
	db *gorm.DB
}

func NewWorkerCertificationRepo(db *gorm.DB) WorkerCertificationRepository {
	return &workerCertificationRepo{db: db}
}

func (r *workerCertificationRepo) Grant(ctx context.Context, wc *model.WorkerCertification) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.WorkerCertification
		err := tx.Where("worker_id = ? AND certification_id = ?", wc.WorkerID, wc.CertificationID).
			First(&existing).Error
		if err == nil {
			// 已持证 → 仅更新到期时间
			return tx.Model(&existing).Updates(map[string]interface{}{
				"expires_at_utc": wc.ExpiresAtUTC,
				"updated_by":     wc.UpdatedBy,
			}).Error
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		return tx.Create(wc).Error
	})
}

func (r *workerCertificationRepo) Revoke(ctx context.Context, workerID, certificationID string) error {
	// 硬删除：撤销持证无需保留软删除记录
	return r.db.WithContext(ctx).Unscoped().
		Where("worker_id = ? AND certification_id = ?", workerID, certificationID).
		Delete(&model.WorkerCertification{}).Error
}

func (r *workerCertificationRepo) ListByWorker(ctx context.Context, workerID string) ([]model.WorkerCertification, error) {
	var certs []model.WorkerCertification
	err := r.db.WithContext(ctx).
		Preload("Certification").
		Where("worker_id = ?", workerID).
		Find(&certs).Error
	return certs, err
}
