package repository

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User                UserRepository
	Worker              WorkerRepository
	Certification       CertificationRepository
	WorkerCertification WorkerCertificationRepository
	Event               EventRepository
	EventSchedule       EventScheduleRepository
	Requirement         EventSkillRequirementRepository
	Shift               ShiftRepository
	Assignment          AssignmentRepository
	ActivityLog         ActivityLogRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:                  db,
		User:                NewUserRepo(db),
		Worker:              NewWorkerRepo(db),
		Certification:       NewCertificationRepo(db),
		WorkerCertification: NewWorkerCertificationRepo(db),
		Event:               NewEventRepo(db),
		EventSchedule:       NewEventScheduleRepo(db),
		Requirement:         NewEventSkillRequirementRepo(db),
		Shift:               NewShiftRepo(db),
		Assignment:          NewAssignmentRepo(db),
		ActivityLog:         NewActivityLogRepo(db),
	}
}

// Transaction 在事务中执行 fn，fn 收到绑定该事务的 Repository。
// 已处于事务中时 GORM 自动降级为 SAVEPOINT（嵌套事务语义）。
// db 为 nil 时（内存 mock 仓库）直接执行 fn。
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

// Serializable 在可串行化隔离级别的事务中执行 fn。
// 角色差异应用与时间同步依赖该级别防止聚合计数的丢失更新。
func (r *Repository) Serializable(ctx context.Context, fn func(tx *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
}

// LockWorker 获取员工级事务咨询锁，串行化同一员工跨班次的并发指派。
// 锁随事务提交或回滚自动释放，所有退出路径均保证释放。
// 必须在事务内调用（绑定事务的 Repository 上）。
func (r *Repository) LockWorker(ctx context.Context, workerID string) error {
	if r.db == nil {
		return nil
	}
	return r.db.WithContext(ctx).
		Exec("SELECT pg_advisory_xact_lock(hashtext(?))", "worker:"+workerID).Error
}
