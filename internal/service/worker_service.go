package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"crewdesk/backend/internal/dto"
	"crewdesk/backend/internal/model"
	"crewdesk/backend/internal/repository"
)

// ── 员工模块业务错误 ──

var (
	ErrCertificationNotFound = errors.New("认证证书不存在")
	ErrWorkerHasAssignments  = errors.New("员工存在有效指派，无法删除")
)

// WorkerService 员工与认证业务接口
type WorkerService interface {
	Create(ctx context.Context, req *dto.CreateWorkerRequest, actorID string) (*dto.WorkerResponse, error)
	GetByID(ctx context.Context, id string) (*dto.WorkerResponse, error)
	List(ctx context.Context, req *dto.WorkerListRequest) ([]dto.WorkerResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateWorkerRequest, actorID string) (*dto.WorkerResponse, error)
	Delete(ctx context.Context, id string, actorID string) error

	// 认证证书目录
	CreateCertification(ctx context.Context, req *dto.CreateCertificationRequest, actorID string) (*dto.CertificationResponse, error)
	ListCertifications(ctx context.Context) ([]dto.CertificationResponse, error)

	// 员工持证
	GrantCertification(ctx context.Context, workerID string, req *dto.GrantCertificationRequest, actorID string) error
	RevokeCertification(ctx context.Context, workerID, certificationID string, actorID string) error
}

type workerService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewWorkerService 创建 WorkerService 实例
func NewWorkerService(repo *repository.Repository, logger *zap.Logger) WorkerService {
	return &workerService{repo: repo, logger: logger}
}

// ────────────────────── Worker CRUD ──────────────────────

func (s *workerService) Create(ctx context.Context, req *dto.CreateWorkerRequest, actorID string) (*dto.WorkerResponse, error) {
	worker := &model.Worker{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Active:    true,
		Skills:    model.StringArray(req.Skills),
	}
	if worker.Skills == nil {
		worker.Skills = model.StringArray{}
	}
	worker.CreatedBy = &actorID
	worker.UpdatedBy = &actorID

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Worker.Create(ctx, worker); err != nil {
			s.logger.Error("创建员工失败", zap.Error(err))
			return err
		}
		return tx.ActivityLog.Create(ctx, &model.ActivityLog{
			EntityType: EntityWorker,
			EntityID:   worker.WorkerID,
			Action:     model.ActionCreated,
			AfterJSON:  workerSnapshot(worker),
			ActorID:    actorID,
		})
	})
	if err != nil {
		return nil, err
	}
	return toWorkerResponse(worker), nil
}

func (s *workerService) GetByID(ctx context.Context, id string) (*dto.WorkerResponse, error) {
	worker, err := s.repo.Worker.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkerNotFound
		}
		s.logger.Error("查询员工失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toWorkerResponse(worker), nil
}

func (s *workerService) List(ctx context.Context, req *dto.WorkerListRequest) ([]dto.WorkerResponse, int64, error) {
	workers, total, err := s.repo.Worker.List(ctx, req.ActiveOnly, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出员工失败", zap.Error(err))
		return nil, 0, err
	}
	result := make([]dto.WorkerResponse, 0, len(workers))
	for i := range workers {
		result = append(result, *toWorkerResponse(&workers[i]))
	}
	return result, total, nil
}

func (s *workerService) Update(ctx context.Context, id string, req *dto.UpdateWorkerRequest, actorID string) (*dto.WorkerResponse, error) {
	var updated *model.Worker

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		worker, err := tx.Worker.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWorkerNotFound
			}
			return err
		}

		before := workerSnapshot(worker)
		worker.FirstName = req.FirstName
		worker.LastName = req.LastName
		worker.Email = req.Email
		worker.Phone = req.Phone
		if req.Active != nil {
			worker.Active = *req.Active
		}
		worker.Skills = model.StringArray(req.Skills)
		if worker.Skills == nil {
			worker.Skills = model.StringArray{}
		}
		worker.Version = req.Version
		worker.UpdatedBy = &actorID
		if err := tx.Worker.Update(ctx, worker); err != nil {
			return err
		}

		updated = worker
		return tx.ActivityLog.Create(ctx, &model.ActivityLog{
			EntityType: EntityWorker,
			EntityID:   id,
			Action:     model.ActionUpdated,
			BeforeJSON: before,
			AfterJSON:  workerSnapshot(worker),
			ActorID:    actorID,
		})
	})
	if err != nil {
		return nil, err
	}
	return toWorkerResponse(updated), nil
}

func (s *workerService) Delete(ctx context.Context, id string, actorID string) error {
	return s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		worker, err := tx.Worker.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWorkerNotFound
			}
			return err
		}

		active, err := tx.Assignment.ListActiveByWorker(ctx, id)
		if err != nil {
			return err
		}
		if len(active) > 0 {
			return ErrWorkerHasAssignments
		}

		if err := tx.Worker.Delete(ctx, id, actorID); err != nil {
			s.logger.Error("删除员工失败", zap.String("id", id), zap.Error(err))
			return err
		}
		return tx.ActivityLog.Create(ctx, &model.ActivityLog{
			EntityType: EntityWorker,
			EntityID:   id,
			Action:     model.ActionDeleted,
			BeforeJSON: workerSnapshot(worker),
			ActorID:    actorID,
		})
	})
}

// ────────────────────── 认证证书目录 ──────────────────────

func (s *workerService) CreateCertification(ctx context.Context, req *dto.CreateCertificationRequest, actorID string) (*dto.CertificationResponse, error) {
	cert := &model.Certification{
		Name:        req.Name,
		Description: req.Description,
	}
	cert.CreatedBy = &actorID
	cert.UpdatedBy = &actorID
	if err := s.repo.Certification.Create(ctx, cert); err != nil {
		s.logger.Error("创建认证证书失败", zap.Error(err))
		return nil, err
	}
	return toCertificationResponse(cert), nil
}

func (s *workerService) ListCertifications(ctx context.Context) ([]dto.CertificationResponse, error) {
	certs, err := s.repo.Certification.List(ctx)
	if err != nil {
		s.logger.Error("列出认证证书失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.CertificationResponse, 0, len(certs))
	for i := range certs {
		result = append(result, *toCertificationResponse(&certs[i]))
	}
	return result, nil
}

// ────────────────────── 员工持证 ──────────────────────

func (s *workerService) GrantCertification(ctx context.Context, workerID string, req *dto.GrantCertificationRequest, actorID string) error {
	return s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := tx.Worker.GetByID(ctx, workerID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWorkerNotFound
			}
			return err
		}
		if _, err := tx.Certification.GetByID(ctx, req.CertificationID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCertificationNotFound
			}
			return err
		}

		wc := &model.WorkerCertification{
			WorkerID:        workerID,
			CertificationID: req.CertificationID,
			ExpiresAtUTC:    req.ExpiresAtUTC,
		}
		wc.CreatedBy = &actorID
		wc.UpdatedBy = &actorID
		if err := tx.WorkerCertification.Grant(ctx, wc); err != nil {
			s.logger.Error("授予认证失败", zap.Error(err))
			return err
		}

		after := model.Snapshot{"certification_id": req.CertificationID}
		if req.ExpiresAtUTC != nil {
			after["expires_at_utc"] = req.ExpiresAtUTC.Format("2006-01-02T15:04:05Z")
		}
		return tx.ActivityLog.Create(ctx, &model.ActivityLog{
			EntityType: EntityWorkerCert,
			EntityID:   workerID,
			Action:     model.ActionCreated,
			AfterJSON:  after,
			ActorID:    actorID,
		})
	})
}

func (s *workerService) RevokeCertification(ctx context.Context, workerID, certificationID string, actorID string) error {
	return s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.WorkerCertification.Revoke(ctx, workerID, certificationID); err != nil {
			s.logger.Error("撤销认证失败", zap.Error(err))
			return err
		}
		return tx.ActivityLog.Create(ctx, &model.ActivityLog{
			EntityType: EntityWorkerCert,
			EntityID:   workerID,
			Action:     model.ActionDeleted,
			BeforeJSON: model.Snapshot{"certification_id": certificationID},
			ActorID:    actorID,
		})
	})
}

// ── 响应转换 ──

func toWorkerResponse(w *model.Worker) *dto.WorkerResponse {
	resp := &dto.WorkerResponse{
		ID:        w.WorkerID,
		FirstName: w.FirstName,
		LastName:  w.LastName,
		Email:     w.Email,
		Phone:     w.Phone,
		Active:    w.Active,
		Skills:    []string(w.Skills),
		Version:   w.Version,
		CreatedAt: w.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt: w.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
	for i := range w.Certifications {
		wc := &w.Certifications[i]
		cr := dto.WorkerCertificationResponse{
			CertificationID: wc.CertificationID,
		}
		if wc.Certification != nil {
			cr.Name = wc.Certification.Name
		}
		if wc.ExpiresAtUTC != nil {
			exp := wc.ExpiresAtUTC.Format("2006-01-02T15:04:05Z")
			cr.ExpiresAtUTC = &exp
		}
		resp.Certifications = append(resp.Certifications, cr)
	}
	return resp
}

func toCertificationResponse(c *model.Certification) *dto.CertificationResponse {
	return &dto.CertificationResponse{
		ID:          c.CertificationID,
		Name:        c.Name,
		Description: c.Description,
	}
}
