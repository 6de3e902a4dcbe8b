package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"crewdesk/backend/config"
	"crewdesk/backend/internal/dto"
	"crewdesk/backend/internal/model"
	"crewdesk/backend/internal/repository"
)

// ── 指派模块业务错误 ──

var (
	ErrShiftNotFound            = errors.New("班次不存在")
	ErrWorkerNotFound           = errors.New("员工不存在")
	ErrAssignmentNotFound       = errors.New("指派不存在")
	ErrWorkerInactive           = errors.New("员工已停用，无法指派")
	ErrBulkAssignAllFailed      = errors.New("批量指派全部失败")
	ErrBulkAssignTooManyPairs   = errors.New("批量指派数量超过上限")
	ErrInvalidStatusTransition  = errors.New("非法的指派状态变更")
	ErrAssignmentAlreadyInactive = errors.New("指派已处于终态")
)

// AssignmentService 指派业务接口
type AssignmentService interface {
	// Assign 单次指派：员工级咨询锁内重新检测冲突后落库
	Assign(ctx context.Context, shiftID, workerID, actorID string) (*dto.AssignmentResponse, error)
	// BulkAssign 批量指派：逐对独立处理，部分成功设计
	BulkAssign(ctx context.Context, req *dto.BulkAssignRequest, actorID string) (*dto.BulkAssignResponse, error)
	// Unassign 撤派：无原因置为 cancelled，有原因物理删除，均留审计
	Unassign(ctx context.Context, assignmentID, reason, actorID string) error
	UpdateHours(ctx context.Context, assignmentID string, req *dto.UpdateHoursRequest, actorID string) (*dto.AssignmentResponse, error)
	// UpdateStatus 指派状态流转（confirmed/completed/cancelled/no_show）
	UpdateStatus(ctx context.Context, assignmentID, newStatus string, version int, actorID string) (*dto.AssignmentResponse, error)
	// BulkApprove 幂等批量审批：已审批的指派不计数也不重复留审计
	BulkApprove(ctx context.Context, req *dto.BulkApproveRequest, actorID string) (*dto.BulkApproveResponse, error)
}

type assignmentService struct {
	cfg     *config.Config
	repo    *repository.Repository
	checker *ConflictChecker
	totals  TotalsService
	logger  *zap.Logger
}

// NewAssignmentService 创建 AssignmentService 实例
func NewAssignmentService(
	cfg *config.Config,
	repo *repository.Repository,
	totals TotalsService,
	logger *zap.Logger,
) AssignmentService {
	return &assignmentService{
		cfg:     cfg,
		repo:    repo,
		checker: NewConflictChecker(),
		totals:  totals,
		logger:  logger,
	}
}

// ────────────────────── Assign ──────────────────────

func (s *assignmentService) Assign(ctx context.Context, shiftID, workerID, actorID string) (*dto.AssignmentResponse, error) {
	var created *model.Assignment

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		// 锁内才开始读：锁前算出的冲突天然是过期的
		if err := tx.LockWorker(ctx, workerID); err != nil {
			s.logger.Error("获取员工咨询锁失败", zap.String("worker_id", workerID), zap.Error(err))
			return err
		}

		shift, err := tx.Shift.GetByID(ctx, shiftID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrShiftNotFound
			}
			return err
		}
		worker, err := tx.Worker.GetByID(ctx, workerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWorkerNotFound
			}
			return err
		}
		if !worker.Active {
			return ErrWorkerInactive
		}

		shiftAssignments, err := tx.Assignment.ListByShift(ctx, shiftID)
		if err != nil {
			return err
		}
		workerAssignments, err := tx.Assignment.ListActiveByWorker(ctx, workerID)
		if err != nil {
			return err
		}
		certs, err := tx.WorkerCertification.ListByWorker(ctx, workerID)
		if err != nil {
			return err
		}

		if conflicts := s.checker.Check(worker, shift, shiftAssignments, workerAssignments, certs); len(conflicts) > 0 {
			return &ConflictError{Conflicts: conflicts}
		}

		assignment := &model.Assignment{
			ShiftID:    shiftID,
			WorkerID:   workerID,
			AssignedBy: actorID,
			Status:     model.AssignmentStatusAssigned,
		}
		assignment.CreatedBy = &actorID
		assignment.UpdatedBy = &actorID
		if err := tx.Assignment.Create(ctx, assignment); err != nil {
			s.logger.Error("创建指派失败", zap.Error(err))
			return err
		}

		if err := tx.ActivityLog.Create(ctx, &model.ActivityLog{
			EntityType: EntityAssignment,
			EntityID:   assignment.AssignmentID,
			Action:     model.ActionCreated,
			AfterJSON:  assignmentSnapshot(assignment),
			ActorID:    actorID,
		}); err != nil {
			return err
		}

		// 指派变化同步触发聚合重算（同一逻辑操作内，不延迟到后台）
		if shift.EventID != nil {
			if _, err := s.totals.RecalculateIn(ctx, tx, *shift.EventID); err != nil {
				return err
			}
		}

		created = assignment
		return nil
	})
	if err != nil {
		return nil, err
	}

	return toAssignmentResponse(created), nil
}

// ────────────────────── BulkAssign ──────────────────────

func (s *assignmentService) BulkAssign(ctx context.Context, req *dto.BulkAssignRequest, actorID string) (*dto.BulkAssignResponse, error) {
	if len(req.Pairs) > s.cfg.Staffing.BulkAssignMaxPairs {
		return nil, fmt.Errorf("%w：最多 %d 对", ErrBulkAssignTooManyPairs, s.cfg.Staffing.BulkAssignMaxPairs)
	}

	resp := &dto.BulkAssignResponse{
		Results: make([]dto.BulkAssignItemResult, 0, len(req.Pairs)),
	}

	for _, pair := range req.Pairs {
		item := dto.BulkAssignItemResult{ShiftID: pair.ShiftID, WorkerID: pair.WorkerID}

		assignment, err := s.Assign(ctx, pair.ShiftID, pair.WorkerID, actorID)
		switch {
		case err == nil:
			item.Success = true
			item.AssignmentID = assignment.ID
			resp.Succeeded++
		default:
			item.Success = false
			var conflictErr *ConflictError
			if errors.As(err, &conflictErr) {
				for _, c := range conflictErr.Conflicts {
					item.Conflicts = append(item.Conflicts, dto.ConflictResponse{Kind: c.Kind, Message: c.Message})
				}
			} else {
				item.Error = err.Error()
			}
			resp.Failed++
		}
		resp.Results = append(resp.Results, item)
	}

	// 全部失败按错误处理；部分失败按携带冲突清单的成功处理
	if resp.Succeeded == 0 && resp.Failed > 0 {
		return resp, ErrBulkAssignAllFailed
	}
	return resp, nil
}

// ────────────────────── Unassign ──────────────────────

func (s *assignmentService) Unassign(ctx context.Context, assignmentID, reason, actorID string) error {
	return s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		assignment, err := tx.Assignment.GetByID(ctx, assignmentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAssignmentNotFound
			}
			return err
		}
		if !assignment.IsActive() {
			return ErrAssignmentAlreadyInactive
		}
		before := assignmentSnapshot(assignment)

		if reason != "" {
			// 带原因的撤派物理删除指派行
			if err := tx.Assignment.HardDelete(ctx, assignmentID); err != nil {
				s.logger.Error("删除指派失败", zap.String("assignment_id", assignmentID), zap.Error(err))
				return err
			}
		} else {
			assignment.Status = model.AssignmentStatusCancelled
			assignment.UpdatedBy = &actorID
			if err := tx.Assignment.Update(ctx, assignment); err != nil {
				return err
			}
		}

		after := model.Snapshot{"status": model.AssignmentStatusCancelled}
		if reason != "" {
			after["reason"] = reason
			after["deleted"] = true
		}
		if err := tx.ActivityLog.Create(ctx, &model.ActivityLog{
			EntityType: EntityAssignment,
			EntityID:   assignmentID,
			Action:     model.ActionUnassigned,
			BeforeJSON: before,
			AfterJSON:  after,
			ActorID:    actorID,
		}); err != nil {
			return err
		}

		if assignment.Shift != nil && assignment.Shift.EventID != nil {
			if _, err := s.totals.RecalculateIn(ctx, tx, *assignment.Shift.EventID); err != nil {
				return err
			}
		}
		return nil
	})
}

// ────────────────────── UpdateHours ──────────────────────

func (s *assignmentService) UpdateHours(ctx context.Context, assignmentID string, req *dto.UpdateHoursRequest, actorID string) (*dto.AssignmentResponse, error) {
	var updated *model.Assignment

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		assignment, err := tx.Assignment.GetByID(ctx, assignmentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAssignmentNotFound
			}
			return err
		}
		before := assignmentSnapshot(assignment)

		assignment.Version = req.Version
		if req.HoursWorked != nil {
			assignment.HoursWorked.Decimal = *req.HoursWorked
			assignment.HoursWorked.Valid = true
		}
		if req.HourlyRate != nil {
			assignment.HourlyRate.Decimal = *req.HourlyRate
			assignment.HourlyRate.Valid = true
		}
		assignment.UpdatedBy = &actorID

		if err := tx.Assignment.Update(ctx, assignment); err != nil {
			return err
		}

		if err := tx.ActivityLog.Create(ctx, &model.ActivityLog{
			EntityType: EntityAssignment,
			EntityID:   assignmentID,
			Action:     model.ActionUpdated,
			BeforeJSON: before,
			AfterJSON:  assignmentSnapshot(assignment),
			ActorID:    actorID,
		}); err != nil {
			return err
		}

		if assignment.Shift != nil && assignment.Shift.EventID != nil {
			if _, err := s.totals.RecalculateIn(ctx, tx, *assignment.Shift.EventID); err != nil {
				return err
			}
		}

		updated = assignment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toAssignmentResponse(updated), nil
}

// ────────────────────── UpdateStatus ──────────────────────

// 允许的状态流转
var assignmentTransitions = map[string][]string{
	model.AssignmentStatusAssigned:  {model.AssignmentStatusConfirmed, model.AssignmentStatusCancelled, model.AssignmentStatusNoShow},
	model.AssignmentStatusConfirmed: {model.AssignmentStatusCompleted, model.AssignmentStatusCancelled, model.AssignmentStatusNoShow},
}

func (s *assignmentService) UpdateStatus(ctx context.Context, assignmentID, newStatus string, version int, actorID string) (*dto.AssignmentResponse, error) {
	var updated *model.Assignment

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		assignment, err := tx.Assignment.GetByID(ctx, assignmentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAssignmentNotFound
			}
			return err
		}

		allowed := false
		for _, t := range assignmentTransitions[assignment.Status] {
			if t == newStatus {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("%w：%s → %s", ErrInvalidStatusTransition, assignment.Status, newStatus)
		}

		before := assignmentSnapshot(assignment)
		assignment.Status = newStatus
		assignment.Version = version
		assignment.UpdatedBy = &actorID
		if err := tx.Assignment.Update(ctx, assignment); err != nil {
			return err
		}

		if err := tx.ActivityLog.Create(ctx, &model.ActivityLog{
			EntityType: EntityAssignment,
			EntityID:   assignmentID,
			Action:     model.ActionStatusChanged,
			BeforeJSON: before,
			AfterJSON:  assignmentSnapshot(assignment),
			ActorID:    actorID,
		}); err != nil {
			return err
		}

		// cancelled/no_show 进出终态都会影响聚合
		if assignment.Shift != nil && assignment.Shift.EventID != nil {
			if _, err := s.totals.RecalculateIn(ctx, tx, *assignment.Shift.EventID); err != nil {
				return err
			}
		}

		updated = assignment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toAssignmentResponse(updated), nil
}

// ────────────────────── BulkApprove ──────────────────────

func (s *assignmentService) BulkApprove(ctx context.Context, req *dto.BulkApproveRequest, actorID string) (*dto.BulkApproveResponse, error) {
	var resp *dto.BulkApproveResponse

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		flipped, err := tx.Assignment.BulkApprove(ctx, req.AssignmentIDs, actorID)
		if err != nil {
			s.logger.Error("批量审批失败", zap.Error(err))
			return err
		}

		// 仅为实际翻转的指派写审计：重放同一选择集时零新增
		if len(flipped) > 0 {
			entries := make([]model.ActivityLog, 0, len(flipped))
			for _, id := range flipped {
				entries = append(entries, model.ActivityLog{
					EntityType: EntityAssignment,
					EntityID:   id,
					Action:     model.ActionApproved,
					AfterJSON:  model.Snapshot{"approved": true},
					ActorID:    actorID,
				})
			}
			if err := tx.ActivityLog.BatchCreate(ctx, entries); err != nil {
				return err
			}
		}

		resp = &dto.BulkApproveResponse{
			ApprovedCount: len(flipped),
			ApprovedIDs:   flipped,
		}
		if resp.ApprovedIDs == nil {
			resp.ApprovedIDs = []string{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ── 响应转换 ──

func toAssignmentResponse(a *model.Assignment) *dto.AssignmentResponse {
	resp := &dto.AssignmentResponse{
		ID:        a.AssignmentID,
		ShiftID:   a.ShiftID,
		WorkerID:  a.WorkerID,
		Status:    a.Status,
		Approved:  a.Approved,
		Version:   a.Version,
		CreatedAt: a.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if a.Worker != nil {
		resp.WorkerName = a.Worker.FullName()
	}
	if a.HoursWorked.Valid {
		v := a.HoursWorked.Decimal
		resp.HoursWorked = &v
	}
	if a.HourlyRate.Valid {
		v := a.HourlyRate.Decimal
		resp.HourlyRate = &v
	}
	return resp
}
