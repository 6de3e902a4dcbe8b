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

// ShiftService 班次业务接口
type ShiftService interface {
	// Create 创建独立班次（event_id 可空）
	Create(ctx context.Context, req *dto.CreateShiftRequest, actorID string) (*dto.ShiftResponse, error)
	GetByID(ctx context.Context, id string) (*dto.ShiftResponse, error)
	ListByEvent(ctx context.Context, eventID string) ([]dto.ShiftResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateShiftRequest, actorID string) (*dto.ShiftResponse, error)
}

type shiftService struct {
	repo   *repository.Repository
	totals TotalsService
	logger *zap.Logger
}

// NewShiftService 创建 ShiftService 实例
func NewShiftService(repo *repository.Repository, totals TotalsService, logger *zap.Logger) ShiftService {
	return &shiftService{repo: repo, totals: totals, logger: logger}
}

func (s *shiftService) Create(ctx context.Context, req *dto.CreateShiftRequest, actorID string) (*dto.ShiftResponse, error) {
	if !req.EndTimeUTC.After(req.StartTimeUTC) {
		return nil, ErrInvalidTimeRange
	}

	shift := &model.Shift{
		EventID:        req.EventID,
		RoleNeeded:     req.RequiredSkill,
		StartTimeUTC:   req.StartTimeUTC,
		EndTimeUTC:     req.EndTimeUTC,
		Capacity:       req.Capacity,
		RequiredCertID: req.RequiredCertificationID,
	}
	if req.PayRate != nil {
		shift.PayRate.Decimal = *req.PayRate
		shift.PayRate.Valid = true
	}
	shift.CreatedBy = &actorID
	shift.UpdatedBy = &actorID

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if req.EventID != nil {
			if _, err := tx.Event.GetByID(ctx, *req.EventID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrEventNotFound
				}
				return err
			}
		}
		if err := tx.Shift.Create(ctx, shift); err != nil {
			s.logger.Error("创建班次失败", zap.Error(err))
			return err
		}
		if err := tx.ActivityLog.Create(ctx, &model.ActivityLog{
			EntityType: EntityShift,
			EntityID:   shift.ShiftID,
			Action:     model.ActionCreated,
			AfterJSON:  shiftSnapshot(shift),
			ActorID:    actorID,
		}); err != nil {
			return err
		}
		if req.EventID != nil {
			if _, err := s.totals.RecalculateIn(ctx, tx, *req.EventID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toShiftResponse(shift), nil
}

func (s *shiftService) GetByID(ctx context.Context, id string) (*dto.ShiftResponse, error) {
	shift, err := s.repo.Shift.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		s.logger.Error("查询班次失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toShiftResponse(shift), nil
}

func (s *shiftService) ListByEvent(ctx context.Context, eventID string) ([]dto.ShiftResponse, error) {
	shifts, err := s.repo.Shift.ListByEvent(ctx, eventID)
	if err != nil {
		s.logger.Error("查询活动班次失败", zap.String("event_id", eventID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.ShiftResponse, 0, len(shifts))
	for i := range shifts {
		result = append(result, *toShiftResponse(&shifts[i]))
	}
	return result, nil
}

func (s *shiftService) Update(ctx context.Context, id string, req *dto.UpdateShiftRequest, actorID string) (*dto.ShiftResponse, error) {
	var updated *model.Shift

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		shift, err := tx.Shift.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrShiftNotFound
			}
			return err
		}

		before := shiftSnapshot(shift)
		if req.StartTimeUTC != nil {
			shift.StartTimeUTC = *req.StartTimeUTC
		}
		if req.EndTimeUTC != nil {
			shift.EndTimeUTC = *req.EndTimeUTC
		}
		if !shift.EndTimeUTC.After(shift.StartTimeUTC) {
			return ErrInvalidTimeRange
		}
		if req.Capacity != nil {
			shift.Capacity = *req.Capacity
		}
		if req.PayRate != nil {
			shift.PayRate.Decimal = *req.PayRate
			shift.PayRate.Valid = true
		}
		shift.Version = req.Version
		shift.UpdatedBy = &actorID
		if err := tx.Shift.Update(ctx, shift); err != nil {
			return err
		}

		if err := tx.ActivityLog.Create(ctx, &model.ActivityLog{
			EntityType: EntityShift,
			EntityID:   id,
			Action:     model.ActionUpdated,
			BeforeJSON: before,
			AfterJSON:  shiftSnapshot(shift),
			ActorID:    actorID,
		}); err != nil {
			return err
		}

		if shift.EventID != nil {
			if _, err := s.totals.RecalculateIn(ctx, tx, *shift.EventID); err != nil {
				return err
			}
		}
		updated = shift
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toShiftResponse(updated), nil
}

// ── 快照与响应转换 ──

func shiftSnapshot(sh *model.Shift) model.Snapshot {
	snap := model.Snapshot{
		"role_needed":    sh.RoleNeeded,
		"start_time_utc": sh.StartTimeUTC.Format("2006-01-02T15:04:05Z"),
		"end_time_utc":   sh.EndTimeUTC.Format("2006-01-02T15:04:05Z"),
		"capacity":       sh.Capacity,
		"auto_generated": sh.AutoGenerated,
	}
	if sh.EventID != nil {
		snap["event_id"] = *sh.EventID
	}
	if sh.PayRate.Valid {
		snap["pay_rate"] = sh.PayRate.Decimal.String()
	}
	return snap
}

func toShiftResponse(sh *model.Shift) *dto.ShiftResponse {
	// 进度按全部已持久化指派行计（含 cancelled/no_show）
	assignedCount := len(sh.Assignments)
	progress := sh.Progress(assignedCount)

	resp := &dto.ShiftResponse{
		ID:                      sh.ShiftID,
		EventID:                 sh.EventID,
		RequirementID:           sh.RequirementID,
		StartTimeUTC:            sh.StartTimeUTC.Format("2006-01-02T15:04:05Z"),
		EndTimeUTC:              sh.EndTimeUTC.Format("2006-01-02T15:04:05Z"),
		Capacity:                sh.Capacity,
		RequiredSkill:           sh.RoleNeeded,
		RequiredCertificationID: sh.RequiredCertID,
		AutoGenerated:           sh.AutoGenerated,
		Progress: dto.StaffingProgressResponse{
			Assigned:   progress.Assigned,
			Required:   progress.Required,
			Percentage: float64(progress.Percentage),
		},
		FullyStaffed: sh.FullyStaffed(assignedCount),
		Version:      sh.Version,
	}
	if sh.PayRate.Valid {
		v := sh.PayRate.Decimal
		resp.PayRate = &v
	}
	for i := range sh.Assignments {
		resp.Assignments = append(resp.Assignments, *toAssignmentResponse(&sh.Assignments[i]))
	}
	return resp
}
