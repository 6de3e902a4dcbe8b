package service

import (
	"context"

	"go.uber.org/zap"

	"crewdesk/backend/internal/dto"
	"crewdesk/backend/internal/model"
	"crewdesk/backend/internal/repository"
)

// 审计实体类型
const (
	EntityEvent         = "event"
	EntityEventSchedule = "event_schedule"
	EntityRequirement   = "event_skill_requirement"
	EntityShift         = "shift"
	EntityAssignment    = "assignment"
	EntityWorker        = "worker"
	EntityWorkerCert    = "worker_certification"
	EntityUser          = "user"
)

// ActivityService 操作日志业务接口（仅追加，创建后不可变）
type ActivityService interface {
	// Record 写入一条日志；失败时仅记录错误不中断业务（事务内写入除外）
	Record(ctx context.Context, entry *model.ActivityLog) error
	List(ctx context.Context, req *dto.ActivityListRequest) ([]dto.ActivityLogResponse, int64, error)
}

type activityService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewActivityService 创建 ActivityService 实例
func NewActivityService(repo *repository.Repository, logger *zap.Logger) ActivityService {
	return &activityService{repo: repo, logger: logger}
}

func (s *activityService) Record(ctx context.Context, entry *model.ActivityLog) error {
	if err := s.repo.ActivityLog.Create(ctx, entry); err != nil {
		s.logger.Error("写入操作日志失败",
			zap.String("entity_type", entry.EntityType),
			zap.String("entity_id", entry.EntityID),
			zap.String("action", entry.Action),
			zap.Error(err))
		return err
	}
	return nil
}

func (s *activityService) List(ctx context.Context, req *dto.ActivityListRequest) ([]dto.ActivityLogResponse, int64, error) {
	entries, total, err := s.repo.ActivityLog.ListByEntity(ctx, req.EntityType, req.EntityID, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询操作日志失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.ActivityLogResponse, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		result = append(result, dto.ActivityLogResponse{
			ID:         e.ActivityLogID,
			EntityType: e.EntityType,
			EntityID:   e.EntityID,
			Action:     e.Action,
			ActorID:    e.ActorID,
			Before:     e.BeforeJSON,
			After:      e.AfterJSON,
			CreatedAt:  e.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return result, total, nil
}

// ── 快照构造 ──
// 快照只收录扁平的原始值字段，供外部呈现层重建可读差异

func eventSnapshot(e *model.Event) model.Snapshot {
	return model.Snapshot{
		"title":                 e.Title,
		"status":                e.Status,
		"total_hours_worked":    e.TotalHoursWorked.String(),
		"total_pay_amount":      e.TotalPayAmount.String(),
		"assigned_shifts_count": e.AssignedShiftsCount,
		"total_shifts_count":    e.TotalShiftsCount,
	}
}

func scheduleSnapshot(sc *model.EventSchedule) model.Snapshot {
	return model.Snapshot{
		"start_time_utc": sc.StartTimeUTC.Format("2006-01-02T15:04:05Z"),
		"end_time_utc":   sc.EndTimeUTC.Format("2006-01-02T15:04:05Z"),
	}
}

func requirementSnapshot(r *model.EventSkillRequirement) model.Snapshot {
	snap := model.Snapshot{
		"skill_name":     r.SkillName,
		"needed_workers": r.NeededWorkers,
		"pay_rate":       r.PayRate.String(),
		"description":    r.Description,
	}
	if r.RequiredCertificationID != nil {
		snap["required_certification_id"] = *r.RequiredCertificationID
	}
	return snap
}

func assignmentSnapshot(a *model.Assignment) model.Snapshot {
	snap := model.Snapshot{
		"shift_id":  a.ShiftID,
		"worker_id": a.WorkerID,
		"status":    a.Status,
		"approved":  a.Approved,
	}
	if a.HoursWorked.Valid {
		snap["hours_worked"] = a.HoursWorked.Decimal.String()
	}
	if a.HourlyRate.Valid {
		snap["hourly_rate"] = a.HourlyRate.Decimal.String()
	}
	return snap
}

func workerSnapshot(w *model.Worker) model.Snapshot {
	return model.Snapshot{
		"first_name": w.FirstName,
		"last_name":  w.LastName,
		"email":      w.Email,
		"phone":      w.Phone,
		"active":     w.Active,
		"skills":     "{" + joinSkills(w.Skills) + "}",
	}
}

func joinSkills(skills model.StringArray) string {
	out := ""
	for i, s := range skills {
		if i > 0 {
			out += ","
		}
		out += s
	}
	return out
}
