package service

import (
	"go.uber.org/zap"

	"crewdesk/backend/config"
	"crewdesk/backend/internal/repository"
	"crewdesk/backend/pkg/jwt"
	"crewdesk/backend/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth        AuthService
	User        UserService
	Worker      WorkerService
	Event       EventService
	Shift       ShiftService
	Assignment  AssignmentService
	RoleDiff    RoleDiffService
	Requirement RequirementService
	Totals      TotalsService
	Activity    ActivityService
	Export      ExportService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
) *Service {
	totals := NewTotalsService(repo, logger)
	return &Service{
		Auth:        NewAuthService(cfg, repo, jwtMgr, rdb, logger),
		User:        NewUserService(repo, logger),
		Worker:      NewWorkerService(repo, logger),
		Event:       NewEventService(repo, totals, logger),
		Shift:       NewShiftService(repo, totals, logger),
		Assignment:  NewAssignmentService(cfg, repo, totals, logger),
		RoleDiff:    NewRoleDiffService(cfg, repo, totals, logger),
		Requirement: NewRequirementService(repo, totals, logger),
		Totals:      totals,
		Activity:    NewActivityService(repo, logger),
		Export:      NewExportService(repo, logger),
	}
}
