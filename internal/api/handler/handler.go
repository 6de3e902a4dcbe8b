package handler

import "crewdesk/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth       *AuthHandler
	User       *UserHandler
	Worker     *WorkerHandler
	Event      *EventHandler
	Shift      *ShiftHandler
	Assignment *AssignmentHandler
	Activity   *ActivityHandler
	Export     *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:       NewAuthHandler(svc.Auth, svc.User),
		User:       NewUserHandler(svc.User),
		Worker:     NewWorkerHandler(svc.Worker),
		Event:      NewEventHandler(svc.Event, svc.RoleDiff, svc.Requirement, svc.Shift, svc.Totals),
		Shift:      NewShiftHandler(svc.Shift),
		Assignment: NewAssignmentHandler(svc.Assignment),
		Activity:   NewActivityHandler(svc.Activity),
		Export:     NewExportHandler(svc.Export),
	}
}
