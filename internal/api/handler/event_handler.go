package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"crewdesk/backend/internal/dto"
	"crewdesk/backend/internal/service"
	pkgerrors "crewdesk/backend/pkg/errors"
	"crewdesk/backend/pkg/response"
)

// EventHandler 活动模块 HTTP 处理器
// 聚合活动本体、时间窗、技能需求与角色差异应用的入口
type EventHandler struct {
	eventSvc    service.EventService
	roleDiffSvc service.RoleDiffService
	reqSvc      service.RequirementService
	shiftSvc    service.ShiftService
	totalsSvc   service.TotalsService
}

// NewEventHandler 创建 EventHandler
func NewEventHandler(
	eventSvc service.EventService,
	roleDiffSvc service.RoleDiffService,
	reqSvc service.RequirementService,
	shiftSvc service.ShiftService,
	totalsSvc service.TotalsService,
) *EventHandler {
	return &EventHandler{
		eventSvc:    eventSvc,
		roleDiffSvc: roleDiffSvc,
		reqSvc:      reqSvc,
		shiftSvc:    shiftSvc,
		totalsSvc:   totalsSvc,
	}
}

// CreateEvent 创建活动（草稿）
// POST /api/v1/events
func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	event, err := h.eventSvc.Create(c.Request.Context(), &req, actorID)
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.Created(c, event)
}

// GetEvent 获取活动详情（含时间窗、需求与班次）
// GET /api/v1/events/:id
func (h *EventHandler) GetEvent(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "活动ID不能为空")
		return
	}

	event, err := h.eventSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.OK(c, event)
}

// ListEvents 获取活动列表
// GET /api/v1/events
func (h *EventHandler) ListEvents(c *gin.Context) {
	var req dto.EventListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	events, total, err := h.eventSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, events, total, req.GetPage(), req.GetPageSize())
}

// UpdateEvent 更新活动
// PUT /api/v1/events/:id
func (h *EventHandler) UpdateEvent(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "活动ID不能为空")
		return
	}

	var req dto.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	event, err := h.eventSvc.Update(c.Request.Context(), id, &req, actorID)
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.OK(c, event)
}

// SetSchedule 设置/修改活动时间窗
// PUT /api/v1/events/:id/schedule
func (h *EventHandler) SetSchedule(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "活动ID不能为空")
		return
	}

	var req dto.SetScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	schedule, err := h.eventSvc.SetSchedule(c.Request.Context(), id, &req, actorID)
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.OK(c, schedule)
}

// SyncScheduleTimes 手动触发时间窗到班次的同步
// POST /api/v1/events/:id/schedule/sync
func (h *EventHandler) SyncScheduleTimes(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "活动ID不能为空")
		return
	}

	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	updated, err := h.eventSvc.SyncScheduleTimes(c.Request.Context(), id, actorID)
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.OK(c, dto.SyncScheduleResponse{UpdatedShifts: updated})
}

// PublishEvent 发布活动（按需求展开自动班次）
// POST /api/v1/events/:id/publish
func (h *EventHandler) PublishEvent(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "活动ID不能为空")
		return
	}

	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	event, err := h.eventSvc.Publish(c.Request.Context(), id, actorID)
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.OK(c, event)
}

// CompleteEvent 完结活动
// POST /api/v1/events/:id/complete
func (h *EventHandler) CompleteEvent(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "活动ID不能为空")
		return
	}

	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.eventSvc.Complete(c.Request.Context(), id, actorID); err != nil {
		h.handleEventError(c, err)
		return
	}

	response.OK(c, nil)
}

// DeleteEvent 删除活动（软删除）
// DELETE /api/v1/events/:id
func (h *EventHandler) DeleteEvent(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "活动ID不能为空")
		return
	}

	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.eventSvc.Delete(c.Request.Context(), id, actorID); err != nil {
		h.handleEventError(c, err)
		return
	}

	response.OK(c, nil)
}

// ListEventShifts 获取活动下全部班次（含配置进度）
// GET /api/v1/events/:id/shifts
func (h *EventHandler) ListEventShifts(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "活动ID不能为空")
		return
	}

	shifts, err := h.shiftSvc.ListByEvent(c.Request.Context(), id)
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.OK(c, gin.H{"list": shifts})
}

// AddRequirement 草稿阶段添加技能需求
// POST /api/v1/events/:id/requirements
func (h *EventHandler) AddRequirement(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "活动ID不能为空")
		return
	}

	var req dto.AddRequirementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	requirement, err := h.eventSvc.AddRequirement(c.Request.Context(), id, &req, actorID)
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.Created(c, requirement)
}

// ApplyRoles 应用角色差异（发布后调整人数/技能集合）
// POST /api/v1/events/:id/roles
func (h *EventHandler) ApplyRoles(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "活动ID不能为空")
		return
	}

	var req dto.ApplyRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	summary, err := h.roleDiffSvc.Apply(c.Request.Context(), id, &req, actorID)
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.OK(c, summary)
}

// GetRequirement 获取技能需求详情
// GET /api/v1/requirements/:id
func (h *EventHandler) GetRequirement(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "需求ID不能为空")
		return
	}

	requirement, err := h.reqSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.OK(c, requirement)
}

// UpdateRequirement 更新技能需求（薪酬变化触发自动班次级联）
// PUT /api/v1/requirements/:id
func (h *EventHandler) UpdateRequirement(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "需求ID不能为空")
		return
	}

	var req dto.UpdateRequirementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	requirement, cascade, err := h.reqSvc.Update(c.Request.Context(), id, &req, actorID)
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.OK(c, gin.H{"requirement": requirement, "cascade": cascade})
}

// RecalculateTotals 手动触发活动聚合重算
// POST /api/v1/events/:id/totals/recalculate
func (h *EventHandler) RecalculateTotals(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "活动ID不能为空")
		return
	}

	totals, err := h.totalsSvc.Recalculate(c.Request.Context(), id)
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.OK(c, totals)
}

// handleEventError 统一处理活动模块业务错误
func (h *EventHandler) handleEventError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEventNotFound):
		response.NotFound(c, 14001, "活动不存在")
	case errors.Is(err, service.ErrEventNotDraft):
		response.BadRequest(c, 14002, "活动不处于草稿状态")
	case errors.Is(err, service.ErrEventNotPublished):
		response.BadRequest(c, 14003, "活动不处于已发布状态")
	case errors.Is(err, service.ErrEventAlreadyDeleted):
		response.BadRequest(c, 14004, "活动已删除")
	case errors.Is(err, service.ErrScheduleRequired):
		response.BadRequest(c, 14005, "活动未设置时间窗，无法发布")
	case errors.Is(err, service.ErrScheduleNotFound):
		response.NotFound(c, 14006, "活动未设置时间窗")
	case errors.Is(err, service.ErrInvalidTimeRange):
		response.BadRequest(c, 14007, "结束时间必须晚于开始时间")
	case errors.Is(err, service.ErrRequirementNotFound):
		response.NotFound(c, 14008, "技能需求不存在")
	case errors.Is(err, service.ErrEventScheduleStarted):
		response.BadRequest(c, 14009, "活动已开始，无法调整角色需求")
	case errors.Is(err, service.ErrForceRequired):
		response.Unprocessable(c, 14010, err.Error(), nil)
	case errors.Is(err, service.ErrTooManyWorkers):
		response.BadRequest(c, 14011, err.Error())
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 10006, "数据已被其他操作修改，请刷新后重试")
	default:
		response.InternalError(c)
	}
}
