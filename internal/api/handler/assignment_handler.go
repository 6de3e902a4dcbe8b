package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"crewdesk/backend/internal/dto"
	"crewdesk/backend/internal/service"
	pkgerrors "crewdesk/backend/pkg/errors"
	"crewdesk/backend/pkg/response"
)

// AssignmentHandler 排班模块 HTTP 处理器
type AssignmentHandler struct {
	assignSvc service.AssignmentService
}

// NewAssignmentHandler 创建 AssignmentHandler
func NewAssignmentHandler(assignSvc service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignSvc: assignSvc}
}

// Assign 指派员工到班次
// POST /api/v1/assignments
func (h *AssignmentHandler) Assign(c *gin.Context) {
	var req dto.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	assignment, err := h.assignSvc.Assign(c.Request.Context(), req.ShiftID, req.WorkerID, actorID)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}

	response.Created(c, assignment)
}

// BulkAssign 批量指派
// POST /api/v1/assignments/bulk
func (h *AssignmentHandler) BulkAssign(c *gin.Context) {
	var req dto.BulkAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.assignSvc.BulkAssign(c.Request.Context(), &req, actorID)
	if err != nil {
		// 全部失败时仍返回逐项结果，便于前端展示冲突明细
		if errors.Is(err, service.ErrBulkAssignAllFailed) {
			response.Unprocessable(c, 16005, "批量指派全部失败", result)
			return
		}
		h.handleAssignmentError(c, err)
		return
	}

	response.OK(c, result)
}

// Unassign 撤销指派
// DELETE /api/v1/assignments/:id
func (h *AssignmentHandler) Unassign(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "指派ID不能为空")
		return
	}

	var req dto.UnassignRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.assignSvc.Unassign(c.Request.Context(), id, req.Reason, actorID); err != nil {
		h.handleAssignmentError(c, err)
		return
	}

	response.OK(c, nil)
}

// UpdateHours 登记实际工时与时薪
// PUT /api/v1/assignments/:id/hours
func (h *AssignmentHandler) UpdateHours(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "指派ID不能为空")
		return
	}

	var req dto.UpdateHoursRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	assignment, err := h.assignSvc.UpdateHours(c.Request.Context(), id, &req, actorID)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}

	response.OK(c, assignment)
}

// UpdateStatus 指派状态流转
// PUT /api/v1/assignments/:id/status
func (h *AssignmentHandler) UpdateStatus(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "指派ID不能为空")
		return
	}

	var req dto.UpdateAssignmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	assignment, err := h.assignSvc.UpdateStatus(c.Request.Context(), id, req.Status, req.Version, actorID)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}

	response.OK(c, assignment)
}

// BulkApprove 批量审批（幂等：重复审批不产生变更）
// POST /api/v1/assignments/approve
func (h *AssignmentHandler) BulkApprove(c *gin.Context) {
	var req dto.BulkApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.assignSvc.BulkApprove(c.Request.Context(), &req, actorID)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}

	response.OK(c, result)
}

// handleAssignmentError 统一处理排班模块业务错误
func (h *AssignmentHandler) handleAssignmentError(c *gin.Context, err error) {
	var conflictErr *service.ConflictError
	if errors.As(err, &conflictErr) {
		conflicts := make([]dto.ConflictResponse, 0, len(conflictErr.Conflicts))
		for _, cf := range conflictErr.Conflicts {
			conflicts = append(conflicts, dto.ConflictResponse{Kind: cf.Kind, Message: cf.Message})
		}
		response.Unprocessable(c, 16006, "存在排班冲突", gin.H{"conflicts": conflicts})
		return
	}

	switch {
	case errors.Is(err, service.ErrShiftNotFound):
		response.NotFound(c, 16001, "班次不存在")
	case errors.Is(err, service.ErrWorkerNotFound):
		response.NotFound(c, 16002, "员工不存在")
	case errors.Is(err, service.ErrAssignmentNotFound):
		response.NotFound(c, 16003, "指派不存在")
	case errors.Is(err, service.ErrWorkerInactive):
		response.BadRequest(c, 16004, "员工已离职，无法指派")
	case errors.Is(err, service.ErrBulkAssignTooManyPairs):
		response.BadRequest(c, 16007, err.Error())
	case errors.Is(err, service.ErrInvalidStatusTransition):
		response.BadRequest(c, 16008, "非法的指派状态流转")
	case errors.Is(err, service.ErrAssignmentAlreadyInactive):
		response.BadRequest(c, 16009, "指派已取消或未到场")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 10006, "数据已被其他操作修改，请刷新后重试")
	default:
		response.InternalError(c)
	}
}
