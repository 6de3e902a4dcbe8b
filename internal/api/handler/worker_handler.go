package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"crewdesk/backend/internal/dto"
	"crewdesk/backend/internal/service"
	pkgerrors "crewdesk/backend/pkg/errors"
	"crewdesk/backend/pkg/response"
)

// WorkerHandler 员工模块 HTTP 处理器
type WorkerHandler struct {
	workerSvc service.WorkerService
}

// NewWorkerHandler 创建 WorkerHandler
func NewWorkerHandler(workerSvc service.WorkerService) *WorkerHandler {
	return &WorkerHandler{workerSvc: workerSvc}
}

// CreateWorker 创建员工
// POST /api/v1/workers
func (h *WorkerHandler) CreateWorker(c *gin.Context) {
	var req dto.CreateWorkerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	worker, err := h.workerSvc.Create(c.Request.Context(), &req, actorID)
	if err != nil {
		h.handleWorkerError(c, err)
		return
	}

	response.Created(c, worker)
}

// GetWorker 获取员工详情（含技能与持证）
// GET /api/v1/workers/:id
func (h *WorkerHandler) GetWorker(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "员工ID不能为空")
		return
	}

	worker, err := h.workerSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleWorkerError(c, err)
		return
	}

	response.OK(c, worker)
}

// ListWorkers 获取员工列表
// GET /api/v1/workers
func (h *WorkerHandler) ListWorkers(c *gin.Context) {
	var req dto.WorkerListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	workers, total, err := h.workerSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, workers, total, req.GetPage(), req.GetPageSize())
}

// UpdateWorker 更新员工
// PUT /api/v1/workers/:id
func (h *WorkerHandler) UpdateWorker(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "员工ID不能为空")
		return
	}

	var req dto.UpdateWorkerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	worker, err := h.workerSvc.Update(c.Request.Context(), id, &req, actorID)
	if err != nil {
		h.handleWorkerError(c, err)
		return
	}

	response.OK(c, worker)
}

// DeleteWorker 删除员工
// DELETE /api/v1/workers/:id
func (h *WorkerHandler) DeleteWorker(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "员工ID不能为空")
		return
	}

	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.workerSvc.Delete(c.Request.Context(), id, actorID); err != nil {
		h.handleWorkerError(c, err)
		return
	}

	response.OK(c, nil)
}

// CreateCertification 创建证书目录项
// POST /api/v1/certifications
func (h *WorkerHandler) CreateCertification(c *gin.Context) {
	var req dto.CreateCertificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	cert, err := h.workerSvc.CreateCertification(c.Request.Context(), &req, actorID)
	if err != nil {
		h.handleWorkerError(c, err)
		return
	}

	response.Created(c, cert)
}

// ListCertifications 获取证书目录
// GET /api/v1/certifications
func (h *WorkerHandler) ListCertifications(c *gin.Context) {
	certs, err := h.workerSvc.ListCertifications(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": certs})
}

// GrantCertification 授予员工持证
// POST /api/v1/workers/:id/certifications
func (h *WorkerHandler) GrantCertification(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "员工ID不能为空")
		return
	}

	var req dto.GrantCertificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.workerSvc.GrantCertification(c.Request.Context(), id, &req, actorID); err != nil {
		h.handleWorkerError(c, err)
		return
	}

	response.OK(c, nil)
}

// RevokeCertification 撤销员工持证
// DELETE /api/v1/workers/:id/certifications/:cert_id
func (h *WorkerHandler) RevokeCertification(c *gin.Context) {
	id := c.Param("id")
	certID := c.Param("cert_id")
	if id == "" || certID == "" {
		response.BadRequest(c, 10001, "员工ID与证书ID不能为空")
		return
	}

	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.workerSvc.RevokeCertification(c.Request.Context(), id, certID, actorID); err != nil {
		h.handleWorkerError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleWorkerError 统一处理员工模块业务错误
func (h *WorkerHandler) handleWorkerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrWorkerNotFound):
		response.NotFound(c, 13001, "员工不存在")
	case errors.Is(err, service.ErrCertificationNotFound):
		response.NotFound(c, 13002, "证书不存在")
	case errors.Is(err, service.ErrWorkerHasAssignments):
		response.BadRequest(c, 13003, "员工存在有效指派，无法删除")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 10006, "数据已被其他操作修改，请刷新后重试")
	default:
		response.InternalError(c)
	}
}
