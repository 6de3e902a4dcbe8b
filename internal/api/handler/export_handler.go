package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"crewdesk/backend/internal/service"
	"crewdesk/backend/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportRoster 导出活动花名册（Excel）
// GET /api/v1/events/:id/export/roster
func (h *ExportHandler) ExportRoster(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "活动ID不能为空")
		return
	}

	buf, filename, err := h.exportSvc.ExportRoster(c.Request.Context(), id)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, xlsxMIME, buf.Bytes())
}

// ExportWorkerCalendar 导出员工排班日历（iCalendar）
// GET /api/v1/workers/:id/export/calendar
func (h *ExportHandler) ExportWorkerCalendar(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "员工ID不能为空")
		return
	}

	buf, filename, err := h.exportSvc.ExportWorkerCalendar(c.Request.Context(), id)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEventNotFound):
		response.NotFound(c, 17001, "活动不存在")
	case errors.Is(err, service.ErrWorkerNotFound):
		response.NotFound(c, 17002, "员工不存在")
	case errors.Is(err, service.ErrExportNoShifts):
		response.BadRequest(c, 17003, "该活动暂无班次")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		response.InternalError(c)
	}
}
