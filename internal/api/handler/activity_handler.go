package handler

import (
	"github.com/gin-gonic/gin"

	"crewdesk/backend/internal/dto"
	"crewdesk/backend/internal/service"
	"crewdesk/backend/pkg/response"
)

// ActivityHandler 操作日志模块 HTTP 处理器
type ActivityHandler struct {
	activitySvc service.ActivityService
}

// NewActivityHandler 创建 ActivityHandler
func NewActivityHandler(activitySvc service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activitySvc: activitySvc}
}

// ListActivity 按实体查询操作日志
// GET /api/v1/activity?entity_type=event&entity_id=xxx
func (h *ActivityHandler) ListActivity(c *gin.Context) {
	var req dto.ActivityListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	logs, total, err := h.activitySvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, logs, total, req.GetPage(), req.GetPageSize())
}
