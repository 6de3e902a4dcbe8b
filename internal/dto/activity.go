package dto

// ── 操作日志模块 ──

// ActivityListRequest 按实体查询操作日志
type ActivityListRequest struct {
	EntityType string `form:"entity_type" binding:"required,oneof=event event_schedule event_skill_requirement shift assignment worker worker_certification user"`
	EntityID   string `form:"entity_id"   binding:"required,uuid"`
	PaginationRequest
}

// ActivityLogResponse 操作日志响应
type ActivityLogResponse struct {
	ID         string                 `json:"id"`
	EntityType string                 `json:"entity_type"`
	EntityID   string                 `json:"entity_id"`
	Action     string                 `json:"action"`
	ActorID    string                 `json:"actor_id"`
	Before     map[string]interface{} `json:"before,omitempty"`
	After      map[string]interface{} `json:"after,omitempty"`
	CreatedAt  string                 `json:"created_at"`
}
