package model

import "time"

// 活动日志动作
const (
	ActionCreated       = "created"
	ActionUpdated       = "updated"
	ActionDeleted       = "deleted"
	ActionPublished     = "published"
	ActionCompleted     = "completed"
	ActionAssigned      = "assigned"
	ActionUnassigned    = "unassigned"
	ActionCancelled     = "cancelled"
	ActionApproved      = "approved"
	ActionTimesSynced   = "times_synced"
	ActionRateCascaded  = "rate_cascaded"
	ActionRolesApplied  = "roles_applied"
	ActionStatusChanged = "status_changed"
)

// ActivityLog 活动日志表 — 对应 activity_logs（仅追加，创建后不再修改）
// before_json/after_json 保存变更前后的扁平字段快照，
// 供外部呈现层重建可读差异
type ActivityLog struct {
	ActivityLogID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"activity_log_id"`
	EntityType    string    `gorm:"type:varchar(50);not null"                      json:"entity_type"`
	EntityID      string    `gorm:"type:uuid;not null"                             json:"entity_id"`
	Action        string    `gorm:"type:varchar(50);not null"                      json:"action"`
	BeforeJSON    Snapshot  `gorm:"column:before_json;type:jsonb"                  json:"before_json,omitempty"`
	AfterJSON     Snapshot  `gorm:"column:after_json;type:jsonb"                   json:"after_json,omitempty"`
	ActorID       string    `gorm:"type:uuid;not null"                             json:"actor_id"`
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (ActivityLog) TableName() string { return "activity_logs" }
