package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ── 班次模块请求 ──

// CreateShiftRequest 创建独立班次请求（不挂活动也可创建）
type CreateShiftRequest struct {
	EventID                 *string          `json:"event_id"       binding:"omitempty,uuid"`
	StartTimeUTC            time.Time        `json:"start_time_utc" binding:"required"`
	EndTimeUTC              time.Time        `json:"end_time_utc"   binding:"required"`
	Capacity                int              `json:"capacity"       binding:"required,min=1"`
	RequiredSkill           string           `json:"required_skill" binding:"omitempty,max=100"`
	RequiredCertificationID *string          `json:"required_certification_id" binding:"omitempty,uuid"`
	PayRate                 *decimal.Decimal `json:"pay_rate"`
}

// UpdateShiftRequest 更新班次请求
type UpdateShiftRequest struct {
	StartTimeUTC *time.Time       `json:"start_time_utc"`
	EndTimeUTC   *time.Time       `json:"end_time_utc"`
	Capacity     *int             `json:"capacity" binding:"omitempty,min=1"`
	PayRate      *decimal.Decimal `json:"pay_rate"`
	Version      int              `json:"version"  binding:"required,min=1"`
}

// ── 班次模块响应 ──

// StaffingProgressResponse 班次人员配置进度
type StaffingProgressResponse struct {
	Assigned   int     `json:"assigned"`
	Required   int     `json:"required"`
	Percentage float64 `json:"percentage"`
}

// ShiftResponse 班次响应
type ShiftResponse struct {
	ID                      string                   `json:"id"`
	EventID                 *string                  `json:"event_id,omitempty"`
	RequirementID           *string                  `json:"requirement_id,omitempty"`
	StartTimeUTC            string                   `json:"start_time_utc"`
	EndTimeUTC              string                   `json:"end_time_utc"`
	Capacity                int                      `json:"capacity"`
	RequiredSkill           string                   `json:"required_skill,omitempty"`
	RequiredCertificationID *string                  `json:"required_certification_id,omitempty"`
	PayRate                 *decimal.Decimal         `json:"pay_rate,omitempty"`
	AutoGenerated           bool                     `json:"auto_generated"`
	Progress                StaffingProgressResponse `json:"progress"`
	FullyStaffed            bool                     `json:"fully_staffed"`
	Assignments             []AssignmentResponse     `json:"assignments,omitempty"`
	Version                 int                      `json:"version"`
}
