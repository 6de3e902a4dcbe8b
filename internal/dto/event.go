package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ── 活动模块请求 ──

// CreateEventRequest 创建活动请求（初始为草稿）
type CreateEventRequest struct {
	Title string `json:"title" binding:"required,min=1,max=200"`
}

// UpdateEventRequest 更新活动标题请求
type UpdateEventRequest struct {
	Title   string `json:"title"   binding:"required,min=1,max=200"`
	Version int    `json:"version" binding:"required,min=1"`
}

// SetScheduleRequest 设置/修改活动时间窗请求
// Version 在更新既有时间窗时必填（乐观锁）；首次设置可省略
type SetScheduleRequest struct {
	StartTimeUTC time.Time `json:"start_time_utc" binding:"required"`
	EndTimeUTC   time.Time `json:"end_time_utc"   binding:"required"`
	Version      int       `json:"version"        binding:"omitempty,min=1"`
}

// RoleInput 单个技能需求输入
type RoleInput struct {
	SkillName               string          `json:"skill_name"     binding:"required,min=1,max=100"`
	NeededWorkers           int             `json:"needed_workers" binding:"min=0"`
	PayRate                 decimal.Decimal `json:"pay_rate"`
	RequiredCertificationID *string         `json:"required_certification_id" binding:"omitempty,uuid"`
	Description             string          `json:"description"    binding:"omitempty,max=500"`
}

// ApplyRolesRequest 角色差异应用请求
// Force 为 true 时允许强制撤派已占用班次；Schedule 非空时顺带同步时间窗
type ApplyRolesRequest struct {
	Roles    []RoleInput         `json:"roles"    binding:"required,min=1,dive"`
	Force    bool                `json:"force"`
	Reason   string              `json:"reason"   binding:"omitempty,max=500"`
	Schedule *SetScheduleRequest `json:"schedule"`
}

// AddRequirementRequest 添加技能需求请求（草稿阶段）
type AddRequirementRequest struct {
	RoleInput
}

// UpdateRequirementRequest 更新技能需求请求（薪酬变化触发级联）
type UpdateRequirementRequest struct {
	NeededWorkers           int             `json:"needed_workers" binding:"min=0"`
	PayRate                 decimal.Decimal `json:"pay_rate"`
	RequiredCertificationID *string         `json:"required_certification_id" binding:"omitempty,uuid"`
	Description             string          `json:"description"    binding:"omitempty,max=500"`
	Version                 int             `json:"version"        binding:"required,min=1"`
}

// EventListRequest 活动列表查询参数
type EventListRequest struct {
	Status string `form:"status" binding:"omitempty,oneof=draft published assigned completed deleted"`
	PaginationRequest
}

// ── 活动模块响应 ──

// RoleDiffSummary 角色差异应用结果
type RoleDiffSummary struct {
	Added     int `json:"added"`
	Removed   int `json:"removed"`
	Unchanged int `json:"unchanged"`
}

// EventResponse 活动响应
type EventResponse struct {
	ID                  string                 `json:"id"`
	Title               string                 `json:"title"`
	Status              string                 `json:"status"`
	TotalHoursWorked    decimal.Decimal        `json:"total_hours_worked"`
	TotalPayAmount      decimal.Decimal        `json:"total_pay_amount"`
	AssignedShiftsCount int                    `json:"assigned_shifts_count"`
	TotalShiftsCount    int                    `json:"total_shifts_count"`
	Schedule            *ScheduleResponse      `json:"schedule,omitempty"`
	Requirements        []RequirementResponse  `json:"requirements,omitempty"`
	Shifts              []ShiftResponse        `json:"shifts,omitempty"`
	Version             int                    `json:"version"`
	CreatedAt           string                 `json:"created_at"`
	UpdatedAt           string                 `json:"updated_at"`
}

// ScheduleResponse 活动时间窗响应
type ScheduleResponse struct {
	ID           string `json:"id"`
	EventID      string `json:"event_id"`
	StartTimeUTC string `json:"start_time_utc"`
	EndTimeUTC   string `json:"end_time_utc"`
	Version      int    `json:"version"`
}

// RequirementResponse 技能需求响应
type RequirementResponse struct {
	ID                      string          `json:"id"`
	EventID                 string          `json:"event_id"`
	SkillName               string          `json:"skill_name"`
	NeededWorkers           int             `json:"needed_workers"`
	PayRate                 decimal.Decimal `json:"pay_rate"`
	RequiredCertificationID *string         `json:"required_certification_id,omitempty"`
	Description             string          `json:"description,omitempty"`
	Version                 int             `json:"version"`
}

// SyncScheduleResponse 时间同步结果
type SyncScheduleResponse struct {
	UpdatedShifts int64 `json:"updated_shifts"`
}

// CascadeResponse 薪酬级联结果
type CascadeResponse struct {
	UpdatedShifts int64 `json:"updated_shifts"`
}
