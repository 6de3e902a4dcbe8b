package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 活动状态
const (
	EventStatusDraft     = "draft"
	EventStatusPublished = "published"
	EventStatusAssigned  = "assigned"
	EventStatusCompleted = "completed"
	EventStatusDeleted   = "deleted"
)

// Event 活动表 — 对应 events
// 聚合字段（总工时/总薪酬/已满班次数/总班次数）为派生缓存，
// 唯一权威来源是当前指派集合，由 TotalsService 重算维护
type Event struct {
	EventID             string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"event_id"`
	Title               string          `gorm:"type:varchar(200);not null"                     json:"title"`
	Status              string          `gorm:"type:varchar(20);not null;default:'draft'"      json:"status"`
	TotalHoursWorked    decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"          json:"total_hours_worked"`
	TotalPayAmount      decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"          json:"total_pay_amount"`
	AssignedShiftsCount int             `gorm:"not null;default:0"                             json:"assigned_shifts_count"`
	TotalShiftsCount    int             `gorm:"not null;default:0"                             json:"total_shifts_count"`
	VersionedModel

	// 关联
	Schedule     *EventSchedule          `gorm:"foreignKey:EventID;references:EventID" json:"schedule,omitempty"`
	Requirements []EventSkillRequirement `gorm:"foreignKey:EventID;references:EventID" json:"requirements,omitempty"`
	Shifts       []Shift                 `gorm:"foreignKey:EventID;references:EventID" json:"shifts,omitempty"`
}

// TableName 指定表名
func (Event) TableName() string { return "events" }

// EventSchedule 活动时间窗表 — 对应 event_schedules
// 活动所属班次时间的统一来源；独立班次不受其约束
type EventSchedule struct {
	EventScheduleID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"event_schedule_id"`
	EventID         string    `gorm:"type:uuid;not null;uniqueIndex"                 json:"event_id"`
	StartTimeUTC    time.Time `gorm:"column:start_time_utc;not null"                 json:"start_time_utc"`
	EndTimeUTC      time.Time `gorm:"column:end_time_utc;not null"                   json:"end_time_utc"`
	VersionedModel
}

// TableName 指定表名
func (EventSchedule) TableName() string { return "event_schedules" }

// EventSkillRequirement 活动技能需求表 — 对应 event_skill_requirements
// needed_workers 与实际 Shift 行数相互独立，由角色差异应用逻辑保持一致
type EventSkillRequirement struct {
	RequirementID           string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"requirement_id"`
	EventID                 string          `gorm:"type:uuid;not null"                             json:"event_id"`
	SkillName               string          `gorm:"type:varchar(100);not null"                     json:"skill_name"`
	NeededWorkers           int             `gorm:"not null;default:0"                             json:"needed_workers"`
	PayRate                 decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0"          json:"pay_rate"`
	RequiredCertificationID *string         `gorm:"type:uuid"                                      json:"required_certification_id,omitempty"`
	Description             string          `gorm:"type:varchar(500)"                              json:"description,omitempty"`
	VersionedModel
}

// TableName 指定表名
func (EventSkillRequirement) TableName() string { return "event_skill_requirements" }
