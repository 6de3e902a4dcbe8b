package model

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Shift 班次表 — 对应 shifts
// event_id 为空表示独立班次；自动生成班次（auto_generated=true）
// 由技能需求展开而来，capacity 恒为 1——"需要5个服务员"即5行单容量班次
type Shift struct {
	ShiftID        string              `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"shift_id"`
	EventID        *string             `gorm:"type:uuid"                                      json:"event_id,omitempty"`
	RequirementID  *string             `gorm:"type:uuid"                                      json:"requirement_id,omitempty"`
	RoleNeeded     string              `gorm:"type:varchar(100);not null"                     json:"role_needed"`
	StartTimeUTC   time.Time           `gorm:"column:start_time_utc;not null"                 json:"start_time_utc"`
	EndTimeUTC     time.Time           `gorm:"column:end_time_utc;not null"                   json:"end_time_utc"`
	Capacity       int                 `gorm:"not null;default:1"                             json:"capacity"`
	PayRate        decimal.NullDecimal `gorm:"type:numeric(10,2)"                             json:"pay_rate,omitempty"`
	AutoGenerated  bool                `gorm:"not null;default:false"                         json:"auto_generated"`
	RequiredCertID *string             `gorm:"column:required_cert_id;type:uuid"              json:"required_cert_id,omitempty"`
	VersionedModel

	// 关联
	Assignments []Assignment `gorm:"foreignKey:ShiftID;references:ShiftID" json:"assignments,omitempty"`
}

// TableName 指定表名
func (Shift) TableName() string { return "shifts" }

// DurationHours 班次时长（小时，保留两位小数）
func (s *Shift) DurationHours() decimal.Decimal {
	seconds := s.EndTimeUTC.Sub(s.StartTimeUTC).Seconds()
	return decimal.NewFromFloat(seconds / 3600.0).Round(2)
}

// StaffingProgress 班次人员进度
// assigned 统计所有已持久化的指派行（含 cancelled/no_show，指占用过的槽位），
// required 恒为班次自身 capacity，绝不取父需求的 needed_workers
type StaffingProgress struct {
	Assigned   int `json:"assigned"`
	Required   int `json:"required"`
	Percentage int `json:"percentage"`
}

// Progress 根据指派行数计算人员进度
func (s *Shift) Progress(assignedCount int) StaffingProgress {
	pct := 0
	if s.Capacity > 0 {
		pct = int(math.Round(100 * float64(assignedCount) / float64(s.Capacity)))
	}
	return StaffingProgress{
		Assigned:   assignedCount,
		Required:   s.Capacity,
		Percentage: pct,
	}
}

// FullyStaffed 指派行数达到容量即视为满员（含已取消槽位）
func (s *Shift) FullyStaffed(assignedCount int) bool {
	return assignedCount >= s.Capacity
}
