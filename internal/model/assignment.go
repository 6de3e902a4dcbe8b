package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 指派状态
const (
	AssignmentStatusAssigned  = "assigned"
	AssignmentStatusConfirmed = "confirmed"
	AssignmentStatusCompleted = "completed"
	AssignmentStatusCancelled = "cancelled"
	AssignmentStatusNoShow    = "no_show"
)

// Assignment 指派表 — 对应 assignments
type Assignment struct {
	AssignmentID  string              `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"assignment_id"`
	ShiftID       string              `gorm:"type:uuid;not null"                             json:"shift_id"`
	WorkerID      string              `gorm:"type:uuid;not null"                             json:"worker_id"`
	AssignedBy    string              `gorm:"type:uuid;not null"                             json:"assigned_by"`
	AssignedAtUTC time.Time           `gorm:"column:assigned_at_utc;not null;default:CURRENT_TIMESTAMP" json:"assigned_at_utc"`
	Status        string              `gorm:"type:varchar(20);not null;default:'assigned'"   json:"status"`
	HoursWorked   decimal.NullDecimal `gorm:"type:numeric(6,2)"                              json:"hours_worked,omitempty"`
	HourlyRate    decimal.NullDecimal `gorm:"type:numeric(10,2)"                             json:"hourly_rate,omitempty"`
	Approved      bool                `gorm:"not null;default:false"                         json:"approved"`
	VersionedModel

	// 关联
	Shift  *Shift  `gorm:"foreignKey:ShiftID;references:ShiftID"    json:"shift,omitempty"`
	Worker *Worker `gorm:"foreignKey:WorkerID;references:WorkerID"  json:"worker,omitempty"`
}

// TableName 指定表名
func (Assignment) TableName() string { return "assignments" }

// IsActive 非 cancelled/no_show 的指派占用员工时间、参与冲突检测与总量统计
func (a *Assignment) IsActive() bool {
	return a.Status != AssignmentStatusCancelled && a.Status != AssignmentStatusNoShow
}

// EffectiveHours 实际工时：已登记值优先，否则回退到班次时长
func (a *Assignment) EffectiveHours(shift *Shift) decimal.Decimal {
	if a.HoursWorked.Valid {
		return a.HoursWorked.Decimal
	}
	return shift.DurationHours()
}

// EffectiveHourlyRate 实际时薪：指派值 → 班次值 → 0
func (a *Assignment) EffectiveHourlyRate(shift *Shift) decimal.Decimal {
	if a.HourlyRate.Valid {
		return a.HourlyRate.Decimal
	}
	if shift.PayRate.Valid {
		return shift.PayRate.Decimal
	}
	return decimal.Zero
}

// EffectivePay 实际薪酬 = 实际工时 × 实际时薪
func (a *Assignment) EffectivePay(shift *Shift) decimal.Decimal {
	return a.EffectiveHours(shift).Mul(a.EffectiveHourlyRate(shift))
}
