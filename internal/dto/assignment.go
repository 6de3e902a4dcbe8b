package dto

import "github.com/shopspring/decimal"

// ── 排班模块请求 ──

// AssignRequest 单个排班请求
type AssignRequest struct {
	ShiftID  string `json:"shift_id"  binding:"required,uuid"`
	WorkerID string `json:"worker_id" binding:"required,uuid"`
}

// AssignPair 批量排班中的一对班次-员工
type AssignPair struct {
	ShiftID  string `json:"shift_id"  binding:"required,uuid"`
	WorkerID string `json:"worker_id" binding:"required,uuid"`
}

// BulkAssignRequest 批量排班请求
type BulkAssignRequest struct {
	Pairs []AssignPair `json:"pairs" binding:"required,min=1,dive"`
}

// UnassignRequest 撤销排班请求
type UnassignRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

// UpdateHoursRequest 登记实际工时/时薪请求
type UpdateHoursRequest struct {
	HoursWorked *decimal.Decimal `json:"hours_worked"`
	HourlyRate  *decimal.Decimal `json:"hourly_rate"`
	Version     int              `json:"version" binding:"required,min=1"`
}

// UpdateAssignmentStatusRequest 指派状态流转请求
type UpdateAssignmentStatusRequest struct {
	Status  string `json:"status"  binding:"required,oneof=confirmed completed cancelled no_show"`
	Version int    `json:"version" binding:"required,min=1"`
}

// BulkApproveRequest 批量审批请求
type BulkApproveRequest struct {
	AssignmentIDs []string `json:"assignment_ids" binding:"required,min=1,dive,uuid"`
}

// ── 排班模块响应 ──

// ConflictResponse 排班冲突项
type ConflictResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// AssignmentResponse 排班响应
type AssignmentResponse struct {
	ID          string           `json:"id"`
	ShiftID     string           `json:"shift_id"`
	WorkerID    string           `json:"worker_id"`
	WorkerName  string           `json:"worker_name,omitempty"`
	Status      string           `json:"status"`
	HoursWorked *decimal.Decimal `json:"hours_worked,omitempty"`
	HourlyRate  *decimal.Decimal `json:"hourly_rate,omitempty"`
	Approved    bool             `json:"approved"`
	Version     int              `json:"version"`
	CreatedAt   string           `json:"created_at"`
}

// BulkAssignItemResult 批量排班中单对的结果
type BulkAssignItemResult struct {
	ShiftID      string              `json:"shift_id"`
	WorkerID     string              `json:"worker_id"`
	AssignmentID string              `json:"assignment_id,omitempty"`
	Success      bool                `json:"success"`
	Conflicts    []ConflictResponse  `json:"conflicts,omitempty"`
	Error        string              `json:"error,omitempty"`
}

// BulkAssignResponse 批量排班结果
type BulkAssignResponse struct {
	Succeeded int                    `json:"succeeded"`
	Failed    int                    `json:"failed"`
	Results   []BulkAssignItemResult `json:"results"`
}

// BulkApproveResponse 批量审批结果
type BulkApproveResponse struct {
	ApprovedCount int      `json:"approved_count"`
	ApprovedIDs   []string `json:"approved_ids"`
}
