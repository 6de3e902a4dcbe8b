package dto

import "time"

// ── 员工模块请求 ──

// CreateWorkerRequest 创建员工请求
type CreateWorkerRequest struct {
	FirstName string   `json:"first_name" binding:"required,min=1,max=100"`
	LastName  string   `json:"last_name"  binding:"required,min=1,max=100"`
	Email     string   `json:"email"      binding:"omitempty,email"`
	Phone     string   `json:"phone"      binding:"omitempty,max=30"`
	Skills    []string `json:"skills"     binding:"omitempty,dive,min=1,max=100"`
}

// UpdateWorkerRequest 更新员工请求（携带版本号用于乐观锁校验）
type UpdateWorkerRequest struct {
	FirstName string   `json:"first_name" binding:"required,min=1,max=100"`
	LastName  string   `json:"last_name"  binding:"required,min=1,max=100"`
	Email     string   `json:"email"      binding:"omitempty,email"`
	Phone     string   `json:"phone"      binding:"omitempty,max=30"`
	Active    *bool    `json:"active"     binding:"required"`
	Skills    []string `json:"skills"     binding:"omitempty,dive,min=1,max=100"`
	Version   int      `json:"version"    binding:"required,min=1"`
}

// GrantCertificationRequest 授予持证请求
type GrantCertificationRequest struct {
	CertificationID string     `json:"certification_id" binding:"required,uuid"`
	ExpiresAtUTC    *time.Time `json:"expires_at_utc"`
}

// CreateCertificationRequest 创建证书目录项请求
type CreateCertificationRequest struct {
	Name        string `json:"name"        binding:"required,min=1,max=100"`
	Description string `json:"description" binding:"omitempty,max=500"`
}

// WorkerListRequest 员工列表查询参数
type WorkerListRequest struct {
	ActiveOnly bool `form:"active_only"`
	PaginationRequest
}

// ── 员工模块响应 ──

// WorkerResponse 员工响应
type WorkerResponse struct {
	ID             string                        `json:"id"`
	FirstName      string                        `json:"first_name"`
	LastName       string                        `json:"last_name"`
	Email          string                        `json:"email,omitempty"`
	Phone          string                        `json:"phone,omitempty"`
	Active         bool                          `json:"active"`
	Skills         []string                      `json:"skills"`
	Certifications []WorkerCertificationResponse `json:"certifications,omitempty"`
	Version        int                           `json:"version"`
	CreatedAt      string                        `json:"created_at"`
	UpdatedAt      string                        `json:"updated_at"`
}

// WorkerCertificationResponse 员工持证响应
type WorkerCertificationResponse struct {
	CertificationID string  `json:"certification_id"`
	Name            string  `json:"name,omitempty"`
	ExpiresAtUTC    *string `json:"expires_at_utc,omitempty"`
}

// CertificationResponse 证书目录响应
type CertificationResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
