package model

import "time"

// Worker 员工表 — 对应 workers
// 被排入班次的工作人员（与登录用户 User 相互独立）
type Worker struct {
	WorkerID  string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"worker_id"`
	FirstName string      `gorm:"type:varchar(100);not null"                     json:"first_name"`
	LastName  string      `gorm:"type:varchar(100);not null"                     json:"last_name"`
	Email     string      `gorm:"type:varchar(255)"                              json:"email,omitempty"`
	Phone     string      `gorm:"type:varchar(30)"                               json:"phone,omitempty"`
	Active    bool        `gorm:"not null;default:true"                          json:"active"`
	Skills    StringArray `gorm:"type:text[];not null;default:'{}'"              json:"skills"`
	VersionedModel

	// 关联
	Certifications []WorkerCertification `gorm:"foreignKey:WorkerID;references:WorkerID" json:"certifications,omitempty"`
}

// TableName 指定表名
func (Worker) TableName() string { return "workers" }

// FullName 拼接员工全名
func (w *Worker) FullName() string {
	return w.FirstName + " " + w.LastName
}

// HasSkill 判断员工是否具备指定技能
func (w *Worker) HasSkill(skill string) bool {
	return w.Skills.Contains(skill)
}

// Certification 认证证书目录表 — 对应 certifications
type Certification struct {
	CertificationID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"certification_id"`
	Name            string `gorm:"type:varchar(100);not null"                     json:"name"`
	Description     string `gorm:"type:varchar(500)"                              json:"description,omitempty"`
	VersionedModel
}

// TableName 指定表名
func (Certification) TableName() string { return "certifications" }

// WorkerCertification 员工持证表 — 对应 worker_certifications
type WorkerCertification struct {
	WorkerCertificationID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"worker_certification_id"`
	WorkerID              string     `gorm:"type:uuid;not null"                             json:"worker_id"`
	CertificationID       string     `gorm:"type:uuid;not null"                             json:"certification_id"`
	ExpiresAtUTC          *time.Time `gorm:"column:expires_at_utc"                          json:"expires_at_utc,omitempty"`
	VersionedModel

	// 关联
	Certification *Certification `gorm:"foreignKey:CertificationID;references:CertificationID" json:"certification,omitempty"`
}

// TableName 指定表名
func (WorkerCertification) TableName() string { return "worker_certifications" }

// ValidAt 判断持证在指定时刻是否有效（无到期时间视为长期有效）
// 到期时间早于 t 视为过期；恰好等于 t 仍有效
func (wc *WorkerCertification) ValidAt(t time.Time) bool {
	return wc.ExpiresAtUTC == nil || !wc.ExpiresAtUTC.Before(t)
}
