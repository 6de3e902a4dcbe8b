package model

// 操作员角色
const (
	RoleAdmin       = "admin"
	RoleCoordinator = "coordinator"
	RoleViewer      = "viewer"
)

// User 操作员账户表 — 对应 users
// 排班系统的登录用户（协调员/管理员），是所有审计日志中的 actor
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"   json:"user_id"`
	Name         string `gorm:"type:varchar(100);not null"                       json:"name"`
	Email        string `gorm:"type:varchar(255);not null"                       json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null"                       json:"-"`
	Role         string `gorm:"type:varchar(20);not null;default:'coordinator'"  json:"role"` // admin | coordinator | viewer
	VersionedModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }
