package model

import "time"

// 用户角色
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// User 对应 users 表。核心只消费身份与角色，注册/登录在网关侧完成。
type User struct {
	ID            uint64    `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	Name          string    `gorm:"column:name;type:varchar(128);not null;comment:展示名称"`
	Role          string    `gorm:"column:role;type:varchar(16);default:user;comment:user/moderator/admin"`
	NotifyOnReply bool      `gorm:"column:notify_on_reply;type:boolean;default:true;comment:被回复时是否接收通知"`
	IsActive      bool      `gorm:"column:is_active;type:boolean;default:true;comment:是否活跃"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Company 对应 companies 表。公司条目本身也走审核流转。
type Company struct {
	ID          uint64    `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	Name        string    `gorm:"column:name;type:varchar(128);not null;comment:公司名称"`
	OwnerUserID uint64    `gorm:"column:owner_user_id;type:bigint;not null;index;comment:所有者用户ID"`
	Status      string    `gorm:"column:status;type:varchar(16);default:pending;comment:pending/approved/rejected/deleted"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Principal 经过认证的调用方，由 api 层解析后显式传入核心操作（核心不读全局会话状态）
type Principal struct {
	UserID uint64
	Name   string
	Role   string
}

// IsModerator 是否具有审核权限
func (p Principal) IsModerator() bool {
	return p.Role == RoleModerator || p.Role == RoleAdmin
}

func (User) TableName() string    { return "users" }
func (Company) TableName() string { return "companies" }
