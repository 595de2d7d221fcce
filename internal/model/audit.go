package model

import (
	"time"

	"gorm.io/datatypes"
)

// 审计动作枚举
const (
	AuditActionCreate  = "create"
	AuditActionUpdate  = "update"
	AuditActionDelete  = "delete"
	AuditActionApprove = "approve"
	AuditActionReject  = "reject"
	AuditActionScore   = "score" // 系统评分写入，actor 为 system
)

// 审计实体类型
const (
	EntityTypeReview  = "review"
	EntityTypeCompany = "company"
	EntityTypeUser    = "user"
	EntityTypeContest = "contest"
)

// AuditLogEntry 对应 audit_logs 表。只追加：不存在任何更新/删除路径。
// 与其描述的变更在同一逻辑事务内写入，变更不可能没有留痕。
// OldData/NewData 为变更前后的快照，不依赖外部状态即可还原这次变更。
type AuditLogEntry struct {
	ID         uint64         `gorm:"column:id;primaryKey;autoIncrement"`
	ActorID    uint64         `gorm:"column:actor_id;type:bigint;not null;index;comment:操作者用户ID"`
	ActorName  string         `gorm:"column:actor_name;type:varchar(128);not null;comment:操作者名称快照"`
	Action     string         `gorm:"column:action;type:varchar(16);not null;comment:create/update/delete/approve/reject/score"`
	EntityType string         `gorm:"column:entity_type;type:varchar(32);not null;index;comment:实体类型"`
	EntityID   *uint64        `gorm:"column:entity_id;type:bigint;comment:实体ID，可空"`
	OldData    datatypes.JSON `gorm:"column:old_data;type:jsonb;comment:变更前快照"`
	NewData    datatypes.JSON `gorm:"column:new_data;type:jsonb;comment:变更后快照"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime;index"`
}

func (AuditLogEntry) TableName() string { return "audit_logs" }
