package repository

import (
	"context"

	"ReviewGuard/internal/model"

	"gorm.io/gorm"
)

// AuditFilter 审计流读模型的筛选条件
type AuditFilter struct {
	Search     string // 对 action/entity_type/actor_name 的模糊匹配
	EntityType string // all/company/review/user（all 或空 = 不过滤）
}

// AuditLogRepository 审计账本。只追加；读路径仅有筛选查询。
// 写失败必须让所在业务事务整体失败——变更成功而审计缺失属于一致性缺陷。
type AuditLogRepository interface {
	Append(ctx context.Context, entry *model.AuditLogEntry) error
	// Search 最新在前，上限 100
	Search(ctx context.Context, filter AuditFilter, limit int) ([]*model.AuditLogEntry, error)
}

type auditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository 创建审计仓储。传入事务句柄即可使追加参与调用方事务。
func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) Append(ctx context.Context, entry *model.AuditLogEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *auditLogRepository) Search(ctx context.Context, filter AuditFilter, limit int) ([]*model.AuditLogEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	db := r.db.WithContext(ctx).Model(&model.AuditLogEntry{})
	if filter.EntityType != "" && filter.EntityType != "all" {
		db = db.Where("entity_type = ?", filter.EntityType)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		db = db.Where("action LIKE ? OR entity_type LIKE ? OR actor_name LIKE ?", pattern, pattern, pattern)
	}
	var entries []*model.AuditLogEntry
	if err := db.Order("created_at DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
