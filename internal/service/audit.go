package service

import (
	"context"
	"fmt"

	"ReviewGuard/internal/common"
	"ReviewGuard/internal/model"
	"ReviewGuard/internal/repository"

	"gorm.io/gorm"
)

// AuditService 审计流的只读门面，写入全部发生在各业务事务内
type AuditService struct {
	auditRepo repository.AuditLogRepository
}

// NewAuditService 创建审计查询服务
func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{auditRepo: repository.NewAuditLogRepository(db)}
}

// Search 审计流筛选查询，仅限审核员
func (s *AuditService) Search(ctx context.Context, principal model.Principal, filter repository.AuditFilter, limit int) ([]*model.AuditLogEntry, error) {
	if !principal.IsModerator() {
		return nil, common.ErrForbidden
	}
	entries, err := s.auditRepo.Search(ctx, filter, limit)
	if err != nil {
		return nil, fmt.Errorf("查询审计流失败: %w", err)
	}
	return entries, nil
}
