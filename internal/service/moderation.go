package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ReviewGuard/internal/common"
	"ReviewGuard/internal/metrics"
	"ReviewGuard/internal/model"
	"ReviewGuard/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// 审核动作
const (
	ModerationApprove = "approve"
	ModerationReject  = "reject"
	ModerationDelete  = "delete"
)

// ModerationService 评价/公司的状态机与批量操作。
// 每次状态流转在同一事务内写入恰好一条审计记录；批量为全有或全无。
type ModerationService struct {
	db           *gorm.DB
	logger       *logrus.Logger
	gamification *GamificationService
	mtr          *metrics.Metrics
}

// NewModerationService 创建审核服务
func NewModerationService(db *gorm.DB, logger *logrus.Logger, gamification *GamificationService, mtr *metrics.Metrics) *ModerationService {
	return &ModerationService{
		db:           db,
		logger:       logger,
		gamification: gamification,
		mtr:          mtr,
	}
}

// nextStatus 状态机：pending→approved/rejected，approved/rejected→deleted（终态，不可逆）
func nextStatus(current, action string) (string, error) {
	switch action {
	case ModerationApprove:
		if current == model.ReviewStatusPending {
			return model.ReviewStatusApproved, nil
		}
	case ModerationReject:
		if current == model.ReviewStatusPending {
			return model.ReviewStatusRejected, nil
		}
	case ModerationDelete:
		if current == model.ReviewStatusApproved || current == model.ReviewStatusRejected {
			return model.ReviewStatusDeleted, nil
		}
	default:
		return "", fmt.Errorf("%w: 未知审核动作 %s", common.ErrValidation, action)
	}
	return "", fmt.Errorf("%w: %s 不能 %s", common.ErrInvalidTransition, current, action)
}

// auditAction 审核动作到审计动作的映射
func auditAction(action string) string {
	switch action {
	case ModerationApprove:
		return model.AuditActionApprove
	case ModerationReject:
		return model.AuditActionReject
	default:
		return model.AuditActionDelete
	}
}

// statusSnapshot 审计快照：无需借助外部状态即可还原此次变更
func statusSnapshot(entityType string, id uint64, status string, extra map[string]interface{}) datatypes.JSON {
	snap := map[string]interface{}{
		"entity_type": entityType,
		"entity_id":   id,
		"status":      status,
	}
	for k, v := range extra {
		snap[k] = v
	}
	b, _ := json.Marshal(snap)
	return b
}

// Transition 单实体状态流转。调用方身份显式传入；一致性要求：
// 审计写入失败则整个操作失败回滚——变更成功而无留痕属于致命缺陷。
func (s *ModerationService) Transition(ctx context.Context, principal model.Principal, entityType string, entityID uint64, action string) error {
	if !principal.IsModerator() {
		return common.ErrForbidden
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.transitionOne(ctx, tx, principal, entityType, entityID, action)
	})
	if err == nil {
		s.mtr.ModerationActions.WithLabelValues(action).Inc()
	}
	return err
}

// transitionOne 事务内的单实体流转：校验→更新状态→审计，review 通过时联动账本
func (s *ModerationService) transitionOne(ctx context.Context, tx *gorm.DB, principal model.Principal, entityType string, entityID uint64, action string) error {
	switch entityType {
	case model.EntityTypeReview:
		review, err := repository.NewReviewRepository(tx).GetByID(ctx, entityID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: review %d", common.ErrNotFound, entityID)
			}
			return fmt.Errorf("查询评价失败: %w", err)
		}
		newStatus, err := nextStatus(review.Status, action)
		if err != nil {
			return err
		}
		if err := repository.NewReviewRepository(tx).UpdateStatus(ctx, review.ID, newStatus); err != nil {
			return fmt.Errorf("更新评价状态失败: %w", err)
		}
		// 快照取的是本次变更前的状态，即使并发竞争，历史序列仍然准确
		extra := map[string]interface{}{"trust_score": review.TrustScore, "is_flagged": review.IsFlagged}
		if err := s.appendAudit(ctx, tx, principal, auditAction(action), model.EntityTypeReview, review.ID,
			statusSnapshot(model.EntityTypeReview, review.ID, review.Status, extra),
			statusSnapshot(model.EntityTypeReview, review.ID, newStatus, extra)); err != nil {
			return err
		}
		if action == ModerationApprove {
			if err := s.gamification.OnReviewApproved(ctx, tx, review); err != nil {
				return err
			}
		}
		return nil

	case model.EntityTypeCompany:
		company, err := repository.NewUserRepository(tx).GetCompanyByID(ctx, entityID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: company %d", common.ErrNotFound, entityID)
			}
			return fmt.Errorf("查询公司失败: %w", err)
		}
		newStatus, err := nextStatus(company.Status, action)
		if err != nil {
			return err
		}
		if err := repository.NewUserRepository(tx).UpdateCompanyStatus(ctx, company.ID, newStatus); err != nil {
			return fmt.Errorf("更新公司状态失败: %w", err)
		}
		return s.appendAudit(ctx, tx, principal, auditAction(action), model.EntityTypeCompany, company.ID,
			statusSnapshot(model.EntityTypeCompany, company.ID, company.Status, nil),
			statusSnapshot(model.EntityTypeCompany, company.ID, newStatus, nil))

	default:
		return fmt.Errorf("%w: 不支持的实体类型 %s", common.ErrValidation, entityType)
	}
}

// BulkResult 批量操作结果
type BulkResult struct {
	Transitioned int `json:"transitioned"`
}

// BulkModerate 批量审核：一组 id 配恰好一个动作，全有或全无。
// 任一 id 失败则整体回滚；失败的 id 记入内部日志，调用方只收到一个聚合错误。
func (s *ModerationService) BulkModerate(ctx context.Context, principal model.Principal, entityType string, ids []uint64, action string) (*BulkResult, error) {
	if !principal.IsModerator() {
		return nil, common.ErrForbidden
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: id 列表为空", common.ErrValidation)
	}

	var failed []uint64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, id := range ids {
			if err := s.transitionOne(ctx, tx, principal, entityType, id, action); err != nil {
				failed = append(failed, id)
				return fmt.Errorf("id=%d: %w", id, err)
			}
		}
		return nil
	})
	if err != nil {
		// 行级失败不承诺反馈给调用方，但必须内部留痕
		s.logger.WithError(err).WithFields(logrus.Fields{
			"entity_type": entityType,
			"action":      action,
			"failed_ids":  failed,
			"total":       len(ids),
		}).Error("批量审核失败，已整体回滚")
		return nil, fmt.Errorf("批量%s失败（%d 个实体，已全部回滚）: %w", action, len(ids), err)
	}

	s.mtr.ModerationActions.WithLabelValues(action).Add(float64(len(ids)))
	s.logger.WithFields(logrus.Fields{
		"entity_type": entityType,
		"action":      action,
		"count":       len(ids),
		"actor":       principal.UserID,
	}).Info("批量审核完成")
	return &BulkResult{Transitioned: len(ids)}, nil
}

// appendAudit 在调用方事务内追加审计记录
func (s *ModerationService) appendAudit(ctx context.Context, tx *gorm.DB, principal model.Principal, action, entityType string, entityID uint64, oldData, newData datatypes.JSON) error {
	id := entityID
	if err := repository.NewAuditLogRepository(tx).Append(ctx, &model.AuditLogEntry{
		ActorID:    principal.UserID,
		ActorName:  principal.Name,
		Action:     action,
		EntityType: entityType,
		EntityID:   &id,
		OldData:    oldData,
		NewData:    newData,
		CreatedAt:  time.Now(),
	}); err != nil {
		return fmt.Errorf("写入审计记录失败: %w", err)
	}
	return nil
}
