package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"ReviewGuard/internal/common"
	"ReviewGuard/internal/interfaces"
	"ReviewGuard/internal/model"
	"ReviewGuard/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ReviewInput 提交评价的入参。IPAddress 与输入行为信号由 api 层从请求中提取。
type ReviewInput struct {
	CompanyID        uint64         `json:"company_id"`
	Content          string         `json:"content"`
	Rating           int            `json:"rating"`
	SubRatings       map[string]int `json:"sub_ratings,omitempty"` // service/price/speed/quality
	IPAddress        string         `json:"-"`
	TypingDurationMS *int64         `json:"typing_duration_ms,omitempty"`
	PasteDetected    bool           `json:"paste_detected,omitempty"`
}

// ReplyInput 公司回复评价的入参
type ReplyInput struct {
	Content string `json:"content"`
}

// ReviewService 评价提交与回复的编排入口
type ReviewService struct {
	db       *gorm.DB
	logger   *logrus.Logger
	engine   *TrustScoreEngine
	notifier interfaces.Notifier
}

// NewReviewService 创建评价服务
func NewReviewService(db *gorm.DB, logger *logrus.Logger, engine *TrustScoreEngine, notifier interfaces.Notifier) *ReviewService {
	return &ReviewService{db: db, logger: logger, engine: engine, notifier: notifier}
}

// SubmitReview 提交评价：校验→落库（含创建审计）→信任评分→通知公司所有者。
// 评分与通知失败不回滚评价本身，评分失败时会留下兜底信任分。
// 上游限流/扣费的类型化错误随已创建的评价一并返回，调用方据此区分重试与告警；
// 其余评分失败只降级记日志。
func (s *ReviewService) SubmitReview(ctx context.Context, principal model.Principal, input *ReviewInput) (*model.Review, error) {
	if err := validateReviewInput(input); err != nil {
		return nil, err
	}
	company, err := repository.NewUserRepository(s.db).GetCompanyByID(ctx, input.CompanyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: 公司不存在", common.ErrNotFound)
		}
		return nil, fmt.Errorf("查询公司失败: %w", err)
	}

	review := &model.Review{
		ReviewUUID: uuid.New().String(),
		UserID:     principal.UserID,
		CompanyID:  input.CompanyID,
		Content:    strings.TrimSpace(input.Content),
		Rating:     input.Rating,
		Status:     model.ReviewStatusPending,
	}
	if len(input.SubRatings) > 0 {
		raw, err := json.Marshal(input.SubRatings)
		if err != nil {
			return nil, fmt.Errorf("序列化子评分失败: %w", err)
		}
		sub := datatypes.JSON(raw)
		review.SubRatings = &sub
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewReviewRepository(tx).CreateReview(ctx, review); err != nil {
			return fmt.Errorf("创建评价失败: %w", err)
		}
		id := review.ID
		return repository.NewAuditLogRepository(tx).Append(ctx, &model.AuditLogEntry{
			ActorID:    principal.UserID,
			ActorName:  principal.Name,
			Action:     model.AuditActionCreate,
			EntityType: model.EntityTypeReview,
			EntityID:   &id,
			NewData:    statusSnapshot(model.EntityTypeReview, review.ID, review.Status, map[string]interface{}{"rating": review.Rating}),
		})
	})
	if err != nil {
		return nil, err
	}

	reviewID := review.ID
	scoreErr := s.engine.ScoreSubmission(ctx, review, &Submission{
		ReviewID:         &reviewID,
		UserID:           principal.UserID,
		CompanyID:        input.CompanyID,
		Content:          review.Content,
		IPAddress:        input.IPAddress,
		TypingDurationMS: input.TypingDurationMS,
		PasteDetected:    input.PasteDetected,
	})
	if scoreErr != nil && !errors.Is(scoreErr, common.ErrUpstreamRateLimited) && !errors.Is(scoreErr, common.ErrUpstreamPaymentRequired) {
		// 类型化限流/扣费之外的评分失败不影响提交结果，兜底信任分已落库
		s.logger.WithError(scoreErr).WithField("review", review.ReviewUUID).Warn("信任评分降级")
		scoreErr = nil
	}

	s.notifyBestEffort(ctx, &interfaces.NotificationEvent{
		Type:         interfaces.NotifyReviewCreated,
		TargetUserID: company.OwnerUserID,
		ReviewID:     review.ID,
		CompanyID:    company.ID,
		Message:      fmt.Sprintf("公司 %s 收到一条新评价", company.Name),
	})
	// scoreErr 非空时评价仍已创建成功并带兜底分，随类型化错误一起返回
	return review, scoreErr
}

// GetReview 按 UUID 查询评价，已删除的评价对普通用户不可见
func (s *ReviewService) GetReview(ctx context.Context, principal model.Principal, reviewUUID string) (*model.Review, error) {
	review, err := repository.NewReviewRepository(s.db).GetByUUID(ctx, reviewUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("查询评价失败: %w", err)
	}
	if review.Status == model.ReviewStatusDeleted && !principal.IsModerator() {
		return nil, common.ErrNotFound
	}
	return review, nil
}

// ListCompanyReviews 公司收到的最近评价
func (s *ReviewService) ListCompanyReviews(ctx context.Context, companyID uint64, limit int) ([]*model.Review, error) {
	reviews, err := repository.NewReviewRepository(s.db).ListRecentByCompany(ctx, companyID, limit)
	if err != nil {
		return nil, fmt.Errorf("查询公司评价失败: %w", err)
	}
	return reviews, nil
}

// ReplyToReview 公司所有者（或管理员）回复评价，作者若允许则收到通知
func (s *ReviewService) ReplyToReview(ctx context.Context, principal model.Principal, reviewUUID string, input *ReplyInput) (*model.ReviewReply, error) {
	if strings.TrimSpace(input.Content) == "" {
		return nil, fmt.Errorf("%w: 回复内容不能为空", common.ErrValidation)
	}
	reviewRepo := repository.NewReviewRepository(s.db)
	userRepo := repository.NewUserRepository(s.db)

	review, err := reviewRepo.GetByUUID(ctx, reviewUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("查询评价失败: %w", err)
	}
	company, err := userRepo.GetCompanyByID(ctx, review.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("查询公司失败: %w", err)
	}
	if company.OwnerUserID != principal.UserID && principal.Role != model.RoleAdmin {
		return nil, common.ErrForbidden
	}

	reply := &model.ReviewReply{
		ReviewID:  review.ID,
		CompanyID: company.ID,
		UserID:    principal.UserID,
		Content:   strings.TrimSpace(input.Content),
	}
	if err := reviewRepo.CreateReply(ctx, reply); err != nil {
		return nil, fmt.Errorf("创建回复失败: %w", err)
	}

	author, err := userRepo.GetUserByID(ctx, review.UserID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", review.UserID).Warn("查询评价作者失败，跳过通知")
		return reply, nil
	}
	if author.NotifyOnReply {
		s.notifyBestEffort(ctx, &interfaces.NotificationEvent{
			Type:         interfaces.NotifyReviewReplied,
			TargetUserID: author.ID,
			ReviewID:     review.ID,
			CompanyID:    company.ID,
			Message:      fmt.Sprintf("公司 %s 回复了你的评价", company.Name),
		})
	}
	return reply, nil
}

// notifyBestEffort 通知失败只记日志，绝不影响主流程
func (s *ReviewService) notifyBestEffort(ctx context.Context, ev *interfaces.NotificationEvent) {
	if err := s.notifier.Notify(ctx, ev); err != nil {
		s.logger.WithError(err).WithField("type", ev.Type).Warn("通知发送失败")
	}
}

func validateReviewInput(input *ReviewInput) error {
	if input.CompanyID == 0 {
		return fmt.Errorf("%w: 必须指定公司", common.ErrValidation)
	}
	if strings.TrimSpace(input.Content) == "" {
		return fmt.Errorf("%w: 评价正文不能为空", common.ErrValidation)
	}
	if input.Rating < 1 || input.Rating > 5 {
		return fmt.Errorf("%w: 评分必须在 1-5 之间", common.ErrValidation)
	}
	for key, v := range input.SubRatings {
		switch key {
		case "service", "price", "speed", "quality":
		default:
			return fmt.Errorf("%w: 未知子评分维度 %s", common.ErrValidation, key)
		}
		if v < 1 || v > 5 {
			return fmt.Errorf("%w: 子评分 %s 必须在 1-5 之间", common.ErrValidation, key)
		}
	}
	return nil
}
