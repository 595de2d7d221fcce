package repository

import (
	"context"
	"time"

	"ReviewGuard/internal/model"

	"gorm.io/gorm"
)

// ReviewRepository 评价持久化。trust_score/is_flagged 只经 UpdateTrustFields 写入，
// status 只经 UpdateStatus 写入，其余字段创建后不再变更。
type ReviewRepository interface {
	CreateReview(ctx context.Context, review *model.Review) error
	GetByID(ctx context.Context, id uint64) (*model.Review, error)
	GetByUUID(ctx context.Context, reviewUUID string) (*model.Review, error)
	GetByIDs(ctx context.Context, ids []uint64) ([]*model.Review, error)
	// ListRecentByUser 用户最近的评价（查重语料）
	ListRecentByUser(ctx context.Context, userID uint64, limit int) ([]*model.Review, error)
	// ListRecentByCompany 公司最近收到的评价（查重语料）
	ListRecentByCompany(ctx context.Context, companyID uint64, limit int) ([]*model.Review, error)
	// CountRecentByUser 窗口内该用户的提交数（快速连发信号）
	CountRecentByUser(ctx context.Context, userID uint64, since time.Time) (int64, error)
	// ListUnscored 待评分的评价：trust_score 仍为 0，或落了兜底分等待重评（评分补偿路径）
	ListUnscored(ctx context.Context, limit int) ([]*model.Review, error)
	// ListApprovedContentByCompany 公司已通过评价的正文（趋势报告语料）
	ListApprovedContentByCompany(ctx context.Context, companyID uint64, limit int) ([]string, error)
	// UpdateTrustFields 评分引擎的唯一写入口，幂等：同输入重写结果一致。
	// needsRescore 标记兜底分，补偿任务会把带标记的评价重新纳入评分。
	UpdateTrustFields(ctx context.Context, reviewID uint64, score float64, flagged bool, flagReason *string, needsRescore bool) error
	// UpdateStatus 审核流转的唯一写入口
	UpdateStatus(ctx context.Context, reviewID uint64, status string) error
	// IncrementHelpful 有用标记 +1
	IncrementHelpful(ctx context.Context, reviewID uint64) error
	CreateReply(ctx context.Context, reply *model.ReviewReply) error
}

type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository 创建评价仓储。传入事务句柄即可使写入参与调用方事务。
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) CreateReview(ctx context.Context, review *model.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *reviewRepository) GetByID(ctx context.Context, id uint64) (*model.Review, error) {
	var review model.Review
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&review).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) GetByUUID(ctx context.Context, reviewUUID string) (*model.Review, error) {
	var review model.Review
	if err := r.db.WithContext(ctx).Where("review_uuid = ?", reviewUUID).First(&review).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) GetByIDs(ctx context.Context, ids []uint64) ([]*model.Review, error) {
	if len(ids) == 0 {
		return []*model.Review{}, nil
	}
	var reviews []*model.Review
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&reviews).Error; err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *reviewRepository) ListRecentByUser(ctx context.Context, userID uint64, limit int) ([]*model.Review, error) {
	if limit <= 0 {
		limit = 50
	}
	var reviews []*model.Review
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND status <> ?", userID, model.ReviewStatusDeleted).
		Order("created_at DESC").
		Limit(limit).Find(&reviews).Error; err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *reviewRepository) ListRecentByCompany(ctx context.Context, companyID uint64, limit int) ([]*model.Review, error) {
	if limit <= 0 {
		limit = 50
	}
	var reviews []*model.Review
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND status <> ?", companyID, model.ReviewStatusDeleted).
		Order("created_at DESC").
		Limit(limit).Find(&reviews).Error; err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *reviewRepository) CountRecentByUser(ctx context.Context, userID uint64, since time.Time) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Review{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *reviewRepository) ListUnscored(ctx context.Context, limit int) ([]*model.Review, error) {
	if limit <= 0 {
		limit = 100
	}
	var reviews []*model.Review
	if err := r.db.WithContext(ctx).
		Where("(trust_score = 0 OR needs_rescore) AND status <> ?", model.ReviewStatusDeleted).
		Order("created_at ASC").
		Limit(limit).Find(&reviews).Error; err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *reviewRepository) ListApprovedContentByCompany(ctx context.Context, companyID uint64, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 200
	}
	var contents []string
	if err := r.db.WithContext(ctx).Model(&model.Review{}).
		Where("company_id = ? AND status = ?", companyID, model.ReviewStatusApproved).
		Order("created_at DESC").
		Limit(limit).
		Pluck("content", &contents).Error; err != nil {
		return nil, err
	}
	return contents, nil
}

func (r *reviewRepository) UpdateTrustFields(ctx context.Context, reviewID uint64, score float64, flagged bool, flagReason *string, needsRescore bool) error {
	return r.db.WithContext(ctx).Model(&model.Review{}).
		Where("id = ?", reviewID).
		Updates(map[string]interface{}{
			"trust_score":   score,
			"is_flagged":    flagged,
			"flag_reason":   flagReason,
			"needs_rescore": needsRescore,
			"updated_at":    time.Now(),
		}).Error
}

func (r *reviewRepository) UpdateStatus(ctx context.Context, reviewID uint64, status string) error {
	return r.db.WithContext(ctx).Model(&model.Review{}).
		Where("id = ?", reviewID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}

func (r *reviewRepository) IncrementHelpful(ctx context.Context, reviewID uint64) error {
	return r.db.WithContext(ctx).Model(&model.Review{}).
		Where("id = ?", reviewID).
		UpdateColumn("helpful_count", gorm.Expr("helpful_count + 1")).Error
}

func (r *reviewRepository) CreateReply(ctx context.Context, reply *model.ReviewReply) error {
	return r.db.WithContext(ctx).Create(reply).Error
}
