package repository

import (
	"context"

	"ReviewGuard/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserPointsRow 按用户汇总的积分（排行榜中间结果）
type UserPointsRow struct {
	UserID      uint64
	TotalPoints int
}

// ApprovedStats 用户已通过评价的事实汇总（徽章判定输入）
type ApprovedStats struct {
	Count        int64
	AvgTrust     float64
	HelpfulTotal int64
}

// GamificationRepository 徽章与积分事实的持久化。
// 徽章靠 (user_id, badge_type) 唯一索引保证不重复；积分只追加。
type GamificationRepository interface {
	HasBadge(ctx context.Context, userID uint64, badgeType string) (bool, error)
	// GrantBadge 幂等授予：唯一键冲突按已持有处理，不报错
	GrantBadge(ctx context.Context, badge *model.UserBadge) error
	ListBadges(ctx context.Context, userID uint64) ([]*model.UserBadge, error)
	CountBadges(ctx context.Context, userID uint64) (int64, error)
	AppendPoints(ctx context.Context, entry *model.PointsEntry) error
	// ApprovedReviewStats 已通过评价的条数/平均信任分/有用总数
	ApprovedReviewStats(ctx context.Context, userID uint64) (*ApprovedStats, error)
	// TopUsersByPoints 积分降序取前 limit 名；同分按 user_id 升序的稳定扫描序
	TopUsersByPoints(ctx context.Context, limit int) ([]*UserPointsRow, error)
	// ContestTopUser 赛事期内积分最高的用户；无流水时返回 gorm.ErrRecordNotFound
	ContestTopUser(ctx context.Context, contestID uint64) (*UserPointsRow, error)
}

type gamificationRepository struct {
	db *gorm.DB
}

// NewGamificationRepository 创建游戏化仓储
func NewGamificationRepository(db *gorm.DB) GamificationRepository {
	return &gamificationRepository{db: db}
}

func (r *gamificationRepository) HasBadge(ctx context.Context, userID uint64, badgeType string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.UserBadge{}).
		Where("user_id = ? AND badge_type = ?", userID, badgeType).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *gamificationRepository) GrantBadge(ctx context.Context, badge *model.UserBadge) error {
	// 并发重复授予时，靠唯一索引 + DoNothing 收敛为恰好一行
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(badge).Error
}

func (r *gamificationRepository) ListBadges(ctx context.Context, userID uint64) ([]*model.UserBadge, error) {
	var badges []*model.UserBadge
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("earned_at ASC").
		Find(&badges).Error; err != nil {
		return nil, err
	}
	return badges, nil
}

func (r *gamificationRepository) CountBadges(ctx context.Context, userID uint64) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.UserBadge{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *gamificationRepository) AppendPoints(ctx context.Context, entry *model.PointsEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *gamificationRepository) ApprovedReviewStats(ctx context.Context, userID uint64) (*ApprovedStats, error) {
	var stats ApprovedStats
	row := struct {
		Count        int64
		AvgTrust     *float64
		HelpfulTotal *int64
	}{}
	if err := r.db.WithContext(ctx).Model(&model.Review{}).
		Select("COUNT(*) AS count, AVG(trust_score) AS avg_trust, SUM(helpful_count) AS helpful_total").
		Where("user_id = ? AND status = ?", userID, model.ReviewStatusApproved).
		Scan(&row).Error; err != nil {
		return nil, err
	}
	stats.Count = row.Count
	if row.AvgTrust != nil {
		stats.AvgTrust = *row.AvgTrust
	}
	if row.HelpfulTotal != nil {
		stats.HelpfulTotal = *row.HelpfulTotal
	}
	return &stats, nil
}

func (r *gamificationRepository) TopUsersByPoints(ctx context.Context, limit int) ([]*UserPointsRow, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var rows []*UserPointsRow
	if err := r.db.WithContext(ctx).Model(&model.PointsEntry{}).
		Select("user_id, SUM(delta) AS total_points").
		Group("user_id").
		Order("total_points DESC, user_id ASC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *gamificationRepository) ContestTopUser(ctx context.Context, contestID uint64) (*UserPointsRow, error) {
	var row UserPointsRow
	result := r.db.WithContext(ctx).Model(&model.PointsEntry{}).
		Select("user_id, SUM(delta) AS total_points").
		Where("contest_id = ?", contestID).
		Group("user_id").
		Order("total_points DESC, user_id ASC").
		Limit(1).
		Scan(&row)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &row, nil
}
