package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ReviewGuard/internal/common"
	"ReviewGuard/internal/config"
	"ReviewGuard/internal/interfaces"
	"ReviewGuard/internal/model"
	"ReviewGuard/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// 积分流水原因
const (
	PointsReasonApproved     = "review_approved"
	PointsReasonHelpful      = "helpful_mark"
	PointsReasonContestBonus = "contest_bonus"
	PointsReasonContestPrize = "contest_prize"
)

// ConfigPointsPolicy 以配置取值实现积分策略（账本只套用，不定义规则）
type ConfigPointsPolicy struct {
	cfg config.GamificationConfig
}

// NewConfigPointsPolicy 创建基于配置的积分策略
func NewConfigPointsPolicy(cfg config.GamificationConfig) *ConfigPointsPolicy {
	return &ConfigPointsPolicy{cfg: cfg}
}

func (p *ConfigPointsPolicy) PointsForApprovedReview() int { return p.cfg.PointsPerApproved }
func (p *ConfigPointsPolicy) PointsForHelpfulMark() int    { return p.cfg.PointsPerHelpful }
func (p *ConfigPointsPolicy) ContestBonus() int            { return p.cfg.ContestBonus }

// GamificationService 徽章评估、积分流水与排行榜投影。
// 积分/徽章计数永远从事实表重算，不落地可独立漂移的累计值。
type GamificationService struct {
	db     *gorm.DB
	logger *logrus.Logger
	policy interfaces.PointsPolicy
}

// NewGamificationService 创建游戏化账本服务
func NewGamificationService(db *gorm.DB, logger *logrus.Logger, policy interfaces.PointsPolicy) *GamificationService {
	return &GamificationService{db: db, logger: logger, policy: policy}
}

// OnReviewApproved 评价审核通过时的账本动作：积分入账、作者徽章重估、活跃赛事加分。
// 由审核事务内调用（tx 为该事务句柄），账本与状态流转同生共死。
func (s *GamificationService) OnReviewApproved(ctx context.Context, tx *gorm.DB, review *model.Review) error {
	repo := repository.NewGamificationRepository(tx)

	if err := repo.AppendPoints(ctx, &model.PointsEntry{
		UserID:   review.UserID,
		Delta:    s.policy.PointsForApprovedReview(),
		Reason:   PointsReasonApproved,
		ReviewID: &review.ID,
	}); err != nil {
		return fmt.Errorf("积分入账失败: %w", err)
	}

	// 活跃赛事期内额外积分，记在该赛事名下
	contest, err := repository.NewContestRepository(tx).FirstActive(ctx, time.Now())
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("查询活跃赛事失败: %w", err)
	}
	if contest != nil {
		if err := repo.AppendPoints(ctx, &model.PointsEntry{
			UserID:    review.UserID,
			Delta:     s.policy.ContestBonus(),
			Reason:    PointsReasonContestBonus,
			ReviewID:  &review.ID,
			ContestID: &contest.ID,
		}); err != nil {
			return fmt.Errorf("赛事加分失败: %w", err)
		}
	}

	// 徽章只对作者本人重估，不波及其他用户
	return s.evaluateBadges(ctx, tx, review.UserID)
}

// EvaluateBadges 对用户重估徽章（幂等：已持有的类型不会重复授予）
func (s *GamificationService) EvaluateBadges(ctx context.Context, userID uint64) error {
	return s.evaluateBadges(ctx, s.db, userID)
}

func (s *GamificationService) evaluateBadges(ctx context.Context, db *gorm.DB, userID uint64) error {
	repo := repository.NewGamificationRepository(db)
	stats, err := repo.ApprovedReviewStats(ctx, userID)
	if err != nil {
		return fmt.Errorf("查询评价事实失败: %w", err)
	}

	type rule struct {
		badgeType string
		earned    bool
	}
	rules := []rule{
		{model.BadgeFirstReview, stats.Count >= 1},
		{model.BadgeTenReviews, stats.Count >= 10},
		{model.BadgeFiftyReviews, stats.Count >= 50},
		{model.BadgeTrustedReviewer, stats.Count >= 5 && stats.AvgTrust >= 0.9},
	}
	for _, r := range rules {
		if !r.earned {
			continue
		}
		if err := s.grantBadge(ctx, repo, userID, r.badgeType); err != nil {
			return err
		}
	}
	return nil
}

// grantBadge 幂等授予：先查后插，并靠唯一索引兜底并发
func (s *GamificationService) grantBadge(ctx context.Context, repo repository.GamificationRepository, userID uint64, badgeType string) error {
	has, err := repo.HasBadge(ctx, userID, badgeType)
	if err != nil {
		return fmt.Errorf("查询徽章失败: %w", err)
	}
	if has {
		return nil
	}
	meta := model.BadgeCatalog[badgeType]
	if err := repo.GrantBadge(ctx, &model.UserBadge{
		UserID:      userID,
		BadgeType:   badgeType,
		Name:        meta.Name,
		Icon:        meta.Icon,
		Description: meta.Description,
	}); err != nil {
		return fmt.Errorf("授予徽章失败: %w", err)
	}
	s.logger.WithField("user_id", userID).WithField("badge", badgeType).Info("授予徽章")
	return nil
}

// CheckBadgesAsync 尽力而为的后台徽章检查：失败只记日志，不影响调用方。
// 与同步评分链路不同，这条路径允许静默降级。
func (s *GamificationService) CheckBadgesAsync(userID uint64) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.WithField("panic", r).Error("后台徽章检查崩溃")
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.EvaluateBadges(ctx, userID); err != nil {
			s.logger.WithError(err).WithField("user_id", userID).Warn("后台徽章检查失败")
		}
	}()
}

// ListBadges 用户徽章集合（只读展示）
func (s *GamificationService) ListBadges(ctx context.Context, userID uint64) ([]*model.UserBadge, error) {
	return repository.NewGamificationRepository(s.db).ListBadges(ctx, userID)
}

// leaderboardSize 排行榜固定条数
const leaderboardSize = 20

// Leaderboard 排行榜投影：总积分降序前 20，rank 为排序后的 1 基位置，
// 同分按仓储的稳定扫描序，不引入额外比较键。所有字段读时重算。
func (s *GamificationService) Leaderboard(ctx context.Context) ([]*model.LeaderboardEntry, error) {
	repo := repository.NewGamificationRepository(s.db)
	rows, err := repo.TopUsersByPoints(ctx, leaderboardSize)
	if err != nil {
		return nil, fmt.Errorf("查询积分榜失败: %w", err)
	}

	ids := make([]uint64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.UserID)
	}
	users, err := repository.NewUserRepository(s.db).GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("查询用户信息失败: %w", err)
	}

	entries := make([]*model.LeaderboardEntry, 0, len(rows))
	for i, row := range rows {
		stats, err := repo.ApprovedReviewStats(ctx, row.UserID)
		if err != nil {
			return nil, fmt.Errorf("查询用户评价事实失败: %w", err)
		}
		badgeCount, err := repo.CountBadges(ctx, row.UserID)
		if err != nil {
			return nil, fmt.Errorf("查询徽章计数失败: %w", err)
		}
		name := ""
		if u, ok := users[row.UserID]; ok {
			name = u.Name
		}
		entries = append(entries, &model.LeaderboardEntry{
			Rank:         i + 1,
			UserID:       row.UserID,
			UserName:     name,
			TotalPoints:  row.TotalPoints,
			TotalReviews: int(stats.Count),
			TotalHelpful: int(stats.HelpfulTotal),
			BadgeCount:   int(badgeCount),
		})
	}
	return entries, nil
}

// MarkHelpful 标记评价有用：计数 +1 并给作者按策略加分，同一事务完成
func (s *GamificationService) MarkHelpful(ctx context.Context, principal model.Principal, reviewUUID string) error {
	review, err := repository.NewReviewRepository(s.db).GetByUUID(ctx, reviewUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return common.ErrNotFound
		}
		return fmt.Errorf("查询评价失败: %w", err)
	}
	if review.UserID == principal.UserID {
		return fmt.Errorf("%w: 不能标记自己的评价", common.ErrValidation)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewReviewRepository(tx).IncrementHelpful(ctx, review.ID); err != nil {
			return fmt.Errorf("有用计数失败: %w", err)
		}
		return repository.NewGamificationRepository(tx).AppendPoints(ctx, &model.PointsEntry{
			UserID:   review.UserID,
			Delta:    s.policy.PointsForHelpfulMark(),
			Reason:   PointsReasonHelpful,
			ReviewID: &review.ID,
		})
	})
}

// AwardContestWinner 赛事结束时给期内积分最高者授予奖励积分与徽章。
// 期内无流水时静默跳过。
func (s *GamificationService) AwardContestWinner(ctx context.Context, tx *gorm.DB, contest *model.Contest) error {
	repo := repository.NewGamificationRepository(tx)
	top, err := repo.ContestTopUser(ctx, contest.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("查询赛事榜首失败: %w", err)
	}
	if contest.PrizePoints > 0 {
		if err := repo.AppendPoints(ctx, &model.PointsEntry{
			UserID:    top.UserID,
			Delta:     contest.PrizePoints,
			Reason:    PointsReasonContestPrize,
			ContestID: &contest.ID,
		}); err != nil {
			return fmt.Errorf("赛事奖励入账失败: %w", err)
		}
	}
	return s.grantBadge(ctx, repo, top.UserID, model.BadgeContestWinner)
}
