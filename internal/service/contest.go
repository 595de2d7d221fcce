package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ReviewGuard/internal/common"
	"ReviewGuard/internal/model"
	"ReviewGuard/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ContestInput 创建赛事的入参
type ContestInput struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	PrizePoints int       `json:"prize_points"`
	PrizeText   string    `json:"prize_text"`
}

// ContestView 赛事读模型（附派生字段）
type ContestView struct {
	ContestUUID   string    `json:"contest_uuid"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	PrizePoints   int       `json:"prize_points"`
	PrizeText     string    `json:"prize_text"`
	Status        string    `json:"status"`
	DaysRemaining int       `json:"days_remaining"`
}

// ContestService 时间盒赛事管理，叠加在游戏化账本之上
type ContestService struct {
	db           *gorm.DB
	logger       *logrus.Logger
	gamification *GamificationService
}

// NewContestService 创建赛事服务
func NewContestService(db *gorm.DB, logger *logrus.Logger, gamification *GamificationService) *ContestService {
	return &ContestService{db: db, logger: logger, gamification: gamification}
}

// Create 创建赛事。字段校验在任何写入之前同步完成；创建写审计。
func (s *ContestService) Create(ctx context.Context, principal model.Principal, input *ContestInput) (*model.Contest, error) {
	if !principal.IsModerator() {
		return nil, common.ErrForbidden
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("%w: 标题不能为空", common.ErrValidation)
	}
	if input.EndTime.IsZero() {
		return nil, fmt.Errorf("%w: 必须指定结束时间", common.ErrValidation)
	}
	start := input.StartTime
	if start.IsZero() {
		start = time.Now()
	}
	if !input.EndTime.After(start) {
		return nil, fmt.Errorf("%w: 结束时间必须晚于开始时间", common.ErrValidation)
	}

	contest := &model.Contest{
		ContestUUID: uuid.New().String(),
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		StartTime:   start,
		EndTime:     input.EndTime,
		PrizePoints: input.PrizePoints,
		PrizeText:   input.PrizeText,
		Status:      model.ContestStatusActive,
		CreatedBy:   principal.UserID,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewContestRepository(tx).Create(ctx, contest); err != nil {
			return fmt.Errorf("创建赛事失败: %w", err)
		}
		id := contest.ID
		return repository.NewAuditLogRepository(tx).Append(ctx, &model.AuditLogEntry{
			ActorID:    principal.UserID,
			ActorName:  principal.Name,
			Action:     model.AuditActionCreate,
			EntityType: model.EntityTypeContest,
			EntityID:   &id,
			NewData:    statusSnapshot(model.EntityTypeContest, contest.ID, contest.Status, map[string]interface{}{"title": contest.Title}),
		})
	})
	if err != nil {
		return nil, err
	}
	s.logger.WithField("contest", contest.ContestUUID).Info("赛事已创建")
	return contest, nil
}

// End 显式结束赛事：active→ended 不可逆，期内榜首在同一事务内领奖。
// 已结束的赛事重复结束返回状态冲突。
func (s *ContestService) End(ctx context.Context, principal model.Principal, contestUUID string) error {
	if !principal.IsModerator() {
		return common.ErrForbidden
	}
	contest, err := repository.NewContestRepository(s.db).GetByUUID(ctx, contestUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return common.ErrNotFound
		}
		return fmt.Errorf("查询赛事失败: %w", err)
	}
	if contest.Status == model.ContestStatusEnded {
		return common.ErrContestEnded
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewContestRepository(tx).MarkEnded(ctx, contest.ID); err != nil {
			return fmt.Errorf("结束赛事失败: %w", err)
		}
		if err := s.gamification.AwardContestWinner(ctx, tx, contest); err != nil {
			return err
		}
		id := contest.ID
		return repository.NewAuditLogRepository(tx).Append(ctx, &model.AuditLogEntry{
			ActorID:    principal.UserID,
			ActorName:  principal.Name,
			Action:     model.AuditActionUpdate,
			EntityType: model.EntityTypeContest,
			EntityID:   &id,
			OldData:    statusSnapshot(model.EntityTypeContest, contest.ID, contest.Status, nil),
			NewData:    statusSnapshot(model.EntityTypeContest, contest.ID, model.ContestStatusEnded, nil),
		})
	})
}

// ListActive 活跃赛事列表。end_time 已过的赛事即使无人动过 status 也被排除——
// 读路径把过期视为隐式结束，落库状态留待人工处理。
func (s *ContestService) ListActive(ctx context.Context) ([]*ContestView, error) {
	now := time.Now()
	contests, err := repository.NewContestRepository(s.db).ListActive(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("查询活跃赛事失败: %w", err)
	}
	views := make([]*ContestView, 0, len(contests))
	for _, c := range contests {
		views = append(views, &ContestView{
			ContestUUID:   c.ContestUUID,
			Title:         c.Title,
			Description:   c.Description,
			StartTime:     c.StartTime,
			EndTime:       c.EndTime,
			PrizePoints:   c.PrizePoints,
			PrizeText:     c.PrizeText,
			Status:        c.Status,
			DaysRemaining: DaysRemaining(c.EndTime, now),
		})
	}
	return views, nil
}

// DaysRemaining 剩余天数 = ceil((end-now)/1天)，最低为 0
func DaysRemaining(end, now time.Time) int {
	if !end.After(now) {
		return 0
	}
	d := end.Sub(now)
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) > 0 {
		days++
	}
	return days
}
