package repository

import (
	"context"
	"time"

	"ReviewGuard/internal/model"

	"gorm.io/gorm"
)

// ContestRepository 赛事持久化
type ContestRepository interface {
	Create(ctx context.Context, contest *model.Contest) error
	GetByUUID(ctx context.Context, contestUUID string) (*model.Contest, error)
	// ListActive status=active 且 end_time 未过的赛事（读路径把过期视为隐式结束）
	ListActive(ctx context.Context, now time.Time) ([]*model.Contest, error)
	// FirstActive 任意一个当前活跃赛事（审批加分时用），没有则返回 gorm.ErrRecordNotFound
	FirstActive(ctx context.Context, now time.Time) (*model.Contest, error)
	// MarkEnded active→ended 单向流转
	MarkEnded(ctx context.Context, id uint64) error
}

type contestRepository struct {
	db *gorm.DB
}

// NewContestRepository 创建赛事仓储
func NewContestRepository(db *gorm.DB) ContestRepository {
	return &contestRepository{db: db}
}

func (r *contestRepository) Create(ctx context.Context, contest *model.Contest) error {
	return r.db.WithContext(ctx).Create(contest).Error
}

func (r *contestRepository) GetByUUID(ctx context.Context, contestUUID string) (*model.Contest, error) {
	var contest model.Contest
	if err := r.db.WithContext(ctx).
		Where("contest_uuid = ?", contestUUID).
		First(&contest).Error; err != nil {
		return nil, err
	}
	return &contest, nil
}

func (r *contestRepository) ListActive(ctx context.Context, now time.Time) ([]*model.Contest, error) {
	var contests []*model.Contest
	if err := r.db.WithContext(ctx).
		Where("status = ? AND end_time >= ?", model.ContestStatusActive, now).
		Order("end_time ASC").
		Find(&contests).Error; err != nil {
		return nil, err
	}
	return contests, nil
}

func (r *contestRepository) FirstActive(ctx context.Context, now time.Time) (*model.Contest, error) {
	var contest model.Contest
	if err := r.db.WithContext(ctx).
		Where("status = ? AND end_time >= ?", model.ContestStatusActive, now).
		Order("end_time ASC").
		First(&contest).Error; err != nil {
		return nil, err
	}
	return &contest, nil
}

func (r *contestRepository) MarkEnded(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Model(&model.Contest{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     model.ContestStatusEnded,
			"updated_at": time.Now(),
		}).Error
}
