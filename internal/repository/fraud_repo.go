package repository

import (
	"context"
	"time"

	"ReviewGuard/internal/model"

	"gorm.io/gorm"
)

// FraudSummary 欺诈日志读模型的汇总信息
type FraudSummary struct {
	HighRiskCount  int64 `json:"high_risk_count"`  // risk_score > 0.6
	CopyPasteCount int64 `json:"copy_paste_count"` // is_copy_paste = true
}

// FraudLogRepository 欺诈信号持久化。只追加，无更新/删除路径，可并发写入。
type FraudLogRepository interface {
	Append(ctx context.Context, entry *model.FraudLog) error
	// ListRecent 最新在前，供读模型展示（上限 50）
	ListRecent(ctx context.Context, limit int) ([]*model.FraudLog, error)
	// CountDistinctUsersByIP 窗口内同一地址上的不同账号数（ip_abuse 信号）
	CountDistinctUsersByIP(ctx context.Context, ip string, since time.Time) (int64, error)
	// Summary 高风险计数与粘贴计数
	Summary(ctx context.Context) (*FraudSummary, error)
}

type fraudLogRepository struct {
	db *gorm.DB
}

// NewFraudLogRepository 创建欺诈日志仓储
func NewFraudLogRepository(db *gorm.DB) FraudLogRepository {
	return &fraudLogRepository{db: db}
}

func (r *fraudLogRepository) Append(ctx context.Context, entry *model.FraudLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *fraudLogRepository) ListRecent(ctx context.Context, limit int) ([]*model.FraudLog, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}
	var logs []*model.FraudLog
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *fraudLogRepository) CountDistinctUsersByIP(ctx context.Context, ip string, since time.Time) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.FraudLog{}).
		Where("ip_address = ? AND created_at >= ?", ip, since).
		Distinct("user_id").
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *fraudLogRepository) Summary(ctx context.Context) (*FraudSummary, error) {
	var summary FraudSummary
	if err := r.db.WithContext(ctx).Model(&model.FraudLog{}).
		Where("risk_score > ?", 0.6).
		Count(&summary.HighRiskCount).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&model.FraudLog{}).
		Where("is_copy_paste = ?", true).
		Count(&summary.CopyPasteCount).Error; err != nil {
		return nil, err
	}
	return &summary, nil
}
