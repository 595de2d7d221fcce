package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"ReviewGuard/internal/config"
	"ReviewGuard/internal/model"
	"ReviewGuard/internal/repository"

	"github.com/sirupsen/logrus"
)

// Submission 一次提交的原始元数据（信号采集输入）
type Submission struct {
	ReviewID         *uint64
	UserID           uint64
	CompanyID        uint64
	Content          string
	IPAddress        string
	TypingDurationMS *int64 // 客户端上报的输入耗时，可空
	PasteDetected    bool   // 客户端上报的粘贴事件
}

// FraudSignalCollector 从提交元数据推导客观欺诈信号。
// 产出 FraudLog 但不落库——最终写入由信任评分引擎与评分结果一并完成。
type FraudSignalCollector struct {
	reviewRepo repository.ReviewRepository
	fraudRepo  repository.FraudLogRepository
	cfg        config.FraudConfig
	logger     *logrus.Logger
}

// NewFraudSignalCollector 创建信号采集器
func NewFraudSignalCollector(reviewRepo repository.ReviewRepository, fraudRepo repository.FraudLogRepository, cfg config.FraudConfig, logger *logrus.Logger) *FraudSignalCollector {
	return &FraudSignalCollector{
		reviewRepo: reviewRepo,
		fraudRepo:  fraudRepo,
		cfg:        cfg,
		logger:     logger,
	}
}

// Collect 计算近重复、粘贴/机器人、快速连发、IP复用信号并产出恰好一个分类。
// 分类优先级固定：ip_abuse > duplicate_content > bot_behavior > rapid_submission > none，
// 先命中者生效——该顺序是刻意的打破平衡规则，不得调整。
func (c *FraudSignalCollector) Collect(ctx context.Context, sub *Submission) (*model.FraudLog, error) {
	entry := &model.FraudLog{
		ReviewID:  sub.ReviewID,
		UserID:    sub.UserID,
		IPAddress: sub.IPAddress,
		FraudType: model.FraudTypeNone,
	}

	// 1. 近重复：对该用户与该公司的近期评价语料求最大相似度
	similarity, err := c.maxSimilarity(ctx, sub)
	if err != nil {
		return nil, err
	}
	entry.SimilarityScore = similarity

	// 2. 粘贴/机器人：客户端粘贴事件，或输入速度超出人类上限
	wpm := typingSpeedWPM(sub.Content, sub.TypingDurationMS)
	entry.TypingSpeedWPM = wpm
	entry.IsCopyPaste = sub.PasteDetected || (wpm != nil && *wpm > c.cfg.MaxTypingWPM)

	// 3. 快速连发：窗口内该用户的提交数
	rapidCount, err := c.reviewRepo.CountRecentByUser(ctx, sub.UserID, time.Now().Add(-c.cfg.RapidWindow))
	if err != nil {
		return nil, err
	}

	// 4. IP复用：窗口内同一地址上的不同账号数（地址缺失时跳过该信号）
	var ipUsers int64
	if sub.IPAddress != "" {
		ipUsers, err = c.fraudRepo.CountDistinctUsersByIP(ctx, sub.IPAddress, time.Now().Add(-c.cfg.IPWindow))
		if err != nil {
			return nil, err
		}
	}

	// 5. 按固定优先级产出单一分类与风险分
	switch {
	case ipUsers >= int64(c.cfg.IPMaxUsers):
		entry.FraudType = model.FraudTypeIPAbuse
		entry.RiskScore = 0.9
	case similarity >= c.cfg.SimilarityThreshold:
		entry.FraudType = model.FraudTypeDuplicate
		entry.RiskScore = similarity
	case entry.IsCopyPaste:
		entry.FraudType = model.FraudTypeBotBehavior
		entry.RiskScore = 0.75
	case rapidCount >= int64(c.cfg.RapidMaxCount):
		entry.FraudType = model.FraudTypeRapidSubmission
		entry.RiskScore = 0.6
	default:
		entry.FraudType = model.FraudTypeNone
		entry.RiskScore = similarity * 0.2
	}

	c.logger.WithFields(logrus.Fields{
		"user_id":    sub.UserID,
		"fraud_type": entry.FraudType,
		"risk_score": entry.RiskScore,
		"similarity": entry.SimilarityScore,
	}).Debug("欺诈信号采集完成")
	return entry, nil
}

// maxSimilarity 与用户自身及目标公司近期评价的最大相似度
func (c *FraudSignalCollector) maxSimilarity(ctx context.Context, sub *Submission) (float64, error) {
	ownRecent, err := c.reviewRepo.ListRecentByUser(ctx, sub.UserID, c.cfg.RecentCorpusSize)
	if err != nil {
		return 0, err
	}
	companyRecent, err := c.reviewRepo.ListRecentByCompany(ctx, sub.CompanyID, c.cfg.RecentCorpusSize)
	if err != nil {
		return 0, err
	}

	target := tokenSet(sub.Content)
	best := 0.0
	for _, r := range append(ownRecent, companyRecent...) {
		if sub.ReviewID != nil && r.ID == *sub.ReviewID {
			continue // 重评分时不与自身比较
		}
		if s := jaccard(target, tokenSet(r.Content)); s > best {
			best = s
		}
	}
	return best, nil
}

var nonAlphaNum = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
var multiSpace = regexp.MustCompile(`\s+`)

// normalizeContent 小写、去标点、合并空白（与语料两侧做同样的规范化）
func normalizeContent(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonAlphaNum.ReplaceAllString(s, " ")
	s = multiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// tokenSet 规范化后切词为集合
func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(normalizeContent(s)) {
		set[tok] = struct{}{}
	}
	return set
}

// jaccard 词集合的交并比，完全相同为 1
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// typingSpeedWPM 由正文词数与客户端上报耗时推算 WPM；耗时缺失或非法时返回 nil
func typingSpeedWPM(content string, durationMS *int64) *float64 {
	if durationMS == nil || *durationMS <= 0 {
		return nil
	}
	words := len(strings.Fields(content))
	if words == 0 {
		return nil
	}
	minutes := float64(*durationMS) / 1000.0 / 60.0
	wpm := float64(words) / minutes
	return &wpm
}
