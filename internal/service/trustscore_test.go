package service

import (
	"context"
	"strings"
	"testing"

	"ReviewGuard/internal/common"
	"ReviewGuard/internal/interfaces"
	"ReviewGuard/internal/metrics"
	"ReviewGuard/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noneFraud() *model.FraudLog {
	return &model.FraudLog{FraudType: model.FraudTypeNone}
}

func TestComputeTrustScoreSuspicious(t *testing.T) {
	cases := []struct {
		name       string
		confidence float64
		wantScore  float64
		wantFlag   bool
	}{
		{"高置信度命中下限", 0.95, 0.1, true},
		{"下限恰好触发", 0.9, 0.1, true},
		{"中等置信度", 0.6, 0.4, false},
		{"阈值恰好不标记", 0.7, 0.3, false},
		{"阈值以上标记", 0.70001, 0.29999, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			score, flagged, _ := ComputeTrustScore(noneFraud(), &interfaces.AnalysisResult{
				IsSuspicious: true,
				Confidence:   tc.confidence,
				Reasons:      []string{"repeat content"},
			})
			assert.InDelta(t, tc.wantScore, score, 1e-9)
			assert.Equal(t, tc.wantFlag, flagged)
		})
	}
}

func TestComputeTrustScoreClean(t *testing.T) {
	score, flagged, reason := ComputeTrustScore(noneFraud(), &interfaces.AnalysisResult{
		IsSuspicious: false,
		Confidence:   0.5,
	})
	assert.InDelta(t, 0.85, score, 1e-9)
	assert.False(t, flagged)
	assert.Nil(t, reason)

	// 上限钳制
	score, _, _ = ComputeTrustScore(noneFraud(), &interfaces.AnalysisResult{Confidence: 1.0})
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestComputeTrustScoreIdempotent(t *testing.T) {
	analysis := &interfaces.AnalysisResult{
		IsSuspicious: true,
		Confidence:   0.82,
		Reasons:      []string{"a", "b", "c", "d", "e"},
	}
	s1, f1, r1 := ComputeTrustScore(noneFraud(), analysis)
	s2, f2, r2 := ComputeTrustScore(noneFraud(), analysis)
	assert.Equal(t, s1, s2)
	assert.Equal(t, f1, f2)
	require.NotNil(t, r1)
	require.NotNil(t, r2)
	assert.Equal(t, *r1, *r2)
	// 原因最多拼接 3 条
	assert.Equal(t, "[auto] a; b; c", *r1)
}

func TestScoreSubmissionBotBehavior(t *testing.T) {
	db := newTestDB(t)
	author := seedUser(t, db, "张三", model.RoleUser)
	company := seedCompany(t, db, "甲公司", author.ID)

	// 50 词 10 秒——300 WPM，超出任何人类输入速度
	content := strings.TrimSpace(strings.Repeat("great place to work here ", 10))
	review := seedReview(t, db, author.ID, company.ID, content, model.ReviewStatusPending)

	stub := &stubAnalysis{result: &interfaces.AnalysisResult{
		IsSuspicious: true,
		Confidence:   0.85,
		Reasons:      []string{"template-like text"},
	}}
	engine := NewTrustScoreEngine(db, testLogger(), newCollector(db), stub, metrics.NewForTest())

	duration := int64(10_000)
	err := engine.ScoreSubmission(context.Background(), review, &Submission{
		ReviewID:         &review.ID,
		UserID:           author.ID,
		CompanyID:        company.ID,
		Content:          content,
		IPAddress:        "10.0.0.1",
		TypingDurationMS: &duration,
	})
	require.NoError(t, err)

	var got model.Review
	require.NoError(t, db.First(&got, review.ID).Error)
	assert.InDelta(t, 0.15, got.TrustScore, 1e-9)
	assert.True(t, got.IsFlagged)
	require.NotNil(t, got.FlagReason)
	assert.Contains(t, *got.FlagReason, "template-like text")

	var fraud model.FraudLog
	require.NoError(t, db.Where("review_id = ?", review.ID).First(&fraud).Error)
	assert.Equal(t, model.FraudTypeBotBehavior, fraud.FraudType)
	assert.InDelta(t, 0.75, fraud.RiskScore, 1e-9)
	assert.True(t, fraud.IsCopyPaste)
	require.NotNil(t, fraud.TypingSpeedWPM)
	assert.InDelta(t, 300, *fraud.TypingSpeedWPM, 1)

	// 评分与审计同事务落库，操作者为 system
	var audit model.AuditLogEntry
	require.NoError(t, db.Where("action = ? AND entity_id = ?", model.AuditActionScore, review.ID).First(&audit).Error)
	assert.Equal(t, "system", audit.ActorName)
	assert.False(t, got.NeedsRescore)
}

func TestScoreSubmissionRateLimitedFallback(t *testing.T) {
	db := newTestDB(t)
	author := seedUser(t, db, "张三", model.RoleUser)
	company := seedCompany(t, db, "甲公司", author.ID)
	review := seedReview(t, db, author.ID, company.ID, "服务很好", model.ReviewStatusPending)

	stub := &stubAnalysis{err: common.ErrUpstreamRateLimited}
	engine := NewTrustScoreEngine(db, testLogger(), newCollector(db), stub, metrics.NewForTest())

	err := engine.ScoreSubmission(context.Background(), review, &Submission{
		ReviewID:  &review.ID,
		UserID:    author.ID,
		CompanyID: company.ID,
		Content:   review.Content,
	})
	// 类型化限流错误上抛，与普通失败可区分
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUpstreamRateLimited)
	assert.NotErrorIs(t, err, common.ErrUpstreamUnavailable)

	// 兜底分已落库且带待重评标记，评价不悬空、兜底分不是终态
	var got model.Review
	require.NoError(t, db.First(&got, review.ID).Error)
	assert.InDelta(t, 0.5, got.TrustScore, 1e-9)
	assert.False(t, got.IsFlagged)
	assert.True(t, got.NeedsRescore)
}

func TestScoreSubmissionUnavailableIsSilent(t *testing.T) {
	db := newTestDB(t)
	author := seedUser(t, db, "张三", model.RoleUser)
	company := seedCompany(t, db, "甲公司", author.ID)
	review := seedReview(t, db, author.ID, company.ID, "服务很好", model.ReviewStatusPending)

	stub := &stubAnalysis{err: common.ErrUpstreamUnavailable}
	engine := NewTrustScoreEngine(db, testLogger(), newCollector(db), stub, metrics.NewForTest())

	err := engine.ScoreSubmission(context.Background(), review, &Submission{
		ReviewID:  &review.ID,
		UserID:    author.ID,
		CompanyID: company.ID,
		Content:   review.Content,
	})
	// 上游不可用不让提交链路失败
	require.NoError(t, err)

	var got model.Review
	require.NoError(t, db.First(&got, review.ID).Error)
	assert.InDelta(t, 0.5, got.TrustScore, 1e-9)
	assert.True(t, got.NeedsRescore)
}

func TestBackfillUnscored(t *testing.T) {
	db := newTestDB(t)
	author := seedUser(t, db, "张三", model.RoleUser)
	company := seedCompany(t, db, "甲公司", author.ID)
	r1 := seedReview(t, db, author.ID, company.ID, "第一条评价内容", model.ReviewStatusPending)
	r2 := seedReview(t, db, author.ID, company.ID, "完全不同的另一条", model.ReviewStatusPending)
	scored := seedReview(t, db, author.ID, company.ID, "已有分的评价", model.ReviewStatusPending)
	require.NoError(t, db.Model(&model.Review{}).Where("id = ?", scored.ID).Update("trust_score", 0.9).Error)

	stub := &stubAnalysis{result: &interfaces.AnalysisResult{IsSuspicious: false, Confidence: 0.5}}
	engine := NewTrustScoreEngine(db, testLogger(), newCollector(db), stub, metrics.NewForTest())

	n, err := engine.BackfillUnscored(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, stub.calls)

	for _, id := range []uint64{r1.ID, r2.ID} {
		var got model.Review
		require.NoError(t, db.First(&got, id).Error)
		assert.InDelta(t, 0.85, got.TrustScore, 1e-9)
	}
	// 已评分的不重复处理
	var got model.Review
	require.NoError(t, db.First(&got, scored.ID).Error)
	assert.InDelta(t, 0.9, got.TrustScore, 1e-9)
}

func TestBackfillRescoresFallback(t *testing.T) {
	db := newTestDB(t)
	author := seedUser(t, db, "张三", model.RoleUser)
	company := seedCompany(t, db, "甲公司", author.ID)
	review := seedReview(t, db, author.ID, company.ID, "上游限流时提交的评价", model.ReviewStatusPending)

	// 第一次评分遭遇限流：兜底分落库并留下待重评标记
	limited := NewTrustScoreEngine(db, testLogger(), newCollector(db),
		&stubAnalysis{err: common.ErrUpstreamRateLimited}, metrics.NewForTest())
	err := limited.ScoreSubmission(context.Background(), review, &Submission{
		ReviewID:  &review.ID,
		UserID:    author.ID,
		CompanyID: company.ID,
		Content:   review.Content,
	})
	require.ErrorIs(t, err, common.ErrUpstreamRateLimited)

	// 上游恢复后补偿任务把兜底分重评为真实分并清除标记
	recovered := NewTrustScoreEngine(db, testLogger(), newCollector(db),
		&stubAnalysis{result: &interfaces.AnalysisResult{IsSuspicious: false, Confidence: 0.5}}, metrics.NewForTest())
	n, err := recovered.BackfillUnscored(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var got model.Review
	require.NoError(t, db.First(&got, review.ID).Error)
	assert.InDelta(t, 0.85, got.TrustScore, 1e-9)
	assert.False(t, got.NeedsRescore)
}
