package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"ReviewGuard/internal/common"
	"ReviewGuard/internal/interfaces"
	"ReviewGuard/internal/metrics"
	"ReviewGuard/internal/model"
	"ReviewGuard/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	// minTrustScore 评分下限：永不为 0，避免产生无法被人工推翻的完全排除信号
	minTrustScore = 0.1
	// flagConfidenceThreshold 仅当可疑且置信度严格大于此值才标记
	flagConfidenceThreshold = 0.7
	// fallbackTrustScore 上游不可达时落库的保守兜底分
	fallbackTrustScore = 0.5
	// flagReasonPrefix 机器生成的标记原因前缀
	flagReasonPrefix = "[auto] "
	// maxFlagReasons 标记原因最多拼接条数
	maxFlagReasons = 3

	// 系统评分审计的操作者快照
	systemActorID   = 0
	systemActorName = "system"
)

// ComputeTrustScore 由欺诈信号与分析判定计算信任分与标记决定。
// 纯函数：同输入恒同输出（重评分不得让分数经多次部分更新漂移）。
// 可疑时 score = max(0.1, 1-confidence)，否则 score = min(1.0, 0.7+confidence*0.3)。
func ComputeTrustScore(fraud *model.FraudLog, analysis *interfaces.AnalysisResult) (score float64, flagged bool, flagReason *string) {
	if analysis.IsSuspicious {
		score = 1 - analysis.Confidence
		if score < minTrustScore {
			score = minTrustScore
		}
	} else {
		score = 0.7 + analysis.Confidence*0.3
		if score > 1.0 {
			score = 1.0
		}
	}

	flagged = analysis.IsSuspicious && analysis.Confidence > flagConfidenceThreshold
	if flagged {
		reasons := analysis.Reasons
		if len(reasons) > maxFlagReasons {
			reasons = reasons[:maxFlagReasons]
		}
		joined := flagReasonPrefix + strings.Join(reasons, "; ")
		flagReason = &joined
	}
	_ = fraud // 欺诈信号已独立落库；分类不改变分数公式
	return score, flagged, flagReason
}

// TrustScoreEngine 把信号采集与内容分析合成为一次原子落库：
// 评价的 trust_score/is_flagged/flag_reason、FraudLog 与评分审计在同一事务写入，不允许半截状态。
type TrustScoreEngine struct {
	db        *gorm.DB
	logger    *logrus.Logger
	collector *FraudSignalCollector
	analysis  interfaces.ContentAnalysisPort
	mtr       *metrics.Metrics
}

// NewTrustScoreEngine 创建信任评分引擎
func NewTrustScoreEngine(db *gorm.DB, logger *logrus.Logger, collector *FraudSignalCollector, analysis interfaces.ContentAnalysisPort, mtr *metrics.Metrics) *TrustScoreEngine {
	return &TrustScoreEngine{
		db:        db,
		logger:    logger,
		collector: collector,
		analysis:  analysis,
		mtr:       mtr,
	}
}

// ScoreSubmission 对单条评价执行完整评分：
// 信号采集与内容分析并发执行，两者都结束（或保守失败）后才写入最终结果。
// 上游 429/402：落库保守兜底分后把类型化错误交还调用方决定重试/告警；
// 上游不可用或响应异常：视为"分析无结论"，落库兜底分，提交链路不失败。
func (e *TrustScoreEngine) ScoreSubmission(ctx context.Context, review *model.Review, sub *Submission) error {
	if sub.ReviewID == nil {
		sub.ReviewID = &review.ID
	}

	// 内容分析走网络，放入后台并发执行；信号采集在本协程完成
	type analysisOutcome struct {
		result *interfaces.AnalysisResult
		err    error
	}
	done := make(chan analysisOutcome, 1)
	go func() {
		result, err := e.analysis.Analyze(ctx, &interfaces.AnalysisRequest{
			ReviewID:  review.ReviewUUID,
			Content:   review.Content,
			CompanyID: review.CompanyID,
			UserID:    review.UserID,
		})
		done <- analysisOutcome{result: result, err: err}
	}()

	fraud, fraudErr := e.collector.Collect(ctx, sub)
	if fraudErr != nil {
		// 信号采集失败时保守降级：记录 none 分类，不阻塞评分
		e.logger.WithError(fraudErr).WithField("review_id", review.ID).Warn("欺诈信号采集失败，使用空信号")
		fraud = &model.FraudLog{
			ReviewID:  &review.ID,
			UserID:    review.UserID,
			IPAddress: sub.IPAddress,
			FraudType: model.FraudTypeNone,
		}
	}

	out := <-done
	var upstreamErr error
	analysis := out.result
	if out.err != nil {
		upstreamErr = out.err
		analysis = nil
		e.countUpstreamError(out.err)
	}

	if analysis == nil {
		// 分析无结论：落库保守兜底分并打上待重评标记，未评分的评价会阻塞后续审核，不能悬空。
		// 补偿任务按标记重新纳入评分，兜底分不是终态。
		if err := e.persist(ctx, review.ID, fraud, fallbackTrustScore, false, nil, true); err != nil {
			return err
		}
		e.mtr.ReviewsScored.WithLabelValues("fallback").Inc()
		if errors.Is(upstreamErr, common.ErrUpstreamRateLimited) || errors.Is(upstreamErr, common.ErrUpstreamPaymentRequired) {
			return upstreamErr // 类型化错误上抛，调用方区分重试与告警
		}
		e.logger.WithError(upstreamErr).WithField("review_id", review.ID).Warn("内容分析无结论，已落库兜底分")
		return nil
	}

	score, flagged, flagReason := ComputeTrustScore(fraud, analysis)
	if err := e.persist(ctx, review.ID, fraud, score, flagged, flagReason, false); err != nil {
		return err
	}
	e.mtr.ReviewsScored.WithLabelValues("scored").Inc()
	if flagged {
		e.mtr.ReviewsFlagged.Inc()
	}
	e.logger.WithFields(logrus.Fields{
		"review_id":   review.ID,
		"trust_score": score,
		"is_flagged":  flagged,
		"fraud_type":  fraud.FraudType,
	}).Info("评价信任评分完成")
	return nil
}

// persist 评价信任字段、欺诈日志与评分审计的原子写入。
// 审计写入失败则整个评分回滚——评分变更成功而无留痕属于致命缺陷。
func (e *TrustScoreEngine) persist(ctx context.Context, reviewID uint64, fraud *model.FraudLog, score float64, flagged bool, flagReason *string, needsRescore bool) error {
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewReviewRepository(tx).UpdateTrustFields(ctx, reviewID, score, flagged, flagReason, needsRescore); err != nil {
			return fmt.Errorf("写入信任分失败: %w", err)
		}
		if err := repository.NewFraudLogRepository(tx).Append(ctx, fraud); err != nil {
			return fmt.Errorf("写入欺诈日志失败: %w", err)
		}
		id := reviewID
		err := repository.NewAuditLogRepository(tx).Append(ctx, &model.AuditLogEntry{
			ActorID:    systemActorID,
			ActorName:  systemActorName,
			Action:     model.AuditActionScore,
			EntityType: model.EntityTypeReview,
			EntityID:   &id,
			NewData:    scoreSnapshot(reviewID, score, flagged, fraud.FraudType),
		})
		if err != nil {
			return fmt.Errorf("写入评分审计失败: %w", err)
		}
		return nil
	})
}

// scoreSnapshot 评分审计快照：无需借助外部状态即可还原此次评分结果
func scoreSnapshot(reviewID uint64, score float64, flagged bool, fraudType string) datatypes.JSON {
	b, _ := json.Marshal(map[string]interface{}{
		"entity_type": model.EntityTypeReview,
		"entity_id":   reviewID,
		"trust_score": score,
		"is_flagged":  flagged,
		"fraud_type":  fraudType,
	})
	return b
}

// BackfillUnscored 为缺失信任分或仅有兜底分的评价补跑评分
// （请求中断、上游限流等造成的遗留）。
// 补偿路径没有客户端输入元数据，对应信号按缺失处理。
func (e *TrustScoreEngine) BackfillUnscored(ctx context.Context, batchSize int) (int, error) {
	reviews, err := repository.NewReviewRepository(e.db).ListUnscored(ctx, batchSize)
	if err != nil {
		return 0, fmt.Errorf("查询未评分评价失败: %w", err)
	}
	scored := 0
	for _, review := range reviews {
		sub := &Submission{
			ReviewID:  &review.ID,
			UserID:    review.UserID,
			CompanyID: review.CompanyID,
			Content:   review.Content,
		}
		if err := e.ScoreSubmission(ctx, review, sub); err != nil {
			e.logger.WithError(err).WithField("review_id", review.ID).Warn("补偿评分失败，跳过")
			continue
		}
		scored++
	}
	if len(reviews) > 0 {
		e.logger.Infof("评分补偿完成：%d/%d 条", scored, len(reviews))
	}
	return scored, nil
}

// countUpstreamError 上游错误分类计数
func (e *TrustScoreEngine) countUpstreamError(err error) {
	switch {
	case errors.Is(err, common.ErrUpstreamRateLimited):
		e.mtr.UpstreamErrors.WithLabelValues("rate_limited").Inc()
	case errors.Is(err, common.ErrUpstreamPaymentRequired):
		e.mtr.UpstreamErrors.WithLabelValues("payment_required").Inc()
	default:
		e.mtr.UpstreamErrors.WithLabelValues("unavailable").Inc()
	}
}
