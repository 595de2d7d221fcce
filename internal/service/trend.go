package service

import (
	"context"
	"errors"
	"fmt"

	"ReviewGuard/internal/common"
	"ReviewGuard/internal/interfaces"
	"ReviewGuard/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// TrendService 公司趋势报告：聚合已通过评价语料后交给内容分析上游
type TrendService struct {
	reviewRepo repository.ReviewRepository
	userRepo   repository.UserRepository
	analysis   interfaces.ContentAnalysisPort
	logger     *logrus.Logger
}

// NewTrendService 创建趋势报告服务
func NewTrendService(db *gorm.DB, analysis interfaces.ContentAnalysisPort, logger *logrus.Logger) *TrendService {
	return &TrendService{
		reviewRepo: repository.NewReviewRepository(db),
		userRepo:   repository.NewUserRepository(db),
		analysis:   analysis,
		logger:     logger,
	}
}

// emptyCorpusReport 语料为空时的固定报告，不触发上游调用
func emptyCorpusReport() *interfaces.TrendReport {
	return &interfaces.TrendReport{
		PositiveKeywords: []string{},
		NegativeKeywords: []string{},
		Strengths:        []string{},
		Weaknesses:       []string{},
		CommonThemes:     []string{},
		SentimentScore:   50,
		Recommendation:   "暂无足够评价数据生成报告",
	}
}

// CompanyTrendReport 生成公司趋势报告。只统计已通过的评价；
// 没有任何已通过评价时直接返回固定报告，不请求上游。
func (s *TrendService) CompanyTrendReport(ctx context.Context, companyID uint64) (*interfaces.TrendReport, error) {
	if _, err := s.userRepo.GetCompanyByID(ctx, companyID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("查询公司失败: %w", err)
	}
	corpus, err := s.reviewRepo.ListApprovedContentByCompany(ctx, companyID, 0)
	if err != nil {
		return nil, fmt.Errorf("查询评价语料失败: %w", err)
	}
	if len(corpus) == 0 {
		return emptyCorpusReport(), nil
	}
	report, err := s.analysis.CompanyTrends(ctx, companyID, corpus)
	if err != nil {
		s.logger.WithError(err).WithField("company_id", companyID).Warn("趋势报告上游调用失败")
		return nil, err
	}
	return report, nil
}
