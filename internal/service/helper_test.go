package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"ReviewGuard/internal/config"
	"ReviewGuard/internal/interfaces"
	"ReviewGuard/internal/model"
	"ReviewGuard/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB 每个测试一个独立的内存库（共享缓存保证同库多连接可见）
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Company{},
		&model.Review{},
		&model.ReviewReply{},
		&model.FraudLog{},
		&model.AuditLogEntry{},
		&model.UserBadge{},
		&model.PointsEntry{},
		&model.Contest{},
	))
	return db
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testFraudConfig() config.FraudConfig {
	return config.FraudConfig{
		SimilarityThreshold: 0.8,
		MaxTypingWPM:        200,
		RapidWindow:         10 * time.Minute,
		RapidMaxCount:       3,
		IPWindow:            24 * time.Hour,
		IPMaxUsers:          3,
		RecentCorpusSize:    50,
	}
}

func testPointsPolicy() *ConfigPointsPolicy {
	return NewConfigPointsPolicy(config.GamificationConfig{
		PointsPerApproved: 10,
		PointsPerHelpful:  2,
		ContestBonus:      5,
	})
}

func seedUser(t *testing.T, db *gorm.DB, name, role string) *model.User {
	t.Helper()
	user := &model.User{Name: name, Role: role, NotifyOnReply: true, IsActive: true}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedCompany(t *testing.T, db *gorm.DB, name string, ownerID uint64) *model.Company {
	t.Helper()
	company := &model.Company{Name: name, OwnerUserID: ownerID, Status: model.ReviewStatusApproved}
	require.NoError(t, db.Create(company).Error)
	return company
}

func seedReview(t *testing.T, db *gorm.DB, userID, companyID uint64, content, status string) *model.Review {
	t.Helper()
	review := &model.Review{
		ReviewUUID: uuid.New().String(),
		UserID:     userID,
		CompanyID:  companyID,
		Content:    content,
		Rating:     4,
		Status:     status,
	}
	require.NoError(t, db.Create(review).Error)
	return review
}

func principalOf(user *model.User) model.Principal {
	return model.Principal{UserID: user.ID, Name: user.Name, Role: user.Role}
}

// stubAnalysis 可编程的内容分析桩
type stubAnalysis struct {
	result *interfaces.AnalysisResult
	err    error
	calls  int
}

func (s *stubAnalysis) Analyze(_ context.Context, _ *interfaces.AnalysisRequest) (*interfaces.AnalysisResult, error) {
	s.calls++
	return s.result, s.err
}

func (s *stubAnalysis) CompanyTrends(_ context.Context, _ uint64, _ []string) (*interfaces.TrendReport, error) {
	s.calls++
	return &interfaces.TrendReport{SentimentScore: 75, Recommendation: "ok"}, nil
}

func newCollector(db *gorm.DB) *FraudSignalCollector {
	return NewFraudSignalCollector(
		repository.NewReviewRepository(db),
		repository.NewFraudLogRepository(db),
		testFraudConfig(), testLogger())
}
