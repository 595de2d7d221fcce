package api

import (
	"net/http"
	"strconv"

	"ReviewGuard/internal/common"
	"ReviewGuard/internal/model"
	"ReviewGuard/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// InsightHandler 趋势报告与评分补偿接口
type InsightHandler struct {
	trendService *service.TrendService
	engine       *service.TrustScoreEngine
	batchSize    int
	logger       *logrus.Logger
}

// NewInsightHandler 创建 InsightHandler。engine 与 ReviewHandler 共享同一实例。
func NewInsightHandler(trendService *service.TrendService, engine *service.TrustScoreEngine, batchSize int, logger *logrus.Logger) *InsightHandler {
	return &InsightHandler{
		trendService: trendService,
		engine:       engine,
		batchSize:    batchSize,
		logger:       logger,
	}
}

// CompanyTrends 公司趋势报告 GET /api/companies/:company_id/trends
func (h *InsightHandler) CompanyTrends(c *gin.Context) {
	companyID, err := strconv.ParseUint(c.Param("company_id"), 10, 64)
	if err != nil || companyID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "company_id is required"})
		return
	}
	report, err := h.trendService.CompanyTrendReport(c.Request.Context(), companyID)
	if err != nil {
		h.logger.WithError(err).Error("CompanyTrends failed")
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// BackfillScores 手动触发评分补偿 POST /api/admin/backfill-scores（仅管理员）
func (h *InsightHandler) BackfillScores(c *gin.Context) {
	principal := principalFrom(c)
	if principal.Role != model.RoleAdmin {
		respondError(c, common.ErrForbidden)
		return
	}
	scored, err := h.engine.BackfillUnscored(c.Request.Context(), h.batchSize)
	if err != nil {
		h.logger.WithError(err).Error("BackfillScores failed")
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scored": scored})
}
