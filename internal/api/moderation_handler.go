package api

import (
	"net/http"
	"strconv"

	"ReviewGuard/internal/common"
	"ReviewGuard/internal/metrics"
	"ReviewGuard/internal/repository"
	"ReviewGuard/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ModerationHandler 审核流转、审计流与欺诈日志读模型接口（均需审核员权限）
type ModerationHandler struct {
	moderationService *service.ModerationService
	auditService      *service.AuditService
	fraudRepo         repository.FraudLogRepository
	logger            *logrus.Logger
}

// NewModerationHandler 创建 ModerationHandler
func NewModerationHandler(db *gorm.DB, logger *logrus.Logger, gamification *service.GamificationService, mtr *metrics.Metrics) *ModerationHandler {
	return &ModerationHandler{
		moderationService: service.NewModerationService(db, logger, gamification, mtr),
		auditService:      service.NewAuditService(db),
		fraudRepo:         repository.NewFraudLogRepository(db),
		logger:            logger,
	}
}

// Transition 单条审核流转 POST /api/moderation/:entity_type/:id/:action
func (h *ModerationHandler) Transition(c *gin.Context) {
	entityType := c.Param("entity_type")
	action := c.Param("action")
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
		return
	}
	if err := h.moderationService.Transition(c.Request.Context(), principalFrom(c), entityType, id, action); err != nil {
		h.logger.WithError(err).Error("Transition failed")
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "流转成功"})
}

// BulkModerateRequest 批量审核请求 body
type BulkModerateRequest struct {
	EntityType string   `json:"entity_type"` // review/company
	IDs        []uint64 `json:"ids"`
	Action     string   `json:"action"` // approve/reject/delete
}

// BulkModerate 批量审核 POST /api/moderation/bulk（全部成功或全部回滚）
func (h *ModerationHandler) BulkModerate(c *gin.Context) {
	var req BulkModerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	result, err := h.moderationService.BulkModerate(c.Request.Context(), principalFrom(c), req.EntityType, req.IDs, req.Action)
	if err != nil {
		h.logger.WithError(err).Error("BulkModerate failed")
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// AuditFeed 审计流 GET /api/audit/feed?search=&entity_type=all&limit=100
func (h *ModerationHandler) AuditFeed(c *gin.Context) {
	filter := repository.AuditFilter{
		Search:     c.Query("search"),
		EntityType: c.DefaultQuery("entity_type", "all"),
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	entries, err := h.auditService.Search(c.Request.Context(), principalFrom(c), filter, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// FraudLogs 欺诈日志读模型 GET /api/fraud/logs?limit=50
func (h *ModerationHandler) FraudLogs(c *gin.Context) {
	principal := principalFrom(c)
	if !principal.IsModerator() {
		respondError(c, common.ErrForbidden)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	logs, err := h.fraudRepo.ListRecent(c.Request.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("FraudLogs failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	summary, err := h.fraudRepo.Summary(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("FraudSummary failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs, "summary": summary})
}
