package api

import (
	"net/http"

	"ReviewGuard/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// GamificationHandler 排行榜、徽章与有用标记接口
type GamificationHandler struct {
	gamification *service.GamificationService
	logger       *logrus.Logger
}

// NewGamificationHandler 创建 GamificationHandler
func NewGamificationHandler(gamification *service.GamificationService, logger *logrus.Logger) *GamificationHandler {
	return &GamificationHandler{gamification: gamification, logger: logger}
}

// Leaderboard 排行榜 GET /api/leaderboard（按积分降序取前 20）
func (h *GamificationHandler) Leaderboard(c *gin.Context) {
	entries, err := h.gamification.Leaderboard(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Leaderboard failed")
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// MyBadges 当前用户徽章 GET /api/badges/me，顺带异步触发一次徽章评估
func (h *GamificationHandler) MyBadges(c *gin.Context) {
	principal := principalFrom(c)
	badges, err := h.gamification.ListBadges(c.Request.Context(), principal.UserID)
	if err != nil {
		h.logger.WithError(err).Error("MyBadges failed")
		respondError(c, err)
		return
	}
	h.gamification.CheckBadgesAsync(principal.UserID)
	c.JSON(http.StatusOK, badges)
}

// MarkHelpful 标记评价有用 POST /api/reviews/:review_uuid/helpful
func (h *GamificationHandler) MarkHelpful(c *gin.Context) {
	reviewUUID := c.Param("review_uuid")
	if reviewUUID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "review_uuid is required"})
		return
	}
	if err := h.gamification.MarkHelpful(c.Request.Context(), principalFrom(c), reviewUUID); err != nil {
		h.logger.WithError(err).Error("MarkHelpful failed")
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "已标记"})
}
