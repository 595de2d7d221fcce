package api

import (
	"net/http"

	"ReviewGuard/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ContestHandler 赛事管理接口
type ContestHandler struct {
	contestService *service.ContestService
	logger         *logrus.Logger
}

// NewContestHandler 创建 ContestHandler
func NewContestHandler(db *gorm.DB, logger *logrus.Logger, gamification *service.GamificationService) *ContestHandler {
	return &ContestHandler{
		contestService: service.NewContestService(db, logger, gamification),
		logger:         logger,
	}
}

// CreateContest 创建赛事 POST /api/contests（审核员及以上）
func (h *ContestHandler) CreateContest(c *gin.Context) {
	var input service.ContestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	contest, err := h.contestService.Create(c.Request.Context(), principalFrom(c), &input)
	if err != nil {
		h.logger.WithError(err).Error("CreateContest failed")
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contest)
}

// EndContest 结束赛事 POST /api/contests/:contest_uuid/end（不可逆，榜首领奖）
func (h *ContestHandler) EndContest(c *gin.Context) {
	contestUUID := c.Param("contest_uuid")
	if contestUUID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "contest_uuid is required"})
		return
	}
	if err := h.contestService.End(c.Request.Context(), principalFrom(c), contestUUID); err != nil {
		h.logger.WithError(err).Error("EndContest failed")
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "赛事已结束"})
}

// ListActiveContests 活跃赛事 GET /api/contests/active
func (h *ContestHandler) ListActiveContests(c *gin.Context) {
	views, err := h.contestService.ListActive(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("ListActiveContests failed")
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}
