package api

import (
	"net/http"
	"strconv"

	"ReviewGuard/internal/interfaces"
	"ReviewGuard/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ReviewHandler 评价提交/查询/回复接口
type ReviewHandler struct {
	reviewService *service.ReviewService
	logger        *logrus.Logger
}

// NewReviewHandler 创建 ReviewHandler。engine 与补偿任务共享同一实例，notifier 为通知出口。
func NewReviewHandler(db *gorm.DB, logger *logrus.Logger, engine *service.TrustScoreEngine, notifier interfaces.Notifier) *ReviewHandler {
	svc := service.NewReviewService(db, logger, engine, notifier)
	return &ReviewHandler{
		reviewService: svc,
		logger:        logger,
	}
}

// SubmitReview 提交评价 POST /api/reviews
func (h *ReviewHandler) SubmitReview(c *gin.Context) {
	var input service.ReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	input.IPAddress = c.ClientIP()

	review, err := h.reviewService.SubmitReview(c.Request.Context(), principalFrom(c), &input)
	if err != nil {
		if review != nil {
			// 评价已带兜底分落库，限流/扣费状态随评价一起返回，客户端可择机重试评分
			c.JSON(httpStatusFor(err), gin.H{"error": err.Error(), "review": review})
			return
		}
		h.logger.WithError(err).Error("SubmitReview failed")
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

// GetReview 评价详情 GET /api/reviews/:review_uuid
func (h *ReviewHandler) GetReview(c *gin.Context) {
	reviewUUID := c.Param("review_uuid")
	if reviewUUID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "review_uuid is required"})
		return
	}
	review, err := h.reviewService.GetReview(c.Request.Context(), principalFrom(c), reviewUUID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

// ListCompanyReviews 公司评价列表 GET /api/companies/:company_id/reviews?limit=20
func (h *ReviewHandler) ListCompanyReviews(c *gin.Context) {
	companyID, err := strconv.ParseUint(c.Param("company_id"), 10, 64)
	if err != nil || companyID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "company_id is required"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	reviews, err := h.reviewService.ListCompanyReviews(c.Request.Context(), companyID, limit)
	if err != nil {
		h.logger.WithError(err).Error("ListCompanyReviews failed")
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}

// ReplyToReview 公司回复评价 POST /api/reviews/:review_uuid/reply
func (h *ReviewHandler) ReplyToReview(c *gin.Context) {
	reviewUUID := c.Param("review_uuid")
	var input service.ReplyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	reply, err := h.reviewService.ReplyToReview(c.Request.Context(), principalFrom(c), reviewUUID, &input)
	if err != nil {
		h.logger.WithError(err).Error("ReplyToReview failed")
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}
