package api

import (
	"errors"
	"net/http"

	"ReviewGuard/internal/common"

	"github.com/gin-gonic/gin"
)

// httpStatusFor 业务错误到 HTTP 状态码的固定映射
func httpStatusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrInvalidTransition), errors.Is(err, common.ErrContestEnded):
		return http.StatusConflict
	case errors.Is(err, common.ErrUpstreamRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, common.ErrUpstreamPaymentRequired):
		return http.StatusPaymentRequired
	case errors.Is(err, common.ErrUpstreamUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(httpStatusFor(err), gin.H{"error": err.Error()})
}
