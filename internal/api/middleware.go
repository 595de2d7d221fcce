package api

import (
	"net/http"
	"strconv"

	"ReviewGuard/internal/model"
	"ReviewGuard/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const principalKey = "principal"

// PrincipalMiddleware 从 X-User-ID 解析调用方身份。注册登录在网关侧完成，
// 本服务只信任网关注入的用户ID；缺失或无法解析一律 401。
func PrincipalMiddleware(db *gorm.DB, logger *logrus.Logger) gin.HandlerFunc {
	userRepo := repository.NewUserRepository(db)
	return func(c *gin.Context) {
		raw := c.GetHeader("X-User-ID")
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "缺少用户身份"})
			return
		}
		userID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || userID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "用户身份格式错误"})
			return
		}
		user, err := userRepo.GetUserByID(c.Request.Context(), userID)
		if err != nil {
			logger.WithField("user_id", userID).Warn("身份解析失败")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "未知用户"})
			return
		}
		if !user.IsActive {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "用户已停用"})
			return
		}
		c.Set(principalKey, model.Principal{UserID: user.ID, Name: user.Name, Role: user.Role})
		c.Next()
	}
}

// principalFrom 读取中间件注入的身份
func principalFrom(c *gin.Context) model.Principal {
	v, _ := c.Get(principalKey)
	p, _ := v.(model.Principal)
	return p
}
