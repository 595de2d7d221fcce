package api

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ReviewGuard/internal/common"
	"ReviewGuard/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newAPITestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}))
	return db
}

func silentLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestPrincipalMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newAPITestDB(t)
	active := &model.User{Name: "张三", Role: model.RoleModerator, IsActive: true}
	require.NoError(t, db.Create(active).Error)
	inactive := &model.User{Name: "停用", Role: model.RoleUser, IsActive: false}
	require.NoError(t, db.Create(inactive).Error)

	r := gin.New()
	r.GET("/whoami", PrincipalMiddleware(db, silentLogger()), func(c *gin.Context) {
		p := principalFrom(c)
		c.JSON(http.StatusOK, gin.H{"user_id": p.UserID, "role": p.Role})
	})

	do := func(userID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", "/whoami", nil)
		if userID != "" {
			req.Header.Set("X-User-ID", userID)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	// 缺失/非法/未知/停用 一律 401
	assert.Equal(t, http.StatusUnauthorized, do("").Code)
	assert.Equal(t, http.StatusUnauthorized, do("abc").Code)
	assert.Equal(t, http.StatusUnauthorized, do("9999").Code)
	assert.Equal(t, http.StatusUnauthorized, do(fmt.Sprint(inactive.ID)).Code)

	// 合法用户放行且身份进入上下文
	w := do(fmt.Sprint(active.ID))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"moderator"`)
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{common.ErrUnauthenticated, http.StatusUnauthorized},
		{common.ErrForbidden, http.StatusForbidden},
		{common.ErrValidation, http.StatusUnprocessableEntity},
		{common.ErrNotFound, http.StatusNotFound},
		{common.ErrInvalidTransition, http.StatusConflict},
		{common.ErrContestEnded, http.StatusConflict},
		{common.ErrUpstreamRateLimited, http.StatusTooManyRequests},
		{common.ErrUpstreamPaymentRequired, http.StatusPaymentRequired},
		{common.ErrUpstreamUnavailable, http.StatusBadGateway},
		{fmt.Errorf("其他错误"), http.StatusInternalServerError},
		{fmt.Errorf("包装后的: %w", common.ErrValidation), http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, httpStatusFor(tc.err), "err=%v", tc.err)
	}
}
