package service

import (
	"context"
	"testing"
	"time"

	"ReviewGuard/internal/common"
	"ReviewGuard/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaysRemaining(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		end  time.Time
		want int
	}{
		{"36小时按天向上取整", now.Add(36 * time.Hour), 2},
		{"不足一天算一天", now.Add(2 * time.Hour), 1},
		{"整24小时", now.Add(24 * time.Hour), 1},
		{"刚好到期", now, 0},
		{"已过期不出现负数", now.Add(-48 * time.Hour), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DaysRemaining(tc.end, now))
		})
	}
}

func TestContestCreateValidation(t *testing.T) {
	db := newTestDB(t)
	moderator := seedUser(t, db, "审核员王五", model.RoleModerator)
	user := seedUser(t, db, "张三", model.RoleUser)
	gamification := NewGamificationService(db, testLogger(), testPointsPolicy())
	svc := NewContestService(db, testLogger(), gamification)
	ctx := context.Background()

	// 普通用户无权创建
	_, err := svc.Create(ctx, principalOf(user), &ContestInput{Title: "月度评价赛", EndTime: time.Now().Add(72 * time.Hour)})
	assert.ErrorIs(t, err, common.ErrForbidden)

	// 标题为空
	_, err = svc.Create(ctx, principalOf(moderator), &ContestInput{Title: "  ", EndTime: time.Now().Add(72 * time.Hour)})
	assert.ErrorIs(t, err, common.ErrValidation)

	// 结束时间缺失
	_, err = svc.Create(ctx, principalOf(moderator), &ContestInput{Title: "月度评价赛"})
	assert.ErrorIs(t, err, common.ErrValidation)

	// 结束早于开始
	start := time.Now().Add(48 * time.Hour)
	_, err = svc.Create(ctx, principalOf(moderator), &ContestInput{Title: "月度评价赛", StartTime: start, EndTime: start.Add(-time.Hour)})
	assert.ErrorIs(t, err, common.ErrValidation)

	// 校验失败不产生任何落库
	var count int64
	require.NoError(t, db.Model(&model.Contest{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestContestCreateAndListActive(t *testing.T) {
	db := newTestDB(t)
	moderator := seedUser(t, db, "审核员王五", model.RoleModerator)
	gamification := NewGamificationService(db, testLogger(), testPointsPolicy())
	svc := NewContestService(db, testLogger(), gamification)
	ctx := context.Background()

	contest, err := svc.Create(ctx, principalOf(moderator), &ContestInput{
		Title:       "月度评价赛",
		EndTime:     time.Now().Add(36 * time.Hour),
		PrizePoints: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, model.ContestStatusActive, contest.Status)

	// 创建写审计
	var auditCount int64
	require.NoError(t, db.Model(&model.AuditLogEntry{}).Where("entity_type = ?", model.EntityTypeContest).Count(&auditCount).Error)
	assert.EqualValues(t, 1, auditCount)

	views, err := svc.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, contest.ContestUUID, views[0].ContestUUID)
	assert.Equal(t, 2, views[0].DaysRemaining)
}

func TestListActiveExcludesElapsed(t *testing.T) {
	db := newTestDB(t)
	gamification := NewGamificationService(db, testLogger(), testPointsPolicy())
	svc := NewContestService(db, testLogger(), gamification)

	// status 仍为 active 但 end_time 已过：无人触发 End 也不得出现在活跃列表
	elapsed := &model.Contest{
		ContestUUID: "c-elapsed",
		Title:       "过期赛事",
		StartTime:   time.Now().Add(-72 * time.Hour),
		EndTime:     time.Now().Add(-time.Hour),
		Status:      model.ContestStatusActive,
		CreatedBy:   1,
	}
	require.NoError(t, db.Create(elapsed).Error)

	views, err := svc.ListActive(context.Background())
	require.NoError(t, err)
	assert.Empty(t, views)

	// 落库状态不被读路径篡改
	var got model.Contest
	require.NoError(t, db.First(&got, elapsed.ID).Error)
	assert.Equal(t, model.ContestStatusActive, got.Status)
}

func TestContestEndAwardsWinnerOnce(t *testing.T) {
	db := newTestDB(t)
	moderator := seedUser(t, db, "审核员王五", model.RoleModerator)
	u1 := seedUser(t, db, "甲", model.RoleUser)
	u2 := seedUser(t, db, "乙", model.RoleUser)
	gamification := NewGamificationService(db, testLogger(), testPointsPolicy())
	svc := NewContestService(db, testLogger(), gamification)
	ctx := context.Background()

	contest, err := svc.Create(ctx, principalOf(moderator), &ContestInput{
		Title:       "月度评价赛",
		EndTime:     time.Now().Add(24 * time.Hour),
		PrizePoints: 100,
	})
	require.NoError(t, err)

	// 期内流水：u2 领先
	require.NoError(t, db.Create(&model.PointsEntry{UserID: u1.ID, Delta: 5, Reason: PointsReasonContestBonus, ContestID: &contest.ID}).Error)
	require.NoError(t, db.Create(&model.PointsEntry{UserID: u2.ID, Delta: 15, Reason: PointsReasonContestBonus, ContestID: &contest.ID}).Error)

	require.NoError(t, svc.End(ctx, principalOf(moderator), contest.ContestUUID))

	var got model.Contest
	require.NoError(t, db.First(&got, contest.ID).Error)
	assert.Equal(t, model.ContestStatusEnded, got.Status)

	// 榜首获得奖励积分与赛事徽章
	var prize model.PointsEntry
	require.NoError(t, db.Where("reason = ?", PointsReasonContestPrize).First(&prize).Error)
	assert.Equal(t, u2.ID, prize.UserID)
	assert.Equal(t, 100, prize.Delta)

	var badge model.UserBadge
	require.NoError(t, db.Where("user_id = ? AND badge_type = ?", u2.ID, model.BadgeContestWinner).First(&badge).Error)

	// 重复结束：状态冲突，不二次发奖
	err = svc.End(ctx, principalOf(moderator), contest.ContestUUID)
	assert.ErrorIs(t, err, common.ErrContestEnded)
	var prizeCount int64
	require.NoError(t, db.Model(&model.PointsEntry{}).Where("reason = ?", PointsReasonContestPrize).Count(&prizeCount).Error)
	assert.EqualValues(t, 1, prizeCount)
}

func TestContestEndNotFound(t *testing.T) {
	db := newTestDB(t)
	moderator := seedUser(t, db, "审核员王五", model.RoleModerator)
	gamification := NewGamificationService(db, testLogger(), testPointsPolicy())
	svc := NewContestService(db, testLogger(), gamification)
	err := svc.End(context.Background(), principalOf(moderator), "missing-uuid")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
