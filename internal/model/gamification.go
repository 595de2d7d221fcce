package model

import "time"

// 徽章类型枚举
const (
	BadgeFirstReview     = "first_review"
	BadgeTenReviews      = "ten_reviews"
	BadgeFiftyReviews    = "fifty_reviews"
	BadgeTrustedReviewer = "trusted_reviewer"
	BadgeContestWinner   = "contest_winner"
)

// BadgeMeta 徽章展示信息（静态目录，UI 只读渲染）
type BadgeMeta struct {
	Name        string
	Icon        string
	Description string
}

// BadgeCatalog badge_type -> 展示信息。新增徽章只需在此登记并在评估规则里实现判定。
var BadgeCatalog = map[string]BadgeMeta{
	BadgeFirstReview:     {Name: "First Review", Icon: "✍️", Description: "Published the first approved review"},
	BadgeTenReviews:      {Name: "Regular Reviewer", Icon: "📝", Description: "10 approved reviews"},
	BadgeFiftyReviews:    {Name: "Top Contributor", Icon: "🏅", Description: "50 approved reviews"},
	BadgeTrustedReviewer: {Name: "Trusted Reviewer", Icon: "🛡️", Description: "Consistently high trust scores"},
	BadgeContestWinner:   {Name: "Contest Winner", Icon: "🏆", Description: "Won a review contest"},
}

// UserBadge 对应 user_badges 表。(user_id, badge_type) 唯一：授予幂等，不重复、不自动撤销。
type UserBadge struct {
	ID          uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	UserID      uint64    `gorm:"column:user_id;type:bigint;not null;uniqueIndex:uk_user_badge;comment:用户ID"`
	BadgeType   string    `gorm:"column:badge_type;type:varchar(32);not null;uniqueIndex:uk_user_badge;comment:徽章类型"`
	Name        string    `gorm:"column:name;type:varchar(64);not null;comment:展示名称"`
	Icon        string    `gorm:"column:icon;type:varchar(16);comment:展示图标"`
	Description string    `gorm:"column:description;type:varchar(256);comment:展示描述"`
	EarnedAt    time.Time `gorm:"column:earned_at;autoCreateTime;comment:获得时间"`
}

// PointsEntry 对应 points_entries 表，积分流水（只追加）。
// 排行榜与积分总额永远是对该表的 SUM 投影，不落地可漂移的累计字段。
type PointsEntry struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    uint64    `gorm:"column:user_id;type:bigint;not null;index;comment:用户ID"`
	Delta     int       `gorm:"column:delta;type:int;not null;comment:积分变动"`
	Reason    string    `gorm:"column:reason;type:varchar(64);not null;comment:流水原因"`
	ReviewID  *uint64   `gorm:"column:review_id;type:bigint;comment:关联评价ID，可空"`
	ContestID *uint64   `gorm:"column:contest_id;type:bigint;comment:关联赛事ID，可空"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// 赛事状态
const (
	ContestStatusActive = "active"
	ContestStatusEnded  = "ended"
)

// Contest 对应 contests 表。active→ended 单向流转；读路径把 end_time 已过视为隐式结束。
type Contest struct {
	ID          uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	ContestUUID string    `gorm:"column:contest_uuid;type:varchar(64);uniqueIndex;not null;comment:全局唯一ID"`
	Title       string    `gorm:"column:title;type:varchar(128);not null;comment:赛事标题"`
	Description string    `gorm:"column:description;type:text;comment:赛事描述"`
	StartTime   time.Time `gorm:"column:start_time;not null;comment:开始时间"`
	EndTime     time.Time `gorm:"column:end_time;not null;comment:结束时间"`
	PrizePoints int       `gorm:"column:prize_points;type:int;default:0;comment:奖励积分"`
	PrizeText   string    `gorm:"column:prize_text;type:varchar(256);comment:奖品描述"`
	Status      string    `gorm:"column:status;type:varchar(16);default:active;comment:active/ended"`
	CreatedBy   uint64    `gorm:"column:created_by;type:bigint;not null;comment:创建者（版主）用户ID"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// LeaderboardEntry 排行榜单行，读时从评价/徽章/积分事实重算的投影，不入库
type LeaderboardEntry struct {
	Rank         int    `json:"rank"`
	UserID       uint64 `json:"user_id"`
	UserName     string `json:"user_name"`
	TotalPoints  int    `json:"total_points"`
	TotalReviews int    `json:"total_reviews"`
	TotalHelpful int    `json:"total_helpful"`
	BadgeCount   int    `json:"badge_count"`
}

func (UserBadge) TableName() string   { return "user_badges" }
func (PointsEntry) TableName() string { return "points_entries" }
func (Contest) TableName() string     { return "contests" }
