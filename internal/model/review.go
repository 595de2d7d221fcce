package model

import (
	"time"

	"gorm.io/datatypes"
)

// 评价生命周期状态
const (
	ReviewStatusDraft    = "draft"
	ReviewStatusPending  = "pending"
	ReviewStatusApproved = "approved"
	ReviewStatusRejected = "rejected"
	ReviewStatusDeleted  = "deleted" // 终态，不可逆
)

// 欺诈类型枚举（优先级 ip_abuse > duplicate_content > bot_behavior > rapid_submission > none，先命中者生效）
const (
	FraudTypeIPAbuse         = "ip_abuse"
	FraudTypeDuplicate       = "duplicate_content"
	FraudTypeBotBehavior     = "bot_behavior"
	FraudTypeRapidSubmission = "rapid_submission"
	FraudTypeNone            = "none"
)

// Review 对应 reviews 表。trust_score 仅由信任评分引擎写入，status 仅由审核流转写入；
// trust_score=0 表示尚未评分（已评分的取值恒在 [0.1,1.0]）。
type Review struct {
	ID           uint64          `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	ReviewUUID   string          `gorm:"column:review_uuid;type:varchar(64);uniqueIndex;not null;comment:全局唯一ID"`
	UserID       uint64          `gorm:"column:user_id;type:bigint;not null;index;comment:作者用户ID"`
	CompanyID    uint64          `gorm:"column:company_id;type:bigint;not null;index;comment:目标公司ID"`
	Content      string          `gorm:"column:content;type:text;not null;comment:评价正文"`
	Rating       int             `gorm:"column:rating;type:int;not null;comment:总评分1-5"`
	SubRatings   *datatypes.JSON `gorm:"column:sub_ratings;type:jsonb;comment:子评分 service/price/speed/quality"`
	Status       string          `gorm:"column:status;type:varchar(16);default:pending;comment:状态 draft/pending/approved/rejected/deleted"`
	TrustScore   float64         `gorm:"column:trust_score;type:numeric(4,3);default:0;comment:信任分，0表示未评分"`
	IsFlagged    bool            `gorm:"column:is_flagged;type:boolean;default:false;comment:是否被标记待人工关注"`
	FlagReason   *string         `gorm:"column:flag_reason;type:varchar(512);comment:机器生成的标记原因，最多3条拼接"`
	NeedsRescore bool            `gorm:"column:needs_rescore;type:boolean;default:false;index;comment:兜底分待重评标记，补偿任务据此重跑"`
	HelpfulCount int             `gorm:"column:helpful_count;type:int;default:0;comment:有用标记数"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime;comment:创建时间"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime;comment:更新时间"`
}

// FraudLog 对应 fraud_logs 表，每次评分的客观信号快照。只追加，永不更新。
// ReviewID 可空：评价被审核删除后信号记录仍保留。
type FraudLog struct {
	ID              uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	ReviewID        *uint64   `gorm:"column:review_id;type:bigint;index;comment:关联评价ID，可空"`
	UserID          uint64    `gorm:"column:user_id;type:bigint;not null;index;comment:提交用户ID"`
	IPAddress       string    `gorm:"column:ip_address;type:varchar(64);not null;index;comment:来源网络地址"`
	FraudType       string    `gorm:"column:fraud_type;type:varchar(32);not null;comment:欺诈类型分类"`
	RiskScore       float64   `gorm:"column:risk_score;type:numeric(4,3);default:0;comment:风险分 0-1"`
	SimilarityScore float64   `gorm:"column:similarity_score;type:numeric(4,3);default:0;comment:近重复相似度 0-1"`
	IsCopyPaste     bool      `gorm:"column:is_copy_paste;type:boolean;default:false;comment:是否疑似粘贴"`
	TypingSpeedWPM  *float64  `gorm:"column:typing_speed_wpm;type:numeric(8,2);comment:客户端上报输入速度，可空"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
}

// ReviewReply 公司对评价的回复，触发对原作者的通知（若其偏好允许）
type ReviewReply struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	ReviewID  uint64    `gorm:"column:review_id;type:bigint;not null;index;comment:关联评价ID"`
	CompanyID uint64    `gorm:"column:company_id;type:bigint;not null;comment:回复方公司ID"`
	UserID    uint64    `gorm:"column:user_id;type:bigint;not null;comment:回复人（公司所有者）用户ID"`
	Content   string    `gorm:"column:content;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Review) TableName() string      { return "reviews" }
func (FraudLog) TableName() string    { return "fraud_logs" }
func (ReviewReply) TableName() string { return "review_replies" }
