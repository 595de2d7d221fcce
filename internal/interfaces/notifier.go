package interfaces

import "context"

// 通知事件类型
const (
	NotifyReviewCreated = "review_created"
	NotifyReviewReplied = "review_replied"
)

// NotificationEvent 核心产出的通知事件。投递逻辑完全在外部协作方，核心只负责发出。
type NotificationEvent struct {
	Type         string // review_created / review_replied
	TargetUserID uint64 // 接收者
	ReviewID     uint64
	CompanyID    uint64
	Message      string
}

// Notifier 邮件/站内信等通知能力的出口
type Notifier interface {
	Notify(ctx context.Context, ev *NotificationEvent) error
}
