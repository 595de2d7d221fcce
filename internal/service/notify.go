package service

import (
	"context"

	"ReviewGuard/internal/interfaces"

	"github.com/sirupsen/logrus"
)

// LogNotifier 把通知事件写结构化日志的实现，生产环境可替换为邮件/站内信网关
type LogNotifier struct {
	logger *logrus.Logger
}

// NewLogNotifier 创建日志通知器
func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, ev *interfaces.NotificationEvent) error {
	n.logger.WithFields(logrus.Fields{
		"type":      ev.Type,
		"target":    ev.TargetUserID,
		"review_id": ev.ReviewID,
	}).Info("通知事件: " + ev.Message)
	return nil
}

// NoopNotifier 关闭通知时的空实现
type NoopNotifier struct{}

func (NoopNotifier) Notify(_ context.Context, _ *interfaces.NotificationEvent) error { return nil }
