// Package metrics 暴露核心链路的 Prometheus 计数器，经 /metrics 抓取。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 核心链路计数器集合
type Metrics struct {
	// ReviewsScored 完成评分的评价数，label result=scored/fallback
	ReviewsScored *prometheus.CounterVec
	// ReviewsFlagged 被标记待人工关注的评价数
	ReviewsFlagged prometheus.Counter
	// ModerationActions 审核动作数，label action=approve/reject/delete
	ModerationActions *prometheus.CounterVec
	// UpstreamErrors 分析服务错误数，label kind=rate_limited/payment_required/unavailable
	UpstreamErrors *prometheus.CounterVec
}

// New 创建并注册指标。registry 为 nil 时使用默认注册表。
func New(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		ReviewsScored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reviewguard_reviews_scored_total",
			Help: "Reviews that received a persisted trust score",
		}, []string{"result"}),
		ReviewsFlagged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reviewguard_reviews_flagged_total",
			Help: "Reviews flagged for moderator attention",
		}),
		ModerationActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reviewguard_moderation_actions_total",
			Help: "Moderation transitions applied",
		}, []string{"action"}),
		UpstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reviewguard_upstream_errors_total",
			Help: "Content analysis upstream errors",
		}, []string{"kind"}),
	}
	registry.MustRegister(m.ReviewsScored, m.ReviewsFlagged, m.ModerationActions, m.UpstreamErrors)
	return m
}

// NewForTest 不注册到全局注册表的实例（测试用，避免重复注册 panic）
func NewForTest() *Metrics {
	return New(prometheus.NewRegistry())
}
