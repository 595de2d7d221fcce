package interfaces

import "context"

// 情感倾向
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// AnalysisRequest 内容分析请求
type AnalysisRequest struct {
	ReviewID  string `json:"reviewId"`
	Content   string `json:"content"`
	CompanyID uint64 `json:"companyId"`
	UserID    uint64 `json:"userId"`
}

// AnalysisResult 内容分析判定结果
type AnalysisResult struct {
	IsSuspicious bool     `json:"is_suspicious"`
	Confidence   float64  `json:"confidence"` // 0-1
	Reasons      []string `json:"reasons"`    // 有序原因列表
	Sentiment    string   `json:"sentiment"`  // positive/negative/neutral
	Keywords     []string `json:"keywords"`
}

// NeutralAnalysisResult 中性兜底判定：响应格式异常时使用，绝不视为可信或可疑的证据
func NeutralAnalysisResult() *AnalysisResult {
	return &AnalysisResult{
		IsSuspicious: false,
		Confidence:   0.5,
		Reasons:      []string{},
		Sentiment:    SentimentNeutral,
		Keywords:     []string{},
	}
}

// TrendReport 公司关键词/趋势报告（只读报表能力）
type TrendReport struct {
	PositiveKeywords []string `json:"positive_keywords"`
	NegativeKeywords []string `json:"negative_keywords"`
	Strengths        []string `json:"strengths"`
	Weaknesses       []string `json:"weaknesses"`
	CommonThemes     []string `json:"common_themes"`
	SentimentScore   float64  `json:"sentiment_score"` // 0-100
	Recommendation   string   `json:"recommendation"`
}

// ContentAnalysisPort 外部内容分析能力的固定契约。核心只依赖该接口，不绑定任何厂商。
// 实现方须把上游 429/402 映射为 common.ErrUpstreamRateLimited / ErrUpstreamPaymentRequired，
// 其余非 2xx 与传输错误映射为 common.ErrUpstreamUnavailable。
type ContentAnalysisPort interface {
	// Analyze 对单条评价正文做可疑判定
	Analyze(ctx context.Context, req *AnalysisRequest) (*AnalysisResult, error)
	// CompanyTrends 基于评价语料生成公司关键词/趋势报告
	CompanyTrends(ctx context.Context, companyID uint64, corpus []string) (*TrendReport, error)
}
