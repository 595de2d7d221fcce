// Package insight 实现 ContentAnalysisPort：通过 HTTP 调用外部内容分析服务。
// 上游状态码映射：429→限流（可重试）、402→配额耗尽（不可重试）、其余非 2xx→不可用；
// 2xx 但响应体不合法时回退为中性判定，绝不做未检查的字段访问。
package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"ReviewGuard/internal/common"
	"ReviewGuard/internal/config"
	"ReviewGuard/internal/interfaces"
	"ReviewGuard/internal/utils/httpclient"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Client 内容分析服务客户端
type Client struct {
	baseURL    string
	authToken  string
	retryCount int
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient 创建内容分析客户端
func NewClient(cfg *config.AnalysisConfig, logger *logrus.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		authToken:  cfg.AuthToken,
		retryCount: cfg.RetryCount,
		httpClient: httpclient.NewHTTPClient(cfg, logger),
		logger:     logger,
	}
}

// analyzeResponse 分析接口响应体（严格模式解码）
type analyzeResponse struct {
	IsSuspicious bool     `json:"is_suspicious"`
	Confidence   *float64 `json:"confidence"` // 指针：缺失即视为响应不合法
	Reasons      []string `json:"reasons"`
	Sentiment    string   `json:"sentiment"`
	Keywords     []string `json:"keywords"`
}

// Analyze 对单条评价做可疑判定
func (c *Client) Analyze(ctx context.Context, req *interfaces.AnalysisRequest) (*interfaces.AnalysisResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("序列化分析请求失败: %w", err)
	}

	respBody, status, err := c.post(ctx, "/v1/analyze/review", body)
	if err != nil {
		return nil, err
	}
	if err := mapStatus(status, respBody); err != nil {
		c.logger.WithField("status", status).WithField("body", truncate(respBody, 256)).Warn("内容分析服务返回错误")
		return nil, err
	}

	var result analyzeResponse
	if err := json.Unmarshal(respBody, &result); err != nil || result.Confidence == nil {
		// 非JSON或关键字段缺失：回退中性判定，不让一次脏响应影响提交链路
		c.logger.WithField("body", truncate(respBody, 256)).Warn("内容分析响应不合法，使用中性兜底判定")
		return interfaces.NeutralAnalysisResult(), nil
	}

	out := &interfaces.AnalysisResult{
		IsSuspicious: result.IsSuspicious,
		Confidence:   clamp01(*result.Confidence),
		Reasons:      result.Reasons,
		Sentiment:    normalizeSentiment(result.Sentiment),
		Keywords:     result.Keywords,
	}
	if out.Reasons == nil {
		out.Reasons = []string{}
	}
	if out.Keywords == nil {
		out.Keywords = []string{}
	}
	return out, nil
}

// trendsRequest 公司趋势请求体
type trendsRequest struct {
	CompanyID uint64   `json:"companyId"`
	Corpus    []string `json:"corpus"`
}

// CompanyTrends 基于评价语料生成公司关键词/趋势报告
func (c *Client) CompanyTrends(ctx context.Context, companyID uint64, corpus []string) (*interfaces.TrendReport, error) {
	body, err := json.Marshal(trendsRequest{CompanyID: companyID, Corpus: corpus})
	if err != nil {
		return nil, fmt.Errorf("序列化趋势请求失败: %w", err)
	}

	respBody, status, err := c.post(ctx, "/v1/analyze/company-trends", body)
	if err != nil {
		return nil, err
	}
	if err := mapStatus(status, respBody); err != nil {
		return nil, err
	}

	var report interfaces.TrendReport
	if err := json.Unmarshal(respBody, &report); err != nil {
		c.logger.WithField("body", truncate(respBody, 256)).Warn("趋势分析响应解析失败")
		return nil, fmt.Errorf("%w: 趋势响应不合法", common.ErrUpstreamUnavailable)
	}
	return &report, nil
}

// post 发送请求并读取完整响应体。仅对传输层错误按 retry_count 重试，
// 业务状态码（含 429/402）不在此处重试，由调用方决定策略。
func (c *Client) post(ctx context.Context, path string, body []byte) ([]byte, int, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retryCount; attempt++ {
		req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, 0, fmt.Errorf("构建分析请求失败: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Idempotency-Key", uuid.New().String())
		if c.authToken != "" {
			req.Header.Set("Authorization", "Bearer "+c.authToken)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break // 上下文已取消/超时，重试无意义
			}
			c.logger.WithError(err).WithField("attempt", attempt).Warn("内容分析服务请求失败")
			continue
		}
		respBody, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}
		return respBody, resp.StatusCode, nil
	}
	return nil, 0, fmt.Errorf("%w: %v", common.ErrUpstreamUnavailable, lastErr)
}

// mapStatus 上游状态码映射为哨兵错误
func mapStatus(status int, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w (429)", common.ErrUpstreamRateLimited)
	case status == http.StatusPaymentRequired:
		return fmt.Errorf("%w (402)", common.ErrUpstreamPaymentRequired)
	default:
		return fmt.Errorf("%w: 上游返回 %d: %s", common.ErrUpstreamUnavailable, status, truncate(body, 128))
	}
}

// IsRetryable 限流类错误可稍后重试；配额耗尽需要人工介入
func IsRetryable(err error) bool {
	return errors.Is(err, common.ErrUpstreamRateLimited)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func normalizeSentiment(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case interfaces.SentimentPositive:
		return interfaces.SentimentPositive
	case interfaces.SentimentNegative:
		return interfaces.SentimentNegative
	default:
		return interfaces.SentimentNeutral
	}
}

func truncate(b []byte, n int) string {
	s := string(b)
	if len(s) > n {
		return s[:n]
	}
	return s
}
