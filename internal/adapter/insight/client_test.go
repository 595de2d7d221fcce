package insight

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"ReviewGuard/internal/common"
	"ReviewGuard/internal/config"
	"ReviewGuard/internal/interfaces"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(baseURL string) *Client {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return NewClient(&config.AnalysisConfig{
		BaseURL:    baseURL,
		Timeout:    2,
		RetryCount: 0,
		AuthToken:  "test-token",
	}, l)
}

func analyzeReq() *interfaces.AnalysisRequest {
	return &interfaces.AnalysisRequest{ReviewID: "r-1", Content: "some review text", CompanyID: 1, UserID: 2}
}

func TestAnalyzeSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/analyze/review", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Idempotency-Key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"is_suspicious":true,"confidence":1.7,"reasons":["dup"],"sentiment":"NEGATIVE"}`))
	}))
	defer srv.Close()

	result, err := testClient(srv.URL).Analyze(context.Background(), analyzeReq())
	require.NoError(t, err)
	assert.True(t, result.IsSuspicious)
	// 越界置信度被钳制到 [0,1]
	assert.InDelta(t, 1.0, result.Confidence, 1e-9)
	assert.Equal(t, []string{"dup"}, result.Reasons)
	assert.Equal(t, interfaces.SentimentNegative, result.Sentiment)
	assert.NotNil(t, result.Keywords)
}

func TestAnalyzeMalformedBodyFallsBackNeutral(t *testing.T) {
	cases := map[string]string{
		"非JSON":   `<html>gateway error</html>`,
		"缺少置信度字段": `{"is_suspicious":true,"reasons":["x"]}`,
		"空对象":     `{}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			result, err := testClient(srv.URL).Analyze(context.Background(), analyzeReq())
			// 脏响应不报错，回退中性判定
			require.NoError(t, err)
			assert.False(t, result.IsSuspicious)
			assert.InDelta(t, 0.5, result.Confidence, 1e-9)
			assert.Equal(t, interfaces.SentimentNeutral, result.Sentiment)
		})
	}
}

func TestAnalyzeStatusMapping(t *testing.T) {
	cases := []struct {
		status  int
		wantErr error
	}{
		{http.StatusTooManyRequests, common.ErrUpstreamRateLimited},
		{http.StatusPaymentRequired, common.ErrUpstreamPaymentRequired},
		{http.StatusInternalServerError, common.ErrUpstreamUnavailable},
		{http.StatusNotFound, common.ErrUpstreamUnavailable},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tc.status)
		}))
		result, err := testClient(srv.URL).Analyze(context.Background(), analyzeReq())
		srv.Close()
		assert.Nil(t, result)
		assert.ErrorIs(t, err, tc.wantErr, "status %d", tc.status)
	}
}

func TestAnalyzeTransportErrorRetries(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		if attempts == 1 {
			// 第一次请求直接断开连接
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			_ = conn.Close()
			return
		}
		_, _ = w.Write([]byte(`{"is_suspicious":false,"confidence":0.4}`))
	}))
	defer srv.Close()

	client := testClient(srv.URL)
	client.retryCount = 1
	result, err := client.Analyze(context.Background(), analyzeReq())
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.InDelta(t, 0.4, result.Confidence, 1e-9)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(common.ErrUpstreamRateLimited))
	assert.False(t, IsRetryable(common.ErrUpstreamPaymentRequired))
	assert.False(t, IsRetryable(common.ErrUpstreamUnavailable))
}

func TestCompanyTrends(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/analyze/company-trends", r.URL.Path)
		_, _ = w.Write([]byte(`{"positive_keywords":["fast"],"negative_keywords":[],"sentiment_score":82,"recommendation":"keep it up"}`))
	}))
	defer srv.Close()

	report, err := testClient(srv.URL).CompanyTrends(context.Background(), 7, []string{"review one", "review two"})
	require.NoError(t, err)
	assert.Equal(t, []string{"fast"}, report.PositiveKeywords)
	assert.InDelta(t, 82, report.SentimentScore, 1e-9)
}
