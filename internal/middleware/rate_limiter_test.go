package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterEnforcesBudget(t *testing.T) {
	rl := NewRateLimiter(2, time.Hour)

	assert.True(t, rl.Check())
	assert.True(t, rl.Check())
	// 超过限额后拒绝
	assert.False(t, rl.Check())

	status := rl.GetStatus()
	assert.Equal(t, int64(2), status.Used)
	assert.Equal(t, int64(0), status.Remaining)
}

func TestRateLimiterUnlimited(t *testing.T) {
	rl := NewRateLimiter(0, time.Hour)

	// 限额为0表示不限速
	for i := 0; i < 100; i++ {
		assert.True(t, rl.Check())
	}
}

func TestRateLimiterWindowReset(t *testing.T) {
	rl := NewRateLimiter(1, 10*time.Millisecond)

	assert.True(t, rl.Check())
	assert.False(t, rl.Check())

	// 窗口过期后配额重置
	time.Sleep(15 * time.Millisecond)
	assert.True(t, rl.Check())
}

func TestRateLimitErrorMessage(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	rl.Check()
	rl.Check()

	err := &RateLimitError{Status: rl.GetStatus()}
	assert.Contains(t, err.Error(), "1/1")
}

func TestMetricsCollectorReport(t *testing.T) {
	m := NewMetricsCollector()

	m.RecordAPICall(100*time.Millisecond, TokenUsage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30}, true)
	m.RecordAPICall(200*time.Millisecond, TokenUsage{}, false)
	m.RecordArticlesFetched(5)
	m.RecordOutput(300, 120)

	report := m.GetReport()
	assert.Equal(t, int64(2), report.APIStats.TotalCalls)
	assert.Equal(t, int64(1), report.APIStats.Failed)
	assert.Equal(t, 50.0, report.APIStats.SuccessRate)
	assert.Equal(t, int64(150), report.APIStats.AverageLatency)
	assert.Equal(t, int64(30), report.APIStats.TokenUsage.TotalTokens)
	assert.Equal(t, int64(5), report.PipelineStats.ArticlesFetched)
	assert.Equal(t, int64(300), report.PipelineStats.SummaryLength)
}
