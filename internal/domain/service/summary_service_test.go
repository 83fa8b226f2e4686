package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaegunS/true-ai-builders/internal/domain/model"
)

// chatCall 记录一次对话补全调用的参数
type chatCall struct {
	System      string
	User        string
	Temperature float64
}

// fakeAIClient 实现AIClient接口的测试桩
type fakeAIClient struct {
	responses []string
	err       error
	calls     []chatCall
}

func (f *fakeAIClient) ChatCompletion(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error) {
	f.calls = append(f.calls, chatCall{System: systemPrompt, User: userPrompt, Temperature: temperature})
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", nil
	}
	// 依次返回预设响应，最后一个响应重复使用
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return resp, nil
}

func (f *fakeAIClient) GetRateLimits() RateLimit {
	return RateLimit{}
}

func testArticles() []model.Article {
	return []model.Article{
		{Title: "OpenAI ships X", Description: "A new model release.", Content: "Full details of the release."},
		{Title: "Startup Y raises Z", Description: "A large funding round.", Content: "The startup announced its round."},
	}
}

func TestFormatArticles(t *testing.T) {
	formatted := FormatArticles(testArticles())

	expected := "[1] OpenAI ships X\nA new model release.\nFull details of the release.\n\n" +
		"[2] Startup Y raises Z\nA large funding round.\nThe startup announced its round."
	assert.Equal(t, expected, formatted)
}

func TestFormatArticlesPreservesOrder(t *testing.T) {
	articles := []model.Article{
		{Title: "first"},
		{Title: "second"},
		{Title: "third"},
	}
	formatted := FormatArticles(articles)

	// 编号从1开始且与到达顺序一致
	assert.Contains(t, formatted, "[1] first")
	assert.Contains(t, formatted, "[2] second")
	assert.Contains(t, formatted, "[3] third")
}

func TestFormatArticlesEmpty(t *testing.T) {
	assert.Equal(t, "", FormatArticles(nil))
}

func TestSummarize(t *testing.T) {
	ai := &fakeAIClient{responses: []string{"  A digest about two stories.  "}}
	svc := NewSummaryService(ai)

	result, err := svc.Summarize(context.Background(), testArticles())

	require.NoError(t, err)
	assert.Equal(t, "A digest about two stories.", result.SummaryText)
	assert.Equal(t, FormatArticles(testArticles()), result.SourceText)

	// 单次调用，温度0.4，用户消息为拼接后的原文
	require.Len(t, ai.calls, 1)
	assert.Equal(t, summarySystemPrompt, ai.calls[0].System)
	assert.Equal(t, result.SourceText, ai.calls[0].User)
	assert.Equal(t, summaryTemperature, ai.calls[0].Temperature)
}

func TestSummarizeEmptyBatchSkipsModel(t *testing.T) {
	ai := &fakeAIClient{responses: []string{"should not be used"}}
	svc := NewSummaryService(ai)

	result, err := svc.Summarize(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, model.SummaryResult{}, result)
	// 空批次不触发模型调用
	assert.Empty(t, ai.calls)
}

func TestSummarizeEmptyCompletion(t *testing.T) {
	ai := &fakeAIClient{}
	svc := NewSummaryService(ai)

	result, err := svc.Summarize(context.Background(), testArticles())

	// 空补全不是错误，返回空摘要
	require.NoError(t, err)
	assert.Equal(t, "", result.SummaryText)
	assert.NotEmpty(t, result.SourceText)
}

func TestSummarizeClientError(t *testing.T) {
	ai := &fakeAIClient{err: errors.New("API认证失败(401)")}
	svc := NewSummaryService(ai)

	_, err := svc.Summarize(context.Background(), testArticles())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "生成摘要失败")
}
