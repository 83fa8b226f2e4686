package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaegunS/true-ai-builders/internal/domain/model"
	"github.com/JaegunS/true-ai-builders/internal/middleware"
)

// newTestOpenAIClient 创建指向测试服务器的OpenAI客户端
func newTestOpenAIClient(serverURL string, metrics *middleware.MetricsCollector) *OpenAIClient {
	return NewOpenAIClient(model.OpenAIConfig{
		APIKey:     "test-key",
		Model:      "gpt-4o-mini",
		MaxTokens:  1024,
		MaxRetries: 1,
		APIUrl:     serverURL,
	}, metrics)
}

func TestChatCompletion(t *testing.T) {
	var gotBody map[string]interface{}
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "  A digest.  "}},
			},
			"usage": map[string]int{"prompt_tokens": 100, "completion_tokens": 50, "total_tokens": 150},
		})
	}))
	defer srv.Close()

	metrics := middleware.NewMetricsCollector()
	client := newTestOpenAIClient(srv.URL, metrics)

	result, err := client.ChatCompletion(context.Background(), "system prompt", "user prompt", 0.4)

	require.NoError(t, err)
	// 补全文本去除首尾空白
	assert.Equal(t, "A digest.", result)
	assert.Equal(t, "Bearer test-key", gotAuth)

	// 请求体包含system/user两条消息和温度
	messages := gotBody["messages"].([]interface{})
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]interface{})["role"])
	assert.Equal(t, "user", messages[1].(map[string]interface{})["role"])
	assert.Equal(t, 0.4, gotBody["temperature"])

	// 令牌使用被记录到指标
	report := metrics.GetReport()
	assert.Equal(t, int64(1), report.APIStats.TotalCalls)
	assert.Equal(t, int64(150), report.APIStats.TokenUsage.TotalTokens)
}

func TestChatCompletionEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	client := newTestOpenAIClient(srv.URL, nil)
	result, err := client.ChatCompletion(context.Background(), "s", "u", 0.4)

	// 补全内容缺失不是错误，返回空字符串
	require.NoError(t, err)
	assert.Equal(t, "", result)
}

func TestChatCompletionAuthErrorNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"error": "invalid api key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewOpenAIClient(model.OpenAIConfig{
		APIKey:     "bad-key",
		Model:      "gpt-4o-mini",
		MaxRetries: 3,
		APIUrl:     srv.URL,
	}, nil)

	_, err := client.ChatCompletion(context.Background(), "s", "u", 0.4)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "认证失败")
	// 认证失败不可重试
	assert.Equal(t, 1, calls)
}

func TestChatCompletionRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": [{"message": {"content": "ok"}}]}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient(model.OpenAIConfig{
		APIKey:   "test-key",
		Model:    "gpt-4o-mini",
		MaxCalls: 1,
		APIUrl:   srv.URL,
	}, nil)

	_, err := client.ChatCompletion(context.Background(), "s", "u", 0.4)
	require.NoError(t, err)

	// 超过调用限额后直接拒绝，不发送请求
	_, err = client.ChatCompletion(context.Background(), "s", "u", 0.4)
	require.Error(t, err)

	var rateErr *middleware.RateLimitError
	assert.ErrorAs(t, err, &rateErr)
}
