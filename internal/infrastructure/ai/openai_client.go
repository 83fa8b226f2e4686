package ai

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JaegunS/true-ai-builders/internal/domain/model"
	"github.com/JaegunS/true-ai-builders/internal/domain/service"
	"github.com/JaegunS/true-ai-builders/internal/infrastructure/logger"
	"github.com/JaegunS/true-ai-builders/internal/middleware"
)

// 默认的OpenAI对话补全接口地址
const defaultAPIUrl = "https://api.openai.com/v1/chat/completions"

// OpenAIClient 实现service.AIClient接口
type OpenAIClient struct {
	config  model.OpenAIConfig
	client  *http.Client
	limiter *middleware.RateLimiter
	metrics *MetricsCollector
}

// MetricsCollector 是中间件指标收集器的别名，便于外部注入
type MetricsCollector = middleware.MetricsCollector

// NewOpenAIClient 创建新的OpenAI客户端
// metrics可以为nil，此时不记录调用指标
func NewOpenAIClient(config model.OpenAIConfig, metrics *MetricsCollector) *OpenAIClient {
	if config.APIKey == "" {
		logger.Warn("未配置OpenAI API密钥，后续生成调用将会失败")
	}

	// 设置安全的HTTP客户端配置
	transport := &http.Transport{
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 10 * time.Second,
		TLSHandshakeTimeout:   15 * time.Second,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		DisableKeepAlives:     false,
	}

	timeout := config.APITimeout
	if timeout <= 0 {
		timeout = 60
	}

	client := &http.Client{
		Timeout:   time.Duration(timeout) * time.Second,
		Transport: transport,
	}

	return &OpenAIClient{
		config:  config,
		client:  client,
		limiter: middleware.NewRateLimiter(int64(config.MaxCalls), 24*time.Hour),
		metrics: metrics,
	}
}

// ChatCompletion 发送一次对话补全请求
// 补全内容为空视为空字符串而非错误，由调用方决定如何处理
func (c *OpenAIClient) ChatCompletion(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error) {
	if !c.limiter.Check() {
		return "", &middleware.RateLimitError{Status: c.limiter.GetStatus()}
	}

	endpoint := c.config.APIUrl
	if endpoint == "" {
		endpoint = defaultAPIUrl
	}

	// 验证URL
	if _, err := url.Parse(endpoint); err != nil {
		return "", fmt.Errorf("无效的API端点: %w", err)
	}

	// 构建请求体
	requestBody := map[string]interface{}{
		"model": c.config.Model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
		"max_tokens":  c.config.MaxTokens,
		"stream":      false,
		"temperature": temperature,
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("创建请求体失败: %w", err)
	}

	// 延迟重试机制
	maxRetries := c.config.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	baseDelay := time.Second

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if i > 0 {
			// 指数退避重试
			backoff := time.Duration(exponentialBackoff(i, baseDelay)) * time.Millisecond
			logger.Info("请求失败，等待后重试", "attempt", i, "backoff_ms", backoff.Milliseconds())
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		result, err := c.doRequest(ctx, endpoint, jsonData)
		if err != nil {
			lastErr = err
			// 检查是否是可重试错误
			if isRetryableError(err) && i < maxRetries-1 {
				continue
			}
			return "", err
		}
		return result, nil
	}

	return "", fmt.Errorf("API调用失败，已重试%d次: %w", maxRetries, lastErr)
}

// doRequest 执行HTTP请求并解析补全内容
func (c *OpenAIClient) doRequest(ctx context.Context, endpoint string, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("创建请求失败: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("User-Agent", "true-ai-builders/1.0")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.recordCall(time.Since(start), middleware.TokenUsage{}, false)
		return "", fmt.Errorf("发送请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		c.recordCall(time.Since(start), middleware.TokenUsage{}, false)
		return "", c.statusError(resp.StatusCode, respBody)
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int64 `json:"prompt_tokens"`
			CompletionTokens int64 `json:"completion_tokens"`
			TotalTokens      int64 `json:"total_tokens"`
		} `json:"usage"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		c.recordCall(time.Since(start), middleware.TokenUsage{}, false)
		return "", fmt.Errorf("解析响应失败: %w", err)
	}

	tokens := middleware.TokenUsage{
		PromptTokens:     response.Usage.PromptTokens,
		CompletionTokens: response.Usage.CompletionTokens,
		TotalTokens:      response.Usage.TotalTokens,
	}
	c.recordCall(time.Since(start), tokens, true)

	logger.Info("API调用成功",
		"prompt_tokens", response.Usage.PromptTokens,
		"total_tokens", response.Usage.TotalTokens)

	// 补全内容缺失不是错误，返回空字符串交由上层处理
	if len(response.Choices) == 0 {
		logger.Warn("API响应不包含补全内容")
		return "", nil
	}

	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

// statusError 根据状态码生成更具体的错误信息
func (c *OpenAIClient) statusError(statusCode int, respBody []byte) error {
	logger.Error("API请求返回错误", "status_code", statusCode, "response", string(respBody))

	switch statusCode {
	case http.StatusTooManyRequests:
		return fmt.Errorf("API请求频率过高(429)，请稍后重试")
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("API认证失败(%d)，请检查API密钥", statusCode)
	case http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return fmt.Errorf("API服务器错误(%d)，请稍后重试", statusCode)
	default:
		return fmt.Errorf("API请求返回错误(状态码:%d): %s", statusCode, string(respBody))
	}
}

// recordCall 向指标收集器上报一次调用
func (c *OpenAIClient) recordCall(duration time.Duration, tokens middleware.TokenUsage, success bool) {
	if c.metrics != nil {
		c.metrics.RecordAPICall(duration, tokens, success)
	}
}

// GetRateLimits 返回当前速率限制信息
func (c *OpenAIClient) GetRateLimits() service.RateLimit {
	status := c.limiter.GetStatus()
	return service.RateLimit{
		MaxCalls:     int(status.Limit),
		CurrentCalls: int(status.Used),
		Remaining:    int(status.Remaining),
		ResetTime:    status.ResetTime,
	}
}

// exponentialBackoff 指数退避计算，返回毫秒数
func exponentialBackoff(attempt int, baseDelay time.Duration) int64 {
	if attempt == 0 {
		return 0
	}

	// 指数退避 + 随机抖动
	base := float64(baseDelay.Milliseconds())
	exponential := base * float64(int64(1)<<attempt)

	maxJitter := exponential * 0.1 // 10%的随机抖动
	jitter, _ := rand.Int(rand.Reader, big.NewInt(int64(maxJitter)+1))

	delay := int64(exponential) + jitter.Int64()

	// 限制最大退避时间为5分钟
	maxDelay := 5 * time.Minute.Milliseconds()
	if delay > maxDelay {
		delay = maxDelay
	}

	return delay
}

// isRetryableError 判断错误是否可重试
func isRetryableError(err error) bool {
	retryableErrors := []string{
		"timeout",
		"connection",
		"reset",
		"unreachable",
		"temporary",
		"503",
		"429",
		"502",
		"504",
	}

	msg := err.Error()
	for _, keyword := range retryableErrors {
		if strings.Contains(msg, keyword) {
			return true
		}
	}
	return false
}
