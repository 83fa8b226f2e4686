package service

import (
	"context"
	"time"
)

// AIClient 定义AI客户端接口
type AIClient interface {
	// ChatCompletion 发送一次对话补全请求
	// 返回去除首尾空白的补全文本；补全内容为空时返回空字符串而非错误
	ChatCompletion(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error)
	// GetRateLimits 获取API限制信息
	GetRateLimits() RateLimit
}

// RateLimit 定义API限制信息
type RateLimit struct {
	MaxCalls     int
	CurrentCalls int
	Remaining    int
	ResetTime    time.Time
}
