package middleware

import (
	"fmt"
	"sync"
	"time"
)

// RateLimiter 提供按时间窗口计数的限流功能
type RateLimiter struct {
	mu            sync.RWMutex
	requestsCount int64
	lastReset     time.Time
	window        time.Duration
	maxRequests   int64
}

// NewRateLimiter 创建新的速率限制器
func NewRateLimiter(maxRequests int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		maxRequests: maxRequests,
		window:      window,
		lastReset:   time.Now(),
	}
}

// Check 检查是否超过限额，未超过时消耗一次配额
func (rl *RateLimiter) Check() bool {
	if rl.maxRequests <= 0 {
		return true // 不限速
	}

	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	// 重置窗口周期
	if now.Sub(rl.lastReset) >= rl.window {
		rl.requestsCount = 0
		rl.lastReset = now
	}

	if rl.requestsCount < rl.maxRequests {
		rl.requestsCount++
		return true
	}

	return false
}

// GetStatus 获取当前状态
func (rl *RateLimiter) GetStatus() Status {
	now := time.Now()

	rl.mu.RLock()
	defer rl.mu.RUnlock()

	remaining := rl.maxRequests - rl.requestsCount
	if remaining < 0 {
		remaining = 0
	}

	var percentUsed float64
	if rl.maxRequests > 0 {
		percentUsed = float64(rl.requestsCount) / float64(rl.maxRequests) * 100
	}

	return Status{
		Limit:       rl.maxRequests,
		Used:        rl.requestsCount,
		Remaining:   remaining,
		PercentUsed: percentUsed,
		ResetIn:     rl.window - now.Sub(rl.lastReset),
		ResetTime:   rl.lastReset.Add(rl.window),
	}
}

// Status 速率限制状态
type Status struct {
	Limit       int64
	Used        int64
	Remaining   int64
	PercentUsed float64
	ResetIn     time.Duration
	ResetTime   time.Time
}

// RateLimitError 限流错误
type RateLimitError struct {
	Status Status
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("已达到API调用次数上限: %d/%d，%v后重置",
		e.Status.Used, e.Status.Limit, e.Status.ResetIn.Round(time.Second))
}
