package middleware

import (
	"sync"
	"time"
)

// MetricsCollector 收集单次管道运行的性能指标
type MetricsCollector struct {
	mu sync.RWMutex

	startTime time.Time

	// API调用统计
	apiCalls      int64
	apiFailures   int64
	apiDurations  []time.Duration
	apiTokenUsage TokenUsage

	// 管道处理统计
	articlesFetched int64
	summaryLength   int64
	questionsLength int64
}

// TokenUsage API令牌使用情况
type TokenUsage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

// NewMetricsCollector 创建新的性能监控器
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		startTime:    time.Now(),
		apiDurations: make([]time.Duration, 0, 16),
	}
}

// RecordAPICall 记录一次API调用
func (m *MetricsCollector) RecordAPICall(duration time.Duration, tokens TokenUsage, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.apiCalls++
	if !success {
		m.apiFailures++
	}

	m.apiDurations = append(m.apiDurations, duration)
	m.apiTokenUsage.PromptTokens += tokens.PromptTokens
	m.apiTokenUsage.CompletionTokens += tokens.CompletionTokens
	m.apiTokenUsage.TotalTokens += tokens.TotalTokens
}

// RecordArticlesFetched 记录获取的文章数量
func (m *MetricsCollector) RecordArticlesFetched(count int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.articlesFetched += count
}

// RecordOutput 记录生成结果的长度
func (m *MetricsCollector) RecordOutput(summaryLength, questionsLength int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.summaryLength = summaryLength
	m.questionsLength = questionsLength
}

// GetReport 获取本次运行的性能报告
func (m *MetricsCollector) GetReport() Report {
	m.mu.RLock()
	defer m.mu.RUnlock()

	upTime := time.Since(m.startTime)

	return Report{
		RuntimeInfo: RuntimeInfo{
			StartTime: m.startTime,
			Uptime:    upTime,
		},
		APIStats: APIStats{
			TotalCalls:     m.apiCalls,
			Successful:     m.apiCalls - m.apiFailures,
			Failed:         m.apiFailures,
			SuccessRate:    m.calculateSuccessRate(),
			AverageLatency: m.getAverageAPIDuration().Milliseconds(),
			TokenUsage:     m.apiTokenUsage,
		},
		PipelineStats: PipelineStats{
			ArticlesFetched: m.articlesFetched,
			SummaryLength:   m.summaryLength,
			QuestionsLength: m.questionsLength,
		},
	}
}

// getAverageAPIDuration 获取平均API响应时间
func (m *MetricsCollector) getAverageAPIDuration() time.Duration {
	if len(m.apiDurations) == 0 {
		return 0
	}

	var total time.Duration
	for _, d := range m.apiDurations {
		total += d
	}
	return total / time.Duration(len(m.apiDurations))
}

// calculateSuccessRate 计算成功率
func (m *MetricsCollector) calculateSuccessRate() float64 {
	if m.apiCalls == 0 {
		return 100.0
	}
	return float64(m.apiCalls-m.apiFailures) / float64(m.apiCalls) * 100
}

// Report 运行时报告
type Report struct {
	RuntimeInfo   RuntimeInfo
	APIStats      APIStats
	PipelineStats PipelineStats
}

// RuntimeInfo 运行时信息
type RuntimeInfo struct {
	StartTime time.Time
	Uptime    time.Duration
}

// APIStats API统计信息
type APIStats struct {
	TotalCalls     int64
	Successful     int64
	Failed         int64
	SuccessRate    float64
	AverageLatency int64
	TokenUsage     TokenUsage
}

// PipelineStats 管道处理统计
type PipelineStats struct {
	ArticlesFetched int64
	SummaryLength   int64
	QuestionsLength int64
}
