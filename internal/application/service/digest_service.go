package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/JaegunS/true-ai-builders/internal/domain/model"
	"github.com/JaegunS/true-ai-builders/internal/domain/service"
	"github.com/JaegunS/true-ai-builders/internal/infrastructure/logger"
	"github.com/JaegunS/true-ai-builders/internal/middleware"
)

// pipelineState 管道运行状态
type pipelineState int

const (
	stateInit pipelineState = iota
	stateFetched
	stateSummarized
	stateQuestioned
	stateDone
	stateFailed
)

// String 返回状态名称，用于日志输出
func (s pipelineState) String() string {
	switch s {
	case stateInit:
		return "Init"
	case stateFetched:
		return "Fetched"
	case stateSummarized:
		return "Summarized"
	case stateQuestioned:
		return "Questioned"
	case stateDone:
		return "Done"
	case stateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// ErrEmptyCompletion 表示模型调用成功但未返回内容
// 非空批次下摘要或问题为空会破坏"成对输出"约定，按失败处理
var ErrEmptyCompletion = errors.New("模型未返回有效内容")

// DigestService 定义新闻摘要管道的应用服务接口
type DigestService interface {
	// Run 执行一次完整的管道运行: 获取 → 摘要 → 问题
	Run(ctx context.Context, params model.DigestParams) (model.DigestResult, error)
}

// digestService 实现DigestService接口
// 运行状态是每次Run的局部变量，多条管道可以并发运行互不影响
type digestService struct {
	news      service.NewsService
	summary   service.SummaryService
	questions service.QuestionService
	metrics   *middleware.MetricsCollector
}

// NewDigestService 创建一个新的摘要管道服务实例
// metrics可以为nil，此时不输出运行指标
func NewDigestService(news service.NewsService, summary service.SummaryService, questions service.QuestionService, metrics *middleware.MetricsCollector) DigestService {
	return &digestService{
		news:      news,
		summary:   summary,
		questions: questions,
		metrics:   metrics,
	}
}

// pipelineRun 单次运行的状态机
type pipelineRun struct {
	state pipelineState
}

// transition 迁移管道状态并记录日志
func (r *pipelineRun) transition(to pipelineState) {
	logger.Debug("管道状态迁移", "from", r.state.String(), "to", to.String())
	r.state = to
}

// fail 迁移到失败终态并包装错误
func (r *pipelineRun) fail(stage string, err error) (model.DigestResult, error) {
	r.transition(stateFailed)
	logger.Error("管道运行失败", "stage", stage, "error", err)
	return model.DigestResult{}, fmt.Errorf("%s阶段失败: %w", stage, err)
}

// Run 执行一次完整的管道运行
// 获取阶段的失败降级为空批次继续；生成阶段的任何错误使整次运行失败，
// 不输出部分结果，保证摘要与讨论问题要么成对出现要么都不出现
func (s *digestService) Run(ctx context.Context, params model.DigestParams) (model.DigestResult, error) {
	logger.Info("开始生成新闻摘要", "query", params.Query)
	defer logger.TimeTrack("Run")()

	// 记录初始内存使用情况
	logger.LogMemStatsOnce()

	run := &pipelineRun{state: stateInit}

	// 1. 获取文章
	logger.Debug("开始获取文章", "query", params.Query)
	articles, err := s.news.FetchArticles(ctx, params.Query, params.Window)
	if err != nil {
		// 新闻服务约定内部消化瞬时错误，到这里的错误同样不致命
		logger.Warn("获取文章返回错误，按空批次继续", "error", err)
		articles = nil
	}
	run.transition(stateFetched)
	if s.metrics != nil {
		s.metrics.RecordArticlesFetched(int64(len(articles)))
	}

	// 2. 空批次短路：不向模型发送空提示词，直接产出空结果
	if len(articles) == 0 {
		logger.Info("时间窗口内没有文章，跳过生成阶段")
		run.transition(stateDone)
		return model.DigestResult{}, nil
	}

	// 3. 生成摘要
	summary, err := s.summary.Summarize(ctx, articles)
	if err != nil {
		return run.fail("摘要", err)
	}
	if summary.SummaryText == "" {
		// 空补全向下传播到这里：没有摘要就无法生成有依据的问题
		return run.fail("摘要", ErrEmptyCompletion)
	}
	run.transition(stateSummarized)

	// 4. 生成讨论问题
	questionsText, err := s.questions.GenerateQuestions(ctx, summary)
	if err != nil {
		return run.fail("问题", err)
	}
	if questionsText == "" {
		return run.fail("问题", ErrEmptyCompletion)
	}
	run.transition(stateQuestioned)

	// 5. 运行完成
	run.transition(stateDone)
	if s.metrics != nil {
		s.metrics.RecordOutput(int64(len(summary.SummaryText)), int64(len(questionsText)))
		s.logMetrics()
	}

	logger.Info("新闻摘要生成完成",
		"articles_count", len(articles),
		"summary_length", len(summary.SummaryText),
		"questions_length", len(questionsText))

	return model.DigestResult{
		SummaryText:   summary.SummaryText,
		QuestionsText: questionsText,
	}, nil
}

// logMetrics 输出本次运行的性能指标
func (s *digestService) logMetrics() {
	report := s.metrics.GetReport()
	logger.Info("管道运行指标",
		"api_calls", report.APIStats.TotalCalls,
		"api_failures", report.APIStats.Failed,
		"api_avg_latency_ms", report.APIStats.AverageLatency,
		"total_tokens", report.APIStats.TokenUsage.TotalTokens,
		"articles_fetched", report.PipelineStats.ArticlesFetched,
		"duration", report.RuntimeInfo.Uptime)
}
