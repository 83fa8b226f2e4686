package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/JaegunS/true-ai-builders/internal/domain/model"
	"github.com/JaegunS/true-ai-builders/internal/infrastructure/logger"
)

// 摘要阶段采样温度，偏低以保证输出的确定性
const summaryTemperature = 0.4

// summarySystemPrompt 摘要阶段的系统提示词
// 约束模型只使用输入中出现的事实（接地契约），此处不做输出侧校验
const summarySystemPrompt = `You are a news editor writing a short digest for a community of early-stage builders and startup founders.

You will receive a numbered list of recent news articles. Each article is formatted as "[index] title" followed by its description and content.

Rules:
1. Cover AT MOST two stories. Prefer the stories most relevant to people building products and companies.
2. Use ONLY facts present in the provided articles. Do not invent names, numbers, quotes, or events.
3. Write flowing prose paragraphs, 220 to 350 words in total.
4. No bullet points, no lists, no links, no headings.
5. Do not mention article indices or that you were given articles.`

// SummaryService 定义摘要生成的领域服务接口
type SummaryService interface {
	// Summarize 将一批文章合成为一段摘要
	// 返回的SummaryResult同时携带拼接后的原文，供问题生成阶段引用
	Summarize(ctx context.Context, articles []model.Article) (model.SummaryResult, error)
}

// summaryService 实现SummaryService接口
type summaryService struct {
	ai AIClient
}

// NewSummaryService 创建一个新的摘要服务实例
func NewSummaryService(ai AIClient) SummaryService {
	return &summaryService{ai: ai}
}

// FormatArticles 将文章渲染为带编号的提示词正文
// 每篇文章格式为"[编号] 标题\n描述\n正文"，文章之间以空行分隔，编号从1开始
func FormatArticles(articles []model.Article) string {
	entries := make([]string, 0, len(articles))
	for i, a := range articles {
		entries = append(entries, fmt.Sprintf("[%d] %s\n%s\n%s", i+1, a.Title, a.Description, a.Content))
	}
	return strings.Join(entries, "\n\n")
}

// Summarize 将一批文章合成为一段摘要
func (s *summaryService) Summarize(ctx context.Context, articles []model.Article) (model.SummaryResult, error) {
	logger.Info("开始生成摘要", "articles_count", len(articles))
	defer logger.TimeTrack("Summarize")()

	// 空批次不应调用模型，由编排器短路，这里仅兜底
	if len(articles) == 0 {
		logger.Warn("文章批次为空，跳过摘要生成")
		return model.SummaryResult{}, nil
	}

	sourceText := FormatArticles(articles)

	summary, err := s.ai.ChatCompletion(ctx, summarySystemPrompt, sourceText, summaryTemperature)
	if err != nil {
		return model.SummaryResult{}, fmt.Errorf("生成摘要失败: %w", err)
	}

	if summary == "" {
		logger.Warn("模型未返回摘要内容")
	}

	logger.Info("摘要生成完成", "summary_length", len(summary))
	return model.SummaryResult{
		SourceText:  sourceText,
		SummaryText: strings.TrimSpace(summary),
	}, nil
}
