package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/JaegunS/true-ai-builders/internal/domain/model"
	"github.com/JaegunS/true-ai-builders/internal/infrastructure/logger"
)

// 问题阶段采样温度略高于摘要阶段，允许更开放的措辞
const questionTemperature = 0.5

// questionSystemPrompt 问题生成阶段的系统提示词
// 禁止引入摘要/原文之外的实体与事实，这也是原文随摘要一起传入的原因
const questionSystemPrompt = `You are a discussion facilitator for a community of early-stage builders and startup founders.

You will receive a news digest, optionally followed by the original source text it was written from.

Write 2 to 4 short, open-ended discussion questions.

Rules:
1. Every question must be grounded in a specific detail from the digest.
2. Do NOT reference any company, person, number, or event that does not appear in the digest or the source text.
3. Generalize from the specific news item to a broader decision builders face (e.g. pricing, platform risk, fundraising, build-vs-buy).
4. One question per line. No numbering, no preamble, no commentary.`

// QuestionService 定义讨论问题生成的领域服务接口
type QuestionService interface {
	// GenerateQuestions 基于摘要生成2-4个讨论问题
	GenerateQuestions(ctx context.Context, summary model.SummaryResult) (string, error)
}

// questionService 实现QuestionService接口
type questionService struct {
	ai AIClient
}

// NewQuestionService 创建一个新的问题生成服务实例
func NewQuestionService(ai AIClient) QuestionService {
	return &questionService{ai: ai}
}

// buildQuestionPrompt 构造问题生成阶段的用户提示词
// 摘要在前，原文作为附加上下文在后
func buildQuestionPrompt(summary model.SummaryResult) string {
	var sb strings.Builder
	sb.WriteString("Digest:\n")
	sb.WriteString(summary.SummaryText)
	if summary.SourceText != "" {
		sb.WriteString("\n\nOriginal source text (context only):\n")
		sb.WriteString(summary.SourceText)
	}
	return sb.String()
}

// GenerateQuestions 基于摘要生成2-4个讨论问题
func (s *questionService) GenerateQuestions(ctx context.Context, summary model.SummaryResult) (string, error) {
	logger.Info("开始生成讨论问题", "summary_length", len(summary.SummaryText))
	defer logger.TimeTrack("GenerateQuestions")()

	prompt := buildQuestionPrompt(summary)

	questions, err := s.ai.ChatCompletion(ctx, questionSystemPrompt, prompt, questionTemperature)
	if err != nil {
		return "", fmt.Errorf("生成讨论问题失败: %w", err)
	}

	if questions == "" {
		logger.Warn("模型未返回问题内容")
	}

	logger.Info("讨论问题生成完成", "questions_length", len(questions))
	return strings.TrimSpace(questions), nil
}
