package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaegunS/true-ai-builders/internal/domain/model"
)

func testSummary() model.SummaryResult {
	return model.SummaryResult{
		SourceText:  "[1] OpenAI ships X\nA new model release.\nFull details of the release.",
		SummaryText: "OpenAI shipped a new model this week.",
	}
}

func TestGenerateQuestions(t *testing.T) {
	ai := &fakeAIClient{responses: []string{
		"How would a new model change your roadmap?\nWhat platform risks does this create?",
	}}
	svc := NewQuestionService(ai)

	questions, err := svc.GenerateQuestions(context.Background(), testSummary())

	require.NoError(t, err)
	assert.Equal(t, 2, len(strings.Split(questions, "\n")))

	// 单次调用，温度0.5
	require.Len(t, ai.calls, 1)
	assert.Equal(t, questionSystemPrompt, ai.calls[0].System)
	assert.Equal(t, questionTemperature, ai.calls[0].Temperature)

	// 用户消息先给摘要，再附原文作为上下文
	assert.Contains(t, ai.calls[0].User, testSummary().SummaryText)
	assert.Contains(t, ai.calls[0].User, testSummary().SourceText)
	assert.Less(t,
		strings.Index(ai.calls[0].User, testSummary().SummaryText),
		strings.Index(ai.calls[0].User, testSummary().SourceText))
}

func TestGenerateQuestionsDeterministic(t *testing.T) {
	// 固定的模型桩下，相同输入两次调用产生相同输出
	response := "Question one?\nQuestion two?\nQuestion three?"
	ai := &fakeAIClient{responses: []string{response}}
	svc := NewQuestionService(ai)

	first, err := svc.GenerateQuestions(context.Background(), testSummary())
	require.NoError(t, err)

	second, err := svc.GenerateQuestions(context.Background(), testSummary())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	require.Len(t, ai.calls, 2)
	assert.Equal(t, ai.calls[0], ai.calls[1])
}

func TestGenerateQuestionsEmptyCompletion(t *testing.T) {
	ai := &fakeAIClient{}
	svc := NewQuestionService(ai)

	questions, err := svc.GenerateQuestions(context.Background(), testSummary())

	require.NoError(t, err)
	assert.Equal(t, "", questions)
}

func TestGenerateQuestionsClientError(t *testing.T) {
	ai := &fakeAIClient{err: errors.New("API请求频率过高(429)")}
	svc := NewQuestionService(ai)

	_, err := svc.GenerateQuestions(context.Background(), testSummary())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "生成讨论问题失败")
}

func TestBuildQuestionPromptWithoutSourceText(t *testing.T) {
	prompt := buildQuestionPrompt(model.SummaryResult{SummaryText: "Only a digest."})

	assert.Contains(t, prompt, "Only a digest.")
	assert.NotContains(t, prompt, "Original source text")
}
