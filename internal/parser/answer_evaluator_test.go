package parser

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockEvalModel 测试用的mock模型，返回预设内容或错误
type mockEvalModel struct {
	mockResponse string
	mockErr      error
	lastMessages []*schema.Message
}

func (m *mockEvalModel) Generate(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.lastMessages = messages
	if m.mockErr != nil {
		return nil, m.mockErr
	}
	return &schema.Message{Role: schema.Assistant, Content: m.mockResponse}, nil
}

func (m *mockEvalModel) Stream(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported in mock")
}

func (m *mockEvalModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return m, nil
}

func TestLLMAnswerEvaluator_Evaluate(t *testing.T) {
	mockModel := &mockEvalModel{
		mockResponse: `{"score": 8, "strengths": ["Clear explanation"], "weaknesses": ["Missed edge cases"], "feedback": "Well structured answer."}`,
	}
	evaluator := NewLLMAnswerEvaluator(mockModel, nil)

	evaluation, raw, err := evaluator.Evaluate(context.Background(), "Frontend Developer", "What is a closure?", "A closure captures its lexical scope.")
	require.NoError(t, err, "模型调用成功时不应返回错误")

	assert.Equal(t, 8, evaluation.Score)
	assert.Equal(t, []string{"Clear explanation"}, evaluation.Strengths)
	assert.Equal(t, []string{"Missed edge cases"}, evaluation.Weaknesses)
	assert.Equal(t, mockModel.mockResponse, raw, "原始输出应原样返回用于归档")

	// 评估消息应为 system + user 两条，user消息包含岗位、问题与回答
	require.Len(t, mockModel.lastMessages, 2)
	assert.Equal(t, schema.System, mockModel.lastMessages[0].Role)
	userContent := mockModel.lastMessages[1].Content
	assert.Contains(t, userContent, "Frontend Developer")
	assert.Contains(t, userContent, "What is a closure?")
	assert.Contains(t, userContent, "A closure captures its lexical scope.")
}

func TestLLMAnswerEvaluator_Evaluate_FencedOutput(t *testing.T) {
	mockModel := &mockEvalModel{
		mockResponse: "```json\n{\"score\": 6, \"strengths\": [], \"weaknesses\": [\"Vague\"], \"feedback\": \"Be more specific.\"}\n```",
	}
	evaluator := NewLLMAnswerEvaluator(mockModel, nil)

	evaluation, _, err := evaluator.Evaluate(context.Background(), "Backend Developer", "Explain indexing", "It makes queries fast.")
	require.NoError(t, err)
	assert.Equal(t, 6, evaluation.Score, "代码块包裹的输出应被正常解析")
}

func TestLLMAnswerEvaluator_Evaluate_MalformedOutputDegrades(t *testing.T) {
	mockModel := &mockEvalModel{mockResponse: "I think the answer is pretty good!"}
	evaluator := NewLLMAnswerEvaluator(mockModel, nil)

	evaluation, raw, err := evaluator.Evaluate(context.Background(), "Frontend Developer", "What is flexbox?", "A layout model.")
	require.NoError(t, err, "内容不合法不是错误，由解析层降级")
	assert.Equal(t, FallbackEvaluation(), evaluation)
	assert.Equal(t, mockModel.mockResponse, raw)
}

func TestLLMAnswerEvaluator_Evaluate_EmptyOutputDegrades(t *testing.T) {
	// 调用成功但内容为空不是传输错误，走解析降级，面试照常继续
	mockModel := &mockEvalModel{mockResponse: ""}
	evaluator := NewLLMAnswerEvaluator(mockModel, nil)

	evaluation, raw, err := evaluator.Evaluate(context.Background(), "Frontend Developer", "What is flexbox?", "A layout model.")
	require.NoError(t, err, "空内容不应作为错误上抛")
	assert.Equal(t, FallbackEvaluation(), evaluation)
	assert.Empty(t, raw)
}

func TestLLMAnswerEvaluator_Evaluate_ModelError(t *testing.T) {
	callErr := errors.New("connection refused")
	mockModel := &mockEvalModel{mockErr: callErr}
	evaluator := NewLLMAnswerEvaluator(mockModel, nil)

	_, _, err := evaluator.Evaluate(context.Background(), "Frontend Developer", "What is flexbox?", "A layout model.")
	require.Error(t, err, "传输层错误必须上抛")
	assert.ErrorIs(t, err, callErr)
}

func TestLLMAnswerEvaluator_Ask(t *testing.T) {
	mockModel := &mockEvalModel{mockResponse: "  What is event delegation?  "}
	evaluator := NewLLMAnswerEvaluator(mockModel, nil)

	reply, err := evaluator.Ask(context.Background(), "Ask one frontend interview question.")
	require.NoError(t, err)
	assert.Equal(t, "What is event delegation?", reply, "回复应去除首尾空白")
}

func TestLLMAnswerEvaluator_CustomPromptTemplate(t *testing.T) {
	evaluator := NewLLMAnswerEvaluator(&mockEvalModel{}, nil,
		WithCustomPromptTemplate("role=%s question=%s answer=%s"))

	prompt := evaluator.BuildEvaluationPrompt("DevOps", "Q1", "A1")
	assert.Equal(t, "role=DevOps question=Q1 answer=A1", prompt)
}
