package interview

import (
	"context"
	"errors"
	"testing"

	"interview-agent-go/internal/config"
	"interview-agent-go/internal/constants"
	"interview-agent-go/internal/storage"
	"interview-agent-go/internal/types"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockAnswerEvaluator 测试用的mock评估器
type mockAnswerEvaluator struct {
	evaluation types.Evaluation
	raw        string
	evalErr    error
	askReply   string
	askErr     error

	lastPrompt   string
	lastRole     string
	lastQuestion string
	lastAnswer   string
}

func (m *mockAnswerEvaluator) Evaluate(ctx context.Context, role, question, answer string) (types.Evaluation, string, error) {
	m.lastRole = role
	m.lastQuestion = question
	m.lastAnswer = answer
	if m.evalErr != nil {
		return types.Evaluation{}, "", m.evalErr
	}
	return m.evaluation, m.raw, nil
}

func (m *mockAnswerEvaluator) Ask(ctx context.Context, prompt string) (string, error) {
	m.lastPrompt = prompt
	if m.askErr != nil {
		return "", m.askErr
	}
	return m.askReply, nil
}

func newTestOrchestrator(t *testing.T, evaluator AnswerEvaluator) *Orchestrator {
	t.Helper()
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	// 空存储：测试只覆盖不接触外部依赖的路径
	orchestrator, err := NewOrchestrator(evaluator, &storage.Storage{}, cfg)
	require.NoError(t, err)
	return orchestrator
}

func TestNewOrchestrator_NilDependencies(t *testing.T) {
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	_, err = NewOrchestrator(nil, &storage.Storage{}, cfg)
	assert.Error(t, err)

	_, err = NewOrchestrator(&mockAnswerEvaluator{}, nil, cfg)
	assert.Error(t, err)

	_, err = NewOrchestrator(&mockAnswerEvaluator{}, &storage.Storage{}, nil)
	assert.Error(t, err)
}

func TestStartInterview(t *testing.T) {
	mock := &mockAnswerEvaluator{askReply: "What is a closure in JavaScript?"}
	orchestrator := newTestOrchestrator(t, mock)

	sessionID, question, err := orchestrator.StartInterview(context.Background(), "Frontend Developer")
	require.NoError(t, err)

	assert.Equal(t, "What is a closure in JavaScript?", question)
	assert.Contains(t, mock.lastPrompt, "Frontend Developer")

	// 会话ID是按时间有序的UUIDv7
	parsed, err := uuid.FromString(sessionID)
	require.NoError(t, err)
	assert.Equal(t, byte(7), parsed.Version())
}

func TestStartInterview_EmptyRole(t *testing.T) {
	orchestrator := newTestOrchestrator(t, &mockAnswerEvaluator{})

	_, _, err := orchestrator.StartInterview(context.Background(), "  ")
	assert.Error(t, err)
}

func TestStartInterview_ModelError(t *testing.T) {
	mock := &mockAnswerEvaluator{askErr: errors.New("timeout")}
	orchestrator := newTestOrchestrator(t, mock)

	_, _, err := orchestrator.StartInterview(context.Background(), "Frontend Developer")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrModelCall)
}

func TestNextQuestion_ExcludesAskedQuestions(t *testing.T) {
	mock := &mockAnswerEvaluator{askReply: "Explain event delegation."}
	orchestrator := newTestOrchestrator(t, mock)

	question, err := orchestrator.NextQuestion(context.Background(), "Frontend Developer", "", []string{
		"What is a closure in JavaScript?",
		"Explain the CSS box model.",
	})
	require.NoError(t, err)

	assert.Equal(t, "Explain event delegation.", question)
	assert.Contains(t, mock.lastPrompt, "What is a closure in JavaScript?", "已问题目必须出现在排重列表中")
	assert.Contains(t, mock.lastPrompt, "Explain the CSS box model.")
}

func TestSubmitAnswer_ModelErrorReturnsSentinel(t *testing.T) {
	mock := &mockAnswerEvaluator{evalErr: errors.New("connection reset")}
	orchestrator := newTestOrchestrator(t, mock)

	result, err := orchestrator.SubmitAnswer(context.Background(), SubmitAnswerInput{
		SessionID: "session-1",
		Role:      "Frontend Developer",
		Question:  "What is flexbox?",
		Answer:    "A layout model.",
	})

	// 模型调用失败返回哨兵评估和ErrModelCall，且不接触任何存储
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrModelCall)
	require.NotNil(t, result)
	assert.Equal(t, ModelErrorEvaluation(), result.Evaluation)
	assert.Nil(t, result.Profile)
}

func TestSubmitAnswer_Validation(t *testing.T) {
	orchestrator := newTestOrchestrator(t, &mockAnswerEvaluator{})

	_, err := orchestrator.SubmitAnswer(context.Background(), SubmitAnswerInput{
		Role:     "Frontend Developer",
		Question: "What is flexbox?",
	})
	assert.Error(t, err, "缺少sessionID应直接拒绝")

	_, err = orchestrator.SubmitAnswer(context.Background(), SubmitAnswerInput{
		SessionID: "session-1",
		Role:      "Frontend Developer",
	})
	assert.Error(t, err, "缺少question应直接拒绝")
}

func TestSubmitAnswer_SessionStoreUnavailableIsFatal(t *testing.T) {
	// 评估成功但会话存储不可用时，得分不能静默丢失，必须报错
	mock := &mockAnswerEvaluator{
		evaluation: types.Evaluation{Score: 8, Strengths: []string{}, Weaknesses: []string{}, Feedback: "ok"},
		raw:        `{"score": 8}`,
	}
	orchestrator := newTestOrchestrator(t, mock)

	result, err := orchestrator.SubmitAnswer(context.Background(), SubmitAnswerInput{
		SessionID: "session-1",
		Role:      "Frontend Developer",
		Question:  "What is flexbox?",
		Answer:    "A layout model.",
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrModelCall)
	assert.Nil(t, result)
}

func TestDisplayNameOrDefault(t *testing.T) {
	assert.Equal(t, "Li Lei", displayNameOrDefault("Li Lei", constants.DefaultProfileName))

	// 画像查询路径与答题落库路径使用不同的默认显示名
	assert.Equal(t, "Unknown", displayNameOrDefault("", constants.DefaultProfileName))
	assert.Equal(t, "Unknown User", displayNameOrDefault("", constants.UnknownUserName))
}

func TestModelErrorEvaluation_DistinctFromParserFallback(t *testing.T) {
	sentinel := ModelErrorEvaluation()

	assert.Equal(t, 0, sentinel.Score)
	assert.Empty(t, sentinel.Strengths)
	assert.Equal(t, []string{"Technical error occurred"}, sentinel.Weaknesses)
	assert.Equal(t, "Sorry, there was a technical issue. Please try again.", sentinel.Feedback)
}

func TestAsk_WrapsModelError(t *testing.T) {
	mock := &mockAnswerEvaluator{askErr: errors.New("boom")}
	orchestrator := newTestOrchestrator(t, mock)

	_, err := orchestrator.Ask(context.Background(), "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrModelCall)
}
