package handler_test

import (
	"context"
	"errors"
	"testing"

	"interview-agent-go/internal/api/handler"
	"interview-agent-go/internal/config"
	"interview-agent-go/internal/interview"
	"interview-agent-go/internal/storage"
	"interview-agent-go/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEvaluator 测试用评估器
type stubEvaluator struct {
	evaluation types.Evaluation
	raw        string
	evalErr    error
	askReply   string
	askErr     error

	lastRole string
}

func (s *stubEvaluator) Evaluate(ctx context.Context, role, question, answer string) (types.Evaluation, string, error) {
	s.lastRole = role
	if s.evalErr != nil {
		return types.Evaluation{}, "", s.evalErr
	}
	return s.evaluation, s.raw, nil
}

func (s *stubEvaluator) Ask(ctx context.Context, prompt string) (string, error) {
	if s.askErr != nil {
		return "", s.askErr
	}
	return s.askReply, nil
}

func newTestHandler(t *testing.T, evaluator interview.AnswerEvaluator) *handler.InterviewHandler {
	t.Helper()
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	orchestrator, err := interview.NewOrchestrator(evaluator, &storage.Storage{}, cfg)
	require.NoError(t, err)
	return handler.NewInterviewHandler(cfg, orchestrator)
}

func TestHandleStartInterview(t *testing.T) {
	h := newTestHandler(t, &stubEvaluator{askReply: "What is a closure?"})

	resp, err := h.HandleStartInterview(context.Background(), &handler.StartInterviewRequest{Role: "Frontend Developer"})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, "What is a closure?", resp.Question)
}

func TestHandleStartInterview_EmptyRole(t *testing.T) {
	h := newTestHandler(t, &stubEvaluator{})

	_, err := h.HandleStartInterview(context.Background(), &handler.StartInterviewRequest{})
	assert.Error(t, err)
}

func TestHandleSubmitAnswer_ModelErrorReturnsSentinelBody(t *testing.T) {
	h := newTestHandler(t, &stubEvaluator{evalErr: errors.New("upstream down")})

	resp, err := h.HandleSubmitAnswer(context.Background(), &handler.SubmitAnswerRequest{
		SessionID: "session-1",
		Role:      "Frontend Developer",
		Question:  "What is flexbox?",
		Answer:    "A layout model.",
	})

	// 错误与哨兵响应体同时返回，由路由层决定状态码
	require.Error(t, err)
	assert.ErrorIs(t, err, interview.ErrModelCall)
	require.NotNil(t, resp)
	assert.Equal(t, interview.ModelErrorEvaluation(), resp.Evaluation)
	assert.Equal(t, "Sorry, there was a technical issue. Please try again.", resp.Message)
}

func TestHandleSessionScore_EmptySessionID(t *testing.T) {
	h := newTestHandler(t, &stubEvaluator{})

	_, err := h.HandleSessionScore(context.Background(), "   ")
	assert.Error(t, err)
}

func TestHandleAsk(t *testing.T) {
	h := newTestHandler(t, &stubEvaluator{askReply: "Certainly."})

	resp, err := h.HandleAsk(context.Background(), &handler.AskRequest{Prompt: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "Certainly.", resp.Response)

	_, err = h.HandleAsk(context.Background(), &handler.AskRequest{})
	assert.Error(t, err, "空prompt应被拒绝")
}
