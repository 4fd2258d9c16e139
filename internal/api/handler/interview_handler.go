package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"interview-agent-go/internal/config"
	"interview-agent-go/internal/interview"
	"interview-agent-go/internal/logger"
	"interview-agent-go/internal/storage/models"
	"interview-agent-go/internal/types"
)

// InterviewHandler 面试处理器，衔接HTTP层与编排器
type InterviewHandler struct {
	cfg          *config.Config
	orchestrator *interview.Orchestrator
}

// NewInterviewHandler 创建一个新的面试处理器
func NewInterviewHandler(cfg *config.Config, orchestrator *interview.Orchestrator) *InterviewHandler {
	return &InterviewHandler{
		cfg:          cfg,
		orchestrator: orchestrator,
	}
}

// StartInterviewRequest 开始面试请求
type StartInterviewRequest struct {
	Role string `json:"role"`
}

// StartInterviewResponse 开始面试响应
type StartInterviewResponse struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
}

// HandleStartInterview 开始一次新的面试会话
func (h *InterviewHandler) HandleStartInterview(ctx context.Context, req *StartInterviewRequest) (*StartInterviewResponse, error) {
	sessionID, question, err := h.orchestrator.StartInterview(ctx, req.Role)
	if err != nil {
		return nil, err
	}
	return &StartInterviewResponse{
		SessionID: sessionID,
		Question:  question,
	}, nil
}

// NextQuestionRequest 下一题请求
type NextQuestionRequest struct {
	Role           string   `json:"role"`
	SessionID      string   `json:"session_id,omitempty"`
	AskedQuestions []string `json:"asked_questions,omitempty"`
}

// NextQuestionResponse 下一题响应
type NextQuestionResponse struct {
	Question string `json:"question"`
}

// HandleNextQuestion 生成下一道面试题
func (h *InterviewHandler) HandleNextQuestion(ctx context.Context, req *NextQuestionRequest) (*NextQuestionResponse, error) {
	question, err := h.orchestrator.NextQuestion(ctx, req.Role, req.SessionID, req.AskedQuestions)
	if err != nil {
		return nil, err
	}
	return &NextQuestionResponse{Question: question}, nil
}

// SubmitAnswerRequest 提交回答请求
type SubmitAnswerRequest struct {
	SessionID string `json:"session_id"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	Role      string `json:"role"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
}

// SubmitAnswerResponse 提交回答响应
type SubmitAnswerResponse struct {
	Evaluation types.Evaluation `json:"evaluation"`
	Topic      string           `json:"topic,omitempty"`
	Progress   float64          `json:"progress,omitempty"`
	Message    string           `json:"message,omitempty"`
}

// HandleSubmitAnswer 提交一次回答并返回评估结果。
// 模型调用失败时返回哨兵评估和固定的用户提示，而不是裸错误。
func (h *InterviewHandler) HandleSubmitAnswer(ctx context.Context, req *SubmitAnswerRequest) (*SubmitAnswerResponse, error) {
	start := time.Now()

	result, err := h.orchestrator.SubmitAnswer(ctx, interview.SubmitAnswerInput{
		SessionID: req.SessionID,
		UserEmail: strings.TrimSpace(strings.ToLower(req.Email)),
		UserName:  req.Name,
		Role:      req.Role,
		Question:  req.Question,
		Answer:    req.Answer,
	})
	if err != nil {
		if errors.Is(err, interview.ErrModelCall) {
			logger.Warn().
				Err(err).
				Str("session_id", req.SessionID).
				Msg("评估降级为哨兵结果")
			return &SubmitAnswerResponse{
				Evaluation: result.Evaluation,
				Message:    "Sorry, there was a technical issue. Please try again.",
			}, err
		}
		return nil, err
	}

	logger.Info().
		Str("session_id", req.SessionID).
		Str("topic", result.Topic).
		Int("score", result.Evaluation.Score).
		Dur("elapsed", time.Since(start)).
		Msg("回答评估完成")

	resp := &SubmitAnswerResponse{
		Evaluation: result.Evaluation,
		Topic:      result.Topic,
	}
	if result.Profile != nil {
		resp.Progress = result.Profile.Progress
	}
	return resp, nil
}

// HandleSessionScore 汇总会话总得分
func (h *InterviewHandler) HandleSessionScore(ctx context.Context, sessionID string) (*types.SessionSummary, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("session_id不能为空")
	}
	summary, err := h.orchestrator.SessionScore(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// HandleSessionHistory 返回会话的全部落库答题记录
func (h *InterviewHandler) HandleSessionHistory(ctx context.Context, sessionID string) ([]models.InterviewResponse, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("session_id不能为空")
	}
	return h.orchestrator.SessionHistory(ctx, sessionID)
}

// HandleGetProfile 获取(或创建)用户画像
func (h *InterviewHandler) HandleGetProfile(ctx context.Context, email, name string) (*interview.Profile, error) {
	return h.orchestrator.GetOrCreateProfile(ctx, strings.TrimSpace(strings.ToLower(email)), name)
}

// AskRequest 自由提问请求
type AskRequest struct {
	Prompt string `json:"prompt"`
}

// AskResponse 自由提问响应
type AskResponse struct {
	Response string `json:"response"`
}

// HandleAsk 将一段自由文本直接转发给模型，返回纯文本回复
func (h *InterviewHandler) HandleAsk(ctx context.Context, req *AskRequest) (*AskResponse, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("prompt不能为空")
	}
	response, err := h.orchestrator.Ask(ctx, req.Prompt)
	if err != nil {
		return nil, err
	}
	return &AskResponse{Response: response}, nil
}
