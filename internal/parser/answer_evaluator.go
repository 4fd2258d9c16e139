package parser

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"interview-agent-go/internal/types"

	"github.com/cloudwego/eino/components/model"
	einoschema "github.com/cloudwego/eino/schema"
)

// LLMAnswerEvaluator 封装LLM客户端和评估Prompt逻辑，对候选人回答打分
type LLMAnswerEvaluator struct {
	llmModel       model.ToolCallingChatModel
	promptTemplate string      // 回答评估的Prompt模板
	logger         *log.Logger // 详细调用日志，默认丢弃
}

// LLMAnswerEvaluatorOption 是评估器的配置选项
type LLMAnswerEvaluatorOption func(*LLMAnswerEvaluator)

// WithCustomPromptTemplate 设置自定义评估提示词模板
func WithCustomPromptTemplate(template string) LLMAnswerEvaluatorOption {
	return func(e *LLMAnswerEvaluator) {
		if template != "" {
			e.promptTemplate = template
		}
	}
}

// NewLLMAnswerEvaluator 创建一个新的回答评估器实例
func NewLLMAnswerEvaluator(llmModel model.ToolCallingChatModel, logger *log.Logger, options ...LLMAnswerEvaluatorOption) *LLMAnswerEvaluator {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	evaluator := &LLMAnswerEvaluator{
		llmModel: llmModel,
		logger:   logger,
	}

	evaluator.generatePromptTemplate()

	for _, opt := range options {
		opt(evaluator)
	}

	return evaluator
}

// generatePromptTemplate 生成默认评估模板。
// 模板要求模型只返回一个裸JSON对象，键为 score/strengths/weaknesses/feedback，
// 这正是 ParseEvaluation 所解析的契约。
func (e *LLMAnswerEvaluator) generatePromptTemplate() {
	e.promptTemplate = `You must ONLY return a valid JSON object. Do not explain anything. Do not wrap it in triple backticks or markdown.

You are acting as an AI interviewer for the role of %s.
Here is the question I asked: "%s"
Here is the candidate's answer: "%s"
Please evaluate this answer and give:
1. A score out of 10
2. A list of strengths
3. A list of weaknesses
4. A brief feedback paragraph
Return this in JSON format like:
{ "score": 8, "strengths": ["Clear explanation"], "weaknesses": ["Too short"], "feedback": "You explained clearly but missed some edge cases." }`
}

// BuildEvaluationPrompt 构建针对某次回答的完整评估Prompt
func (e *LLMAnswerEvaluator) BuildEvaluationPrompt(role, question, answer string) string {
	return fmt.Sprintf(e.promptTemplate, role, question, answer)
}

// Evaluate 对一次回答执行评估：一次阻塞的模型调用，随后解析为结构化评估。
// 返回结构化评估与模型原始输出(用于归档)。传输层错误原样包装上抛，由编排层处理；
// 模型成功返回但内容不合法时由 ParseEvaluation 降级，不算错误。
func (e *LLMAnswerEvaluator) Evaluate(ctx context.Context, role, question, answer string) (types.Evaluation, string, error) {
	if e.llmModel == nil {
		return types.Evaluation{}, "", fmt.Errorf("LLMAnswerEvaluator: llmModel is not initialized")
	}

	userMsgContent := e.BuildEvaluationPrompt(role, question, answer)

	systemMsg := einoschema.SystemMessage("You are a strict but fair technical interviewer. Always respond with the exact JSON format requested.")
	userMsg := einoschema.UserMessage(userMsgContent)
	messages := []*einoschema.Message{systemMsg, userMsg}

	e.logger.Printf("[LLMAnswerEvaluator] Evaluation prompt (first 300 chars): %.300s", userMsgContent)

	response, err := e.llmModel.Generate(ctx, messages)
	if err != nil {
		e.logger.Printf("[LLMAnswerEvaluator] LLM call error: %v", err)
		return types.Evaluation{}, "", fmt.Errorf("LLMAnswerEvaluator: LLM call failed: %w", err)
	}

	if response == nil {
		e.logger.Printf("[LLMAnswerEvaluator] LLM returned nil response")
		return types.Evaluation{}, "", fmt.Errorf("LLMAnswerEvaluator: LLM returned nil response")
	}
	// 空内容不算传输错误：调用本身成功了，交给解析层降级为固定评估
	e.logger.Printf("[LLMAnswerEvaluator] LLM raw response: %s", response.Content)

	raw := strings.TrimSpace(response.Content)
	return ParseEvaluation(raw), raw, nil
}

// Ask 向模型发送一段自由文本并返回纯文本回复，用于出题等非评估调用
func (e *LLMAnswerEvaluator) Ask(ctx context.Context, prompt string) (string, error) {
	if e.llmModel == nil {
		return "", fmt.Errorf("LLMAnswerEvaluator: llmModel is not initialized")
	}

	userMsg := einoschema.UserMessage(prompt)
	response, err := e.llmModel.Generate(ctx, []*einoschema.Message{userMsg})
	if err != nil {
		return "", fmt.Errorf("LLMAnswerEvaluator: LLM call failed: %w", err)
	}
	if response == nil || response.Content == "" {
		return "", fmt.Errorf("LLMAnswerEvaluator: LLM returned empty response")
	}
	return strings.TrimSpace(response.Content), nil
}
