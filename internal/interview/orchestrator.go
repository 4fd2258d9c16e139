package interview

import (
	"context"
	"fmt"
	"strings"
	"time"

	"interview-agent-go/internal/config"
	"interview-agent-go/internal/constants"
	"interview-agent-go/internal/logger"
	"interview-agent-go/internal/parser"
	"interview-agent-go/internal/storage"
	"interview-agent-go/internal/storage/models"
	"interview-agent-go/internal/tracing"
	"interview-agent-go/internal/types"

	"github.com/gofrs/uuid/v5"
	googleuuid "github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var orchestratorTracer = otel.Tracer("interview-agent-go/interview/orchestrator")

// AnswerEvaluator 是编排器对模型调用的唯一依赖。
// parser.LLMAnswerEvaluator 是生产实现，测试中用mock替换。
type AnswerEvaluator interface {
	// Evaluate 评估一次回答，返回结构化评估与模型原始输出
	Evaluate(ctx context.Context, role, question, answer string) (types.Evaluation, string, error)
	// Ask 发送自由文本并返回纯文本回复，用于出题
	Ask(ctx context.Context, prompt string) (string, error)
}

// 确保生产实现满足接口
var _ AnswerEvaluator = (*parser.LLMAnswerEvaluator)(nil)

// SubmitAnswerInput 一次回答提交的全部输入
type SubmitAnswerInput struct {
	SessionID string
	UserEmail string
	UserName  string
	Role      string
	Question  string
	Answer    string
}

// SubmitAnswerResult 一次回答提交的输出
type SubmitAnswerResult struct {
	Evaluation types.Evaluation
	Topic      string
	Profile    *Profile
}

// Orchestrator 串联出题、评估、会话累积与画像更新。
// 每次提交只发起一次模型调用，不做重试。
type Orchestrator struct {
	evaluator AnswerEvaluator
	store     *storage.Storage
	cfg       *config.Config
}

// NewOrchestrator 创建面试编排器
func NewOrchestrator(evaluator AnswerEvaluator, store *storage.Storage, cfg *config.Config) (*Orchestrator, error) {
	if evaluator == nil {
		return nil, fmt.Errorf("evaluator不能为空")
	}
	if store == nil {
		return nil, fmt.Errorf("storage不能为空")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config不能为空")
	}
	return &Orchestrator{
		evaluator: evaluator,
		store:     store,
		cfg:       cfg,
	}, nil
}

// StartInterview 开始一次新的面试：生成会话ID并出第一道题。
// 使用UUIDv7保证会话ID按时间有序。
func (o *Orchestrator) StartInterview(ctx context.Context, role string) (string, string, error) {
	if strings.TrimSpace(role) == "" {
		return "", "", fmt.Errorf("role不能为空")
	}

	sessionUUID, err := uuid.NewV7()
	if err != nil {
		return "", "", fmt.Errorf("生成会话ID失败: %w", err)
	}
	sessionID := sessionUUID.String()

	question, err := o.askQuestion(ctx, role, nil)
	if err != nil {
		return "", "", err
	}
	o.rememberQuestion(ctx, sessionID, question)

	logger.Info().
		Str("session_id", sessionID).
		Str("role", role).
		Msg("面试会话已开始")

	return sessionID, question, nil
}

// NextQuestion 生成下一道面试题，避免与本会话已问过的题目重复。
// 已问题目来自Redis中的会话题目列表，调用方额外提供的题目一并排除。
func (o *Orchestrator) NextQuestion(ctx context.Context, role, sessionID string, askedQuestions []string) (string, error) {
	if strings.TrimSpace(role) == "" {
		return "", fmt.Errorf("role不能为空")
	}

	asked := askedQuestions
	if sessionID != "" && o.store.Redis != nil {
		stored, err := o.store.Redis.GetSessionQuestions(ctx, sessionID)
		if err != nil {
			logger.Warn().Err(err).Str("session_id", sessionID).Msg("读取会话题目列表失败")
		} else {
			asked = append(stored, askedQuestions...)
		}
	}

	question, err := o.askQuestion(ctx, role, asked)
	if err != nil {
		return "", err
	}
	o.rememberQuestion(ctx, sessionID, question)
	return question, nil
}

// rememberQuestion 将已问出的题目记入会话题目列表 (尽力而为)
func (o *Orchestrator) rememberQuestion(ctx context.Context, sessionID, question string) {
	if sessionID == "" || question == "" || o.store.Redis == nil {
		return
	}
	if err := o.store.Redis.AppendSessionQuestion(ctx, sessionID, question); err != nil {
		logger.Warn().Err(err).Str("session_id", sessionID).Msg("记录会话题目失败")
	}
}

// askQuestion 发起一次出题模型调用
func (o *Orchestrator) askQuestion(ctx context.Context, role string, askedQuestions []string) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are a technical interviewer for the role of %s. ", role)
	sb.WriteString("Ask one concise technical interview question. Return only the question text, nothing else.")
	if len(askedQuestions) > 0 {
		sb.WriteString(" Do not repeat any of these questions already asked:\n")
		for _, q := range askedQuestions {
			fmt.Fprintf(&sb, "- %s\n", q)
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, config.GetDuration(o.cfg.Evaluator.EvalTimeout, 30*time.Second))
	defer cancel()

	question, err := o.evaluator.Ask(callCtx, sb.String())
	if err != nil {
		tracing.RecordError(trace.SpanFromContext(ctx), err, tracing.ErrorTypeLLM)
		logger.Error().Err(err).Str("role", role).Msg("出题模型调用失败")
		return "", fmt.Errorf("%w: %v", ErrModelCall, err)
	}
	return question, nil
}

// SubmitAnswer 处理一次回答提交：
// 评估 → 追加会话评估列表 → 落库答题记录 → 画像重算 → 发布事件。
// 模型调用失败时返回哨兵评估和 ErrModelCall，不写入任何会话或画像状态。
func (o *Orchestrator) SubmitAnswer(ctx context.Context, input SubmitAnswerInput) (*SubmitAnswerResult, error) {
	ctx, span := orchestratorTracer.Start(ctx, "Orchestrator.SubmitAnswer",
		trace.WithAttributes(
			attribute.String("session_id", input.SessionID),
			attribute.String("role", input.Role),
		))
	defer span.End()

	if strings.TrimSpace(input.SessionID) == "" {
		return nil, fmt.Errorf("sessionID不能为空")
	}
	if strings.TrimSpace(input.Question) == "" {
		return nil, fmt.Errorf("question不能为空")
	}

	// 评估调用：每次提交恰好一次，不做重试
	callCtx, cancel := context.WithTimeout(ctx, config.GetDuration(o.cfg.Evaluator.EvalTimeout, 30*time.Second))
	defer cancel()

	evaluation, rawOutput, err := o.evaluator.Evaluate(callCtx, input.Role, input.Question, input.Answer)
	if err != nil {
		tracing.RecordErrorWithInfo(span, err, tracing.ErrorTypeLLM, attribute.String("error.stage", "answer_evaluation"))
		logger.Error().
			Err(err).
			Str("session_id", input.SessionID).
			Msg("评估模型调用失败")
		sentinel := ModelErrorEvaluation()
		return &SubmitAnswerResult{Evaluation: sentinel}, fmt.Errorf("%w: %v", ErrModelCall, err)
	}

	topic := parser.ClassifyTopic(input.Question)
	span.SetAttributes(
		attribute.String("question.topic", topic),
		attribute.Int("evaluation.score", evaluation.Score),
		attribute.String("question.preview", tracing.SafeAttributeValue("question", input.Question, tracing.MaxQuestionLength)),
	)

	// 追加到会话评估列表
	if o.store.Redis == nil {
		return nil, fmt.Errorf("会话存储不可用")
	}
	if err := o.store.Redis.AppendSessionEvaluation(ctx, input.SessionID, evaluation); err != nil {
		tracing.RecordError(trace.SpanFromContext(ctx), err, tracing.ErrorTypeRedis)
		return nil, fmt.Errorf("追加会话评估失败: %w", err)
	}

	// 归档模型原始输出 (尽力而为，失败不阻断提交)
	auditPath := o.archiveRawOutput(ctx, input.SessionID, rawOutput)

	now := time.Now()
	record := types.InterviewRecord{
		Question:   input.Question,
		Answer:     input.Answer,
		Score:      float64(evaluation.Score),
		Strengths:  evaluation.Strengths,
		Weaknesses: evaluation.Weaknesses,
		Feedback:   evaluation.Feedback,
		Timestamp:  now.UnixMilli(),
		Date:       now.Format("2006-01-02"),
	}

	// 落库答题记录 (持久化失败对本次请求是致命的，用户的得分不能静默丢失)
	if err := o.saveResponseRow(ctx, input, evaluation, topic, auditPath); err != nil {
		tracing.RecordError(trace.SpanFromContext(ctx), err, tracing.ErrorTypeDB)
		return nil, err
	}

	// 更新用户画像
	var profile *Profile
	if input.UserEmail != "" {
		profile, err = o.updateProfile(ctx, input, record)
		if err != nil {
			tracing.RecordError(trace.SpanFromContext(ctx), err, tracing.ErrorTypeDB)
			return nil, err
		}
	}

	// 发布评估完成事件 (尽力而为)
	o.publishAnswerEvaluated(ctx, input, evaluation, topic, now)

	span.SetStatus(codes.Ok, "")
	return &SubmitAnswerResult{
		Evaluation: evaluation,
		Topic:      topic,
		Profile:    profile,
	}, nil
}

// archiveRawOutput 将模型原始输出归档到对象存储，返回对象路径。未开启归档时返回空串。
func (o *Orchestrator) archiveRawOutput(ctx context.Context, sessionID, rawOutput string) string {
	if o.store.MinIO == nil || rawOutput == "" {
		return ""
	}
	auditID := googleuuid.NewString()
	path, err := o.store.MinIO.UploadEvaluationAudit(ctx, sessionID, auditID, rawOutput)
	if err != nil {
		logger.Warn().
			Err(err).
			Str("session_id", sessionID).
			Msg("归档模型原始输出失败")
		return ""
	}
	return path
}

// saveResponseRow 落库一条答题评估记录
func (o *Orchestrator) saveResponseRow(ctx context.Context, input SubmitAnswerInput, evaluation types.Evaluation, topic, auditPath string) error {
	if o.store.MySQL == nil {
		return fmt.Errorf("关系数据库不可用")
	}

	evaluationJSON, err := models.SliceToJSON(evaluation)
	if err != nil {
		return fmt.Errorf("序列化评估结果失败: %w", err)
	}

	row := &models.InterviewResponse{
		SessionID:     input.SessionID,
		UserEmail:     input.UserEmail,
		Role:          input.Role,
		Topic:         topic,
		Question:      input.Question,
		Answer:        input.Answer,
		Score:         evaluation.Score,
		EvaluationRaw: evaluationJSON,
		AuditPath:     auditPath,
	}
	return o.store.MySQL.SaveInterviewResponse(ctx, row)
}

// updateProfile 在画像锁与行锁下追加答题记录并重算画像
func (o *Orchestrator) updateProfile(ctx context.Context, input SubmitAnswerInput, record types.InterviewRecord) (*Profile, error) {
	// Redis分布式锁挡掉同一用户的并发提交(比如双击重试)；
	// MySQL行锁是底线保证，拿不到Redis锁时依然正确，只是串行点后移。
	lockKey := fmt.Sprintf(constants.KeyProfileLock, input.UserEmail)
	var lockValue string
	if o.store.Redis != nil {
		for attempt := 0; attempt < 3; attempt++ {
			value, err := o.store.Redis.AcquireLock(ctx, lockKey, 10*time.Second)
			if err != nil || value != "" {
				lockValue = value
				break
			}
			time.Sleep(50 * time.Millisecond)
		}
		if lockValue != "" {
			defer func() {
				if _, err := o.store.Redis.ReleaseLock(ctx, lockKey, lockValue); err != nil {
					logger.Warn().Err(err).Str("lock_key", lockKey).Msg("释放画像锁失败")
				}
			}()
		}
	}

	var updated *Profile
	_, err := o.store.MySQL.UpdateProfileLocked(ctx, input.UserEmail, func(row *models.UserProfile) error {
		profile, err := DecodeProfile(row)
		if err != nil {
			return err
		}
		if profile.Name == "" {
			profile.Name = displayNameOrDefault(input.UserName, constants.UnknownUserName)
		}
		if profile.TargetRole == "" {
			profile.TargetRole = input.Role
		}

		ApplyRecord(profile, record)

		updated = profile
		return EncodeProfile(profile, row)
	})
	if err != nil {
		return nil, fmt.Errorf("更新用户画像失败: %w", err)
	}
	return updated, nil
}

// publishAnswerEvaluated 发布回答评估完成事件到消息队列
func (o *Orchestrator) publishAnswerEvaluated(ctx context.Context, input SubmitAnswerInput, evaluation types.Evaluation, topic string, evaluatedAt time.Time) {
	if o.store.RabbitMQ == nil {
		return
	}

	event := types.AnswerEvaluatedEvent{
		EventID:     googleuuid.NewString(),
		UserEmail:   input.UserEmail,
		SessionID:   input.SessionID,
		Role:        input.Role,
		Question:    input.Question,
		Topic:       topic,
		Score:       evaluation.Score,
		EvaluatedAt: evaluatedAt.UnixMilli(),
	}

	err := o.store.RabbitMQ.PublishJSON(ctx,
		o.cfg.RabbitMQ.InterviewEventsExchange,
		o.cfg.RabbitMQ.AnswerEvaluatedRoutingKey,
		event, true)
	if err != nil {
		tracing.RecordError(trace.SpanFromContext(ctx), err, tracing.ErrorTypeRabbitMQ)
		logger.Warn().
			Err(err).
			Str("session_id", input.SessionID).
			Str("event_id", event.EventID).
			Msg("发布评估完成事件失败")
	}
}

// Ask 将一段自由文本转发给模型并返回纯文本回复
func (o *Orchestrator) Ask(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, config.GetDuration(o.cfg.Evaluator.EvalTimeout, 30*time.Second))
	defer cancel()

	response, err := o.evaluator.Ask(callCtx, prompt)
	if err != nil {
		tracing.RecordError(trace.SpanFromContext(ctx), err, tracing.ErrorTypeLLM)
		return "", fmt.Errorf("%w: %v", ErrModelCall, err)
	}
	return response, nil
}

// SessionScore 汇总一个会话的总得分。会话为空或不存在时返回 ErrNoEvaluations。
func (o *Orchestrator) SessionScore(ctx context.Context, sessionID string) (types.SessionSummary, error) {
	if o.store.Redis == nil {
		return types.SessionSummary{}, fmt.Errorf("会话存储不可用")
	}

	evaluations, err := o.store.Redis.GetSessionEvaluations(ctx, sessionID)
	if err != nil {
		tracing.RecordError(trace.SpanFromContext(ctx), err, tracing.ErrorTypeRedis)
		return types.SessionSummary{}, err
	}
	return Summarize(evaluations)
}

// SessionHistory 返回一个会话的全部落库答题记录
func (o *Orchestrator) SessionHistory(ctx context.Context, sessionID string) ([]models.InterviewResponse, error) {
	if o.store.MySQL == nil {
		return nil, fmt.Errorf("关系数据库不可用")
	}
	return o.store.MySQL.ListResponsesBySession(ctx, sessionID)
}

// displayNameOrDefault 返回调用方提供的显示名，为空时取默认值。
// 答题落库路径默认"Unknown User"，画像查询路径默认"Unknown"。
func displayNameOrDefault(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}

// GetOrCreateProfile 获取用户画像，不存在时创建空画像
func (o *Orchestrator) GetOrCreateProfile(ctx context.Context, email, name string) (*Profile, error) {
	if strings.TrimSpace(email) == "" {
		return nil, fmt.Errorf("email不能为空")
	}
	if o.store.MySQL == nil {
		return nil, fmt.Errorf("关系数据库不可用")
	}

	row, err := o.store.MySQL.GetProfileByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if row != nil {
		return DecodeProfile(row)
	}

	// 不存在则创建
	var created *Profile
	_, err = o.store.MySQL.UpdateProfileLocked(ctx, email, func(row *models.UserProfile) error {
		profile, err := DecodeProfile(row)
		if err != nil {
			return err
		}
		if profile.Name == "" {
			profile.Name = displayNameOrDefault(name, constants.DefaultProfileName)
		}
		created = profile
		return EncodeProfile(profile, row)
	})
	if err != nil {
		return nil, fmt.Errorf("创建用户画像失败: %w", err)
	}
	return created, nil
}
