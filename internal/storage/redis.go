package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"interview-agent-go/internal/config"
	"interview-agent-go/internal/constants"
	"interview-agent-go/internal/types"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// ErrNotFound is returned when a key is not found in Redis.
// It wraps the underlying redis.Nil error for abstraction.
var ErrNotFound = redis.Nil

// 为Redis操作定义专用tracer
var redisTracer = otel.Tracer("interview-agent-go/storage/redis")

// Redis操作前缀采样率配置
var redisKeySamplingRates = map[string]float64{
	"interview:session:": 0.1, // 会话评估列表操作采样10%
	"interview:profile:": 0.5, // 画像锁操作采样50%
}

// 随机数生成器
var (
	rnd      *rand.Rand
	rndMutex sync.Mutex
)

func init() {
	source := rand.NewSource(time.Now().UnixNano())
	rnd = rand.New(source)
}

// shouldSampleRedisOp 根据key前缀决定是否需要创建span
func shouldSampleRedisOp(key string) bool {
	if key == "" {
		return false
	}

	for prefix, rate := range redisKeySamplingRates {
		if strings.HasPrefix(key, prefix) {
			return randFloat() < rate
		}
	}

	// 默认采样率5%
	return randFloat() < 0.05
}

func randFloat() float64 {
	rndMutex.Lock()
	defer rndMutex.Unlock()
	return rnd.Float64()
}

// Redis wraps the Redis client
type Redis struct {
	Client *redis.Client
	config *config.RedisConfig
}

// NewRedisAdapter creates a new Redis client connection
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	opt := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,

		// 连接池设置
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		// 超时设置
		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,

		// 重试设置
		MaxRetries:      cfg.MaxRetries,
		MinRetryBackoff: time.Duration(cfg.MinRetryBackoffMS) * time.Millisecond,
		MaxRetryBackoff: time.Duration(cfg.MaxRetryBackoffMS) * time.Millisecond,

		// 连接生命周期
		ConnMaxLifetime: time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute,
		ConnMaxIdleTime: time.Duration(cfg.ConnMaxIdleTimeMinutes) * time.Minute,
	}

	client := redis.NewClient(opt)

	// 添加OpenTelemetry钩子, 记录所有Redis操作
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("failed to instrument Redis with OpenTelemetry: %w", err)
	}

	// Ping to check connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	return &Redis{
		Client: client,
		config: cfg,
	}, nil
}

// Close closes the Redis client connection
func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// Ping checks the Redis connection
func (r *Redis) Ping(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	return r.Client.Ping(ctx).Err()
}

// GetSessionTTL 返回配置的会话评估列表过期时间
func (r *Redis) GetSessionTTL() time.Duration {
	return config.GetDuration(r.config.SessionTTL, constants.DefaultSessionTTL)
}

// sessionEvaluationsKey 构造会话评估列表的key
func sessionEvaluationsKey(sessionID string) string {
	return fmt.Sprintf(constants.KeySessionEvaluations, sessionID)
}

// AppendSessionEvaluation 将单次评估追加到会话列表尾部并刷新过期时间。
// RPush与Expire在同一个事务pipeline中提交，列表顺序即提交顺序。
func (r *Redis) AppendSessionEvaluation(ctx context.Context, sessionID string, evaluation types.Evaluation) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}

	data, err := json.Marshal(evaluation)
	if err != nil {
		return fmt.Errorf("序列化评估结果失败: %w", err)
	}

	key := sessionEvaluationsKey(sessionID)

	pipe := r.Client.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, r.GetSessionTTL())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("追加会话评估失败: %w", err)
	}
	return nil
}

// GetSessionEvaluations 按提交顺序返回会话的全部评估记录。
// 列表不存在时返回空切片而不是错误。
func (r *Redis) GetSessionEvaluations(ctx context.Context, sessionID string) ([]types.Evaluation, error) {
	if r.Client == nil {
		return nil, fmt.Errorf("redis client is not initialized")
	}

	key := sessionEvaluationsKey(sessionID)

	var span trace.Span
	if shouldSampleRedisOp(key) {
		ctx, span = redisTracer.Start(ctx, "Redis.GetSessionEvaluations",
			trace.WithSpanKind(trace.SpanKindClient))
		defer span.End()

		span.SetAttributes(
			semconv.DBSystemRedis,
			attribute.String("db.operation", "LRANGE"),
			attribute.String("db.redis.key", key),
		)
	}

	items, err := r.Client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		if span != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return nil, fmt.Errorf("读取会话评估列表失败: %w", err)
	}

	evaluations := make([]types.Evaluation, 0, len(items))
	for _, item := range items {
		var evaluation types.Evaluation
		if err := json.Unmarshal([]byte(item), &evaluation); err != nil {
			// 跳过损坏的记录而不是使整个会话不可用
			continue
		}
		evaluations = append(evaluations, evaluation)
	}

	if span != nil {
		span.SetAttributes(attribute.Int("session.evaluation_count", len(evaluations)))
		span.SetStatus(codes.Ok, "")
	}

	return evaluations, nil
}

// sessionQuestionsKey 构造会话已问题目列表的key
func sessionQuestionsKey(sessionID string) string {
	return fmt.Sprintf(constants.KeySessionQuestions, sessionID)
}

// AppendSessionQuestion 记录一道已问出的题目，供后续出题去重
func (r *Redis) AppendSessionQuestion(ctx context.Context, sessionID string, question string) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}

	key := sessionQuestionsKey(sessionID)

	pipe := r.Client.TxPipeline()
	pipe.RPush(ctx, key, question)
	pipe.Expire(ctx, key, r.GetSessionTTL())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("记录会话题目失败: %w", err)
	}
	return nil
}

// GetSessionQuestions 按出题顺序返回会话内已问过的题目
func (r *Redis) GetSessionQuestions(ctx context.Context, sessionID string) ([]string, error) {
	if r.Client == nil {
		return nil, fmt.Errorf("redis client is not initialized")
	}

	questions, err := r.Client.LRange(ctx, sessionQuestionsKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("读取会话题目列表失败: %w", err)
	}
	return questions, nil
}

// ClearSession 删除会话的评估列表与题目列表
func (r *Redis) ClearSession(ctx context.Context, sessionID string) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	return r.Client.Del(ctx, sessionEvaluationsKey(sessionID), sessionQuestionsKey(sessionID)).Err()
}

// AcquireLock 尝试获取一个分布式锁
func (r *Redis) AcquireLock(ctx context.Context, lockKey string, expiration time.Duration) (string, error) {
	if r.Client == nil {
		return "", fmt.Errorf("redis client is not initialized")
	}
	// 生成一个随机值作为锁的持有者标识
	lockValue := fmt.Sprintf("%d", time.Now().UnixNano())
	// 尝试设置一个带过期时间的key，NX保证了原子性
	ok, err := r.Client.SetNX(ctx, lockKey, lockValue, expiration).Result()
	if err != nil {
		return "", err
	}
	if ok {
		return lockValue, nil
	}
	// 未能获取锁
	return "", nil
}

// ReleaseLock 释放一个分布式锁，使用Lua脚本保证原子性
func (r *Redis) ReleaseLock(ctx context.Context, lockKey string, lockValue string) (bool, error) {
	if r.Client == nil {
		return false, fmt.Errorf("redis client is not initialized")
	}
	// Lua脚本: 如果key存在且值匹配，则删除key
	script := `
        if redis.call("get", KEYS[1]) == ARGV[1] then
            return redis.call("del", KEYS[1])
        else
            return 0
        end
    `
	res, err := r.Client.Eval(ctx, script, []string{lockKey}, lockValue).Result()
	if err != nil {
		return false, err
	}

	if released, ok := res.(int64); ok && released == 1 {
		return true, nil
	}

	return false, nil
}
