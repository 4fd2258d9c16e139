package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"interview-agent-go/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
)

// ObjectStorage 对象存储接口
type ObjectStorage interface {
	// UploadEvaluationAudit 归档一次评估的模型原始输出，返回对象路径
	UploadEvaluationAudit(ctx context.Context, sessionID, auditID string, rawOutput string) (string, error)

	// GetEvaluationAudit 读取归档的模型原始输出
	GetEvaluationAudit(ctx context.Context, objectName string) (string, error)

	// DeleteEvaluationAudit 删除归档对象
	DeleteEvaluationAudit(ctx context.Context, objectName string) error
}

// 确保MinIO实现了ObjectStorage接口
var _ ObjectStorage = (*MinIO)(nil)

// MinIO 提供对象存储功能，用于归档模型的原始评估输出
type MinIO struct {
	client      *minio.Client
	cfg         *config.MinIOConfig
	auditBucket string
	logger      *log.Logger
}

// NewMinIO 创建MinIO客户端
func NewMinIO(cfg *config.MinIOConfig, logger *log.Logger) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MinIO配置不能为空")
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	logger.Printf("[MinIO] Initializing MinIO client with endpoint: %s, auditBucket: %s", cfg.Endpoint, cfg.AuditBucket)

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		logger.Printf("[MinIO] Initialization failed: %v", err)
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}

	auditBucket := cfg.AuditBucket
	if auditBucket == "" {
		auditBucket = "evaluation-audit" // 默认值
	}

	m := &MinIO{
		client:      client,
		cfg:         cfg,
		auditBucket: auditBucket,
		logger:      logger,
	}

	// 确保存储桶存在
	if err := m.ensureBucketExists(auditBucket, cfg.Location); err != nil {
		logger.Printf("[MinIO] Failed to ensure audit bucket %s exists: %v", auditBucket, err)
		return nil, fmt.Errorf("确保归档存储桶 %s 存在失败: %w", auditBucket, err)
	}

	// 设置生命周期规则
	if cfg.AuditExpireDays > 0 {
		if err := m.setupBucketLifecycle(context.Background(), auditBucket, "expire-evaluation-audit", cfg.AuditExpireDays); err != nil {
			logger.Printf("[MinIO] Warning: Failed to set up lifecycle rules: %v", err)
		}
	}

	logger.Printf("[MinIO] Client initialized successfully for endpoint: %s", cfg.Endpoint)
	return m, nil
}

// ensureBucketExists 确保存储桶存在
func (m *MinIO) ensureBucketExists(bucketName, location string) error {
	exists, err := m.client.BucketExists(context.Background(), bucketName)
	if err != nil {
		return fmt.Errorf("检查存储桶 %s 是否存在时出错: %w", bucketName, err)
	}
	if !exists {
		m.logger.Printf("[MinIO] Bucket %s does not exist, attempting to create...", bucketName)
		err = m.client.MakeBucket(context.Background(), bucketName, minio.MakeBucketOptions{Region: location})
		if err != nil {
			return fmt.Errorf("创建存储桶 %s 失败: %w", bucketName, err)
		}
		m.logger.Printf("[MinIO] Bucket %s created successfully.", bucketName)
	}
	return nil
}

// setupBucketLifecycle 为指定存储桶设置生命周期规则
func (m *MinIO) setupBucketLifecycle(ctx context.Context, bucketName, ruleID string, expiryDays int) error {
	m.logger.Printf("[MinIO] Setting lifecycle rule for bucket %s: ID=%s, ExpiryDays=%d", bucketName, ruleID, expiryDays)
	config := lifecycle.NewConfiguration()
	config.Rules = []lifecycle.Rule{
		{
			ID:     ruleID,
			Status: "Enabled",
			Expiration: lifecycle.Expiration{
				Days: lifecycle.ExpirationDays(expiryDays),
			},
		},
	}

	if err := m.client.SetBucketLifecycle(ctx, bucketName, config); err != nil {
		m.logger.Printf("[MinIO] Error setting lifecycle for bucket %s: %v", bucketName, err)
		return err
	}
	return nil
}

// auditObjectName 构造归档对象路径: sessions/{sessionID}/{auditID}.txt
func auditObjectName(sessionID, auditID string) string {
	return fmt.Sprintf("sessions/%s/%s.txt", sessionID, auditID)
}

// UploadEvaluationAudit 归档一次评估的模型原始输出
func (m *MinIO) UploadEvaluationAudit(ctx context.Context, sessionID, auditID string, rawOutput string) (string, error) {
	if strings.TrimSpace(sessionID) == "" || strings.TrimSpace(auditID) == "" {
		return "", fmt.Errorf("sessionID与auditID不能为空")
	}

	objectName := auditObjectName(sessionID, auditID)
	reader := bytes.NewReader([]byte(rawOutput))

	m.logger.Printf("[MinIO] Uploading evaluation audit: ObjectName=%s, Size=%d", objectName, reader.Len())

	uploadCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := m.client.PutObject(uploadCtx, m.auditBucket, objectName, reader, int64(reader.Len()),
		minio.PutObjectOptions{ContentType: "text/plain; charset=utf-8"})
	if err != nil {
		m.logger.Printf("[MinIO] Error uploading audit object %s: %v", objectName, err)
		return "", fmt.Errorf("上传归档对象 %s 失败: %w", objectName, err)
	}

	return fmt.Sprintf("%s/%s", m.auditBucket, objectName), nil
}

// GetEvaluationAudit 读取归档的模型原始输出。
// objectName 接受带桶前缀的完整路径或桶内路径。
func (m *MinIO) GetEvaluationAudit(ctx context.Context, objectName string) (string, error) {
	name := strings.TrimPrefix(objectName, m.auditBucket+"/")

	obj, err := m.client.GetObject(ctx, m.auditBucket, name, minio.GetObjectOptions{})
	if err != nil {
		return "", fmt.Errorf("获取归档对象 %s 失败: %w", name, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return "", fmt.Errorf("读取归档对象 %s 失败: %w", name, err)
	}
	return string(data), nil
}

// DeleteEvaluationAudit 删除归档对象
func (m *MinIO) DeleteEvaluationAudit(ctx context.Context, objectName string) error {
	name := strings.TrimPrefix(objectName, m.auditBucket+"/")
	if err := m.client.RemoveObject(ctx, m.auditBucket, name, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("删除归档对象 %s 失败: %w", name, err)
	}
	return nil
}
