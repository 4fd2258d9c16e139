package constants

import "time"

const (
	// ServiceName 服务名，用于tracing与事件来源标识
	ServiceName = "interview-agent-go"

	// DefaultSessionTTL 会话评估列表在Redis中的默认过期时间
	DefaultSessionTTL = 2 * time.Hour

	// AvgResponseTimePlaceholder 平均作答时长的占位值(秒)，暂未接入真实计时
	AvgResponseTimePlaceholder = 6.5

	// UnknownUserName 答题落库更新画像时未提供显示名的默认用户名
	UnknownUserName = "Unknown User"

	// DefaultProfileName 画像查询接口创建空画像时的默认显示名，与答题路径的默认名不同
	DefaultProfileName = "Unknown"
)
