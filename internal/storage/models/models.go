package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// UserProfile 用户技能画像表，以邮箱为主键。
// skill_levels 与 past_interviews 以JSON列存储，读取后在内存中重算。
type UserProfile struct {
	Email           string         `gorm:"type:varchar(255);primaryKey"`
	Name            string         `gorm:"type:varchar(255)"`
	TargetRole      string         `gorm:"type:varchar(100);index:idx_up_target_role"`
	Progress        float64        `gorm:"type:float;default:0"`
	AvgResponseTime float64        `gorm:"type:float;default:0"`
	SkillLevelsJSON datatypes.JSON `gorm:"column:skill_levels_json;type:json"`
	PastInterviews  datatypes.JSON `gorm:"column:past_interviews_json;type:json"`
	CreatedAt       time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt       time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}

// InterviewResponse 单次问答评估记录表 (追加写，审计与回放用)
type InterviewResponse struct {
	ResponseID    uint64         `gorm:"primaryKey;autoIncrement"`
	SessionID     string         `gorm:"type:varchar(128);not null;index:idx_ir_session_id"`
	UserEmail     string         `gorm:"type:varchar(255);index:idx_ir_user_email"`
	Role          string         `gorm:"type:varchar(100)"`
	Topic         string         `gorm:"type:varchar(50);index:idx_ir_topic"`
	Question      string         `gorm:"type:text;not null"`
	Answer        string         `gorm:"type:text"`
	Score         int            `gorm:"type:int"`
	EvaluationRaw datatypes.JSON `gorm:"column:evaluation_json;type:json"`
	AuditPath     string         `gorm:"type:varchar(1024)"` // 原始模型输出在对象存储中的路径
	CreatedAt     time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);index:idx_ir_created_at"`
}

func (InterviewResponse) TableName() string {
	return "interview_responses"
}

// MapToJSON 将map转换为datatypes.JSON
func MapToJSON(m map[string]int) (datatypes.JSON, error) {
	if m == nil {
		m = map[string]int{}
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}

// SliceToJSON 将任意切片转换为datatypes.JSON
func SliceToJSON(v interface{}) (datatypes.JSON, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}
