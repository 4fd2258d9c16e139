package interview

import (
	"encoding/json"
	"fmt"
	"math"

	"interview-agent-go/internal/constants"
	"interview-agent-go/internal/parser"
	"interview-agent-go/internal/storage/models"
	"interview-agent-go/internal/types"
)

// Profile 是用户画像的内存表示，JSON列已解码。
type Profile struct {
	Email           string                  `json:"email"`
	Name            string                  `json:"name"`
	TargetRole      string                  `json:"targetRole,omitempty"`
	Progress        float64                 `json:"progress"`
	AvgResponseTime float64                 `json:"avgResponseTime"`
	SkillLevels     map[string]int          `json:"skillLevels"`
	PastInterviews  []types.InterviewRecord `json:"pastInterviews"`
}

// ProfileStats 由答题历史完整重算得到的画像统计量
type ProfileStats struct {
	Progress        float64
	AvgResponseTime float64
	SkillLevels     map[string]int
}

// RecomputeStats 由完整答题历史重算画像统计量。
// progress = 所有记录得分均值 × 10 (0-10分映射到0-100)。
// skillLevels 按记录出现顺序做两两平均: 某话题的首条记录直接取其四舍五入得分，
// 之后的每条记录将话题值替换为 (旧值+新得分)/2 向下取整。早期记录的权重随之衰减，
// 这是刻意保留的既有行为，不要改成真正的滑动均值。
func RecomputeStats(records []types.InterviewRecord) ProfileStats {
	stats := ProfileStats{
		SkillLevels: make(map[string]int),
	}
	if len(records) == 0 {
		return stats
	}

	var scoreSum float64
	for _, record := range records {
		scoreSum += record.Score

		topic := parser.ClassifyTopic(record.Question)
		rounded := int(math.Round(record.Score))
		if previous, ok := stats.SkillLevels[topic]; ok {
			stats.SkillLevels[topic] = (previous + rounded) / 2
		} else {
			stats.SkillLevels[topic] = rounded
		}
	}

	stats.Progress = scoreSum / float64(len(records)) * 10
	// 作答计时尚未接入，与历史数据保持一致的占位值
	stats.AvgResponseTime = constants.AvgResponseTimePlaceholder
	return stats
}

// ApplyRecord 将一条新的答题记录追加到历史并返回重算后的画像。
// 对 profile 的修改是纯内存操作，持久化由调用方负责。
func ApplyRecord(profile *Profile, record types.InterviewRecord) {
	profile.PastInterviews = append(profile.PastInterviews, record)
	stats := RecomputeStats(profile.PastInterviews)
	profile.Progress = stats.Progress
	profile.AvgResponseTime = stats.AvgResponseTime
	profile.SkillLevels = stats.SkillLevels
}

// DecodeProfile 将数据库行解码为内存画像。JSON列为空时填充空集合。
func DecodeProfile(row *models.UserProfile) (*Profile, error) {
	profile := &Profile{
		Email:           row.Email,
		Name:            row.Name,
		TargetRole:      row.TargetRole,
		Progress:        row.Progress,
		AvgResponseTime: row.AvgResponseTime,
		SkillLevels:     make(map[string]int),
		PastInterviews:  make([]types.InterviewRecord, 0),
	}

	if len(row.SkillLevelsJSON) > 0 {
		if err := json.Unmarshal(row.SkillLevelsJSON, &profile.SkillLevels); err != nil {
			return nil, fmt.Errorf("解码skill_levels失败: %w", err)
		}
	}
	if len(row.PastInterviews) > 0 {
		if err := json.Unmarshal(row.PastInterviews, &profile.PastInterviews); err != nil {
			return nil, fmt.Errorf("解码past_interviews失败: %w", err)
		}
	}
	return profile, nil
}

// EncodeProfile 将内存画像写回数据库行
func EncodeProfile(profile *Profile, row *models.UserProfile) error {
	skillJSON, err := models.MapToJSON(profile.SkillLevels)
	if err != nil {
		return fmt.Errorf("编码skill_levels失败: %w", err)
	}
	historyJSON, err := models.SliceToJSON(profile.PastInterviews)
	if err != nil {
		return fmt.Errorf("编码past_interviews失败: %w", err)
	}

	row.Name = profile.Name
	row.TargetRole = profile.TargetRole
	row.Progress = profile.Progress
	row.AvgResponseTime = profile.AvgResponseTime
	row.SkillLevelsJSON = skillJSON
	row.PastInterviews = historyJSON
	return nil
}
