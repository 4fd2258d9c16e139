package types

// Evaluation 模型对单次回答的结构化评估结果
// 一经构造不再修改。Strengths/Weaknesses 可以为空切片，但不应为 nil。
type Evaluation struct {
	Score      int      `json:"score"`      // 0-10 分
	Strengths  []string `json:"strengths"`  // 回答亮点
	Weaknesses []string `json:"weaknesses"` // 回答不足
	Feedback   string   `json:"feedback"`   // 综合点评
}

// InterviewRecord 一道已回答面试题的不可变记录，按时间追加到用户历史中
type InterviewRecord struct {
	Question   string   `json:"question"`
	Answer     string   `json:"answer"`
	Score      float64  `json:"score"`
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
	Feedback   string   `json:"feedback"`
	Timestamp  int64    `json:"timestamp"` // epoch 毫秒
	Date       string   `json:"date"`      // ISO 日期，例如 "2025-07-02"
}

// SessionSummary 一次面试会话的汇总得分
type SessionSummary struct {
	TotalScore     int      `json:"score"`          // 所有回答得分之和
	Strengths      []string `json:"strengths"`      // 去重后的亮点集合
	Weaknesses     []string `json:"weaknesses"`     // 去重后的不足集合
	TotalQuestions int      `json:"totalQuestions"` // 已回答题目数
	MaxScore       int      `json:"maxScore"`       // totalQuestions × 10
}

// AnswerEvaluatedEvent 发布到消息队列的回答评估完成事件
type AnswerEvaluatedEvent struct {
	EventID     string `json:"event_id"`
	UserEmail   string `json:"user_email"`
	SessionID   string `json:"session_id"`
	Role        string `json:"role"`
	Question    string `json:"question"`
	Topic       string `json:"topic"`
	Score       int    `json:"score"`
	EvaluatedAt int64  `json:"evaluated_at"` // epoch 毫秒
}
