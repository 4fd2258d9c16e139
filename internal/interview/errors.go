package interview

import (
	"errors"

	"interview-agent-go/internal/types"
)

var (
	// ErrNoEvaluations 表示会话中还没有任何评估记录，汇总得分时返回。
	// 与"得分为0"是不同的状态，调用方必须能区分。
	ErrNoEvaluations = errors.New("no evaluations recorded for session")

	// ErrModelCall 表示模型调用失败(网络、超时、非2xx等)
	ErrModelCall = errors.New("model call failed")
)

// ModelErrorEvaluation 返回模型调用失败时的哨兵评估结果。
// 与解析失败的降级结果不同，score为0且不写入任何会话或画像状态。
func ModelErrorEvaluation() types.Evaluation {
	return types.Evaluation{
		Score:      0,
		Strengths:  []string{},
		Weaknesses: []string{"Technical error occurred"},
		Feedback:   "Sorry, there was a technical issue. Please try again.",
	}
}
