package interview

import (
	"interview-agent-go/internal/types"
)

// Summarize 汇总一个会话内的全部评估结果。
// 评估列表为空时返回 ErrNoEvaluations 而不是零值汇总。
// strengths/weaknesses 按首次出现顺序去重合并。
func Summarize(evaluations []types.Evaluation) (types.SessionSummary, error) {
	if len(evaluations) == 0 {
		return types.SessionSummary{}, ErrNoEvaluations
	}

	totalScore := 0
	strengths := make([]string, 0)
	weaknesses := make([]string, 0)
	seenStrengths := make(map[string]struct{})
	seenWeaknesses := make(map[string]struct{})

	for _, evaluation := range evaluations {
		totalScore += evaluation.Score
		for _, s := range evaluation.Strengths {
			if _, ok := seenStrengths[s]; ok {
				continue
			}
			seenStrengths[s] = struct{}{}
			strengths = append(strengths, s)
		}
		for _, w := range evaluation.Weaknesses {
			if _, ok := seenWeaknesses[w]; ok {
				continue
			}
			seenWeaknesses[w] = struct{}{}
			weaknesses = append(weaknesses, w)
		}
	}

	return types.SessionSummary{
		TotalScore:     totalScore,
		Strengths:      strengths,
		Weaknesses:     weaknesses,
		TotalQuestions: len(evaluations),
		MaxScore:       len(evaluations) * 10,
	}, nil
}
