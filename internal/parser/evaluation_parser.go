package parser

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"interview-agent-go/internal/logger"
	"interview-agent-go/internal/types"
)

// FallbackEvaluation 返回解析失败时的固定降级评估。
// 该结果对调用方而言是正常输出，解析错误不会向外传播。
func FallbackEvaluation() types.Evaluation {
	return types.Evaluation{
		Score:      5,
		Strengths:  []string{"Attempted to answer"},
		Weaknesses: []string{"Response unclear"},
		Feedback:   "Please try to be more specific in your answer.",
	}
}

// ParseEvaluation 将模型原始输出解析为结构化评估。
// 模型输出常被markdown代码块包裹；以```开头时截取首个 { 到最后一个 } 之间的子串再解析。
// 任何解析失败都返回固定的降级评估，绝不抛错。
func ParseEvaluation(raw string) types.Evaluation {
	candidate := strings.TrimSpace(strings.TrimPrefix(raw, "\uFEFF"))

	if strings.HasPrefix(candidate, "```") {
		start := strings.Index(candidate, "{")
		end := strings.LastIndex(candidate, "}")
		if start != -1 && end != -1 && end > start {
			candidate = candidate[start : end+1]
		}
	}

	// 清理无效UTF-8序列，避免json解析直接失败
	if !utf8.ValidString(candidate) {
		candidate = strings.ToValidUTF8(candidate, "")
	}

	var ev types.Evaluation
	// ① 正常解析
	if err := json.Unmarshal([]byte(candidate), &ev); err != nil {
		// ② 解析失败 -> 自动修复字符串内部未转义的引号后再试一次
		fixed := sanitizeJSON(candidate)
		if jsonErr := json.Unmarshal([]byte(fixed), &ev); jsonErr != nil {
			logger.Warn().
				Err(err).
				Str("raw", truncateForLog(raw, 300)).
				Msg("解析模型评估输出失败，返回降级评估")
			return FallbackEvaluation()
		}
	}

	return normalizeEvaluation(ev)
}

// normalizeEvaluation 保证评估满足不变式：分数在0-10之间，切片不为nil
func normalizeEvaluation(ev types.Evaluation) types.Evaluation {
	if ev.Score < 0 {
		ev.Score = 0
	}
	if ev.Score > 10 {
		ev.Score = 10
	}
	if ev.Strengths == nil {
		ev.Strengths = []string{}
	}
	if ev.Weaknesses == nil {
		ev.Weaknesses = []string{}
	}
	return ev
}

// sanitizeJSON 会遍历 src，将任何位于字符串字面量内部但并非"真正结束"的双引号写成 \"，
// 以保证整个 JSON 在 Go 端能够正常反序列化。
// 它通过检查下一个非空白字符是否为 :, ], }, 或 , 来判断该 " 是否为字符串的结束。
func sanitizeJSON(src string) string {
	var b strings.Builder
	inStr := false
	escaped := false

	for i := 0; i < len(src); i++ {
		c := src[i]

		if c == '"' && !escaped {
			if !inStr {
				inStr = true
				b.WriteByte(c)
			} else {
				// 当前在字符串里，检查这是不是字符串的真正结束
				j := i + 1
				for j < len(src) && (src[j] == ' ' || src[j] == '\t' || src[j] == '\n' || src[j] == '\r') {
					j++
				}
				if j < len(src) && (src[j] == ':' || src[j] == ',' || src[j] == ']' || src[j] == '}') {
					inStr = false
					b.WriteByte(c)
				} else {
					// 字符串内部的 "，改写成 \"
					b.WriteString("\\\"")
				}
			}
			escaped = false

		} else if c == '\\' && !escaped {
			escaped = true
			b.WriteByte(c)

		} else {
			b.WriteByte(c)
			escaped = false
		}
	}

	return b.String()
}

// truncateForLog 按字节上限截断，回退到rune边界避免截出无效UTF-8
func truncateForLog(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
