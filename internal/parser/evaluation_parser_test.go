package parser

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestParseEvaluation_BareJSON(t *testing.T) {
	raw := `{"score": 8, "strengths": ["Clear explanation"], "weaknesses": ["Too short"], "feedback": "Good answer overall."}`

	ev := ParseEvaluation(raw)

	assert.Equal(t, 8, ev.Score, "分数应与模型输出一致")
	assert.Equal(t, []string{"Clear explanation"}, ev.Strengths)
	assert.Equal(t, []string{"Too short"}, ev.Weaknesses)
	assert.Equal(t, "Good answer overall.", ev.Feedback)
}

func TestParseEvaluation_FencedEqualsBare(t *testing.T) {
	bare := `{"score": 7, "strengths": ["Concise"], "weaknesses": [], "feedback": "Solid."}`
	fenced := "```json\n" + bare + "\n```"

	// markdown代码块包裹与裸JSON必须产出相同的评估
	assert.Equal(t, ParseEvaluation(bare), ParseEvaluation(fenced), "代码块包裹不应影响解析结果")
}

func TestParseEvaluation_FencedWithoutLanguageTag(t *testing.T) {
	raw := "```\n{\"score\": 6, \"strengths\": [], \"weaknesses\": [], \"feedback\": \"ok\"}\n```"

	ev := ParseEvaluation(raw)
	assert.Equal(t, 6, ev.Score)
}

func TestParseEvaluation_InvalidFallsBack(t *testing.T) {
	cases := []string{
		"this is not json",
		"",
		"```json\nnot even close\n```",
		"{score: 5",
	}

	expected := FallbackEvaluation()
	for _, raw := range cases {
		ev := ParseEvaluation(raw)
		assert.Equal(t, expected, ev, "不可解析的输入必须返回固定降级评估: %q", raw)
	}
}

func TestFallbackEvaluation_FixedShape(t *testing.T) {
	ev := FallbackEvaluation()

	assert.Equal(t, 5, ev.Score)
	assert.Equal(t, []string{"Attempted to answer"}, ev.Strengths)
	assert.Equal(t, []string{"Response unclear"}, ev.Weaknesses)
	assert.Equal(t, "Please try to be more specific in your answer.", ev.Feedback)
}

func TestParseEvaluation_ScoreClamped(t *testing.T) {
	high := ParseEvaluation(`{"score": 15, "strengths": [], "weaknesses": [], "feedback": "x"}`)
	assert.Equal(t, 10, high.Score, "超过10的分数应被截断到10")

	low := ParseEvaluation(`{"score": -3, "strengths": [], "weaknesses": [], "feedback": "x"}`)
	assert.Equal(t, 0, low.Score, "负分应被截断到0")
}

func TestParseEvaluation_NilSlicesNormalized(t *testing.T) {
	// strengths/weaknesses字段缺失时也必须是空切片而不是nil，
	// 否则JSON序列化会输出null
	ev := ParseEvaluation(`{"score": 4, "feedback": "hmm"}`)

	assert.NotNil(t, ev.Strengths)
	assert.NotNil(t, ev.Weaknesses)
	assert.Empty(t, ev.Strengths)
	assert.Empty(t, ev.Weaknesses)
}

func TestParseEvaluation_ByteOrderMarkStripped(t *testing.T) {
	// 某些模型输出带UTF-8 BOM前缀，应在解析前剥掉
	raw := "\uFEFF" + `{"score": 9, "strengths": ["Deep"], "weaknesses": [], "feedback": "Great."}`

	ev := ParseEvaluation(raw)
	assert.Equal(t, 9, ev.Score, "BOM前缀不应导致降级")
}

func TestTruncateForLog_RuneBoundary(t *testing.T) {
	s := strings.Repeat("评", 10) // 每个rune占3字节

	truncated := truncateForLog(s, 8)
	assert.True(t, utf8.ValidString(truncated), "截断结果必须是合法UTF-8")
	assert.Equal(t, strings.Repeat("评", 2), truncated, "应回退到rune边界")

	assert.Equal(t, "abc", truncateForLog("abc", 8), "未超限时原样返回")
}

func TestParseEvaluation_UnescapedQuotesRecovered(t *testing.T) {
	// 模型偶尔会在字符串内部输出未转义的引号，sanitizeJSON应能修复
	raw := `{"score": 7, "strengths": ["Used the word "closure" correctly"], "weaknesses": [], "feedback": "Nice."}`

	ev := ParseEvaluation(raw)
	assert.Equal(t, 7, ev.Score, "修复未转义引号后应解析成功而不是降级")
	assert.Contains(t, ev.Strengths[0], "closure")
}
