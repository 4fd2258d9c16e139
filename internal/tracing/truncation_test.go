package tracing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "exactly", TruncateString("exactly", 7))

	long := strings.Repeat("a", 20)
	truncated := TruncateString(long, 10)
	assert.Len(t, truncated, 10)
	assert.True(t, strings.HasSuffix(truncated, "..."))
}

func TestMaskValue(t *testing.T) {
	assert.Equal(t, "", MaskValue(""))
	assert.Equal(t, "*", MaskValue("a"))
	assert.Equal(t, "**", MaskValue("ab"))
	assert.Equal(t, "u**************m", MaskValue("user@example.com"))
}

func TestSafeAttributeValue(t *testing.T) {
	// 敏感字段名触发掩码而不是截断
	masked := SafeAttributeValue("user.email", "user@example.com", DefaultMaxLength)
	assert.NotContains(t, masked, "example")

	// 普通字段超长时截断
	long := strings.Repeat("q", 300)
	safe := SafeAttributeValue("question.preview", long, MaxQuestionLength)
	assert.Len(t, safe, MaxQuestionLength)
}
