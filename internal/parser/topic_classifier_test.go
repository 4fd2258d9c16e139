package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyTopic_Keywords(t *testing.T) {
	cases := []struct {
		question string
		expected string
	}{
		{"How does flexbox distribute free space?", TopicCSS},
		{"Explain the CSS grid layout model", TopicCSS},
		{"What is a closure in JavaScript?", TopicJavaScript},
		{"How does the js event loop work?", TopicJavaScript},
		{"When does a React component re-render?", TopicReact},
		{"Describe the time complexity of quicksort", TopicAlgorithms},
		{"Which algorithm would you use to sort a linked list?", TopicAlgorithms},
		{"What does the doctype declaration do in HTML?", TopicHTML},
		{"Tell me about yourself", TopicGeneral},
		{"", TopicGeneral},
	}

	for _, c := range cases {
		assert.Equal(t, c.expected, ClassifyTopic(c.question), "问题: %q", c.question)
	}
}

func TestClassifyTopic_PriorityOrder(t *testing.T) {
	// 同时命中多个话题时，按 CSS > JavaScript > React > Algorithms > HTML 的固定顺序取第一个
	assert.Equal(t, TopicCSS, ClassifyTopic("How do you style a React component with CSS?"))
	assert.Equal(t, TopicJavaScript, ClassifyTopic("Explain closures and how React uses them"))
	assert.Equal(t, TopicReact, ClassifyTopic("Compare a React component with a plain HTML element"))
}

func TestClassifyTopic_CaseInsensitive(t *testing.T) {
	assert.Equal(t, TopicCSS, ClassifyTopic("WHAT IS FLEX-WRAP?"))
	assert.Equal(t, TopicJavaScript, ClassifyTopic("explain CLOSURE semantics"))
}

func TestClassifyTopic_Deterministic(t *testing.T) {
	// 纯函数：相同输入必须永远给出相同话题
	question := "Explain the time complexity of merge sort"
	first := ClassifyTopic(question)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ClassifyTopic(question))
	}
}
