package parser

import "strings"

// 技能话题常量
const (
	TopicCSS        = "CSS"
	TopicJavaScript = "JavaScript"
	TopicReact      = "React"
	TopicAlgorithms = "Algorithms"
	TopicHTML       = "HTML"
	TopicGeneral    = "General"
)

// topicKeywords 按固定优先级排列的话题关键词表。
// 顺序即优先级：同时命中多个话题的问题归入排在前面的那个
// (例如同时提到 "css" 和 "react" 的问题归为 CSS)。
var topicKeywords = []struct {
	topic    string
	keywords []string
}{
	{TopicCSS, []string{"css", "flex", "grid"}},
	{TopicJavaScript, []string{"javascript", "js", "closure"}},
	{TopicReact, []string{"react", "component"}},
	{TopicAlgorithms, []string{"algorithm", "time complexity", "sort"}},
	{TopicHTML, []string{"html"}},
}

// ClassifyTopic 根据关键词将问题映射到一个粗粒度技能话题。
// 大小写不敏感的子串匹配，首个命中即返回；无命中返回 General。
// 纯函数，无副作用。
func ClassifyTopic(question string) string {
	q := strings.ToLower(question)

	for _, entry := range topicKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(q, kw) {
				return entry.topic
			}
		}
	}

	return TopicGeneral
}
