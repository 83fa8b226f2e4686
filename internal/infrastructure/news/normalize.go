package news

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JaegunS/true-ai-builders/internal/infrastructure/logger"
)

// truncationMarkerRegexp 匹配上游API在截断正文后附加的字符数标记，如"[123 chars]"
var truncationMarkerRegexp = regexp.MustCompile(`\s*\[\d+\s*chars\]$`)

// StripTruncationMarker 去除正文末尾的截断标记
// 没有标记的字符串原样返回，重复应用结果不变
func StripTruncationMarker(content string) string {
	return truncationMarkerRegexp.ReplaceAllString(content, "")
}

// stripHTMLTags 去除HTML标签，只保留纯文本
func stripHTMLTags(html string) string {
	// 如果内容为空，直接返回
	if html == "" {
		return ""
	}

	// 内容不含标签时跳过解析，避免goquery改写纯文本
	if !strings.ContainsAny(html, "<>") {
		return html
	}

	// 使用goquery解析HTML
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		logger.Warn("解析HTML失败，返回原始内容", "error", err)
		return html
	}

	// 获取文本内容，去除HTML标签
	text := doc.Text()

	// 清理文本（去除多余的空白字符）
	text = strings.TrimSpace(text)
	// 将连续的空白字符替换为单个空格
	text = strings.Join(strings.Fields(text), " ")

	return text
}

// normalizeContent 规范化文章正文：去除HTML标签和截断标记
// 先去除首尾空白，保证截断标记落在字符串末尾
func normalizeContent(content string) string {
	text := strings.TrimSpace(stripHTMLTags(content))
	text = StripTruncationMarker(text)
	return strings.TrimSpace(text)
}

// truncateString 截断字符串，用于日志输出预览内容
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
