package news

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripTruncationMarker(t *testing.T) {
	// 带标记的正文去除标记
	assert.Equal(t, "Some text", StripTruncationMarker("Some text[42 chars]"))
	assert.Equal(t, "Some text", StripTruncationMarker("Some text [42 chars]"))
	assert.Equal(t, "Some text", StripTruncationMarker("Some text[1234  chars]"))

	// 没有标记的字符串原样返回
	assert.Equal(t, "Some text", StripTruncationMarker("Some text"))
	assert.Equal(t, "", StripTruncationMarker(""))

	// 标记只在末尾生效
	assert.Equal(t, "[42 chars] in the middle", StripTruncationMarker("[42 chars] in the middle"))
}

func TestStripTruncationMarkerIdempotent(t *testing.T) {
	// 重复应用结果不变
	once := StripTruncationMarker("Breaking news about AI[500 chars]")
	twice := StripTruncationMarker(once)
	assert.Equal(t, once, twice)
	assert.Equal(t, "Breaking news about AI", twice)
}

func TestStripHTMLTags(t *testing.T) {
	assert.Equal(t, "Hello world", stripHTMLTags("<p>Hello <b>world</b></p>"))
	assert.Equal(t, "plain text", stripHTMLTags("plain text"))
	assert.Equal(t, "", stripHTMLTags(""))
}

func TestNormalizeContent(t *testing.T) {
	// HTML去除后仍能识别末尾的截断标记
	assert.Equal(t, "Hello world", normalizeContent("<p>Hello world</p> [99 chars]"))
	assert.Equal(t, "Hello world", normalizeContent("  Hello world[7 chars]  "))
}
