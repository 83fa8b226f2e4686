package delivery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaegunS/true-ai-builders/internal/domain/model"
)

func TestRenderReport(t *testing.T) {
	report := RenderReport(model.DigestResult{
		SummaryText:   "A digest about two stories.",
		QuestionsText: "Question one?\nQuestion two?",
	}, "AI builders")

	assert.Contains(t, report, "# Builder News Digest")
	assert.Contains(t, report, "`AI builders`")
	assert.Contains(t, report, "## Digest")
	assert.Contains(t, report, "A digest about two stories.")
	assert.Contains(t, report, "## Discussion Questions")
	assert.Contains(t, report, "Question two?")
}

func TestRenderReportEmptyResult(t *testing.T) {
	report := RenderReport(model.DigestResult{}, "AI")

	// 空结果渲染为"无新闻"报告，不包含空的章节
	assert.Contains(t, report, "No news found")
	assert.NotContains(t, report, "## Digest")
	assert.NotContains(t, report, "## Discussion Questions")
}

func TestFileDeliverer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "digest.md")
	d := &FileDeliverer{Path: path}

	require.NoError(t, d.Deliver("# report"))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# report", string(content))
}
