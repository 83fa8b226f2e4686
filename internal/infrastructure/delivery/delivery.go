package delivery

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/JaegunS/true-ai-builders/internal/domain/model"
	"github.com/JaegunS/true-ai-builders/internal/infrastructure/logger"
)

// Deliverer 定义摘要投递接口
// 邮件与聊天桥接等外部投递方式由独立进程实现，这里只提供本地输出
type Deliverer interface {
	// Deliver 投递渲染好的报告
	Deliver(report string) error
}

// RenderReport 将管道结果渲染为Markdown报告
func RenderReport(result model.DigestResult, query string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Builder News Digest — %s\n\n", time.Now().Format("2006-01-02")))
	sb.WriteString(fmt.Sprintf("Topic: `%s`\n\n", query))

	if result.SummaryText == "" {
		sb.WriteString("No news found in the requested window.\n")
		return sb.String()
	}

	sb.WriteString("## Digest\n\n")
	sb.WriteString(result.SummaryText)
	sb.WriteString("\n\n## Discussion Questions\n\n")
	sb.WriteString(result.QuestionsText)
	sb.WriteString("\n")

	return sb.String()
}

// ConsoleDeliverer 输出到标准输出
type ConsoleDeliverer struct{}

// Deliver 输出到标准输出
func (d *ConsoleDeliverer) Deliver(report string) error {
	_, err := fmt.Println(report)
	return err
}

// FileDeliverer 写入指定文件
type FileDeliverer struct {
	Path string
}

// Deliver 写入指定文件，必要时创建目录
func (d *FileDeliverer) Deliver(report string) error {
	// 确保输出目录存在
	outputDir := filepath.Dir(d.Path)
	if outputDir != "." {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("创建输出目录失败: %w", err)
		}
	}

	if err := os.WriteFile(d.Path, []byte(report), 0644); err != nil {
		return fmt.Errorf("写入输出文件失败: %w", err)
	}

	logger.Info("报告已写入文件", "path", d.Path)
	return nil
}
