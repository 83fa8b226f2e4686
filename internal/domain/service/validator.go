package service

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/JaegunS/true-ai-builders/internal/domain/model"
)

// 查询表达式的最大长度，GNews对q参数有长度限制
const maxQueryLength = 200

// Validator 提供输入验证功能
type Validator struct{}

// NewValidator 创建新的验证器实例
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateQuery 验证新闻搜索查询表达式
func (v *Validator) ValidateQuery(query string) error {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return errors.New("查询表达式不能为空")
	}
	if len(trimmed) > maxQueryLength {
		return fmt.Errorf("查询表达式过长: %d字符（上限%d）", len(trimmed), maxQueryLength)
	}
	return nil
}

// ValidateWindow 验证时间窗口的合法性
func (v *Validator) ValidateWindow(window model.TimeRange) error {
	// 零值窗口合法，表示"最近24小时"
	if window.From.IsZero() {
		return nil
	}
	if !window.To.IsZero() && window.To.Before(window.From) {
		return errors.New("时间窗口的结束时间早于起始时间")
	}
	return nil
}

// ValidateOpmlFile 验证OPML文件路径安全性（仅RSS来源使用）
func (v *Validator) ValidateOpmlFile(filePath string) error {
	// 检查文件路径是否为空
	if strings.TrimSpace(filePath) == "" {
		return errors.New("OPML文件路径不能为空")
	}

	// 使用filepath.Clean清理路径
	cleanPath := filepath.Clean(filePath)

	// 检查路径是否包含目录遍历尝试
	if strings.Contains(cleanPath, "..") || strings.Contains(cleanPath, "~") {
		return fmt.Errorf("路径包含非法字符: %s", cleanPath)
	}

	// 相对路径相对于工作目录解析
	if !filepath.IsAbs(cleanPath) {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("获取工作目录失败: %w", err)
		}
		cleanPath = filepath.Clean(filepath.Join(wd, cleanPath))
	}

	// 检查文件扩展名
	if !strings.HasSuffix(strings.ToLower(cleanPath), ".opml") {
		return fmt.Errorf("只允许.OPML文件格式: %s", cleanPath)
	}

	// 验证文件是否存在且为普通文件
	info, err := os.Stat(cleanPath)
	if err != nil {
		return fmt.Errorf("文件访问失败: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("路径指向目录而非文件: %s", cleanPath)
	}

	return nil
}

// ValidateParams 验证管道运行参数
func (v *Validator) ValidateParams(params model.DigestParams) error {
	if err := v.ValidateQuery(params.Query); err != nil {
		return err
	}
	if err := v.ValidateWindow(params.Window); err != nil {
		return err
	}
	if params.NewsProvider == "rss" {
		if err := v.ValidateOpmlFile(params.RssConfig.OpmlFile); err != nil {
			return err
		}
	}
	return nil
}
