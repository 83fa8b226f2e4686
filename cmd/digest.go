package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	appservice "github.com/JaegunS/true-ai-builders/internal/application/service"
	"github.com/JaegunS/true-ai-builders/internal/domain/model"
	domainservice "github.com/JaegunS/true-ai-builders/internal/domain/service"
	"github.com/JaegunS/true-ai-builders/internal/infrastructure/ai"
	"github.com/JaegunS/true-ai-builders/internal/infrastructure/delivery"
	"github.com/JaegunS/true-ai-builders/internal/infrastructure/logger"
	"github.com/JaegunS/true-ai-builders/internal/infrastructure/news"
	"github.com/JaegunS/true-ai-builders/internal/middleware"
)

var (
	queryFlag  string
	outputFile string
	hoursBack  int
)

// digestCmd represents the digest command
var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "获取新闻并生成摘要与讨论问题",
	Long: `获取指定主题在时间窗口内的新闻文章，调用OpenAI API依次生成
新闻摘要和2-4个讨论问题，最终生成Markdown格式的摘要报告。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		params := buildParams()

		// 参数校验
		validator := domainservice.NewValidator()
		if err := validator.ValidateParams(params); err != nil {
			return fmt.Errorf("参数校验失败: %w", err)
		}

		// 组装管道
		metrics := middleware.NewMetricsCollector()
		aiClient := ai.NewOpenAIClient(params.OpenAIConfig, metrics)

		var newsService domainservice.NewsService
		if params.NewsProvider == "rss" {
			newsService = news.NewRssClient(params.RssConfig)
		} else {
			newsService = news.NewGNewsClient(params.GNewsConfig)
		}

		digestService := appservice.NewDigestService(
			newsService,
			domainservice.NewSummaryService(aiClient),
			domainservice.NewQuestionService(aiClient),
			metrics,
		)

		// 整体运行超时，覆盖一次获取和两次生成调用
		overallTimeout := viper.GetInt("digest.overall_timeout")
		if overallTimeout <= 0 {
			overallTimeout = 300
		}
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(overallTimeout)*time.Second)
		defer cancel()

		// 运行管道
		result, err := digestService.Run(ctx, params)
		if err != nil {
			logger.Error("生成摘要失败", "error", err)
			return fmt.Errorf("生成摘要失败: %w", err)
		}

		// 渲染并投递报告
		report := delivery.RenderReport(result, params.Query)

		var deliverer delivery.Deliverer
		if outputFile != "" {
			deliverer = &delivery.FileDeliverer{Path: outputFile}
		} else {
			deliverer = &delivery.ConsoleDeliverer{}
		}
		if err := deliverer.Deliver(report); err != nil {
			return fmt.Errorf("投递报告失败: %w", err)
		}

		if outputFile != "" {
			fmt.Printf("报告已保存到: %s\n", outputFile)
		}
		return nil
	},
}

// buildParams 从配置与命令行标志组装管道参数
func buildParams() model.DigestParams {
	query := queryFlag
	if query == "" {
		query = viper.GetString("digest.query")
	}

	hours := hoursBack
	if hours <= 0 {
		hours = viper.GetInt("digest.hours_back")
	}

	// 窗口为"最近N小时至当前"，To留空由获取方补齐
	var window model.TimeRange
	if hours > 0 {
		window.From = time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	}

	provider := viper.GetString("news.provider")
	if provider == "" {
		provider = "gnews"
	}

	return model.DigestParams{
		Query:        query,
		Window:       window,
		OutputFile:   outputFile,
		NewsProvider: provider,
		GNewsConfig: model.GNewsConfig{
			APIKey:     viper.GetString("gnews.api_key"),
			Language:   viper.GetString("gnews.lang"),
			MaxResults: viper.GetInt("gnews.max_results"),
			APIUrl:     viper.GetString("gnews.api_url"),
			Timeout:    viper.GetInt("gnews.timeout"),
		},
		OpenAIConfig: model.OpenAIConfig{
			APIKey:     viper.GetString("openai.api_key"),
			Model:      viper.GetString("openai.model"),
			MaxTokens:  viper.GetInt("openai.max_tokens"),
			MaxCalls:   viper.GetInt("openai.max_calls"),
			MaxRetries: viper.GetInt("openai.max_retries"),
			APIUrl:     viper.GetString("openai.api_url"),
			APITimeout: viper.GetInt("openai.timeout"),
		},
		RssConfig: model.RssConfig{
			OpmlFile:         viper.GetString("rss.opml_file"),
			Timeout:          viper.GetInt("rss.timeout"),
			Concurrency:      viper.GetInt("rss.concurrency"),
			MaxRetries:       viper.GetInt("rss.max_retries"),
			RetryBackoffBase: viper.GetInt("rss.retry_backoff_base"),
		},
	}
}

func init() {
	rootCmd.AddCommand(digestCmd)

	// 本地标志
	digestCmd.Flags().StringVarP(&queryFlag, "query", "q", "", "新闻搜索主题表达式（默认取配置digest.query）")
	digestCmd.Flags().StringVarP(&outputFile, "output", "f", "", "输出文件路径（可选，默认为stdout）")
	digestCmd.Flags().IntVar(&hoursBack, "hours", 0, "时间窗口小时数（默认取配置digest.hours_back，再缺省为24）")
}
