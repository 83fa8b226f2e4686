package news

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gilliek/go-opml/opml"
	"github.com/mmcdole/gofeed"

	"github.com/JaegunS/true-ai-builders/internal/domain/model"
	"github.com/JaegunS/true-ai-builders/internal/infrastructure/logger"
)

// RssClient 实现service.NewsService接口，从OPML订阅的RSS源获取文章
// 作为GNews之外的备选新闻来源，遵循相同的降级约定
type RssClient struct {
	config model.RssConfig
}

// NewRssClient 创建新的RSS来源客户端
func NewRssClient(config model.RssConfig) *RssClient {
	return &RssClient{config: config}
}

// rssSource 表示一个RSS源
type rssSource struct {
	Title  string
	XmlUrl string
}

// FetchArticles 从所有订阅源获取时间窗口内且与查询相关的文章
// 单个源的失败只影响该源，整体永远不返回错误
func (c *RssClient) FetchArticles(ctx context.Context, query string, window model.TimeRange) ([]model.Article, error) {
	logger.Info("开始获取RSS文章", "opml_file", c.config.OpmlFile, "query", query)
	defer logger.TimeTrack("FetchArticles")()

	sources, err := c.parseOpml(c.config.OpmlFile)
	if err != nil {
		// 订阅文件不可用与新闻API故障同级，降级为空批次
		logger.Warn("解析OPML文件失败，降级为空批次", "error", err)
		return []model.Article{}, nil
	}

	timeout := c.config.Timeout
	if timeout <= 0 {
		timeout = 15
	}
	concurrency := c.config.Concurrency
	if concurrency <= 0 {
		concurrency = 3
	}
	maxRetries := c.config.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	backoffBase := c.config.RetryBackoffBase
	if backoffBase <= 0 {
		backoffBase = 1
	}

	from := window.From
	if from.IsZero() {
		from = time.Now().UTC().Add(-defaultWindowHours * time.Hour)
	}
	to := window.To
	if to.IsZero() {
		to = time.Now().UTC()
	}

	fp := gofeed.NewParser()
	fp.Client = &http.Client{Timeout: time.Duration(timeout) * time.Second}

	type sourceResult struct {
		articles []model.Article
		source   rssSource
	}

	resultChan := make(chan sourceResult, len(sources))
	// 限制并发数量，避免过多的并发请求
	semaphore := make(chan struct{}, concurrency)

	for _, source := range sources {
		go func(src rssSource) {
			// 获取信号量
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			logger.Info("开始获取RSS源", "title", src.Title, "url", src.XmlUrl)

			feed := c.fetchFeedWithRetry(ctx, fp, src, maxRetries, backoffBase)
			if feed == nil {
				resultChan <- sourceResult{nil, src}
				return
			}

			var articles []model.Article
			for _, item := range feed.Items {
				if !itemInWindow(item, from, to) {
					continue
				}
				if !itemMatchesQuery(item, query) {
					continue
				}
				articles = append(articles, model.Article{
					Title:       item.Title,
					Description: stripHTMLTags(item.Description),
					Content:     normalizeContent(itemContent(item)),
				})
			}
			resultChan <- sourceResult{articles, src}
		}(source)
	}

	// 收集结果，保持源的提交顺序不可依赖，但单源内文章顺序保持
	var articles []model.Article
	for range sources {
		result := <-resultChan
		articles = append(articles, result.articles...)
	}

	logger.Info("RSS文章获取完成", "sources_count", len(sources), "articles_count", len(articles))
	if articles == nil {
		articles = []model.Article{}
	}
	return articles, nil
}

// fetchFeedWithRetry 获取并解析单个RSS源，失败时指数退避重试
func (c *RssClient) fetchFeedWithRetry(ctx context.Context, fp *gofeed.Parser, src rssSource, maxRetries, backoffBase int) *gofeed.Feed {
	for retries := 0; retries < maxRetries; retries++ {
		logger.Debug("尝试解析RSS源", "title", src.Title, "url", src.XmlUrl, "attempt", retries+1)

		feed, err := fp.ParseURLWithContext(src.XmlUrl, ctx)
		if err == nil {
			return feed
		}

		logger.Warn("解析RSS源失败",
			"title", src.Title,
			"url", src.XmlUrl,
			"attempt", retries+1,
			"error", err)

		if retries < maxRetries-1 {
			// 指数退避策略，每次重试等待时间翻倍
			backoffTime := time.Duration(backoffBase<<retries) * time.Second
			select {
			case <-time.After(backoffTime):
			case <-ctx.Done():
				return nil
			}
		}
	}

	logger.Error("RSS源多次重试后仍然失败，跳过", "title", src.Title, "url", src.XmlUrl)
	return nil
}

// parseOpml 解析OPML文件并返回RSS源列表
func (c *RssClient) parseOpml(opmlFilePath string) ([]rssSource, error) {
	doc, err := opml.NewOPMLFromFile(opmlFilePath)
	if err != nil {
		return nil, err
	}

	var sources []rssSource
	for _, outline := range doc.Outlines() {
		// 递归处理所有outline
		sources = append(sources, extractSources(outline)...)
	}

	logger.Info("OPML文件解析完成", "file", opmlFilePath, "sources_count", len(sources))
	return sources, nil
}

// extractSources 递归提取outline中的RSS源
func extractSources(outline opml.Outline) []rssSource {
	var sources []rssSource

	// 如果当前outline有xmlUrl属性，则它是一个RSS源
	if outline.XMLURL != "" {
		sources = append(sources, rssSource{
			Title:  outline.Title,
			XmlUrl: outline.XMLURL,
		})
	}

	// 递归处理子outline
	for _, child := range outline.Outlines {
		sources = append(sources, extractSources(child)...)
	}

	return sources
}

// itemContent 取条目的正文，缺失时退回描述
func itemContent(item *gofeed.Item) string {
	if item.Content != "" {
		return item.Content
	}
	return item.Description
}

// itemInWindow 判断条目的发布时间是否落在窗口内
// 没有发布时间的条目保守地保留
func itemInWindow(item *gofeed.Item, from, to time.Time) bool {
	if item.PublishedParsed == nil {
		return true
	}
	t := item.PublishedParsed.UTC()
	return !t.Before(from) && !t.After(to)
}

// itemMatchesQuery 判断条目是否与查询关键词相关
// RSS源没有服务端搜索，这里按关键词在标题/描述中出现做粗过滤
func itemMatchesQuery(item *gofeed.Item, query string) bool {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return true
	}

	haystack := strings.ToLower(item.Title + " " + item.Description)
	for _, term := range terms {
		// 查询表达式中的运算符与引号不参与匹配
		term = strings.Trim(term, `"()`)
		if term == "" || term == "or" || term == "and" || term == "not" {
			continue
		}
		if strings.Contains(haystack, term) {
			return true
		}
	}
	return false
}
