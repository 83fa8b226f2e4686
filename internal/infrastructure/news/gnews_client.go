package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/JaegunS/true-ai-builders/internal/domain/model"
	"github.com/JaegunS/true-ai-builders/internal/infrastructure/logger"
)

// 默认的GNews搜索接口地址
const defaultGNewsAPIUrl = "https://gnews.io/api/v4/search"

// 窗口未指定时默认取最近24小时
const defaultWindowHours = 24

// GNewsClient 实现service.NewsService接口，基于GNews搜索API获取文章
type GNewsClient struct {
	config model.GNewsConfig
	client *http.Client
}

// NewGNewsClient 创建新的GNews客户端
func NewGNewsClient(config model.GNewsConfig) *GNewsClient {
	if config.APIKey == "" {
		logger.Warn("未配置GNews API密钥，后续获取调用将会失败")
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 15
	}

	return &GNewsClient{
		config: config,
		client: &http.Client{Timeout: time.Duration(timeout) * time.Second},
	}
}

// gnewsResponse GNews搜索接口的响应结构，articles字段可能缺失
type gnewsResponse struct {
	Articles []gnewsArticle `json:"articles"`
}

type gnewsArticle struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
}

// FetchArticles 获取指定主题与时间窗口内的文章
// 瞬时失败（网络错误、非2xx响应）记录日志后降级为空批次，不作为错误返回
func (c *GNewsClient) FetchArticles(ctx context.Context, query string, window model.TimeRange) ([]model.Article, error) {
	logger.Info("开始获取新闻文章", "query", query)
	defer logger.TimeTrack("FetchArticles")()

	req, err := c.buildRequest(ctx, query, window)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		// 新闻源的瞬时故障不应导致整个管道失败
		logger.Warn("新闻API请求失败，降级为空批次", "error", err)
		return []model.Article{}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		logger.Warn("新闻API返回非成功状态，降级为空批次",
			"status_code", resp.StatusCode,
			"response_preview", truncateString(string(body), 200))
		return []model.Article{}, nil
	}

	var raw gnewsResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		logger.Warn("解析新闻API响应失败，降级为空批次", "error", err)
		return []model.Article{}, nil
	}

	// articles字段缺失视为空批次
	articles := make([]model.Article, 0, len(raw.Articles))
	for _, item := range raw.Articles {
		articles = append(articles, model.Article{
			Title:       item.Title,
			Description: item.Description,
			Content:     normalizeContent(item.Content),
		})
	}

	logger.Info("新闻文章获取完成", "articles_count", len(articles))
	return articles, nil
}

// buildRequest 构建GNews搜索请求
// from/to使用ISO-8601时间戳，to缺省时窗口为"最近24小时至当前"
func (c *GNewsClient) buildRequest(ctx context.Context, query string, window model.TimeRange) (*http.Request, error) {
	endpoint := c.config.APIUrl
	if endpoint == "" {
		endpoint = defaultGNewsAPIUrl
	}

	lang := c.config.Language
	if lang == "" {
		lang = "en"
	}

	maxResults := c.config.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}

	from := window.From
	if from.IsZero() {
		from = time.Now().UTC().Add(-defaultWindowHours * time.Hour)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("apikey", c.config.APIKey)
	params.Set("lang", lang)
	params.Set("max", strconv.Itoa(maxResults))
	params.Set("from", from.UTC().Format(time.RFC3339))
	if !window.To.IsZero() {
		params.Set("to", window.To.UTC().Format(time.RFC3339))
	}

	requestURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	return req, nil
}
