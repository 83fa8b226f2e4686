package model

import "time"

// DigestParams 包含生成新闻摘要的所有参数
type DigestParams struct {
	Query        string       // 新闻搜索主题表达式
	Window       TimeRange    // 文章时间窗口
	OutputFile   string       // 输出文件路径
	NewsProvider string       // 新闻来源: gnews 或 rss
	GNewsConfig  GNewsConfig  // GNews API配置
	OpenAIConfig OpenAIConfig // OpenAI API配置
	RssConfig    RssConfig    // RSS来源配置
}

// TimeRange 表示获取文章的时间窗口（两端均为闭区间）
type TimeRange struct {
	From time.Time // 起始时间，零值表示"当前时间往前24小时"
	To   time.Time // 结束时间，零值表示当前时间
}

// GNewsConfig 包含GNews搜索API的配置信息
type GNewsConfig struct {
	APIKey     string // API密钥
	Language   string // 语言过滤
	MaxResults int    // 单次请求的最大文章数
	APIUrl     string // API接口地址
	Timeout    int    // 请求超时时间（秒）
}

// OpenAIConfig 包含OpenAI API的配置信息
type OpenAIConfig struct {
	APIKey     string // API密钥
	Model      string // 模型名称
	MaxTokens  int    // 最大令牌数
	MaxCalls   int    // 最大调用次数
	MaxRetries int    // 最大重试次数
	APIUrl     string // API接口地址
	APITimeout int    // 请求超时时间（秒）
}

// RssConfig 包含RSS来源的配置信息
type RssConfig struct {
	OpmlFile         string // OPML订阅文件路径
	Timeout          int    // 单个源的超时时间（秒）
	Concurrency      int    // 并发获取数量
	MaxRetries       int    // 最大重试次数
	RetryBackoffBase int    // 重试退避基数（秒）
}

// Article 表示一篇规范化后的新闻文章
// 文章没有独立标识，批次内的到达顺序即为引用编号
type Article struct {
	Title       string // 文章标题
	Description string // 文章描述
	Content     string // 正文内容（已去除截断标记和HTML标签）
}

// SummaryResult 表示摘要生成阶段的结果
type SummaryResult struct {
	SourceText  string // 用作提示词正文的拼接文章文本，供问题生成阶段引用原文
	SummaryText string // 模型生成的摘要，已去除首尾空白
}

// DigestResult 表示管道的最终输出
type DigestResult struct {
	SummaryText   string // 新闻摘要
	QuestionsText string // 讨论问题
}
