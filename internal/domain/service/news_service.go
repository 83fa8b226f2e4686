package service

import (
	"context"

	"github.com/JaegunS/true-ai-builders/internal/domain/model"
)

// NewsService 定义新闻获取的领域服务接口
// 实现方应在内部消化瞬时错误（网络失败、非2xx响应），
// 以空批次降级返回，而不是让整个管道失败
type NewsService interface {
	// FetchArticles 获取指定主题与时间窗口内的文章
	// 返回的文章保持到达顺序，顺序即为后续提示词中的引用编号
	FetchArticles(ctx context.Context, query string, window model.TimeRange) ([]model.Article, error)
}
