package port

import (
	"context"

	"mockflow-api/internal/infrastructure/imagesearch"
)

// ImageSearcher 定义工作流层对图片搜索工具的最小依赖（port）。
type ImageSearcher interface {
	Search(ctx context.Context, query string) ([]imagesearch.Result, error)
}
