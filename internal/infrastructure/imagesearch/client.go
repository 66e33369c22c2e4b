// Package imagesearch 提供图片搜索服务客户端
package imagesearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"mockflow-api/internal/config"
)

// Client 图片搜索客户端
// 搜索失败以结构化结果返回给调用方（最终交还给模型），不中断生成。
type Client struct {
	endpoint   string
	apiKey     string
	perPage    int
	httpClient *http.Client
}

// Result 单条图片搜索结果
type Result struct {
	URL         string `json:"url"`
	ThumbURL    string `json:"thumb_url,omitempty"`
	Description string `json:"description,omitempty"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
}

type searchResponse struct {
	Results []Result `json:"results"`
}

// NewClient 创建图片搜索客户端
func NewClient(cfg *config.ImageSearchConfig) *Client {
	perPage := cfg.PerPage
	if perPage <= 0 {
		perPage = 5
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		perPage:  perPage,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Search 按关键词搜索图片
func (c *Client) Search(ctx context.Context, query string) ([]Result, error) {
	endpoint := strings.TrimRight(c.endpoint, "/")
	if endpoint == "" {
		return nil, fmt.Errorf("image search endpoint is empty")
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid image search endpoint: %w", err)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/search"
	}

	q := u.Query()
	q.Set("query", query)
	q.Set("per_page", strconv.Itoa(c.perPage))
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create image search request: %w", err)
	}
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("image search request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, fmt.Errorf("image search request failed: status=%d", httpResp.StatusCode)
	}

	var resp searchResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode image search response: %w", err)
	}

	return resp.Results, nil
}
