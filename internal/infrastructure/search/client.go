// Package search 提供网络搜索服务客户端
// 对接 SearxNG 风格的 JSON 搜索接口，研究采集阶段使用。
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bookgen-ai-api/internal/config"
)

// Result 单条搜索结果
type Result struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type searchResponse struct {
	Results []Result `json:"results"`
}

// Client 搜索客户端
type Client struct {
	endpoint   string
	maxResults int
	httpClient *http.Client
}

// NewClient 创建搜索客户端
func NewClient(cfg *config.ResearchConfig) *Client {
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		endpoint:   cfg.SearchEndpoint,
		maxResults: maxResults,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Search 执行搜索，最多返回配置的 max_results 条结果
func (c *Client) Search(ctx context.Context, query string) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Result{}, nil
	}

	endpoint := strings.TrimRight(c.endpoint, "/")
	if endpoint == "" {
		return nil, fmt.Errorf("search endpoint is empty")
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid search endpoint: %w", err)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/search"
	}

	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("count", strconv.Itoa(c.maxResults))
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, fmt.Errorf("search request failed: status=%d", httpResp.StatusCode)
	}

	var resp searchResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	results := resp.Results
	if len(results) > c.maxResults {
		results = results[:c.maxResults]
	}
	return results, nil
}
