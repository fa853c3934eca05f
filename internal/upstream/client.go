package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cnb.cool/zhiqiangwang/pkg/logx"
	"github.com/opsre/zenstat/internal/gateway"
)

// maxResponseBytes 响应体读取上限,防止异常大响应吃光内存
const maxResponseBytes = 64 << 20

// Client 上游统计数据服务的 HTTP 客户端
// 只负责发请求收字节,信封形状的判定交给网关的规范化器
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient 创建上游客户端
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Batchable 实现 gateway.Upstream
func (c *Client) Batchable(operation string) bool {
	op, err := Lookup(operation)
	if err != nil {
		return false
	}
	return op.Batchable
}

// Shape 操作的结果形状提示
func (c *Client) Shape(operation string) gateway.ShapeHint {
	op, err := Lookup(operation)
	if err != nil {
		return gateway.ShapeSingle
	}
	return op.Shape
}

// Call 实现 gateway.Upstream,发出一次物理调用
// 网络层错误与 5xx/429 归为瞬时错误,4xx 归为上游永久失败
func (c *Client) Call(ctx context.Context, operation string, params []map[string]any) ([]byte, error) {
	op, err := Lookup(operation)
	if err != nil {
		return nil, gateway.NewValidationError("%v", err)
	}

	req, err := c.buildRequest(ctx, op, params)
	if err != nil {
		return nil, err
	}

	logx.Debug("Upstream call, operation %s, method %s, sub_items %d", op.Name, op.Method, len(params))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, gateway.NewTransientError(fmt.Sprintf("upstream request failed for %s", op.Name), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, gateway.NewTransientError(fmt.Sprintf("failed to read upstream response for %s", op.Name), err)
	}

	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, gateway.NewTransientError(
			fmt.Sprintf("upstream returned %d for %s", resp.StatusCode, op.Name), nil)
	case resp.StatusCode >= 400:
		return nil, gateway.NewUpstreamError(
			fmt.Sprintf("upstream rejected %s with %d: %s", op.Name, resp.StatusCode, summarizeBody(body)), nil)
	}

	return body, nil
}

// buildRequest 按操作定义构造请求
func (c *Client) buildRequest(ctx context.Context, op Operation, params []map[string]any) (*http.Request, error) {
	endpoint := c.baseURL + "/" + op.Path

	if op.Method == http.MethodGet {
		// 路径参数按登记顺序拼接,如 getChangedSeriesList/2024-01-15
		for _, key := range op.PathParams {
			if len(params) == 0 {
				return nil, gateway.NewValidationError("operation %s requires path parameter %s", op.Name, key)
			}
			value, ok := params[0][key]
			if !ok {
				return nil, gateway.NewValidationError("operation %s requires path parameter %s", op.Name, key)
			}
			endpoint += "/" + url.PathEscape(fmt.Sprintf("%v", value))
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build request for %s: %w", op.Name, err)
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	// POST 携带参数对象的 JSON 数组,一个元素对应一个子项
	body, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body for %s: %w", op.Name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", op.Name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// summarizeBody 压缩错误响应体到一行,避免日志与错误信息过长
func summarizeBody(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return strings.ReplaceAll(s, "\n", " ")
}
