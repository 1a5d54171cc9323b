// Package testutil 提供测试辅助工具
package testutil

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"time"
)

// HTTPRoundTripper 重写 HTTP 请求到测试服务器
// 用于将真实 API 请求（如默认的 Gemini 地址）重定向到 mock 服务器
type HTTPRoundTripper struct {
	base  *url.URL
	next  http.RoundTripper
	hosts []string // 为空时重写所有请求
}

// NewHTTPRoundTripper 创建 HTTP 请求重定向器
func NewHTTPRoundTripper(baseURL string, hosts ...string) *HTTPRoundTripper {
	u, _ := url.Parse(baseURL)
	return &HTTPRoundTripper{
		base:  u,
		next:  http.DefaultTransport,
		hosts: hosts,
	}
}

// RoundTrip 实现 http.RoundTripper 接口
func (t *HTTPRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.shouldRewrite(req) {
		cloned := req.Clone(req.Context())
		u := *req.URL
		u.Scheme = t.base.Scheme
		u.Host = t.base.Host
		cloned.URL = &u
		cloned.Host = t.base.Host
		req = cloned
	}
	return t.next.RoundTrip(req)
}

func (t *HTTPRoundTripper) shouldRewrite(req *http.Request) bool {
	if len(t.hosts) == 0 {
		return true
	}
	for _, host := range t.hosts {
		if req.URL.Host == host {
			return true
		}
	}
	return false
}

// NewTestClient 创建测试用 HTTP 客户端
// 自动将请求重定向到测试服务器
func NewTestClient(ts *httptest.Server) *http.Client {
	return NewTestClientWithTimeout(ts, 5*time.Second)
}

// NewTestClientWithTimeout 创建带超时的测试 HTTP 客户端
func NewTestClientWithTimeout(ts *httptest.Server, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: NewHTTPRoundTripper(ts.URL),
	}
}
