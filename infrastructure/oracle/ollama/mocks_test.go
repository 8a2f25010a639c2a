package ollama

import (
	"context"
	"io"
	"strings"

	"newsfeed-canon/core/interfaces"
)

// mockHTTPClient is a mock implementation of the HTTPClient interface
type mockHTTPClient struct {
	postFunc func(ctx context.Context, url string, body io.Reader) (interfaces.Response, error)
	urls     []string
	bodies   []string
}

func (m *mockHTTPClient) Get(ctx context.Context, url string) (interfaces.Response, error) {
	return &mockResponse{statusCode: 405}, nil
}

func (m *mockHTTPClient) Post(ctx context.Context, url string, body io.Reader) (interfaces.Response, error) {
	data, _ := io.ReadAll(body)
	m.urls = append(m.urls, url)
	m.bodies = append(m.bodies, string(data))
	if m.postFunc != nil {
		return m.postFunc(ctx, url, strings.NewReader(string(data)))
	}
	return &mockResponse{statusCode: 200, body: "{}"}, nil
}

// mockResponse is a mock implementation of the Response interface
type mockResponse struct {
	statusCode int
	body       string
	headers    map[string]string
}

func (m *mockResponse) StatusCode() int {
	return m.statusCode
}

func (m *mockResponse) Body() io.ReadCloser {
	return io.NopCloser(strings.NewReader(m.body))
}

func (m *mockResponse) Header(key string) string {
	return m.headers[key]
}
