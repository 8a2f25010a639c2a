package extract

import (
	"context"
)

// mockFieldAssist is a mock implementation of the FieldAssist interface
type mockFieldAssist struct {
	extractAuthorFunc func(ctx context.Context, pageURL, html string) (string, error)
	calls             int
}

func (m *mockFieldAssist) ExtractAuthor(ctx context.Context, pageURL, html string) (string, error) {
	m.calls++
	if m.extractAuthorFunc != nil {
		return m.extractAuthorFunc(ctx, pageURL, html)
	}
	return "", nil
}
