package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockLogger implements the Logger interface for testing
type MockLogger struct {
	mu   sync.Mutex
	logs []LogEntry
}

type LogEntry struct {
	Level   string
	Message string
	Fields  map[string]interface{}
}

func (m *MockLogger) record(level, msg string, fields map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, LogEntry{Level: level, Message: msg, Fields: fields})
}

func (m *MockLogger) Debug(msg string, fields map[string]interface{}) { m.record("DEBUG", msg, fields) }
func (m *MockLogger) Info(msg string, fields map[string]interface{})  { m.record("INFO", msg, fields) }
func (m *MockLogger) Warn(msg string, fields map[string]interface{})  { m.record("WARN", msg, fields) }
func (m *MockLogger) Error(msg string, fields map[string]interface{}) { m.record("ERROR", msg, fields) }

func newLoggingRouter(logger *MockLogger, status int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogging(logger))
	r.Any("/api/test", func(c *gin.Context) {
		c.String(status, GetRequestID(c))
	})
	return r
}

func TestRequestLogging_LogsMethodPathAndStatus(t *testing.T) {
	logger := &MockLogger{}
	r := newLoggingRouter(logger, http.StatusOK)

	req := httptest.NewRequest(http.MethodPost, "/api/test?query=value", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Len(t, logger.logs, 1)
	entry := logger.logs[0]
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "Request completed", entry.Message)
	assert.Equal(t, "POST", entry.Fields["method"])
	assert.Equal(t, "/api/test", entry.Fields["path"])
	assert.Equal(t, http.StatusOK, entry.Fields["status"])
	assert.Contains(t, entry.Fields, "duration_ms")
	assert.Contains(t, entry.Fields, "remote_ip")
}

func TestRequestLogging_GeneratesRequestID(t *testing.T) {
	logger := &MockLogger{}
	r := newLoggingRouter(logger, http.StatusOK)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/test", nil))

	id := rec.Header().Get(RequestIDHeader)
	assert.Len(t, id, 36)
	assert.Equal(t, id, rec.Body.String())
	assert.Equal(t, id, logger.logs[0].Fields["request_id"])
}

func TestRequestLogging_InboundRequestID(t *testing.T) {
	tests := []struct {
		name    string
		inbound string
		keep    bool
	}{
		{name: "short id is kept", inbound: "abc-123", keep: true},
		{name: "oversized id is replaced", inbound: strings.Repeat("x", 65), keep: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := &MockLogger{}
			r := newLoggingRouter(logger, http.StatusOK)

			req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
			req.Header.Set(RequestIDHeader, tt.inbound)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			got := rec.Header().Get(RequestIDHeader)
			if tt.keep {
				assert.Equal(t, tt.inbound, got)
			} else {
				assert.NotEqual(t, tt.inbound, got)
				assert.Len(t, got, 36)
			}
		})
	}
}

func TestRequestLogging_ServerErrorLoggedAsError(t *testing.T) {
	logger := &MockLogger{}
	r := newLoggingRouter(logger, http.StatusBadGateway)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/test", nil))

	require.Len(t, logger.logs, 1)
	assert.Equal(t, "ERROR", logger.logs[0].Level)
	assert.Equal(t, http.StatusBadGateway, logger.logs[0].Fields["status"])
}

func TestRequestLogging_ClientErrorLoggedAsInfo(t *testing.T) {
	logger := &MockLogger{}
	r := newLoggingRouter(logger, http.StatusNotFound)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/test", nil))

	require.Len(t, logger.logs, 1)
	assert.Equal(t, "INFO", logger.logs[0].Level)
}
