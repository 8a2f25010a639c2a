package standard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type debugRecorder struct {
	mu     sync.Mutex
	debugs []map[string]interface{}
	warns  []string
}

func (l *debugRecorder) Debug(_ string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debugs = append(l.debugs, fields)
}
func (l *debugRecorder) Info(string, map[string]interface{})  {}
func (l *debugRecorder) Error(string, map[string]interface{}) {}
func (l *debugRecorder) Warn(msg string, _ map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func TestLoggingRoundTripper(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer server.Close()

	logger := &debugRecorder{}
	client := NewWithOptions(Options{Timeout: 5 * time.Second, Logger: logger})

	resp, err := client.Get(context.Background(), server.URL+"/page")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	resp.Body().Close()

	logger.mu.Lock()
	defer logger.mu.Unlock()
	if len(logger.debugs) != 1 {
		t.Fatalf("debug entries = %d, want 1", len(logger.debugs))
	}
	if logger.debugs[0]["status"] != http.StatusTeapot {
		t.Errorf("status field = %v, want %d", logger.debugs[0]["status"], http.StatusTeapot)
	}
	if logger.debugs[0]["url"] != server.URL+"/page" {
		t.Errorf("url field = %v", logger.debugs[0]["url"])
	}
}

func TestLoggingRoundTripper_Error(t *testing.T) {
	logger := &debugRecorder{}
	client := NewWithOptions(Options{Timeout: time.Second, Retries: 0, Logger: logger})

	_, err := client.Get(context.Background(), "http://127.0.0.1:1/unreachable")
	if err == nil {
		t.Fatal("expected an error for an unreachable host")
	}

	logger.mu.Lock()
	defer logger.mu.Unlock()
	if len(logger.warns) == 0 {
		t.Error("expected a warning for the failed request")
	}
}
