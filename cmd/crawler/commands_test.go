package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsfeed-canon/core/crawl"
)

const testSources = `sources:
  - source_code: alpha
    list_url: https://alpha.example.com/rss
    prefer_rss_date: true
  - source_code: beta
    list_url: https://beta.example.com/news
`

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testSources), 0o644))
	t.Setenv("SOURCES_FILE", path)

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--env-file", ""}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestSourcesCommand_Table(t *testing.T) {
	out, err := runCLI(t, "sources")
	require.NoError(t, err)

	assert.Contains(t, out, "CODE")
	assert.Contains(t, out, "alpha")
	assert.Contains(t, out, "https://beta.example.com/news")
}

func TestSourcesCommand_JSON(t *testing.T) {
	out, err := runCLI(t, "sources", "--json")
	require.NoError(t, err)

	var got []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "alpha", got[0]["source_code"])
}

func TestRangeCommand_RejectsBadWindow(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad start", []string{"range", "--start", "soon", "--end", "2025-01-31"}, "invalid --start"},
		{"bad end", []string{"range", "--start", "2025-01-01", "--end", "later"}, "invalid --end"},
		{"inverted", []string{"range", "--start", "2025-02-01", "--end", "2025-01-01"}, "must not be after"},
		{"missing flags", []string{"range"}, "required flag"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestPrintReports(t *testing.T) {
	started := time.Date(2025, 1, 20, 15, 0, 0, 0, time.UTC)
	reports := []*crawl.Report{
		{SourceCode: "alpha", Strategy: "feed", Discovered: 3, Saved: 2, Duplicates: 1, StartedAt: started, FinishedAt: started.Add(5 * time.Second)},
		nil,
		{SourceCode: "beta", Error: "invalid source config for beta: no list url"},
	}

	var table bytes.Buffer
	printReports(&table, reports, false)
	assert.Contains(t, table.String(), "SOURCE")
	assert.Contains(t, table.String(), "alpha")
	assert.Contains(t, table.String(), "no list url")
	assert.Contains(t, table.String(), "00:05")

	var js bytes.Buffer
	printReports(&js, reports[:1], true)
	assert.Contains(t, js.String(), `"source_code": "alpha"`)
}
