package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
logging:
  level: error
  format: text
fetch:
  max_attempts: 2
  retry_delay: 1ms
  concurrency: 2
telemetry:
  metric_exporter: none
`

func setupConfig(t *testing.T) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quantkit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o644))
	t.Setenv("QUANTKIT_CONFIG", path)
}

func quoteServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/quote":
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"ticker":"BASH","close":1.25}`)
		case "/board":
			io.WriteString(w, `<table><tr><td class="px">1.25</td><td class="px">1.30</td></tr></table>`)
		default:
			http.Error(w, "down", http.StatusBadGateway)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func decodeSummary(t *testing.T, out *bytes.Buffer) Summary {
	t.Helper()
	var s Summary
	require.NoError(t, json.Unmarshal(out.Bytes(), &s))
	return s
}

func TestRun_PartialBatch(t *testing.T) {
	setupConfig(t)
	srv := quoteServer(t)

	var out bytes.Buffer
	err := run(context.Background(), []string{srv.URL + "/quote", srv.URL + "/down"}, &out, io.Discard)
	require.ErrorIs(t, err, errPartial)

	s := decodeSummary(t, &out)
	require.Contains(t, s.Payloads, srv.URL+"/quote")
	assert.Equal(t, map[string]any{"ticker": "BASH", "close": 1.25}, s.Payloads[srv.URL+"/quote"])
	require.Contains(t, s.Failures, srv.URL+"/down")
	assert.Contains(t, s.Failures[srv.URL+"/down"], "EXHAUSTED")
}

func TestRun_URLFileWithSelector(t *testing.T) {
	setupConfig(t)
	srv := quoteServer(t)

	list := filepath.Join(t.TempDir(), "urls.txt")
	body := "# boards\n\n" + srv.URL + "/board\n"
	require.NoError(t, os.WriteFile(list, []byte(body), 0o644))

	var out bytes.Buffer
	err := run(context.Background(),
		[]string{"-urls", list, "-process", "select", "-selector", "td.px"}, &out, io.Discard)
	require.NoError(t, err)

	s := decodeSummary(t, &out)
	assert.Equal(t, []any{"1.25", "1.30"}, s.Payloads[srv.URL+"/board"])
	assert.Empty(t, s.Failures)
}

func TestRun_InvalidInvocation(t *testing.T) {
	setupConfig(t)

	tests := []struct {
		name string
		args []string
	}{
		{"no urls", nil},
		{"unknown processor", []string{"-process", "xml", "http://example.com"}},
		{"select without selector", []string{"-process", "select", "http://example.com"}},
		{"unsupported method", []string{"-method", "delete", "http://example.com"}},
		{"browser post", []string{"-browser", "-method", "post", "http://example.com"}},
		{"missing url file", []string{"-urls", filepath.Join(t.TempDir(), "absent.txt")}},
		{"bad url", []string{"://nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := run(context.Background(), tt.args, &out, io.Discard)
			require.Error(t, err)
			assert.NotErrorIs(t, err, errPartial)
			assert.Zero(t, out.Len())
		})
	}
}

func TestCollectURLs(t *testing.T) {
	list := filepath.Join(t.TempDir(), "urls.txt")
	require.NoError(t, os.WriteFile(list, []byte("  http://b\n#skip\nhttp://c\n"), 0o644))

	urls, err := collectURLs(list, []string{"http://a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a", "http://b", "http://c"}, urls)
}
