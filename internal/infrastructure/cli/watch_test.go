package cli

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/felixgeelhaar/fareview/internal/infrastructure/sse"
)

func TestMonitorMux_ServesMetrics(t *testing.T) {
	server := httptest.NewServer(monitorMux(sse.NewHandler()))
	defer server.Close()

	resp, err := http.Get(server.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "go_goroutines") {
		t.Fatalf("status %d, body:\n%.300s", resp.StatusCode, body)
	}
}

func TestWatch_MissingDirectory(t *testing.T) {
	clearProviderEnv(t)
	dir := t.TempDir()
	_, _, err := runCLI(t, "watch", "--project", dir, "--provider", "mock", dir+"/nope")
	if err == nil {
		t.Fatal("expected an error for a missing inbox")
	}
}
