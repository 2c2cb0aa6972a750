package plotly

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestWriteDashboard(t *testing.T) {
	p, err := BuildPage(peopleSim(), "plotly.min.js")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(p.Panels) != 5 {
		t.Fatalf("panels=%d want 3 sim + people + animation", len(p.Panels))
	}
	var buf bytes.Buffer
	if err := WriteDashboard(&buf, p); err != nil {
		t.Fatalf("write: %v", err)
	}
	html := buf.String()
	for _, want := range []string{`<script src="plotly.min.js">`, `Plotly.newPlot("sim-1"`, "Epidemic over time", `<div id="animation"`} {
		if !strings.Contains(html, want) {
			t.Fatalf("html missing %q", want)
		}
	}
}

func TestHandler(t *testing.T) {
	builds := 0
	h := Handler(func() (Page, error) {
		builds++
		return BuildPage(peopleSim(), "")
	})
	srv := httptest.NewServer(h)
	defer srv.Close()
	defer http.DefaultClient.CloseIdleConnections()

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), DefaultPlotlyJS) {
		t.Fatalf("status %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/figures.json")
	if err != nil {
		t.Fatalf("get json: %v", err)
	}
	var p Page
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if len(p.Panels) != 5 || builds != 2 {
		t.Fatalf("panels=%d builds=%d", len(p.Panels), builds)
	}

	failing := httptest.NewServer(Handler(func() (Page, error) { return Page{}, errors.New("no results yet") }))
	defer failing.Close()
	resp, err = http.Get(failing.URL + "/")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status %d want 500", resp.StatusCode)
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, "127.0.0.1:0", func() (Page, error) { return Page{}, nil }) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("serve did not stop")
	}
}

func TestWatchRebuildsOnWrite(t *testing.T) {
	defer goleak.VerifyNone(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "sim_results.jsonl")
	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, 20*time.Millisecond, func() error { calls.Add(1); return nil })
	}()
	time.Sleep(100 * time.Millisecond)
	// unrelated files are ignored
	os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644)
	for i := 0; i < 3; i++ {
		f, _ := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
		f.WriteString("{}\n")
		f.Close()
	}
	deadline := time.Now().Add(3 * time.Second)
	for calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("watch: %v", err)
	}
	if n := calls.Load(); n < 1 || n > 2 {
		t.Fatalf("rebuilds=%d, expected the burst to be coalesced", n)
	}
}

func TestSnapshot(t *testing.T) {
	found := false
	for _, name := range []string{"google-chrome", "chromium", "chromium-browser", "headless-shell"} {
		if _, err := exec.LookPath(name); err == nil {
			found = true
			break
		}
	}
	if !found {
		t.Skip("chrome not installed; skipping snapshot")
	}
	dir := t.TempDir()
	page := filepath.Join(dir, "dash.html")
	if err := os.WriteFile(page, []byte("<html><body><h1>hello</h1></body></html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	u, err := FileURL(page)
	if err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "dash.png")
	if err := Snapshot(context.Background(), u, out, SnapshotOptions{Width: 640, Height: 480, Settle: 100 * time.Millisecond}); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil || !bytes.HasPrefix(b, []byte("\x89PNG")) {
		t.Fatalf("expected a png: %v", err)
	}
}
