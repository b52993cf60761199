package internal

import (
	"bytes"
	"context"
	"log/slog"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := NewDefaultConfig()
	cfg.Journal.Path = t.TempDir()
	cfg.App.LogLevel = slog.LevelError
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func seedNote(t *testing.T, cfg *Config, date string) {
	t.Helper()
	dir := filepath.Join(cfg.Journal.Path, "Notes")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	body := `{"date":"` + date + `","html_content":"<p>hi</p>","images":[]}`
	if err := os.WriteFile(filepath.Join(dir, date+".json"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRun_RequiresConfig(t *testing.T) {
	if err := Run(context.Background()); err == nil {
		t.Fatal("Run without config should fail")
	}
}

func TestRun_Rebuild(t *testing.T) {
	cfg := testConfig(t)
	seedNote(t, cfg, "2026-10-19")

	var out bytes.Buffer
	err := Run(context.Background(), WithConfig(cfg), WithMode(ModeRebuild), WithIO(strings.NewReader(""), &out))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "rebuilt 1 days") {
		t.Errorf("output = %q", out.String())
	}
	if _, err := os.Stat(filepath.Join(cfg.Journal.Path, catalogFile)); err != nil {
		t.Errorf("catalog not created in journal folder: %v", err)
	}
}

func TestRun_PurgeAborted(t *testing.T) {
	cfg := testConfig(t)
	seedNote(t, cfg, "2026-10-19")

	var out bytes.Buffer
	err := Run(context.Background(), WithConfig(cfg), WithMode(ModePurge), WithIO(strings.NewReader("n\n"), &out))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "aborted") {
		t.Errorf("output = %q", out.String())
	}
	if _, err := os.Stat(filepath.Join(cfg.Journal.Path, "Notes", "2026-10-19.json")); err != nil {
		t.Errorf("note removed despite abort: %v", err)
	}
}

func TestRun_PurgeConfirmed(t *testing.T) {
	cfg := testConfig(t)
	seedNote(t, cfg, "2026-10-19")
	seedNote(t, cfg, "2026-10-20")

	var out bytes.Buffer
	err := Run(context.Background(), WithConfig(cfg), WithMode(ModePurge), WithIO(strings.NewReader("yes\n"), &out))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "deleted 2 notes") {
		t.Errorf("output = %q", out.String())
	}
	entries, _ := os.ReadDir(filepath.Join(cfg.Journal.Path, "Notes"))
	if len(entries) != 0 {
		t.Errorf("notes left: %d", len(entries))
	}
}

func TestHTTPHandler_HealthAndAuth(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth = AuthConfig{Mode: AuthModeToken, Token: "tok"}

	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	rt, err := open(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rt.close()
	h := newHTTPHandler(cfg, rt)

	for _, path := range []string{"/health/live", "/health/ready"} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("%s = %d, want 200", path, w.Code)
		}
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/days", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("/api/days without token = %d, want 401", w.Code)
	}

	// Images stay reachable without a token.
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/images/missing.png", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("/images/missing.png = %d, want 404", w.Code)
	}
}

// startServe runs the serve mode on a free port and waits until it answers.
func startServe(t *testing.T, ctx context.Context) <-chan error {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()

	cfg := testConfig(t)
	cfg.App.HTTP.Port = port

	done := make(chan error, 1)
	go func() { done <- Run(ctx, WithConfig(cfg), WithMode(ModeServe)) }()

	url := fmt.Sprintf("http://127.0.0.1:%d/health/live", port)
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			return done
		}
		select {
		case err := <-done:
			t.Fatalf("serve exited early: %v", err)
		case <-time.After(50 * time.Millisecond):
		}
	}
	t.Fatal("server did not come up")
	return nil
}

func waitReturn(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after shutdown")
	}
}

func TestRun_ServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := startServe(t, ctx)

	cancel()
	waitReturn(t, done)
}

func TestRun_ServeStopsOnSignal(t *testing.T) {
	done := startServe(t, context.Background())

	if err := syscall.Kill(os.Getpid(), syscall.SIGINT); err != nil {
		t.Fatal(err)
	}
	waitReturn(t, done)
}
