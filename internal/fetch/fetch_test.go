package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestFetch(t *testing.T) {
	payload := []byte("bundle contents")

	var userAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Length", fmt.Sprintf("%d", len(payload)))
		w.Write(payload)
	}))
	defer server.Close()

	var progress bytes.Buffer
	f := New(WithHTTPClient(server.Client()), WithProgress(&progress))

	destDir := filepath.Join(t.TempDir(), "pkg")
	path, err := f.Fetch(context.Background(), server.URL+"/bundle.zip", destDir)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading download: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Errorf("content = %q, want %q", data, payload)
	}
	if filepath.Dir(path) != destDir {
		t.Errorf("download written to %s, want inside %s", path, destDir)
	}
	if userAgent != "bundlekeep-fetch" {
		t.Errorf("User-Agent = %q", userAgent)
	}
	if !bytes.Contains(progress.Bytes(), []byte("100%")) {
		t.Errorf("progress output %q does not reach 100%%", progress.String())
	}
}

func TestFetch_NotFoundIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	f := New(WithHTTPClient(server.Client()), WithRetries(3), WithRetryInterval(time.Millisecond))

	destDir := t.TempDir()
	_, err := f.Fetch(context.Background(), server.URL+"/missing", destDir)

	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 StatusError, got %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("server hit %d times, want 1", hits.Load())
	}
	if _, err := os.Stat(filepath.Join(destDir, DownloadFile)); !os.IsNotExist(err) {
		t.Error("partial download was not removed")
	}
}

func TestFetch_RetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	f := New(WithHTTPClient(server.Client()), WithRetries(3), WithRetryInterval(time.Millisecond))

	path, err := f.Fetch(context.Background(), server.URL+"/flaky", t.TempDir())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "ok" {
		t.Errorf("content = %q, want ok (earlier attempts must be truncated)", data)
	}
	if hits.Load() != 3 {
		t.Errorf("server hit %d times, want 3", hits.Load())
	}
}

func TestFetch_RetriesExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer server.Close()

	f := New(WithHTTPClient(server.Client()), WithRetries(1), WithRetryInterval(time.Millisecond))

	_, err := f.Fetch(context.Background(), server.URL+"/down", t.TempDir())
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502 StatusError, got %v", err)
	}
}

func TestFetch_Cancelled(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	f := New(WithHTTPClient(server.Client()), WithRetries(0))
	destDir := t.TempDir()
	_, err := f.Fetch(ctx, server.URL+"/slow", destDir)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(destDir, DownloadFile)); !os.IsNotExist(err) {
		t.Error("partial download was not removed")
	}
}

func TestFetch_Mirror(t *testing.T) {
	var gotPath string
	mirror := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte("mirrored"))
	}))
	defer mirror.Close()

	f := New(WithHTTPClient(mirror.Client()), WithMirror(mirror.URL+"/"))
	if _, err := f.Fetch(context.Background(), "https://cdn.example.com/releases/abc.zip", t.TempDir()); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if gotPath != "/releases/abc.zip" {
		t.Errorf("mirror path = %q, want /releases/abc.zip", gotPath)
	}
}

func TestFetch_UnsupportedScheme(t *testing.T) {
	f := New()
	if _, err := f.Fetch(context.Background(), "ftp://example.com/x.zip", t.TempDir()); err == nil {
		t.Error("expected error for ftp url")
	}
}
