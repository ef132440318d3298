//go:build integration

package integration_test

import (
	"archive/zip"
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/bundlekeep/bundlekeep/internal/fetch"
	"github.com/bundlekeep/bundlekeep/internal/paths"
	"github.com/bundlekeep/bundlekeep/internal/updater"
)

const testApp = "demo"

// testEnv holds an isolated package store and the server packages are
// downloaded from.
type testEnv struct {
	DocumentsDir string // documents_dir of the store
	AppRoot      string // <DocumentsDir>/<testApp>
	Server       *packageServer
	Manager      *updater.Manager
}

// setupTestEnv creates a temp store and an HTTP package server. Both are
// torn down after the test.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	server := newPackageServer(t)
	docs := t.TempDir()
	fetcher := fetch.New(
		fetch.WithHTTPClient(server.Client()),
		fetch.WithRetries(0),
	)

	return &testEnv{
		DocumentsDir: docs,
		AppRoot:      filepath.Join(docs, testApp),
		Server:       server,
		Manager:      updater.New(paths.New(docs, testApp), updater.WithFetcher(fetcher)),
	}
}

// packageServer serves payloads registered by path.
type packageServer struct {
	*httptest.Server
	mu       sync.Mutex
	payloads map[string][]byte
}

func newPackageServer(t *testing.T) *packageServer {
	t.Helper()
	ps := &packageServer{payloads: map[string][]byte{}}
	ps.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ps.mu.Lock()
		data, ok := ps.payloads[r.URL.Path]
		ps.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	}))
	t.Cleanup(ps.Close)
	return ps
}

// publish registers data under path and returns its URL.
func (ps *packageServer) publish(path string, data []byte) string {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.payloads[path] = data
	return ps.URL + path
}

// zipPayload builds a zip archive holding files, keyed by slash paths.
func zipPayload(t *testing.T, files map[string]string) []byte {
	t.Helper()
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("adding %s: %v", name, err)
		}
		if _, err := w.Write([]byte(files[name])); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return buf.Bytes()
}

// assertFileExists fails the test if the file does not exist.
func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file to exist: %s (error: %v)", path, err)
	}
}

// assertFileNotExists fails the test if the file exists.
func assertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("expected file NOT to exist: %s", path)
	}
}

// assertFileContains fails if the file doesn't exist or doesn't contain substr.
func assertFileContains(t *testing.T, path, substr string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Errorf("reading %s: %v", path, err)
		return
	}
	if !strings.Contains(string(data), substr) {
		t.Errorf("file %s does not contain %q.\nContents:\n%s", path, substr, string(data))
	}
}
