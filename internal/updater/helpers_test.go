package updater

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/bundlekeep/bundlekeep/internal/metadata"
	"github.com/bundlekeep/bundlekeep/internal/paths"
)

const testApp = "demo"

// fakeFetcher serves payloads by URL without touching the network.
type fakeFetcher struct {
	payloads map[string][]byte
	err      error
	calls    int
}

func (f *fakeFetcher) Fetch(ctx context.Context, url, destDir string) (string, error) {
	f.calls++
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", err
	}
	if f.err != nil {
		// Leave a partial file behind so cleanup is observable.
		_ = os.WriteFile(filepath.Join(destDir, "download"), []byte("partial"), 0o644)
		return "", f.err
	}
	data, ok := f.payloads[url]
	if !ok {
		return "", os.ErrNotExist
	}
	path := filepath.Join(destDir, "download")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func newTestManager(t *testing.T, opts ...Option) (*Manager, string) {
	t.Helper()
	docs := t.TempDir()
	return New(paths.New(docs, testApp), opts...), filepath.Join(docs, testApp)
}

// makePackage creates a package folder with a record and the given content
// files below <hash>/<appName>.
func makePackage(t *testing.T, m *Manager, hash string, files map[string]string) {
	t.Helper()
	rec := metadata.PackageRecord{PackageHash: hash, AppVersion: "1.0.0"}
	if err := m.packages.write(rec); err != nil {
		t.Fatalf("write record %s: %v", hash, err)
	}
	content, err := m.paths.PackageContentPath(hash)
	if err != nil {
		t.Fatal(err)
	}
	writeFiles(t, content, files)
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

// zipBytes builds an in-memory zip holding files, keyed by slash paths.
func zipBytes(t *testing.T, files map[string]string) []byte {
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
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(files[name])); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func writeStatus(t *testing.T, m *Manager, current, previous string) {
	t.Helper()
	rec := metadata.StatusRecord{CurrentPackage: metadata.Some(current), PreviousPackage: metadata.Some(previous)}
	if err := m.status.Write(rec); err != nil {
		t.Fatalf("write status: %v", err)
	}
}

func readStatus(t *testing.T, m *Manager) metadata.StatusRecord {
	t.Helper()
	rec, err := m.Status()
	if err != nil {
		t.Fatalf("read status: %v", err)
	}
	return rec
}

func assertExists(t *testing.T, path string, want bool) {
	t.Helper()
	_, err := os.Stat(path)
	if got := err == nil; got != want {
		t.Errorf("exists(%s) = %v, want %v", path, got, want)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
