package fetch

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgym/pixiepatch/pixiepatch"
)

func TestLocalGet(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "1"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "1", "manifest.gz"), []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}

	r := Local{Root: root}
	data, err := r.Get("1", "manifest.gz")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "data" {
		t.Fatalf("got %q, want %q", data, "data")
	}

	if _, err := r.Get("1", "missing"); !pixiepatch.IsIOError(err) {
		t.Fatalf("expected IOError for missing blob, got %v", err)
	}
}

// TestHTTPGetReportsProgress: the optional Progress callback fires and
// accounts for every byte read from the response body.
func TestHTTPGetReportsProgress(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte("progress data"))
	}))
	defer server.Close()

	var total int
	r := HTTP{BaseURL: server.URL, Progress: func(n int) { total += n }}
	data, err := r.Get("1", "manifest.gz")
	if err != nil {
		t.Fatal(err)
	}
	if total != len(data) {
		t.Fatalf("Progress reported %d bytes, want %d", total, len(data))
	}
}

func TestHTTPGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path == "/1/manifest.gz" {
			_, _ = w.Write([]byte("data"))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	r := HTTP{BaseURL: server.URL}
	data, err := r.Get("1", "manifest.gz")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "data" {
		t.Fatalf("got %q, want %q", data, "data")
	}

	if _, err := r.Get("1", "missing"); !pixiepatch.IsIOError(err) {
		t.Fatalf("expected IOError for missing blob, got %v", err)
	}
}
