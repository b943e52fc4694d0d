package compress

import (
	"bytes"
	"os/exec"
	"testing"
)

func roundTrip(t *testing.T, name string, c interface {
	Compress([]byte) ([]byte, error)
	Decompress([]byte) ([]byte, error)
	Extension() string
}) {
	t.Helper()
	if c.Extension() == "" {
		t.Errorf("%s: expected a non-empty extension", name)
	}
	data := []byte("the quick brown fox jumps over the lazy dog, " +
		"the quick brown fox jumps over the lazy dog")
	compressed, err := c.Compress(data)
	if err != nil {
		t.Fatalf("%s: compress: %v", name, err)
	}
	decompressed, err := c.Decompress(compressed)
	if err != nil {
		t.Fatalf("%s: decompress: %v", name, err)
	}
	if !bytes.Equal(decompressed, data) {
		t.Fatalf("%s: round trip mismatch: got %q, want %q", name, decompressed, data)
	}
}

func TestGzipRoundTrip(t *testing.T) {
	roundTrip(t, "gzip", Gzip{})
}

func TestXZRoundTrip(t *testing.T) {
	roundTrip(t, "xz", XZ{})
}

func TestZstdRoundTrip(t *testing.T) {
	roundTrip(t, "zstd", Zstd{})
}

func TestBzip2RoundTrip(t *testing.T) {
	if _, err := exec.LookPath("bzip2"); err != nil {
		t.Skip("bzip2 binary not available")
	}
	roundTrip(t, "bzip2", Bzip2{})
}
