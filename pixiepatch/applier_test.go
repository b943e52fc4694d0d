package pixiepatch

import (
	"os"
	"path/filepath"
	"testing"
)

func TestApplyEndToEnd(t *testing.T) {
	dir := t.TempDir()
	e := New()
	e.Reader = dirReader{root: dir}
	e.Differ = realishDiffer{}

	buildVersion(t, e, dir, "1", map[string]string{
		"keep.txt":    "same forever",
		"removed.txt": "going away",
		"changed.txt": "shared prefix content that will grow",
	}, "")
	buildVersion(t, e, dir, "2", map[string]string{
		"keep.txt":    "same forever",
		"changed.txt": "shared prefix content that will grow and then some",
		"added.txt":   "brand new",
	}, "1")

	client := filepath.Join(dir, "client")
	writeTree(t, client, map[string]string{
		"keep.txt":    "same forever",
		"removed.txt": "going away",
		"changed.txt": "shared prefix content that will grow",
	})

	clientManifest, err := e.CreateClientManifest("1", client)
	if err != nil {
		t.Fatal(err)
	}

	plan, err := e.Plan(clientManifest, "2")
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Apply(client, plan); err != nil {
		t.Fatal(err)
	}

	assertFileContents(t, filepath.Join(client, "keep.txt"), "same forever")
	assertFileContents(t, filepath.Join(client, "changed.txt"), "shared prefix content that will grow and then some")
	assertFileContents(t, filepath.Join(client, "added.txt"), "brand new")

	if _, err := os.Stat(filepath.Join(client, "removed.txt")); !os.IsNotExist(err) {
		t.Errorf("expected removed.txt to be deleted, stat err = %v", err)
	}
}

func TestApplyVerificationFailureHalts(t *testing.T) {
	dir := t.TempDir()
	e := New()
	e.Reader = dirReader{root: dir}

	buildVersion(t, e, dir, "1", map[string]string{"a.txt": "hello"}, "")

	// Corrupt the stored blob so its content no longer matches the
	// manifest's recorded hash.
	blob := filepath.Join(dir, "1", "a.txt")
	if err := os.WriteFile(blob, []byte("corrupted"), 0644); err != nil {
		t.Fatal(err)
	}

	client := filepath.Join(dir, "client")
	if err := os.MkdirAll(client, 0755); err != nil {
		t.Fatal(err)
	}
	clientManifest := NewClientManifest("0")

	plan, err := e.Plan(clientManifest, "1")
	if err != nil {
		t.Fatal(err)
	}
	err = e.Apply(client, plan)
	if !IsVerificationError(err) {
		t.Fatalf("expected VerificationError, got %v", err)
	}
}

func assertFileContents(t *testing.T, path, want string) {
	t.Helper()
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != want {
		t.Errorf("%s = %q, want %q", path, got, want)
	}
}
