package pixiepatch

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgym/pixiepatch/archive"
)

// TestWalkSourceAppliesIgnorePatterns: ignore patterns are prefix-anchored,
// matching from the start of the path without requiring the caller to write
// an explicit "^".
// A pattern of "build/" must exclude "build/out.log" but must NOT exclude
// "src/vendor/build/file", where "build/" only appears mid-path.
func TestWalkSourceAppliesIgnorePatterns(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"keep.txt":              "kept",
		"build/out.log":         "dropped",
		"nested/log.txt":        "kept too",
		"src/vendor/build/file": "kept, build/ is not a prefix here",
	})

	e := New()
	if err := e.RegisterIgnorePattern(`build/`); err != nil {
		t.Fatal(err)
	}

	seen := map[string]bool{}
	err := e.walkSource(dir, func(relPath string, contents []byte, mode *uint32) error {
		seen[relPath] = true
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if seen["build/out.log"] {
		t.Errorf("expected build/out.log to be excluded by the ignore pattern")
	}
	if !seen["keep.txt"] || !seen["nested/log.txt"] {
		t.Errorf("expected non-ignored files to still be walked, saw %v", seen)
	}
	if !seen["src/vendor/build/file"] {
		t.Errorf("expected src/vendor/build/file to survive: the pattern is prefix-anchored, not a substring search")
	}
}

// TestWalkSourceIgnoresArchiveMembers: ignore patterns are tested against
// the post-expansion path, so a pattern can exclude a single member inside
// an archive while its siblings survive.
func TestWalkSourceIgnoresArchiveMembers(t *testing.T) {
	dir := t.TempDir()
	writeZip(t, filepath.Join(dir, "a.zip"), map[string]string{
		"keep":   "stays",
		"secret": "goes",
	})

	e := New()
	e.RegisterArchiveHandler(".zip", archive.Zip{})
	if err := e.RegisterIgnorePattern(`a\.zip/secret`); err != nil {
		t.Fatal(err)
	}

	seen := map[string]bool{}
	err := e.walkSource(dir, func(relPath string, contents []byte, mode *uint32) error {
		seen[relPath] = true
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if seen["a.zip/secret"] {
		t.Errorf("expected a.zip/secret to be excluded by the ignore pattern")
	}
	if !seen["a.zip/keep"] {
		t.Errorf("expected a.zip/keep to survive, saw %v", seen)
	}
}

// TestResolveMatchesPathComponents: only a whole path component ending in a
// registered extension is an archive mount point. "foo.zip.txt" is a plain
// file; "a/b.zip/c" resolves through the handler for "a/b.zip".
func TestResolveMatchesPathComponents(t *testing.T) {
	e := New()
	e.RegisterArchiveHandler(".zip", archive.Zip{})

	if _, member, handler := e.resolve("/root", "foo.zip.txt"); member != "" {
		t.Errorf("foo.zip.txt should not resolve through an archive, got member %q via %T", member, handler)
	}

	hostPath, member, _ := e.resolve("/root", "a/b.zip/c")
	if hostPath != filepath.Join("/root", "a", "b.zip") {
		t.Errorf("archive path = %q, want %q", hostPath, filepath.Join("/root", "a", "b.zip"))
	}
	if member != "c" {
		t.Errorf("member = %q, want %q", member, "c")
	}
}

func writeZip(t *testing.T, path string, members map[string]string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = f.Close()
	}()
	w := zip.NewWriter(f)
	for name, contents := range members {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(contents)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func keysOf(m map[string]*FileEntry) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// TestMakeDistributionMountsArchiveMembers: a source tree containing a .zip
// is walked as if its members were ordinary files, keyed "a.zip/<member>"
// in the manifest.
func TestMakeDistributionMountsArchiveMembers(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "source")
	target := filepath.Join(dir, "v1")

	writeZip(t, filepath.Join(source, "a.zip"), map[string]string{
		"a": "one",
		"b": "two",
		"c": "three",
	})

	e := New()
	e.RegisterArchiveHandler(".zip", archive.Zip{})

	if err := e.MakeDistribution("1", source, target, ""); err != nil {
		t.Fatal(err)
	}

	manifest, err := e.ReadManifestFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if len(manifest.Files) != 3 {
		t.Fatalf("got %d files, want 3: %v", len(manifest.Files), keysOf(manifest.Files))
	}
	for _, member := range []string{"a", "b", "c"} {
		key := "a.zip/" + member
		if _, ok := manifest.Files[key]; !ok {
			t.Errorf("expected manifest entry %q, got keys %v", key, keysOf(manifest.Files))
		}
	}
	entry := manifest.Files["a.zip/a"]
	if entry.Hash != hashOf([]byte("one")) {
		t.Errorf("a.zip/a hash = %q, want hash of %q", entry.Hash, "one")
	}
}

// TestApplyPatchesArchiveMembers: plan and apply must resolve composite
// "archive/member" manifest paths through the registered handler exactly as
// they would plain files.
func TestApplyPatchesArchiveMembers(t *testing.T) {
	dir := t.TempDir()

	e := New()
	e.RegisterArchiveHandler(".zip", archive.Zip{})

	source1 := filepath.Join(dir, "src1")
	writeZip(t, filepath.Join(source1, "a.zip"), map[string]string{
		"keep": "same forever",
		"gone": "will be removed",
	})
	target1 := filepath.Join(dir, "1")
	if err := e.MakeDistribution("1", source1, target1, ""); err != nil {
		t.Fatal(err)
	}

	source2 := filepath.Join(dir, "src2")
	writeZip(t, filepath.Join(source2, "a.zip"), map[string]string{
		"keep": "same forever",
		"new":  "just added",
	})
	target2 := filepath.Join(dir, "2")
	if err := e.MakeDistribution("2", source2, target2, target1); err != nil {
		t.Fatal(err)
	}

	e.Reader = dirReader{root: dir}

	client := filepath.Join(dir, "client")
	writeZip(t, filepath.Join(client, "a.zip"), map[string]string{
		"keep": "same forever",
		"gone": "will be removed",
	})

	clientManifest, err := e.CreateClientManifest("1", client)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := clientManifest.Files["a.zip/keep"]; !ok {
		t.Fatalf("expected client manifest to mount a.zip, got %v", clientManifest.Files)
	}

	plan, err := e.Plan(clientManifest, "2")
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.Delete) != 1 || plan.Delete[0] != "a.zip/gone" {
		t.Fatalf("delete list = %v, want [a.zip/gone]", plan.Delete)
	}
	if len(plan.Download) != 1 || plan.Download[0] != "a.zip/new" {
		t.Fatalf("download list = %v, want [a.zip/new]", plan.Download)
	}

	if err := e.Apply(client, plan); err != nil {
		t.Fatal(err)
	}

	got, err := archive.Zip{}.Get(filepath.Join(client, "a.zip"), "new")
	if err != nil || string(got) != "just added" {
		t.Errorf("a.zip/new after apply = %q, %v", got, err)
	}
	if _, err := (archive.Zip{}).Get(filepath.Join(client, "a.zip"), "gone"); err == nil {
		t.Errorf("expected a.zip/gone to be deleted after apply")
	}
	if got, err := (archive.Zip{}).Get(filepath.Join(client, "a.zip"), "keep"); err != nil || string(got) != "same forever" {
		t.Errorf("a.zip/keep should survive untouched: %q, %v", got, err)
	}
}
