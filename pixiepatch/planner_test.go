package pixiepatch

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func buildVersion(t *testing.T, e *Engine, distRoot, version string, files map[string]string, previous string) {
	t.Helper()
	source := filepath.Join(distRoot, "src-"+version)
	writeTree(t, source, files)
	target := filepath.Join(distRoot, version)
	previousTarget := ""
	if previous != "" {
		previousTarget = filepath.Join(distRoot, previous)
	}
	if err := e.MakeDistribution(version, source, target, previousTarget); err != nil {
		t.Fatal(err)
	}
}

func TestPlanSameVersionIsNoOp(t *testing.T) {
	dir := t.TempDir()
	e := New()
	e.Reader = dirReader{root: dir}
	buildVersion(t, e, dir, "1", map[string]string{"a.txt": "hello"}, "")

	client := NewClientManifest("1")
	client.Files["a.txt"] = ClientFileEntry{Hash: hashOf([]byte("hello"))}

	plan, err := e.Plan(client, "1")
	if err != nil {
		t.Fatal(err)
	}
	if plan != nil {
		t.Fatalf("expected nil plan when already at target version, got %+v", plan)
	}
}

func TestPlanUnknownVersionIsIOError(t *testing.T) {
	dir := t.TempDir()
	e := New()
	e.Reader = dirReader{root: dir}
	client := NewClientManifest("0")

	_, err := e.Plan(client, "missing")
	if !IsIOError(err) {
		t.Fatalf("expected IOError, got %v", err)
	}
}

func TestPlanDeleteDownloadAndPatch(t *testing.T) {
	dir := t.TempDir()
	e := New()
	e.Reader = dirReader{root: dir}
	e.Differ = realishDiffer{}

	buildVersion(t, e, dir, "1", map[string]string{
		"keep.txt":    "same forever",
		"removed.txt": "going away",
		"changed.txt": "version one contents",
	}, "")
	buildVersion(t, e, dir, "2", map[string]string{
		"keep.txt":    "same forever",
		"changed.txt": "version one contents, a bit longer",
		"added.txt":   "brand new",
	}, "1")

	client := NewClientManifest("1")
	client.Files["keep.txt"] = ClientFileEntry{Hash: hashOf([]byte("same forever"))}
	client.Files["removed.txt"] = ClientFileEntry{Hash: hashOf([]byte("going away"))}
	client.Files["changed.txt"] = ClientFileEntry{Hash: hashOf([]byte("version one contents"))}

	plan, err := e.Plan(client, "2")
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.Delete) != 1 || plan.Delete[0] != "removed.txt" {
		t.Errorf("delete list = %v, want [removed.txt]", plan.Delete)
	}
	if len(plan.Download) != 1 || plan.Download[0] != "added.txt" {
		t.Errorf("download list = %v, want [added.txt]", plan.Download)
	}
	foundChanged := false
	for _, p := range plan.Patch {
		if p.Name == "changed.txt" {
			foundChanged = true
		}
	}
	if !foundChanged {
		t.Errorf("expected changed.txt to be planned as a patch, patch=%v download=%v", plan.Patch, plan.Download)
	}
}

func TestPlanChainsMultipleDeltas(t *testing.T) {
	dir := t.TempDir()
	e := New()
	e.Reader = dirReader{root: dir}
	e.Differ = realishDiffer{}

	v1 := strings.Repeat("a", 200)
	v2 := v1 + strings.Repeat("b", 5)
	v3 := v2 + strings.Repeat("c", 5)

	buildVersion(t, e, dir, "1", map[string]string{"a.txt": v1}, "")
	buildVersion(t, e, dir, "2", map[string]string{"a.txt": v2}, "1")
	buildVersion(t, e, dir, "3", map[string]string{"a.txt": v3}, "2")

	client := NewClientManifest("1")
	client.Files["a.txt"] = ClientFileEntry{Hash: hashOf([]byte(v1))}

	plan, err := e.Plan(client, "3")
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range plan.Patch {
		if p.Name == "a.txt" && len(p.Chain) != 2 {
			t.Errorf("expected a two-delta chain, got %v", p.Chain)
		}
	}
}

// realishDiffer diffs two versions that share a common prefix by recording
// only the appended suffix, and patches by appending it back. It stands in
// for bsdiff in tests so chain search can be exercised without requiring an
// external binary, while still producing a delta genuinely smaller than the
// full payload.
type realishDiffer struct{}

func (realishDiffer) Diff(source, target []byte) ([]byte, error) {
	if len(target) > len(source) && bytes.Equal(target[:len(source)], source) {
		return append([]byte{}, target[len(source):]...), nil
	}
	return nil, NewDiffError("realishDiffer requires target to extend source")
}

func (realishDiffer) Patch(source, delta []byte) ([]byte, error) {
	out := make([]byte, 0, len(source)+len(delta))
	out = append(out, source...)
	out = append(out, delta...)
	return out, nil
}

func (realishDiffer) Extension() string { return ".realish" }
