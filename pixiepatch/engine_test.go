package pixiepatch

import "testing"

// TestNewDefaultReaderFailsInsteadOfPanicking: calling Plan (or Apply)
// against a freshly constructed Engine, without a Reader wired in, must
// surface an *IOError, not panic on a nil interface.
func TestNewDefaultReaderFailsInsteadOfPanicking(t *testing.T) {
	e := New()

	client := NewClientManifest("0")
	_, err := e.Plan(client, "1")
	if !IsIOError(err) {
		t.Fatalf("expected IOError from an unconfigured Reader, got %v", err)
	}
}
