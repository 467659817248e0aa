package backup

import (
	"testing"

	"github.com/ivan-motion/core/physics"
)

func TestCreateListNewestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	tn := physics.NewDefaultTuning()
	tn.MaxGroundSpeed = 9.9

	if _, err := Create(dir, tn, "route-a", 1000); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := Create(dir, tn, "route-b", 2000); err != nil {
		t.Fatalf("Create: %v", err)
	}

	handles, err := List(dir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(handles) != 2 {
		t.Fatalf("len(handles) = %d, want 2", len(handles))
	}
	if handles[0].Label != "route-b" {
		t.Fatalf("handles[0].Label = %q, want route-b (newest first)", handles[0].Label)
	}

	restored, handle, err := Restore(dir, physics.NewDefaultTuning(), "")
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if handle.Label != "route-b" {
		t.Fatalf("Restore used %q, want newest route-b", handle.Label)
	}
	if restored.MaxGroundSpeed != 9.9 {
		t.Fatalf("restored.MaxGroundSpeed = %v, want 9.9", restored.MaxGroundSpeed)
	}
}

func TestRestoreMissingReturnsErrBackupNotFound(t *testing.T) {
	dir := t.TempDir()
	_, _, err := Restore(dir, physics.NewDefaultTuning(), "")
	if err == nil {
		t.Fatalf("Restore on empty dir did not error")
	}
}
