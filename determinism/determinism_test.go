package determinism

import (
	"testing"

	"github.com/ivan-motion/core/collision"
	"github.com/ivan-motion/core/replay"
	"github.com/ivan-motion/core/vmath"
)

func flatWorld() *collision.AABBWorld {
	w := collision.NewAABBWorld(0.35, 0.9)
	w.Add(collision.Box{Min: vmath.Vec3{X: -50, Y: -50, Z: -10}, Max: vmath.Vec3{X: 50, Y: 50, Z: 0}})
	return w
}

func sampleRecording() replay.Recording {
	rec := replay.NewRecording("det-test", 1700000000, 60, 1, "flat", "", map[string]any{"max_ground_speed": 6.6})
	for i := 0; i < 20; i++ {
		replay.AppendFrame(&rec, replay.Frame{MoveForward: 1})
	}
	return rec
}

func TestReplayIsStableAcrossRuns(t *testing.T) {
	h := NewHarness(flatWorld(), 3)
	report, err := h.Replay(sampleRecording())
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if !report.Stable {
		t.Fatalf("report.Stable = false, want true (divergence_runs=%d)", report.DivergenceRuns)
	}
	if report.TickCount != 20 {
		t.Fatalf("TickCount = %d, want 20", report.TickCount)
	}
}

func TestStateHashDeterministic(t *testing.T) {
	pos := vmath.Vec3{X: 1, Y: 2, Z: 3}
	vel := vmath.Vec3{X: 0.5, Y: 0, Z: -1}
	a := StateHash(pos, vel, 10, -5, true, "grounded", 2, 0.1, 0.05)
	b := StateHash(pos, vel, 10, -5, true, "grounded", 2, 0.1, 0.05)
	if a != b {
		t.Fatalf("StateHash not repeatable: %q != %q", a, b)
	}
	c := StateHash(pos, vel, 10, -5, true, "grounded", 2, 0.1, 0.06)
	if a == c {
		t.Fatalf("StateHash did not change with coyoteLeft")
	}
}
