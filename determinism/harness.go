package determinism

import (
	"math"

	"github.com/ivan-motion/core/collision"
	"github.com/ivan-motion/core/controller"
	"github.com/ivan-motion/core/intent"
	"github.com/ivan-motion/core/physics"
	"github.com/ivan-motion/core/replay"
	"github.com/ivan-motion/core/vmath"
)

// Harness re-executes a recorded demo through a fresh controller some
// number of times and checks that every run produces the exact same
// tick-hash sequence.
type Harness struct {
	Collider collision.Collider
	Runs     int
}

// NewHarness builds a Harness that replays against the given world,
// repeating each recording runs times (minimum 1).
func NewHarness(world collision.Collider, runs int) *Harness {
	if runs < 1 {
		runs = 1
	}
	return &Harness{Collider: world, Runs: runs}
}

// Report is the outcome of one Harness.Replay call.
type Report struct {
	Runs                 int
	TickCount            int
	Stable               bool
	BaselineTraceHash    string
	DivergenceRuns       int
	RecordedHashChecked  int
	RecordedHashMismatch int
	RunTraceHashes       []string
}

// Replay re-simulates rec through Harness.Runs independent fresh
// controllers and reports whether every run's tick-hash sequence
// matches the first.
func (h *Harness) Replay(rec replay.Recording) (Report, error) {
	traces := make([]*runTrace, h.Runs)
	for i := 0; i < h.Runs; i++ {
		traces[i] = simulateReplayTrace(rec, h.Collider)
	}

	baseline := traces[0]
	divergence := 0
	for _, tr := range traces[1:] {
		if !hashesEqual(tr.hashes, baseline.hashes) {
			divergence++
		}
	}

	checked, mismatches := 0, 0
	for _, tr := range traces {
		checked += tr.recordedChecked
		mismatches += tr.recordedMismatches
	}

	runHashes := make([]string, len(traces))
	for i, tr := range traces {
		runHashes[i] = tr.traceHash
	}

	return Report{
		Runs:                 h.Runs,
		TickCount:            len(baseline.hashes),
		Stable:               divergence == 0,
		BaselineTraceHash:    baseline.traceHash,
		DivergenceRuns:       divergence,
		RecordedHashChecked:  checked,
		RecordedHashMismatch: mismatches,
		RunTraceHashes:       runHashes,
	}, nil
}

func hashesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

type runTrace struct {
	traceHash          string
	hashes             []string
	recordedChecked    int
	recordedMismatches int
}

func clampPitch(p float64) float64 {
	if p < -88 {
		return -88
	}
	if p > 88 {
		return 88
	}
	return p
}

func initialState(rec replay.Recording) (spawn vmath.Vec3, yaw, pitch float64, vel vmath.Vec3, grounded bool) {
	spawn = vmath.Vec3{Z: 3.0}
	if len(rec.Frames) == 0 || rec.Frames[0].Telemetry == nil {
		return spawn, 0, 0, vmath.Vec3{}, false
	}
	tm := rec.Frames[0].Telemetry
	if x, ok := tmFloat(tm, "x"); ok {
		if y, ok2 := tmFloat(tm, "y"); ok2 {
			if z, ok3 := tmFloat(tm, "z"); ok3 {
				spawn = vmath.Vec3{X: x, Y: y, Z: z}
			}
		}
	}
	if y, ok := tmFloat(tm, "yaw"); ok {
		yaw = y
	}
	if p, ok := tmFloat(tm, "pitch"); ok {
		pitch = p
	}
	if vx, ok := tmFloat(tm, "vx"); ok {
		if vy, ok2 := tmFloat(tm, "vy"); ok2 {
			if vz, ok3 := tmFloat(tm, "vz"); ok3 {
				vel = vmath.Vec3{X: vx, Y: vy, Z: vz}
			}
		}
	}
	if g, ok := tm["grounded"].(bool); ok {
		grounded = g
	}
	return spawn, yaw, pitch, vel, grounded
}

func tmFloat(tm map[string]any, key string) (float64, bool) {
	v, ok := tm[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

func simulateReplayTrace(rec replay.Recording, world collision.Collider) *runTrace {
	tuning := physics.NewDefaultTuning()
	tuning.FromMap(rec.Metadata.Tuning)
	tuning.Clamp()

	spawn, yaw, pitch, vel, grounded := initialState(rec)
	ctrl := controller.New(tuning, spawn, world)
	ctrl.SetExternalVelocity(vel, "determinism.seed")
	if grounded {
		ctrl.Grounded = true
	}

	tickRate := rec.Metadata.TickRate
	if tickRate < 1 {
		tickRate = 1
	}
	dt := 1.0 / float64(tickRate)
	lookScale := rec.Metadata.LookScale
	if lookScale < 1 {
		lookScale = 1
	}

	hashes := make([]string, 0, len(rec.Frames))
	checked, mismatches := 0, 0
	trace := NewTrace(tickRate, math.Max(2.0, math.Min(30.0, float64(len(rec.Frames))/float64(tickRate)+1.0)))

	for i, frame := range rec.Frames {
		yaw -= (float64(frame.LookDX) / float64(lookScale)) * tuning.MouseSensitivity
		pitch = clampPitch(pitch - (float64(frame.LookDY)/float64(lookScale))*tuning.MouseSensitivity)

		cmd := intent.Command{
			MoveForward:  int8(frame.MoveForward),
			MoveRight:    int8(frame.MoveRight),
			JumpPressed:  frame.JumpPressed,
			JumpHeld:     frame.JumpHeld,
			SlidePressed: frame.SlidePressed,
		}
		in := intent.Derive(cmd, yaw, ctrl.Grounded, tuning.AutojumpEnabled)

		ctrl.Step(dt, in, yaw, pitch, frame.JumpHeld)

		tickHash := StateHash(ctrl.PositionVec(), ctrl.VelocityVec(), yaw, pitch, ctrl.IsGrounded(), ctrl.MotionStateName(), ctrl.ContactCount(), ctrl.JumpBufferLeft(), ctrl.CoyoteLeft())
		trace.Record(float64(i+1)*dt, tickHash)
		hashes = append(hashes, tickHash)

		if frame.Telemetry != nil {
			if expHash, ok := frame.Telemetry["det_h"].(string); ok && expHash != "" {
				checked++
				if expHash != tickHash {
					mismatches++
				}
			}
		}
	}

	return &runTrace{
		traceHash:          trace.LatestTraceHash(),
		hashes:             hashes,
		recordedChecked:    checked,
		recordedMismatches: mismatches,
	}
}
