// Package intent models per-tick player input: the raw Command stream
// a host feeds in, and the derived Intent the controller actually
// consumes. Both are pure data structs — no function pointers, no
// behavior, matching the input model the rest of this corpus (and the
// teacher's own vim-mode input package) favors for per-tick state.
package intent

import (
	"math"

	"github.com/ivan-motion/core/vmath"
)

// Command is the raw per-tick input a host produces.
type Command struct {
	LookDX, LookDY int // scaled integer look deltas

	MoveForward int8 // -1, 0, 1
	MoveRight   int8 // -1, 0, 1

	JumpPressed bool
	JumpHeld    bool

	SlidePressed bool
	SlideHeld    bool

	GrapplePressed bool

	NoclipTogglePressed bool

	// HeldKeys holds per-key held-state flags (e.g. "forward", "back",
	// "left", "right", "jump", "slide"), keyed by name so new flags can
	// be added without breaking the Command shape. Neither the demo
	// Frame nor the telemetry export carries these flags. Never iterated in a way
	// that contributes to a tick hash — callers that need a stable
	// order must sort the keys first.
	HeldKeys map[string]bool
}

// Intent is the normalized, per-tick derived input the controller
// actually steps with.
type Intent struct {
	WishDir        vmath.Vec3
	JumpRequested  bool
	SlideRequested bool
}

// WishDirection computes the normalized horizontal wish direction from
// yaw and the two move axes: forward = (-sin(yaw), cos(yaw), 0),
// right = (forward.y, -forward.x, 0). Yields the zero vector when both
// axes are zero.
func WishDirection(yawDeg float64, moveForward, moveRight int8) vmath.Vec3 {
	rad := yawDeg * math.Pi / 180
	forward := vmath.Vec3{X: -math.Sin(rad), Y: math.Cos(rad), Z: 0}
	right := vmath.Vec3{X: forward.Y, Y: -forward.X, Z: 0}

	move := vmath.Vec3{}
	switch {
	case moveForward > 0:
		move = vmath.Add(move, forward)
	case moveForward < 0:
		move = vmath.Sub(move, forward)
	}
	switch {
	case moveRight > 0:
		move = vmath.Add(move, right)
	case moveRight < 0:
		move = vmath.Sub(move, right)
	}
	if vmath.MagSq(move) > 1e-12 {
		return vmath.Normalize(move)
	}
	return vmath.Vec3{}
}

// Derive builds an Intent from a raw Command, yaw, and ground state.
// Autojump folds a held jump key into JumpRequested while grounded,
// per the autojump_enabled tuning flag.
func Derive(cmd Command, yawDeg float64, grounded, autojumpEnabled bool) Intent {
	jumpRequested := cmd.JumpPressed
	if autojumpEnabled && cmd.JumpHeld && grounded {
		jumpRequested = true
	}
	return Intent{
		WishDir:        WishDirection(yawDeg, cmd.MoveForward, cmd.MoveRight),
		JumpRequested:  jumpRequested,
		SlideRequested: cmd.SlidePressed || cmd.SlideHeld,
	}
}
