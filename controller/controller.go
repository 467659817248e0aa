// Package controller implements the player motion state machine: the
// kinematic core that holds position/velocity, runs the per-tick
// solver pass, performs stepped slide-move collision, and enforces
// write-source discipline on every velocity mutation.
//
// This collapses the mixin split of the system it is ported from
// (kinematics / collision / surf) into one struct with orthogonal
// method groups across files — per-tick orchestration lives in one
// Step function, never a generic state-machine framework.
package controller

import (
	"math"

	"github.com/ivan-motion/core/collision"
	"github.com/ivan-motion/core/intent"
	"github.com/ivan-motion/core/physics"
	"github.com/ivan-motion/core/vmath"
)

// Controller is the kinematic character controller. Zero value is not
// useful; build with New.
type Controller struct {
	tuning   physics.Tuning
	solver   *physics.Solver
	collider collision.Collider

	Pos          vmath.Vec3
	Vel          vmath.Vec3
	Grounded     bool
	GroundNormal vmath.Vec3

	WallNormal       vmath.Vec3
	WallContactPoint vmath.Vec3
	WallContactAge   float64

	SurfNormal     vmath.Vec3
	SurfContactAge float64

	SlideActive           bool
	SlideDir              vmath.Vec3
	SlideGroundGraceTimer float64

	JumpBufferTimer float64
	CoyoteTimer     float64

	State MotionState
	NoClip bool

	lastVelSource WriteSource
	lastVelReason string
	contactCount  int

	jumpEdgeThisTick bool
}

// New builds a Controller at spawn with the given tuning and collider.
// The collider may be nil (e.g. pure solver unit tests): every sweep
// against a nil collider reports a miss, and the multi-probe ground
// and wall searches return no contact.
func New(t physics.Tuning, spawn vmath.Vec3, collider collision.Collider) *Controller {
	return &Controller{
		tuning:           t,
		solver:           physics.NewSolver(t),
		collider:         collider,
		Pos:              spawn,
		State:            StateAirborne,
		WallContactAge:   math.Inf(1),
		SurfContactAge:   math.Inf(1),
	}
}

// SyncTuning re-derives the solver config after a tuning edit. Callers
// must invoke this between ticks whenever tuning fields change —
// mutation mid-tick is never valid.
func (c *Controller) SyncTuning(t physics.Tuning) {
	c.tuning = t
	c.solver.SyncFromTuning(t)
}

// TickObservation is the read-only per-tick frame handed to the camera
// feedback observer. It never aliases controller-owned vectors.
type TickObservation struct {
	JumpPressed, JumpHeld       bool
	PreGrounded, PostGrounded   bool
	PreVel, PostVel             vmath.Vec3
	MaxGroundSpeed              float64
}

// Step advances the controller by one fixed tick. This is the entire
// per-tick sequence described by the motion system: ingest intent,
// pre-move ground probe, solver pass, jump consumption, stepped
// slide-move, post-move ground snap, and the observer frame.
func (c *Controller) Step(dt float64, in intent.Intent, yawDeg, pitchDeg float64, cmdJumpHeld bool) TickObservation {
	if c.NoClip {
		return c.stepNoClip(dt, in)
	}

	preGrounded := c.Grounded
	preVel := c.Vel

	// 1. Ingest intent: jump-buffer timer.
	c.jumpEdgeThisTick = in.JumpRequested
	if in.JumpRequested {
		hspeed := vmath.HorizontalMag(c.Vel)
		c.JumpBufferTimer = c.solver.Config().GraceTimeForSpeed(hspeed)
	} else {
		c.JumpBufferTimer = math.Max(0, c.JumpBufferTimer-dt)
	}
	if c.Grounded {
		c.CoyoteTimer = c.solver.Config().GraceTimeForSpeed(vmath.HorizontalMag(c.Vel))
	} else {
		c.CoyoteTimer = math.Max(0, c.CoyoteTimer-dt)
	}

	c.WallContactAge += dt
	c.SurfContactAge += dt

	if in.SlideRequested && c.Grounded && !c.SlideActive && c.tuning.SlideEnabled {
		c.startSlide(yawDeg)
	} else if !in.SlideRequested && c.SlideActive {
		c.SlideGroundGraceTimer = math.Max(0, c.SlideGroundGraceTimer-dt)
	}

	// 2. Pre-move probe.
	c.groundTrace()
	if !c.Grounded {
		if n, p, ok := c.probeNearbyWall(); ok {
			c.setWallContact(n, p)
		}
	}

	// Resolve the motion-state tag from the freshly probed booleans.
	c.resolveState(in, yawDeg)

	// 3. Apply solver based on state.
	switch c.State {
	case StateGrounded:
		c.stepGrounded(in, dt)
	case StateAirborne:
		c.stepAirborne(in, dt)
	case StateSliding:
		c.stepSlideMode(dt, yawDeg)
	case StateWallrunning:
		c.stepWallrun(in, dt)
	case StateSurfing:
		c.stepSurf(in, dt)
	}

	// 4. Consume jump.
	if c.consumeJumpRequest() && c.canCoyoteJump() {
		c.applyJump()
	}

	// 5. Integrate and collide.
	c.contactCount = 0
	c.stepMove(vmath.Scale(c.Vel, dt))

	// 6. Post-move ground snap.
	if c.Vel.Z <= 0 {
		c.groundSnap()
	}

	return TickObservation{
		JumpPressed:     c.jumpEdgeThisTick,
		JumpHeld:        cmdJumpHeld,
		PreGrounded:     preGrounded,
		PostGrounded:    c.Grounded,
		PreVel:          preVel,
		PostVel:         c.Vel,
		MaxGroundSpeed:  c.tuning.MaxGroundSpeed,
	}
}

func (c *Controller) stepNoClip(dt float64, in intent.Intent) TickObservation {
	preVel := c.Vel
	preGrounded := c.Grounded
	c.Grounded = false
	speed := c.tuning.MaxGroundSpeed * c.tuning.AirSpeedMult
	c.Pos = vmath.Add(c.Pos, vmath.Scale(in.WishDir, speed*dt))
	return TickObservation{PreGrounded: preGrounded, PostGrounded: false, PreVel: preVel, PostVel: c.Vel, MaxGroundSpeed: c.tuning.MaxGroundSpeed}
}

// resolveState derives the single motion-state tag for this tick from
// the freshly probed contact booleans, in a fixed priority order:
// sliding (owns horizontal velocity once active) > wallrunning (if
// entry criteria still hold) > surfing (fresh ramp contact) > grounded
// > airborne.
func (c *Controller) resolveState(in intent.Intent, yawDeg float64) {
	switch {
	case c.SlideActive:
		c.State = StateSliding
	case c.wallrunEligible(in):
		c.State = StateWallrunning
	case c.hasSurfSurface():
		c.State = StateSurfing
	case c.Grounded:
		c.State = StateGrounded
	default:
		c.State = StateAirborne
	}
}
