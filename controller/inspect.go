package controller

import "github.com/ivan-motion/core/vmath"

// The inspectors below are the controller's entire read-only public
// surface for collaborators (telemetry, determinism harness, camera
// observer). None of them mutate state.

func (c *Controller) PositionVec() vmath.Vec3 { return c.Pos }
func (c *Controller) VelocityVec() vmath.Vec3 { return c.Vel }
func (c *Controller) IsGrounded() bool        { return c.Grounded }

// MotionStateName returns the external lowercase state-tag string.
func (c *Controller) MotionStateName() string { return c.State.Name() }

// ContactCount is the number of collision contacts resolved during the
// most recent stepped slide-move.
func (c *Controller) ContactCount() int { return c.contactCount }

func (c *Controller) JumpBufferLeft() float64 { return c.JumpBufferTimer }
func (c *Controller) CoyoteLeft() float64     { return c.CoyoteTimer }

func (c *Controller) LastVelWriteSource() string { return c.lastVelSource.String() }
func (c *Controller) LastVelWriteReason() string { return c.lastVelReason }

// SetNoClip toggles the developer no-clip mode, disabling collision
// queries entirely.
func (c *Controller) SetNoClip(v bool) {
	c.NoClip = v
	if v {
		c.State = StateNoClip
	}
}
