package controller

import (
	"math"

	"github.com/ivan-motion/core/intent"
	"github.com/ivan-motion/core/vmath"
)

func (c *Controller) stepGrounded(in intent.Intent, dt float64) {
	if vmath.MagSq(in.WishDir) > 1e-12 {
		c.setVelocity(c.solver.ApplyGroundRun(c.Vel, in.WishDir, dt, 1.0), SourceSolver, "ground.run")
	} else if c.tuning.CustomFrictionEnabled {
		c.setVelocity(c.solver.ApplyGroundCoastDamping(c.Vel, dt), SourceSolver, "ground.coast")
	}
}

func (c *Controller) stepAirborne(in intent.Intent, dt float64) {
	cfg := c.solver.Config()
	if vmath.MagSq(in.WishDir) > 1e-12 {
		c.setVelocity(c.solver.ApplyAirAccel(c.Vel, in.WishDir, dt, cfg.AirSpeed, cfg.AirAccel), SourceSolver, "air.accel")
	}
	c.setVelocity(c.solver.ApplyGravity(c.Vel, dt, 1.0), SourceSolver, "air.gravity")
}

// consumeJumpRequest matches the grace-window semantics: a press this
// tick always counts; otherwise a still-open jump-buffer window
// (coyote leniency) counts when the tuning flag allows it.
func (c *Controller) consumeJumpRequest() bool {
	if c.jumpEdgeThisTick {
		return true
	}
	if !c.tuning.CoyoteBufferEnabled {
		return false
	}
	return c.JumpBufferTimer > 0
}

func (c *Controller) canCoyoteJump() bool {
	return c.Grounded || c.CoyoteTimer > 0
}

func (c *Controller) applyJump() {
	c.setVerticalVelocity(c.solver.Config().JumpTakeoffSpeed, SourceImpulse, "jump.takeoff")
	c.JumpBufferTimer = 0
	c.Grounded = false
	c.CoyoteTimer = 0
	c.SlideActive = false
}

// --- Slide ---

func (c *Controller) startSlide(yawDeg float64) {
	if !c.Grounded || c.SlideActive {
		return
	}
	hvel := vmath.Horizontal(c.Vel)
	dir := vmath.Normalize(hvel)
	if vmath.MagSq(dir) <= 1e-12 {
		dir = yawForward(yawDeg)
	}
	if vmath.MagSq(dir) <= 1e-12 {
		return
	}
	c.SlideDir = dir
	c.SlideActive = true
	c.SlideGroundGraceTimer = math.Max(c.SlideGroundGraceTimer, slideGraceMinSeconds)
	hspeed := vmath.HorizontalMag(c.Vel)
	c.setHorizontalVelocity(dir.X*hspeed, dir.Y*hspeed, SourceImpulse, "slide.start")
}

func yawForward(yawDeg float64) vmath.Vec3 {
	rad := yawDeg * math.Pi / 180
	return vmath.Vec3{X: -math.Sin(rad), Y: math.Cos(rad), Z: 0}
}

func (c *Controller) stepSlideMode(dt float64, yawDeg float64) {
	if vmath.MagSq(c.SlideDir) <= 1e-12 {
		c.SlideDir = vmath.Normalize(vmath.Horizontal(c.Vel))
	}
	if vmath.MagSq(c.SlideDir) <= 1e-12 {
		c.endSlide()
		return
	}
	c.SlideDir = vmath.Normalize(c.SlideDir)

	// Slide steering is camera-only: keyboard strafing is ignored
	// while slide owns horizontal velocity.
	camDir := yawForward(yawDeg)
	if vmath.MagSq(camDir) > 1e-12 {
		camDir = vmath.Normalize(camDir)
		blend := vmath.Clamp(dt*slideSteerBlendRate, 0, 1)
		out := vmath.Add(vmath.Scale(c.SlideDir, 1-blend), vmath.Scale(camDir, blend))
		if vmath.MagSq(out) > 1e-12 {
			c.SlideDir = vmath.Normalize(out)
		}
	}

	hspeed := vmath.HorizontalMag(c.Vel)
	hspeed = c.solver.ApplySlideGroundDamping(hspeed, dt)
	hspeed = math.Max(0, hspeed+c.slideSlopeSpeedDelta(dt))
	c.setHorizontalVelocity(c.SlideDir.X*hspeed, c.SlideDir.Y*hspeed, SourceSolver, "slide.solve")
	c.setVelocity(c.solver.ApplyGravity(c.Vel, dt, 1.0), SourceSolver, "slide.gravity")

	if hspeed < exitSlideSpeed || (c.SlideGroundGraceTimer <= 0 && !c.Grounded) {
		c.endSlide()
	}
}

// exitSlideSpeed is the horizontal speed below which an active slide
// ends on its own.
const exitSlideSpeed = 0.35

func (c *Controller) endSlide() {
	c.SlideActive = false
	c.SlideDir = vmath.Vec3{}
}

// slideSlopeSpeedDelta adds (or removes) slide speed based on how much
// the ground normal's downhill projection aligns with the current
// slide direction.
func (c *Controller) slideSlopeSpeedDelta(dt float64) float64 {
	if !c.Grounded {
		return 0
	}
	n := vmath.Normalize(c.GroundNormal)
	if vmath.MagSq(n) <= 1e-12 {
		return 0
	}
	gravityDir := vmath.Vec3{Z: -1}
	slopeVec := vmath.Sub(gravityDir, vmath.Scale(n, vmath.Dot(gravityDir, n)))
	slopeH := vmath.Horizontal(slopeVec)
	slopeMag := vmath.Mag(slopeH)
	if slopeMag <= 1e-6 {
		return 0
	}
	slopeH = vmath.Normalize(slopeH)

	slideH := vmath.Horizontal(c.SlideDir)
	if vmath.MagSq(slideH) <= 1e-12 {
		return 0
	}
	slideH = vmath.Normalize(slideH)

	align := vmath.Dot(slideH, slopeH)
	if math.Abs(align) <= 1e-6 {
		return 0
	}
	slopeAccel := c.solver.Config().Gravity * slopeMag * slideSlopeAccelCoefficient
	return slopeAccel * align * math.Max(0, dt)
}

// --- Wallrun ---

func (c *Controller) wallrunEligible(in intent.Intent) bool {
	if !c.tuning.WallrunEnabled || c.Grounded {
		return false
	}
	if c.WallContactAge > wallContactFreshness || vmath.MagSq(c.WallNormal) <= 1e-12 {
		return false
	}
	entrySpeed := vmath.HorizontalMag(c.Vel)
	if entrySpeed < c.tuning.MaxGroundSpeed*c.tuning.WallrunMinEntrySpeedMult {
		return false
	}
	tangent := wallTangent(c.WallNormal)
	if vmath.Dot(in.WishDir, tangent) < c.tuning.WallrunMinParallelDot {
		return false
	}
	approach := -vmath.Dot(vmath.Normalize(vmath.Horizontal(c.Vel)), c.WallNormal)
	return approach >= c.tuning.WallrunMinApproachDot
}

// wallContactFreshness bounds how long a wall contact stays eligible
// for wallrun entry after the sweep that produced it.
const wallContactFreshness = 0.12

func wallTangent(n vmath.Vec3) vmath.Vec3 {
	return vmath.Normalize(vmath.Vec3{X: -n.Y, Y: n.X, Z: 0})
}

func (c *Controller) stepWallrun(in intent.Intent, dt float64) {
	c.setVelocity(c.solver.ApplyWallrunSink(c.Vel, dt), SourceSolver, "wallrun.sink")
	tangent := wallTangent(c.WallNormal)
	speed := vmath.Dot(c.Vel, tangent)
	if vmath.Dot(tangent, in.WishDir) < 0 {
		tangent = vmath.Neg(tangent)
		speed = -speed
	}
	c.setHorizontalVelocity(tangent.X*speed, tangent.Y*speed, SourceSolver, "wallrun.tangent")
}

// --- Surf ---

func (c *Controller) hasSurfSurface() bool {
	return c.tuning.SurfEnabled && c.SurfContactAge <= surfContactFreshnessWindow && vmath.MagSq(c.SurfNormal) > 0.01
}

func (c *Controller) hasRecentSurfContactForPhysics(dt float64) bool {
	if !c.tuning.SurfEnabled || vmath.MagSq(c.SurfNormal) <= 0.01 {
		return false
	}
	return c.SurfContactAge <= math.Max(0, dt*1.25)
}

func (c *Controller) stepSurf(in intent.Intent, dt float64) {
	cfg := c.solver.Config()
	if c.hasRecentSurfContactForPhysics(dt) {
		c.accelerateSurfRedirect(in.WishDir, cfg.AirSpeed, cfg.AirAccel, dt)
		c.redirectSurfInertia(dt)
		// Gravity pulls along the ramp plane only — no extra downforce.
		g := vmath.ProjectOntoPlane(vmath.Vec3{Z: -cfg.Gravity * dt}, c.SurfNormal)
		c.addVelocity(g, SourceSolver, "surf.gravity")
	} else {
		c.setVelocity(c.solver.ApplyGravity(c.Vel, dt, 1.0), SourceSolver, "surf.gravity_falloff")
	}
}

func (c *Controller) accelerateSurfRedirect(wish vmath.Vec3, wishSpeed, accel, dt float64) {
	if vmath.MagSq(wish) <= 0 {
		return
	}
	horizFactor := math.Min(1, vmath.HorizontalMag(wish))
	if horizFactor <= 1e-4 {
		return
	}
	effectiveWishSpeed := wishSpeed * horizFactor
	cur := vmath.Dot(c.Vel, wish)
	add := effectiveWishSpeed - cur
	if add <= 0 {
		return
	}
	accelSpeed := math.Min(accel*dt*effectiveWishSpeed, add)
	if accelSpeed <= 0 {
		return
	}
	delta := vmath.Scale(wish, accelSpeed)

	preH := vmath.Horizontal(c.Vel)
	if vmath.MagSq(preH) > 1e-12 {
		postH := vmath.Horizontal(vmath.Add(preH, delta))
		if vmath.Dot(preH, postH) < 0 {
			preLen := vmath.Mag(preH)
			if preLen > 1e-12 {
				preUnit := vmath.Normalize(preH)
				deltaAlongPre := delta.X*preUnit.X + delta.Y*preUnit.Y
				minDeltaAlongPre := -(preLen * surfRedirectCarryFraction)
				if deltaAlongPre < minDeltaAlongPre {
					correction := minDeltaAlongPre - deltaAlongPre
					delta.X += preUnit.X * correction
					delta.Y += preUnit.Y * correction
				}
			}
		}
	}
	if delta.Z < 0 {
		delta.Z = 0
	}
	c.addVelocity(delta, SourceSolver, "surf.redirect")
}

func (c *Controller) redirectSurfInertia(dt float64) {
	horiz := vmath.Horizontal(c.Vel)
	horizSpeed := vmath.Mag(horiz)
	if horizSpeed <= 1e-6 {
		return
	}
	tangent := vmath.ProjectOntoPlane(horiz, c.SurfNormal)
	if vmath.MagSq(tangent) <= 1e-12 {
		return
	}
	tangent = vmath.Normalize(tangent)
	desired := vmath.Scale(tangent, horizSpeed)
	blend := vmath.Clamp(surfRedirectBlendRate*dt, 0, 1)
	c.addVelocity(vmath.Scale(vmath.Sub(desired, horiz), blend), SourceSolver, "surf.inertia")
}
