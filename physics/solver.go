package physics

import (
	"math"

	"github.com/ivan-motion/core/vmath"
)

// Solver holds a MotionConfig snapshot and exposes the pure velocity
// operations that are the only code in the system allowed to mutate
// velocity under write-source Solver. Every method takes dt explicitly;
// none reads wall-clock time.
type Solver struct {
	cfg MotionConfig
}

// NewSolver builds a Solver from a tuning snapshot.
func NewSolver(t Tuning) *Solver {
	return &Solver{cfg: Derive(t)}
}

// SyncFromTuning re-derives the solver's config after a tuning edit.
// Callers must invoke this before the next tick if any tuning field
// changed since the last sync.
func (s *Solver) SyncFromTuning(t Tuning) {
	s.cfg = Derive(t)
}

// Config exposes the current derived snapshot, read-only.
func (s *Solver) Config() MotionConfig {
	return s.cfg
}

// ApplyGroundRun blends the horizontal velocity toward wish*(Vmax*speedScale)
// at the tuning-derived run rate. wish must already be a unit (or zero)
// horizontal direction.
func (s *Solver) ApplyGroundRun(vel vmath.Vec3, wish vmath.Vec3, dt, speedScale float64) vmath.Vec3 {
	if s.cfg.RunRate <= 0 {
		return vel
	}
	target := vmath.Scale(wish, s.cfg.MaxGroundSpeed*speedScale)
	alpha := 1 - expNeg(s.cfg.RunRate*dt)
	horiz := vmath.Horizontal(vel)
	newHoriz := vmath.Add(horiz, vmath.Scale(vmath.Sub(target, horiz), alpha))
	return vmath.Vec3{X: newHoriz.X, Y: newHoriz.Y, Z: vel.Z}
}

// ApplyGroundCoastDamping exponentially decays horizontal speed toward
// zero when there is no wish input.
func (s *Solver) ApplyGroundCoastDamping(vel vmath.Vec3, dt float64) vmath.Vec3 {
	if s.cfg.CoastRate <= 0 {
		return vel
	}
	decay := expNeg(s.cfg.CoastRate * dt)
	return vmath.Vec3{X: vel.X * decay, Y: vel.Y * decay, Z: vel.Z}
}

// ApplyAirAccel is the Quake add-speed rule: the component of velocity
// already projected along wish is topped up, never overshot, toward
// wishSpeed.
func (s *Solver) ApplyAirAccel(vel vmath.Vec3, wish vmath.Vec3, dt, wishSpeed, accel float64) vmath.Vec3 {
	cur := vmath.Dot(vel, wish)
	add := wishSpeed - cur
	if add <= 0 {
		return vel
	}
	accelSpeed := accel * dt * wishSpeed
	if accelSpeed > add {
		accelSpeed = add
	}
	return vmath.Add(vel, vmath.Scale(wish, accelSpeed))
}

// ApplyGravity integrates the vertical free-fall term.
func (s *Solver) ApplyGravity(vel vmath.Vec3, dt, scale float64) vmath.Vec3 {
	return vmath.Vec3{X: vel.X, Y: vel.Y, Z: vel.Z - s.cfg.Gravity*scale*dt}
}

// ApplySlideGroundDamping decays a scalar slide speed toward zero at
// the tuning-derived slide rate.
func (s *Solver) ApplySlideGroundDamping(speed, dt float64) float64 {
	if s.cfg.SlideRate <= 0 {
		return speed
	}
	return speed * expNeg(s.cfg.SlideRate*dt)
}

// wallrunSinkSpeed is the small negative vertical speed wallrun sink
// drives toward.
const wallrunSinkSpeed = -1.2

// ApplyWallrunSink drives vertical velocity toward a small negative
// sink speed, only while already falling or motionless vertically —
// a jump mid-wallrun is never damped away.
func (s *Solver) ApplyWallrunSink(vel vmath.Vec3, dt float64) vmath.Vec3 {
	if vel.Z > 0 || s.cfg.WallrunRate <= 0 {
		return vel
	}
	alpha := 1 - expNeg(s.cfg.WallrunRate*dt)
	z := vel.Z + (wallrunSinkSpeed-vel.Z)*alpha
	return vmath.Vec3{X: vel.X, Y: vel.Y, Z: z}
}

func expNeg(x float64) float64 {
	return math.Exp(-x)
}
