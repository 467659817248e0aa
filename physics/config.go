package physics

import "math"

// MotionConfig is a derived, immutable snapshot computed from a Tuning.
// Nothing in the solver's hot path reads Tuning directly — every rate
// and speed it needs is already closed-form here.
type MotionConfig struct {
	Gravity           float64
	JumpTakeoffSpeed  float64

	RunRate    float64 // k for ground-run response
	CoastRate  float64 // k for ground coast-down
	SlideRate  float64 // k for slide speed decay
	WallrunRate float64 // k for wallrun vertical sink
	AirGainRate float64 // k for air-accel gain curve

	AirSpeed float64 // Vmax * air_speed_mult
	AirAccel float64 // Quake-family add-speed accel

	GracePeriod   float64
	GraceDistance float64
	MaxGroundSpeed float64
}

// expRate turns a T90 (seconds to 90% response) into the exponential
// rate k such that 1 - exp(-k*T90) == 0.9. A non-positive T90 yields a
// rate of 0: "instant" is modeled as no response in solver contexts,
// per the derivation's own edge-case rule.
func expRate(t90 float64) float64 {
	if t90 <= 0 {
		return 0
	}
	return math.Log(10) / t90
}

// Derive computes a MotionConfig from a Tuning. Pure, total,
// deterministic — safe to call every tick or only after a tuning edit.
func Derive(t Tuning) MotionConfig {
	apex := t.JumpApexTime
	if apex < minApexTime {
		apex = minApexTime
	}
	gravity := 2 * t.JumpHeight / (apex * apex)
	takeoff := math.Sqrt(2 * gravity * t.JumpHeight)

	airSpeed := t.MaxGroundSpeed * t.AirSpeedMult
	airGainRate := expRate(t.AirGainT90)

	return MotionConfig{
		Gravity:          gravity,
		JumpTakeoffSpeed: takeoff,

		RunRate:     expRate(t.RunT90),
		CoastRate:   expRate(t.GroundStopT90),
		SlideRate:   expRate(t.SlideStopT90),
		WallrunRate: expRate(t.WallrunSinkT90),
		AirGainRate: airGainRate,

		AirSpeed: airSpeed,
		AirAccel: airGainRate * airSpeed,

		GracePeriod:    t.GracePeriod,
		GraceDistance:  t.GraceDistance,
		MaxGroundSpeed: t.MaxGroundSpeed,
	}
}

// GraceTimeForSpeed returns the distance-scaled coyote/jump-buffer
// window: the time to cover GraceDistance at the current horizontal
// speed (floored at 0.35x Vmax), clamped between the base time and
// 2.2x the base. Slower movement stretches the window toward 2.2x;
// faster movement shrinks it toward the base. This makes leniency
// scale with how far the player has traveled, not wall-clock time
// alone.
func (c MotionConfig) GraceTimeForSpeed(hspeed float64) float64 {
	base := c.GracePeriod
	speed := math.Max(0.35*c.MaxGroundSpeed, math.Abs(hspeed))
	if speed <= 0 {
		return base
	}
	distT := c.GraceDistance / speed
	return math.Max(base, math.Min(2.2*base, distT))
}
