// Package physics derives motion coefficients from authored tuning
// invariants and exposes the pure solver operations that consume them.
//
// Tuning holds the numbers a designer edits; MotionConfig holds the
// numbers the controller's hot path reads. The split exists so that
// re-deriving after a tuning change is a single, cheap, total function
// call rather than a partial re-initialization.
package physics

import "math"

// Tuning is the authored, human-editable invariant set. Every field is
// finite by construction: NewDefaultTuning and Clamp both run every
// field through its valid range.
type Tuning struct {
	MaxGroundSpeed float64 `json:"max_ground_speed" toml:"max_ground_speed"` // Vmax, units/s
	RunT90         float64 `json:"run_t90" toml:"run_t90"`                  // seconds to 90% of target run speed
	GroundStopT90  float64 `json:"ground_stop_t90" toml:"ground_stop_t90"`  // seconds to 90% coast-down, no input
	AirSpeedMult   float64 `json:"air_speed_mult" toml:"air_speed_mult"`    // cap multiplier over Vmax in air
	AirGainT90     float64 `json:"air_gain_t90" toml:"air_gain_t90"`        // seconds to 90% air-accel gain

	JumpHeight   float64 `json:"jump_height" toml:"jump_height"`
	JumpApexTime float64 `json:"jump_apex_time" toml:"jump_apex_time"`

	SlideStopT90   float64 `json:"slide_stop_t90" toml:"slide_stop_t90"`
	WallrunSinkT90 float64 `json:"wallrun_sink_t90" toml:"wallrun_sink_t90"`

	GracePeriod   float64 `json:"grace_period" toml:"grace_period"`     // base coyote/jump-buffer window, seconds
	GraceDistance float64 `json:"grace_distance" toml:"grace_distance"` // distance scale for the grace window

	StepHeight        float64 `json:"step_height" toml:"step_height"`
	GroundSnapDist    float64 `json:"ground_snap_dist" toml:"ground_snap_dist"`
	MaxGroundSlopeDeg float64 `json:"max_ground_slope_deg" toml:"max_ground_slope_deg"`
	PlayerRadius      float64 `json:"player_radius" toml:"player_radius"`
	PlayerHalfHeight  float64 `json:"player_half_height" toml:"player_half_height"`

	SurfEnabled    bool    `json:"surf_enabled" toml:"surf_enabled"`
	SurfMinNormalZ float64 `json:"surf_min_normal_z" toml:"surf_min_normal_z"`
	SurfMaxNormalZ float64 `json:"surf_max_normal_z" toml:"surf_max_normal_z"`

	WallrunEnabled           bool    `json:"wallrun_enabled" toml:"wallrun_enabled"`
	WallrunMinEntrySpeedMult float64 `json:"wallrun_min_entry_speed_mult" toml:"wallrun_min_entry_speed_mult"`
	WallrunMinApproachDot    float64 `json:"wallrun_min_approach_dot" toml:"wallrun_min_approach_dot"`
	WallrunMinParallelDot    float64 `json:"wallrun_min_parallel_dot" toml:"wallrun_min_parallel_dot"`

	AutojumpEnabled       bool `json:"autojump_enabled" toml:"autojump_enabled"`
	CoyoteBufferEnabled   bool `json:"coyote_buffer_enabled" toml:"coyote_buffer_enabled"`
	CustomFrictionEnabled bool `json:"custom_friction_enabled" toml:"custom_friction_enabled"`
	SlideEnabled          bool `json:"slide_enabled" toml:"slide_enabled"`

	// MouseSensitivity scales raw look-delta counts into degrees. Not
	// named in the invariant table proper, but required by the
	// determinism harness and every demo's metadata snapshot.
	MouseSensitivity float64 `json:"mouse_sensitivity" toml:"mouse_sensitivity"`
}

// NewDefaultTuning returns a clamped, internally consistent default.
// The run/jump numbers match the flat-ground-run-up scenario; the rest
// are conservative Quake-lineage defaults with no canonical source of
// truth, named here so they can be retuned as a block.
func NewDefaultTuning() Tuning {
	t := Tuning{
		MaxGroundSpeed: 6.6,
		RunT90:         0.18,
		GroundStopT90:  0.12,
		AirSpeedMult:   1.7,
		AirGainT90:     0.9,

		JumpHeight:   1.48,
		JumpApexTime: 0.351,

		SlideStopT90:   1.4,
		WallrunSinkT90: 0.9,

		GracePeriod:   0.12,
		GraceDistance: 1.2,

		StepHeight:        0.35,
		GroundSnapDist:    0.35,
		MaxGroundSlopeDeg: 46,
		PlayerRadius:      0.35,
		PlayerHalfHeight:  0.9,

		SurfEnabled:    true,
		SurfMinNormalZ: 0.25,
		SurfMaxNormalZ: 0.82,

		WallrunEnabled:           true,
		WallrunMinEntrySpeedMult: 0.55,
		WallrunMinApproachDot:    0.15,
		WallrunMinParallelDot:    0.5,

		AutojumpEnabled:       false,
		CoyoteBufferEnabled:   true,
		CustomFrictionEnabled: true,
		SlideEnabled:          true,

		MouseSensitivity: 1.0,
	}
	t.Clamp()
	return t
}

// Clamp forces every field into its valid range in place. Called by
// NewDefaultTuning and by any caller that mutates fields directly
// (autotune apply, backup restore) before the next tick derives a
// MotionConfig from it.
func (t *Tuning) Clamp() {
	t.MaxGroundSpeed = clampMin(t.MaxGroundSpeed, 0.01)
	t.RunT90 = clampMin(t.RunT90, 0)
	t.GroundStopT90 = clampMin(t.GroundStopT90, 0)
	t.AirSpeedMult = clampMin(t.AirSpeedMult, 1.0)
	t.AirGainT90 = clampMin(t.AirGainT90, 0)

	t.JumpHeight = clampMin(t.JumpHeight, 0)
	t.JumpApexTime = clampMin(t.JumpApexTime, minApexTime)

	t.SlideStopT90 = clampMin(t.SlideStopT90, 0)
	t.WallrunSinkT90 = clampMin(t.WallrunSinkT90, 0)

	t.GracePeriod = clampMin(t.GracePeriod, 0)
	t.GraceDistance = clampMin(t.GraceDistance, 0)

	t.StepHeight = clampMin(t.StepHeight, 0)
	t.GroundSnapDist = clampMin(t.GroundSnapDist, 0)
	t.MaxGroundSlopeDeg = vclamp(t.MaxGroundSlopeDeg, 0, 89)
	t.PlayerRadius = clampMin(t.PlayerRadius, 0.05)
	t.PlayerHalfHeight = clampMin(t.PlayerHalfHeight, 0.05)

	t.SurfMinNormalZ = vclamp(t.SurfMinNormalZ, -1, 1)
	t.SurfMaxNormalZ = vclamp(t.SurfMaxNormalZ, -1, 1)
	if t.SurfMinNormalZ > t.SurfMaxNormalZ {
		t.SurfMinNormalZ, t.SurfMaxNormalZ = t.SurfMaxNormalZ, t.SurfMinNormalZ
	}

	t.WallrunMinEntrySpeedMult = clampMin(t.WallrunMinEntrySpeedMult, 0)
	t.WallrunMinApproachDot = vclamp(t.WallrunMinApproachDot, -1, 1)
	t.WallrunMinParallelDot = vclamp(t.WallrunMinParallelDot, -1, 1)

	t.MouseSensitivity = clampMin(t.MouseSensitivity, 0)
}

// minApexTime is the floor jump_apex_time is clamped to before it is
// used as a divisor in gravity derivation.
const minApexTime = 0.05

func clampMin(v, lo float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if math.IsInf(v, 1) {
		return lo
	}
	return v
}

func vclamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
