// Package camera implements the read-only camera feedback layer: a
// speed-based FOV pulse and a landing/bhop event envelope. It never
// holds a reference to a controller and never mutates sim state — it
// only watches the TickObservation frames the controller hands out.
package camera

import "math"

// Pose is the per-frame camera feedback output.
type Pose struct {
	FOVDeg           float64
	PitchDeg         float64
	RollDeg          float64
	SpeedRatio       float64
	SpeedT           float64
	SpeedFOVAddDeg   float64
	TargetFOVDeg     float64
	EventName        string
	EventQuality     float64
	EventAppliedAmp  float64
	EventBlockedReason string
}

// Observer accumulates landing/bhop event state across ticks and
// produces eased camera poses across frames. Zero value is ready to
// use.
type Observer struct {
	readyFOV       bool
	fovDeg         float64
	eventTarget    float64
	eventEnv       float64
	lastJumpPress  float64
	lastLanding    float64
	eventName      string
	eventQuality   float64
	eventBlocked   string
}

// NewObserver returns an Observer with the event clocks parked far in
// the past so no stale event fires on the first tick.
func NewObserver() *Observer {
	return &Observer{
		fovDeg:        96.0,
		lastJumpPress: -999.0,
		lastLanding:   -999.0,
		eventName:     "none",
		eventBlocked:  "none",
	}
}

// Reset clears event and FOV-settle state; the next Observe call snaps
// the FOV straight to its target. Used between route/replay runs.
func (o *Observer) Reset() {
	o.readyFOV = false
	o.eventTarget = 0
	o.eventEnv = 0
	o.lastJumpPress = -999.0
	o.lastLanding = -999.0
	o.eventName = "none"
	o.eventQuality = 0
	o.eventBlocked = "none"
}

func (o *Observer) triggerEvent(name string, quality float64) {
	q := clamp01(quality)
	if q <= 0 {
		return
	}
	if q > o.eventTarget {
		o.eventTarget = q
	}
	o.eventName = name
	o.eventQuality = q
	o.eventBlocked = "none"
}

// SimTickFrame is the read-only per-tick frame recorded into the
// observer. Mirrors controller.TickObservation plus the fields the
// event logic needs but the controller does not itself track.
type SimTickFrame struct {
	Now             float64
	JumpPressed     bool
	JumpHeld        bool
	AutojumpEnabled bool
	GracePeriod     float64
	MaxGroundSpeed  float64
	PreGrounded     bool
	PostGrounded    bool
	PreVelZ         float64
	PreVelX, PreVelY float64
	PostVelZ        float64
}

// RecordSimTick detects landing and bhop-takeoff events from one tick
// of controller observation and feeds them into the event envelope.
func (o *Observer) RecordSimTick(f SimTickFrame) {
	if f.JumpPressed || (f.AutojumpEnabled && f.JumpHeld && f.PreGrounded) {
		o.lastJumpPress = f.Now
	}

	landing := !f.PreGrounded && f.PostGrounded
	if landing {
		o.lastLanding = f.Now
		impactDown := math.Max(0, -f.PreVelZ)
		impactNorm := clamp01((impactDown - 1.3) / 7.0)
		if impactNorm > 1e-5 {
			o.triggerEvent("landing", impactNorm)
		} else {
			o.eventBlocked = "landing_soft"
		}
	}

	takeoff := f.PreGrounded && !f.PostGrounded && f.PostVelZ > 0.05
	if !takeoff {
		return
	}

	windowS := math.Max(0.045, math.Min(0.35, f.GracePeriod+0.03))
	inputOK := (f.Now - o.lastJumpPress) <= windowS
	if f.AutojumpEnabled && f.JumpHeld {
		inputOK = true
	}
	if !inputOK {
		o.eventBlocked = "bhop_timing"
		return
	}

	preHSpeed := math.Hypot(f.PreVelX, f.PreVelY)
	speedOK := preHSpeed >= math.Max(0.75, f.MaxGroundSpeed*0.35)
	recentLanding := (f.Now - o.lastLanding) <= math.Max(0.035, windowS*1.15)
	if !speedOK && !recentLanding {
		o.eventBlocked = "bhop_speed"
		return
	}

	speedRatio := preHSpeed / math.Max(1e-4, f.MaxGroundSpeed)
	speedQuality := clamp01((speedRatio - 0.35) / 1.8)
	timingAge := math.Max(0, f.Now-o.lastJumpPress)
	timingQuality := clamp01(1.0 - timingAge/math.Max(1e-4, windowS))
	landingBonus := 0.0
	if recentLanding {
		landingBonus = 0.20
	}
	quality := clamp01(0.35 + 0.45*speedQuality + 0.20*timingQuality + landingBonus)
	o.triggerEvent("bhop", quality)
}

// ObserveParams configures one Observe call.
type ObserveParams struct {
	DT                float64
	HorizontalSpeed   float64
	MaxGroundSpeed    float64
	Enabled           bool
	BaseFOVDeg        float64
	SpeedFOVMaxAddDeg float64
	EventGain         float64
	EventAttackMs     float64
	EventReleaseMs    float64
}

// Observe advances the event envelope by dt and returns the eased
// camera pose for this frame. event_attack_ms/event_release_ms of 0
// fall back to the default 55ms/240ms envelope.
func (o *Observer) Observe(p ObserveParams) Pose {
	baseFOV := math.Max(60.0, math.Min(130.0, p.BaseFOVDeg))
	if !p.Enabled {
		o.readyFOV = false
		o.eventTarget = 0
		o.eventEnv = 0
		o.eventName = "none"
		o.eventQuality = 0
		o.eventBlocked = "none"
		return Pose{FOVDeg: baseFOV, TargetFOVDeg: baseFOV, EventName: "none", EventBlockedReason: "none"}
	}

	attackMs := p.EventAttackMs
	if attackMs <= 0 {
		attackMs = 55.0
	}
	releaseMs := p.EventReleaseMs
	if releaseMs <= 0 {
		releaseMs = 240.0
	}

	frameDT := math.Max(0, p.DT)
	if frameDT > 0 {
		releaseTau := math.Max(0.02, releaseMs*0.001)
		o.eventTarget *= math.Exp(-frameDT / releaseTau)

		var alpha float64
		if o.eventTarget >= o.eventEnv {
			attackTau := math.Max(0.01, attackMs*0.001)
			alpha = 1.0 - math.Exp(-frameDT/attackTau)
		} else {
			alpha = 1.0 - math.Exp(-frameDT/releaseTau)
		}
		alpha = clamp01(alpha)
		o.eventEnv += (o.eventTarget - o.eventEnv) * alpha
		if o.eventTarget <= 1e-4 && o.eventEnv <= 1e-4 {
			o.eventName = "none"
			o.eventQuality = 0
		}
	}

	// Speed FOV policy: no widening at/below Vmax, ease-out above it,
	// capped by the configured max gain at 10x Vmax.
	speedRatio := p.HorizontalSpeed / math.Max(1e-4, p.MaxGroundSpeed)
	speedOverT := 0.0
	if speedRatio > 1.0 {
		raw := clamp01((speedRatio - 1.0) / 9.0)
		speedOverT = 1.0 - (1.0-raw)*(1.0-raw)
	}
	speedFOV := math.Max(0, p.SpeedFOVMaxAddDeg) * speedOverT

	eventGain := math.Max(0, p.EventGain)
	eventAmp := eventGain * math.Max(0, o.eventEnv)
	eventFOV := 2.2 * eventAmp
	targetFOV := math.Max(60.0, math.Min(140.0, baseFOV+speedFOV+eventFOV))

	if !o.readyFOV {
		o.fovDeg = targetFOV
		o.readyFOV = true
	} else if frameDT > 0 {
		fovAlpha := clamp01(1.0 - math.Exp(-9.0*frameDT))
		o.fovDeg += (targetFOV - o.fovDeg) * fovAlpha
	}

	eventPitch := -2.4 * eventAmp

	return Pose{
		FOVDeg:             o.fovDeg,
		PitchDeg:           eventPitch,
		RollDeg:            0,
		SpeedRatio:         speedRatio,
		SpeedT:             speedOverT,
		SpeedFOVAddDeg:     speedFOV,
		TargetFOVDeg:       targetFOV,
		EventName:          o.eventName,
		EventQuality:       o.eventQuality,
		EventAppliedAmp:    eventAmp,
		EventBlockedReason: o.eventBlocked,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
