package camera

import "testing"

func TestLandingEventQualityFromImpactSpeed(t *testing.T) {
	o := NewObserver()
	o.RecordSimTick(SimTickFrame{
		Now:            1.0,
		PreGrounded:    false,
		PostGrounded:   true,
		PreVelZ:        -8.3,
		MaxGroundSpeed: 6.6,
	})
	pose := o.Observe(ObserveParams{
		DT: 1.0 / 60.0, HorizontalSpeed: 0, MaxGroundSpeed: 6.6, Enabled: true,
		BaseFOVDeg: 96, SpeedFOVMaxAddDeg: 18, EventGain: 1.0,
	})
	if pose.EventName != "landing" {
		t.Fatalf("EventName = %q, want landing", pose.EventName)
	}
	if pose.EventAppliedAmp <= 0 {
		t.Fatalf("EventAppliedAmp = %v, want > 0", pose.EventAppliedAmp)
	}
}

func TestSoftLandingBlocked(t *testing.T) {
	o := NewObserver()
	o.RecordSimTick(SimTickFrame{
		Now: 1.0, PreGrounded: false, PostGrounded: true,
		PreVelZ: -1.0, MaxGroundSpeed: 6.6,
	})
	pose := o.Observe(ObserveParams{DT: 1.0 / 60.0, MaxGroundSpeed: 6.6, Enabled: true, BaseFOVDeg: 96, SpeedFOVMaxAddDeg: 18, EventGain: 1.0})
	if pose.EventName != "none" {
		t.Fatalf("EventName = %q, want none for soft landing", pose.EventName)
	}
}

func TestBhopTakeoffWithinWindowProducesQuality(t *testing.T) {
	o := NewObserver()
	o.RecordSimTick(SimTickFrame{
		Now: 1.000, JumpPressed: true, GracePeriod: 0.12, MaxGroundSpeed: 6.6,
		PreGrounded: true, PostGrounded: true,
	})
	o.RecordSimTick(SimTickFrame{
		Now: 1.016, GracePeriod: 0.12, MaxGroundSpeed: 6.6,
		PreGrounded: true, PostGrounded: false, PreVelX: 6.0, PreVelY: 0, PostVelZ: 3.0,
	})
	pose := o.Observe(ObserveParams{DT: 1.0 / 60.0, MaxGroundSpeed: 6.6, Enabled: true, BaseFOVDeg: 96, SpeedFOVMaxAddDeg: 18, EventGain: 1.0})
	if pose.EventName != "bhop" {
		t.Fatalf("EventName = %q, want bhop", pose.EventName)
	}
	if pose.EventQuality <= 0.35 || pose.EventQuality > 1.0 {
		t.Fatalf("EventQuality = %v, want in (0.35, 1.0]", pose.EventQuality)
	}
}

func TestBhopTakeoffOutsideWindowBlocked(t *testing.T) {
	o := NewObserver()
	o.RecordSimTick(SimTickFrame{
		Now: 1.0, JumpPressed: true, GracePeriod: 0.12, MaxGroundSpeed: 6.6,
		PreGrounded: true, PostGrounded: true,
	})
	o.RecordSimTick(SimTickFrame{
		Now: 1.5, GracePeriod: 0.12, MaxGroundSpeed: 6.6,
		PreGrounded: true, PostGrounded: false, PreVelX: 6.0, PostVelZ: 3.0,
	})
	pose := o.Observe(ObserveParams{DT: 1.0 / 60.0, MaxGroundSpeed: 6.6, Enabled: true, BaseFOVDeg: 96, SpeedFOVMaxAddDeg: 18, EventGain: 1.0})
	if pose.EventName != "none" {
		t.Fatalf("EventName = %q, want none (timing missed)", pose.EventName)
	}
}

func TestSpeedFOVNoWideningAtOrBelowVmax(t *testing.T) {
	o := NewObserver()
	pose := o.Observe(ObserveParams{DT: 1.0 / 60.0, HorizontalSpeed: 6.6, MaxGroundSpeed: 6.6, Enabled: true, BaseFOVDeg: 96, SpeedFOVMaxAddDeg: 18, EventGain: 1.0})
	if pose.SpeedFOVAddDeg != 0 {
		t.Fatalf("SpeedFOVAddDeg = %v, want 0 at Vmax", pose.SpeedFOVAddDeg)
	}

	o2 := NewObserver()
	pose2 := o2.Observe(ObserveParams{DT: 1.0 / 60.0, HorizontalSpeed: 66.0, MaxGroundSpeed: 6.6, Enabled: true, BaseFOVDeg: 96, SpeedFOVMaxAddDeg: 18, EventGain: 1.0})
	if pose2.SpeedFOVAddDeg < 17.9 {
		t.Fatalf("SpeedFOVAddDeg at 10x Vmax = %v, want ~= max add (18)", pose2.SpeedFOVAddDeg)
	}
}

func TestDisabledReturnsBaseFOV(t *testing.T) {
	o := NewObserver()
	pose := o.Observe(ObserveParams{DT: 1.0 / 60.0, HorizontalSpeed: 50, MaxGroundSpeed: 6.6, Enabled: false, BaseFOVDeg: 90, SpeedFOVMaxAddDeg: 18, EventGain: 1.0})
	if pose.FOVDeg != 90 {
		t.Fatalf("FOVDeg = %v, want base 90 when disabled", pose.FOVDeg)
	}
}
