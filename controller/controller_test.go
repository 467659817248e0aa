package controller

import (
	"testing"

	"github.com/ivan-motion/core/collision"
	"github.com/ivan-motion/core/intent"
	"github.com/ivan-motion/core/physics"
	"github.com/ivan-motion/core/vmath"
)

func flatGroundWorld(t physics.Tuning) *collision.AABBWorld {
	w := collision.NewAABBWorld(t.PlayerRadius, t.PlayerHalfHeight)
	w.Add(collision.Box{Min: vmath.Vec3{X: -50, Y: -50, Z: -10}, Max: vmath.Vec3{X: 50, Y: 50, Z: 0}})
	return w
}

func TestFlatGroundRunUp(t *testing.T) {
	tn := physics.NewDefaultTuning()
	world := flatGroundWorld(tn)
	spawn := vmath.Vec3{Z: tn.PlayerHalfHeight + 0.01}
	ctrl := New(tn, spawn, world)

	dt := 1.0 / 60.0
	in := intent.Intent{WishDir: vmath.Vec3{Y: 1}}
	for i := 0; i < 30; i++ {
		ctrl.Step(dt, in, 0, 0, false)
	}
	hspeed := vmath.HorizontalMag(ctrl.Vel)
	if hspeed < 6.5 {
		t.Fatalf("hspeed at tick 30 = %v, want >= 6.5", hspeed)
	}
}

func TestAirStrafeGainCapped(t *testing.T) {
	tn := physics.NewDefaultTuning()
	solver := physics.NewSolver(tn)
	wishSpeed := tn.MaxGroundSpeed * tn.AirSpeedMult
	accel := solver.Config().AirAccel

	vel := vmath.Vec3{X: 6, Y: 0, Z: 0}
	wish := vmath.Vec3{X: 1, Y: 0, Z: 0}
	prevProj := vmath.Dot(vel, wish)
	for i := 0; i < 10; i++ {
		vel = solver.ApplyAirAccel(vel, wish, 1.0/60.0, wishSpeed, accel)
		proj := vmath.Dot(vel, wish)
		if proj > wishSpeed+1e-9 {
			t.Fatalf("tick %d: projected speed %v exceeds cap %v", i, proj, wishSpeed)
		}
		if proj < prevProj-1e-9 {
			t.Fatalf("tick %d: projected speed decreased: %v -> %v", i, prevProj, proj)
		}
		prevProj = proj
	}
}

func TestWallClipPreservesJump(t *testing.T) {
	vel := vmath.Vec3{X: 3, Y: 0, Z: 7}
	normal := vmath.Normalize(vmath.Vec3{X: -0.7, Y: 0, Z: 0.2})

	tn := physics.NewDefaultTuning()
	ctrl := New(tn, vmath.Vec3{}, nil)
	ctrl.Vel = vel
	ctrl.Grounded = false

	clipN := ctrl.chooseClipNormal(normal)
	out := clipVelocity(ctrl.Vel, clipN, 1.0)

	if out.Z != 7 {
		t.Fatalf("post-clip vel.Z = %v, want exactly 7", out.Z)
	}
	if vmath.Dot(out, vmath.Horizontal(normal)) > 1e-9 {
		t.Fatalf("post-clip velocity still has component into the wall: %v", out)
	}
}

func TestWriteSourceRecordedOnImpulse(t *testing.T) {
	tn := physics.NewDefaultTuning()
	world := flatGroundWorld(tn)
	spawn := vmath.Vec3{Z: tn.PlayerHalfHeight + 0.01}
	ctrl := New(tn, spawn, world)

	ctrl.Step(1.0/60.0, intent.Intent{}, 0, 0, false)
	ctrl.applyJump()
	if ctrl.LastVelWriteSource() != "impulse" {
		t.Fatalf("LastVelWriteSource() = %q, want %q", ctrl.LastVelWriteSource(), "impulse")
	}
}

func TestJumpTakeoffSpeed(t *testing.T) {
	tn := physics.NewDefaultTuning()
	cfg := physics.Derive(tn)
	world := flatGroundWorld(tn)
	spawn := vmath.Vec3{Z: tn.PlayerHalfHeight + 0.01}
	ctrl := New(tn, spawn, world)

	ctrl.Step(1.0/60.0, intent.Intent{}, 0, 0, false) // settle onto ground
	ctrl.applyJump()
	if ctrl.Vel.Z != cfg.JumpTakeoffSpeed {
		t.Fatalf("vel.Z after jump = %v, want %v", ctrl.Vel.Z, cfg.JumpTakeoffSpeed)
	}
}
