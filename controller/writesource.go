package controller

import "github.com/ivan-motion/core/vmath"

// These four helpers are the only code allowed to mutate Vel. Every
// call site names a WriteSource and a short reason string, satisfying
// the write-source coverage invariant: after any tick in which Vel
// changed, LastVelWriteSource/LastVelWriteReason name the cause.

func (c *Controller) setVelocity(v vmath.Vec3, source WriteSource, reason string) {
	c.Vel = v
	c.recordVelocityWrite(source, reason)
}

func (c *Controller) setHorizontalVelocity(x, y float64, source WriteSource, reason string) {
	c.Vel.X = x
	c.Vel.Y = y
	c.recordVelocityWrite(source, reason)
}

func (c *Controller) setVerticalVelocity(z float64, source WriteSource, reason string) {
	c.Vel.Z = z
	c.recordVelocityWrite(source, reason)
}

func (c *Controller) addVelocity(delta vmath.Vec3, source WriteSource, reason string) {
	c.Vel = vmath.Add(c.Vel, delta)
	c.recordVelocityWrite(source, reason)
}

func (c *Controller) recordVelocityWrite(source WriteSource, reason string) {
	c.lastVelSource = source
	c.lastVelReason = reason
}

// SetExternalVelocity is the privileged mutation path for transports
// (e.g. replay seeding, networked correction) — always stamped with
// write-source External.
func (c *Controller) SetExternalVelocity(v vmath.Vec3, reason string) {
	c.setVelocity(v, SourceExternal, reason)
}
