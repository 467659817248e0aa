package controller

import (
	"math"

	"github.com/ivan-motion/core/collision"
	"github.com/ivan-motion/core/vmath"
)

// walkableThresholdZ converts a max-slope angle into the normal-Z
// cutoff used to classify floor vs wall/ceiling contacts.
func walkableThresholdZ(maxSlopeDeg float64) float64 {
	return math.Cos(maxSlopeDeg * math.Pi / 180)
}

func (c *Controller) isWalkableGroundNormal(n vmath.Vec3, walkableZ float64) bool {
	if vmath.MagSq(n) <= 1e-12 {
		return false
	}
	n = vmath.Normalize(n)
	if c.isSurfNormal(n) {
		return false
	}
	return n.Z > walkableZ
}

func (c *Controller) isSurfNormal(n vmath.Vec3) bool {
	if !c.tuning.SurfEnabled {
		return false
	}
	if vmath.MagSq(n) <= 1e-12 {
		return false
	}
	n = vmath.Normalize(n)
	minZ := vmath.Clamp(c.tuning.SurfMinNormalZ, 0.01, 0.95)
	maxZ := math.Max(minZ, vmath.Clamp(c.tuning.SurfMaxNormalZ, minZ, 0.98))
	return n.Z >= minZ && n.Z <= maxZ
}

// isGroundContactPointValid rejects downward-sweep hits that land too
// far from the capsule's foot disk, or that are near-level side grazes
// against decorative ledges — see DESIGN.md for the constant sources.
func (c *Controller) isGroundContactPointValid(hitPos vmath.Vec3, hasPos bool, startPos vmath.Vec3) bool {
	if !hasPos {
		return true
	}
	dx := hitPos.X - startPos.X
	dy := hitPos.Y - startPos.Y
	radius := c.tuning.PlayerRadius
	maxXY := math.Max(groundContactMaxXYFloor, radius*groundContactMaxXYScale)
	if dx*dx+dy*dy > maxXY*maxXY {
		return false
	}
	drop := startPos.Z - hitPos.Z
	if drop < -1e-4 {
		return false
	}
	minDrop := math.Max(0, math.Min(groundContactMinDropCap, c.tuning.StepHeight*groundContactMinDropScale))
	if drop < minDrop {
		centerXY := math.Max(groundContactCenterXYFloor, radius*groundContactCenterXYScale)
		if dx*dx+dy*dy > centerXY*centerXY {
			return false
		}
	}
	cdx := hitPos.X - c.Pos.X
	cdy := hitPos.Y - c.Pos.Y
	supportR := math.Max(groundContactSupportFloor, radius*groundContactSupportScale)
	return cdx*cdx+cdy*cdy <= supportR*supportR
}

// groundProbeOffsets is the 9-point footprint (center, 4 cardinal, 4
// diagonal) used to disambiguate ambiguous ground contacts.
func (c *Controller) groundProbeOffsets() [9]vmath.Vec3 {
	r := math.Max(groundProbeRadiusFloor, c.tuning.PlayerRadius*groundProbeRadiusScale)
	d := r * groundProbeOffsetScale
	return [9]vmath.Vec3{
		{},
		{X: r}, {X: -r},
		{Y: r}, {Y: -r},
		{X: d, Y: d}, {X: d, Y: -d}, {X: -d, Y: d}, {X: -d, Y: -d},
	}
}

func (c *Controller) groundProbeLiftDistance() float64 {
	stepH := math.Max(0, c.tuning.StepHeight)
	return math.Max(groundProbeLiftFloor, math.Min(groundProbeLiftCap, stepH*groundProbeLiftScale))
}

// findWalkableGroundContact re-probes from the 9-point footprint, at
// zero lift and at a lifted offset, taking the walkable hit with the
// smallest drop.
func (c *Controller) findWalkableGroundContact(down vmath.Vec3, walkableZ float64) (vmath.Vec3, float64, bool) {
	if c.collider == nil {
		return vmath.Vec3{}, 0, false
	}
	baseDropLimit := math.Max(1e-6, math.Abs(down.Z))
	var bestNormal vmath.Vec3
	bestDrop := math.Inf(1)
	found := false

	for _, lift := range [2]float64{0, c.groundProbeLiftDistance()} {
		queryDown := vmath.Vec3{X: down.X, Y: down.Y, Z: down.Z - lift}
		queryLen := math.Abs(queryDown.Z)
		if queryLen <= 1e-8 {
			continue
		}
		for _, off := range c.groundProbeOffsets() {
			start := vmath.Add(c.Pos, off)
			if lift > 0 {
				start.Z += lift
			}
			hit := c.sweep(start, vmath.Add(start, queryDown))
			if !hit.HasHit {
				continue
			}
			n := vmath.Normalize(hit.Normal)
			if !c.isWalkableGroundNormal(n, walkableZ) {
				continue
			}
			if !c.isGroundContactPointValid(hit.Position, hit.HasPosition, start) {
				continue
			}
			frac := vmath.Clamp(hit.Fraction, 0, 1)
			drop := math.Max(0, queryLen*frac-lift)
			if drop > baseDropLimit+1e-5 {
				continue
			}
			if drop < bestDrop {
				bestDrop = drop
				bestNormal = n
				found = true
			}
		}
	}
	return bestNormal, bestDrop, found
}

// walkableGroundThreshold applies hysteresis while already grounded or
// sliding, to kill one-tick floor flicker on noisy slope contacts.
func (c *Controller) walkableGroundThreshold() float64 {
	threshold := walkableThresholdZ(c.tuning.MaxGroundSlopeDeg)
	if c.Grounded || c.SlideActive {
		return math.Max(walkableHysteresisMin, threshold-walkableHysteresis)
	}
	return threshold
}

func (c *Controller) groundedMotionActive() bool {
	return c.Grounded || c.SlideActive
}

func (c *Controller) groundProbeDistance(forSnap bool) float64 {
	floor := 0.0
	if !forSnap {
		floor = 0.06
	}
	base := math.Max(floor, c.tuning.GroundSnapDist)
	stepH := math.Max(0, c.tuning.StepHeight)
	if forSnap {
		if c.groundedMotionActive() {
			return math.Max(base, math.Min(groundSnapDescendCap, stepH+base))
		}
		return math.Max(base, math.Min(groundSnapAirborneCap, stepH*0.50+base))
	}
	if c.groundedMotionActive() {
		return math.Max(base, math.Min(groundSnapDescendCap, math.Max(base, stepH*groundSnapStepScale)))
	}
	return math.Max(base, math.Min(groundSnapAirborneCap, math.Max(base, stepH*groundSnapAirborneScale)))
}

func (c *Controller) sweep(from, to vmath.Vec3) collision.Hit {
	if c.collider == nil {
		return collision.NoHit
	}
	return collision.SanitizeHit(c.collider.SweepClosest(from, to))
}

// clipVelocity is the Quake-style clip against a collision plane.
func clipVelocity(v, n vmath.Vec3, overbounce float64) vmath.Vec3 {
	if vmath.MagSq(n) > 1e-12 {
		n = vmath.Normalize(n)
	}
	backoff := vmath.Dot(v, n)
	if backoff < 0 {
		backoff *= overbounce
	} else {
		backoff /= overbounce
	}
	out := vmath.Sub(v, vmath.Scale(n, backoff))
	if math.Abs(out.X) < epsVelocity {
		out.X = 0
	}
	if math.Abs(out.Y) < epsVelocity {
		out.Y = 0
	}
	if math.Abs(out.Z) < epsVelocity {
		out.Z = 0
	}
	return out
}

// chooseClipNormal preserves upward jump velocity against mostly
// vertical walls/corners by clipping against the horizontal projection
// of the normal instead of the normal itself.
func (c *Controller) chooseClipNormal(n vmath.Vec3) vmath.Vec3 {
	if vmath.MagSq(n) > 1e-12 {
		n = vmath.Normalize(n)
	}
	if !c.Grounded && c.Vel.Z > 0 && math.Abs(n.Z) < wallClipHorizontalMax && n.Z > wallClipHorizontalMin {
		wallN := vmath.Horizontal(n)
		if vmath.MagSq(wallN) > 1e-12 {
			return vmath.Normalize(wallN)
		}
	}
	return n
}

// groundTrace is the pre-move ground probe (step 2): classifies
// Grounded + latches GroundNormal, falling back to the disambiguating
// multi-probe search, and recording a surf contact if the raw hit is a
// surf-range normal instead of walkable floor.
func (c *Controller) groundTrace() {
	walkableZ := c.walkableGroundThreshold()
	down := vmath.Vec3{Z: -c.groundProbeDistance(false)}
	hit := c.sweep(c.Pos, vmath.Add(c.Pos, down))
	if !hit.HasHit {
		if n, _, ok := c.findWalkableGroundContact(down, walkableZ); ok {
			c.GroundNormal = n
			c.Grounded = true
			return
		}
		c.Grounded = false
		return
	}

	n := vmath.Normalize(hit.Normal)
	if c.isWalkableGroundNormal(n, walkableZ) && c.isGroundContactPointValid(hit.Position, hit.HasPosition, c.Pos) {
		c.GroundNormal = n
		c.Grounded = true
		return
	}
	surfContact := c.isSurfNormal(n)
	if surfContact {
		c.setSurfContact(n)
	}
	if gn, _, ok := c.findWalkableGroundContact(down, walkableZ); ok {
		c.GroundNormal = gn
		c.Grounded = true
		return
	}
	if surfContact {
		c.Grounded = false
		return
	}
	c.GroundNormal = n
	c.Grounded = false
}

// stepMove runs the stepped slide-move (step 5): up to
// slideMoveIterations of sweep/move/clip, then — while grounded — a
// competing step-up attempt, keeping whichever made more progress
// along the intended direction.
func (c *Controller) stepMove(delta vmath.Vec3) {
	if vmath.MagSq(delta) <= 1e-12 {
		return
	}
	if !c.Grounded {
		c.slideMove(delta)
		return
	}

	startPos := c.Pos
	startVel := c.Vel
	startGrounded := c.Grounded

	c.slideMove(delta)
	pos1, vel1, grounded1 := c.Pos, c.Vel, c.Grounded

	c.Pos = startPos
	c.setVelocity(startVel, SourceCollision, "stepslide.reset_second_try")
	c.Grounded = startGrounded

	stepUp := vmath.Vec3{Z: c.tuning.StepHeight}
	hitUp := c.sweep(c.Pos, vmath.Add(c.Pos, stepUp))
	if hitUp.HasHit {
		frac := math.Max(0, hitUp.Fraction-1e-4)
		c.Pos = vmath.Add(c.Pos, vmath.Scale(stepUp, frac))
	} else {
		c.Pos = vmath.Add(c.Pos, stepUp)
	}
	if c.Pos.Z-startPos.Z > 1e-6 {
		horiz := vmath.Horizontal(delta)
		c.slideMove(horiz)

		stepDown := vmath.Vec3{Z: -c.tuning.StepHeight - 0.01}
		hitDown := c.sweep(c.Pos, vmath.Add(c.Pos, stepDown))
		if hitDown.HasHit {
			frac := math.Max(0, hitDown.Fraction-1e-4)
			c.Pos = vmath.Add(c.Pos, vmath.Scale(stepDown, frac))
		}
	}
	pos2, vel2, grounded2 := c.Pos, c.Vel, c.Grounded

	d1 := vmath.Sub(pos1, startPos)
	d2 := vmath.Sub(pos2, startPos)
	dist1 := d1.X*d1.X + d1.Y*d1.Y
	dist2 := d2.X*d2.X + d2.Y*d2.Y
	choosePlain := true
	inDir := vmath.Horizontal(delta)
	if vmath.MagSq(inDir) > 1e-12 {
		inDir = vmath.Normalize(inDir)
		p1 := vmath.Dot(d1, inDir)
		p2 := vmath.Dot(d2, inDir)
		const eps = 1e-6
		switch {
		case p2 > p1+eps:
			choosePlain = false
		case p1 > p2+eps:
			choosePlain = true
		case dist2 > dist1+eps:
			choosePlain = false
		case dist1 > dist2+eps:
			choosePlain = true
		default:
			choosePlain = !(grounded2 && !grounded1)
		}
	} else if dist2 > dist1 {
		choosePlain = false
	}

	if choosePlain {
		c.Pos = pos1
		c.setVelocity(vel1, SourceCollision, "stepslide.choose_plain")
		c.Grounded = grounded1
	} else {
		c.Pos = pos2
		c.setVelocity(vel2, SourceCollision, "stepslide.choose_step")
		c.Grounded = grounded2
	}
}

func (c *Controller) slideMove(delta vmath.Vec3) {
	if vmath.MagSq(delta) <= 1e-12 {
		return
	}
	pos := c.Pos
	remaining := delta
	var planes []vmath.Vec3
	walkableZ := c.walkableGroundThreshold()

	for i := 0; i < slideMoveIterations; i++ {
		if vmath.MagSq(remaining) <= 1e-10 {
			break
		}
		sweepFrom := pos
		target := vmath.Add(pos, remaining)
		hit := c.sweep(sweepFrom, target)
		if !hit.HasHit {
			pos = target
			break
		}
		c.contactCount++

		hitFrac := vmath.Clamp(hit.Fraction, 0, 1)
		pos = vmath.Add(pos, vmath.Scale(remaining, math.Max(0, hitFrac-1e-4)))

		n := vmath.Normalize(hit.Normal)
		planes = append(planes, n)
		pos = vmath.Add(pos, vmath.Scale(n, skinDistance))

		switch {
		case c.isSurfNormal(n):
			c.setSurfContact(n)
		case n.Z > walkableZ && c.isGroundContactPointValid(hit.Position, hit.HasPosition, sweepFrom):
			c.Grounded = true
			c.GroundNormal = n
			if c.Vel.Z < 0 {
				c.setVerticalVelocity(0, SourceCollision, "slide.floor_stop")
			}
		case math.Abs(n.Z) < wallNormalZAbs:
			hitPos := pos
			if hit.HasPosition {
				hitPos = hit.Position
			}
			if c.isValidWallContact(hitPos) {
				c.setWallContact(vmath.Horizontal(n), hitPos)
			}
		case n.Z < -ceilingNormalZAbs && c.Vel.Z > 0:
			c.setVerticalVelocity(0, SourceCollision, "slide.ceil_stop")
		}

		clipN := c.chooseClipNormal(n)
		if vmath.Dot(c.Vel, clipN) < 0 {
			c.setVelocity(clipVelocity(c.Vel, clipN, 1.0), SourceCollision, "slide.clip_hit")
		}
		timeLeft := 1 - hitFrac
		remaining = vmath.Scale(remaining, timeLeft)
		if vmath.Dot(remaining, clipN) < 0 {
			remaining = clipVelocity(remaining, clipN, 1.0)
		}

		for _, p := range planes[:len(planes)-1] {
			clipP := c.chooseClipNormal(p)
			if vmath.Dot(remaining, clipP) < 0 {
				remaining = clipVelocity(remaining, clipP, 1.0)
			}
			if vmath.Dot(c.Vel, clipP) < 0 {
				c.setVelocity(clipVelocity(c.Vel, clipP, 1.0), SourceCollision, "slide.clip_multiplane")
			}
		}
	}
	c.Pos = pos
}

// groundSnap is the post-move ground snap (step 6): on a small
// descent, glue the player to the floor and zero vertical velocity.
func (c *Controller) groundSnap() {
	walkableZ := c.walkableGroundThreshold()
	downDist := c.groundProbeDistance(true)
	if downDist <= 0 {
		return
	}
	down := vmath.Vec3{Z: -downDist}
	hit := c.sweep(c.Pos, vmath.Add(c.Pos, down))

	var chosenNormal vmath.Vec3
	chosenDrop := -1.0
	if hit.HasHit {
		n := vmath.Normalize(hit.Normal)
		if c.isWalkableGroundNormal(n, walkableZ) && c.isGroundContactPointValid(hit.Position, hit.HasPosition, c.Pos) {
			chosenNormal = n
			frac := vmath.Clamp(hit.Fraction, 0, 1)
			chosenDrop = math.Max(0, downDist*frac)
		}
	}
	if chosenDrop < 0 {
		if n, d, ok := c.findWalkableGroundContact(down, walkableZ); ok {
			chosenNormal, chosenDrop = n, d
		}
	}
	if chosenDrop < 0 {
		return
	}

	moveDrop := math.Max(0, math.Min(downDist, chosenDrop)-1e-4)
	frac := moveDrop / math.Max(1e-6, downDist)
	c.Pos = vmath.Add(c.Pos, vmath.Scale(down, frac))
	c.Grounded = true
	c.GroundNormal = chosenNormal
	if c.Vel.Z < 0 {
		c.setVerticalVelocity(0, SourceCollision, "ground_snap")
	}
}

// --- Wall / surf contact bookkeeping ---

func (c *Controller) isValidWallContact(point vmath.Vec3) bool {
	feetZ := c.Pos.Z - c.tuning.PlayerHalfHeight
	minHeight := math.Max(wallContactMinHeightFloor, math.Min(wallContactMinHeightCap, c.tuning.StepHeight+wallContactStepPad))
	return point.Z >= feetZ+minHeight
}

func (c *Controller) setWallContact(n, point vmath.Vec3) {
	wn := n
	if vmath.MagSq(wn) > 1e-12 {
		wn = vmath.Normalize(wn)
	}
	c.WallNormal = wn
	c.WallContactPoint = point
	c.WallContactAge = 0
}

func (c *Controller) setSurfContact(n vmath.Vec3) {
	sn := n
	if vmath.MagSq(sn) > 1e-12 {
		sn = vmath.Normalize(sn)
	}
	c.SurfNormal = sn
	c.SurfContactAge = 0
}

// probeNearbyWall sweeps the four cardinal directions looking for a
// near-vertical contact at a valid wallrun height.
func (c *Controller) probeNearbyWall() (vmath.Vec3, vmath.Vec3, bool) {
	if c.collider == nil {
		return vmath.Vec3{}, vmath.Vec3{}, false
	}
	probeDist := math.Max(0.08, c.tuning.PlayerRadius+wallProbeExtra)
	walkableZ := walkableThresholdZ(c.tuning.MaxGroundSlopeDeg)
	dirs := [4]vmath.Vec3{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}}
	for _, d := range dirs {
		hit := c.sweep(c.Pos, vmath.Add(c.Pos, vmath.Scale(d, probeDist)))
		if !hit.HasHit {
			continue
		}
		n := vmath.Normalize(hit.Normal)
		if math.Abs(n.Z) >= math.Max(wallNormalZAbs, walkableZ) {
			continue
		}
		wallN := vmath.Horizontal(n)
		if vmath.MagSq(wallN) <= 1e-12 {
			continue
		}
		wallN = vmath.Normalize(wallN)
		p := vmath.Add(c.Pos, vmath.Scale(d, probeDist*vmath.Clamp(hit.Fraction, 0, 1)))
		if hit.HasPosition {
			p = hit.Position
		}
		if !c.isValidWallContact(p) {
			continue
		}
		return wallN, p, true
	}
	return vmath.Vec3{}, vmath.Vec3{}, false
}
