package collision

import "github.com/ivan-motion/core/vmath"

// Box is a static axis-aligned box in world space.
type Box struct {
	Min, Max vmath.Vec3
}

// AABBWorld is a reference Collider over a static box soup. The player
// capsule is approximated as its horizontal radius / vertical
// half-height for sweep purposes (a box-vs-box Minkowski expansion,
// not a true capsule-vs-mesh sweep) — sufficient for the controller's
// own tests and for hosts with no richer physics engine.
type AABBWorld struct {
	Boxes        []Box
	Radius       float64
	HalfHeight   float64
}

// NewAABBWorld builds a world sized for a capsule of the given radius
// and half-height.
func NewAABBWorld(radius, halfHeight float64) *AABBWorld {
	return &AABBWorld{Radius: radius, HalfHeight: halfHeight}
}

// Add registers a static box obstacle.
func (w *AABBWorld) Add(b Box) {
	w.Boxes = append(w.Boxes, b)
}

// expanded returns box b grown by the capsule's half-extents — the
// Minkowski sum that turns a capsule-center sweep into a point sweep.
func (w *AABBWorld) expanded(b Box) Box {
	return Box{
		Min: vmath.Vec3{X: b.Min.X - w.Radius, Y: b.Min.Y - w.Radius, Z: b.Min.Z - w.HalfHeight},
		Max: vmath.Vec3{X: b.Max.X + w.Radius, Y: b.Max.Y + w.Radius, Z: b.Max.Z + w.HalfHeight},
	}
}

// SweepClosest sweeps a point (capsule center) from `from` to `to`
// against every expanded box and returns the closest hit, if any.
func (w *AABBWorld) SweepClosest(from, to vmath.Vec3) Hit {
	d := vmath.Sub(to, from)
	best := NoHit
	for _, raw := range w.Boxes {
		b := w.expanded(raw)
		hit, ok := sweepPointBox(from, d, b)
		if !ok {
			continue
		}
		if !best.HasHit || hit.Fraction < best.Fraction {
			best = hit
		}
	}
	return SanitizeHit(best)
}

// RayClosest sweeps a zero-radius ray (no capsule expansion) against
// the raw box soup, used by non-core targeting tooling.
func (w *AABBWorld) RayClosest(from, to vmath.Vec3) Hit {
	d := vmath.Sub(to, from)
	best := NoHit
	for _, b := range w.Boxes {
		hit, ok := sweepPointBox(from, d, b)
		if !ok {
			continue
		}
		if !best.HasHit || hit.Fraction < best.Fraction {
			best = hit
		}
	}
	return SanitizeHit(best)
}

// sweepPointBox is the classic slab method for a moving point against
// an AABB, returning the entry fraction and face normal.
func sweepPointBox(from, d vmath.Vec3, b Box) (Hit, bool) {
	tEnter, tExit := 0.0, 1.0
	var normal vmath.Vec3
	axes := [3]struct {
		from, d, lo, hi float64
		n               vmath.Vec3
	}{
		{from.X, d.X, b.Min.X, b.Max.X, vmath.Vec3{X: -1}},
		{from.Y, d.Y, b.Min.Y, b.Max.Y, vmath.Vec3{Y: -1}},
		{from.Z, d.Z, b.Min.Z, b.Max.Z, vmath.Vec3{Z: -1}},
	}
	for _, ax := range axes {
		if ax.d == 0 {
			if ax.from < ax.lo || ax.from > ax.hi {
				return Hit{}, false
			}
			continue
		}
		t1 := (ax.lo - ax.from) / ax.d
		t2 := (ax.hi - ax.from) / ax.d
		n := ax.n
		if t1 > t2 {
			t1, t2 = t2, t1
			n = vmath.Neg(n)
		}
		if t1 > tEnter {
			tEnter = t1
			normal = n
		}
		if t2 < tExit {
			tExit = t2
		}
		if tEnter > tExit {
			return Hit{}, false
		}
	}
	if tEnter < 0 || tEnter > 1 {
		return Hit{}, false
	}
	pos := vmath.Add(from, vmath.Scale(d, tEnter))
	return Hit{HasHit: true, Fraction: tEnter, Normal: normal, Position: pos, HasPosition: true}, true
}
