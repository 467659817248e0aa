// Package collision defines the sweep/ray query contract the player
// controller consumes, plus one reference implementation (a static
// AABB soup) used by this module's own tests and by hosts with no
// richer physics engine available.
package collision

import "github.com/ivan-motion/core/vmath"

// Hit is the result of a swept or ray query. On no-hit, Fraction is 1
// and Normal/Position are zero. Swept tests never return a negative
// fraction; normals are unit length.
type Hit struct {
	HasHit      bool
	Fraction    float64
	Normal      vmath.Vec3
	Position    vmath.Vec3
	HasPosition bool
}

// NoHit is the canonical miss result.
var NoHit = Hit{HasHit: false, Fraction: 1}

// Collider is the interface the controller consumes. Implementations
// are a black box to the controller: it never introspects beyond this
// contract.
type Collider interface {
	SweepClosest(from, to vmath.Vec3) Hit
	RayClosest(from, to vmath.Vec3) Hit
}

// SanitizeHit folds a non-finite sweep result into a miss. The
// controller never has to defend against NaN/Inf itself — a collider
// implementation that produces one is treated as if it found nothing.
func SanitizeHit(h Hit) Hit {
	if !h.HasHit {
		return NoHit
	}
	if !isFinite(h.Fraction) || !finiteVec(h.Normal) || (h.HasPosition && !finiteVec(h.Position)) {
		return NoHit
	}
	if h.Fraction < 0 {
		h.Fraction = 0
	}
	if h.Fraction > 1 {
		h.Fraction = 1
	}
	return h
}

func isFinite(v float64) bool {
	return v == v && v < 1e308 && v > -1e308
}

func finiteVec(v vmath.Vec3) bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}
