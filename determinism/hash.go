// Package determinism proves that a recorded demo replays
// byte-identically at the same tick rate, and flags any drift. All
// hashing goes through a stable binary encoding — fixed-endian
// IEEE-754 bits, never string formatting — so results never depend on
// platform locale or float-to-string rounding.
package determinism

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"

	"github.com/ivan-motion/core/vmath"
)

// StateHash computes a 16-hex-character stable digest of one tick's
// observable motion state. Field order is fixed; every float goes
// through its raw IEEE-754 bit pattern, never fmt.Sprintf.
func StateHash(pos, vel vmath.Vec3, yawDeg, pitchDeg float64, grounded bool, stateName string, contactCount int, jumpBufferLeft, coyoteLeft float64) string {
	h := sha256.New()
	buf := make([]byte, 8)

	writeFloat := func(f float64) {
		binary.LittleEndian.PutUint64(buf, math.Float64bits(f))
		h.Write(buf)
	}
	writeFloat(pos.X)
	writeFloat(pos.Y)
	writeFloat(pos.Z)
	writeFloat(vel.X)
	writeFloat(vel.Y)
	writeFloat(vel.Z)
	writeFloat(yawDeg)
	writeFloat(pitchDeg)
	if grounded {
		h.Write([]byte{1})
	} else {
		h.Write([]byte{0})
	}
	h.Write([]byte(stateName))
	binary.LittleEndian.PutUint32(buf[:4], uint32(contactCount))
	h.Write(buf[:4])
	writeFloat(jumpBufferLeft)
	writeFloat(coyoteLeft)

	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:8])
}
