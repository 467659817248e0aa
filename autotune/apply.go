package autotune

import (
	"fmt"

	"github.com/ivan-motion/core/backup"
	"github.com/ivan-motion/core/physics"
)

// OnTuningChange is invoked once per applied field, letting the host
// re-derive its MotionConfig and run any other field-specific side
// effect. Mirrors the original console runner's `_on_tuning_change`
// hook.
type OnTuningChange func(field string)

// Apply backs up t first (label "route-<tag>"; the backup records only
// the label and timestamp, no reason), then writes every adjustment onto t in
// order, invoking onChange per field. Returns the updated tuning and
// the backup handle. A nil adjustments slice is a no-op: no backup is
// created and the returned handle is zero.
func Apply(dir string, t physics.Tuning, routeTag string, adjustments []Adjustment, unixNano int64, onChange OnTuningChange) (physics.Tuning, backup.Handle, error) {
	if len(adjustments) == 0 {
		return t, backup.Handle{}, nil
	}

	handle, err := backup.Create(dir, t, fmt.Sprintf("route-%s", routeTag), unixNano)
	if err != nil {
		return t, backup.Handle{}, fmt.Errorf("autotune: pre-apply backup: %w", err)
	}

	for _, adj := range adjustments {
		t.SetFieldByName(adj.Field, adj.After)
		if onChange != nil {
			onChange(adj.Field)
		}
	}
	t.Clamp()

	return t, handle, nil
}
