package autotune

import (
	"fmt"
	"sort"

	"github.com/ivan-motion/core/backup"
	"github.com/ivan-motion/core/physics"
)

// Rollback restores backupRef (or the newest backup when empty) onto
// t, invoking onChange for every authored tuning field (the field set
// a backup stores), in name order.
func Rollback(dir string, t physics.Tuning, backupRef string, onChange OnTuningChange) (physics.Tuning, backup.Handle, error) {
	restored, handle, err := backup.Restore(dir, t, backupRef)
	if err != nil {
		return t, backup.Handle{}, fmt.Errorf("autotune: rollback: %w", err)
	}
	if onChange != nil {
		var fields []string
		for field := range restored.AsMap() {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			onChange(field)
		}
	}
	return restored, handle, nil
}
