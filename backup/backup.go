// Package backup implements tuning snapshot/restore: timestamped TOML
// files holding the authored invariants only, never derived fields.
package backup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ivan-motion/core/physics"
)

// ErrBackupNotFound is returned when Restore is asked for a reference
// that does not exist, or Newest finds no backups at all (List itself
// returns an empty slice and no error in that case).
var ErrBackupNotFound = errors.New("backup: no matching backup file")

// Handle identifies one backup file on disk.
type Handle struct {
	Path       string
	Label      string
	UnixNano   int64
}

// fileTuning is the on-disk TOML shape: authored fields only, by their
// wire name — the same tags physics.Tuning.AsMap uses.
type fileTuning = map[string]any

// Create snapshots t into dir as "<unix-nano>_<label>.toml" and
// returns the resulting handle.
func Create(dir string, t physics.Tuning, label string, unixNano int64) (Handle, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Handle{}, fmt.Errorf("backup: creating dir: %w", err)
	}
	label = sanitizeLabel(label)
	name := fmt.Sprintf("%d_%s.toml", unixNano, label)
	path := filepath.Join(dir, name)

	fh, err := os.Create(path)
	if err != nil {
		return Handle{}, fmt.Errorf("backup: creating %s: %w", path, err)
	}
	defer fh.Close()

	enc := toml.NewEncoder(fh)
	if err := enc.Encode(fileTuning(t.AsMap())); err != nil {
		return Handle{}, fmt.Errorf("backup: encoding %s: %w", path, err)
	}

	return Handle{Path: path, Label: label, UnixNano: unixNano}, nil
}

func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "backup"
	}
	var b strings.Builder
	for _, ch := range label {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9', ch == '-', ch == '_':
			b.WriteRune(ch)
		case ch == ' ':
			b.WriteRune('-')
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "backup"
	}
	return out
}

// List returns every backup under dir, newest (by embedded timestamp)
// first.
func List(dir string) ([]Handle, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("backup: listing %s: %w", dir, err)
	}
	var out []Handle
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".toml") {
			continue
		}
		h, ok := parseHandleName(filepath.Join(dir, e.Name()), e.Name())
		if ok {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UnixNano > out[j].UnixNano })
	return out, nil
}

func parseHandleName(path, base string) (Handle, bool) {
	stem := strings.TrimSuffix(base, ".toml")
	parts := strings.SplitN(stem, "_", 2)
	if len(parts) != 2 {
		return Handle{}, false
	}
	ns, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Handle{}, false
	}
	return Handle{Path: path, Label: parts[1], UnixNano: ns}, true
}

// Newest returns the most recently created backup in dir.
func Newest(dir string) (Handle, error) {
	all, err := List(dir)
	if err != nil {
		return Handle{}, err
	}
	if len(all) == 0 {
		return Handle{}, ErrBackupNotFound
	}
	return all[0], nil
}

// Restore loads a backup's authored fields onto base, returning the
// merged tuning. When ref is empty the newest backup in dir is used;
// otherwise ref may be a full path or a bare filename under dir.
func Restore(dir string, base physics.Tuning, ref string) (physics.Tuning, Handle, error) {
	var path string
	var handle Handle
	if strings.TrimSpace(ref) == "" {
		h, err := Newest(dir)
		if err != nil {
			return physics.Tuning{}, Handle{}, err
		}
		handle, path = h, h.Path
	} else if filepath.IsAbs(ref) || strings.ContainsRune(ref, filepath.Separator) {
		path = ref
		if h, ok := parseHandleName(path, filepath.Base(path)); ok {
			handle = h
		}
	} else {
		path = filepath.Join(dir, ref)
		if h, ok := parseHandleName(path, ref); ok {
			handle = h
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return physics.Tuning{}, Handle{}, fmt.Errorf("%w: %s", ErrBackupNotFound, path)
		}
		return physics.Tuning{}, Handle{}, fmt.Errorf("backup: reading %s: %w", path, err)
	}

	var snap fileTuning
	if _, err := toml.Decode(string(raw), &snap); err != nil {
		return physics.Tuning{}, Handle{}, fmt.Errorf("backup: decoding %s: %w", path, err)
	}

	out := base
	out.FromMap(snap)
	out.Clamp()
	return out, handle, nil
}
