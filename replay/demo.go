// Package replay implements demo recording persistence and the
// offline telemetry/compare pipeline that runs over recorded demos.
package replay

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DemoFormatVersion is the frozen wire version for recorded demos.
// spec.md's external-interface contract fixes this at 3.
const DemoFormatVersion = 3

// DemoExt is the file extension demos are saved under.
const DemoExt = ".ivan_demo.json"

// ErrDemoFormatUnsupported is returned by Load when a demo file's
// format_version does not match DemoFormatVersion.
var ErrDemoFormatUnsupported = errors.New("replay: unsupported demo format_version")

// Frame is one recorded input tick plus whatever telemetry the
// recorder chose to stamp onto it.
type Frame struct {
	LookDX              int            `json:"dx"`
	LookDY              int            `json:"dy"`
	MoveForward         int            `json:"mf"`
	MoveRight           int            `json:"mr"`
	JumpPressed         bool           `json:"jp"`
	JumpHeld            bool           `json:"jh"`
	SlidePressed        bool           `json:"sp"`
	GrapplePressed      bool           `json:"gp"`
	NoclipTogglePressed bool           `json:"nt"`
	Telemetry           map[string]any `json:"tm,omitempty"`
}

// Metadata describes one recording session.
type Metadata struct {
	DemoName        string         `json:"demo_name"`
	CreatedAtUnix   float64        `json:"created_at_unix"`
	TickRate        int            `json:"tick_rate"`
	LookScale       int            `json:"look_scale"`
	MapID           string         `json:"map_id"`
	MapJSON         string         `json:"map_json,omitempty"`
	Tuning          map[string]any `json:"tuning"`
}

// Recording is a full demo: metadata plus the ordered frame list.
type Recording struct {
	FormatVersion int       `json:"format_version"`
	Metadata      Metadata  `json:"metadata"`
	Frames        []Frame   `json:"frames"`
}

// NewRecording builds an empty recording ready to have frames
// appended. createdAtUnix and demoName are supplied by the caller
// since this package never reads the wall clock itself.
func NewRecording(demoName string, createdAtUnix float64, tickRate, lookScale int, mapID, mapJSON string, tuning map[string]any) Recording {
	if lookScale < 1 {
		lookScale = 1
	}
	return Recording{
		FormatVersion: DemoFormatVersion,
		Metadata: Metadata{
			DemoName:      sanitizeName(demoName),
			CreatedAtUnix: createdAtUnix,
			TickRate:      tickRate,
			LookScale:     lookScale,
			MapID:         mapID,
			MapJSON:       mapJSON,
			Tuning:        tuning,
		},
	}
}

func sanitizeName(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		text = "demo"
	}
	var b strings.Builder
	for _, ch := range text {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= '0' && ch <= '9', ch == '-', ch == '_':
			b.WriteRune(ch)
		case ch == ' ' || ch == '.':
			b.WriteRune('-')
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "demo"
	}
	return out
}

// AppendFrame appends a frame to the recording in place.
func AppendFrame(rec *Recording, f Frame) {
	rec.Frames = append(rec.Frames, f)
}

// Save writes rec as JSON under dir, named by its demo name.
func Save(dir string, rec Recording) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("replay: creating demo dir: %w", err)
	}
	rec.FormatVersion = DemoFormatVersion
	out := filepath.Join(dir, rec.Metadata.DemoName+DemoExt)
	payload, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("replay: marshaling recording: %w", err)
	}
	if err := os.WriteFile(out, append(payload, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("replay: writing %s: %w", out, err)
	}
	return out, nil
}

// Load reads and validates a recording from path.
func Load(path string) (Recording, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Recording{}, fmt.Errorf("replay: reading %s: %w", path, err)
	}
	var rec Recording
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Recording{}, fmt.Errorf("replay: parsing %s: %w", path, err)
	}
	if rec.FormatVersion != DemoFormatVersion {
		return Recording{}, fmt.Errorf("%w: got %d, want %d", ErrDemoFormatUnsupported, rec.FormatVersion, DemoFormatVersion)
	}
	if rec.Metadata.TickRate <= 0 {
		rec.Metadata.TickRate = 60
	}
	if rec.Metadata.LookScale <= 0 {
		rec.Metadata.LookScale = 1
	}
	return rec, nil
}

// List returns every demo file under dir, newest modification time
// first.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("replay: listing %s: %w", dir, err)
	}
	type withTime struct {
		path string
		mod  int64
	}
	var found []withTime
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), DemoExt) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		found = append(found, withTime{path: filepath.Join(dir, e.Name()), mod: info.ModTime().UnixNano()})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].mod > found[j].mod })
	out := make([]string, len(found))
	for i, f := range found {
		out[i] = f.path
	}
	return out, nil
}
