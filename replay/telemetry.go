package replay

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// Export is the result of one telemetry export pass over a recording.
type Export struct {
	SourceDemo          string
	CSVPath             string
	SummaryPath         string
	TickCount           int
	TelemetryTickCount  int
}

// baseColumns is the frozen per-tick CSV column order. It mirrors the
// recorded input fields this module's Frame actually carries — unlike
// the original console build, per-key held-state columns are dropped
// since Intent.Derive only ever sees the combined move_forward/
// move_right axis bytes, never individual key identities.
var baseColumns = []string{
	"tick",
	"look_dx",
	"look_dy",
	"move_forward",
	"move_right",
	"jump_pressed",
	"jump_held",
	"slide_pressed",
	"grapple_pressed",
	"noclip_toggle_pressed",
}

func frameRow(tick int, f Frame) map[string]string {
	row := map[string]string{
		"tick":                   strconv.Itoa(tick),
		"look_dx":                strconv.Itoa(f.LookDX),
		"look_dy":                strconv.Itoa(f.LookDY),
		"move_forward":           strconv.Itoa(f.MoveForward),
		"move_right":             strconv.Itoa(f.MoveRight),
		"jump_pressed":           boolCol(f.JumpPressed),
		"jump_held":              boolCol(f.JumpHeld),
		"slide_pressed":          boolCol(f.SlidePressed),
		"grapple_pressed":        boolCol(f.GrapplePressed),
		"noclip_toggle_pressed":  boolCol(f.NoclipTogglePressed),
	}
	for k, v := range f.Telemetry {
		row["tm_"+k] = fmt.Sprintf("%v", v)
	}
	return row
}

func boolCol(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func tmFloat(tm map[string]any, key string) (float64, bool) {
	v, ok := tm[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

func tmBool(tm map[string]any, key string) (bool, bool) {
	v, ok := tm[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

func tmString(tm map[string]any, key string) (string, bool) {
	v, ok := tm[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && strings.TrimSpace(s) != ""
}

// Summary is the exported per-route metrics rollup.
type Summary struct {
	FormatVersion  int                `json:"format_version"`
	Demo           SummaryDemo        `json:"demo"`
	Ticks          SummaryTicks       `json:"ticks"`
	Metrics        map[string]float64 `json:"metrics"`
	JumpTakeoff    JumpTakeoffStats   `json:"jump_takeoff"`
	// DetHashLast is the final per-tick determinism hash observed in the
	// recording (spec.md §3's "det_hash_last"). Empty when the demo
	// carried no determinism telemetry.
	DetHashLast    string             `json:"det_hash_last"`
	InputCounts    map[string]int     `json:"input_counts"`
	ExportMetadata map[string]any     `json:"export_metadata"`
	ExportHistory  []map[string]any   `json:"export_history"`
}

type SummaryDemo struct {
	Name                string         `json:"name"`
	MapID               string         `json:"map_id"`
	TickRate            int            `json:"tick_rate"`
	LookScale           int            `json:"look_scale"`
	SourceCreatedAtUnix float64        `json:"source_created_at_unix"`
	MapJSON             string         `json:"map_json,omitempty"`
	Tuning              map[string]any `json:"tuning"`
}

type SummaryTicks struct {
	Total             int     `json:"total"`
	DurationS         float64 `json:"duration_s"`
	WithTelemetry     int     `json:"with_telemetry"`
	TelemetryCoverage float64 `json:"telemetry_coverage"`
}

type JumpTakeoffStats struct {
	Attempts    int     `json:"attempts"`
	Success     int     `json:"success"`
	SuccessRate float64 `json:"success_rate"`
}

func computeJumpSuccess(grounded []bool, jumpPressed []bool, lookahead int) JumpTakeoffStats {
	if lookahead < 1 {
		lookahead = 1
	}
	attempts, success := 0, 0
	for i, jp := range jumpPressed {
		if !jp {
			continue
		}
		attempts++
		end := i + 1 + lookahead
		if end > len(grounded) {
			end = len(grounded)
		}
		for _, g := range grounded[i+1 : end] {
			if !g {
				success++
				break
			}
		}
	}
	rate := 0.0
	if attempts > 0 {
		rate = float64(success) / float64(attempts)
	}
	return JumpTakeoffStats{Attempts: attempts, Success: success, SuccessRate: rate}
}

func computeGroundFlicker(grounded []bool) int {
	if len(grounded) <= 1 {
		return 0
	}
	flips := 0
	prev := grounded[0]
	for _, cur := range grounded[1:] {
		if cur != prev {
			flips++
		}
		prev = cur
	}
	return flips
}

type landingLoss struct {
	count          int
	lossAvg        float64
	lossMax        float64
	retentionAvg   float64
}

func computeLandingLoss(tmFrames []map[string]any) landingLoss {
	var losses, retentions []float64
	var prevG *bool
	var prevHS *float64
	for _, tm := range tmFrames {
		g, ok := tmBool(tm, "grounded")
		if !ok {
			continue
		}
		hs, hsOK := tmFloat(tm, "hs")
		if prevG != nil && !*prevG && g && prevHS != nil && hsOK {
			loss := math.Max(0, *prevHS-hs)
			losses = append(losses, loss)
			if *prevHS > 1e-6 {
				retentions = append(retentions, hs / *prevHS)
			}
		}
		gc := g
		prevG = &gc
		if hsOK {
			hc := hs
			prevHS = &hc
		} else {
			prevHS = nil
		}
	}
	out := landingLoss{count: len(losses)}
	if len(losses) > 0 {
		out.lossAvg = stat.Mean(losses, nil)
		out.lossMax = maxOf(losses)
	}
	if len(retentions) > 0 {
		out.retentionAvg = stat.Mean(retentions, nil)
	}
	return out
}

func maxOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

func angleDeltaDeg(a, b float64) float64 {
	d := b - a
	for d > 180 {
		d -= 360
	}
	for d < -180 {
		d += 360
	}
	return d
}

type cameraJerk struct {
	samples int
	linAvg, linMax float64
	angAvg, angMax float64
}

func computeCameraJerk(tmFrames []map[string]any, tickRate int) cameraJerk {
	fallbackDT := 1.0 / math.Max(1, float64(tickRate))
	var lastPos [3]float64
	var lastVel [3]float64
	havePos, haveVel := false, false
	var lastYaw, lastPitch, lastYawRate, lastPitchRate, lastT float64
	haveT := false

	var linSamples, angSamples []float64

	for _, tm := range tmFrames {
		x, xok := tmFloat(tm, "x")
		y, yok := tmFloat(tm, "y")
		z, zok := tmFloat(tm, "z")
		yaw, yawOK := tmFloat(tm, "yaw")
		pitch, pitchOK := tmFloat(tm, "pitch")
		if !xok || !yok || !zok || !yawOK || !pitchOK {
			continue
		}
		t, tOK := tmFloat(tm, "t")

		if !havePos {
			lastPos = [3]float64{x, y, z}
			lastYaw, lastPitch = yaw, pitch
			if tOK {
				lastT, haveT = t, true
			}
			havePos = true
			continue
		}

		dt := fallbackDT
		if tOK && haveT {
			dt = math.Max(1e-6, t-lastT)
		}

		vel := [3]float64{(x - lastPos[0]) / dt, (y - lastPos[1]) / dt, (z - lastPos[2]) / dt}
		yawRate := angleDeltaDeg(lastYaw, yaw) / dt
		pitchRate := angleDeltaDeg(lastPitch, pitch) / dt

		if haveVel {
			linJerk := math.Sqrt(sq((vel[0]-lastVel[0])/dt) + sq((vel[1]-lastVel[1])/dt) + sq((vel[2]-lastVel[2])/dt))
			linSamples = append(linSamples, linJerk)
			angJerk := math.Sqrt(sq((yawRate-lastYawRate)/dt) + sq((pitchRate-lastPitchRate)/dt))
			angSamples = append(angSamples, angJerk)
		}

		lastPos = [3]float64{x, y, z}
		lastVel = vel
		haveVel = true
		lastYaw, lastPitch = yaw, pitch
		lastYawRate, lastPitchRate = yawRate, pitchRate
		if tOK {
			lastT, haveT = t, true
		}
	}

	out := cameraJerk{samples: maxInt(len(linSamples), len(angSamples))}
	if len(linSamples) > 0 {
		out.linAvg = stat.Mean(linSamples, nil)
		out.linMax = maxOf(linSamples)
	}
	if len(angSamples) > 0 {
		out.angAvg = stat.Mean(angSamples, nil)
		out.angMax = maxOf(angSamples)
	}
	return out
}

func sq(x float64) float64 { return x * x }

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func buildSummary(rec Recording) Summary {
	frames := rec.Frames
	var tmFrames []map[string]any
	for _, f := range frames {
		if f.Telemetry != nil {
			tmFrames = append(tmFrames, f.Telemetry)
		}
	}
	tickRate := rec.Metadata.TickRate
	if tickRate < 1 {
		tickRate = 1
	}
	durationS := float64(len(frames)) / float64(tickRate)

	var hsValues, spValues []float64
	var groundedValues, jumpPressedValues []bool
	for _, f := range frames {
		tm := f.Telemetry
		if hs, ok := tmFloat(tm, "hs"); ok {
			hsValues = append(hsValues, hs)
		}
		if sp, ok := tmFloat(tm, "sp"); ok {
			spValues = append(spValues, sp)
		}
		if g, ok := tmBool(tm, "grounded"); ok {
			groundedValues = append(groundedValues, g)
		}
		jumpPressedValues = append(jumpPressedValues, f.JumpPressed)
	}

	inputCounts := map[string]int{
		"jump_pressed_ticks":     countBool(frames, func(f Frame) bool { return f.JumpPressed }),
		"jump_held_ticks":        countBool(frames, func(f Frame) bool { return f.JumpHeld }),
		"slide_pressed_ticks":    countBool(frames, func(f Frame) bool { return f.SlidePressed }),
		"move_forward_pos_ticks": countBool(frames, func(f Frame) bool { return f.MoveForward > 0 }),
		"move_forward_neg_ticks": countBool(frames, func(f Frame) bool { return f.MoveForward < 0 }),
		"move_right_pos_ticks":   countBool(frames, func(f Frame) bool { return f.MoveRight > 0 }),
		"move_right_neg_ticks":   countBool(frames, func(f Frame) bool { return f.MoveRight < 0 }),
	}

	jumpSuccess := computeJumpSuccess(groundedValues, jumpPressedValues, 6)
	flicker := computeGroundFlicker(groundedValues)
	landing := computeLandingLoss(tmFrames)
	jerk := computeCameraJerk(tmFrames, tickRate)

	var detHashes []string
	for _, tm := range tmFrames {
		if h, ok := tmString(tm, "det_h"); ok {
			detHashes = append(detHashes, h)
		}
	}

	metrics := map[string]float64{
		"horizontal_speed_avg":        meanOrZero(hsValues),
		"horizontal_speed_max":        maxOrZero(hsValues),
		"speed_avg":                   meanOrZero(spValues),
		"speed_max":                   maxOrZero(spValues),
		"grounded_ratio":              boolRatio(groundedValues),
		"ground_flicker_count":        float64(flicker),
		"ground_flicker_per_min":      (float64(flicker) / math.Max(durationS, 1e-6)) * 60.0,
		"landing_count":               float64(landing.count),
		"landing_speed_loss_avg":      landing.lossAvg,
		"landing_speed_loss_max":      landing.lossMax,
		"landing_speed_retention_avg": landing.retentionAvg,
		"camera_lin_jerk_avg":         jerk.linAvg,
		"camera_lin_jerk_max":         jerk.linMax,
		"camera_ang_jerk_avg":         jerk.angAvg,
		"camera_ang_jerk_max":         jerk.angMax,
		"camera_jerk_samples":         float64(jerk.samples),
	}

	detHashLast := ""
	if len(detHashes) > 0 {
		detHashLast = detHashes[len(detHashes)-1]
	}

	withTelemetry := len(tmFrames)
	coverage := 0.0
	if len(frames) > 0 {
		coverage = float64(withTelemetry) / float64(len(frames))
	}

	return Summary{
		FormatVersion: 1,
		Demo: SummaryDemo{
			Name: rec.Metadata.DemoName, MapID: rec.Metadata.MapID, TickRate: tickRate,
			LookScale: rec.Metadata.LookScale, SourceCreatedAtUnix: rec.Metadata.CreatedAtUnix,
			MapJSON: rec.Metadata.MapJSON, Tuning: rec.Metadata.Tuning,
		},
		Ticks: SummaryTicks{
			Total: len(frames), DurationS: durationS, WithTelemetry: withTelemetry, TelemetryCoverage: coverage,
		},
		Metrics:     metrics,
		JumpTakeoff: jumpSuccess,
		DetHashLast: detHashLast,
		InputCounts: inputCounts,
	}
}

func countBool(frames []Frame, pred func(Frame) bool) int {
	n := 0
	for _, f := range frames {
		if pred(f) {
			n++
		}
	}
	return n
}

func meanOrZero(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

func maxOrZero(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return maxOf(xs)
}

func boolRatio(bs []bool) float64 {
	if len(bs) == 0 {
		return 0
	}
	n := 0
	for _, b := range bs {
		if b {
			n++
		}
	}
	return float64(n) / float64(len(bs))
}

// maxExportHistory caps how many export_history entries a summary
// file retains.
const maxExportHistory = 200

// ExportTelemetry reads a demo and writes a per-tick CSV plus a
// summary JSON (with a rolling export_history) into outDir.
func ExportTelemetry(demoPath, outDir, routeTag, comment string, exportedAtUnix float64) (Export, error) {
	rec, err := Load(demoPath)
	if err != nil {
		return Export{}, err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return Export{}, fmt.Errorf("replay: creating export dir: %w", err)
	}

	stem := strings.TrimSuffix(filepath.Base(demoPath), DemoExt)
	csvPath := filepath.Join(outDir, stem+".telemetry.csv")
	summaryPath := filepath.Join(outDir, stem+".summary.json")

	tmKeySet := map[string]struct{}{}
	rows := make([]map[string]string, len(rec.Frames))
	for i, f := range rec.Frames {
		row := frameRow(i, f)
		rows[i] = row
		for k := range f.Telemetry {
			tmKeySet["tm_"+k] = struct{}{}
		}
	}
	var tmKeys []string
	for k := range tmKeySet {
		tmKeys = append(tmKeys, k)
	}
	sort.Strings(tmKeys)
	fieldnames := append(append([]string{}, baseColumns...), tmKeys...)

	if err := writeCSV(csvPath, fieldnames, rows); err != nil {
		return Export{}, err
	}

	summary := buildSummary(rec)
	var history []map[string]any
	if prevBytes, err := os.ReadFile(summaryPath); err == nil {
		var prev Summary
		if err := json.Unmarshal(prevBytes, &prev); err == nil && prev.ExportHistory != nil {
			history = append(history, prev.ExportHistory...)
		}
	}
	entry := map[string]any{"exported_at_unix": exportedAtUnix}
	if tag := strings.TrimSpace(routeTag); tag != "" {
		entry["route_tag"] = tag
	}
	if note := strings.TrimSpace(comment); note != "" {
		if len(note) > 800 {
			note = note[:800]
		}
		entry["comment"] = note
	}
	history = append(history, entry)
	if len(history) > maxExportHistory {
		history = history[len(history)-maxExportHistory:]
	}
	summary.ExportMetadata = entry
	summary.ExportHistory = history

	payload, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return Export{}, fmt.Errorf("replay: marshaling summary: %w", err)
	}
	if err := os.WriteFile(summaryPath, append(payload, '\n'), 0o644); err != nil {
		return Export{}, fmt.Errorf("replay: writing %s: %w", summaryPath, err)
	}

	return Export{
		SourceDemo:         demoPath,
		CSVPath:            csvPath,
		SummaryPath:        summaryPath,
		TickCount:          len(rec.Frames),
		TelemetryTickCount: countWithTelemetry(rec.Frames),
	}, nil
}

func countWithTelemetry(frames []Frame) int {
	n := 0
	for _, f := range frames {
		if f.Telemetry != nil {
			n++
		}
	}
	return n
}

func writeCSV(path string, fieldnames []string, rows []map[string]string) error {
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("replay: creating %s: %w", path, err)
	}
	defer fh.Close()

	w := csv.NewWriter(fh)
	if err := w.Write(fieldnames); err != nil {
		return fmt.Errorf("replay: writing csv header: %w", err)
	}
	for _, row := range rows {
		record := make([]string, len(fieldnames))
		for i, k := range fieldnames {
			record[i] = row[k]
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("replay: writing csv row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// LoadSummary reads a previously exported summary JSON.
func LoadSummary(path string) (Summary, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Summary{}, fmt.Errorf("replay: reading summary %s: %w", path, err)
	}
	var s Summary
	if err := json.Unmarshal(raw, &s); err != nil {
		return Summary{}, fmt.Errorf("replay: parsing summary %s: %w", path, err)
	}
	return s, nil
}
