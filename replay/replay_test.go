package replay

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func sampleRecording() Recording {
	rec := NewRecording("demo one", 1700000000, 60, 1, "testmap", "", map[string]any{"max_ground_speed": 6.6})
	for i := 0; i < 5; i++ {
		f := Frame{MoveForward: 1, Telemetry: map[string]any{
			"x": float64(i), "y": 0.0, "z": 1.0, "yaw": 0.0, "pitch": 0.0,
			"hs": 6.0, "sp": 6.0, "grounded": true, "t": float64(i) / 60.0,
		}}
		AppendFrame(&rec, f)
	}
	return rec
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	rec := sampleRecording()
	path, err := Save(dir, rec)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Frames) != 5 {
		t.Fatalf("len(Frames) = %d, want 5", len(loaded.Frames))
	}
	if loaded.FormatVersion != DemoFormatVersion {
		t.Fatalf("FormatVersion = %d, want %d", loaded.FormatVersion, DemoFormatVersion)
	}
}

func TestLoadRejectsWrongFormatVersion(t *testing.T) {
	dir := t.TempDir()
	stale := sampleRecording()
	stale.FormatVersion = 1
	path := filepath.Join(dir, stale.Metadata.DemoName+DemoExt)
	payload, err := json.Marshal(stale)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatalf("Load did not reject stale format_version")
	}
}

func TestExportTelemetryProducesSummaryAndCSV(t *testing.T) {
	dir := t.TempDir()
	rec := sampleRecording()
	demoPath, err := Save(dir, rec)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	exp, err := ExportTelemetry(demoPath, dir, "route-a", "", 1700000100)
	if err != nil {
		t.Fatalf("ExportTelemetry: %v", err)
	}
	if exp.TickCount != 5 {
		t.Fatalf("TickCount = %d, want 5", exp.TickCount)
	}
	summary, err := LoadSummary(exp.SummaryPath)
	if err != nil {
		t.Fatalf("LoadSummary: %v", err)
	}
	if summary.Metrics["horizontal_speed_avg"] != 6.0 {
		t.Fatalf("horizontal_speed_avg = %v, want 6.0", summary.Metrics["horizontal_speed_avg"])
	}
}

func TestCompareSummariesPrefersHigherSpeed(t *testing.T) {
	latest := Summary{Metrics: map[string]float64{"horizontal_speed_avg": 7.0, "landing_speed_loss_avg": 0.2, "ground_flicker_per_min": 1, "camera_lin_jerk_avg": 1, "camera_ang_jerk_avg": 1}}
	reference := Summary{Metrics: map[string]float64{"horizontal_speed_avg": 6.0, "landing_speed_loss_avg": 0.2, "ground_flicker_per_min": 1, "camera_lin_jerk_avg": 1, "camera_ang_jerk_avg": 1}}
	cmp := CompareSummaries(latest, reference, "route-a", 1700000200)
	if cmp.Metrics["horizontal_speed_avg"].Better != "latest" {
		t.Fatalf("horizontal_speed_avg.Better = %q, want latest", cmp.Metrics["horizontal_speed_avg"].Better)
	}
	if cmp.ImprovedCount != 1 {
		t.Fatalf("ImprovedCount = %d, want 1", cmp.ImprovedCount)
	}
}
