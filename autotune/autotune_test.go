package autotune

import (
	"testing"

	"github.com/ivan-motion/core/backup"
	"github.com/ivan-motion/core/physics"
	"github.com/ivan-motion/core/replay"
)

func TestSuggestTooSlowRaisesSpeedFields(t *testing.T) {
	tn := physics.NewDefaultTuning()
	tn.MaxGroundSpeed = 6.0
	tn.AirSpeedMult = 1.7

	adjustments := Suggest("too slow", tn, nil, nil)

	byField := map[string]Adjustment{}
	for _, adj := range adjustments {
		byField[adj.Field] = adj
	}
	if _, ok := byField["max_ground_speed"]; !ok {
		t.Fatalf("expected max_ground_speed adjustment")
	}
	if _, ok := byField["air_speed_mult"]; !ok {
		t.Fatalf("expected air_speed_mult adjustment")
	}
	if _, ok := byField["wallrun_sink_t90"]; ok {
		t.Fatalf("did not expect wallrun field from speed feedback")
	}
	got := byField["max_ground_speed"]
	if got.After <= got.Before {
		t.Fatalf("max_ground_speed.After = %v, want > %v", got.After, got.Before)
	}
	if got.After > got.Before*1.05+1e-9 {
		t.Fatalf("max_ground_speed.After = %v exceeds +5%% bound over %v", got.After, got.Before)
	}
}

func TestSuggestTooSlowFromHistoryRankWithoutExplicitPhrase(t *testing.T) {
	tn := physics.NewDefaultTuning()
	history := &replay.RouteHistory{RouteTag: "A"}
	for i := 0; i < 7; i++ {
		history.Append(replay.RouteEntry{
			ExportedAtUnix: float64(i),
			Summary:        replay.Summary{Metrics: map[string]float64{"horizontal_speed_avg": 100 + float64(i)}},
		})
	}
	// The 7 earlier runs averaged 100..106; append one more, deliberately
	// low, as the "current" run so it ranks last of 8.
	history.Append(replay.RouteEntry{
		ExportedAtUnix: 8,
		Summary:        replay.Summary{Metrics: map[string]float64{"horizontal_speed_avg": 50}},
	})

	adjustments := Suggest("feels sluggish today", tn, nil, history)
	byField := map[string]Adjustment{}
	for _, adj := range adjustments {
		byField[adj.Field] = adj
	}
	got, ok := byField["max_ground_speed"]
	if !ok {
		t.Fatalf("expected max_ground_speed adjustment from bottom-half rank")
	}
	if got.Reason == "" {
		t.Fatalf("expected a reason to be recorded")
	}
}

func TestSuggestWallrunTooAggressive(t *testing.T) {
	tn := physics.NewDefaultTuning()
	tn.WallrunMinEntrySpeedMult = 0.45
	tn.WallrunMinApproachDot = 0.08
	tn.WallrunMinParallelDot = 0.30

	adjustments := Suggest("wallrun too aggressive and triggers too easily", tn, nil, nil)
	byField := map[string]Adjustment{}
	for _, adj := range adjustments {
		byField[adj.Field] = adj
	}
	if byField["wallrun_min_entry_speed_mult"].After <= byField["wallrun_min_entry_speed_mult"].Before {
		t.Fatalf("expected wallrun_min_entry_speed_mult to rise")
	}
	if byField["wallrun_min_approach_dot"].After <= byField["wallrun_min_approach_dot"].Before {
		t.Fatalf("expected wallrun_min_approach_dot to rise")
	}
	if byField["wallrun_min_parallel_dot"].After <= byField["wallrun_min_parallel_dot"].Before {
		t.Fatalf("expected wallrun_min_parallel_dot to rise")
	}
}

func TestSuggestCurvedWallrunDoesntWork(t *testing.T) {
	tn := physics.NewDefaultTuning()
	tn.WallrunSinkT90 = 0.22
	tn.WallrunMinEntrySpeedMult = 0.45
	tn.WallrunMinApproachDot = 0.08
	tn.WallrunMinParallelDot = 0.30

	adjustments := Suggest("curved wallrun doesnt work", tn, nil, nil)
	byField := map[string]Adjustment{}
	for _, adj := range adjustments {
		byField[adj.Field] = adj
	}
	if byField["wallrun_sink_t90"].After <= byField["wallrun_sink_t90"].Before {
		t.Fatalf("expected wallrun_sink_t90 to rise")
	}
	if byField["wallrun_min_approach_dot"].After >= byField["wallrun_min_approach_dot"].Before {
		t.Fatalf("expected wallrun_min_approach_dot to fall")
	}
	if byField["wallrun_min_parallel_dot"].After >= byField["wallrun_min_parallel_dot"].Before {
		t.Fatalf("expected wallrun_min_parallel_dot to fall")
	}
	if _, ok := byField["wallrun_min_entry_speed_mult"]; ok {
		t.Fatalf("curved-wallrun rule must not touch wallrun_min_entry_speed_mult")
	}
}

func TestSuggestWallrunNotWorkingGeneric(t *testing.T) {
	tn := physics.NewDefaultTuning()
	tn.WallrunSinkT90 = 0.22
	tn.WallrunMinEntrySpeedMult = 0.45

	adjustments := Suggest("wallrun doesnt work really", tn, nil, nil)
	byField := map[string]Adjustment{}
	for _, adj := range adjustments {
		byField[adj.Field] = adj
	}
	if byField["wallrun_sink_t90"].After <= byField["wallrun_sink_t90"].Before {
		t.Fatalf("expected wallrun_sink_t90 to rise")
	}
	if byField["wallrun_min_entry_speed_mult"].After >= byField["wallrun_min_entry_speed_mult"].Before {
		t.Fatalf("expected wallrun_min_entry_speed_mult to fall")
	}
}

func TestSuggestWallrunNotEngaging(t *testing.T) {
	tn := physics.NewDefaultTuning()
	tn.WallrunSinkT90 = 0.22
	tn.WallrunMinEntrySpeedMult = 0.45

	adjustments := Suggest("wallrun is not engaging, i fall of the wall", tn, nil, nil)
	byField := map[string]Adjustment{}
	for _, adj := range adjustments {
		byField[adj.Field] = adj
	}
	if byField["wallrun_sink_t90"].After <= byField["wallrun_sink_t90"].Before {
		t.Fatalf("expected wallrun_sink_t90 to rise")
	}
	if byField["wallrun_min_entry_speed_mult"].After >= byField["wallrun_min_entry_speed_mult"].Before {
		t.Fatalf("expected wallrun_min_entry_speed_mult to fall")
	}
}

func TestApplyCreatesBackupBeforeFieldChanges(t *testing.T) {
	dir := t.TempDir()
	tn := physics.NewDefaultTuning()
	tn.MaxGroundSpeed = 6.0

	var events []string
	adjustments := []Adjustment{
		{Field: "max_ground_speed", Before: 6.0, After: 6.3, Reason: "intent: raise top speed"},
	}

	backupsAtFirstChange := -1
	onChange := func(field string) {
		if backupsAtFirstChange < 0 {
			hs, _ := backup.List(dir)
			backupsAtFirstChange = len(hs)
		}
		events = append(events, "change:"+field)
	}

	updated, handle, err := Apply(dir, tn, "A", adjustments, 1000, onChange)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if backupsAtFirstChange != 1 {
		t.Fatalf("backups on disk at first field change = %d, want 1", backupsAtFirstChange)
	}
	if handle.Path == "" {
		t.Fatalf("expected a backup handle")
	}
	if len(events) != 1 || events[0] != "change:max_ground_speed" {
		t.Fatalf("events = %v, want [change:max_ground_speed]", events)
	}
	if updated.MaxGroundSpeed != 6.3 {
		t.Fatalf("updated.MaxGroundSpeed = %v, want 6.3", updated.MaxGroundSpeed)
	}

	handles, err := backup.List(dir)
	if err != nil {
		t.Fatalf("listing backups: %v", err)
	}
	if len(handles) != 1 {
		t.Fatalf("expected exactly one backup file created before the field change, got %d", len(handles))
	}
}

func TestApplyNoAdjustmentsIsNoop(t *testing.T) {
	dir := t.TempDir()
	tn := physics.NewDefaultTuning()

	updated, handle, err := Apply(dir, tn, "A", nil, 1000, nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if handle.Path != "" {
		t.Fatalf("expected zero handle for no-op apply")
	}
	if updated != tn {
		t.Fatalf("expected unchanged tuning on no-op apply")
	}
}

func TestEvaluateGuardrailsPassesOnImprovedRun(t *testing.T) {
	latest := replay.Summary{
		JumpTakeoff: replay.JumpTakeoffStats{SuccessRate: 0.88},
		Metrics: map[string]float64{
			"horizontal_speed_avg":   145.0,
			"landing_speed_loss_avg": 0.62,
			"ground_flicker_per_min": 9.0,
			"camera_lin_jerk_avg":    85.0,
			"camera_ang_jerk_avg":    520.0,
		},
	}
	reference := replay.Summary{
		JumpTakeoff: replay.JumpTakeoffStats{SuccessRate: 0.82},
		Metrics: map[string]float64{
			"horizontal_speed_avg":   132.0,
			"landing_speed_loss_avg": 0.84,
			"ground_flicker_per_min": 11.0,
			"camera_lin_jerk_avg":    93.0,
			"camera_ang_jerk_avg":    590.0,
		},
	}

	result := EvaluateGuardrails("A", latest, reference, 10)

	if !result.Passed {
		t.Fatalf("expected guardrails to pass, checks=%+v", result.Checks)
	}
	if result.Score <= 0 {
		t.Fatalf("expected positive score, got %v", result.Score)
	}
	if len(result.Checks) != 5 {
		t.Fatalf("len(Checks) = %d, want 5", len(result.Checks))
	}
}

func TestEvaluateGuardrailsFailsOnRegressedJumpSuccess(t *testing.T) {
	latest := replay.Summary{
		JumpTakeoff: replay.JumpTakeoffStats{SuccessRate: 0.40},
		Metrics: map[string]float64{
			"horizontal_speed_avg":   145.0,
			"landing_speed_loss_avg": 0.62,
			"ground_flicker_per_min": 9.0,
			"camera_lin_jerk_avg":    85.0,
			"camera_ang_jerk_avg":    520.0,
		},
	}
	reference := replay.Summary{
		JumpTakeoff: replay.JumpTakeoffStats{SuccessRate: 0.82},
		Metrics: map[string]float64{
			"horizontal_speed_avg":   132.0,
			"landing_speed_loss_avg": 0.84,
			"ground_flicker_per_min": 11.0,
			"camera_lin_jerk_avg":    93.0,
			"camera_ang_jerk_avg":    590.0,
		},
	}

	result := EvaluateGuardrails("A", latest, reference, 10)
	if result.Passed {
		t.Fatalf("expected guardrails to fail on jump success regression")
	}
}

func TestRollbackRestoresNewestBackupAndNotifies(t *testing.T) {
	dir := t.TempDir()
	original := physics.NewDefaultTuning()
	original.MaxGroundSpeed = 9.9

	if _, _, err := Apply(dir, original, "A", []Adjustment{
		{Field: "max_ground_speed", Before: 9.9, After: 9.9, Reason: "noop-to-snapshot"},
	}, 5000, nil); err != nil {
		t.Fatalf("seed apply: %v", err)
	}

	drifted := physics.NewDefaultTuning()
	drifted.MaxGroundSpeed = 3.0

	var changed []string
	restored, handle, err := Rollback(dir, drifted, "", func(field string) {
		changed = append(changed, field)
	})
	if err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if handle.Path == "" {
		t.Fatalf("expected a backup handle")
	}
	if restored.MaxGroundSpeed != 9.9 {
		t.Fatalf("restored.MaxGroundSpeed = %v, want 9.9", restored.MaxGroundSpeed)
	}
	found := false
	for _, f := range changed {
		if f == "max_ground_speed" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected onChange to fire for max_ground_speed, got %v", changed)
	}
}
