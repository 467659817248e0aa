package replay

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
)

// MetricComparison is one metric's latest-vs-reference row.
type MetricComparison struct {
	Latest             float64 `json:"latest"`
	Reference          float64 `json:"reference"`
	Delta              float64 `json:"delta"`
	PreferredDirection string  `json:"preferred_direction"`
	Better             string  `json:"better"`
}

// Comparison is the full output of CompareSummaries.
type Comparison struct {
	CreatedAtUnix   float64                      `json:"created_at_unix"`
	RouteTag        string                       `json:"route_tag,omitempty"`
	Metrics         map[string]MetricComparison  `json:"metrics"`
	TuningDelta     map[string]MetricComparison  `json:"tuning_delta"`
	ImprovedCount   int                          `json:"improved_count"`
	RegressedCount  int                          `json:"regressed_count"`
	EqualCount      int                          `json:"equal_count"`
}

// metricPreferences names which direction is "better" per metric, the
// fixed table spec.md §4.H.2 requires: speed/jump-success higher is
// better, landing-loss/ground-flicker/camera-jerk lower is better.
var metricPreferences = map[string]string{
	"jump_takeoff_success_rate":   "higher",
	"horizontal_speed_avg":        "higher",
	"landing_speed_loss_avg":      "lower",
	"ground_flicker_per_min":      "lower",
	"camera_lin_jerk_avg":         "lower",
	"camera_ang_jerk_avg":         "lower",
}

func metricValue(s Summary, key string) float64 {
	if key == "jump_takeoff_success_rate" {
		return s.JumpTakeoff.SuccessRate
	}
	return s.Metrics[key]
}

// CompareSummaries diffs latest against reference across the fixed
// metric table and returns the per-metric rows plus the aggregated
// improved/regressed/equal counts.
func CompareSummaries(latest, reference Summary, routeTag string, createdAtUnix float64) Comparison {
	rows := make(map[string]MetricComparison, len(metricPreferences))
	improved, regressed, equal := 0, 0, 0

	keys := make([]string, 0, len(metricPreferences))
	for k := range metricPreferences {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		pref := metricPreferences[key]
		lv := metricValue(latest, key)
		rv := metricValue(reference, key)
		delta := lv - rv
		var better string
		switch {
		case math.Abs(delta) < 1e-9:
			better = "equal"
			equal++
		case pref == "higher":
			if lv > rv {
				better, improved = "latest", improved+1
			} else {
				better, regressed = "reference", regressed+1
			}
		default:
			if lv < rv {
				better, improved = "latest", improved+1
			} else {
				better, regressed = "reference", regressed+1
			}
		}
		direction := "lower_is_better"
		if pref == "higher" {
			direction = "higher_is_better"
		}
		rows[key] = MetricComparison{Latest: lv, Reference: rv, Delta: delta, PreferredDirection: direction, Better: better}
	}

	return Comparison{
		CreatedAtUnix:  createdAtUnix,
		RouteTag:       routeTag,
		Metrics:        rows,
		TuningDelta:    numericTuningDelta(latest.Demo.Tuning, reference.Demo.Tuning),
		ImprovedCount:  improved,
		RegressedCount: regressed,
		EqualCount:     equal,
	}
}

func numericTuningDelta(latest, reference map[string]any) map[string]MetricComparison {
	out := map[string]MetricComparison{}
	keys := map[string]struct{}{}
	for k := range latest {
		keys[k] = struct{}{}
	}
	for k := range reference {
		keys[k] = struct{}{}
	}
	for k := range keys {
		lv, lok := asFloat(latest[k])
		rv, rok := asFloat(reference[k])
		if !lok || !rok {
			continue
		}
		if math.Abs(lv-rv) > 1e-9 {
			out[k] = MetricComparison{Latest: lv, Reference: rv, Delta: lv - rv}
		}
	}
	return out
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case bool:
		return 0, false
	default:
		return 0, false
	}
}

// WriteComparison saves a Comparison as a summary-adjacent JSON file.
func WriteComparison(path string, c Comparison) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("replay: creating comparison dir: %w", err)
	}
	payload, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("replay: marshaling comparison: %w", err)
	}
	if err := os.WriteFile(path, append(payload, '\n'), 0o644); err != nil {
		return fmt.Errorf("replay: writing %s: %w", path, err)
	}
	return nil
}
