// Package autotune turns player feedback text and replay telemetry
// into bounded tuning adjustments: invariants only, never derived
// fields, each clamped to its registered range.
package autotune

import (
	"strings"

	"github.com/ivan-motion/core/physics"
	"github.com/ivan-motion/core/replay"
)

// Adjustment is one proposed (or applied) invariant edit.
type Adjustment struct {
	Field  string
	Before float64
	After  float64
	Reason string
}

func normalize(text string) string {
	text = strings.ToLower(text)
	text = strings.ReplaceAll(text, "'", "")
	return text
}

// relAdjust computes {field, before, after, reason} with after scaled
// by (1+fraction) relative to before, clamped to the field's range.
// fraction may be negative to lower the field.
func relAdjust(t physics.Tuning, field string, fraction float64, reason string) (Adjustment, bool) {
	before, ok := t.FieldByName(field)
	if !ok {
		return Adjustment{}, false
	}
	after := clampField(field, before*(1+fraction))
	return Adjustment{Field: field, Before: before, After: after, Reason: reason}, true
}

// absAdjust computes {field, before, after, reason} with after offset
// by delta from before, clamped.
func absAdjust(t physics.Tuning, field string, delta float64, reason string) (Adjustment, bool) {
	before, ok := t.FieldByName(field)
	if !ok {
		return Adjustment{}, false
	}
	after := clampField(field, before+delta)
	return Adjustment{Field: field, Before: before, After: after, Reason: reason}, true
}

func clampField(field string, value float64) float64 {
	tmp := physics.NewDefaultTuning()
	tmp.SetFieldByName(field, value)
	v, _ := tmp.FieldByName(field)
	return v
}

// Suggest derives a list of bounded invariant adjustments from free
// text feedback plus the route's latest telemetry summary and
// history. Rules are table-driven phrase matches, checked in a fixed
// priority order (most specific phrase first) so e.g. "curved wallrun
// doesn't work" does not also fire the generic wallrun-aggressive
// rule.
func Suggest(feedbackText string, t physics.Tuning, latestSummary *replay.Summary, history *replay.RouteHistory) []Adjustment {
	text := normalize(feedbackText)
	var out []Adjustment

	tooSlow := strings.Contains(text, "too slow")
	if !tooSlow && history != nil {
		if rank, total, ok := history.MetricRank("horizontal_speed_avg"); ok && total > 0 {
			// Bottom half of the route's history counts as "running slow".
			tooSlow = float64(rank) > float64(total)/2.0
		}
	}
	if tooSlow {
		reason := "feedback: too slow"
		if !strings.Contains(text, "too slow") {
			reason = "metric: speed rank below prior median"
		}
		if adj, ok := relAdjust(t, "max_ground_speed", 0.05, reason); ok {
			out = append(out, adj)
		}
		if adj, ok := relAdjust(t, "air_speed_mult", 0.03, reason); ok {
			out = append(out, adj)
		}
		return out
	}

	isWallrunFeedback := strings.Contains(text, "wallrun") || strings.Contains(text, "wall run")
	if !isWallrunFeedback {
		return out
	}

	switch {
	case strings.Contains(text, "curved wallrun"):
		if adj, ok := absAdjust(t, "wallrun_sink_t90", 0.15, "feedback: curved wallrun doesn't work"); ok {
			out = append(out, adj)
		}
		if adj, ok := absAdjust(t, "wallrun_min_approach_dot", -0.03, "feedback: curved wallrun doesn't work"); ok {
			out = append(out, adj)
		}
		if adj, ok := absAdjust(t, "wallrun_min_parallel_dot", -0.05, "feedback: curved wallrun doesn't work"); ok {
			out = append(out, adj)
		}

	case strings.Contains(text, "aggressive") || strings.Contains(text, "too easily") || strings.Contains(text, "triggers too easily"):
		if adj, ok := absAdjust(t, "wallrun_min_entry_speed_mult", 0.10, "feedback: wallrun too aggressive"); ok {
			out = append(out, adj)
		}
		if adj, ok := absAdjust(t, "wallrun_min_approach_dot", 0.10, "feedback: wallrun too aggressive"); ok {
			out = append(out, adj)
		}
		if adj, ok := absAdjust(t, "wallrun_min_parallel_dot", 0.10, "feedback: wallrun too aggressive"); ok {
			out = append(out, adj)
		}

	case strings.Contains(text, "doesnt work"), strings.Contains(text, "doesn't work"),
		strings.Contains(text, "not work"), strings.Contains(text, "not engaging"):
		if adj, ok := absAdjust(t, "wallrun_sink_t90", 0.15, "feedback: wallrun not engaging"); ok {
			out = append(out, adj)
		}
		if adj, ok := absAdjust(t, "wallrun_min_entry_speed_mult", -0.10, "feedback: wallrun not engaging"); ok {
			out = append(out, adj)
		}
	}

	return out
}
