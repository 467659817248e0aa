package replay

import (
	"errors"
	"sort"
)

// ErrRouteContextMissing is returned when a caller asks for telemetry
// history against a route tag that has no exported summary yet.
var ErrRouteContextMissing = errors.New("ivan: no telemetry summary for route")

// RouteEntry is one summary recorded against a route tag, in the
// order it was captured.
type RouteEntry struct {
	ExportedAtUnix float64
	Summary        Summary
}

// RouteHistory is the per-route ordered summary history used by
// autotune to judge whether a suggested tuning change helped.
type RouteHistory struct {
	RouteTag string
	Entries  []RouteEntry
}

// Append records a new summary onto the route's history, in capture
// order (callers are expected to append in ExportedAtUnix order).
func (h *RouteHistory) Append(e RouteEntry) {
	h.Entries = append(h.Entries, e)
}

// MetricRank reports the latest entry's rank (1 = best) for metric
// key among the stored history, honoring the metric's preferred
// direction. Returns ok=false when fewer than 3 entries exist — the
// spec requires at least 3 before ranking is meaningful.
func (h *RouteHistory) MetricRank(key string) (rank int, total int, ok bool) {
	if len(h.Entries) < 3 {
		return 0, 0, false
	}
	pref, known := metricPreferences[key]
	if !known {
		pref = "higher"
	}
	values := make([]float64, len(h.Entries))
	for i, e := range h.Entries {
		values[i] = metricValue(e.Summary, key)
	}
	latest := values[len(values)-1]

	sorted := append([]float64{}, values...)
	if pref == "higher" {
		sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
	} else {
		sort.Float64s(sorted)
	}
	for i, v := range sorted {
		if v == latest {
			return i + 1, len(sorted), true
		}
	}
	return 0, 0, false
}
