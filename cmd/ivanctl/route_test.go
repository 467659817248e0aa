package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ivan-motion/core/replay"
)

func writeSummaryFixture(t *testing.T, dir, name, routeTag string, exportedAt, speed float64) {
	t.Helper()
	summary := replay.Summary{
		FormatVersion: 3,
		Metrics:       map[string]float64{"horizontal_speed_avg": speed},
		ExportMetadata: map[string]any{
			"route_tag":        routeTag,
			"exported_at_unix": exportedAt,
		},
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), payload, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestRouteSummariesFiltersByTagAndSortsOldestFirst(t *testing.T) {
	dir := t.TempDir()
	writeSummaryFixture(t, dir, "a1.summary.json", "A", 2.0, 110)
	writeSummaryFixture(t, dir, "a2.summary.json", "A", 1.0, 100)
	writeSummaryFixture(t, dir, "b1.summary.json", "B", 3.0, 999)

	entries, err := routeSummaries(dir, "A")
	if err != nil {
		t.Fatalf("routeSummaries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].ExportedAtUnix != 1.0 || entries[1].ExportedAtUnix != 2.0 {
		t.Fatalf("entries not sorted oldest-first: %+v", entries)
	}
}

func TestLatestAndReferenceFallsBackToSameEntryWhenOnlyOneExists(t *testing.T) {
	dir := t.TempDir()
	writeSummaryFixture(t, dir, "only.summary.json", "A", 1.0, 100)

	latest, reference, err := latestAndReference(dir, "A")
	if err != nil {
		t.Fatalf("latestAndReference: %v", err)
	}
	if latest.Metrics["horizontal_speed_avg"] != reference.Metrics["horizontal_speed_avg"] {
		t.Fatalf("expected latest and reference to be the same single entry")
	}
}

func TestLatestAndReferenceMissingRouteReturnsError(t *testing.T) {
	dir := t.TempDir()
	if _, _, err := latestAndReference(dir, "missing"); err == nil {
		t.Fatalf("expected replay.ErrRouteContextMissing for an unknown route tag")
	}
}

func TestRouteHistoryBuildsFromMatchingExports(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 4; i++ {
		writeSummaryFixture(t, dir, "h"+string(rune('0'+i))+".summary.json", "A", float64(i), 100+float64(i))
	}

	history, err := routeHistory(dir, "A")
	if err != nil {
		t.Fatalf("routeHistory: %v", err)
	}
	if len(history.Entries) != 4 {
		t.Fatalf("len(history.Entries) = %d, want 4", len(history.Entries))
	}
}
