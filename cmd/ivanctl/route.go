package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ivan-motion/core/replay"
)

// routeSummaries scans outDir for every *.summary.json export tagged
// with routeTag (via its export_metadata.route_tag), returning them
// oldest first.
func routeSummaries(outDir, routeTag string) ([]replay.RouteEntry, error) {
	entries, err := os.ReadDir(outDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing %s: %w", outDir, err)
	}

	var out []replay.RouteEntry
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".summary.json") {
			continue
		}
		path := filepath.Join(outDir, e.Name())
		summary, err := replay.LoadSummary(path)
		if err != nil {
			continue
		}
		tag, _ := summary.ExportMetadata["route_tag"].(string)
		if tag != routeTag {
			continue
		}
		exportedAt, _ := summary.ExportMetadata["exported_at_unix"].(float64)
		out = append(out, replay.RouteEntry{ExportedAtUnix: exportedAt, Summary: summary})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ExportedAtUnix < out[j].ExportedAtUnix })
	return out, nil
}

// routeHistory builds a replay.RouteHistory from every export tagged
// with routeTag under outDir.
func routeHistory(outDir, routeTag string) (*replay.RouteHistory, error) {
	entries, err := routeSummaries(outDir, routeTag)
	if err != nil {
		return nil, err
	}
	return &replay.RouteHistory{RouteTag: routeTag, Entries: entries}, nil
}

// latestAndReference returns the most recent export for routeTag as
// "latest" and the one before it as "reference". Both point at the
// same summary when only one export exists yet.
func latestAndReference(outDir, routeTag string) (latest, reference replay.Summary, err error) {
	entries, err := routeSummaries(outDir, routeTag)
	if err != nil {
		return replay.Summary{}, replay.Summary{}, err
	}
	if len(entries) == 0 {
		return replay.Summary{}, replay.Summary{}, fmt.Errorf("%w: %s", replay.ErrRouteContextMissing, routeTag)
	}
	latest = entries[len(entries)-1].Summary
	reference = latest
	if len(entries) >= 2 {
		reference = entries[len(entries)-2].Summary
	}
	return latest, reference, nil
}
