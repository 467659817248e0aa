package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ivan-motion/core/ivanlog"
	"github.com/ivan-motion/core/replay"
)

// resolveDemoPath lets callers pass either a full path or a bare demo
// name (looked up under --demo-dir).
func resolveDemoPath(ref string) string {
	if _, err := os.Stat(ref); err == nil {
		return ref
	}
	return filepath.Join(demoDir, ref)
}

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Export and compare recorded demo telemetry",
}

var (
	replayRouteTag string
	replayComment  string
)

var replayExportCmd = &cobra.Command{
	Use:   "export <demo>",
	Short: "Export a recorded demo's per-tick CSV and summary JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configureLogging()
		demoPath := resolveDemoPath(args[0])
		ivanlog.StageStart("replay-export", nil)

		export, err := replay.ExportTelemetry(demoPath, outDir, replayRouteTag, replayComment, unixNanoNowSeconds())
		if err != nil {
			return err
		}
		ivanlog.StageDone("replay-export", nil)
		fmt.Printf("csv: %s\nsummary: %s\nticks: %d (telemetry on %d)\n", export.CSVPath, export.SummaryPath, export.TickCount, export.TelemetryTickCount)
		return nil
	},
}

var replayCompareCmd = &cobra.Command{
	Use:   "compare <route_tag>",
	Short: "Compare a route's latest export against the one before it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configureLogging()
		routeTag := args[0]
		ivanlog.StageStart("replay-compare", nil)

		latest, reference, err := latestAndReference(outDir, routeTag)
		if err != nil {
			return err
		}
		createdAt := unixNanoNowSeconds()
		comparison := replay.CompareSummaries(latest, reference, routeTag, createdAt)

		path := outDir + "/" + routeTag + ".compare.json"
		if err := replay.WriteComparison(path, comparison); err != nil {
			return err
		}
		ivanlog.StageDone("replay-compare", nil)
		fmt.Printf("comparison: %s (improved=%d regressed=%d equal=%d)\n", path, comparison.ImprovedCount, comparison.RegressedCount, comparison.EqualCount)
		return nil
	},
}

func init() {
	replayExportCmd.Flags().StringVar(&replayRouteTag, "route", "", "Route tag to stamp onto this export")
	replayExportCmd.Flags().StringVar(&replayComment, "comment", "", "Free-text note to stamp onto this export's history entry")

	replayCmd.AddCommand(replayExportCmd)
	replayCmd.AddCommand(replayCompareCmd)
}
