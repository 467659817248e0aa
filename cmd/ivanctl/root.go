package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/ivan-motion/core/ivanlog"
	"github.com/ivan-motion/core/physics"
)

var (
	logLevel   string
	tuningPath string
	backupDir  string
	outDir     string
	demoDir    string
)

var rootCmd = &cobra.Command{
	Use:   "ivanctl",
	Short: "Offline tooling over IVAN motion tuning, replays, and autotune",
}

// Execute runs the root command, exiting non-zero on any error per
// spec.md §6's "0 on success, non-zero on invalid route/args".
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&tuningPath, "tuning", "tuning.toml", "Path to the authored tuning TOML file")
	rootCmd.PersistentFlags().StringVar(&backupDir, "backup-dir", "backups", "Directory tuning backups are written to/restored from")
	rootCmd.PersistentFlags().StringVar(&outDir, "out-dir", "exports", "Directory telemetry/compare artifacts are written to")
	rootCmd.PersistentFlags().StringVar(&demoDir, "demo-dir", "demos", "Directory recorded demos are read from")

	rootCmd.AddCommand(autotuneCmd)
	rootCmd.AddCommand(replayCmd)
}

func configureLogging() {
	ivanlog.Configure(logLevel)
}

// loadTuning reads the authored tuning file at tuningPath, falling
// back to the engine default when the file does not exist yet.
func loadTuning() (physics.Tuning, error) {
	t := physics.NewDefaultTuning()
	raw, err := os.ReadFile(tuningPath)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return physics.Tuning{}, fmt.Errorf("reading tuning file %s: %w", tuningPath, err)
	}
	var snap map[string]any
	if _, err := toml.Decode(string(raw), &snap); err != nil {
		return physics.Tuning{}, fmt.Errorf("decoding tuning file %s: %w", tuningPath, err)
	}
	t.FromMap(snap)
	t.Clamp()
	return t, nil
}

// saveTuning overwrites tuningPath with t's authored fields.
func saveTuning(t physics.Tuning) error {
	fh, err := os.Create(tuningPath)
	if err != nil {
		return fmt.Errorf("writing tuning file %s: %w", tuningPath, err)
	}
	defer fh.Close()
	enc := toml.NewEncoder(fh)
	return enc.Encode(t.AsMap())
}

// onTuningChangeLog is the CLI's OnTuningChange callback: it only
// logs, since cmd/ivanctl has no live MotionConfig to re-derive (that
// happens inside a running controller, out of this CLI's scope).
func onTuningChangeLog(field string) {
	ivanlog.FieldChanged(field)
}
