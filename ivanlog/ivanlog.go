// Package ivanlog is the CLI's only logging surface: a thin
// github.com/sirupsen/logrus wrapper. The simulation core
// (controller, physics, collision, vmath, intent) never imports this
// package or logrus directly.
package ivanlog

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Configure sets the process-wide logrus level from a CLI-style level
// name (debug, info, warn, error). Invalid names are a Fatalf, the way
// inference-sim's root command treats an unparseable --log flag.
func Configure(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.Fatalf("ivanlog: invalid log level %q", level)
	}
	logrus.SetLevel(lvl)
	logrus.SetOutput(os.Stderr)
}

// StageStart logs the beginning of one offline pipeline stage (export,
// compare, suggest, apply, eval, rollback) at info level.
func StageStart(stage string, fields logrus.Fields) {
	logrus.WithFields(fields).Infof("%s: starting", stage)
}

// StageDone logs a stage's successful completion.
func StageDone(stage string, fields logrus.Fields) {
	logrus.WithFields(fields).Infof("%s: done", stage)
}

// Fatalf reports an unrecoverable CLI misuse and exits the process.
// Never called from the simulation core, only from cmd/ivanctl.
func Fatalf(format string, args ...any) {
	logrus.Fatalf(format, args...)
}

// FieldChanged logs one tuning field mutation at debug level, the CLI
// side of the OnTuningChange callback contract.
func FieldChanged(field string) {
	logrus.Debugf("tuning field changed: %s", field)
}
