package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ivan-motion/core/autotune"
	"github.com/ivan-motion/core/ivanlog"
)

var autotuneCmd = &cobra.Command{
	Use:   "autotune",
	Short: "Suggest, apply, evaluate, and roll back tuning adjustments",
}

var autotuneSuggestCmd = &cobra.Command{
	Use:   "suggest <route_tag> <feedback_text>",
	Short: "Print the bounded invariant adjustments feedback_text would suggest",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		configureLogging()
		routeTag, feedback := args[0], args[1]
		ivanlog.StageStart("autotune-suggest", nil)

		tuning, err := loadTuning()
		if err != nil {
			return err
		}
		history, err := routeHistory(outDir, routeTag)
		if err != nil {
			return err
		}
		latest, _, err := latestAndReference(outDir, routeTag)
		if err != nil {
			// No exported summary yet is not fatal for suggest: phrase
			// rules and history-only rules still apply.
			adjustments := autotune.Suggest(feedback, tuning, nil, history)
			return printAdjustments(adjustments)
		}
		adjustments := autotune.Suggest(feedback, tuning, &latest, history)
		ivanlog.StageDone("autotune-suggest", nil)
		return printAdjustments(adjustments)
	},
}

var autotuneApplyCmd = &cobra.Command{
	Use:   "apply <route_tag> <feedback_text>",
	Short: "Suggest adjustments for feedback_text and write them onto the live tuning, backing it up first",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		configureLogging()
		routeTag, feedback := args[0], args[1]
		ivanlog.StageStart("autotune-apply", nil)

		tuning, err := loadTuning()
		if err != nil {
			return err
		}
		history, _ := routeHistory(outDir, routeTag)
		adjustments := autotune.Suggest(feedback, tuning, nil, history)
		if len(adjustments) == 0 {
			fmt.Println("no adjustments suggested, nothing applied")
			return nil
		}

		updated, handle, err := autotune.Apply(backupDir, tuning, routeTag, adjustments, unixNanoNow(), onTuningChangeLog)
		if err != nil {
			return err
		}
		if err := saveTuning(updated); err != nil {
			return err
		}
		ivanlog.StageDone("autotune-apply", nil)
		fmt.Printf("backup: %s\n", handle.Path)
		return printAdjustments(adjustments)
	},
}

var autotuneEvalCmd = &cobra.Command{
	Use:   "eval <route_tag>",
	Short: "Score the route's latest export against its prior export using the fixed guardrail checks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configureLogging()
		routeTag := args[0]
		ivanlog.StageStart("autotune-eval", nil)

		latest, reference, err := latestAndReference(outDir, routeTag)
		if err != nil {
			return err
		}
		result := autotune.EvaluateGuardrails(routeTag, latest, reference, unixNanoNowSeconds())
		ivanlog.StageDone("autotune-eval", nil)

		payload, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(payload))
		if !result.Passed {
			return fmt.Errorf("ivanctl: guardrails failed for route %q", routeTag)
		}
		return nil
	},
}

var autotuneRollbackCmd = &cobra.Command{
	Use:   "rollback [backup_ref]",
	Short: "Restore a backup (or the newest one) onto the live tuning",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configureLogging()
		ref := ""
		if len(args) == 1 {
			ref = args[0]
		}
		ivanlog.StageStart("autotune-rollback", nil)

		tuning, err := loadTuning()
		if err != nil {
			return err
		}
		restored, handle, err := autotune.Rollback(backupDir, tuning, ref, onTuningChangeLog)
		if err != nil {
			return err
		}
		if err := saveTuning(restored); err != nil {
			return err
		}
		ivanlog.StageDone("autotune-rollback", nil)
		fmt.Printf("restored: %s\n", handle.Path)
		return nil
	},
}

func printAdjustments(adjustments []autotune.Adjustment) error {
	payload, err := json.MarshalIndent(adjustments, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(payload))
	return nil
}

func init() {
	autotuneCmd.AddCommand(autotuneSuggestCmd)
	autotuneCmd.AddCommand(autotuneApplyCmd)
	autotuneCmd.AddCommand(autotuneEvalCmd)
	autotuneCmd.AddCommand(autotuneRollbackCmd)
}
