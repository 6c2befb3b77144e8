package main

import (
	"github.com/spf13/cobra"
)

// newRootCmd 创建根命令.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cronkit",
		Short: "Second-resolution cron scheduler with single-flight task locking",
		Long: `cronkit evaluates six-field cron expressions (second minute hour
day-of-month month day-of-week) once per second and runs the tasks that are
due. Each task is guarded by a mutex so it never overlaps with itself, also
across instances when a Redis lock is configured.

Run the daemon:
  cronkit run --config cronkit.yaml

Inspect an expression:
  cronkit check "0 */5 9-17 * * 1-5" --count 5`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newRunCmd(),
		newCheckCmd(),
		newValidateCmd(),
	)
	return root
}
