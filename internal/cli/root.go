// Package cli implements the lare-hpa command tree, following the
// teacher's cobra usage (internal/cli/agent.go: init()-registered
// subcommands, cobra.Command{Use,Short,Long,RunE}) with a root command the
// retrieved teacher tree didn't itself include.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lare-hpa",
	Short: "Adaptive horizontal autoscaler controller",
	Long: `lare-hpa runs an adaptive horizontal autoscaler for one Kubernetes
workload: an online ARIMA forecaster tracks request volume, a threshold
coordinator adjusts the target CPU utilization to match observed
volatility, and a stabilization window coordinator tunes how long a
scale-down must cool down before it is permitted.`,
}

// Execute runs the command tree, returning the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
