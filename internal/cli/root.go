package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "effortmap",
	Short: "Effort allocation dashboard with Slack integration",
	Long: `effortmap tracks how effort is split across workstreams.

Create effort graphs through the API or the Slack bot, share them with
stable links, and serve rendered pie charts with blob-level caching.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
