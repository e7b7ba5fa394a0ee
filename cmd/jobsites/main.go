// Command jobsites looks up job portals for a country or a coordinate pair.
//
// Results come from the local cache, the job sites API or the bundled
// fallback table, in that order. A cached answer is printed at once and
// re-checked against the API; a changed answer is printed again as an update.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"relocation/internal/env"
	"relocation/internal/logger"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "jobsites",
		Short:         "Find job portals for where you want to work",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			env.LoadEnv()
		},
	}

	rootCmd.PersistentFlags().String("store", "", "store URL (default $JOBSITES_STORE or "+env.DefaultStore+")")
	rootCmd.PersistentFlags().StringP("output", "o", "text", "output format: text or json")

	rootCmd.AddCommand(
		newResolveCmd(),
		newHistoryCmd(),
		newCacheCmd(),
		newRegionsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		logger.GetLogger().Error(err)
		os.Exit(1)
	}
}
