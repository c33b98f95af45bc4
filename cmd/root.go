package cmd

import (
	"os"

	"github.com/LanXuage/arpscanner/common/constant"
	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "arpscanner",
		Short: "An ARP host discovery scanner. ",
		Long: `ARPScanner
    ___    ____  ____
   /   |  / __ \/ __ \ ______________ _____  ____  ___  _____
  / /| | / /_/ / /_/ // ___/ ___/ __ '/ __ \/ __ \/ _ \/ ___/
 / ___ |/ _, _/ ____/(__  ) /__/ /_/ / / / / / / /  __/ /
/_/  |_/_/ |_/_/    /____/\___/\__,_/_/ /_/_/ /_/\___/_/
https://github.com/LanXuage/arpscanner

Discover the hosts of a local ethernet segment with ARP. `,
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				os.Setenv(constant.LOG_LEVEL_ENV, constant.LOG_LEVEL_DEV)
			} else {
				os.Setenv(constant.LOG_LEVEL_ENV, constant.LOG_LEVEL_PRD)
			}
		},
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolP("debug", "D", false, "set debug log level")
	rootCmd.PersistentFlags().BoolP("help", "H", false, "help for this command")
	rootCmd.PersistentFlags().BoolP("version", "V", false, "version for arpscanner")
	rootCmd.PersistentFlags().Int64P("timeout", "T", constant.COLLECT_TIMEOUT.Milliseconds(), "collection window in milliseconds")
}
