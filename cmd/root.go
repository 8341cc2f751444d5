package cmd

import (
	"github.com/spf13/cobra"
)

var rootDir string

func init() {
	RootCmd.AddCommand(InitCmd)
	RootCmd.AddCommand(RunCmd)
	RootCmd.AddCommand(KeysCmd)
	RootCmd.AddCommand(TxCmd)
	RootCmd.PersistentFlags().StringVar(&rootDir, "home", "./tmhome", "Home directory of the surety node")
}

var RootCmd = cobra.Command{
	Use:          "surety-node",
	Short:        "Flight delay insurance node",
	SilenceUsage: true,
}
