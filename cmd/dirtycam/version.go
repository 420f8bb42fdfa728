package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"go-dirtycam/internal/transport"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "dirtycam version %s\n", version)
	},
}

func init() {
	transport.Version = version
	rootCmd.AddCommand(versionCmd)
}
