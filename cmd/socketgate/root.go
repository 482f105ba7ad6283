package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "socketgate",
	Short: "Realtime CRUD gateway for schema-defined collections over WebSockets",
	Long: `socketgate serves create/read/update/delete operations on declarative
data collections over persistent WebSocket connections.

Clients send typed action messages naming a collection and an action;
the gateway validates collection visibility, performs the operation and
pushes exactly one structured reply back over the same connection.

Quick start:
  socketgate validate   # Check config and collection definitions
  socketgate serve      # Start the gateway`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "socketgate.yaml", "config file path")
}
