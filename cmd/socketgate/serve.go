package main

import (
	"fmt"
	"os"

	"github.com/artpar/socketgate/bootstrap"
	"github.com/artpar/socketgate/config"
	"github.com/spf13/cobra"
)

var (
	hotReload bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the realtime gateway",
	Long: `Start the socketgate server.

The server will:
  - Load configuration from socketgate.yaml (or --config)
  - Or load configuration from SOCKETGATE_* environment variables
  - Load collection definitions and create their tables
  - Accept WebSocket connections and route action messages

Environment variables (for Docker deployments):
  SOCKETGATE_COLLECTIONS_DIR  - Collection definitions dir (required for env-only)
  SOCKETGATE_DATABASE_DSN     - Database path (default: socketgate.db)
  SOCKETGATE_SERVER_PORT      - Server port (default: 8080)
  SOCKETGATE_AUTH_SECRET      - JWT secret for connection tokens
  SOCKETGATE_LOG_LEVEL        - Log level: debug, info, warn, error

Examples:
  socketgate serve
  socketgate serve --config /etc/socketgate/config.yaml
  socketgate serve --hot-reload=false`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&hotReload, "hot-reload", true, "enable hot reload of configuration")
}

func runServe(cmd *cobra.Command, args []string) error {
	hasConfigFile := false
	if _, err := os.Stat(cfgFile); err == nil {
		hasConfigFile = true
	}

	if !hasConfigFile && !config.HasEnvConfig() {
		fmt.Println("No configuration found.")
		fmt.Println()
		fmt.Printf("Option 1: Create %s\n", cfgFile)
		fmt.Println("Option 2: Set SOCKETGATE_COLLECTIONS_DIR environment variable")
		return nil
	}

	var app *bootstrap.App
	var err error

	if hasConfigFile && hotReload {
		// Hot reload only works with config file
		app, err = bootstrap.NewWithHotReload(cfgFile)
	} else {
		cfg, loadErr := config.LoadWithFallback(cfgFile)
		if loadErr != nil {
			return fmt.Errorf("error loading config: %w", loadErr)
		}

		if !hasConfigFile {
			fmt.Println("Running with environment variables (no config file)")
		}

		app, err = bootstrap.New(cfg)
	}

	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	// Run (blocks until shutdown)
	return app.Run()
}
