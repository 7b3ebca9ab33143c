package main

import (
	"github.com/spf13/cobra"

	"github.com/DarlingtonDeveloper/CanvasBabel/config"
	"github.com/DarlingtonDeveloper/CanvasBabel/serve"
)

var (
	serveConfig string
	servePort   int
	serveStore  string
	serveDB     string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveConfig, "config", "c", "", "YAML config file")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to serve on (default 8080)")
	serveCmd.Flags().StringVar(&serveStore, "store", "", "Bookmark store: sqlite or memory")
	serveCmd.Flags().StringVar(&serveDB, "db", "", "SQLite database path")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the CanvasBabel HTTP and WebSocket server",
	Long: `Starts the API server with the WebSocket event feed.

Settings come from the config file, then CANVASBABEL_* environment
variables, then flags.

Example:
  canvasbabel serve                       # port 8080, ~/.canvasbabel/bookmarks.db
  canvasbabel serve -p 3000 --store memory
  canvasbabel serve -c canvasbabel.yaml`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := serveSettings()
	if err != nil {
		return err
	}
	return serve.Run(cmdContext(cmd), cfg)
}

// serveSettings loads the config and applies flag overrides.
func serveSettings() (*config.Config, error) {
	cfg, err := config.Load(serveConfig)
	if err != nil {
		return nil, err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}
	if serveStore != "" {
		cfg.Store.Driver = serveStore
	}
	if serveDB != "" {
		cfg.Store.Path = serveDB
	}
	if cfg.Store.Driver == "sqlite" && cfg.Store.Path == "" {
		cfg.Store.Path = config.DefaultDBPath()
	}
	return cfg, cfg.Validate()
}
