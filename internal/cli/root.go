package cli

import (
	"os"

	"github.com/engramdev/engram/internal/store"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "engram",
	Short: "Persistent memory for AI coding agents",
	Long:  "Engram keeps a long-lived store of short memories with decay, deduplication, and correction chains. Single Go binary.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(rememberCmd)
	rootCmd.AddCommand(recallCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(correctCmd)
	rootCmd.AddCommand(forgetCmd)
	rootCmd.AddCommand(relateCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(consolidateCmd)
	rootCmd.AddCommand(surfaceCmd)
	rootCmd.AddCommand(extractCmd)
}

// openDB is a helper that opens the database for CLI commands.
func openDB() (*store.DB, error) {
	dbPath := os.Getenv("ENGRAM_DB")
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, err
		}
	}
	return store.Open(dbPath)
}
