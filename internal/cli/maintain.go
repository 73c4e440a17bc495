package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/engramdev/engram/internal/config"
	"github.com/engramdev/engram/internal/digest"
	"github.com/engramdev/engram/internal/engine"
	"github.com/engramdev/engram/internal/llm"
	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"
)

var consolidateCmd = &cobra.Command{
	Use:   "consolidate",
	Short: "Run a consolidation sweep (decay, retirement, deduplication)",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer db.Close()

		eng := engine.New(db, nil)
		stats, err := eng.Sweep(time.Now())
		if err != nil {
			return err
		}
		fmt.Printf("Sweep complete: decayed %d, retired %d, merged %d\n",
			stats.Decayed, stats.Retired, stats.Merged)
		return nil
	},
}

var (
	surfaceProject  string
	surfaceOut      string
	surfaceMaxLines int
)

var surfaceCmd = &cobra.Command{
	Use:   "surface",
	Short: "Render the top-scored memories as a markdown digest",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer db.Close()

		eng := engine.New(db, nil)
		view, err := eng.Surface(engine.SurfaceOpts{Project: surfaceProject}, time.Now())
		if err != nil {
			return err
		}

		doc := digest.Render(view, surfaceMaxLines)
		if surfaceOut == "" {
			fmt.Print(doc)
			return nil
		}
		if err := os.WriteFile(surfaceOut, []byte(doc), 0644); err != nil {
			return fmt.Errorf("write digest: %w", err)
		}
		fmt.Fprintf(os.Stderr, "wrote %s\n", surfaceOut)
		return nil
	},
}

var (
	extractSession string
	extractProject string
)

var extractCmd = &cobra.Command{
	Use:   "extract [transcript-path]",
	Short: "Extract memories from a session transcript (best effort)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath, err := config.DefaultPath()
		if err != nil {
			return err
		}
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}

		client, err := llm.NewClient(cfg.LLM)
		if err != nil {
			return fmt.Errorf("llm: %w", err)
		}

		db, err := openDB()
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer db.Close()

		sessionID := extractSession
		if sessionID == "" {
			sessionID = ulid.Make().String()
		}

		ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
		defer cancel()

		eng := engine.New(db, client)
		if err := eng.ExtractSession(ctx, sessionID, args[0], extractProject); err != nil {
			// Extraction is best-effort; report but do not fail the CLI.
			fmt.Fprintf(os.Stderr, "extraction skipped: %v\n", err)
			return nil
		}
		eng.RunSweep()
		return nil
	},
}

func init() {
	surfaceCmd.Flags().StringVarP(&surfaceProject, "project", "p", "", "Current project for the project section")
	surfaceCmd.Flags().StringVarP(&surfaceOut, "out", "o", "", "Write digest to a file instead of stdout")
	surfaceCmd.Flags().IntVar(&surfaceMaxLines, "max-lines", digest.DefaultMaxLines, "Maximum digest lines")

	extractCmd.Flags().StringVar(&extractSession, "session", "", "Session id (generated if empty)")
	extractCmd.Flags().StringVarP(&extractProject, "project", "p", "", "Project scope for extracted memories")
}
