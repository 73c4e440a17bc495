package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/engramdev/engram/internal/engine"
	"github.com/engramdev/engram/internal/store"
	"github.com/spf13/cobra"
)

var (
	rememberCategory   string
	rememberProject    string
	rememberImportance float64
	rememberConfidence float64
	rememberTags       []string
	rememberContext    string
	rememberSession    string
)

var rememberCmd = &cobra.Command{
	Use:   "remember [content]",
	Short: "Store a new memory",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer db.Close()

		eng := engine.New(db, nil)
		m, err := eng.Remember(engine.RememberParams{
			Content:    strings.Join(args, " "),
			Category:   rememberCategory,
			Project:    rememberProject,
			Importance: rememberImportance,
			Confidence: rememberConfidence,
			Tags:       rememberTags,
			Context:    rememberContext,
			Session:    rememberSession,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Stored memory #%d [%s] (importance=%.2f, confidence=%.2f)\n",
			m.ID, m.Category, m.Importance, m.Confidence)
		return nil
	},
}

var (
	recallCategory string
	recallProject  string
	recallLimit    int
	recallAll      bool
)

var recallCmd = &cobra.Command{
	Use:   "recall [query]",
	Short: "Search memories by full-text query",
	Long:  "Search memories by keyword. Supports FTS5 syntax: AND, OR, NOT, \"exact phrase\".",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer db.Close()

		eng := engine.New(db, nil)
		hits, err := eng.Recall(strings.Join(args, " "), engine.RecallOpts{
			Category:        recallCategory,
			Project:         recallProject,
			Limit:           recallLimit,
			IncludeInactive: recallAll,
		})
		if err != nil {
			return err
		}
		if len(hits) == 0 {
			fmt.Println("No memories found matching that query.")
			return nil
		}
		for _, h := range hits {
			printMemory(&h.Memory)
		}
		return nil
	},
}

var (
	listCategory string
	listProject  string
	listLimit    int
	listSort     string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List active memories",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer db.Close()

		memories, err := db.ListMemories(store.ListOpts{
			Category: listCategory,
			Project:  listProject,
			Sort:     listSort,
			Limit:    listLimit,
		})
		if err != nil {
			return err
		}
		if len(memories) == 0 {
			fmt.Println("No memories found.")
			return nil
		}
		for i := range memories {
			printMemory(&memories[i])
		}
		return nil
	},
}

var (
	correctReason  string
	correctSession string
)

var correctCmd = &cobra.Command{
	Use:   "correct [id] [new content]",
	Short: "Supersede a memory with corrected content",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q", args[0])
		}

		db, err := openDB()
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer db.Close()

		eng := engine.New(db, nil)
		replacement, err := eng.Correct(id, strings.Join(args[1:], " "), correctReason, correctSession)
		if err != nil {
			return err
		}
		fmt.Printf("Memory #%d superseded by #%d: %s\n", id, replacement.ID, replacement.Content)
		return nil
	},
}

var forgetCmd = &cobra.Command{
	Use:   "forget [id]",
	Short: "Retire a memory (soft delete)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q", args[0])
		}

		db, err := openDB()
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer db.Close()

		eng := engine.New(db, nil)
		m, err := eng.Forget(id)
		if err != nil {
			return err
		}
		fmt.Printf("Forgotten memory #%d: %s\n", m.ID, m.Content)
		return nil
	},
}

var relateType string

var relateCmd = &cobra.Command{
	Use:   "relate [from-id] [to-id]",
	Short: "Create a typed relation between two memories",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		fromID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q", args[0])
		}
		toID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q", args[1])
		}

		db, err := openDB()
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer db.Close()

		eng := engine.New(db, nil)
		if err := eng.Relate(fromID, toID, relateType); err != nil {
			return err
		}
		fmt.Printf("Linked #%d --%s--> #%d\n", fromID, relateType, toID)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show memory store statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer db.Close()

		stats, err := db.CollectStats()
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, string(out))
		return nil
	},
}

func printMemory(m *store.Memory) {
	project := m.Project
	if project == "" {
		project = "global"
	}
	created := time.UnixMilli(m.CreatedAt).Format("2006-01-02")
	fmt.Printf("#%d [%s] (%s, imp=%.2f, conf=%.2f, accessed=%d, %s)\n    %s\n",
		m.ID, m.Category, project, m.Importance, m.Confidence, m.AccessCount, created, m.Content)
}

func init() {
	rememberCmd.Flags().StringVarP(&rememberCategory, "category", "c", "facts", "Memory category")
	rememberCmd.Flags().StringVarP(&rememberProject, "project", "p", "", "Project scope (empty = global)")
	rememberCmd.Flags().Float64Var(&rememberImportance, "importance", 0.5, "Importance in [0,1]")
	rememberCmd.Flags().Float64Var(&rememberConfidence, "confidence", 0.8, "Confidence in [0,1]")
	rememberCmd.Flags().StringSliceVarP(&rememberTags, "tag", "t", nil, "Keyword tags (repeatable)")
	rememberCmd.Flags().StringVar(&rememberContext, "context", "", "Where/when this was learned")
	rememberCmd.Flags().StringVar(&rememberSession, "session", "", "Source session id")

	recallCmd.Flags().StringVarP(&recallCategory, "category", "c", "", "Filter by category")
	recallCmd.Flags().StringVarP(&recallProject, "project", "p", "", "Filter by project (includes global)")
	recallCmd.Flags().IntVarP(&recallLimit, "limit", "n", 10, "Maximum number of results")
	recallCmd.Flags().BoolVar(&recallAll, "all", false, "Include superseded and retired memories")

	listCmd.Flags().StringVarP(&listCategory, "category", "c", "", "Filter by category")
	listCmd.Flags().StringVarP(&listProject, "project", "p", "", "Filter by project (includes global)")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 20, "Maximum number of results")
	listCmd.Flags().StringVar(&listSort, "sort", "score", "Sort order: score, recency, importance, accessed")

	correctCmd.Flags().StringVar(&correctReason, "reason", "", "Why this correction was made")
	correctCmd.Flags().StringVar(&correctSession, "session", "", "Source session id")

	relateCmd.Flags().StringVarP(&relateType, "type", "t", "supports", "Relation type: contradicts, supports, refines, supersedes")
}
