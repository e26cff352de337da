package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/HendryAvila/recall/internal/hooks"
	"github.com/HendryAvila/recall/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show memory statistics for the current project",
	RunE: func(cmd *cobra.Command, args []string) error {
		projectDir, err := os.Getwd()
		if err != nil {
			return err
		}

		if hooks.Disabled() {
			fmt.Println("recall is DISABLED (run `recall enable` to resume)")
		}

		s, err := store.Open(store.DefaultConfig(projectDir))
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer func() { _ = s.Close() }()

		stats, err := s.GetStats()
		if err != nil {
			return err
		}

		fmt.Printf("Sessions:  %d\n", stats.Sessions)
		fmt.Printf("Turns:     %d%s\n", stats.Turns, kindBreakdown(stats.TurnsByKind))
		symKinds, _ := s.SymbolCountsByKind()
		fmt.Printf("Symbols:   %d across %d files%s\n", stats.Symbols, stats.IndexedFiles, kindBreakdown(symKinds))
		fmt.Printf("Knowledge: %d entries\n", stats.Knowledge)

		if sample, err := s.SearchSymbols("", "", "", 5); err == nil && len(sample) > 0 {
			fmt.Println("\nSample symbols:")
			for _, sym := range sample {
				fmt.Printf("  %s (%s) %s:%d-%d\n",
					sym.Name, sym.Kind, sym.FilePath, sym.StartLine, sym.EndLine)
			}
		}

		activity, err := s.RecentHookActivity(10)
		if err == nil && len(activity) > 0 {
			fmt.Println("\nRecent hook activity:")
			for _, a := range activity {
				status := "ok"
				if !a.OK {
					status = "FAILED: " + a.Detail
				}
				fmt.Printf("  %s  %-14s %s\n", a.CreatedAt, a.Hook, status)
			}
		}
		return nil
	},
}

func kindBreakdown(byKind map[string]int) string {
	if len(byKind) == 0 {
		return ""
	}
	kinds := make([]string, 0, len(byKind))
	for k := range byKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	parts := make([]string, 0, len(kinds))
	for _, k := range kinds {
		parts = append(parts, fmt.Sprintf("%s: %d", k, byKind[k]))
	}
	return " (" + strings.Join(parts, ", ") + ")"
}
