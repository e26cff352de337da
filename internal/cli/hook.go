package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/HendryAvila/recall/internal/hooks"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(hookCmd)
}

var hookCmd = &cobra.Command{
	Use:   "hook <kind>",
	Short: "Process one hook event from stdin (called by the AI host)",
	Long: `Reads a JSON hook payload from stdin and records it in project memory.
Hooks are fail-open: they exit 0 even on error so the coding session is
never interrupted.

Kinds: ` + strings.Join(hookKinds(), ", "),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := args[0]
		handler, ok := hooks.Handlers[kind]
		if !ok {
			// The one case that exits non-zero: a miswired hook config
			// should be visible during setup, not silently ignored.
			return fmt.Errorf("unknown hook kind %q (want one of: %s)", kind, strings.Join(hookKinds(), ", "))
		}
		os.Exit(hooks.Run(kind, os.Stdin, os.Stdout, handler))
		return nil
	},
}

func hookKinds() []string {
	kinds := make([]string, 0, len(hooks.Handlers))
	for k := range hooks.Handlers {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
