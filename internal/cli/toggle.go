package cli

import (
	"fmt"

	"github.com/HendryAvila/recall/internal/hooks"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(enableCmd)
	rootCmd.AddCommand(disableCmd)
}

var disableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Turn off all memory recording (global kill switch)",
	Long: `Writes the kill-switch marker to your home directory. While it exists,
every hook exits immediately without recording anything, across all
projects. No restart is needed in either direction.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := hooks.Disable(); err != nil {
			return err
		}
		fmt.Println("recall disabled. Run `recall enable` to resume recording.")
		return nil
	},
}

var enableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Turn memory recording back on",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := hooks.Enable(); err != nil {
			return err
		}
		fmt.Println("recall enabled.")
		return nil
	},
}
