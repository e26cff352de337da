package cli

import (
	"fmt"
	"os"

	"github.com/HendryAvila/recall/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configShowCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and change project configuration",
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config key in .recall/config.json",
	Long: `Sets one key in the project config file. Keys use dotted paths:

  llm.provider   External distillation provider (empty or "heuristic" disables it)
  llm.model      Model name for distillation
  llm.api_key    API key for the provider
  llm.base_url   Override endpoint (OpenAI-compatible)`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectDir, err := os.Getwd()
		if err != nil {
			return err
		}
		if err := config.Set(projectDir, args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("set %s\n", args[0])
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		projectDir, err := os.Getwd()
		if err != nil {
			return err
		}
		cfg, err := config.Load(projectDir)
		if err != nil {
			return err
		}
		fmt.Printf("llm.provider: %s\n", cfg.LLM.Provider)
		fmt.Printf("llm.model:    %s\n", cfg.LLM.Model)
		fmt.Printf("llm.api_key:  %s\n", maskKey(cfg.LLM.APIKey))
		fmt.Printf("llm.base_url: %s\n", cfg.LLM.BaseURL)
		fmt.Printf("external distillation: %v\n", cfg.ExternalEnabled())
		return nil
	},
}

func maskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
