package cli

import (
	"github.com/spf13/cobra"

	"github.com/promptshield/promptshield/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "promptshield",
	Short: "PromptShield - Guardrails for LLM inputs and outputs",
	Long: `PromptShield screens text flowing into and out of LLMs through a
configurable pipeline of validators. Prompt injection and toxic content
are blocked, PII is redacted in place, and oversized or malformed
payloads are caught before they reach the model.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigFile,
		"Path to pipeline config YAML")
}

func Execute() error {
	return rootCmd.Execute()
}
