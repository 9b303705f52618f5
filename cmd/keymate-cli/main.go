package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "1.0.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "keymate-cli",
	Short: "KeyMate CLI - check LLM provider API keys from the terminal",
	Long: `keymate-cli validates API keys and inspects model ids without the dashboard.

The key is read from an environment variable or from stdin, never from
the command line, and only its masked form is printed.

Examples:
  KEYMATE_API_KEY=sk-... keymate-cli check
  echo "$KEY" | keymate-cli check --provider groq --stdin --models
  keymate-cli inspect claude-3-5-sonnet-20241022
  keymate-cli inspect gpt-4o gpt-4o-mini
  keymate-cli providers`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(providersCmd)

	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
}
