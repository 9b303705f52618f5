package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"keymate/modelid"
	"keymate/provider"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <model-id> [other-model-id]",
	Short: "Inspect a model id offline, or compare two",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runInspect,
}

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List supported providers",
	Args:  cobra.NoArgs,
	RunE:  runProviders,
}

var inspectJSON bool

func init() {
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "Print JSON instead of text")
}

func runInspect(cmd *cobra.Command, args []string) error {
	setColor(cmd)
	out := cmd.OutOrStdout()

	if len(args) == 2 {
		comparison := modelid.Compare(args[0], args[1])
		if inspectJSON {
			return writeJSON(out, comparison)
		}
		printInsight(out, comparison.A)
		fmt.Fprintln(out)
		printInsight(out, comparison.B)
		fmt.Fprintln(out)
		if len(comparison.Differences) == 0 {
			color.New(color.FgGreen).Fprintln(out, "No differences")
			return nil
		}
		heading := color.New(color.Bold)
		heading.Fprintln(out, "Differences")
		for _, d := range comparison.Differences {
			fmt.Fprintf(out, "  %-16s %-24s %s\n", d.Field, orDash(d.A), orDash(d.B))
		}
		return nil
	}

	insight := modelid.Inspect(args[0])
	if inspectJSON {
		return writeJSON(out, insight)
	}
	printInsight(out, insight)
	return nil
}

func printInsight(out io.Writer, insight modelid.Insight) {
	color.New(color.FgCyan, color.Bold).Fprintln(out, insight.ID)
	fmt.Fprintf(out, "  Provider: %s\n", provider.Badge(insight.Provider))
	fmt.Fprintf(out, "  Type:     %s\n", insight.Type)
	fmt.Fprintf(out, "  Family:   %s\n", orDash(insight.Parts.Family))
	fmt.Fprintf(out, "  Version:  %s\n", orDash(insight.Parts.Version))
	fmt.Fprintf(out, "  Suffix:   %s\n", orDash(insight.Parts.Suffix))
	if ref := insight.Reference; ref != nil {
		fmt.Fprintf(out, "  Context:  %d\n", ref.ContextLength)
		fmt.Fprintf(out, "  Created:  %s\n", ref.Created)
		fmt.Fprintf(out, "  Features: %s\n", strings.Join(ref.Capabilities, ", "))
		fmt.Fprintf(out, "  %s\n", ref.Description)
	}
}

func runProviders(cmd *cobra.Command, args []string) error {
	setColor(cmd)
	out := cmd.OutOrStdout()
	for _, info := range provider.Describe(provider.Config{}) {
		color.New(color.Bold).Fprintf(out, "%-10s", info.ID)
		fmt.Fprintf(out, " %-28s prefix=%-8s %s\n", info.Name, orDash(info.KeyPrefix), info.BaseURL)
	}
	return nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
