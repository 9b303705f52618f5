package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"keymate/provider"
)

var errKeyInvalid = errors.New("API key is not valid")

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate an API key",
	Long: `Validate an API key against one provider, or detect the provider from the key.

The key comes from the variable named by --key-env (default KEYMATE_API_KEY),
or from the first line of stdin with --stdin. The exit status is 1 for an
invalid key.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

var (
	checkProvider string
	checkKeyEnv   string
	checkStdin    bool
	checkModels   bool
	checkTimeout  time.Duration
	checkBaseURL  string
)

func init() {
	checkCmd.Flags().StringVar(&checkProvider, "provider", "auto", "Provider id, or auto to detect")
	checkCmd.Flags().StringVar(&checkKeyEnv, "key-env", "KEYMATE_API_KEY", "Environment variable holding the key")
	checkCmd.Flags().BoolVar(&checkStdin, "stdin", false, "Read the key from stdin")
	checkCmd.Flags().BoolVar(&checkModels, "models", false, "List the models the key can see")
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 30*time.Second, "Request timeout")
	checkCmd.Flags().StringVar(&checkBaseURL, "base-url", "", "Override the provider base URL (requires --provider)")
}

func readKey(stdin io.Reader) (string, error) {
	if checkStdin {
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("error reading key from stdin: %w", err)
		}
		return strings.TrimSpace(line), nil
	}
	return strings.TrimSpace(os.Getenv(checkKeyEnv)), nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	setColor(cmd)
	out := cmd.OutOrStdout()

	apiKey, err := readKey(cmd.InOrStdin())
	if err != nil {
		return err
	}
	if apiKey == "" {
		return fmt.Errorf("no API key provided: set %s or use --stdin", checkKeyEnv)
	}

	config := provider.Config{Timeout: checkTimeout}
	auto := checkProvider == "" || strings.EqualFold(checkProvider, "auto")
	if checkBaseURL != "" {
		if auto {
			return errors.New("--base-url needs an explicit --provider")
		}
		id, ok := provider.Lookup(checkProvider)
		if !ok {
			return fmt.Errorf("%w: %s", provider.ErrUnknownProvider, checkProvider)
		}
		config.BaseURLs = map[string]string{id: checkBaseURL}
	}

	registry, err := provider.NewRegistry(config)
	if err != nil {
		return err
	}

	// candidates are tried one at a time, each within one request timeout
	candidates := 1
	if auto {
		candidates = len(provider.DetectOrder(apiKey))
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout*time.Duration(candidates))
	defer cancel()

	var result *provider.Result
	if auto {
		detection := provider.Detect(ctx, registry, apiKey)
		for _, attempt := range detection.Attempts {
			printAttempt(out, attempt)
		}
		result = detection.Result
		if result == nil {
			result = &provider.Result{Status: provider.StatusInvalid, Message: detection.Message}
		}
	} else {
		p, err := registry.Get(checkProvider)
		if err != nil {
			return err
		}
		result = provider.Validate(ctx, p, apiKey)
	}

	fmt.Fprintf(out, "Key:      %s\n", provider.MaskKey(apiKey))
	if !result.Valid {
		color.New(color.FgRed, color.Bold).Fprintf(out, "Invalid:  %s\n", result.Message)
		return errKeyInvalid
	}

	color.New(color.FgGreen, color.Bold).Fprintf(out, "Valid:    %s\n", result.Message)
	fmt.Fprintf(out, "Provider: %s\n", provider.Badge(result.Provider))
	fmt.Fprintf(out, "Models:   %d\n", len(result.Models))

	status := provider.GetAccountStatus(result.Provider, result.Models)
	fmt.Fprintf(out, "Account:  %s\n", status.AccountType)
	for _, feature := range slices.Sorted(maps.Keys(status.Features)) {
		printFeature(out, feature, status.Features[feature])
	}

	if checkModels {
		for _, m := range result.Models {
			fmt.Fprintf(out, "  %s\n", m.ID)
		}
	}
	return nil
}

func printAttempt(out io.Writer, r *provider.Result) {
	if r == nil {
		return
	}
	c := color.New(color.FgYellow)
	if r.Valid {
		c = color.New(color.FgGreen)
	}
	c.Fprintf(out, "  %-10s %-16s %s\n", r.Provider, r.Status, r.Message)
}

func printFeature(out io.Writer, feature string, enabled bool) {
	mark := color.New(color.FgRed).Sprint("no")
	if enabled {
		mark = color.New(color.FgGreen).Sprint("yes")
	}
	fmt.Fprintf(out, "  %-24s %s\n", feature, mark)
}

func setColor(cmd *cobra.Command) {
	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
		color.NoColor = true
	}
}
