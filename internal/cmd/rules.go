package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/claudeflow/internal/config"
	"github.com/Iron-Ham/claudeflow/internal/detect"
)

var rulesFormat string

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the active classifier rules",
	Long: `List the classifier rules in evaluation order: the built-in rules (unless
classifier.disable_defaults is set) followed by those from
classifier.rules_file.

With --format yaml the output is a valid rules file, a starting point for
custom rules.`,
	RunE: runRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.Flags().StringVarP(&rulesFormat, "format", "f", "text", "Output format: text, yaml")
}

func runRules(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	rules, err := buildRules(cfg.Classifier)
	if err != nil {
		return err
	}
	return writeRules(cmd.OutOrStdout(), rules, rulesFormat)
}

func writeRules(w io.Writer, rules []detect.Rule, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(struct {
			Rules []detect.Rule `yaml:"rules"`
		}{rules}); err != nil {
			return fmt.Errorf("failed to encode rules: %w", err)
		}
		return enc.Close()
	case "text":
		if len(rules) == 0 {
			fmt.Fprintln(w, "No rules configured.")
			return nil
		}
		fmt.Fprintf(w, "%-28s %-20s %s\n", "NAME", "KIND", "PATTERN")
		for _, r := range rules {
			pattern := r.Pattern
			if r.CaseSensitive {
				pattern += "  (case-sensitive)"
			}
			fmt.Fprintf(w, "%-28s %-20s %s\n", r.Name, r.Kind, pattern)
		}
		return nil
	default:
		return fmt.Errorf("invalid format %q: must be text or yaml", format)
	}
}
