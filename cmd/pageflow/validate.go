package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/pageflow/internal/cli"
	"github.com/aretw0/pageflow/internal/presentation/tui"
)

var validateCmd = &cobra.Command{
	Use:   "validate <template>",
	Short: "Check the template for consistency",
	Long:  `Checks flow configs, page targets and script conditions, and reports pages unreachable from the start page.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start, _ := cmd.Flags().GetInt("start")
		format, _ := cmd.Flags().GetString("format")

		eng, _, _, err := openEngine(cmd, args[0], nil)
		if err != nil {
			return err
		}
		defer eng.Close()

		tpl, err := eng.Load(cmd.Context())
		if err != nil {
			return err
		}

		report := eng.Validate(tpl, start)
		out := cmd.OutOrStdout()
		if format == "markdown" {
			if err := tui.Write(out, tui.ReportMarkdown(report), tui.IsTerminal(out)); err != nil {
				return err
			}
		} else {
			cli.PrintReport(out, report)
		}
		if err := report.Err(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		if format != "markdown" {
			fmt.Fprintln(out, "Template is valid! ✅")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().IntP("start", "s", 0, "Start page index used for reachability")
	validateCmd.Flags().StringP("format", "f", "text", "Output format: text or markdown")
}
