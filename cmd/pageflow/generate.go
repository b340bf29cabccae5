package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/pageflow/internal/cli"
	"github.com/aretw0/pageflow/internal/presentation/tui"
)

// errFlowFailed makes the process exit non-zero after the output was written.
var errFlowFailed = errors.New("sequence generated with errors")

var generateCmd = &cobra.Command{
	Use:   "generate <template>",
	Short: "Generate the page sequence for a data context",
	Long: `Loads a template (YAML/JSON file or directory of page documents), evaluates
its flow against the data context and prints the page sequence.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		contextPath, _ := cmd.Flags().GetString("context")
		start, _ := cmd.Flags().GetInt("start")
		format, _ := cmd.Flags().GetString("format")

		eng, _, _, err := openEngine(cmd, args[0], nil)
		if err != nil {
			return err
		}
		defer eng.Close()

		data, err := cli.LoadContext(contextPath, cmd.InOrStdin())
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		tpl, err := eng.Load(ctx)
		if err != nil {
			return err
		}

		res, err := eng.Generate(ctx, tpl, data, start)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch format {
		case "json":
			if err := cli.WriteJSON(out, res); err != nil {
				return err
			}
		case "markdown":
			if err := tui.Write(out, tui.SequenceMarkdown(tpl, res), tui.IsTerminal(out)); err != nil {
				return err
			}
		case "text":
			cli.PrintSequence(out, tpl, res)
		default:
			return fmt.Errorf("unknown format %q", format)
		}
		if res.Diagnostics.HasErrors() {
			return errFlowFailed
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringP("context", "c", "", "Data context file (YAML or JSON, '-' for stdin)")
	generateCmd.Flags().IntP("start", "s", 0, "Start page index")
	generateCmd.Flags().StringP("format", "f", "text", "Output format: text, json or markdown")
}
