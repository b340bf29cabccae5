package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/pageflow/internal/cli"
	"github.com/aretw0/pageflow/internal/presentation/graph"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <template>",
	Short: "Export the page flow visualization",
	Long: `Outputs a Mermaid diagram (graph TD) of the template's page flow.
With --context, the pages of the generated sequence are highlighted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		contextPath, _ := cmd.Flags().GetString("context")
		start, _ := cmd.Flags().GetInt("start")

		eng, _, _, err := openEngine(cmd, args[0], nil)
		if err != nil {
			return err
		}
		defer eng.Close()

		ctx := cmd.Context()
		tpl, err := eng.Load(ctx)
		if err != nil {
			return err
		}

		var overlay *graph.GraphOverlay
		if contextPath != "" {
			data, err := cli.LoadContext(contextPath, cmd.InOrStdin())
			if err != nil {
				return err
			}
			res, err := eng.Generate(ctx, tpl, data, start)
			if err != nil {
				return err
			}
			overlay = graph.OverlayFromResult(res)
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(tpl.Pages, start, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("context", "c", "", "Data context file used to highlight the visited pages")
	graphCmd.Flags().IntP("start", "s", 0, "Start page index")
}
