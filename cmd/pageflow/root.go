package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/aretw0/pageflow"
	"github.com/aretw0/pageflow/internal/cli"
)

var rootCmd = &cobra.Command{
	Use:   "pageflow",
	Short: "PageFlow computes the page sequence of document templates",
	Long: `PageFlow evaluates the flow configuration of template pages (simple,
conditional and repeated) against a data context and prints the ordered
sequence of pages to render.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to a pageflow YAML config file")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging and execution logs")
}

func globalOptions(cmd *cobra.Command) cli.Options {
	configPath, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")
	return cli.Options{ConfigPath: configPath, Debug: debug}
}

// openEngine loads the config and opens the template with the CLI conventions.
func openEngine(cmd *cobra.Command, path string, reg prometheus.Registerer) (*cli.Engine, pageflow.Config, *slog.Logger, error) {
	cfg, err := cli.LoadConfig(globalOptions(cmd))
	if err != nil {
		return nil, cfg, nil, err
	}
	logger := cli.CreateLogger(cfg)
	eng, err := cli.CreateEngine(path, cfg, logger, reg)
	if err != nil {
		return nil, cfg, logger, err
	}
	return eng, cfg, logger, nil
}
