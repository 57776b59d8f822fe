package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/comfyforge/internal/cli"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [technique]",
	Short: "Export a graph as a Mermaid diagram",
	Long: `Outputs a Mermaid flowchart (graph LR) of a technique, built from the parameter
flags, or of a graph file given with --file. Nodes the configured executor cannot run
are highlighted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		if (file == "") == (len(args) == 0) {
			return fmt.Errorf("give either a technique or --file")
		}
		app, err := newApp()
		if err != nil {
			return err
		}
		if file != "" {
			return app.GraphOfDocument(file)
		}
		params, err := app.Parameters(cmd.Flags())
		if err != nil {
			return err
		}
		return app.GraphOfTechnique(cmd.Context(), args[0], params)
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate [graph.json]",
	Short: "Check a graph for consistency",
	Long: `Checks a graph (file or stdin) against the graph schema, then walks it back from its
output nodes. Dangling links and graphs without an output fail; nodes that feed no output
are logged as warnings.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		return app.Validate(firstArg(args))
	},
}

var diffCmd = &cobra.Command{
	Use:   "diff <old.json> <new.json>",
	Short: "Show the structural difference between two graphs",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		return app.Diff(args[0], args[1])
	},
}

func init() {
	cli.RegisterParamFlags(graphCmd.Flags())
	graphCmd.Flags().String("file", "", "Graph file to chart instead of building a technique")
	rootCmd.AddCommand(graphCmd, validateCmd, diffCmd)
}
