package main

import (
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List the available techniques",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		return app.List()
	},
}

var describeCmd = &cobra.Command{
	Use:   "describe <technique>",
	Short: "Show defaults, models and custom nodes of a technique",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		return app.Describe(args[0])
	},
}

var checkCmd = &cobra.Command{
	Use:   "check <technique>",
	Short: "Check whether an executor can run a technique",
	Long: `Reports the custom node types the executor lacks. Without --nodes the executor
described by executor.available_node_types in the configuration is used. Exits 1 when
the technique is not runnable.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		nodes, _ := cmd.Flags().GetStringSlice("nodes")
		app, err := newApp()
		if err != nil {
			return err
		}
		return app.Check(args[0], nodes)
	},
}

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Pick the best technique an executor can run",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		nodes, _ := cmd.Flags().GetStringSlice("nodes")
		app, err := newApp()
		if err != nil {
			return err
		}
		return app.Recommend(nodes)
	},
}

func init() {
	for _, c := range []*cobra.Command{checkCmd, recommendCmd} {
		c.Flags().StringSlice("nodes", nil, "Custom node types installed on the executor (comma separated)")
	}
	rootCmd.AddCommand(listCmd, describeCmd, checkCmd, recommendCmd)
}
