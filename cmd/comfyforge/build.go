package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/comfyforge/internal/cli"
)

var buildCmd = &cobra.Command{
	Use:   "build <technique>",
	Short: "Build the graph of a technique",
	Long: `Builds an executable graph from a parameter document (--params) and/or flags.
Flags override values of the document. With --envelope the graph is wrapped in a
submission body with a client id.`,
	Example: `  comfyforge build flux-dev --prompt "a lighthouse" --seed 42
  comfyforge build flux-pulid -f params.yaml --reference face.png --sampler custom
  comfyforge build qwen-image --prompt "a sign" --envelope -o yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		params, err := app.Parameters(cmd.Flags())
		if err != nil {
			return err
		}
		envelope, _ := cmd.Flags().GetBool("envelope")
		clientID, _ := cmd.Flags().GetString("client-id")
		return app.Build(cmd.Context(), args[0], params, cli.BuildOptions{Envelope: envelope, ClientID: clientID})
	},
}

var detectCmd = &cobra.Command{
	Use:   "detect [graph.json]",
	Short: "Classify a graph and extract its parameters",
	Long:  `Reads a graph (file or stdin) and prints the detected technique and parameters. Never fails on odd graphs; they classify as unknown.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		return app.Detect(cmd.Context(), firstArg(args))
	},
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return "-"
	}
	return args[0]
}

func init() {
	cli.RegisterParamFlags(buildCmd.Flags())
	buildCmd.Flags().Bool("envelope", false, "Wrap the graph in a submission envelope")
	buildCmd.Flags().String("client-id", "", "Client id of the envelope (default: executor.client_id or a new UUID)")
	rootCmd.AddCommand(buildCmd, detectCmd)
}
