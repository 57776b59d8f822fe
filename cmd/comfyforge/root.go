package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/comfyforge/internal/cli"
)

var globalOpts cli.Options

var rootCmd = &cobra.Command{
	Use:   "comfyforge",
	Short: "Build and classify ComfyUI node graphs",
	Long: `comfyforge compiles image-generation techniques into executable ComfyUI graphs
and classifies existing graphs back into a technique with its parameters.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, cli.ErrIncompatible) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalOpts.ConfigFile, "config", "", "Config file (default: ./comfyforge.yaml)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.EnvFile, "env-file", "", "Environment file (default: ./.env)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVarP(&globalOpts.Output, "output", "o", "", "Output format: json or yaml")
}

func newApp() (*cli.App, error) {
	return cli.NewApp(globalOpts)
}
