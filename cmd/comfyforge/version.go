package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/comfyforge"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of comfyforge",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "comfyforge version %s\n", strings.TrimSpace(comfyforge.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
