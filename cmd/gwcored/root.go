// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gwcored",
	Short: "gwcore control-plane routing core daemon",
	Long:  "gwcored loads a router configuration and runs the control loop that keeps the published FIB, NAT, and adjacency tables in sync with it.",
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// Execute runs the root command, exiting the process on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}
