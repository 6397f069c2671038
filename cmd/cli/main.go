package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiURL string = "http://localhost:8080"
	output string = "text" // "text" or "json"
)

var rootCmd = &cobra.Command{
	Use:   "stemctl",
	Short: "stemctl - manage stem-separation jobs against a running server",
	Long: `stemctl provides command-line access to a stem-separation server:
listing and inspecting jobs, downloading results, and exporting/importing
job bundles.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", apiURL, "API server URL")
	rootCmd.PersistentFlags().StringVar(&output, "output", output, "Output format: text or json")

	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
