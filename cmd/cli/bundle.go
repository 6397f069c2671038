package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type exportResponse struct {
	DownloadURL string `json:"download_url"`
}

var exportDest string

var exportCmd = &cobra.Command{
	Use:   "export <job-id> [job-id...]",
	Short: "Bundle one or more completed jobs into a downloadable zip",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp exportResponse
		payload := map[string]interface{}{"job_ids": args}
		if err := doJSON("POST", "/jobs/export", payload, &resp); err != nil {
			return err
		}

		dest := exportDest
		if dest == "" {
			dest = "export.zip"
		}
		if err := downloadFile(resp.DownloadURL, dest); err != nil {
			return err
		}
		fmt.Printf("saved bundle to %s\n", dest)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <bundle.zip>",
	Short: "Import a job bundle, staging title conflicts for resolution",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp map[string]interface{}
		if err := uploadFile("/jobs/import", args[0], nil, &resp); err != nil {
			return err
		}
		return printJSON(resp)
	},
}

var resolveAction string
var resolveTitle string

var importResolveCmd = &cobra.Command{
	Use:   "import-resolve <conflict-id>",
	Short: "Resolve a pending import conflict (overwrite or rename)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload := map[string]string{"action": resolveAction, "new_title": resolveTitle}
		var resp map[string]interface{}
		if err := doJSON("POST", "/jobs/import/resolve/"+args[0], payload, &resp); err != nil {
			return err
		}
		return printJSON(resp)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportDest, "out", "", "destination zip path (defaults to export.zip)")

	importResolveCmd.Flags().StringVar(&resolveAction, "action", "", "overwrite or rename")
	importResolveCmd.Flags().StringVar(&resolveTitle, "title", "", "new title, required when action=rename")

	rootCmd.AddCommand(importResolveCmd)
}
