package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

type jobSummary struct {
	ID           string `json:"id"`
	Source       string `json:"source_type"`
	Status       string `json:"status"`
	Progress     int    `json:"progress"`
	CurrentStage string `json:"current_stage"`
	SourceTitle  string `json:"source_title"`
}

type jobListResponse struct {
	Jobs       []jobSummary `json:"jobs"`
	Processing []jobSummary `json:"processing"`
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect and manage stem-separation jobs",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List completed and in-progress jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp jobListResponse
		if err := doJSON("GET", "/jobs", nil, &resp); err != nil {
			return err
		}
		if output == "json" {
			return printJSON(resp)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTATUS\tPROGRESS\tSTAGE\tTITLE")
		for _, j := range append(append([]jobSummary{}, resp.Processing...), resp.Jobs...) {
			fmt.Fprintf(w, "%s\t%s\t%d%%\t%s\t%s\n", j.ID, j.Status, j.Progress, j.CurrentStage, j.SourceTitle)
		}
		return w.Flush()
	},
}

var jobsGetCmd = &cobra.Command{
	Use:   "get <job-id>",
	Short: "Show full details for one job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp map[string]interface{}
		if err := doJSON("GET", "/jobs/"+args[0], nil, &resp); err != nil {
			return err
		}
		return printJSON(resp)
	},
}

var jobsDeleteCmd = &cobra.Command{
	Use:   "delete <job-id>",
	Short: "Delete a job and its on-disk artifacts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := doJSON("DELETE", "/jobs/"+args[0], nil, nil); err != nil {
			return err
		}
		fmt.Printf("deleted job %s\n", args[0])
		return nil
	},
}

var jobsDownloadDest string

var jobsDownloadCmd = &cobra.Command{
	Use:   "download <job-id>",
	Short: "Download a completed job's default mix",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dest := jobsDownloadDest
		if dest == "" {
			dest = args[0] + ".mp4"
		}
		if err := downloadFile("/jobs/"+args[0]+"/download", dest); err != nil {
			return err
		}
		fmt.Printf("saved to %s\n", dest)
		return nil
	},
}

func init() {
	jobsDownloadCmd.Flags().StringVar(&jobsDownloadDest, "out", "", "destination file path (defaults to <job-id>.mp4)")

	jobsCmd.AddCommand(jobsListCmd)
	jobsCmd.AddCommand(jobsGetCmd)
	jobsCmd.AddCommand(jobsDeleteCmd)
	jobsCmd.AddCommand(jobsDownloadCmd)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
