package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Wayne-Yuw/toolscout-ai/internal/analyze"
	"github.com/Wayne-Yuw/toolscout-ai/internal/bootstrap"
	"github.com/Wayne-Yuw/toolscout-ai/internal/fetcher"
	"github.com/Wayne-Yuw/toolscout-ai/internal/jobs"
	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/config"
	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/telemetry"
)

var runCmd = &cobra.Command{
	Use:   "run <url>",
	Short: "Fetch a page, call the LLM and print the analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if provider, _ := cmd.Flags().GetString("provider"); provider != "" {
			cfg.LLMProvider = provider
		}
		if model, _ := cmd.Flags().GetString("model"); model != "" {
			cfg.LLMModel = model
		}
		asJSON, _ := cmd.Flags().GetBool("json")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		telemetry.Configure(cfg.Env, cfg.LogFormat)
		defer telemetry.Sync()

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		client, err := bootstrap.BuildLLM(ctx, cfg)
		if err != nil {
			return err
		}
		store := jobs.NewMemoryStore()
		svc := &analyze.Service{
			Fetcher:    bootstrap.BuildFetcher(cfg),
			Store:      store,
			Dispatcher: inline{runner: jobs.NewRunner(store, client)},
		}
		started, err := svc.Start(ctx, args[0], "cli")
		if err != nil {
			return err
		}
		job, err := svc.Get(ctx, started.JobID)
		if err != nil {
			return err
		}
		return printJob(cmd.OutOrStdout(), started, job, asJSON)
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <url>",
	Short: "Fetch a page and print its title and snippet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if err := fetcher.ValidateURL(args[0]); err != nil {
			return err
		}
		page, err := bootstrap.BuildFetcher(cfg).Fetch(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "status: %d\ncontent-type: %s\ntitle: %s\n\n%s\n", page.Status, page.ContentType, page.Title, fetcher.Snippet(page.Text))
		return nil
	},
}

func init() {
	runCmd.Flags().StringP("provider", "p", "", "LLM provider override (openai or gemini)")
	runCmd.Flags().StringP("model", "m", "", "model override")
	runCmd.Flags().Bool("json", false, "print the job as JSON")
	runCmd.Flags().Duration("timeout", 10*time.Minute, "overall deadline")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(fetchCmd)
}

// inline runs tasks on the caller's goroutine so the job is terminal when
// Start returns.
type inline struct {
	runner *jobs.Runner
}

func (d inline) Dispatch(ctx context.Context, task jobs.Task) error {
	return d.runner.Run(ctx, task)
}

func printJob(w io.Writer, started analyze.Started, job jobs.Job, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(job)
	}
	fmt.Fprintf(w, "# %s\n\n", firstNonEmpty(started.Title, started.URL))
	if job.Status == jobs.StatusFailed {
		fmt.Fprintf(w, "analysis failed: %s\n", job.Error)
		return errors.New("analysis failed")
	}
	fmt.Fprintf(w, "model: %s\n\n%s\n", job.Model, job.Analysis)
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
