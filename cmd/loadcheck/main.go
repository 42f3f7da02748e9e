// Command loadcheck exercises a running talentflow server: it fires a
// burst of job reorders to measure the simulated failure ratio, then walks
// a listing page by page to confirm the pages add up.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/talentflow/internal/loadcheck"
	"github.com/okian/talentflow/pkg/logger"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := loadcheck.DefaultConfig()
	var logFormat string

	root := &cobra.Command{
		Use:          "loadcheck",
		Short:        "Probe a talentflow server's simulated network behaviour",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.InitWithFormat(logFormat, cmd.ErrOrStderr()); err != nil {
				return err
			}
			if cfg.Verbose {
				return logger.SetLevelString("debug")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			rr, pr, err := loadcheck.Run(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			printReorder(cmd, rr)
			printPages(cmd, pr)
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfg.BaseURL, "url", cfg.BaseURL, "base URL of the service")
	flags.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "per-request timeout")
	flags.BoolVar(&cfg.Verbose, "verbose", false, "log every page and request")
	flags.StringVar(&logFormat, "log-format", logger.FormatText, "log format: text or json")

	reorder := &cobra.Command{
		Use:   "reorder",
		Short: "Fire concurrent reorders and report the failure ratio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := loadcheck.Reorder(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			printReorder(cmd, r)
			return nil
		},
	}
	paginate := &cobra.Command{
		Use:   "paginate",
		Short: "Walk a listing page by page and check the totals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := loadcheck.Paginate(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			printPages(cmd, r)
			return nil
		},
	}

	for _, c := range []*cobra.Command{root, reorder} {
		c.Flags().IntVar(&cfg.Requests, "requests", cfg.Requests, "reorder attempts")
		c.Flags().IntVar(&cfg.Workers, "workers", cfg.Workers, "concurrent requests")
		c.Flags().StringVar(&cfg.Job, "job", cfg.Job, "job id or slug to reorder")
	}
	for _, c := range []*cobra.Command{root, paginate} {
		c.Flags().StringVar(&cfg.Path, "path", cfg.Path, "listing to walk")
		c.Flags().IntVar(&cfg.Limit, "limit", cfg.Limit, "page size")
		c.Flags().IntVar(&cfg.Retries, "retries", cfg.Retries, "attempts per page on simulated failure")
	}

	root.AddCommand(reorder, paginate)
	return root
}

func printReorder(cmd *cobra.Command, r loadcheck.ReorderReport) {
	fmt.Fprintf(cmd.OutOrStdout(), "reorder: %d attempts, %d ok, %d simulated, %d other, failure ratio %.3f in %s\n",
		r.Attempts, r.Succeeded, r.Simulated, r.Other, r.FailureRatio(), r.Duration)
}

func printPages(cmd *cobra.Command, r loadcheck.PageReport) {
	fmt.Fprintf(cmd.OutOrStdout(), "paginate: %d pages, %d records of %d, %d retries in %s\n",
		r.Pages, r.Records, r.Total, r.Retried, r.Duration)
}
