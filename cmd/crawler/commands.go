// ABOUTME: Cobra commands for the crawler CLI
// ABOUTME: Each command builds the runtime from the environment and prints per-source reports

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"newsfeed-canon/core/crawl"
	"newsfeed-canon/infrastructure/logger/structured"
	"newsfeed-canon/internal/bootstrap"
	"newsfeed-canon/pkg/config"
	"newsfeed-canon/pkg/sources"
	"newsfeed-canon/pkg/utils/duration"
	timeutil "newsfeed-canon/pkg/utils/time"
)

type rootOptions struct {
	envFile     string
	jsonOutput  bool
	parallelism int
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "crawler",
		Short: "Crawl news sources into canonical articles",
		Long: `crawler discovers, extracts and stores articles for the configured news sources.

Example usage:
  crawler latest                       # crawl every configured source once
  crawler latest coindesk decrypt      # crawl two sources
  crawler range --start 2025-01-01 --end 2025-01-31 coindesk
  crawler watch --interval 5m          # crawl forever
  crawler sources                      # list registered sources`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	cmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "print reports as JSON")
	cmd.PersistentFlags().IntVar(&opts.parallelism, "parallelism", 0, "sources crawled concurrently (default from CRAWL_PARALLELISM)")

	cmd.AddCommand(
		newLatestCmd(opts),
		newRangeCmd(opts),
		newWatchCmd(opts),
		newSourcesCmd(opts),
	)
	return cmd
}

func newLatestCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "latest [sources...]",
		Short: "Crawl the newest articles of each source once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, opts, func(ctx context.Context, rt *bootstrap.Runtime) error {
				reports, err := rt.Engine.CrawlAll(ctx, rt.SourceCodes(args), parallelism(opts, rt))
				printReports(cmd.OutOrStdout(), reports, opts.jsonOutput)
				return err
			})
		},
	}
}

func newRangeCmd(opts *rootOptions) *cobra.Command {
	var rawStart, rawEnd string

	cmd := &cobra.Command{
		Use:   "range [sources...]",
		Short: "Crawl articles published between --start and --end",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, ok := timeutil.ParseUTC(rawStart)
			if !ok {
				return fmt.Errorf("invalid --start %q", rawStart)
			}
			end, ok := timeutil.ParseUTC(rawEnd)
			if !ok {
				return fmt.Errorf("invalid --end %q", rawEnd)
			}
			if start.After(end) {
				return fmt.Errorf("--start must not be after --end")
			}

			return withRuntime(cmd, opts, func(ctx context.Context, rt *bootstrap.Runtime) error {
				reports, err := rt.Engine.CrawlAllRange(ctx, rt.SourceCodes(args), parallelism(opts, rt), start, end)
				printReports(cmd.OutOrStdout(), reports, opts.jsonOutput)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&rawStart, "start", "", "window start (RFC3339 or a plain date)")
	cmd.Flags().StringVar(&rawEnd, "end", "", "window end (RFC3339 or a plain date)")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var interval time.Duration
	var maxRuns int

	cmd := &cobra.Command{
		Use:   "watch [sources...]",
		Short: "Crawl repeatedly until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, opts, func(ctx context.Context, rt *bootstrap.Runtime) error {
				every := interval
				if every <= 0 {
					every = rt.Config.Crawler.Interval
				}
				codes := rt.SourceCodes(args)

				for run := 1; ; run++ {
					reports, err := rt.Engine.CrawlAll(ctx, codes, parallelism(opts, rt))
					printReports(cmd.OutOrStdout(), reports, opts.jsonOutput)
					if err != nil {
						return err
					}
					if maxRuns > 0 && run >= maxRuns {
						return nil
					}

					rt.Logger.Info("Waiting for next crawl pass", map[string]interface{}{
						"run":      run,
						"interval": every.String(),
					})
					select {
					case <-ctx.Done():
						return nil
					case <-time.After(every):
					}
				}
			})
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "pause between passes (default from CRAWL_INTERVAL_SECONDS)")
	cmd.Flags().IntVar(&maxRuns, "max-runs", 0, "stop after this many passes (0 runs forever)")
	return cmd
}

func newSourcesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List registered sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			reg, err := sources.Load(cfg.Crawler.SourcesFile)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				var all []interface{}
				for _, code := range reg.Codes() {
					hints, _ := reg.Hints(code)
					all = append(all, hints)
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(all)
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CODE\tLIST URL\tPREFER FEED DATE")
			for _, code := range reg.Codes() {
				hints, _ := reg.Hints(code)
				fmt.Fprintf(w, "%s\t%s\t%t\n", code, hints.ListURL, hints.PreferFeedDate)
			}
			return w.Flush()
		},
	}
}

func loadConfig(opts *rootOptions) (*config.Config, error) {
	if opts.envFile != "" {
		if err := config.LoadDotEnv(opts.envFile); err != nil {
			return nil, err
		}
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// withRuntime builds the runtime, cancels it on SIGINT or SIGTERM and always releases it
func withRuntime(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, rt *bootstrap.Runtime) error) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := structured.NewLogger(cfg.Log)
	rt, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rt.Close(); cerr != nil {
			logger.Warn("Closing runtime failed", map[string]interface{}{"error": cerr.Error()})
		}
	}()

	return fn(ctx, rt)
}

func parallelism(opts *rootOptions, rt *bootstrap.Runtime) int {
	if opts.parallelism > 0 {
		return opts.parallelism
	}
	return rt.Config.Crawler.Parallelism
}

func printReports(out io.Writer, reports []*crawl.Report, asJSON bool) {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		_ = enc.Encode(reports)
		return
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SOURCE\tSTRATEGY\tFOUND\tSAVED\tDUP\tSKIP\tFAIL\tTOOK\tERROR")
	for _, r := range reports {
		if r == nil {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\t%s\n",
			r.SourceCode, r.Strategy, r.Discovered, r.Saved, r.Duplicates, r.Skipped, r.Failed,
			duration.Elapsed(r.StartedAt, r.FinishedAt), r.Error)
	}
	_ = w.Flush()
}
