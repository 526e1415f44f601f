package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/su1ph3r/wafprobe/internal/catalog"
	"github.com/su1ph3r/wafprobe/internal/client"
	"github.com/su1ph3r/wafprobe/internal/logging"
	"github.com/su1ph3r/wafprobe/internal/metrics"
	"github.com/su1ph3r/wafprobe/internal/reporter"
	"github.com/su1ph3r/wafprobe/internal/runner"
	"github.com/su1ph3r/wafprobe/pkg/types"
)

func runSuite(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	out := cmd.OutOrStdout()

	updateConfigFromFlags(cmd)
	if err := types.ValidateConfig(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, closer := logging.New(logging.Options{
		File:       config.Log.File,
		Verbose:    config.Log.Verbose,
		MaxSizeMB:  config.Log.MaxSizeMB,
		MaxBackups: config.Log.MaxBackups,
		Stderr:     cmd.ErrOrStderr(),
	})
	defer closer.Close()

	cat, err := loadCatalog()
	if err != nil {
		return err
	}

	jsonMode := config.Output.JSON
	opts := reporter.DefaultOptions()
	opts.NoColor = !config.Output.Color

	collector, err := metrics.New()
	if err != nil {
		return err
	}
	console := reporter.NewTextReporter(opts, out)

	httpClient := client.New(*config, logger.With("component", "client"))
	runnerOpts := []runner.Option{
		runner.WithLogger(logger.With("component", "runner")),
		runner.WithHealthPath(config.Target.HealthPath),
		runner.WithObserver(collector),
	}
	if !jsonMode {
		runnerOpts = append(runnerOpts, runner.WithObserver(console))
	}
	r := runner.New(httpClient, runnerOpts...)

	startTime := time.Now()
	if !jsonMode {
		printBanner(out)
		console.WriteHeader(httpClient.BaseURL(), startTime)
		if config.Catalog.File != "" {
			printInfo(out, "Catalog: %s (%d tests)", config.Catalog.File, cat.Len())
		}
	}

	if err := r.HealthCheck(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		printError("%v", err)
		printError("Please ensure the WAF is running on %s", httpClient.BaseURL())
		return &exitError{code: exitFailure}
	}
	if !jsonMode {
		printSuccess(out, "WAF is running")
	}

	if err := r.RunAll(ctx, cat); err != nil {
		return err
	}
	endTime := time.Now()

	report := reporter.NewReport(uuid.New().String(), httpClient.BaseURL(), startTime, endTime, r.Results())

	if jsonMode {
		if err := reporter.NewJSONReporter(opts).Write(report, out); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	} else {
		if err := console.Write(report, out); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}

	announce := out
	if jsonMode {
		announce = io.Discard
	}
	if err := writeArtifacts(report, collector, opts, announce); err != nil {
		return err
	}

	logger.Info("run complete",
		"run_id", report.RunID,
		"total", report.Total,
		"passed", report.Passed,
		"failed", report.Failed,
		"duration", report.Duration)

	if jsonMode {
		return nil
	}
	if code := reporter.Summarize(report.Results).ExitCode(); code != exitOK {
		return &exitError{code: code}
	}
	return nil
}

// writeArtifacts writes the optional report files and metrics, noting each
// saved path on announce
func writeArtifacts(report *types.Report, collector *metrics.Collector, opts reporter.ReportOptions, announce io.Writer) error {
	files := []struct {
		path string
		rep  reporter.Reporter
	}{
		{config.Output.File, reporter.ForFile(config.Output.File, opts)},
		{config.Output.XLSX, reporter.NewXLSXReporter(opts)},
	}

	for _, f := range files {
		if f.path == "" {
			continue
		}
		if err := reporter.WriteToFile(f.rep, report, f.path); err != nil {
			return fmt.Errorf("failed to write %s report: %w", f.rep.Format(), err)
		}
		printSuccess(announce, "Report saved to: %s", f.path)
	}

	if config.Output.MetricsFile != "" {
		if err := collector.WriteTextfile(config.Output.MetricsFile); err != nil {
			return err
		}
		printSuccess(announce, "Metrics saved to: %s", config.Output.MetricsFile)
	}

	return nil
}

func loadCatalog() (*catalog.Catalog, error) {
	if config.Catalog.File == "" {
		return catalog.Default(), nil
	}
	cat, err := catalog.Load(config.Catalog.File)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return cat, nil
}
