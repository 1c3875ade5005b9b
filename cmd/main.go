// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"

	"github.com/shaowenchen/xpu-benchmark/internal/config"
	"github.com/shaowenchen/xpu-benchmark/internal/hardware"
	"github.com/shaowenchen/xpu-benchmark/internal/report"
	"github.com/shaowenchen/xpu-benchmark/pkg/bench"
	"github.com/shaowenchen/xpu-benchmark/pkg/bench/units"
	"github.com/shaowenchen/xpu-benchmark/pkg/telemetry"
	_ "github.com/shaowenchen/xpu-benchmark/pkg/telemetry/probes"
)

var (
	configPath string
	group      string
	outputDir  string
	verbose    bool
)

func init() {
	flag.StringVar(&configPath, "config", "", "Configuration file path (required)")
	flag.StringVar(&group, "benchmark", "all", "Benchmark group to run (training, inference, stress, all)")
	flag.StringVar(&outputDir, "output", "reports", "Output directory for reports and logs")
	flag.BoolVar(&verbose, "verbose", false, "Enable verbose logging")
}

func main() {
	flag.Parse()

	if configPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -config is required")
		flag.Usage()
		os.Exit(1)
	}

	runTime := time.Now()
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot create output directory %s: %v\n", outputDir, err)
		os.Exit(1)
	}

	logger := buildLogger(outputDir, runTime)

	// The only fatal error class: no report is produced on a bad config
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error(err, "failed to load configuration", "path", configPath)
		os.Exit(1)
	}

	ctx := context.Background()

	hardwareType := hardware.Detect(ctx, logger, cfg.Hardware.Type)
	logger.Info("hardware type resolved", "kind", hardwareType)

	collector, err := telemetry.NewCollector(logger, telemetry.CollectionConfig{
		Interval:     cfg.Collection.Interval(),
		ProbeTimeout: cfg.Collection.ProbeTimeout(),
	})
	if err != nil {
		logger.Error(err, "failed to create metrics collector")
		os.Exit(1)
	}

	registry := bench.NewRegistry(logger)
	units.RegisterConfigured(logger, registry, cfg.Benchmarks)
	orchestrator := bench.NewOrchestrator(logger, cfg.Benchmarks, registry)

	collector.Start()
	results := runBenchmarks(ctx, logger, orchestrator)
	collector.Stop()

	metricsPath := filepath.Join(outputDir, report.ArtifactName("benchmark_metrics", "json", runTime))
	if err := collector.Save(metricsPath); err != nil {
		logger.Info("continuing without metrics dump")
	}

	generator := report.NewGenerator(logger)
	runReport := generator.Build(results, collector.Summary(), hardwareType)
	if _, err := generator.WriteJSON(runReport, outputDir); err != nil {
		logger.Info("continuing without JSON report")
	}
	if _, err := generator.WriteHTML(runReport, outputDir); err != nil {
		logger.Info("continuing without HTML report")
	}

	// Per-unit failures never change the exit code
	fmt.Printf("Benchmark run completed: %d total, %d successful, %d failed. Results saved in: %s\n",
		runReport.Summary.Total, runReport.Summary.Successful, runReport.Summary.Failed, outputDir)
}

func runBenchmarks(ctx context.Context, logger logr.Logger, orchestrator *bench.Orchestrator) []bench.Result {
	switch group {
	case "all":
		return orchestrator.RunAll(ctx)
	case string(bench.KindTraining), string(bench.KindInference), string(bench.KindStress):
		return orchestrator.RunGroup(ctx, bench.Kind(group))
	default:
		logger.Info("unknown benchmark group, running all", "group", group)
		return orchestrator.RunAll(ctx)
	}
}

// buildLogger tees structured logs to stderr and a timestamped run log in
// the output directory. The file sink is best-effort; losing it never
// aborts the run.
func buildLogger(dir string, runTime time.Time) logr.Logger {
	zapConfig := zap.NewProductionConfig()
	if verbose {
		zapConfig = zap.NewDevelopmentConfig()
	}

	logPath := filepath.Join(dir, report.ArtifactName("benchmark", "log", runTime))
	zapConfig.OutputPaths = []string{"stderr", logPath}

	zapLog, err := zapConfig.Build()
	if err != nil {
		zapConfig.OutputPaths = []string{"stderr"}
		if zapLog, err = zapConfig.Build(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: falling back to discarded logs: %v\n", err)
			return logr.Discard()
		}
	}

	return zapr.NewLogger(zapLog)
}
