// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-logr/logr"

	"github.com/shaowenchen/xpu-benchmark/internal/hardware"
	"github.com/shaowenchen/xpu-benchmark/pkg/bench"
	"github.com/shaowenchen/xpu-benchmark/pkg/telemetry"
)

// artifactTimeFormat is the timestamp suffix shared by every persisted
// artifact (reports, metrics dump, run log).
const artifactTimeFormat = "20060102_150405"

// ArtifactName builds `<prefix>_<YYYYMMDD_HHMMSS>.<ext>`.
func ArtifactName(prefix, ext string, t time.Time) string {
	return fmt.Sprintf("%s_%s.%s", prefix, t.Format(artifactTimeFormat), ext)
}

// Summary is the headline numbers of one run.
type Summary struct {
	Total        int           `json:"total_tests"`
	Successful   int           `json:"successful_tests"`
	Failed       int           `json:"failed_tests"`
	SuccessRate  float64       `json:"success_rate"`
	HardwareType hardware.Kind `json:"hardware_type"`
	Timestamp    time.Time     `json:"timestamp"`
}

// RunReport is the consolidated outcome of one run. It is built once and
// then rendered to JSON and HTML from the same in-memory value, so the two
// encodings cannot diverge on summary numbers or per-result status.
type RunReport struct {
	Summary Summary           `json:"summary"`
	Metrics telemetry.Summary `json:"metrics_summary"`
	Results []bench.Result    `json:"results"`
}

// Generator renders and persists run reports.
type Generator struct {
	logger logr.Logger
}

func NewGenerator(logger logr.Logger) *Generator {
	return &Generator{logger: logger.WithName("report")}
}

// Build consolidates benchmark results and the collector summary into a
// write-once RunReport.
func (g *Generator) Build(results []bench.Result, metrics telemetry.Summary, hardwareType hardware.Kind) *RunReport {
	successful := 0
	for _, result := range results {
		if result.Status == bench.StatusSuccess {
			successful++
		}
	}
	total := len(results)

	rate := 0.0
	if total > 0 {
		rate = float64(successful) / float64(total) * 100
	}

	return &RunReport{
		Summary: Summary{
			Total:        total,
			Successful:   successful,
			Failed:       total - successful,
			SuccessRate:  rate,
			HardwareType: hardwareType,
			Timestamp:    time.Now(),
		},
		Metrics: metrics,
		Results: results,
	}
}

// WriteJSON persists the full-fidelity report under dir and returns the
// file path.
func (g *Generator) WriteJSON(report *RunReport, dir string) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		g.logger.Error(err, "failed to encode JSON report")
		return "", err
	}

	path := filepath.Join(dir, ArtifactName("benchmark_report", "json", report.Summary.Timestamp))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		g.logger.Error(err, "failed to write JSON report", "path", path)
		return "", err
	}

	g.logger.Info("JSON report written", "path", path)
	return path, nil
}

// WriteHTML persists the human-readable report under dir and returns the
// file path.
func (g *Generator) WriteHTML(report *RunReport, dir string) (string, error) {
	data, err := renderHTML(report)
	if err != nil {
		g.logger.Error(err, "failed to render HTML report")
		return "", err
	}

	path := filepath.Join(dir, ArtifactName("benchmark_report", "html", report.Summary.Timestamp))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		g.logger.Error(err, "failed to write HTML report", "path", path)
		return "", err
	}

	g.logger.Info("HTML report written", "path", path)
	return path, nil
}
