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
	"strings"
	"testing"
	"time"

	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaowenchen/xpu-benchmark/internal/hardware"
	"github.com/shaowenchen/xpu-benchmark/pkg/bench"
	"github.com/shaowenchen/xpu-benchmark/pkg/telemetry"
)

func sampleResults() []bench.Result {
	return []bench.Result{
		{
			Name:      "resnet50",
			Kind:      bench.KindTraining,
			Status:    bench.StatusSuccess,
			Metrics:   map[string]float64{"throughput": 100, "accuracy": 95.5},
			Timestamp: time.Now(),
		},
		{
			Name:      "vllm_server",
			Kind:      bench.KindInference,
			Status:    bench.StatusFailed,
			Error:     "server did not become ready",
			Timestamp: time.Now(),
		},
		{
			Name:      "memory_bandwidth",
			Kind:      bench.KindStress,
			Status:    bench.StatusSuccess,
			Metrics:   map[string]float64{"bandwidth": 500},
			Timestamp: time.Now(),
		},
	}
}

func TestBuildSummaryCounts(t *testing.T) {
	g := NewGenerator(testr.New(t))
	report := g.Build(sampleResults(), telemetry.Summary{}, hardware.KindNvidia)

	assert.Equal(t, 3, report.Summary.Total)
	assert.Equal(t, 2, report.Summary.Successful)
	assert.Equal(t, 1, report.Summary.Failed)
	assert.Equal(t, report.Summary.Total, report.Summary.Successful+report.Summary.Failed)
	assert.InDelta(t, 66.7, report.Summary.SuccessRate, 0.1)
	assert.Equal(t, hardware.KindNvidia, report.Summary.HardwareType)
}

func TestBuildSuccessRateEdgeCases(t *testing.T) {
	g := NewGenerator(testr.New(t))

	// No results must not divide by zero
	empty := g.Build(nil, telemetry.Summary{}, hardware.KindUnknown)
	assert.Equal(t, 0, empty.Summary.Total)
	assert.Equal(t, 0.0, empty.Summary.SuccessRate)

	allSuccess := g.Build([]bench.Result{
		{Name: "a", Status: bench.StatusSuccess},
		{Name: "b", Status: bench.StatusSuccess},
	}, telemetry.Summary{}, hardware.KindUnknown)
	assert.Equal(t, 100.0, allSuccess.Summary.SuccessRate)

	allFailed := g.Build([]bench.Result{
		{Name: "a", Status: bench.StatusFailed, Error: "x"},
		{Name: "b", Status: bench.StatusFailed, Error: "y"},
	}, telemetry.Summary{}, hardware.KindUnknown)
	assert.Equal(t, 0.0, allFailed.Summary.SuccessRate)
	assert.Equal(t, 2, allFailed.Summary.Failed)
}

func TestJSONAndHTMLAgree(t *testing.T) {
	g := NewGenerator(testr.New(t))
	report := g.Build(sampleResults(), telemetry.Summary{}, hardware.KindAscend)
	dir := t.TempDir()

	jsonPath, err := g.WriteJSON(report, dir)
	require.NoError(t, err)
	htmlPath, err := g.WriteHTML(report, dir)
	require.NoError(t, err)

	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var decoded RunReport
	require.NoError(t, json.Unmarshal(data, &decoded))

	html, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	page := string(html)

	// Both encodings must report the same summary numbers
	assert.Equal(t, report.Summary.Total, decoded.Summary.Total)
	assert.Equal(t, report.Summary.Successful, decoded.Summary.Successful)
	assert.Equal(t, report.Summary.Failed, decoded.Summary.Failed)
	assert.Contains(t, page, fmt.Sprintf("Total Tests: %d", decoded.Summary.Total))
	assert.Contains(t, page, fmt.Sprintf("Successful Tests: %d", decoded.Summary.Successful))
	assert.Contains(t, page, fmt.Sprintf("Failed Tests: %d", decoded.Summary.Failed))

	// And the same per-result statuses
	require.Len(t, decoded.Results, len(report.Results))
	for _, result := range decoded.Results {
		assert.Contains(t, page, result.Name)
	}
	assert.Contains(t, page, `class="result failed"`)
	assert.Contains(t, page, "server did not become ready")
	assert.Equal(t, strings.Count(page, `class="result success"`), decoded.Summary.Successful)
	assert.Equal(t, strings.Count(page, `class="result failed"`), decoded.Summary.Failed)
}

func TestWriteFailuresAreNotFatal(t *testing.T) {
	g := NewGenerator(testr.New(t))
	report := g.Build(sampleResults(), telemetry.Summary{}, hardware.KindUnknown)

	_, err := g.WriteJSON(report, "/nonexistent/output/dir")
	assert.Error(t, err)
	_, err = g.WriteHTML(report, "/nonexistent/output/dir")
	assert.Error(t, err)

	// The in-memory report is untouched
	assert.Equal(t, 3, report.Summary.Total)
}

func TestArtifactName(t *testing.T) {
	ts := time.Date(2026, 8, 29, 13, 4, 5, 0, time.UTC)
	assert.Equal(t, "benchmark_report_20260829_130405.json",
		ArtifactName("benchmark_report", "json", ts))
}
