// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package probes

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/go-logr/logr"

	"github.com/shaowenchen/xpu-benchmark/pkg/telemetry"
)

// AscendProbe collects per-NPU stats with a two-tier strategy: npu-smi
// free-text output first, an lspci device scan as fallback. Fields a tier
// cannot determine are reported as zero. A host without Ascend tooling
// yields an empty device list, not an error.
type AscendProbe struct {
	logger  logr.Logger
	smiPath string
}

// Compile-time interface check
var _ telemetry.AcceleratorProbe = (*AscendProbe)(nil)

func init() {
	telemetry.RegisterAcceleratorProbe(telemetry.VendorAscend,
		func(logger logr.Logger, config telemetry.CollectionConfig) (telemetry.AcceleratorProbe, error) {
			return NewAscendProbe(logger), nil
		},
	)
}

func NewAscendProbe(logger logr.Logger) *AscendProbe {
	path, err := exec.LookPath("npu-smi")
	if err != nil {
		path = ""
	}
	return &AscendProbe{
		logger:  logger.WithName("ascend"),
		smiPath: path,
	}
}

func (p *AscendProbe) Vendor() telemetry.Vendor { return telemetry.VendorAscend }
func (p *AscendProbe) Name() string             { return "Ascend NPU Probe" }

func (p *AscendProbe) Collect(ctx context.Context) ([]telemetry.AcceleratorStats, error) {
	if p.smiPath != "" {
		devices, err := p.collectSMI(ctx)
		if err == nil {
			return devices, nil
		}
		p.logger.V(1).Info("npu-smi failed, falling back to lspci", "error", err.Error())
	}
	return collectLspci(ctx)
}

func (p *AscendProbe) collectSMI(ctx context.Context) ([]telemetry.AcceleratorStats, error) {
	cmd := exec.CommandContext(ctx, p.smiPath, "info")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("npu-smi: %w", err)
	}
	return parseNpuSMI(string(out)), nil
}

// parseNpuSMI line-parses the boxed table emitted by "npu-smi info". Each
// device occupies a pair of rows:
//
//	| 0     910B  | OK           | 65.0         45             |
//	| 0     0     | 0000:C1:00.0 | 0            1456 / 32768   |
//
// The first row carries index, chip name, power (W) and temperature (C);
// the second carries AICore utilization (%) and memory used/total (MB).
// Parsing is best-effort: rows that do not match are skipped and fields
// that cannot be read stay zero.
func parseNpuSMI(out string) []telemetry.AcceleratorStats {
	var devices []telemetry.AcceleratorStats
	var current *telemetry.AcceleratorStats

	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "|") {
			continue
		}
		cells := strings.Split(strings.Trim(line, "|"), "|")
		if len(cells) < 3 {
			continue
		}
		head := strings.Fields(cells[0])
		if len(head) < 2 {
			continue
		}
		id, err := strconv.Atoi(head[0])
		if err != nil {
			continue
		}

		if _, err := strconv.Atoi(head[1]); err != nil {
			// Name row: index, chip name | health | power temp
			devices = append(devices, telemetry.AcceleratorStats{
				Index: id,
				Name:  head[1],
			})
			current = &devices[len(devices)-1]
			if stats := strings.Fields(cells[2]); len(stats) >= 2 {
				current.PowerDrawW = npuFloat(stats[0])
				current.TemperatureC = npuFloat(stats[1])
			}
			continue
		}

		// Detail row: chip, device | bus id | aicore% used / total
		if current == nil {
			continue
		}
		if stats := strings.Fields(cells[2]); len(stats) >= 1 {
			current.UtilizationPercent = npuFloat(stats[0])
			if len(stats) >= 4 && stats[2] == "/" {
				current.MemoryUsedMB = npuFloat(stats[1])
				current.MemoryTotalMB = npuFloat(stats[3])
			}
		}
		current = nil
	}

	return devices
}

func npuFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// collectLspci scans the PCI bus for Ascend devices. It only recovers the
// device name; utilization, memory, temperature and power stay zero.
func collectLspci(ctx context.Context) ([]telemetry.AcceleratorStats, error) {
	path, err := exec.LookPath("lspci")
	if err != nil {
		return nil, nil
	}
	cmd := exec.CommandContext(ctx, path)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("lspci: %w", err)
	}
	return parseLspci(string(out)), nil
}

// parseLspci extracts Ascend device entries from raw lspci output.
func parseLspci(out string) []telemetry.AcceleratorStats {
	var devices []telemetry.AcceleratorStats
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(strings.ToLower(line), "ascend") {
			continue
		}
		name := line
		if idx := strings.Index(line, ": "); idx >= 0 {
			name = line[idx+2:]
		}
		devices = append(devices, telemetry.AcceleratorStats{
			Index: len(devices),
			Name:  strings.TrimSpace(name),
		})
	}

	return devices
}
