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

	"github.com/NVIDIA/go-nvml/pkg/nvml"
	"github.com/go-logr/logr"

	"github.com/shaowenchen/xpu-benchmark/pkg/telemetry"
)

const nvidiaSMIQuery = "--query-gpu=index,name,utilization.gpu,memory.used,memory.total,temperature.gpu,power.draw"

// NvidiaProbe collects per-GPU stats with a two-tier strategy: nvidia-smi
// CSV output first, the in-process NVML runtime as fallback. A host without
// either yields an empty device list, not an error.
type NvidiaProbe struct {
	logger  logr.Logger
	smiPath string
}

// Compile-time interface check
var _ telemetry.AcceleratorProbe = (*NvidiaProbe)(nil)

func init() {
	telemetry.RegisterAcceleratorProbe(telemetry.VendorNvidia,
		func(logger logr.Logger, config telemetry.CollectionConfig) (telemetry.AcceleratorProbe, error) {
			return NewNvidiaProbe(logger), nil
		},
	)
}

func NewNvidiaProbe(logger logr.Logger) *NvidiaProbe {
	path, err := exec.LookPath("nvidia-smi")
	if err != nil {
		path = ""
	}
	return &NvidiaProbe{
		logger:  logger.WithName("nvidia"),
		smiPath: path,
	}
}

func (p *NvidiaProbe) Vendor() telemetry.Vendor { return telemetry.VendorNvidia }
func (p *NvidiaProbe) Name() string             { return "NVIDIA GPU Probe" }

func (p *NvidiaProbe) Collect(ctx context.Context) ([]telemetry.AcceleratorStats, error) {
	if p.smiPath != "" {
		devices, err := p.collectSMI(ctx)
		if err == nil {
			return devices, nil
		}
		p.logger.V(1).Info("nvidia-smi failed, falling back to NVML", "error", err.Error())
	}
	return p.collectNVML()
}

func (p *NvidiaProbe) collectSMI(ctx context.Context) ([]telemetry.AcceleratorStats, error) {
	cmd := exec.CommandContext(ctx, p.smiPath, nvidiaSMIQuery, "--format=csv,noheader,nounits")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("nvidia-smi: %w", err)
	}
	return parseNvidiaSMI(string(out)), nil
}

// parseNvidiaSMI parses csv,noheader,nounits output, one device per line:
// index, name, utilization.gpu, memory.used, memory.total, temperature.gpu, power.draw
// Fields nvidia-smi reports as "N/A" or "[N/A]" are recorded as zero.
func parseNvidiaSMI(out string) []telemetry.AcceleratorStats {
	var devices []telemetry.AcceleratorStats

	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) < 7 {
			continue
		}
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}

		index, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		devices = append(devices, telemetry.AcceleratorStats{
			Index:              index,
			Name:               fields[1],
			UtilizationPercent: smiFloat(fields[2]),
			MemoryUsedMB:       smiFloat(fields[3]),
			MemoryTotalMB:      smiFloat(fields[4]),
			TemperatureC:       smiFloat(fields[5]),
			PowerDrawW:         smiFloat(fields[6]),
		})
	}

	return devices
}

func smiFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func (p *NvidiaProbe) collectNVML() ([]telemetry.AcceleratorStats, error) {
	if ret := nvml.Init(); ret != nvml.SUCCESS {
		// No driver or library on this host; not an error
		p.logger.V(2).Info("NVML unavailable", "reason", nvml.ErrorString(ret))
		return nil, nil
	}
	defer func() { _ = nvml.Shutdown() }()

	count, ret := nvml.DeviceGetCount()
	if ret != nvml.SUCCESS {
		return nil, fmt.Errorf("nvml device count: %s", nvml.ErrorString(ret))
	}

	devices := make([]telemetry.AcceleratorStats, 0, count)
	for i := 0; i < count; i++ {
		device, ret := nvml.DeviceGetHandleByIndex(i)
		if ret != nvml.SUCCESS {
			p.logger.V(1).Info("failed to get device handle",
				"index", i, "reason", nvml.ErrorString(ret))
			continue
		}

		stats := telemetry.AcceleratorStats{Index: i}
		if name, ret := device.GetName(); ret == nvml.SUCCESS {
			stats.Name = name
		}
		if util, ret := device.GetUtilizationRates(); ret == nvml.SUCCESS {
			stats.UtilizationPercent = float64(util.Gpu)
		}
		if mem, ret := device.GetMemoryInfo(); ret == nvml.SUCCESS {
			stats.MemoryUsedMB = float64(mem.Used) / (1024 * 1024)
			stats.MemoryTotalMB = float64(mem.Total) / (1024 * 1024)
		}
		if temp, ret := device.GetTemperature(nvml.TEMPERATURE_GPU); ret == nvml.SUCCESS {
			stats.TemperatureC = float64(temp)
		}
		if power, ret := device.GetPowerUsage(); ret == nvml.SUCCESS {
			stats.PowerDrawW = float64(power) / 1000 // milliwatts
		}
		devices = append(devices, stats)
	}

	return devices, nil
}
