// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package probes

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
	gopsnet "github.com/shirou/gopsutil/v4/net"

	"github.com/shaowenchen/xpu-benchmark/pkg/telemetry"
)

const systemDiskPath = "/"

// SystemProbe collects host-level stats (CPU, memory, disk, network) via
// gopsutil. Any failing source fails the whole probe; the collector then
// omits the system section from that sample.
type SystemProbe struct {
	logger logr.Logger
}

// Compile-time interface check
var _ telemetry.SystemProbe = (*SystemProbe)(nil)

func init() {
	telemetry.RegisterSystemProbe(
		func(logger logr.Logger, config telemetry.CollectionConfig) (telemetry.SystemProbe, error) {
			return NewSystemProbe(logger), nil
		},
	)
}

func NewSystemProbe(logger logr.Logger) *SystemProbe {
	return &SystemProbe{logger: logger.WithName("system")}
}

func (p *SystemProbe) Name() string { return "System Stats Probe" }

func (p *SystemProbe) Collect(ctx context.Context) (*telemetry.SystemStats, error) {
	// Utilization since the previous call; the first sample of a session
	// reads as zero
	cpuPercents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return nil, fmt.Errorf("failed to collect cpu stats: %w", err)
	}
	cpuCount, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to count cpus: %w", err)
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to collect memory stats: %w", err)
	}

	du, err := disk.UsageWithContext(ctx, systemDiskPath)
	if err != nil {
		return nil, fmt.Errorf("failed to collect disk stats: %w", err)
	}

	netCounters, err := gopsnet.IOCountersWithContext(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to collect network stats: %w", err)
	}

	stats := &telemetry.SystemStats{
		CPUCount:      cpuCount,
		MemoryTotal:   vm.Total,
		MemoryUsed:    vm.Used,
		MemoryPercent: vm.UsedPercent,
		DiskTotal:     du.Total,
		DiskUsed:      du.Used,
		DiskPercent:   du.UsedPercent,
	}
	if len(cpuPercents) > 0 {
		stats.CPUPercent = cpuPercents[0]
	}
	if len(netCounters) > 0 {
		stats.NetworkBytesSent = netCounters[0].BytesSent
		stats.NetworkBytesRecv = netCounters[0].BytesRecv
	}

	return stats, nil
}
