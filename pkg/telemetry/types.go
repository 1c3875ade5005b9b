// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package telemetry

import (
	"time"
)

// Vendor identifies an accelerator family monitored as a telemetry source.
type Vendor string

const (
	VendorNvidia Vendor = "nvidia"
	VendorAscend Vendor = "ascend"
)

// SystemStats represents one snapshot of host-level resource usage.
// All values come from a single probe invocation; if the probe fails the
// whole struct is omitted from the sample rather than partially filled.
type SystemStats struct {
	CPUPercent    float64 `json:"cpu_percent"`
	CPUCount      int     `json:"cpu_count"`
	MemoryTotal   uint64  `json:"memory_total_bytes"`
	MemoryUsed    uint64  `json:"memory_used_bytes"`
	MemoryPercent float64 `json:"memory_percent"`
	DiskTotal     uint64  `json:"disk_total_bytes"`
	DiskUsed      uint64  `json:"disk_used_bytes"`
	DiskPercent   float64 `json:"disk_percent"`
	// Cumulative counters since boot, summed across interfaces
	NetworkBytesSent uint64 `json:"network_bytes_sent"`
	NetworkBytesRecv uint64 `json:"network_bytes_recv"`
}

// AcceleratorStats represents one physical accelerator device at one point
// in time. Values a probe cannot determine are reported as zero; the device
// entry itself is only present when the probe saw the device.
type AcceleratorStats struct {
	Index              int     `json:"index"`
	Name               string  `json:"name"`
	UtilizationPercent float64 `json:"utilization_percent"`
	MemoryUsedMB       float64 `json:"memory_used_mb"`
	MemoryTotalMB      float64 `json:"memory_total_mb"`
	TemperatureC       float64 `json:"temperature_c"`
	PowerDrawW         float64 `json:"power_draw_w"`
}

// MetricSample is one timestamped snapshot combining all probe outputs.
// Samples are immutable once appended and timestamps are non-decreasing
// within one collection session.
type MetricSample struct {
	Timestamp    time.Time                     `json:"timestamp"`
	System       *SystemStats                  `json:"system,omitempty"`
	Accelerators map[Vendor][]AcceleratorStats `json:"accelerators,omitempty"`
}

// FieldSummary holds the arithmetic mean and maximum of one numeric field
// across all samples where the field's source probe produced data.
type FieldSummary struct {
	Avg float64 `json:"avg"`
	Max float64 `json:"max"`
}

// SystemSummary aggregates the host-level fields of a collection session.
type SystemSummary struct {
	CPUPercent    FieldSummary `json:"cpu_percent"`
	MemoryPercent FieldSummary `json:"memory_percent"`
	DiskPercent   FieldSummary `json:"disk_percent"`
}

// AcceleratorSummary aggregates per-vendor device fields across all device
// records seen during a collection session.
type AcceleratorSummary struct {
	Devices            int          `json:"devices"`
	UtilizationPercent FieldSummary `json:"utilization_percent"`
	MemoryUsedMB       FieldSummary `json:"memory_used_mb"`
	TemperatureC       FieldSummary `json:"temperature_c"`
	PowerDrawW         FieldSummary `json:"power_draw_w"`
}

// Summary is the aggregate view of one collection session. Sources that
// never produced a sample are omitted entirely.
type Summary struct {
	Duration     time.Duration                  `json:"collection_duration_ns"`
	TotalSamples int                            `json:"total_samples"`
	System       *SystemSummary                 `json:"system,omitempty"`
	Accelerators map[Vendor]*AcceleratorSummary `json:"accelerators,omitempty"`
}

// CollectionConfig represents configuration for telemetry collection
type CollectionConfig struct {
	// Interval between samples
	Interval time.Duration
	// ProbeTimeout bounds each external probe invocation so a hung
	// diagnostic tool cannot stall the sampling loop
	ProbeTimeout time.Duration
	// StopTimeout bounds how long Stop waits for the sampling goroutine
	StopTimeout time.Duration
}

// DefaultCollectionConfig returns a default configuration
func DefaultCollectionConfig() CollectionConfig {
	return CollectionConfig{
		Interval:     time.Second,
		ProbeTimeout: 10 * time.Second,
		StopTimeout:  5 * time.Second,
	}
}

// ApplyDefaults fills in zero values with defaults
func (c *CollectionConfig) ApplyDefaults() {
	defaults := DefaultCollectionConfig()

	if c.Interval <= 0 {
		c.Interval = defaults.Interval
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = defaults.ProbeTimeout
	}
	if c.StopTimeout <= 0 {
		c.StopTimeout = defaults.StopTimeout
	}
}
