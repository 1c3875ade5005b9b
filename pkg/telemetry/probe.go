// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package telemetry

import (
	"context"
)

// SystemProbe queries host-level telemetry (CPU, memory, disk, network).
//
// Probes are best-effort: an error means "no data this sample" and is
// handled at the collector boundary, never surfaced to callers.
type SystemProbe interface {
	Name() string

	// Collect performs a single collection and returns the stats
	Collect(ctx context.Context) (*SystemStats, error)
}

// AcceleratorProbe queries the devices of one accelerator vendor.
//
// An empty slice with a nil error is the normal result on hosts without
// that vendor's hardware or diagnostic tooling.
type AcceleratorProbe interface {
	Vendor() Vendor
	Name() string

	// Collect returns one entry per physical device found
	Collect(ctx context.Context) ([]AcceleratorStats, error)
}
