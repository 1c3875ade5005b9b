// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-logr/logr"
)

// Collector owns a background sampling loop and the sequence of samples it
// produces. Exactly one sampling goroutine runs per started Collector; the
// sample sequence is written solely by that goroutine and becomes read-only
// to callers once Stop has joined it.
type Collector struct {
	logger logr.Logger
	config CollectionConfig

	system SystemProbe
	accels []AcceleratorProbe

	mu        sync.Mutex
	running   bool
	cancel    context.CancelFunc
	done      chan struct{}
	startTime time.Time
	samples   []MetricSample
}

// NewCollector assembles a Collector from the probes in the global registry.
func NewCollector(logger logr.Logger, config CollectionConfig) (*Collector, error) {
	config.ApplyDefaults()

	systemFactory, err := GetSystemProbe()
	if err != nil {
		return nil, err
	}
	system, err := systemFactory(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create system probe: %w", err)
	}

	var accels []AcceleratorProbe
	for _, vendor := range RegisteredVendors() {
		factory, err := GetAcceleratorProbe(vendor)
		if err != nil {
			continue
		}
		probe, err := factory(logger, config)
		if err != nil {
			logger.Error(err, "failed to create accelerator probe", "vendor", vendor)
			continue
		}
		accels = append(accels, probe)
	}

	return NewCollectorWithProbes(logger, config, system, accels...), nil
}

// NewCollectorWithProbes assembles a Collector from an explicit probe set.
func NewCollectorWithProbes(logger logr.Logger, config CollectionConfig, system SystemProbe, accels ...AcceleratorProbe) *Collector {
	config.ApplyDefaults()
	return &Collector{
		logger: logger.WithName("collector"),
		config: config,
		system: system,
		accels: accels,
	}
}

// Start clears any previous sample sequence and launches the sampling
// goroutine. Calling Start while already running is a warned no-op; the
// existing sequence is not reset.
func (c *Collector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		c.logger.Info("metrics collection already running")
		return
	}

	c.samples = nil
	c.startTime = time.Now()
	c.running = true
	c.done = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	go c.run(ctx, c.done)

	c.logger.Info("started metrics collection", "interval", c.config.Interval)
}

// Stop signals the sampling goroutine and waits up to the configured stop
// timeout for it to finish. A goroutine that does not finish in time is
// abandoned rather than forcibly killed; it can no longer mutate the sample
// sequence because it observes the cancelled context before appending.
// Calling Stop when not running is a warned no-op.
func (c *Collector) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		c.logger.Info("metrics collection not running")
		return
	}
	c.running = false
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	cancel()

	select {
	case <-done:
	case <-time.After(c.config.StopTimeout):
		c.logger.Info("sampling goroutine did not stop in time, abandoning",
			"timeout", c.config.StopTimeout)
	}

	c.logger.Info("stopped metrics collection")
}

// Running reports whether the sampling goroutine is active.
func (c *Collector) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *Collector) run(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(c.config.Interval)
	defer ticker.Stop()

	// Take one sample immediately so short sessions still observe data
	c.takeSample(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.takeSample(ctx)
		}
	}
}

// takeSample invokes every probe independently and appends one sample.
// A failing probe yields an empty result for that source only; it never
// aborts the sample or the loop.
func (c *Collector) takeSample(ctx context.Context) {
	sample := MetricSample{Timestamp: time.Now()}

	system, err := c.collectSystem(ctx)
	if err != nil {
		c.logger.Error(err, "failed to collect system stats")
	} else {
		sample.System = system
	}

	for _, probe := range c.accels {
		devices, err := c.collectAccelerator(ctx, probe)
		if err != nil {
			c.logger.Error(err, "failed to collect accelerator stats", "vendor", probe.Vendor())
			continue
		}
		if len(devices) == 0 {
			continue
		}
		if sample.Accelerators == nil {
			sample.Accelerators = make(map[Vendor][]AcceleratorStats)
		}
		sample.Accelerators[probe.Vendor()] = devices
	}

	select {
	case <-ctx.Done():
		// Stop already returned; the sequence is read-only now
		return
	default:
	}

	c.mu.Lock()
	c.samples = append(c.samples, sample)
	c.mu.Unlock()
}

func (c *Collector) collectSystem(ctx context.Context) (*SystemStats, error) {
	probeCtx, cancel := context.WithTimeout(ctx, c.config.ProbeTimeout)
	defer cancel()
	return c.system.Collect(probeCtx)
}

func (c *Collector) collectAccelerator(ctx context.Context, probe AcceleratorProbe) ([]AcceleratorStats, error) {
	probeCtx, cancel := context.WithTimeout(ctx, c.config.ProbeTimeout)
	defer cancel()
	return probe.Collect(probeCtx)
}

// Samples returns a copy of the sample sequence collected so far.
func (c *Collector) Samples() []MetricSample {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]MetricSample, len(c.samples))
	copy(out, c.samples)
	return out
}

// Latest returns the most recent sample, or nil if none has been taken.
func (c *Collector) Latest() *MetricSample {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.samples) == 0 {
		return nil
	}
	sample := c.samples[len(c.samples)-1]
	return &sample
}

// Save serializes the summary and raw samples as JSON to path. Failures are
// logged and returned as data; they are never fatal to the run.
func (c *Collector) Save(path string) error {
	payload := struct {
		Summary    Summary        `json:"summary"`
		RawSamples []MetricSample `json:"raw_samples"`
	}{
		Summary:    c.Summary(),
		RawSamples: c.Samples(),
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		c.logger.Error(err, "failed to encode metrics", "path", path)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		c.logger.Error(err, "failed to save metrics", "path", path)
		return err
	}

	c.logger.Info("metrics saved", "path", path, "samples", len(payload.RawSamples))
	return nil
}
