// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package telemetry

// aggregate accumulates one numeric field across samples.
type aggregate struct {
	sum   float64
	max   float64
	count int
}

func (a *aggregate) add(v float64) {
	a.sum += v
	if a.count == 0 || v > a.max {
		a.max = v
	}
	a.count++
}

func (a *aggregate) summary() FieldSummary {
	if a.count == 0 {
		return FieldSummary{}
	}
	return FieldSummary{Avg: a.sum / float64(a.count), Max: a.max}
}

// Summary computes the mean and maximum of every field across all samples
// where the field's source was present. An empty session yields a zero-value
// summary; sources that never produced data are omitted.
func (c *Collector) Summary() Summary {
	c.mu.Lock()
	samples := c.samples
	startTime := c.startTime
	c.mu.Unlock()

	summary := Summary{TotalSamples: len(samples)}
	if len(samples) == 0 {
		return summary
	}
	summary.Duration = samples[len(samples)-1].Timestamp.Sub(startTime)

	var cpu, memory, disk aggregate
	systemSeen := false
	type accelAggregate struct {
		util, mem, temp, power aggregate
		devices                int
	}
	accels := make(map[Vendor]*accelAggregate)

	for _, sample := range samples {
		if sample.System != nil {
			systemSeen = true
			cpu.add(sample.System.CPUPercent)
			memory.add(sample.System.MemoryPercent)
			disk.add(sample.System.DiskPercent)
		}
		for vendor, devices := range sample.Accelerators {
			agg := accels[vendor]
			if agg == nil {
				agg = &accelAggregate{}
				accels[vendor] = agg
			}
			if len(devices) > agg.devices {
				agg.devices = len(devices)
			}
			for _, device := range devices {
				agg.util.add(device.UtilizationPercent)
				agg.mem.add(device.MemoryUsedMB)
				agg.temp.add(device.TemperatureC)
				agg.power.add(device.PowerDrawW)
			}
		}
	}

	if systemSeen {
		summary.System = &SystemSummary{
			CPUPercent:    cpu.summary(),
			MemoryPercent: memory.summary(),
			DiskPercent:   disk.summary(),
		}
	}
	if len(accels) > 0 {
		summary.Accelerators = make(map[Vendor]*AcceleratorSummary, len(accels))
		for vendor, agg := range accels {
			summary.Accelerators[vendor] = &AcceleratorSummary{
				Devices:            agg.devices,
				UtilizationPercent: agg.util.summary(),
				MemoryUsedMB:       agg.mem.summary(),
				TemperatureC:       agg.temp.summary(),
				PowerDrawW:         agg.power.summary(),
			}
		}
	}

	return summary
}
