// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package telemetry

import (
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
)

// NewSystemProbe creates a SystemProbe with the provided logger and configuration.
type NewSystemProbe func(logger logr.Logger, config CollectionConfig) (SystemProbe, error)

// NewAcceleratorProbe creates an AcceleratorProbe with the provided logger and
// configuration.
type NewAcceleratorProbe func(logger logr.Logger, config CollectionConfig) (AcceleratorProbe, error)

var (
	systemProbeFactory NewSystemProbe
	acceleratorProbes  = make(map[Vendor]NewAcceleratorProbe)
	registryLogger     = stdr.New(log.New(os.Stderr, "[telemetry.registry] ", log.LstdFlags))
)

// RegisterSystemProbe adds the host stats probe factory to the global registry.
//
// This function is usually called during package initialization (typically in
// init() functions) to register probe implementations before a Collector is
// instantiated. It will panic if a system probe is already registered.
func RegisterSystemProbe(factory NewSystemProbe) {
	if systemProbeFactory != nil {
		panic("system probe already registered")
	}
	systemProbeFactory = factory
	registryLogger.V(1).Info("registered system probe")
}

// RegisterAcceleratorProbe adds a probe factory for vendor to the global
// registry. It will panic if a probe for the given vendor is already
// registered.
func RegisterAcceleratorProbe(vendor Vendor, factory NewAcceleratorProbe) {
	if _, exists := acceleratorProbes[vendor]; exists {
		panic(fmt.Sprintf("accelerator probe for %s already registered", vendor))
	}
	acceleratorProbes[vendor] = factory
	registryLogger.V(1).Info("registered accelerator probe", "vendor", vendor)
}

// GetSystemProbe returns the registered system probe factory.
func GetSystemProbe() (NewSystemProbe, error) {
	if systemProbeFactory == nil {
		return nil, fmt.Errorf("no system probe registered")
	}
	return systemProbeFactory, nil
}

// GetAcceleratorProbe returns the registered probe factory for vendor.
func GetAcceleratorProbe(vendor Vendor) (NewAcceleratorProbe, error) {
	factory, exists := acceleratorProbes[vendor]
	if !exists {
		return nil, fmt.Errorf("no accelerator probe registered for vendor %s", vendor)
	}
	return factory, nil
}

// RegisteredVendors returns the vendors with a registered probe in a stable
// order.
func RegisteredVendors() []Vendor {
	vendors := make([]Vendor, 0, len(acceleratorProbes))
	for vendor := range acceleratorProbes {
		vendors = append(vendors, vendor)
	}
	sort.Slice(vendors, func(i, j int) bool { return vendors[i] < vendors[j] })
	return vendors
}
