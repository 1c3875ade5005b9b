// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package bench

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
)

// Unit is a pluggable benchmark workload identified by name. On success it
// returns its metrics; on failure it returns an error that the orchestrator
// converts into a failed result. A Unit is never invoked concurrently with
// another: accelerator workloads are exclusive-resource operations.
type Unit interface {
	Run(ctx context.Context, name string, params map[string]any) (map[string]float64, error)
}

// UnitFunc adapts a function to the Unit interface.
type UnitFunc func(ctx context.Context, name string, params map[string]any) (map[string]float64, error)

func (f UnitFunc) Run(ctx context.Context, name string, params map[string]any) (map[string]float64, error) {
	return f(ctx, name, params)
}

// Registry maps benchmark names to their Unit implementations. It is
// populated once at startup so a configured name that has no unit is caught
// as a failed result, not a runtime surprise deep in a run.
type Registry struct {
	units  map[string]Unit
	logger logr.Logger
}

func NewRegistry(logger logr.Logger) *Registry {
	return &Registry{
		units:  make(map[string]Unit),
		logger: logger.WithName("registry"),
	}
}

// Register adds a benchmark unit under name.
func (r *Registry) Register(name string, unit Unit) error {
	if unit == nil {
		return fmt.Errorf("cannot register nil unit")
	}
	if _, exists := r.units[name]; exists {
		return fmt.Errorf("benchmark unit %q already registered", name)
	}
	r.units[name] = unit
	r.logger.V(1).Info("registered benchmark unit", "name", name)
	return nil
}

// Get returns the unit registered under name.
func (r *Registry) Get(name string) (Unit, bool) {
	unit, ok := r.units[name]
	return unit, ok
}
