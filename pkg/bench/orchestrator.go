// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package bench

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/shaowenchen/xpu-benchmark/internal/config"
)

// Kind is the benchmark group a unit belongs to.
type Kind string

const (
	KindTraining  Kind = "training"
	KindInference Kind = "inference"
	KindStress    Kind = "stress"
)

// GroupOrder is the fixed order groups run in during a full run.
var GroupOrder = []Kind{KindTraining, KindInference, KindStress}

// Status is the outcome of one benchmark unit invocation.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Result records the outcome of one benchmark unit invocation. Error is
// populated iff Status is failed.
type Result struct {
	Name      string             `json:"benchmark_name"`
	Kind      Kind               `json:"type"`
	Status    Status             `json:"status"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
	Error     string             `json:"error,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// Orchestrator runs the configured benchmark groups strictly sequentially,
// isolating each unit's failure to its own result. No error escapes
// RunGroup or RunAll; all failure is represented as result data.
type Orchestrator struct {
	benchmarks config.Benchmarks
	registry   *Registry
	logger     logr.Logger
}

func NewOrchestrator(logger logr.Logger, benchmarks config.Benchmarks, registry *Registry) *Orchestrator {
	return &Orchestrator{
		benchmarks: benchmarks,
		registry:   registry,
		logger:     logger.WithName("orchestrator"),
	}
}

func (o *Orchestrator) group(kind Kind) config.Group {
	switch kind {
	case KindTraining:
		return o.benchmarks.Training
	case KindInference:
		return o.benchmarks.Inference
	case KindStress:
		return o.benchmarks.Stress
	}
	return nil
}

// RunGroup invokes each enabled entry of the group in configuration order.
// Disabled entries are skipped without a result. A failing unit yields a
// failed result and the group continues with the next entry.
func (o *Orchestrator) RunGroup(ctx context.Context, kind Kind) []Result {
	entries := o.group(kind)
	o.logger.Info("starting benchmark group", "kind", kind, "entries", len(entries))

	var results []Result
	for _, entry := range entries {
		if !entry.Enabled {
			o.logger.Info("skipping disabled benchmark", "kind", kind, "name", entry.Name)
			continue
		}
		results = append(results, o.runUnit(ctx, kind, entry))
	}
	return results
}

func (o *Orchestrator) runUnit(ctx context.Context, kind Kind, entry config.Entry) Result {
	o.logger.Info("running benchmark", "kind", kind, "name", entry.Name)

	unit, ok := o.registry.Get(entry.Name)
	if !ok {
		o.logger.Info("no benchmark unit registered", "kind", kind, "name", entry.Name)
		return Result{
			Name:      entry.Name,
			Kind:      kind,
			Status:    StatusFailed,
			Error:     fmt.Sprintf("no benchmark unit registered for %q", entry.Name),
			Timestamp: time.Now(),
		}
	}

	metrics, err := unit.Run(ctx, entry.Name, entry.Params)
	if err != nil {
		o.logger.Error(err, "benchmark failed", "kind", kind, "name", entry.Name)
		return Result{
			Name:      entry.Name,
			Kind:      kind,
			Status:    StatusFailed,
			Error:     err.Error(),
			Timestamp: time.Now(),
		}
	}

	o.logger.Info("benchmark completed", "kind", kind, "name", entry.Name)
	return Result{
		Name:      entry.Name,
		Kind:      kind,
		Status:    StatusSuccess,
		Metrics:   metrics,
		Timestamp: time.Now(),
	}
}

// RunAll runs the training, inference and stress groups sequentially and
// concatenates their results, preserving group and within-group order.
func (o *Orchestrator) RunAll(ctx context.Context) []Result {
	var results []Result
	for _, kind := range GroupOrder {
		results = append(results, o.RunGroup(ctx, kind)...)
	}
	return results
}
