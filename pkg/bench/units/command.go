// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package units provides the built-in benchmark unit implementations.
//
// Workloads themselves live outside this binary (training loops, inference
// servers, stress kernels); the command unit bridges to them by running the
// configured executable and reading its metrics from stdout.
package units

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/go-logr/logr"

	"github.com/shaowenchen/xpu-benchmark/internal/config"
	"github.com/shaowenchen/xpu-benchmark/pkg/bench"
)

const defaultCommandTimeout = 30 * time.Minute

// CommandUnit runs an external workload command and parses a flat JSON
// object of numeric metrics from its standard output.
type CommandUnit struct {
	logger logr.Logger
}

// Compile-time interface check
var _ bench.Unit = (*CommandUnit)(nil)

func NewCommandUnit(logger logr.Logger) *CommandUnit {
	return &CommandUnit{logger: logger.WithName("command-unit")}
}

func (u *CommandUnit) Run(ctx context.Context, name string, params map[string]any) (map[string]float64, error) {
	command, ok := params["command"].(string)
	if !ok || command == "" {
		return nil, fmt.Errorf("benchmark %q has no command configured", name)
	}

	var args []string
	if raw, ok := params["args"].([]any); ok {
		for _, a := range raw {
			args = append(args, fmt.Sprintf("%v", a))
		}
	}

	timeout := defaultCommandTimeout
	if seconds, ok := params["timeout_seconds"].(float64); ok && seconds > 0 {
		timeout = time.Duration(seconds * float64(time.Second))
	} else if seconds, ok := params["timeout_seconds"].(int); ok && seconds > 0 {
		timeout = time.Duration(seconds) * time.Second
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	u.logger.Info("running workload command", "benchmark", name, "command", command)
	out, err := exec.CommandContext(runCtx, command, args...).Output()
	if err != nil {
		return nil, fmt.Errorf("workload command failed: %w", err)
	}

	metrics := make(map[string]float64)
	if err := json.Unmarshal(out, &metrics); err != nil {
		return nil, fmt.Errorf("workload output is not a metrics object: %w", err)
	}
	return metrics, nil
}

// RegisterConfigured registers a command unit for every configured entry so
// that any enabled benchmark resolves at startup. Entries without a command
// still register; they fail at run time with a per-unit error instead of
// aborting the run.
func RegisterConfigured(logger logr.Logger, registry *bench.Registry, benchmarks config.Benchmarks) {
	unit := NewCommandUnit(logger)
	for _, group := range []config.Group{benchmarks.Training, benchmarks.Inference, benchmarks.Stress} {
		for _, entry := range group {
			if err := registry.Register(entry.Name, unit); err != nil {
				logger.Error(err, "failed to register benchmark unit", "name", entry.Name)
			}
		}
	}
}
