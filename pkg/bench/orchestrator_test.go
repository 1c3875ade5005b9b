// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package bench

import (
	"context"
	"errors"
	"testing"

	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaowenchen/xpu-benchmark/internal/config"
)

func successUnit(metrics map[string]float64) Unit {
	return UnitFunc(func(ctx context.Context, name string, params map[string]any) (map[string]float64, error) {
		return metrics, nil
	})
}

func failingUnit(message string) Unit {
	return UnitFunc(func(ctx context.Context, name string, params map[string]any) (map[string]float64, error) {
		return nil, errors.New(message)
	})
}

func TestRunGroupFailureIsolation(t *testing.T) {
	registry := NewRegistry(testr.New(t))
	require.NoError(t, registry.Register("a", successUnit(map[string]float64{"throughput": 100})))
	require.NoError(t, registry.Register("b", failingUnit("out of device memory")))
	require.NoError(t, registry.Register("c", successUnit(map[string]float64{"latency": 5})))

	benchmarks := config.Benchmarks{
		Training: config.Group{
			{Name: "a", Enabled: true},
			{Name: "b", Enabled: true},
			{Name: "c", Enabled: true},
		},
	}

	o := NewOrchestrator(testr.New(t), benchmarks, registry)
	results := o.RunGroup(context.Background(), KindTraining)

	require.Len(t, results, 3)
	assert.Equal(t, []string{"a", "b", "c"},
		[]string{results[0].Name, results[1].Name, results[2].Name})

	assert.Equal(t, StatusSuccess, results[0].Status)
	assert.Empty(t, results[0].Error)
	assert.Equal(t, 100.0, results[0].Metrics["throughput"])

	assert.Equal(t, StatusFailed, results[1].Status)
	assert.Equal(t, "out of device memory", results[1].Error)
	assert.Empty(t, results[1].Metrics)

	assert.Equal(t, StatusSuccess, results[2].Status)
	assert.Equal(t, 5.0, results[2].Metrics["latency"])
}

func TestRunGroupSkipsDisabled(t *testing.T) {
	registry := NewRegistry(testr.New(t))
	require.NoError(t, registry.Register("a", successUnit(nil)))
	require.NoError(t, registry.Register("b", successUnit(nil)))
	require.NoError(t, registry.Register("c", failingUnit("boom")))

	benchmarks := config.Benchmarks{
		Training: config.Group{
			{Name: "a", Enabled: true},
			{Name: "b", Enabled: false},
			{Name: "c", Enabled: true},
		},
	}

	o := NewOrchestrator(testr.New(t), benchmarks, registry)
	results := o.RunGroup(context.Background(), KindTraining)

	// Disabled entries produce no result at all
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Name)
	assert.Equal(t, StatusSuccess, results[0].Status)
	assert.Equal(t, "c", results[1].Name)
	assert.Equal(t, StatusFailed, results[1].Status)
}

func TestRunGroupUnregisteredUnit(t *testing.T) {
	benchmarks := config.Benchmarks{
		Inference: config.Group{{Name: "ghost", Enabled: true}},
	}

	o := NewOrchestrator(testr.New(t), benchmarks, NewRegistry(testr.New(t)))
	results := o.RunGroup(context.Background(), KindInference)

	require.Len(t, results, 1)
	assert.Equal(t, StatusFailed, results[0].Status)
	assert.NotEmpty(t, results[0].Error)
}

func TestRunGroupEmpty(t *testing.T) {
	o := NewOrchestrator(testr.New(t), config.Benchmarks{}, NewRegistry(testr.New(t)))
	assert.Empty(t, o.RunGroup(context.Background(), KindStress))
}

func TestRunAllGroupOrder(t *testing.T) {
	registry := NewRegistry(testr.New(t))
	require.NoError(t, registry.Register("train", successUnit(nil)))
	require.NoError(t, registry.Register("infer", successUnit(nil)))
	require.NoError(t, registry.Register("stress", failingUnit("thermal throttle")))

	benchmarks := config.Benchmarks{
		Training:  config.Group{{Name: "train", Enabled: true}},
		Inference: config.Group{{Name: "infer", Enabled: true}},
		Stress:    config.Group{{Name: "stress", Enabled: true}},
	}

	o := NewOrchestrator(testr.New(t), benchmarks, registry)
	results := o.RunAll(context.Background())

	require.Len(t, results, 3)
	assert.Equal(t, KindTraining, results[0].Kind)
	assert.Equal(t, KindInference, results[1].Kind)
	assert.Equal(t, KindStress, results[2].Kind)
	assert.Equal(t, StatusFailed, results[2].Status)
}

func TestResultErrorPopulatedOnlyOnFailure(t *testing.T) {
	registry := NewRegistry(testr.New(t))
	require.NoError(t, registry.Register("ok", successUnit(map[string]float64{"time": 1})))
	require.NoError(t, registry.Register("bad", failingUnit("cuda error")))

	benchmarks := config.Benchmarks{
		Stress: config.Group{
			{Name: "ok", Enabled: true},
			{Name: "bad", Enabled: true},
		},
	}

	o := NewOrchestrator(testr.New(t), benchmarks, registry)
	results := o.RunGroup(context.Background(), KindStress)

	require.Len(t, results, 2)
	for _, result := range results {
		if result.Status == StatusFailed {
			assert.NotEmpty(t, result.Error)
		} else {
			assert.Empty(t, result.Error)
		}
		assert.False(t, result.Timestamp.IsZero())
	}
}

func TestRegistryRejectsDuplicatesAndNil(t *testing.T) {
	registry := NewRegistry(testr.New(t))
	require.NoError(t, registry.Register("a", successUnit(nil)))
	assert.Error(t, registry.Register("a", successUnit(nil)))
	assert.Error(t, registry.Register("b", nil))

	_, ok := registry.Get("a")
	assert.True(t, ok)
	_, ok = registry.Get("missing")
	assert.False(t, ok)
}
