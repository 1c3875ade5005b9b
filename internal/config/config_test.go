// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfig = `
hardware:
  type: nvidia
collection:
  interval_seconds: 0.5
  probe_timeout_seconds: 5
benchmarks:
  training:
    resnet50:
      enabled: true
      epochs: 10
    bert_large:
      enabled: false
    gpt2:
      batch_size: 8
  inference:
    vllm_server:
      enabled: true
  stress:
    memory_bandwidth:
      enabled: true
      duration_seconds: 300
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, "nvidia", cfg.Hardware.Type)
	assert.Equal(t, 500*time.Millisecond, cfg.Collection.Interval())
	assert.Equal(t, 5*time.Second, cfg.Collection.ProbeTimeout())

	require.Len(t, cfg.Benchmarks.Training, 3)
	require.Len(t, cfg.Benchmarks.Inference, 1)
	require.Len(t, cfg.Benchmarks.Stress, 1)
}

func TestLoadPreservesGroupOrder(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	names := make([]string, 0, len(cfg.Benchmarks.Training))
	for _, entry := range cfg.Benchmarks.Training {
		names = append(names, entry.Name)
	}
	assert.Equal(t, []string{"resnet50", "bert_large", "gpt2"}, names)
}

func TestLoadEnabledFlag(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	training := cfg.Benchmarks.Training
	assert.True(t, training[0].Enabled)
	assert.False(t, training[1].Enabled)
	// enabled defaults to true when omitted
	assert.True(t, training[2].Enabled)
	// and is stripped from unit params
	assert.NotContains(t, training[0].Params, "enabled")
	assert.Equal(t, 10, training[0].Params["epochs"])
	assert.Equal(t, 8, training[2].Params["batch_size"])
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "benchmarks: [not: a: mapping\n"))
	assert.Error(t, err)
}

func TestLoadBadEnabledType(t *testing.T) {
	_, err := Load(writeConfig(t, `
benchmarks:
  training:
    resnet50:
      enabled: "yes please"
`))
	assert.Error(t, err)
}

func TestLoadEmptyGroup(t *testing.T) {
	cfg, err := Load(writeConfig(t, "benchmarks:\n  training:\n"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Benchmarks.Training)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "benchmarks: {}\n"))
	require.NoError(t, err)

	assert.Equal(t, "auto", cfg.Hardware.Type)
	assert.Equal(t, time.Second, cfg.Collection.Interval())
	assert.Equal(t, 10*time.Second, cfg.Collection.ProbeTimeout())
	assert.Empty(t, cfg.Benchmarks.Training)
}
