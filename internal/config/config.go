// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the parsed benchmark run configuration. A configuration that
// fails to load or parse is the only fatal error class in the system.
type Config struct {
	Hardware   Hardware   `yaml:"hardware"`
	Collection Collection `yaml:"collection"`
	Benchmarks Benchmarks `yaml:"benchmarks"`
}

type Hardware struct {
	// Type is "auto" or an explicit hardware kind (nvidia, ascend)
	Type string `yaml:"type"`
}

type Collection struct {
	IntervalSeconds     float64 `yaml:"interval_seconds"`
	ProbeTimeoutSeconds float64 `yaml:"probe_timeout_seconds"`
}

func (c Collection) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds * float64(time.Second))
}

func (c Collection) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutSeconds * float64(time.Second))
}

type Benchmarks struct {
	Training  Group `yaml:"training"`
	Inference Group `yaml:"inference"`
	Stress    Group `yaml:"stress"`
}

// Entry is one configured benchmark unit within a group.
type Entry struct {
	Name    string
	Enabled bool
	Params  map[string]any
}

// Group is an ordered list of benchmark entries. YAML expresses groups as
// mappings keyed by benchmark name; Go maps do not preserve insertion order,
// so decoding walks the mapping node directly to keep file order.
type Group []Entry

func (g *Group) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("benchmark group must be a mapping, got %v", node.Kind)
	}

	entries := make(Group, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]

		var params map[string]any
		if err := value.Decode(&params); err != nil {
			return fmt.Errorf("benchmark %q: %w", key.Value, err)
		}

		entry := Entry{Name: key.Value, Enabled: true, Params: params}
		if enabled, ok := params["enabled"]; ok {
			b, ok := enabled.(bool)
			if !ok {
				return fmt.Errorf("benchmark %q: enabled must be a bool", key.Value)
			}
			entry.Enabled = b
			delete(params, "enabled")
		}
		entries = append(entries, entry)
	}

	*g = entries
	return nil
}

// Load reads and parses the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults fills in zero values with defaults
func (c *Config) ApplyDefaults() {
	if c.Hardware.Type == "" {
		c.Hardware.Type = "auto"
	}
	if c.Collection.IntervalSeconds <= 0 {
		c.Collection.IntervalSeconds = 1.0
	}
	if c.Collection.ProbeTimeoutSeconds <= 0 {
		c.Collection.ProbeTimeoutSeconds = 10.0
	}
}
