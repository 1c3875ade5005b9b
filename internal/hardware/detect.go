// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package hardware

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/NVIDIA/go-nvml/pkg/nvml"
	"github.com/go-logr/logr"
)

// Kind is the detected accelerator platform of the host.
type Kind string

const (
	KindAuto    Kind = "auto"
	KindNvidia  Kind = "nvidia"
	KindAscend  Kind = "ascend"
	KindUnknown Kind = "unknown"
)

const detectorTimeout = 5 * time.Second

// detector is one best-effort platform check. It must return within its
// context deadline and never fail loudly; internal errors collapse to
// "not detected".
type detector struct {
	kind  Kind
	probe func(ctx context.Context) bool
}

// Detect resolves the hardware kind for a run. An explicit, non-auto
// configured value is returned unchanged. Otherwise detectors run once each
// in fixed priority order and the first hit wins; no retries. If none hit,
// the result is KindUnknown.
func Detect(ctx context.Context, logger logr.Logger, configured string) Kind {
	if configured != "" && configured != string(KindAuto) {
		return Kind(configured)
	}
	return detectWith(ctx, logger, []detector{
		{kind: KindNvidia, probe: detectNvidia},
		{kind: KindAscend, probe: detectAscend},
	})
}

func detectWith(ctx context.Context, logger logr.Logger, detectors []detector) Kind {
	for _, d := range detectors {
		detectCtx, cancel := context.WithTimeout(ctx, detectorTimeout)
		found := d.probe(detectCtx)
		cancel()
		if found {
			logger.Info("detected hardware", "kind", d.kind)
			return d.kind
		}
	}
	return KindUnknown
}

// detectNvidia checks for a usable NVIDIA GPU: nvidia-smi listing devices,
// or the NVML runtime reporting at least one device.
func detectNvidia(ctx context.Context) bool {
	if path, err := exec.LookPath("nvidia-smi"); err == nil {
		if err := exec.CommandContext(ctx, path, "-L").Run(); err == nil {
			return true
		}
	}

	if ret := nvml.Init(); ret != nvml.SUCCESS {
		return false
	}
	defer func() { _ = nvml.Shutdown() }()
	count, ret := nvml.DeviceGetCount()
	return ret == nvml.SUCCESS && count > 0
}

// detectAscend checks for a Huawei Ascend NPU: npu-smi on the PATH, or an
// ascend device on the PCI bus.
func detectAscend(ctx context.Context) bool {
	if _, err := exec.LookPath("npu-smi"); err == nil {
		return true
	}

	path, err := exec.LookPath("lspci")
	if err != nil {
		return false
	}
	out, err := exec.CommandContext(ctx, path).Output()
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(string(out)), "ascend")
}
