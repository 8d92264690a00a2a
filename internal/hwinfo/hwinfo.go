// Package hwinfo collects a host summary logged at probe time.
package hwinfo

import (
	"context"
	"runtime"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// Summary describes the machine the installer runs on.
type Summary struct {
	Hostname     string `json:"hostname"`
	OS           string `json:"os"`
	Kernel       string `json:"kernel,omitempty"`
	Architecture string `json:"architecture"`
	MemoryMB     uint64 `json:"memoryMb"`
}

// Collect gathers the summary. Unavailable fields are left empty
// rather than failing the whole collection.
func Collect(ctx context.Context) *Summary {
	summary := &Summary{
		Architecture: runtime.GOARCH,
	}

	if info, err := host.InfoWithContext(ctx); err == nil {
		summary.Hostname = info.Hostname
		summary.OS = info.Platform + " " + info.PlatformVersion
		summary.Kernel = info.KernelVersion
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		summary.MemoryMB = vm.Total >> 20
	}

	return summary
}
