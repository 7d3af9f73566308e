package runnables

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"github.com/goccy/go-json"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/ajitpratap0/launchpad/pkg/errors"
	"github.com/ajitpratap0/launchpad/pkg/registry"
)

// Summary is the host description printed by SysInfo
type Summary struct {
	Hostname        string  `json:"hostname"`
	OS              string  `json:"os"`
	Platform        string  `json:"platform"`
	PlatformVersion string  `json:"platform_version"`
	KernelVersion   string  `json:"kernel_version"`
	UptimeSeconds   uint64  `json:"uptime_seconds"`
	CPUModel        string  `json:"cpu_model,omitempty"`
	LogicalCPUs     int     `json:"logical_cpus"`
	MemoryTotal     uint64  `json:"memory_total_bytes"`
	MemoryAvailable uint64  `json:"memory_available_bytes"`
	MemoryUsed      float64 `json:"memory_used_percent"`
	GoVersion       string  `json:"go_version"`
	Goroutines      int     `json:"goroutines"`
}

// SysInfo prints a Summary of the current host
type SysInfo struct {
	Format string `mapstructure:"format"`

	out io.Writer
}

func newSysInfo(_ context.Context, spec registry.Spec) (any, error) {
	s := &SysInfo{out: stdout}
	if err := spec.Decode(s); err != nil {
		return nil, err
	}
	switch s.Format {
	case "":
		s.Format = "text"
	case "text", "json":
	default:
		return nil, errors.Newf(errors.ErrorTypeValidation, "unknown format %q", s.Format).
			WithDetail("id", spec.ID)
	}
	return s, nil
}

// Collect gathers the host summary
func Collect(ctx context.Context) (*Summary, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to read host information")
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to read memory information")
	}
	cpus, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		cpus = runtime.NumCPU()
	}

	s := &Summary{
		Hostname:        info.Hostname,
		OS:              info.OS,
		Platform:        info.Platform,
		PlatformVersion: info.PlatformVersion,
		KernelVersion:   info.KernelVersion,
		UptimeSeconds:   info.Uptime,
		LogicalCPUs:     cpus,
		MemoryTotal:     vm.Total,
		MemoryAvailable: vm.Available,
		MemoryUsed:      vm.UsedPercent,
		GoVersion:       runtime.Version(),
		Goroutines:      runtime.NumGoroutine(),
	}
	// model names are unavailable in some containers
	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 {
		s.CPUModel = infos[0].ModelName
	}
	return s, nil
}

// Run implements bootstrap.Runnable
func (s *SysInfo) Run(ctx context.Context) error {
	summary, err := Collect(ctx)
	if err != nil {
		return err
	}

	if s.Format == "json" {
		data, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode summary")
		}
		_, err = fmt.Fprintln(s.out, string(data))
		return wrapWrite(err)
	}

	_, err = fmt.Fprintf(s.out,
		"host:     %s\nos:       %s %s %s (kernel %s)\nuptime:   %ds\ncpu:      %d x %s\nmemory:   %d bytes total, %d available (%.1f%% used)\ngo:       %s, %d goroutines\n",
		summary.Hostname,
		summary.OS, summary.Platform, summary.PlatformVersion, summary.KernelVersion,
		summary.UptimeSeconds,
		summary.LogicalCPUs, summary.CPUModel,
		summary.MemoryTotal, summary.MemoryAvailable, summary.MemoryUsed,
		summary.GoVersion, summary.Goroutines)
	return wrapWrite(err)
}

func wrapWrite(err error) error {
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write summary")
	}
	return nil
}
