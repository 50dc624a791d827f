package watchdog

import (
	"os"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// ResourceSnapshot is the process health attached to stall reports and
// periodic health logs
type ResourceSnapshot struct {
	AllocMB              int64   // Heap allocated by the Go runtime
	SysMB                int64   // Memory obtained from the OS by the Go runtime
	Goroutines           int     // Number of goroutines
	GCCount              int64   // Completed GC cycles
	RSSMB                int64   // Resident set size of this process
	Threads              int32   // OS threads of this process
	CPUPercent           float64 // CPU used by this process since it started
	SystemMemUsedPercent float64 // System memory used percentage
}

// TakeSnapshot collects the current resource usage. Values gopsutil cannot
// read on this platform are left at zero.
func TakeSnapshot() ResourceSnapshot {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	snapshot := ResourceSnapshot{
		AllocMB:    int64(m.Alloc / 1024 / 1024),
		SysMB:      int64(m.Sys / 1024 / 1024),
		Goroutines: runtime.NumGoroutine(),
		GCCount:    int64(m.NumGC),
	}

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if memInfo, err := proc.MemoryInfo(); err == nil && memInfo != nil {
			snapshot.RSSMB = int64(memInfo.RSS / 1024 / 1024)
		}
		if threads, err := proc.NumThreads(); err == nil {
			snapshot.Threads = threads
		}
		if cpuPercent, err := proc.CPUPercent(); err == nil {
			snapshot.CPUPercent = cpuPercent
		}
	}

	if vmStat, err := mem.VirtualMemory(); err == nil {
		snapshot.SystemMemUsedPercent = vmStat.UsedPercent
	}

	return snapshot
}

// MarshalZerologObject lets a snapshot be logged with Event.EmbedObject
func (s ResourceSnapshot) MarshalZerologObject(e *zerolog.Event) {
	e.Int64("alloc_mb", s.AllocMB).
		Int64("sys_mb", s.SysMB).
		Int("goroutines", s.Goroutines).
		Int64("gc_count", s.GCCount).
		Int64("rss_mb", s.RSSMB).
		Int32("threads", s.Threads).
		Float64("cpu_percent", s.CPUPercent).
		Float64("system_mem_used_percent", s.SystemMemUsedPercent)
}
