package status

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/shirou/gopsutil/v3/process"
)

// ProcessSampler publishes CPU and memory use of the running process
// under "process.*"
type ProcessSampler struct {
	proc    *process.Process
	cpu     *AtomicFloat
	rss     *atomic.Int64
	threads *atomic.Int64
}

// NewProcessSampler binds a sampler for the current process to r
func NewProcessSampler(r *Registry) (*ProcessSampler, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("process: %w", err)
	}
	return &ProcessSampler{
		proc:    proc,
		cpu:     r.Floats.Get("process.cpu_pct"),
		rss:     r.Ints.Get("process.rss_kb"),
		threads: r.Ints.Get("process.threads"),
	}, nil
}

// Sample refreshes the metrics. CPU is the share used since the previous call
func (s *ProcessSampler) Sample() error {
	cpu, err := s.proc.Percent(0)
	if err != nil {
		return fmt.Errorf("cpu: %w", err)
	}
	mem, err := s.proc.MemoryInfo()
	if err != nil {
		return fmt.Errorf("memory: %w", err)
	}
	threads, err := s.proc.NumThreads()
	if err != nil {
		return fmt.Errorf("threads: %w", err)
	}

	s.cpu.Store(cpu)
	s.rss.Store(int64(mem.RSS / 1024))
	s.threads.Store(int64(threads))
	return nil
}
