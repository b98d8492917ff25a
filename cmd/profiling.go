package cmd

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"

	"github.com/spiffcs/ghstats/internal/log"
)

// Profiler writes optional CPU, heap, and execution-trace profiles for a
// collection run. Empty paths disable the corresponding profile.
type Profiler struct {
	cpuPath   string
	memPath   string
	tracePath string

	cpuFile   *os.File
	traceFile *os.File
}

// NewProfiler creates a profiler for the given output paths.
func NewProfiler(cpuPath, memPath, tracePath string) *Profiler {
	return &Profiler{cpuPath: cpuPath, memPath: memPath, tracePath: tracePath}
}

// Start begins CPU profiling and execution tracing if configured. On error
// anything already started is stopped again.
func (p *Profiler) Start() error {
	if p.cpuPath != "" {
		f, err := os.Create(p.cpuPath)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		p.cpuFile = f
	}

	if p.tracePath != "" {
		f, err := os.Create(p.tracePath)
		if err != nil {
			_ = p.stopCPU()
			return fmt.Errorf("could not create trace: %w", err)
		}
		if err := trace.Start(f); err != nil {
			_ = f.Close()
			_ = p.stopCPU()
			return fmt.Errorf("could not start trace: %w", err)
		}
		p.traceFile = f
	}

	return nil
}

// Stop ends all profiling and writes the heap profile if configured.
// Failures are logged; a profile never fails the run.
func (p *Profiler) Stop() {
	if err := errors.Join(p.stopTrace(), p.stopCPU(), p.writeHeap()); err != nil {
		log.Warn("profiling output incomplete", "error", err)
	}
}

func (p *Profiler) stopTrace() error {
	if p.traceFile == nil {
		return nil
	}
	trace.Stop()
	err := p.traceFile.Close()
	p.traceFile = nil
	return err
}

func (p *Profiler) stopCPU() error {
	if p.cpuFile == nil {
		return nil
	}
	pprof.StopCPUProfile()
	err := p.cpuFile.Close()
	p.cpuFile = nil
	return err
}

func (p *Profiler) writeHeap() error {
	if p.memPath == "" {
		return nil
	}
	f, err := os.Create(p.memPath)
	if err != nil {
		return fmt.Errorf("could not create memory profile: %w", err)
	}
	runtime.GC()
	return errors.Join(pprof.WriteHeapProfile(f), f.Close())
}
