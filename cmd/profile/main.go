// Package main provides a profiling wrapper for rv32sim to identify
// simulator performance bottlenecks.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"time"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/loader"
	"github.com/sarchlab/rv32sim/timing/core"
)

var (
	timing     = flag.Bool("timing", false, "Enable timing simulation mode")
	cpuProfile = flag.String("cpuprofile", "",
		"write cpu profile to file")
	memProfile = flag.String("memprofile", "",
		"write memory profile to file")
	duration = flag.Duration("duration", 30*time.Second,
		"max duration to run (for profiling)")
	maxInsts = flag.Uint64("max-insts", 1000000,
		"max instructions to execute (0 = unlimited)")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: profile [options] <program.elf>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	programPath := flag.Arg(0)

	prog, err := loader.Load(programPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Loaded: %s\n", programPath)
	fmt.Printf("Entry point: 0x%08X\n", prog.EntryPoint)

	start := time.Now()

	go func() {
		time.Sleep(*duration)
		fmt.Printf("\nTimeout reached after %v - stopping execution\n",
			*duration)
		os.Exit(2)
	}()

	var exitCode int
	var instrCount uint64

	if *timing {
		exitCode, instrCount = runTimingProfile(prog)
	} else {
		exitCode, instrCount = runEmulationProfile(prog)
	}

	elapsed := time.Since(start)

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating memory profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing memory profile: %v\n", err)
		}
	}

	fmt.Printf("\nProfiling Results:\n")
	fmt.Printf("Exit code: %d\n", exitCode)
	fmt.Printf("Instructions executed: %d\n", instrCount)
	fmt.Printf("Elapsed time: %v\n", elapsed)
	if instrCount > 0 {
		fmt.Printf("Instructions/second: %.0f\n",
			float64(instrCount)/elapsed.Seconds())
	}
}

func newHart() *emu.Hart {
	opts := []emu.HartOption{emu.WithHaltOnECall()}
	if *maxInsts > 0 {
		opts = append(opts, emu.WithMaxInstructions(*maxInsts))
	}
	return emu.NewHart(opts...)
}

func exitCodeOf(h *emu.Hart, result emu.StepResult) int {
	if result.Cause == emu.ExitECall {
		return int(h.ReadReg(10) & 0xff)
	}
	return 0
}

// runEmulationProfile runs the program in functional emulation mode
// with profiling.
func runEmulationProfile(prog *loader.Program) (int, uint64) {
	h := newHart()
	if err := loader.Install(prog, h); err != nil {
		fmt.Fprintf(os.Stderr, "Error installing program: %v\n", err)
		os.Exit(1)
	}

	result := h.Run()
	return exitCodeOf(h, result), h.Retired()
}

// runTimingProfile runs the program in timing simulation mode with
// profiling.
func runTimingProfile(prog *loader.Program) (int, uint64) {
	h := newHart()
	if err := loader.Install(prog, h); err != nil {
		fmt.Fprintf(os.Stderr, "Error installing program: %v\n", err)
		os.Exit(1)
	}

	c := core.NewCore(h)
	result := c.Run()
	return exitCodeOf(h, result), c.Stats().Instructions
}
