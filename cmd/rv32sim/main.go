// Package main provides the entry point for rv32sim, an RV32IMF
// instruction-set simulator.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"os"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
	"github.com/sarchlab/rv32sim/loader"
	"github.com/sarchlab/rv32sim/stats"
	"github.com/sarchlab/rv32sim/timing/cache"
	"github.com/sarchlab/rv32sim/timing/core"
	"github.com/sarchlab/rv32sim/timing/latency"
)

var (
	disassemble = flag.Bool("disassemble", false,
		"Print a disassembly listing instead of executing")
	rtDisassem = flag.Bool("rt-disassem", false,
		"Trace each instruction as it executes")
	haltOnReserved = flag.Bool("halt-on-reserved", false,
		"Halt on reserved encodings instead of trapping")
	haltOnECall = flag.Bool("halt-on-ecall", true,
		"Halt on ECALL and exit with the value in a0")
	resetVector = flag.String("reset-vector", "",
		"Override the reset vector (hex accepted)")
	mtvec = flag.String("mtvec", "0",
		"Trap vector address (hex accepted)")
	mtimecmp = flag.Uint64("mtimecmp", 0,
		"Timer interrupt threshold in cycles (0 disables)")
	maxInsts = flag.Uint64("max-insts", 0,
		"Stop after this many retired instructions (0 means no limit)")
	rawBase = flag.String("raw-base", "",
		"Treat the input as a flat image loaded at this address")
	timing = flag.Bool("timing", false,
		"Enable timing simulation mode")
	configPath = flag.String("config", "",
		"Path to timing configuration JSON file")
	chartPath = flag.String("chart", "",
		"Write an instruction-mix chart to this file")
	verbose = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	log.SetOutput(os.Stderr)
	log.SetLevel(log.InfoLevel)
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: rv32sim [options] <program.elf>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	programPath := flag.Arg(0)
	prog := loadProgram(programPath)

	log.WithFields(log.Fields{
		"program":  programPath,
		"entry":    fmt.Sprintf("0x%08x", prog.EntryPoint),
		"segments": len(prog.Segments),
	}).Debug("program loaded")

	if *disassemble {
		listProgram(prog)
		return
	}

	if *timing {
		os.Exit(runTiming(prog))
	}
	os.Exit(runEmulation(prog))
}

func loadProgram(path string) *loader.Program {
	if *rawBase != "" {
		base := parseAddr(*rawBase, "raw-base")
		prog, err := loader.LoadRaw(path, base)
		if err != nil {
			log.WithError(err).Fatal("failed to load image")
		}
		return prog
	}

	prog, err := loader.Load(path)
	if err != nil {
		log.WithError(err).Fatal("failed to load program")
	}
	return prog
}

func parseAddr(s, name string) uint32 {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		log.WithError(err).Fatalf("invalid %s address %q", name, s)
	}
	return uint32(v)
}

// listProgram prints a decode-only listing of the executable segments.
func listProgram(prog *loader.Program) {
	decoder := insts.NewDecoder()
	for _, seg := range prog.Segments {
		if seg.Flags&loader.SegmentFlagExecute == 0 {
			continue
		}
		for off := 0; off+4 <= len(seg.Data); off += 4 {
			word := binary.LittleEndian.Uint32(seg.Data[off:])
			in := decoder.Decode(word)
			fmt.Printf("%08x: %08x    %s\n",
				seg.VirtAddr+uint32(off), word, insts.Disassemble(in))
		}
	}
}

func hartOptions(collector *stats.Collector) []emu.HartOption {
	opts := []emu.HartOption{
		emu.WithMTVec(parseAddr(*mtvec, "mtvec")),
		emu.WithRetireHook(collector.Hook()),
	}
	if *resetVector != "" {
		opts = append(opts,
			emu.WithResetVector(parseAddr(*resetVector, "reset-vector")))
	}
	if *haltOnReserved {
		opts = append(opts, emu.WithHaltOnReserved())
	}
	if *haltOnECall {
		opts = append(opts, emu.WithHaltOnECall())
	}
	if *mtimecmp != 0 {
		opts = append(opts, emu.WithMTimeCmp(*mtimecmp))
	}
	if *maxInsts != 0 {
		opts = append(opts, emu.WithMaxInstructions(*maxInsts))
	}
	if *rtDisassem {
		opts = append(opts, emu.WithTrace(os.Stdout))
	}
	return opts
}

// exitStatus converts a run result into a process exit code. An ECALL
// halt reports the value the program left in a0.
func exitStatus(h *emu.Hart, result emu.StepResult) int {
	switch result.Cause {
	case emu.ExitECall:
		return int(h.ReadReg(10) & 0xff)
	case emu.ExitFault:
		log.WithFields(log.Fields{
			"pc":    fmt.Sprintf("0x%08x", h.PC()),
			"cause": h.LastTrap().Cause,
			"addr":  fmt.Sprintf("0x%08x", h.LastTrap().Addr),
		}).Error("simulation stopped on a fatal fault")
		return 1
	default:
		log.WithField("cause", result.Cause).Debug("simulation stopped")
		return 0
	}
}

func finishRun(h *emu.Hart, collector *stats.Collector) {
	if *verbose {
		collector.Report(os.Stderr)
	}
	if *chartPath != "" {
		if err := collector.Chart(*chartPath); err != nil {
			log.WithError(err).Error("failed to write chart")
		}
	}
}

// runEmulation runs the program in functional emulation mode.
func runEmulation(prog *loader.Program) int {
	collector := stats.NewCollector()
	h := emu.NewHart(hartOptions(collector)...)

	if err := loader.Install(prog, h); err != nil {
		log.WithError(err).Fatal("failed to install program")
	}

	result := h.Run()

	log.WithFields(log.Fields{
		"instructions": h.Retired(),
		"cause":        result.Cause,
	}).Debug("emulation finished")

	finishRun(h, collector)
	return exitStatus(h, result)
}

// runTiming runs the program in timing simulation mode and prints the
// cycle report.
func runTiming(prog *loader.Program) int {
	timingConfig := latency.DefaultTimingConfig()
	if *configPath != "" {
		var err error
		timingConfig, err = latency.LoadConfig(*configPath)
		if err != nil {
			log.WithError(err).Fatal("failed to load timing config")
		}
	}
	if err := timingConfig.Validate(); err != nil {
		log.WithError(err).Fatal("invalid timing config")
	}

	collector := stats.NewCollector()
	h := emu.NewHart(hartOptions(collector)...)

	if err := loader.Install(prog, h); err != nil {
		log.WithError(err).Fatal("failed to install program")
	}

	c := core.NewCoreWithConfig(h, latency.NewTableWithConfig(timingConfig),
		cacheL1IConfig(timingConfig), cacheL1DConfig(timingConfig))

	result := c.Run()
	printTimingReport(c)

	finishRun(h, collector)
	return exitStatus(h, result)
}

func printTimingReport(c *core.Core) {
	s := c.Stats()
	cycles := s.Cycles
	if cycles == 0 {
		cycles = 1
	}

	fmt.Printf("\n")
	fmt.Printf("Total Instructions: %d\n", s.Instructions)
	fmt.Printf("Total Cycles: %d\n", s.Cycles)
	if s.Instructions > 0 {
		fmt.Printf("CPI: %.2f\n", float64(s.Cycles)/float64(s.Instructions))
	}
	fmt.Printf("\n")
	fmt.Printf("Stalls:  %d cycles (%5.1f%%)\n",
		s.Stalls, 100*float64(s.Stalls)/float64(cycles))
	fmt.Printf("Flushes: %d\n", s.Flushes)

	printCacheStats("L1I", c.ICache().Stats())
	printCacheStats("L1D", c.DCache().Stats())
}

func printCacheStats(name string, s cache.Statistics) {
	accesses := s.Reads + s.Writes
	if accesses == 0 {
		return
	}
	fmt.Printf("%s: %d accesses, %d hits, %d misses (%.1f%% hit rate), "+
		"%d writebacks\n",
		name, accesses, s.Hits, s.Misses,
		100*float64(s.Hits)/float64(accesses), s.Writebacks)
}

// cacheL1IConfig derives the L1I model from the timing config.
func cacheL1IConfig(cfg *latency.TimingConfig) cache.Config {
	c := cache.DefaultL1IConfig()
	c.MissLatency = cfg.L2HitLatency
	return c
}

// cacheL1DConfig derives the L1D model from the timing config.
func cacheL1DConfig(cfg *latency.TimingConfig) cache.Config {
	c := cache.DefaultL1DConfig()
	c.HitLatency = cfg.L1HitLatency
	c.MissLatency = cfg.L2HitLatency
	return c
}
