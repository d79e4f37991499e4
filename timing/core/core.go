// Package core provides the cycle estimator for timing simulation.
// It drives a hart one instruction at a time and charges cycles from
// the latency table and the cache models.
package core

import (
	"encoding/binary"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
	"github.com/sarchlab/rv32sim/timing/cache"
	"github.com/sarchlab/rv32sim/timing/latency"
)

// Stats holds performance statistics for the core.
type Stats struct {
	// Cycles is the total number of cycles estimated.
	Cycles uint64
	// Instructions is the number of instructions retired.
	Instructions uint64
	// Stalls is the number of cycles spent waiting on cache misses.
	Stalls uint64
	// Flushes is the number of taken branches that redirected the
	// front end.
	Flushes uint64
}

type memAccess struct {
	addr    uint32
	data    uint32
	size    int
	isWrite bool
}

// Core estimates the cycle cost of a program on a small in-order RV32
// machine. Functional execution stays in the hart; the core observes
// its memory traffic and charges latencies on top.
type Core struct {
	hart   *emu.Hart
	table  *latency.Table
	icache *cache.Cache
	dcache *cache.Cache

	stats   Stats
	halted  bool
	pending []memAccess
}

// NewCore creates a core with the default latency table and L1 cache
// configurations. The caches are backed by the hart's RAM.
func NewCore(h *emu.Hart) *Core {
	return NewCoreWithConfig(h, latency.NewTable(),
		cache.DefaultL1IConfig(), cache.DefaultL1DConfig())
}

// NewCoreWithConfig creates a core with custom timing parameters.
func NewCoreWithConfig(
	h *emu.Hart,
	table *latency.Table,
	l1i, l1d cache.Config,
) *Core {
	backing := cache.NewMemoryBacking(h.Memory())
	c := &Core{
		hart:   h,
		table:  table,
		icache: cache.New(l1i, backing),
		dcache: cache.New(l1d, backing),
	}
	h.Memory().SetCallback(c.observe)
	return c
}

// observe records the hart's memory traffic without claiming it. The
// accesses are replayed into the data cache after the step completes.
func (c *Core) observe(
	addr, data uint32,
	kind emu.AccessKind,
	isWrite bool,
) (uint32, bool, bool) {
	if kind != emu.AccessInstr {
		c.pending = append(c.pending, memAccess{
			addr:    addr,
			data:    data,
			size:    kind.Size(),
			isWrite: isWrite,
		})
	}
	return 0, false, false
}

// Hart returns the underlying hart.
func (c *Core) Hart() *emu.Hart {
	return c.hart
}

// ICache returns the instruction cache model.
func (c *Core) ICache() *cache.Cache {
	return c.icache
}

// DCache returns the data cache model.
func (c *Core) DCache() *cache.Cache {
	return c.dcache
}

// SetPC sets the program counter.
func (c *Core) SetPC(pc uint32) {
	c.hart.SetPC(pc)
}

// Halted returns true if the core has stopped executing.
func (c *Core) Halted() bool {
	return c.halted
}

// Stats returns performance statistics for the core.
func (c *Core) Stats() Stats {
	s := c.stats
	s.Instructions = c.hart.Retired()
	return s
}

// Tick executes one instruction and charges its cycle cost.
func (c *Core) Tick() emu.StepResult {
	if c.halted {
		return emu.StepResult{Exited: true}
	}

	c.pending = c.pending[:0]
	fetchPC := c.hart.PC()
	inst := c.decodeAt(fetchPC)

	result := c.hart.Step()
	if result.Exited {
		c.halted = true
	}

	c.chargeFetch(fetchPC)
	c.chargeExecution(inst, fetchPC)

	return result
}

// decodeAt decodes the word at addr straight from RAM so the lookahead
// does not disturb the observed memory traffic.
func (c *Core) decodeAt(addr uint32) *insts.Instruction {
	raw := c.hart.Memory().ReadBytes(addr, 4)
	if raw == nil {
		return nil
	}
	return c.hart.Decoder().Decode(binary.LittleEndian.Uint32(raw))
}

// chargeFetch runs the fetch through the instruction cache. A hit
// overlaps with issue; a miss stalls the front end.
func (c *Core) chargeFetch(pc uint32) {
	fetch := c.icache.Read(pc, 4)
	if !fetch.Hit {
		c.stats.Cycles += fetch.Latency
		c.stats.Stalls += fetch.Latency
	}
}

func (c *Core) chargeExecution(inst *insts.Instruction, fetchPC uint32) {
	if c.table.IsMemoryOp(inst) {
		c.chargeMemory()
		return
	}

	c.stats.Cycles += c.table.GetLatency(inst)

	if c.table.IsBranchOp(inst) && c.hart.PC() != fetchPC+4 {
		c.stats.Cycles += c.table.Config().BranchMispredictPenalty
		c.stats.Flushes++
	}
}

// chargeMemory replays the observed accesses into the data cache and
// charges the cache latency in place of the table's load/store cost.
func (c *Core) chargeMemory() {
	for _, a := range c.pending {
		var result cache.AccessResult
		if a.isWrite {
			result = c.dcache.Write(a.addr, a.size, a.data)
		} else {
			result = c.dcache.Read(a.addr, a.size)
		}
		c.stats.Cycles += result.Latency
		if !result.Hit {
			c.stats.Stalls += result.Latency - c.dcache.Config().HitLatency
		}
	}
}

// Run executes the core until the hart exits.
func (c *Core) Run() emu.StepResult {
	for {
		result := c.Tick()
		if result.Exited {
			return result
		}
	}
}

// RunCycles executes instructions until at least the given number of
// cycles has been charged. Returns true if still running.
func (c *Core) RunCycles(cycles uint64) bool {
	target := c.stats.Cycles + cycles
	for c.stats.Cycles < target {
		if c.Tick().Exited {
			return false
		}
	}
	return true
}

// Flush writes all dirty cache lines back to RAM.
func (c *Core) Flush() {
	c.dcache.Flush()
	c.icache.Flush()
}

// Reset clears all core state.
func (c *Core) Reset() {
	c.hart.Reset()
	c.icache.Reset()
	c.dcache.Reset()
	c.stats = Stats{}
	c.halted = false
	c.pending = c.pending[:0]
}
