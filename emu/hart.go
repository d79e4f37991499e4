// Package emu provides functional RV32 emulation.
package emu

import (
	"fmt"
	"io"

	"github.com/sarchlab/rv32sim/insts"
)

// TrapCause identifies why a synchronous trap or fault was raised.
type TrapCause int

// Trap causes.
const (
	TrapNone TrapCause = iota
	TrapIllegalInstruction
	TrapIllegalCSR
	TrapAccessFault
	TrapECall
	TrapEBreak
)

func (c TrapCause) String() string {
	switch c {
	case TrapIllegalInstruction:
		return "illegal instruction"
	case TrapIllegalCSR:
		return "illegal CSR access"
	case TrapAccessFault:
		return "access fault"
	case TrapECall:
		return "environment call"
	case TrapEBreak:
		return "breakpoint"
	default:
		return "none"
	}
}

// ExitCause identifies why execution stopped.
type ExitCause int

// Exit causes.
const (
	ExitNone ExitCause = iota
	ExitECall
	ExitEBreak
	ExitReservedInstruction
	ExitStopRequest
	ExitInstructionLimit
	ExitFault
)

func (c ExitCause) String() string {
	switch c {
	case ExitECall:
		return "ecall"
	case ExitEBreak:
		return "ebreak"
	case ExitReservedInstruction:
		return "reserved instruction"
	case ExitStopRequest:
		return "stop request"
	case ExitInstructionLimit:
		return "instruction limit"
	case ExitFault:
		return "fault"
	default:
		return "none"
	}
}

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Exited is true if the simulation terminated.
	Exited bool

	// Cause says why the simulation terminated when Exited is true.
	Cause ExitCause

	// Err is set if a fatal error occurred during execution.
	Err error
}

// TrapRecord captures the most recent synchronous trap.
type TrapRecord struct {
	Cause TrapCause
	// Addr is the trigger address: the PC of the trapping instruction, or
	// the faulting data address for access faults.
	Addr uint32
}

type handlerFn func(h *Hart, in *insts.Instruction)

const numOps = 192

// Hart models a single RV32 hardware thread: the integer and
// floating-point register files, the CSR file, the program counter, and a
// monotonic cycle counter. State is mutated only by instruction handlers
// and CSR writes.
type Hart struct {
	x     [32]uint32
	f     [32]uint64
	csr   [4096]uint32
	pc    uint32
	cycle uint64

	decoder  *insts.Decoder
	mem      *Memory
	handlers [numOps]handlerFn

	// Configuration
	exts           insts.Extension
	resetVector    uint32
	ramBase        uint32
	ramSize        uint32
	memCallback    MemCallback
	mtvec          uint32
	mtimecmp       uint64
	haltOnReserved bool
	haltOnECall    bool
	haltOnEBreak   bool
	maxInsts       uint64
	trace          io.Writer
	retireHook     func(*insts.Instruction)

	// Execution state
	retired       uint64
	halted        bool
	exitCause     ExitCause
	stopRequested bool
	timerPending  bool
	lastTrap      TrapRecord
}

// HartOption is a functional option for configuring a Hart.
type HartOption func(*Hart)

// WithResetVector sets the address execution starts from.
func WithResetVector(addr uint32) HartOption {
	return func(h *Hart) {
		h.resetVector = addr
	}
}

// WithRAM sets the internal RAM base address and size.
func WithRAM(base, size uint32) HartOption {
	return func(h *Hart) {
		h.ramBase = base
		h.ramSize = size
	}
}

// WithMemCallback installs an external memory access callback, consulted
// before internal RAM.
func WithMemCallback(cb MemCallback) HartOption {
	return func(h *Hart) {
		h.memCallback = cb
	}
}

// WithMTVec sets the synchronous trap vector.
func WithMTVec(addr uint32) HartOption {
	return func(h *Hart) {
		h.mtvec = addr
	}
}

// WithMTimeCmp arms the timer: when the cycle counter reaches cmp,
// execution redirects to the trap vector. Zero leaves the timer disarmed.
func WithMTimeCmp(cmp uint64) HartOption {
	return func(h *Hart) {
		h.mtimecmp = cmp
	}
}

// WithHaltOnReserved makes reserved instructions end the simulation
// instead of trapping.
func WithHaltOnReserved() HartOption {
	return func(h *Hart) {
		h.haltOnReserved = true
	}
}

// WithHaltOnECall makes ECALL end the simulation instead of trapping.
func WithHaltOnECall() HartOption {
	return func(h *Hart) {
		h.haltOnECall = true
	}
}

// WithHaltOnEBreak makes EBREAK end the simulation instead of trapping.
func WithHaltOnEBreak() HartOption {
	return func(h *Hart) {
		h.haltOnEBreak = true
	}
}

// WithMaxInstructions limits the number of retired instructions. A value
// of 0 means no limit.
func WithMaxInstructions(max uint64) HartOption {
	return func(h *Hart) {
		h.maxInsts = max
	}
}

// WithTrace writes a disassembly line for every executed instruction.
func WithTrace(w io.Writer) HartOption {
	return func(h *Hart) {
		h.trace = w
	}
}

// WithExtensions selects the enabled ISA extensions.
func WithExtensions(exts insts.Extension) HartOption {
	return func(h *Hart) {
		h.exts = exts
	}
}

// WithRetireHook calls fn for every retired instruction.
func WithRetireHook(fn func(*insts.Instruction)) HartOption {
	return func(h *Hart) {
		h.retireHook = fn
	}
}

// Default RAM window.
const (
	DefaultRAMBase = 0x00000000
	DefaultRAMSize = 1 << 20
)

// NewHart creates a hart in its reset state.
func NewHart(opts ...HartOption) *Hart {
	h := &Hart{
		exts:    insts.DefaultExtensions(),
		ramBase: DefaultRAMBase,
		ramSize: DefaultRAMSize,
	}

	for _, opt := range opts {
		opt(h)
	}

	h.decoder = insts.NewDecoderWithExtensions(h.exts)
	h.mem = NewMemory(h.ramBase, h.ramSize)
	if h.memCallback != nil {
		h.mem.SetCallback(h.memCallback)
	}

	h.installIHandlers()
	if h.exts.Has(insts.ExtM) {
		h.installMHandlers()
	}
	if h.exts.Has(insts.ExtF) {
		h.installFHandlers()
	}
	if h.exts.Has(insts.ExtZicsr) {
		h.installZicsrHandlers()
	}

	h.Reset()

	return h
}

// Reset clears the architectural registers except MISA and restarts
// execution at the reset vector.
func (h *Hart) Reset() {
	h.x = [32]uint32{}
	h.f = [32]uint64{}
	h.csr = [4096]uint32{}
	h.pc = h.resetVector
	h.cycle = 0
	h.retired = 0
	h.halted = false
	h.exitCause = ExitNone
	h.stopRequested = false
	h.timerPending = h.mtimecmp != 0
	h.lastTrap = TrapRecord{}
	h.mem.ClearFault()

	h.seedMISA()
}

// PC returns the current program counter.
func (h *Hart) PC() uint32 {
	return h.pc
}

// SetPC sets the program counter.
func (h *Hart) SetPC(pc uint32) {
	h.pc = pc
}

// Cycle returns the cycle counter.
func (h *Hart) Cycle() uint64 {
	return h.cycle
}

// Retired returns the number of retired instructions.
func (h *Hart) Retired() uint64 {
	return h.retired
}

// Memory returns the hart's memory.
func (h *Hart) Memory() *Memory {
	return h.mem
}

// Decoder returns the hart's instruction decoder.
func (h *Hart) Decoder() *insts.Decoder {
	return h.decoder
}

// LastTrap returns the most recent trap record.
func (h *Hart) LastTrap() TrapRecord {
	return h.lastTrap
}

// RequestStop asks the run loop to exit before the next instruction.
func (h *Hart) RequestStop() {
	h.stopRequested = true
}

// ReadReg returns integer register r.
func (h *Hart) ReadReg(r uint8) uint32 {
	return h.x[r&0x1f]
}

// WriteReg sets integer register r. Writes to x0 are discarded.
func (h *Hart) WriteReg(r uint8, v uint32) {
	if r&0x1f == 0 {
		return
	}
	h.x[r&0x1f] = v
}

// ReadFRegRaw returns the raw 64-bit contents of floating-point register r.
func (h *Hart) ReadFRegRaw(r uint8) uint64 {
	return h.f[r&0x1f]
}

// WriteFRegRaw sets the raw 64-bit contents of floating-point register r.
func (h *Hart) WriteFRegRaw(r uint8, v uint64) {
	h.f[r&0x1f] = v
}

// trap vectors to mtvec and records the trigger address.
func (h *Hart) trap(cause TrapCause, addr uint32) {
	h.lastTrap = TrapRecord{Cause: cause, Addr: addr}
	h.pc = h.mtvec
}

// exit ends the simulation.
func (h *Hart) exit(cause ExitCause) {
	h.halted = true
	h.exitCause = cause
}

// checkTimer redirects to the trap vector once the cycle counter reaches
// the armed compare value.
func (h *Hart) checkTimer() {
	if h.timerPending && h.cycle >= h.mtimecmp {
		h.timerPending = false
		h.pc = h.mtvec
	}
}

// Step executes a single instruction: halt checks, the timer hook, fetch,
// decode, execute, then the cycle count.
func (h *Hart) Step() StepResult {
	if h.halted {
		return StepResult{Exited: true, Cause: h.exitCause}
	}
	if h.stopRequested {
		return StepResult{Exited: true, Cause: ExitStopRequest}
	}
	if h.maxInsts > 0 && h.retired >= h.maxInsts {
		return StepResult{Exited: true, Cause: ExitInstructionLimit}
	}

	h.checkTimer()

	fetchPC := h.pc
	word, ok := h.mem.Fetch(fetchPC)
	if !ok {
		if fetchPC == h.mtvec {
			// A fetch fault at the trap vector cannot make progress.
			return StepResult{
				Exited: true,
				Cause:  ExitFault,
				Err: fmt.Errorf("fetch fault at trap vector 0x%08x",
					fetchPC),
			}
		}
		h.trap(TrapAccessFault, fetchPC)
		h.cycle++
		return StepResult{}
	}

	in := h.decoder.Decode(word)

	if h.trace != nil {
		fmt.Fprintf(h.trace, "%08x: %08x    %s\n",
			fetchPC, word, insts.Disassemble(in))
	}

	if in.Op == insts.OpReserved {
		if h.haltOnReserved {
			h.exit(ExitReservedInstruction)
			h.lastTrap = TrapRecord{
				Cause: TrapIllegalInstruction,
				Addr:  fetchPC,
			}
		} else {
			h.trap(TrapIllegalInstruction, fetchPC)
		}
		h.cycle++
		if h.halted {
			return StepResult{Exited: true, Cause: h.exitCause}
		}
		return StepResult{}
	}

	h.execute(in)

	h.retired++
	h.cycle++
	if h.retireHook != nil {
		h.retireHook(in)
	}

	if h.halted {
		return StepResult{Exited: true, Cause: h.exitCause}
	}
	return StepResult{}
}

// Run drives Step until the simulation exits.
func (h *Hart) Run() StepResult {
	for {
		result := h.Step()
		if result.Exited || result.Err != nil {
			return result
		}
	}
}

// execute dispatches a decoded instruction to its handler. The handler
// owns the PC update.
func (h *Hart) execute(in *insts.Instruction) {
	fn := h.handlers[in.Op]
	if fn == nil {
		h.trap(TrapIllegalInstruction, h.pc)
		return
	}
	fn(h, in)
}

// illegalInstruction traps the current instruction as illegal.
func (h *Hart) illegalInstruction(in *insts.Instruction) {
	if h.haltOnReserved {
		h.exit(ExitReservedInstruction)
		h.lastTrap = TrapRecord{
			Cause: TrapIllegalInstruction,
			Addr:  h.pc,
		}
		return
	}
	h.trap(TrapIllegalInstruction, h.pc)
}
