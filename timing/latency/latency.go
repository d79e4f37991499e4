// Package latency provides per-instruction timing models for the cycle
// estimator.
//
// The latency values model a small in-order RV32 core and can be
// configured via TimingConfig.
package latency

import (
	"github.com/sarchlab/rv32sim/insts"
)

// Table provides instruction latency lookups.
type Table struct {
	config *TimingConfig
}

// NewTable creates a new latency table with default timing values.
func NewTable() *Table {
	return &Table{
		config: DefaultTimingConfig(),
	}
}

// NewTableWithConfig creates a new latency table with custom timing
// configuration.
func NewTableWithConfig(config *TimingConfig) *Table {
	return &Table{
		config: config,
	}
}

// GetLatency returns the execution latency in cycles for the given
// instruction. For variable-latency operations, returns the maximum.
func (t *Table) GetLatency(inst *insts.Instruction) uint64 {
	if inst == nil {
		return 1
	}

	switch {
	case isLoad(inst.Op):
		return t.config.LoadLatency
	case isStore(inst.Op):
		return t.config.StoreLatency
	case isBranch(inst.Op):
		return t.config.BranchLatency
	case isMultiply(inst.Op):
		return t.config.MultiplyLatency
	case isDivide(inst.Op):
		return t.config.DivideLatencyMax
	case isCSR(inst.Op):
		return t.config.CSRLatency
	case isSystem(inst.Op):
		return t.config.SystemLatency
	case isFPDivide(inst.Op):
		return t.config.FPDivideLatencyMax
	case isFPFMA(inst.Op):
		return t.config.FPFMALatency
	case inst.Op == insts.OpFMULS:
		return t.config.FPMultiplyLatency
	case isFP(inst.Op):
		return t.config.FPAddLatency
	default:
		return t.config.ALULatency
	}
}

// GetMinLatency returns the minimum execution latency for
// variable-latency operations.
func (t *Table) GetMinLatency(inst *insts.Instruction) uint64 {
	if inst == nil {
		return 1
	}

	switch {
	case isDivide(inst.Op):
		return t.config.DivideLatencyMin
	case isFPDivide(inst.Op):
		return t.config.FPDivideLatencyMin
	default:
		return t.GetLatency(inst)
	}
}

// GetMaxLatency returns the maximum execution latency for
// variable-latency operations.
func (t *Table) GetMaxLatency(inst *insts.Instruction) uint64 {
	return t.GetLatency(inst)
}

// IsMemoryOp returns true if the instruction accesses memory.
func (t *Table) IsMemoryOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	return isLoad(inst.Op) || isStore(inst.Op)
}

// IsLoadOp returns true if the instruction is a load operation.
func (t *Table) IsLoadOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	return isLoad(inst.Op)
}

// IsStoreOp returns true if the instruction is a store operation.
func (t *Table) IsStoreOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	return isStore(inst.Op)
}

// IsBranchOp returns true if the instruction is a branch or jump.
func (t *Table) IsBranchOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	return isBranch(inst.Op)
}

// Config returns the current timing configuration.
func (t *Table) Config() *TimingConfig {
	return t.config
}

func isLoad(op insts.Op) bool {
	switch op {
	case insts.OpLB, insts.OpLH, insts.OpLW, insts.OpLBU, insts.OpLHU,
		insts.OpFLW:
		return true
	}
	return false
}

func isStore(op insts.Op) bool {
	switch op {
	case insts.OpSB, insts.OpSH, insts.OpSW, insts.OpFSW:
		return true
	}
	return false
}

func isBranch(op insts.Op) bool {
	switch op {
	case insts.OpBEQ, insts.OpBNE, insts.OpBLT, insts.OpBGE,
		insts.OpBLTU, insts.OpBGEU, insts.OpJAL, insts.OpJALR:
		return true
	}
	return false
}

func isMultiply(op insts.Op) bool {
	switch op {
	case insts.OpMUL, insts.OpMULH, insts.OpMULHSU, insts.OpMULHU:
		return true
	}
	return false
}

func isDivide(op insts.Op) bool {
	switch op {
	case insts.OpDIV, insts.OpDIVU, insts.OpREM, insts.OpREMU:
		return true
	}
	return false
}

func isCSR(op insts.Op) bool {
	return op >= insts.OpCSRRW && op <= insts.OpCSRRCI
}

func isSystem(op insts.Op) bool {
	switch op {
	case insts.OpECALL, insts.OpEBREAK, insts.OpFENCE:
		return true
	}
	return false
}

func isFPFMA(op insts.Op) bool {
	switch op {
	case insts.OpFMADDS, insts.OpFMSUBS, insts.OpFNMSUBS, insts.OpFNMADDS:
		return true
	}
	return false
}

func isFPDivide(op insts.Op) bool {
	return op == insts.OpFDIVS || op == insts.OpFSQRTS
}

func isFP(op insts.Op) bool {
	return op >= insts.OpFMADDS && op <= insts.OpFMVWX
}
