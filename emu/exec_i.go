package emu

import "github.com/sarchlab/rv32sim/insts"

func (h *Hart) installIHandlers() {
	h.installALUHandlers()
	h.installLoadStoreHandlers()
	h.installBranchHandlers()
	h.installSystemHandlers()
}

func (h *Hart) installALUHandlers() {
	h.handlers[insts.OpLUI] = func(h *Hart, in *insts.Instruction) {
		h.WriteReg(in.Rd, uint32(in.ImmU))
		h.pc += 4
	}
	h.handlers[insts.OpAUIPC] = func(h *Hart, in *insts.Instruction) {
		h.WriteReg(in.Rd, h.pc+uint32(in.ImmU))
		h.pc += 4
	}

	h.handlers[insts.OpADDI] = func(h *Hart, in *insts.Instruction) {
		h.WriteReg(in.Rd, h.ReadReg(in.Rs1)+uint32(in.ImmI))
		h.pc += 4
	}
	h.handlers[insts.OpSLTI] = func(h *Hart, in *insts.Instruction) {
		h.WriteReg(in.Rd, boolToReg(int32(h.ReadReg(in.Rs1)) < in.ImmI))
		h.pc += 4
	}
	h.handlers[insts.OpSLTIU] = func(h *Hart, in *insts.Instruction) {
		h.WriteReg(in.Rd, boolToReg(h.ReadReg(in.Rs1) < uint32(in.ImmI)))
		h.pc += 4
	}
	h.handlers[insts.OpXORI] = func(h *Hart, in *insts.Instruction) {
		h.WriteReg(in.Rd, h.ReadReg(in.Rs1)^uint32(in.ImmI))
		h.pc += 4
	}
	h.handlers[insts.OpORI] = func(h *Hart, in *insts.Instruction) {
		h.WriteReg(in.Rd, h.ReadReg(in.Rs1)|uint32(in.ImmI))
		h.pc += 4
	}
	h.handlers[insts.OpANDI] = func(h *Hart, in *insts.Instruction) {
		h.WriteReg(in.Rd, h.ReadReg(in.Rs1)&uint32(in.ImmI))
		h.pc += 4
	}
	h.handlers[insts.OpSLLI] = func(h *Hart, in *insts.Instruction) {
		h.WriteReg(in.Rd, h.ReadReg(in.Rs1)<<(in.Rs2&0x1f))
		h.pc += 4
	}
	h.handlers[insts.OpSRLI] = func(h *Hart, in *insts.Instruction) {
		h.WriteReg(in.Rd, h.ReadReg(in.Rs1)>>(in.Rs2&0x1f))
		h.pc += 4
	}
	h.handlers[insts.OpSRAI] = func(h *Hart, in *insts.Instruction) {
		h.WriteReg(in.Rd, uint32(int32(h.ReadReg(in.Rs1))>>(in.Rs2&0x1f)))
		h.pc += 4
	}

	h.handlers[insts.OpADD] = func(h *Hart, in *insts.Instruction) {
		h.WriteReg(in.Rd, h.ReadReg(in.Rs1)+h.ReadReg(in.Rs2))
		h.pc += 4
	}
	h.handlers[insts.OpSUB] = func(h *Hart, in *insts.Instruction) {
		h.WriteReg(in.Rd, h.ReadReg(in.Rs1)-h.ReadReg(in.Rs2))
		h.pc += 4
	}
	h.handlers[insts.OpSLL] = func(h *Hart, in *insts.Instruction) {
		h.WriteReg(in.Rd, h.ReadReg(in.Rs1)<<(h.ReadReg(in.Rs2)&0x1f))
		h.pc += 4
	}
	h.handlers[insts.OpSLT] = func(h *Hart, in *insts.Instruction) {
		h.WriteReg(in.Rd,
			boolToReg(int32(h.ReadReg(in.Rs1)) < int32(h.ReadReg(in.Rs2))))
		h.pc += 4
	}
	h.handlers[insts.OpSLTU] = func(h *Hart, in *insts.Instruction) {
		h.WriteReg(in.Rd, boolToReg(h.ReadReg(in.Rs1) < h.ReadReg(in.Rs2)))
		h.pc += 4
	}
	h.handlers[insts.OpXOR] = func(h *Hart, in *insts.Instruction) {
		h.WriteReg(in.Rd, h.ReadReg(in.Rs1)^h.ReadReg(in.Rs2))
		h.pc += 4
	}
	h.handlers[insts.OpSRL] = func(h *Hart, in *insts.Instruction) {
		h.WriteReg(in.Rd, h.ReadReg(in.Rs1)>>(h.ReadReg(in.Rs2)&0x1f))
		h.pc += 4
	}
	h.handlers[insts.OpSRA] = func(h *Hart, in *insts.Instruction) {
		h.WriteReg(in.Rd,
			uint32(int32(h.ReadReg(in.Rs1))>>(h.ReadReg(in.Rs2)&0x1f)))
		h.pc += 4
	}
	h.handlers[insts.OpOR] = func(h *Hart, in *insts.Instruction) {
		h.WriteReg(in.Rd, h.ReadReg(in.Rs1)|h.ReadReg(in.Rs2))
		h.pc += 4
	}
	h.handlers[insts.OpAND] = func(h *Hart, in *insts.Instruction) {
		h.WriteReg(in.Rd, h.ReadReg(in.Rs1)&h.ReadReg(in.Rs2))
		h.pc += 4
	}
}

func (h *Hart) installLoadStoreHandlers() {
	h.handlers[insts.OpLB] = func(h *Hart, in *insts.Instruction) {
		h.load(in, func(v uint32) uint32 { return uint32(int32(int8(v))) },
			(*Memory).ReadByte)
	}
	h.handlers[insts.OpLH] = func(h *Hart, in *insts.Instruction) {
		h.load(in, func(v uint32) uint32 { return uint32(int32(int16(v))) },
			(*Memory).ReadHalf)
	}
	h.handlers[insts.OpLW] = func(h *Hart, in *insts.Instruction) {
		h.load(in, func(v uint32) uint32 { return v }, (*Memory).ReadWord)
	}
	h.handlers[insts.OpLBU] = func(h *Hart, in *insts.Instruction) {
		h.load(in, func(v uint32) uint32 { return v }, (*Memory).ReadByte)
	}
	h.handlers[insts.OpLHU] = func(h *Hart, in *insts.Instruction) {
		h.load(in, func(v uint32) uint32 { return v }, (*Memory).ReadHalf)
	}

	h.handlers[insts.OpSB] = func(h *Hart, in *insts.Instruction) {
		h.store(in, (*Memory).WriteByte)
	}
	h.handlers[insts.OpSH] = func(h *Hart, in *insts.Instruction) {
		h.store(in, (*Memory).WriteHalf)
	}
	h.handlers[insts.OpSW] = func(h *Hart, in *insts.Instruction) {
		h.store(in, (*Memory).WriteWord)
	}
}

// load reads memory at rs1+imm, extends the value, and writes rd. A
// faulting access traps with the data address.
func (h *Hart) load(in *insts.Instruction, extend func(uint32) uint32,
	read func(*Memory, uint32) (uint32, bool)) {
	addr := h.ReadReg(in.Rs1) + uint32(in.ImmI)
	v, ok := read(h.mem, addr)
	if !ok {
		h.trap(TrapAccessFault, addr)
		return
	}
	h.WriteReg(in.Rd, extend(v))
	h.pc += 4
}

// store writes rs2 to memory at rs1+imm. A faulting access traps with the
// data address.
func (h *Hart) store(in *insts.Instruction,
	write func(*Memory, uint32, uint32) bool) {
	addr := h.ReadReg(in.Rs1) + uint32(in.ImmS)
	if !write(h.mem, addr, h.ReadReg(in.Rs2)) {
		h.trap(TrapAccessFault, addr)
		return
	}
	h.pc += 4
}

func (h *Hart) installBranchHandlers() {
	h.handlers[insts.OpBEQ] = func(h *Hart, in *insts.Instruction) {
		h.branch(in, h.ReadReg(in.Rs1) == h.ReadReg(in.Rs2))
	}
	h.handlers[insts.OpBNE] = func(h *Hart, in *insts.Instruction) {
		h.branch(in, h.ReadReg(in.Rs1) != h.ReadReg(in.Rs2))
	}
	h.handlers[insts.OpBLT] = func(h *Hart, in *insts.Instruction) {
		h.branch(in, int32(h.ReadReg(in.Rs1)) < int32(h.ReadReg(in.Rs2)))
	}
	h.handlers[insts.OpBGE] = func(h *Hart, in *insts.Instruction) {
		h.branch(in, int32(h.ReadReg(in.Rs1)) >= int32(h.ReadReg(in.Rs2)))
	}
	h.handlers[insts.OpBLTU] = func(h *Hart, in *insts.Instruction) {
		h.branch(in, h.ReadReg(in.Rs1) < h.ReadReg(in.Rs2))
	}
	h.handlers[insts.OpBGEU] = func(h *Hart, in *insts.Instruction) {
		h.branch(in, h.ReadReg(in.Rs1) >= h.ReadReg(in.Rs2))
	}

	h.handlers[insts.OpJAL] = func(h *Hart, in *insts.Instruction) {
		h.WriteReg(in.Rd, h.pc+4)
		h.pc += uint32(in.ImmJ)
	}
	h.handlers[insts.OpJALR] = func(h *Hart, in *insts.Instruction) {
		target := (h.ReadReg(in.Rs1) + uint32(in.ImmI)) &^ 1
		h.WriteReg(in.Rd, h.pc+4)
		h.pc = target
	}
}

func (h *Hart) branch(in *insts.Instruction, taken bool) {
	if taken {
		h.pc += uint32(in.ImmB)
	} else {
		h.pc += 4
	}
}

func (h *Hart) installSystemHandlers() {
	// FENCE orders nothing on a single in-order hart.
	h.handlers[insts.OpFENCE] = func(h *Hart, in *insts.Instruction) {
		h.pc += 4
	}

	h.handlers[insts.OpECALL] = func(h *Hart, in *insts.Instruction) {
		if h.haltOnECall {
			h.lastTrap = TrapRecord{Cause: TrapECall, Addr: h.pc}
			h.exit(ExitECall)
			return
		}
		h.trap(TrapECall, h.pc)
	}
	h.handlers[insts.OpEBREAK] = func(h *Hart, in *insts.Instruction) {
		if h.haltOnEBreak {
			h.lastTrap = TrapRecord{Cause: TrapEBreak, Addr: h.pc}
			h.exit(ExitEBreak)
			return
		}
		h.trap(TrapEBreak, h.pc)
	}
}

func boolToReg(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
