package emu

import "github.com/sarchlab/rv32sim/insts"

// CSR addresses implemented by the hart.
const (
	CsrFFLAGS = 0x001
	CsrFRM    = 0x002
	CsrFCSR   = 0x003
	CsrMISA   = 0x301
	CsrCYCLE  = 0xC00
	CsrCYCLEH = 0xC80
)

// Accrued floating-point exception flag bits in FFLAGS.
const (
	flagNX = 0x01
	flagUF = 0x02
	flagOF = 0x04
	flagDZ = 0x08
	flagNV = 0x10
)

// seedMISA writes the machine ISA register: RV32 base plus the I bit and
// one bit per enabled extension.
func (h *Hart) seedMISA() {
	v := uint32(0x40000000) | 1<<8
	if h.exts.Has(insts.ExtM) {
		v |= 1 << 12
	}
	if h.exts.Has(insts.ExtF) {
		v |= 1 << 5
	}
	h.csr[CsrMISA] = v
}

// csrKnown reports whether addr names an implemented CSR.
func (h *Hart) csrKnown(addr uint16) bool {
	switch addr {
	case CsrFFLAGS, CsrFRM, CsrFCSR:
		return h.exts.Has(insts.ExtF)
	case CsrMISA, CsrCYCLE, CsrCYCLEH:
		return true
	}
	return false
}

// csrWritable reports whether addr accepts writes.
func csrWritable(addr uint16) bool {
	switch addr {
	case CsrFFLAGS, CsrFRM, CsrFCSR:
		return true
	}
	return false
}

// readCSR returns the current value of addr. The counter views are
// synthesized from the cycle counter.
func (h *Hart) readCSR(addr uint16) uint32 {
	switch addr {
	case CsrCYCLE:
		return uint32(h.cycle)
	case CsrCYCLEH:
		return uint32(h.cycle >> 32)
	}
	return h.csr[addr]
}

// writeCSR stores v into addr, applying the per-register write mask and
// keeping the FCSR aliases coherent. FFLAGS and FRM are windows into
// FCSR: a write to any of the three updates all three.
func (h *Hart) writeCSR(addr uint16, v uint32) {
	switch addr {
	case CsrFFLAGS:
		h.csr[CsrFFLAGS] = v & 0x1f
	case CsrFRM:
		h.csr[CsrFRM] = v & 0x7
	case CsrFCSR:
		h.csr[CsrFCSR] = v & 0xff
		h.csr[CsrFFLAGS] = v & 0x1f
		h.csr[CsrFRM] = (v >> 5) & 0x7
		return
	default:
		h.csr[addr] = v
	}
	h.csr[CsrFCSR] = h.csr[CsrFRM]<<5 | h.csr[CsrFFLAGS]
}

// accrueFlags ORs exception flag bits into FFLAGS and its FCSR alias.
func (h *Hart) accrueFlags(flags uint32) {
	if flags == 0 {
		return
	}
	h.writeCSR(CsrFFLAGS, h.csr[CsrFFLAGS]|flags)
}

// roundingMode returns the dynamic rounding mode from FRM.
func (h *Hart) roundingMode() uint8 {
	return uint8(h.csr[CsrFRM])
}

// csrOp implements the shared read-modify-write sequence of the Zicsr
// instructions. src is the write operand, writeEnable is false for
// CSRRS/CSRRC forms whose source index is zero, and modify merges the old
// value with src for the set and clear variants.
func (h *Hart) csrOp(in *insts.Instruction, src uint32, writeEnable bool,
	modify func(old, src uint32) uint32) {
	addr := in.CSR

	if !h.csrKnown(addr) {
		h.trap(TrapIllegalCSR, h.pc)
		return
	}
	if writeEnable && !csrWritable(addr) {
		h.trap(TrapIllegalCSR, h.pc)
		return
	}

	old := h.readCSR(addr)
	if writeEnable {
		h.writeCSR(addr, modify(old, src))
	}
	if in.Rd != 0 {
		h.WriteReg(in.Rd, old)
	}
	h.pc += 4
}

func writeValue(_, src uint32) uint32 { return src }
func setBits(old, src uint32) uint32  { return old | src }
func clrBits(old, src uint32) uint32  { return old &^ src }

func (h *Hart) installZicsrHandlers() {
	h.handlers[insts.OpCSRRW] = func(h *Hart, in *insts.Instruction) {
		h.csrOp(in, h.ReadReg(in.Rs1), true, writeValue)
	}
	h.handlers[insts.OpCSRRS] = func(h *Hart, in *insts.Instruction) {
		h.csrOp(in, h.ReadReg(in.Rs1), in.Rs1 != 0, setBits)
	}
	h.handlers[insts.OpCSRRC] = func(h *Hart, in *insts.Instruction) {
		h.csrOp(in, h.ReadReg(in.Rs1), in.Rs1 != 0, clrBits)
	}
	h.handlers[insts.OpCSRRWI] = func(h *Hart, in *insts.Instruction) {
		h.csrOp(in, uint32(in.Rs1), true, writeValue)
	}
	h.handlers[insts.OpCSRRSI] = func(h *Hart, in *insts.Instruction) {
		h.csrOp(in, uint32(in.Rs1), in.Rs1 != 0, setBits)
	}
	h.handlers[insts.OpCSRRCI] = func(h *Hart, in *insts.Instruction) {
		h.csrOp(in, uint32(in.Rs1), in.Rs1 != 0, clrBits)
	}
}
