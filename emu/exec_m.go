package emu

import "github.com/sarchlab/rv32sim/insts"

const (
	minInt32  = uint32(0x80000000)
	allOnes32 = uint32(0xffffffff)
)

func (h *Hart) installMHandlers() {
	h.handlers[insts.OpMUL] = func(h *Hart, in *insts.Instruction) {
		h.WriteReg(in.Rd, h.ReadReg(in.Rs1)*h.ReadReg(in.Rs2))
		h.pc += 4
	}
	h.handlers[insts.OpMULH] = func(h *Hart, in *insts.Instruction) {
		a := int64(int32(h.ReadReg(in.Rs1)))
		b := int64(int32(h.ReadReg(in.Rs2)))
		h.WriteReg(in.Rd, uint32(uint64(a*b)>>32))
		h.pc += 4
	}
	h.handlers[insts.OpMULHSU] = func(h *Hart, in *insts.Instruction) {
		a := int64(int32(h.ReadReg(in.Rs1)))
		b := int64(h.ReadReg(in.Rs2))
		h.WriteReg(in.Rd, uint32(uint64(a*b)>>32))
		h.pc += 4
	}
	h.handlers[insts.OpMULHU] = func(h *Hart, in *insts.Instruction) {
		a := uint64(h.ReadReg(in.Rs1))
		b := uint64(h.ReadReg(in.Rs2))
		h.WriteReg(in.Rd, uint32(a*b>>32))
		h.pc += 4
	}

	h.handlers[insts.OpDIV] = func(h *Hart, in *insts.Instruction) {
		a := h.ReadReg(in.Rs1)
		b := h.ReadReg(in.Rs2)
		var q uint32
		switch {
		case b == 0:
			q = allOnes32
		case a == minInt32 && b == allOnes32:
			q = minInt32
		default:
			q = uint32(int32(a) / int32(b))
		}
		h.WriteReg(in.Rd, q)
		h.pc += 4
	}
	h.handlers[insts.OpDIVU] = func(h *Hart, in *insts.Instruction) {
		a := h.ReadReg(in.Rs1)
		b := h.ReadReg(in.Rs2)
		q := allOnes32
		if b != 0 {
			q = a / b
		}
		h.WriteReg(in.Rd, q)
		h.pc += 4
	}
	h.handlers[insts.OpREM] = func(h *Hart, in *insts.Instruction) {
		a := h.ReadReg(in.Rs1)
		b := h.ReadReg(in.Rs2)
		var r uint32
		switch {
		case b == 0:
			r = a
		case a == minInt32 && b == allOnes32:
			r = 0
		default:
			r = uint32(int32(a) % int32(b))
		}
		h.WriteReg(in.Rd, r)
		h.pc += 4
	}
	h.handlers[insts.OpREMU] = func(h *Hart, in *insts.Instruction) {
		a := h.ReadReg(in.Rs1)
		b := h.ReadReg(in.Rs2)
		r := a
		if b != 0 {
			r = a % b
		}
		h.WriteReg(in.Rd, r)
		h.pc += 4
	}
}
