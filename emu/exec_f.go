package emu

import (
	"math"

	"github.com/sarchlab/rv32sim/insts"
)

func (h *Hart) installFHandlers() {
	h.installFLoadStoreHandlers()
	h.installFArithHandlers()
	h.installFFMAHandlers()
	h.installFCompareHandlers()
	h.installFConvertHandlers()
}

func (h *Hart) installFLoadStoreHandlers() {
	h.handlers[insts.OpFLW] = func(h *Hart, in *insts.Instruction) {
		addr := h.ReadReg(in.Rs1) + uint32(in.ImmI)
		v, ok := h.mem.ReadWord(addr)
		if !ok {
			h.trap(TrapAccessFault, addr)
			return
		}
		h.writeF32Bits(in.Rd, v)
		h.pc += 4
	}
	h.handlers[insts.OpFSW] = func(h *Hart, in *insts.Instruction) {
		addr := h.ReadReg(in.Rs1) + uint32(in.ImmS)
		if !h.mem.WriteWord(addr, h.readF32Bits(in.Rs2)) {
			h.trap(TrapAccessFault, addr)
			return
		}
		h.pc += 4
	}
}

// fpBinary runs a rounding-mode binary operation, trapping on an invalid
// rm encoding.
func (h *Hart) fpBinary(in *insts.Instruction,
	op func(a, b float32, rm uint8) (float32, uint32)) {
	rm, ok := h.resolveRM(in.RM)
	if !ok {
		h.illegalInstruction(in)
		return
	}
	aBits := h.readF32Bits(in.Rs1)
	bBits := h.readF32Bits(in.Rs2)
	res, flags := op(math.Float32frombits(aBits),
		math.Float32frombits(bBits), rm)
	h.fpResult(in.Rd, res, flags|invalidFlags(aBits, bBits))
	h.pc += 4
}

func (h *Hart) installFArithHandlers() {
	h.handlers[insts.OpFADDS] = func(h *Hart, in *insts.Instruction) {
		h.fpBinary(in, fpAdd)
	}
	h.handlers[insts.OpFSUBS] = func(h *Hart, in *insts.Instruction) {
		h.fpBinary(in, func(a, b float32, rm uint8) (float32, uint32) {
			return fpAdd(a, flipSign(b), rm)
		})
	}
	h.handlers[insts.OpFMULS] = func(h *Hart, in *insts.Instruction) {
		h.fpBinary(in, fpMul)
	}
	h.handlers[insts.OpFDIVS] = func(h *Hart, in *insts.Instruction) {
		h.fpBinary(in, fpDiv)
	}
	h.handlers[insts.OpFSQRTS] = func(h *Hart, in *insts.Instruction) {
		rm, ok := h.resolveRM(in.RM)
		if !ok {
			h.illegalInstruction(in)
			return
		}
		aBits := h.readF32Bits(in.Rs1)
		res, flags := fpSqrt(math.Float32frombits(aBits), rm)
		h.fpResult(in.Rd, res, flags|invalidFlags(aBits))
		h.pc += 4
	}

	h.handlers[insts.OpFSGNJS] = func(h *Hart, in *insts.Instruction) {
		a := h.readF32Bits(in.Rs1)
		b := h.readF32Bits(in.Rs2)
		h.writeF32Bits(in.Rd, a&^signMask32|b&signMask32)
		h.pc += 4
	}
	h.handlers[insts.OpFSGNJNS] = func(h *Hart, in *insts.Instruction) {
		a := h.readF32Bits(in.Rs1)
		b := h.readF32Bits(in.Rs2)
		h.writeF32Bits(in.Rd, a&^signMask32|^b&signMask32)
		h.pc += 4
	}
	h.handlers[insts.OpFSGNJXS] = func(h *Hart, in *insts.Instruction) {
		a := h.readF32Bits(in.Rs1)
		b := h.readF32Bits(in.Rs2)
		h.writeF32Bits(in.Rd, a^b&signMask32)
		h.pc += 4
	}

	h.handlers[insts.OpFMINS] = func(h *Hart, in *insts.Instruction) {
		res, flags := fpMin(h.readF32Bits(in.Rs1), h.readF32Bits(in.Rs2))
		h.writeF32Bits(in.Rd, res)
		h.accrueFlags(flags)
		h.pc += 4
	}
	h.handlers[insts.OpFMAXS] = func(h *Hart, in *insts.Instruction) {
		res, flags := fpMax(h.readF32Bits(in.Rs1), h.readF32Bits(in.Rs2))
		h.writeF32Bits(in.Rd, res)
		h.accrueFlags(flags)
		h.pc += 4
	}
}

func flipSign(v float32) float32 {
	return math.Float32frombits(math.Float32bits(v) ^ signMask32)
}

// fusedOp runs one of the four fused multiply-add variants. negProduct
// flips the product sign and negAddend flips the addend sign.
func (h *Hart) fusedOp(in *insts.Instruction, negProduct, negAddend bool) {
	rm, ok := h.resolveRM(in.RM)
	if !ok {
		h.illegalInstruction(in)
		return
	}
	aBits := h.readF32Bits(in.Rs1)
	bBits := h.readF32Bits(in.Rs2)
	cBits := h.readF32Bits(in.Rs3)

	a := math.Float32frombits(aBits)
	b := math.Float32frombits(bBits)
	c := math.Float32frombits(cBits)
	if negProduct {
		a = flipSign(a)
	}
	if negAddend {
		c = flipSign(c)
	}

	res, flags := fpFMA(a, b, c, rm)
	h.fpResult(in.Rd, res, flags|invalidFlags(aBits, bBits, cBits))
	h.pc += 4
}

func (h *Hart) installFFMAHandlers() {
	h.handlers[insts.OpFMADDS] = func(h *Hart, in *insts.Instruction) {
		h.fusedOp(in, false, false)
	}
	h.handlers[insts.OpFMSUBS] = func(h *Hart, in *insts.Instruction) {
		h.fusedOp(in, false, true)
	}
	h.handlers[insts.OpFNMSUBS] = func(h *Hart, in *insts.Instruction) {
		h.fusedOp(in, true, false)
	}
	h.handlers[insts.OpFNMADDS] = func(h *Hart, in *insts.Instruction) {
		h.fusedOp(in, true, true)
	}
}

// fpCompare runs an ordered comparison into an integer register. For the
// signaling forms any NaN operand raises NV; FEQ raises NV only for
// signaling NaNs.
func (h *Hart) fpCompare(in *insts.Instruction, signaling bool,
	cmp func(a, b float32) bool) {
	aBits := h.readF32Bits(in.Rs1)
	bBits := h.readF32Bits(in.Rs2)

	if isNaN32(aBits) || isNaN32(bBits) {
		if signaling || isSNaN32(aBits) || isSNaN32(bBits) {
			h.accrueFlags(flagNV)
		}
		h.WriteReg(in.Rd, 0)
		h.pc += 4
		return
	}

	h.WriteReg(in.Rd, boolToReg(cmp(math.Float32frombits(aBits),
		math.Float32frombits(bBits))))
	h.pc += 4
}

func (h *Hart) installFCompareHandlers() {
	h.handlers[insts.OpFEQS] = func(h *Hart, in *insts.Instruction) {
		h.fpCompare(in, false, func(a, b float32) bool { return a == b })
	}
	h.handlers[insts.OpFLTS] = func(h *Hart, in *insts.Instruction) {
		h.fpCompare(in, true, func(a, b float32) bool { return a < b })
	}
	h.handlers[insts.OpFLES] = func(h *Hart, in *insts.Instruction) {
		h.fpCompare(in, true, func(a, b float32) bool { return a <= b })
	}
	h.handlers[insts.OpFCLASSS] = func(h *Hart, in *insts.Instruction) {
		h.WriteReg(in.Rd, classify(h.readF32Bits(in.Rs1)))
		h.pc += 4
	}
}

func (h *Hart) installFConvertHandlers() {
	h.handlers[insts.OpFCVTWS] = func(h *Hart, in *insts.Instruction) {
		rm, ok := h.resolveRM(in.RM)
		if !ok {
			h.illegalInstruction(in)
			return
		}
		v, flags := fpToInt32(h.readF32(in.Rs1), rm)
		h.WriteReg(in.Rd, v)
		h.accrueFlags(flags)
		h.pc += 4
	}
	h.handlers[insts.OpFCVTWUS] = func(h *Hart, in *insts.Instruction) {
		rm, ok := h.resolveRM(in.RM)
		if !ok {
			h.illegalInstruction(in)
			return
		}
		v, flags := fpToUint32(h.readF32(in.Rs1), rm)
		h.WriteReg(in.Rd, v)
		h.accrueFlags(flags)
		h.pc += 4
	}
	h.handlers[insts.OpFCVTSW] = func(h *Hart, in *insts.Instruction) {
		rm, ok := h.resolveRM(in.RM)
		if !ok {
			h.illegalInstruction(in)
			return
		}
		res, flags := roundToF32(float64(int32(h.ReadReg(in.Rs1))), 0, rm)
		h.fpResult(in.Rd, res, flags)
		h.pc += 4
	}
	h.handlers[insts.OpFCVTSWU] = func(h *Hart, in *insts.Instruction) {
		rm, ok := h.resolveRM(in.RM)
		if !ok {
			h.illegalInstruction(in)
			return
		}
		res, flags := roundToF32(float64(h.ReadReg(in.Rs1)), 0, rm)
		h.fpResult(in.Rd, res, flags)
		h.pc += 4
	}

	h.handlers[insts.OpFMVXW] = func(h *Hart, in *insts.Instruction) {
		h.WriteReg(in.Rd, h.readF32Bits(in.Rs1))
		h.pc += 4
	}
	h.handlers[insts.OpFMVWX] = func(h *Hart, in *insts.Instruction) {
		h.writeF32Bits(in.Rd, h.ReadReg(in.Rs1))
		h.pc += 4
	}
}
