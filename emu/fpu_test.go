package emu_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/emu"
)

const (
	posInf32  = 0x7f800000
	negInf32  = 0xff800000
	qNaN32    = 0x7fc00000
	sNaN32    = 0x7f800001
	negZero32 = 0x80000000
	maxF32    = 0x7f7fffff
)

// fpHart builds a hart with FRM preset and rs1/rs2/rs3 loaded through
// FMV.W.X sequences.
func fpHart(frm uint32, regs map[uint32]uint32) *emu.Hart {
	h := emu.NewHart(emu.WithHaltOnECall())
	var words []uint32
	if frm != 0 {
		words = append(words, csrrwi(0, emu.CsrFRM, frm))
	}
	next := uint32(20)
	for fr, bits := range regs {
		h.WriteReg(uint8(next), bits)
		words = append(words, encodeR(0x53, 0, 0x78, fr, next, 0))
		next++
	}
	loadWords(h, words...)
	for range words {
		h.Step()
	}
	return h
}

// fpOp executes word on h, then returns the f-register or x-register
// destination bits and the accrued FFLAGS.
func fpOp(h *emu.Hart, word uint32, rd uint32, fdest bool) (uint32, uint32) {
	h.Memory().WriteWord(h.PC(), word)
	h.Memory().WriteWord(h.PC()+4, csrrs(15, emu.CsrFFLAGS, 0))
	h.Memory().WriteWord(h.PC()+8, encodeR(0x53, 0, 0x70, 14, rd, 0))
	h.Memory().WriteWord(h.PC()+12, ecallWord)

	result := h.Run()
	ExpectWithOffset(1, result.Cause).To(Equal(emu.ExitECall))

	if fdest {
		return h.ReadReg(14), h.ReadReg(15)
	}
	return h.ReadReg(uint8(rd)), h.ReadReg(15)
}

func f32(v float32) uint32 { return math.Float32bits(v) }

var _ = Describe("Floating point", func() {
	Describe("arithmetic", func() {
		It("should add with round to nearest even", func() {
			h := fpHart(0, map[uint32]uint32{1: f32(1.5), 2: f32(2.25)})

			bits, flags := fpOp(h, encodeR(0x53, 0, 0x00, 3, 1, 2), 3, true)

			Expect(bits).To(Equal(f32(3.75)))
			Expect(flags).To(Equal(uint32(0)))
		})

		It("should flag inexact results", func() {
			h := fpHart(0, map[uint32]uint32{
				1: f32(1), 2: f32(1e-10),
			})

			bits, flags := fpOp(h, encodeR(0x53, 0, 0x00, 3, 1, 2), 3, true)

			Expect(bits).To(Equal(f32(1)))
			Expect(flags).To(Equal(uint32(0x01)))
		})

		It("should subtract through the same rounding path", func() {
			h := fpHart(0, map[uint32]uint32{1: f32(5), 2: f32(2)})

			bits, _ := fpOp(h, encodeR(0x53, 0, 0x04, 3, 1, 2), 3, true)

			Expect(bits).To(Equal(f32(3)))
		})

		It("should produce a negative zero on cancellation under round down", func() {
			h := fpHart(2, map[uint32]uint32{1: f32(1), 2: f32(1)})

			bits, _ := fpOp(h, encodeR(0x53, 7, 0x04, 3, 1, 2), 3, true)

			Expect(bits).To(Equal(uint32(negZero32)))
		})

		It("should round down toward negative infinity", func() {
			h := fpHart(2, map[uint32]uint32{
				1: f32(1), 2: f32(1e-10),
			})

			bits, flags := fpOp(h, encodeR(0x53, 7, 0x04, 3, 1, 2), 3, true)

			Expect(bits).To(Equal(f32(math.Nextafter32(1, 0))))
			Expect(flags).To(Equal(uint32(0x01)))
		})

		It("should truncate under round toward zero", func() {
			h := fpHart(1, map[uint32]uint32{
				1: f32(1), 2: f32(1e-10),
			})

			bits, _ := fpOp(h, encodeR(0x53, 7, 0x00, 3, 1, 2), 3, true)

			Expect(bits).To(Equal(f32(1)))
		})

		It("should flag invalid on infinity minus infinity", func() {
			h := fpHart(0, map[uint32]uint32{1: posInf32, 2: posInf32})

			bits, flags := fpOp(h, encodeR(0x53, 0, 0x04, 3, 1, 2), 3, true)

			Expect(bits).To(Equal(uint32(qNaN32)))
			Expect(flags).To(Equal(uint32(0x10)))
		})

		It("should multiply exactly representable products", func() {
			h := fpHart(0, map[uint32]uint32{1: f32(3), 2: f32(0.5)})

			bits, flags := fpOp(h, encodeR(0x53, 0, 0x08, 3, 1, 2), 3, true)

			Expect(bits).To(Equal(f32(1.5)))
			Expect(flags).To(Equal(uint32(0)))
		})

		It("should flag overflow to infinity", func() {
			h := fpHart(0, map[uint32]uint32{1: maxF32, 2: f32(2)})

			bits, flags := fpOp(h, encodeR(0x53, 0, 0x08, 3, 1, 2), 3, true)

			Expect(bits).To(Equal(uint32(posInf32)))
			Expect(flags).To(Equal(uint32(0x05)))
		})

		It("should clamp overflow under round toward zero", func() {
			h := fpHart(1, map[uint32]uint32{1: maxF32, 2: f32(2)})

			bits, flags := fpOp(h, encodeR(0x53, 7, 0x08, 3, 1, 2), 3, true)

			Expect(bits).To(Equal(uint32(maxF32)))
			Expect(flags).To(Equal(uint32(0x05)))
		})

		It("should keep exact subnormal results clean", func() {
			h := fpHart(0, map[uint32]uint32{
				1: 0x00800000, 2: f32(0.5),
			})

			bits, flags := fpOp(h, encodeR(0x53, 0, 0x08, 3, 1, 2), 3, true)

			Expect(bits).To(Equal(uint32(0x00400000)))
			Expect(flags).To(Equal(uint32(0)))
		})

		It("should divide with correct rounding", func() {
			h := fpHart(0, map[uint32]uint32{1: f32(1), 2: f32(3)})

			bits, flags := fpOp(h, encodeR(0x53, 0, 0x0c, 3, 1, 2), 3, true)

			Expect(bits).To(Equal(f32(float32(1) / 3)))
			Expect(flags).To(Equal(uint32(0x01)))
		})

		It("should flag divide by zero", func() {
			h := fpHart(0, map[uint32]uint32{1: f32(1), 2: f32(0)})

			bits, flags := fpOp(h, encodeR(0x53, 0, 0x0c, 3, 1, 2), 3, true)

			Expect(bits).To(Equal(uint32(posInf32)))
			Expect(flags).To(Equal(uint32(0x08)))
		})

		It("should flag invalid on zero over zero", func() {
			h := fpHart(0, map[uint32]uint32{1: f32(0), 2: f32(0)})

			bits, flags := fpOp(h, encodeR(0x53, 0, 0x0c, 3, 1, 2), 3, true)

			Expect(bits).To(Equal(uint32(qNaN32)))
			Expect(flags).To(Equal(uint32(0x10)))
		})

		It("should take square roots", func() {
			h := fpHart(0, map[uint32]uint32{1: f32(9)})

			bits, flags := fpOp(h, encodeR(0x53, 0, 0x2c, 3, 1, 0), 3, true)

			Expect(bits).To(Equal(f32(3)))
			Expect(flags).To(Equal(uint32(0)))
		})

		It("should flag invalid on negative square roots", func() {
			h := fpHart(0, map[uint32]uint32{1: f32(-1)})

			bits, flags := fpOp(h, encodeR(0x53, 0, 0x2c, 3, 1, 0), 3, true)

			Expect(bits).To(Equal(uint32(qNaN32)))
			Expect(flags).To(Equal(uint32(0x10)))
		})

		It("should canonicalize NaN results", func() {
			h := fpHart(0, map[uint32]uint32{1: sNaN32, 2: f32(1)})

			bits, flags := fpOp(h, encodeR(0x53, 0, 0x00, 3, 1, 2), 3, true)

			Expect(bits).To(Equal(uint32(qNaN32)))
			Expect(flags).To(Equal(uint32(0x10)))
		})

		It("should trap on a reserved rounding mode", func() {
			h := emu.NewHart(emu.WithMTVec(0x200))
			loadWords(h, encodeR(0x53, 5, 0x00, 3, 1, 2))

			h.Step()

			Expect(h.PC()).To(Equal(uint32(0x200)))
		})
	})

	Describe("fused multiply add", func() {
		It("should round once", func() {
			// 1 + 2^-24 * 2^-24 rounds once, to 1, raising only the
			// inexact flag.
			h := fpHart(0, map[uint32]uint32{
				1: f32(0x1p-24), 2: f32(0x1p-24), 3: f32(1),
			})

			word := 0x3<<27 | encodeR(0x43, 0, 0, 4, 1, 2)
			bits, flags := fpOp(h, word, 4, true)

			Expect(bits).To(Equal(f32(1)))
			Expect(flags).To(Equal(uint32(0x01)))
		})

		It("should flag invalid on zero times infinity", func() {
			h := fpHart(0, map[uint32]uint32{
				1: f32(0), 2: posInf32, 3: qNaN32,
			})

			word := 0x3<<27 | encodeR(0x43, 0, 0, 4, 1, 2)
			bits, flags := fpOp(h, word, 4, true)

			Expect(bits).To(Equal(uint32(qNaN32)))
			Expect(flags).To(Equal(uint32(0x10)))
		})

		It("should negate the product for FNMSUB", func() {
			h := fpHart(0, map[uint32]uint32{
				1: f32(2), 2: f32(3), 3: f32(10),
			})

			word := 0x3<<27 | encodeR(0x4b, 0, 0, 4, 1, 2)
			bits, _ := fpOp(h, word, 4, true)

			Expect(bits).To(Equal(f32(4)))
		})

		It("should negate both for FNMADD", func() {
			h := fpHart(0, map[uint32]uint32{
				1: f32(2), 2: f32(3), 3: f32(10),
			})

			word := 0x3<<27 | encodeR(0x4f, 0, 0, 4, 1, 2)
			bits, _ := fpOp(h, word, 4, true)

			Expect(bits).To(Equal(f32(-16)))
		})

		It("should subtract the addend for FMSUB", func() {
			h := fpHart(0, map[uint32]uint32{
				1: f32(2), 2: f32(3), 3: f32(10),
			})

			word := 0x3<<27 | encodeR(0x47, 0, 0, 4, 1, 2)
			bits, _ := fpOp(h, word, 4, true)

			Expect(bits).To(Equal(f32(-4)))
		})
	})

	Describe("sign injection", func() {
		It("should copy, negate, and xor signs without rounding", func() {
			h := fpHart(0, map[uint32]uint32{1: f32(1.5), 2: f32(-2)})

			bits, _ := fpOp(h, encodeR(0x53, 0, 0x10, 3, 1, 2), 3, true)
			Expect(bits).To(Equal(f32(-1.5)))

			h = fpHart(0, map[uint32]uint32{1: f32(1.5), 2: f32(-2)})
			bits, _ = fpOp(h, encodeR(0x53, 1, 0x10, 3, 1, 2), 3, true)
			Expect(bits).To(Equal(f32(1.5)))

			h = fpHart(0, map[uint32]uint32{1: f32(-1.5), 2: f32(-2)})
			bits, _ = fpOp(h, encodeR(0x53, 2, 0x10, 3, 1, 2), 3, true)
			Expect(bits).To(Equal(f32(1.5)))
		})
	})

	Describe("min and max", func() {
		It("should order negative zero below positive zero", func() {
			h := fpHart(0, map[uint32]uint32{1: negZero32, 2: f32(0)})

			bits, _ := fpOp(h, encodeR(0x53, 0, 0x14, 3, 1, 2), 3, true)
			Expect(bits).To(Equal(uint32(negZero32)))

			h = fpHart(0, map[uint32]uint32{1: negZero32, 2: f32(0)})
			bits, _ = fpOp(h, encodeR(0x53, 1, 0x14, 3, 1, 2), 3, true)
			Expect(bits).To(Equal(f32(0)))
		})

		It("should prefer the numeric operand over a quiet NaN", func() {
			h := fpHart(0, map[uint32]uint32{1: qNaN32, 2: f32(4)})

			bits, flags := fpOp(h, encodeR(0x53, 0, 0x14, 3, 1, 2), 3, true)

			Expect(bits).To(Equal(f32(4)))
			Expect(flags).To(Equal(uint32(0)))
		})

		It("should return the canonical NaN for two NaNs", func() {
			h := fpHart(0, map[uint32]uint32{1: qNaN32, 2: qNaN32})

			bits, _ := fpOp(h, encodeR(0x53, 1, 0x14, 3, 1, 2), 3, true)

			Expect(bits).To(Equal(uint32(qNaN32)))
		})

		It("should flag invalid on signaling NaNs", func() {
			h := fpHart(0, map[uint32]uint32{1: sNaN32, 2: f32(4)})

			_, flags := fpOp(h, encodeR(0x53, 0, 0x14, 3, 1, 2), 3, true)

			Expect(flags).To(Equal(uint32(0x10)))
		})
	})

	Describe("comparisons", func() {
		It("should compare into integer registers", func() {
			h := fpHart(0, map[uint32]uint32{1: f32(1), 2: f32(2)})

			v, _ := fpOp(h, encodeR(0x53, 1, 0x50, 5, 1, 2), 5, false)
			Expect(v).To(Equal(uint32(1)))

			h = fpHart(0, map[uint32]uint32{1: f32(2), 2: f32(2)})
			v, _ = fpOp(h, encodeR(0x53, 2, 0x50, 5, 1, 2), 5, false)
			Expect(v).To(Equal(uint32(1)))

			h = fpHart(0, map[uint32]uint32{1: f32(2), 2: f32(2)})
			v, _ = fpOp(h, encodeR(0x53, 0, 0x50, 5, 1, 2), 5, false)
			Expect(v).To(Equal(uint32(1)))
		})

		It("should treat quiet NaN comparisons as unordered", func() {
			h := fpHart(0, map[uint32]uint32{1: qNaN32, 2: f32(2)})

			v, flags := fpOp(h, encodeR(0x53, 2, 0x50, 5, 1, 2), 5, false)

			Expect(v).To(Equal(uint32(0)))
			Expect(flags).To(Equal(uint32(0)))
		})

		It("should flag invalid for ordered comparisons with any NaN", func() {
			h := fpHart(0, map[uint32]uint32{1: qNaN32, 2: f32(2)})

			v, flags := fpOp(h, encodeR(0x53, 1, 0x50, 5, 1, 2), 5, false)

			Expect(v).To(Equal(uint32(0)))
			Expect(flags).To(Equal(uint32(0x10)))
		})
	})

	Describe("classification", func() {
		classOf := func(bits uint32) uint32 {
			h := fpHart(0, map[uint32]uint32{1: bits})
			v, _ := fpOp(h, encodeR(0x53, 1, 0x70, 5, 1, 0), 5, false)
			return v
		}

		It("should produce one-hot class masks", func() {
			Expect(classOf(negInf32)).To(Equal(uint32(1 << 0)))
			Expect(classOf(f32(-1))).To(Equal(uint32(1 << 1)))
			Expect(classOf(0x80000001)).To(Equal(uint32(1 << 2)))
			Expect(classOf(negZero32)).To(Equal(uint32(1 << 3)))
			Expect(classOf(f32(0))).To(Equal(uint32(1 << 4)))
			Expect(classOf(0x00000001)).To(Equal(uint32(1 << 5)))
			Expect(classOf(f32(1))).To(Equal(uint32(1 << 6)))
			Expect(classOf(posInf32)).To(Equal(uint32(1 << 7)))
			Expect(classOf(sNaN32)).To(Equal(uint32(1 << 8)))
			Expect(classOf(qNaN32)).To(Equal(uint32(1 << 9)))
		})
	})

	Describe("conversions", func() {
		It("should convert floats to signed integers", func() {
			h := fpHart(0, map[uint32]uint32{1: f32(-2.5)})

			// Truncation via the static rm field.
			v, flags := fpOp(h, encodeR(0x53, 1, 0x60, 5, 1, 0), 5, false)

			Expect(int32(v)).To(Equal(int32(-2)))
			Expect(flags).To(Equal(uint32(0x01)))
		})

		It("should saturate signed conversions with invalid", func() {
			h := fpHart(0, map[uint32]uint32{1: f32(3e9)})

			v, flags := fpOp(h, encodeR(0x53, 1, 0x60, 5, 1, 0), 5, false)

			Expect(v).To(Equal(uint32(0x7fffffff)))
			Expect(flags).To(Equal(uint32(0x10)))

			h = fpHart(0, map[uint32]uint32{1: negInf32})
			v, flags = fpOp(h, encodeR(0x53, 1, 0x60, 5, 1, 0), 5, false)
			Expect(v).To(Equal(uint32(0x80000000)))
			Expect(flags).To(Equal(uint32(0x10)))
		})

		It("should convert NaN to the maximum positive integer", func() {
			h := fpHart(0, map[uint32]uint32{1: qNaN32})

			v, flags := fpOp(h, encodeR(0x53, 1, 0x60, 5, 1, 0), 5, false)

			Expect(v).To(Equal(uint32(0x7fffffff)))
			Expect(flags).To(Equal(uint32(0x10)))
		})

		It("should convert floats to unsigned integers", func() {
			h := fpHart(0, map[uint32]uint32{1: f32(3e9)})

			v, flags := fpOp(h, encodeR(0x53, 1, 0x60, 5, 1, 1), 5, false)

			Expect(v).To(Equal(uint32(3000000000)))
			Expect(flags).To(Equal(uint32(0)))
		})

		It("should saturate negative unsigned conversions to zero", func() {
			h := fpHart(0, map[uint32]uint32{1: f32(-2)})

			v, flags := fpOp(h, encodeR(0x53, 1, 0x60, 5, 1, 1), 5, false)

			Expect(v).To(Equal(uint32(0)))
			Expect(flags).To(Equal(uint32(0x10)))
		})

		It("should convert integers to floats", func() {
			h := fpHart(0, nil)
			h.WriteReg(6, uint32(0xffffffd6))

			bits, _ := fpOp(h, encodeR(0x53, 0, 0x68, 3, 6, 0), 3, true)

			Expect(bits).To(Equal(f32(-42)))
		})

		It("should convert unsigned integers without sign extension", func() {
			h := fpHart(0, nil)
			h.WriteReg(6, 0xffffffff)

			bits, flags := fpOp(h, encodeR(0x53, 0, 0x68, 3, 6, 1), 3, true)

			Expect(bits).To(Equal(f32(4294967296)))
			Expect(flags).To(Equal(uint32(0x01)))
		})

		It("should flag inexact on large integer conversions", func() {
			h := fpHart(0, nil)
			h.WriteReg(6, 0x01000001)

			bits, flags := fpOp(h, encodeR(0x53, 0, 0x68, 3, 6, 0), 3, true)

			Expect(bits).To(Equal(f32(0x1p24)))
			Expect(flags).To(Equal(uint32(0x01)))
		})
	})

	Describe("bit moves", func() {
		It("should move raw bits both ways", func() {
			h := fpHart(0, nil)
			h.WriteReg(6, 0x12345678)
			v, _ := fpOp(h, encodeR(0x53, 0, 0x78, 3, 6, 0), 3, true)
			Expect(v).To(Equal(uint32(0x12345678)))
		})
	})

	Describe("NaN boxing", func() {
		It("should read an unboxed register as the canonical NaN", func() {
			h := emu.NewHart(emu.WithHaltOnECall())
			h.WriteFRegRaw(1, 0x0000000012345678)
			h.WriteReg(20, f32(1))
			loadWords(h, encodeR(0x53, 0, 0x78, 2, 20, 0))
			h.Step()

			bits, _ := fpOp(h, encodeR(0x53, 0, 0x00, 3, 1, 2), 3, true)

			Expect(bits).To(Equal(uint32(qNaN32)))
		})

		It("should box loaded words", func() {
			h := emu.NewHart(emu.WithHaltOnECall())
			h.Memory().WriteWord(0x100, f32(2.5))
			h.WriteReg(2, 0x100)
			loadWords(h, encodeI(0x07, 2, 1, 2, 0))
			h.Step()

			Expect(h.ReadFRegRaw(1)).To(Equal(uint64(0xffffffff00000000) |
				uint64(f32(2.5))))
		})
	})

	Describe("load and store", func() {
		It("should round trip words through memory", func() {
			h := emu.NewHart(emu.WithHaltOnECall())
			h.Memory().WriteWord(0x100, f32(6.5))
			h.WriteReg(2, 0x100)
			loadWords(h,
				encodeI(0x07, 2, 1, 2, 0),
				encodeS(0x27, 2, 2, 1, 8),
				ecallWord,
			)

			result := h.Run()

			Expect(result.Cause).To(Equal(emu.ExitECall))
			v, _ := h.Memory().ReadWord(0x108)
			Expect(v).To(Equal(f32(6.5)))
		})

		It("should trap on faulting addresses", func() {
			h := emu.NewHart(emu.WithMTVec(0x200))
			h.WriteReg(2, 0xfffffff0)
			loadWords(h, encodeI(0x07, 2, 1, 2, 0))

			h.Step()

			Expect(h.PC()).To(Equal(uint32(0x200)))
			Expect(h.LastTrap().Cause).To(Equal(emu.TrapAccessFault))
		})
	})
})
