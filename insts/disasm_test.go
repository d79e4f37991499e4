package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/insts"
)

var _ = Describe("Disassembly", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	disasm := func(word uint32) string {
		return insts.Disassemble(decoder.Decode(word))
	}

	It("should render R-format instructions with ABI names", func() {
		Expect(disasm(encodeR(0x33, 0, 0x00, 10, 11, 12))).
			To(Equal("add a0,a1,a2"))
		Expect(disasm(encodeR(0x33, 0, 0x01, 3, 1, 2))).
			To(Equal("mul gp,ra,sp"))
	})

	It("should render loads and stores in offset form", func() {
		Expect(disasm(encodeI(0x03, 2, 10, 2, 8))).To(Equal("lw a0,8(sp)"))
		Expect(disasm(encodeS(0x23, 2, 8, 11, uint32(0xfffffffc)))).
			To(Equal("sw a1,-4(s0)"))
	})

	It("should render JALR in offset form", func() {
		Expect(disasm(encodeI(0x67, 0, 1, 5, 0))).To(Equal("jalr ra,0(t0)"))
	})

	It("should render immediate shifts with the shamt", func() {
		Expect(disasm(encodeI(0x13, 1, 10, 10, 4))).To(Equal("slli a0,a0,4"))
	})

	It("should render branches with the byte offset", func() {
		Expect(disasm(encodeB(0x63, 0, 10, 11, uint32(0xfffffff8)))).
			To(Equal("beq a0,a1,-8"))
	})

	It("should render upper immediates in hex", func() {
		Expect(disasm(encodeU(0x37, 10, 0xabcde000))).To(Equal("lui a0,0xabcde"))
	})

	It("should render jumps with the byte offset", func() {
		Expect(disasm(encodeJ(0x6f, 1, 0x100))).To(Equal("jal ra,256"))
	})

	It("should render CSR forms with the address in hex", func() {
		Expect(disasm(encodeI(0x73, 1, 10, 5, 0x305))).
			To(Equal("csrrw a0,0x305,t0"))
		Expect(disasm(encodeI(0x73, 5, 10, 31, 0x003))).
			To(Equal("csrrwi a0,0x003,31"))
	})

	It("should render bare system mnemonics", func() {
		Expect(disasm(0x00000073)).To(Equal("ecall"))
		Expect(disasm(0x00100073)).To(Equal("ebreak"))
		Expect(disasm(0x0000000f)).To(Equal("fence"))
	})

	It("should use floating-point register names for F instructions", func() {
		Expect(disasm(encodeR(0x53, 0, 0x00, 0, 10, 11))).
			To(Equal("fadd.s ft0,fa0,fa1"))
		Expect(disasm(encodeR4(0x43, 0, 0, 10, 11, 12))).
			To(Equal("fmadd.s ft0,fa0,fa1,fa2"))
		Expect(disasm(encodeI(0x07, 2, 0, 2, 16))).To(Equal("flw ft0,16(sp)"))
		Expect(disasm(encodeS(0x27, 2, 2, 10, 16))).To(Equal("fsw fa0,16(sp)"))
	})

	It("should mix register files on conversions and moves", func() {
		Expect(disasm(encodeR(0x53, 0, 0x60, 10, 5, 1))).
			To(Equal("fcvt.wu.s a0,ft5"))
		Expect(disasm(encodeR(0x53, 0, 0x68, 5, 10, 0))).
			To(Equal("fcvt.s.w ft5,a0"))
		Expect(disasm(encodeR(0x53, 0, 0x70, 10, 5, 0))).
			To(Equal("fmv.x.w a0,ft5"))
		Expect(disasm(encodeR(0x53, 0, 0x78, 5, 10, 0))).
			To(Equal("fmv.w.x ft5,a0"))
		Expect(disasm(encodeR(0x53, 1, 0x70, 10, 5, 0))).
			To(Equal("fclass.s a0,ft5"))
		Expect(disasm(encodeR(0x53, 2, 0x50, 10, 5, 6))).
			To(Equal("feq.s a0,ft5,ft6"))
		Expect(disasm(encodeR(0x53, 0, 0x2c, 5, 6, 0))).
			To(Equal("fsqrt.s ft5,ft6"))
	})

	It("should render reserved words with the raw encoding", func() {
		Expect(disasm(0x00000000)).To(Equal("reserved 0x00000000"))
	})
})
