package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
)

func csrrw(rd, csr, rs1 uint32) uint32  { return encodeI(0x73, 1, rd, rs1, csr) }
func csrrs(rd, csr, rs1 uint32) uint32  { return encodeI(0x73, 2, rd, rs1, csr) }
func csrrc(rd, csr, rs1 uint32) uint32  { return encodeI(0x73, 3, rd, rs1, csr) }
func csrrwi(rd, csr, imm uint32) uint32 { return encodeI(0x73, 5, rd, imm, csr) }
func csrrsi(rd, csr, imm uint32) uint32 { return encodeI(0x73, 6, rd, imm, csr) }
func csrrci(rd, csr, imm uint32) uint32 { return encodeI(0x73, 7, rd, imm, csr) }

var _ = Describe("CSR instructions", func() {
	var h *emu.Hart

	BeforeEach(func() {
		h = emu.NewHart(emu.WithHaltOnECall(), emu.WithMTVec(0x400))
	})

	run := func(words ...uint32) {
		loadWords(h, words...)
		result := h.Run()
		ExpectWithOffset(1, result.Cause).To(Equal(emu.ExitECall))
	}

	It("should swap FRM and return the old value", func() {
		run(
			csrrwi(0, emu.CsrFRM, 3),
			csrrw(1, emu.CsrFRM, 0),
			ecallWord,
		)

		Expect(h.ReadReg(1)).To(Equal(uint32(3)))
	})

	It("should mask FRM writes to three bits", func() {
		h.WriteReg(5, 0xff)
		run(
			csrrw(0, emu.CsrFRM, 5),
			csrrs(1, emu.CsrFRM, 0),
			ecallWord,
		)

		Expect(h.ReadReg(1)).To(Equal(uint32(7)))
	})

	It("should mirror FFLAGS and FRM into FCSR", func() {
		run(
			csrrwi(0, emu.CsrFFLAGS, 0x1f),
			csrrwi(0, emu.CsrFRM, 2),
			csrrs(1, emu.CsrFCSR, 0),
			ecallWord,
		)

		Expect(h.ReadReg(1)).To(Equal(uint32(2<<5 | 0x1f)))
	})

	It("should split FCSR writes into the aliases", func() {
		h.WriteReg(5, 0x7f)
		run(
			csrrw(0, emu.CsrFCSR, 5),
			csrrs(1, emu.CsrFFLAGS, 0),
			csrrs(2, emu.CsrFRM, 0),
			ecallWord,
		)

		Expect(h.ReadReg(1)).To(Equal(uint32(0x1f)))
		Expect(h.ReadReg(2)).To(Equal(uint32(3)))
	})

	It("should set and clear individual flag bits", func() {
		run(
			csrrsi(0, emu.CsrFFLAGS, 0x11),
			csrrci(0, emu.CsrFFLAGS, 0x01),
			csrrs(1, emu.CsrFFLAGS, 0),
			ecallWord,
		)

		Expect(h.ReadReg(1)).To(Equal(uint32(0x10)))
	})

	It("should read MISA with the enabled extensions", func() {
		run(csrrs(1, emu.CsrMISA, 0), ecallWord)

		misa := h.ReadReg(1)
		Expect(misa & 0xc0000000).To(Equal(uint32(0x40000000)))
		Expect(misa & (1 << 8)).NotTo(BeZero())
		Expect(misa & (1 << 12)).NotTo(BeZero())
		Expect(misa & (1 << 5)).NotTo(BeZero())
	})

	It("should expose the cycle counter through CYCLE", func() {
		run(
			addi(0, 0, 0),
			addi(0, 0, 0),
			csrrs(1, emu.CsrCYCLE, 0),
			ecallWord,
		)

		Expect(h.ReadReg(1)).To(Equal(uint32(2)))
	})

	It("should read zero from CYCLEH early on", func() {
		run(csrrs(1, emu.CsrCYCLEH, 0), ecallWord)

		Expect(h.ReadReg(1)).To(Equal(uint32(0)))
	})

	It("should trap writes to read-only counters", func() {
		loadWords(h, csrrwi(0, emu.CsrCYCLE, 1))

		h.Step()

		Expect(h.PC()).To(Equal(uint32(0x400)))
		Expect(h.LastTrap().Cause).To(Equal(emu.TrapIllegalCSR))
	})

	It("should not trap CSRRS on a read-only counter when rs1 is x0", func() {
		loadWords(h, csrrs(1, emu.CsrCYCLE, 0))

		h.Step()

		Expect(h.PC()).To(Equal(uint32(4)))
	})

	It("should trap accesses to unimplemented CSRs", func() {
		loadWords(h, csrrs(1, 0x345, 0))

		h.Step()

		Expect(h.PC()).To(Equal(uint32(0x400)))
		Expect(h.LastTrap().Cause).To(Equal(emu.TrapIllegalCSR))
	})

	It("should hide the FCSR group when F is disabled", func() {
		h = emu.NewHart(
			emu.WithExtensions(insts.ExtZicsr),
			emu.WithMTVec(0x400),
		)
		loadWords(h, csrrs(1, emu.CsrFFLAGS, 0))

		h.Step()

		Expect(h.PC()).To(Equal(uint32(0x400)))
		Expect(h.LastTrap().Cause).To(Equal(emu.TrapIllegalCSR))
	})
})
