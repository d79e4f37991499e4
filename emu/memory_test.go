package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/emu"
)

var _ = Describe("Memory", func() {
	var m *emu.Memory

	BeforeEach(func() {
		m = emu.NewMemory(0x1000, 0x1000)
	})

	It("should report its window", func() {
		Expect(m.Base()).To(Equal(uint32(0x1000)))
		Expect(m.Size()).To(Equal(uint32(0x1000)))
	})

	It("should read back written words", func() {
		Expect(m.WriteWord(0x1000, 0xdeadbeef)).To(BeTrue())

		v, ok := m.ReadWord(0x1000)

		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(uint32(0xdeadbeef)))
	})

	It("should store words little-endian", func() {
		m.WriteWord(0x1000, 0x11223344)

		b0, _ := m.ReadByte(0x1000)
		b3, _ := m.ReadByte(0x1003)

		Expect(b0).To(Equal(uint32(0x44)))
		Expect(b3).To(Equal(uint32(0x11)))
	})

	It("should narrow halfword and byte writes", func() {
		m.WriteWord(0x1000, 0xffffffff)
		m.WriteHalf(0x1000, 0x1234)
		m.WriteByte(0x1003, 0xab)

		v, _ := m.ReadWord(0x1000)

		Expect(v).To(Equal(uint32(0xabff1234)))
	})

	It("should support unaligned accesses inside the window", func() {
		m.WriteWord(0x1001, 0x55667788)

		v, ok := m.ReadWord(0x1001)

		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(uint32(0x55667788)))
	})

	It("should fault below the window", func() {
		_, ok := m.ReadWord(0x0ffc)

		Expect(ok).To(BeFalse())
		addr, valid := m.FaultAddress()
		Expect(valid).To(BeTrue())
		Expect(addr).To(Equal(uint32(0x0ffc)))
	})

	It("should fault when an access straddles the top of the window", func() {
		Expect(m.WriteWord(0x1ffe, 1)).To(BeFalse())
	})

	It("should fault on address wraparound", func() {
		_, ok := m.ReadWord(0xfffffffe)

		Expect(ok).To(BeFalse())
	})

	It("should clear recorded faults", func() {
		m.ReadWord(0)
		m.ClearFault()

		_, valid := m.FaultAddress()

		Expect(valid).To(BeFalse())
	})

	Describe("callback", func() {
		It("should consult the callback before RAM", func() {
			m.SetCallback(func(addr uint32, data uint32,
				kind emu.AccessKind, isWrite bool) (uint32, bool, bool) {
				if addr == 0x8000 {
					return 0x42, true, false
				}
				return 0, false, false
			})

			v, ok := m.ReadWord(0x8000)

			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(uint32(0x42)))
		})

		It("should fall through unclaimed accesses to RAM", func() {
			m.SetCallback(func(addr uint32, data uint32,
				kind emu.AccessKind, isWrite bool) (uint32, bool, bool) {
				return 0, false, false
			})
			m.WriteWord(0x1004, 7)

			v, ok := m.ReadWord(0x1004)

			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(uint32(7)))
		})

		It("should record callback faults", func() {
			m.SetCallback(func(addr uint32, data uint32,
				kind emu.AccessKind, isWrite bool) (uint32, bool, bool) {
				return 0, true, true
			})

			_, ok := m.ReadWord(0x1000)

			Expect(ok).To(BeFalse())
			addr, valid := m.FaultAddress()
			Expect(valid).To(BeTrue())
			Expect(addr).To(Equal(uint32(0x1000)))
		})

		It("should see writes with their data and kind", func() {
			var gotAddr, gotData uint32
			var gotKind emu.AccessKind
			var gotWrite bool
			m.SetCallback(func(addr uint32, data uint32,
				kind emu.AccessKind, isWrite bool) (uint32, bool, bool) {
				gotAddr, gotData, gotKind, gotWrite =
					addr, data, kind, isWrite
				return 0, true, false
			})

			m.WriteHalf(0x2000, 0x99)

			Expect(gotAddr).To(Equal(uint32(0x2000)))
			Expect(gotData).To(Equal(uint32(0x99)))
			Expect(gotKind).To(Equal(emu.AccessHalf))
			Expect(gotWrite).To(BeTrue())
		})
	})

	Describe("LoadBytes", func() {
		It("should copy into RAM bypassing the callback", func() {
			called := false
			m.SetCallback(func(addr uint32, data uint32,
				kind emu.AccessKind, isWrite bool) (uint32, bool, bool) {
				called = true
				return 0, true, true
			})

			ok := m.LoadBytes(0x1000, []byte{1, 2, 3, 4})

			Expect(ok).To(BeTrue())
			Expect(called).To(BeFalse())
		})

		It("should reject ranges outside the window", func() {
			Expect(m.LoadBytes(0x1ffe, []byte{1, 2, 3})).To(BeFalse())
		})

		It("should accept empty data anywhere", func() {
			Expect(m.LoadBytes(0, nil)).To(BeTrue())
		})
	})
})
