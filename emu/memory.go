package emu

// AccessKind distinguishes the width of a memory access and instruction
// fetches.
type AccessKind int

// Access kinds.
const (
	AccessByte AccessKind = iota
	AccessHalf
	AccessWord
	AccessInstr
)

// Size returns the access width in bytes.
func (k AccessKind) Size() int {
	switch k {
	case AccessByte:
		return 1
	case AccessHalf:
		return 2
	default:
		return 4
	}
}

// MemCallback is consulted before internal RAM on every access. It returns
// the read data, whether it handled the access, and whether the access
// faulted. A callback that does not claim the access returns handled false
// and the access falls through to internal RAM.
type MemCallback func(addr uint32, data uint32, kind AccessKind, isWrite bool) (rdata uint32, handled bool, fault bool)

// Memory is a byte-addressable little-endian 32-bit address space backed
// by internal RAM. Accesses outside the RAM window that no callback claims
// raise an access fault, recorded with the faulting address.
type Memory struct {
	base     uint32
	ram      []byte
	callback MemCallback

	faultAddr  uint32
	faultValid bool
}

// NewMemory creates a memory with internal RAM covering [base, base+size).
func NewMemory(base, size uint32) *Memory {
	return &Memory{
		base: base,
		ram:  make([]byte, size),
	}
}

// SetCallback installs the external access callback.
func (m *Memory) SetCallback(cb MemCallback) {
	m.callback = cb
}

// Base returns the RAM base address.
func (m *Memory) Base() uint32 {
	return m.base
}

// Size returns the RAM size in bytes.
func (m *Memory) Size() uint32 {
	return uint32(len(m.ram))
}

// FaultAddress returns the address of the most recent access fault and
// whether one has been recorded.
func (m *Memory) FaultAddress() (uint32, bool) {
	return m.faultAddr, m.faultValid
}

// ClearFault discards the recorded fault state.
func (m *Memory) ClearFault() {
	m.faultAddr = 0
	m.faultValid = false
}

func (m *Memory) recordFault(addr uint32) {
	m.faultAddr = addr
	m.faultValid = true
}

func (m *Memory) inRange(addr uint32, size uint32) bool {
	if addr < m.base {
		return false
	}
	off := addr - m.base
	n := uint32(len(m.ram))
	return off <= n && size <= n-off
}

// read performs a read of the given kind. The second return value is false
// when the access faulted.
func (m *Memory) read(addr uint32, kind AccessKind) (uint32, bool) {
	if m.callback != nil {
		if data, handled, fault := m.callback(addr, 0, kind, false); handled {
			if fault {
				m.recordFault(addr)
				return 0, false
			}
			return data, true
		}
	}

	size := uint32(kind.Size())
	if !m.inRange(addr, size) {
		m.recordFault(addr)
		return 0, false
	}

	off := addr - m.base
	var v uint32
	for i := uint32(0); i < size; i++ {
		v |= uint32(m.ram[off+i]) << (8 * i)
	}
	return v, true
}

// write performs a write of the given kind. The return value is false when
// the access faulted.
func (m *Memory) write(addr uint32, data uint32, kind AccessKind) bool {
	if m.callback != nil {
		if _, handled, fault := m.callback(addr, data, kind, true); handled {
			if fault {
				m.recordFault(addr)
				return false
			}
			return true
		}
	}

	size := uint32(kind.Size())
	if !m.inRange(addr, size) {
		m.recordFault(addr)
		return false
	}

	off := addr - m.base
	for i := uint32(0); i < size; i++ {
		m.ram[off+i] = byte(data >> (8 * i))
	}
	return true
}

// ReadByte reads one byte.
func (m *Memory) ReadByte(addr uint32) (uint32, bool) {
	return m.read(addr, AccessByte)
}

// ReadHalf reads a 16-bit halfword.
func (m *Memory) ReadHalf(addr uint32) (uint32, bool) {
	return m.read(addr, AccessHalf)
}

// ReadWord reads a 32-bit word.
func (m *Memory) ReadWord(addr uint32) (uint32, bool) {
	return m.read(addr, AccessWord)
}

// Fetch reads a 32-bit instruction word.
func (m *Memory) Fetch(addr uint32) (uint32, bool) {
	return m.read(addr, AccessInstr)
}

// WriteByte writes one byte.
func (m *Memory) WriteByte(addr uint32, data uint32) bool {
	return m.write(addr, data, AccessByte)
}

// WriteHalf writes a 16-bit halfword.
func (m *Memory) WriteHalf(addr uint32, data uint32) bool {
	return m.write(addr, data, AccessHalf)
}

// WriteWord writes a 32-bit word.
func (m *Memory) WriteWord(addr uint32, data uint32) bool {
	return m.write(addr, data, AccessWord)
}

// LoadBytes copies data into internal RAM starting at addr, bypassing the
// callback. It reports whether the range fits.
func (m *Memory) LoadBytes(addr uint32, data []byte) bool {
	if len(data) == 0 {
		return true
	}
	if !m.inRange(addr, uint32(len(data))) {
		return false
	}
	copy(m.ram[addr-m.base:], data)
	return true
}

// ReadBytes copies n bytes out of internal RAM starting at addr, bypassing
// the callback. It returns nil when the range does not fit.
func (m *Memory) ReadBytes(addr uint32, n int) []byte {
	if n == 0 {
		return []byte{}
	}
	if !m.inRange(addr, uint32(n)) {
		return nil
	}
	data := make([]byte, n)
	copy(data, m.ram[addr-m.base:])
	return data
}
