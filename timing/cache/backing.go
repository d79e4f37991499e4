package cache

import (
	"github.com/sarchlab/rv32sim/emu"
)

// MemoryBacking wraps emu.Memory as a BackingStore. Accesses go straight
// to RAM so that line fills do not re-enter the memory callback.
type MemoryBacking struct {
	memory *emu.Memory
}

// NewMemoryBacking creates a new MemoryBacking adapter.
func NewMemoryBacking(memory *emu.Memory) *MemoryBacking {
	return &MemoryBacking{memory: memory}
}

// Read fetches data from the backing memory. Ranges outside RAM read as
// zeros.
func (m *MemoryBacking) Read(addr uint32, size int) []byte {
	data := m.memory.ReadBytes(addr, size)
	if data == nil {
		return make([]byte, size)
	}
	return data
}

// Write stores data to the backing memory. Ranges outside RAM are
// dropped.
func (m *MemoryBacking) Write(addr uint32, data []byte) {
	_ = m.memory.LoadBytes(addr, data)
}
