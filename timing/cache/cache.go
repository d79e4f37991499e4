// Package cache models the L1 instruction and data caches of a small RV32
// core using the Akita cache directory for tag and replacement state.
package cache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// Config holds cache configuration parameters.
type Config struct {
	// Size in bytes
	Size int
	// Associativity (number of ways)
	Associativity int
	// BlockSize in bytes (cache line size)
	BlockSize int
	// HitLatency in cycles
	HitLatency uint64
	// MissLatency in cycles (includes next-level access time)
	MissLatency uint64
}

// DefaultL1IConfig returns the default configuration for the L1
// instruction cache: 16KB, 2-way, 32B lines.
func DefaultL1IConfig() Config {
	return Config{
		Size:          16 * 1024,
		Associativity: 2,
		BlockSize:     32,
		HitLatency:    1,
		MissLatency:   10,
	}
}

// DefaultL1DConfig returns the default configuration for the L1 data
// cache: 16KB, 4-way, 32B lines, 2-cycle load-to-use latency.
func DefaultL1DConfig() Config {
	return Config{
		Size:          16 * 1024,
		Associativity: 4,
		BlockSize:     32,
		HitLatency:    2,
		MissLatency:   10,
	}
}

// DefaultL2Config returns the default configuration for the unified L2
// cache: 256KB, 8-way, 64B lines.
func DefaultL2Config() Config {
	return Config{
		Size:          256 * 1024,
		Associativity: 8,
		BlockSize:     64,
		HitLatency:    10,
		MissLatency:   80,
	}
}

// AccessResult contains the result of a cache access.
type AccessResult struct {
	// Hit indicates whether the access was a cache hit.
	Hit bool
	// Latency is the number of cycles this access takes.
	Latency uint64
	// Data is the data read (for load operations).
	Data uint32
	// Evicted is true if a valid block was evicted.
	Evicted bool
	// EvictedAddr is the address of the evicted block (if Evicted is true).
	EvictedAddr uint32
}

// StoreForwardLatency is the extra latency (in cycles) when a load must
// forward data from a recent store to the same address. The data has to
// be matched against pending entries in the store buffer before it can
// bypass the normal L1 read path.
const StoreForwardLatency uint64 = 1

// Cache is a write-allocate, writeback cache level. Tag and replacement
// state lives in an Akita cache directory; line data lives beside it.
type Cache struct {
	config Config

	directory *akitacache.DirectoryImpl

	// Line data, indexed by (setID * associativity + wayID).
	dataStore [][]byte

	stats Statistics

	backing BackingStore

	recentStoreAddr  uint32
	recentStoreValid bool
}

// Statistics holds cache performance statistics.
type Statistics struct {
	Reads      uint64
	Writes     uint64
	Hits       uint64
	Misses     uint64
	Evictions  uint64
	Writebacks uint64
}

// BackingStore is the next level in the memory hierarchy.
type BackingStore interface {
	// Read fetches data from the backing store.
	Read(addr uint32, size int) []byte
	// Write stores data to the backing store.
	Write(addr uint32, data []byte)
}

// New creates a new cache with the given configuration.
func New(config Config, backing BackingStore) *Cache {
	numSets := config.Size / (config.Associativity * config.BlockSize)
	totalBlocks := numSets * config.Associativity

	dataStore := make([][]byte, totalBlocks)
	for i := range dataStore {
		dataStore[i] = make([]byte, config.BlockSize)
	}

	return &Cache{
		config: config,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
		dataStore: dataStore,
		backing:   backing,
	}
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Stats returns cache statistics.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// ResetStats clears cache statistics.
func (c *Cache) ResetStats() {
	c.stats = Statistics{}
}

func (c *Cache) blockIndex(block *akitacache.Block) int {
	return block.SetID*c.config.Associativity + block.WayID
}

func (c *Cache) blockAddr(addr uint32) uint32 {
	return addr - addr%uint32(c.config.BlockSize)
}

// Read performs a cache read of size bytes at addr.
func (c *Cache) Read(addr uint32, size int) AccessResult {
	c.stats.Reads++

	blockAddr := c.blockAddr(addr)
	block := c.directory.Lookup(0, uint64(blockAddr))

	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)

		offset := addr - blockAddr
		data := extractData(c.dataStore[c.blockIndex(block)], offset, size)

		latency := c.config.HitLatency
		if c.recentStoreValid && c.recentStoreAddr == addr {
			latency += StoreForwardLatency
			c.recentStoreValid = false
		}

		return AccessResult{
			Hit:     true,
			Latency: latency,
			Data:    data,
		}
	}

	c.stats.Misses++
	return c.handleMiss(addr, size, false, 0)
}

// Write performs a cache write of size bytes at addr. The policy is
// write-allocate: on miss, the block is fetched first, then written.
func (c *Cache) Write(addr uint32, size int, data uint32) AccessResult {
	c.stats.Writes++

	c.recentStoreAddr = addr
	c.recentStoreValid = true

	blockAddr := c.blockAddr(addr)
	block := c.directory.Lookup(0, uint64(blockAddr))

	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)

		offset := addr - blockAddr
		storeData(c.dataStore[c.blockIndex(block)], offset, size, data)
		block.IsDirty = true

		return AccessResult{
			Hit:     true,
			Latency: c.config.HitLatency,
		}
	}

	c.stats.Misses++
	return c.handleMiss(addr, size, true, data)
}

func (c *Cache) handleMiss(
	addr uint32,
	size int,
	isWrite bool,
	writeData uint32,
) AccessResult {
	result := AccessResult{
		Hit:     false,
		Latency: c.config.MissLatency,
	}

	blockAddr := c.blockAddr(addr)

	victim := c.directory.FindVictim(uint64(blockAddr))
	if victim == nil {
		return result
	}

	victimData := c.dataStore[c.blockIndex(victim)]

	if victim.IsValid {
		c.stats.Evictions++
		result.Evicted = true
		result.EvictedAddr = uint32(victim.Tag)

		if victim.IsDirty && c.backing != nil {
			c.stats.Writebacks++
			c.backing.Write(uint32(victim.Tag), victimData)
		}
	}

	if c.backing != nil {
		newData := c.backing.Read(blockAddr, c.config.BlockSize)
		copy(victimData, newData)
	} else {
		for i := range victimData {
			victimData[i] = 0
		}
	}

	// The tag holds the block-aligned address.
	victim.Tag = uint64(blockAddr)
	victim.IsValid = true
	victim.IsDirty = false

	offset := addr - blockAddr
	if isWrite {
		storeData(victimData, offset, size, writeData)
		victim.IsDirty = true
	} else {
		result.Data = extractData(victimData, offset, size)
	}

	c.directory.Visit(victim)

	return result
}

// Invalidate marks the cache line holding addr as invalid.
func (c *Cache) Invalidate(addr uint32) {
	block := c.directory.Lookup(0, uint64(c.blockAddr(addr)))
	if block != nil && block.IsValid {
		block.IsValid = false
		block.IsDirty = false
	}
}

// Flush writes back all dirty blocks and invalidates them.
func (c *Cache) Flush() {
	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			if block.IsValid && block.IsDirty && c.backing != nil {
				c.backing.Write(uint32(block.Tag),
					c.dataStore[c.blockIndex(block)])
				c.stats.Writebacks++
			}
			block.IsValid = false
			block.IsDirty = false
		}
	}
}

// Reset invalidates all cache lines without writeback.
func (c *Cache) Reset() {
	c.directory.Reset()
	c.stats = Statistics{}
	c.recentStoreValid = false
	c.recentStoreAddr = 0
}

func extractData(data []byte, offset uint32, size int) uint32 {
	if data == nil || int(offset)+size > len(data) {
		return 0
	}

	var result uint32
	for i := 0; i < size; i++ {
		result |= uint32(data[int(offset)+i]) << (i * 8)
	}
	return result
}

func storeData(data []byte, offset uint32, size int, value uint32) {
	if data == nil || int(offset)+size > len(data) {
		return
	}

	for i := 0; i < size; i++ {
		data[int(offset)+i] = byte(value >> (i * 8))
	}
}
