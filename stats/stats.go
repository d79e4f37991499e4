// Package stats collects retired-instruction statistics and renders the
// instruction-mix report.
package stats

import (
	"fmt"
	"io"
	"sort"

	"github.com/sarchlab/rv32sim/insts"
)

// Category groups instructions for the mix report.
type Category int

// Instruction categories.
const (
	CategoryArith Category = iota
	CategoryShift
	CategoryBranch
	CategoryJump
	CategoryLoad
	CategoryStore
	CategoryMulDiv
	CategoryFP
	CategoryCSR
	CategorySystem
	numCategories
)

func (c Category) String() string {
	switch c {
	case CategoryArith:
		return "arith"
	case CategoryShift:
		return "shift"
	case CategoryBranch:
		return "branch"
	case CategoryJump:
		return "jump"
	case CategoryLoad:
		return "load"
	case CategoryStore:
		return "store"
	case CategoryMulDiv:
		return "muldiv"
	case CategoryFP:
		return "fp"
	case CategoryCSR:
		return "csr"
	case CategorySystem:
		return "system"
	}
	return "unknown"
}

// Categories lists all categories in report order.
func Categories() []Category {
	cats := make([]Category, numCategories)
	for i := range cats {
		cats[i] = Category(i)
	}
	return cats
}

// Categorize maps an operation to its category. FLW and FSW count as
// memory traffic rather than FP work.
func Categorize(op insts.Op) Category {
	switch op {
	case insts.OpBEQ, insts.OpBNE, insts.OpBLT, insts.OpBGE,
		insts.OpBLTU, insts.OpBGEU:
		return CategoryBranch
	case insts.OpJAL, insts.OpJALR:
		return CategoryJump
	case insts.OpLB, insts.OpLH, insts.OpLW, insts.OpLBU, insts.OpLHU,
		insts.OpFLW:
		return CategoryLoad
	case insts.OpSB, insts.OpSH, insts.OpSW, insts.OpFSW:
		return CategoryStore
	case insts.OpSLLI, insts.OpSRLI, insts.OpSRAI,
		insts.OpSLL, insts.OpSRL, insts.OpSRA:
		return CategoryShift
	case insts.OpMUL, insts.OpMULH, insts.OpMULHSU, insts.OpMULHU,
		insts.OpDIV, insts.OpDIVU, insts.OpREM, insts.OpREMU:
		return CategoryMulDiv
	case insts.OpCSRRW, insts.OpCSRRS, insts.OpCSRRC,
		insts.OpCSRRWI, insts.OpCSRRSI, insts.OpCSRRCI:
		return CategoryCSR
	case insts.OpFENCE, insts.OpECALL, insts.OpEBREAK, insts.OpReserved:
		return CategorySystem
	}
	if op >= insts.OpFMADDS && op <= insts.OpFMVWX {
		return CategoryFP
	}
	return CategoryArith
}

// Collector accumulates per-mnemonic and per-category counts.
type Collector struct {
	byMnemonic map[string]uint64
	byCategory [numCategories]uint64
	total      uint64
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{
		byMnemonic: make(map[string]uint64),
	}
}

// Record counts one retired instruction.
func (c *Collector) Record(in *insts.Instruction) {
	if in == nil {
		return
	}
	c.byMnemonic[in.Mnemonic]++
	c.byCategory[Categorize(in.Op)]++
	c.total++
}

// Hook adapts the collector to the hart's retire hook.
func (c *Collector) Hook() func(*insts.Instruction) {
	return c.Record
}

// Total returns the number of recorded instructions.
func (c *Collector) Total() uint64 {
	return c.total
}

// CategoryCount returns the count for one category.
func (c *Collector) CategoryCount(cat Category) uint64 {
	if cat < 0 || cat >= numCategories {
		return 0
	}
	return c.byCategory[cat]
}

// MnemonicCount returns the count for one mnemonic.
func (c *Collector) MnemonicCount(mnemonic string) uint64 {
	return c.byMnemonic[mnemonic]
}

// Reset clears all counts.
func (c *Collector) Reset() {
	c.byMnemonic = make(map[string]uint64)
	c.byCategory = [numCategories]uint64{}
	c.total = 0
}

// Report writes the instruction-mix tables. Mnemonics are sorted by
// count, ties broken alphabetically.
func (c *Collector) Report(w io.Writer) {
	fmt.Fprintf(w, "Instructions retired: %d\n", c.total)
	if c.total == 0 {
		return
	}

	fmt.Fprintf(w, "\nBy category:\n")
	for _, cat := range Categories() {
		count := c.byCategory[cat]
		if count == 0 {
			continue
		}
		fmt.Fprintf(w, "  %-8s %8d (%5.1f%%)\n",
			cat, count, 100*float64(count)/float64(c.total))
	}

	mnemonics := make([]string, 0, len(c.byMnemonic))
	for m := range c.byMnemonic {
		mnemonics = append(mnemonics, m)
	}
	sort.Slice(mnemonics, func(i, j int) bool {
		a, b := mnemonics[i], mnemonics[j]
		if c.byMnemonic[a] != c.byMnemonic[b] {
			return c.byMnemonic[a] > c.byMnemonic[b]
		}
		return a < b
	})

	fmt.Fprintf(w, "\nBy mnemonic:\n")
	for _, m := range mnemonics {
		fmt.Fprintf(w, "  %-10s %8d\n", m, c.byMnemonic[m])
	}
}
