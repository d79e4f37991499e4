// Package benchmarks provides timing benchmark infrastructure for
// rv32sim calibration.
package benchmarks

import (
	"github.com/sarchlab/rv32sim/emu"
)

// Benchmark defines a single benchmark program.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Setup prepares the hart state before the program runs
	Setup func(h *emu.Hart)

	// Words is the RV32 machine code to execute
	Words []uint32

	// ExpectedExit is the expected exit code (for validation)
	ExpectedExit int
}

// GetMicrobenchmarks returns the standard set of microbenchmarks used
// to calibrate the timing model.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		arithChainBenchmark(),
		memStrideBenchmark(),
		branchHeavyBenchmark(),
		mulDivBenchmark(),
		functionCallsBenchmark(),
	}
}

// arithChainBenchmark stresses the integer ALU with a dependent chain
// inside a counted loop.
func arithChainBenchmark() Benchmark {
	return Benchmark{
		Name:        "arith_chain",
		Description: "Dependent integer adds in a 100-iteration loop",
		Words: []uint32{
			0x00000093, // addi x1,x0,0
			0x06400113, // addi x2,x0,100
			0x00108093, // loop: addi x1,x1,1
			0x00108093, // addi x1,x1,1
			0x00108093, // addi x1,x1,1
			0xffe08093, // addi x1,x1,-2
			0xfff10113, // addi x2,x2,-1
			0xfe0116e3, // bne x2,x0,loop
			0x00008513, // mv a0,x1
			0x00000073, // ecall
		},
		ExpectedExit: 100,
	}
}

// memStrideBenchmark walks memory with a store immediately followed by
// a load of the same word, exercising the data cache and the
// store-to-load forwarding path.
func memStrideBenchmark() Benchmark {
	return Benchmark{
		Name:        "mem_stride",
		Description: "Store/load pairs striding through 256 bytes",
		Words: []uint32{
			0x00000093, // addi x1,x0,0
			0x04000113, // addi x2,x0,64
			0x1020a023, // loop: sw x2,256(x1)
			0x1000a183, // lw x3,256(x1)
			0x00408093, // addi x1,x1,4
			0xfff10113, // addi x2,x2,-1
			0xfe0118e3, // bne x2,x0,loop
			0x00018513, // mv a0,x3
			0x00000073, // ecall
		},
		ExpectedExit: 1,
	}
}

// branchHeavyBenchmark takes a data-dependent branch on every
// iteration, alternating taken and not taken.
func branchHeavyBenchmark() Benchmark {
	return Benchmark{
		Name:        "branch_heavy",
		Description: "Alternating conditional branches over 200 iterations",
		Words: []uint32{
			0x00000093, // addi x1,x0,0
			0x0c800113, // addi x2,x0,200
			0x00117193, // loop: andi x3,x2,1
			0x00018463, // beq x3,x0,skip
			0x00108093, // addi x1,x1,1
			0xfff10113, // skip: addi x2,x2,-1
			0xfe0118e3, // bne x2,x0,loop
			0x00008513, // mv a0,x1
			0x00000073, // ecall
		},
		ExpectedExit: 100,
	}
}

// mulDivBenchmark alternates multiply and divide so that the
// multi-cycle execution latencies dominate.
func mulDivBenchmark() Benchmark {
	return Benchmark{
		Name:        "muldiv",
		Description: "Multiply/divide pairs in a 100-iteration loop",
		Words: []uint32{
			0x00700093, // addi x1,x0,7
			0x06400113, // addi x2,x0,100
			0x021101b3, // loop: mul x3,x2,x1
			0x0211c233, // div x4,x3,x1
			0xfff10113, // addi x2,x2,-1
			0xfe011ae3, // bne x2,x0,loop
			0x00020513, // mv a0,x4
			0x00000073, // ecall
		},
		ExpectedExit: 1,
	}
}

// functionCallsBenchmark calls a leaf function on every iteration to
// expose call/return overhead.
func functionCallsBenchmark() Benchmark {
	return Benchmark{
		Name:        "function_calls",
		Description: "Leaf function call and return, 50 iterations",
		Words: []uint32{
			0x00000293, // addi x5,x0,0
			0x03200313, // addi x6,x0,50
			0x010000ef, // loop: jal ra,leaf
			0xfff30313, // addi x6,x6,-1
			0xfe031ce3, // bne x6,x0,loop
			0x00c0006f, // jal x0,done
			0x00128293, // leaf: addi x5,x5,1
			0x00008067, // jalr x0,0(ra)
			0x00028513, // done: mv a0,x5
			0x00000073, // ecall
		},
		ExpectedExit: 50,
	}
}
