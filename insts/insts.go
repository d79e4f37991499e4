// Package insts provides RV32 instruction definitions and decoding.
//
// This package implements decoding of RV32 machine code into structured
// instruction representations. It supports:
//   - The RV32I base integer instruction set
//   - The M standard extension (multiply/divide)
//   - The F standard extension (single-precision floating-point)
//   - The Zicsr extension (CSR access instructions)
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode(0x002081b3) // add x3, x1, x2
//	fmt.Printf("Op: %v, Rd: %d, Rs1: %d, Rs2: %d\n", inst.Op, inst.Rd, inst.Rs1, inst.Rs2)
package insts

// Op identifies a decoded operation.
type Op uint16

// RV32I base integer opcodes.
const (
	OpReserved Op = iota
	OpLUI
	OpAUIPC
	OpJAL
	OpJALR
	OpBEQ
	OpBNE
	OpBLT
	OpBGE
	OpBLTU
	OpBGEU
	OpLB
	OpLH
	OpLW
	OpLBU
	OpLHU
	OpSB
	OpSH
	OpSW
	OpADDI
	OpSLTI
	OpSLTIU
	OpXORI
	OpORI
	OpANDI
	OpSLLI
	OpSRLI
	OpSRAI
	OpADD
	OpSUB
	OpSLL
	OpSLT
	OpSLTU
	OpXOR
	OpSRL
	OpSRA
	OpOR
	OpAND
	OpFENCE
	OpECALL
	OpEBREAK
)

// M extension opcodes.
const (
	OpMUL Op = iota + 64
	OpMULH
	OpMULHSU
	OpMULHU
	OpDIV
	OpDIVU
	OpREM
	OpREMU
)

// Zicsr opcodes.
const (
	OpCSRRW Op = iota + 96
	OpCSRRS
	OpCSRRC
	OpCSRRWI
	OpCSRRSI
	OpCSRRCI
)

// F extension opcodes.
const (
	OpFLW Op = iota + 128
	OpFSW
	OpFMADDS
	OpFMSUBS
	OpFNMSUBS
	OpFNMADDS
	OpFADDS
	OpFSUBS
	OpFMULS
	OpFDIVS
	OpFSQRTS
	OpFSGNJS
	OpFSGNJNS
	OpFSGNJXS
	OpFMINS
	OpFMAXS
	OpFCVTWS
	OpFCVTWUS
	OpFMVXW
	OpFCLASSS
	OpFEQS
	OpFLTS
	OpFLES
	OpFCVTSW
	OpFCVTSWU
	OpFMVWX
)

// Format identifies an instruction encoding format.
type Format uint8

// Instruction formats.
const (
	FormatIllegal Format = iota
	FormatR              // register-register
	FormatR4             // three source registers (fused multiply-add)
	FormatI              // register-immediate, loads, JALR
	FormatIShift         // immediate shifts (shamt in the rs2 field)
	FormatS              // stores
	FormatB              // conditional branches
	FormatU              // LUI, AUIPC
	FormatJ              // JAL
	FormatCSR            // CSR register operand forms
	FormatCSRImm         // CSR immediate operand forms
	FormatFence          // FENCE
	FormatSystem         // ECALL, EBREAK
)

// Extension is a bit set of enabled ISA extensions. The base integer
// instruction set is always present.
type Extension uint8

// Supported extensions. C and D are placeholders and install nothing.
const (
	ExtM Extension = 1 << iota
	ExtF
	ExtZicsr
	ExtC
	ExtD
)

// DefaultExtensions returns the extension set enabled when none is
// specified.
func DefaultExtensions() Extension {
	return ExtM | ExtF | ExtZicsr
}

// Has reports whether e includes ext.
func (e Extension) Has(ext Extension) bool {
	return e&ext != 0
}

// Instruction is a fully decoded 32-bit instruction word. All fields and
// immediates are extracted once at decode time; later stages never go back
// to the raw word.
type Instruction struct {
	Raw      uint32
	Op       Op
	Format   Format
	Mnemonic string

	Opcode uint8 // bits 6:2
	Funct3 uint8 // bits 14:12
	Funct7 uint8 // bits 31:25
	Rd     uint8 // bits 11:7
	Rs1    uint8 // bits 19:15
	Rs2    uint8 // bits 24:20
	Rs3    uint8 // bits 31:27, R4 formats only
	RM     uint8 // rounding mode field, aliases Funct3

	CSR uint16 // bits 31:20, CSR forms only

	// Sign-extended immediates for each encoding variant.
	ImmI int32
	ImmS int32
	ImmB int32
	ImmU int32
	ImmJ int32
}

// extractFields fills every field of in from the raw word.
func extractFields(in *Instruction, word uint32) {
	in.Raw = word
	in.Opcode = uint8(word >> 2 & 0x1f)
	in.Funct3 = uint8(word >> 12 & 0x7)
	in.Funct7 = uint8(word >> 25 & 0x7f)
	in.Rd = uint8(word >> 7 & 0x1f)
	in.Rs1 = uint8(word >> 15 & 0x1f)
	in.Rs2 = uint8(word >> 20 & 0x1f)
	in.Rs3 = uint8(word >> 27 & 0x1f)
	in.RM = in.Funct3
	in.CSR = uint16(word >> 20 & 0xfff)

	in.ImmI = int32(word) >> 20
	in.ImmS = (int32(word)>>25)<<5 | int32(word>>7&0x1f)
	in.ImmB = (int32(word)>>31)<<12 |
		int32(word>>7&0x1)<<11 |
		int32(word>>25&0x3f)<<5 |
		int32(word>>8&0xf)<<1
	in.ImmU = int32(word & 0xfffff000)
	in.ImmJ = (int32(word)>>31)<<20 |
		int32(word>>12&0xff)<<12 |
		int32(word>>20&0x1)<<11 |
		int32(word>>21&0x3ff)<<1
}
